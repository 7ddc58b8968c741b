package ledger

import (
	"context"
	"encoding/base64"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/multisig-tictactoe/internal/entity"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/sui"
)

// rpcError is the error object a node puts in a failed response.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type handlerFunc func(method string, params []any) (any, *rpcError)

func newTestClient(t *testing.T, handle handlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			JSONRPC string `json:"jsonrpc"`
			ID      any    `json:"id"`
			Method  string `json:"method"`
			Params  []any  `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		result, rpcErr := handle(req.Method, req.Params)
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return New(logger, srv.URL, 5*time.Second, 0)
}

const testDigest = "11111111111111111111111111111111"

func TestClient_GetObject(t *testing.T) {
	ctx := context.Background()
	id := sui.MustParseAddress("0x6a")

	t.Run("Returns data with owner and bcs", func(t *testing.T) {
		// Given: a node that knows the object
		var gotParams []any
		client := newTestClient(t, func(method string, params []any) (any, *rpcError) {
			require.Equal(t, "sui_getObject", method)
			gotParams = params
			return map[string]any{
				"data": map[string]any{
					"objectId": id.String(),
					"version":  "17",
					"digest":   testDigest,
					"owner":    map[string]any{"AddressOwner": "0x5"},
					"bcs": map[string]any{
						"dataType": "moveObject",
						"type":     "0xa11::multisig_tic_tac_toe::TicTacToe",
						"bcsBytes": base64.StdEncoding.EncodeToString([]byte{1, 2, 3}),
					},
				},
			}, nil
		})

		// When: fetching it
		data, err := client.GetObject(ctx, id, ObjectOptions{ShowOwner: true, ShowBcs: true})

		// Then: the object is decoded and the options were sent
		require.NoError(t, err)
		assert.Equal(t, id.String(), gotParams[0])
		sent := gotParams[1].(map[string]any)
		assert.Equal(t, true, sent["showOwner"])
		assert.Equal(t, true, sent["showBcs"])
		assert.NotEqual(t, true, sent["showContent"])

		ref, err := data.Ref()
		require.NoError(t, err)
		assert.Equal(t, uint64(17), ref.Version)

		owner, err := data.OwnerInfo()
		require.NoError(t, err)
		assert.True(t, owner.IsAddress(sui.MustParseAddress("0x5")))

		raw, err := data.MoveBytes()
		require.NoError(t, err)
		assert.Equal(t, []byte{1, 2, 3}, raw)
	})

	t.Run("Missing object is ErrObjectNotFound", func(t *testing.T) {
		client := newTestClient(t, func(string, []any) (any, *rpcError) {
			return map[string]any{"error": map[string]any{"code": "notExists", "object_id": id.String()}}, nil
		})

		_, err := client.GetObject(ctx, id, ObjectOptions{})

		require.ErrorIs(t, err, ErrObjectNotFound)
	})

	t.Run("Null data is ErrObjectNotFound", func(t *testing.T) {
		client := newTestClient(t, func(string, []any) (any, *rpcError) {
			return map[string]any{"data": nil}, nil
		})

		_, err := client.GetObject(ctx, id, ObjectOptions{})

		require.ErrorIs(t, err, ErrObjectNotFound)
	})

	t.Run("RPC errors propagate", func(t *testing.T) {
		client := newTestClient(t, func(string, []any) (any, *rpcError) {
			return nil, &rpcError{Code: -32602, Message: "invalid params"}
		})

		_, err := client.GetObject(ctx, id, ObjectOptions{})

		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrObjectNotFound)
		assert.Contains(t, err.Error(), "invalid params")
	})
}

func TestClient_GetAllOwnedObjects(t *testing.T) {
	// Given: a node that returns owned objects across two pages
	owner := sui.MustParseAddress("0x5")
	calls := 0
	client := newTestClient(t, func(method string, params []any) (any, *rpcError) {
		require.Equal(t, "suix_getOwnedObjects", method)
		require.Equal(t, owner.String(), params[0])
		query := params[1].(map[string]any)
		require.Equal(t, map[string]any{"StructType": sui.GasCoinType}, query["filter"])

		calls++
		if params[2] == nil {
			cursor := "page-2"
			return map[string]any{
				"data":        []any{map[string]any{"data": map[string]any{"objectId": "0xc1", "version": "1", "digest": testDigest}}},
				"nextCursor":  cursor,
				"hasNextPage": true,
			}, nil
		}
		require.Equal(t, "page-2", params[2])
		return map[string]any{
			"data":        []any{map[string]any{"data": map[string]any{"objectId": "0xc2", "version": "2", "digest": testDigest}}},
			"nextCursor":  nil,
			"hasNextPage": false,
		}, nil
	})

	// When: listing everything
	objects, err := client.GetAllOwnedObjects(context.Background(), owner, sui.GasCoinType, ObjectOptions{ShowBcs: true})

	// Then: both pages are collected in order
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	require.Len(t, objects, 2)
	assert.Equal(t, sui.MustParseAddress("0xc1"), objects[0].ObjectID)
	assert.Equal(t, sui.MustParseAddress("0xc2"), objects[1].ObjectID)
}

func TestClient_GetReferenceGasPrice(t *testing.T) {
	client := newTestClient(t, func(method string, _ []any) (any, *rpcError) {
		require.Equal(t, "suix_getReferenceGasPrice", method)
		return "750", nil
	})

	price, err := client.GetReferenceGasPrice(context.Background())

	require.NoError(t, err)
	assert.Equal(t, uint64(750), price)
}

func TestClient_ExecuteTransactionBlock(t *testing.T) {
	// Given: a node that executes and reports effects
	client := newTestClient(t, func(method string, params []any) (any, *rpcError) {
		require.Equal(t, "sui_executeTransactionBlock", method)
		require.Equal(t, "dHg=", params[0])
		require.Equal(t, []any{"c2ln"}, params[1])
		require.Equal(t, "WaitForLocalExecution", params[3])
		return map[string]any{
			"digest": testDigest,
			"effects": map[string]any{
				"status": map[string]any{"status": "success"},
				"created": []any{map[string]any{
					"owner":     map[string]any{"AddressOwner": "0x5"},
					"reference": map[string]any{"objectId": "0x6a", "version": 3, "digest": testDigest},
				}},
			},
		}, nil
	})

	// When: submitting
	resp, err := client.ExecuteTransactionBlock(context.Background(), "dHg=", []string{"c2ln"},
		TransactionBlockResponseOptions{ShowEffects: true})

	// Then: effects are decoded, numeric versions included
	require.NoError(t, err)
	require.NotNil(t, resp.Effects)
	assert.True(t, resp.Effects.Status.Succeeded())
	require.Len(t, resp.Effects.Created, 1)

	ref, err := resp.Effects.Created[0].Reference.Ref()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), ref.Version)
}

func TestParseOwner(t *testing.T) {
	cases := map[string]entity.Owner{
		`{"AddressOwner":"0x5"}`:                     entity.AddressOwner(sui.MustParseAddress("0x5")),
		`{"ObjectOwner":"0x6"}`:                      {Kind: entity.OwnerObject, Address: sui.MustParseAddress("0x6")},
		`{"Shared":{"initial_shared_version":12}}`:   {Kind: entity.OwnerShared, InitialSharedVersion: 12},
		`{"Shared":{"initial_shared_version":"13"}}`: {Kind: entity.OwnerShared, InitialSharedVersion: 13},
		`"Immutable"`:                                {Kind: entity.OwnerImmutable},
	}

	for raw, want := range cases {
		got, err := ParseOwner([]byte(raw))
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := ParseOwner([]byte(`{"Something":1}`))
	require.Error(t, err)

	_, err = ParseOwner([]byte(`"Frozen"`))
	require.Error(t, err)
}
