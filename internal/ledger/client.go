// Package ledger reads objects from the full node and submits signed transactions to it.
package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/block-vision/sui-go-sdk/models"
	suisdk "github.com/block-vision/sui-go-sdk/sui"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/rocketscienceinc/multisig-tictactoe/internal/sui"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var ErrObjectNotFound = errors.New("object not found")

const (
	defaultPageLimit = 50
	maxPages         = 100

	waitForLocalExecution = "WaitForLocalExecution"
)

type Client struct {
	logger  *slog.Logger
	api     suisdk.ISuiAPI
	timeout time.Duration
	limiter *rate.Limiter
}

// New creates a client. A non-positive requestsPerSecond disables rate limiting.
func New(logger *slog.Logger, url string, timeout time.Duration, requestsPerSecond float64) *Client {
	limit := rate.Inf
	burst := 1
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
		burst = int(requestsPerSecond) + 1
	}

	return &Client{
		logger:  logger.With("component", "ledger"),
		api:     suisdk.NewSuiClient(url),
		timeout: timeout,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// do runs one node call under the rate limit and the per-call timeout, then re-decodes the
// SDK response into out.
func (that *Client) do(ctx context.Context, method string, out any, call func(ctx context.Context) (any, error)) error {
	log := that.logger.With("method", method, "call_id", uuid.NewString())

	if err := that.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "rate limiter")
	}

	if that.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, that.timeout)
		defer cancel()
	}

	started := time.Now()
	result, err := call(ctx)
	log.Debug("rpc call finished", "elapsed", time.Since(started), "failed", err != nil)
	if err != nil {
		return errors.Wrapf(err, "%s failed", method)
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return errors.Wrapf(err, "failed to encode %s result", method)
	}
	if err = json.Unmarshal(raw, out); err != nil {
		return errors.Wrapf(err, "failed to decode %s result", method)
	}
	return nil
}

// GetObject fetches an object at its latest version.
func (that *Client) GetObject(ctx context.Context, id sui.ObjectID, opts ObjectOptions) (*ObjectData, error) {
	var resp objectResponse
	err := that.do(ctx, "sui_getObject", &resp, func(ctx context.Context) (any, error) {
		return that.api.SuiGetObject(ctx, models.SuiGetObjectRequest{ObjectId: id.String(), Options: opts.sdk()})
	})
	if err != nil {
		return nil, err
	}

	data, ok, err := decodeObjectData(resp.Data)
	if err != nil {
		return nil, errors.Wrapf(err, "object %s", id)
	}
	if !ok {
		return nil, errors.Wrapf(ErrObjectNotFound, "%s", id)
	}
	return data, nil
}

// GetOwnedObjects fetches one page of objects of structType owned by owner.
func (that *Client) GetOwnedObjects(
	ctx context.Context,
	owner sui.Address,
	structType string,
	opts ObjectOptions,
	cursor *string,
	limit int,
) (*ObjectsPage, error) {
	req := models.SuiXGetOwnedObjectsRequest{
		Address: owner.String(),
		Query:   models.SuiObjectResponseQuery{Options: opts.sdk()},
		Limit:   uint64(limit),
	}
	if structType != "" {
		req.Query.Filter = map[string]interface{}{"StructType": structType}
	}
	if cursor != nil {
		req.Cursor = *cursor
	}

	var resp ownedObjectsResponse
	err := that.do(ctx, "suix_getOwnedObjects", &resp, func(ctx context.Context) (any, error) {
		return that.api.SuiXGetOwnedObjects(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	page := &ObjectsPage{HasNextPage: resp.HasNextPage}
	if resp.NextCursor != nil && *resp.NextCursor != "" {
		page.NextCursor = resp.NextCursor
	}
	for _, item := range resp.Data {
		data, ok, err := decodeObjectData(item.Data)
		if err != nil {
			return nil, errors.Wrapf(err, "owned objects of %s", owner)
		}
		if ok {
			page.Data = append(page.Data, *data)
		}
	}
	return page, nil
}

// GetAllOwnedObjects follows the cursor until the last page.
func (that *Client) GetAllOwnedObjects(ctx context.Context, owner sui.Address, structType string, opts ObjectOptions) ([]ObjectData, error) {
	var (
		out    []ObjectData
		cursor *string
	)
	for range maxPages {
		page, err := that.GetOwnedObjects(ctx, owner, structType, opts, cursor, defaultPageLimit)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Data...)
		if !page.HasNextPage || page.NextCursor == nil {
			return out, nil
		}
		cursor = page.NextCursor
	}
	return nil, errors.Errorf("owned objects of %s: more than %d pages", owner, maxPages)
}

func (that *Client) GetReferenceGasPrice(ctx context.Context) (uint64, error) {
	var price U64
	err := that.do(ctx, "suix_getReferenceGasPrice", &price, func(ctx context.Context) (any, error) {
		return that.api.SuiXGetReferenceGasPrice(ctx)
	})
	if err != nil {
		return 0, err
	}
	return uint64(price), nil
}

// ExecuteTransactionBlock submits signed bytes and blocks until the node has executed them
// locally.
func (that *Client) ExecuteTransactionBlock(
	ctx context.Context,
	txBytes string,
	signatures []string,
	opts TransactionBlockResponseOptions,
) (*TransactionBlockResponse, error) {
	req := models.SuiExecuteTransactionBlockRequest{
		TxBytes:   txBytes,
		Signature: signatures,
		Options: models.SuiTransactionBlockOptions{
			ShowEffects:       opts.ShowEffects,
			ShowObjectChanges: opts.ShowObjectChanges,
			ShowEvents:        opts.ShowEvents,
		},
		RequestType: waitForLocalExecution,
	}

	var resp TransactionBlockResponse
	err := that.do(ctx, "sui_executeTransactionBlock", &resp, func(ctx context.Context) (any, error) {
		return that.api.SuiExecuteTransactionBlock(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
