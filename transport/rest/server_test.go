package rest

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/multisig-tictactoe/internal/metrics"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/sui"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/usecase"
)

type fixedStatus struct {
	snapshot usecase.Snapshot
}

func (that fixedStatus) Snapshot() usecase.Snapshot {
	return that.snapshot
}

func serve(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, path, nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRouter(t *testing.T) {
	gameID := sui.MustParseAddress("0x6a")
	router := NewRouter(NewHandlers(fixedStatus{snapshot: usecase.Snapshot{
		State:   usecase.StateAwaitingOpponentTurn,
		Side:    "O",
		GameID:  &gameID,
		CurTurn: 3,
		Status:  "in progress",
	}}))

	t.Run("Ping", func(t *testing.T) {
		rec := serve(t, router, "/ping")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "pong", rec.Body.String())
	})

	t.Run("Status reports the loop snapshot", func(t *testing.T) {
		rec := serve(t, router, "/status")

		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, `"state":"awaiting_opponent_turn"`)
		assert.Contains(t, body, `"game_id":"`+gameID.String()+`"`)
		assert.Contains(t, body, `"cur_turn":3`)
	})

	t.Run("Metrics", func(t *testing.T) {
		metrics.Metrics.Polled()

		rec := serve(t, router, "/metrics")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, strings.Contains(rec.Body.String(), "tictactoe_polls_total"))
	})
}
