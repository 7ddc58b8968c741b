package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rocketscienceinc/multisig-tictactoe/internal/usecase"
)

type Handlers interface {
	PingHandler(c *gin.Context)
	StatusHandler(c *gin.Context)
}

type loopStatus interface {
	Snapshot() usecase.Snapshot
}

type handlers struct {
	loop loopStatus
}

func NewHandlers(loop loopStatus) Handlers {
	return &handlers{
		loop: loop,
	}
}

func (that *handlers) PingHandler(c *gin.Context) {
	c.String(http.StatusOK, "pong")
}

// StatusHandler reports where the turn loop is: state, game, turn and the last transaction.
func (that *handlers) StatusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, that.loop.Snapshot())
}
