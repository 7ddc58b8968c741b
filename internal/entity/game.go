package entity

import (
	"errors"
	"fmt"

	"github.com/rocketscienceinc/multisig-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/sui"
)

const BoardSize = 9

type Cell uint8

const (
	CellEmpty Cell = iota
	CellX
	CellO
)

func (that Cell) String() string {
	switch that {
	case CellX:
		return "X"
	case CellO:
		return "O"
	default:
		return " "
	}
}

// Status is the on-chain "finished" byte.
type Status uint8

const (
	StatusInProgress Status = iota
	StatusWinnerX
	StatusWinnerO
	StatusDraw
)

var ErrUnknownGameStatus = errors.New("unknown game status")

func (that Status) Valid() bool {
	return that <= StatusDraw
}

func (that Status) String() string {
	switch that {
	case StatusInProgress:
		return "in progress"
	case StatusWinnerX:
		return "X won"
	case StatusWinnerO:
		return "O won"
	case StatusDraw:
		return "draw"
	default:
		return fmt.Sprintf("status(%d)", uint8(that))
	}
}

// Game mirrors the on-chain TicTacToe object.
type Game struct {
	ID      sui.ObjectID    `json:"id"`
	Board   [BoardSize]Cell `json:"board"`
	CurTurn uint8           `json:"cur_turn"`
	XAddr   sui.Address     `json:"x_addr"`
	OAddr   sui.Address     `json:"o_addr"`
	Status  Status          `json:"finished"`
}

// CellAt reads the column-major board.
func (that *Game) CellAt(row, col uint8) Cell {
	return that.Board[int(col)*3+int(row)]
}

// ActiveSide is the side whose turn it is: even turns belong to X.
func (that *Game) ActiveSide() Side {
	if that.CurTurn%2 == 0 {
		return SideX
	}
	return SideO
}

// ActiveAddress is the personal address of the player to move.
func (that *Game) ActiveAddress() sui.Address {
	return that.AddressOf(that.ActiveSide())
}

func (that *Game) AddressOf(side Side) sui.Address {
	if side == SideX {
		return that.XAddr
	}
	return that.OAddr
}

func (that *Game) IsMyTurn(side Side) bool {
	return !that.IsFinished() && that.ActiveSide() == side
}

func (that *Game) IsFinished() bool {
	return that.Status != StatusInProgress
}

// Winner returns the winning side; ok is false while in progress or on a draw.
func (that *Game) Winner() (Side, bool) {
	switch that.Status {
	case StatusWinnerX:
		return SideX, true
	case StatusWinnerO:
		return SideO, true
	default:
		return 0, false
	}
}

// CheckStatusTransition rejects any change away from a terminal status.
func CheckStatusTransition(prev, next Status) error {
	if !next.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownGameStatus, next)
	}
	if prev != StatusInProgress && next != prev {
		return fmt.Errorf("%w: %s -> %s", apperror.ErrStatusRegression, prev, next)
	}
	return nil
}

// CheckTurnTransition rejects a turn counter that moved backwards.
func CheckTurnTransition(prev, next uint8) error {
	if next < prev {
		return fmt.Errorf("%w: %d -> %d", apperror.ErrTurnRegression, prev, next)
	}
	return nil
}
