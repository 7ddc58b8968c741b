package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/multisig-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/sui"
)

var (
	addrX = sui.MustParseAddress("0xa")
	addrO = sui.MustParseAddress("0xb")
)

func TestGame_ActiveSide(t *testing.T) {
	t.Run("Even turns belong to X", func(t *testing.T) {
		// Given: a game at turn 4
		game := &Game{CurTurn: 4, XAddr: addrX, OAddr: addrO}

		// When: asking who moves
		side := game.ActiveSide()

		// Then: it is X and X's address is active
		assert.Equal(t, SideX, side)
		assert.Equal(t, addrX, game.ActiveAddress())
		assert.True(t, game.IsMyTurn(SideX))
		assert.False(t, game.IsMyTurn(SideO))
	})

	t.Run("Odd turns belong to O", func(t *testing.T) {
		game := &Game{CurTurn: 3, XAddr: addrX, OAddr: addrO}

		assert.Equal(t, SideO, game.ActiveSide())
		assert.Equal(t, addrO, game.ActiveAddress())
	})

	t.Run("Nobody moves in a finished game", func(t *testing.T) {
		game := &Game{CurTurn: 5, Status: StatusWinnerX}

		assert.False(t, game.IsMyTurn(SideX))
		assert.False(t, game.IsMyTurn(SideO))
	})

	t.Run("Parity alternates by exactly one per placement", func(t *testing.T) {
		game := &Game{}
		for turn := uint8(0); turn < BoardSize; turn++ {
			game.CurTurn = turn
			next := &Game{CurTurn: turn + 1}
			assert.Equal(t, game.ActiveSide().Opponent(), next.ActiveSide())
		}
	})
}

func TestGame_CellAt(t *testing.T) {
	// Given: a board with X at index 5, which is column 1 row 2
	game := &Game{}
	game.Board[5] = CellX

	// Then: the column-major lookup finds it
	assert.Equal(t, CellX, game.CellAt(2, 1))
	assert.Equal(t, CellEmpty, game.CellAt(1, 2))
}

func TestGame_Winner(t *testing.T) {
	side, ok := (&Game{Status: StatusWinnerO}).Winner()
	require.True(t, ok)
	assert.Equal(t, SideO, side)

	_, ok = (&Game{Status: StatusDraw}).Winner()
	assert.False(t, ok)

	_, ok = (&Game{Status: StatusInProgress}).Winner()
	assert.False(t, ok)
}

func TestCheckStatusTransition(t *testing.T) {
	all := []Status{StatusInProgress, StatusWinnerX, StatusWinnerO, StatusDraw}

	t.Run("In progress may move to any status", func(t *testing.T) {
		for _, next := range all {
			assert.NoError(t, CheckStatusTransition(StatusInProgress, next), "to %s", next)
		}
	})

	t.Run("Terminal statuses never change", func(t *testing.T) {
		for _, prev := range all[1:] {
			for _, next := range all {
				err := CheckStatusTransition(prev, next)
				if next == prev {
					assert.NoError(t, err)
					continue
				}
				require.ErrorIs(t, err, apperror.ErrStatusRegression, "%s -> %s", prev, next)
			}
		}
	})

	t.Run("Unknown status is rejected", func(t *testing.T) {
		require.ErrorIs(t, CheckStatusTransition(StatusInProgress, Status(7)), ErrUnknownGameStatus)
	})
}

func TestCheckTurnTransition(t *testing.T) {
	require.NoError(t, CheckTurnTransition(2, 2))
	require.NoError(t, CheckTurnTransition(2, 3))
	require.ErrorIs(t, CheckTurnTransition(3, 2), apperror.ErrTurnRegression)
}

func TestParseSide(t *testing.T) {
	for input, want := range map[string]Side{"x": SideX, "X": SideX, " o ": SideO, "O": SideO} {
		side, err := ParseSide(input)
		require.NoError(t, err)
		assert.Equal(t, want, side)
	}

	_, err := ParseSide("z")
	require.ErrorIs(t, err, ErrInvalidSide)

	assert.Equal(t, 0, SideX.KeyIndex())
	assert.Equal(t, 1, SideO.KeyIndex())
}

func TestOwner_IsAddress(t *testing.T) {
	assert.True(t, AddressOwner(addrX).IsAddress(addrX))
	assert.False(t, AddressOwner(addrX).IsAddress(addrO))
	assert.False(t, Owner{Kind: OwnerObject, Address: addrX}.IsAddress(addrX))
}
