package codec

import (
	"fmt"
	"strconv"

	"github.com/fardream/go-bcs/bcs"

	"github.com/rocketscienceinc/multisig-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/entity"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/sui"
)

// gameBCS mirrors TicTacToe{id, gameboard, cur_turn, x_addr, o_addr, finished}.
type gameBCS struct {
	ID        sui.ObjectID
	Gameboard []uint8
	CurTurn   uint8
	XAddr     sui.Address
	OAddr     sui.Address
	Finished  uint8
}

// markBCS mirrors Mark{id, placement, during_turn, game_owners, game_id}. A Move Option is a
// vector of at most one element.
type markBCS struct {
	ID         sui.ObjectID
	Placement  []uint8
	DuringTurn bool
	GameOwners sui.Address
	GameID     sui.ObjectID
}

type coinBCS struct {
	ID      sui.ObjectID
	Balance uint64
}

func unmarshal(object string, raw []byte, v any) error {
	n, err := bcs.Unmarshal(raw, v)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", apperror.ErrDecode, object, err)
	}
	if n != len(raw) {
		return fmt.Errorf("%w: %s: %d trailing bytes", apperror.ErrDecode, object, len(raw)-n)
	}
	return nil
}

func marshal(object string, v any) ([]byte, error) {
	raw, err := bcs.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", object, err)
	}
	return raw, nil
}

func DecodeGameBCS(raw []byte) (*entity.Game, error) {
	var wire gameBCS
	if err := unmarshal("TicTacToe", raw, &wire); err != nil {
		return nil, err
	}

	game := &entity.Game{ID: wire.ID, CurTurn: wire.CurTurn, XAddr: wire.XAddr, OAddr: wire.OAddr}
	if err := fillBoard(game, wire.Gameboard); err != nil {
		return nil, err
	}

	var err error
	if game.Status, err = status(wire.Finished); err != nil {
		return nil, err
	}
	return game, nil
}

func DecodeMarkBCS(raw []byte) (*entity.Mark, error) {
	var wire markBCS
	if err := unmarshal("Mark", raw, &wire); err != nil {
		return nil, err
	}

	mark := &entity.Mark{ID: wire.ID, DuringTurn: wire.DuringTurn, GameOwners: wire.GameOwners, GameID: wire.GameID}
	switch len(wire.Placement) {
	case 0:
	case 1:
		placement := wire.Placement[0]
		if placement >= entity.BoardSize {
			return nil, &FieldError{Object: "Mark", Field: "placement", Want: "cell index", Got: strconv.Itoa(int(placement))}
		}
		mark.Placement = &placement
	default:
		return nil, &FieldError{Object: "Mark", Field: "placement", Want: "option", Got: fmt.Sprintf("%d elements", len(wire.Placement))}
	}
	return mark, nil
}

// DecodeGasCoinBCS decodes Coin<SUI>{id, balance} and returns the balance.
func DecodeGasCoinBCS(raw []byte) (uint64, error) {
	var wire coinBCS
	if err := unmarshal("Coin", raw, &wire); err != nil {
		return 0, err
	}
	return wire.Balance, nil
}

func EncodeGameBCS(game *entity.Game) ([]byte, error) {
	wire := gameBCS{
		ID:        game.ID,
		Gameboard: make([]uint8, 0, entity.BoardSize),
		CurTurn:   game.CurTurn,
		XAddr:     game.XAddr,
		OAddr:     game.OAddr,
		Finished:  uint8(game.Status),
	}
	for _, cell := range game.Board {
		wire.Gameboard = append(wire.Gameboard, uint8(cell))
	}
	return marshal("TicTacToe", wire)
}

func EncodeMarkBCS(mark *entity.Mark) ([]byte, error) {
	wire := markBCS{
		ID:         mark.ID,
		Placement:  []uint8{},
		DuringTurn: mark.DuringTurn,
		GameOwners: mark.GameOwners,
		GameID:     mark.GameID,
	}
	if mark.Placement != nil {
		wire.Placement = append(wire.Placement, *mark.Placement)
	}
	return marshal("Mark", wire)
}

func EncodeGasCoinBCS(id sui.ObjectID, value uint64) ([]byte, error) {
	return marshal("Coin", coinBCS{ID: id, Balance: value})
}
