package entity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rocketscienceinc/multisig-tictactoe/internal/sui"
)

var ErrInvalidSide = errors.New("invalid side, expected X or O")

// Side is the mark a player plays with. X is key 0 of the shared descriptor, O is key 1.
type Side uint8

const (
	SideX Side = iota
	SideO
)

func ParseSide(s string) (Side, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "X":
		return SideX, nil
	case "O":
		return SideO, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidSide, s)
	}
}

func (that Side) String() string {
	if that == SideO {
		return "O"
	}
	return "X"
}

func (that Side) Opponent() Side {
	if that == SideX {
		return SideO
	}
	return SideX
}

func (that Side) KeyIndex() int {
	return int(that)
}

// Player is the local identity for one session.
type Player struct {
	Side     Side
	Personal sui.Address
	Shared   sui.Address
}

// Mark mirrors the on-chain Mark object, the capability to move.
type Mark struct {
	ID         sui.ObjectID `json:"id"`
	Placement  *uint8       `json:"placement"`
	DuringTurn bool         `json:"during_turn"`
	GameOwners sui.Address  `json:"game_owners"`
	GameID     sui.ObjectID `json:"game_id"`
}

type OwnerKind uint8

const (
	OwnerAddress OwnerKind = iota
	OwnerObject
	OwnerShared
	OwnerImmutable
)

// Owner is who currently holds an object on the ledger.
type Owner struct {
	Kind                 OwnerKind
	Address              sui.Address
	InitialSharedVersion uint64
}

func AddressOwner(addr sui.Address) Owner {
	return Owner{Kind: OwnerAddress, Address: addr}
}

// IsAddress reports whether the object is owned by exactly addr.
func (that Owner) IsAddress(addr sui.Address) bool {
	return that.Kind == OwnerAddress && that.Address == addr
}

func (that Owner) String() string {
	switch that.Kind {
	case OwnerAddress:
		return that.Address.String()
	case OwnerObject:
		return "object " + that.Address.String()
	case OwnerShared:
		return fmt.Sprintf("shared@%d", that.InitialSharedVersion)
	default:
		return "immutable"
	}
}

// GasCoin is a fee-paying coin.
type GasCoin struct {
	Ref   sui.ObjectRef
	Value uint64
	Owner Owner
}
