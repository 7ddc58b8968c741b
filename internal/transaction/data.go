// Package transaction assembles, serializes and signs ledger transactions.
package transaction

import (
	"errors"
	"fmt"

	"github.com/fardream/go-bcs/bcs"

	"github.com/rocketscienceinc/multisig-tictactoe/internal/sui"
)

var (
	ErrUnsupportedVariant   = errors.New("unsupported transaction variant")
	ErrMalformedTransaction = errors.New("malformed transaction data")
)

// TransactionData is the V1 payload that gets signed.
type TransactionData struct {
	Kind       ProgrammableTransaction
	Sender     sui.Address
	GasData    GasData
	Expiration *uint64
}

type GasData struct {
	Payment []sui.ObjectRef
	Owner   sui.Address
	Price   uint64
	Budget  uint64
}

type ProgrammableTransaction struct {
	Inputs   []CallArg
	Commands []MoveCall
}

// CallArg is either pure BCS bytes or an object input; exactly one of Pure and Object is set.
type CallArg struct {
	Pure   []byte
	Object *ObjectArg
}

// ObjectArg references an owned object by ref or a shared object by initial version.
type ObjectArg struct {
	Owned                *sui.ObjectRef
	SharedID             sui.ObjectID
	InitialSharedVersion uint64
	Mutable              bool
}

type MoveCall struct {
	Package   sui.ObjectID
	Module    string
	Function  string
	Arguments []Argument
}

// ArgumentKind values are the wire variant indexes.
type ArgumentKind uint8

const (
	ArgGasCoin ArgumentKind = iota
	ArgInput
	ArgResult
	ArgNestedResult
)

type Argument struct {
	Kind     ArgumentKind
	Index    uint16
	SubIndex uint16
}

// Bytes returns the canonical serialization.
func (that *TransactionData) Bytes() ([]byte, error) {
	wire, err := that.toWire()
	if err != nil {
		return nil, err
	}

	raw, err := bcs.Marshal(*wire)
	if err != nil {
		return nil, fmt.Errorf("failed to encode transaction data: %w", err)
	}
	return raw, nil
}

// Digest is the transaction digest the ledger reports for these bytes.
func Digest(txBytes []byte) sui.Digest {
	return sui.Blake2b256([]byte("TransactionData::"), txBytes)
}

// Decode parses transaction bytes back into TransactionData. Only the shapes this client
// produces are understood.
func Decode(txBytes []byte) (*TransactionData, error) {
	var wire transactionDataBCS

	n, err := bcs.Unmarshal(txBytes, &wire)
	if err != nil {
		return nil, fmt.Errorf("failed to decode transaction data: %w: %v", ErrMalformedTransaction, err)
	}
	if n != len(txBytes) {
		return nil, fmt.Errorf("failed to decode transaction data: %w: %d trailing bytes", ErrMalformedTransaction, len(txBytes)-n)
	}

	tx, err := wire.fromWire()
	if err != nil {
		return nil, fmt.Errorf("failed to decode transaction data: %w", err)
	}
	return tx, nil
}

func (that *TransactionData) toWire() (*transactionDataBCS, error) {
	v1 := &transactionDataV1BCS{
		Sender: that.Sender,
		GasData: gasDataBCS{
			Payment: make([]sui.ObjectRefBCS, 0, len(that.GasData.Payment)),
			Owner:   that.GasData.Owner,
			Price:   that.GasData.Price,
			Budget:  that.GasData.Budget,
		},
		Kind: transactionKindBCS{ProgrammableTransaction: &programmableBCS{
			Inputs:   make([]callArgBCS, 0, len(that.Kind.Inputs)),
			Commands: make([]commandBCS, 0, len(that.Kind.Commands)),
		}},
	}

	for _, in := range that.Kind.Inputs {
		v1.Kind.ProgrammableTransaction.Inputs = append(v1.Kind.ProgrammableTransaction.Inputs, in.toWire())
	}
	for _, call := range that.Kind.Commands {
		cmd, err := call.toWire()
		if err != nil {
			return nil, err
		}
		v1.Kind.ProgrammableTransaction.Commands = append(v1.Kind.ProgrammableTransaction.Commands, cmd)
	}
	for _, ref := range that.GasData.Payment {
		v1.GasData.Payment = append(v1.GasData.Payment, ref.BCS())
	}

	if that.Expiration == nil {
		v1.Expiration.None = &struct{}{}
	} else {
		epoch := *that.Expiration
		v1.Expiration.Epoch = &epoch
	}

	return &transactionDataBCS{V1: v1}, nil
}

func (that CallArg) toWire() callArgBCS {
	if that.Object == nil {
		pure := that.Pure
		if pure == nil {
			pure = []byte{}
		}
		return callArgBCS{Pure: &pure}
	}

	if that.Object.Owned != nil {
		ref := that.Object.Owned.BCS()
		return callArgBCS{Object: &objectArgBCS{ImmOrOwnedObject: &ref}}
	}
	return callArgBCS{Object: &objectArgBCS{SharedObject: &sharedObjectBCS{
		ObjectID:             that.Object.SharedID,
		InitialSharedVersion: that.Object.InitialSharedVersion,
		Mutable:              that.Object.Mutable,
	}}}
}

func (that MoveCall) toWire() (commandBCS, error) {
	call := &moveCallBCS{
		Package:       that.Package,
		Module:        that.Module,
		Function:      that.Function,
		TypeArguments: []typeTagBCS{},
		Arguments:     make([]argumentBCS, 0, len(that.Arguments)),
	}

	for _, arg := range that.Arguments {
		var wire argumentBCS
		index := arg.Index
		switch arg.Kind {
		case ArgGasCoin:
			wire.GasCoin = &struct{}{}
		case ArgInput:
			wire.Input = &index
		case ArgResult:
			wire.Result = &index
		case ArgNestedResult:
			wire.NestedResult = &nestedResultBCS{Index: arg.Index, SubIndex: arg.SubIndex}
		default:
			return commandBCS{}, fmt.Errorf("%w: argument %d", ErrUnsupportedVariant, arg.Kind)
		}
		call.Arguments = append(call.Arguments, wire)
	}

	return commandBCS{MoveCall: call}, nil
}

func (that *transactionDataBCS) fromWire() (*TransactionData, error) {
	if that.V1 == nil || that.V1.Kind.ProgrammableTransaction == nil {
		return nil, fmt.Errorf("%w: not a programmable transaction", ErrUnsupportedVariant)
	}
	v1 := that.V1

	tx := &TransactionData{
		Sender: v1.Sender,
		GasData: GasData{
			Owner:  v1.GasData.Owner,
			Price:  v1.GasData.Price,
			Budget: v1.GasData.Budget,
		},
	}

	for i, in := range v1.Kind.ProgrammableTransaction.Inputs {
		arg, err := in.fromWire()
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		tx.Kind.Inputs = append(tx.Kind.Inputs, arg)
	}

	for i, cmd := range v1.Kind.ProgrammableTransaction.Commands {
		call, err := cmd.fromWire()
		if err != nil {
			return nil, fmt.Errorf("command %d: %w", i, err)
		}
		tx.Kind.Commands = append(tx.Kind.Commands, call)
	}

	for _, wire := range v1.GasData.Payment {
		ref, err := wire.Ref()
		if err != nil {
			return nil, fmt.Errorf("%w: gas payment: %v", ErrMalformedTransaction, err)
		}
		tx.GasData.Payment = append(tx.GasData.Payment, ref)
	}

	if v1.Expiration.Epoch != nil {
		epoch := *v1.Expiration.Epoch
		tx.Expiration = &epoch
	}

	return tx, nil
}

func (that callArgBCS) fromWire() (CallArg, error) {
	switch {
	case that.Pure != nil:
		return CallArg{Pure: *that.Pure}, nil
	case that.Object != nil && that.Object.ImmOrOwnedObject != nil:
		ref, err := that.Object.ImmOrOwnedObject.Ref()
		if err != nil {
			return CallArg{}, fmt.Errorf("%w: %v", ErrMalformedTransaction, err)
		}
		return CallArg{Object: &ObjectArg{Owned: &ref}}, nil
	case that.Object != nil && that.Object.SharedObject != nil:
		shared := that.Object.SharedObject
		return CallArg{Object: &ObjectArg{
			SharedID:             shared.ObjectID,
			InitialSharedVersion: shared.InitialSharedVersion,
			Mutable:              shared.Mutable,
		}}, nil
	default:
		return CallArg{}, fmt.Errorf("%w: call arg", ErrUnsupportedVariant)
	}
}

func (that commandBCS) fromWire() (MoveCall, error) {
	if that.MoveCall == nil {
		return MoveCall{}, fmt.Errorf("%w: command", ErrUnsupportedVariant)
	}
	wire := that.MoveCall
	if len(wire.TypeArguments) != 0 {
		return MoveCall{}, fmt.Errorf("%w: %d type arguments", ErrUnsupportedVariant, len(wire.TypeArguments))
	}

	call := MoveCall{Package: wire.Package, Module: wire.Module, Function: wire.Function}
	for _, arg := range wire.Arguments {
		switch {
		case arg.GasCoin != nil:
			call.Arguments = append(call.Arguments, Argument{Kind: ArgGasCoin})
		case arg.Input != nil:
			call.Arguments = append(call.Arguments, Argument{Kind: ArgInput, Index: *arg.Input})
		case arg.Result != nil:
			call.Arguments = append(call.Arguments, Argument{Kind: ArgResult, Index: *arg.Result})
		case arg.NestedResult != nil:
			call.Arguments = append(call.Arguments, Argument{
				Kind:     ArgNestedResult,
				Index:    arg.NestedResult.Index,
				SubIndex: arg.NestedResult.SubIndex,
			})
		default:
			return MoveCall{}, fmt.Errorf("%w: argument", ErrUnsupportedVariant)
		}
	}
	return call, nil
}
