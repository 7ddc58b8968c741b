package transaction

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"github.com/fardream/go-bcs/bcs"

	"github.com/rocketscienceinc/multisig-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/sui"
)

// ProgrammableBuilder collects inputs and move calls for one programmable transaction.
type ProgrammableBuilder struct {
	inputs   []CallArg
	commands []MoveCall
	err      error
}

func NewProgrammableBuilder() *ProgrammableBuilder {
	return &ProgrammableBuilder{}
}

func (that *ProgrammableBuilder) input(arg CallArg) Argument {
	that.inputs = append(that.inputs, arg)
	return Argument{Kind: ArgInput, Index: uint16(len(that.inputs) - 1)}
}

// Pure adds an already BCS-encoded value.
func (that *ProgrammableBuilder) Pure(value []byte) Argument {
	return that.input(CallArg{Pure: value})
}

// PureValue BCS-encodes v as a pure input. An encoding failure is reported by Finish.
func (that *ProgrammableBuilder) PureValue(v any) Argument {
	raw, err := bcs.Marshal(v)
	if err != nil && that.err == nil {
		that.err = fmt.Errorf("failed to encode pure input %d: %w", len(that.inputs), err)
	}
	return that.Pure(raw)
}

func (that *ProgrammableBuilder) PureAddress(addr sui.Address) Argument {
	return that.PureValue(addr)
}

func (that *ProgrammableBuilder) PureU8(v uint8) Argument {
	return that.PureValue(v)
}

// OwnedObject adds an object input pinned at ref.
func (that *ProgrammableBuilder) OwnedObject(ref sui.ObjectRef) Argument {
	return that.input(CallArg{Object: &ObjectArg{Owned: &ref}})
}

func (that *ProgrammableBuilder) SharedObject(id sui.ObjectID, initialVersion uint64, mutable bool) Argument {
	return that.input(CallArg{Object: &ObjectArg{SharedID: id, InitialSharedVersion: initialVersion, Mutable: mutable}})
}

func (that *ProgrammableBuilder) MoveCall(pkg sui.ObjectID, module, function string, args ...Argument) {
	that.commands = append(that.commands, MoveCall{
		Package:   pkg,
		Module:    module,
		Function:  function,
		Arguments: args,
	})
}

func (that *ProgrammableBuilder) Finish() (ProgrammableTransaction, error) {
	if that.err != nil {
		return ProgrammableTransaction{}, that.err
	}
	return ProgrammableTransaction{Inputs: that.inputs, Commands: that.commands}, nil
}

// GasParams selects the coin, price and budget paying for a transaction.
type GasParams struct {
	Payment sui.ObjectRef
	Price   uint64
	Budget  uint64
}

// SignedTransaction is the envelope submitted to the ledger: the exact signed bytes and every
// signature over them.
type SignedTransaction struct {
	Data       *TransactionData
	TxBytes    []byte
	Signatures [][]byte
	Digest     sui.Digest
}

func (that *SignedTransaction) TxBytesBase64() string {
	return base64.StdEncoding.EncodeToString(that.TxBytes)
}

func (that *SignedTransaction) SignaturesBase64() []string {
	out := make([]string, 0, len(that.Signatures))
	for _, sig := range that.Signatures {
		out = append(out, base64.StdEncoding.EncodeToString(sig))
	}
	return out
}

// BuildShared assembles a transaction sent by the shared address and sponsored by the
// personal address of sponsor. The sponsor signs once; that signature both pays for gas and,
// combined with the descriptor, authorizes the shared sender.
func BuildShared(
	kind ProgrammableTransaction,
	sponsor sui.Signer,
	descriptor *sui.MultiSigPublicKey,
	gas GasParams,
) (*SignedTransaction, error) {
	if descriptor == nil {
		return nil, fmt.Errorf("%w: missing descriptor", apperror.ErrMultisigCombine)
	}

	data := &TransactionData{
		Kind:   kind,
		Sender: descriptor.Address(),
		GasData: GasData{
			Payment: []sui.ObjectRef{gas.Payment},
			Owner:   sponsor.Address(),
			Price:   gas.Price,
			Budget:  gas.Budget,
		},
	}

	txBytes, err := canonicalBytes(data)
	if err != nil {
		return nil, err
	}

	personal := sponsor.SignIntent(sui.TransactionDataIntent, txBytes)

	multisig, err := sui.Combine([]sui.Signature{personal}, descriptor, sui.TransactionDataIntent.Digest(txBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to authorize shared sender: %w", err)
	}

	multisigBytes, err := multisig.Serialize()
	if err != nil {
		return nil, err
	}

	return &SignedTransaction{
		Data:       data,
		TxBytes:    txBytes,
		Signatures: [][]byte{personal.Serialize(), multisigBytes},
		Digest:     Digest(txBytes),
	}, nil
}

// BuildPersonal assembles a transaction where signer is both sender and gas owner.
func BuildPersonal(kind ProgrammableTransaction, signer sui.Signer, gas GasParams) (*SignedTransaction, error) {
	data := &TransactionData{
		Kind:   kind,
		Sender: signer.Address(),
		GasData: GasData{
			Payment: []sui.ObjectRef{gas.Payment},
			Owner:   signer.Address(),
			Price:   gas.Price,
			Budget:  gas.Budget,
		},
	}

	txBytes, err := canonicalBytes(data)
	if err != nil {
		return nil, err
	}

	sig := signer.SignIntent(sui.TransactionDataIntent, txBytes)

	return &SignedTransaction{
		Data:       data,
		TxBytes:    txBytes,
		Signatures: [][]byte{sig.Serialize()},
		Digest:     Digest(txBytes),
	}, nil
}

// canonicalBytes serializes data and proves the bytes decode back to the same payload, so
// what gets signed is exactly what the ledger will parse.
func canonicalBytes(data *TransactionData) ([]byte, error) {
	txBytes, err := data.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperror.ErrSerializationMismatch, err)
	}

	decoded, err := Decode(txBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperror.ErrSerializationMismatch, err)
	}

	again, err := decoded.Bytes()
	if err != nil || !bytes.Equal(txBytes, again) {
		return nil, apperror.ErrSerializationMismatch
	}

	return txBytes, nil
}
