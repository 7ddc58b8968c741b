package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rocketscienceinc/multisig-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/entity"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/ledger"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/metrics"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/sui"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/transaction"
)

var ErrNoEffects = errors.New("transaction response carries no effects")

// ChangedObject is an object written by a transaction together with its new owner.
type ChangedObject struct {
	Ref   sui.ObjectRef
	Owner entity.Owner
}

type ExecutionResult struct {
	Digest  string
	Status  string
	Created []ChangedObject
	Mutated []ChangedObject
}

// CreatedOwnedBy returns the first object the transaction created for owner.
func (that *ExecutionResult) CreatedOwnedBy(owner sui.Address) (sui.ObjectID, bool) {
	for _, obj := range that.Created {
		if obj.Owner.IsAddress(owner) {
			return obj.Ref.ObjectID, true
		}
	}
	return sui.ObjectID{}, false
}

type Submitter interface {
	Submit(ctx context.Context, tx *transaction.SignedTransaction) (*ExecutionResult, error)
}

type executor interface {
	ExecuteTransactionBlock(
		ctx context.Context,
		txBytes string,
		signatures []string,
		opts ledger.TransactionBlockResponseOptions,
	) (*ledger.TransactionBlockResponse, error)
}

type submitter struct {
	logger *slog.Logger
	client executor
}

func NewSubmitter(logger *slog.Logger, client executor) Submitter {
	return &submitter{
		logger: logger.With("component", "submitter"),
		client: client,
	}
}

// Submit sends tx and waits for local execution. A transaction the program rejects comes back
// as *apperror.ExecutionError and is never resent.
func (that *submitter) Submit(ctx context.Context, tx *transaction.SignedTransaction) (*ExecutionResult, error) {
	action := actionOf(tx)
	log := that.logger.With("method", "Submit", "action", action, "digest", tx.Digest.String())

	resp, err := that.client.ExecuteTransactionBlock(ctx, tx.TxBytesBase64(), tx.SignaturesBase64(),
		ledger.TransactionBlockResponseOptions{ShowEffects: true, ShowObjectChanges: true})
	if err != nil {
		metrics.Metrics.TransactionSubmitted(action, "error")
		return nil, fmt.Errorf("failed to execute %s: %w", action, err)
	}

	if resp.Digest != tx.Digest.String() {
		log.Warn("ledger digest differs from local digest", "ledger_digest", resp.Digest)
	}

	if len(resp.Errors) > 0 {
		metrics.Metrics.TransactionSubmitted(action, "failure")
		return nil, &apperror.ExecutionError{Digest: resp.Digest, Message: strings.Join(resp.Errors, "; ")}
	}

	if resp.Effects == nil {
		metrics.Metrics.TransactionSubmitted(action, "error")
		return nil, fmt.Errorf("%w: tx %s", ErrNoEffects, resp.Digest)
	}

	if !resp.Effects.Status.Succeeded() {
		metrics.Metrics.TransactionSubmitted(action, "failure")
		log.Error("transaction rejected", "error", resp.Effects.Status.Error)
		return nil, &apperror.ExecutionError{Digest: resp.Digest, Message: resp.Effects.Status.Error}
	}

	result := &ExecutionResult{
		Digest: resp.Digest,
		Status: resp.Effects.Status.Status,
	}

	if result.Created, err = changedObjects(resp.Effects.Created); err != nil {
		return nil, err
	}
	if result.Mutated, err = changedObjects(resp.Effects.Mutated); err != nil {
		return nil, err
	}

	metrics.Metrics.TransactionSubmitted(action, "success")
	log.Info("transaction executed", "created", len(result.Created), "mutated", len(result.Mutated))

	return result, nil
}

func changedObjects(refs []ledger.OwnedObjectRef) ([]ChangedObject, error) {
	out := make([]ChangedObject, 0, len(refs))
	for _, obj := range refs {
		ref, err := obj.Reference.Ref()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", apperror.ErrDecode, err)
		}

		owner, err := ledger.ParseOwner(obj.Owner)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", apperror.ErrDecode, err)
		}

		out = append(out, ChangedObject{Ref: ref, Owner: owner})
	}
	return out, nil
}

func actionOf(tx *transaction.SignedTransaction) string {
	if tx.Data == nil || len(tx.Data.Kind.Commands) == 0 {
		return "unknown"
	}
	return tx.Data.Kind.Commands[0].Function
}
