package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/rocketscienceinc/multisig-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/entity"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/metrics"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/sui"
)

type GasSelector interface {
	SelectGas(ctx context.Context, payer sui.Address, explicit *sui.ObjectID, minBudget uint64, exclude []sui.ObjectID) (sui.ObjectRef, error)
}

type gasRepo interface {
	ObjectRef(ctx context.Context, id sui.ObjectID) (sui.ObjectRef, error)
	OwnedGasCoins(ctx context.Context, owner sui.Address) ([]entity.GasCoin, error)
}

type gasSelector struct {
	objects gasRepo
}

func NewGasSelector(objects gasRepo) GasSelector {
	return &gasSelector{
		objects: objects,
	}
}

// SelectGas returns the coin that pays for the next transaction. A pinned coin is returned at
// its current version without a balance check; otherwise the first coin of payer outside
// exclude holding at least minBudget wins. Nothing is reserved.
func (that *gasSelector) SelectGas(
	ctx context.Context,
	payer sui.Address,
	explicit *sui.ObjectID,
	minBudget uint64,
	exclude []sui.ObjectID,
) (sui.ObjectRef, error) {
	if explicit != nil {
		ref, err := that.objects.ObjectRef(ctx, *explicit)
		if err != nil {
			return sui.ObjectRef{}, fmt.Errorf("failed to resolve gas coin %s: %w", explicit, err)
		}
		return ref, nil
	}

	coins, err := that.objects.OwnedGasCoins(ctx, payer)
	if err != nil {
		return sui.ObjectRef{}, fmt.Errorf("failed to list gas coins: %w", err)
	}

	for _, coin := range coins {
		if slices.Contains(exclude, coin.Ref.ObjectID) || coin.Value < minBudget {
			continue
		}
		return coin.Ref, nil
	}

	metrics.Metrics.GasSelectionFailed()
	return sui.ObjectRef{}, fmt.Errorf("%w: payer %s, budget %d", apperror.ErrInsufficientGas, payer, minBudget)
}
