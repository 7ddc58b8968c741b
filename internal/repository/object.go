package repository

import (
	"context"
	"fmt"

	"github.com/rocketscienceinc/multisig-tictactoe/internal/codec"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/entity"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/ledger"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/sui"
)

var gasCoinTag = sui.StructTag{Address: sui.MustParseAddress("0x2"), Module: "coin", Name: "Coin"}

// ObjectRepository answers object-level questions: who holds it, which version is current,
// what gas the payer has.
type ObjectRepository interface {
	OwnerOf(ctx context.Context, id sui.ObjectID) (entity.Owner, error)
	ObjectRef(ctx context.Context, id sui.ObjectID) (sui.ObjectRef, error)
	OwnedGasCoins(ctx context.Context, owner sui.Address) ([]entity.GasCoin, error)
	ReferenceGasPrice(ctx context.Context) (uint64, error)
}

type chainObject struct {
	client chainClient
	cache  *codec.Cache
}

func NewObjectRepository(client chainClient, cache *codec.Cache) ObjectRepository {
	return &chainObject{
		client: client,
		cache:  cache,
	}
}

func (that *chainObject) OwnerOf(ctx context.Context, id sui.ObjectID) (entity.Owner, error) {
	data, err := that.client.GetObject(ctx, id, ledger.ObjectOptions{ShowOwner: true})
	if err != nil {
		return entity.Owner{}, fmt.Errorf("failed to fetch owner of %s: %w", id, err)
	}

	owner, err := data.OwnerInfo()
	if err != nil {
		return entity.Owner{}, fmt.Errorf("failed to decode owner of %s: %w", id, err)
	}
	return owner, nil
}

func (that *chainObject) ObjectRef(ctx context.Context, id sui.ObjectID) (sui.ObjectRef, error) {
	data, err := that.client.GetObject(ctx, id, ledger.ObjectOptions{})
	if err != nil {
		return sui.ObjectRef{}, fmt.Errorf("failed to fetch object %s: %w", id, err)
	}
	return data.Ref()
}

// OwnedGasCoins lists every fee coin of owner with its balance, in the node's order.
func (that *chainObject) OwnedGasCoins(ctx context.Context, owner sui.Address) ([]entity.GasCoin, error) {
	objects, err := that.client.GetAllOwnedObjects(ctx, owner, sui.GasCoinType, ledger.ObjectOptions{ShowBcs: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list gas coins of %s: %w", owner, err)
	}

	coins := make([]entity.GasCoin, 0, len(objects))
	for i := range objects {
		raw, err := moveBytes(&objects[i], gasCoinTag)
		if err != nil {
			return nil, err
		}

		value, err := that.cache.GasCoin(objects[i].ObjectID, uint64(objects[i].Version), raw)
		if err != nil {
			return nil, err
		}

		ref, err := objects[i].Ref()
		if err != nil {
			return nil, err
		}

		coins = append(coins, entity.GasCoin{Ref: ref, Value: value, Owner: entity.AddressOwner(owner)})
	}
	return coins, nil
}

func (that *chainObject) ReferenceGasPrice(ctx context.Context) (uint64, error) {
	price, err := that.client.GetReferenceGasPrice(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch reference gas price: %w", err)
	}
	return price, nil
}
