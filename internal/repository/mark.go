package repository

import (
	"context"
	"fmt"

	"github.com/rocketscienceinc/multisig-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/codec"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/entity"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/ledger"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/sui"
)

type MarkRepository interface {
	FetchMarkOwnedBy(ctx context.Context, owner sui.Address, gameID sui.ObjectID) (*entity.Mark, error)
	FetchMark(ctx context.Context, id sui.ObjectID) (*entity.Mark, error)
}

type chainMark struct {
	client  chainClient
	cache   *codec.Cache
	markTag sui.StructTag
}

func NewMarkRepository(client chainClient, cache *codec.Cache, program Program) MarkRepository {
	return &chainMark{
		client:  client,
		cache:   cache,
		markTag: program.StructTag(MarkStructName),
	}
}

// FetchMarkOwnedBy returns the mark of gameID held by owner, or apperror.ErrNoMarkFound.
func (that *chainMark) FetchMarkOwnedBy(ctx context.Context, owner sui.Address, gameID sui.ObjectID) (*entity.Mark, error) {
	objects, err := that.client.GetAllOwnedObjects(ctx, owner, that.markTag.String(), ledger.ObjectOptions{ShowBcs: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list marks of %s: %w", owner, err)
	}

	for i := range objects {
		raw, err := moveBytes(&objects[i], that.markTag)
		if err != nil {
			return nil, err
		}

		mark, err := that.cache.Mark(objects[i].ObjectID, uint64(objects[i].Version), raw)
		if err != nil {
			return nil, err
		}

		if mark.GameID == gameID {
			return mark, nil
		}
	}

	return nil, fmt.Errorf("%w: game %s, owner %s", apperror.ErrNoMarkFound, gameID, owner)
}

func (that *chainMark) FetchMark(ctx context.Context, id sui.ObjectID) (*entity.Mark, error) {
	data, err := that.client.GetObject(ctx, id, ledger.ObjectOptions{ShowBcs: true})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch mark %s: %w", id, err)
	}

	raw, err := moveBytes(data, that.markTag)
	if err != nil {
		return nil, err
	}

	return that.cache.Mark(data.ObjectID, uint64(data.Version), raw)
}
