package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/multisig-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/codec"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/entity"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/ledger"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/sui"
)

const (
	GameStructName = "TicTacToe"
	MarkStructName = "Mark"
)

// chainClient is the part of the ledger client the repositories read through.
type chainClient interface {
	GetObject(ctx context.Context, id sui.ObjectID, opts ledger.ObjectOptions) (*ledger.ObjectData, error)
	GetAllOwnedObjects(ctx context.Context, owner sui.Address, structType string, opts ledger.ObjectOptions) ([]ledger.ObjectData, error)
	GetReferenceGasPrice(ctx context.Context) (uint64, error)
}

// Program identifies the deployed game module.
type Program struct {
	PackageID sui.ObjectID
	Module    string
}

func (that Program) StructTag(name string) sui.StructTag {
	return sui.StructTag{Address: that.PackageID, Module: that.Module, Name: name}
}

// GameFilter selects among the games owned by the shared account.
type GameFilter func(game *entity.Game) bool

// UnfinishedGames keeps games still in progress.
func UnfinishedGames(game *entity.Game) bool {
	return !game.IsFinished()
}

type GameRepository interface {
	FetchGame(ctx context.Context, id sui.ObjectID) (*entity.Game, error)
	FetchAvailableGame(ctx context.Context, shared sui.Address, filter GameFilter) (*entity.Game, error)
}

type chainGame struct {
	logger  *slog.Logger
	client  chainClient
	cache   *codec.Cache
	gameTag sui.StructTag
}

func NewGameRepository(logger *slog.Logger, client chainClient, cache *codec.Cache, program Program) GameRepository {
	return &chainGame{
		logger:  logger.With("component", "game_repository"),
		client:  client,
		cache:   cache,
		gameTag: program.StructTag(GameStructName),
	}
}

// FetchGame reads the game's BCS contents at its latest version.
func (that *chainGame) FetchGame(ctx context.Context, id sui.ObjectID) (*entity.Game, error) {
	data, err := that.client.GetObject(ctx, id, ledger.ObjectOptions{ShowBcs: true})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch game %s: %w", id, err)
	}

	raw, err := moveBytes(data, that.gameTag)
	if err != nil {
		return nil, err
	}

	return that.cache.Game(data.ObjectID, uint64(data.Version), raw)
}

// FetchAvailableGame returns the first game owned by shared that passes filter. A nil filter
// accepts any game.
func (that *chainGame) FetchAvailableGame(ctx context.Context, shared sui.Address, filter GameFilter) (*entity.Game, error) {
	log := that.logger.With("method", "FetchAvailableGame")

	objects, err := that.client.GetAllOwnedObjects(ctx, shared, that.gameTag.String(), ledger.ObjectOptions{ShowType: true, ShowContent: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list games of %s: %w", shared, err)
	}

	for i := range objects {
		fields, err := objects[i].Fields()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", apperror.ErrDecode, err)
		}

		game, err := codec.DecodeGameFields(fields)
		if err != nil {
			return nil, err
		}

		if filter == nil || filter(game) {
			log.Debug("found game", "game", game.ID, "turn", game.CurTurn)
			return game, nil
		}
	}

	return nil, apperror.ErrNoAvailableGame
}

func moveBytes(data *ledger.ObjectData, tag sui.StructTag) ([]byte, error) {
	raw, err := data.MoveBytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrDecode, err)
	}
	if !tag.Matches(data.Bcs.Type) {
		return nil, fmt.Errorf("%w: object %s is %s, want %s", apperror.ErrDecode, data.ObjectID, data.Bcs.Type, tag)
	}
	return raw, nil
}
