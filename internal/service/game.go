package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/multisig-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/repository"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/sui"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/transaction"
)

// DefaultGasBudget is the fee budget of every transaction the client sends.
const DefaultGasBudget uint64 = 10_000_000

var ErrCreatedObjectMissing = errors.New("expected object was not created")

// GameService submits the three program actions of the game module.
type GameService interface {
	CreateGame(ctx context.Context) (gameID, markID sui.ObjectID, err error)
	SendMarkToGame(ctx context.Context, markID sui.ObjectID, row, col uint8) (*ExecutionResult, error)
	PlaceMark(ctx context.Context, gameID, markID sui.ObjectID) (*ExecutionResult, error)
}

type objectRepo interface {
	ObjectRef(ctx context.Context, id sui.ObjectID) (sui.ObjectRef, error)
	ReferenceGasPrice(ctx context.Context) (uint64, error)
}

// GameServiceConfig holds the identities and fee settings the actions are built with.
type GameServiceConfig struct {
	Program    repository.Program
	Signer     sui.Signer
	Descriptor *sui.MultiSigPublicKey
	GasBudget  uint64
	// GasCoin pins the coin paying for every transaction. Nil selects one per transaction.
	GasCoin *sui.ObjectID
}

type gameService struct {
	logger    *slog.Logger
	conf      GameServiceConfig
	objects   objectRepo
	gas       GasSelector
	submitter Submitter
}

func NewGameService(logger *slog.Logger, conf GameServiceConfig, objects objectRepo, gas GasSelector, submitter Submitter) GameService {
	if conf.GasBudget == 0 {
		conf.GasBudget = DefaultGasBudget
	}

	return &gameService{
		logger:    logger.With("component", "game_service"),
		conf:      conf,
		objects:   objects,
		gas:       gas,
		submitter: submitter,
	}
}

// CreateGame starts a game between the two keys of the descriptor. The game is created under
// the shared address and the mark under the X player's personal address.
func (that *gameService) CreateGame(ctx context.Context) (sui.ObjectID, sui.ObjectID, error) {
	log := that.logger.With("method", "CreateGame")

	keys := that.conf.Descriptor.Keys()
	if len(keys) != 2 {
		return sui.ObjectID{}, sui.ObjectID{}, fmt.Errorf("%w: a game needs exactly two keys, got %d", apperror.ErrInvalidDescriptor, len(keys))
	}
	xAddr := keys[0].Key.Address()
	oAddr := keys[1].Key.Address()

	ptb := transaction.NewProgrammableBuilder()
	ptb.MoveCall(that.conf.Program.PackageID, that.conf.Program.Module, "create_game",
		ptb.PureAddress(xAddr), ptb.PureAddress(oAddr))

	kind, err := ptb.Finish()
	if err != nil {
		return sui.ObjectID{}, sui.ObjectID{}, fmt.Errorf("failed to build create_game: %w", err)
	}

	tx, err := that.buildShared(ctx, kind)
	if err != nil {
		return sui.ObjectID{}, sui.ObjectID{}, fmt.Errorf("failed to build create_game: %w", err)
	}

	result, err := that.submitter.Submit(ctx, tx)
	if err != nil {
		return sui.ObjectID{}, sui.ObjectID{}, err
	}

	shared := that.conf.Descriptor.Address()
	gameID, ok := result.CreatedOwnedBy(shared)
	if !ok {
		return sui.ObjectID{}, sui.ObjectID{}, fmt.Errorf("%w: no game under shared account %s", ErrCreatedObjectMissing, shared)
	}

	markID, ok := result.CreatedOwnedBy(xAddr)
	if !ok {
		return sui.ObjectID{}, sui.ObjectID{}, fmt.Errorf("%w: no mark under first player %s", ErrCreatedObjectMissing, xAddr)
	}

	log.Info("game created", "game", gameID, "mark", markID, "digest", result.Digest)
	return gameID, markID, nil
}

// SendMarkToGame records the chosen cell on the mark and hands it to the shared account.
func (that *gameService) SendMarkToGame(ctx context.Context, markID sui.ObjectID, row, col uint8) (*ExecutionResult, error) {
	markRef, err := that.objects.ObjectRef(ctx, markID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve mark: %w", err)
	}

	ptb := transaction.NewProgrammableBuilder()
	ptb.MoveCall(that.conf.Program.PackageID, that.conf.Program.Module, "send_mark_to_game",
		ptb.OwnedObject(markRef), ptb.PureU8(row), ptb.PureU8(col))

	kind, err := ptb.Finish()
	if err != nil {
		return nil, fmt.Errorf("failed to build send_mark_to_game: %w", err)
	}

	gas, err := that.gasParams(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := transaction.BuildPersonal(kind, that.conf.Signer, gas)
	if err != nil {
		return nil, fmt.Errorf("failed to build send_mark_to_game: %w", err)
	}

	return that.submitter.Submit(ctx, tx)
}

// PlaceMark applies the placement stored on the mark to the game, as the shared account.
func (that *gameService) PlaceMark(ctx context.Context, gameID, markID sui.ObjectID) (*ExecutionResult, error) {
	gameRef, err := that.objects.ObjectRef(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve game: %w", err)
	}

	markRef, err := that.objects.ObjectRef(ctx, markID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve mark: %w", err)
	}

	ptb := transaction.NewProgrammableBuilder()
	ptb.MoveCall(that.conf.Program.PackageID, that.conf.Program.Module, "place_mark",
		ptb.OwnedObject(gameRef), ptb.OwnedObject(markRef))

	kind, err := ptb.Finish()
	if err != nil {
		return nil, fmt.Errorf("failed to build place_mark: %w", err)
	}

	tx, err := that.buildShared(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to build place_mark: %w", err)
	}

	return that.submitter.Submit(ctx, tx)
}

func (that *gameService) buildShared(ctx context.Context, kind transaction.ProgrammableTransaction) (*transaction.SignedTransaction, error) {
	gas, err := that.gasParams(ctx)
	if err != nil {
		return nil, err
	}
	return transaction.BuildShared(kind, that.conf.Signer, that.conf.Descriptor, gas)
}

// gasParams always charges the signer's personal address, which sponsors shared transactions too.
func (that *gameService) gasParams(ctx context.Context) (transaction.GasParams, error) {
	coin, err := that.gas.SelectGas(ctx, that.conf.Signer.Address(), that.conf.GasCoin, that.conf.GasBudget, nil)
	if err != nil {
		return transaction.GasParams{}, err
	}

	price, err := that.objects.ReferenceGasPrice(ctx)
	if err != nil {
		return transaction.GasParams{}, err
	}

	return transaction.GasParams{Payment: coin, Price: price, Budget: that.conf.GasBudget}, nil
}
