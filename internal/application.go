package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/rocketscienceinc/multisig-tictactoe/internal/codec"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/config"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/console"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/entity"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/ledger"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/notify"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/repository"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/repository/storage"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/service"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/sui"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/usecase"
	"github.com/rocketscienceinc/multisig-tictactoe/transport/rest"
)

var ErrPackageNotSet = errors.New("game package id is not configured")

// RunApp - plays one game to the end while serving the status endpoints.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	side, err := entity.ParseSide(conf.Player.PlayingAs)
	if err != nil {
		return err
	}

	signer, err := loadSigner(conf.Player)
	if err != nil {
		return err
	}

	opponent, err := sui.ParsePublicKey(conf.Opponent.PublicKey)
	if err != nil {
		return fmt.Errorf("failed to parse opponent public key: %w", err)
	}

	descriptor, err := buildDescriptor(side, signer.PublicKey(), opponent)
	if err != nil {
		return err
	}

	if conf.Game.PackageID == "" {
		return ErrPackageNotSet
	}
	packageID, err := sui.ParseAddress(conf.Game.PackageID)
	if err != nil {
		return fmt.Errorf("failed to parse package id: %w", err)
	}
	program := repository.Program{PackageID: packageID, Module: conf.Game.Module}

	var gasCoin *sui.ObjectID
	if conf.Game.GasCoin != "" {
		id, err := sui.ParseAddress(conf.Game.GasCoin)
		if err != nil {
			return fmt.Errorf("failed to parse gas coin: %w", err)
		}
		gasCoin = &id
	}

	player := entity.Player{Side: side, Personal: signer.Address(), Shared: descriptor.Address()}
	log.Info("identities resolved", "side", side.String(), "personal", player.Personal, "shared", player.Shared)

	sessions, closeSessions, err := newSessionRepository(ctx, conf.Redis)
	if err != nil {
		return err
	}
	defer closeSessions()

	notifier := newNotifier(logger, conf.NATS)
	defer notifier.Close()

	cache, err := codec.NewCache(codec.DefaultCacheSize)
	if err != nil {
		return fmt.Errorf("failed to create object cache: %w", err)
	}

	client := ledger.New(logger, conf.RPC.URL, conf.RPC.Timeout, conf.RPC.RequestsPerSecond)
	gameRepo := repository.NewGameRepository(logger, client, cache, program)
	markRepo := repository.NewMarkRepository(client, cache, program)
	objectRepo := repository.NewObjectRepository(client, cache)

	gameService := service.NewGameService(logger, service.GameServiceConfig{
		Program:    program,
		Signer:     signer,
		Descriptor: descriptor,
		GasBudget:  conf.Game.GasBudget,
		GasCoin:    gasCoin,
	}, objectRepo, service.NewGasSelector(objectRepo), service.NewSubmitter(logger, client))

	loop := usecase.NewTurnLoop(logger, usecase.TurnLoopConfig{
		Player:       player,
		PollInterval: conf.Game.PollInterval,
	}, gameRepo, markRepo, objectRepo, sessions, gameService, console.NewPrompter(os.Stdin, os.Stdout), notifier)

	fmt.Fprintf(os.Stdout, "You are playing as %s\n", side)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("Starting status server", "port", conf.StatusPort)
		if err := rest.Start(groupCtx, conf.StatusPort, rest.NewHandlers(loop)); err != nil {
			return fmt.Errorf("status server error: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		// the server only outlives the game until this returns
		defer cancel()

		game, err := loop.Run(groupCtx)
		if errors.Is(err, context.Canceled) {
			log.Info("Application context canceled, shutting down")
			return nil
		}
		if err != nil {
			return fmt.Errorf("game loop failed: %w", err)
		}

		return announce(os.Stdout, game)
	})

	return group.Wait()
}

func announce(w io.Writer, game *entity.Game) error {
	if err := console.RenderBoard(w, game); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, console.Outcome(game.Status))
	return err
}

func newSessionRepository(ctx context.Context, conf config.Redis) (repository.SessionRepository, func(), error) {
	if !conf.Enabled {
		return repository.NewMemorySessionRepository(), func() {}, nil
	}

	redisStorage, err := storage.NewRedisStorage(ctx, conf.Host, conf.Port)
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
	}

	closeFn := func() {
		_ = redisStorage.Close()
	}
	return repository.NewSessionRepository(redisStorage.Connection), closeFn, nil
}

// newNotifier falls back to polling alone when NATS is not configured or unreachable.
func newNotifier(logger *slog.Logger, conf config.NATS) notify.Notifier {
	if conf.URL == "" {
		return notify.NewNoopNotifier()
	}

	notifier, err := notify.NewNATSNotifier(logger, conf.URL, conf.SubjectPrefix)
	if err != nil {
		logger.Warn("turn notifications disabled", "error", err)
		return notify.NewNoopNotifier()
	}
	return notifier
}
