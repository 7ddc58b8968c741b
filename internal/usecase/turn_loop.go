package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/looplab/fsm"

	"github.com/rocketscienceinc/multisig-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/entity"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/ledger"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/metrics"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/notify"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/repository"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/service"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/sui"
)

const DefaultPollInterval = 2 * time.Second

const (
	StateAwaitingGame         = "awaiting_game"
	StateAwaitingOpponentTurn = "awaiting_opponent_turn"
	StateMyTurnHandoff        = "my_turn_handoff"
	StateMyTurnPlace          = "my_turn_place"
	StateFinished             = "finished"
)

const (
	eventMyTurn       = "my_turn"
	eventOpponentTurn = "opponent_turn"
	eventHandedOff    = "handed_off"
	eventFinished     = "finished"
)

type gameRepo interface {
	FetchGame(ctx context.Context, id sui.ObjectID) (*entity.Game, error)
	FetchAvailableGame(ctx context.Context, shared sui.Address, filter repository.GameFilter) (*entity.Game, error)
}

type markRepo interface {
	FetchMarkOwnedBy(ctx context.Context, owner sui.Address, gameID sui.ObjectID) (*entity.Mark, error)
}

type ownerRepo interface {
	OwnerOf(ctx context.Context, id sui.ObjectID) (entity.Owner, error)
}

type sessionRepo interface {
	CreateOrUpdate(ctx context.Context, session *entity.Session) error
	GetByShared(ctx context.Context, shared sui.Address) (*entity.Session, error)
	DeleteByShared(ctx context.Context, shared sui.Address) error
}

type gameActions interface {
	CreateGame(ctx context.Context) (gameID, markID sui.ObjectID, err error)
	SendMarkToGame(ctx context.Context, markID sui.ObjectID, row, col uint8) (*service.ExecutionResult, error)
	PlaceMark(ctx context.Context, gameID, markID sui.ObjectID) (*service.ExecutionResult, error)
}

type moveChooser interface {
	ChooseCell(ctx context.Context, game *entity.Game) (row, col uint8, err error)
}

type turnNotifier interface {
	PublishTurn(notice notify.TurnNotice) error
	WatchGame(gameID sui.ObjectID) (<-chan notify.TurnNotice, func() error, error)
}

// Snapshot is a point-in-time view of the loop for the status endpoint.
type Snapshot struct {
	State      string        `json:"state"`
	Side       string        `json:"side"`
	Shared     sui.Address   `json:"shared"`
	GameID     *sui.ObjectID `json:"game_id,omitempty"`
	MarkID     *sui.ObjectID `json:"mark_id,omitempty"`
	CurTurn    uint8         `json:"cur_turn"`
	Status     string        `json:"status"`
	LastDigest string        `json:"last_digest,omitempty"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

type TurnLoop interface {
	// Run plays until the game finishes and returns its final state.
	Run(ctx context.Context) (*entity.Game, error)
	Snapshot() Snapshot
}

type TurnLoopConfig struct {
	Player       entity.Player
	PollInterval time.Duration
}

type turnLoop struct {
	logger *slog.Logger
	conf   TurnLoopConfig

	games    gameRepo
	marks    markRepo
	owners   ownerRepo
	sessions sessionRepo
	actions  gameActions
	chooser  moveChooser
	notifier turnNotifier

	mu       sync.Mutex
	snapshot Snapshot
}

func NewTurnLoop(
	logger *slog.Logger,
	conf TurnLoopConfig,
	games gameRepo,
	marks markRepo,
	owners ownerRepo,
	sessions sessionRepo,
	actions gameActions,
	chooser moveChooser,
	notifier turnNotifier,
) TurnLoop {
	if conf.PollInterval <= 0 {
		conf.PollInterval = DefaultPollInterval
	}

	return &turnLoop{
		logger:   logger.With("component", "turn_loop", "side", conf.Player.Side.String()),
		conf:     conf,
		games:    games,
		marks:    marks,
		owners:   owners,
		sessions: sessions,
		actions:  actions,
		chooser:  chooser,
		notifier: notifier,
		snapshot: Snapshot{
			State:  StateAwaitingGame,
			Side:   conf.Player.Side.String(),
			Shared: conf.Player.Shared,
		},
	}
}

func (that *turnLoop) newStateMachine() *fsm.FSM {
	return fsm.NewFSM(
		StateAwaitingGame,
		fsm.Events{
			{Name: eventMyTurn, Src: []string{StateAwaitingGame, StateAwaitingOpponentTurn, StateMyTurnPlace}, Dst: StateMyTurnHandoff},
			{Name: eventOpponentTurn, Src: []string{StateAwaitingGame, StateMyTurnPlace}, Dst: StateAwaitingOpponentTurn},
			{Name: eventHandedOff, Src: []string{StateMyTurnHandoff}, Dst: StateMyTurnPlace},
			{Name: eventFinished, Src: []string{StateAwaitingGame, StateAwaitingOpponentTurn, StateMyTurnPlace}, Dst: StateFinished},
		},
		fsm.Callbacks{
			"enter_state": func(e *fsm.Event) { that.enterState(e) },
		},
	)
}

func (that *turnLoop) enterState(e *fsm.Event) {
	that.logger.Info("state changed", "from", e.Src, "to", e.Dst)
	that.update(func(s *Snapshot) { s.State = e.Dst })
}

// advance fires event unless the machine already sits in dst.
func advance(sm *fsm.FSM, event, dst string) error {
	if sm.Current() == dst {
		return nil
	}
	if err := sm.Event(event); err != nil {
		return fmt.Errorf("failed to apply %s in state %s: %w", event, sm.Current(), err)
	}
	return nil
}

func (that *turnLoop) Run(ctx context.Context) (*entity.Game, error) {
	log := that.logger.With("method", "Run")
	sm := that.newStateMachine()

	gameID, markID, err := that.locate(ctx)
	if err != nil {
		return nil, err
	}
	that.update(func(s *Snapshot) { s.GameID, s.MarkID = &gameID, &markID })
	log.Info("playing game", "game", gameID, "mark", markID)

	notices, stop, err := that.notifier.WatchGame(gameID)
	if err != nil {
		log.Warn("turn notifications unavailable, polling only", "error", err)
		notices = nil
	} else {
		defer func() {
			if err := stop(); err != nil {
				log.Warn("failed to stop watching game", "error", err)
			}
		}()
	}

	var prev *entity.Game
	for {
		metrics.Metrics.Polled()

		game, err := that.games.FetchGame(ctx, gameID)
		if err != nil {
			return nil, err
		}

		if err = checkProgress(prev, game); err != nil {
			return nil, err
		}
		prev = game

		metrics.Metrics.SetCurrentTurn(game.CurTurn)
		that.update(func(s *Snapshot) { s.CurTurn, s.Status = game.CurTurn, game.Status.String() })

		if game.IsFinished() {
			if err = advance(sm, eventFinished, StateFinished); err != nil {
				return nil, err
			}
			that.forgetSession(ctx)
			log.Info("game finished", "status", game.Status.String())
			return game, nil
		}

		if !game.IsMyTurn(that.conf.Player.Side) {
			if err = advance(sm, eventOpponentTurn, StateAwaitingOpponentTurn); err != nil {
				return nil, err
			}
			if err = that.wait(ctx, notices); err != nil {
				return nil, err
			}
			continue
		}

		if err = that.playTurn(ctx, sm, game, markID); err != nil {
			return nil, err
		}
	}
}

func checkProgress(prev, next *entity.Game) error {
	if prev == nil {
		return nil
	}
	if err := entity.CheckStatusTransition(prev.Status, next.Status); err != nil {
		return err
	}
	return entity.CheckTurnTransition(prev.CurTurn, next.CurTurn)
}

// locate finds the game to play and its mark: the remembered session first, then an unfinished
// game of the shared account, and finally a freshly created one.
func (that *turnLoop) locate(ctx context.Context) (sui.ObjectID, sui.ObjectID, error) {
	log := that.logger.With("method", "locate")
	shared := that.conf.Player.Shared

	gameID, markID, ok, err := that.resume(ctx)
	if err != nil {
		return sui.ObjectID{}, sui.ObjectID{}, err
	}
	if ok {
		return gameID, markID, nil
	}

	game, err := that.games.FetchAvailableGame(ctx, shared, repository.UnfinishedGames)
	switch {
	case err == nil:
		mark, err := that.findMark(ctx, game)
		if err != nil {
			return sui.ObjectID{}, sui.ObjectID{}, err
		}
		gameID, markID = game.ID, mark.ID

	case errors.Is(err, apperror.ErrNoAvailableGame):
		log.Info("no unfinished game, creating one")
		gameID, markID, err = that.actions.CreateGame(ctx)
		if err != nil {
			return sui.ObjectID{}, sui.ObjectID{}, fmt.Errorf("failed to create game: %w", err)
		}

	default:
		return sui.ObjectID{}, sui.ObjectID{}, err
	}

	session := &entity.Session{Shared: shared, GameID: gameID, MarkID: markID, Side: that.conf.Player.Side}
	if err = that.sessions.CreateOrUpdate(ctx, session); err != nil {
		log.Warn("failed to remember session", "error", err)
	}

	return gameID, markID, nil
}

// resume returns the remembered game when it is still in progress. The session is forgotten
// only when the game is gone or finished; any other fetch failure is returned.
func (that *turnLoop) resume(ctx context.Context) (sui.ObjectID, sui.ObjectID, bool, error) {
	log := that.logger.With("method", "resume")

	session, err := that.sessions.GetByShared(ctx, that.conf.Player.Shared)
	if err != nil {
		if !errors.Is(err, repository.ErrSessionNotFound) {
			log.Warn("failed to read session", "error", err)
		}
		return sui.ObjectID{}, sui.ObjectID{}, false, nil
	}

	game, err := that.games.FetchGame(ctx, session.GameID)
	switch {
	case errors.Is(err, ledger.ErrObjectNotFound):
		log.Info("discarding remembered game", "game", session.GameID, "reason", "not found")
		that.forgetSession(ctx)
		return sui.ObjectID{}, sui.ObjectID{}, false, nil
	case err != nil:
		return sui.ObjectID{}, sui.ObjectID{}, false, fmt.Errorf("failed to resume game %s: %w", session.GameID, err)
	case game.IsFinished():
		log.Info("discarding remembered game", "game", session.GameID, "reason", "finished")
		that.forgetSession(ctx)
		return sui.ObjectID{}, sui.ObjectID{}, false, nil
	}

	log.Info("resuming game", "game", session.GameID)
	return session.GameID, session.MarkID, true, nil
}

func (that *turnLoop) forgetSession(ctx context.Context) {
	err := that.sessions.DeleteByShared(ctx, that.conf.Player.Shared)
	if err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
		that.logger.Warn("failed to forget session", "error", err)
	}
}

// findMark looks for the mark with the player whose turn it is, then with the shared account
// where a half-finished handoff leaves it.
func (that *turnLoop) findMark(ctx context.Context, game *entity.Game) (*entity.Mark, error) {
	mark, err := that.marks.FetchMarkOwnedBy(ctx, game.ActiveAddress(), game.ID)
	if err == nil {
		return mark, nil
	}
	if !errors.Is(err, apperror.ErrNoMarkFound) {
		return nil, err
	}

	return that.marks.FetchMarkOwnedBy(ctx, that.conf.Player.Shared, game.ID)
}

// playTurn hands the mark to the shared account unless it is already there, then places it.
func (that *turnLoop) playTurn(ctx context.Context, sm *fsm.FSM, game *entity.Game, markID sui.ObjectID) error {
	log := that.logger.With("method", "playTurn", "turn", game.CurTurn)

	if err := advance(sm, eventMyTurn, StateMyTurnHandoff); err != nil {
		return err
	}

	owner, err := that.owners.OwnerOf(ctx, markID)
	if err != nil {
		return err
	}

	switch {
	case owner.IsAddress(that.conf.Player.Shared):
		log.Info("mark already with the shared account, skipping handoff")

	case owner.IsAddress(that.conf.Player.Personal):
		row, col, err := that.chooser.ChooseCell(ctx, game)
		if err != nil {
			return fmt.Errorf("failed to choose cell: %w", err)
		}

		result, err := that.actions.SendMarkToGame(ctx, markID, row, col)
		if err != nil {
			return fmt.Errorf("failed to hand off mark: %w", err)
		}
		that.update(func(s *Snapshot) { s.LastDigest = result.Digest })

	default:
		return fmt.Errorf("%w: mark %s is held by %s", apperror.ErrMarkOwnership, markID, owner)
	}

	if err = advance(sm, eventHandedOff, StateMyTurnPlace); err != nil {
		return err
	}

	result, err := that.actions.PlaceMark(ctx, game.ID, markID)
	if err != nil {
		return fmt.Errorf("failed to place mark: %w", err)
	}
	that.update(func(s *Snapshot) { s.LastDigest = result.Digest })
	log.Info("mark placed", "digest", result.Digest)

	notice := notify.TurnNotice{GameID: game.ID, Turn: game.CurTurn + 1, Digest: result.Digest}
	if err = that.notifier.PublishTurn(notice); err != nil {
		log.Warn("failed to publish turn notice", "error", err)
	}

	return nil
}

// wait sleeps one poll interval; a turn notice cuts it short.
func (that *turnLoop) wait(ctx context.Context, notices <-chan notify.TurnNotice) error {
	timer := time.NewTimer(that.conf.PollInterval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	case notice := <-notices:
		metrics.Metrics.NotificationReceived()
		that.logger.Debug("woken by turn notice", "turn", notice.Turn, "digest", notice.Digest)
	}
	return nil
}

func (that *turnLoop) update(fn func(s *Snapshot)) {
	that.mu.Lock()
	defer that.mu.Unlock()
	fn(&that.snapshot)
	that.snapshot.UpdatedAt = time.Now()
}

func (that *turnLoop) Snapshot() Snapshot {
	that.mu.Lock()
	defer that.mu.Unlock()
	return that.snapshot
}
