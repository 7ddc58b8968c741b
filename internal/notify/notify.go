// Package notify tells the opponent that a move landed so their poll can wake up early. The
// ledger stays the source of truth: a lost notice only costs one poll interval.
package notify

import (
	"fmt"
	"log/slog"

	jsoniter "github.com/json-iterator/go"
	natsgo "github.com/nats-io/nats.go"

	"github.com/rocketscienceinc/multisig-tictactoe/internal/sui"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const DefaultSubjectPrefix = "tictactoe.turns"

// TurnNotice is published after a successful placement.
type TurnNotice struct {
	GameID sui.ObjectID `json:"game"`
	Turn   uint8        `json:"turn"`
	Digest string       `json:"digest"`
}

type Notifier interface {
	PublishTurn(notice TurnNotice) error
	// WatchGame delivers notices for gameID until the returned stop function is called.
	WatchGame(gameID sui.ObjectID) (<-chan TurnNotice, func() error, error)
	Close()
}

type natsNotifier struct {
	logger *slog.Logger
	conn   *natsgo.Conn
	prefix string
}

// NewNATSNotifier connects to url. The subject of a game is "<prefix>.<game id>". Notices a
// client publishes are not delivered back to its own subscriptions.
func NewNATSNotifier(logger *slog.Logger, url, prefix string) (Notifier, error) {
	conn, err := natsgo.Connect(url, natsgo.Name("multisig-tictactoe"), natsgo.NoEcho())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}

	return &natsNotifier{
		logger: logger.With("component", "notify"),
		conn:   conn,
		prefix: prefix,
	}, nil
}

func (that *natsNotifier) subject(gameID sui.ObjectID) string {
	return that.prefix + "." + gameID.String()
}

func (that *natsNotifier) PublishTurn(notice TurnNotice) error {
	data, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("failed to marshal turn notice: %w", err)
	}

	if err = that.conn.Publish(that.subject(notice.GameID), data); err != nil {
		return fmt.Errorf("failed to publish turn notice: %w", err)
	}
	return nil
}

func (that *natsNotifier) WatchGame(gameID sui.ObjectID) (<-chan TurnNotice, func() error, error) {
	log := that.logger.With("method", "WatchGame", "game", gameID)

	// one slot: a pending notice already means "poll now"
	notices := make(chan TurnNotice, 1)

	sub, err := that.conn.Subscribe(that.subject(gameID), func(msg *natsgo.Msg) {
		var notice TurnNotice
		if err := json.Unmarshal(msg.Data, &notice); err != nil {
			log.Warn("dropping malformed turn notice", "error", err)
			return
		}

		select {
		case notices <- notice:
		default:
		}
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to subscribe to %s: %w", that.subject(gameID), err)
	}

	if err = that.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return nil, nil, fmt.Errorf("failed to flush subscription: %w", err)
	}

	return notices, sub.Unsubscribe, nil
}

func (that *natsNotifier) Close() {
	that.conn.Close()
}

type noopNotifier struct{}

// NewNoopNotifier is used when no NATS url is configured; the loop then relies on polling alone.
func NewNoopNotifier() Notifier {
	return noopNotifier{}
}

func (noopNotifier) PublishTurn(TurnNotice) error {
	return nil
}

func (noopNotifier) WatchGame(sui.ObjectID) (<-chan TurnNotice, func() error, error) {
	return nil, func() error { return nil }, nil
}

func (noopNotifier) Close() {}
