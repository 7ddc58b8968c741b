package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/multisig-tictactoe/internal/entity"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/sui"
)

var ErrSessionNotFound = errors.New("session not found")

const sessionTTL = 7 * 24 * time.Hour

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type SessionRepository interface {
	CreateOrUpdate(ctx context.Context, session *entity.Session) error
	GetByShared(ctx context.Context, shared sui.Address) (*entity.Session, error)
	DeleteByShared(ctx context.Context, shared sui.Address) error
}

type dbSession struct {
	client *redis.Client
}

func NewSessionRepository(client *redis.Client) SessionRepository {
	return &dbSession{
		client: client,
	}
}

func sessionKey(shared sui.Address) string {
	return "session:" + shared.String()
}

func (that *dbSession) CreateOrUpdate(ctx context.Context, session *entity.Session) error {
	sessionJSON, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("could not marshal session: %w", err)
	}

	err = that.client.Set(ctx, sessionKey(session.Shared), sessionJSON, sessionTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to set session: %w", err)
	}

	return nil
}

func (that *dbSession) GetByShared(ctx context.Context, shared sui.Address) (*entity.Session, error) {
	response, err := that.client.Get(ctx, sessionKey(shared)).Result()

	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session entity.Session
	if err = json.Unmarshal([]byte(response), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &session, nil
}

func (that *dbSession) DeleteByShared(ctx context.Context, shared sui.Address) error {
	deleted, err := that.client.Del(ctx, sessionKey(shared)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	if deleted == 0 {
		return ErrSessionNotFound
	}

	return nil
}

// memorySession keeps sessions for the lifetime of the process when redis is disabled.
type memorySession struct {
	mu       sync.RWMutex
	sessions map[sui.Address]entity.Session
}

func NewMemorySessionRepository() SessionRepository {
	return &memorySession{
		sessions: map[sui.Address]entity.Session{},
	}
}

func (that *memorySession) CreateOrUpdate(_ context.Context, session *entity.Session) error {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.sessions[session.Shared] = *session
	return nil
}

func (that *memorySession) GetByShared(_ context.Context, shared sui.Address) (*entity.Session, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()
	session, ok := that.sessions[shared]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &session, nil
}

func (that *memorySession) DeleteByShared(_ context.Context, shared sui.Address) error {
	that.mu.Lock()
	defer that.mu.Unlock()
	if _, ok := that.sessions[shared]; !ok {
		return ErrSessionNotFound
	}
	delete(that.sessions, shared)
	return nil
}
