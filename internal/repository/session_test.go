package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/multisig-tictactoe/internal/entity"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/sui"
	"github.com/rocketscienceinc/multisig-tictactoe/testing/suite"
)

func testSession() *entity.Session {
	return &entity.Session{
		Shared: sharedAddr,
		GameID: sui.MustParseAddress("0x6a"),
		MarkID: sui.MustParseAddress("0x3a"),
		Side:   entity.SideO,
	}
}

func exerciseSessionRepository(ctx context.Context, t *testing.T, repo SessionRepository) {
	t.Helper()

	// Given: no session for the shared account
	_, err := repo.GetByShared(ctx, sharedAddr)
	require.ErrorIs(t, err, ErrSessionNotFound)

	// When: a session is stored
	session := testSession()
	require.NoError(t, repo.CreateOrUpdate(ctx, session))

	// Then: it reads back unchanged
	stored, err := repo.GetByShared(ctx, sharedAddr)
	require.NoError(t, err)
	assert.Equal(t, session, stored)

	// When: it is overwritten with a new game
	session.GameID = sui.MustParseAddress("0x6b")
	require.NoError(t, repo.CreateOrUpdate(ctx, session))

	// Then: the latest game is returned
	stored, err = repo.GetByShared(ctx, sharedAddr)
	require.NoError(t, err)
	assert.Equal(t, sui.MustParseAddress("0x6b"), stored.GameID)

	// When: it is deleted
	require.NoError(t, repo.DeleteByShared(ctx, sharedAddr))

	// Then: it is gone and a second delete reports so
	_, err = repo.GetByShared(ctx, sharedAddr)
	require.ErrorIs(t, err, ErrSessionNotFound)
	require.ErrorIs(t, repo.DeleteByShared(ctx, sharedAddr), ErrSessionNotFound)
}

func TestSessionRepository_Redis(t *testing.T) {
	ctx, st := suite.New(t)

	exerciseSessionRepository(ctx, t, NewSessionRepository(st.Storage))
}

func TestSessionRepository_Memory(t *testing.T) {
	exerciseSessionRepository(context.Background(), t, NewMemorySessionRepository())
}

func TestSessionRepository_MemoryReturnsCopies(t *testing.T) {
	// Given: a stored session
	ctx := context.Background()
	repo := NewMemorySessionRepository()
	require.NoError(t, repo.CreateOrUpdate(ctx, testSession()))

	// When: the caller mutates what it read
	stored, err := repo.GetByShared(ctx, sharedAddr)
	require.NoError(t, err)
	stored.Side = entity.SideX

	// Then: the stored session is untouched
	again, err := repo.GetByShared(ctx, sharedAddr)
	require.NoError(t, err)
	assert.Equal(t, entity.SideO, again.Side)
}
