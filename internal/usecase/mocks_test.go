package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/rocketscienceinc/multisig-tictactoe/internal/entity"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/notify"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/repository"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/service"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/sui"
)

type mockGameRepo struct{ mock.Mock }

func newMockGameRepo(t *testing.T) *mockGameRepo {
	m := &mockGameRepo{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *mockGameRepo) FetchGame(ctx context.Context, id sui.ObjectID) (*entity.Game, error) {
	args := m.Called(ctx, id)
	game, _ := args.Get(0).(*entity.Game)
	return game, args.Error(1)
}

func (m *mockGameRepo) FetchAvailableGame(ctx context.Context, shared sui.Address, filter repository.GameFilter) (*entity.Game, error) {
	args := m.Called(ctx, shared, filter)
	game, _ := args.Get(0).(*entity.Game)
	return game, args.Error(1)
}

type mockMarkRepo struct{ mock.Mock }

func newMockMarkRepo(t *testing.T) *mockMarkRepo {
	m := &mockMarkRepo{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *mockMarkRepo) FetchMarkOwnedBy(ctx context.Context, owner sui.Address, gameID sui.ObjectID) (*entity.Mark, error) {
	args := m.Called(ctx, owner, gameID)
	mark, _ := args.Get(0).(*entity.Mark)
	return mark, args.Error(1)
}

type mockOwnerRepo struct{ mock.Mock }

func newMockOwnerRepo(t *testing.T) *mockOwnerRepo {
	m := &mockOwnerRepo{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *mockOwnerRepo) OwnerOf(ctx context.Context, id sui.ObjectID) (entity.Owner, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(entity.Owner), args.Error(1)
}

type mockGameActions struct{ mock.Mock }

func newMockGameActions(t *testing.T) *mockGameActions {
	m := &mockGameActions{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *mockGameActions) CreateGame(ctx context.Context) (sui.ObjectID, sui.ObjectID, error) {
	args := m.Called(ctx)
	return args.Get(0).(sui.ObjectID), args.Get(1).(sui.ObjectID), args.Error(2)
}

func (m *mockGameActions) SendMarkToGame(ctx context.Context, markID sui.ObjectID, row, col uint8) (*service.ExecutionResult, error) {
	args := m.Called(ctx, markID, row, col)
	result, _ := args.Get(0).(*service.ExecutionResult)
	return result, args.Error(1)
}

func (m *mockGameActions) PlaceMark(ctx context.Context, gameID, markID sui.ObjectID) (*service.ExecutionResult, error) {
	args := m.Called(ctx, gameID, markID)
	result, _ := args.Get(0).(*service.ExecutionResult)
	return result, args.Error(1)
}

type mockMoveChooser struct{ mock.Mock }

func newMockMoveChooser(t *testing.T) *mockMoveChooser {
	m := &mockMoveChooser{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *mockMoveChooser) ChooseCell(ctx context.Context, game *entity.Game) (uint8, uint8, error) {
	args := m.Called(ctx, game)
	return args.Get(0).(uint8), args.Get(1).(uint8), args.Error(2)
}

// recordingNotifier keeps published notices and never wakes the loop.
type recordingNotifier struct {
	published []notify.TurnNotice
}

func (that *recordingNotifier) PublishTurn(notice notify.TurnNotice) error {
	that.published = append(that.published, notice)
	return nil
}

func (that *recordingNotifier) WatchGame(sui.ObjectID) (<-chan notify.TurnNotice, func() error, error) {
	return nil, func() error { return nil }, nil
}
