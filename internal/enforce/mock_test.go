package enforce

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/groupguard/modbot/internal/model"
)

type mockChat struct {
	mock.Mock
}

func (m *mockChat) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	return m.Called(ctx, chatID, messageID).Error(0)
}

func (m *mockChat) BanUser(ctx context.Context, chatID, userID int64) error {
	return m.Called(ctx, chatID, userID).Error(0)
}

func (m *mockChat) SendPrivate(ctx context.Context, userID int64, text string) error {
	return m.Called(ctx, userID, text).Error(0)
}

func (m *mockChat) SendGroup(ctx context.Context, chatID int64, text string) error {
	return m.Called(ctx, chatID, text).Error(0)
}

func (m *mockChat) LeaveGroup(ctx context.Context, chatID int64) error {
	return m.Called(ctx, chatID).Error(0)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetGroup(ctx context.Context, chatID int64) (*model.Group, error) {
	args := m.Called(ctx, chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Group), args.Error(1)
}

func (m *mockStore) UpsertGroup(ctx context.Context, group model.Group) error {
	return m.Called(ctx, group).Error(0)
}

func (m *mockStore) SetGroupModeration(ctx context.Context, chatID int64, enabled bool) error {
	return m.Called(ctx, chatID, enabled).Error(0)
}

func (m *mockStore) MarkGroupBroken(ctx context.Context, chatID int64) (bool, error) {
	args := m.Called(ctx, chatID)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) GetPolicy(ctx context.Context, adminID int64) (model.AdminPolicy, error) {
	args := m.Called(ctx, adminID)
	return args.Get(0).(model.AdminPolicy), args.Error(1)
}

func (m *mockStore) SetAutoEnforce(ctx context.Context, adminID int64, enabled bool) error {
	return m.Called(ctx, adminID, enabled).Error(0)
}

func (m *mockStore) AddCredits(ctx context.Context, adminID int64, amount int64) error {
	return m.Called(ctx, adminID, amount).Error(0)
}

func (m *mockStore) DecrementCredit(ctx context.Context, adminID int64) (bool, error) {
	args := m.Called(ctx, adminID)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) FetchExamples(ctx context.Context, adminIDs []int64, limit int) ([]model.LabeledExample, error) {
	args := m.Called(ctx, adminIDs, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.LabeledExample), args.Error(1)
}

func (m *mockStore) AddExample(ctx context.Context, ex model.LabeledExample) error {
	return m.Called(ctx, ex).Error(0)
}

func (m *mockStore) RemoveExample(ctx context.Context, text string, adminID *int64) error {
	return m.Called(ctx, text, adminID).Error(0)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}
