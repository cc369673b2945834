package pipeline

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/groupguard/modbot/internal/model"
	"github.com/groupguard/modbot/internal/prompt"
	"github.com/groupguard/modbot/pkg/bridge"
)

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

func (m *mockStore) Migrate(ctx context.Context) error { return m.Called(ctx).Error(0) }

func (m *mockStore) Close() error { return m.Called().Error(0) }

type mockClassifier struct {
	mock.Mock
}

func (m *mockClassifier) Classify(ctx context.Context, req prompt.Request) (model.Verdict, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(model.Verdict), args.Error(1)
}

type mockEnforcer struct {
	mock.Mock
}

func (m *mockEnforcer) Enforce(ctx context.Context, group model.Group, msg model.Message, userID int64) error {
	return m.Called(ctx, group, msg, userID).Error(0)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, group model.Group, cause, text string, critical bool) error {
	return m.Called(ctx, group, cause, text, critical).Error(0)
}

func (m *mockNotifier) AlertOps(ctx context.Context, alertType, message string, details map[string]any) {
	m.Called(ctx, alertType, message, details)
}

type mockBridge struct {
	mock.Mock
}

func (m *mockBridge) ResolveChannel(ctx context.Context, handleOrID string) (*bridge.ChannelSummary, error) {
	args := m.Called(ctx, handleOrID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bridge.ChannelSummary), args.Error(1)
}

func (m *mockBridge) GetPinnedStories(ctx context.Context, userID int64) ([]bridge.Story, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]bridge.Story), args.Error(1)
}

func (m *mockBridge) GetProfilePhotoDate(ctx context.Context, userID int64) (time.Time, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *mockBridge) GetChannelPost(ctx context.Context, channelID, postID int64) (string, error) {
	args := m.Called(ctx, channelID, postID)
	return args.String(0), args.Error(1)
}
