package collect

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/groupguard/modbot/pkg/bridge"
)

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
