package collect

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/groupguard/modbot/internal/model"
	"github.com/groupguard/modbot/pkg/bridge"
)

var testNow = func() time.Time {
	return time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
}

func userTarget(handle string) Target {
	return Target{
		Sender: model.SenderProfile{UserID: 1001, Handle: handle, DisplayName: "Test User"},
	}
}

func TestLinkedChannel_SuspiciousAnnotation(t *testing.T) {
	b := new(mockBridge)
	b.On("ResolveChannel", mock.Anything, "spamguy").Return(&bridge.ChannelSummary{
		ID:          77,
		Handle:      "spamguy",
		Subscribers: 5,
		TotalPosts:  3,
		CreatedAt:   time.Date(2026, 6, 28, 0, 0, 0, 0, time.UTC),
		RecentPosts: []string{"Заходи в закрытый канал!", "second", "third", "fourth"},
	}, nil)

	c := NewLinkedChannelCollector(b, testNow)
	res := c.Collect(context.Background(), userTarget("spamguy"))

	require.Equal(t, model.StatusFound, res.Status)
	assert.Contains(t, res.Content, "subscribers=5; total_posts=3; age_delta=2mo")
	assert.Contains(t, res.Content, "suspicious:")
	// Only the newest three posts make it in.
	assert.Equal(t, 3, strings.Count(res.Content, "recent post:"))
	assert.NotContains(t, res.Content, "fourth")
}

func TestLinkedChannel_EstablishedChannelNotSuspicious(t *testing.T) {
	b := new(mockBridge)
	b.On("ResolveChannel", mock.Anything, "bigchan").Return(&bridge.ChannelSummary{
		Subscribers: 5000,
		TotalPosts:  900,
		CreatedAt:   time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}, nil)

	c := NewLinkedChannelCollector(b, testNow)
	res := c.Collect(context.Background(), userTarget("bigchan"))

	require.Equal(t, model.StatusFound, res.Status)
	assert.NotContains(t, res.Content, "suspicious:")
}

func TestLinkedChannel_AllThreeThresholdsRequired(t *testing.T) {
	// Small and young but prolific: not suspicious.
	b := new(mockBridge)
	b.On("ResolveChannel", mock.Anything, "busy").Return(&bridge.ChannelSummary{
		Subscribers: 5,
		TotalPosts:  120,
		CreatedAt:   time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
	}, nil)

	c := NewLinkedChannelCollector(b, testNow)
	res := c.Collect(context.Background(), userTarget("busy"))

	require.Equal(t, model.StatusFound, res.Status)
	assert.NotContains(t, res.Content, "suspicious:")
}

func TestLinkedChannel_NoHandleSkips(t *testing.T) {
	b := new(mockBridge)
	c := NewLinkedChannelCollector(b, testNow)

	res := c.Collect(context.Background(), userTarget(""))

	assert.Equal(t, model.StatusSkipped, res.Status)
	assert.Empty(t, res.Content)
	b.AssertNotCalled(t, "ResolveChannel")
}

func TestLinkedChannel_NotFoundIsEmpty(t *testing.T) {
	b := new(mockBridge)
	b.On("ResolveChannel", mock.Anything, "nochan").Return(nil, bridge.ErrNotFound)

	c := NewLinkedChannelCollector(b, testNow)
	res := c.Collect(context.Background(), userTarget("nochan"))

	assert.Equal(t, model.StatusEmpty, res.Status)
}

func TestLinkedChannel_ErrorFails(t *testing.T) {
	b := new(mockBridge)
	b.On("ResolveChannel", mock.Anything, "errchan").Return(nil, eris.New("bridge down"))

	c := NewLinkedChannelCollector(b, testNow)
	res := c.Collect(context.Background(), userTarget("errchan"))

	assert.Equal(t, model.StatusFailed, res.Status)
	assert.Empty(t, res.Content)
}

func TestStories_ChannelSenderSkips(t *testing.T) {
	b := new(mockBridge)
	c := NewStoriesCollector(b)

	res := c.Collect(context.Background(), Target{
		Sender: model.SenderProfile{UserID: 5, IsChannel: true},
	})

	assert.Equal(t, model.StatusSkipped, res.Status)
	b.AssertNotCalled(t, "GetPinnedStories")
}

func TestStories_NoneIsEmpty(t *testing.T) {
	b := new(mockBridge)
	b.On("GetPinnedStories", mock.Anything, int64(1001)).Return([]bridge.Story{}, nil)

	c := NewStoriesCollector(b)
	res := c.Collect(context.Background(), userTarget("u"))

	assert.Equal(t, model.StatusEmpty, res.Status)
}

func TestStories_CaptionsFound(t *testing.T) {
	b := new(mockBridge)
	b.On("GetPinnedStories", mock.Anything, int64(1001)).Return([]bridge.Story{
		{ID: 1, Caption: "DM me for signals"},
		{ID: 2, Caption: ""},
	}, nil)

	c := NewStoriesCollector(b)
	res := c.Collect(context.Background(), userTarget("u"))

	require.Equal(t, model.StatusFound, res.Status)
	assert.Contains(t, res.Content, "story 1: DM me for signals")
	assert.Contains(t, res.Content, "story 2: (no caption)")
}

func TestAccountAge_PhotoDateFound(t *testing.T) {
	b := new(mockBridge)
	b.On("GetProfilePhotoDate", mock.Anything, int64(1001)).
		Return(time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), nil)

	c := NewAccountAgeCollector(b, testNow)
	res := c.Collect(context.Background(), userTarget("u"))

	require.Equal(t, model.StatusFound, res.Status)
	assert.Equal(t, "photo_age=7mo", res.Content)
}

func TestAccountAge_NoPhotoIsEmpty(t *testing.T) {
	b := new(mockBridge)
	b.On("GetProfilePhotoDate", mock.Anything, int64(1001)).Return(time.Time{}, nil)

	c := NewAccountAgeCollector(b, testNow)
	res := c.Collect(context.Background(), userTarget("u"))

	assert.Equal(t, model.StatusEmpty, res.Status)
}

func TestReply_NotAReplySkips(t *testing.T) {
	b := new(mockBridge)
	c := NewReplyCollector(b)

	res := c.Collect(context.Background(), Target{Message: model.Message{Text: "hi"}})

	assert.Equal(t, model.StatusSkipped, res.Status)
	b.AssertNotCalled(t, "GetChannelPost")
}

func TestReply_InlineTextFound(t *testing.T) {
	b := new(mockBridge)
	c := NewReplyCollector(b)

	res := c.Collect(context.Background(), Target{Message: model.Message{
		ReplyToMessageID: 9, ReplyText: "original message",
	}})

	require.Equal(t, model.StatusFound, res.Status)
	assert.Equal(t, "original message", res.Content)
	b.AssertNotCalled(t, "GetChannelPost")
}

func TestReply_OriginPostResolved(t *testing.T) {
	b := new(mockBridge)
	b.On("GetChannelPost", mock.Anything, int64(-200), int64(33)).Return("the channel post", nil)

	c := NewReplyCollector(b)
	res := c.Collect(context.Background(), Target{Message: model.Message{
		ReplyToMessageID: 9, OriginChannelID: -200, OriginPostID: 33,
	}})

	require.Equal(t, model.StatusFound, res.Status)
	assert.Equal(t, "the channel post", res.Content)
}

func TestReply_MediaOnlyTargetIsEmpty(t *testing.T) {
	b := new(mockBridge)
	c := NewReplyCollector(b)

	res := c.Collect(context.Background(), Target{Message: model.Message{ReplyToMessageID: 9}})

	assert.Equal(t, model.StatusEmpty, res.Status)
}

func TestTruncate_RuneBoundary(t *testing.T) {
	s := strings.Repeat("я", 150) // 2 bytes per rune
	out := truncate(s, 200)
	assert.True(t, strings.HasSuffix(out, "..."))
	assert.Equal(t, 0, strings.Count(out, "�"))
	for _, r := range out {
		assert.NotEqual(t, '�', r)
	}
}
