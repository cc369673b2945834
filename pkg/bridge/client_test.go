package bridge

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groupguard/modbot/internal/resilience"
)

func TestResolveChannel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/channels/spamfarm", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": 777,
			"handle": "spamfarm",
			"subscribers": 5,
			"total_posts": 3,
			"created_at": "2026-06-28T00:00:00Z",
			"recent_posts": ["buy now", "crypto signals"]
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key")
	summary, err := c.ResolveChannel(context.Background(), "spamfarm")
	require.NoError(t, err)
	assert.Equal(t, int64(777), summary.ID)
	assert.Equal(t, 5, summary.Subscribers)
	assert.Equal(t, 3, summary.TotalPosts)
	assert.Len(t, summary.RecentPosts, 2)
}

func TestResolveChannel_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.ResolveChannel(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestGet_TransientStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.GetPinnedStories(context.Background(), 42)
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
}

func TestGetPinnedStories_Empty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"stories": []}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	stories, err := c.GetPinnedStories(context.Background(), 42)
	require.NoError(t, err)
	assert.Empty(t, stories)
}

func TestGetProfilePhotoDate_NoPhoto(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"photo_date": null}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	date, err := c.GetProfilePhotoDate(context.Background(), 42)
	require.NoError(t, err)
	assert.True(t, date.IsZero())
}

func TestGetChannelPost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/channels/10/posts/55", r.URL.Path)
		_, _ = w.Write([]byte(`{"text": "original post"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	text, err := c.GetChannelPost(context.Background(), 10, 55)
	require.NoError(t, err)
	assert.Equal(t, "original post", text)
}

func TestChannelSummary_AgeMonths(t *testing.T) {
	now := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		created time.Time
		want    int
	}{
		{"two months old", time.Date(2026, 6, 28, 0, 0, 0, 0, time.UTC), 2},
		{"over a year", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), 17},
		{"zero time", time.Time{}, 0},
		{"future date clamps to zero", now.AddDate(0, 3, 0), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &ChannelSummary{CreatedAt: tt.created}
			assert.Equal(t, tt.want, s.AgeMonths(now))
		})
	}
}
