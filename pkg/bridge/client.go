// Package bridge provides a client for the metadata bridge, an internal
// HTTP service that exposes deep profile and channel lookups the bot API
// cannot perform itself.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/groupguard/modbot/internal/resilience"
)

// ErrNotFound is returned when the bridge resolves the request but the
// entity does not exist (unknown handle, deleted post).
var ErrNotFound = eris.New("bridge: not found")

// Client defines the metadata bridge operations used by context collectors.
type Client interface {
	// ResolveChannel resolves a channel by public handle or numeric ID and
	// returns its summary, or ErrNotFound when the sender has no channel.
	ResolveChannel(ctx context.Context, handleOrID string) (*ChannelSummary, error)
	// GetPinnedStories returns the sender's active pinned stories; an empty
	// slice means the profile has none.
	GetPinnedStories(ctx context.Context, userID int64) ([]Story, error)
	// GetProfilePhotoDate returns when the current profile photo was set.
	// The zero time means the account has no photo.
	GetProfilePhotoDate(ctx context.Context, userID int64) (time.Time, error)
	// GetChannelPost fetches the text of a single channel post, used to
	// resolve discussion-thread replies whose text is not in the update.
	GetChannelPost(ctx context.Context, channelID, postID int64) (string, error)
}

// ChannelSummary describes a resolved channel.
type ChannelSummary struct {
	ID          int64     `json:"id"`
	Handle      string    `json:"handle,omitempty"`
	Subscribers int       `json:"subscribers"`
	TotalPosts  int       `json:"total_posts"`
	CreatedAt   time.Time `json:"created_at"`
	// RecentPosts holds the text of the newest posts, newest first.
	RecentPosts []string `json:"recent_posts,omitempty"`
}

// AgeMonths returns the channel age in whole months at time now.
func (s *ChannelSummary) AgeMonths(now time.Time) int {
	if s.CreatedAt.IsZero() || now.Before(s.CreatedAt) {
		return 0
	}
	months := (now.Year()-s.CreatedAt.Year())*12 + int(now.Month()) - int(s.CreatedAt.Month())
	if months < 0 {
		return 0
	}
	return months
}

// Story is one pinned profile story.
type Story struct {
	ID      int64  `json:"id"`
	Caption string `json:"caption"`
}

// Option configures the bridge client.
type Option func(*httpClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

type httpClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a metadata bridge client.
func NewClient(baseURL, apiKey string, opts ...Option) Client {
	c := &httpClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get performs a GET and decodes the JSON body into out. Transient upstream
// statuses are wrapped so collectors and retry helpers can classify them.
func (c *httpClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return eris.Wrap(err, "bridge: create request")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "bridge: request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "bridge: read response body")
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resilience.IsTransientHTTPStatus(resp.StatusCode):
		return resilience.NewTransientError(
			eris.Errorf("bridge: status %d: %s", resp.StatusCode, string(body)),
			resp.StatusCode,
		)
	case resp.StatusCode != http.StatusOK:
		return eris.Errorf("bridge: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "bridge: unmarshal response")
	}
	return nil
}

func (c *httpClient) ResolveChannel(ctx context.Context, handleOrID string) (*ChannelSummary, error) {
	var out ChannelSummary
	if err := c.get(ctx, "/v1/channels/"+handleOrID, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) GetPinnedStories(ctx context.Context, userID int64) ([]Story, error) {
	var out struct {
		Stories []Story `json:"stories"`
	}
	if err := c.get(ctx, fmt.Sprintf("/v1/users/%d/stories", userID), &out); err != nil {
		return nil, err
	}
	return out.Stories, nil
}

func (c *httpClient) GetProfilePhotoDate(ctx context.Context, userID int64) (time.Time, error) {
	var out struct {
		PhotoDate *time.Time `json:"photo_date"`
	}
	if err := c.get(ctx, fmt.Sprintf("/v1/users/%d/photo", userID), &out); err != nil {
		return time.Time{}, err
	}
	if out.PhotoDate == nil {
		return time.Time{}, nil
	}
	return *out.PhotoDate, nil
}

func (c *httpClient) GetChannelPost(ctx context.Context, channelID, postID int64) (string, error) {
	var out struct {
		Text string `json:"text"`
	}
	if err := c.get(ctx, fmt.Sprintf("/v1/channels/%d/posts/%d", channelID, postID), &out); err != nil {
		return "", err
	}
	return out.Text, nil
}
