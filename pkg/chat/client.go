// Package chat provides a client for the chat platform's bot API, limited
// to the operations the enforcement coordinator needs.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/groupguard/modbot/internal/resilience"
)

// Typed outcomes. Callers distinguish these with errors.Is: a not-found
// delete is an idempotent no-op, a permission-denied step needs an admin
// alert naming the missing right.
var (
	ErrPermissionDenied = eris.New("chat: permission denied")
	ErrNotFound         = eris.New("chat: not found")
)

// Client defines the chat platform operations used for enforcement and
// admin notification.
type Client interface {
	DeleteMessage(ctx context.Context, chatID, messageID int64) error
	BanUser(ctx context.Context, chatID, userID int64) error
	SendPrivate(ctx context.Context, userID int64, text string) error
	SendGroup(ctx context.Context, chatID int64, text string) error
	LeaveGroup(ctx context.Context, chatID int64) error
}

// Option configures the chat client.
type Option func(*httpClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

type httpClient struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a chat platform client. baseURL points at the bot API
// gateway; token authenticates the bot.
func NewClient(baseURL, token string, opts ...Option) Client {
	c := &httpClient{
		baseURL: baseURL,
		token:   token,
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

// apiError is the platform's error envelope.
type apiError struct {
	Code        int    `json:"code"`
	Description string `json:"description"`
}

func (c *httpClient) post(ctx context.Context, method string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return eris.Wrapf(err, "chat: marshal %s request", method)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/bot"+c.token+"/"+method, bytes.NewReader(body))
	if err != nil {
		return eris.Wrapf(err, "chat: create %s request", method)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrapf(err, "chat: %s request failed", method)
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrapf(err, "chat: read %s response", method)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusForbidden:
		return eris.Wrapf(ErrPermissionDenied, "chat: %s: %s", method, apiDescription(respBody))
	case resp.StatusCode == http.StatusNotFound || (resp.StatusCode == http.StatusBadRequest && isNotFound(respBody)):
		return eris.Wrapf(ErrNotFound, "chat: %s: %s", method, apiDescription(respBody))
	case resilience.IsTransientHTTPStatus(resp.StatusCode):
		return resilience.NewTransientError(
			eris.Errorf("chat: %s status %d: %s", method, resp.StatusCode, apiDescription(respBody)),
			resp.StatusCode,
		)
	default:
		return eris.Errorf("chat: %s unexpected status %d: %s", method, resp.StatusCode, apiDescription(respBody))
	}
}

func apiDescription(body []byte) string {
	var e apiError
	if err := json.Unmarshal(body, &e); err == nil && e.Description != "" {
		return e.Description
	}
	return string(body)
}

// isNotFound detects "message to delete not found"-style 400 responses the
// platform uses instead of a proper 404.
func isNotFound(body []byte) bool {
	var e apiError
	if err := json.Unmarshal(body, &e); err != nil {
		return false
	}
	return bytes.Contains([]byte(e.Description), []byte("not found"))
}

func (c *httpClient) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	return c.post(ctx, "deleteMessage", map[string]int64{
		"chat_id":    chatID,
		"message_id": messageID,
	})
}

func (c *httpClient) BanUser(ctx context.Context, chatID, userID int64) error {
	return c.post(ctx, "banChatMember", map[string]int64{
		"chat_id": chatID,
		"user_id": userID,
	})
}

func (c *httpClient) SendPrivate(ctx context.Context, userID int64, text string) error {
	return c.post(ctx, "sendMessage", map[string]any{
		"chat_id": userID,
		"text":    text,
	})
}

func (c *httpClient) SendGroup(ctx context.Context, chatID int64, text string) error {
	return c.post(ctx, "sendMessage", map[string]any{
		"chat_id": chatID,
		"text":    text,
	})
}

func (c *httpClient) LeaveGroup(ctx context.Context, chatID int64) error {
	return c.post(ctx, "leaveChat", map[string]int64{
		"chat_id": chatID,
	})
}
