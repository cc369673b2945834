package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groupguard/modbot/internal/resilience"
)

func newTestServer(t *testing.T, status int, body string, gotMethod *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gotMethod != nil {
			*gotMethod = r.URL.Path
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func TestDeleteMessage_Success(t *testing.T) {
	var path string
	srv := newTestServer(t, http.StatusOK, `{"ok":true}`, &path)
	defer srv.Close()

	c := NewClient(srv.URL, "token")
	require.NoError(t, c.DeleteMessage(context.Background(), 1, 2))
	assert.Equal(t, "/bottoken/deleteMessage", path)
}

func TestDeleteMessage_AlreadyDeleted(t *testing.T) {
	srv := newTestServer(t, http.StatusBadRequest, `{"code":400,"description":"message to delete not found"}`, nil)
	defer srv.Close()

	c := NewClient(srv.URL, "token")
	err := c.DeleteMessage(context.Background(), 1, 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestBanUser_PermissionDenied(t *testing.T) {
	srv := newTestServer(t, http.StatusForbidden, `{"code":403,"description":"not enough rights to restrict/unrestrict chat member"}`, nil)
	defer srv.Close()

	c := NewClient(srv.URL, "token")
	err := c.BanUser(context.Background(), 1, 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPermissionDenied))
	assert.Contains(t, err.Error(), "not enough rights")
}

func TestSendPrivate_TransientStatus(t *testing.T) {
	srv := newTestServer(t, http.StatusTooManyRequests, `{"code":429,"description":"retry later"}`, nil)
	defer srv.Close()

	c := NewClient(srv.URL, "token")
	err := c.SendPrivate(context.Background(), 7, "hi")
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
}

func TestSendGroup_Payload(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "token")
	require.NoError(t, c.SendGroup(context.Background(), -100, "alert"))
	assert.Equal(t, float64(-100), got["chat_id"])
	assert.Equal(t, "alert", got["text"])
}

func TestLeaveGroup(t *testing.T) {
	var path string
	srv := newTestServer(t, http.StatusOK, `{"ok":true}`, &path)
	defer srv.Close()

	c := NewClient(srv.URL, "token")
	require.NoError(t, c.LeaveGroup(context.Background(), -100))
	assert.Equal(t, "/bottoken/leaveChat", path)
}
