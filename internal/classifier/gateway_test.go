package classifier

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groupguard/modbot/internal/prompt"
	"github.com/groupguard/modbot/internal/resilience"
)

type scriptedBackend struct {
	name    string
	replies []func() (string, error)
	calls   int
}

func (s *scriptedBackend) Name() string { return s.name }

func (s *scriptedBackend) Complete(_ context.Context, _ prompt.Request) (string, error) {
	i := s.calls
	s.calls++
	if i >= len(s.replies) {
		i = len(s.replies) - 1
	}
	return s.replies[i]()
}

func ok(raw string) func() (string, error) {
	return func() (string, error) { return raw, nil }
}

func transient() func() (string, error) {
	return func() (string, error) {
		return "", resilience.NewTransientError(eris.New("overloaded"), 529)
	}
}

func permanent() func() (string, error) {
	return func() (string, error) { return "", eris.New("invalid api key") }
}

func fastGateway(order []string, backends ...Backend) *Gateway {
	return NewGateway(GatewayConfig{
		Order:          order,
		MaxAttempts:    3,
		AttemptTimeout: time.Second,
		OverallTimeout: 5 * time.Second,
	}, backends...)
}

func TestGateway_FirstBackendSucceeds(t *testing.T) {
	primary := &scriptedBackend{name: "anthropic", replies: []func() (string, error){
		ok(`{"is_spam": true, "confidence": 85, "reason": "bait"}`),
	}}
	fallback := &scriptedBackend{name: "openai"}

	g := fastGateway([]string{"anthropic", "openai"}, primary, fallback)
	v, err := g.Classify(context.Background(), prompt.Request{})

	require.NoError(t, err)
	assert.Equal(t, 85, v.Score)
	assert.Equal(t, "anthropic", v.Backend)
	assert.Zero(t, fallback.calls)
}

func TestGateway_RetriesTransientThenSucceeds(t *testing.T) {
	primary := &scriptedBackend{name: "anthropic", replies: []func() (string, error){
		transient(),
		ok(`{"is_spam": false, "confidence": 30}`),
	}}

	g := fastGateway([]string{"anthropic"}, primary)
	v, err := g.Classify(context.Background(), prompt.Request{})

	require.NoError(t, err)
	assert.Equal(t, -30, v.Score)
	assert.Equal(t, 2, primary.calls)
}

func TestGateway_FailsOverWhenPrimaryExhausted(t *testing.T) {
	primary := &scriptedBackend{name: "anthropic", replies: []func() (string, error){transient()}}
	fallback := &scriptedBackend{name: "openai", replies: []func() (string, error){
		ok(`{"is_spam": true, "confidence": 95, "reason": "scam"}`),
	}}

	g := fastGateway([]string{"anthropic", "openai"}, primary, fallback)
	v, err := g.Classify(context.Background(), prompt.Request{})

	require.NoError(t, err)
	assert.Equal(t, 3, primary.calls, "primary retried to the ceiling")
	assert.Equal(t, "openai", v.Backend)
	assert.Equal(t, 95, v.Score)
}

func TestGateway_ParseFailureNotRetried(t *testing.T) {
	primary := &scriptedBackend{name: "anthropic", replies: []func() (string, error){
		ok("I cannot answer in JSON."),
	}}
	fallback := &scriptedBackend{name: "openai", replies: []func() (string, error){
		ok(`{"is_spam": false, "confidence": 20}`),
	}}

	g := fastGateway([]string{"anthropic", "openai"}, primary, fallback)
	v, err := g.Classify(context.Background(), prompt.Request{})

	require.NoError(t, err)
	assert.Equal(t, 1, primary.calls, "semantic failure must not burn retries")
	assert.Equal(t, "openai", v.Backend)
	assert.Equal(t, -20, v.Score)
}

func TestGateway_PermanentErrorNotRetried(t *testing.T) {
	primary := &scriptedBackend{name: "anthropic", replies: []func() (string, error){permanent()}}

	g := fastGateway([]string{"anthropic"}, primary)
	_, err := g.Classify(context.Background(), prompt.Request{})

	require.Error(t, err)
	assert.Equal(t, 1, primary.calls)
}

func TestGateway_AllBackendsFail(t *testing.T) {
	primary := &scriptedBackend{name: "anthropic", replies: []func() (string, error){permanent()}}
	fallback := &scriptedBackend{name: "openai", replies: []func() (string, error){permanent()}}

	g := fastGateway([]string{"anthropic", "openai"}, primary, fallback)
	_, err := g.Classify(context.Background(), prompt.Request{})

	require.Error(t, err)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
}

func TestGateway_UnregisteredBackendSkipped(t *testing.T) {
	fallback := &scriptedBackend{name: "openai", replies: []func() (string, error){
		ok(`{"is_spam": true, "confidence": 55}`),
	}}

	g := fastGateway([]string{"anthropic", "openai"}, fallback)
	v, err := g.Classify(context.Background(), prompt.Request{})

	require.NoError(t, err)
	assert.Equal(t, "openai", v.Backend)
}
