// Package enforce carries out decisions: deleting and banning through the
// chat API, and delivering alerts to group admins with dedup, throttling
// and a private-to-group-to-cleanup fallback chain.
package enforce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/groupguard/modbot/internal/model"
	"github.com/groupguard/modbot/internal/store"
	"github.com/groupguard/modbot/pkg/chat"
)

// ErrNotDelivered means no admin and no group channel accepted the alert.
var ErrNotDelivered = eris.New("enforce: alert not delivered")

// AlerterConfig tunes alert suppression.
type AlerterConfig struct {
	// DedupWindow suppresses repeats of the same cause in the same group.
	DedupWindow time.Duration
	// RatePerMinute throttles non-critical alerts globally. Critical
	// alerts bypass the throttle but still dedup.
	RatePerMinute int
	// WebhookURL receives operational alerts as JSON when set.
	WebhookURL string
}

// Alerter delivers admin-facing alerts and operational webhooks.
type Alerter struct {
	chat    chat.Client
	store   store.Store
	cfg     AlerterConfig
	dedup   *cache.Cache
	limiter *rate.Limiter
	http    *http.Client
}

// NewAlerter creates an alerter.
func NewAlerter(chatClient chat.Client, st store.Store, cfg AlerterConfig) *Alerter {
	if cfg.DedupWindow <= 0 {
		cfg.DedupWindow = 30 * time.Second
	}
	if cfg.RatePerMinute <= 0 {
		cfg.RatePerMinute = 10
	}
	return &Alerter{
		chat:    chatClient,
		store:   st,
		cfg:     cfg,
		dedup:   cache.New(cfg.DedupWindow, cfg.DedupWindow),
		limiter: rate.NewLimiter(rate.Limit(float64(cfg.RatePerMinute)/60.0), cfg.RatePerMinute),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify delivers text about the given cause to the group's admins.
// Delivery order: private message to each admin; if none is reachable,
// post into the group; if the group is unreachable too, mark it broken and
// leave it, exactly once. Duplicate causes inside the dedup window are
// suppressed; non-critical alerts are also rate limited.
func (a *Alerter) Notify(ctx context.Context, group model.Group, cause, text string, critical bool) error {
	key := fmt.Sprintf("%d:%s", group.ChatID, cause)
	if _, dup := a.dedup.Get(key); dup {
		zap.L().Debug("alert suppressed as duplicate",
			zap.Int64("chat_id", group.ChatID),
			zap.String("cause", cause),
		)
		return nil
	}
	if !critical && !a.limiter.Allow() {
		zap.L().Warn("alert dropped by rate limit",
			zap.Int64("chat_id", group.ChatID),
			zap.String("cause", cause),
		)
		return nil
	}
	delivered := false
	for _, adminID := range group.AdminIDs {
		if err := a.chat.SendPrivate(ctx, adminID, text); err != nil {
			// Admins who never started a private chat with the bot are
			// unreachable this way; fall through to the group channel.
			zap.L().Debug("private alert failed",
				zap.Int64("admin_id", adminID),
				zap.Error(err),
			)
			continue
		}
		delivered = true
	}
	if delivered {
		// Only a delivered alert counts for dedup; a failed attempt must
		// not mask a retry inside the window.
		a.dedup.Set(key, struct{}{}, cache.DefaultExpiration)
		return nil
	}

	if err := a.chat.SendGroup(ctx, group.ChatID, text); err == nil {
		a.dedup.Set(key, struct{}{}, cache.DefaultExpiration)
		return nil
	} else if eris.Is(err, chat.ErrPermissionDenied) || eris.Is(err, chat.ErrNotFound) {
		a.cleanupBrokenGroup(ctx, group.ChatID)
		return eris.Wrap(ErrNotDelivered, err.Error())
	} else {
		return eris.Wrap(ErrNotDelivered, err.Error())
	}
}

// cleanupBrokenGroup disables moderation and leaves the chat. The store
// records the broken state so concurrent or repeated failures do not leave
// twice.
func (a *Alerter) cleanupBrokenGroup(ctx context.Context, chatID int64) {
	alreadyBroken, err := a.store.MarkGroupBroken(ctx, chatID)
	if err != nil {
		zap.L().Error("failed to mark group broken", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}
	if alreadyBroken {
		return
	}

	zap.L().Warn("group unreachable, leaving", zap.Int64("chat_id", chatID))
	if err := a.chat.LeaveGroup(ctx, chatID); err != nil {
		zap.L().Error("failed to leave group", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// opsAlert is the webhook payload for operational problems.
type opsAlert struct {
	Type      string         `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// AlertOps posts an operational alert to the configured webhook. It is
// best effort; failures are logged, never propagated.
func (a *Alerter) AlertOps(ctx context.Context, alertType, message string, details map[string]any) {
	if a.cfg.WebhookURL == "" {
		return
	}

	payload, err := json.Marshal(opsAlert{
		Type:      alertType,
		Severity:  "high",
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		zap.L().Error("marshal ops alert", zap.Error(err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		zap.L().Error("create ops alert request", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.http.Do(req)
	if err != nil {
		zap.L().Error("send ops alert", zap.Error(err))
		return
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		zap.L().Error("ops alert rejected", zap.Int("status", resp.StatusCode))
		return
	}
	zap.L().Info("ops alert sent", zap.String("type", alertType))
}
