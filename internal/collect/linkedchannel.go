package collect

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/groupguard/modbot/internal/model"
	"github.com/groupguard/modbot/pkg/bridge"
)

// Suspicion thresholds for freshly made promo channels: tiny audience,
// barely any posts, created recently. All three must hold.
const (
	suspiciousMaxSubscribers = 10
	suspiciousMaxPosts       = 50
	suspiciousMaxAgeMonths   = 10
)

const (
	maxRecentPosts    = 3
	maxRecentPostSize = 200
)

// LinkedChannelCollector resolves the channel linked from the sender's
// profile and summarizes its reputation.
type LinkedChannelCollector struct {
	bridge bridge.Client
	now    func() time.Time
}

// NewLinkedChannelCollector creates the collector. now overrides the clock
// for tests; nil means time.Now.
func NewLinkedChannelCollector(b bridge.Client, now func() time.Time) *LinkedChannelCollector {
	if now == nil {
		now = time.Now
	}
	return &LinkedChannelCollector{bridge: b, now: now}
}

func (c *LinkedChannelCollector) Name() string { return SignalLinkedChannel }

func (c *LinkedChannelCollector) Collect(ctx context.Context, target Target) model.ContextResult {
	handle := target.Sender.Handle
	if handle == "" {
		return model.Skipped("sender has no public handle")
	}

	ch, err := c.bridge.ResolveChannel(ctx, handle)
	if err != nil {
		if eris.Is(err, bridge.ErrNotFound) {
			return model.Empty()
		}
		return model.Failed(err.Error())
	}

	age := ch.AgeMonths(c.now())

	var b strings.Builder
	fmt.Fprintf(&b, "subscribers=%d; total_posts=%d; age_delta=%dmo", ch.Subscribers, ch.TotalPosts, age)

	if ch.Subscribers < suspiciousMaxSubscribers &&
		ch.TotalPosts < suspiciousMaxPosts &&
		age < suspiciousMaxAgeMonths {
		b.WriteString("\nsuspicious: low subscriber count, few posts, recently created channel")
	}

	for i, post := range ch.RecentPosts {
		if i >= maxRecentPosts {
			break
		}
		fmt.Fprintf(&b, "\nrecent post: %s", truncate(post, maxRecentPostSize))
	}

	return model.Found(b.String())
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	// Cut on a rune boundary so truncated Cyrillic posts stay valid UTF-8.
	cut := max
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return s[:cut] + "..."
}
