package collect

import (
	"context"
	"fmt"
	"strings"

	"github.com/groupguard/modbot/internal/model"
	"github.com/groupguard/modbot/pkg/bridge"
)

// StoriesCollector checks the sender's pinned profile stories. Spam
// accounts often park their pitch there instead of the message body.
type StoriesCollector struct {
	bridge bridge.Client
}

func NewStoriesCollector(b bridge.Client) *StoriesCollector {
	return &StoriesCollector{bridge: b}
}

func (c *StoriesCollector) Name() string { return SignalStories }

func (c *StoriesCollector) Collect(ctx context.Context, target Target) model.ContextResult {
	if target.Sender.IsChannel {
		// Channels have no profile stories to inspect.
		return model.Skipped("sender is a channel")
	}
	if target.Sender.UserID == 0 {
		return model.Skipped("sender id unknown")
	}

	stories, err := c.bridge.GetPinnedStories(ctx, target.Sender.UserID)
	if err != nil {
		return model.Failed(err.Error())
	}
	if len(stories) == 0 {
		return model.Empty()
	}

	var b strings.Builder
	for i, st := range stories {
		if i > 0 {
			b.WriteString("\n")
		}
		caption := st.Caption
		if caption == "" {
			caption = "(no caption)"
		}
		fmt.Fprintf(&b, "story %d: %s", i+1, truncate(caption, maxRecentPostSize))
	}
	return model.Found(b.String())
}
