package collect

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/groupguard/modbot/internal/model"
	"github.com/groupguard/modbot/pkg/bridge"
)

const maxReplySize = 500

// ReplyCollector recovers the text the message replies to. Discussion
// threads under channel posts deliver replies whose target text is not in
// the update, so the collector falls back to fetching the origin post.
type ReplyCollector struct {
	bridge bridge.Client
}

func NewReplyCollector(b bridge.Client) *ReplyCollector {
	return &ReplyCollector{bridge: b}
}

func (c *ReplyCollector) Name() string { return SignalReply }

func (c *ReplyCollector) Collect(ctx context.Context, target Target) model.ContextResult {
	msg := target.Message

	if msg.ReplyToMessageID == 0 && msg.OriginPostID == 0 {
		return model.Skipped("message is not a reply")
	}

	if msg.ReplyText != "" {
		return model.Found(truncate(msg.ReplyText, maxReplySize))
	}

	if msg.OriginChannelID != 0 && msg.OriginPostID != 0 {
		text, err := c.bridge.GetChannelPost(ctx, msg.OriginChannelID, msg.OriginPostID)
		if err != nil {
			if eris.Is(err, bridge.ErrNotFound) {
				return model.Empty()
			}
			return model.Failed(err.Error())
		}
		if text == "" {
			return model.Empty()
		}
		return model.Found(truncate(text, maxReplySize))
	}

	// A reply to a media-only message: there was a target, but nothing
	// textual to show the scorer.
	return model.Empty()
}
