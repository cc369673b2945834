// Package collect gathers per-sender context signals used to ground the
// spam classification: linked-channel reputation, pinned stories, account
// age, and the reply thread. Collectors never fail the pipeline; every
// transport error degrades to a FAILED result for that one signal.
package collect

import (
	"context"

	"github.com/groupguard/modbot/internal/model"
)

// Signal names, used as keys in the collected result set and as section
// identifiers by the prompt builder.
const (
	SignalLinkedChannel = "linked_channel"
	SignalStories       = "stories"
	SignalAccountAge    = "account_age"
	SignalReply         = "reply"
)

// Target is the input shared by all collectors: the message being scored
// and what the transport layer already knows about its sender.
type Target struct {
	Message model.Message
	Sender  model.SenderProfile
}

// Collector produces one context signal for a target. Implementations
// must return SKIPPED without any network call when a hard prerequisite
// is missing, and must convert every error into a FAILED result.
type Collector interface {
	Name() string
	Collect(ctx context.Context, target Target) model.ContextResult
}
