package model

// Message is an inbound group message under moderation.
type Message struct {
	ChatID    int64  `json:"chat_id"`
	MessageID int64  `json:"message_id"`
	Text      string `json:"text"`

	// Reply/thread metadata, used by the reply-thread collector.
	ReplyToMessageID int64  `json:"reply_to_message_id,omitempty"`
	ReplyText        string `json:"reply_text,omitempty"`
	ThreadID         int64  `json:"thread_id,omitempty"`
	IsTopicMessage   bool   `json:"is_topic_message,omitempty"`

	// OriginChannelID/OriginPostID identify the forwarded channel post a
	// discussion-thread reply refers to, when the reply text itself is
	// unavailable.
	OriginChannelID int64 `json:"origin_channel_id,omitempty"`
	OriginPostID    int64 `json:"origin_post_id,omitempty"`
}

// SenderProfile carries what the transport layer knows about the sender
// without extra API calls.
type SenderProfile struct {
	UserID      int64  `json:"user_id"`
	Handle      string `json:"handle,omitempty"`
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio,omitempty"`

	// IsChannel is set when the message was sent on behalf of a channel
	// rather than a user account.
	IsChannel bool `json:"is_channel,omitempty"`
}

// Group is a moderated chat group.
type Group struct {
	ChatID            int64   `json:"chat_id"`
	Title             string  `json:"title"`
	Handle            string  `json:"handle,omitempty"`
	AdminIDs          []int64 `json:"admin_ids"`
	ModerationEnabled bool    `json:"moderation_enabled"`
}

// Outcome tags returned by the pipeline. Every processed message maps to
// exactly one of these; none of them is empty.
const (
	OutcomeEnforced           = "enforced"
	OutcomeNotified           = "notified"
	OutcomeIgnored            = "ignored"
	OutcomeUnscoredError      = "unscored_error"
	OutcomeModerationDisabled = "moderation_disabled"
	OutcomeUnknownGroup       = "unknown_group"
	OutcomeNoSender           = "no_sender_info"
	OutcomeNotifyFailed       = "notify_failed"
)
