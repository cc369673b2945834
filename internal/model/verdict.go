package model

// Score bounds for classifier verdicts. Negative scores mean confidently
// legitimate, positive mean confidently spam.
const (
	MinScore = -100
	MaxScore = 100
)

// Verdict is the scorer's output for one message. Produced once, immutable.
type Verdict struct {
	// Score is the signed spam confidence in [-100, 100].
	Score int `json:"score"`
	// Confidence is the unsigned certainty in [0, 100].
	Confidence int `json:"confidence"`
	// Rationale is the scorer's free-text explanation, shown to admins.
	Rationale string `json:"rationale"`
	// Backend names the scoring backend that produced the verdict.
	Backend string `json:"backend,omitempty"`
}

// AdminPolicy is per-admin configuration gating enforcement. The pipeline
// reads it; billing and admin commands mutate it through the store.
type AdminPolicy struct {
	AdminID int64 `json:"admin_id"`
	// AutoEnforce enables automatic delete+ban. Defaults to false for new
	// admins so that a misconfigured group never auto-deletes.
	AutoEnforce bool `json:"auto_enforce"`
	// CreditBalance is decremented per enforcement; at zero the group falls
	// back to notify-only regardless of AutoEnforce.
	CreditBalance int64 `json:"credit_balance"`
}

// EnforcementAction is the closed set of actions the decision engine can
// choose. Derived fresh per message, never persisted.
type EnforcementAction string

const (
	ActionDeleteAndBan EnforcementAction = "delete_and_ban"
	ActionNotifyOnly   EnforcementAction = "notify_only"
	ActionNone         EnforcementAction = "none"
)

// LabeledExample is a previously scored message used as few-shot guidance.
// Context snapshots use the three-way encoding from EncodeContext.
type LabeledExample struct {
	ID   int64  `json:"id,omitempty"`
	Text string `json:"text"`
	Name string `json:"name,omitempty"`
	Bio  string `json:"bio,omitempty"`
	// Score follows the verdict scale: positive = spam.
	Score int `json:"score"`

	LinkedChannelCtx *string `json:"linked_channel_ctx,omitempty"`
	StoriesCtx       *string `json:"stories_ctx,omitempty"`
	AccountAgeCtx    *string `json:"account_age_ctx,omitempty"`
	ReplyCtx         *string `json:"reply_ctx,omitempty"`

	// AdminID is nil for the shared global pool.
	AdminID *int64 `json:"admin_id,omitempty"`
}
