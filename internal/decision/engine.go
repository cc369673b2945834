// Package decision maps a verdict and the admins' policies onto an
// enforcement action. It is pure: no I/O, no clock, no randomness.
package decision

import (
	"github.com/groupguard/modbot/internal/model"
)

// Reasons attached to downgraded decisions, surfaced in admin alerts.
const (
	ReasonNotSpam             = "score at or below threshold"
	ReasonNotifyOnlyMode      = "notify-only mode"
	ReasonInsufficientCredits = "insufficient credits"
)

// Decision is the engine's output for one scored message.
type Decision struct {
	Action model.EnforcementAction
	// Reason explains a downgrade from DELETE_AND_BAN to NOTIFY_ONLY, or
	// why no action is taken. Empty for a straight enforcement.
	Reason string
}

// Engine applies the spam threshold and policy gates.
type Engine struct {
	threshold int
}

// NewEngine creates an engine with the exclusive spam threshold: a message
// is spam only when score > threshold.
func NewEngine(threshold int) *Engine {
	return &Engine{threshold: threshold}
}

// Decide picks the action for a verdict given the policies of the group's
// admins. Enforcement requires every admin to have auto_enforce on: one
// dissenting admin downgrades the whole group to notifications. The credit
// check here is advisory (a snapshot); the coordinator re-checks with an
// atomic decrement before acting.
func (e *Engine) Decide(verdict model.Verdict, policies []model.AdminPolicy) Decision {
	if verdict.Score <= e.threshold {
		return Decision{Action: model.ActionNone, Reason: ReasonNotSpam}
	}

	if len(policies) == 0 {
		return Decision{Action: model.ActionNotifyOnly, Reason: ReasonNotifyOnlyMode}
	}

	allAuto := true
	anyCredit := false
	for _, p := range policies {
		if !p.AutoEnforce {
			allAuto = false
		}
		if p.CreditBalance > 0 {
			anyCredit = true
		}
	}

	if !allAuto {
		return Decision{Action: model.ActionNotifyOnly, Reason: ReasonNotifyOnlyMode}
	}
	if !anyCredit {
		return Decision{Action: model.ActionNotifyOnly, Reason: ReasonInsufficientCredits}
	}
	return Decision{Action: model.ActionDeleteAndBan}
}
