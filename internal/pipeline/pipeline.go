// Package pipeline runs the full moderation flow for one message: load the
// group, collect context, assemble the prompt, score, decide, and enforce
// or notify. Each message gets an independent pipeline pass; a slow or
// failing message never blocks another.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/groupguard/modbot/internal/collect"
	"github.com/groupguard/modbot/internal/decision"
	"github.com/groupguard/modbot/internal/enforce"
	"github.com/groupguard/modbot/internal/model"
	"github.com/groupguard/modbot/internal/prompt"
	"github.com/groupguard/modbot/internal/store"
)

// Classifier scores one assembled request.
type Classifier interface {
	Classify(ctx context.Context, req prompt.Request) (model.Verdict, error)
}

// Enforcer applies delete-and-ban.
type Enforcer interface {
	Enforce(ctx context.Context, group model.Group, msg model.Message, userID int64) error
}

// Notifier delivers admin alerts and operational webhooks.
type Notifier interface {
	Notify(ctx context.Context, group model.Group, cause, text string, critical bool) error
	AlertOps(ctx context.Context, alertType, message string, details map[string]any)
}

// Pipeline wires the stages together.
type Pipeline struct {
	store       store.Store
	runner      *collect.Runner
	builder     *prompt.Builder
	classifier  Classifier
	engine      *decision.Engine
	enforcer    Enforcer
	notifier    Notifier
	maxExamples int
}

// New creates a pipeline.
func New(
	st store.Store,
	runner *collect.Runner,
	builder *prompt.Builder,
	cls Classifier,
	engine *decision.Engine,
	enf Enforcer,
	ntf Notifier,
	maxExamples int,
) *Pipeline {
	if maxExamples <= 0 {
		maxExamples = 20
	}
	return &Pipeline{
		store:       st,
		runner:      runner,
		builder:     builder,
		classifier:  cls,
		engine:      engine,
		enforcer:    enf,
		notifier:    ntf,
		maxExamples: maxExamples,
	}
}

// ProcessMessage runs one message through the pipeline and returns a
// non-empty outcome tag. Errors never escape: an unscorable message is
// logged and alerted, never silently deleted nor silently approved.
func (p *Pipeline) ProcessMessage(ctx context.Context, msg model.Message, sender model.SenderProfile) string {
	log := zap.L().With(
		zap.Int64("chat_id", msg.ChatID),
		zap.Int64("message_id", msg.MessageID),
		zap.Int64("user_id", sender.UserID),
	)

	group, err := p.store.GetGroup(ctx, msg.ChatID)
	if err != nil {
		if eris.Is(err, store.ErrNotFound) {
			log.Debug("message from unregistered group")
			return model.OutcomeUnknownGroup
		}
		log.Error("group lookup failed", zap.Error(err))
		return model.OutcomeUnscoredError
	}
	if !group.ModerationEnabled {
		return model.OutcomeModerationDisabled
	}
	if sender.UserID == 0 {
		log.Debug("message without sender information")
		return model.OutcomeNoSender
	}

	signals := p.runner.Run(ctx, collect.Target{Message: msg, Sender: sender})

	examples, err := p.store.FetchExamples(ctx, group.AdminIDs, p.maxExamples)
	if err != nil {
		// Examples improve calibration but are not required to score.
		log.Warn("example fetch failed, scoring without few-shot examples", zap.Error(err))
		examples = nil
	}

	req := prompt.Request{
		System: p.builder.BuildSystem(examples, signals),
		User:   prompt.FormatRequest(msg.Text, sender.DisplayName, sender.Bio, signals),
	}

	verdict, err := p.classifier.Classify(ctx, req)
	if err != nil {
		log.Error("message could not be scored", zap.Error(err))
		p.notifier.AlertOps(ctx, enforce.CauseUnscoredMessage,
			"message could not be scored; no action taken",
			map[string]any{
				"chat_id":    msg.ChatID,
				"message_id": msg.MessageID,
				"error":      err.Error(),
			})
		return model.OutcomeUnscoredError
	}

	policies := p.loadPolicies(ctx, group.AdminIDs)
	dec := p.engine.Decide(verdict, policies)

	log.Info("decision made",
		zap.Int("score", verdict.Score),
		zap.String("backend", verdict.Backend),
		zap.String("action", string(dec.Action)),
		zap.String("reason", dec.Reason),
	)

	switch dec.Action {
	case model.ActionNone:
		return model.OutcomeIgnored
	case model.ActionDeleteAndBan:
		return p.enforceSpam(ctx, *group, msg, sender, verdict, signals)
	default:
		return p.notifySpam(ctx, *group, msg, sender, verdict, signals, dec.Reason)
	}
}

// loadPolicies fetches each admin's policy; a failed lookup degrades to
// the safe default (notify-only, no credits) for that admin.
func (p *Pipeline) loadPolicies(ctx context.Context, adminIDs []int64) []model.AdminPolicy {
	policies := make([]model.AdminPolicy, 0, len(adminIDs))
	for _, id := range adminIDs {
		policy, err := p.store.GetPolicy(ctx, id)
		if err != nil {
			zap.L().Warn("policy lookup failed, using default",
				zap.Int64("admin_id", id),
				zap.Error(err),
			)
			policy = model.AdminPolicy{AdminID: id}
		}
		policies = append(policies, policy)
	}
	return policies
}

// enforceSpam confirms the credit with an atomic decrement before acting.
// Losing the decrement race downgrades to notification; every admin
// confirmed at zero disables the group's moderation entirely. A store
// error is neither: the balance is unknown, so the group is never paused
// over it.
func (p *Pipeline) enforceSpam(
	ctx context.Context,
	group model.Group,
	msg model.Message,
	sender model.SenderProfile,
	verdict model.Verdict,
	signals map[string]model.ContextResult,
) string {
	charged := false
	checkFailed := false
	for _, adminID := range group.AdminIDs {
		ok, err := p.store.DecrementCredit(ctx, adminID)
		if err != nil {
			zap.L().Error("credit decrement failed", zap.Int64("admin_id", adminID), zap.Error(err))
			checkFailed = true
			continue
		}
		if ok {
			charged = true
			break
		}
	}

	if !charged && checkFailed {
		p.notifier.AlertOps(ctx, enforce.CauseCreditCheckFailed,
			"credit check failed; enforcement downgraded to notification",
			map[string]any{
				"chat_id":    group.ChatID,
				"message_id": msg.MessageID,
			})
		return p.notifySpam(ctx, group, msg, sender, verdict, signals, "credit check failed")
	}

	if !charged {
		// Every balance was confirmed at zero between the decision
		// snapshot and now.
		zap.L().Warn("credits exhausted, disabling moderation", zap.Int64("chat_id", group.ChatID))
		if err := p.store.SetGroupModeration(ctx, group.ChatID, false); err != nil {
			zap.L().Error("failed to disable moderation", zap.Int64("chat_id", group.ChatID), zap.Error(err))
		}
		text := p.notificationText(group, msg, sender, verdict, signals, decision.ReasonInsufficientCredits) +
			"\n\nModeration has been paused for this group. Top up credits to resume."
		return p.deliver(ctx, group, msg, text)
	}

	if err := p.enforcer.Enforce(ctx, group, msg, sender.UserID); err != nil {
		zap.L().Error("enforcement failed, notifying instead", zap.Error(err))
		return p.notifySpam(ctx, group, msg, sender, verdict, signals, "enforcement failed")
	}

	text := p.notificationText(group, msg, sender, verdict, signals, "") +
		"\n\nThe message was deleted and the sender banned."
	if err := p.notifier.Notify(ctx, group, notifyCause(msg), text, true); err != nil {
		zap.L().Warn("post-enforcement notification failed", zap.Error(err))
	}
	return model.OutcomeEnforced
}

func (p *Pipeline) notifySpam(
	ctx context.Context,
	group model.Group,
	msg model.Message,
	sender model.SenderProfile,
	verdict model.Verdict,
	signals map[string]model.ContextResult,
	reason string,
) string {
	text := p.notificationText(group, msg, sender, verdict, signals, reason)
	return p.deliver(ctx, group, msg, text)
}

func (p *Pipeline) deliver(ctx context.Context, group model.Group, msg model.Message, text string) string {
	if err := p.notifier.Notify(ctx, group, notifyCause(msg), text, true); err != nil {
		zap.L().Error("spam notification failed", zap.Int64("chat_id", group.ChatID), zap.Error(err))
		return model.OutcomeNotifyFailed
	}
	return model.OutcomeNotified
}

// notifyCause is unique per message so that dedup never swallows alerts
// about different spam messages.
func notifyCause(msg model.Message) string {
	return fmt.Sprintf("%s:%d:%d", enforce.CauseSpamNotification, msg.ChatID, msg.MessageID)
}

const maxExcerpt = 300

// notificationText renders the admin-facing alert: who, what, the verdict
// rationale, and the context that drove it.
func (p *Pipeline) notificationText(
	group model.Group,
	msg model.Message,
	sender model.SenderProfile,
	verdict model.Verdict,
	signals map[string]model.ContextResult,
	reason string,
) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Suspected spam in %q\n", group.Title)

	who := sender.DisplayName
	if sender.Handle != "" {
		who = fmt.Sprintf("%s (@%s)", who, sender.Handle)
	}
	fmt.Fprintf(&b, "From: %s\n", who)
	fmt.Fprintf(&b, "Score: %d (confidence %d)\n", verdict.Score, verdict.Confidence)
	if verdict.Rationale != "" {
		fmt.Fprintf(&b, "Why: %s\n", verdict.Rationale)
	}
	if reason != "" {
		fmt.Fprintf(&b, "No automatic action taken: %s\n", reason)
	}

	if ch := signals[collect.SignalLinkedChannel]; ch.Status == model.StatusFound {
		fmt.Fprintf(&b, "Linked channel: %s\n", ch.Content)
	}

	excerpt := msg.Text
	if len(excerpt) > maxExcerpt {
		cut := maxExcerpt
		for cut > 0 && excerpt[cut]&0xC0 == 0x80 {
			cut--
		}
		excerpt = excerpt[:cut] + "..."
	}
	fmt.Fprintf(&b, "\nMessage:\n%s", excerpt)

	return b.String()
}
