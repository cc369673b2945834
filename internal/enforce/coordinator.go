package enforce

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/groupguard/modbot/internal/model"
	"github.com/groupguard/modbot/pkg/chat"
)

// Alert causes, used as dedup keys so repeats of the same problem in the
// same group collapse into one alert.
const (
	CauseMissingDeleteRight = "missing_delete_right"
	CauseMissingBanRight    = "missing_ban_right"
	CauseSpamNotification   = "spam_notification"
	CauseUnscoredMessage    = "unscored_message"
	CauseCreditCheckFailed  = "credit_check_failed"
)

// Coordinator executes enforcement actions. Delete and ban are independent:
// one failing never skips the other, and a message already gone counts as
// deleted.
type Coordinator struct {
	chat   chat.Client
	alerts *Alerter
}

// NewCoordinator creates a coordinator.
func NewCoordinator(chatClient chat.Client, alerts *Alerter) *Coordinator {
	return &Coordinator{chat: chatClient, alerts: alerts}
}

// Enforce deletes the message and bans its sender. Permission failures
// alert the group's admins naming the exact missing right. The returned
// error reports whichever steps failed; partial success is normal.
func (c *Coordinator) Enforce(ctx context.Context, group model.Group, msg model.Message, userID int64) error {
	var deleteErr, banErr error

	if err := c.chat.DeleteMessage(ctx, msg.ChatID, msg.MessageID); err != nil {
		switch {
		case eris.Is(err, chat.ErrNotFound):
			// Someone beat us to it. The goal state holds.
			zap.L().Debug("message already deleted",
				zap.Int64("chat_id", msg.ChatID),
				zap.Int64("message_id", msg.MessageID),
			)
		case eris.Is(err, chat.ErrPermissionDenied):
			deleteErr = err
			c.alertMissingRight(ctx, group, CauseMissingDeleteRight, "delete messages")
		default:
			deleteErr = err
			zap.L().Error("delete failed",
				zap.Int64("chat_id", msg.ChatID),
				zap.Int64("message_id", msg.MessageID),
				zap.Error(err),
			)
		}
	}

	if err := c.chat.BanUser(ctx, msg.ChatID, userID); err != nil {
		if eris.Is(err, chat.ErrPermissionDenied) {
			c.alertMissingRight(ctx, group, CauseMissingBanRight, "ban users")
		} else {
			zap.L().Error("ban failed",
				zap.Int64("chat_id", msg.ChatID),
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
		}
		banErr = err
	}

	if deleteErr != nil && banErr != nil {
		return eris.Wrap(banErr, "enforce: delete and ban both failed")
	}
	if deleteErr != nil {
		return eris.Wrap(deleteErr, "enforce: delete failed")
	}
	if banErr != nil {
		return eris.Wrap(banErr, "enforce: ban failed")
	}

	zap.L().Info("enforcement applied",
		zap.Int64("chat_id", msg.ChatID),
		zap.Int64("message_id", msg.MessageID),
		zap.Int64("user_id", userID),
	)
	return nil
}

func (c *Coordinator) alertMissingRight(ctx context.Context, group model.Group, cause, right string) {
	text := fmt.Sprintf(
		"I could not act on a spam message in %q because I lack the right to %s. Please grant it in the group's admin settings.",
		group.Title, right,
	)
	if err := c.alerts.Notify(ctx, group, cause, text, true); err != nil {
		zap.L().Error("failed to alert admins about missing right",
			zap.Int64("chat_id", group.ChatID),
			zap.String("right", right),
			zap.Error(err),
		)
	}
}
