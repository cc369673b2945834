package collect

import (
	"context"
	"fmt"
	"time"

	"github.com/groupguard/modbot/internal/model"
	"github.com/groupguard/modbot/pkg/bridge"
)

// AccountAgeCollector estimates account age from the profile photo date.
// The platform does not expose registration dates, so the photo timestamp
// is the best available proxy; a missing photo is itself a weak signal.
type AccountAgeCollector struct {
	bridge bridge.Client
	now    func() time.Time
}

func NewAccountAgeCollector(b bridge.Client, now func() time.Time) *AccountAgeCollector {
	if now == nil {
		now = time.Now
	}
	return &AccountAgeCollector{bridge: b, now: now}
}

func (c *AccountAgeCollector) Name() string { return SignalAccountAge }

func (c *AccountAgeCollector) Collect(ctx context.Context, target Target) model.ContextResult {
	if target.Sender.IsChannel {
		return model.Skipped("sender is a channel")
	}
	if target.Sender.UserID == 0 {
		return model.Skipped("sender id unknown")
	}

	photoDate, err := c.bridge.GetProfilePhotoDate(ctx, target.Sender.UserID)
	if err != nil {
		return model.Failed(err.Error())
	}
	if photoDate.IsZero() {
		return model.Empty()
	}

	return model.Found(fmt.Sprintf("photo_age=%dmo", monthsBetween(photoDate, c.now())))
}

func monthsBetween(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if months < 0 {
		return 0
	}
	return months
}
