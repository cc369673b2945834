package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/groupguard/modbot/internal/model"
)

func policy(auto bool, credits int64) model.AdminPolicy {
	return model.AdminPolicy{AutoEnforce: auto, CreditBalance: credits}
}

func TestDecide_ThresholdIsExclusive(t *testing.T) {
	e := NewEngine(50)
	enforcing := []model.AdminPolicy{policy(true, 10)}

	// Exactly at the threshold: not spam.
	d := e.Decide(model.Verdict{Score: 50}, enforcing)
	assert.Equal(t, model.ActionNone, d.Action)
	assert.Equal(t, ReasonNotSpam, d.Reason)

	// One above: spam.
	d = e.Decide(model.Verdict{Score: 51}, enforcing)
	assert.Equal(t, model.ActionDeleteAndBan, d.Action)
	assert.Empty(t, d.Reason)
}

func TestDecide_PolicyMatrix(t *testing.T) {
	e := NewEngine(50)
	spam := model.Verdict{Score: 90}

	cases := []struct {
		name       string
		policies   []model.AdminPolicy
		wantAction model.EnforcementAction
		wantReason string
	}{
		{
			"auto enforce with credits",
			[]model.AdminPolicy{policy(true, 5)},
			model.ActionDeleteAndBan, "",
		},
		{
			"auto enforce without credits",
			[]model.AdminPolicy{policy(true, 0)},
			model.ActionNotifyOnly, ReasonInsufficientCredits,
		},
		{
			"notify-only admin",
			[]model.AdminPolicy{policy(false, 5)},
			model.ActionNotifyOnly, ReasonNotifyOnlyMode,
		},
		{
			"one dissenting admin downgrades the group",
			[]model.AdminPolicy{policy(true, 5), policy(false, 5)},
			model.ActionNotifyOnly, ReasonNotifyOnlyMode,
		},
		{
			"all auto, credit on one admin suffices",
			[]model.AdminPolicy{policy(true, 0), policy(true, 3)},
			model.ActionDeleteAndBan, "",
		},
		{
			"no admin policies known",
			nil,
			model.ActionNotifyOnly, ReasonNotifyOnlyMode,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := e.Decide(spam, tc.policies)
			assert.Equal(t, tc.wantAction, d.Action)
			assert.Equal(t, tc.wantReason, d.Reason)
		})
	}
}

func TestDecide_NegativeScoreNeverActs(t *testing.T) {
	e := NewEngine(50)
	d := e.Decide(model.Verdict{Score: -95}, []model.AdminPolicy{policy(true, 10)})
	assert.Equal(t, model.ActionNone, d.Action)
}

func TestDecide_CustomThreshold(t *testing.T) {
	e := NewEngine(70)
	enforcing := []model.AdminPolicy{policy(true, 1)}

	assert.Equal(t, model.ActionNone, e.Decide(model.Verdict{Score: 70}, enforcing).Action)
	assert.Equal(t, model.ActionDeleteAndBan, e.Decide(model.Verdict{Score: 71}, enforcing).Action)
}
