package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/groupguard/modbot/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = eris.New("store: not found")

// Store defines persistence for the moderation pipeline: groups under
// moderation, per-admin policies with credit balances, and the labeled
// example pool used for few-shot prompting.
type Store interface {
	// Groups
	GetGroup(ctx context.Context, chatID int64) (*model.Group, error)
	UpsertGroup(ctx context.Context, group model.Group) error
	SetGroupModeration(ctx context.Context, chatID int64, enabled bool) error
	// MarkGroupBroken disables moderation and records that the group is
	// unreachable so notification cleanup runs at most once.
	MarkGroupBroken(ctx context.Context, chatID int64) (alreadyBroken bool, err error)

	// Admin policies
	GetPolicy(ctx context.Context, adminID int64) (model.AdminPolicy, error)
	SetAutoEnforce(ctx context.Context, adminID int64, enabled bool) error
	AddCredits(ctx context.Context, adminID int64, amount int64) error
	// DecrementCredit atomically decrements the admin's balance by one.
	// Returns false without modifying anything when the balance is already
	// zero or below: the conditional update is what closes the race between
	// concurrent messages for the same admin.
	DecrementCredit(ctx context.Context, adminID int64) (bool, error)

	// Labeled examples
	// FetchExamples returns up to limit examples, admin-specific rows
	// first, then the shared global pool, newest first within each.
	FetchExamples(ctx context.Context, adminIDs []int64, limit int) ([]model.LabeledExample, error)
	AddExample(ctx context.Context, ex model.LabeledExample) error
	RemoveExample(ctx context.Context, text string, adminID *int64) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
