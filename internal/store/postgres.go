package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/groupguard/modbot/internal/model"
)

// pgxPool is the subset of pgxpool.Pool the store uses; pgxmock implements
// it for tests.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool pgxPool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool, used by tests.
func NewPostgresFromPool(pool pgxPool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS groups (
	chat_id            BIGINT PRIMARY KEY,
	title              TEXT NOT NULL DEFAULT '',
	handle             TEXT NOT NULL DEFAULT '',
	admin_ids          BIGINT[] NOT NULL DEFAULT '{}',
	moderation_enabled BOOLEAN NOT NULL DEFAULT true,
	broken_at          TIMESTAMPTZ,
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS admin_policies (
	admin_id       BIGINT PRIMARY KEY,
	auto_enforce   BOOLEAN NOT NULL DEFAULT false,
	credit_balance BIGINT NOT NULL DEFAULT 0,
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS labeled_examples (
	id                 BIGSERIAL PRIMARY KEY,
	text               TEXT NOT NULL,
	name               TEXT,
	bio                TEXT,
	score              INT NOT NULL,
	linked_channel_ctx TEXT,
	stories_ctx        TEXT,
	account_age_ctx    TEXT,
	reply_ctx          TEXT,
	admin_id           BIGINT,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_examples_admin_created ON labeled_examples(admin_id, created_at DESC);
`

// Migrate applies the schema.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	return nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) GetGroup(ctx context.Context, chatID int64) (*model.Group, error) {
	var g model.Group
	err := s.pool.QueryRow(ctx,
		`SELECT chat_id, title, handle, admin_ids, moderation_enabled FROM groups WHERE chat_id = $1`,
		chatID,
	).Scan(&g.ChatID, &g.Title, &g.Handle, &g.AdminIDs, &g.ModerationEnabled)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrap(err, "postgres: get group")
	}
	return &g, nil
}

func (s *PostgresStore) UpsertGroup(ctx context.Context, group model.Group) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO groups (chat_id, title, handle, admin_ids, moderation_enabled, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (chat_id) DO UPDATE SET
			title = EXCLUDED.title,
			handle = EXCLUDED.handle,
			admin_ids = EXCLUDED.admin_ids,
			moderation_enabled = EXCLUDED.moderation_enabled,
			updated_at = now()`,
		group.ChatID, group.Title, group.Handle, group.AdminIDs, group.ModerationEnabled,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: upsert group")
	}
	return nil
}

func (s *PostgresStore) SetGroupModeration(ctx context.Context, chatID int64, enabled bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE groups SET moderation_enabled = $1, updated_at = now() WHERE chat_id = $2`,
		enabled, chatID,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: set group moderation")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) MarkGroupBroken(ctx context.Context, chatID int64) (bool, error) {
	// Conditional on broken_at IS NULL so that retried cleanup is a no-op.
	tag, err := s.pool.Exec(ctx,
		`UPDATE groups SET moderation_enabled = false, broken_at = now(), updated_at = now()
		 WHERE chat_id = $1 AND broken_at IS NULL`,
		chatID,
	)
	if err != nil {
		return false, eris.Wrap(err, "postgres: mark group broken")
	}
	return tag.RowsAffected() == 0, nil
}

func (s *PostgresStore) GetPolicy(ctx context.Context, adminID int64) (model.AdminPolicy, error) {
	p := model.AdminPolicy{AdminID: adminID}
	err := s.pool.QueryRow(ctx,
		`SELECT auto_enforce, credit_balance FROM admin_policies WHERE admin_id = $1`,
		adminID,
	).Scan(&p.AutoEnforce, &p.CreditBalance)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			// New admins get the safe default: notify-only, no credits.
			return p, nil
		}
		return p, eris.Wrap(err, "postgres: get policy")
	}
	return p, nil
}

func (s *PostgresStore) SetAutoEnforce(ctx context.Context, adminID int64, enabled bool) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO admin_policies (admin_id, auto_enforce, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (admin_id) DO UPDATE SET auto_enforce = EXCLUDED.auto_enforce, updated_at = now()`,
		adminID, enabled,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: set auto enforce")
	}
	return nil
}

func (s *PostgresStore) AddCredits(ctx context.Context, adminID int64, amount int64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO admin_policies (admin_id, credit_balance, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (admin_id) DO UPDATE SET
			credit_balance = admin_policies.credit_balance + EXCLUDED.credit_balance,
			updated_at = now()`,
		adminID, amount,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: add credits")
	}
	return nil
}

func (s *PostgresStore) DecrementCredit(ctx context.Context, adminID int64) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE admin_policies SET credit_balance = credit_balance - 1, updated_at = now()
		 WHERE admin_id = $1 AND credit_balance > 0`,
		adminID,
	)
	if err != nil {
		return false, eris.Wrap(err, "postgres: decrement credit")
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) FetchExamples(ctx context.Context, adminIDs []int64, limit int) ([]model.LabeledExample, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, text, name, bio, score,
		       linked_channel_ctx, stories_ctx, account_age_ctx, reply_ctx, admin_id
		FROM labeled_examples
		WHERE admin_id IS NULL OR admin_id = ANY($1)
		ORDER BY (admin_id IS NOT NULL) DESC, created_at DESC
		LIMIT $2`,
		adminIDs, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: fetch examples")
	}
	defer rows.Close()

	var out []model.LabeledExample
	for rows.Next() {
		var ex model.LabeledExample
		var name, bio *string
		if err := rows.Scan(
			&ex.ID, &ex.Text, &name, &bio, &ex.Score,
			&ex.LinkedChannelCtx, &ex.StoriesCtx, &ex.AccountAgeCtx, &ex.ReplyCtx, &ex.AdminID,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan example")
		}
		if name != nil {
			ex.Name = *name
		}
		if bio != nil {
			ex.Bio = *bio
		}
		out = append(out, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate examples")
	}
	return out, nil
}

func (s *PostgresStore) AddExample(ctx context.Context, ex model.LabeledExample) error {
	// Replace any older row with the same text, name and owner so
	// relabeling a message updates rather than duplicates it.
	_, err := s.pool.Exec(ctx, `
		DELETE FROM labeled_examples
		WHERE text = $1
		  AND (name = $2 OR (name IS NULL AND $2 IS NULL))
		  AND (admin_id = $3 OR (admin_id IS NULL AND $3 IS NULL))`,
		ex.Text, nullIfEmpty(ex.Name), ex.AdminID,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: delete stale example")
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO labeled_examples
			(text, name, bio, score, linked_channel_ctx, stories_ctx, account_age_ctx, reply_ctx, admin_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())`,
		ex.Text, nullIfEmpty(ex.Name), nullIfEmpty(ex.Bio), ex.Score,
		ex.LinkedChannelCtx, ex.StoriesCtx, ex.AccountAgeCtx, ex.ReplyCtx, ex.AdminID,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: insert example")
	}
	return nil
}

func (s *PostgresStore) RemoveExample(ctx context.Context, text string, adminID *int64) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM labeled_examples
		WHERE text = $1 AND (admin_id = $2 OR (admin_id IS NULL AND $2 IS NULL))`,
		text, adminID,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: remove example")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
