package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/groupguard/modbot/internal/model"
)

// SQLiteStore implements Store on a single-file database, used for local
// development and the CLI commands.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the database at path. ":memory:" is
// supported for tests.
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// modernc sqlite does not tolerate concurrent writers on one file.
	db.SetMaxOpenConns(1)
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS groups (
	chat_id            INTEGER PRIMARY KEY,
	title              TEXT NOT NULL DEFAULT '',
	handle             TEXT NOT NULL DEFAULT '',
	admin_ids          TEXT NOT NULL DEFAULT '[]',
	moderation_enabled INTEGER NOT NULL DEFAULT 1,
	broken_at          TEXT
);

CREATE TABLE IF NOT EXISTS admin_policies (
	admin_id       INTEGER PRIMARY KEY,
	auto_enforce   INTEGER NOT NULL DEFAULT 0,
	credit_balance INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS labeled_examples (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	text               TEXT NOT NULL,
	name               TEXT,
	bio                TEXT,
	score              INTEGER NOT NULL,
	linked_channel_ctx TEXT,
	stories_ctx        TEXT,
	account_age_ctx    TEXT,
	reply_ctx          TEXT,
	admin_id           INTEGER,
	created_at         TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_examples_admin_created ON labeled_examples(admin_id, created_at DESC);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteMigration); err != nil {
		return eris.Wrap(err, "sqlite: migrate")
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetGroup(ctx context.Context, chatID int64) (*model.Group, error) {
	var g model.Group
	var adminJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT chat_id, title, handle, admin_ids, moderation_enabled FROM groups WHERE chat_id = ?`,
		chatID,
	).Scan(&g.ChatID, &g.Title, &g.Handle, &adminJSON, &g.ModerationEnabled)
	if err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrap(err, "sqlite: get group")
	}
	if err := json.Unmarshal([]byte(adminJSON), &g.AdminIDs); err != nil {
		return nil, eris.Wrap(err, "sqlite: decode admin ids")
	}
	return &g, nil
}

func (s *SQLiteStore) UpsertGroup(ctx context.Context, group model.Group) error {
	adminJSON, err := json.Marshal(group.AdminIDs)
	if err != nil {
		return eris.Wrap(err, "sqlite: encode admin ids")
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO groups (chat_id, title, handle, admin_ids, moderation_enabled)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (chat_id) DO UPDATE SET
			title = excluded.title,
			handle = excluded.handle,
			admin_ids = excluded.admin_ids,
			moderation_enabled = excluded.moderation_enabled`,
		group.ChatID, group.Title, group.Handle, string(adminJSON), group.ModerationEnabled,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: upsert group")
	}
	return nil
}

func (s *SQLiteStore) SetGroupModeration(ctx context.Context, chatID int64, enabled bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE groups SET moderation_enabled = ? WHERE chat_id = ?`,
		enabled, chatID,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: set group moderation")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: set group moderation")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) MarkGroupBroken(ctx context.Context, chatID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE groups SET moderation_enabled = 0, broken_at = datetime('now')
		WHERE chat_id = ? AND broken_at IS NULL`,
		chatID,
	)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: mark group broken")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: mark group broken")
	}
	return n == 0, nil
}

func (s *SQLiteStore) GetPolicy(ctx context.Context, adminID int64) (model.AdminPolicy, error) {
	p := model.AdminPolicy{AdminID: adminID}
	err := s.db.QueryRowContext(ctx,
		`SELECT auto_enforce, credit_balance FROM admin_policies WHERE admin_id = ?`,
		adminID,
	).Scan(&p.AutoEnforce, &p.CreditBalance)
	if err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return p, nil
		}
		return p, eris.Wrap(err, "sqlite: get policy")
	}
	return p, nil
}

func (s *SQLiteStore) SetAutoEnforce(ctx context.Context, adminID int64, enabled bool) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO admin_policies (admin_id, auto_enforce) VALUES (?, ?)
		ON CONFLICT (admin_id) DO UPDATE SET auto_enforce = excluded.auto_enforce`,
		adminID, enabled,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: set auto enforce")
	}
	return nil
}

func (s *SQLiteStore) AddCredits(ctx context.Context, adminID int64, amount int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO admin_policies (admin_id, credit_balance) VALUES (?, ?)
		ON CONFLICT (admin_id) DO UPDATE SET credit_balance = credit_balance + excluded.credit_balance`,
		adminID, amount,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: add credits")
	}
	return nil
}

func (s *SQLiteStore) DecrementCredit(ctx context.Context, adminID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE admin_policies SET credit_balance = credit_balance - 1
		WHERE admin_id = ? AND credit_balance > 0`,
		adminID,
	)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: decrement credit")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: decrement credit")
	}
	return n == 1, nil
}

func (s *SQLiteStore) FetchExamples(ctx context.Context, adminIDs []int64, limit int) ([]model.LabeledExample, error) {
	// database/sql has no array binding, so build the IN list.
	query := `
		SELECT id, text, name, bio, score,
		       linked_channel_ctx, stories_ctx, account_age_ctx, reply_ctx, admin_id
		FROM labeled_examples
		WHERE admin_id IS NULL`
	args := make([]any, 0, len(adminIDs)+1)
	if len(adminIDs) > 0 {
		query += ` OR admin_id IN (`
		for i, id := range adminIDs {
			if i > 0 {
				query += `, `
			}
			query += `?`
			args = append(args, id)
		}
		query += `)`
	}
	query += ` ORDER BY (admin_id IS NOT NULL) DESC, created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: fetch examples")
	}
	defer rows.Close()

	var out []model.LabeledExample
	for rows.Next() {
		var ex model.LabeledExample
		var name, bio sql.NullString
		if err := rows.Scan(
			&ex.ID, &ex.Text, &name, &bio, &ex.Score,
			&ex.LinkedChannelCtx, &ex.StoriesCtx, &ex.AccountAgeCtx, &ex.ReplyCtx, &ex.AdminID,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan example")
		}
		ex.Name = name.String
		ex.Bio = bio.String
		out = append(out, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate examples")
	}
	return out, nil
}

func (s *SQLiteStore) AddExample(ctx context.Context, ex model.LabeledExample) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM labeled_examples
		WHERE text = ?
		  AND (name = ? OR (name IS NULL AND ? IS NULL))
		  AND (admin_id = ? OR (admin_id IS NULL AND ? IS NULL))`,
		ex.Text, nullIfEmpty(ex.Name), nullIfEmpty(ex.Name), ex.AdminID, ex.AdminID,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: delete stale example")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO labeled_examples
			(text, name, bio, score, linked_channel_ctx, stories_ctx, account_age_ctx, reply_ctx, admin_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ex.Text, nullIfEmpty(ex.Name), nullIfEmpty(ex.Bio), ex.Score,
		ex.LinkedChannelCtx, ex.StoriesCtx, ex.AccountAgeCtx, ex.ReplyCtx, ex.AdminID,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert example")
	}
	return nil
}

func (s *SQLiteStore) RemoveExample(ctx context.Context, text string, adminID *int64) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM labeled_examples
		WHERE text = ? AND (admin_id = ? OR (admin_id IS NULL AND ? IS NULL))`,
		text, adminID, adminID,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: remove example")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: remove example")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
