package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/flash-cli/internal/assessment"
	"github.com/sells-group/flash-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS drafts (
	id           TEXT PRIMARY KEY,
	company      TEXT NOT NULL DEFAULT '',
	current_step INTEGER NOT NULL DEFAULT 0,
	data         TEXT NOT NULL,
	created_at   DATETIME NOT NULL,
	updated_at   DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS submissions (
	id         TEXT PRIMARY KEY,
	draft_id   TEXT NOT NULL DEFAULT '',
	company    TEXT NOT NULL DEFAULT '',
	features   TEXT NOT NULL,
	prediction TEXT,
	degraded   INTEGER NOT NULL DEFAULT 0,
	error      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_drafts_updated_at ON drafts(updated_at);
CREATE INDEX IF NOT EXISTS idx_submissions_draft_id ON submissions(draft_id);
CREATE INDEX IF NOT EXISTS idx_submissions_created_at ON submissions(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveDraft(ctx context.Context, d *model.Draft) error {
	data, err := prepareDraft(d)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO drafts (id, company, current_step, data, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
			company = excluded.company,
			current_step = excluded.current_step,
			data = excluded.data,
			updated_at = excluded.updated_at`,
		d.ID, d.Record.CompanyName(), d.CurrentStep, string(data), d.CreatedAt.UTC(), d.UpdatedAt.UTC(),
	)
	return eris.Wrapf(err, "sqlite: save draft %s", d.ID)
}

func (s *SQLiteStore) GetDraft(ctx context.Context, id string) (*model.Draft, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM drafts WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get draft %s", id)
	}
	d, err := assessment.UnmarshalDraft([]byte(data))
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: decode draft %s", id)
	}
	return &d, nil
}

func (s *SQLiteStore) DeleteDraft(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete draft %s", id)
	}
	return checkRowsAffected(res, "draft", id)
}

func (s *SQLiteStore) ListDrafts(ctx context.Context, filter DraftFilter) ([]model.Draft, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM drafts ORDER BY updated_at DESC LIMIT ? OFFSET ?`,
		limitOrDefault(filter.Limit), max(filter.Offset, 0),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list drafts")
	}
	defer rows.Close() //nolint:errcheck

	var drafts []model.Draft
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan draft")
		}
		d, err := assessment.UnmarshalDraft([]byte(data))
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: decode draft")
		}
		drafts = append(drafts, d)
	}
	return drafts, eris.Wrap(rows.Err(), "sqlite: list drafts iterate")
}

const sqliteInsertSubmission = `INSERT INTO submissions
	(id, draft_id, company, features, prediction, degraded, error, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertSubmission(ctx context.Context, ex execer, sub *model.Submission) error {
	features, prediction, err := prepareSubmission(sub)
	if err != nil {
		return err
	}
	var pred any
	if prediction != nil {
		pred = string(prediction)
	}
	_, err = ex.ExecContext(ctx, sqliteInsertSubmission,
		sub.ID, sub.DraftID, sub.Company, string(features), pred, sub.Degraded, sub.Error, sub.CreatedAt.UTC(),
	)
	return eris.Wrapf(err, "sqlite: insert submission %s", sub.ID)
}

func (s *SQLiteStore) SaveSubmission(ctx context.Context, sub *model.Submission) error {
	return insertSubmission(ctx, s.db, sub)
}

// SaveSubmissions inserts all submissions in one transaction.
func (s *SQLiteStore) SaveSubmissions(ctx context.Context, subs []model.Submission) (int64, error) {
	if len(subs) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	for i := range subs {
		if err := insertSubmission(ctx, tx, &subs[i]); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit submissions")
	}
	return int64(len(subs)), nil
}

const sqliteSubmissionColumns = `id, draft_id, company, features, prediction, degraded, error, created_at`

func (s *SQLiteStore) GetSubmission(ctx context.Context, id string) (*model.Submission, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteSubmissionColumns+` FROM submissions WHERE id = ?`, id)
	sub, err := scanSQLiteSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get submission %s", id)
	}
	return sub, nil
}

func (s *SQLiteStore) ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]model.Submission, error) {
	query := `SELECT ` + sqliteSubmissionColumns + ` FROM submissions WHERE 1=1`
	var args []any

	if filter.DraftID != "" {
		query += ` AND draft_id = ?`
		args = append(args, filter.DraftID)
	}
	if filter.Degraded != nil {
		query += ` AND degraded = ?`
		args = append(args, *filter.Degraded)
	}
	if !filter.CreatedAfter.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, filter.CreatedAfter.UTC())
	}
	if c := filter.Before; c != nil {
		at := c.CreatedAt.UTC()
		query += ` AND (created_at < ? OR (created_at = ? AND id < ?))`
		args = append(args, at, at, c.ID)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, limitOrDefault(filter.Limit), max(filter.Offset, 0))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list submissions")
	}
	defer rows.Close() //nolint:errcheck

	var subs []model.Submission
	for rows.Next() {
		sub, err := scanSQLiteSubmission(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan submission")
		}
		subs = append(subs, *sub)
	}
	return subs, eris.Wrap(rows.Err(), "sqlite: list submissions iterate")
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanSQLiteSubmission(row scannable) (*model.Submission, error) {
	var sub model.Submission
	var features string
	var prediction sql.NullString

	err := row.Scan(&sub.ID, &sub.DraftID, &sub.Company, &features, &prediction, &sub.Degraded, &sub.Error, &sub.CreatedAt)
	if err != nil {
		return nil, err
	}
	var pred []byte
	if prediction.Valid {
		pred = []byte(prediction.String)
	}
	if err := decodeSubmission(&sub, []byte(features), pred); err != nil {
		return nil, err
	}
	return &sub, nil
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}
