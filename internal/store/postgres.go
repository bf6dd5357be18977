package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/flash-cli/internal/assessment"
	"github.com/sells-group/flash-cli/internal/db"
	"github.com/sells-group/flash-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS drafts (
	id           TEXT PRIMARY KEY,
	company      TEXT NOT NULL DEFAULT '',
	current_step INTEGER NOT NULL DEFAULT 0,
	data         JSONB NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS submissions (
	id         TEXT PRIMARY KEY,
	draft_id   TEXT NOT NULL DEFAULT '',
	company    TEXT NOT NULL DEFAULT '',
	features   JSONB NOT NULL,
	prediction JSONB,
	degraded   BOOLEAN NOT NULL DEFAULT false,
	error      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_drafts_updated_at ON drafts(updated_at);
CREATE INDEX IF NOT EXISTS idx_submissions_draft_id ON submissions(draft_id);
CREATE INDEX IF NOT EXISTS idx_submissions_created_at ON submissions(created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

var draftUpsert = db.UpsertSpec{
	Table:        "drafts",
	Columns:      []string{"id", "company", "current_step", "data", "created_at", "updated_at"},
	ConflictKeys: []string{"id"},
	UpdateCols:   []string{"company", "current_step", "data", "updated_at"},
}

func (s *PostgresStore) SaveDraft(ctx context.Context, d *model.Draft) error {
	data, err := prepareDraft(d)
	if err != nil {
		return err
	}
	query, err := db.UpsertSQL(draftUpsert)
	if err != nil {
		return eris.Wrap(err, "postgres: build draft upsert")
	}
	_, err = s.pool.Exec(ctx, query,
		d.ID, d.Record.CompanyName(), d.CurrentStep, data, d.CreatedAt, d.UpdatedAt,
	)
	return eris.Wrapf(err, "postgres: save draft %s", d.ID)
}

func (s *PostgresStore) GetDraft(ctx context.Context, id string) (*model.Draft, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM drafts WHERE id = $1`, id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get draft %s", id)
	}
	d, err := assessment.UnmarshalDraft(data)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: decode draft %s", id)
	}
	return &d, nil
}

func (s *PostgresStore) DeleteDraft(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM drafts WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete draft %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "draft %s", id)
	}
	return nil
}

func (s *PostgresStore) ListDrafts(ctx context.Context, filter DraftFilter) ([]model.Draft, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT data FROM drafts ORDER BY updated_at DESC LIMIT $1 OFFSET $2`,
		limitOrDefault(filter.Limit), max(filter.Offset, 0),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list drafts")
	}
	defer rows.Close()

	var drafts []model.Draft
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan draft")
		}
		d, err := assessment.UnmarshalDraft(data)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: decode draft")
		}
		drafts = append(drafts, d)
	}
	return drafts, eris.Wrap(rows.Err(), "postgres: list drafts iterate")
}

var submissionColumns = []string{"id", "draft_id", "company", "features", "prediction", "degraded", "error", "created_at"}

func submissionRow(sub *model.Submission) ([]any, error) {
	features, prediction, err := prepareSubmission(sub)
	if err != nil {
		return nil, err
	}
	return []any{
		sub.ID, sub.DraftID, sub.Company, features, nullable(prediction), sub.Degraded, sub.Error, sub.CreatedAt,
	}, nil
}

func (s *PostgresStore) SaveSubmission(ctx context.Context, sub *model.Submission) error {
	row, err := submissionRow(sub)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO submissions (id, draft_id, company, features, prediction, degraded, error, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		row...,
	)
	return eris.Wrapf(err, "postgres: insert submission %s", sub.ID)
}

// SaveSubmissions bulk-inserts submissions with the COPY protocol.
func (s *PostgresStore) SaveSubmissions(ctx context.Context, subs []model.Submission) (int64, error) {
	rows := make([][]any, 0, len(subs))
	for i := range subs {
		row, err := submissionRow(&subs[i])
		if err != nil {
			return 0, err
		}
		rows = append(rows, row)
	}
	n, err := db.CopyFrom(ctx, s.pool, "submissions", submissionColumns, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: save submissions")
	}
	return n, nil
}

const postgresSubmissionSelect = `SELECT id, draft_id, company, features, prediction, degraded, error, created_at FROM submissions`

func (s *PostgresStore) GetSubmission(ctx context.Context, id string) (*model.Submission, error) {
	row := s.pool.QueryRow(ctx, postgresSubmissionSelect+` WHERE id = $1`, id)
	sub, err := scanPostgresSubmission(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get submission %s", id)
	}
	return sub, nil
}

func (s *PostgresStore) ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]model.Submission, error) {
	query := postgresSubmissionSelect + ` WHERE 1=1`
	var args []any
	argN := 1

	if filter.DraftID != "" {
		query += fmt.Sprintf(` AND draft_id = $%d`, argN)
		args = append(args, filter.DraftID)
		argN++
	}
	if filter.Degraded != nil {
		query += fmt.Sprintf(` AND degraded = $%d`, argN)
		args = append(args, *filter.Degraded)
		argN++
	}
	if !filter.CreatedAfter.IsZero() {
		query += fmt.Sprintf(` AND created_at >= $%d`, argN)
		args = append(args, filter.CreatedAfter)
		argN++
	}
	if c := filter.Before; c != nil {
		query += fmt.Sprintf(` AND (created_at, id) < ($%d, $%d)`, argN, argN+1)
		args = append(args, c.CreatedAt, c.ID)
		argN += 2
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, argN, argN+1)
	args = append(args, limitOrDefault(filter.Limit), max(filter.Offset, 0))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list submissions")
	}
	defer rows.Close()

	var subs []model.Submission
	for rows.Next() {
		sub, err := scanPostgresSubmission(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan submission")
		}
		subs = append(subs, *sub)
	}
	return subs, eris.Wrap(rows.Err(), "postgres: list submissions iterate")
}

func scanPostgresSubmission(row pgx.Row) (*model.Submission, error) {
	var sub model.Submission
	var features, prediction []byte
	if err := row.Scan(&sub.ID, &sub.DraftID, &sub.Company, &features, &prediction, &sub.Degraded, &sub.Error, &sub.CreatedAt); err != nil {
		return nil, err
	}
	if err := decodeSubmission(&sub, features, prediction); err != nil {
		return nil, err
	}
	return &sub, nil
}
