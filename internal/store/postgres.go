package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/gtfsload/internal/feed"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS validation_runs (
	id           uuid PRIMARY KEY,
	feed_id      text NOT NULL,
	source       text NOT NULL DEFAULT '',
	started_at   timestamptz NOT NULL,
	duration_ns  bigint NOT NULL,
	rows_scanned bigint NOT NULL,
	error_count  integer NOT NULL,
	counts       jsonb NOT NULL,
	tables       jsonb NOT NULL,
	failure      text NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS validation_runs_started_idx ON validation_runs (started_at DESC);
CREATE TABLE IF NOT EXISTS validation_errors (
	run_id       uuid NOT NULL REFERENCES validation_runs (id) ON DELETE CASCADE,
	seq          integer NOT NULL,
	table_name   text NOT NULL,
	row_num      bigint NOT NULL,
	column_name  text NOT NULL,
	kind         text NOT NULL,
	value        text NOT NULL,
	min_value    double precision,
	max_value    double precision,
	actual_value double precision,
	PRIMARY KEY (run_id, seq)
);`

var errorColumns = []string{
	"run_id", "seq", "table_name", "row_num", "column_name",
	"kind", "value", "min_value", "max_value", "actual_value",
}

// Postgres stores runs in PostgreSQL. Errors are written with COPY.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an existing pool. The caller owns the pool unless Close
// is called.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Migrate creates the tables if they do not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

// SaveRun implements Store.
func (p *Postgres) SaveRun(ctx context.Context, run Run, errs []feed.ValidationError) error {
	counts, tables, err := encodeRunJSON(run)
	if err != nil {
		return err
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := insertRun(ctx, tx, run, counts, tables); err != nil {
		return err
	}

	if len(errs) > 0 {
		id := pgUUID(run.ID)
		n, err := tx.CopyFrom(ctx, pgx.Identifier{"validation_errors"}, errorColumns,
			pgx.CopyFromSlice(len(errs), func(i int) ([]any, error) {
				e := errs[i]
				lo, hi, actual := rangeBounds(e)
				return []any{id, int32(i), e.Table, e.Row, e.Column, e.Kind.String(), e.Value, lo, hi, actual}, nil
			}))
		if err != nil {
			return fmt.Errorf("copy errors: %w", err)
		}
		if int(n) != len(errs) {
			return fmt.Errorf("copy errors: wrote %d of %d", n, len(errs))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func insertRun(ctx context.Context, db DBTX, run Run, counts, tables []byte) error {
	_, err := db.Exec(ctx, `
		INSERT INTO validation_runs
			(id, feed_id, source, started_at, duration_ns, rows_scanned, error_count, counts, tables, failure)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		pgUUID(run.ID), run.FeedID, run.Source, run.Started, int64(run.Duration),
		run.Rows, run.ErrorCount, counts, tables, run.Failure,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

const selectRun = `
	SELECT id, feed_id, source, started_at, duration_ns, rows_scanned, error_count, counts, tables, failure
	FROM validation_runs`

func scanRun(row pgx.Row) (Run, error) {
	var (
		run            Run
		id             pgtype.UUID
		durationNS     int64
		counts, tables []byte
	)
	err := row.Scan(&id, &run.FeedID, &run.Source, &run.Started, &durationNS,
		&run.Rows, &run.ErrorCount, &counts, &tables, &run.Failure)
	if err != nil {
		return Run{}, err
	}
	run.ID = uuid.UUID(id.Bytes)
	run.Duration = time.Duration(durationNS)
	run.Started = run.Started.UTC()
	if err := decodeRunJSON(&run, counts, tables); err != nil {
		return Run{}, err
	}
	return run, nil
}

func encodeRunJSON(run Run) (counts, tables []byte, err error) {
	if counts, err = json.Marshal(run.Counts); err != nil {
		return nil, nil, fmt.Errorf("encode counts: %w", err)
	}
	if tables, err = json.Marshal(run.Tables); err != nil {
		return nil, nil, fmt.Errorf("encode tables: %w", err)
	}
	return counts, tables, nil
}

func decodeRunJSON(run *Run, counts, tables []byte) error {
	if err := json.Unmarshal(counts, &run.Counts); err != nil {
		return fmt.Errorf("decode counts: %w", err)
	}
	if err := json.Unmarshal(tables, &run.Tables); err != nil {
		return fmt.Errorf("decode tables: %w", err)
	}
	return nil
}

// GetRun implements Store.
func (p *Postgres) GetRun(ctx context.Context, id uuid.UUID) (Run, error) {
	run, err := scanRun(p.pool.QueryRow(ctx, selectRun+` WHERE id = $1`, pgUUID(id)))
	if errors.Is(err, pgx.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

// RecentRuns implements Store.
func (p *Postgres) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := p.pool.Query(ctx, selectRun+` ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ListErrors implements Store.
func (p *Postgres) ListErrors(ctx context.Context, id uuid.UUID, limit int) ([]feed.ValidationError, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT table_name, row_num, column_name, kind, value, min_value, max_value, actual_value
		FROM validation_errors
		WHERE run_id = $1
		ORDER BY seq
		LIMIT $2`, pgUUID(id), errorLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list errors: %w", err)
	}
	defer rows.Close()

	var out []feed.ValidationError
	for rows.Next() {
		var (
			e           feed.ValidationError
			kind        string
			lo, hi, act pgtype.Float8
		)
		if err := rows.Scan(&e.Table, &e.Row, &e.Column, &kind, &e.Value, &lo, &hi, &act); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		if e.Kind, err = feed.ParseKind(kind); err != nil {
			return nil, err
		}
		e.Min, e.Max, e.Actual = lo.Float64, hi.Float64, act.Float64
		out = append(out, e)
	}
	return out, rows.Err()
}

// Ping checks connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close closes the pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
