package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/gtfsload/internal/feed"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS validation_runs (
	id           TEXT PRIMARY KEY,
	feed_id      TEXT NOT NULL,
	source       TEXT NOT NULL DEFAULT '',
	started_at   TEXT NOT NULL,
	duration_ns  INTEGER NOT NULL,
	rows_scanned INTEGER NOT NULL,
	error_count  INTEGER NOT NULL,
	counts       TEXT NOT NULL,
	tables       TEXT NOT NULL,
	failure      TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS validation_runs_started_idx ON validation_runs (started_at DESC);
CREATE TABLE IF NOT EXISTS validation_errors (
	run_id       TEXT NOT NULL REFERENCES validation_runs (id) ON DELETE CASCADE,
	seq          INTEGER NOT NULL,
	table_name   TEXT NOT NULL,
	row_num      INTEGER NOT NULL,
	column_name  TEXT NOT NULL,
	kind         TEXT NOT NULL,
	value        TEXT NOT NULL,
	min_value    REAL,
	max_value    REAL,
	actual_value REAL,
	PRIMARY KEY (run_id, seq)
);`

// sqliteTime has fixed-width fractions so started_at sorts as text.
const sqliteTime = "2006-01-02T15:04:05.000000000Z07:00"

// SQLite stores runs in a local SQLite database. The CLI uses it for
// history, and the server falls back to it without a Postgres URL.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path and applies the schema.
// ":memory:" gives a private in-memory database.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps ":memory:" a single database and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// SaveRun implements Store.
func (s *SQLite) SaveRun(ctx context.Context, run Run, errs []feed.ValidationError) (retErr error) {
	counts, tables, err := encodeRunJSON(run)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO validation_runs
			(id, feed_id, source, started_at, duration_ns, rows_scanned, error_count, counts, tables, failure)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(), run.FeedID, run.Source, run.Started.UTC().Format(sqliteTime),
		int64(run.Duration), run.Rows, run.ErrorCount, string(counts), string(tables), run.Failure,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO validation_errors
			(run_id, seq, table_name, row_num, column_name, kind, value, min_value, max_value, actual_value)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare error insert: %w", err)
	}
	defer stmt.Close()

	id := run.ID.String()
	for i, e := range errs {
		lo, hi, actual := rangeBounds(e)
		if _, err := stmt.ExecContext(ctx, id, i, e.Table, e.Row, e.Column, e.Kind.String(), e.Value, lo, hi, actual); err != nil {
			return fmt.Errorf("insert error %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type sqlRow interface {
	Scan(dest ...any) error
}

func scanSQLiteRun(row sqlRow) (Run, error) {
	var (
		run            Run
		id, started    string
		durationNS     int64
		counts, tables string
	)
	err := row.Scan(&id, &run.FeedID, &run.Source, &started, &durationNS,
		&run.Rows, &run.ErrorCount, &counts, &tables, &run.Failure)
	if err != nil {
		return Run{}, err
	}
	if run.ID, err = uuid.Parse(id); err != nil {
		return Run{}, fmt.Errorf("parse run id: %w", err)
	}
	if run.Started, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return Run{}, fmt.Errorf("parse started_at: %w", err)
	}
	run.Duration = time.Duration(durationNS)
	if err := decodeRunJSON(&run, []byte(counts), []byte(tables)); err != nil {
		return Run{}, err
	}
	return run, nil
}

// GetRun implements Store.
func (s *SQLite) GetRun(ctx context.Context, id uuid.UUID) (Run, error) {
	run, err := scanSQLiteRun(s.db.QueryRowContext(ctx, selectRun+` WHERE id = ?`, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

// RecentRuns implements Store.
func (s *SQLite) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, selectRun+` ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		run, err := scanSQLiteRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ListErrors implements Store.
func (s *SQLite) ListErrors(ctx context.Context, id uuid.UUID, limit int) ([]feed.ValidationError, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT table_name, row_num, column_name, kind, value, min_value, max_value, actual_value
		FROM validation_errors
		WHERE run_id = ?
		ORDER BY seq
		LIMIT ?`, id.String(), errorLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list errors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []feed.ValidationError
	for rows.Next() {
		var (
			e           feed.ValidationError
			kind        string
			lo, hi, act sql.NullFloat64
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

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
