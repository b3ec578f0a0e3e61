// Package store persists validation runs and their errors.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/gtfsload/internal/feed"
)

// ErrNotFound is returned when a run id is unknown.
var ErrNotFound = errors.New("run not found")

// DefaultErrorLimit caps ListErrors when the caller passes limit <= 0.
const DefaultErrorLimit = 1000

// Run is the stored summary of one validation.
type Run struct {
	ID         uuid.UUID         `json:"id"`
	FeedID     string            `json:"feed_id"`
	Source     string            `json:"source"`
	Started    time.Time         `json:"started"`
	Duration   time.Duration     `json:"duration_ns"`
	Rows       int64             `json:"rows"`
	ErrorCount int               `json:"error_count"`
	Counts     map[string]int    `json:"counts"`
	Tables     []feed.ScanResult `json:"tables"`
	Failure    string            `json:"failure,omitempty"`
}

// Valid reports whether the run finished without errors.
func (r Run) Valid() bool {
	return r.Failure == "" && r.ErrorCount == 0
}

// RunFromReport summarizes a load report. source records where the archive
// came from.
func RunFromReport(rep *feed.Report, source string) Run {
	return Run{
		ID:         rep.RunID,
		FeedID:     rep.FeedID,
		Source:     source,
		Started:    rep.Started,
		Duration:   rep.Duration,
		Rows:       rep.Rows(),
		ErrorCount: len(rep.Errors),
		Counts:     rep.Counts,
		Tables:     rep.Tables,
		Failure:    rep.Failure,
	}
}

// Store persists runs. Implementations are safe for concurrent use.
type Store interface {
	// SaveRun stores run and its errors atomically.
	SaveRun(ctx context.Context, run Run, errs []feed.ValidationError) error
	// GetRun returns ErrNotFound for an unknown id.
	GetRun(ctx context.Context, id uuid.UUID) (Run, error)
	// ListErrors returns up to limit errors of a run in the order they were saved.
	ListErrors(ctx context.Context, id uuid.UUID, limit int) ([]feed.ValidationError, error)
	// RecentRuns returns the newest runs first.
	RecentRuns(ctx context.Context, limit int) ([]Run, error)
	Close() error
}

func errorLimit(limit int) int {
	if limit <= 0 {
		return DefaultErrorLimit
	}
	return limit
}

// rangeBounds returns min, max and actual only for range errors; other kinds
// store them as NULL.
func rangeBounds(e feed.ValidationError) (lo, hi, actual *float64) {
	if e.Kind != feed.KindRange {
		return nil, nil, nil
	}
	return &e.Min, &e.Max, &e.Actual
}
