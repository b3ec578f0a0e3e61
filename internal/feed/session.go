package feed

import (
	"context"
	"io/fs"
	"time"

	"github.com/google/uuid"
)

// Report is the outcome of a load session.
type Report struct {
	RunID    uuid.UUID         `json:"run_id"`
	FeedID   string            `json:"feed_id"`
	Started  time.Time         `json:"started"`
	Duration time.Duration     `json:"duration_ns"`
	Tables   []ScanResult      `json:"tables"`
	Errors   []ValidationError `json:"errors"`
	Counts   map[string]int    `json:"counts"`
	Failure  string            `json:"failure,omitempty"`
}

// Valid reports whether the load finished without validation errors or a
// fatal failure.
func (r *Report) Valid() bool {
	return r.Failure == "" && len(r.Errors) == 0
}

// Rows returns the total data rows scanned across tables.
func (r *Report) Rows() int64 {
	var n int64
	for _, t := range r.Tables {
		n += t.Rows
	}
	return n
}

// Table returns the scan result for name.
func (r *Report) Table(name string) (ScanResult, bool) {
	for _, t := range r.Tables {
		if t.Table == name {
			return t, true
		}
	}
	return ScanResult{}, false
}

// Session loads a sequence of tables into one shared error list. A Session
// is single use.
type Session struct {
	RunID   uuid.UUID
	FeedID  string
	Errors  *ErrorList
	scanner *Scanner
}

// NewSession creates a session with a fresh run id. extra sinks, if any,
// receive every error alongside the session's list.
func NewSession(feedID string, opts Options, extra ...Sink) *Session {
	errs := NewErrorList()
	var sink Sink = errs
	if len(extra) > 0 {
		sinks := append([]Sink{errs}, extra...)
		sink = SinkFunc(func(e ValidationError) {
			for _, s := range sinks {
				s.Add(e)
			}
		})
	}
	return &Session{
		RunID:   uuid.New(),
		FeedID:  feedID,
		Errors:  errs,
		scanner: NewScanner(sink, opts),
	}
}

// Sink returns the sink table loaders should report to directly, for checks
// made outside a row callback.
func (s *Session) Sink() Sink {
	return s.scanner.sink
}

// Run scans tables in order. It stops at the first fatal error and returns
// the partial report together with that error.
func (s *Session) Run(ctx context.Context, fsys fs.FS, tables ...Table) (*Report, error) {
	report := &Report{
		RunID:   s.RunID,
		FeedID:  s.FeedID,
		Started: time.Now().UTC(),
	}

	var runErr error
	for _, t := range tables {
		res, err := s.scanner.Scan(ctx, fsys, t)
		report.Tables = append(report.Tables, res)
		if err != nil {
			runErr = err
			report.Failure = err.Error()
			break
		}
	}

	report.Duration = time.Since(report.Started)
	report.Errors = s.Errors.Errors()
	report.Counts = make(map[string]int)
	for k, n := range s.Errors.CountsByKind() {
		report.Counts[k.String()] = n
	}
	return report, runErr
}
