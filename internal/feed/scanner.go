package feed

// scanner.go drives the load of one table: locate its file in the archive,
// read the header, check required columns, then hand every data row to the
// table's row callback.
//
// State machine:
//
//	NotStarted -> HeaderRead -> Scanning -> Completed
//	NotStarted -> SkippedOptional | MissingRequired
//	any        -> Failed (I/O, tokenizer, cancellation, callback error)
//
// Validation problems never stop a scan. Only Failed returns an error.

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
)

// DefaultProgressInterval is how many rows pass between progress log lines.
const DefaultProgressInterval = 500_000

// State is the position of a table scan in its lifecycle.
type State int

const (
	StateNotStarted State = iota
	StateHeaderRead
	StateScanning
	StateCompleted
	StateSkippedOptional
	StateMissingRequired
	StateFailed
)

var stateNames = [...]string{
	StateNotStarted:      "not_started",
	StateHeaderRead:      "header_read",
	StateScanning:        "scanning",
	StateCompleted:       "completed",
	StateSkippedOptional: "skipped_optional",
	StateMissingRequired: "missing_required",
	StateFailed:          "failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(b []byte) error {
	for i, name := range stateNames {
		if name == string(b) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown scan state %q", b)
}

// RowFunc builds one entity from the current row, or abstains. A returned
// error is treated as fatal and aborts the table; data problems belong in the
// sink via the Fields getters instead.
type RowFunc func(f *Fields) error

// Table describes one loadable table.
type Table struct {
	Name            string   // file name without ".txt"
	Required        bool     // absence is a MissingTable error
	RequiredColumns []string // absence from the header is a MissingColumn error
	LoadRow         RowFunc
}

// FileName returns the archive entry name for the table.
func (t Table) FileName() string {
	return t.Name + ".txt"
}

// Observer is notified when a table scan ends, whatever its outcome.
type Observer interface {
	TableScanned(result ScanResult)
}

// Options configures a Scanner.
type Options struct {
	Policy Policy

	// SkipOnMissingColumns stops a table after the header when any required
	// column is missing. By default rows are still scanned.
	SkipOnMissingColumns bool

	// ProgressInterval is the row count between progress logs; 0 uses
	// DefaultProgressInterval, negative disables progress logging.
	ProgressInterval int64

	Logger   *slog.Logger
	Observer Observer
}

// ScanResult summarizes one table scan.
type ScanResult struct {
	Table          string        `json:"table"`
	State          State         `json:"state"`
	Rows           int64         `json:"rows"`
	Bytes          int64         `json:"bytes"`
	MissingColumns bool          `json:"missing_columns,omitempty"`
	Duration       time.Duration `json:"duration_ns"`
}

// ScanError is a fatal failure while loading a table. Row is the data row
// being read when it happened, or 0 before the first row.
type ScanError struct {
	Table string
	Row   int64
	Err   error
}

func (e *ScanError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("load %s row %d: %v", e.Table, e.Row, e.Err)
	}
	return fmt.Sprintf("load %s: %v", e.Table, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// Scanner loads tables from an archive, reporting validation errors to a sink.
type Scanner struct {
	sink Sink
	opts Options
}

// NewScanner creates a scanner writing to sink.
func NewScanner(sink Sink, opts Options) *Scanner {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.ProgressInterval == 0 {
		opts.ProgressInterval = DefaultProgressInterval
	}
	return &Scanner{sink: sink, opts: opts}
}

// Scan loads table t from fsys.
func (s *Scanner) Scan(ctx context.Context, fsys fs.FS, t Table) (res ScanResult, err error) {
	start := time.Now()
	res = ScanResult{Table: t.Name, State: StateNotStarted}
	logger := s.opts.Logger.With("table", t.Name)

	defer func() {
		res.Duration = time.Since(start)
		if err != nil {
			res.State = StateFailed
		}
		if s.opts.Observer != nil {
			s.opts.Observer.TableScanned(res)
		}
	}()

	file, err := fsys.Open(t.FileName())
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return res, &ScanError{Table: t.Name, Err: err}
		}
		if t.Required {
			s.sink.Add(ValidationError{Kind: KindMissingTable, Table: t.Name})
			res.State = StateMissingRequired
			logger.Warn("required table is missing")
		} else {
			res.State = StateSkippedOptional
			logger.Info("optional table is missing, skipping")
		}
		return res, nil
	}
	defer file.Close()

	var size int64
	if info, statErr := file.Stat(); statErr == nil {
		size = info.Size()
	}
	counter := WrapForStreaming(file, size)
	defer func() { res.Bytes = counter.BytesRead() }()

	reader := csv.NewReader(counter)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	logger.Info("loading table", "file", t.FileName(), "size", humanize.Bytes(uint64(max(size, 0))))

	header, err := reader.Read()
	if err != nil && !errors.Is(err, io.EOF) {
		return res, &ScanError{Table: t.Name, Err: fmt.Errorf("read header: %w", err)}
	}
	headerIdx := MakeHeaderIndex(header)
	res.State = StateHeaderRead

	res.MissingColumns = CheckRequiredColumns(s.sink, t.Name, headerIdx, t.RequiredColumns)
	if res.MissingColumns && s.opts.SkipOnMissingColumns {
		logger.Warn("required columns missing, skipping rows")
		res.State = StateCompleted
		return res, nil
	}

	res.State = StateScanning
	row := &Row{header: headerIdx}
	fields := NewFields(t.Name, row, s.sink, s.opts.Policy)

	for {
		record, readErr := reader.Read()
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return res, &ScanError{Table: t.Name, Row: res.Rows + 1, Err: readErr}
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, &ScanError{Table: t.Name, Row: res.Rows + 1, Err: ctxErr}
		}

		res.Rows++
		row.Num = res.Rows
		row.record = record

		if s.opts.ProgressInterval > 0 && res.Rows%s.opts.ProgressInterval == 0 {
			logger.Info("loading table",
				"rows", humanize.Comma(res.Rows),
				"bytes", humanize.Bytes(uint64(counter.BytesRead())),
				"progress_pct", counter.Progress(),
			)
		}

		if t.LoadRow == nil {
			continue
		}
		if cbErr := t.LoadRow(fields); cbErr != nil {
			return res, &ScanError{Table: t.Name, Row: res.Rows, Err: cbErr}
		}
	}

	res.State = StateCompleted
	logger.Info("table loaded", "rows", humanize.Comma(res.Rows), "duration", time.Since(start).Round(time.Millisecond))
	return res, nil
}
