// Package service runs feed validations for the HTTP server: it bounds
// concurrency, applies a timeout, records metrics and persists each run.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/gtfsload/internal/config"
	"github.com/JonMunkholm/gtfsload/internal/feed"
	"github.com/JonMunkholm/gtfsload/internal/gtfs"
	"github.com/JonMunkholm/gtfsload/internal/logging"
	"github.com/JonMunkholm/gtfsload/internal/metrics"
	"github.com/JonMunkholm/gtfsload/internal/source"
	"github.com/JonMunkholm/gtfsload/internal/store"
)

// ErrHistoryDisabled is returned by history lookups when no store is set.
var ErrHistoryDisabled = errors.New("run history is not configured")

// persistTimeout bounds saving a run after the load itself has finished.
const persistTimeout = 30 * time.Second

// Config tunes validations.
type Config struct {
	Policy               feed.Policy
	SkipOnMissingColumns bool
	ProgressInterval     int64
	Timeout              time.Duration // 0 means no limit beyond the caller's ctx
	MaxConcurrent        int
	MaxWaitTime          time.Duration
	MaxArchiveSize       int64
	StoreErrorLimit      int // errors persisted per run, 0 keeps all
}

// ConfigFrom builds a Config from the application configuration.
func ConfigFrom(c *config.Config) Config {
	return Config{
		Policy:               feed.Policy{BlankIntInvalid: !c.Load.EmptyIntMeansZero},
		SkipOnMissingColumns: c.Load.SkipOnMissingColumns,
		ProgressInterval:     c.Load.ProgressInterval,
		Timeout:              c.Validation.Timeout,
		MaxConcurrent:        c.Validation.MaxConcurrent,
		MaxWaitTime:          c.Validation.MaxWaitTime,
		MaxArchiveSize:       c.Load.MaxArchiveSize,
		StoreErrorLimit:      c.Database.ErrorLimit,
	}
}

// Validator validates feeds. It is safe for concurrent use.
type Validator struct {
	cfg     Config
	limiter *Limiter
	opener  *source.Opener
	store   store.Store      // nil disables history
	metrics *metrics.Metrics // nil disables metrics
}

// New creates a Validator. s3 may be nil when s3:// locations are not used.
func New(cfg Config, s3 source.ObjectGetter, st store.Store, m *metrics.Metrics) *Validator {
	return &Validator{
		cfg:     cfg,
		limiter: NewLimiter(cfg.MaxConcurrent, cfg.MaxWaitTime),
		opener:  &source.Opener{MaxSize: cfg.MaxArchiveSize, S3: s3},
		store:   st,
		metrics: m,
	}
}

// ValidateLocation validates the archive at location (local path or s3://).
func (v *Validator) ValidateLocation(ctx context.Context, location string) (*feed.Report, error) {
	archive, err := v.opener.Open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer archive.Close()
	return v.ValidateArchive(ctx, archive, location)
}

// ValidateUpload validates an uploaded zip read from data.
func (v *Validator) ValidateUpload(ctx context.Context, name string, data []byte) (*feed.Report, error) {
	archive, err := source.FromReader(name, bytes.NewReader(data), v.cfg.MaxArchiveSize)
	if err != nil {
		return nil, err
	}
	return v.ValidateArchive(ctx, archive, "upload:"+name)
}

// ValidateArchive loads every GTFS table from archive and returns the report.
//
// A non-nil error means the load stopped on a fatal failure; the partial
// report is still returned and persisted. ErrTooManyValidations and context
// errors are returned without a report when no slot could be taken.
func (v *Validator) ValidateArchive(ctx context.Context, archive *source.Archive, origin string) (*feed.Report, error) {
	if err := v.limiter.Acquire(ctx); err != nil {
		v.metrics.Rejected()
		return nil, err
	}
	defer v.limiter.Release()

	logger := logging.WithFields(ctx, "feed", archive.Name, "source", origin)
	done := v.metrics.Started()

	loadCtx := ctx
	if v.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		loadCtx, cancel = context.WithTimeout(ctx, v.cfg.Timeout)
		defer cancel()
	}

	opts := feed.Options{
		Policy:               v.cfg.Policy,
		SkipOnMissingColumns: v.cfg.SkipOnMissingColumns,
		ProgressInterval:     v.cfg.ProgressInterval,
		Logger:               logger,
		Observer:             v.metrics,
	}

	var extra []feed.Sink
	if v.metrics != nil {
		extra = append(extra, v.metrics)
	}

	report, loadErr := gtfs.New(archive.Name).Load(loadCtx, archive, opts, extra...)

	outcome := metrics.OutcomeValid
	switch {
	case loadErr != nil:
		outcome = metrics.OutcomeFailed
	case !report.Valid():
		outcome = metrics.OutcomeInvalid
	}
	done(outcome)

	logger.Info("validation finished",
		"run_id", report.RunID,
		"outcome", outcome,
		"rows", report.Rows(),
		"errors", len(report.Errors),
		"duration", report.Duration,
	)

	if err := v.persist(ctx, report, origin); err != nil {
		// The report is still useful to the caller.
		logger.Error("failed to persist run", "run_id", report.RunID, "error", err)
	}

	if loadErr != nil {
		return report, fmt.Errorf("validate %s: %w", archive.Name, loadErr)
	}
	return report, nil
}

func (v *Validator) persist(ctx context.Context, report *feed.Report, origin string) error {
	if v.store == nil {
		return nil
	}
	// Save even when the request was cancelled mid-load.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	sorted := make([]feed.ValidationError, len(report.Errors))
	copy(sorted, report.Errors)
	feed.SortErrors(sorted)
	if n := v.cfg.StoreErrorLimit; n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}

	return v.store.SaveRun(ctx, store.RunFromReport(report, origin), sorted)
}

// Run returns a stored run.
func (v *Validator) Run(ctx context.Context, id uuid.UUID) (store.Run, error) {
	if v.store == nil {
		return store.Run{}, ErrHistoryDisabled
	}
	return v.store.GetRun(ctx, id)
}

// RunErrors returns up to limit stored errors of a run.
func (v *Validator) RunErrors(ctx context.Context, id uuid.UUID, limit int) ([]feed.ValidationError, error) {
	if v.store == nil {
		return nil, ErrHistoryDisabled
	}
	if _, err := v.store.GetRun(ctx, id); err != nil {
		return nil, err
	}
	return v.store.ListErrors(ctx, id, limit)
}

// RecentRuns returns the newest stored runs.
func (v *Validator) RecentRuns(ctx context.Context, limit int) ([]store.Run, error) {
	if v.store == nil {
		return nil, ErrHistoryDisabled
	}
	return v.store.RecentRuns(ctx, limit)
}

// Status reports limiter occupancy.
func (v *Validator) Status() LimiterStatus {
	return v.limiter.Status()
}

// Shutdown waits for in-flight validations to finish.
func (v *Validator) Shutdown(ctx context.Context) error {
	return v.limiter.WaitForDrain(ctx)
}
