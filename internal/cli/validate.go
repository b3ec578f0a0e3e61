package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/gtfsload/internal/feed"
	"github.com/JonMunkholm/gtfsload/internal/service"
)

type validateOptions struct {
	skipOnMissingColumns bool
	emptyIntZero         bool
	maxErrors            int
	timeout              time.Duration
}

func newValidateCommand(a *app) *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate <location>",
		Short: "Validate a GTFS feed",
		Long: `Load every table of the feed at location and report all validation errors.

Location is a .zip archive, a directory holding the .txt tables, or an
s3://bucket/key object. The exit status is 0 for a valid feed, 1 when
validation errors were found and 2 when the feed could not be loaded.`,
		Example: `  gtfscheck validate metro.zip
  gtfscheck validate ./feeds/metro --output json
  gtfscheck validate s3://feeds/metro.zip --history runs.db`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, a, opts, args[0])
		},
	}

	f := cmd.Flags()
	f.BoolVar(&opts.skipOnMissingColumns, "skip-on-missing-columns", false, "Skip a table whose header lacks a required column")
	f.BoolVar(&opts.emptyIntZero, "empty-int-zero", true, "Read blank optional integers as 0")
	f.IntVar(&opts.maxErrors, "max-errors", 50, "Errors listed in text output (0 lists all)")
	f.DurationVar(&opts.timeout, "timeout", 0, "Stop the load after this long (default: VALIDATION_TIMEOUT)")
	return cmd
}

func runValidate(cmd *cobra.Command, a *app, opts *validateOptions, location string) error {
	ctx := cmd.Context()

	cfg := service.ConfigFrom(a.cfg)
	cfg.MaxConcurrent = 1
	flags := cmd.Flags()
	if flags.Changed("skip-on-missing-columns") {
		cfg.SkipOnMissingColumns = opts.skipOnMissingColumns
	}
	if flags.Changed("empty-int-zero") {
		cfg.Policy = feed.Policy{BlankIntInvalid: !opts.emptyIntZero}
	}
	if flags.Changed("timeout") {
		cfg.Timeout = opts.timeout
	}

	history, err := a.openHistory(ctx)
	if err != nil {
		return err
	}
	if history != nil {
		defer history.Close()
	}

	s3, err := a.s3Client(ctx, location)
	if err != nil {
		return err
	}

	v := service.New(cfg, s3, history, nil)
	report, err := v.ValidateLocation(ctx, location)
	if report == nil {
		return err
	}

	if renderErr := renderReport(cmd.OutOrStdout(), a.output, report, opts.maxErrors); renderErr != nil {
		return renderErr
	}
	if err != nil {
		return loadFailure(err)
	}
	if !report.Valid() {
		return ErrInvalidFeed
	}
	return nil
}

// loadFailure prefixes err with its catalog message when one matches.
// Unrecognised errors are returned as they are.
func loadFailure(err error) error {
	if !feed.IsUserFacing(err) {
		return err
	}
	return fmt.Errorf("%s: %w", feed.FormatUserError(err), err)
}
