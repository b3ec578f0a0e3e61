// Package cli implements the gtfscheck command line tool.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/gtfsload/internal/config"
	"github.com/JonMunkholm/gtfsload/internal/logging"
	"github.com/JonMunkholm/gtfsload/internal/source"
	"github.com/JonMunkholm/gtfsload/internal/store"
)

// Version is set at build time.
var Version = "dev"

// ErrInvalidFeed is returned by validate when the feed has errors. The
// report has already been printed, so callers only set the exit status.
var ErrInvalidFeed = errors.New("feed has validation errors")

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// app carries state shared by subcommands.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	output  string
	history string
	verbose bool
	envFile string
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "gtfscheck",
		Short: "Validate GTFS feeds",
		Long: `gtfscheck loads every table of a GTFS feed and reports every problem it finds:
empty required fields, unparsable numbers and times, out of range values,
missing columns and tables, and references to records that do not exist.

Feeds may be zip archives, unpacked directories or s3://bucket/key objects.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			return a.setup(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.output, "output", "o", FormatText, "Output format (text|json|csv)")
	pf.StringVar(&a.history, "history", "", "SQLite file recording runs (default: no history)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "Log progress at debug level")
	pf.StringVar(&a.envFile, "env-file", "", "Load settings from this .env file")

	_ = root.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{FormatText, FormatJSON, FormatCSV}, cobra.ShellCompDirectiveNoFileComp
	})

	root.AddCommand(newValidateCommand(a))
	root.AddCommand(newHistoryCommand(a))
	root.AddCommand(newTablesCommand(a))
	return root
}

// setup loads the environment configuration and the logger. Flags override
// the environment.
func (a *app) setup(cmd *cobra.Command) error {
	switch a.output {
	case FormatText, FormatJSON, FormatCSV:
	default:
		return fmt.Errorf("unknown output format %q (want text, json or csv)", a.output)
	}

	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.Logging.Level
	if a.verbose {
		level = "debug"
	}
	a.logger = logging.New(cmd.ErrOrStderr(), level, cfg.Logging.Format)
	cmd.SetContext(logging.WithLogger(cmd.Context(), a.logger))
	return nil
}

// openHistory opens the --history database, or returns nil without one.
func (a *app) openHistory(ctx context.Context) (store.Store, error) {
	if a.history == "" {
		return nil, nil
	}
	st, err := store.OpenSQLite(ctx, a.history)
	if err != nil {
		return nil, err
	}
	return st, nil
}

// s3Client builds an S3 client when the location needs one.
func (a *app) s3Client(ctx context.Context, location string) (source.ObjectGetter, error) {
	if !strings.HasPrefix(location, "s3://") {
		return nil, nil
	}
	st := a.cfg.Storage
	client, err := source.NewS3Client(ctx, source.S3Config{
		Region:          st.Region,
		Endpoint:        st.Endpoint,
		AccessKeyID:     st.AccessKeyID,
		SecretAccessKey: st.SecretAccessKey,
		PathStyle:       st.PathStyle,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrInvalidFeed):
		return 1
	default:
		_, _ = fmt.Fprintln(stderr, "Error:", err)
		return 2
	}
}
