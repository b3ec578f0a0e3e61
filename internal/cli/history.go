package cli

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newHistoryCommand(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded validation runs",
		Long: `List the newest runs recorded with --history, or the stored errors of one run.`,
		Example: `  gtfscheck history --history runs.db
  gtfscheck history 5f1c0e9e-3a4b-4c1d-9a57-0d6c1e2b7f10 --history runs.db -o csv`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.history == "" {
				return errors.New("--history is required")
			}
			ctx := cmd.Context()
			st, err := a.openHistory(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			if len(args) == 0 {
				runs, err := st.RecentRuns(ctx, limit)
				if err != nil {
					return err
				}
				return renderRuns(cmd.OutOrStdout(), a.output, runs)
			}

			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid run id %q", args[0])
			}
			run, err := st.GetRun(ctx, id)
			if err != nil {
				return fmt.Errorf("run %s: %w", id, err)
			}
			errs, err := st.ListErrors(ctx, id, limit)
			if err != nil {
				return err
			}
			return renderRunErrors(cmd.OutOrStdout(), a.output, run, errs)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs or errors to show")
	return cmd
}

func newTablesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the GTFS tables that are loaded",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return renderTables(cmd.OutOrStdout(), a.output)
		},
	}
}
