package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/taskboard/internal/board"
	"github.com/randalmurphal/taskboard/internal/events"
)

// newHistoryCmd creates the history command
func newHistoryCmd() *cobra.Command {
	var tenant string
	var limit int

	cmd := &cobra.Command{
		Use:   "history <task-id>",
		Short: "Show the move history of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, backend, logger, err := openBackend(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = backend.Close() }()

			coord, pub, err := newCoordinator(cfg, backend, logger)
			if err != nil {
				return err
			}
			defer pub.Close()

			// Tenant and existence checks.
			t, err := coord.GetTask(cmd.Context(), board.Caller{TenantID: tenant}, args[0])
			if err != nil {
				return err
			}
			history, err := backend.ListEvents(cmd.Context(), tenant, t.ID, limit)
			if err != nil {
				return err
			}
			if history == nil {
				history = []events.Event{}
			}

			if jsonOut {
				return printJSON(cmd.OutOrStdout(), history)
			}
			if len(history) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%s has not moved yet\n", t.ID)
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tFROM\tTO\tVERSION\tACTOR\tREASON")
			for _, e := range history {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
					e.Time.Format("2006-01-02 15:04:05"), e.FromStatus, e.ToStatus, e.Version, e.ActorID, e.Reason)
			}
			return tw.Flush()
		},
	}

	addCallerFlags(cmd, &tenant, nil)
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "maximum number of events, newest kept")
	addDatabaseFlags(cmd)

	return cmd
}
