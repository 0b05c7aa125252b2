package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/taskboard/internal/task"
)

// newTransitionsCmd creates the transitions command
func newTransitionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transitions",
		Short: "Show the workflow's legal moves",
		RunE: func(cmd *cobra.Command, args []string) error {
			table := task.Table()
			if jsonOut {
				return printJSON(cmd.OutOrStdout(), table)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "FROM\tTO\tREASON\tDEPENDENCIES")
			for _, tr := range table {
				reason, deps := "", ""
				if tr.ReasonRequired {
					reason = "required"
				}
				if task.RequiresDependencies(tr.To) {
					deps = "must be done"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", tr.From, tr.To, reason, deps)
			}
			return tw.Flush()
		},
	}
}
