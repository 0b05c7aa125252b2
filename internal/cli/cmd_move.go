package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/taskboard/internal/board"
)

// newMoveCmd creates the move command
func newMoveCmd() *cobra.Command {
	var (
		tenant, actor     string
		toStatus          string
		version           int64
		reason            string
		beforeID, afterID string
	)

	cmd := &cobra.Command{
		Use:   "move <task-id>",
		Short: "Move a task to another column or position",
		Long: `Move a task through the same checks the API applies.

--version must be the version you last saw; a stale version is rejected
as a conflict. Use --before/--after to place the task next to a sibling
in the destination column, otherwise it goes to the end.

Examples:
  taskboard move T-1 --tenant acme --to in_progress --version 1
  taskboard move T-1 --tenant acme --to blocked --version 2 --reason "waiting on vendor"
  taskboard move T-2 --tenant acme --to backlog --version 1 --before T-1`,
		Args: cobra.ExactArgs(1),
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

			req := board.MoveRequest{
				ToStatus: toStatus,
				Version:  version,
				Reason:   reason,
				BeforeID: beforeID,
				AfterID:  afterID,
			}
			caller := board.Caller{TenantID: tenant, ActorID: actor}
			updated, err := coord.Move(cmd.Context(), caller, args[0], req)
			if err != nil {
				return err
			}

			if jsonOut {
				return printJSON(cmd.OutOrStdout(), updated)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (version %d, order %g, progress %.0f%%)\n",
				updated.ID, updated.Status, updated.Version, updated.Order, updated.ProgressPercent)
			return nil
		},
	}

	addCallerFlags(cmd, &tenant, &actor)
	cmd.Flags().StringVar(&toStatus, "to", "", "destination status (required)")
	cmd.Flags().Int64Var(&version, "version", 0, "version you last observed (required)")
	cmd.Flags().StringVar(&reason, "reason", "", "justification, required for some transitions")
	cmd.Flags().StringVar(&beforeID, "before", "", "place immediately before this task")
	cmd.Flags().StringVar(&afterID, "after", "", "place immediately after this task")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("version")
	addDatabaseFlags(cmd)

	return cmd
}
