package cli

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/randalmurphal/taskboard/internal/project"
	"github.com/randalmurphal/taskboard/internal/storage"
	"github.com/randalmurphal/taskboard/internal/task"
)

// seedTask describes one demo card. Dependencies refer to earlier entries
// by index.
type seedTask struct {
	title  string
	status task.Status
	deps   []int
}

var demoTasks = []seedTask{
	{title: "Draft schema", status: task.StatusDone},
	{title: "Build move endpoint", status: task.StatusInProgress, deps: []int{0}},
	{title: "Board UI", status: task.StatusBacklog, deps: []int{1}},
	{title: "Load test", status: task.StatusBacklog, deps: []int{1}},
	{title: "Vendor SSO", status: task.StatusBlocked},
	{title: "Legacy export", status: task.StatusCanceled},
}

// newSeedCmd creates the seed command
func newSeedCmd() *cobra.Command {
	var tenant, projectID, name string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a demo project with tasks",
		Long: `Create a demo project with a handful of tasks spread over every column,
including dependencies, so the board and the move rules can be tried out.

Seeding refuses to touch a project that already has tasks.

Examples:
  taskboard seed
  taskboard seed --tenant acme --project launch --name "Launch"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, backend, _, err := openBackend(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = backend.Close() }()

			ids, err := seedDemo(cmd.Context(), backend, tenant, projectID, name)
			if err != nil {
				return err
			}

			if jsonOut {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"tenant_id":  tenant,
					"project_id": projectID,
					"task_ids":   ids,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded project %s for tenant %s with %d tasks\n", projectID, tenant, len(ids))
			fmt.Fprintf(cmd.OutOrStdout(), "Try: taskboard board %s --tenant %s\n", projectID, tenant)
			return nil
		},
	}

	cmd.Flags().StringVarP(&tenant, "tenant", "t", "demo", "tenant to seed")
	cmd.Flags().StringVar(&projectID, "project", "demo", "project id")
	cmd.Flags().StringVar(&name, "name", "Demo board", "project name")
	addDatabaseFlags(cmd)

	return cmd
}

// seedDemo creates the demo project and its tasks, returning the task ids in
// creation order.
func seedDemo(ctx context.Context, backend storage.Backend, tenant, projectID, name string) ([]string, error) {
	existing, err := backend.ListProjectTasks(ctx, tenant, projectID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, fmt.Errorf("project %s already has %d tasks", projectID, len(existing))
	}

	if err := backend.SaveProject(ctx, &project.Project{
		ID:       projectID,
		TenantID: tenant,
		Name:     name,
		Status:   project.StatusActive,
	}); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(demoTasks))
	for _, st := range demoTasks {
		t := task.New(uuid.NewString(), tenant, projectID, st.title)
		t.Status = st.status
		for _, i := range st.deps {
			t.Dependencies = append(t.Dependencies, ids[i])
		}
		created, err := backend.CreateTask(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("seed %q: %w", st.title, err)
		}
		ids = append(ids, created.ID)
	}
	return ids, nil
}
