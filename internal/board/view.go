package board

import (
	"context"
	"fmt"
	"sort"

	boarderrors "github.com/randalmurphal/taskboard/internal/errors"
	"github.com/randalmurphal/taskboard/internal/project"
	"github.com/randalmurphal/taskboard/internal/task"
)

// Column is one status lane of a board in display order.
type Column struct {
	Status task.Status  `json:"status"`
	Tasks  []*task.Task `json:"tasks"`
}

// View is a project board: every status column, each ordered by position.
type View struct {
	Project *project.Project `json:"project"`
	Columns []Column         `json:"columns"`
}

// BuildView groups tasks into columns. Columns follow the workflow order and
// are always present, even when empty. Within a column tasks sort by order,
// ties broken by ID.
func BuildView(p *project.Project, tasks []*task.Task) View {
	byStatus := make(map[task.Status][]*task.Task, len(task.ValidStatuses()))
	for _, t := range tasks {
		byStatus[t.Status] = append(byStatus[t.Status], t)
	}

	v := View{Project: p}
	for _, s := range task.ValidStatuses() {
		col := byStatus[s]
		sort.SliceStable(col, func(i, j int) bool {
			if col[i].Order != col[j].Order {
				return col[i].Order < col[j].Order
			}
			return col[i].ID < col[j].ID
		})
		if col == nil {
			col = []*task.Task{}
		}
		v.Columns = append(v.Columns, Column{Status: s, Tasks: col})
	}
	return v
}

// Board loads the caller's view of a project.
func (c *Coordinator) Board(ctx context.Context, caller Caller, projectID string) (View, error) {
	if caller.TenantID == "" {
		return View{}, boarderrors.ErrUnauthenticated()
	}
	p, err := c.projects.GetProject(ctx, caller.TenantID, projectID)
	if err != nil {
		return View{}, boarderrors.Wrap(err, fmt.Sprintf("load project %s", projectID))
	}
	if p == nil {
		return View{}, boarderrors.ErrProjectNotFound(projectID)
	}
	tasks, err := c.tasks.ListProjectTasks(ctx, caller.TenantID, projectID)
	if err != nil {
		return View{}, boarderrors.Wrap(err, fmt.Sprintf("list tasks of project %s", projectID))
	}
	return BuildView(p, tasks), nil
}
