package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/randalmurphal/taskboard/internal/board"
	"github.com/randalmurphal/taskboard/internal/db"
	"github.com/randalmurphal/taskboard/internal/order"
	"github.com/randalmurphal/taskboard/internal/task"
)

// GetTask returns the task regardless of tenant, or nil when missing.
func (b *DatabaseBackend) GetTask(ctx context.Context, id string) (*task.Task, error) {
	row, err := b.db.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	return taskFromRow(row), nil
}

// ListProjectTasks returns every task of a project within the tenant.
func (b *DatabaseBackend) ListProjectTasks(ctx context.Context, tenantID, projectID string) ([]*task.Task, error) {
	rows, err := b.db.ListProjectTasks(ctx, tenantID, projectID)
	if err != nil {
		return nil, err
	}
	tasks := make([]*task.Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, taskFromRow(r))
	}
	return tasks, nil
}

// ListColumn returns the positions of every task in one column.
func (b *DatabaseBackend) ListColumn(ctx context.Context, tenantID, projectID string, status task.Status) ([]order.Sibling, error) {
	entries, err := b.db.ListColumn(ctx, tenantID, projectID, string(status))
	if err != nil {
		return nil, err
	}
	siblings := make([]order.Sibling, 0, len(entries))
	for _, e := range entries {
		siblings = append(siblings, order.Sibling{ID: e.ID, Order: e.SortOrder})
	}
	return siblings, nil
}

// DependencyStatuses resolves the status of each id within the tenant.
func (b *DatabaseBackend) DependencyStatuses(ctx context.Context, tenantID string, ids []string) (map[string]task.Status, error) {
	raw, err := b.db.TaskStatuses(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	statuses := make(map[string]task.Status, len(raw))
	for id, s := range raw {
		statuses[id] = task.Status(s)
	}
	return statuses, nil
}

// CommitMove writes the move and any sibling repositioning in one
// transaction. The task row is updated only if its version still equals
// c.ExpectedVersion; otherwise nothing is written and a
// *board.StaleVersionError is returned. Dependencies in c.RequireDone are
// re-read inside the same transaction.
func (b *DatabaseBackend) CommitMove(ctx context.Context, c board.MoveCommit) (*task.Task, error) {
	var committed *db.Task

	err := b.db.RunInTx(ctx, func(tx *db.Tx) error {
		applied, err := db.MoveTaskTx(ctx, tx, db.TaskMove{
			ID:              c.TaskID,
			TenantID:        c.TenantID,
			ExpectedVersion: c.ExpectedVersion,
			Status:          string(c.Status),
			SortOrder:       c.Order,
			ProgressPercent: c.ProgressPercent,
			UpdatedAt:       c.UpdatedAt,
		})
		if err != nil {
			return err
		}
		if !applied {
			current, found, err := db.TaskVersionTx(ctx, tx, c.TenantID, c.TaskID)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("commit move: task %s not found", c.TaskID)
			}
			return &board.StaleVersionError{TaskID: c.TaskID, Expected: c.ExpectedVersion, Current: current}
		}

		if len(c.RequireDone) > 0 {
			raw, err := db.TaskStatusesTx(ctx, tx, c.TenantID, c.RequireDone)
			if err != nil {
				return err
			}
			statuses := make(map[string]task.Status, len(raw))
			for id, st := range raw {
				statuses[id] = task.Status(st)
			}
			if pending := task.IncompleteDependencies(c.RequireDone, statuses); len(pending) > 0 {
				return &board.PendingDependenciesError{TaskID: c.TaskID, Pending: pending}
			}
		}

		t, err := db.GetTaskTx(ctx, tx, c.TaskID)
		if err != nil {
			return err
		}
		if t == nil {
			return fmt.Errorf("commit move: task %s vanished", c.TaskID)
		}

		for _, s := range c.Rebalanced {
			moved, err := db.SetSortOrderTx(ctx, tx, c.TenantID, t.ProjectID, string(c.Status), s.ID, s.Order)
			if err != nil {
				return err
			}
			if !moved {
				b.logger.Debug("rebalance skipped sibling no longer in column",
					"task", c.TaskID, "sibling", s.ID, "status", c.Status)
			}
		}

		committed = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return taskFromRow(committed), nil
}

// CreateTask validates t and inserts it at the end of its column at
// version 1. Progress is projected from the starting status. Any column
// renormalisation is written in the same transaction as the insert.
func (b *DatabaseBackend) CreateTask(ctx context.Context, t *task.Task) (*task.Task, error) {
	t = t.Clone()
	t.Version = task.InitialVersion
	t.ProgressPercent = task.ProjectProgress(t.Status, t.ProgressPercent)
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}
	if errs := t.Validate(); errs.HasErrors() {
		return nil, fmt.Errorf("invalid task: %w", errs)
	}

	column, err := b.ListColumn(ctx, t.TenantID, t.ProjectID, t.Status)
	if err != nil {
		return nil, err
	}
	placement, err := b.assigner.Place(t.ID, column, "", "")
	if err != nil {
		return nil, fmt.Errorf("place task %s: %w", t.ID, err)
	}
	t.Order = placement.Order

	err = b.db.RunInTx(ctx, func(tx *db.Tx) error {
		for _, s := range placement.Rebalanced {
			if _, err := db.SetSortOrderTx(ctx, tx, t.TenantID, t.ProjectID, string(t.Status), s.ID, s.Order); err != nil {
				return err
			}
		}
		return db.CreateTaskTx(ctx, tx, taskToRow(t))
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}
