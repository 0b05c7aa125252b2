// Package board coordinates task moves on a project board.
//
// A move changes a task's status, its position within a column, or both.
// The Coordinator runs every check in a fixed order, computes the new
// position and progress, and commits through a compare-and-swap on the
// task's version. Persistence, project lookup and event delivery are
// collaborators supplied by the caller.
package board

import (
	"context"
	"fmt"
	"time"

	"github.com/randalmurphal/taskboard/internal/events"
	"github.com/randalmurphal/taskboard/internal/order"
	"github.com/randalmurphal/taskboard/internal/project"
	"github.com/randalmurphal/taskboard/internal/task"
)

// Caller identifies who is asking. TenantID scopes every read and write.
type Caller struct {
	TenantID string
	ActorID  string
}

// MoveRequest is the client's intent for one task.
type MoveRequest struct {
	ToStatus string `json:"to_status"`
	// Version is the version the client last observed.
	Version  int64  `json:"version"`
	Reason   string `json:"reason,omitempty"`
	BeforeID string `json:"before_id,omitempty"`
	AfterID  string `json:"after_id,omitempty"`
}

// MoveCommit is everything a repository writes for one accepted move.
type MoveCommit struct {
	TaskID          string
	TenantID        string
	ExpectedVersion int64
	Status          task.Status
	Order           float64
	ProgressPercent float64
	UpdatedAt       time.Time
	// Rebalanced are sibling positions in the destination column that must
	// be written in the same transaction.
	Rebalanced []order.Sibling
	// RequireDone lists dependencies that must still be done when the
	// commit applies. Empty for moves into ungated columns.
	RequireDone []string
}

// StaleVersionError reports that the stored version moved on before the
// commit could apply.
type StaleVersionError struct {
	TaskID   string
	Expected int64
	Current  int64
}

func (e *StaleVersionError) Error() string {
	return fmt.Sprintf("task %s: expected version %d, stored version %d", e.TaskID, e.Expected, e.Current)
}

// PendingDependenciesError reports that a dependency left done between the
// gate check and the commit.
type PendingDependenciesError struct {
	TaskID  string
	Pending []string
}

func (e *PendingDependenciesError) Error() string {
	return fmt.Sprintf("task %s: dependencies not done at commit: %v", e.TaskID, e.Pending)
}

// TaskRepository is the persistence the coordinator needs.
type TaskRepository interface {
	// GetTask returns the task with id regardless of tenant, or nil when
	// it does not exist.
	GetTask(ctx context.Context, id string) (*task.Task, error)

	// ListProjectTasks returns every task of a project within the tenant.
	ListProjectTasks(ctx context.Context, tenantID, projectID string) ([]*task.Task, error)

	// ListColumn returns the positions of every task in one column.
	ListColumn(ctx context.Context, tenantID, projectID string, status task.Status) ([]order.Sibling, error)

	// DependencyStatuses resolves the status of each id within the tenant.
	// Ids that cannot be resolved are absent from the result.
	DependencyStatuses(ctx context.Context, tenantID string, ids []string) (map[string]task.Status, error)

	// CommitMove applies c atomically if the stored version still equals
	// c.ExpectedVersion, incrementing it by one, and every id in
	// c.RequireDone is still done. It returns the committed task, a
	// *StaleVersionError when the version check fails, or a
	// *PendingDependenciesError when a dependency is no longer done.
	CommitMove(ctx context.Context, c MoveCommit) (*task.Task, error)
}

// ProjectProvider reads the owning project of a task.
type ProjectProvider interface {
	// GetProject returns the project, or nil when it does not exist in the
	// tenant.
	GetProject(ctx context.Context, tenantID, id string) (*project.Project, error)
}

// EventSink receives exactly one event per committed move.
type EventSink interface {
	Publish(ctx context.Context, event events.Event) error
}

// Clock supplies commit timestamps.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock returns the wall clock in UTC.
var SystemClock Clock = ClockFunc(func() time.Time { return time.Now().UTC() })
