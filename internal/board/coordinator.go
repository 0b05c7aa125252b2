package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	boarderrors "github.com/randalmurphal/taskboard/internal/errors"
	"github.com/randalmurphal/taskboard/internal/events"
	"github.com/randalmurphal/taskboard/internal/order"
	"github.com/randalmurphal/taskboard/internal/task"
)

// Config wires a Coordinator.
type Config struct {
	Tasks    TaskRepository
	Projects ProjectProvider
	// Events receives committed moves. Nil discards them.
	Events EventSink
	// Clock defaults to SystemClock.
	Clock Clock
	// Order tunes position spacing; zero values take the defaults.
	Order  order.Options
	Logger *slog.Logger
}

// Coordinator executes moves. It holds no locks; concurrent moves of the
// same task are serialised only by the repository's compare-and-swap.
type Coordinator struct {
	tasks    TaskRepository
	projects ProjectProvider
	events   EventSink
	clock    Clock
	assigner *order.Assigner
	logger   *slog.Logger
}

// NewCoordinator creates a Coordinator. Tasks and Projects are required.
func NewCoordinator(cfg Config) (*Coordinator, error) {
	if cfg.Tasks == nil {
		return nil, fmt.Errorf("board: task repository is required")
	}
	if cfg.Projects == nil {
		return nil, fmt.Errorf("board: project provider is required")
	}
	c := &Coordinator{
		tasks:    cfg.Tasks,
		projects: cfg.Projects,
		events:   cfg.Events,
		clock:    cfg.Clock,
		assigner: order.NewAssigner(cfg.Order),
		logger:   cfg.Logger,
	}
	if c.events == nil {
		c.events = events.NopPublisher{}
	}
	if c.clock == nil {
		c.clock = SystemClock
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

// GetTask loads a task visible to the caller.
func (c *Coordinator) GetTask(ctx context.Context, caller Caller, id string) (*task.Task, error) {
	if caller.TenantID == "" {
		return nil, boarderrors.ErrUnauthenticated()
	}
	t, err := c.tasks.GetTask(ctx, id)
	if err != nil {
		return nil, boarderrors.Wrap(err, fmt.Sprintf("load task %s", id))
	}
	if t == nil {
		return nil, boarderrors.ErrTaskNotFound(id)
	}
	if t.TenantID != caller.TenantID {
		return nil, boarderrors.ErrForbidden(id)
	}
	return t, nil
}

// Move applies req to the task. Checks run in this order and the first
// failure wins: existence and tenant, request validation, project status,
// version, transition table, dependencies, reason, ordering hints. Nothing
// is written unless every check passes.
func (c *Coordinator) Move(ctx context.Context, caller Caller, taskID string, req MoveRequest) (*task.Task, error) {
	current, err := c.GetTask(ctx, caller, taskID)
	if err != nil {
		return nil, err
	}

	target, err := validateRequest(taskID, req)
	if err != nil {
		return nil, err
	}

	proj, err := c.projects.GetProject(ctx, current.TenantID, current.ProjectID)
	if err != nil {
		return nil, boarderrors.Wrap(err, fmt.Sprintf("load project %s", current.ProjectID))
	}
	if proj == nil {
		return nil, boarderrors.ErrProjectNotFound(current.ProjectID)
	}
	if !proj.CanMutate() {
		return nil, boarderrors.ErrProjectStatusRestricted(proj.ID, string(proj.Status))
	}

	if err := CheckVersion(taskID, current.Version, req.Version); err != nil {
		return nil, err
	}

	reorder := target == current.Status
	if !reorder {
		if err := c.checkTransition(ctx, current, target, req.Reason); err != nil {
			return nil, err
		}
	}

	newOrder := current.Order
	var rebalanced []order.Sibling
	if !reorder || req.BeforeID != "" || req.AfterID != "" {
		placement, err := c.place(ctx, current, target, req)
		if err != nil {
			return nil, err
		}
		newOrder, rebalanced = placement.Order, placement.Rebalanced
	}

	now := c.clock.Now()
	updated, err := c.tasks.CommitMove(ctx, MoveCommit{
		TaskID:          current.ID,
		TenantID:        current.TenantID,
		ExpectedVersion: req.Version,
		Status:          target,
		Order:           newOrder,
		ProgressPercent: task.ProjectProgress(target, current.ProgressPercent),
		UpdatedAt:       now,
		Rebalanced:      rebalanced,
		RequireDone:     gatedDependencies(current, target),
	})
	if err != nil {
		if rejection, ok := rejectionFromCommit(err); ok {
			return nil, rejection
		}
		return nil, boarderrors.Wrap(err, fmt.Sprintf("commit move of task %s", taskID))
	}

	c.logger.Debug("task moved",
		"task_id", updated.ID,
		"from", current.Status,
		"to", updated.Status,
		"version", updated.Version,
		"order", updated.Order,
		"rebalanced", len(rebalanced),
	)

	ev := events.NewMoveEvent(updated, current.Status, caller.ActorID, strings.TrimSpace(req.Reason), now)
	if err := c.events.Publish(ctx, ev); err != nil {
		c.logger.Warn("publish move event failed",
			"task_id", updated.ID,
			"event_id", ev.ID,
			"error", err,
		)
	}

	return updated, nil
}

func validateRequest(taskID string, req MoveRequest) (task.Status, error) {
	if strings.TrimSpace(req.ToStatus) == "" {
		return "", boarderrors.ErrValidation("to_status", "is required")
	}
	target, ok := task.ParseStatus(req.ToStatus)
	if !ok {
		return "", boarderrors.ErrValidation("to_status", fmt.Sprintf("unknown status %q", req.ToStatus))
	}
	if req.Version < task.InitialVersion {
		return "", boarderrors.ErrValidation("version", "must be at least 1")
	}
	if err := task.ValidateReason(req.Reason); err != nil {
		return "", boarderrors.ErrValidation("reason", fmt.Sprintf("must be at most %d characters", task.MaxReasonLength))
	}
	if req.BeforeID != "" && req.BeforeID == taskID {
		return "", boarderrors.ErrValidation("before_id", "task cannot be positioned relative to itself")
	}
	if req.AfterID != "" && req.AfterID == taskID {
		return "", boarderrors.ErrValidation("after_id", "task cannot be positioned relative to itself")
	}
	return target, nil
}

// checkTransition runs the table, dependency and reason checks for a
// column change.
func (c *Coordinator) checkTransition(ctx context.Context, current *task.Task, target task.Status, reason string) error {
	if !task.CanTransition(current.Status, target) {
		return boarderrors.ErrInvalidTransition(current.ID, string(current.Status), string(target),
			task.AllowedTargetStrings(current.Status))
	}

	if task.RequiresDependencies(target) && current.HasDependencies() {
		statuses, err := c.tasks.DependencyStatuses(ctx, current.TenantID, current.Dependencies)
		if err != nil {
			return boarderrors.Wrap(err, fmt.Sprintf("load dependencies of task %s", current.ID))
		}
		if pending := task.IncompleteDependencies(current.Dependencies, statuses); len(pending) > 0 {
			return boarderrors.ErrDependenciesIncomplete(current.ID, pending)
		}
	}

	if task.RequiresReason(current.Status, target) && !task.HasReason(reason) {
		return boarderrors.ErrReasonRequired(string(current.Status), string(target))
	}
	return nil
}

// gatedDependencies returns the dependencies the commit must re-check.
func gatedDependencies(current *task.Task, target task.Status) []string {
	if target == current.Status || !task.RequiresDependencies(target) {
		return nil
	}
	return current.Dependencies
}

func (c *Coordinator) place(ctx context.Context, current *task.Task, target task.Status, req MoveRequest) (order.Placement, error) {
	column, err := c.tasks.ListColumn(ctx, current.TenantID, current.ProjectID, target)
	if err != nil {
		return order.Placement{}, boarderrors.Wrap(err, fmt.Sprintf("load %s column", target))
	}

	siblings := column[:0:0]
	for _, s := range column {
		if s.ID != current.ID {
			siblings = append(siblings, s)
		}
	}

	placement, err := c.assigner.Place(current.ID, siblings, req.BeforeID, req.AfterID)
	if err != nil {
		var hint *order.HintError
		if errors.As(err, &hint) {
			return order.Placement{}, boarderrors.ErrValidation(hint.Field, hint.Err.Error()).WithCause(err)
		}
		return order.Placement{}, boarderrors.Wrap(err, "place task")
	}
	return placement, nil
}
