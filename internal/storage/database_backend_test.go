package storage

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/taskboard/internal/board"
	"github.com/randalmurphal/taskboard/internal/config"
	boarderrors "github.com/randalmurphal/taskboard/internal/errors"
	"github.com/randalmurphal/taskboard/internal/events"
	"github.com/randalmurphal/taskboard/internal/order"
	"github.com/randalmurphal/taskboard/internal/project"
	"github.com/randalmurphal/taskboard/internal/task"
)

const tenant = "acme"

var t0 = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

func seedBoard(t *testing.T, b *DatabaseBackend, projectStatus project.Status) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, b.SaveProject(ctx, &project.Project{
		ID: "P-1", TenantID: tenant, Name: "Launch", Status: projectStatus, CreatedAt: t0,
	}))
}

func createTask(t *testing.T, b *DatabaseBackend, id string, status task.Status, deps ...string) *task.Task {
	t.Helper()
	tk := task.New(id, tenant, "P-1", "Task "+id)
	tk.Status = status
	if deps != nil {
		tk.Dependencies = deps
	}
	created, err := b.CreateTask(context.Background(), tk)
	require.NoError(t, err)
	return created
}

func TestCreateTask_AppendsToColumn(t *testing.T) {
	t.Parallel()
	b := NewTestBackend(t)
	seedBoard(t, b, project.StatusActive)

	a := createTask(t, b, "A", task.StatusBacklog)
	bb := createTask(t, b, "B", task.StatusBacklog)
	d := createTask(t, b, "D", task.StatusDone)

	assert.Equal(t, order.DefaultSpacing, a.Order)
	assert.Equal(t, 2*order.DefaultSpacing, bb.Order)
	assert.Equal(t, order.DefaultSpacing, d.Order, "each column is spaced independently")
	assert.Equal(t, 100.0, d.ProgressPercent, "done tasks start complete")
	assert.Equal(t, task.InitialVersion, a.Version)

	got, err := b.GetTask(context.Background(), "B")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, bb.Order, got.Order)
	assert.Equal(t, []string{}, got.Dependencies)
}

func TestCreateTask_Invalid(t *testing.T) {
	t.Parallel()
	b := NewTestBackend(t)
	seedBoard(t, b, project.StatusActive)

	tk := task.New("A", tenant, "P-1", "self")
	tk.Dependencies = []string{"A"}
	_, err := b.CreateTask(context.Background(), tk)
	require.Error(t, err)

	var verrs task.ValidationErrors
	assert.True(t, errors.As(err, &verrs))
}

func TestCreateTask_CustomSpacing(t *testing.T) {
	t.Parallel()
	b := NewTestBackend(t, WithOrderOptions(order.Options{Spacing: 10, MinGap: 0.5}))
	seedBoard(t, b, project.StatusActive)

	createTask(t, b, "A", task.StatusBacklog)
	second := createTask(t, b, "B", task.StatusBacklog)
	assert.Equal(t, 20.0, second.Order)
}

func TestGetTask_Missing(t *testing.T) {
	t.Parallel()
	b := NewTestBackend(t)
	got, err := b.GetTask(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDependencyStatuses(t *testing.T) {
	t.Parallel()
	b := NewTestBackend(t)
	seedBoard(t, b, project.StatusActive)
	createTask(t, b, "A", task.StatusDone)
	createTask(t, b, "B", task.StatusBlocked)

	got, err := b.DependencyStatuses(context.Background(), tenant, []string{"A", "B", "ghost"})
	require.NoError(t, err)
	assert.Equal(t, map[string]task.Status{"A": task.StatusDone, "B": task.StatusBlocked}, got)

	foreign, err := b.DependencyStatuses(context.Background(), "other", []string{"A"})
	require.NoError(t, err)
	assert.Empty(t, foreign)
}

func TestCommitMove_CompareAndSwap(t *testing.T) {
	t.Parallel()
	b := NewTestBackend(t)
	seedBoard(t, b, project.StatusActive)
	createTask(t, b, "A", task.StatusBacklog)
	ctx := context.Background()

	commit := board.MoveCommit{
		TaskID: "A", TenantID: tenant, ExpectedVersion: 1,
		Status: task.StatusInProgress, Order: 1024, ProgressPercent: 0, UpdatedAt: t0.Add(time.Hour),
	}
	updated, err := b.CommitMove(ctx, commit)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, task.StatusInProgress, updated.Status)
	assert.True(t, updated.UpdatedAt.Equal(t0.Add(time.Hour)))

	// the same expected version again is stale
	_, err = b.CommitMove(ctx, commit)
	var stale *board.StaleVersionError
	require.ErrorAs(t, err, &stale)
	assert.Equal(t, int64(1), stale.Expected)
	assert.Equal(t, int64(2), stale.Current)

	stored, err := b.GetTask(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.Version, "failed commit must not change the row")
}

func TestCommitMove_WrongTenantIsNotStale(t *testing.T) {
	t.Parallel()
	b := NewTestBackend(t)
	seedBoard(t, b, project.StatusActive)
	createTask(t, b, "A", task.StatusBacklog)

	_, err := b.CommitMove(context.Background(), board.MoveCommit{
		TaskID: "A", TenantID: "intruder", ExpectedVersion: 1, Status: task.StatusInProgress, UpdatedAt: t0,
	})
	require.Error(t, err)
	var stale *board.StaleVersionError
	assert.False(t, errors.As(err, &stale))
}

func TestCommitMove_RebalanceIsAtomic(t *testing.T) {
	t.Parallel()
	b := NewTestBackend(t)
	seedBoard(t, b, project.StatusActive)
	createTask(t, b, "A", task.StatusBacklog)
	createTask(t, b, "B", task.StatusBacklog)
	createTask(t, b, "X", task.StatusInProgress)
	ctx := context.Background()

	commit := board.MoveCommit{
		TaskID: "X", TenantID: tenant, ExpectedVersion: 1,
		Status: task.StatusBacklog, Order: 2048, UpdatedAt: t0,
		Rebalanced: []order.Sibling{{ID: "B", Order: 3072}},
	}
	_, err := b.CommitMove(ctx, commit)
	require.NoError(t, err)

	col, err := b.ListColumn(ctx, tenant, "P-1", task.StatusBacklog)
	require.NoError(t, err)
	require.Len(t, col, 3)
	assert.Equal(t, []string{"A", "X", "B"}, []string{col[0].ID, col[1].ID, col[2].ID})

	sibling, err := b.GetTask(ctx, "B")
	require.NoError(t, err)
	assert.Equal(t, int64(1), sibling.Version, "repositioned siblings keep their version")

	// a stale commit must not apply its rebalance either
	_, err = b.CommitMove(ctx, board.MoveCommit{
		TaskID: "X", TenantID: tenant, ExpectedVersion: 1,
		Status: task.StatusBacklog, Order: 1, UpdatedAt: t0,
		Rebalanced: []order.Sibling{{ID: "A", Order: 9999}},
	})
	require.Error(t, err)
	a, err := b.GetTask(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, order.DefaultSpacing, a.Order)
}

func TestCommitMove_RechecksDependencies(t *testing.T) {
	t.Parallel()
	b := NewTestBackend(t)
	seedBoard(t, b, project.StatusActive)
	createTask(t, b, "D", task.StatusInProgress)
	createTask(t, b, "A", task.StatusBacklog, "D")
	ctx := context.Background()

	_, err := b.CommitMove(ctx, board.MoveCommit{
		TaskID: "A", TenantID: tenant, ExpectedVersion: 1,
		Status: task.StatusInProgress, Order: 1024, UpdatedAt: t0,
		RequireDone: []string{"D"},
	})
	var pending *board.PendingDependenciesError
	require.ErrorAs(t, err, &pending)
	assert.Equal(t, []string{"D"}, pending.Pending)

	stored, err := b.GetTask(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, task.StatusBacklog, stored.Status)
	assert.Equal(t, int64(1), stored.Version, "rejected commit must roll back the version bump")
}

func TestCreateTask_FailedInsertKeepsColumn(t *testing.T) {
	t.Parallel()
	b := NewTestBackend(t)
	seedBoard(t, b, project.StatusActive)
	createTask(t, b, "A", task.StatusBacklog)
	createTask(t, b, "Z", task.StatusDone)
	ctx := context.Background()

	// No room left above A: the next append renormalises the column.
	_, err := b.CommitMove(ctx, board.MoveCommit{
		TaskID: "A", TenantID: tenant, ExpectedVersion: 1,
		Status: task.StatusBacklog, Order: math.MaxFloat64, UpdatedAt: t0,
	})
	require.NoError(t, err)

	// Z already exists, so the insert fails after the rebalance was planned.
	_, err = b.CreateTask(ctx, task.New("Z", tenant, "P-1", "duplicate"))
	require.Error(t, err)

	a, err := b.GetTask(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, math.MaxFloat64, a.Order)
}

func TestEvents_AppendAndList(t *testing.T) {
	t.Parallel()
	b := NewTestBackend(t)
	ctx := context.Background()

	tk := task.New("A", tenant, "P-1", "A")
	tk.Version = 2
	tk.Status = task.StatusInProgress
	first := events.NewMoveEvent(tk, task.StatusBacklog, "alice", "starting", t0)
	tk.Version = 3
	second := events.NewMoveEvent(tk, task.StatusInProgress, "alice", "", t0.Add(time.Second))

	require.NoError(t, b.AppendEvent(ctx, first))
	require.NoError(t, b.AppendEvent(ctx, second))
	require.NoError(t, b.AppendEvent(ctx, first), "re-appending is idempotent")

	got, err := b.ListEvents(ctx, tenant, "A", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, first.ID, got[0].ID)
	assert.Equal(t, events.EventStatusChanged, got[0].Type)
	assert.Equal(t, "starting", got[0].Reason)
	assert.Equal(t, events.EventReordered, got[1].Type)
	assert.True(t, got[1].Time.Equal(second.Time))

	foreign, err := b.ListEvents(ctx, "other", "A", 0)
	require.NoError(t, err)
	assert.Empty(t, foreign)
}

func TestProjects(t *testing.T) {
	t.Parallel()
	b := NewTestBackend(t)
	ctx := context.Background()

	require.Error(t, b.SaveProject(ctx, &project.Project{ID: "P-1", TenantID: tenant, Status: "paused"}))
	require.Error(t, b.SaveProject(ctx, &project.Project{ID: "", TenantID: tenant, Status: project.StatusActive}))

	require.NoError(t, b.SaveProject(ctx, &project.Project{ID: "P-1", TenantID: tenant, Status: project.StatusArchived}))
	p, err := b.GetProject(ctx, tenant, "P-1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.False(t, p.CanMutate())
	assert.False(t, p.CreatedAt.IsZero())

	missing, err := b.GetProject(ctx, "other", "P-1")
	require.NoError(t, err)
	assert.Nil(t, missing)

	list, err := b.ListProjects(ctx, tenant)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func newCoordinator(t *testing.T, b *DatabaseBackend, publisher events.Publisher) *board.Coordinator {
	t.Helper()
	c, err := board.NewCoordinator(board.Config{
		Tasks:    b,
		Projects: b,
		Events:   publisher,
		Clock:    board.ClockFunc(func() time.Time { return t0 }),
	})
	require.NoError(t, err)
	return c
}

func TestCoordinator_EndToEnd(t *testing.T) {
	t.Parallel()
	b := NewTestBackend(t)
	seedBoard(t, b, project.StatusActive)
	createTask(t, b, "dep", task.StatusInProgress)
	createTask(t, b, "A", task.StatusBacklog, "dep")
	createTask(t, b, "B", task.StatusInProgress)

	pub := events.NewPersistentPublisher(b, nil)
	defer pub.Close()
	c := newCoordinator(t, b, pub)
	ctx := context.Background()
	caller := board.Caller{TenantID: tenant, ActorID: "alice"}

	// A cannot start while dep is still in progress
	_, err := c.Move(ctx, caller, "A", board.MoveRequest{ToStatus: "in_progress", Version: 1})
	be := boarderrors.AsBoardError(err)
	require.NotNil(t, be)
	assert.Equal(t, boarderrors.CodeDependenciesIncomplete, be.Code)

	_, err = c.Move(ctx, caller, "dep", board.MoveRequest{ToStatus: "done", Version: 1})
	require.NoError(t, err)

	// start A in front of B
	moved, err := c.Move(ctx, caller, "A", board.MoveRequest{ToStatus: "in_progress", Version: 1, BeforeID: "B"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), moved.Version)

	col, err := b.ListColumn(ctx, tenant, "P-1", task.StatusInProgress)
	require.NoError(t, err)
	ids := make([]string, 0, len(col))
	for _, s := range order.Sorted(col) {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"A", "B"}, ids)

	done, err := c.Move(ctx, caller, "A", board.MoveRequest{ToStatus: "done", Version: 2})
	require.NoError(t, err)
	assert.Equal(t, 100.0, done.ProgressPercent)

	// stale client version
	_, err = c.Move(ctx, caller, "A", board.MoveRequest{ToStatus: "in_progress", Version: 2, Reason: "reopen"})
	be = boarderrors.AsBoardError(err)
	require.NotNil(t, be)
	assert.Equal(t, boarderrors.CodeConflict, be.Code)

	history, err := b.ListEvents(ctx, tenant, "A", 0)
	require.NoError(t, err)
	require.Len(t, history, 2, "one event per committed move, none for rejections")
	assert.Equal(t, task.StatusBacklog, history[0].FromStatus)
	assert.Equal(t, task.StatusDone, history[1].ToStatus)
}

func TestCoordinator_ConcurrentMovesOneWinner(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Database.SQLite.Path = filepath.Join(t.TempDir(), "board.db")
	b, err := NewBackend(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	seedBoard(t, b, project.StatusActive)
	createTask(t, b, "A", task.StatusBacklog)
	c := newCoordinator(t, b, events.NopPublisher{})

	const movers = 6
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	targets := []string{"in_progress", "canceled"}
	for i := 0; i < movers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := c.Move(context.Background(), board.Caller{TenantID: tenant}, "A", board.MoveRequest{
				ToStatus: targets[i%2], Version: 1, Reason: "race",
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				wins++
				return
			}
			if be := boarderrors.AsBoardError(err); be != nil && be.Code == boarderrors.CodeConflict {
				conflicts++
				return
			}
			t.Errorf("unexpected error: %v", err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, movers-1, conflicts)

	final, err := b.GetTask(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, int64(2), final.Version)
}

func TestNewBackend_UnknownDriver(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Driver = "oracle"
	_, err := NewBackend(context.Background(), cfg, nil)
	require.Error(t, err)
}
