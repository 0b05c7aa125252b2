// Package storage provides the persistence backend for the task board.
//
// The backend satisfies the collaborator interfaces of the board package
// and the events package, converting between database rows and domain
// types. The database itself is the only synchronisation point: moves are
// serialised by a version compare-and-swap inside a transaction.
package storage

import (
	"context"

	"github.com/randalmurphal/taskboard/internal/board"
	"github.com/randalmurphal/taskboard/internal/events"
	"github.com/randalmurphal/taskboard/internal/project"
	"github.com/randalmurphal/taskboard/internal/task"
)

// Backend is everything the server and CLI need from storage.
type Backend interface {
	board.TaskRepository
	board.ProjectProvider
	events.Store

	// SaveProject inserts or updates a project.
	SaveProject(ctx context.Context, p *project.Project) error
	// ListProjects returns the tenant's projects ordered by id.
	ListProjects(ctx context.Context, tenantID string) ([]*project.Project, error)

	// CreateTask inserts a task at the end of its column and returns it as
	// stored.
	CreateTask(ctx context.Context, t *task.Task) (*task.Task, error)

	// ListEvents returns a task's persisted events oldest first, keeping only
	// the most recent limit when limit is positive.
	ListEvents(ctx context.Context, tenantID, taskID string, limit int) ([]events.Event, error)

	// Ping verifies the database is reachable.
	Ping(ctx context.Context) error

	Close() error
}

var (
	_ Backend               = (*DatabaseBackend)(nil)
	_ board.TaskRepository  = (*DatabaseBackend)(nil)
	_ board.ProjectProvider = (*DatabaseBackend)(nil)
	_ events.Store          = (*DatabaseBackend)(nil)
)
