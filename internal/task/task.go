package task

import (
	"slices"
	"time"
)

// InitialVersion is the version every task is created with.
const InitialVersion int64 = 1

// MaxReasonLength is the longest accepted transition justification, in characters.
const MaxReasonLength = 500

// Task is a card on a project board.
//
// Status, Order and ProgressPercent change only through a move; Version
// increments by exactly one on every committed mutation.
type Task struct {
	ID              string    `json:"id"`
	TenantID        string    `json:"tenant_id"`
	ProjectID       string    `json:"project_id"`
	Title           string    `json:"title"`
	Status          Status    `json:"status"`
	Version         int64     `json:"version"`
	Order           float64   `json:"order"`
	ProgressPercent float64   `json:"progress_percent"`
	Dependencies    []string  `json:"dependencies"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// New creates a backlog task at version 1.
func New(id, tenantID, projectID, title string) *Task {
	now := time.Now().UTC()
	return &Task{
		ID:           id,
		TenantID:     tenantID,
		ProjectID:    projectID,
		Title:        title,
		Status:       StatusBacklog,
		Version:      InitialVersion,
		Dependencies: []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Clone returns a deep copy.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	c.Dependencies = slices.Clone(t.Dependencies)
	if c.Dependencies == nil {
		c.Dependencies = []string{}
	}
	return &c
}

// IsTerminal returns true if the task sits in a column with no forward work.
func (t *Task) IsTerminal() bool {
	return t.Status == StatusDone || t.Status == StatusCanceled
}

// HasDependencies reports whether the task declares any dependency.
func (t *Task) HasDependencies() bool {
	return len(t.Dependencies) > 0
}
