// Package events provides the task move event and its publishing
// infrastructure: in-memory fan-out to live subscribers and an audit log
// persisted alongside the board.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/randalmurphal/taskboard/internal/task"
)

// EventType defines the type of event.
type EventType string

const (
	// EventStatusChanged indicates a committed move between columns.
	EventStatusChanged EventType = "status_changed"
	// EventReordered indicates a committed move within the same column.
	EventReordered EventType = "reordered"
)

// Event describes one committed move. It is emitted exactly once per commit
// and never for a rejected move.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	TenantID   string      `json:"tenant_id"`
	TaskID     string      `json:"task_id"`
	ProjectID  string      `json:"project_id"`
	FromStatus task.Status `json:"from_status"`
	ToStatus   task.Status `json:"to_status"`
	ActorID    string      `json:"actor_id"`
	Reason     string      `json:"reason,omitempty"`
	Version    int64       `json:"version"`
	Order      float64     `json:"order"`
	Time       time.Time   `json:"time"`
}

// NewMoveEvent builds the event for a task that moved from one status to the
// task's current state. updated must be the task as committed.
func NewMoveEvent(updated *task.Task, from task.Status, actorID, reason string, at time.Time) Event {
	typ := EventStatusChanged
	if from == updated.Status {
		typ = EventReordered
	}
	return Event{
		ID:         newID(),
		Type:       typ,
		TenantID:   updated.TenantID,
		TaskID:     updated.ID,
		ProjectID:  updated.ProjectID,
		FromStatus: from,
		ToStatus:   updated.Status,
		ActorID:    actorID,
		Reason:     reason,
		Version:    updated.Version,
		Order:      updated.Order,
		Time:       at.UTC(),
	}
}

// newID returns a time-ordered identifier so the audit log sorts naturally.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
