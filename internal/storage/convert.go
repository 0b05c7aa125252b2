package storage

import (
	"slices"

	"github.com/randalmurphal/taskboard/internal/db"
	"github.com/randalmurphal/taskboard/internal/events"
	"github.com/randalmurphal/taskboard/internal/project"
	"github.com/randalmurphal/taskboard/internal/task"
)

func taskFromRow(r *db.Task) *task.Task {
	if r == nil {
		return nil
	}
	deps := slices.Clone(r.Dependencies)
	if deps == nil {
		deps = []string{}
	}
	return &task.Task{
		ID:              r.ID,
		TenantID:        r.TenantID,
		ProjectID:       r.ProjectID,
		Title:           r.Title,
		Status:          task.Status(r.Status),
		Version:         r.Version,
		Order:           r.SortOrder,
		ProgressPercent: r.ProgressPercent,
		Dependencies:    deps,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func taskToRow(t *task.Task) *db.Task {
	return &db.Task{
		ID:              t.ID,
		TenantID:        t.TenantID,
		ProjectID:       t.ProjectID,
		Title:           t.Title,
		Status:          string(t.Status),
		Version:         t.Version,
		SortOrder:       t.Order,
		ProgressPercent: t.ProgressPercent,
		Dependencies:    slices.Clone(t.Dependencies),
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

func projectFromRow(r *db.Project) *project.Project {
	if r == nil {
		return nil
	}
	return &project.Project{
		ID:        r.ID,
		TenantID:  r.TenantID,
		Name:      r.Name,
		Status:    project.Status(r.Status),
		CreatedAt: r.CreatedAt,
	}
}

func projectToRow(p *project.Project) *db.Project {
	return &db.Project{
		ID:        p.ID,
		TenantID:  p.TenantID,
		Name:      p.Name,
		Status:    string(p.Status),
		CreatedAt: p.CreatedAt,
	}
}

func eventToRow(e events.Event) *db.TaskEvent {
	return &db.TaskEvent{
		ID:         e.ID,
		TenantID:   e.TenantID,
		TaskID:     e.TaskID,
		ProjectID:  e.ProjectID,
		Type:       string(e.Type),
		FromStatus: string(e.FromStatus),
		ToStatus:   string(e.ToStatus),
		ActorID:    e.ActorID,
		Reason:     e.Reason,
		Version:    e.Version,
		SortOrder:  e.Order,
		CreatedAt:  e.Time,
	}
}

func eventFromRow(r db.TaskEvent) events.Event {
	return events.Event{
		ID:         r.ID,
		Type:       events.EventType(r.Type),
		TenantID:   r.TenantID,
		TaskID:     r.TaskID,
		ProjectID:  r.ProjectID,
		FromStatus: task.Status(r.FromStatus),
		ToStatus:   task.Status(r.ToStatus),
		ActorID:    r.ActorID,
		Reason:     r.Reason,
		Version:    r.Version,
		Order:      r.SortOrder,
		Time:       r.CreatedAt,
	}
}
