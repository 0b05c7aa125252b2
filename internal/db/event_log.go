package db

import (
	"context"
	"fmt"
	"slices"
	"time"
)

// TaskEvent is a persisted task move.
// Rows are append-only; the id is assigned by the publisher.
type TaskEvent struct {
	ID         string
	TenantID   string
	TaskID     string
	ProjectID  string
	Type       string
	FromStatus string
	ToStatus   string
	ActorID    string
	Reason     string
	Version    int64
	SortOrder  float64
	CreatedAt  time.Time
}

// QueryTaskEventsOptions filters the event log. TenantID is required.
type QueryTaskEventsOptions struct {
	TenantID  string
	TaskID    string
	ProjectID string
	// Limit keeps only the most recent events when positive.
	Limit int
}

// SaveTaskEvent appends an event. Saving the same id twice is a no-op.
func (d *DB) SaveTaskEvent(ctx context.Context, e *TaskEvent) error {
	_, err := d.ExecContext(ctx, `
		INSERT INTO task_events (id, tenant_id, task_id, project_id, type, from_status, to_status,
			actor_id, reason, version, sort_order, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`, e.ID, e.TenantID, e.TaskID, e.ProjectID, e.Type, e.FromStatus, e.ToStatus,
		e.ActorID, e.Reason, e.Version, e.SortOrder, formatTime(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("save task event %s: %w", e.ID, err)
	}
	return nil
}

// QueryTaskEvents returns matching events oldest first.
func (d *DB) QueryTaskEvents(ctx context.Context, opts QueryTaskEventsOptions) ([]TaskEvent, error) {
	query := `
		SELECT id, tenant_id, task_id, project_id, type, from_status, to_status,
			actor_id, reason, version, sort_order, created_at
		FROM task_events WHERE tenant_id = ?`
	args := []any{opts.TenantID}

	if opts.TaskID != "" {
		query += ` AND task_id = ?`
		args = append(args, opts.TaskID)
	}
	if opts.ProjectID != "" {
		query += ` AND project_id = ?`
		args = append(args, opts.ProjectID)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := d.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query task events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []TaskEvent
	for rows.Next() {
		var e TaskEvent
		var createdAt string
		if err := rows.Scan(&e.ID, &e.TenantID, &e.TaskID, &e.ProjectID, &e.Type, &e.FromStatus,
			&e.ToStatus, &e.ActorID, &e.Reason, &e.Version, &e.SortOrder, &createdAt); err != nil {
			return nil, fmt.Errorf("scan task event: %w", err)
		}
		if e.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate task events: %w", err)
	}

	slices.Reverse(events)
	return events, nil
}
