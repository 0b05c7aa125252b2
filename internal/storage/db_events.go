package storage

import (
	"context"

	"github.com/randalmurphal/taskboard/internal/db"
	"github.com/randalmurphal/taskboard/internal/events"
)

// AppendEvent records a move event in the audit log.
func (b *DatabaseBackend) AppendEvent(ctx context.Context, e events.Event) error {
	return b.db.SaveTaskEvent(ctx, eventToRow(e))
}

// ListEvents returns a task's events oldest first.
func (b *DatabaseBackend) ListEvents(ctx context.Context, tenantID, taskID string, limit int) ([]events.Event, error) {
	rows, err := b.db.QueryTaskEvents(ctx, db.QueryTaskEventsOptions{
		TenantID: tenantID,
		TaskID:   taskID,
		Limit:    limit,
	})
	if err != nil {
		return nil, err
	}
	out := make([]events.Event, 0, len(rows))
	for _, r := range rows {
		out = append(out, eventFromRow(r))
	}
	return out, nil
}
