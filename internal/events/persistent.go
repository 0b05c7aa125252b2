package events

import (
	"context"
	"fmt"
	"log/slog"
)

// Store appends events to the audit log.
type Store interface {
	AppendEvent(ctx context.Context, event Event) error
}

// PersistentPublisher wraps MemoryPublisher and records every event in a
// Store. Live subscribers are served first so a slow or failing database
// never delays the board UI.
type PersistentPublisher struct {
	inner  *MemoryPublisher
	store  Store
	logger *slog.Logger
}

// NewPersistentPublisher creates a publisher that fans out in memory and
// appends to store. A nil store disables persistence.
func NewPersistentPublisher(store Store, logger *slog.Logger, opts ...PublisherOption) *PersistentPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &PersistentPublisher{
		inner:  NewMemoryPublisher(opts...),
		store:  store,
		logger: logger,
	}
}

// Publish broadcasts the event and then persists it. The returned error
// reports a persistence failure; subscribers have already been notified.
func (p *PersistentPublisher) Publish(ctx context.Context, event Event) error {
	_ = p.inner.Publish(ctx, event)

	if p.store == nil {
		return nil
	}
	if err := p.store.AppendEvent(ctx, event); err != nil {
		p.logger.Error("persist event failed",
			"event_id", event.ID,
			"task_id", event.TaskID,
			"type", event.Type,
			"error", err,
		)
		return fmt.Errorf("persist event %s: %w", event.ID, err)
	}
	return nil
}

// Subscribe returns a channel that receives events for the tenant.
func (p *PersistentPublisher) Subscribe(tenantID string) <-chan Event {
	return p.inner.Subscribe(tenantID)
}

// Unsubscribe removes a subscription channel.
func (p *PersistentPublisher) Unsubscribe(tenantID string, ch <-chan Event) {
	p.inner.Unsubscribe(tenantID, ch)
}

// Close shuts down all subscriptions.
func (p *PersistentPublisher) Close() {
	p.inner.Close()
}
