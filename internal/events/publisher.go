package events

import (
	"context"
	"sync"
)

// AllTenants is the special tenant ID for subscribing to every event.
// Subscribers to this ID receive events for all tenants.
const AllTenants = "*"

// Publisher defines the interface for event publishing.
type Publisher interface {
	// Publish delivers an event to all subscribers of its tenant.
	Publish(ctx context.Context, event Event) error
	// Subscribe returns a channel that receives events for the tenant.
	// Use AllTenants ("*") to receive every event.
	Subscribe(tenantID string) <-chan Event
	// Unsubscribe removes a subscription channel.
	Unsubscribe(tenantID string, ch <-chan Event)
	// Close shuts down the publisher and all subscriptions.
	Close()
}

// MemoryPublisher is an in-memory implementation of Publisher.
type MemoryPublisher struct {
	subscribers map[string][]chan Event
	mu          sync.RWMutex
	bufferSize  int
	closed      bool
}

// PublisherOption configures a MemoryPublisher.
type PublisherOption func(*MemoryPublisher)

// WithBufferSize sets the channel buffer size for subscribers.
func WithBufferSize(size int) PublisherOption {
	return func(p *MemoryPublisher) {
		if size > 0 {
			p.bufferSize = size
		}
	}
}

// NewMemoryPublisher creates a new in-memory publisher.
func NewMemoryPublisher(opts ...PublisherOption) *MemoryPublisher {
	p := &MemoryPublisher{
		subscribers: make(map[string][]chan Event),
		bufferSize:  100,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish sends an event to the tenant's subscribers and to AllTenants
// subscribers. Non-blocking: subscribers with full buffers miss the event.
func (p *MemoryPublisher) Publish(_ context.Context, event Event) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil
	}

	deliver(p.subscribers[event.TenantID], event)
	if event.TenantID != AllTenants {
		deliver(p.subscribers[AllTenants], event)
	}
	return nil
}

func deliver(subs []chan Event, event Event) {
	for _, ch := range subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribe returns a channel that receives events for the tenant.
func (p *MemoryPublisher) Subscribe(tenantID string) <-chan Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, p.bufferSize)
	p.subscribers[tenantID] = append(p.subscribers[tenantID], ch)
	return ch
}

// Unsubscribe removes and closes a subscription channel.
func (p *MemoryPublisher) Unsubscribe(tenantID string, ch <-chan Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	subs := p.subscribers[tenantID]
	for i, sub := range subs {
		if sub == ch {
			p.subscribers[tenantID] = append(subs[:i], subs[i+1:]...)
			close(sub)
			break
		}
	}
	if len(p.subscribers[tenantID]) == 0 {
		delete(p.subscribers, tenantID)
	}
}

// Close shuts down the publisher and closes all subscription channels.
func (p *MemoryPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true

	for tenantID, subs := range p.subscribers {
		for _, ch := range subs {
			close(ch)
		}
		delete(p.subscribers, tenantID)
	}
}

// SubscriberCount returns the number of subscribers for a tenant.
func (p *MemoryPublisher) SubscriberCount(tenantID string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subscribers[tenantID])
}

// NopPublisher discards events. Used when nothing listens, e.g. CLI moves.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func (NopPublisher) Subscribe(string) <-chan Event {
	ch := make(chan Event)
	close(ch)
	return ch
}

func (NopPublisher) Unsubscribe(string, <-chan Event) {}

func (NopPublisher) Close() {}
