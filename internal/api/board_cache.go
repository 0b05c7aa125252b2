package api

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/randalmurphal/taskboard/internal/board"
	"github.com/randalmurphal/taskboard/internal/events"
)

// boardLoader renders one project board for a caller.
type boardLoader func(ctx context.Context, caller board.Caller, projectID string) (board.View, error)

// boardCache provides a TTL-based cache of rendered boards keyed by tenant
// and project, with singleflight coalescing so concurrent requests for the
// same board share a single load. Errors are never cached.
type boardCache struct {
	mu      sync.RWMutex
	entries map[string]boardEntry
	ttl     time.Duration
	group   singleflight.Group
	load    boardLoader
	now     func() time.Time
}

type boardEntry struct {
	view     board.View
	loadedAt time.Time
}

// newBoardCache creates a cache. A zero ttl disables caching but keeps
// request coalescing.
func newBoardCache(load boardLoader, ttl time.Duration) *boardCache {
	return &boardCache{
		entries: make(map[string]boardEntry),
		ttl:     ttl,
		load:    load,
		now:     time.Now,
	}
}

func cacheKey(tenantID, projectID string) string {
	return tenantID + "\x00" + projectID
}

// Get returns the cached board or loads it.
func (c *boardCache) Get(ctx context.Context, caller board.Caller, projectID string) (board.View, error) {
	key := cacheKey(caller.TenantID, projectID)
	if v, ok := c.lookup(key); ok {
		return v, nil
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		if v, ok := c.lookup(key); ok {
			return v, nil
		}

		// The load is shared; one caller going away must not fail the others.
		view, err := c.load(context.WithoutCancel(ctx), caller, projectID)
		if err != nil {
			return nil, err
		}

		if c.ttl > 0 {
			c.mu.Lock()
			c.entries[key] = boardEntry{view: view, loadedAt: c.now()}
			c.mu.Unlock()
		}
		return view, nil
	})
	if err != nil {
		return board.View{}, err
	}
	return result.(board.View), nil
}

func (c *boardCache) lookup(key string) (board.View, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || c.now().Sub(e.loadedAt) >= c.ttl {
		return board.View{}, false
	}
	return e.view, true
}

// Invalidate drops the cached board of one project.
func (c *boardCache) Invalidate(tenantID, projectID string) {
	key := cacheKey(tenantID, projectID)
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	c.group.Forget(key)
}

// Len returns the number of cached boards.
func (c *boardCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// watch invalidates boards as move events arrive until events is closed.
func (c *boardCache) watch(evs <-chan events.Event) {
	for e := range evs {
		c.Invalidate(e.TenantID, e.ProjectID)
	}
}
