package reconcile

import (
	"sync"
	"time"
)

// Cache is the TTL-bounded cache for the remote-sourced slice of the bulk
// queries. It is a pure performance optimization: callers must stay correct
// with it disabled, so it stores only what a re-fetch would return.
type Cache struct {
	ttl   time.Duration
	clock func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	data      any
	fetchedAt time.Time
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithCacheClock sets the clock function for testability.
func WithCacheClock(clock func() time.Time) CacheOption {
	return func(c *Cache) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// NewCache builds a cache with the given TTL.
func NewCache(ttl time.Duration, opts ...CacheOption) *Cache {
	c := &Cache{
		ttl:     ttl,
		clock:   time.Now,
		entries: make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns a cached value younger than the TTL.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok || c.clock().Sub(entry.fetchedAt) >= c.ttl {
		return nil, false
	}
	return entry.data, true
}

// GetStale returns a cached value regardless of age. Used as a fallback when
// the remote service is unreachable: stale data beats no data.
func (c *Cache) GetStale(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return entry.data, true
}

// Put stores a freshly fetched value.
func (c *Cache) Put(key string, data any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{data: data, fetchedAt: c.clock()}
}

// Invalidate drops entries eagerly, called on local writes that affect the
// same query so the next read is no staler than the write itself.
func (c *Cache) Invalidate(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.entries, key)
	}
}
