// Package cache provides a small in-memory TTL cache with a capacity cap,
// used to memoize answer and instant-answer responses.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value V
	time  time.Time
}

// Cache is a capped TTL cache. Expired entries are dropped lazily on Get and
// in bulk by Sweep; when full, Set evicts the oldest-inserted entry.
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[string]entry[V]
	order   []string
	maxSize int
	ttl     time.Duration

	now func() time.Time
}

// New creates a cache holding at most maxSize entries for at most ttl each.
func New[V any](maxSize int, ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		entries: make(map[string]entry[V]),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached value for key, if present and unexpired.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if c.now().Sub(e.time) > c.ttl {
		c.remove(key)
		return zero, false
	}
	return e.value, true
}

// Set stores a value, evicting the oldest entry when the cache is full.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		if len(c.entries) >= c.maxSize && len(c.order) > 0 {
			c.remove(c.order[0])
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = entry[V]{value: value, time: c.now()}
}

// Sweep drops every expired entry and returns how many were removed.
func (c *Cache[V]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, e := range c.entries {
		if now.Sub(e.time) > c.ttl {
			c.remove(key)
			removed++
		}
	}
	return removed
}

// Len returns the number of entries currently stored, expired or not.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear empties the cache.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry[V])
	c.order = c.order[:0]
}

// remove must be called with the lock held.
func (c *Cache[V]) remove(key string) {
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
