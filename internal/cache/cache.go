// Package cache provides a bounded in-memory TTL cache.
//
// There is no background cleanup goroutine: expired entries are dropped
// on read, and the oldest entry is evicted when an insert would exceed
// the size bound. The clock is injected so expiry is testable.
package cache

import (
	"sync"
	"time"
)

// Clock returns the current time. time.Now in production.
type Clock func() time.Time

// Cache is a bounded TTL cache keyed by K. Safe for concurrent use.
type Cache[K comparable, V any] struct {
	mu         sync.Mutex
	entries    map[K]entry[V]
	order      []K // insertion order, oldest first
	maxEntries int
	defaultTTL time.Duration
	now        Clock
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// New creates a cache holding at most maxEntries values, each expiring
// defaultTTL after insertion. A nil clock defaults to time.Now.
func New[K comparable, V any](maxEntries int, defaultTTL time.Duration, now Clock) *Cache[K, V] {
	if maxEntries < 1 {
		maxEntries = 1
	}
	if now == nil {
		now = time.Now
	}
	return &Cache[K, V]{
		entries:    make(map[K]entry[V]),
		maxEntries: maxEntries,
		defaultTTL: defaultTTL,
		now:        now,
	}
}

// Get returns the cached value for key, or false if absent or expired.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if c.now().After(e.expiresAt) {
		c.removeLocked(key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key with the default TTL.
func (c *Cache[K, V]) Set(key K, value V) {
	c.SetTTL(key, value, c.defaultTTL)
}

// SetTTL stores value under key with an explicit TTL, evicting the
// oldest entry if the cache is full.
func (c *Cache[K, V]) SetTTL(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.removeLocked(key)
	}
	for len(c.entries) >= c.maxEntries && len(c.order) > 0 {
		c.removeLocked(c.order[0])
	}

	c.entries[key] = entry[V]{
		value:     value,
		expiresAt: c.now().Add(ttl),
	}
	c.order = append(c.order, key)
}

// Delete removes key from the cache.
func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(key)
}

// Len returns the number of entries, including any not yet swept that
// have expired.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// removeLocked deletes key from both the map and the order slice.
// Must be called with the lock held.
func (c *Cache[K, V]) removeLocked(key K) {
	if _, ok := c.entries[key]; !ok {
		return
	}
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
