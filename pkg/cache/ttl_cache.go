// Package cache provides a small generic in-memory cache with a TTL.
//
// It fronts aggregate queries that are read far more often than they
// change (rating summaries, public stats). Writers invalidate with Delete;
// a background goroutine evicts expired entries.
package cache

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache is safe for concurrent use.
type TTLCache[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]entry[V]
	ttl     time.Duration
	now     func() time.Time
	flight  singleflight.Group
	// gen changes on every invalidation. A load that started under an older
	// gen returns its value but does not store it.
	gen uint64

	stopCleanup chan struct{}
	closeOnce   sync.Once
}

// New creates a cache whose entries live for ttl. Expired entries are swept
// every cleanupInterval.
func New[K comparable, V any](ttl, cleanupInterval time.Duration) *TTLCache[K, V] {
	c := &TTLCache[K, V]{
		entries:     make(map[K]entry[V]),
		ttl:         ttl,
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}

	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.evictExpired()
			case <-c.stopCleanup:
				return
			}
		}
	}()

	return c
}

// Get returns the cached value for key if it has not expired.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || c.now().After(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key for one TTL.
func (c *TTLCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[V]{value: value, expiresAt: c.now().Add(c.ttl)}
}

// GetOrLoad returns the cached value or calls load and caches its result.
// Concurrent misses for the same key share one load call. A load that
// overlaps an invalidation is not cached. Errors are returned as-is and
// nothing is cached.
func (c *TTLCache[K, V]) GetOrLoad(key K, load func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	c.mu.RLock()
	gen := c.gen
	c.mu.RUnlock()

	res, err, _ := c.flight.Do(fmt.Sprintf("%d/%v", gen, key), func() (any, error) {
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		v, err := load()
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.gen == gen {
			c.entries[key] = entry[V]{value: v, expiresAt: c.now().Add(c.ttl)}
		}
		c.mu.Unlock()
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}

// Delete drops key.
func (c *TTLCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	c.gen++
}

// DeleteFunc drops every key for which predicate returns true.
func (c *TTLCache[K, V]) DeleteFunc(predicate func(key K) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.entries {
		if predicate(key) {
			delete(c.entries, key)
		}
	}
	c.gen++
}

// Clear drops everything.
func (c *TTLCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[K]entry[V])
	c.gen++
}

// Len counts stored entries, expired ones included until the next sweep.
func (c *TTLCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (c *TTLCache[K, V]) Close() {
	c.closeOnce.Do(func() { close(c.stopCleanup) })
}

func (c *TTLCache[K, V]) evictExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}
