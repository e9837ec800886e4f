// Package cache is a small TTL wrapper over an LRU, used for per-case comment lists.
package cache

import (
	"fmt"
	lru "github.com/hashicorp/golang-lru/v2"
	"sync"
	"time"
)

type item[V any] struct {
	data      V
	expiresAt time.Time
}

// Cache holds at most size entries; each one expires ttl after it was set.
type Cache[V any] struct {
	lru *lru.Cache[string, item[V]]
	ttl time.Duration
	now func() time.Time

	mu  sync.Mutex
	seq uint64
	// deleted remembers the seq of recent deletes. Evicting one raises
	// floor, so a version older than any forgotten delete is refused.
	deleted *lru.Cache[string, uint64]
	floor   uint64
}

func New[V any](size int, ttl time.Duration) (*Cache[V], error) {
	l, err := lru.New[string, item[V]](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}
	c := &Cache[V]{lru: l, ttl: ttl, now: time.Now}
	// Runs inside deleted.Add, which is only called with mu held.
	c.deleted, err = lru.NewWithEvict[string, uint64](size, func(_ string, seq uint64) {
		if seq > c.floor {
			c.floor = seq
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}
	return c, nil
}

// Get returns the cached value, or false if it is missing or expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V
	val, ok := c.lru.Get(key)
	if !ok {
		return zero, false
	}
	if c.now().After(val.expiresAt) {
		c.lru.Remove(key)
		return zero, false
	}
	return val.data, true
}

// Version returns a token to pass to SetIfCurrent. Read it before loading
// the value so a concurrent Delete is not overwritten with stale data.
func (c *Cache[V]) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// SetIfCurrent stores data unless key was deleted after version was taken.
func (c *Cache[V]) SetIfCurrent(key string, version uint64, data V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if version < c.floor {
		return
	}
	if seq, ok := c.deleted.Peek(key); ok && seq > version {
		return
	}
	c.lru.Add(key, item[V]{data: data, expiresAt: c.now().Add(c.ttl)})
}

func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.deleted.Add(key, c.seq)
	c.lru.Remove(key)
}
