package models

import (
	"sync"
	"sync/atomic"
)

const (
	// DefaultCacheCapacity is the number of words a model cache holds
	// unless configured otherwise.
	DefaultCacheCapacity = 10_000
	// maxCachedLen bounds the byte length of cached keys.
	maxCachedLen = 256
)

// CacheStats is a snapshot of cache occupancy and effectiveness.
type CacheStats struct {
	Entries  int    `json:"entries"`
	Capacity int    `json:"capacity"`
	Hits     uint64 `json:"hits"`
	Misses   uint64 `json:"misses"`
}

// Cache is a bounded lookaside map safe for concurrent use. Once full, new
// entries are dropped instead of evicting existing ones.
type Cache[K comparable, V any] struct {
	mu       sync.RWMutex
	entries  map[K]V
	capacity int

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewCache returns a cache holding at most capacity entries. A capacity of
// zero disables caching.
func NewCache[K comparable, V any](capacity int) *Cache[K, V] {
	capacity = max(capacity, 0)
	return &Cache[K, V]{
		entries:  make(map[K]V, min(capacity, 1024)),
		capacity: capacity,
	}
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	v, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

// Set stores value unless the cache is already full. It reports whether the
// entry was stored.
func (c *Cache[K, V]) Set(key K, value V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		c.entries[key] = value
		return true
	}
	if len(c.entries) >= c.capacity {
		return false
	}
	c.entries[key] = value
	return true
}

// Clear removes every entry and resets the counters.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	clear(c.entries)
	c.mu.Unlock()
	c.hits.Store(0)
	c.misses.Store(0)
}

// Resize changes the capacity, dropping entries that no longer fit.
func (c *Cache[K, V]) Resize(capacity int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.capacity = max(capacity, 0)
	excess := len(c.entries) - c.capacity
	for k := range c.entries {
		if excess <= 0 {
			break
		}
		delete(c.entries, k)
		excess--
	}
}

func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache[K, V]) Capacity() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.capacity
}

func (c *Cache[K, V]) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CacheStats{
		Entries:  len(c.entries),
		Capacity: c.capacity,
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
	}
}
