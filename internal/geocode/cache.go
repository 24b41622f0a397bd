package geocode

import (
	"sync"
	"time"
)

// Cache stores recent lookup results keyed by the raw query string.
type Cache interface {
	Get(query string) ([]Feature, bool)
	Set(query string, features []Feature)
}

// MemoryCache is a tiny in-memory TTL cache for geocoding lookups.
type MemoryCache struct {
	mu    sync.RWMutex
	store map[string]cacheEntry
	ttl   time.Duration
}

type cacheEntry struct {
	features []Feature
	ts       time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{store: make(map[string]cacheEntry), ttl: ttl}
}

func (c *MemoryCache) Get(query string) ([]Feature, bool) {
	c.mu.RLock()
	e, ok := c.store[query]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Since(e.ts) > c.ttl {
		c.mu.Lock()
		delete(c.store, query)
		c.mu.Unlock()
		return nil, false
	}
	return e.features, true
}

func (c *MemoryCache) Set(query string, features []Feature) {
	c.mu.Lock()
	c.store[query] = cacheEntry{features: features, ts: time.Now()}
	c.mu.Unlock()
}
