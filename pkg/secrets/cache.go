package secrets

import (
	"sync"
	"time"
)

// cacheEntry is a cached resolution with expiration.
type cacheEntry struct {
	value     string
	expiresAt time.Time
}

// cache is a thread-safe TTL cache for resolved secrets. When full, the
// entry closest to expiry is evicted. A non-positive TTL disables
// caching entirely.
type cache struct {
	ttl     time.Duration
	maxSize int
	entries map[string]*cacheEntry
	mu      sync.RWMutex
}

func newCache(ttl time.Duration, maxSize int) *cache {
	if maxSize <= 0 {
		maxSize = 100
	}
	return &cache{
		ttl:     ttl,
		maxSize: maxSize,
		entries: make(map[string]*cacheEntry),
	}
}

// get returns a cached value if present and not expired.
func (c *cache) get(key string) (string, bool) {
	if c.ttl <= 0 {
		return "", false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if time.Now().After(entry.expiresAt) {
		return "", false
	}
	return entry.value, true
}

// set stores a value, evicting the entry closest to expiry when full.
func (c *cache) set(key, value string) {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxSize {
		var oldestKey string
		var oldestTime time.Time
		first := true

		for k, e := range c.entries {
			if first || e.expiresAt.Before(oldestTime) {
				oldestKey = k
				oldestTime = e.expiresAt
				first = false
			}
		}
		if oldestKey != "" {
			delete(c.entries, oldestKey)
		}
	}

	c.entries[key] = &cacheEntry{
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// clear removes all entries.
func (c *cache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
}

// size returns the number of cached entries, expired included.
func (c *cache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
