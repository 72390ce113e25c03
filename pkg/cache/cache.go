package cache

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// Default sizing for the backing store. NumCounters should be roughly
// 10x the expected number of live entries.
const (
	defaultNumCounters = 100000
	defaultMaxCost     = 64 << 20 // 64MB
	defaultBufferItems = 64
	defaultEntryCost   = 1024
)

// Config controls the sizing of the backing store.
type Config struct {
	// NumCounters is the number of keys to track frequency of.
	// If 0, defaults to 100000.
	NumCounters int64

	// MaxCost is the maximum total cost of the cache in bytes.
	// If 0, defaults to 64MB.
	MaxCost int64

	// BufferItems is the number of keys per internal Get buffer.
	// If 0, defaults to 64.
	BufferItems int64

	// DefaultEntryCost is charged for a value whose serialized size
	// cannot be determined. If 0, defaults to 1024.
	DefaultEntryCost int64
}

// entry is the value stored in the backing store. The original key rides
// along because ristretto reports evictions by key hash, not by the
// string key, and the eviction hook needs the key to clean up bookkeeping.
type entry struct {
	key   string
	value any
}

// keyInfo is the bookkeeping record for a live entry.
type keyInfo struct {
	// expiresAt is the absolute expiry time. Zero time = no expiry.
	expiresAt time.Time

	// createdAt is when the entry was stored.
	createdAt time.Time
}

// Cache is a thread-safe TTL cache for monitor snapshots, backed by
// ristretto. A bookkeeping index tracks live keys because ristretto does
// not enumerate them; the index feeds Exists, InvalidatePattern, and the
// per-prefix statistics.
type Cache struct {
	// store is the ristretto backing store
	store *ristretto.Cache[string, *entry]

	// defaultCost is charged when a value cannot be serialized for sizing
	defaultCost int64

	// keys tracks live entries by key
	keys map[string]keyInfo

	// mu protects the bookkeeping index
	mu sync.RWMutex

	// hits and misses are cumulative lookup counters
	hits   int64
	misses int64

	// samples holds recent hit latencies, capped at maxLatencySamples
	samples []time.Duration

	// statsMu protects the counters and samples
	statsMu sync.Mutex
}

// New creates a cache with the given sizing. Zero config fields fall back
// to package defaults.
func New(cfg Config) (*Cache, error) {
	if cfg.NumCounters <= 0 {
		cfg.NumCounters = defaultNumCounters
	}
	if cfg.MaxCost <= 0 {
		cfg.MaxCost = defaultMaxCost
	}
	if cfg.BufferItems <= 0 {
		cfg.BufferItems = defaultBufferItems
	}
	if cfg.DefaultEntryCost <= 0 {
		cfg.DefaultEntryCost = defaultEntryCost
	}

	c := &Cache{
		defaultCost: cfg.DefaultEntryCost,
		keys:        make(map[string]keyInfo),
	}

	store, err := ristretto.NewCache(&ristretto.Config[string, *entry]{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		OnEvict: func(item *ristretto.Item[*entry]) {
			if item.Value != nil {
				c.dropKey(item.Value.key)
			}
		},
		OnReject: func(item *ristretto.Item[*entry]) {
			if item.Value != nil {
				c.dropKey(item.Value.key)
			}
		},
	})
	if err != nil {
		return nil, fmt.Errorf("creating cache store: %w", err)
	}
	c.store = store

	return c, nil
}

// Get retrieves a value from the cache.
// Returns (value, true) on a hit; (nil, false) on a miss or after the
// entry's TTL has lapsed. Hits record a lookup latency sample.
func (c *Cache) Get(key string) (any, bool) {
	start := time.Now()

	item, ok := c.store.Get(key)
	if !ok || item == nil {
		c.recordMiss()
		return nil, false
	}

	c.recordHit(time.Since(start))
	return item.value, true
}

// Set stores a value with the given TTL. The entry's cost is the
// serialized byte size of the value; values that cannot be serialized are
// charged DefaultEntryCost. Set never fails on serialization problems.
// Storage is best-effort: ristretto may drop writes under memory
// pressure, in which case the rejection hook cleans up bookkeeping.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	now := time.Now()
	info := keyInfo{createdAt: now}
	if ttl > 0 {
		info.expiresAt = now.Add(ttl)
	}

	c.mu.Lock()
	c.keys[key] = info
	c.mu.Unlock()

	c.store.SetWithTTL(key, &entry{key: key, value: value}, c.entryCost(value), ttl)
}

// GetOrSet returns the cached value for key, invoking factory on a miss
// and storing the result with the given TTL.
//
// There is no single-flight deduplication: concurrent callers that miss
// the same key each invoke factory, and the last write wins. Factories
// here fetch idempotent snapshots, so duplicate invocations waste a
// request but never corrupt state.
func (c *Cache) GetOrSet(key string, factory func() (any, error), ttl time.Duration) (any, error) {
	if value, ok := c.Get(key); ok {
		return value, nil
	}

	value, err := factory()
	if err != nil {
		return nil, err
	}

	c.Set(key, value, ttl)
	return value, nil
}

// Invalidate removes a single entry from the cache.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.keys, key)
	c.mu.Unlock()

	c.store.Del(key)
}

// InvalidatePattern removes every entry whose key starts with prefix,
// compared case-insensitively. Returns the number of entries removed.
func (c *Cache) InvalidatePattern(prefix string) int {
	lower := strings.ToLower(prefix)

	c.mu.Lock()
	matched := make([]string, 0)
	for key := range c.keys {
		if strings.HasPrefix(strings.ToLower(key), lower) {
			matched = append(matched, key)
			delete(c.keys, key)
		}
	}
	c.mu.Unlock()

	for _, key := range matched {
		c.store.Del(key)
	}
	return len(matched)
}

// Exists reports whether key has a bookkeeping record. It does not
// consult the expiry-aware store, so it can report true for an entry
// whose TTL has already lapsed until eviction catches up. Callers that
// need freshness must use Get.
func (c *Cache) Exists(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.keys[key]
	return ok
}

// Wait blocks until all buffered writes have been applied to the backing
// store. Ristretto applies Sets asynchronously; callers that need
// read-your-writes (mainly tests) call Wait after Set.
func (c *Cache) Wait() {
	c.store.Wait()
}

// Close stops the backing store. After Close the cache must not be used.
func (c *Cache) Close() {
	c.store.Close()
}

// entryCost returns the serialized size of value in bytes, or the
// configured default when serialization fails.
func (c *Cache) entryCost(value any) int64 {
	data, err := json.Marshal(value)
	if err != nil || len(data) == 0 {
		return c.defaultCost
	}
	return int64(len(data))
}

// dropKey removes a key from bookkeeping. Called from the store's
// eviction and rejection hooks; idempotent because explicit invalidation
// may already have removed the key.
func (c *Cache) dropKey(key string) {
	c.mu.Lock()
	delete(c.keys, key)
	c.mu.Unlock()
}
