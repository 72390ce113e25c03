package cache

import (
	"strings"
	"time"
)

// maxLatencySamples caps the hit-latency sample buffer. When the cap is
// exceeded the oldest half is dropped, keeping the average weighted
// toward recent lookups.
const maxLatencySamples = 1000

// Statistics is a point-in-time snapshot of cache activity.
type Statistics struct {
	// TotalEntries is the number of live bookkeeping records.
	TotalEntries int `json:"total_entries"`

	// HitCount and MissCount are cumulative lookup counters.
	HitCount  int64 `json:"hit_count"`
	MissCount int64 `json:"miss_count"`

	// HitRate is HitCount over total lookups, 0.0-1.0. Zero when the
	// cache has never been read.
	HitRate float64 `json:"hit_rate"`

	// AverageResponseTime is the mean hit latency over the retained
	// sample window.
	AverageResponseTime time.Duration `json:"average_response_time"`

	// EntriesByPrefix counts live entries per key namespace, where the
	// namespace is the text before the first ':' in the key.
	EntriesByPrefix map[string]int `json:"entries_by_prefix"`
}

// GetStatistics returns a snapshot of cache activity.
func (c *Cache) GetStatistics() Statistics {
	c.mu.RLock()
	total := len(c.keys)
	byPrefix := make(map[string]int, 4)
	for key := range c.keys {
		byPrefix[keyPrefix(key)]++
	}
	c.mu.RUnlock()

	c.statsMu.Lock()
	hits := c.hits
	misses := c.misses
	var avg time.Duration
	if len(c.samples) > 0 {
		var sum time.Duration
		for _, s := range c.samples {
			sum += s
		}
		avg = sum / time.Duration(len(c.samples))
	}
	c.statsMu.Unlock()

	var hitRate float64
	if lookups := hits + misses; lookups > 0 {
		hitRate = float64(hits) / float64(lookups)
	}

	return Statistics{
		TotalEntries:        total,
		HitCount:            hits,
		MissCount:           misses,
		HitRate:             hitRate,
		AverageResponseTime: avg,
		EntriesByPrefix:     byPrefix,
	}
}

// recordHit increments the hit counter and appends a latency sample,
// trimming the oldest half of the buffer when it outgrows the cap.
func (c *Cache) recordHit(latency time.Duration) {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()

	c.hits++
	c.samples = append(c.samples, latency)
	if len(c.samples) > maxLatencySamples {
		kept := make([]time.Duration, len(c.samples)-len(c.samples)/2)
		copy(kept, c.samples[len(c.samples)/2:])
		c.samples = kept
	}
}

// recordMiss increments the miss counter.
func (c *Cache) recordMiss() {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()

	c.misses++
}

// keyPrefix returns the key's namespace: the text before the first ':',
// or the whole key when it has no separator.
func keyPrefix(key string) string {
	if i := strings.Index(key, ":"); i >= 0 {
		return key[:i]
	}
	return key
}
