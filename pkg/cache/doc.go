// Package cache provides the TTL snapshot cache used by the monitor.
//
// # Overview
//
// The cache stores provider snapshots (account info, usage reports,
// derived summaries) under namespaced string keys such as
// "monitor:usage:openai:30". Values are arbitrary Go values; entry cost
// is the serialized byte size so large reports displace proportionally
// more of the budget.
//
// The backing store is ristretto, chosen for its admission policy and
// TTL support. Ristretto does not enumerate keys, so the cache keeps a
// bookkeeping index of live keys alongside it; the index serves
// prefix invalidation, existence checks, and per-namespace statistics,
// and is kept in step with the store through its eviction hooks.
//
// # Basic Usage
//
//	c, err := cache.New(cache.Config{})
//	if err != nil {
//		return err
//	}
//	defer c.Close()
//
//	c.Set("monitor:usage:openai:30", report, 5*time.Minute)
//
//	value, err := c.GetOrSet("monitor:accounts", fetchAccounts, 15*time.Minute)
//
//	removed := c.InvalidatePattern("monitor:usage:")
//
// # Statistics
//
// GetStatistics reports hit/miss counters, the hit rate, the mean hit
// latency over a bounded sample window, and live entry counts grouped by
// key namespace (the text before the first ':').
//
// # Consistency
//
// Writes are applied asynchronously by the backing store; Wait flushes
// them, which tests rely on. Exists consults only the bookkeeping index
// and can briefly report true for an entry past its TTL. GetOrSet has no
// single-flight deduplication, so concurrent misses may invoke the
// factory more than once.
package cache
