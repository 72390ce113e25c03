// Package monitoring aggregates account and usage data across AI
// providers into cached, failure-tolerant views.
//
// The Monitor fans out to a fixed provider list. Every upstream call
// goes through the rate limiter first; a blocked provider serves its
// last individually cached snapshot instead of calling out, and a
// provider with neither admission nor cached data is simply omitted.
// No single provider failure ever aborts an aggregation: errors are
// logged, recorded with the limiter, and the provider contributes
// nothing that cycle.
//
// # Views
//
//   - GetAllAccountInfo: connectivity, balance, and plan per provider
//   - GetAllUsageInfo: spend, requests, and tokens over a lookback window
//   - GetUsageSummary: both paths fanned out concurrently and joined
//     into one cross-provider view with derived totals
//   - GetConfiguredProviders / GetUnconfiguredProviders: membership
//     lists, cached with a longer TTL
//
// Each view is cached under its own key with its own TTL. Account data
// is cached longer than usage data; provider lists longer still.
//
// # Refresh
//
// RefreshProviderData and RefreshAllProviderData invalidate the
// relevant cache keys and force a re-fetch, still honoring the rate
// limiter. The Async variants run on a goroutine and return
// immediately; the background sync engine drives them on its cadences.
//
// # Enrichment
//
// When collaborators are configured, successful usage fetches are
// priced from the cost calculator (for providers that report tokens
// but not cost), recorded to the history store, and evaluated against
// spend budgets in the summary.
package monitoring
