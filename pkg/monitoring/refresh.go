package monitoring

import (
	"context"
	"fmt"
	"strings"
)

// RefreshProviderData drops one provider's cached data and re-fetches
// it immediately, still honoring the rate limiter. Aggregate and
// summary keys that embed the provider are invalidated too and rebuild
// lazily on the next read; other providers' individual snapshots are
// left untouched so they can keep serving as rate-limit fallbacks.
//
// Returns an error only for an unknown provider name; fetch failures
// follow the usual aggregation semantics (logged, nothing cached).
func (m *Monitor) RefreshProviderData(ctx context.Context, name string) error {
	name = strings.ToLower(name)
	p := m.providerByName(name)
	if p == nil {
		return fmt.Errorf("unknown provider %q", name)
	}

	m.invalidateProviderKeys(name)

	m.fetchAccount(ctx, p)
	for _, days := range m.knownWindowsOrDefault() {
		m.fetchUsage(ctx, p, days)
	}

	m.logger.Info("provider data refreshed", "provider", name)
	return nil
}

// RefreshAllProviderData drops every cached monitor entry and rebuilds
// the aggregate views for all known lookback windows, still honoring
// the rate limiter. A provider that is rate limited during the rebuild
// contributes nothing until its window frees up, since its fallback
// snapshot was just invalidated.
func (m *Monitor) RefreshAllProviderData(ctx context.Context) {
	removed := m.cache.InvalidatePattern(monitorKeyPrefix)
	m.logger.Info("refreshing all provider data", "invalidated_entries", removed)

	for _, days := range m.knownWindowsOrDefault() {
		m.GetUsageSummary(ctx, days)
	}
	m.GetConfiguredProviders(ctx)
	m.GetUnconfiguredProviders(ctx)
}

// RefreshAccountData drops the aggregate account views and re-fetches
// account snapshots from every provider, still honoring the rate
// limiter. Individual snapshots are overwritten on success and kept as
// rate-limit fallbacks otherwise, so a recurring refresh never erases
// the last known data.
//
// Returns an error when the context is cancelled or when no configured
// provider produced a snapshot.
func (m *Monitor) RefreshAccountData(ctx context.Context) error {
	m.cache.Invalidate(accountsKey)
	for _, days := range m.knownWindows() {
		m.cache.Invalidate(summaryKey(days))
	}

	accounts := m.GetAllAccountInfo(ctx)
	if err := ctx.Err(); err != nil {
		return err
	}
	if configured := m.configuredCount(); configured > 0 && len(accounts) == 0 {
		return fmt.Errorf("account refresh returned no data from %d configured providers", configured)
	}

	m.logger.Debug("account data refreshed", "snapshots", len(accounts))
	return nil
}

// RefreshUsageData drops the aggregate usage and summary views and
// re-fetches usage reports from every provider, still honoring the
// rate limiter. The requested window is refreshed along with every
// window a reader has asked for before; days <= 0 selects the default
// window. Individual snapshots survive as rate-limit fallbacks, same
// as RefreshAccountData.
func (m *Monitor) RefreshUsageData(ctx context.Context, days int) error {
	if days <= 0 {
		days = defaultLookbackDays
	}
	m.noteWindow(days)

	windows := m.knownWindows()
	for _, w := range windows {
		m.cache.Invalidate(usageAggregateKey(w))
		m.cache.Invalidate(summaryKey(w))
	}

	var reports int
	for _, w := range windows {
		reports += len(m.GetAllUsageInfo(ctx, w))
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	if configured := m.configuredCount(); configured > 0 && reports == 0 {
		return fmt.Errorf("usage refresh returned no data from %d configured providers", configured)
	}

	m.logger.Debug("usage data refreshed", "windows", len(windows), "reports", reports)
	return nil
}

// RefreshProviderDataAsync starts a single-provider refresh on a
// goroutine and returns immediately.
func (m *Monitor) RefreshProviderDataAsync(name string) {
	go func() {
		if err := m.RefreshProviderData(context.Background(), name); err != nil {
			m.logger.Error("async provider refresh failed",
				"provider", name,
				"error", err,
			)
		}
	}()
}

// RefreshAllProviderDataAsync starts a full refresh on a goroutine and
// returns immediately.
func (m *Monitor) RefreshAllProviderDataAsync() {
	go m.RefreshAllProviderData(context.Background())
}

// invalidateProviderKeys removes one provider's individual snapshots
// plus every aggregate and summary key that embeds its data.
func (m *Monitor) invalidateProviderKeys(name string) {
	m.cache.Invalidate(accountKey(name))
	m.cache.InvalidatePattern(usageProviderPrefix(name))

	m.cache.Invalidate(accountsKey)
	for _, days := range m.knownWindows() {
		m.cache.Invalidate(usageAggregateKey(days))
		m.cache.Invalidate(summaryKey(days))
	}
}
