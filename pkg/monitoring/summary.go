package monitoring

import (
	"context"
	"sync"
	"time"

	"mercator-hq/ganymede/pkg/providers"
)

// GetUsageSummary returns the joined cross-provider view for the given
// lookback window. The account and usage aggregation paths run
// concurrently; the derived summary is cached under its own key.
func (m *Monitor) GetUsageSummary(ctx context.Context, days int) *UsageSummary {
	if days <= 0 {
		days = defaultLookbackDays
	}

	if cached, ok := m.cache.Get(summaryKey(days)); ok {
		if summary, ok := cached.(*UsageSummary); ok {
			m.metrics.RecordCacheHit("summary")
			return summary
		}
	}
	m.metrics.RecordCacheMiss("summary")

	m.noteWindow(days)

	var (
		accounts []*providers.AccountInfo
		usage    []*providers.UsageInfo
		wg       sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		accounts = m.GetAllAccountInfo(ctx)
	}()
	go func() {
		defer wg.Done()
		usage = m.GetAllUsageInfo(ctx, days)
	}()
	wg.Wait()

	summary := m.buildSummary(accounts, usage, days)
	m.cache.Set(summaryKey(days), summary, m.summaryTTL)
	m.observeCacheEntries()
	return summary
}

// buildSummary joins account snapshots with usage reports and derives
// the cross-provider figures.
func (m *Monitor) buildSummary(accounts []*providers.AccountInfo, usage []*providers.UsageInfo, days int) *UsageSummary {
	summary := &UsageSummary{
		GeneratedAt:   time.Now().UTC(),
		WindowDays:    days,
		ProviderCount: len(m.providers),
		Providers:     make(map[string]*ProviderSummary),
	}

	for _, account := range accounts {
		entry := summary.providerEntry(account.Provider)
		entry.IsConnected = account.IsConnected
		entry.Balance = account.Balance
		entry.Currency = account.Currency
		entry.PlanType = account.PlanType

		if account.IsConnected {
			summary.ConnectedProviders++
		}
	}

	usedByProvider := make(map[string]float64, len(usage))
	for _, report := range usage {
		entry := summary.providerEntry(report.Provider)
		entry.TotalCost = report.TotalCost
		entry.TotalRequests = report.TotalRequests
		entry.TotalTokens = report.TotalTokens
		entry.ModelUsage = report.ModelUsage

		summary.TotalCost += report.TotalCost
		summary.TotalRequests += report.TotalRequests
		summary.TotalTokens += report.TotalTokens
		usedByProvider[report.Provider] = report.TotalCost
	}

	summary.AverageSuccessRate = m.averageSuccessRate()

	if m.budgets != nil && m.budgets.Enabled() {
		summary.Budgets = m.budgets.EvaluateAll(usedByProvider)
		for _, st := range summary.Budgets {
			m.metrics.UpdateBudget(st.Provider, string(st.State), st.Limit, st.Used, st.Ratio)
		}
	}

	return summary
}

// providerEntry returns the breakdown entry for a provider, creating it
// on first use.
func (s *UsageSummary) providerEntry(name string) *ProviderSummary {
	entry, ok := s.Providers[name]
	if !ok {
		entry = &ProviderSummary{Provider: name}
		s.Providers[name] = entry
	}
	return entry
}

// averageSuccessRate is the mean of per-provider limiter success
// ratios across all monitored providers. Providers with no recorded
// requests count as fully healthy.
func (m *Monitor) averageSuccessRate() float64 {
	if len(m.providers) == 0 {
		return 0
	}

	var sum float64
	for _, p := range m.providers {
		sum += m.limiter.GetStatus(p.Name()).SuccessRate()
	}
	return sum / float64(len(m.providers))
}
