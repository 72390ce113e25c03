package budget

import (
	"sort"
	"strings"

	"mercator-hq/ganymede/pkg/config"
)

// TotalBudgetKey is the budget map key for combined spend across all
// providers.
const TotalBudgetKey = "total"

// Tracker evaluates observed usage cost against configured monthly
// budgets. It holds no spend state of its own: callers pass in the cost
// figures reported by providers, so evaluation is a pure function of
// configuration and input.
type Tracker struct {
	enabled   bool
	warnRatio float64

	// monthly maps lowercase provider name (or "total") to a USD limit
	monthly map[string]float64
}

// NewTracker creates a tracker from budget configuration. Provider keys
// are lowercased; a missing or non-positive warn ratio falls back to the
// package default.
func NewTracker(cfg config.BudgetsConfig) *Tracker {
	warnRatio := cfg.WarnRatio
	if warnRatio <= 0 || warnRatio > 1 {
		warnRatio = config.DefaultBudgetWarnRatio
	}

	monthly := make(map[string]float64, len(cfg.Monthly))
	for provider, limit := range cfg.Monthly {
		if limit > 0 {
			monthly[strings.ToLower(provider)] = limit
		}
	}

	return &Tracker{
		enabled:   cfg.Enabled,
		warnRatio: warnRatio,
		monthly:   monthly,
	}
}

// Enabled reports whether budget evaluation is active.
func (t *Tracker) Enabled() bool {
	return t.enabled
}

// Evaluate returns the budget status for a provider given its observed
// spend. Returns nil when evaluation is disabled or the provider has no
// configured budget.
func (t *Tracker) Evaluate(provider string, used float64) *Status {
	if !t.enabled {
		return nil
	}

	provider = strings.ToLower(provider)
	limit, ok := t.monthly[provider]
	if !ok {
		return nil
	}

	return t.status(provider, used, limit)
}

// EvaluateAll evaluates every configured budget against the given
// per-provider spend. Providers with a budget but no reported spend are
// evaluated at zero. When a "total" budget is configured it is evaluated
// against the sum of all reported spend. Results are sorted by provider
// name with "total" last.
func (t *Tracker) EvaluateAll(usedByProvider map[string]float64) []*Status {
	if !t.enabled {
		return nil
	}

	var total float64
	used := make(map[string]float64, len(usedByProvider))
	for provider, amount := range usedByProvider {
		used[strings.ToLower(provider)] = amount
		total += amount
	}

	statuses := make([]*Status, 0, len(t.monthly))
	for provider, limit := range t.monthly {
		if provider == TotalBudgetKey {
			statuses = append(statuses, t.status(TotalBudgetKey, total, limit))
			continue
		}
		statuses = append(statuses, t.status(provider, used[provider], limit))
	}

	sort.Slice(statuses, func(i, j int) bool {
		if (statuses[i].Provider == TotalBudgetKey) != (statuses[j].Provider == TotalBudgetKey) {
			return statuses[j].Provider == TotalBudgetKey
		}
		return statuses[i].Provider < statuses[j].Provider
	})
	return statuses
}

// status builds a Status for one budget.
func (t *Tracker) status(provider string, used, limit float64) *Status {
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}

	return &Status{
		Provider:  provider,
		State:     t.state(used, limit),
		Limit:     limit,
		Used:      used,
		Remaining: remaining,
		Ratio:     used / limit,
	}
}

// state classifies spend: reaching the limit is exceeded, reaching
// limit*warnRatio is warning.
func (t *Tracker) state(used, limit float64) State {
	switch {
	case used >= limit:
		return StateExceeded
	case used >= limit*t.warnRatio:
		return StateWarning
	default:
		return StateOK
	}
}
