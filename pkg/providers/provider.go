package providers

import "context"

// Provider is the core interface that all usage-source adapters must implement.
// It provides a unified abstraction for reading account and usage data from
// different AI providers (OpenAI, Anthropic, Google, local daemons, etc.).
//
// All methods accept a context.Context for cancellation and timeout control.
// Implementations must respect context cancellation and return immediately when
// the context is cancelled.
//
// Example usage:
//
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    return err
//	}
//	defer provider.Close()
//
//	account, err := provider.GetAccountInfo(ctx)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(account.PlanType)
type Provider interface {
	// Name returns the provider's configured name (e.g., "openai", "anthropic").
	// Names are normalized to lowercase at construction time.
	Name() string

	// IsConfigured reports whether the adapter has the credentials it needs to
	// reach its upstream API. An unconfigured provider is skipped by the
	// monitor rather than producing authentication errors on every cycle.
	IsConfigured() bool

	// GetAccountInfo fetches the current account snapshot: connectivity,
	// remaining balance (where the provider exposes one), and plan type.
	//
	// Returns a typed error (AuthError, RateLimitError, TimeoutError, ...) when
	// the upstream call fails. The returned snapshot is immutable; callers and
	// caches share it without copying.
	GetAccountInfo(ctx context.Context) (*AccountInfo, error)

	// GetUsageInfo fetches aggregated usage for the trailing number of days.
	// The window ends now and starts days*24h earlier. Implementations fill
	// per-model breakdowns when the upstream API reports them.
	GetUsageInfo(ctx context.Context, days int) (*UsageInfo, error)

	// Close releases any resources held by the adapter (HTTP connections, etc.).
	// After calling Close, the provider should not be used.
	Close() error
}
