// Package anthropic implements the Anthropic usage adapter.
//
// The adapter reads three endpoints:
//
//   - /v1/models as the connectivity probe for account snapshots
//   - /v1/organizations/usage_report/messages for token and request counts,
//     bucketed by day and grouped by model
//   - /v1/organizations/cost_report for total spend
//
// The usage and cost reports belong to the Admin API and require an admin
// key (sk-ant-admin...). With a regular workspace key the probe still works,
// but report fetches fail with an authentication error; the monitor logs the
// failure and serves cached data.
//
// Anthropic splits input tokens by cache behavior (uncached, cache creation,
// cache read); the adapter sums all three into InputTokens. Cost amounts
// arrive as decimal strings and are parsed here; a malformed amount surfaces
// as a ParseError.
//
// Example:
//
//	provider, err := anthropic.NewProvider(providers.ProviderConfig{
//	    Name:   "anthropic",
//	    APIKey: os.Getenv("ANTHROPIC_ADMIN_KEY"),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	usage, err := provider.GetUsageInfo(ctx, 30)
package anthropic
