// Package openai implements the OpenAI usage adapter.
//
// The adapter reads three endpoints:
//
//   - /v1/models as the connectivity probe for account snapshots
//   - /v1/organization/usage/completions for token and request counts,
//     grouped by model
//   - /v1/organization/costs for total spend
//
// The usage and costs endpoints require an admin API key. With a regular
// project key the probe still works, but usage fetches fail with an
// authentication error; the monitor logs the failure and serves cached data.
//
// OpenAI reports costs as line items without a per-model breakdown, so
// ModelUsage entries carry token counts with zero cost while the report's
// TotalCost reflects the billed amount.
//
// Example:
//
//	provider, err := openai.NewProvider(providers.ProviderConfig{
//	    Name:   "openai",
//	    APIKey: os.Getenv("OPENAI_ADMIN_KEY"),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	usage, err := provider.GetUsageInfo(ctx, 30)
package openai
