// Package providers implements a unified abstraction layer for AI provider
// usage and billing APIs.
//
// # Overview
//
// The providers package provides a consistent interface for reading account
// and usage data from different AI providers (OpenAI, Anthropic, Google,
// local daemons). It normalizes provider-specific billing formats, manages
// connections, retries transient failures, and maps upstream failures to
// typed errors.
//
// # Architecture
//
// The package is organized into several layers:
//
//  1. Provider Interface - Defines the contract all adapters must implement
//  2. Base HTTP Client - Implements common HTTP logic (connection pooling, retries, timeouts)
//  3. Provider Adapters - Provider-specific implementations (subpackages openai, anthropic, google, ollama)
//  4. Provider Factory - Creates adapters from configuration (package providerfactory)
//
// # Basic Usage
//
// Create a single adapter:
//
//	config := providers.ProviderConfig{
//	    Name:    "openai",
//	    Type:    "openai",
//	    BaseURL: "https://api.openai.com",
//	    APIKey:  os.Getenv("OPENAI_API_KEY"),
//	    Timeout: 30 * time.Second,
//	}
//
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	account, err := provider.GetAccountInfo(context.Background())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("connected=%v plan=%s\n", account.IsConnected, account.PlanType)
//
//	usage, err := provider.GetUsageInfo(context.Background(), 30)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("spend over 30 days: $%.2f\n", usage.TotalCost)
//
// # Error Handling
//
// The package defines specific error types for common failure scenarios:
//
//   - ProviderError: General provider errors
//   - AuthError: Authentication failures (HTTP 401/403)
//   - RateLimitError: Upstream rate limit exceeded (HTTP 429)
//   - TimeoutError: Request timeout
//   - ParseError: Response parsing failure
//   - NotConfiguredError: Adapter invoked without credentials
//   - ConfigError: Invalid adapter configuration
//
// Example error handling:
//
//	usage, err := provider.GetUsageInfo(ctx, 7)
//	if err != nil {
//	    switch e := err.(type) {
//	    case *providers.AuthError:
//	        fmt.Printf("Authentication failed: %v\n", e)
//	    case *providers.RateLimitError:
//	        fmt.Printf("Rate limited, retry after: %v\n", e.RetryAfter)
//	    case *providers.TimeoutError:
//	        fmt.Printf("Request timeout: %v\n", e)
//	    default:
//	        fmt.Printf("Error: %v\n", e)
//	    }
//	}
//
// # Supported Providers
//
// The package supports four provider types:
//
//  1. OpenAI - usage and billing subscription endpoints
//  2. Anthropic - Admin API usage and cost reports
//  3. Google - Gemini API usage metadata
//  4. Ollama - local daemon (connectivity and loaded models, no billing)
//
// # Retry Logic
//
// Transient upstream errors (5xx, network failures) are retried with a fixed
// delay between attempts:
//
//	config := providers.ProviderConfig{
//	    Name:       "openai",
//	    MaxRetries: 2,
//	    RetryDelay: time.Second,
//	}
//
// Authentication failures, rate limits, and bad requests are never retried;
// they surface immediately as typed errors so the monitor's own rate limiter
// and cache can react.
//
// # Thread Safety
//
// All adapters are safe for concurrent use from multiple goroutines.
package providers
