package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Default client tuning, applied when the config leaves a field zero.
const (
	defaultTimeout             = 30 * time.Second
	defaultRetryDelay          = 1 * time.Second
	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 10
	defaultIdleConnTimeout     = 90 * time.Second
)

// HTTPClient is the base implementation for HTTP-based provider adapters.
// It provides connection pooling, retry logic, timeout handling, and typed
// error mapping for upstream failures.
//
// Concrete provider adapters (OpenAI, Anthropic, etc.) embed this struct and
// implement the Provider interface on top of it.
type HTTPClient struct {
	// config contains the provider configuration
	config ProviderConfig

	// client is the HTTP client with connection pooling
	client *http.Client

	// stats tracks request outcomes
	stats ClientStats

	// statsMu protects concurrent access to stats
	statsMu sync.RWMutex
}

// NewHTTPClient creates a new base HTTP client with connection pooling.
// Zero-valued tuning fields in the config are filled with defaults.
func NewHTTPClient(config ProviderConfig) *HTTPClient {
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = defaultRetryDelay
	}
	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = defaultMaxIdleConns
	}
	if config.MaxIdleConnsPerHost == 0 {
		config.MaxIdleConnsPerHost = defaultMaxIdleConnsPerHost
	}
	if config.IdleConnTimeout == 0 {
		config.IdleConnTimeout = defaultIdleConnTimeout
	}

	transport := &http.Transport{
		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
		IdleConnTimeout:     config.IdleConnTimeout,
		DisableCompression:  false,
		ForceAttemptHTTP2:   true,
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   config.Timeout,
	}

	return &HTTPClient{
		config: config,
		client: client,
	}
}

// Name returns the provider's configured name.
func (c *HTTPClient) Name() string {
	return c.config.Name
}

// Config returns the provider's configuration.
func (c *HTTPClient) Config() ProviderConfig {
	return c.config
}

// IsConfigured reports whether an API key is present.
// Adapters for keyless providers (local daemons) override this.
func (c *HTTPClient) IsConfigured() bool {
	return c.config.APIKey != ""
}

// Stats returns a copy of the request statistics.
func (c *HTTPClient) Stats() ClientStats {
	c.statsMu.RLock()
	defer c.statsMu.RUnlock()
	return c.stats
}

// recordSuccess records a successful request.
func (c *HTTPClient) recordSuccess() {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()

	c.stats.TotalRequests++
	c.stats.LastSuccess = time.Now()
	c.stats.LastError = nil
}

// recordFailure records a failed request.
func (c *HTTPClient) recordFailure(err error) {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()

	c.stats.TotalRequests++
	c.stats.FailedRequests++
	c.stats.LastError = err
}

// DoRequest performs an HTTP request with retry logic and timeout handling.
// Transient errors (5xx, network failures) are retried up to MaxRetries times
// with a fixed delay between attempts. Authentication failures, rate limits,
// and bad requests are returned immediately as typed errors.
func (c *HTTPClient) DoRequest(ctx context.Context, method, url string, body []byte, headers map[string]string) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			slog.Debug("retrying request",
				"provider", c.config.Name,
				"attempt", attempt,
				"max_retries", c.config.MaxRetries,
				"delay", c.config.RetryDelay,
			)

			// Wait out the retry delay, respecting cancellation
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.config.RetryDelay):
			}
		}

		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		for key, value := range headers {
			req.Header.Set(key, value)
		}
		if req.Header.Get("Content-Type") == "" && body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		slog.Debug("sending request to provider",
			"provider", c.config.Name,
			"method", method,
			"url", url,
		)

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			c.recordFailure(err)

			// Context cancelled or deadline exceeded: no retry
			if ctx.Err() != nil {
				return nil, &TimeoutError{
					Provider: c.config.Name,
					Timeout:  c.config.Timeout,
				}
			}

			// Network error: retry
			slog.Warn("request failed, will retry",
				"provider", c.config.Name,
				"attempt", attempt+1,
				"error", err,
			)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			c.recordSuccess()
			return resp, nil
		}

		errorBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			// Authentication error: no retry
			authErr := &AuthError{
				Provider: c.config.Name,
				Message:  string(errorBody),
			}
			c.recordFailure(authErr)
			return nil, authErr

		case http.StatusTooManyRequests:
			// Upstream rate limit: no retry, caller decides how to back off
			rlErr := &RateLimitError{
				Provider:   c.config.Name,
				RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
				Message:    string(errorBody),
			}
			c.recordFailure(rlErr)
			return nil, rlErr

		case http.StatusBadRequest:
			// Bad request: no retry
			reqErr := &ProviderError{
				Provider:   c.config.Name,
				StatusCode: resp.StatusCode,
				Message:    string(errorBody),
			}
			c.recordFailure(reqErr)
			return nil, reqErr

		default:
			// Server error (5xx) or other status: retry
			lastErr = &ProviderError{
				Provider:   c.config.Name,
				StatusCode: resp.StatusCode,
				Message:    string(errorBody),
			}
			c.recordFailure(lastErr)

			slog.Warn("request returned error status, will retry",
				"provider", c.config.Name,
				"status", resp.StatusCode,
				"attempt", attempt+1,
			)
		}
	}

	// All retries exhausted
	return nil, lastErr
}

// DoJSONRequest performs a JSON request and decodes the response.
func (c *HTTPClient) DoJSONRequest(ctx context.Context, method, url string, reqBody interface{}, respBody interface{}, headers map[string]string) error {
	var bodyBytes []byte
	var err error
	if reqBody != nil {
		bodyBytes, err = json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	resp, err := c.DoRequest(ctx, method, url, bodyBytes, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	responseBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ParseError{
			Provider: c.config.Name,
			Cause:    fmt.Errorf("failed to read response: %w", err),
		}
	}

	if respBody != nil && len(responseBytes) > 0 {
		if err := json.Unmarshal(responseBytes, respBody); err != nil {
			return &ParseError{
				Provider:    c.config.Name,
				RawResponse: string(responseBytes),
				Cause:       fmt.Errorf("failed to unmarshal response: %w", err),
			}
		}
	}

	return nil
}

// GetJSON performs a GET request and decodes the JSON response.
// Usage and billing APIs are read-only, so this is the common path.
func (c *HTTPClient) GetJSON(ctx context.Context, url string, respBody interface{}, headers map[string]string) error {
	return c.DoJSONRequest(ctx, http.MethodGet, url, nil, respBody, headers)
}

// Close closes the HTTP client's idle connections.
func (c *HTTPClient) Close() error {
	c.client.CloseIdleConnections()
	slog.Debug("provider client closed", "provider", c.config.Name)
	return nil
}

// parseRetryAfter parses the Retry-After header value.
// It supports both delay-seconds and HTTP-date formats.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}

	// Try parsing as seconds
	var seconds int
	if _, err := fmt.Sscanf(header, "%d", &seconds); err == nil {
		return time.Duration(seconds) * time.Second
	}

	// Try parsing as HTTP date
	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}

	return 0
}
