package logging

import "context"

type contextKey string

const (
	// requestIDKey carries the request ID assigned by the server's
	// request-ID middleware.
	requestIDKey contextKey = "request_id"

	// providerKey carries the provider name during a fetch.
	providerKey contextKey = "provider"
)

// WithRequestID returns a context carrying the request ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFrom returns the request ID stored in ctx, or "".
func RequestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// WithProvider returns a context carrying the provider name.
func WithProvider(ctx context.Context, provider string) context.Context {
	return context.WithValue(ctx, providerKey, provider)
}

// ProviderFrom returns the provider name stored in ctx, or "".
func ProviderFrom(ctx context.Context) string {
	if p, ok := ctx.Value(providerKey).(string); ok {
		return p
	}
	return ""
}

// extractContextFields turns the request-scoped context values into
// key/value log arguments.
func extractContextFields(ctx context.Context) []any {
	var fields []any
	if id := RequestIDFrom(ctx); id != "" {
		fields = append(fields, "request_id", id)
	}
	if p := ProviderFrom(ctx); p != "" {
		fields = append(fields, "provider", p)
	}
	return fields
}
