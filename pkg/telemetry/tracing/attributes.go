package tracing

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span Attribute Helpers
//
// These functions provide a convenient way to set common attributes on spans.
// They ensure consistent attribute naming across the codebase.
//
// # Attribute Keys
//
// Custom attribute keys use the "ganymede.*" namespace:
//   - ganymede.provider: AI provider name
//   - ganymede.fetch.kind: what was fetched (account or usage)
//   - ganymede.cost.total: spend over the usage window
//   - ganymede.tokens.*: token counts

// Common attribute keys used throughout the system
const (
	// Provider attributes
	AttrProvider  = "ganymede.provider"
	AttrFetchKind = "ganymede.fetch.kind"
	AttrConnected = "ganymede.connected"
	AttrPlanType  = "ganymede.plan_type"

	// Usage attributes
	AttrWindowDays = "ganymede.window_days"
	AttrRequests   = "ganymede.requests"
	AttrModelCount = "ganymede.model_count"

	// Token attributes
	AttrTokensInput  = "ganymede.tokens.input"
	AttrTokensOutput = "ganymede.tokens.output"
	AttrTokensTotal  = "ganymede.tokens.total"

	// Cost attributes
	AttrCost         = "ganymede.cost.total"
	AttrCostCurrency = "ganymede.cost.currency"

	// Cache attributes
	AttrCacheHit = "ganymede.cache.hit"
	AttrCacheKey = "ganymede.cache.key"

	// Rate limit attributes
	AttrRateLimited = "ganymede.rate_limited"

	// Sync attributes
	AttrSyncKind   = "ganymede.sync.kind"
	AttrRetryCount = "ganymede.retry_count"

	// Error attributes
	AttrErrorType    = "ganymede.error.type"
	AttrErrorMessage = "error.message"

	// Performance attributes
	AttrDuration = "ganymede.duration_ms"
)

// SetFetchAttributes sets provider fetch attributes on a span.
//
// Example:
//
//	SetFetchAttributes(span, "openai", "usage")
func SetFetchAttributes(span trace.Span, provider, kind string) {
	span.SetAttributes(
		attribute.String(AttrProvider, provider),
		attribute.String(AttrFetchKind, kind),
	)
}

// SetAccountAttributes sets account snapshot attributes on a span.
//
// Example:
//
//	SetAccountAttributes(span, true, "pay-as-you-go")
func SetAccountAttributes(span trace.Span, connected bool, planType string) {
	attrs := []attribute.KeyValue{
		attribute.Bool(AttrConnected, connected),
	}

	// Only add non-empty values
	if planType != "" {
		attrs = append(attrs, attribute.String(AttrPlanType, planType))
	}

	span.SetAttributes(attrs...)
}

// SetUsageAttributes sets usage report attributes on a span.
//
// Example:
//
//	SetUsageAttributes(span, 30, 142.50, 9100, 4)
func SetUsageAttributes(span trace.Span, windowDays int, totalCost float64, requests int64, modelCount int) {
	span.SetAttributes(
		attribute.Int(AttrWindowDays, windowDays),
		attribute.Float64(AttrCost, totalCost),
		attribute.String(AttrCostCurrency, "USD"),
		attribute.Int64(AttrRequests, requests),
		attribute.Int(AttrModelCount, modelCount),
	)
}

// SetTokenAttributes sets token count attributes on a span.
//
// Example:
//
//	SetTokenAttributes(span, 1500, 500)
func SetTokenAttributes(span trace.Span, inputTokens, outputTokens int64) {
	span.SetAttributes(
		attribute.Int64(AttrTokensInput, inputTokens),
		attribute.Int64(AttrTokensOutput, outputTokens),
		attribute.Int64(AttrTokensTotal, inputTokens+outputTokens),
	)
}

// SetCacheAttributes sets cache-related attributes on a span.
//
// Example:
//
//	SetCacheAttributes(span, true, "usage:openai:30")
func SetCacheAttributes(span trace.Span, hit bool, key string) {
	span.SetAttributes(
		attribute.Bool(AttrCacheHit, hit),
		attribute.String(AttrCacheKey, key),
	)
}

// SetRateLimitedAttribute marks the span as rate limited.
// Rate-limited fetches are not failures, so this sets an attribute
// rather than an error status.
func SetRateLimitedAttribute(span trace.Span) {
	span.SetAttributes(attribute.Bool(AttrRateLimited, true))
}

// SetSyncAttributes sets the sync cycle kind on a span.
//
// Example:
//
//	SetSyncAttributes(span, "usage")
func SetSyncAttributes(span trace.Span, kind string) {
	span.SetAttributes(attribute.String(AttrSyncKind, kind))
}

// SetErrorAttributes sets error-related attributes on a span.
// This also records the error using span.RecordError() and sets the span status.
//
// Example:
//
//	SetErrorAttributes(span, err, "fetch")
func SetErrorAttributes(span trace.Span, err error, errorType string) {
	if err == nil {
		return
	}

	span.SetAttributes(
		attribute.Bool("error", true),
		attribute.String(AttrErrorType, errorType),
		attribute.String(AttrErrorMessage, err.Error()),
	)

	// Record error and set status
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetDurationAttribute sets the duration attribute on a span.
// Duration is recorded in milliseconds.
//
// Example:
//
//	start := time.Now()
//	// ... do work ...
//	SetDurationAttribute(span, time.Since(start).Milliseconds())
func SetDurationAttribute(span trace.Span, durationMs int64) {
	span.SetAttributes(attribute.Int64(AttrDuration, durationMs))
}

// SetRetryAttribute sets the retry count attribute on a span.
//
// Example:
//
//	SetRetryAttribute(span, 2)
func SetRetryAttribute(span trace.Span, retryCount int) {
	span.SetAttributes(attribute.Int(AttrRetryCount, retryCount))
}

// AddEvent adds a named event to the span with optional attributes.
// Events represent interesting points in the span's lifetime.
//
// Example:
//
//	AddEvent(span, "cache_fallback",
//	    attribute.String("provider", "openai"),
//	)
func AddEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// RecordException records an exception event on the span.
// This is a convenience wrapper around span.RecordError for errors.
//
// Example:
//
//	RecordException(span, err)
func RecordException(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
	}
}

// AttributeBuilder provides a fluent interface for building span attributes.
type AttributeBuilder struct {
	attrs []attribute.KeyValue
}

// NewAttributeBuilder creates a new attribute builder.
func NewAttributeBuilder() *AttributeBuilder {
	return &AttributeBuilder{
		attrs: make([]attribute.KeyValue, 0, 10),
	}
}

// WithProvider adds the provider attribute.
func (ab *AttributeBuilder) WithProvider(provider string) *AttributeBuilder {
	ab.attrs = append(ab.attrs, attribute.String(AttrProvider, provider))
	return ab
}

// WithFetch adds provider and fetch kind attributes.
func (ab *AttributeBuilder) WithFetch(provider, kind string) *AttributeBuilder {
	ab.attrs = append(ab.attrs,
		attribute.String(AttrProvider, provider),
		attribute.String(AttrFetchKind, kind),
	)
	return ab
}

// WithWindow adds the usage window attribute.
func (ab *AttributeBuilder) WithWindow(days int) *AttributeBuilder {
	ab.attrs = append(ab.attrs, attribute.Int(AttrWindowDays, days))
	return ab
}

// WithUsage adds usage report attributes.
func (ab *AttributeBuilder) WithUsage(totalCost float64, requests, tokens int64) *AttributeBuilder {
	ab.attrs = append(ab.attrs,
		attribute.Float64(AttrCost, totalCost),
		attribute.String(AttrCostCurrency, "USD"),
		attribute.Int64(AttrRequests, requests),
		attribute.Int64(AttrTokensTotal, tokens),
	)
	return ab
}

// WithCache adds cache attributes.
func (ab *AttributeBuilder) WithCache(hit bool, key string) *AttributeBuilder {
	ab.attrs = append(ab.attrs,
		attribute.Bool(AttrCacheHit, hit),
		attribute.String(AttrCacheKey, key),
	)
	return ab
}

// WithSync adds the sync kind attribute.
func (ab *AttributeBuilder) WithSync(kind string) *AttributeBuilder {
	ab.attrs = append(ab.attrs, attribute.String(AttrSyncKind, kind))
	return ab
}

// WithCustom adds a custom attribute.
func (ab *AttributeBuilder) WithCustom(key string, value interface{}) *AttributeBuilder {
	switch v := value.(type) {
	case string:
		ab.attrs = append(ab.attrs, attribute.String(key, v))
	case int:
		ab.attrs = append(ab.attrs, attribute.Int(key, v))
	case int64:
		ab.attrs = append(ab.attrs, attribute.Int64(key, v))
	case float64:
		ab.attrs = append(ab.attrs, attribute.Float64(key, v))
	case bool:
		ab.attrs = append(ab.attrs, attribute.Bool(key, v))
	default:
		// Fall back to string representation
		ab.attrs = append(ab.attrs, attribute.String(key, fmt.Sprintf("%v", v)))
	}
	return ab
}

// Build returns the built attributes as a trace.SpanStartOption.
func (ab *AttributeBuilder) Build() trace.SpanStartOption {
	return trace.WithAttributes(ab.attrs...)
}

// Apply applies the attributes to a span.
func (ab *AttributeBuilder) Apply(span trace.Span) {
	span.SetAttributes(ab.attrs...)
}

// Attributes returns the raw attribute slice.
func (ab *AttributeBuilder) Attributes() []attribute.KeyValue {
	return ab.attrs
}
