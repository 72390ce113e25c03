// Package providerfactory builds provider adapters from configuration.
// It maps each configured provider entry to the right adapter package,
// resolving secret references in credentials on the way.
package providerfactory

import (
	"fmt"
	"log/slog"
	"strings"

	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/providers"
	"mercator-hq/ganymede/pkg/providers/anthropic"
	"mercator-hq/ganymede/pkg/providers/google"
	"mercator-hq/ganymede/pkg/providers/ollama"
	"mercator-hq/ganymede/pkg/providers/openai"
	"mercator-hq/ganymede/pkg/secrets"
)

// New creates the provider adapter for one configured provider.
//
// Supported provider types:
//   - "openai": OpenAI organization usage and costs
//   - "anthropic": Anthropic usage and cost reports
//   - "google": Gemini API usage (tokens only; cost is derived)
//   - "ollama": local Ollama daemon (connectivity only, no billing)
//
// The adapter type comes from cfg.Type; when empty it is inferred from
// the provider name. The API key is passed through resolver, so env://
// and file:// references resolve here and the adapter only ever sees
// the final credential. A missing key is not an error: hosted adapters
// construct as unconfigured and report that through IsConfigured.
//
// Example:
//
//	provider, err := providerfactory.New("openai", config.ProviderConfig{
//	    APIKey: "env://OPENAI_ADMIN_KEY",
//	}, resolver)
//	if err != nil {
//	    return err
//	}
//	defer provider.Close()
func New(name string, cfg config.ProviderConfig, resolver *secrets.Resolver) (providers.Provider, error) {
	providerType := cfg.Type
	if providerType == "" {
		providerType = inferProviderType(name)
	}
	if providerType == "" {
		return nil, &providers.ConfigError{
			Provider: name,
			Field:    "type",
			Message:  "cannot infer provider type from name; set type to one of openai, anthropic, google, ollama",
		}
	}

	apiKey := cfg.APIKey
	if resolver != nil {
		resolved, err := resolver.Resolve(cfg.APIKey)
		if err != nil {
			return nil, fmt.Errorf("resolving api key for provider %q: %w", name, err)
		}
		apiKey = resolved
	}

	slog.Debug("creating provider",
		"name", name,
		"type", providerType,
		"base_url", cfg.BaseURL,
	)

	providerConfig := providers.ProviderConfig{
		Name:           name,
		Type:           providerType,
		BaseURL:        cfg.BaseURL,
		APIKey:         apiKey,
		OrganizationID: cfg.OrganizationID,
		Timeout:        cfg.Timeout,
		MaxRetries:     cfg.MaxRetries,
	}

	var provider providers.Provider
	var err error

	switch providerType {
	case providers.ProviderOpenAI:
		provider, err = openai.NewProvider(providerConfig)

	case providers.ProviderAnthropic:
		provider, err = anthropic.NewProvider(providerConfig)

	case providers.ProviderGoogle:
		provider, err = google.NewProvider(providerConfig)

	case providers.ProviderOllama:
		provider, err = ollama.NewProvider(providerConfig)

	default:
		return nil, &providers.ConfigError{
			Provider: name,
			Field:    "type",
			Message:  fmt.Sprintf("unsupported provider type: %q (supported: openai, anthropic, google, ollama)", providerType),
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create provider %q: %w", name, err)
	}

	return provider, nil
}

// inferProviderType infers the adapter type from the provider name.
// Returns "" when the name matches no known provider.
func inferProviderType(name string) string {
	switch strings.ToLower(name) {
	case "openai":
		return providers.ProviderOpenAI
	case "anthropic", "claude":
		return providers.ProviderAnthropic
	case "google", "gemini":
		return providers.ProviderGoogle
	case "ollama":
		return providers.ProviderOllama
	default:
		return ""
	}
}
