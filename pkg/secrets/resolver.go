package secrets

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"mercator-hq/ganymede/pkg/config"
)

const (
	// SchemeEnv marks a value resolved from an environment variable,
	// e.g. "env://OPENAI_API_KEY".
	SchemeEnv = "env://"

	// SchemeFile marks a value resolved from a file's contents,
	// e.g. "file:///run/secrets/openai-api-key".
	SchemeFile = "file://"
)

// IsReference reports whether a configuration value is a secret
// reference rather than a literal credential.
func IsReference(value string) bool {
	return strings.HasPrefix(value, SchemeEnv) || strings.HasPrefix(value, SchemeFile)
}

// Resolver resolves env:// and file:// secret references from provider
// configuration. Successful resolutions are cached with a TTL so key
// files are not re-read on every provider construction; literals pass
// through untouched and are never cached.
type Resolver struct {
	cache *cache
}

// NewResolver creates a resolver with cache settings from configuration.
func NewResolver(cfg config.SecretsConfig) *Resolver {
	return &Resolver{
		cache: newCache(cfg.CacheTTL, cfg.CacheMaxSize),
	}
}

// Resolve returns the secret a reference points at. Non-reference values
// (including the empty string) are returned unchanged, so callers can
// pass every configured credential through without checking first.
func (r *Resolver) Resolve(value string) (string, error) {
	if !IsReference(value) {
		return value, nil
	}

	if cached, ok := r.cache.get(value); ok {
		return cached, nil
	}

	resolved, err := r.resolveReference(value)
	if err != nil {
		return "", err
	}

	r.cache.set(value, resolved)
	return resolved, nil
}

// Flush drops all cached resolutions, forcing re-resolution on next use.
// Called after secret rotation.
func (r *Resolver) Flush() {
	r.cache.clear()
}

// resolveReference performs the actual lookup. The resolved value is
// never logged.
func (r *Resolver) resolveReference(ref string) (string, error) {
	switch {
	case strings.HasPrefix(ref, SchemeEnv):
		name := strings.TrimPrefix(ref, SchemeEnv)
		if name == "" {
			return "", fmt.Errorf("secret reference %q has no variable name", ref)
		}
		value := os.Getenv(name)
		if value == "" {
			return "", fmt.Errorf("environment variable %s is not set", name)
		}
		slog.Debug("secret resolved", "source", "env", "ref", ref)
		return value, nil

	case strings.HasPrefix(ref, SchemeFile):
		path := strings.TrimPrefix(ref, SchemeFile)
		if path == "" {
			return "", fmt.Errorf("secret reference %q has no path", ref)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading secret file: %w", err)
		}
		// Key files routinely end with a newline
		value := strings.TrimSpace(string(data))
		if value == "" {
			return "", fmt.Errorf("secret file %s is empty", path)
		}
		slog.Debug("secret resolved", "source", "file", "ref", ref)
		return value, nil
	}

	return "", fmt.Errorf("unsupported secret reference scheme in %q", ref)
}
