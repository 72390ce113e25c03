// Package secrets resolves indirect credential references in provider
// configuration.
//
// Instead of embedding API keys in the config file, a credential field
// may hold a reference:
//
//	providers:
//	  openai:
//	    api_key: env://OPENAI_ADMIN_KEY
//	  anthropic:
//	    api_key: file:///run/secrets/anthropic-admin-key
//
// env:// reads an environment variable; file:// reads a file and trims
// surrounding whitespace (key files routinely end with a newline).
// Values without a recognized scheme are treated as literal credentials
// and pass through unchanged.
//
// Successful resolutions are cached with a TTL so key files are not
// re-read on every use; Flush clears the cache after rotation. Resolved
// values are never logged.
package secrets
