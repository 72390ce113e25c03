package logging

import (
	"fmt"
	"regexp"
	"strings"
)

// Redactor removes provider credentials from log attributes. The
// monitor handles API keys for every configured provider, and a key
// leaked into a log line is as compromised as one leaked anywhere
// else, so redaction is on by default and applies both by key name
// (api_key, token, ...) and by value shape (sk-..., Bearer ...).
type Redactor struct {
	patterns []*credentialPattern
}

type credentialPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// NewRedactor builds a redactor with the built-in credential patterns.
func NewRedactor() *Redactor {
	return &Redactor{
		patterns: []*credentialPattern{
			// OpenAI / Anthropic style keys (sk-..., sk-ant-...)
			{
				name:        "api_key",
				regex:       regexp.MustCompile(`sk-[A-Za-z0-9_-]{4,}`),
				replacement: "sk-***",
			},
			// Google API keys
			{
				name:        "google_key",
				regex:       regexp.MustCompile(`AIza[A-Za-z0-9_-]{10,}`),
				replacement: "AIza***",
			},
			// Authorization header values
			{
				name:        "bearer_token",
				regex:       regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9\-._~+/]+=*`),
				replacement: "Bearer ***",
			},
		},
	}
}

// Redact replaces credential-shaped substrings in value.
func (r *Redactor) Redact(value string) string {
	if value == "" {
		return value
	}
	for _, p := range r.patterns {
		value = p.regex.ReplaceAllString(value, p.replacement)
	}
	return value
}

// RedactArgs redacts alternating key/value log arguments: values under
// a sensitive key are masked entirely, and every string value is
// additionally scrubbed for credential shapes.
func (r *Redactor) RedactArgs(args ...any) []any {
	if len(args) == 0 {
		return args
	}

	redacted := make([]any, len(args))
	copy(redacted, args)

	for i := 1; i < len(redacted); i += 2 {
		if key, ok := redacted[i-1].(string); ok && isSensitiveKey(key) {
			redacted[i] = maskValue(redacted[i])
			continue
		}
		if s, ok := redacted[i].(string); ok {
			redacted[i] = r.Redact(s)
		}
	}

	return redacted
}

// isSensitiveKey reports whether an attribute key names a credential.
// Bare "key" is deliberately not matched; cache keys are logged under
// that name.
func isSensitiveKey(key string) bool {
	key = strings.ToLower(key)
	for _, sensitive := range []string{
		"api_key", "apikey", "api-key",
		"token", "secret", "password",
		"authorization", "credential",
	} {
		if strings.Contains(key, sensitive) {
			return true
		}
	}
	return false
}

// maskValue hides a sensitive value, keeping a short prefix of strings
// so an operator can tell which key was in play.
func maskValue(value any) any {
	switch v := value.(type) {
	case string:
		if v == "" {
			return ""
		}
		if len(v) <= 4 {
			return "***"
		}
		return v[:4] + "***"
	case fmt.Stringer:
		return "***"
	default:
		return "***"
	}
}

// RedactAPIKey masks an API key for display, keeping only a prefix.
func RedactAPIKey(key string) string {
	if len(key) <= 4 {
		return "***"
	}
	return key[:4] + "***"
}
