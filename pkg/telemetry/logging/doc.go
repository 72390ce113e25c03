// Package logging configures structured logging and credential
// redaction.
//
// # Overview
//
// Every component in this repo logs through log/slog. This package
// owns the setup: it builds the handler from configuration (level,
// json/text format, source locations) and installs it as the process
// default, so library code never imports it:
//
//	logger, err := logging.New(cfg.Telemetry.Logging, nil)
//	if err != nil {
//	    return err
//	}
//	logger.Install()
//
// # Credential redaction
//
// The monitor holds API keys for every configured provider. With
// RedactCredentials on (the default), attributes logged through the
// Logger are scrubbed two ways:
//
//   - sensitive key names (api_key, token, secret, ...) have their
//     values masked: sk-proj-abc123 → sk-p***
//   - string values anywhere are scrubbed for credential shapes:
//     "invalid key sk-abc123" → "invalid key sk-***"
//
// # Request context
//
// WithRequestID and WithProvider store request-scoped fields in a
// context; the *Context log methods and WithContext pull them back out
// as attributes. The server's middleware uses this to tie every log
// line of a request together.
package logging
