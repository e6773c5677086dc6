// Package log provides the slog handler used by wordfactor.
//
// SecureHandler wraps any slog.Handler and masks values that must not end up
// in logs: request headers such as Cookie and Authorization, tokens and keys
// detected by pattern, and the credentials or secret query parameters of URLs
// read from user-supplied URL lists.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
//	logger.Info("fetching", "url", "https://user:pw@example.com/?token=abc")
//	// url=https://example.com/?token=***REDACTED***
package log
