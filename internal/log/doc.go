// Package log builds the slog loggers used by removalscan.
//
// Source entries may carry request headers and endpoints with credentials
// in their query strings. The RedactingHandler masks such values before
// they reach the output, so logs can be shared when reporting a broken
// source.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, log.Options{Verbose: true})
//	logger.Warn("source failed", "source", "amnesty_usa", "url", endpoint)
//	slog.SetDefault(logger)
package log
