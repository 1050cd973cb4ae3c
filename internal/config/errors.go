package config

import "errors"

// Configuration validation errors returned by Config.Validate and
// SourcesFile.Validate. Callers match them with errors.Is.
var (
	// ErrNoStorePath is returned when no dataset path is configured.
	ErrNoStorePath = errors.New("no store path specified: use --store or REMOVALSCAN_STORE")

	// ErrInvalidTimeout is returned when the fetch timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidDelay is returned when the delay between sources is negative.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")

	// ErrInvalidConcurrency is returned when concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidMaxBodySize is returned when the body size limit is not positive.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be positive")

	// ErrInvalidSource is returned for a malformed entry in the sources file.
	ErrInvalidSource = errors.New("invalid source")

	// ErrInvalidEnv is returned when an environment override cannot be parsed.
	ErrInvalidEnv = errors.New("invalid environment value")
)
