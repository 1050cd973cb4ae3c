package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "removalscan"

	// DefaultDelay is the pause between two sources in a run.
	// It bounds the request rate against upstream hosts.
	DefaultDelay = 1 * time.Second

	// DefaultTimeout bounds each fetch. A timeout is a normal source
	// failure, not a crash.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBodySize limits the response body size read per page.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultUserAgent identifies removalscan in HTTP requests.
	DefaultUserAgent = "Mozilla/5.0 (compatible; removalscan/1.0; +https://github.com/nao1215/removalscan)"

	// DefaultConcurrency of 1 runs sources one after another.
	DefaultConcurrency = 1

	// DefaultStoreFile is the file name of the persisted dataset.
	DefaultStoreFile = "removals.json"

	// DefaultExportDir is the directory name for exported reports.
	DefaultExportDir = "exports"

	// DefaultListenAddr is the address of the query API server.
	DefaultListenAddr = "127.0.0.1:8080"
)

// Config holds all configuration options for removalscan.
// It is populated from defaults, the environment and CLI flags, in that
// order, and passed explicitly to the components that need it.
type Config struct {
	// StorePath is the JSON file holding the merged dataset.
	StorePath string

	// HistoryDir is the directory of the SQLite run history database.
	// Empty disables run history.
	HistoryDir string

	// ExportDir is where export files are written when no explicit
	// output path is given.
	ExportDir string

	// ConfigFilePath is the path to the sources file.
	// If empty, FindConfigFile searches the usual locations.
	ConfigFilePath string

	// Sources holds the sources file, if one was loaded.
	Sources *SourcesFile

	// Delay is the pause between sources.
	Delay time.Duration

	// Timeout bounds each fetch.
	Timeout time.Duration

	// MaxBodySize is the maximum response body size in bytes.
	MaxBodySize int64

	// UserAgent is sent with every request.
	UserAgent string

	// Concurrency is the number of sources collected at once. Values above 1
	// share a rate limiter so the request cadence stays at one per Delay.
	Concurrency int

	// Verbose enables debug logging.
	Verbose bool

	// JSONLogs switches the log format from text to JSON.
	JSONLogs bool

	// MetricsFile, when set, receives a Prometheus textfile after a run.
	MetricsFile string

	// ListenAddr is the address of the query API server.
	ListenAddr string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		StorePath:   filepath.Join(XDGDataDir(), DefaultStoreFile),
		HistoryDir:  XDGDataDir(),
		ExportDir:   DefaultExportDir,
		Delay:       DefaultDelay,
		Timeout:     DefaultTimeout,
		MaxBodySize: DefaultMaxBodySize,
		UserAgent:   DefaultUserAgent,
		Concurrency: DefaultConcurrency,
		ListenAddr:  DefaultListenAddr,
	}
}

// XDGDataDir returns the XDG data directory for removalscan.
// On Linux: ~/.local/share/removalscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for removalscan.
// On Linux: ~/.config/removalscan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid and returns the first
// problem found.
func (c *Config) Validate() error {
	if c.StorePath == "" {
		return ErrNoStorePath
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Delay < 0 {
		return ErrInvalidDelay
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.MaxBodySize <= 0 {
		return ErrInvalidMaxBodySize
	}
	if c.Sources != nil {
		if err := c.Sources.Validate(); err != nil {
			return err
		}
	}
	return nil
}
