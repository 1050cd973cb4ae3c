package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix is the prefix of all environment overrides.
const EnvPrefix = "REMOVALSCAN_"

// Environment variable names.
const (
	EnvStore       = EnvPrefix + "STORE"
	EnvHistoryDir  = EnvPrefix + "HISTORY_DIR"
	EnvExportDir   = EnvPrefix + "EXPORT_DIR"
	EnvConfigFile  = EnvPrefix + "CONFIG"
	EnvDelay       = EnvPrefix + "DELAY"
	EnvTimeout     = EnvPrefix + "TIMEOUT"
	EnvUserAgent   = EnvPrefix + "USER_AGENT"
	EnvConcurrency = EnvPrefix + "CONCURRENCY"
	EnvListenAddr  = EnvPrefix + "LISTEN"
)

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding variables that are already set.
// With no arguments it loads ".env" in the current directory.
// Missing files are not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from the process environment.
func (c *Config) ApplyEnv() error {
	return c.applyEnv(os.LookupEnv)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		EnvStore:      &c.StorePath,
		EnvHistoryDir: &c.HistoryDir,
		EnvExportDir:  &c.ExportDir,
		EnvConfigFile: &c.ConfigFilePath,
		EnvUserAgent:  &c.UserAgent,
		EnvListenAddr: &c.ListenAddr,
	}
	for name, field := range strs {
		if v, ok := lookup(name); ok {
			*field = v
		}
	}

	durations := map[string]*time.Duration{
		EnvDelay:   &c.Delay,
		EnvTimeout: &c.Timeout,
	}
	for name, field := range durations {
		v, ok := lookup(name)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidEnv, name, v)
		}
		*field = d
	}

	if v, ok := lookup(EnvConcurrency); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidEnv, EnvConcurrency, v)
		}
		c.Concurrency = n
	}
	return nil
}
