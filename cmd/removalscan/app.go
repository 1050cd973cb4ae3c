package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/removalscan/internal/config"
	"github.com/nao1215/removalscan/internal/crawler"
	applog "github.com/nao1215/removalscan/internal/log"
	"github.com/nao1215/removalscan/internal/source"
	"github.com/nao1215/removalscan/internal/store"
)

// loadConfig builds the configuration from defaults, the environment and
// the persistent flags, then loads the sources file.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	envFile, err := cmd.Flags().GetString("env-file")
	if err != nil {
		return nil, err
	}
	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if cfg.Verbose, err = cmd.Flags().GetBool("verbose"); err != nil {
		return nil, err
	}
	if cfg.JSONLogs, err = cmd.Flags().GetBool("json-logs"); err != nil {
		return nil, err
	}
	if err := stringFlag(cmd, "store", &cfg.StorePath); err != nil {
		return nil, err
	}
	if err := stringFlag(cmd, "config", &cfg.ConfigFilePath); err != nil {
		return nil, err
	}
	if err := stringFlag(cmd, "history-dir", &cfg.HistoryDir); err != nil {
		return nil, err
	}

	// An explicitly named sources file must exist; otherwise the defaults
	// are used when no file is found.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cfg.Sources, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load sources file %s: %w", configPath, err)
		}
		if ua := cfg.Sources.Defaults.UserAgent; ua != "" && cfg.UserAgent == config.DefaultUserAgent {
			cfg.UserAgent = ua
		}
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	return cfg, nil
}

// stringFlag copies a flag into dst when the user set it.
func stringFlag(cmd *cobra.Command, name string, dst *string) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// setupLogger creates the process logger and installs it as the default.
func setupLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	logger := applog.NewLogger(cmd.ErrOrStderr(), applog.Options{
		Verbose: cfg.Verbose,
		JSON:    cfg.JSONLogs,
	})
	slog.SetDefault(logger)
	return logger
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// buildRegistry creates the fetcher and the source registry, applying the
// sources file.
func buildRegistry(cfg *config.Config, logger *slog.Logger) (*source.Registry, error) {
	var headers map[string]string
	if cfg.Sources != nil {
		headers = cfg.Sources.Defaults.Headers
	}

	fetcher := crawler.NewHTTPFetcher(
		crawler.WithTimeout(cfg.Timeout),
		crawler.WithUserAgent(cfg.UserAgent),
		crawler.WithMaxBodySize(cfg.MaxBodySize),
		crawler.WithHeaders(headers),
		crawler.WithFetcherLogger(logger),
	)

	registry := source.NewDefaultRegistry(fetcher, source.WithLogger(logger))
	if err := registry.ApplyConfig(cfg.Sources); err != nil {
		return nil, fmt.Errorf("failed to apply sources file: %w", err)
	}
	return registry, nil
}

// selectSources returns the enabled sources, or the named ones when names
// is not empty. Named sources run even if disabled.
func selectSources(registry *source.Registry, names []string) ([]source.SourceConfig, error) {
	if len(names) == 0 {
		return registry.ListEnabled(), nil
	}
	out := make([]source.SourceConfig, 0, len(names))
	for _, name := range names {
		sc, ok := registry.Get(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", source.ErrUnknownSource, name)
		}
		out = append(out, sc)
	}
	return out, nil
}

// openStore returns the dataset store, reporting a clearer error when the
// path is unset.
func openStore(cfg *config.Config) (*store.FileStore, error) {
	if cfg.StorePath == "" {
		return nil, config.ErrNoStorePath
	}
	return store.NewFileStore(cfg.StorePath), nil
}

// errInvalidDataset is returned by validate when issues were found, so
// the process exits non-zero.
var errInvalidDataset = errors.New("dataset is invalid")
