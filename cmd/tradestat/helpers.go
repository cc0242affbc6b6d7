package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/config"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/features"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/ingest"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/logging"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/store"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/watchlist"
)

// app bundles what every command needs once the global flags are resolved.
type app struct {
	Root   string
	Config *config.Config
	Logger *logging.Logger
}

// loadApp resolves the data root, loads and validates the config, and builds
// the logger. Precedence for logging settings: CLI flag > config > default.
func loadApp() (*app, error) {
	root := rootFlag
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		root = wd
	}

	cfg, err := config.LoadConfig(root, configFlag)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &app{Root: root, Config: cfg, Logger: buildLogger(cfg)}, nil
}

// openStore opens the configured version store backend.
func (a *app) openStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, a.Config.Store.Backend, a.Config.StorePath(a.Root), a.Config.Store.DSN, a.Logger)
}

// ingestService assembles the recording pipeline over an open store, gated by
// the feature catalog when one is present under the data root.
func (a *app) ingestService(st store.Store) (*ingest.Service, error) {
	catalog, err := features.LoadCatalog(a.Root)
	if err != nil {
		return nil, err
	}
	return ingest.NewService(st, catalog, a.Logger), nil
}

// loadWatchlist reads the watchlist file under the data root. A missing file
// yields an empty list bound to the default path.
func (a *app) loadWatchlist() (*watchlist.Watchlist, error) {
	return watchlist.Load(filepath.Join(a.Root, config.ConfigDir, watchlist.FileName))
}

func buildLogger(cfg *config.Config) *logging.Logger {
	if quietFlag {
		return logging.Discard()
	}

	format := cfg.Logging.Format
	if logFormatFlag != "" {
		format = logFormatFlag
	}
	level := cfg.Logging.Level
	if logLevelFlag != "" {
		level = logLevelFlag
	}

	logFormat := logging.HumanFormat
	if format == "json" {
		logFormat = logging.JSONFormat
	}
	return logging.NewLogger(logging.Config{
		Format: logFormat,
		Level:  logging.ParseLevel(level),
	})
}

// newContext creates a new context for command execution.
func newContext() context.Context {
	return context.Background()
}
