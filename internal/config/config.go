// Package config loads and persists the tradestat configuration under the
// data root's .tradestat directory.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/errors"
)

// ConfigDir is the directory under the data root holding config and state.
const ConfigDir = ".tradestat"

// Config is the complete tradestat configuration.
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	Store   StoreConfig   `json:"store" mapstructure:"store"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
	Batch   BatchConfig   `json:"batch" mapstructure:"batch"`
	Queue   QueueConfig   `json:"queue" mapstructure:"queue"`
	Export  ExportConfig  `json:"export" mapstructure:"export"`
}

// StoreConfig selects and parameterizes the version store backend.
type StoreConfig struct {
	Backend string `json:"backend" mapstructure:"backend"`
	Path    string `json:"path" mapstructure:"path"`
	DSN     string `json:"dsn" mapstructure:"dsn"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// BatchConfig contains local batch ingestion settings.
type BatchConfig struct {
	Workers   int `json:"workers" mapstructure:"workers"`
	QueueSize int `json:"queue_size" mapstructure:"queue_size"`
}

// QueueConfig contains Redis queue settings. An empty URL disables queueing.
type QueueConfig struct {
	URL  string `json:"url" mapstructure:"url"`
	Name string `json:"name" mapstructure:"name"`
}

// ExportConfig contains series export settings.
type ExportConfig struct {
	Dir      string `json:"dir" mapstructure:"dir"`
	Compress bool   `json:"compress" mapstructure:"compress"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Store: StoreConfig{
			Backend: "sqlite",
			Path:    filepath.Join(ConfigDir, "versions.db"),
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
		Batch: BatchConfig{
			Workers:   4,
			QueueSize: 100,
		},
		Queue: QueueConfig{
			Name: "tradestat:ingest",
		},
		Export: ExportConfig{
			Dir:      "exports",
			Compress: false,
		},
	}
}

// LoadConfig loads configuration from .tradestat/config.json under root, or
// from an explicit file when one is given. A missing implicit file yields
// the defaults; a missing explicit file is an error.
func LoadConfig(root, file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("json")
		v.AddConfigPath(filepath.Join(root, ConfigDir))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && file == "" {
			return DefaultConfig(), nil
		}
		return nil, errors.New(errors.ConfigInvalid, "failed to read config", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.New(errors.ConfigInvalid, "failed to parse config", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := DefaultConfig()
	v.SetDefault("version", def.Version)
	v.SetDefault("store.backend", def.Store.Backend)
	v.SetDefault("store.path", def.Store.Path)
	v.SetDefault("store.dsn", def.Store.DSN)
	v.SetDefault("logging.format", def.Logging.Format)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("batch.workers", def.Batch.Workers)
	v.SetDefault("batch.queue_size", def.Batch.QueueSize)
	v.SetDefault("queue.url", def.Queue.URL)
	v.SetDefault("queue.name", def.Queue.Name)
	v.SetDefault("export.dir", def.Export.Dir)
	v.SetDefault("export.compress", def.Export.Compress)
}

// Save writes the configuration to .tradestat/config.json under root.
func (c *Config) Save(root string) error {
	dir := filepath.Join(root, ConfigDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.New(errors.ConfigInvalid, "failed to create config directory", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New(errors.ConfigInvalid, "failed to encode config", err)
	}
	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Version != 1 {
		return errors.New(errors.ConfigInvalid,
			fmt.Sprintf("unsupported config version %d", c.Version), nil)
	}

	switch c.Store.Backend {
	case "sqlite":
		if c.Store.Path == "" {
			return errors.New(errors.ConfigInvalid, "store.path is required for the sqlite backend", nil)
		}
	case "postgres":
		if c.Store.DSN == "" {
			return errors.New(errors.ConfigInvalid, "store.dsn is required for the postgres backend", nil)
		}
	case "memory":
	default:
		return errors.New(errors.ConfigInvalid,
			fmt.Sprintf("unknown store backend %q", c.Store.Backend), nil)
	}

	switch c.Logging.Format {
	case "human", "json":
	default:
		return errors.New(errors.ConfigInvalid,
			fmt.Sprintf("unknown logging format %q", c.Logging.Format), nil)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.New(errors.ConfigInvalid,
			fmt.Sprintf("unknown logging level %q", c.Logging.Level), nil)
	}

	if c.Batch.Workers < 0 {
		return errors.New(errors.ConfigInvalid, "batch.workers must not be negative", nil)
	}
	if c.Batch.QueueSize < 0 {
		return errors.New(errors.ConfigInvalid, "batch.queue_size must not be negative", nil)
	}
	return nil
}

// StorePath resolves the sqlite store path against the data root.
func (c *Config) StorePath(root string) string {
	if filepath.IsAbs(c.Store.Path) {
		return c.Store.Path
	}
	return filepath.Join(root, c.Store.Path)
}

// ExportDir resolves the export directory against the data root.
func (c *Config) ExportDir(root string) string {
	if filepath.IsAbs(c.Export.Dir) {
		return c.Export.Dir
	}
	return filepath.Join(root, c.Export.Dir)
}
