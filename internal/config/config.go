// Package config loads the searchsync configuration. Values are
// layered in order of increasing precedence: built-in defaults, a YAML
// file, then SEARCHSYNC_* environment variables. The merged result is
// validated before anything else sees it.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// EnvConfigPath overrides the config file location.
	EnvConfigPath = "SEARCHSYNC_CONFIG"

	localConfigYAML = "searchsync.yaml"
	localConfigYML  = "searchsync.yml"
	systemConfig    = "/etc/searchsync/config.yaml"
)

// Config is the complete searchsync configuration.
type Config struct {
	Log      LogConfig      `yaml:"log" json:"log"`
	Database DatabaseConfig `yaml:"database" json:"database"`
	Index    IndexConfig    `yaml:"index" json:"index"`
	Update   UpdateConfig   `yaml:"update" json:"update"`
	Metrics  MetricsConfig  `yaml:"metrics" json:"metrics"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" json:"level"`
	// File receives JSON log lines when set. Empty logs to stderr only.
	File string `yaml:"file" json:"file"`
	// Stderr keeps logging to stderr even when File is set.
	Stderr bool `yaml:"stderr" json:"stderr"`
}

// DatabaseConfig locates the primary SQLite database.
type DatabaseConfig struct {
	Path string `yaml:"path" json:"path"`
	// BusyTimeout is how long SQLite waits on a locked database,
	// as a duration string ("5s").
	BusyTimeout string `yaml:"busy_timeout" json:"busy_timeout"`
}

// IndexConfig selects and configures the search backend.
type IndexConfig struct {
	// Backend is "bleve" (embedded) or "meili" (external Meilisearch).
	Backend string      `yaml:"backend" json:"backend"`
	Bleve   BleveConfig `yaml:"bleve" json:"bleve"`
	Meili   MeiliConfig `yaml:"meili" json:"meili"`
}

// BleveConfig configures the embedded backend.
type BleveConfig struct {
	// Dir is the directory holding one bleve index per entity kind.
	Dir string `yaml:"dir" json:"dir"`
}

// MeiliConfig configures the Meilisearch backend.
type MeiliConfig struct {
	Host   string `yaml:"host" json:"host"`
	APIKey string `yaml:"api_key" json:"api_key"`
	// IndexPrefix namespaces index uids on a shared Meilisearch.
	IndexPrefix string `yaml:"index_prefix" json:"index_prefix"`
	Timeout     string `yaml:"timeout" json:"timeout"`
}

// UpdateConfig tunes the drain schedule.
type UpdateConfig struct {
	// Interval is the pause between drain cycles ("30s").
	Interval string `yaml:"interval" json:"interval"`
	// ChunkSize caps how many queue markers one sub-cycle consumes.
	ChunkSize int `yaml:"chunk_size" json:"chunk_size"`
	// LockFile extends the write lock across processes when set.
	LockFile string `yaml:"lock_file" json:"lock_file"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Listen is the address for /metrics ("127.0.0.1:9230").
	// Empty disables the endpoint.
	Listen string `yaml:"listen" json:"listen"`
}

// NewConfig returns the built-in defaults.
func NewConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Stderr: true,
		},
		Database: DatabaseConfig{
			Path:        "searchsync.db",
			BusyTimeout: "5s",
		},
		Index: IndexConfig{
			Backend: "bleve",
			Bleve:   BleveConfig{Dir: "index"},
			Meili: MeiliConfig{
				Host:    "http://127.0.0.1:7700",
				Timeout: "30s",
			},
		},
		Update: UpdateConfig{
			Interval:  "30s",
			ChunkSize: 5000,
		},
		Metrics: MetricsConfig{},
	}
}

// Load builds the effective configuration. An explicit path must
// exist; with an empty path the usual locations are probed and a
// missing file just means defaults.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	} else if found := FindConfigFile(); found != "" {
		if err := cfg.loadYAML(found); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// FindConfigFile returns the first config file that exists, or "".
// Probe order: $SEARCHSYNC_CONFIG, ./searchsync.yaml, ./searchsync.yml,
// /etc/searchsync/config.yaml.
func FindConfigFile() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	for _, p := range []string{localConfigYAML, localConfigYML, systemConfig} {
		if fileExists(p) {
			return p
		}
	}
	return ""
}

// loadYAML reads a config file and merges its non-zero values.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
	if other.Log.File != "" {
		c.Log.File = other.Log.File
		// Stderr only means something alongside a file; merging it
		// here keeps "stderr: false" from silencing file-less setups.
		c.Log.Stderr = other.Log.Stderr
	}

	if other.Database.Path != "" {
		c.Database.Path = other.Database.Path
	}
	if other.Database.BusyTimeout != "" {
		c.Database.BusyTimeout = other.Database.BusyTimeout
	}

	if other.Index.Backend != "" {
		c.Index.Backend = other.Index.Backend
	}
	if other.Index.Bleve.Dir != "" {
		c.Index.Bleve.Dir = other.Index.Bleve.Dir
	}
	if other.Index.Meili.Host != "" {
		c.Index.Meili.Host = other.Index.Meili.Host
	}
	if other.Index.Meili.APIKey != "" {
		c.Index.Meili.APIKey = other.Index.Meili.APIKey
	}
	if other.Index.Meili.IndexPrefix != "" {
		c.Index.Meili.IndexPrefix = other.Index.Meili.IndexPrefix
	}
	if other.Index.Meili.Timeout != "" {
		c.Index.Meili.Timeout = other.Index.Meili.Timeout
	}

	if other.Update.Interval != "" {
		c.Update.Interval = other.Update.Interval
	}
	if other.Update.ChunkSize != 0 {
		c.Update.ChunkSize = other.Update.ChunkSize
	}
	if other.Update.LockFile != "" {
		c.Update.LockFile = other.Update.LockFile
	}

	if other.Metrics.Listen != "" {
		c.Metrics.Listen = other.Metrics.Listen
	}
}

// applyEnvOverrides applies SEARCHSYNC_* environment variables. They
// win over every file; the API key in particular should come from the
// environment rather than a file on disk.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SEARCHSYNC_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("SEARCHSYNC_LOG_FILE"); v != "" {
		c.Log.File = v
	}
	if v := os.Getenv("SEARCHSYNC_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("SEARCHSYNC_INDEX_BACKEND"); v != "" {
		c.Index.Backend = v
	}
	if v := os.Getenv("SEARCHSYNC_BLEVE_DIR"); v != "" {
		c.Index.Bleve.Dir = v
	}
	if v := os.Getenv("SEARCHSYNC_MEILI_HOST"); v != "" {
		c.Index.Meili.Host = v
	}
	if v := os.Getenv("SEARCHSYNC_MEILI_API_KEY"); v != "" {
		c.Index.Meili.APIKey = v
	}
	if v := os.Getenv("SEARCHSYNC_MEILI_INDEX_PREFIX"); v != "" {
		c.Index.Meili.IndexPrefix = v
	}
	if v := os.Getenv("SEARCHSYNC_UPDATE_INTERVAL"); v != "" {
		c.Update.Interval = v
	}
	if v := os.Getenv("SEARCHSYNC_CHUNK_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Update.ChunkSize = n
		}
	}
	if v := os.Getenv("SEARCHSYNC_LOCK_FILE"); v != "" {
		c.Update.LockFile = v
	}
	if v := os.Getenv("SEARCHSYNC_METRICS_LISTEN"); v != "" {
		c.Metrics.Listen = v
	}
}

// Validate checks the merged configuration.
func (c *Config) Validate() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("log.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Log.Level)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if _, err := c.BusyTimeout(); err != nil {
		return err
	}

	switch strings.ToLower(c.Index.Backend) {
	case "bleve":
	case "meili":
		if c.Index.Meili.Host == "" {
			return fmt.Errorf("index.meili.host must be set for the meili backend")
		}
		if _, err := c.MeiliTimeout(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("index.backend must be 'bleve' or 'meili', got %s", c.Index.Backend)
	}

	interval, err := c.UpdateInterval()
	if err != nil {
		return err
	}
	if interval <= 0 {
		return fmt.Errorf("update.interval must be positive, got %q", c.Update.Interval)
	}
	if c.Update.ChunkSize <= 0 {
		return fmt.Errorf("update.chunk_size must be positive, got %d", c.Update.ChunkSize)
	}

	return nil
}

// UpdateInterval parses update.interval.
func (c *Config) UpdateInterval() (time.Duration, error) {
	return parseDuration("update.interval", c.Update.Interval)
}

// BusyTimeout parses database.busy_timeout.
func (c *Config) BusyTimeout() (time.Duration, error) {
	return parseDuration("database.busy_timeout", c.Database.BusyTimeout)
}

// MeiliTimeout parses index.meili.timeout.
func (c *Config) MeiliTimeout() (time.Duration, error) {
	return parseDuration("index.meili.timeout", c.Index.Meili.Timeout)
}

func parseDuration(key, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s is not a duration: %q", key, value)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %s", key, value)
	}
	return d, nil
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
