// Package config provides configuration loading and management for the report server.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/checho651/bfx-report/internal/registry"
	"github.com/checho651/bfx-report/internal/telemetry"
)

// EnvPrefix is the prefix of every environment variable read by the server.
const EnvPrefix = "BFX_REPORT"

const (
	// DefaultDatabasePath is where the store lives when database.path is empty
	DefaultDatabasePath = "./data/db-sqlite_sync_m0.db"

	// DefaultMaxOpenConns bounds the SQLite connection pool
	DefaultMaxOpenConns = 4

	// DefaultRemoteEndpoint is the authenticated REST API base URL
	DefaultRemoteEndpoint = "https://api.bitfinex.com"

	// DefaultPublicEndpoint is the public REST API base URL
	DefaultPublicEndpoint = "https://api-pub.bitfinex.com"

	// DefaultRemoteTimeout bounds a single remote request
	DefaultRemoteTimeout = 30 * time.Second

	// DefaultSyncInterval is the scheduler period
	DefaultSyncInterval = 2 * time.Minute

	// DefaultMaxConcurrentScopes bounds the scopes synced at the same time
	DefaultMaxConcurrentScopes = 4

	// DefaultExportDir is where export files are written
	DefaultExportDir = "./csv"

	// DefaultExportWorkers bounds the export jobs running at the same time
	DefaultExportWorkers = 2
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		// Validate the path to prevent path traversal attacks
		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	Database *DatabaseConfig `yaml:"database,omitempty"`
	Remote   *RemoteConfig   `yaml:"remote,omitempty"`
	Sync     *SyncConfig     `yaml:"sync,omitempty"`
	Export   *ExportConfig   `yaml:"export,omitempty"`
	Defaults *DefaultsConfig `yaml:"defaults,omitempty"`

	// FileNameLabels overrides export file labels, as [method, label] pairs.
	// It is kept raw: a malformed table is ignored, not rejected.
	FileNameLabels any `yaml:"fileNameLabels,omitempty"`

	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`
}

// DatabaseConfig defines the embedded store settings
type DatabaseConfig struct {
	// Path is the SQLite database file; ":memory:" keeps everything in RAM
	Path string `yaml:"path,omitempty"`

	// BusyTimeoutMS is how long a connection waits on a locked database
	BusyTimeoutMS int `yaml:"busyTimeoutMs,omitempty"`

	// MaxOpenConns is the maximum number of open connections to the database
	MaxOpenConns int `yaml:"maxOpenConns,omitempty"`
}

// GetPath returns the database path, using DefaultDatabasePath if not specified
func (d *DatabaseConfig) GetPath() string {
	if d == nil || d.Path == "" {
		return DefaultDatabasePath
	}
	return d.Path
}

// GetMaxOpenConns returns the pool size, using DefaultMaxOpenConns if not specified
func (d *DatabaseConfig) GetMaxOpenConns() int {
	if d == nil || d.MaxOpenConns <= 0 {
		return DefaultMaxOpenConns
	}
	return d.MaxOpenConns
}

// RemoteConfig defines the remote trading data API
type RemoteConfig struct {
	// Endpoint is the base URL of authenticated requests
	Endpoint string `yaml:"endpoint,omitempty"`

	// PublicEndpoint is the base URL of public requests
	PublicEndpoint string `yaml:"publicEndpoint,omitempty"`

	// Timeout bounds a single request (e.g., "30s")
	Timeout string `yaml:"timeout,omitempty"`
}

// GetEndpoint returns the authenticated endpoint
func (r *RemoteConfig) GetEndpoint() string {
	if r == nil || r.Endpoint == "" {
		return DefaultRemoteEndpoint
	}
	return r.Endpoint
}

// GetPublicEndpoint returns the public endpoint, falling back to Endpoint
// when only that one is configured.
func (r *RemoteConfig) GetPublicEndpoint() string {
	switch {
	case r == nil:
		return DefaultPublicEndpoint
	case r.PublicEndpoint != "":
		return r.PublicEndpoint
	case r.Endpoint != "":
		return r.Endpoint
	}
	return DefaultPublicEndpoint
}

// GetTimeout returns the request timeout
func (r *RemoteConfig) GetTimeout() time.Duration {
	if r == nil {
		return DefaultRemoteTimeout
	}
	return durationOr(r.Timeout, DefaultRemoteTimeout)
}

// SyncConfig defines synchronization settings
type SyncConfig struct {
	// Interval is the scheduler period (e.g., "2m")
	Interval string `yaml:"interval,omitempty"`

	// MaxConcurrentScopes bounds how many scopes sync in parallel
	MaxConcurrentScopes int `yaml:"maxConcurrentScopes,omitempty"`

	// CycleTimeout bounds one scope cycle; empty means no bound
	CycleTimeout string `yaml:"cycleTimeout,omitempty"`
}

// GetInterval returns the scheduler period
func (s *SyncConfig) GetInterval() time.Duration {
	if s == nil {
		return DefaultSyncInterval
	}
	return durationOr(s.Interval, DefaultSyncInterval)
}

// GetMaxConcurrentScopes returns the scope concurrency bound
func (s *SyncConfig) GetMaxConcurrentScopes() int {
	if s == nil || s.MaxConcurrentScopes <= 0 {
		return DefaultMaxConcurrentScopes
	}
	return s.MaxConcurrentScopes
}

// GetCycleTimeout returns the per-scope timeout, zero when unbounded
func (s *SyncConfig) GetCycleTimeout() time.Duration {
	if s == nil {
		return 0
	}
	return durationOr(s.CycleTimeout, 0)
}

// ExportConfig defines where and how export files are produced
type ExportConfig struct {
	Dir     string `yaml:"dir,omitempty"`
	Workers int    `yaml:"workers,omitempty"`
}

// GetDir returns the export directory
func (e *ExportConfig) GetDir() string {
	if e == nil || e.Dir == "" {
		return DefaultExportDir
	}
	return e.Dir
}

// GetWorkers returns the export worker pool size
func (e *ExportConfig) GetWorkers() int {
	if e == nil || e.Workers <= 0 {
		return DefaultExportWorkers
	}
	return e.Workers
}

// DefaultsConfig holds the values the toggles get the first time the
// store is created. Later changes go through the reporting methods.
type DefaultsConfig struct {
	SchedulerEnabled *bool `yaml:"schedulerEnabled,omitempty"`
	SyncModeOnline   *bool `yaml:"syncModeOnline,omitempty"`
}

// GetSchedulerEnabled defaults to true
func (d *DefaultsConfig) GetSchedulerEnabled() bool {
	if d == nil || d.SchedulerEnabled == nil {
		return true
	}
	return *d.SchedulerEnabled
}

// GetSyncModeOnline defaults to true
func (d *DefaultsConfig) GetSyncModeOnline() bool {
	if d == nil || d.SyncModeOnline == nil {
		return true
	}
	return *d.SyncModeOnline
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	// Read the entire file into memory
	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML content
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	// Validate the config
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns a configuration with every section at its default value
func Default() *Config {
	return &Config{}
}

// FileNameLabelOverrides returns the label overrides as pairs. A malformed
// table yields nil so the built-in labels stay in effect.
func (c *Config) FileNameLabelOverrides() [][2]string {
	if c == nil || c.FileNameLabels == nil {
		return nil
	}
	pairs, ok := registry.ParseOverrides(c.FileNameLabels)
	if !ok {
		slog.Warn("Ignoring malformed fileNameLabels, using the built-in export labels")
		return nil
	}
	if len(pairs) == 0 {
		return nil
	}
	return pairs
}

// Validate performs validation on the configuration
func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if c.Database != nil {
		if c.Database.BusyTimeoutMS < 0 {
			return fmt.Errorf("database.busyTimeoutMs must not be negative")
		}
		if c.Database.MaxOpenConns < 0 {
			return fmt.Errorf("database.maxOpenConns must not be negative")
		}
	}

	if err := validateRemote(c.Remote); err != nil {
		return err
	}

	if err := validateSync(c.Sync); err != nil {
		return err
	}

	if c.Export != nil && c.Export.Workers < 0 {
		return fmt.Errorf("export.workers must not be negative")
	}

	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}

	return nil
}

// validateRemote validates the remote API URLs and timeout
func validateRemote(r *RemoteConfig) error {
	if r == nil {
		return nil
	}
	for name, endpoint := range map[string]string{"endpoint": r.Endpoint, "publicEndpoint": r.PublicEndpoint} {
		if endpoint == "" {
			continue
		}
		u, err := url.Parse(endpoint)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("remote.%s must be an absolute URL, got %q", name, endpoint)
		}
	}
	if r.Timeout != "" {
		if _, err := time.ParseDuration(r.Timeout); err != nil {
			return fmt.Errorf("remote.timeout must be a valid duration (e.g., '30s'): %w", err)
		}
	}
	return nil
}

// validateSync validates the sync policy configuration
func validateSync(s *SyncConfig) error {
	if s == nil {
		return nil
	}
	if s.Interval != "" {
		d, err := time.ParseDuration(s.Interval)
		if err != nil {
			return fmt.Errorf("sync.interval must be a valid duration (e.g., '30m', '1h'): %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("sync.interval must be positive")
		}
	}
	if s.CycleTimeout != "" {
		if _, err := time.ParseDuration(s.CycleTimeout); err != nil {
			return fmt.Errorf("sync.cycleTimeout must be a valid duration: %w", err)
		}
	}
	if s.MaxConcurrentScopes < 0 {
		return fmt.Errorf("sync.maxConcurrentScopes must not be negative")
	}
	return nil
}

func durationOr(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}
