package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/marmos91/nbcontents/pkg/backend"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. NBCONTENTS_SERVER_LISTEN.
const EnvPrefix = "NBCONTENTS"

// Config represents the complete nbcontents configuration.
//
// Configuration is loaded from a YAML file and environment variables, with
// environment variables taking precedence:
//
//	NBCONTENTS_LOGGING_LEVEL=debug
//	NBCONTENTS_BACKEND_TYPE=badger
//	NBCONTENTS_SERVER_AUTH_TOKEN=secret
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Server contains the REST server settings
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// Backend selects and configures the storage backend
	Backend BackendConfig `mapstructure:"backend" yaml:"backend"`

	// Contents configures checkpoints, listings and untitled names
	Contents ContentsConfig `mapstructure:"contents" yaml:"contents"`

	// Notary configures notebook trust signatures
	Notary NotaryConfig `mapstructure:"notary" yaml:"notary"`

	// Metrics configures Prometheus instrumentation
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output.
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive)
	Level string `mapstructure:"level" yaml:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" yaml:"format" validate:"required,oneof=text json"`

	// Output specifies where logs are written: stdout, stderr, or a file path
	Output string `mapstructure:"output" yaml:"output" validate:"required"`
}

// ServerConfig contains REST server settings.
type ServerConfig struct {
	// Listen is the address of the REST API, e.g. ":8888".
	Listen string `mapstructure:"listen" yaml:"listen" validate:"required"`

	// AuthToken, when set, is required as "Authorization: token <t>" or
	// "Bearer <t>" on every API request.
	AuthToken string `mapstructure:"auth_token" yaml:"auth_token"`

	// RateLimit bounds requests per client address.
	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`

	// ReadTimeout and WriteTimeout bound a single request.
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout" validate:"gte=0"`

	// ShutdownTimeout is the maximum time to wait for in-flight requests
	// during graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"required,gt=0"`
}

// RateLimitConfig configures the per-client token bucket. Zero
// RequestsPerSecond disables limiting.
type RateLimitConfig struct {
	RequestsPerSecond uint `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Burst             uint `mapstructure:"burst" yaml:"burst"`
}

// BackendConfig specifies the storage backend.
//
// Only the section matching Type is used. Each section is decoded by the
// factory with mapstructure into the adapter's own Config.
type BackendConfig struct {
	// Type specifies which backend implementation to use
	// Valid values: memory, filesystem, badger, s3, minio
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=memory filesystem badger s3 minio"`

	// ReadOnly rejects every mutation regardless of the adapter settings.
	ReadOnly bool `mapstructure:"read_only" yaml:"read_only"`

	// KeepAlive is the interval between liveness probes. 0 disables them.
	KeepAlive time.Duration `mapstructure:"keepalive" yaml:"keepalive" validate:"gte=0"`

	Memory     map[string]any `mapstructure:"memory" yaml:"memory,omitempty"`
	Filesystem map[string]any `mapstructure:"filesystem" yaml:"filesystem,omitempty"`
	Badger     map[string]any `mapstructure:"badger" yaml:"badger,omitempty"`
	S3         map[string]any `mapstructure:"s3" yaml:"s3,omitempty"`
	Minio      map[string]any `mapstructure:"minio" yaml:"minio,omitempty"`
}

// ContentsConfig configures the contents manager.
type ContentsConfig struct {
	// CheckpointLayout selects "directory" ({dir}/.ipynb_checkpoints/...)
	// or "prefix" ({dir}/._checkpoint0_name).
	CheckpointLayout string `mapstructure:"checkpoint_layout" yaml:"checkpoint_layout" validate:"required,oneof=directory prefix"`

	// CheckpointDir is the subdirectory name used by the directory layout.
	CheckpointDir string `mapstructure:"checkpoint_dir" yaml:"checkpoint_dir" validate:"excludesall=/"`

	// CheckpointPrefix is the file name prefix used by the prefix layout.
	CheckpointPrefix string `mapstructure:"checkpoint_prefix" yaml:"checkpoint_prefix" validate:"excludesall=/"`

	// HideGlobs removes matching names from directory listings.
	HideGlobs []string `mapstructure:"hide_globs" yaml:"hide_globs"`

	// Untitled sets the base names of new untitled entries.
	Untitled UntitledConfig `mapstructure:"untitled" yaml:"untitled"`

	// CheckpointGC periodically deletes checkpoints whose document is gone.
	CheckpointGC CheckpointGCConfig `mapstructure:"checkpoint_gc" yaml:"checkpoint_gc"`
}

// CheckpointGCConfig configures the orphaned checkpoint collector.
type CheckpointGCConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Interval between collections.
	// Default: 24h
	Interval time.Duration `mapstructure:"interval" yaml:"interval" validate:"gte=0"`

	// DryRun only logs what would be deleted.
	DryRun bool `mapstructure:"dry_run" yaml:"dry_run"`
}

// UntitledConfig holds the base names used by the "new untitled" operation.
type UntitledConfig struct {
	File      string `mapstructure:"file" yaml:"file"`
	Notebook  string `mapstructure:"notebook" yaml:"notebook"`
	Directory string `mapstructure:"directory" yaml:"directory"`
}

// NotaryConfig configures notebook signatures.
type NotaryConfig struct {
	// Enabled turns on trust marking and signing.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Secret is the HMAC key. When empty, SecretFile is read, and when
	// that does not exist a new secret is generated and written there.
	Secret string `mapstructure:"secret" yaml:"secret,omitempty"`

	// SecretFile stores the generated secret.
	SecretFile string `mapstructure:"secret_file" yaml:"secret_file"`

	// DBPath is the SQLite signature database. ":memory:" keeps
	// signatures in RAM, "" uses a plain in-process map.
	DBPath string `mapstructure:"db_path" yaml:"db_path"`

	// MaxEntries bounds the signature table.
	MaxEntries int `mapstructure:"max_entries" yaml:"max_entries" validate:"gte=0"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	// Enabled registers collectors and exposes them.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port serves /metrics on a dedicated listener. 0 mounts /metrics on
	// the API router instead.
	Port int `mapstructure:"port" yaml:"port" validate:"gte=0,lte=65535"`
}

// envKeys lists the keys that can be overridden from the environment even
// when the config file does not mention them.
var envKeys = []string{
	"logging.level",
	"logging.format",
	"logging.output",
	"server.listen",
	"server.auth_token",
	"server.rate_limit.requests_per_second",
	"server.rate_limit.burst",
	"server.shutdown_timeout",
	"backend.type",
	"backend.read_only",
	"backend.keepalive",
	"contents.checkpoint_layout",
	"contents.checkpoint_gc.enabled",
	"contents.checkpoint_gc.interval",
	"notary.enabled",
	"notary.secret",
	"notary.secret_file",
	"notary.db_path",
	"metrics.enabled",
	"metrics.port",
}

// Load loads configuration from file, environment variables, and defaults.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (NBCONTENTS_*)
//  2. Configuration file (YAML)
//  3. Default values
//
// configPath may be empty, in which case $XDG_CONFIG_HOME/nbcontents/config.yaml
// is used when present.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}
	// Zero disables the keepalive, so its default cannot come from
	// ApplyDefaults.
	v.SetDefault("backend.keepalive", backend.DefaultKeepAlive)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the config file. A missing file in the default
// location is not an error; an explicit path that does not exist is.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "nbcontents")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "nbcontents")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// ConfigExists reports whether a config file exists at the default location.
func ConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}
