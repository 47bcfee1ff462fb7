package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/marmos91/nbcontents/pkg/backend"
	"github.com/marmos91/nbcontents/pkg/contents"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and environment
// variables to fill in any missing values.
//
// Default Strategy:
//   - Zero values (0, "", nil) are replaced with defaults
//   - Explicit values are preserved
//   - Backend-specific defaults are handled by the adapters themselves
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyServerDefaults(&cfg.Server)
	applyBackendDefaults(&cfg.Backend)
	applyContentsDefaults(&cfg.Contents)
	applyNotaryDefaults(&cfg.Notary)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.Listen == "" {
		cfg.Listen = ":8888"
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 60 * time.Second
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	if cfg.RateLimit.RequestsPerSecond > 0 && cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = cfg.RateLimit.RequestsPerSecond * 2
	}
}

// applyBackendDefaults sets the backend type and the per-type settings
// shown in a generated config file.
func applyBackendDefaults(cfg *BackendConfig) {
	if cfg.Type == "" {
		cfg.Type = "memory"
	}
	if cfg.KeepAlive < 0 {
		cfg.KeepAlive = 0
	}

	if cfg.Filesystem == nil {
		cfg.Filesystem = make(map[string]any)
	}
	if _, ok := cfg.Filesystem["root"]; !ok {
		cfg.Filesystem["root"] = filepath.Join(".", "notebooks")
	}

	if cfg.Badger == nil {
		cfg.Badger = make(map[string]any)
	}
	if _, ok := cfg.Badger["path"]; !ok {
		cfg.Badger["path"] = filepath.Join(getConfigDir(), "contents.db")
	}
}

func applyContentsDefaults(cfg *ContentsConfig) {
	if cfg.CheckpointLayout == "" {
		cfg.CheckpointLayout = "directory"
	}
	if cfg.CheckpointDir == "" {
		cfg.CheckpointDir = contents.DefaultCheckpointDir
	}
	if cfg.CheckpointPrefix == "" {
		cfg.CheckpointPrefix = contents.DefaultCheckpointPrefix
	}
	if cfg.HideGlobs == nil {
		cfg.HideGlobs = []string{}
	}

	if cfg.Untitled.File == "" {
		cfg.Untitled.File = contents.DefaultUntitledNames.File
	}
	if cfg.Untitled.Notebook == "" {
		cfg.Untitled.Notebook = contents.DefaultUntitledNames.Notebook
	}
	if cfg.Untitled.Directory == "" {
		cfg.Untitled.Directory = contents.DefaultUntitledNames.Directory
	}

	if cfg.CheckpointGC.Interval == 0 {
		cfg.CheckpointGC.Interval = 24 * time.Hour
	}
}

func applyNotaryDefaults(cfg *NotaryConfig) {
	if cfg.SecretFile == "" {
		cfg.SecretFile = filepath.Join(getConfigDir(), "notebook_secret")
	}
	// DBPath "" selects the in-process store
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{
		Backend: BackendConfig{
			KeepAlive: backend.DefaultKeepAlive,
		},
		Contents: ContentsConfig{
			HideGlobs: []string{"__pycache__", "*.pyc", "*.so", "*.dylib", "*~"},
		},
		Notary: NotaryConfig{
			Enabled: true,
			DBPath:  filepath.Join(getConfigDir(), "nbsignatures.db"),
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
