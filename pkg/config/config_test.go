package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoad_DefaultConfig(t *testing.T) {
	configPath := writeConfig(t, `
logging:
  level: "info"

backend:
  type: "memory"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected normalized level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Server.Listen != ":8888" {
		t.Errorf("Expected default listen ':8888', got %q", cfg.Server.Listen)
	}
	if cfg.Server.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown_timeout 30s, got %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Backend.KeepAlive != 60*time.Second {
		t.Errorf("Expected default keepalive 60s, got %v", cfg.Backend.KeepAlive)
	}
	if cfg.Contents.CheckpointLayout != "directory" {
		t.Errorf("Expected default checkpoint layout 'directory', got %q", cfg.Contents.CheckpointLayout)
	}
	if cfg.Contents.CheckpointDir != ".ipynb_checkpoints" {
		t.Errorf("Expected default checkpoint dir, got %q", cfg.Contents.CheckpointDir)
	}
}

func TestLoad_FullConfig(t *testing.T) {
	configPath := writeConfig(t, `
server:
  listen: "127.0.0.1:9999"
  auth_token: "s3cret"
  rate_limit:
    requests_per_second: 50
  shutdown_timeout: 5s

backend:
  type: "badger"
  keepalive: 0s
  badger:
    in_memory: true
    compression: true

contents:
  checkpoint_layout: prefix
  hide_globs: ["__pycache__", "*.pyc"]
  untitled:
    notebook: "Notebook"

notary:
  enabled: true
  db_path: ":memory:"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Listen != "127.0.0.1:9999" {
		t.Errorf("Expected listen address from file, got %q", cfg.Server.Listen)
	}
	if cfg.Server.AuthToken != "s3cret" {
		t.Errorf("Expected auth token from file, got %q", cfg.Server.AuthToken)
	}
	if cfg.Server.RateLimit.Burst != 100 {
		t.Errorf("Expected burst to default to twice the rate, got %d", cfg.Server.RateLimit.Burst)
	}
	if cfg.Server.ShutdownTimeout != 5*time.Second {
		t.Errorf("Expected shutdown timeout 5s, got %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Backend.KeepAlive != 0 {
		t.Errorf("Expected keepalive to stay disabled, got %v", cfg.Backend.KeepAlive)
	}
	if cfg.Backend.Badger["in_memory"] != true {
		t.Errorf("Expected badger options to be kept, got %v", cfg.Backend.Badger)
	}
	if cfg.Contents.CheckpointLayout != "prefix" {
		t.Errorf("Expected prefix layout, got %q", cfg.Contents.CheckpointLayout)
	}
	if len(cfg.Contents.HideGlobs) != 2 {
		t.Errorf("Expected 2 hide globs, got %v", cfg.Contents.HideGlobs)
	}
	if cfg.Contents.Untitled.Notebook != "Notebook" || cfg.Contents.Untitled.File != "untitled" {
		t.Errorf("Unexpected untitled names: %+v", cfg.Contents.Untitled)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	// Point the default location at an empty directory so the user's own
	// config is not picked up.
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Expected defaults when no config file exists, got error: %v", err)
	}
	if cfg.Backend.Type != "memory" {
		t.Errorf("Expected default backend 'memory', got %q", cfg.Backend.Type)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("Expected error for an explicit config path that does not exist")
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("NBCONTENTS_LOGGING_LEVEL", "debug")
	t.Setenv("NBCONTENTS_SERVER_LISTEN", ":7777")
	t.Setenv("NBCONTENTS_BACKEND_KEEPALIVE", "15s")
	t.Setenv("NBCONTENTS_NOTARY_ENABLED", "true")

	configPath := writeConfig(t, `
server:
  listen: ":1111"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected env level DEBUG, got %q", cfg.Logging.Level)
	}
	if cfg.Server.Listen != ":7777" {
		t.Errorf("Expected env listen to win over file, got %q", cfg.Server.Listen)
	}
	if cfg.Backend.KeepAlive != 15*time.Second {
		t.Errorf("Expected env keepalive 15s, got %v", cfg.Backend.KeepAlive)
	}
	if !cfg.Notary.Enabled {
		t.Error("Expected env to enable the notary")
	}
}

func TestLoad_InvalidConfig(t *testing.T) {
	configPath := writeConfig(t, `
backend:
  type: "floppy"
`)

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected validation error for unknown backend type")
	}
}

func TestGetDefaultConfigPath(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	want := filepath.Join(xdg, "nbcontents", "config.yaml")
	if got := GetDefaultConfigPath(); got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
	if ConfigExists() {
		t.Error("Expected no config in a fresh directory")
	}
}

func TestWatch_ReloadsOnChange(t *testing.T) {
	configPath := writeConfig(t, "logging:\n  level: info\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, configPath, func(cfg *Config) { reloaded <- cfg })
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(configPath, []byte("logging:\n  level: warn\n"), 0644); err != nil {
		t.Fatalf("Failed to rewrite config: %v", err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Logging.Level != "WARN" {
			t.Errorf("Expected reloaded level WARN, got %q", cfg.Logging.Level)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for config reload")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch returned error: %v", err)
	}
}

func TestWatch_RequiresPath(t *testing.T) {
	if err := Watch(context.Background(), "", func(*Config) {}); err == nil {
		t.Fatal("Expected error for empty path")
	}
}
