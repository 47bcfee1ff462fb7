package config

import (
	"strings"
	"testing"
)

func TestValidate_ValidConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	if err := Validate(cfg); err != nil {
		t.Errorf("Expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Level = "INVALID"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for invalid log level")
	}
	if !strings.Contains(err.Error(), "oneof") {
		t.Errorf("Expected 'oneof' validation error, got: %v", err)
	}
}

func TestValidate_InvalidLogFormat(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Format = "xml"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for invalid log format")
	}
}

func TestValidate_InvalidBackendType(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Backend.Type = "tape"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for invalid backend type")
	}
	if !strings.Contains(err.Error(), "Backend.Type") {
		t.Errorf("Expected error to name the field, got: %v", err)
	}
}

func TestValidate_NegativeKeepAlive(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Backend.KeepAlive = -1

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for negative keepalive")
	}
}

func TestValidate_InvalidCheckpointLayout(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Contents.CheckpointLayout = "sidecar"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for unknown checkpoint layout")
	}
}

func TestValidate_CheckpointDirWithSlash(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Contents.CheckpointDir = "a/b"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for a nested checkpoint dir")
	}
}

func TestValidate_InvalidHideGlob(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Contents.HideGlobs = []string{"[unterminated"}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for a malformed glob")
	}
	if !strings.Contains(err.Error(), "hide_globs") {
		t.Errorf("Expected hide_globs error, got: %v", err)
	}
}

func TestValidate_ObjectStoreRequiresBucket(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Backend.Type = "s3"
	cfg.Backend.S3 = map[string]any{"region": "eu-west-1"}

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for s3 without bucket")
	}

	cfg.Backend.Type = "minio"
	cfg.Backend.Minio = map[string]any{"bucket": "notebooks"}
	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for minio without endpoint")
	}
	if !strings.Contains(err.Error(), "endpoint") {
		t.Errorf("Expected endpoint error, got: %v", err)
	}
}

func TestValidate_MetricsPortRequiresMetrics(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Metrics.Port = 9090

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for a metrics port with metrics disabled")
	}

	cfg.Metrics.Enabled = true
	if err := Validate(cfg); err != nil {
		t.Errorf("Expected valid config, got: %v", err)
	}
}
