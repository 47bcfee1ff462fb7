package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marmos91/nbcontents/pkg/backend"
	"github.com/marmos91/nbcontents/pkg/contents"
	"github.com/marmos91/nbcontents/pkg/metrics"
)

func TestCreateBackend_Memory(t *testing.T) {
	h, err := CreateBackend(context.Background(), &BackendConfig{Type: "memory"}, nil)
	if err != nil {
		t.Fatalf("Failed to create memory backend: %v", err)
	}
	defer h.Close()

	if err := h.Mkdir(context.Background(), "/work"); err != nil {
		t.Errorf("Expected writable backend, got: %v", err)
	}
}

func TestCreateBackend_ReadOnlyOverride(t *testing.T) {
	h, err := CreateBackend(context.Background(), &BackendConfig{Type: "memory", ReadOnly: true}, nil)
	if err != nil {
		t.Fatalf("Failed to create memory backend: %v", err)
	}
	defer h.Close()

	err = h.Mkdir(context.Background(), "/work")
	if !errors.Is(err, backend.ErrReadOnly) {
		t.Errorf("Expected read-only error, got: %v", err)
	}
}

func TestCreateBackend_Filesystem(t *testing.T) {
	root := filepath.Join(t.TempDir(), "notebooks")
	cfg := &BackendConfig{
		Type:       "filesystem",
		Filesystem: map[string]any{"root": root},
	}

	h, err := CreateBackend(context.Background(), cfg, metrics.NewNoopBackendMetrics())
	if err != nil {
		t.Fatalf("Failed to create filesystem backend: %v", err)
	}
	defer h.Close()

	ctx := context.Background()
	if err := h.Write(ctx, "/hello.txt", []byte("hi"), backend.WriteOptions{}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(root, "hello.txt"))
	if err != nil {
		t.Fatalf("Expected file on disk: %v", err)
	}
	if string(data) != "hi" {
		t.Errorf("Expected 'hi', got %q", data)
	}
}

func TestCreateBackend_FilesystemMissingRoot(t *testing.T) {
	cfg := &BackendConfig{Type: "filesystem", Filesystem: map[string]any{}}

	_, err := CreateBackend(context.Background(), cfg, nil)
	if err == nil {
		t.Fatal("Expected error for missing root")
	}
	if !strings.Contains(err.Error(), "root is required") {
		t.Errorf("Expected 'root is required' error, got: %v", err)
	}
}

func TestCreateBackend_Badger(t *testing.T) {
	cfg := &BackendConfig{
		Type:   "badger",
		Badger: map[string]any{"in_memory": true, "compression": "true"},
	}

	h, err := CreateBackend(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Failed to create badger backend: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestCreateBackend_BadgerOnDisk(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	cfg := &BackendConfig{Type: "badger", Badger: map[string]any{"path": dir}}

	h, err := CreateBackend(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Failed to create badger backend: %v", err)
	}
	defer h.Close()

	if _, err := os.Stat(dir); err != nil {
		t.Errorf("Expected database directory to exist: %v", err)
	}
}

func TestCreateBackend_ObjectStoresRequireBucket(t *testing.T) {
	for _, typ := range []string{"s3", "minio"} {
		cfg := &BackendConfig{Type: typ}
		if _, err := CreateBackend(context.Background(), cfg, nil); err == nil {
			t.Errorf("%s: expected error without bucket", typ)
		}
	}
}

func TestCreateBackend_UnknownType(t *testing.T) {
	_, err := CreateBackend(context.Background(), &BackendConfig{Type: "tape"}, nil)
	if err == nil {
		t.Fatal("Expected error for unknown backend type")
	}
	if !strings.Contains(err.Error(), "unknown backend type") {
		t.Errorf("Expected 'unknown backend type' error, got: %v", err)
	}
}

func TestCreateNotary_Disabled(t *testing.T) {
	notary, err := CreateNotary(&NotaryConfig{})
	if err != nil {
		t.Fatalf("CreateNotary failed: %v", err)
	}
	if notary != nil {
		t.Error("Expected nil notary when disabled")
	}
}

func TestCreateNotary_GeneratesAndReusesSecret(t *testing.T) {
	secretFile := filepath.Join(t.TempDir(), "nbcontents", "notebook_secret")
	cfg := &NotaryConfig{Enabled: true, SecretFile: secretFile}

	first, err := CreateNotary(cfg)
	if err != nil {
		t.Fatalf("CreateNotary failed: %v", err)
	}
	defer first.Close()

	written, err := os.ReadFile(secretFile)
	if err != nil {
		t.Fatalf("Expected secret file to be written: %v", err)
	}

	second, err := CreateNotary(cfg)
	if err != nil {
		t.Fatalf("Second CreateNotary failed: %v", err)
	}
	defer second.Close()

	again, err := os.ReadFile(secretFile)
	if err != nil {
		t.Fatalf("Failed to re-read secret: %v", err)
	}
	if string(written) != string(again) {
		t.Error("Expected the existing secret to be reused")
	}
}

func TestCreateNotary_SQLite(t *testing.T) {
	dir := t.TempDir()
	cfg := &NotaryConfig{
		Enabled: true,
		Secret:  "fixed",
		DBPath:  filepath.Join(dir, "sigs", "nbsignatures.db"),
	}

	notary, err := CreateNotary(cfg)
	if err != nil {
		t.Fatalf("CreateNotary failed: %v", err)
	}
	defer notary.Close()

	if _, err := os.Stat(cfg.DBPath); err != nil {
		t.Errorf("Expected signature database to be created: %v", err)
	}
}

func TestManagerOptions_PrefixLayout(t *testing.T) {
	cfg := &ContentsConfig{CheckpointLayout: "prefix", CheckpointPrefix: ".ckpt"}

	opts, err := ManagerOptions(cfg, nil, nil)
	if err != nil {
		t.Fatalf("ManagerOptions failed: %v", err)
	}

	h, err := CreateBackend(context.Background(), &BackendConfig{Type: "memory"}, nil)
	if err != nil {
		t.Fatalf("CreateBackend failed: %v", err)
	}
	defer h.Close()

	m := contents.New(h, opts...)
	ctx := context.Background()
	if _, err := m.Save(ctx, &contents.Entry{Kind: contents.KindFile, Format: contents.FormatText, Content: "x"}, "/a.txt"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := m.CreateCheckpoint(ctx, "/a.txt"); err != nil {
		t.Fatalf("CreateCheckpoint failed: %v", err)
	}

	ok, err := h.Exists(ctx, "/.ckpt0_a.txt")
	if err != nil || !ok {
		t.Errorf("Expected prefix checkpoint at /.ckpt0_a.txt (exists=%t, err=%v)", ok, err)
	}
}

func TestManagerOptions_InvalidGlob(t *testing.T) {
	cfg := &ContentsConfig{HideGlobs: []string{"[unterminated"}}
	if _, err := ManagerOptions(cfg, nil, nil); err == nil {
		t.Fatal("Expected error for malformed glob")
	}
}

func TestInitializeServices(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Notary.DBPath = ":memory:"
	cfg.Notary.SecretFile = filepath.Join(t.TempDir(), "secret")

	svc, err := InitializeServices(context.Background(), cfg)
	if err != nil {
		t.Fatalf("InitializeServices failed: %v", err)
	}

	if svc.Notary == nil {
		t.Error("Expected a notary with the default config")
	}
	if svc.Metrics.Enabled() {
		t.Error("Expected metrics to be disabled by default")
	}
	if ok, err := svc.Manager.DirExists(context.Background(), "/"); err != nil || !ok {
		t.Errorf("Expected root directory (ok=%t, err=%v)", ok, err)
	}
	if err := svc.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}
