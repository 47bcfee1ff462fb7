package config

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/marmos91/nbcontents/internal/logger"
	"github.com/marmos91/nbcontents/pkg/backend"
	"github.com/marmos91/nbcontents/pkg/backend/badger"
	"github.com/marmos91/nbcontents/pkg/backend/fs"
	"github.com/marmos91/nbcontents/pkg/backend/memory"
	"github.com/marmos91/nbcontents/pkg/backend/minio"
	"github.com/marmos91/nbcontents/pkg/backend/s3"
	"github.com/marmos91/nbcontents/pkg/contents"
	"github.com/marmos91/nbcontents/pkg/metrics"
	"github.com/marmos91/nbcontents/pkg/notebook"
	"github.com/mitchellh/mapstructure"
)

// CreateBackend creates the adapter selected by cfg.Type, instruments it
// with m (nil for none) and wraps it in a Handle that runs the keepalive.
// Keepalive outcomes are recorded by the instrumentation layer. The caller
// owns the handle and must Close it.
func CreateBackend(ctx context.Context, cfg *BackendConfig, m metrics.BackendMetrics) (*backend.Handle, error) {
	b, err := createAdapter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if m != nil {
		b = backend.Instrument(b, m)
	}

	keepAlive := cfg.KeepAlive
	if keepAlive == 0 {
		keepAlive = -1
	}
	return backend.Open(b, backend.HandleOptions{Name: cfg.Type, KeepAlive: keepAlive}), nil
}

func createAdapter(ctx context.Context, cfg *BackendConfig) (backend.Backend, error) {
	switch cfg.Type {
	case "memory":
		return createMemoryBackend(cfg)
	case "filesystem":
		return createFilesystemBackend(cfg)
	case "badger":
		return createBadgerBackend(ctx, cfg)
	case "s3":
		return createS3Backend(ctx, cfg)
	case "minio":
		return createMinioBackend(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown backend type: %q", cfg.Type)
	}
}

// decodeOptions decodes a per-type options map into target. Durations may
// be given as strings ("5s") and numbers may be quoted.
func decodeOptions(options map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           target,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	return decoder.Decode(options)
}

func createMemoryBackend(cfg *BackendConfig) (backend.Backend, error) {
	var opts struct {
		ReadOnly bool `mapstructure:"read_only"`
	}
	if err := decodeOptions(cfg.Memory, &opts); err != nil {
		return nil, fmt.Errorf("failed to decode memory backend config: %w", err)
	}

	logger.Info("Memory backend initialized (contents are lost on exit)")
	return memory.New(memory.Options{ReadOnly: opts.ReadOnly || cfg.ReadOnly}), nil
}

func createFilesystemBackend(cfg *BackendConfig) (backend.Backend, error) {
	var fsCfg fs.Config
	if err := decodeOptions(cfg.Filesystem, &fsCfg); err != nil {
		return nil, fmt.Errorf("failed to decode filesystem backend config: %w", err)
	}
	fsCfg.ReadOnly = fsCfg.ReadOnly || cfg.ReadOnly
	fsCfg.Root = expandHome(fsCfg.Root)

	b, err := fs.NewLocal(fsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem backend: %w", err)
	}

	logger.Info("Filesystem backend initialized: root=%s", fsCfg.Root)
	return b, nil
}

func createBadgerBackend(ctx context.Context, cfg *BackendConfig) (backend.Backend, error) {
	var badgerCfg badger.Config
	if err := decodeOptions(cfg.Badger, &badgerCfg); err != nil {
		return nil, fmt.Errorf("failed to decode badger backend config: %w", err)
	}
	badgerCfg.ReadOnly = badgerCfg.ReadOnly || cfg.ReadOnly
	badgerCfg.Path = expandHome(badgerCfg.Path)

	if !badgerCfg.InMemory {
		if badgerCfg.Path == "" {
			return nil, fmt.Errorf("badger backend: path is required")
		}
		if err := os.MkdirAll(badgerCfg.Path, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create badger directory: %w", err)
		}
	}

	b, err := badger.Open(ctx, badgerCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create badger backend: %w", err)
	}

	logger.Info("BadgerDB backend initialized: path=%s, compression=%t", badgerCfg.Path, badgerCfg.Compression)
	return b, nil
}

func createS3Backend(ctx context.Context, cfg *BackendConfig) (backend.Backend, error) {
	var s3Cfg s3.Config
	if err := decodeOptions(cfg.S3, &s3Cfg); err != nil {
		return nil, fmt.Errorf("failed to decode S3 backend config: %w", err)
	}
	s3Cfg.ReadOnly = s3Cfg.ReadOnly || cfg.ReadOnly

	b, err := s3.New(ctx, s3Cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 backend: %w", err)
	}

	logger.Info("S3 backend initialized: bucket=%s, region=%s, prefix=%s",
		s3Cfg.Bucket, s3Cfg.Region, s3Cfg.Prefix)
	return b, nil
}

func createMinioBackend(ctx context.Context, cfg *BackendConfig) (backend.Backend, error) {
	var minioCfg minio.Config
	if err := decodeOptions(cfg.Minio, &minioCfg); err != nil {
		return nil, fmt.Errorf("failed to decode minio backend config: %w", err)
	}
	minioCfg.ReadOnly = minioCfg.ReadOnly || cfg.ReadOnly

	b, err := minio.New(ctx, minioCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create minio backend: %w", err)
	}

	logger.Info("MinIO backend initialized: endpoint=%s, bucket=%s, prefix=%s",
		minioCfg.Endpoint, minioCfg.Bucket, minioCfg.Prefix)
	return b, nil
}

// CreateNotary creates the notebook notary, or returns nil when signing is
// disabled. The caller must Close a non-nil notary.
func CreateNotary(cfg *NotaryConfig) (*notebook.Notary, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	secret, err := loadSecret(cfg)
	if err != nil {
		return nil, err
	}

	var store notebook.SignatureStore
	if cfg.DBPath == "" {
		store = notebook.NewMemoryStore()
	} else {
		dbPath := expandHome(cfg.DBPath)
		if dbPath != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
				return nil, fmt.Errorf("failed to create notary directory: %w", err)
			}
		}
		sqlStore, err := notebook.OpenSQLiteStore(dbPath, cfg.MaxEntries)
		if err != nil {
			return nil, err
		}
		store = sqlStore
		logger.Info("Notebook signatures stored in %s", dbPath)
	}

	return notebook.NewNotary(secret, store), nil
}

// loadSecret returns the configured secret, the one in SecretFile, or a
// fresh one that is then persisted to SecretFile.
func loadSecret(cfg *NotaryConfig) ([]byte, error) {
	if cfg.Secret != "" {
		return []byte(cfg.Secret), nil
	}

	path := expandHome(cfg.SecretFile)
	if path == "" {
		return notebook.GenerateSecret()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		secret, decodeErr := hex.DecodeString(strings.TrimSpace(string(data)))
		if decodeErr != nil {
			return nil, fmt.Errorf("notary: invalid secret in %s: %w", path, decodeErr)
		}
		return secret, nil
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("notary: read secret: %w", err)
	}

	secret, err := notebook.GenerateSecret()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("notary: create secret directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(hex.EncodeToString(secret)), 0o600); err != nil {
		return nil, fmt.Errorf("notary: write secret: %w", err)
	}
	logger.Info("Generated notebook secret at %s", path)
	return secret, nil
}

// ManagerOptions translates the contents section into manager options.
// notary may be nil, in which case notebooks are never trusted.
func ManagerOptions(cfg *ContentsConfig, notary *notebook.Notary, m metrics.ContentsMetrics) ([]contents.Option, error) {
	globs, err := contents.CompileHideGlobs(cfg.HideGlobs)
	if err != nil {
		return nil, err
	}

	var layout contents.Layout
	switch cfg.CheckpointLayout {
	case "", "directory":
		layout = contents.DirLayout{Dir: cfg.CheckpointDir}
	case "prefix":
		layout = contents.PrefixLayout{Prefix: cfg.CheckpointPrefix}
	default:
		return nil, fmt.Errorf("unknown checkpoint layout: %q", cfg.CheckpointLayout)
	}

	opts := []contents.Option{
		contents.WithCheckpointLayout(layout),
		contents.WithHideGlobs(globs...),
		contents.WithUntitledNames(contents.UntitledNames{
			File:      cfg.Untitled.File,
			Notebook:  cfg.Untitled.Notebook,
			Directory: cfg.Untitled.Directory,
		}),
		contents.WithNotebookCodec(notebook.NewCodec(notary)),
	}
	if m != nil {
		opts = append(opts, contents.WithMetrics(m))
	}
	return opts, nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
