package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/marmos91/nbcontents/internal/logger"
	"github.com/marmos91/nbcontents/pkg/backend"
	"github.com/marmos91/nbcontents/pkg/contents"
	"github.com/marmos91/nbcontents/pkg/notebook"
)

// Services holds the long-lived components built from a Config.
type Services struct {
	Backend *backend.Handle
	Manager *contents.Manager
	Notary  *notebook.Notary // nil when signing is disabled
	Metrics *MetricsResult
}

// InitializeServices builds the backend, notary and contents manager
// described by cfg. On error everything created so far is released.
//
// The metrics registry is initialized here, so the caller must not create
// Prometheus collectors before calling it.
func InitializeServices(ctx context.Context, cfg *Config) (*Services, error) {
	m := InitializeMetrics(cfg)

	handle, err := CreateBackend(ctx, &cfg.Backend, m.Backend)
	if err != nil {
		return nil, err
	}

	notary, err := CreateNotary(&cfg.Notary)
	if err != nil {
		_ = handle.Close()
		return nil, fmt.Errorf("failed to create notary: %w", err)
	}

	opts, err := ManagerOptions(&cfg.Contents, notary, m.Contents)
	if err != nil {
		_ = handle.Close()
		if notary != nil {
			_ = notary.Close()
		}
		return nil, err
	}

	logger.Debug("Contents manager ready: backend=%s, checkpoints=%s",
		cfg.Backend.Type, cfg.Contents.CheckpointLayout)

	return &Services{
		Backend: handle,
		Manager: contents.New(handle, opts...),
		Notary:  notary,
		Metrics: m,
	}, nil
}

// Close releases the backend and the notary.
func (s *Services) Close() error {
	var errs []error
	if err := s.Backend.Close(); err != nil {
		errs = append(errs, err)
	}
	if s.Notary != nil {
		if err := s.Notary.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
