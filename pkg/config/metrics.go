package config

import (
	"github.com/marmos91/nbcontents/pkg/metrics"
	promMetrics "github.com/marmos91/nbcontents/pkg/metrics/prometheus"
)

// MetricsResult contains all metrics-related components created from configuration.
type MetricsResult struct {
	// Server is the dedicated metrics listener (nil when disabled or when
	// /metrics is served by the API router)
	Server *metrics.Server

	// Backend is nil when metrics are disabled so the backend is left
	// uninstrumented
	Backend metrics.BackendMetrics

	// Contents and HTTP are never nil; they are no-ops when disabled
	Contents metrics.ContentsMetrics
	HTTP     metrics.HTTPMetrics
}

// Enabled reports whether Prometheus collection is active.
func (r *MetricsResult) Enabled() bool {
	return r.Backend != nil
}

// InitializeMetrics creates and initializes all metrics components based on configuration.
//
// If metrics are enabled in the configuration:
//   - Initializes the global Prometheus registry
//   - Creates the metrics HTTP server when a dedicated port is configured
//   - Creates Prometheus-backed metrics instances for all components
//
// If metrics are disabled no-op implementations are returned.
func InitializeMetrics(cfg *Config) *MetricsResult {
	if !cfg.Metrics.Enabled {
		return &MetricsResult{
			Contents: metrics.NewNoopContentsMetrics(),
			HTTP:     metrics.NewNoopHTTPMetrics(),
		}
	}

	metrics.InitRegistry()

	result := &MetricsResult{
		Backend:  promMetrics.NewBackendMetrics(cfg.Backend.Type),
		Contents: promMetrics.NewContentsMetrics(),
		HTTP:     promMetrics.NewHTTPMetrics(),
	}
	if cfg.Metrics.Port > 0 {
		result.Server = metrics.NewServer(metrics.ServerConfig{Port: cfg.Metrics.Port})
	}
	return result
}
