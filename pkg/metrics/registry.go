// Package metrics defines the instrumentation interfaces used across
// nbcontents together with the process-wide Prometheus registry.
//
// Metrics are optional. Until InitRegistry is called every constructor in
// metrics/prometheus returns a no-op implementation, and components accept
// nil to mean "no metrics".
//
// Usage:
//
//	metrics.InitRegistry()
//	m := prometheus.NewContentsMetrics()
//	mgr := contents.New(b, contents.WithMetrics(m))
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	registry     *prometheus.Registry
	registryOnce sync.Once
)

// InitRegistry creates the global registry and registers the Go runtime and
// process collectors. Subsequent calls are ignored.
func InitRegistry() {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	})
}

// GetRegistry returns the global registry, or nil when metrics are disabled.
func GetRegistry() *prometheus.Registry {
	return registry
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	return GetRegistry() != nil
}

// Status returns the label value used for the outcome of an operation.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
