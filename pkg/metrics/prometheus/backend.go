package prometheus

import (
	"time"

	"github.com/marmos91/nbcontents/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// backendMetrics is the Prometheus implementation of metrics.BackendMetrics.
type backendMetrics struct {
	backendType  string
	callsTotal   *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
	keepAlive    *prometheus.CounterVec
}

// NewBackendMetrics creates a Prometheus-backed BackendMetrics labelled with
// the adapter type ("memory", "s3", ...).
//
// Returns a no-op implementation if metrics are not enabled.
func NewBackendMetrics(backendType string) metrics.BackendMetrics {
	if !metrics.IsEnabled() {
		return metrics.NewNoopBackendMetrics()
	}

	reg := metrics.GetRegistry()

	return &backendMetrics{
		backendType: backendType,
		callsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nbcontents_backend_calls_total",
				Help: "Total number of backend adapter calls",
			},
			[]string{"backend", "operation", "status"},
		),
		callDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nbcontents_backend_call_duration_seconds",
				Help:    "Duration of backend adapter calls in seconds",
				Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
			},
			[]string{"backend", "operation"},
		),
		keepAlive: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nbcontents_backend_keepalive_total",
				Help: "Keepalive probes by outcome",
			},
			[]string{"backend", "status"},
		),
	}
}

func (m *backendMetrics) RecordCall(operation string, duration time.Duration, err error) {
	m.callsTotal.WithLabelValues(m.backendType, operation, metrics.Status(err)).Inc()
	m.callDuration.WithLabelValues(m.backendType, operation).Observe(duration.Seconds())
}

func (m *backendMetrics) RecordKeepAlive(err error) {
	m.keepAlive.WithLabelValues(m.backendType, metrics.Status(err)).Inc()
}
