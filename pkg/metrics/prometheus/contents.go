package prometheus

import (
	"time"

	"github.com/marmos91/nbcontents/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// contentsMetrics is the Prometheus implementation of metrics.ContentsMetrics.
type contentsMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	bytesTotal        *prometheus.CounterVec
	checkpointsTotal  *prometheus.CounterVec
}

// NewContentsMetrics creates a Prometheus-backed ContentsMetrics.
//
// Returns a no-op implementation if metrics are not enabled.
func NewContentsMetrics() metrics.ContentsMetrics {
	if !metrics.IsEnabled() {
		return metrics.NewNoopContentsMetrics()
	}

	reg := metrics.GetRegistry()

	return &contentsMetrics{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nbcontents_operations_total",
				Help: "Total number of contents operations by operation, kind and status",
			},
			[]string{"operation", "kind", "status"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "nbcontents_operation_duration_seconds",
				Help: "Duration of contents operations in seconds",
				Buckets: []float64{
					0.001, // 1ms
					0.01,  // 10ms
					0.05,  // 50ms
					0.1,   // 100ms
					0.5,   // 500ms
					1,     // 1s
					5,     // 5s
				},
			},
			[]string{"operation", "kind"},
		),
		bytesTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nbcontents_bytes_total",
				Help: "Payload bytes moved between the contents manager and the backend",
			},
			[]string{"direction"},
		),
		checkpointsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nbcontents_checkpoints_total",
				Help: "Checkpoint actions by type",
			},
			[]string{"action"},
		),
	}
}

func (m *contentsMetrics) RecordOperation(operation, kind string, duration time.Duration, err error) {
	m.operationsTotal.WithLabelValues(operation, kind, metrics.Status(err)).Inc()
	m.operationDuration.WithLabelValues(operation, kind).Observe(duration.Seconds())
}

func (m *contentsMetrics) RecordBytes(direction string, bytes int64) {
	m.bytesTotal.WithLabelValues(direction).Add(float64(bytes))
}

func (m *contentsMetrics) RecordCheckpoint(action string) {
	m.checkpointsTotal.WithLabelValues(action).Inc()
}
