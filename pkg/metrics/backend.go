package metrics

import "time"

// BackendMetrics records calls made to a storage adapter.
type BackendMetrics interface {
	// RecordCall records one adapter call ("stat", "list", "read", ...).
	RecordCall(operation string, duration time.Duration, err error)

	// RecordKeepAlive records the outcome of a keepalive probe.
	RecordKeepAlive(err error)
}

// NewNoopBackendMetrics returns a BackendMetrics that discards everything.
func NewNoopBackendMetrics() BackendMetrics {
	return noopBackendMetrics{}
}

type noopBackendMetrics struct{}

func (noopBackendMetrics) RecordCall(operation string, duration time.Duration, err error) {}
func (noopBackendMetrics) RecordKeepAlive(err error)                                      {}
