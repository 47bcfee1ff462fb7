package metrics

import "time"

// HTTPMetrics records REST API traffic.
type HTTPMetrics interface {
	RecordRequest(method, route string, status int, duration time.Duration)
	RecordRateLimited()
}

// NewNoopHTTPMetrics returns an HTTPMetrics that discards everything.
func NewNoopHTTPMetrics() HTTPMetrics {
	return noopHTTPMetrics{}
}

type noopHTTPMetrics struct{}

func (noopHTTPMetrics) RecordRequest(method, route string, status int, duration time.Duration) {}
func (noopHTTPMetrics) RecordRateLimited()                                                     {}
