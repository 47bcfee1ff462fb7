package prometheus

import (
	"errors"
	"testing"
	"time"

	"github.com/marmos91/nbcontents/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecordIntoRegistry(t *testing.T) {
	metrics.InitRegistry()
	require.True(t, metrics.IsEnabled())

	cm, ok := NewContentsMetrics().(*contentsMetrics)
	require.True(t, ok)
	cm.RecordOperation("get", "file", 3*time.Millisecond, nil)
	cm.RecordOperation("get", "file", time.Millisecond, errors.New("boom"))
	cm.RecordBytes("read", 12)
	cm.RecordCheckpoint("create")

	assert.Equal(t, 1.0, testutil.ToFloat64(cm.operationsTotal.WithLabelValues("get", "file", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(cm.operationsTotal.WithLabelValues("get", "file", "error")))
	assert.Equal(t, 12.0, testutil.ToFloat64(cm.bytesTotal.WithLabelValues("read")))
	assert.Equal(t, 1.0, testutil.ToFloat64(cm.checkpointsTotal.WithLabelValues("create")))

	bm, ok := NewBackendMetrics("memory").(*backendMetrics)
	require.True(t, ok)
	bm.RecordCall("stat", time.Millisecond, nil)
	bm.RecordKeepAlive(errors.New("down"))

	assert.Equal(t, 1.0, testutil.ToFloat64(bm.callsTotal.WithLabelValues("memory", "stat", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(bm.keepAlive.WithLabelValues("memory", "error")))

	hm, ok := NewHTTPMetrics().(*httpMetrics)
	require.True(t, ok)
	hm.RecordRequest("GET", "/api/contents/*", 200, time.Millisecond)
	hm.RecordRateLimited()

	assert.Equal(t, 1.0, testutil.ToFloat64(hm.requestsTotal.WithLabelValues("GET", "/api/contents/*", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(hm.rateLimited))

	families, err := metrics.GetRegistry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["nbcontents_operations_total"])
	assert.True(t, names["nbcontents_backend_calls_total"])
	assert.True(t, names["go_goroutines"])
}
