package backend_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/marmos91/nbcontents/pkg/backend"
	"github.com/marmos91/nbcontents/pkg/backend/memory"
	"github.com/marmos91/nbcontents/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingingBackend struct {
	*memory.Backend
	pings  atomic.Int32
	closes atomic.Int32
}

func (p *pingingBackend) Ping(ctx context.Context) error {
	p.pings.Add(1)
	return nil
}

func (p *pingingBackend) Close() error {
	p.closes.Add(1)
	return nil
}

func TestHandleKeepAlive(t *testing.T) {
	b := &pingingBackend{Backend: memory.New(memory.Options{})}

	probed := make(chan error, 8)
	h := backend.Open(b, backend.HandleOptions{
		Name:      "test",
		KeepAlive: 5 * time.Millisecond,
		OnProbe: func(err error) {
			select {
			case probed <- err:
			default:
			}
		},
	})

	select {
	case err := <-probed:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("keepalive probe never ran")
	}

	require.NoError(t, h.Close())
	require.NoError(t, h.Close())

	assert.GreaterOrEqual(t, b.pings.Load(), int32(1))
	assert.Equal(t, int32(1), b.closes.Load(), "adapter is closed exactly once")
}

func TestHandleKeepAliveDisabled(t *testing.T) {
	b := &pingingBackend{Backend: memory.New(memory.Options{})}

	h := backend.Open(b, backend.HandleOptions{KeepAlive: -1})
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, h.Close())

	assert.Equal(t, int32(0), b.pings.Load())
	assert.Equal(t, int32(1), b.closes.Load())
}

func TestHandleForwardsCalls(t *testing.T) {
	h := backend.Open(memory.New(memory.Options{}), backend.HandleOptions{KeepAlive: -1})
	defer h.Close()

	ctx := context.Background()
	require.NoError(t, h.Write(ctx, "/a.txt", []byte("abc"), backend.WriteOptions{}))

	data, err := h.Read(ctx, "/a.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), data)
}

func TestPingFallsBackToStat(t *testing.T) {
	assert.NoError(t, backend.Ping(context.Background(), memory.New(memory.Options{})))
}

type recordingMetrics struct {
	calls     map[string]int
	failures  int
	keepAlive int
}

func (r *recordingMetrics) RecordCall(op string, _ time.Duration, err error) {
	r.calls[op]++
	if err != nil {
		r.failures++
	}
}

func (r *recordingMetrics) RecordKeepAlive(error) { r.keepAlive++ }

var _ metrics.BackendMetrics = (*recordingMetrics)(nil)

func TestInstrument(t *testing.T) {
	m := &recordingMetrics{calls: make(map[string]int)}
	b := backend.Instrument(memory.New(memory.Options{}), m)
	ctx := context.Background()

	require.NoError(t, b.Mkdir(ctx, "/dir"))
	_, err := b.Stat(ctx, "/missing")
	require.True(t, errors.Is(err, backend.ErrNotFound))
	require.NoError(t, backend.Ping(ctx, b))

	assert.Equal(t, 1, m.calls["mkdir"])
	assert.Equal(t, 1, m.calls["stat"])
	assert.Equal(t, 1, m.failures)
	assert.Equal(t, 1, m.keepAlive)

	assert.Same(t, b, backend.Instrument(b, nil))
}
