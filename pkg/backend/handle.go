package backend

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/marmos91/nbcontents/internal/logger"
)

// DefaultKeepAlive is the probe interval used when HandleOptions leaves it
// unset.
const DefaultKeepAlive = 60 * time.Second

// HandleOptions configures a Handle.
type HandleOptions struct {
	// Name identifies the adapter in logs (e.g. "s3").
	Name string

	// KeepAlive is the interval between liveness probes. Zero selects
	// DefaultKeepAlive; a negative value disables probing.
	KeepAlive time.Duration

	// ProbeTimeout bounds a single probe. Zero means KeepAlive/2.
	ProbeTimeout time.Duration

	// OnProbe is called after every probe with its result.
	OnProbe func(err error)
}

// Handle owns an adapter instance for the lifetime of a process or test.
//
// It forwards every Backend call to the adapter, keeps remote sessions warm
// with a periodic probe and releases the adapter exactly once on Close.
type Handle struct {
	Backend

	name      string
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// Open wraps b in a Handle and starts its keepalive loop.
func Open(b Backend, opts HandleOptions) *Handle {
	h := &Handle{
		Backend: b,
		name:    opts.Name,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	if h.name == "" {
		h.name = "backend"
	}

	interval := opts.KeepAlive
	if interval == 0 {
		interval = DefaultKeepAlive
	}
	if interval < 0 {
		close(h.done)
		return h
	}

	timeout := opts.ProbeTimeout
	if timeout <= 0 {
		timeout = interval / 2
	}

	go h.keepAlive(interval, timeout, opts.OnProbe)
	return h
}

func (h *Handle) keepAlive(interval, timeout time.Duration, onProbe func(error)) {
	defer close(h.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			err := Ping(ctx, h.Backend)
			cancel()

			if err != nil {
				logger.Warn("%s keepalive probe failed: %v", h.name, err)
			} else {
				logger.Debug("%s keepalive probe ok", h.name)
			}
			if onProbe != nil {
				onProbe(err)
			}
		}
	}
}

// Close stops the keepalive loop and closes the adapter if it implements
// io.Closer. Subsequent calls return the first result.
func (h *Handle) Close() error {
	h.closeOnce.Do(func() {
		select {
		case <-h.done:
		default:
			close(h.stop)
			<-h.done
		}

		if c, ok := h.Backend.(io.Closer); ok {
			if err := c.Close(); err != nil {
				h.closeErr = errors.Join(h.closeErr, err)
			}
		}
		logger.Info("%s backend closed", h.name)
	})
	return h.closeErr
}

// Unwrap returns the adapter owned by the handle.
func (h *Handle) Unwrap() Backend {
	return h.Backend
}
