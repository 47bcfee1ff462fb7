package backend

import (
	"context"
	"time"

	"github.com/marmos91/nbcontents/pkg/metrics"
)

// Instrumented decorates a Backend with call metrics. It forwards Ping and
// Close to the wrapped adapter when it supports them.
type Instrumented struct {
	next    Backend
	metrics metrics.BackendMetrics
}

// Instrument wraps b so that every call is recorded on m. A nil m returns b
// unchanged.
func Instrument(b Backend, m metrics.BackendMetrics) Backend {
	if m == nil {
		return b
	}
	return &Instrumented{next: b, metrics: m}
}

func (i *Instrumented) observe(op string, start time.Time, err error) {
	i.metrics.RecordCall(op, time.Since(start), err)
}

func (i *Instrumented) Stat(ctx context.Context, path string) (md *Metadata, err error) {
	defer func(start time.Time) { i.observe("stat", start, err) }(time.Now())
	return i.next.Stat(ctx, path)
}

func (i *Instrumented) List(ctx context.Context, path string) (children []*Metadata, err error) {
	defer func(start time.Time) { i.observe("list", start, err) }(time.Now())
	return i.next.List(ctx, path)
}

func (i *Instrumented) Read(ctx context.Context, path string) (data []byte, err error) {
	defer func(start time.Time) { i.observe("read", start, err) }(time.Now())
	return i.next.Read(ctx, path)
}

func (i *Instrumented) Write(ctx context.Context, path string, data []byte, opts WriteOptions) (err error) {
	defer func(start time.Time) { i.observe("write", start, err) }(time.Now())
	return i.next.Write(ctx, path, data, opts)
}

func (i *Instrumented) Move(ctx context.Context, oldPath, newPath string) (err error) {
	defer func(start time.Time) { i.observe("move", start, err) }(time.Now())
	return i.next.Move(ctx, oldPath, newPath)
}

func (i *Instrumented) Remove(ctx context.Context, path string) (err error) {
	defer func(start time.Time) { i.observe("remove", start, err) }(time.Now())
	return i.next.Remove(ctx, path)
}

func (i *Instrumented) Mkdir(ctx context.Context, path string) (err error) {
	defer func(start time.Time) { i.observe("mkdir", start, err) }(time.Now())
	return i.next.Mkdir(ctx, path)
}

func (i *Instrumented) Exists(ctx context.Context, path string) (ok bool, err error) {
	defer func(start time.Time) { i.observe("exists", start, err) }(time.Now())
	return i.next.Exists(ctx, path)
}

// Ping forwards to the wrapped adapter and records the keepalive outcome.
func (i *Instrumented) Ping(ctx context.Context) error {
	err := Ping(ctx, i.next)
	i.metrics.RecordKeepAlive(err)
	return err
}

// Close closes the wrapped adapter if it holds resources.
func (i *Instrumented) Close() error {
	if c, ok := i.next.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
