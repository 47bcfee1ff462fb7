// Package gc removes orphaned checkpoints.
//
// A checkpoint is orphaned when the document it belongs to no longer
// exists. The contents manager moves and deletes checkpoints together with
// their documents, but orphans are still left behind by:
//   - Documents changed directly in the backend (e.g. on the filesystem)
//   - RenameFile and DeleteFile, which do not touch checkpoints
//   - Crashes between a document operation and its checkpoint follow-up
package gc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/marmos91/nbcontents/internal/logger"
	"github.com/marmos91/nbcontents/pkg/backend"
	"github.com/marmos91/nbcontents/pkg/contents"
	"github.com/marmos91/nbcontents/pkg/vpath"
)

// Collector periodically scans the manager's backend for orphaned
// checkpoints and deletes them.
//
// Thread Safety: Safe for concurrent use.
type Collector struct {
	mgr    *contents.Manager
	config Config

	startOnce sync.Once
	stopOnce  sync.Once
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// Config contains configuration for the collector.
type Config struct {
	// Interval is how often to collect (default: 24h).
	Interval time.Duration

	// DryRun logs what would be deleted without deleting.
	DryRun bool
}

// NewCollector creates a collector over mgr. Call Start to run it in the
// background or RunNow for a single pass.
func NewCollector(mgr *contents.Manager, config Config) *Collector {
	if config.Interval <= 0 {
		config.Interval = 24 * time.Hour
	}
	return &Collector{
		mgr:    mgr,
		config: config,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start begins background collection. Subsequent calls are no-ops.
func (c *Collector) Start() {
	c.startOnce.Do(func() {
		logger.Info("Starting checkpoint collector: interval=%s dry_run=%v", c.config.Interval, c.config.DryRun)
		go c.worker()
	})
}

// Stop signals the worker and waits for any run in progress to finish, or
// for ctx to expire. Safe to call more than once, and before Start.
func (c *Collector) Stop(ctx context.Context) error {
	c.stopOnce.Do(func() { close(c.stopCh) })
	// A collector that never started has no worker to wait for.
	c.startOnce.Do(func() { close(c.doneCh) })

	select {
	case <-c.doneCh:
		return nil
	case <-ctx.Done():
		logger.Warn("Checkpoint collector shutdown timeout")
		return ctx.Err()
	}
}

// RunNow performs a single collection and blocks until it completes.
func (c *Collector) RunNow(ctx context.Context) (*Stats, error) {
	return c.collect(ctx)
}

func (c *Collector) worker() {
	defer close(c.doneCh)

	ticker := time.NewTicker(c.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			go func() {
				select {
				case <-c.stopCh:
					cancel()
				case <-ctx.Done():
				}
			}()

			stats, err := c.collect(ctx)
			cancel()
			if err != nil {
				logger.Error("Checkpoint collection failed: %v", err)
			} else {
				logger.Info("Checkpoint collection completed: %s", stats.Summary())
			}

		case <-c.stopCh:
			return
		}
	}
}

// collect walks the tree breadth-first. Every file the layout recognizes
// as a checkpoint is checked against its document; checkpoint folders
// emptied along the way are removed.
func (c *Collector) collect(ctx context.Context) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	defer func() { stats.EndTime = time.Now() }()

	b := c.mgr.Backend()
	cps := c.mgr.Checkpoints()
	reserved := cps.ReservedDir()

	queue := []string{vpath.Root}
	var touched []string

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		dir := queue[0]
		queue = queue[1:]

		children, err := b.List(ctx, dir)
		if err != nil {
			if errors.Is(err, backend.ErrNotFound) {
				continue
			}
			return stats, fmt.Errorf("list %s: %w", dir, err)
		}

		for _, child := range children {
			if child.IsDir {
				queue = append(queue, child.Path)
				continue
			}
			stats.ScannedCount++

			doc, ok := cps.Source(child.Path)
			if !ok {
				continue
			}
			stats.CheckpointCount++

			exists, err := b.Exists(ctx, doc)
			if err != nil {
				return stats, fmt.Errorf("stat %s: %w", doc, err)
			}
			if exists {
				continue
			}

			stats.OrphanedCount++
			if c.config.DryRun {
				logger.Info("Checkpoint GC: would delete %s (document %s is gone)", child.Path, doc)
				continue
			}
			if err := b.Remove(ctx, child.Path); err != nil && !errors.Is(err, backend.ErrNotFound) {
				logger.Warn("Checkpoint GC: failed to delete %s: %v", child.Path, err)
				stats.FailedCount++
				continue
			}
			logger.Debug("Checkpoint GC: deleted %s", child.Path)
			stats.DeletedCount++
			if reserved != "" && vpath.Base(dir) == reserved {
				touched = append(touched, dir)
			}
		}
	}

	for _, dir := range touched {
		// Folders still holding live checkpoints fail with ErrNotEmpty.
		if err := b.Remove(ctx, dir); err == nil {
			logger.Debug("Checkpoint GC: removed empty %s", dir)
		}
	}
	return stats, nil
}

// Stats contains statistics from a collection run.
type Stats struct {
	StartTime       time.Time
	EndTime         time.Time
	ScannedCount    uint64 // files examined
	CheckpointCount uint64 // files recognized as checkpoints
	OrphanedCount   uint64
	DeletedCount    uint64
	FailedCount     uint64
}

// Duration returns the total collection duration.
func (s *Stats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// Summary returns a human-readable summary of the collection.
func (s *Stats) Summary() string {
	return fmt.Sprintf("scanned=%d checkpoints=%d orphaned=%d deleted=%d failed=%d duration=%s",
		s.ScannedCount, s.CheckpointCount, s.OrphanedCount,
		s.DeletedCount, s.FailedCount, s.Duration())
}
