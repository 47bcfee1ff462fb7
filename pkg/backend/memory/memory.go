package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/marmos91/nbcontents/pkg/backend"
	"github.com/marmos91/nbcontents/pkg/vpath"
)

// Options configures a memory Backend.
type Options struct {
	// ReadOnly rejects every mutation with backend.ErrReadOnly.
	ReadOnly bool

	// Now supplies timestamps. Defaults to time.Now.
	Now func() time.Time
}

// Backend implements backend.Backend on an in-memory tree.
//
// It is designed for:
//   - Tests of the contents layer
//   - Ephemeral scratch servers
//
// Characteristics:
//   - Volatile: data is lost when the process exits
//   - Thread-safe: protected by an RWMutex
//   - Full metadata: created and modified times and MIME types are kept
//
// Data is copied on Read and Write so callers never share buffers with the
// store.
type Backend struct {
	mu       sync.RWMutex
	entries  map[string]*entry
	readOnly bool
	now      func() time.Time
}

type entry struct {
	isDir    bool
	data     []byte
	mimeType string
	created  time.Time
	modified time.Time
}

// New creates an empty memory backend containing only the root directory.
func New(opts Options) *Backend {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	ts := now()
	return &Backend{
		entries: map[string]*entry{
			vpath.Root: {isDir: true, created: ts, modified: ts},
		},
		readOnly: opts.ReadOnly,
		now:      now,
	}
}

// ============================================================================
// Read Operations
// ============================================================================

func (b *Backend) Stat(ctx context.Context, path string) (*backend.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	e, ok := b.entries[path]
	if !ok {
		return nil, fmt.Errorf("stat %s: %w", path, backend.ErrNotFound)
	}
	return e.metadata(path), nil
}

func (b *Backend) List(ctx context.Context, path string) ([]*backend.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	dir, ok := b.entries[path]
	if !ok {
		return nil, fmt.Errorf("list %s: %w", path, backend.ErrNotFound)
	}
	if !dir.isDir {
		return nil, fmt.Errorf("list %s: %w", path, backend.ErrNotDirectory)
	}

	var children []*backend.Metadata
	for p, e := range b.entries {
		if p != vpath.Root && vpath.Dir(p) == path {
			children = append(children, e.metadata(p))
		}
	}
	return children, nil
}

func (b *Backend) Read(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	e, ok := b.entries[path]
	if !ok {
		return nil, fmt.Errorf("read %s: %w", path, backend.ErrNotFound)
	}
	if e.isDir {
		return nil, fmt.Errorf("read %s: %w", path, backend.ErrIsDirectory)
	}

	out := make([]byte, len(e.data))
	copy(out, e.data)
	return out, nil
}

func (b *Backend) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	_, ok := b.entries[path]
	return ok, nil
}

// ============================================================================
// Write Operations
// ============================================================================

func (b *Backend) Write(ctx context.Context, path string, data []byte, opts backend.WriteOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.readOnly {
		return fmt.Errorf("write %s: %w", path, backend.ErrReadOnly)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.requireDirLocked(vpath.Dir(path)); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	ts := b.now()

	e, ok := b.entries[path]
	switch {
	case !ok:
		b.entries[path] = &entry{data: buf, mimeType: opts.MimeType, created: ts, modified: ts}
	case e.isDir:
		return fmt.Errorf("write %s: %w", path, backend.ErrIsDirectory)
	default:
		e.data = buf
		e.modified = ts
		if opts.MimeType != "" {
			e.mimeType = opts.MimeType
		}
	}
	return nil
}

func (b *Backend) Mkdir(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.readOnly {
		return fmt.Errorf("mkdir %s: %w", path, backend.ErrReadOnly)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if e, ok := b.entries[path]; ok {
		if e.isDir {
			return nil
		}
		return fmt.Errorf("mkdir %s: %w", path, backend.ErrExists)
	}
	if err := b.requireDirLocked(vpath.Dir(path)); err != nil {
		return fmt.Errorf("mkdir %s: %w", path, err)
	}

	ts := b.now()
	b.entries[path] = &entry{isDir: true, created: ts, modified: ts}
	return nil
}

// Move relocates a file or a directory together with all of its
// descendants. The whole move happens under a single write lock.
func (b *Backend) Move(ctx context.Context, oldPath, newPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.readOnly {
		return fmt.Errorf("move %s: %w", oldPath, backend.ErrReadOnly)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	src, ok := b.entries[oldPath]
	if !ok {
		return fmt.Errorf("move %s: %w", oldPath, backend.ErrNotFound)
	}
	if _, ok := b.entries[newPath]; ok {
		return fmt.Errorf("move %s to %s: %w", oldPath, newPath, backend.ErrExists)
	}
	if err := b.requireDirLocked(vpath.Dir(newPath)); err != nil {
		return fmt.Errorf("move %s to %s: %w", oldPath, newPath, err)
	}
	if src.isDir && vpath.HasPrefix(newPath, oldPath) {
		return fmt.Errorf("move %s into itself: %w", oldPath, backend.ErrExists)
	}

	if !src.isDir {
		delete(b.entries, oldPath)
		b.entries[newPath] = src
		return nil
	}

	moved := make(map[string]*entry)
	for p, e := range b.entries {
		if vpath.HasPrefix(p, oldPath) {
			moved[vpath.Rebase(p, oldPath, newPath)] = e
			delete(b.entries, p)
		}
	}
	for p, e := range moved {
		b.entries[p] = e
	}
	return nil
}

func (b *Backend) Remove(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.readOnly {
		return fmt.Errorf("remove %s: %w", path, backend.ErrReadOnly)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[path]
	if !ok || path == vpath.Root {
		return fmt.Errorf("remove %s: %w", path, backend.ErrNotFound)
	}
	if e.isDir {
		for p := range b.entries {
			if p != path && vpath.HasPrefix(p, path) {
				return fmt.Errorf("remove %s: %w", path, backend.ErrNotEmpty)
			}
		}
	}

	delete(b.entries, path)
	return nil
}

// ============================================================================
// Helpers
// ============================================================================

func (b *Backend) requireDirLocked(path string) error {
	e, ok := b.entries[path]
	if !ok {
		return fmt.Errorf("parent %s: %w", path, backend.ErrNotFound)
	}
	if !e.isDir {
		return fmt.Errorf("parent %s: %w", path, backend.ErrNotDirectory)
	}
	return nil
}

func (e *entry) metadata(path string) *backend.Metadata {
	md := &backend.Metadata{
		Path:     path,
		Name:     vpath.Base(path),
		IsDir:    e.isDir,
		IsFile:   !e.isDir,
		Created:  e.created,
		Modified: e.modified,
	}
	if !e.isDir {
		md.Size = int64(len(e.data))
		md.MimeType = e.mimeType
	}
	return md
}

var _ backend.Backend = (*Backend)(nil)
