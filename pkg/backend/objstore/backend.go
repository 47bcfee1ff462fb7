package objstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/marmos91/nbcontents/pkg/backend"
	"github.com/marmos91/nbcontents/pkg/vpath"
	"golang.org/x/sync/errgroup"
)

// DefaultCopyConcurrency bounds parallel copies during a directory move.
const DefaultCopyConcurrency = 10

// Options configures a Backend.
type Options struct {
	// Prefix namespaces every key, e.g. "notebooks/".
	Prefix string

	// ReadOnly rejects every mutation with backend.ErrReadOnly.
	ReadOnly bool

	// CopyConcurrency limits parallel copies when moving a directory.
	CopyConcurrency int
}

// Backend adapts a Client to backend.Backend.
//
// Object stores have no rename: moving a directory copies every object
// below it in parallel and then deletes the originals, so a failure part
// way leaves objects at both locations. Objects carry no creation time.
type Backend struct {
	client      Client
	prefix      string
	readOnly    bool
	concurrency int
}

// New creates a Backend over client.
func New(client Client, opts Options) *Backend {
	prefix := strings.Trim(opts.Prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	concurrency := opts.CopyConcurrency
	if concurrency <= 0 {
		concurrency = DefaultCopyConcurrency
	}
	return &Backend{client: client, prefix: prefix, readOnly: opts.ReadOnly, concurrency: concurrency}
}

// key maps a canonical path to its object key.
func (b *Backend) key(p string) string {
	if p == vpath.Root {
		return b.prefix
	}
	return b.prefix + p[1:]
}

// dirKey is the key prefix of everything below p, which is also the key
// of p's directory marker.
func (b *Backend) dirKey(p string) string {
	if p == vpath.Root {
		return b.prefix
	}
	return b.key(p) + "/"
}

// ============================================================================
// Read Operations
// ============================================================================

func (b *Backend) Stat(ctx context.Context, path string) (*backend.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	md, err := b.stat(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	return md, nil
}

func (b *Backend) stat(ctx context.Context, p string) (*backend.Metadata, error) {
	if p == vpath.Root {
		return dirMetadata(p, nil), nil
	}

	info, err := b.client.Head(ctx, b.key(p))
	if err == nil {
		return fileMetadata(p, info), nil
	}
	if !errors.Is(err, backend.ErrNotFound) {
		return nil, err
	}

	marker, err := b.client.Head(ctx, b.dirKey(p))
	if err == nil {
		return dirMetadata(p, marker), nil
	}
	if !errors.Is(err, backend.ErrNotFound) {
		return nil, err
	}

	objects, prefixes, err := b.client.List(ctx, b.dirKey(p), true, 1)
	if err != nil {
		return nil, err
	}
	if len(objects)+len(prefixes) > 0 {
		return dirMetadata(p, nil), nil
	}
	return nil, backend.ErrNotFound
}

func (b *Backend) requireDir(ctx context.Context, p string) error {
	md, err := b.stat(ctx, p)
	if err != nil {
		return fmt.Errorf("parent %s: %w", p, err)
	}
	if !md.IsDir {
		return fmt.Errorf("parent %s: %w", p, backend.ErrNotDirectory)
	}
	return nil
}

func (b *Backend) List(ctx context.Context, path string) ([]*backend.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	md, err := b.stat(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", path, err)
	}
	if !md.IsDir {
		return nil, fmt.Errorf("list %s: %w", path, backend.ErrNotDirectory)
	}

	dirKey := b.dirKey(path)
	objects, prefixes, err := b.client.List(ctx, dirKey, true, 0)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", path, err)
	}

	children := make([]*backend.Metadata, 0, len(objects)+len(prefixes))
	for i := range objects {
		name := strings.TrimPrefix(objects[i].Key, dirKey)
		if name == "" {
			continue
		}
		children = append(children, fileMetadata(joinChild(path, name), &objects[i]))
	}
	for _, prefix := range prefixes {
		name := strings.TrimSuffix(strings.TrimPrefix(prefix, dirKey), "/")
		if name == "" {
			continue
		}
		children = append(children, dirMetadata(joinChild(path, name), nil))
	}
	return children, nil
}

func (b *Backend) Read(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := b.client.Get(ctx, b.key(path))
	if err == nil {
		return data, nil
	}
	if errors.Is(err, backend.ErrNotFound) {
		if md, statErr := b.stat(ctx, path); statErr == nil && md.IsDir {
			err = backend.ErrIsDirectory
		}
	}
	return nil, fmt.Errorf("read %s: %w", path, err)
}

func (b *Backend) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := b.stat(ctx, path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, backend.ErrNotFound) {
		return false, nil
	}
	return false, err
}

// Ping checks that the bucket is reachable.
func (b *Backend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx)
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
	if path == vpath.Root {
		return fmt.Errorf("write %s: %w", path, backend.ErrIsDirectory)
	}
	if err := b.requireDir(ctx, vpath.Dir(path)); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if md, err := b.stat(ctx, path); err == nil && md.IsDir {
		return fmt.Errorf("write %s: %w", path, backend.ErrIsDirectory)
	}

	if err := b.client.Put(ctx, b.key(path), data, opts.MimeType); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
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

	md, err := b.stat(ctx, path)
	switch {
	case err == nil && md.IsDir:
		return nil
	case err == nil:
		return fmt.Errorf("mkdir %s: %w", path, backend.ErrExists)
	case !errors.Is(err, backend.ErrNotFound):
		return fmt.Errorf("mkdir %s: %w", path, err)
	}

	if err := b.requireDir(ctx, vpath.Dir(path)); err != nil {
		return fmt.Errorf("mkdir %s: %w", path, err)
	}
	if err := b.client.Put(ctx, b.dirKey(path), nil, ""); err != nil {
		return fmt.Errorf("mkdir %s: %w", path, err)
	}
	return nil
}

func (b *Backend) Move(ctx context.Context, oldPath, newPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.readOnly {
		return fmt.Errorf("move %s: %w", oldPath, backend.ErrReadOnly)
	}

	src, err := b.stat(ctx, oldPath)
	if err != nil {
		return fmt.Errorf("move %s: %w", oldPath, err)
	}
	if exists, err := b.Exists(ctx, newPath); err != nil {
		return fmt.Errorf("move %s to %s: %w", oldPath, newPath, err)
	} else if exists {
		return fmt.Errorf("move %s to %s: %w", oldPath, newPath, backend.ErrExists)
	}
	if err := b.requireDir(ctx, vpath.Dir(newPath)); err != nil {
		return fmt.Errorf("move %s to %s: %w", oldPath, newPath, err)
	}
	if src.IsDir && vpath.HasPrefix(newPath, oldPath) {
		return fmt.Errorf("move %s into itself: %w", oldPath, backend.ErrExists)
	}

	if !src.IsDir {
		if err := b.client.Copy(ctx, b.key(oldPath), b.key(newPath)); err != nil {
			return fmt.Errorf("move %s to %s: %w", oldPath, newPath, err)
		}
		if err := b.client.Delete(ctx, []string{b.key(oldPath)}); err != nil {
			return fmt.Errorf("move %s to %s: %w", oldPath, newPath, err)
		}
		return nil
	}

	if err := b.moveDir(ctx, b.dirKey(oldPath), b.dirKey(newPath)); err != nil {
		return fmt.Errorf("move %s to %s: %w", oldPath, newPath, err)
	}
	return nil
}

// moveDir copies every object under oldPrefix to newPrefix with bounded
// parallelism, writes the destination marker, then deletes the originals.
func (b *Backend) moveDir(ctx context.Context, oldPrefix, newPrefix string) error {
	objects, _, err := b.client.List(ctx, oldPrefix, false, 0)
	if err != nil {
		return err
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(b.concurrency)

	var mu sync.Mutex
	copied := make([]string, 0, len(objects)+1)
	for _, obj := range objects {
		oldKey := obj.Key
		eg.Go(func() error {
			newKey := newPrefix + strings.TrimPrefix(oldKey, oldPrefix)
			if err := b.client.Copy(egCtx, oldKey, newKey); err != nil {
				return fmt.Errorf("copy %s to %s: %w", oldKey, newKey, err)
			}
			mu.Lock()
			copied = append(copied, oldKey)
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	if err := b.client.Put(ctx, newPrefix, nil, ""); err != nil {
		return err
	}
	return b.client.Delete(ctx, append(copied, oldPrefix))
}

func (b *Backend) Remove(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.readOnly {
		return fmt.Errorf("remove %s: %w", path, backend.ErrReadOnly)
	}
	if path == vpath.Root {
		return fmt.Errorf("remove %s: %w", path, backend.ErrNotFound)
	}

	md, err := b.stat(ctx, path)
	if err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}

	if !md.IsDir {
		if err := b.client.Delete(ctx, []string{b.key(path)}); err != nil {
			return fmt.Errorf("remove %s: %w", path, err)
		}
		return nil
	}

	dirKey := b.dirKey(path)
	objects, prefixes, err := b.client.List(ctx, dirKey, true, 2)
	if err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	for _, obj := range objects {
		if obj.Key != dirKey {
			return fmt.Errorf("remove %s: %w", path, backend.ErrNotEmpty)
		}
	}
	if len(prefixes) > 0 {
		return fmt.Errorf("remove %s: %w", path, backend.ErrNotEmpty)
	}

	if err := b.client.Delete(ctx, []string{dirKey}); err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

// ============================================================================
// Helpers
// ============================================================================

func fileMetadata(p string, info *ObjectInfo) *backend.Metadata {
	return &backend.Metadata{
		Path:     p,
		Name:     vpath.Base(p),
		IsFile:   true,
		Size:     info.Size,
		Modified: info.Modified,
		MimeType: info.MimeType,
	}
}

func dirMetadata(p string, marker *ObjectInfo) *backend.Metadata {
	md := &backend.Metadata{Path: p, Name: vpath.Base(p), IsDir: true}
	if marker != nil {
		md.Modified = marker.Modified
	}
	return md
}

func joinChild(parent, name string) string {
	if parent == vpath.Root {
		return "/" + name
	}
	return parent + "/" + name
}

var _ backend.Backend = (*Backend)(nil)
var _ backend.Pinger = (*Backend)(nil)
