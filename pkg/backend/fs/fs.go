// Package fs implements backend.Backend on a go-billy filesystem: a local
// directory tree through osfs, or an in-process tree through memfs.
package fs

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"syscall"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/marmos91/nbcontents/pkg/backend"
	"github.com/marmos91/nbcontents/pkg/vpath"
)

// Config configures a filesystem Backend.
type Config struct {
	// Root is the local directory exposed as "/". It is created if missing.
	Root string `mapstructure:"root"`

	// ReadOnly rejects every mutation with backend.ErrReadOnly.
	ReadOnly bool `mapstructure:"read_only"`

	// DirMode and FileMode are the permissions of created entries.
	DirMode  os.FileMode `mapstructure:"dir_mode"`
	FileMode os.FileMode `mapstructure:"file_mode"`
}

// Backend stores entries in a billy.Filesystem.
//
// Filesystems keep no creation time or content type, so Created is left
// zero and MimeType empty; the contents layer fills both in.
type Backend struct {
	bfs      billy.Filesystem
	readOnly bool
	dirMode  os.FileMode
	fileMode os.FileMode
}

// New wraps an existing billy filesystem.
func New(bfs billy.Filesystem, cfg Config) *Backend {
	b := &Backend{bfs: bfs, readOnly: cfg.ReadOnly, dirMode: cfg.DirMode, fileMode: cfg.FileMode}
	if b.dirMode == 0 {
		b.dirMode = 0o755
	}
	if b.fileMode == 0 {
		b.fileMode = 0o644
	}
	return b
}

// NewLocal exposes cfg.Root. Symlinks cannot lead outside the root.
func NewLocal(cfg Config) (*Backend, error) {
	if cfg.Root == "" {
		return nil, errors.New("fs backend: root is required")
	}
	if err := os.MkdirAll(cfg.Root, 0o755); err != nil {
		return nil, fmt.Errorf("fs backend: create root %s: %w", cfg.Root, err)
	}
	return New(osfs.New(cfg.Root, osfs.WithBoundOS()), cfg), nil
}

// NewMemory returns a backend over an empty in-memory filesystem.
func NewMemory(cfg Config) *Backend {
	return New(memfs.New(), cfg)
}

// Unwrap returns the underlying billy filesystem.
func (b *Backend) Unwrap() billy.Filesystem {
	return b.bfs
}

// ============================================================================
// Read Operations
// ============================================================================

func (b *Backend) Stat(ctx context.Context, path string) (*backend.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fi, err := b.bfs.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, mapError(err))
	}
	return metadata(path, fi), nil
}

func (b *Backend) List(ctx context.Context, path string) ([]*backend.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := b.requireDir(path); err != nil {
		return nil, fmt.Errorf("list %s: %w", path, err)
	}

	infos, err := b.bfs.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", path, mapError(err))
	}

	children := make([]*backend.Metadata, 0, len(infos))
	for _, fi := range infos {
		children = append(children, metadata(joinChild(path, fi.Name()), fi))
	}
	return children, nil
}

func (b *Backend) Read(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fi, err := b.bfs.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, mapError(err))
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("read %s: %w", path, backend.ErrIsDirectory)
	}

	data, err := util.ReadFile(b.bfs, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, mapError(err))
	}
	return data, nil
}

func (b *Backend) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := b.bfs.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(mapError(err), backend.ErrNotFound) {
		return false, nil
	}
	return false, err
}

// ============================================================================
// Write Operations
// ============================================================================

func (b *Backend) Write(ctx context.Context, path string, data []byte, _ backend.WriteOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.readOnly {
		return fmt.Errorf("write %s: %w", path, backend.ErrReadOnly)
	}
	if err := b.requireDir(vpath.Dir(path)); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if fi, err := b.bfs.Stat(path); err == nil && fi.IsDir() {
		return fmt.Errorf("write %s: %w", path, backend.ErrIsDirectory)
	}

	if err := util.WriteFile(b.bfs, path, data, b.fileMode); err != nil {
		return fmt.Errorf("write %s: %w", path, mapError(err))
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

	if fi, err := b.bfs.Stat(path); err == nil {
		if fi.IsDir() {
			return nil
		}
		return fmt.Errorf("mkdir %s: %w", path, backend.ErrExists)
	}
	if err := b.requireDir(vpath.Dir(path)); err != nil {
		return fmt.Errorf("mkdir %s: %w", path, err)
	}

	if err := b.bfs.MkdirAll(path, b.dirMode); err != nil {
		return fmt.Errorf("mkdir %s: %w", path, mapError(err))
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

	src, err := b.bfs.Stat(oldPath)
	if err != nil {
		return fmt.Errorf("move %s: %w", oldPath, mapError(err))
	}
	if _, err := b.bfs.Stat(newPath); err == nil {
		return fmt.Errorf("move %s to %s: %w", oldPath, newPath, backend.ErrExists)
	}
	if err := b.requireDir(vpath.Dir(newPath)); err != nil {
		return fmt.Errorf("move %s to %s: %w", oldPath, newPath, err)
	}
	if src.IsDir() && vpath.HasPrefix(newPath, oldPath) {
		return fmt.Errorf("move %s into itself: %w", oldPath, backend.ErrExists)
	}

	if err := b.bfs.Rename(oldPath, newPath); err != nil {
		return fmt.Errorf("move %s to %s: %w", oldPath, newPath, mapError(err))
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
	if path == vpath.Root {
		return fmt.Errorf("remove %s: %w", path, backend.ErrNotFound)
	}

	fi, err := b.bfs.Stat(path)
	if err != nil {
		return fmt.Errorf("remove %s: %w", path, mapError(err))
	}
	if fi.IsDir() {
		children, err := b.bfs.ReadDir(path)
		if err != nil {
			return fmt.Errorf("remove %s: %w", path, mapError(err))
		}
		if len(children) > 0 {
			return fmt.Errorf("remove %s: %w", path, backend.ErrNotEmpty)
		}
	}

	if err := b.bfs.Remove(path); err != nil {
		return fmt.Errorf("remove %s: %w", path, mapError(err))
	}
	return nil
}

// ============================================================================
// Helpers
// ============================================================================

func (b *Backend) requireDir(path string) error {
	fi, err := b.bfs.Stat(path)
	if err != nil {
		return fmt.Errorf("parent %s: %w", path, mapError(err))
	}
	if !fi.IsDir() {
		return fmt.Errorf("parent %s: %w", path, backend.ErrNotDirectory)
	}
	return nil
}

// mapError translates filesystem errors to backend sentinels.
func mapError(err error) error {
	switch {
	case errors.Is(err, iofs.ErrNotExist), errors.Is(err, syscall.ENOTDIR):
		return fmt.Errorf("%w: %v", backend.ErrNotFound, err)
	case errors.Is(err, iofs.ErrExist):
		return fmt.Errorf("%w: %v", backend.ErrExists, err)
	case errors.Is(err, iofs.ErrPermission):
		return fmt.Errorf("%w: %v", backend.ErrReadOnly, err)
	case errors.Is(err, syscall.ENOTEMPTY):
		return fmt.Errorf("%w: %v", backend.ErrNotEmpty, err)
	}
	return err
}

func metadata(path string, fi iofs.FileInfo) *backend.Metadata {
	md := &backend.Metadata{
		Path:     path,
		Name:     vpath.Base(path),
		IsDir:    fi.IsDir(),
		IsFile:   fi.Mode().IsRegular(),
		Modified: fi.ModTime(),
	}
	if md.IsFile {
		md.Size = fi.Size()
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
