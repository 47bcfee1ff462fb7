// Package backend defines the storage capability interface consumed by the
// contents manager, together with the lifecycle handle that owns an adapter
// instance.
//
// Concrete adapters live in subpackages (memory, fs, s3, minio, badger)
// and are verified by the conformance suite in backend/testing.
package backend

import (
	"context"
	"time"
)

// ============================================================================
// Metadata
// ============================================================================

// Metadata describes a single entry as reported by a backend.
//
// Created, Modified and MimeType are optional: backends that cannot supply
// them leave the zero value and the contents layer applies its own
// defaults.
type Metadata struct {
	// Path is the canonical path of the entry.
	Path string

	// Name is the leaf name of the entry ("" for the root).
	Name string

	IsFile bool
	IsDir  bool

	// Size is the byte count of a file. Meaningless for directories.
	Size int64

	Created  time.Time
	Modified time.Time

	// MimeType is the content type stored alongside the bytes, if any.
	MimeType string
}

// WriteOptions carries optional attributes for Write.
type WriteOptions struct {
	// MimeType is stored by backends that keep a content type per object.
	MimeType string
}

// ============================================================================
// Backend Interface
// ============================================================================

// Backend is the capability interface of a storage adapter.
//
// All paths are canonical (see package vpath): they begin with "/" and
// the root is "/". The root directory always exists.
//
// Contract shared by every adapter:
//   - Stat of a missing path returns ErrNotFound.
//   - List returns the immediate children only, in no particular order.
//     Listing a file returns ErrNotDirectory.
//   - Read of a directory returns ErrIsDirectory.
//   - Write creates or overwrites a file. The parent directory must exist
//     (ErrNotFound). Writing over a directory returns ErrIsDirectory.
//   - Move relocates a file or a whole directory tree. The destination must
//     not exist (ErrExists) and its parent must exist (ErrNotFound).
//   - Remove deletes a file or an empty directory. Non-empty directories
//     return ErrNotEmpty.
//   - Mkdir is idempotent for existing directories, returns ErrExists when a
//     file occupies the path and ErrNotFound when the parent is missing.
//
// Implementations must be safe for concurrent use. Atomicity of individual
// calls is adapter-specific; no cross-call isolation is promised.
type Backend interface {
	// Stat returns the metadata of the entry at path.
	Stat(ctx context.Context, path string) (*Metadata, error)

	// List returns the metadata of the immediate children of a directory.
	List(ctx context.Context, path string) ([]*Metadata, error)

	// Read returns the full contents of a file.
	Read(ctx context.Context, path string) ([]byte, error)

	// Write stores data at path, replacing any existing file.
	Write(ctx context.Context, path string, data []byte, opts WriteOptions) error

	// Move renames oldPath to newPath, carrying descendants of directories.
	Move(ctx context.Context, oldPath, newPath string) error

	// Remove deletes a file or an empty directory.
	Remove(ctx context.Context, path string) error

	// Mkdir creates a directory.
	Mkdir(ctx context.Context, path string) error

	// Exists reports whether any entry exists at path.
	Exists(ctx context.Context, path string) (bool, error)
}

// Pinger is implemented by adapters holding a remote session. Ping is a
// cheap no-op request used to keep that session alive.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Ping probes b, using its Pinger implementation when present and a Stat of
// the root otherwise.
func Ping(ctx context.Context, b Backend) error {
	if p, ok := b.(Pinger); ok {
		return p.Ping(ctx)
	}
	_, err := b.Stat(ctx, "/")
	return err
}
