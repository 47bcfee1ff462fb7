// Package objstore implements backend.Backend on a flat object store such as
// S3 or MinIO.
//
// Keys mirror paths: "/notes/a.txt" is stored as "{prefix}notes/a.txt".
// Directories are either explicit, marked by an empty "{key}/" object, or
// implicit, inferred from any object below "{key}/". Mkdir always writes a
// marker so that empty directories survive.
package objstore

import (
	"context"
	"time"
)

// ObjectInfo describes one stored object.
type ObjectInfo struct {
	Key      string
	Size     int64
	Modified time.Time

	// MimeType is the content type recorded at upload, when the listing or
	// head call reports it.
	MimeType string
}

// Client is the minimal object API the backend needs. Adapters translate
// their "no such key" errors to backend.ErrNotFound.
type Client interface {
	// Head returns the object's metadata.
	Head(ctx context.Context, key string) (*ObjectInfo, error)

	// Get returns the object's bytes.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores data under key, recording mimeType when non-empty.
	Put(ctx context.Context, key string, data []byte, mimeType string) error

	// Copy duplicates src to dst server-side.
	Copy(ctx context.Context, src, dst string) error

	// Delete removes keys. Missing keys are not an error.
	Delete(ctx context.Context, keys []string) error

	// List returns objects under prefix. With delimited set, keys below
	// the next "/" are folded into common prefixes (each ending in "/").
	// A positive limit stops after that many results.
	List(ctx context.Context, prefix string, delimited bool, limit int) (objects []ObjectInfo, prefixes []string, err error)

	// Ping checks that the bucket is reachable.
	Ping(ctx context.Context) error
}
