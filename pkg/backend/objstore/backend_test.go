package objstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/marmos91/nbcontents/pkg/backend"
	backendtesting "github.com/marmos91/nbcontents/pkg/backend/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bucket is an in-process Client with S3 listing semantics.
type bucket struct {
	mu      sync.Mutex
	objects map[string]ObjectInfo
	data    map[string][]byte
	copies  int
}

func newBucket() *bucket {
	return &bucket{objects: map[string]ObjectInfo{}, data: map[string][]byte{}}
}

func (c *bucket) Head(_ context.Context, key string) (*ObjectInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	info, ok := c.objects[key]
	if !ok {
		return nil, fmt.Errorf("head %s: %w", key, backend.ErrNotFound)
	}
	return &info, nil
}

func (c *bucket) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.data[key]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", key, backend.ErrNotFound)
	}
	return append([]byte{}, data...), nil
}

func (c *bucket) Put(_ context.Context, key string, data []byte, mimeType string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.objects[key] = ObjectInfo{Key: key, Size: int64(len(data)), Modified: time.Now(), MimeType: mimeType}
	c.data[key] = append([]byte{}, data...)
	return nil
}

func (c *bucket) Copy(_ context.Context, src, dst string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	info, ok := c.objects[src]
	if !ok {
		return fmt.Errorf("copy %s: %w", src, backend.ErrNotFound)
	}
	info.Key = dst
	c.objects[dst] = info
	c.data[dst] = c.data[src]
	c.copies++
	return nil
}

func (c *bucket) Delete(_ context.Context, keys []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.objects, k)
		delete(c.data, k)
	}
	return nil
}

func (c *bucket) List(_ context.Context, prefix string, delimited bool, limit int) ([]ObjectInfo, []string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.objects))
	for k := range c.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var objects []ObjectInfo
	var prefixes []string
	seen := map[string]bool{}
	for _, k := range keys {
		if limit > 0 && len(objects)+len(prefixes) >= limit {
			break
		}
		rest := k[len(prefix):]
		if i := strings.IndexByte(rest, '/'); delimited && i >= 0 {
			p := prefix + rest[:i+1]
			if !seen[p] {
				seen[p] = true
				prefixes = append(prefixes, p)
			}
			continue
		}
		objects = append(objects, c.objects[k])
	}
	return objects, prefixes, nil
}

func (c *bucket) Ping(context.Context) error { return nil }

func TestObjectStoreBackend(t *testing.T) {
	suite := &backendtesting.BackendTestSuite{
		NewBackend: func(t *testing.T) backend.Backend {
			return New(newBucket(), Options{})
		},
		StoresMimeType: true,
	}
	suite.Run(t)
}

func TestObjectStoreBackendWithPrefix(t *testing.T) {
	suite := &backendtesting.BackendTestSuite{
		NewBackend: func(t *testing.T) backend.Backend {
			return New(newBucket(), Options{Prefix: "/tenant/notebooks/"})
		},
		StoresMimeType: true,
	}
	suite.Run(t)
}

func TestKeysMirrorPaths(t *testing.T) {
	client := newBucket()
	b := New(client, Options{Prefix: "home"})
	ctx := context.Background()

	require.NoError(t, b.Mkdir(ctx, "/docs"))
	require.NoError(t, b.Write(ctx, "/docs/a.txt", []byte("a"), backend.WriteOptions{}))

	_, err := client.Head(ctx, "home/docs/")
	assert.NoError(t, err, "mkdir writes a directory marker")
	_, err = client.Head(ctx, "home/docs/a.txt")
	assert.NoError(t, err)
}

func TestImplicitDirectories(t *testing.T) {
	client := newBucket()
	b := New(client, Options{})
	ctx := context.Background()

	// Objects uploaded by other tools have no markers.
	require.NoError(t, client.Put(ctx, "data/raw/x.csv", []byte("1,2"), "text/csv"))

	md, err := b.Stat(ctx, "/data/raw")
	require.NoError(t, err)
	assert.True(t, md.IsDir)
	assert.True(t, md.Modified.IsZero())

	children, err := b.List(ctx, "/data")
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "/data/raw", children[0].Path)
	assert.True(t, children[0].IsDir)

	_, err = b.Read(ctx, "/data")
	assert.ErrorIs(t, err, backend.ErrIsDirectory)
}

func TestMoveDirectoryCopiesEveryObject(t *testing.T) {
	client := newBucket()
	b := New(client, Options{CopyConcurrency: 3})
	ctx := context.Background()

	require.NoError(t, b.Mkdir(ctx, "/src"))
	require.NoError(t, b.Mkdir(ctx, "/src/nested"))
	for i := 0; i < 20; i++ {
		require.NoError(t, b.Write(ctx, fmt.Sprintf("/src/nested/f%02d", i), []byte{byte(i)}, backend.WriteOptions{}))
	}

	require.NoError(t, b.Move(ctx, "/src", "/dst"))

	exists, err := b.Exists(ctx, "/src")
	require.NoError(t, err)
	assert.False(t, exists)

	data, err := b.Read(ctx, "/dst/nested/f07")
	require.NoError(t, err)
	assert.Equal(t, []byte{7}, data)
	assert.GreaterOrEqual(t, client.copies, 21)
}
