package badger

import (
	"bytes"
	"context"
	"testing"

	"github.com/marmos91/nbcontents/pkg/backend"
	backendtesting "github.com/marmos91/nbcontents/pkg/backend/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openInMemory(t *testing.T, compression bool) *Backend {
	t.Helper()
	b, err := Open(context.Background(), Config{InMemory: true, Compression: compression})
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestBadgerBackend(t *testing.T) {
	suite := &backendtesting.BackendTestSuite{
		NewBackend: func(t *testing.T) backend.Backend {
			return openInMemory(t, false)
		},
		StoresMimeType: true,
	}
	suite.Run(t)
}

func TestBadgerBackendCompressed(t *testing.T) {
	suite := &backendtesting.BackendTestSuite{
		NewBackend: func(t *testing.T) backend.Backend {
			return openInMemory(t, true)
		},
		StoresMimeType: true,
	}
	suite.Run(t)
}

func TestCompressedBodies(t *testing.T) {
	b := openInMemory(t, true)
	ctx := context.Background()

	large := bytes.Repeat([]byte("print('hello')\n"), 1000)
	require.NoError(t, b.Write(ctx, "/big.py", large, backend.WriteOptions{}))

	data, err := b.Read(ctx, "/big.py")
	require.NoError(t, err)
	assert.Equal(t, large, data)

	md, err := b.Stat(ctx, "/big.py")
	require.NoError(t, err)
	assert.Equal(t, int64(len(large)), md.Size, "size reports the uncompressed length")
}

func TestCompressionToggle(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	large := bytes.Repeat([]byte{0xAB, 0xCD}, 4096)

	b, err := Open(ctx, Config{Path: dir, Compression: true})
	require.NoError(t, err)
	require.NoError(t, b.Mkdir(ctx, "/data"))
	require.NoError(t, b.Write(ctx, "/data/blob.bin", large, backend.WriteOptions{MimeType: "application/octet-stream"}))
	require.NoError(t, b.Close())

	reopened, err := Open(ctx, Config{Path: dir})
	require.NoError(t, err)
	defer reopened.Close()

	data, err := reopened.Read(ctx, "/data/blob.bin")
	require.NoError(t, err)
	assert.Equal(t, large, data)

	md, err := reopened.Stat(ctx, "/data/blob.bin")
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", md.MimeType)
}

func TestListDoesNotLeakSiblingPrefixes(t *testing.T) {
	b := openInMemory(t, false)
	ctx := context.Background()

	require.NoError(t, b.Mkdir(ctx, "/a"))
	require.NoError(t, b.Mkdir(ctx, "/ab"))
	require.NoError(t, b.Write(ctx, "/a/x", []byte("1"), backend.WriteOptions{}))
	require.NoError(t, b.Write(ctx, "/ab/y", []byte("2"), backend.WriteOptions{}))

	children, err := b.List(ctx, "/a")
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "/a/x", children[0].Path)
}

func TestReadOnly(t *testing.T) {
	b, err := Open(context.Background(), Config{InMemory: true, ReadOnly: true})
	require.NoError(t, err)
	defer b.Close()

	ctx := context.Background()
	assert.ErrorIs(t, b.Write(ctx, "/a", []byte("x"), backend.WriteOptions{}), backend.ErrReadOnly)
	assert.ErrorIs(t, b.Mkdir(ctx, "/d"), backend.ErrReadOnly)
	assert.NoError(t, b.Ping(ctx))
}
