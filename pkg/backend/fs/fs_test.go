package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/marmos91/nbcontents/pkg/backend"
	backendtesting "github.com/marmos91/nbcontents/pkg/backend/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryFilesystem(t *testing.T) {
	suite := &backendtesting.BackendTestSuite{
		NewBackend: func(t *testing.T) backend.Backend {
			return NewMemory(Config{})
		},
	}
	suite.Run(t)
}

func TestLocalFilesystem(t *testing.T) {
	suite := &backendtesting.BackendTestSuite{
		NewBackend: func(t *testing.T) backend.Backend {
			b, err := NewLocal(Config{Root: t.TempDir()})
			require.NoError(t, err)
			return b
		},
	}
	suite.Run(t)
}

func TestLocalWritesLandUnderRoot(t *testing.T) {
	root := t.TempDir()
	b, err := NewLocal(Config{Root: root})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, b.Mkdir(ctx, "/notes"))
	require.NoError(t, b.Write(ctx, "/notes/a.txt", []byte("hello"), backend.WriteOptions{}))

	data, err := os.ReadFile(filepath.Join(root, "notes", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	md, err := b.Stat(ctx, "/notes/a.txt")
	require.NoError(t, err)
	assert.True(t, md.Created.IsZero(), "filesystems do not report creation time")
	assert.False(t, md.Modified.IsZero())
}

func TestNewLocalRequiresRoot(t *testing.T) {
	_, err := NewLocal(Config{})
	assert.Error(t, err)
}

func TestReadOnly(t *testing.T) {
	b := NewMemory(Config{ReadOnly: true})
	ctx := context.Background()

	assert.ErrorIs(t, b.Write(ctx, "/a", []byte("x"), backend.WriteOptions{}), backend.ErrReadOnly)
	assert.ErrorIs(t, b.Mkdir(ctx, "/d"), backend.ErrReadOnly)
	assert.ErrorIs(t, b.Remove(ctx, "/a"), backend.ErrReadOnly)
}
