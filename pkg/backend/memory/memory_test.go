package memory

import (
	"context"
	"testing"
	"time"

	"github.com/marmos91/nbcontents/pkg/backend"
	backendtesting "github.com/marmos91/nbcontents/pkg/backend/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMemoryBackend runs the conformance suite against the memory adapter.
func TestMemoryBackend(t *testing.T) {
	suite := &backendtesting.BackendTestSuite{
		NewBackend: func(t *testing.T) backend.Backend {
			return New(Options{})
		},
		StoresMimeType: true,
	}

	suite.Run(t)
}

func TestReadOnly(t *testing.T) {
	b := New(Options{ReadOnly: true})
	ctx := context.Background()

	assert.ErrorIs(t, b.Write(ctx, "/a.txt", []byte("x"), backend.WriteOptions{}), backend.ErrReadOnly)
	assert.ErrorIs(t, b.Mkdir(ctx, "/dir"), backend.ErrReadOnly)
	assert.ErrorIs(t, b.Remove(ctx, "/a.txt"), backend.ErrReadOnly)
	assert.ErrorIs(t, b.Move(ctx, "/a", "/b"), backend.ErrReadOnly)
}

func TestTimestamps(t *testing.T) {
	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	b := New(Options{Now: func() time.Time { return clock }})
	ctx := context.Background()

	require.NoError(t, b.Write(ctx, "/a.txt", []byte("one"), backend.WriteOptions{}))
	created := clock

	clock = clock.Add(time.Hour)
	require.NoError(t, b.Write(ctx, "/a.txt", []byte("two"), backend.WriteOptions{}))

	md, err := b.Stat(ctx, "/a.txt")
	require.NoError(t, err)
	assert.Equal(t, created, md.Created)
	assert.Equal(t, clock, md.Modified)
}

func TestMoveIntoSelf(t *testing.T) {
	b := New(Options{})
	ctx := context.Background()
	require.NoError(t, b.Mkdir(ctx, "/a"))

	assert.ErrorIs(t, b.Move(ctx, "/a", "/a/b"), backend.ErrExists)
}

func TestCancelledContext(t *testing.T) {
	b := New(Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Stat(ctx, "/")
	assert.ErrorIs(t, err, context.Canceled)
}
