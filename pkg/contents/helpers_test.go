package contents

import (
	"context"
	"testing"

	"github.com/marmos91/nbcontents/pkg/backend"
	"github.com/marmos91/nbcontents/pkg/backend/badger"
	"github.com/marmos91/nbcontents/pkg/backend/fs"
	"github.com/marmos91/nbcontents/pkg/backend/memory"
	"github.com/marmos91/nbcontents/pkg/notebook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type backendFactory struct {
	name string
	new  func(t *testing.T) backend.Backend
}

var backendFactories = []backendFactory{
	{"memory", func(t *testing.T) backend.Backend {
		return memory.New(memory.Options{})
	}},
	{"fs", func(t *testing.T) backend.Backend {
		return fs.NewMemory(fs.Config{})
	}},
	{"badger", func(t *testing.T) backend.Backend {
		b, err := badger.Open(context.Background(), badger.Config{InMemory: true})
		require.NoError(t, err)
		t.Cleanup(func() { _ = b.Close() })
		return b
	}},
}

// eachBackend runs fn once per adapter with a fresh manager.
func eachBackend(t *testing.T, fn func(t *testing.T, m *Manager), opts ...Option) {
	t.Helper()
	for _, f := range backendFactories {
		t.Run(f.name, func(t *testing.T) {
			fn(t, New(f.new(t), opts...))
		})
	}
}

func newMemoryManager(opts ...Option) *Manager {
	return New(memory.New(memory.Options{}), opts...)
}

func mustSaveText(t *testing.T, m *Manager, path, text string) *Entry {
	t.Helper()
	e, err := m.Save(context.Background(), &Entry{Kind: KindFile, Format: FormatText, Content: text}, path)
	require.NoError(t, err)
	return e
}

func mustSaveDir(t *testing.T, m *Manager, path string) {
	t.Helper()
	_, err := m.Save(context.Background(), &Entry{Kind: KindDirectory}, path)
	require.NoError(t, err)
}

func mustSaveNotebook(t *testing.T, m *Manager, path string, nb *notebook.Notebook) *Entry {
	t.Helper()
	e, err := m.Save(context.Background(), &Entry{Kind: KindNotebook, Format: FormatJSON, Content: nb}, path)
	require.NoError(t, err)
	return e
}

func readText(t *testing.T, m *Manager, path string) string {
	t.Helper()
	e, err := m.Get(context.Background(), path, GetOptions{Content: true, Kind: KindFile, Format: FormatText})
	require.NoError(t, err)
	return e.Content.(string)
}

func assertCode(t *testing.T, code ErrorCode, err error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, CodeOf(err), "unexpected error: %v", err)
}

func childNames(e *Entry) []string {
	children := e.Content.([]*Entry)
	names := make([]string, len(children))
	for i, c := range children {
		names[i] = c.Name
	}
	return names
}
