package contents

import (
	"context"
	"testing"

	"github.com/marmos91/nbcontents/pkg/notebook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEntryDefaults(t *testing.T) {
	m := newMemoryManager()
	ctx := context.Background()

	nb, err := m.NewEntry(ctx, nil, "/fresh.ipynb")
	require.NoError(t, err)
	assert.Equal(t, KindNotebook, nb.Kind)

	e, err := m.Get(ctx, "/fresh.ipynb", GetOptions{Content: true})
	require.NoError(t, err)
	assert.Empty(t, e.Content.(*notebook.Notebook).Cells)

	file, err := m.NewEntry(ctx, &Entry{}, "/fresh.py")
	require.NoError(t, err)
	assert.Equal(t, KindFile, file.Kind)
	assert.Equal(t, int64(0), *file.Size)
}

func TestNewUntitled(t *testing.T) {
	eachBackend(t, func(t *testing.T, m *Manager) {
		ctx := context.Background()

		for _, want := range []string{"/Untitled.ipynb", "/Untitled1.ipynb", "/Untitled2.ipynb"} {
			e, err := m.NewUntitled(ctx, "/", KindNotebook, "")
			require.NoError(t, err)
			assert.Equal(t, want, e.Path)
			assert.Equal(t, KindNotebook, e.Kind)
		}

		for _, want := range []string{"/untitled.txt", "/untitled1.txt"} {
			e, err := m.NewUntitled(ctx, "", KindFile, ".txt")
			require.NoError(t, err)
			assert.Equal(t, want, e.Path)
		}

		for _, want := range []string{"/Untitled Folder", "/Untitled Folder 1"} {
			e, err := m.NewUntitled(ctx, "/", KindDirectory, "")
			require.NoError(t, err)
			assert.Equal(t, want, e.Path)
			assert.Equal(t, KindDirectory, e.Kind)
		}
	})
}

func TestNewUntitledInferredFromExtension(t *testing.T) {
	m := newMemoryManager(WithUntitledNames(UntitledNames{Notebook: "Analysis"}))
	e, err := m.NewUntitled(context.Background(), "/", KindUnspecified, notebook.Extension)
	require.NoError(t, err)
	assert.Equal(t, "/Analysis.ipynb", e.Path)
}

func TestNewUntitledMissingDirectory(t *testing.T) {
	m := newMemoryManager()
	_, err := m.NewUntitled(context.Background(), "/nope", KindFile, ".txt")
	assertCode(t, ErrNotFound, err)
}

func TestIncrementFilename(t *testing.T) {
	m := newMemoryManager()
	ctx := context.Background()
	mustSaveText(t, m, "/data.tar.gz", "x")
	mustSaveText(t, m, "/data1.tar.gz", "x")
	mustSaveNotebook(t, m, "/v1.2.ipynb", notebook.New())

	name, err := m.IncrementFilename(ctx, "data.tar.gz", "/", "")
	require.NoError(t, err)
	assert.Equal(t, "data2.tar.gz", name)

	name, err = m.IncrementFilename(ctx, "v1.2.ipynb", "/", "-")
	require.NoError(t, err)
	assert.Equal(t, "v1.2-1.ipynb", name)

	name, err = m.IncrementFilename(ctx, "free.txt", "/", "")
	require.NoError(t, err)
	assert.Equal(t, "free.txt", name)
}

func TestCopy(t *testing.T) {
	eachBackend(t, func(t *testing.T, m *Manager) {
		ctx := context.Background()
		mustSaveDir(t, m, "/src")
		mustSaveText(t, m, "/src/a.txt", "payload")

		first, err := m.Copy(ctx, "/src/a.txt", "")
		require.NoError(t, err)
		assert.Equal(t, "/src/a-Copy1.txt", first.Path)
		assert.Equal(t, "payload", readText(t, m, first.Path))

		second, err := m.Copy(ctx, "/src/a-Copy1.txt", "/src")
		require.NoError(t, err)
		assert.Equal(t, "/src/a-Copy2.txt", second.Path, "existing copy suffix is not stacked")

		mustSaveDir(t, m, "/dst")
		moved, err := m.Copy(ctx, "/src/a.txt", "/dst")
		require.NoError(t, err)
		assert.Equal(t, "/dst/a-Copy1.txt", moved.Path)

		named, err := m.Copy(ctx, "/src/a.txt", "/dst/renamed.txt")
		require.NoError(t, err)
		assert.Equal(t, "/dst/renamed.txt", named.Path)
	})
}

func TestCopyNotebook(t *testing.T) {
	m := newMemoryManager()
	ctx := context.Background()
	mustSaveNotebook(t, m, "/nb.ipynb", sampleNotebook())

	e, err := m.Copy(ctx, "nb.ipynb", "")
	require.NoError(t, err)
	assert.Equal(t, "/nb-Copy1.ipynb", e.Path)
	assert.Equal(t, KindNotebook, e.Kind)

	copied, err := m.Get(ctx, e.Path, GetOptions{Content: true})
	require.NoError(t, err)
	assert.Len(t, copied.Content.(*notebook.Notebook).Cells, 2)
}

func TestCopyErrors(t *testing.T) {
	m := newMemoryManager()
	ctx := context.Background()
	mustSaveDir(t, m, "/d")

	_, err := m.Copy(ctx, "/d", "")
	assertCode(t, ErrBadFormat, err)

	_, err = m.Copy(ctx, "/missing.txt", "")
	assertCode(t, ErrNotFound, err)
}
