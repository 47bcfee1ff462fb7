package testing

import (
	"testing"

	"github.com/marmos91/nbcontents/pkg/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunDirectoryTests executes Mkdir and List tests.
func (suite *BackendTestSuite) RunDirectoryTests(t *testing.T) {
	t.Run("Mkdir_Basic", suite.testMkdirBasic)
	t.Run("Mkdir_Idempotent", suite.testMkdirIdempotent)
	t.Run("Mkdir_OverFile", suite.testMkdirOverFile)
	t.Run("Mkdir_MissingParent", suite.testMkdirMissingParent)
	t.Run("List_OneLevel", suite.testListOneLevel)
	t.Run("List_Empty", suite.testListEmpty)
	t.Run("List_File", suite.testListFile)
	t.Run("List_NotFound", suite.testListNotFound)
}

// RunMoveTests executes Move tests.
func (suite *BackendTestSuite) RunMoveTests(t *testing.T) {
	t.Run("Move_File", suite.testMoveFile)
	t.Run("Move_Directory", suite.testMoveDirectory)
	t.Run("Move_EmptyDirectory", suite.testMoveEmptyDirectory)
	t.Run("Move_DestinationExists", suite.testMoveDestinationExists)
	t.Run("Move_NotFound", suite.testMoveNotFound)
	t.Run("Move_MissingParent", suite.testMoveMissingParent)
}

// RunRemoveTests executes Remove tests.
func (suite *BackendTestSuite) RunRemoveTests(t *testing.T) {
	t.Run("Remove_File", suite.testRemoveFile)
	t.Run("Remove_EmptyDirectory", suite.testRemoveEmptyDirectory)
	t.Run("Remove_NonEmptyDirectory", suite.testRemoveNonEmptyDirectory)
	t.Run("Remove_NotFound", suite.testRemoveNotFound)
}

// ============================================================================
// Directory Tests
// ============================================================================

func (suite *BackendTestSuite) testMkdirBasic(t *testing.T) {
	b := suite.NewBackend(t)
	mustMkdir(t, b, "/foo")
	mustMkdir(t, b, "/foo/bar")

	md := mustStat(t, b, "/foo/bar")
	assert.True(t, md.IsDir)
	assert.Equal(t, "bar", md.Name)
}

func (suite *BackendTestSuite) testMkdirIdempotent(t *testing.T) {
	b := suite.NewBackend(t)
	mustMkdir(t, b, "/foo")
	mustWrite(t, b, "/foo/keep.txt", []byte("k"))

	mustMkdir(t, b, "/foo")
	assertContent(t, b, "/foo/keep.txt", []byte("k"))
}

func (suite *BackendTestSuite) testMkdirOverFile(t *testing.T) {
	b := suite.NewBackend(t)
	mustWrite(t, b, "/file", []byte("x"))

	assert.ErrorIs(t, b.Mkdir(testContext(), "/file"), backend.ErrExists)
}

func (suite *BackendTestSuite) testMkdirMissingParent(t *testing.T) {
	b := suite.NewBackend(t)

	assert.ErrorIs(t, b.Mkdir(testContext(), "/a/b"), backend.ErrNotFound)
}

func (suite *BackendTestSuite) testListOneLevel(t *testing.T) {
	b := suite.NewBackend(t)
	mustMkdir(t, b, "/foo")
	mustMkdir(t, b, "/foo/sub")
	mustWrite(t, b, "/foo/nb.ipynb", []byte("{}"))
	mustWrite(t, b, "/foo/file.txt", []byte("text"))
	mustWrite(t, b, "/foo/sub/deep.txt", []byte("deep"))

	assert.Equal(t, []string{"file.txt", "nb.ipynb", "sub"}, childNames(t, b, "/foo"))

	children, err := b.List(testContext(), "/foo")
	require.NoError(t, err)
	for _, c := range children {
		switch c.Name {
		case "sub":
			assert.True(t, c.IsDir)
			assert.Equal(t, "/foo/sub", c.Path)
		case "file.txt":
			assert.True(t, c.IsFile)
			assert.Equal(t, int64(4), c.Size)
			assert.Equal(t, "/foo/file.txt", c.Path)
		}
	}

	assert.Contains(t, childNames(t, b, "/"), "foo")
}

func (suite *BackendTestSuite) testListEmpty(t *testing.T) {
	b := suite.NewBackend(t)
	mustMkdir(t, b, "/empty")

	assert.Empty(t, childNames(t, b, "/empty"))
}

func (suite *BackendTestSuite) testListFile(t *testing.T) {
	b := suite.NewBackend(t)
	mustWrite(t, b, "/file.txt", []byte("x"))

	_, err := b.List(testContext(), "/file.txt")
	assert.ErrorIs(t, err, backend.ErrNotDirectory)
}

func (suite *BackendTestSuite) testListNotFound(t *testing.T) {
	b := suite.NewBackend(t)

	_, err := b.List(testContext(), "/ghost")
	assert.ErrorIs(t, err, backend.ErrNotFound)
}

// ============================================================================
// Move Tests
// ============================================================================

func (suite *BackendTestSuite) testMoveFile(t *testing.T) {
	b := suite.NewBackend(t)
	mustWrite(t, b, "/a.txt", []byte("payload"))

	require.NoError(t, b.Move(testContext(), "/a.txt", "/b.txt"))

	assertExists(t, b, "/a.txt", false)
	assertContent(t, b, "/b.txt", []byte("payload"))
}

func (suite *BackendTestSuite) testMoveDirectory(t *testing.T) {
	b := suite.NewBackend(t)
	mustMkdir(t, b, "/foo")
	mustMkdir(t, b, "/foo/bar")
	mustMkdir(t, b, "/foo/bar/nested")
	mustWrite(t, b, "/foo/bar/a.txt", []byte("a"))
	mustWrite(t, b, "/foo/bar/nested/b.txt", []byte("b"))

	require.NoError(t, b.Move(testContext(), "/foo/bar", "/foo/bar_changed"))

	assertExists(t, b, "/foo/bar", false)
	assertExists(t, b, "/foo/bar/a.txt", false)
	assertExists(t, b, "/foo/bar/nested/b.txt", false)
	assert.True(t, mustStat(t, b, "/foo/bar_changed").IsDir)
	assert.True(t, mustStat(t, b, "/foo/bar_changed/nested").IsDir)
	assertContent(t, b, "/foo/bar_changed/a.txt", []byte("a"))
	assertContent(t, b, "/foo/bar_changed/nested/b.txt", []byte("b"))
	assert.Equal(t, []string{"bar_changed"}, childNames(t, b, "/foo"))
}

func (suite *BackendTestSuite) testMoveEmptyDirectory(t *testing.T) {
	b := suite.NewBackend(t)
	mustMkdir(t, b, "/empty")

	require.NoError(t, b.Move(testContext(), "/empty", "/renamed"))

	assertExists(t, b, "/empty", false)
	assert.True(t, mustStat(t, b, "/renamed").IsDir)
}

func (suite *BackendTestSuite) testMoveDestinationExists(t *testing.T) {
	b := suite.NewBackend(t)
	mustWrite(t, b, "/a.txt", []byte("a"))
	mustWrite(t, b, "/b.txt", []byte("b"))

	err := b.Move(testContext(), "/a.txt", "/b.txt")
	assert.ErrorIs(t, err, backend.ErrExists)

	assertContent(t, b, "/a.txt", []byte("a"))
	assertContent(t, b, "/b.txt", []byte("b"))
}

func (suite *BackendTestSuite) testMoveNotFound(t *testing.T) {
	b := suite.NewBackend(t)

	err := b.Move(testContext(), "/ghost.txt", "/other.txt")
	assert.ErrorIs(t, err, backend.ErrNotFound)
}

func (suite *BackendTestSuite) testMoveMissingParent(t *testing.T) {
	b := suite.NewBackend(t)
	mustWrite(t, b, "/a.txt", []byte("a"))

	err := b.Move(testContext(), "/a.txt", "/nowhere/a.txt")
	assert.ErrorIs(t, err, backend.ErrNotFound)
	assertContent(t, b, "/a.txt", []byte("a"))
}

// ============================================================================
// Remove Tests
// ============================================================================

func (suite *BackendTestSuite) testRemoveFile(t *testing.T) {
	b := suite.NewBackend(t)
	mustWrite(t, b, "/a.txt", []byte("a"))

	require.NoError(t, b.Remove(testContext(), "/a.txt"))
	assertExists(t, b, "/a.txt", false)
}

func (suite *BackendTestSuite) testRemoveEmptyDirectory(t *testing.T) {
	b := suite.NewBackend(t)
	mustMkdir(t, b, "/dir")

	require.NoError(t, b.Remove(testContext(), "/dir"))
	assertExists(t, b, "/dir", false)
}

func (suite *BackendTestSuite) testRemoveNonEmptyDirectory(t *testing.T) {
	b := suite.NewBackend(t)
	mustMkdir(t, b, "/dir")
	mustWrite(t, b, "/dir/child.txt", []byte("c"))

	err := b.Remove(testContext(), "/dir")
	assert.ErrorIs(t, err, backend.ErrNotEmpty)
	assertContent(t, b, "/dir/child.txt", []byte("c"))
}

func (suite *BackendTestSuite) testRemoveNotFound(t *testing.T) {
	b := suite.NewBackend(t)

	assert.ErrorIs(t, b.Remove(testContext(), "/ghost"), backend.ErrNotFound)
}
