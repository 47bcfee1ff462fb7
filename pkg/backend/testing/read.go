package testing

import (
	"testing"

	"github.com/marmos91/nbcontents/pkg/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunReadTests executes Stat, Read and Exists tests.
func (suite *BackendTestSuite) RunReadTests(t *testing.T) {
	t.Run("Stat_Root", suite.testStatRoot)
	t.Run("Stat_NotFound", suite.testStatNotFound)
	t.Run("Stat_File", suite.testStatFile)
	t.Run("Read_NotFound", suite.testReadNotFound)
	t.Run("Read_Directory", suite.testReadDirectory)
	t.Run("Exists", suite.testExists)
}

func (suite *BackendTestSuite) testStatRoot(t *testing.T) {
	b := suite.NewBackend(t)

	md := mustStat(t, b, "/")
	assert.True(t, md.IsDir)
	assert.False(t, md.IsFile)
	assertExists(t, b, "/", true)
}

func (suite *BackendTestSuite) testStatNotFound(t *testing.T) {
	b := suite.NewBackend(t)

	_, err := b.Stat(testContext(), "/missing.txt")
	assert.ErrorIs(t, err, backend.ErrNotFound)

	_, err = b.Stat(testContext(), "/missing/child.txt")
	assert.ErrorIs(t, err, backend.ErrNotFound)
}

func (suite *BackendTestSuite) testStatFile(t *testing.T) {
	b := suite.NewBackend(t)

	err := b.Write(testContext(), "/hello.txt", []byte("hello world\n"), backend.WriteOptions{MimeType: "text/plain"})
	require.NoError(t, err)

	md := mustStat(t, b, "/hello.txt")
	assert.True(t, md.IsFile)
	assert.False(t, md.IsDir)
	assert.Equal(t, "hello.txt", md.Name)
	assert.Equal(t, int64(12), md.Size)
	assert.False(t, md.Modified.IsZero() && md.Created.IsZero(), "a file reports at least one timestamp")
	if suite.StoresMimeType {
		assert.Equal(t, "text/plain", md.MimeType)
	}
}

func (suite *BackendTestSuite) testReadNotFound(t *testing.T) {
	b := suite.NewBackend(t)

	_, err := b.Read(testContext(), "/nope.bin")
	assert.ErrorIs(t, err, backend.ErrNotFound)
}

func (suite *BackendTestSuite) testReadDirectory(t *testing.T) {
	b := suite.NewBackend(t)
	mustMkdir(t, b, "/dir")

	_, err := b.Read(testContext(), "/dir")
	assert.ErrorIs(t, err, backend.ErrIsDirectory)
}

func (suite *BackendTestSuite) testExists(t *testing.T) {
	b := suite.NewBackend(t)
	mustMkdir(t, b, "/dir")
	mustWrite(t, b, "/dir/file.txt", []byte("x"))

	assertExists(t, b, "/dir", true)
	assertExists(t, b, "/dir/file.txt", true)
	assertExists(t, b, "/dir/other.txt", false)
	assertExists(t, b, "/di", false)
}
