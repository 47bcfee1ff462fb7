package testing

import (
	"testing"

	"github.com/marmos91/nbcontents/pkg/backend"
	"github.com/stretchr/testify/assert"
)

// RunWriteTests executes Write tests.
func (suite *BackendTestSuite) RunWriteTests(t *testing.T) {
	t.Run("Write_Basic", suite.testWriteBasic)
	t.Run("Write_Overwrite", suite.testWriteOverwrite)
	t.Run("Write_Empty", suite.testWriteEmpty)
	t.Run("Write_Binary", suite.testWriteBinary)
	t.Run("Write_UnicodeName", suite.testWriteUnicodeName)
	t.Run("Write_MissingParent", suite.testWriteMissingParent)
	t.Run("Write_OverDirectory", suite.testWriteOverDirectory)
}

func (suite *BackendTestSuite) testWriteBasic(t *testing.T) {
	b := suite.NewBackend(t)

	mustWrite(t, b, "/a.txt", []byte("Hello, World!"))
	assertContent(t, b, "/a.txt", []byte("Hello, World!"))
}

func (suite *BackendTestSuite) testWriteOverwrite(t *testing.T) {
	b := suite.NewBackend(t)

	mustWrite(t, b, "/a.txt", []byte("Old data"))
	mustWrite(t, b, "/a.txt", []byte("New data that is longer"))

	assertContent(t, b, "/a.txt", []byte("New data that is longer"))
	assert.Equal(t, int64(23), mustStat(t, b, "/a.txt").Size)
}

func (suite *BackendTestSuite) testWriteEmpty(t *testing.T) {
	b := suite.NewBackend(t)

	mustWrite(t, b, "/empty", []byte{})

	md := mustStat(t, b, "/empty")
	assert.True(t, md.IsFile)
	assert.Equal(t, int64(0), md.Size)
}

func (suite *BackendTestSuite) testWriteBinary(t *testing.T) {
	b := suite.NewBackend(t)
	data := []byte{0xff, 0xfe, 0x00, 0x01, 0x80, '\n', 0xc3}

	mustWrite(t, b, "/blob.bin", data)
	assertContent(t, b, "/blob.bin", data)
}

func (suite *BackendTestSuite) testWriteUnicodeName(t *testing.T) {
	b := suite.NewBackend(t)
	mustMkdir(t, b, "/Directory with spaces in")

	mustWrite(t, b, "/Directory with spaces in/ünicode é.txt", []byte("ok"))
	assertContent(t, b, "/Directory with spaces in/ünicode é.txt", []byte("ok"))
	assert.Equal(t, []string{"ünicode é.txt"}, childNames(t, b, "/Directory with spaces in"))
}

func (suite *BackendTestSuite) testWriteMissingParent(t *testing.T) {
	b := suite.NewBackend(t)

	err := b.Write(testContext(), "/no/such/dir.txt", []byte("x"), backend.WriteOptions{})
	assert.ErrorIs(t, err, backend.ErrNotFound)
}

func (suite *BackendTestSuite) testWriteOverDirectory(t *testing.T) {
	b := suite.NewBackend(t)
	mustMkdir(t, b, "/dir")

	err := b.Write(testContext(), "/dir", []byte("x"), backend.WriteOptions{})
	assert.ErrorIs(t, err, backend.ErrIsDirectory)
}
