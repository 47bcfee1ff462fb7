package testing

import (
	"sort"
	"testing"

	"github.com/marmos91/nbcontents/pkg/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mustWrite writes data at path and fails the test if it errors.
func mustWrite(t *testing.T, b backend.Backend, path string, data []byte) {
	t.Helper()
	err := b.Write(testContext(), path, data, backend.WriteOptions{})
	require.NoError(t, err, "Write %s should succeed", path)
}

// mustMkdir creates a directory and fails the test if it errors.
func mustMkdir(t *testing.T, b backend.Backend, path string) {
	t.Helper()
	require.NoError(t, b.Mkdir(testContext(), path), "Mkdir %s should succeed", path)
}

// mustStat stats path and fails the test if it errors.
func mustStat(t *testing.T, b backend.Backend, path string) *backend.Metadata {
	t.Helper()
	md, err := b.Stat(testContext(), path)
	require.NoError(t, err, "Stat %s should succeed", path)
	require.NotNil(t, md)
	return md
}

// assertContent checks that path holds exactly expected.
func assertContent(t *testing.T, b backend.Backend, path string, expected []byte) {
	t.Helper()
	data, err := b.Read(testContext(), path)
	require.NoError(t, err, "Read %s should succeed", path)
	assert.Equal(t, expected, data)
}

// assertExists checks existence of path.
func assertExists(t *testing.T, b backend.Backend, path string, expected bool) {
	t.Helper()
	ok, err := b.Exists(testContext(), path)
	require.NoError(t, err, "Exists %s should not error", path)
	assert.Equal(t, expected, ok, "existence of %s", path)
}

// childNames lists path and returns the sorted child names.
func childNames(t *testing.T, b backend.Backend, path string) []string {
	t.Helper()
	children, err := b.List(testContext(), path)
	require.NoError(t, err, "List %s should succeed", path)

	names := make([]string, 0, len(children))
	for _, c := range children {
		names = append(names, c.Name)
	}
	sort.Strings(names)
	return names
}
