package testing

import (
	"context"
	"testing"

	"github.com/marmos91/nbcontents/pkg/backend"
)

// BackendTestSuite is a conformance suite for backend.Backend adapters.
// It tests the interface contract, not implementation details, so the same
// suite runs against the memory, fs, badger and object-store adapters.
//
// Usage:
//
//	func TestMyBackend(t *testing.T) {
//	    suite := &backendtesting.BackendTestSuite{
//	        NewBackend: func(t *testing.T) backend.Backend {
//	            return mybackend.New()
//	        },
//	    }
//	    suite.Run(t)
//	}
type BackendTestSuite struct {
	// NewBackend returns a fresh, empty backend for each test.
	NewBackend func(t *testing.T) backend.Backend

	// StoresMimeType enables assertions on MIME types passed to Write.
	StoresMimeType bool
}

// Run executes all tests in the suite.
func (suite *BackendTestSuite) Run(t *testing.T) {
	t.Run("ReadOperations", suite.RunReadTests)
	t.Run("WriteOperations", suite.RunWriteTests)
	t.Run("DirectoryOperations", suite.RunDirectoryTests)
	t.Run("MoveOperations", suite.RunMoveTests)
	t.Run("RemoveOperations", suite.RunRemoveTests)
}

func testContext() context.Context {
	return context.Background()
}
