package backend

import "errors"

// ============================================================================
// Standard Backend Errors
// ============================================================================

// These errors give every backend adapter a shared vocabulary for failure
// conditions. The contents manager checks for them with errors.Is and maps
// them onto its own error taxonomy; no adapter-specific error type crosses
// that boundary.
//
// Adapters wrap them with context:
//
//	if !exists {
//	    return fmt.Errorf("stat %s: %w", path, backend.ErrNotFound)
//	}

var (
	// ErrNotFound indicates that no entry exists at the path, or that a
	// required parent directory is missing.
	//
	// Contents mapping: NotFound (404).
	ErrNotFound = errors.New("entry not found")

	// ErrExists indicates that the destination of a move, or the path of a
	// directory creation, is already occupied by an entry of another shape.
	//
	// Contents mapping: Conflict (409).
	ErrExists = errors.New("entry already exists")

	// ErrReadOnly indicates that the backend refuses writes, either globally
	// (read-only mount, read-only credentials) or for the path.
	//
	// Contents mapping: ReadOnly (409).
	ErrReadOnly = errors.New("backend is read-only")

	// ErrNotEmpty indicates a Remove of a directory that still has children.
	//
	// Contents mapping: Conflict (409).
	ErrNotEmpty = errors.New("directory not empty")

	// ErrNotDirectory indicates a directory operation (List, or a parent
	// lookup) on a path that is a file.
	//
	// Contents mapping: NotFound (404).
	ErrNotDirectory = errors.New("not a directory")

	// ErrIsDirectory indicates a file operation (Read, Write) on a path that
	// is a directory.
	//
	// Contents mapping: Conflict (409).
	ErrIsDirectory = errors.New("is a directory")

	// ErrNotSupported indicates that the adapter does not implement an
	// optional capability.
	ErrNotSupported = errors.New("operation not supported")

	// ErrUnavailable indicates a transient failure reaching the storage
	// service (network, throttling). Callers may retry at a higher level.
	ErrUnavailable = errors.New("backend unavailable")
)

// IsNotFound reports whether err means the entry is missing, including a
// path that runs through a file.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrNotDirectory)
}
