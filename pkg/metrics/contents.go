package metrics

import "time"

// ContentsMetrics records contents manager activity.
//
// Operation names are the public manager operations ("get", "save",
// "delete", "rename", "create_checkpoint", ...). Kind is the entry kind
// label ("file", "directory", "notebook") or "" when not applicable.
type ContentsMetrics interface {
	// RecordOperation records a completed manager operation.
	RecordOperation(operation, kind string, duration time.Duration, err error)

	// RecordBytes records payload bytes read from or written to a backend.
	// Direction is "read" or "write".
	RecordBytes(direction string, bytes int64)

	// RecordCheckpoint records checkpoint activity ("create", "restore",
	// "delete", "rename").
	RecordCheckpoint(action string)
}

// NewNoopContentsMetrics returns a ContentsMetrics that discards everything.
func NewNoopContentsMetrics() ContentsMetrics {
	return noopContentsMetrics{}
}

type noopContentsMetrics struct{}

func (noopContentsMetrics) RecordOperation(operation, kind string, duration time.Duration, err error) {
}
func (noopContentsMetrics) RecordBytes(direction string, bytes int64) {}
func (noopContentsMetrics) RecordCheckpoint(action string)            {}
