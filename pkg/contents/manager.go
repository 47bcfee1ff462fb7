// Package contents exposes a storage backend as a Jupyter contents store:
// files, directories and notebooks addressed by slash-separated paths, with
// a single checkpoint slot per document.
package contents

import (
	"context"
	"time"

	"github.com/gobwas/glob"
	"github.com/marmos91/nbcontents/internal/logger"
	"github.com/marmos91/nbcontents/pkg/backend"
	"github.com/marmos91/nbcontents/pkg/metrics"
	"github.com/marmos91/nbcontents/pkg/notebook"
	"github.com/marmos91/nbcontents/pkg/vpath"
)

// Manager serves the contents operations over a Backend. It holds no state
// of its own beyond configuration and is safe for concurrent use when the
// backend is.
type Manager struct {
	backend  backend.Backend
	codec    NotebookCodec
	layout   Layout
	preSave  SaveHook
	postSave SaveHook
	metrics  metrics.ContentsMetrics
	hidden   []glob.Glob
	untitled UntitledNames

	checkpoints *Checkpoints
}

// New creates a Manager over b. Without options notebooks are not signed
// and checkpoints live in a ".ipynb_checkpoints" directory next to each
// document.
func New(b backend.Backend, opts ...Option) *Manager {
	m := &Manager{
		backend:  b,
		codec:    notebook.NewCodec(nil),
		layout:   DirLayout{},
		metrics:  metrics.NewNoopContentsMetrics(),
		untitled: DefaultUntitledNames,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.checkpoints = &Checkpoints{m: m, layout: m.layout}
	return m
}

// Backend returns the underlying storage backend.
func (m *Manager) Backend() backend.Backend { return m.backend }

// Checkpoints returns the manager's checkpoint store.
func (m *Manager) Checkpoints() *Checkpoints { return m.checkpoints }

func (m *Manager) observe(op string, kind Kind, start time.Time, err error) {
	m.metrics.RecordOperation(op, kind.String(), time.Since(start), err)
	if err != nil {
		logger.Debug("contents %s failed: %v", op, err)
	}
}

// normalize canonicalizes a caller path. Escaping paths are reported as
// not found.
func normalize(raw string) (string, error) {
	p, err := vpath.Normalize(raw)
	if err != nil {
		return "", translate(err, raw)
	}
	return p, nil
}

// ============================================================================
// Get
// ============================================================================

// Get returns the entry at path. With opts.Kind unset the kind is inferred:
// a notebook extension means notebook, an existing directory means
// directory, anything else is a file.
func (m *Manager) Get(ctx context.Context, path string, opts GetOptions) (entry *Entry, err error) {
	kind := opts.Kind
	defer func(start time.Time) { m.observe("get", kind, start, err) }(time.Now())

	p, err := normalize(path)
	if err != nil {
		return nil, err
	}

	if kind == KindUnspecified {
		if kind, err = m.inferKind(ctx, p); err != nil {
			return nil, err
		}
	}

	switch kind {
	case KindDirectory:
		return m.getDirectory(ctx, p, opts.Content)
	case KindNotebook:
		return m.getNotebook(ctx, p, opts.Content, true)
	case KindFile:
		return m.getFile(ctx, p, opts.Content, opts.Format)
	}
	return nil, newError(ErrBadFormat, p, "Unknown entry type for %s", p)
}

func (m *Manager) inferKind(ctx context.Context, p string) (Kind, error) {
	if vpath.Ext(p) == notebook.Extension {
		return KindNotebook, nil
	}
	isDir, err := m.dirExists(ctx, p)
	if err != nil {
		return KindUnspecified, err
	}
	if isDir {
		return KindDirectory, nil
	}
	return KindFile, nil
}

// ============================================================================
// Save
// ============================================================================

// Save stores model at path and returns the content-free entry. The
// pre-save hook runs first and may abort the save.
func (m *Manager) Save(ctx context.Context, model *Entry, path string) (entry *Entry, err error) {
	var kind Kind
	defer func(start time.Time) { m.observe("save", kind, start, err) }(time.Now())

	p, err := normalize(path)
	if err != nil {
		return nil, err
	}
	if model == nil {
		return nil, newError(ErrBadFormat, p, "No model provided")
	}

	if m.preSave != nil {
		if err := m.preSave(ctx, model, p); err != nil {
			return nil, m.hookError(err, p, "Pre-save hook failed")
		}
	}

	kind = model.Kind
	switch kind {
	case KindUnspecified:
		return nil, newError(ErrMissingType, p, "No file type provided")
	case KindDirectory:
		entry, err = m.saveDirectory(ctx, p)
	case KindNotebook:
		entry, err = m.saveNotebook(ctx, p, model.Content, true)
	case KindFile:
		entry, err = m.saveFile(ctx, p, model)
	default:
		return nil, newError(ErrBadFormat, p, "Unknown entry type for %s", p)
	}
	if err != nil {
		return nil, err
	}

	if m.postSave != nil {
		if err := m.postSave(ctx, entry, p); err != nil {
			logger.Error("Post-save hook failed on %s: %v", p, err)
		}
	}
	return entry, nil
}

func (m *Manager) hookError(err error, p, msg string) error {
	if ce, ok := err.(*Error); ok {
		return ce
	}
	return &Error{Code: ErrInternal, Path: p, Message: msg, Err: err}
}

// ============================================================================
// Delete and rename
// ============================================================================

// DeleteFile removes a file or a directory. A directory must be empty,
// except for its own checkpoint directory, which is cleared with it.
func (m *Manager) DeleteFile(ctx context.Context, path string) (err error) {
	defer func(start time.Time) { m.observe("delete", KindUnspecified, start, err) }(time.Now())
	return m.deleteFile(ctx, path)
}

func (m *Manager) deleteFile(ctx context.Context, path string) error {
	p, err := normalize(path)
	if err != nil {
		return err
	}
	if vpath.IsRoot(p) {
		return newError(ErrInvalidTarget, p, "Cannot delete the root directory")
	}

	md, err := m.backend.Stat(ctx, p)
	if err != nil {
		if backend.IsNotFound(err) {
			return newError(ErrNotFound, p, "File or directory does not exist: %s", p)
		}
		return translate(err, p)
	}

	if md.IsDir {
		if err := m.clearCheckpointDir(ctx, p); err != nil {
			return err
		}
	}

	logger.Debug("Deleting %s", p)
	return translate(m.backend.Remove(ctx, p), p)
}

// clearCheckpointDir removes dir's checkpoint directory when it is the only
// thing left in dir, and rejects any other non-empty directory.
func (m *Manager) clearCheckpointDir(ctx context.Context, dir string) error {
	children, err := m.backend.List(ctx, dir)
	if err != nil {
		return translate(err, dir)
	}
	if len(children) == 0 {
		return nil
	}

	reserved := m.layout.ReservedDir()
	if len(children) > 1 || reserved == "" || children[0].Name != reserved || !children[0].IsDir {
		return newError(ErrConflict, dir, "Directory %s not empty", dir)
	}

	cpDir := children[0].Path
	saved, err := m.backend.List(ctx, cpDir)
	if err != nil {
		return translate(err, cpDir)
	}
	for _, cp := range saved {
		if err := m.backend.Remove(ctx, cp.Path); err != nil {
			return translate(err, cp.Path)
		}
	}
	return translate(m.backend.Remove(ctx, cpDir), cpDir)
}

// RenameFile moves an entry, carrying a directory's descendants. It does
// not touch checkpoints; Rename does.
func (m *Manager) RenameFile(ctx context.Context, oldPath, newPath string) (err error) {
	defer func(start time.Time) { m.observe("rename", KindUnspecified, start, err) }(time.Now())
	_, _, err = m.renameFile(ctx, oldPath, newPath)
	return err
}

func (m *Manager) renameFile(ctx context.Context, oldPath, newPath string) (string, string, error) {
	op, err := normalize(oldPath)
	if err != nil {
		return "", "", err
	}
	np, err := normalize(newPath)
	if err != nil {
		return "", "", err
	}
	if vpath.IsRoot(op) {
		return "", "", newError(ErrInvalidTarget, op, "Cannot rename the root directory")
	}

	exists, err := m.backend.Exists(ctx, np)
	if err != nil {
		return "", "", translate(err, np)
	}
	if exists {
		return "", "", newError(ErrConflict, np, "File already exists: %s", np)
	}
	if vpath.HasPrefix(np, op) {
		return "", "", newError(ErrInvalidTarget, np, "Cannot move %s into itself", op)
	}

	if err := m.backend.Move(ctx, op, np); err != nil {
		if backend.IsNotFound(err) {
			if ok, _ := m.backend.Exists(ctx, op); !ok {
				return "", "", newError(ErrNotFound, op, "File or directory does not exist: %s", op)
			}
		}
		return "", "", translate(err, np)
	}
	logger.Debug("Renamed %s to %s", op, np)
	return op, np, nil
}

// Delete removes an entry together with its checkpoints.
func (m *Manager) Delete(ctx context.Context, path string) (err error) {
	defer func(start time.Time) { m.observe("delete", KindUnspecified, start, err) }(time.Now())

	p, err := normalize(path)
	if err != nil {
		return err
	}
	if err := m.checkpoints.DeleteAll(ctx, p); err != nil {
		return err
	}
	return m.deleteFile(ctx, p)
}

// Rename moves an entry together with its checkpoints.
func (m *Manager) Rename(ctx context.Context, oldPath, newPath string) (err error) {
	defer func(start time.Time) { m.observe("rename", KindUnspecified, start, err) }(time.Now())

	op, np, err := m.renameFile(ctx, oldPath, newPath)
	if err != nil {
		return err
	}
	return m.checkpoints.RenameAll(ctx, op, np)
}

// ============================================================================
// Predicates
// ============================================================================

// FileExists reports whether path names a file. Escaping paths do not
// exist.
func (m *Manager) FileExists(ctx context.Context, path string) (bool, error) {
	p, err := vpath.Normalize(path)
	if err != nil {
		return false, nil
	}
	md, err := m.backend.Stat(ctx, p)
	if err != nil {
		if backend.IsNotFound(err) {
			return false, nil
		}
		return false, translate(err, p)
	}
	return md.IsFile, nil
}

// DirExists reports whether path names a directory. The root always
// exists.
func (m *Manager) DirExists(ctx context.Context, path string) (bool, error) {
	p, err := vpath.Normalize(path)
	if err != nil {
		return false, nil
	}
	return m.dirExists(ctx, p)
}

func (m *Manager) dirExists(ctx context.Context, p string) (bool, error) {
	if vpath.IsRoot(p) {
		return true, nil
	}
	md, err := m.backend.Stat(ctx, p)
	if err != nil {
		if backend.IsNotFound(err) {
			return false, nil
		}
		return false, translate(err, p)
	}
	return md.IsDir, nil
}

// IsHidden reports whether the leaf name of path begins with a dot.
func (m *Manager) IsHidden(path string) bool {
	p, err := vpath.Normalize(path)
	if err != nil {
		return false
	}
	return vpath.IsHidden(p)
}

func (m *Manager) hide(name string) bool {
	for _, g := range m.hidden {
		if g.Match(name) {
			return true
		}
	}
	return false
}
