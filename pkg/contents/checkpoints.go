package contents

import (
	"context"
	"strings"
	"time"

	"github.com/marmos91/nbcontents/internal/logger"
	"github.com/marmos91/nbcontents/pkg/notebook"
	"github.com/marmos91/nbcontents/pkg/vpath"
)

// CheckpointID is the identifier of the only checkpoint slot.
const CheckpointID = "0"

// Layout maps a document and checkpoint id to the checkpoint's path.
type Layout interface {
	Path(id, path string) string

	// ReservedDir is the name of the per-directory checkpoint folder, or ""
	// when checkpoints sit next to their documents.
	ReservedDir() string

	// Source inverts Path: it returns the document that checkpoint id at
	// cpPath belongs to, and false when cpPath is not such a checkpoint.
	Source(id, cpPath string) (string, bool)
}

// DefaultCheckpointDir is the folder DirLayout uses when Dir is empty.
const DefaultCheckpointDir = ".ipynb_checkpoints"

// DirLayout stores checkpoints as
// "{parent}/{Dir}/{stem}-checkpoint{id}{ext}".
type DirLayout struct {
	Dir string
}

func (l DirLayout) dir() string {
	if l.Dir == "" {
		return DefaultCheckpointDir
	}
	return l.Dir
}

func (l DirLayout) Path(id, p string) string {
	parent, name := vpath.Split(p)
	ext := vpath.Ext(name)
	stem := name[:len(name)-len(ext)]
	return joinChild(joinChild(parent, l.dir()), stem+"-checkpoint"+id+ext)
}

func (l DirLayout) ReservedDir() string { return l.dir() }

func (l DirLayout) Source(id, cpPath string) (string, bool) {
	cpDir, name := vpath.Split(cpPath)
	if vpath.Base(cpDir) != l.dir() {
		return "", false
	}
	marker := "-checkpoint" + id
	i := strings.LastIndex(name, marker)
	if i <= 0 {
		return "", false
	}
	return joinChild(vpath.Dir(cpDir), name[:i]+name[i+len(marker):]), true
}

// DefaultCheckpointPrefix is the prefix PrefixLayout uses when Prefix is
// empty.
const DefaultCheckpointPrefix = "._checkpoint"

// PrefixLayout stores checkpoints next to their documents as
// "{parent}/{Prefix}{id}_{name}".
type PrefixLayout struct {
	Prefix string
}

func (l PrefixLayout) prefix() string {
	if l.Prefix == "" {
		return DefaultCheckpointPrefix
	}
	return l.Prefix
}

func (l PrefixLayout) Path(id, p string) string {
	parent, name := vpath.Split(p)
	return joinChild(parent, l.prefix()+id+"_"+name)
}

func (l PrefixLayout) ReservedDir() string { return "" }

func (l PrefixLayout) Source(id, cpPath string) (string, bool) {
	parent, name := vpath.Split(cpPath)
	doc, ok := strings.CutPrefix(name, l.prefix()+id+"_")
	if !ok || doc == "" {
		return "", false
	}
	return joinChild(parent, doc), true
}

func joinChild(parent, name string) string {
	if parent == vpath.Root {
		return "/" + name
	}
	return parent + "/" + name
}

// Checkpoints keeps one prior version per document, stored through the
// owning Manager's backend. Checkpoint writes bypass save hooks, and
// notebook checkpoints are neither signed nor trust-marked.
type Checkpoints struct {
	m      *Manager
	layout Layout
}

// Path returns the checkpoint path of document p.
func (c *Checkpoints) Path(id, p string) string {
	return c.layout.Path(id, p)
}

// Source returns the document owning the checkpoint stored at cpPath.
func (c *Checkpoints) Source(cpPath string) (string, bool) {
	return c.layout.Source(CheckpointID, cpPath)
}

// ReservedDir is the layout's checkpoint folder name, or "".
func (c *Checkpoints) ReservedDir() string {
	return c.layout.ReservedDir()
}

func (c *Checkpoints) ensureDir(ctx context.Context, cpPath string) error {
	parent := vpath.Dir(cpPath)
	exists, err := c.m.dirExists(ctx, parent)
	if err != nil || exists {
		return err
	}
	_, err = c.m.saveDirectory(ctx, parent)
	return err
}

func (c *Checkpoints) record(ctx context.Context, cpPath string) (*CheckpointRecord, error) {
	md, err := c.m.backend.Stat(ctx, cpPath)
	if err != nil {
		return nil, translate(err, cpPath)
	}
	modified := md.Modified
	if modified.IsZero() {
		modified = md.Created
	}
	if modified.IsZero() {
		modified = Epoch
	}
	return &CheckpointRecord{ID: CheckpointID, LastModified: modified.UTC()}, nil
}

// CreateFile overwrites the checkpoint of file p with content.
func (c *Checkpoints) CreateFile(ctx context.Context, p, content string, format Format) (*CheckpointRecord, error) {
	cp := c.Path(CheckpointID, p)
	if err := c.ensureDir(ctx, cp); err != nil {
		return nil, err
	}
	logger.Debug("Creating checkpoint %s", cp)
	if err := c.m.writeFile(ctx, cp, content, format, ""); err != nil {
		return nil, err
	}
	c.m.metrics.RecordCheckpoint("create")
	return c.record(ctx, cp)
}

// CreateNotebook overwrites the checkpoint of notebook p with nb.
func (c *Checkpoints) CreateNotebook(ctx context.Context, p string, nb *notebook.Notebook) (*CheckpointRecord, error) {
	cp := c.Path(CheckpointID, p)
	if err := c.ensureDir(ctx, cp); err != nil {
		return nil, err
	}
	logger.Debug("Creating checkpoint %s", cp)
	if err := c.m.writeNotebook(ctx, cp, nb, false); err != nil {
		return nil, err
	}
	c.m.metrics.RecordCheckpoint("create")
	return c.record(ctx, cp)
}

// GetFile returns the saved content of file p's checkpoint as a file model.
func (c *Checkpoints) GetFile(ctx context.Context, id, p string) (*Entry, error) {
	cp := c.Path(id, p)
	e, err := c.m.getFile(ctx, cp, true, FormatNone)
	if err != nil {
		return nil, c.missing(err, id, p)
	}
	return &Entry{Kind: KindFile, Content: e.Content, Format: e.Format, MimeType: e.MimeType}, nil
}

// GetNotebook returns the saved notebook of p's checkpoint as a notebook
// model.
func (c *Checkpoints) GetNotebook(ctx context.Context, id, p string) (*Entry, error) {
	cp := c.Path(id, p)
	e, err := c.m.getNotebook(ctx, cp, true, false)
	if err != nil {
		return nil, c.missing(err, id, p)
	}
	return &Entry{Kind: KindNotebook, Content: e.Content, Format: FormatJSON}, nil
}

func (c *Checkpoints) missing(err error, id, p string) error {
	if IsNotFound(err) {
		return newError(ErrNotFound, p, "Checkpoint %s does not exist for %s", id, p)
	}
	return err
}

// List returns the checkpoints of p: none, or the single slot.
func (c *Checkpoints) List(ctx context.Context, p string) ([]*CheckpointRecord, error) {
	cp := c.Path(CheckpointID, p)
	exists, err := c.m.FileExists(ctx, cp)
	if err != nil {
		return nil, err
	}
	if !exists {
		return []*CheckpointRecord{}, nil
	}
	rec, err := c.record(ctx, cp)
	if err != nil {
		return nil, err
	}
	return []*CheckpointRecord{rec}, nil
}

// Delete removes a checkpoint. A missing checkpoint is reported as not
// found.
func (c *Checkpoints) Delete(ctx context.Context, id, p string) error {
	cp := c.Path(id, p)
	exists, err := c.m.FileExists(ctx, cp)
	if err != nil {
		return err
	}
	if !exists {
		return newError(ErrNotFound, p, "Checkpoint %s does not exist for %s", id, p)
	}
	if err := c.m.backend.Remove(ctx, cp); err != nil {
		return translate(err, cp)
	}
	c.m.metrics.RecordCheckpoint("delete")
	return nil
}

// Rename moves checkpoint id of oldPath to newPath, replacing any stale
// checkpoint already there.
func (c *Checkpoints) Rename(ctx context.Context, id, oldPath, newPath string) error {
	oldCp := c.Path(id, oldPath)
	newCp := c.Path(id, newPath)

	exists, err := c.m.FileExists(ctx, oldCp)
	if err != nil {
		return err
	}
	if !exists {
		return newError(ErrNotFound, oldPath, "Checkpoint %s does not exist for %s", id, oldPath)
	}

	if err := c.ensureDir(ctx, newCp); err != nil {
		return err
	}
	if stale, err := c.m.FileExists(ctx, newCp); err != nil {
		return err
	} else if stale {
		if err := c.m.backend.Remove(ctx, newCp); err != nil {
			return translate(err, newCp)
		}
	}

	if err := c.m.backend.Move(ctx, oldCp, newCp); err != nil {
		return translate(err, newCp)
	}
	c.m.metrics.RecordCheckpoint("rename")
	return nil
}

// RenameAll renames every checkpoint of oldPath.
func (c *Checkpoints) RenameAll(ctx context.Context, oldPath, newPath string) error {
	records, err := c.List(ctx, oldPath)
	if err != nil {
		return err
	}
	for _, r := range records {
		if err := c.Rename(ctx, r.ID, oldPath, newPath); err != nil {
			return err
		}
	}
	return nil
}

// DeleteAll deletes every checkpoint of p.
func (c *Checkpoints) DeleteAll(ctx context.Context, p string) error {
	records, err := c.List(ctx, p)
	if err != nil {
		return err
	}
	for _, r := range records {
		if err := c.Delete(ctx, r.ID, p); err != nil {
			return err
		}
	}
	return nil
}

// ============================================================================
// Manager checkpoint operations
// ============================================================================

// CreateCheckpoint snapshots the current content of path.
func (m *Manager) CreateCheckpoint(ctx context.Context, path string) (rec *CheckpointRecord, err error) {
	var kind Kind
	defer func(start time.Time) { m.observe("create_checkpoint", kind, start, err) }(time.Now())

	p, err := normalize(path)
	if err != nil {
		return nil, err
	}
	e, err := m.Get(ctx, p, GetOptions{Content: true})
	if err != nil {
		return nil, err
	}

	kind = e.Kind
	switch kind {
	case KindFile:
		return m.checkpoints.CreateFile(ctx, p, e.Content.(string), e.Format)
	case KindNotebook:
		return m.checkpoints.CreateNotebook(ctx, p, e.Content.(*notebook.Notebook))
	}
	return nil, newError(ErrInvalidTarget, p, "Cannot checkpoint a %s", kind)
}

// ListCheckpoints returns the checkpoints of path.
func (m *Manager) ListCheckpoints(ctx context.Context, path string) ([]*CheckpointRecord, error) {
	p, err := normalize(path)
	if err != nil {
		return nil, err
	}
	return m.checkpoints.List(ctx, p)
}

// RestoreCheckpoint saves the checkpointed content back over path. The
// restore goes through Save, so hooks and signing apply.
func (m *Manager) RestoreCheckpoint(ctx context.Context, id, path string) (err error) {
	var kind Kind
	defer func(start time.Time) { m.observe("restore_checkpoint", kind, start, err) }(time.Now())

	p, err := normalize(path)
	if err != nil {
		return err
	}
	current, err := m.Get(ctx, p, GetOptions{})
	if err != nil {
		return err
	}

	kind = current.Kind
	var model *Entry
	switch kind {
	case KindFile:
		model, err = m.checkpoints.GetFile(ctx, id, p)
	case KindNotebook:
		model, err = m.checkpoints.GetNotebook(ctx, id, p)
	default:
		return newError(ErrInvalidTarget, p, "Cannot restore a %s", kind)
	}
	if err != nil {
		return err
	}

	logger.Debug("Restoring %s from checkpoint %s", p, id)
	if _, err := m.Save(ctx, model, p); err != nil {
		return err
	}
	m.metrics.RecordCheckpoint("restore")
	return nil
}

// DeleteCheckpoint removes checkpoint id of path.
func (m *Manager) DeleteCheckpoint(ctx context.Context, id, path string) error {
	p, err := normalize(path)
	if err != nil {
		return err
	}
	return m.checkpoints.Delete(ctx, id, p)
}
