package contents

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/marmos91/nbcontents/pkg/notebook"
	"github.com/marmos91/nbcontents/pkg/vpath"
)

// NewEntry saves a new entry at path, filling in empty content. A model
// without a kind is a notebook when path has the notebook extension and a
// file otherwise.
func (m *Manager) NewEntry(ctx context.Context, model *Entry, path string) (*Entry, error) {
	if model == nil {
		model = &Entry{}
	}
	if model.Kind == KindUnspecified {
		if vpath.Ext(path) == notebook.Extension {
			model.Kind = KindNotebook
		} else {
			model.Kind = KindFile
		}
	}

	if model.Content == nil {
		switch model.Kind {
		case KindNotebook:
			model.Content = notebook.New()
			model.Format = FormatJSON
		case KindFile:
			model.Content = ""
			model.Format = FormatText
		}
	}
	return m.Save(ctx, model, path)
}

// NewUntitled creates an entry with the first free untitled name in dir.
// Notebooks always get the notebook extension; ext applies to files.
func (m *Manager) NewUntitled(ctx context.Context, dir string, kind Kind, ext string) (entry *Entry, err error) {
	defer func(start time.Time) { m.observe("new_untitled", kind, start, err) }(time.Now())

	d, err := normalize(dir)
	if err != nil {
		return nil, err
	}
	exists, err := m.dirExists(ctx, d)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, newError(ErrNotFound, d, "No such directory: %s", d)
	}

	if kind == KindUnspecified {
		if ext == notebook.Extension {
			kind = KindNotebook
		} else {
			kind = KindFile
		}
	}

	var base, insert string
	switch kind {
	case KindDirectory:
		base, ext, insert = m.untitled.Directory, "", " "
	case KindNotebook:
		base, ext = m.untitled.Notebook, notebook.Extension
	default:
		base = m.untitled.File
	}

	name, err := m.IncrementFilename(ctx, base+ext, d, insert)
	if err != nil {
		return nil, err
	}
	return m.NewEntry(ctx, &Entry{Kind: kind}, joinChild(d, name))
}

// IncrementFilename returns the first of "name", "name{insert}1",
// "name{insert}2", ... not present in dir. The counter goes before the
// first dot, except for notebooks where it goes before the extension.
func (m *Manager) IncrementFilename(ctx context.Context, filename, dir, insert string) (string, error) {
	d, err := normalize(dir)
	if err != nil {
		return "", err
	}

	base, ext := splitForIncrement(filename)
	for i := 0; ; i++ {
		name := base + ext
		if i > 0 {
			name = base + insert + strconv.Itoa(i) + ext
		}
		exists, err := m.backend.Exists(ctx, joinChild(d, name))
		if err != nil {
			return "", translate(err, d)
		}
		if !exists {
			return name, nil
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
	}
}

func splitForIncrement(filename string) (base, ext string) {
	if strings.HasSuffix(filename, notebook.Extension) {
		return strings.TrimSuffix(filename, notebook.Extension), notebook.Extension
	}
	if i := strings.IndexByte(filename, '.'); i >= 0 {
		return filename[:i], filename[i:]
	}
	return filename, ""
}

var copySuffix = regexp.MustCompile(`-Copy\d*\.`)

// Copy duplicates the file or notebook at from. When to is a directory (or
// empty, meaning from's directory) the copy is named "{stem}-Copy{n}{ext}".
// Directories cannot be copied.
func (m *Manager) Copy(ctx context.Context, from, to string) (entry *Entry, err error) {
	var kind Kind
	defer func(start time.Time) { m.observe("copy", kind, start, err) }(time.Now())

	fp, err := normalize(from)
	if err != nil {
		return nil, err
	}
	src, err := m.Get(ctx, fp, GetOptions{Content: true})
	if err != nil {
		return nil, err
	}
	kind = src.Kind
	if kind == KindDirectory {
		return nil, newError(ErrBadFormat, fp, "Cannot copy directories")
	}

	if to == "" {
		to = vpath.Dir(fp)
	}
	tp, err := normalize(to)
	if err != nil {
		return nil, err
	}

	isDir, err := m.dirExists(ctx, tp)
	if err != nil {
		return nil, err
	}
	if isDir {
		name := copySuffix.ReplaceAllString(vpath.Base(fp), ".")
		name, err = m.IncrementFilename(ctx, name, tp, "-Copy")
		if err != nil {
			return nil, err
		}
		tp = joinChild(tp, name)
	}

	model := &Entry{Kind: kind, Content: src.Content, Format: src.Format, MimeType: src.MimeType}
	return m.Save(ctx, model, tp)
}
