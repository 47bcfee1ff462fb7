package contents

import (
	"context"

	"github.com/marmos91/nbcontents/pkg/notebook"
)

// getNotebook reads and parses a notebook. With trust set, cells are marked
// according to the stored signature; checkpoints read without it.
func (m *Manager) getNotebook(ctx context.Context, p string, content, trust bool) (*Entry, error) {
	md, err := m.backend.Stat(ctx, p)
	if err != nil {
		return nil, translate(err, p)
	}
	if !md.IsFile {
		return nil, newError(ErrNotFound, p, "%s is not a notebook", p)
	}

	e := m.baseEntry(p, md, KindNotebook)
	if !content {
		return e, nil
	}

	data, err := m.read(ctx, p)
	if err != nil {
		return nil, err
	}
	nb, err := m.parseNotebook(p, data)
	if err != nil {
		return nil, err
	}
	if trust {
		m.codec.MarkTrusted(ctx, nb, p)
	}

	size := int64(len(data))
	e.Size = &size
	e.Content = nb
	e.Format = FormatJSON
	e.MimeType = mimeTypeOf(p, md)
	e.Message = m.validationMessage(nb)
	return e, nil
}

func (m *Manager) parseNotebook(p string, data []byte) (*notebook.Notebook, error) {
	text, _, err := Decode(data, FormatText)
	if err != nil {
		return nil, &Error{Code: ErrMalformedDocument, Path: p, Message: "Unreadable Notebook: " + p, Err: err}
	}
	nb, err := m.codec.Parse(text)
	if err != nil {
		return nil, &Error{Code: ErrMalformedDocument, Path: p, Message: "Unreadable Notebook: " + p, Err: err}
	}
	return nb, nil
}

// saveNotebook stores a notebook given as a document or its JSON form.
// With sign set the notebook is signed first when its cells are trusted.
func (m *Manager) saveNotebook(ctx context.Context, p string, content any, sign bool) (*Entry, error) {
	if content == nil {
		return nil, newError(ErrBadFormat, p, "No file content provided")
	}
	nb, err := notebook.FromValue(content)
	if err != nil {
		return nil, &Error{Code: ErrMalformedDocument, Path: p, Message: "Unreadable Notebook: " + p, Err: err}
	}

	if err := m.writeNotebook(ctx, p, nb, sign); err != nil {
		return nil, err
	}

	e, err := m.getNotebook(ctx, p, false, false)
	if err != nil {
		return nil, err
	}
	e.Message = m.validationMessage(nb)
	return e, nil
}

func (m *Manager) writeNotebook(ctx context.Context, p string, nb *notebook.Notebook, sign bool) error {
	if sign {
		if err := m.codec.Sign(ctx, nb, p); err != nil {
			return &Error{Code: ErrInternal, Path: p, Message: "Failed to sign notebook " + p, Err: err}
		}
	}
	text, err := m.codec.Serialize(nb)
	if err != nil {
		return &Error{Code: ErrEncoding, Path: p, Message: "Failed to serialize notebook " + p, Err: err}
	}
	return m.write(ctx, p, []byte(text), notebook.MimeType)
}

func (m *Manager) validationMessage(nb *notebook.Notebook) string {
	if err := m.codec.Validate(nb); err != nil {
		return "Notebook validation failed: " + err.Error()
	}
	return ""
}
