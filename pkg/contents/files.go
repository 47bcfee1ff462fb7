package contents

import (
	"context"

	"github.com/marmos91/nbcontents/internal/logger"
	"github.com/marmos91/nbcontents/pkg/backend"
)

func (m *Manager) getFile(ctx context.Context, p string, content bool, format Format) (*Entry, error) {
	md, err := m.backend.Stat(ctx, p)
	if err != nil {
		return nil, translate(err, p)
	}
	if !md.IsFile {
		return nil, newError(ErrNotFound, p, "%s is not a file", p)
	}

	e := m.baseEntry(p, md, KindFile)
	if !content {
		return e, nil
	}

	data, err := m.read(ctx, p)
	if err != nil {
		return nil, err
	}
	text, used, err := Decode(data, format)
	if err != nil {
		return nil, translate(err, p)
	}

	size := int64(len(data))
	e.Size = &size
	e.Content = text
	e.Format = used
	e.MimeType = mimeTypeOf(p, md)
	return e, nil
}

func (m *Manager) saveFile(ctx context.Context, p string, model *Entry) (*Entry, error) {
	text, ok := model.Content.(string)
	if !ok {
		return nil, newError(ErrBadFormat, p, "No file content provided")
	}
	if model.Format != FormatText && model.Format != FormatBase64 {
		return nil, newError(ErrBadFormat, p, "Must specify format of file contents as 'text' or 'base64'")
	}

	if err := m.writeFile(ctx, p, text, model.Format, model.MimeType); err != nil {
		return nil, err
	}
	return m.getFile(ctx, p, false, FormatNone)
}

// writeFile encodes and stores file content without running hooks.
func (m *Manager) writeFile(ctx context.Context, p, text string, format Format, mimeType string) error {
	data, err := Encode(text, format)
	if err != nil {
		return translate(err, p)
	}
	if mimeType == "" {
		mimeType = guessMimeType(p)
	}
	return m.write(ctx, p, data, mimeType)
}

func (m *Manager) read(ctx context.Context, p string) ([]byte, error) {
	data, err := m.backend.Read(ctx, p)
	if err != nil {
		return nil, translate(err, p)
	}
	m.metrics.RecordBytes("read", int64(len(data)))
	return data, nil
}

func (m *Manager) write(ctx context.Context, p string, data []byte, mimeType string) error {
	logger.Debug("Writing %d bytes to %s", len(data), p)
	if err := m.backend.Write(ctx, p, data, backend.WriteOptions{MimeType: mimeType}); err != nil {
		return translate(err, p)
	}
	m.metrics.RecordBytes("write", int64(len(data)))
	return nil
}
