package contents

import (
	"mime"
	"strings"
	"time"

	"github.com/marmos91/nbcontents/pkg/backend"
	"github.com/marmos91/nbcontents/pkg/notebook"
	"github.com/marmos91/nbcontents/pkg/vpath"
)

// Epoch substitutes for timestamps a backend cannot provide.
var Epoch = time.Unix(0, 0).UTC()

// baseEntry builds the content-free descriptor of an entry. A missing
// timestamp borrows the other one, and the epoch when both are missing.
func (m *Manager) baseEntry(p string, md *backend.Metadata, kind Kind) *Entry {
	created, modified := md.Created, md.Modified
	if created.IsZero() {
		created = modified
	}
	if modified.IsZero() {
		modified = created
	}
	if created.IsZero() {
		created, modified = Epoch, Epoch
	}

	e := &Entry{
		Name:         vpath.Base(p),
		Path:         p,
		Kind:         kind,
		Writable:     true,
		Created:      created.UTC(),
		LastModified: modified.UTC(),
	}
	if kind != KindDirectory {
		size := md.Size
		e.Size = &size
	}
	return e
}

// guessMimeType infers a media type from the extension of p, without
// parameters such as charset.
func guessMimeType(p string) string {
	ext := vpath.Ext(p)
	if ext == "" {
		return ""
	}
	if strings.EqualFold(ext, notebook.Extension) {
		return notebook.MimeType
	}
	t := mime.TypeByExtension(ext)
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	return t
}

// mimeTypeOf prefers the backend's stored type over the extension guess.
func mimeTypeOf(p string, md *backend.Metadata) string {
	if md != nil && md.MimeType != "" {
		return md.MimeType
	}
	return guessMimeType(p)
}

// kindOf classifies a listed child without reading it.
func kindOf(md *backend.Metadata) Kind {
	switch {
	case md.IsDir:
		return KindDirectory
	case strings.HasSuffix(md.Name, notebook.Extension):
		return KindNotebook
	default:
		return KindFile
	}
}
