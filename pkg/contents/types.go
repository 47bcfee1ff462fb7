package contents

import (
	"encoding/json"
	"fmt"
	"time"
)

// ============================================================================
// Kind
// ============================================================================

// Kind is the type of an entry. The zero value means "not specified" and is
// only valid as an input (Get infers it, Save rejects it).
type Kind int

const (
	KindUnspecified Kind = iota
	KindFile
	KindDirectory
	KindNotebook
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	case KindNotebook:
		return "notebook"
	default:
		return ""
	}
}

// ParseKind converts a wire name to a Kind. The empty string yields
// KindUnspecified.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "":
		return KindUnspecified, nil
	case "file":
		return KindFile, nil
	case "directory":
		return KindDirectory, nil
	case "notebook":
		return KindNotebook, nil
	}
	return KindUnspecified, newError(ErrBadFormat, "", "unknown entry type %q", s)
}

func (k Kind) MarshalJSON() ([]byte, error) {
	if k == KindUnspecified {
		return []byte("null"), nil
	}
	return json.Marshal(k.String())
}

func (k *Kind) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil {
		*k = KindUnspecified
		return nil
	}
	parsed, err := ParseKind(*s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ============================================================================
// Format
// ============================================================================

// Format is the transport representation of an entry's content. The zero
// value means "absent" (on reads: negotiate automatically).
type Format int

const (
	FormatNone Format = iota
	FormatText
	FormatBase64
	FormatJSON
)

func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatBase64:
		return "base64"
	case FormatJSON:
		return "json"
	default:
		return ""
	}
}

// ParseFormat converts a wire name to a Format. The empty string yields
// FormatNone.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "":
		return FormatNone, nil
	case "text":
		return FormatText, nil
	case "base64":
		return FormatBase64, nil
	case "json":
		return FormatJSON, nil
	}
	return FormatNone, newError(ErrBadFormat, "", "unknown format %q", s)
}

func (f Format) MarshalJSON() ([]byte, error) {
	if f == FormatNone {
		return []byte("null"), nil
	}
	return json.Marshal(f.String())
}

func (f *Format) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil {
		*f = FormatNone
		return nil
	}
	parsed, err := ParseFormat(*s)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// ============================================================================
// Entry
// ============================================================================

// Entry is the uniform description of a file, directory or notebook.
//
// Content holds a string for files, a *notebook.Notebook for notebooks and
// []*Entry for directories, and is nil unless content was requested. Format
// and MimeType travel with Content and are absent without it. Directories
// never carry Size or MimeType.
type Entry struct {
	Name         string
	Path         string
	Kind         Kind
	Writable     bool
	Created      time.Time
	LastModified time.Time
	Size         *int64
	MimeType     string
	Format       Format
	Content      any

	// Message carries a notebook validation failure, if any.
	Message string
}

type entryJSON struct {
	Name         string          `json:"name"`
	Path         string          `json:"path"`
	Kind         Kind            `json:"type"`
	Writable     bool            `json:"writable"`
	Created      *time.Time      `json:"created"`
	LastModified *time.Time      `json:"last_modified"`
	Size         *int64          `json:"size"`
	MimeType     *string         `json:"mimetype"`
	Format       Format          `json:"format"`
	Content      json.RawMessage `json:"content"`
	Message      string          `json:"message,omitempty"`
}

// MarshalJSON encodes the entry in the Jupyter contents model layout, with
// absent fields as null.
func (e *Entry) MarshalJSON() ([]byte, error) {
	content, err := json.Marshal(e.Content)
	if err != nil {
		return nil, err
	}

	out := entryJSON{
		Name:         e.Name,
		Path:         e.Path,
		Kind:         e.Kind,
		Writable:     e.Writable,
		Created:      &e.Created,
		LastModified: &e.LastModified,
		Size:         e.Size,
		Format:       e.Format,
		Content:      content,
		Message:      e.Message,
	}
	if e.MimeType != "" {
		out.MimeType = &e.MimeType
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a model sent by a client. File content is decoded
// as a string; notebook content is kept as raw JSON for the notebook codec.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var in entryJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	*e = Entry{
		Name:     in.Name,
		Path:     in.Path,
		Kind:     in.Kind,
		Writable: in.Writable,
		Size:     in.Size,
		Format:   in.Format,
		Message:  in.Message,
	}
	if in.Created != nil {
		e.Created = *in.Created
	}
	if in.LastModified != nil {
		e.LastModified = *in.LastModified
	}
	if in.MimeType != nil {
		e.MimeType = *in.MimeType
	}

	if len(in.Content) == 0 || string(in.Content) == "null" {
		return nil
	}
	switch e.Kind {
	case KindNotebook, KindUnspecified:
		e.Content = in.Content
	case KindFile:
		var s string
		if err := json.Unmarshal(in.Content, &s); err != nil {
			return fmt.Errorf("file content must be a string: %w", err)
		}
		e.Content = s
	}
	return nil
}

// ============================================================================
// Checkpoints and options
// ============================================================================

// CheckpointRecord identifies the saved prior version of a document.
type CheckpointRecord struct {
	ID           string    `json:"id"`
	LastModified time.Time `json:"last_modified"`
}

// GetOptions selects what Get returns.
type GetOptions struct {
	// Content requests the entry's content.
	Content bool

	// Kind forces the entry type. KindUnspecified infers it.
	Kind Kind

	// Format forces the file content format. FormatNone negotiates.
	Format Format
}
