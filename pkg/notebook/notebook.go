// Package notebook implements the nbformat v4 document model used for
// ".ipynb" entries: parsing, serialization, structural validation and
// cell trust signing.
package notebook

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Extension is the file extension identifying notebook documents.
const Extension = ".ipynb"

// MimeType is the content type reported for notebook documents.
const MimeType = "application/x-ipynb+json"

const (
	// CurrentMajor is the only major nbformat version accepted.
	CurrentMajor = 4
	// CurrentMinor is the minor version written for new notebooks.
	CurrentMinor = 5
)

// Cell types.
const (
	CellCode     = "code"
	CellMarkdown = "markdown"
	CellRaw      = "raw"
)

var (
	// ErrMalformed is returned when text is not a JSON notebook document.
	ErrMalformed = errors.New("malformed notebook")

	// ErrUnsupportedVersion is returned for nbformat majors other than 4.
	ErrUnsupportedVersion = errors.New("unsupported nbformat version")
)

// Notebook is an nbformat v4 document.
type Notebook struct {
	Cells         []*Cell        `json:"cells"`
	Metadata      map[string]any `json:"metadata"`
	NBFormat      int            `json:"nbformat"`
	NBFormatMinor int            `json:"nbformat_minor"`
}

// Cell is a single notebook cell. Source is kept as one string; on disk it
// is written as a list of lines.
type Cell struct {
	ID             string
	CellType       string
	Source         string
	Metadata       map[string]any
	Outputs        []map[string]any
	ExecutionCount *int
	Attachments    map[string]any
}

// New returns an empty notebook at the current format version.
func New() *Notebook {
	return &Notebook{
		Cells:         []*Cell{},
		Metadata:      map[string]any{},
		NBFormat:      CurrentMajor,
		NBFormatMinor: CurrentMinor,
	}
}

// NewCodeCell returns a code cell with no outputs.
func NewCodeCell(source string) *Cell {
	return &Cell{CellType: CellCode, Source: source, Metadata: map[string]any{}, Outputs: []map[string]any{}}
}

// NewMarkdownCell returns a markdown cell.
func NewMarkdownCell(source string) *Cell {
	return &Cell{CellType: CellMarkdown, Source: source, Metadata: map[string]any{}}
}

type cellJSON struct {
	ID             string           `json:"id,omitempty"`
	CellType       string           `json:"cell_type"`
	Source         multiline        `json:"source"`
	Metadata       map[string]any   `json:"metadata"`
	Outputs        []map[string]any `json:"outputs,omitempty"`
	ExecutionCount *int             `json:"execution_count,omitempty"`
	Attachments    map[string]any   `json:"attachments,omitempty"`
}

// MarshalJSON writes the cell in nbformat layout. Code cells always carry
// outputs and execution_count (possibly empty / null); other cells never do.
func (c *Cell) MarshalJSON() ([]byte, error) {
	meta := c.Metadata
	if meta == nil {
		meta = map[string]any{}
	}

	if c.CellType == CellCode {
		outputs := c.Outputs
		if outputs == nil {
			outputs = []map[string]any{}
		}
		return json.Marshal(struct {
			CellType       string           `json:"cell_type"`
			ExecutionCount *int             `json:"execution_count"`
			ID             string           `json:"id,omitempty"`
			Metadata       map[string]any   `json:"metadata"`
			Outputs        []map[string]any `json:"outputs"`
			Source         multiline        `json:"source"`
		}{c.CellType, c.ExecutionCount, c.ID, meta, outputs, multiline(c.Source)})
	}

	return json.Marshal(struct {
		Attachments map[string]any `json:"attachments,omitempty"`
		CellType    string         `json:"cell_type"`
		ID          string         `json:"id,omitempty"`
		Metadata    map[string]any `json:"metadata"`
		Source      multiline      `json:"source"`
	}{c.Attachments, c.CellType, c.ID, meta, multiline(c.Source)})
}

// UnmarshalJSON accepts source as a string or a list of lines.
func (c *Cell) UnmarshalJSON(data []byte) error {
	var raw cellJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Cell{
		ID:             raw.ID,
		CellType:       raw.CellType,
		Source:         string(raw.Source),
		Metadata:       raw.Metadata,
		Outputs:        raw.Outputs,
		ExecutionCount: raw.ExecutionCount,
		Attachments:    raw.Attachments,
	}
	if c.Metadata == nil {
		c.Metadata = map[string]any{}
	}
	return nil
}

// multiline is a string stored on disk as a list of lines, each keeping its
// trailing newline.
type multiline string

func (m multiline) MarshalJSON() ([]byte, error) {
	return json.Marshal(splitLines(string(m)))
}

func (m *multiline) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*m = multiline(s)
		return nil
	}
	var lines []string
	if err := json.Unmarshal(data, &lines); err != nil {
		return fmt.Errorf("source must be a string or a list of strings")
	}
	*m = multiline(strings.Join(lines, ""))
	return nil
}

func splitLines(s string) []string {
	lines := strings.SplitAfter(s, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if lines == nil {
		lines = []string{}
	}
	return lines
}

// Parse decodes an nbformat v4 document.
func Parse(text string) (*Notebook, error) {
	var nb Notebook
	if err := json.Unmarshal([]byte(text), &nb); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if nb.NBFormat != CurrentMajor {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, nb.NBFormat)
	}
	if nb.Metadata == nil {
		nb.Metadata = map[string]any{}
	}
	if nb.Cells == nil {
		nb.Cells = []*Cell{}
	}
	for i, c := range nb.Cells {
		if c == nil {
			return nil, fmt.Errorf("%w: cell %d is null", ErrMalformed, i)
		}
	}
	return &nb, nil
}

// Serialize encodes nb the way nbformat writes files: one-space indentation,
// sorted keys, no HTML escaping and a trailing newline.
func Serialize(nb *Notebook) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", " ")
	if err := enc.Encode(nb); err != nil {
		return "", fmt.Errorf("serialize notebook: %w", err)
	}
	return buf.String(), nil
}

// FromValue converts a decoded JSON value (as received over an API) into a
// Notebook.
func FromValue(v any) (*Notebook, error) {
	switch nb := v.(type) {
	case *Notebook:
		if nb == nil {
			return nil, fmt.Errorf("%w: nil notebook", ErrMalformed)
		}
		return nb, nil
	case Notebook:
		return &nb, nil
	case string:
		return Parse(nb)
	case []byte:
		return Parse(string(nb))
	case json.RawMessage:
		return Parse(string(nb))
	case nil:
		return nil, fmt.Errorf("%w: no content", ErrMalformed)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return Parse(string(data))
	}
}

// Clone returns a deep copy of nb.
func (nb *Notebook) Clone() (*Notebook, error) {
	text, err := Serialize(nb)
	if err != nil {
		return nil, err
	}
	return Parse(text)
}
