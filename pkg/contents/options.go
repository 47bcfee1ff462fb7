package contents

import (
	"context"
	"fmt"

	"github.com/gobwas/glob"
	"github.com/marmos91/nbcontents/pkg/metrics"
	"github.com/marmos91/nbcontents/pkg/notebook"
)

// NotebookCodec parses, serializes, validates and signs notebook documents.
// *notebook.Codec is the standard implementation.
type NotebookCodec interface {
	Parse(text string) (*notebook.Notebook, error)
	Serialize(nb *notebook.Notebook) (string, error)
	Validate(nb *notebook.Notebook) error

	// MarkTrusted annotates cells according to the stored signature.
	MarkTrusted(ctx context.Context, nb *notebook.Notebook, path string)

	// Sign records the notebook as trusted when its cells allow it.
	Sign(ctx context.Context, nb *notebook.Notebook, path string) error
}

// SaveHook runs around Save. A pre-save hook may modify the model and
// aborts the save by returning an error. A post-save hook error is logged.
type SaveHook func(ctx context.Context, model *Entry, path string) error

// UntitledNames are the base names used by NewUntitled.
type UntitledNames struct {
	File      string
	Notebook  string
	Directory string
}

// DefaultUntitledNames match the Jupyter front end.
var DefaultUntitledNames = UntitledNames{
	File:      "untitled",
	Notebook:  "Untitled",
	Directory: "Untitled Folder",
}

// Option configures a Manager.
type Option func(*Manager)

// WithNotebookCodec replaces the default codec, which does not sign.
func WithNotebookCodec(c NotebookCodec) Option {
	return func(m *Manager) {
		if c != nil {
			m.codec = c
		}
	}
}

// WithCheckpointLayout selects where checkpoints are stored.
func WithCheckpointLayout(l Layout) Option {
	return func(m *Manager) {
		if l != nil {
			m.layout = l
		}
	}
}

func WithPreSaveHook(h SaveHook) Option {
	return func(m *Manager) { m.preSave = h }
}

func WithPostSaveHook(h SaveHook) Option {
	return func(m *Manager) { m.postSave = h }
}

func WithMetrics(cm metrics.ContentsMetrics) Option {
	return func(m *Manager) {
		if cm != nil {
			m.metrics = cm
		}
	}
}

// WithHideGlobs excludes matching children from directory listings.
// Patterns match the leaf name.
func WithHideGlobs(globs ...glob.Glob) Option {
	return func(m *Manager) { m.hidden = append(m.hidden, globs...) }
}

func WithUntitledNames(n UntitledNames) Option {
	return func(m *Manager) {
		if n.File != "" {
			m.untitled.File = n.File
		}
		if n.Notebook != "" {
			m.untitled.Notebook = n.Notebook
		}
		if n.Directory != "" {
			m.untitled.Directory = n.Directory
		}
	}
}

// CompileHideGlobs compiles listing filters such as "__pycache__" or "*.pyc".
func CompileHideGlobs(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid hide pattern %q: %w", p, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}
