package contents

import (
	"context"
	"sort"
)

func (m *Manager) getDirectory(ctx context.Context, p string, content bool) (*Entry, error) {
	md, err := m.backend.Stat(ctx, p)
	if err != nil {
		return nil, translate(err, p)
	}
	if !md.IsDir {
		return nil, newError(ErrNotFound, p, "%s is not a directory", p)
	}

	e := m.baseEntry(p, md, KindDirectory)
	if !content {
		return e, nil
	}

	listed, err := m.backend.List(ctx, p)
	if err != nil {
		return nil, translate(err, p)
	}

	children := make([]*Entry, 0, len(listed))
	for _, child := range listed {
		// Sockets, devices and the like are neither.
		if !child.IsFile && !child.IsDir {
			continue
		}
		if m.hide(child.Name) {
			continue
		}
		children = append(children, m.baseEntry(child.Path, child, kindOf(child)))
	}
	sort.Slice(children, func(i, j int) bool { return children[i].Name < children[j].Name })

	e.Content = children
	e.Format = FormatJSON
	return e, nil
}

// saveDirectory creates the directory if needed. The parent must exist.
func (m *Manager) saveDirectory(ctx context.Context, p string) (*Entry, error) {
	if err := m.backend.Mkdir(ctx, p); err != nil {
		return nil, translate(err, p)
	}
	return m.getDirectory(ctx, p, false)
}
