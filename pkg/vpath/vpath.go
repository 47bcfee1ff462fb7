// Package vpath canonicalizes the slash-separated paths used to address
// entries in a contents store.
//
// Canonical paths always begin with "/", contain no "." or ".." segments and
// no empty segments, and carry no trailing slash except for the root "/".
// Paths that would ascend above the root are rejected with ErrPathEscape.
package vpath

import (
	"errors"
	"strings"
)

// Root is the canonical path of the store root.
const Root = "/"

// ErrPathEscape is returned when a path resolves above the store root.
var ErrPathEscape = errors.New("path escapes store root")

// Normalize returns the canonical form of raw.
//
// A missing leading slash is added, "." and empty segments are dropped and
// ".." removes the preceding segment. A ".." at the root fails with
// ErrPathEscape rather than being clamped, so "../etc" never aliases "/etc".
func Normalize(raw string) (string, error) {
	segments := make([]string, 0, strings.Count(raw, "/")+1)

	for _, seg := range strings.Split(raw, "/") {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(segments) == 0 {
				return "", ErrPathEscape
			}
			segments = segments[:len(segments)-1]
		default:
			segments = append(segments, seg)
		}
	}

	if len(segments) == 0 {
		return Root, nil
	}
	return "/" + strings.Join(segments, "/"), nil
}

// Resolve normalizes child relative to base.
func Resolve(base, child string) (string, error) {
	return Normalize(base + "/" + child)
}

// Join joins elements with "/" and normalizes the result.
func Join(elem ...string) (string, error) {
	return Normalize(strings.Join(elem, "/"))
}

// Split splits a canonical path into its parent directory and leaf name.
// The root splits into ("/", "").
func Split(p string) (parent, leaf string) {
	if p == Root || p == "" {
		return Root, ""
	}
	i := strings.LastIndex(p, "/")
	if i <= 0 {
		return Root, p[i+1:]
	}
	return p[:i], p[i+1:]
}

// Base returns the leaf name of a canonical path.
func Base(p string) string {
	_, leaf := Split(p)
	return leaf
}

// Dir returns the parent of a canonical path.
func Dir(p string) string {
	parent, _ := Split(p)
	return parent
}

// Ext returns the extension of the leaf name including the dot, or "".
// Dotfiles such as ".bashrc" have no extension.
func Ext(p string) string {
	name := Base(p)
	i := strings.LastIndex(name, ".")
	if i <= 0 {
		return ""
	}
	return name[i:]
}

// Stem returns the leaf name without its extension.
func Stem(p string) string {
	name := Base(p)
	return strings.TrimSuffix(name, Ext(name))
}

// IsRoot reports whether p is the canonical root.
func IsRoot(p string) bool {
	return p == Root
}

// IsHidden reports whether the leaf of p begins with a dot.
func IsHidden(p string) bool {
	return strings.HasPrefix(Base(p), ".")
}

// HasPrefix reports whether p equals dir or lies beneath it.
func HasPrefix(p, dir string) bool {
	if dir == Root {
		return strings.HasPrefix(p, "/")
	}
	return p == dir || strings.HasPrefix(p, dir+"/")
}

// Rebase moves p from under oldDir to under newDir. p must satisfy
// HasPrefix(p, oldDir).
func Rebase(p, oldDir, newDir string) string {
	rel := strings.TrimPrefix(p, oldDir)
	if oldDir == Root {
		rel = strings.TrimSuffix(p, Root)
	}
	if newDir == Root {
		if rel == "" {
			return Root
		}
		return rel
	}
	return newDir + rel
}
