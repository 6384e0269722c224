package domain

import (
	"path/filepath"
	"slices"
	"strings"
)

// PathSet matches paths equal to or below any of its members.
// The zero value matches nothing.
type PathSet struct {
	paths []string
}

// NewPathSet creates a PathSet of the cleaned, non-empty paths.
func NewPathSet(paths ...string) PathSet {
	var s PathSet
	for _, p := range paths {
		if p == "" {
			continue
		}
		p = filepath.Clean(p)
		if !slices.Contains(s.paths, p) {
			s.paths = append(s.paths, p)
		}
	}
	slices.Sort(s.paths)
	return s
}

// Paths returns the members in sorted order.
func (s PathSet) Paths() []string {
	return s.paths
}

// Contains reports whether path is a member or lies below one.
func (s PathSet) Contains(path string) bool {
	path = filepath.Clean(path)
	for _, p := range s.paths {
		if isWithin(p, path) {
			return true
		}
	}
	return false
}

// Below returns the members that lie strictly below dir.
func (s PathSet) Below(dir string) PathSet {
	dir = filepath.Clean(dir)
	var out PathSet
	for _, p := range s.paths {
		if p != dir && isWithin(dir, p) {
			out.paths = append(out.paths, p)
		}
	}
	return out
}

func isWithin(parent, path string) bool {
	if path == parent {
		return true
	}
	if !strings.HasSuffix(parent, string(filepath.Separator)) {
		parent += string(filepath.Separator)
	}
	return strings.HasPrefix(path, parent)
}
