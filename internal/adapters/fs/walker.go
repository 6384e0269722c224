// Package fs provides file system adapters for walking, fingerprinting and verifying files.
package fs

import (
	"io/fs"
	"iter"
	"path/filepath"

	"go.trai.ch/anvil/internal/core/domain"
)

// skippedDirs are never part of any input set.
var skippedDirs = map[string]bool{
	".git":              true,
	".jj":               true,
	domain.AnvilDirName: true,
}

// Walker provides file walking functionality.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkFiles yields every regular file below root, root included in the yielded paths.
// VCS metadata and the anvil metadata directory are skipped, as is anything whose base name
// matches one of ignores and anything inside a member of exclude that lies below root.
func (w *Walker) WalkFiles(root string, ignores []string, exclude domain.PathSet) iter.Seq[string] {
	exclude = exclude.Below(root)
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if skip, action := w.shouldSkip(d, ignores); skip {
				return action
			}

			if exclude.Contains(path) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if d.IsDir() {
				return nil
			}

			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

// shouldSkip reports whether d is excluded, and the WalkDir action to return for it.
func (w *Walker) shouldSkip(d fs.DirEntry, ignores []string) (bool, error) {
	name := d.Name()

	if d.IsDir() && skippedDirs[name] {
		return true, filepath.SkipDir
	}

	for _, ignore := range ignores {
		if matched, _ := filepath.Match(ignore, name); matched {
			if d.IsDir() {
				return true, filepath.SkipDir
			}
			return true, nil
		}
	}
	return false, nil
}
