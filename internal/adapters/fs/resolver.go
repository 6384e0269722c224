package fs

import (
	"maps"
	"path/filepath"
	"slices"

	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/zerr"
)

// Resolver expands input patterns with filepath.Glob.
type Resolver struct{}

// NewResolver creates a new Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// ResolveInputs resolves patterns relative to root into a sorted, de-duplicated list of paths.
// Absolute patterns are used as is. A pattern matching nothing is an error.
func (r *Resolver) ResolveInputs(inputs []string, root string) ([]string, error) {
	unique := make(map[string]bool)

	for _, input := range inputs {
		path := input
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, input)
		}

		matches, err := filepath.Glob(path)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to glob path"), "path", path)
		}
		if len(matches) == 0 {
			return nil, zerr.With(domain.ErrInputNotFound, "path", path)
		}

		for _, match := range matches {
			unique[match] = true
		}
	}

	return slices.Sorted(maps.Keys(unique)), nil
}
