package deps

import (
	"context"

	anvilfs "go.trai.ch/anvil/internal/adapters/fs"
)

// NewProviderWithRevision creates a Provider with a stubbed git lookup.
func NewProviderWithRevision(walker *anvilfs.Walker, revision func(ctx context.Context, dir string) (string, error)) *Provider {
	return &Provider{walker: walker, revision: revision}
}
