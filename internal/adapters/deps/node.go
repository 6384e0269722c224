package deps

import (
	"context"

	"github.com/grindlemire/graft"
	anvilfs "go.trai.ch/anvil/internal/adapters/fs"
	"go.trai.ch/anvil/internal/core/ports"
)

// NodeID is the unique identifier for the dependency provider Graft node.
const NodeID graft.ID = "adapter.dependency_provider"

func init() {
	graft.Register(graft.Node[ports.DependencyProvider]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{anvilfs.WalkerNodeID},
		Run: func(ctx context.Context) (ports.DependencyProvider, error) {
			walker, err := graft.Dep[*anvilfs.Walker](ctx)
			if err != nil {
				return nil, err
			}
			return NewProvider(walker), nil
		},
	})
}
