package export

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/anvil/internal/core/ports"
)

// NodeID is the unique identifier for the exporter set Graft node.
const NodeID graft.ID = "adapter.exporters"

func init() {
	graft.Register(graft.Node[[]ports.ProjectExporter]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) ([]ports.ProjectExporter, error) {
			return []ports.ProjectExporter{JSONExporter{}, CompileCommandsExporter{}}, nil
		},
	})
}
