package orchestrator

import (
	"context"

	"github.com/grindlemire/graft"
	anvilfs "go.trai.ch/anvil/internal/adapters/fs" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/anvil/internal/adapters/logger"     //nolint:depguard // Wired in engine wiring
	"go.trai.ch/anvil/internal/adapters/shell"      //nolint:depguard // Wired in engine wiring
	"go.trai.ch/anvil/internal/adapters/telemetry"  //nolint:depguard // Wired in engine wiring
	"go.trai.ch/anvil/internal/core/ports"
)

// NodeID is the unique identifier for the orchestrator Graft node.
const NodeID graft.ID = "engine.orchestrator"

func init() {
	graft.Register(graft.Node[*Orchestrator]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			shell.NodeID,
			anvilfs.FingerprinterNodeID,
			anvilfs.VerifierNodeID,
			anvilfs.ResolverNodeID,
			telemetry.TracerNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Orchestrator, error) {
			executor, err := graft.Dep[ports.Executor](ctx)
			if err != nil {
				return nil, err
			}

			fingerprinter, err := graft.Dep[ports.Fingerprinter](ctx)
			if err != nil {
				return nil, err
			}

			verifier, err := graft.Dep[ports.Verifier](ctx)
			if err != nil {
				return nil, err
			}

			sources, err := graft.Dep[*anvilfs.Resolver](ctx)
			if err != nil {
				return nil, err
			}

			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return New(executor, fingerprinter, verifier, tracer, log, sources), nil
		},
	})
}
