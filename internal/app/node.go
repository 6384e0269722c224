package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/anvil/internal/adapters/cachestore" //nolint:depguard // Wired in app layer
	"go.trai.ch/anvil/internal/adapters/config"     //nolint:depguard // Wired in app layer
	"go.trai.ch/anvil/internal/adapters/deps"       //nolint:depguard // Wired in app layer
	"go.trai.ch/anvil/internal/adapters/export"     //nolint:depguard // Wired in app layer
	"go.trai.ch/anvil/internal/adapters/logger"     //nolint:depguard // Wired in app layer
	"go.trai.ch/anvil/internal/adapters/toolchain"  //nolint:depguard // Wired in app layer
	"go.trai.ch/anvil/internal/adapters/watcher"    //nolint:depguard // Wired in app layer
	"go.trai.ch/anvil/internal/core/ports"
	"go.trai.ch/anvil/internal/engine/orchestrator"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			deps.NodeID,
			toolchain.NodeID,
			cachestore.NodeID,
			orchestrator.NodeID,
			export.NodeID,
			watcher.NodeID,
			logger.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return &Components{App: app, Logger: log}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	provider, err := graft.Dep[ports.DependencyProvider](ctx)
	if err != nil {
		return nil, err
	}

	resolver, err := graft.Dep[*toolchain.Resolver](ctx)
	if err != nil {
		return nil, err
	}

	opener, err := graft.Dep[ports.CacheOpener](ctx)
	if err != nil {
		return nil, err
	}

	orch, err := graft.Dep[*orchestrator.Orchestrator](ctx)
	if err != nil {
		return nil, err
	}

	exporters, err := graft.Dep[[]ports.ProjectExporter](ctx)
	if err != nil {
		return nil, err
	}

	w, err := graft.Dep[ports.Watcher](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, provider, CachedToolchains(resolver), opener, orch, exporters, w, log), nil
}
