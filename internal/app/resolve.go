package app

import (
	"context"
	"maps"
	"slices"
	"sync"

	"go.trai.ch/anvil/internal/adapters/toolchain"
	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/anvil/internal/core/ports"
	"go.trai.ch/anvil/internal/engine/orchestrator"
	"golang.org/x/sync/errgroup"
)

const revisionKey = "revision"

func (a *App) resolveExternals(ctx context.Context, project *domain.Project) (map[string]domain.ResolvedDependency, error) {
	if len(project.Dependencies) == 0 {
		return nil, nil
	}
	resolved, err := a.deps.Resolve(ctx, project.Root, project.Dependencies)
	if err != nil {
		return nil, err
	}
	externals := make(map[string]domain.ResolvedDependency, len(resolved))
	for _, dep := range resolved {
		externals[dep.Name] = dep
	}
	return externals, nil
}

// recordExternals stores the revision of every external in the Global scope and reports
// those that moved since the last session on this machine.
func (a *App) recordExternals(store ports.CacheStore, externals map[string]domain.ResolvedDependency) {
	for _, name := range slices.Sorted(maps.Keys(externals)) {
		dep := externals[name]
		key := domain.DependencyCacheKey(dep.Name, dep.Path)
		prev, ok := store.Lookup(domain.ScopeGlobal, key)
		if ok && prev.Data[revisionKey] == dep.Revision {
			continue
		}
		if ok {
			a.logger.Info("dependency " + dep.Name + " changed revision " + prev.Data[revisionKey] + " -> " + dep.Revision)
		}
		record := domain.CacheRecord{Data: map[string]string{revisionKey: dep.Revision}}
		if err := store.Record(domain.ScopeGlobal, key, record); err != nil {
			a.logger.Warn(err.Error())
		}
	}
}

// hints returns where to look for kind. CC and CXX from the environment only steer the
// project's default kind.
func (a *App) hints(project *domain.Project, kind domain.ToolchainKind) ports.SearchHints {
	hints := toolchain.HintsFromEnv(a.environ(), project.ToolchainPaths)
	if kind != project.Toolchain {
		return toolchain.WithoutCompilers(hints)
	}
	return hints
}

// resolveToolchains resolves every toolchain the selected targets need, concurrently.
func (a *App) resolveToolchains(
	ctx context.Context,
	project *domain.Project,
	selected []*domain.Target,
	store ports.CacheStore,
) (orchestrator.Toolchains, error) {
	kinds := project.RequiredToolchains(selected)
	resolver := a.toolchains(store)

	var mu sync.Mutex
	resolved := make(map[domain.ToolchainKind]*domain.ToolchainDescriptor, len(kinds))

	g, gctx := errgroup.WithContext(ctx)
	for _, kind := range kinds {
		g.Go(func() error {
			desc, err := resolver.Resolve(gctx, kind, a.hints(project, kind))
			if err != nil {
				return err
			}
			mu.Lock()
			resolved[kind] = desc
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return orchestrator.Toolchains{}, err
	}

	return orchestrator.Toolchains{Default: project.Toolchain, Resolved: resolved}, nil
}
