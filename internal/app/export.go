package app

import (
	"context"
	"errors"
	"io"

	"go.trai.ch/anvil/internal/adapters/export"
	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/anvil/internal/core/ports"
)

// Export writes the project in the given format. Toolchains that cannot be resolved are left
// out with a warning, and the last build report is included when one exists.
func (a *App) Export(ctx context.Context, w io.Writer, format string) error {
	exporter, err := export.Lookup(a.exporters, format)
	if err != nil {
		return err
	}

	project, err := a.loadProject(BuildOptions{})
	if err != nil {
		return err
	}
	externals, err := a.resolveExternals(ctx, project)
	if err != nil {
		return err
	}
	graph, err := domain.BuildGraph(project.Targets)
	if err != nil {
		return err
	}

	store, err := a.cache.Open(ctx, project.Root)
	if err != nil {
		return err
	}
	defer func() { _ = store.Flush(context.WithoutCancel(ctx)) }()

	resolved := make(map[domain.ToolchainKind]*domain.ToolchainDescriptor)
	resolver := a.toolchains(store)
	for _, kind := range project.RequiredToolchains(graph.TopologicalOrder()) {
		desc, err := resolver.Resolve(ctx, kind, a.hints(project, kind))
		if err != nil {
			a.logger.Warn(err.Error())
			continue
		}
		resolved[kind] = desc
	}

	report, err := LastReport(project.Root)
	if err != nil && !errors.Is(err, domain.ErrReportNotFound) {
		a.logger.Warn(err.Error())
	}

	return exporter.Export(w, ports.ExportSnapshot{
		Project:    project,
		Graph:      graph,
		Report:     report,
		Toolchains: resolved,
		Externals:  externals,
	})
}
