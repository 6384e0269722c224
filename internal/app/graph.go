package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.trai.ch/anvil/internal/core/domain"
)

// Graph prints the build order of the project and the sets of targets that can run together.
func (a *App) Graph(_ context.Context, w io.Writer) error {
	project, err := a.loadProject(BuildOptions{})
	if err != nil {
		return err
	}
	graph, err := domain.BuildGraph(project.Targets)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(w, "Build order:")
	for i, t := range graph.TopologicalOrder() {
		line := fmt.Sprintf("  %2d. %s (%s)", i+1, t.Name, t.Kind)
		if deps := graph.Dependencies(t.Name); len(deps) > 0 {
			line += " <- " + joinNames(deps)
		}
		_, _ = fmt.Fprintln(w, line)
	}

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Ready sets:")
	for i, group := range graph.IndependentGroups() {
		_, _ = fmt.Fprintf(w, "  %2d. %s\n", i+1, joinNames(group))
	}
	return nil
}

func joinNames(targets []*domain.Target) string {
	names := make([]string, len(targets))
	for i, t := range targets {
		names[i] = t.Name.String()
	}
	return strings.Join(names, ", ")
}
