// Package export writes project descriptions for other tools.
package export

import (
	"encoding/json"
	"io"
	"time"

	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/anvil/internal/core/ports"
	"go.trai.ch/zerr"
)

// FormatJSON selects the JSON graph exporter.
const FormatJSON = "json"

var _ ports.ProjectExporter = (*JSONExporter)(nil)

// JSONExporter writes targets, their dependency edges and outputs, and the outcomes of the last build.
type JSONExporter struct{}

type jsonProject struct {
	Name          string               `json:"name"`
	Root          string               `json:"root"`
	Configuration domain.Configuration `json:"configuration"`
	Targets       []jsonTarget         `json:"targets"`
	Toolchains    []jsonToolchain      `json:"toolchains,omitempty"`
	LastBuild     *jsonBuild           `json:"lastBuild,omitempty"`
}

type jsonTarget struct {
	Name         string            `json:"name"`
	Kind         domain.TargetKind `json:"kind"`
	Dependencies []string          `json:"dependencies"`
	Output       string            `json:"output,omitempty"`
	Outcome      domain.Outcome    `json:"outcome,omitempty"`
}

type jsonToolchain struct {
	Kind    domain.ToolchainKind `json:"kind"`
	Version string               `json:"version"`
	Arch    string               `json:"arch,omitempty"`
	CC      string               `json:"cc"`
	CXX     string               `json:"cxx"`
}

type jsonBuild struct {
	Status  domain.RunStatus `json:"status"`
	Started string           `json:"started"`
	Elapsed string           `json:"elapsed"`
}

// Format returns the exporter name.
func (JSONExporter) Format() string { return FormatJSON }

// Export writes the snapshot as indented JSON. Targets appear in topological order.
func (JSONExporter) Export(w io.Writer, snap ports.ExportSnapshot) error {
	planner := newPlanner(snap)
	out := jsonProject{
		Name:          snap.Project.Name,
		Root:          snap.Project.Root,
		Configuration: snap.Project.Configuration,
	}

	for _, t := range snap.Graph.TopologicalOrder() {
		jt := jsonTarget{
			Name:         t.Name.String(),
			Kind:         t.Kind,
			Dependencies: make([]string, 0, len(t.Dependencies)),
			Output:       planner.Output(t),
		}
		for _, dep := range t.Dependencies {
			jt.Dependencies = append(jt.Dependencies, dep.String())
		}
		if snap.Report != nil {
			if res, ok := snap.Report.Result(jt.Name); ok {
				jt.Outcome = res.Outcome
			}
		}
		out.Targets = append(out.Targets, jt)
	}

	for _, kind := range domain.ToolchainKinds() {
		if tc, ok := snap.Toolchains[kind]; ok && tc != nil {
			out.Toolchains = append(out.Toolchains, jsonToolchain{
				Kind: tc.Kind, Version: tc.Version, Arch: tc.Arch, CC: tc.CC, CXX: tc.CXX,
			})
		}
	}

	if r := snap.Report; r != nil {
		out.LastBuild = &jsonBuild{
			Status:  r.Status,
			Started: r.Started.UTC().Format(time.RFC3339),
			Elapsed: r.Elapsed.String(),
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write export"), "format", FormatJSON)
	}
	return nil
}
