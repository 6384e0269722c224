package export

import (
	"encoding/json"
	"io"
	"strings"

	"go.trai.ch/anvil/internal/adapters/fs"
	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/anvil/internal/core/ports"
	"go.trai.ch/anvil/internal/engine/action"
	"go.trai.ch/zerr"
)

// FormatCompileCommands selects the compile_commands.json exporter.
const FormatCompileCommands = "compile-commands"

var _ ports.ProjectExporter = (*CompileCommandsExporter)(nil)

// CompileCommandsExporter writes a clang compilation database for every Project target.
type CompileCommandsExporter struct{}

type compileCommand struct {
	Directory string   `json:"directory"`
	File      string   `json:"file"`
	Arguments []string `json:"arguments"`
	Output    string   `json:"output"`
}

// Format returns the exporter name.
func (CompileCommandsExporter) Format() string { return FormatCompileCommands }

// Export writes one entry per source file, using the same arguments a build would.
// Targets whose toolchain is not resolved are left out.
func (CompileCommandsExporter) Export(w io.Writer, snap ports.ExportSnapshot) error {
	planner := newPlanner(snap)

	entries := []compileCommand{}
	for _, t := range snap.Graph.TopologicalOrder() {
		if t.Kind != domain.TargetProject || planner.ToolchainFor(t) == nil {
			continue
		}
		cmds, err := planner.CompileCommands(t)
		if err != nil {
			return err
		}
		for _, c := range cmds {
			entries = append(entries, compileCommand{
				Directory: c.Dir,
				File:      c.File,
				Arguments: c.Args,
				Output:    c.Object,
			})
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(entries); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write export"), "format", FormatCompileCommands)
	}
	return nil
}

func newPlanner(snap ports.ExportSnapshot) *action.Planner {
	return &action.Planner{
		Root:          snap.Project.Root,
		BuildDir:      snap.Project.BuildDir,
		Configuration: snap.Project.Configuration,
		Externals:     snap.Externals,
		Sources:       fs.NewResolver(),
		ToolchainFor: func(t *domain.Target) *domain.ToolchainDescriptor {
			if t.Kind == domain.TargetScript {
				return nil
			}
			kind := snap.Project.ToolchainFor(t)
			if t.Kind == domain.TargetCMake && kind == domain.ToolchainUnknown {
				return nil
			}
			return snap.Toolchains[kind]
		},
	}
}

// Lookup returns the exporter registered for format.
func Lookup(exporters []ports.ProjectExporter, format string) (ports.ProjectExporter, error) {
	format = strings.ToLower(format)
	for _, e := range exporters {
		if e.Format() == format {
			return e, nil
		}
	}
	return nil, zerr.With(domain.ErrUnknownExportFormat, "format", format)
}
