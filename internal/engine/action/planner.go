// Package action translates targets into the process invocations that build them.
package action

import (
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/zerr"
)

// SourceResolver expands source patterns into absolute file paths.
type SourceResolver interface {
	ResolveInputs(inputs []string, root string) ([]string, error)
}

// Plan is everything needed to build one target.
type Plan struct {
	// Units compile the sources of a Project target, one object each. They run before Commands
	// and may be skipped individually while their objects are up to date.
	Units    []CompileEntry
	Commands []domain.Command
	// Outputs are the artifacts the commands produce. Missing outputs force a rebuild.
	Outputs []string
	// Dirs must exist before the first command runs.
	Dirs []string
}

// Planner plans commands for the targets of one project and configuration.
type Planner struct {
	Root          string
	BuildDir      string
	Configuration domain.Configuration
	Externals     map[string]domain.ResolvedDependency
	Sources       SourceResolver
	// ToolchainFor returns the toolchain a target builds with, nil for none.
	ToolchainFor func(t *domain.Target) *domain.ToolchainDescriptor
}

// Plan returns the commands that build t.
func (p *Planner) Plan(t *domain.Target, g *domain.Graph) (Plan, error) {
	switch t.Kind {
	case domain.TargetProject:
		return p.planProject(t, g)
	case domain.TargetScript:
		return p.planScript(t)
	case domain.TargetCMake:
		return p.planCMake(t)
	default:
		return Plan{}, zerr.With(domain.ErrUnknownTargetKind, "target", t.Name.String())
	}
}

// ConfigDir is the per-configuration directory below the build directory.
func (p *Planner) ConfigDir() string {
	return filepath.Join(p.BuildDir, string(p.Configuration))
}

// ObjectDir is where the object files of t are placed.
func (p *Planner) ObjectDir(t *domain.Target) string {
	return filepath.Join(p.ConfigDir(), "obj", t.Name.String())
}

// Output returns the primary artifact of t, or "" when it declares none and none can be derived.
func (p *Planner) Output(t *domain.Target) string {
	if t.Output != "" {
		return p.abs(t.Output)
	}
	if t.Kind != domain.TargetProject {
		return ""
	}
	tc := p.toolchain(t)
	if tc == nil {
		return ""
	}
	return filepath.Join(p.ConfigDir(), artifactName(t.Name.String(), t.Project.Type, tc.Profile))
}

// Generated returns the paths builds of targets write to: the build directory, CMake binary
// directories and declared outputs. Input walks skip them so a build never feeds on itself.
func (p *Planner) Generated(targets []*domain.Target) domain.PathSet {
	var paths []string
	if p.BuildDir != "" {
		paths = append(paths, p.abs(p.BuildDir))
	}
	for _, t := range targets {
		paths = append(paths, p.Output(t))
		if t.Kind == domain.TargetCMake {
			paths = append(paths, p.CMakeBuildDir(t))
		}
	}
	return domain.NewPathSet(paths...)
}

func (p *Planner) toolchain(t *domain.Target) *domain.ToolchainDescriptor {
	if p.ToolchainFor == nil {
		return nil
	}
	return p.ToolchainFor(t)
}

func (p *Planner) abs(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(p.Root, path)
}

func artifactName(name string, typ domain.ProjectType, profile domain.FlagProfile) string {
	switch typ {
	case domain.ProjectStaticLibrary:
		return profile.StaticPrefix + name + profile.StaticExt
	case domain.ProjectSharedLibrary:
		return profile.SharedPrefix + name + profile.SharedExt
	default:
		return name + profile.ExecutableExt
	}
}

// objectName flattens a source path relative to root into a unique object file name.
func objectName(root, source, ext string) string {
	rel, err := filepath.Rel(root, source)
	if err != nil {
		rel = filepath.Base(source)
	}
	rel = strings.TrimSuffix(filepath.ToSlash(rel), filepath.Ext(rel))
	rel = strings.ReplaceAll(rel, "..", "__")
	rel = strings.NewReplacer("/", "_", ":", "_").Replace(rel)
	return rel + ext
}

// envList renders an environment map in a stable order.
func envList(env map[string]string) []string {
	keys := slices.Sorted(maps.Keys(env))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out
}
