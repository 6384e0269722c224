package action

import (
	"os"
	"path/filepath"
	"slices"

	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/zerr"
)

// CompileEntry is the compilation of one translation unit.
type CompileEntry struct {
	File   string
	Dir    string
	Args   []string
	Object string
	// DepFile is where a Make-style compiler writes the headers File included, "" otherwise.
	DepFile string
}

// Command returns the invocation that compiles the unit.
func (e CompileEntry) Command() domain.Command {
	return domain.Command{Args: e.Args, Dir: e.Dir}
}

// planProject compiles every source to its own object in Units, then links or archives
// the objects with the single command in Commands.
func (p *Planner) planProject(t *domain.Target, g *domain.Graph) (Plan, error) {
	tc := p.toolchain(t)
	if tc == nil {
		return Plan{}, zerr.With(domain.ErrToolchainNotFound, "target", t.Name.String())
	}
	sources, err := p.sources(t)
	if err != nil {
		return Plan{}, err
	}

	out := p.Output(t)
	plan := Plan{
		Units:   p.compileEntries(t, tc, sources),
		Outputs: []string{out},
		Dirs:    []string{filepath.Dir(out), p.ObjectDir(t)},
	}

	objects := make([]string, 0, len(plan.Units))
	for _, unit := range plan.Units {
		objects = append(objects, unit.Object)
	}
	final, err := p.finalStep(t, g, tc, sources, objects, out)
	if err != nil {
		return Plan{}, err
	}
	plan.Commands = []domain.Command{final}
	return plan, nil
}

// CompileCommands returns the compile-only invocation a build runs for each source of a
// Project target.
func (p *Planner) CompileCommands(t *domain.Target) ([]CompileEntry, error) {
	if t.Kind != domain.TargetProject {
		return nil, nil
	}
	tc := p.toolchain(t)
	if tc == nil {
		return nil, zerr.With(domain.ErrToolchainNotFound, "target", t.Name.String())
	}
	sources, err := p.sources(t)
	if err != nil {
		return nil, err
	}
	return p.compileEntries(t, tc, sources), nil
}

func (p *Planner) sources(t *domain.Target) ([]string, error) {
	if p.Sources == nil {
		out := make([]string, 0, len(t.Project.Sources))
		for _, s := range t.Project.Sources {
			out = append(out, p.abs(s))
		}
		return out, nil
	}
	sources, err := p.Sources.ResolveInputs(t.Project.Sources, p.Root)
	if err != nil {
		return nil, zerr.With(err, "target", t.Name.String())
	}
	return sources, nil
}

func (p *Planner) compileEntries(t *domain.Target, tc *domain.ToolchainDescriptor, sources []string) []CompileEntry {
	profile := tc.Profile
	objDir := p.ObjectDir(t)
	entries := make([]CompileEntry, 0, len(sources))
	for _, src := range sources {
		obj := filepath.Join(objDir, objectName(p.Root, src, profile.ObjectExt))
		args := []string{tc.CompilerFor(src)}
		args = append(args, domain.Expand(profile.CompileOnly, "")...)
		args = append(args, p.compileFlags(t, profile)...)
		args = append(args, src)
		args = append(args, domain.Expand(profile.ObjectOutput, obj)...)
		var depFile string
		if profile.DepFormat == domain.DepFormatMake {
			depFile = obj + ".d"
		}
		args = append(args, domain.Expand(profile.DepOutput, depFile)...)
		entries = append(entries, CompileEntry{File: src, Dir: p.Root, Args: args, Object: obj, DepFile: depFile})
	}
	return entries
}

// compileFlags are the options shared by every translation unit of t.
func (p *Planner) compileFlags(t *domain.Target, profile domain.FlagProfile) []string {
	var args []string
	args = append(args, profile.OptimizeArgs(p.Configuration)...)
	if t.Project.Type == domain.ProjectSharedLibrary {
		args = append(args, domain.Expand(profile.PIC, "")...)
	}
	for _, d := range t.Project.Defines {
		args = append(args, domain.Expand(profile.Define, d)...)
	}
	for _, dir := range t.Project.IncludeDirs {
		args = append(args, domain.Expand(profile.IncludeDir, p.abs(dir))...)
	}
	for _, dir := range p.externalDirs(t, "include") {
		args = append(args, domain.Expand(profile.IncludeDir, dir)...)
	}
	return append(args, t.Project.CompileOptions...)
}

// linkFlags are the library search paths and libraries of t, dependency artifacts first.
func (p *Planner) linkFlags(t *domain.Target, g *domain.Graph, profile domain.FlagProfile) []string {
	args := append([]string{}, t.Project.LinkOptions...)
	for _, dir := range t.Project.LibDirs {
		args = append(args, domain.Expand(profile.LibDir, p.abs(dir))...)
	}
	for _, dir := range p.externalDirs(t, "lib") {
		args = append(args, domain.Expand(profile.LibDir, dir)...)
	}
	args = append(args, p.dependencyLibraries(t, g)...)
	for _, lib := range t.Project.Links {
		args = append(args, domain.Expand(profile.LinkLib, lib)...)
	}
	return args
}

// finalStep archives the objects of a static library and links everything else.
// Single-command toolchains link with the C driver, or the C++ driver once any source is C++.
func (p *Planner) finalStep(
	t *domain.Target,
	g *domain.Graph,
	tc *domain.ToolchainDescriptor,
	sources, objects []string,
	out string,
) (domain.Command, error) {
	profile := tc.Profile

	if t.Project.Type == domain.ProjectStaticLibrary {
		if tc.Archiver == "" {
			err := zerr.With(zerr.With(domain.ErrToolchainNotFound, "kind", tc.Kind.String()), "role", "archiver")
			return domain.Command{}, zerr.With(err, "target", t.Name.String())
		}
		args := []string{tc.Archiver}
		args = append(args, domain.Expand(profile.ArchiveArgs, out)...)
		args = append(args, objects...)
		return domain.Command{Args: args, Dir: p.Root}, nil
	}

	linker, output := tc.Linker, profile.LinkOutput
	if profile.Style == domain.StyleSingleCommand {
		linker, output = tc.CC, profile.Output
		if slices.ContainsFunc(sources, isCXX) {
			linker = tc.CXX
		}
	}

	args := []string{linker}
	if t.Project.Type == domain.ProjectSharedLibrary {
		args = append(args, domain.Expand(profile.Shared, "")...)
	}
	args = append(args, domain.Expand(output, out)...)
	args = append(args, objects...)
	args = append(args, p.linkFlags(t, g, profile)...)
	return domain.Command{Args: args, Dir: p.Root}, nil
}

func isCXX(source string) bool {
	return !domain.IsCSource(source)
}

// dependencyLibraries returns the artifacts of library targets t depends on, transitively,
// each listed before the libraries it depends on itself.
func (p *Planner) dependencyLibraries(t *domain.Target, g *domain.Graph) []string {
	if g == nil {
		return nil
	}
	seen := make(map[domain.InternedString]bool)
	var libs []string
	var visit func(t *domain.Target)
	visit = func(t *domain.Target) {
		for _, dep := range g.Dependencies(t.Name) {
			if seen[dep.Name] {
				continue
			}
			seen[dep.Name] = true
			if dep.Kind != domain.TargetProject || !dep.Project.Type.IsLibrary() {
				continue
			}
			if out := p.Output(dep); out != "" {
				libs = append(libs, out)
			}
			visit(dep)
		}
	}
	visit(t)
	return libs
}

// externalDirs returns the existing sub directories of the externals t references.
func (p *Planner) externalDirs(t *domain.Target, sub string) []string {
	var dirs []string
	for _, name := range t.Project.Externals {
		ext, ok := p.Externals[name]
		if !ok {
			continue
		}
		dir := filepath.Join(ext.Path, sub)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			dirs = append(dirs, dir)
		} else if sub == "include" {
			dirs = append(dirs, ext.Path)
		}
	}
	return dirs
}
