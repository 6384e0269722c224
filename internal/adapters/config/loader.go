// Package config loads anvil project files written in YAML or HCL.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/anvil/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var _ ports.ConfigLoader = (*Loader)(nil)

// supportedVersion is the only project file version understood by this loader.
const supportedVersion = "1"

// Format is the syntax of a project file.
type Format string

const (
	// FormatYAML is anvil.yaml.
	FormatYAML Format = "yaml"
	// FormatHCL is anvil.hcl.
	FormatHCL Format = "hcl"
)

// Loader implements ports.ConfigLoader.
type Loader struct {
	Logger ports.Logger
	FS     FileSystem
	// Environ supplies the env object of the HCL evaluation context.
	Environ func() []string
}

// NewLoader creates a new Loader reading from the operating system.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger, FS: NewOSFS(), Environ: os.Environ}
}

// Load finds the nearest project file at or above cwd and converts it into a project.
func (l *Loader) Load(cwd string) (*domain.Project, error) {
	configPath, format, err := l.findConfiguration(cwd)
	if err != nil {
		return nil, err
	}

	data, err := l.FS.ReadFile(configPath)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", configPath)
	}

	var file ProjectFile
	switch format {
	case FormatHCL:
		err = l.decodeHCL(configPath, data, &file)
	default:
		err = decodeYAML(data, &file)
	}
	if err != nil {
		return nil, zerr.With(err, "path", configPath)
	}

	return toProject(&file, configPath)
}

func (l *Loader) findConfiguration(cwd string) (string, Format, error) {
	currentDir := filepath.Clean(cwd)
	for {
		yamlPath := filepath.Join(currentDir, domain.YAMLFileName)
		hclPath := filepath.Join(currentDir, domain.HCLFileName)
		hasYAML, hasHCL := isFile(l.FS, yamlPath), isFile(l.FS, hclPath)

		switch {
		case hasYAML && hasHCL:
			l.Logger.Warn(fmt.Sprintf("both %s and %s found in %s, using %s",
				domain.YAMLFileName, domain.HCLFileName, currentDir, domain.YAMLFileName))
			return yamlPath, FormatYAML, nil
		case hasYAML:
			return yamlPath, FormatYAML, nil
		case hasHCL:
			return hclPath, FormatHCL, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}
	return "", "", zerr.With(domain.ErrConfigNotFound, "cwd", cwd)
}

func decodeYAML(data []byte, file *ProjectFile) error {
	if err := yaml.Unmarshal(data, file); err != nil {
		return zerr.Wrap(err, domain.ErrConfigParseFailed.Error())
	}
	return nil
}

func (l *Loader) decodeHCL(configPath string, data []byte, file *ProjectFile) error {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(data, configPath)
	if diags.HasErrors() {
		return zerr.Wrap(diags, domain.ErrConfigParseFailed.Error())
	}

	diags = gohcl.DecodeBody(f.Body, l.evalContext(), file)
	if diags.HasErrors() {
		return zerr.Wrap(diags, domain.ErrConfigParseFailed.Error())
	}
	return nil
}

// evalContext exposes env.<NAME>, host.os and host.arch plus a few string functions.
func (l *Loader) evalContext() *hcl.EvalContext {
	env := make(map[string]cty.Value)
	if l.Environ != nil {
		for _, entry := range l.Environ() {
			if k, v, ok := strings.Cut(entry, "="); ok && k != "" {
				env[k] = cty.StringVal(v)
			}
		}
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(env),
			"host": cty.ObjectVal(map[string]cty.Value{
				"os":   cty.StringVal(runtime.GOOS),
				"arch": cty.StringVal(runtime.GOARCH),
			}),
		},
		Functions: map[string]function.Function{
			"upper":  stdlib.UpperFunc,
			"lower":  stdlib.LowerFunc,
			"join":   stdlib.JoinFunc,
			"concat": stdlib.ConcatFunc,
			"format": stdlib.FormatFunc,
		},
	}
}

func toProject(file *ProjectFile, configPath string) (*domain.Project, error) {
	if file.Version != "" && file.Version != supportedVersion {
		return nil, zerr.With(zerr.With(domain.ErrConfigParseFailed, "version", file.Version), "supported", supportedVersion)
	}

	root := resolveRoot(configPath, file.Root)
	p := &domain.Project{
		Name:           file.Name,
		Root:           root,
		BuildDir:       resolvePath(root, file.BuildDir, domain.DefaultBuildDir),
		Jobs:           file.Jobs,
		ToolchainPaths: make([]string, 0, len(file.ToolchainPaths)),
		Source:         configPath,
	}
	if p.Name == "" {
		p.Name = filepath.Base(root)
	}
	if p.Jobs < 0 {
		return nil, zerr.With(domain.ErrConfigParseFailed, "jobs", file.Jobs)
	}

	var err error
	if p.Configuration, err = domain.ParseConfiguration(file.Configuration); err != nil {
		return nil, err
	}
	if p.Toolchain, err = domain.ParseToolchainKind(file.Toolchain); err != nil {
		return nil, err
	}
	if p.FingerprintMode, err = domain.ParseFingerprintMode(file.Fingerprint); err != nil {
		return nil, err
	}
	for _, dir := range file.ToolchainPaths {
		p.ToolchainPaths = append(p.ToolchainPaths, resolvePath(root, dir, ""))
	}

	seen := make(map[string]bool, len(file.Dependencies))
	for _, d := range file.Dependencies {
		if d.Name == "" {
			return nil, zerr.With(domain.ErrConfigParseFailed, "reason", "dependency without a name")
		}
		if seen[d.Name] {
			return nil, zerr.With(zerr.With(domain.ErrConfigParseFailed, "reason", "duplicate dependency"), "dependency", d.Name)
		}
		seen[d.Name] = true
		p.Dependencies = append(p.Dependencies, domain.DependencyDecl(d))
	}

	for i := range file.Targets {
		t, err := buildTarget(&file.Targets[i], root)
		if err != nil {
			return nil, err
		}
		p.Targets = append(p.Targets, t)
	}
	return p, nil
}

func buildTarget(dto *TargetDTO, root string) (*domain.Target, error) {
	kind, err := targetKind(dto)
	if err != nil {
		return nil, err
	}

	t := &domain.Target{
		Name:         domain.NewInternedString(dto.Name),
		Kind:         kind,
		Dependencies: domain.NewInternedStrings(dto.DependsOn),
		Output:       dto.Output,
	}

	switch kind {
	case domain.TargetProject:
		if t.Project, err = projectSpec(dto.Project); err != nil {
			return nil, zerr.With(err, "target", dto.Name)
		}
	case domain.TargetScript:
		t.Script = scriptSpec(dto.Script, root)
	case domain.TargetCMake:
		if t.CMake, err = cmakeSpec(dto.CMake, root); err != nil {
			return nil, zerr.With(err, "target", dto.Name)
		}
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// targetKind takes the explicit kind or infers it from the single payload block present.
func targetKind(dto *TargetDTO) (domain.TargetKind, error) {
	var blocks []domain.TargetKind
	if dto.Project != nil {
		blocks = append(blocks, domain.TargetProject)
	}
	if dto.Script != nil {
		blocks = append(blocks, domain.TargetScript)
	}
	if dto.CMake != nil {
		blocks = append(blocks, domain.TargetCMake)
	}

	if dto.Kind != "" {
		kind, err := domain.ParseTargetKind(dto.Kind)
		if err != nil {
			return 0, zerr.With(err, "target", dto.Name)
		}
		if len(blocks) > 1 || (len(blocks) == 1 && blocks[0] != kind) {
			err := zerr.With(domain.ErrInvalidTarget, "target", dto.Name)
			return 0, zerr.With(err, "reason", "payload does not match kind "+kind.String())
		}
		return kind, nil
	}

	if len(blocks) != 1 {
		err := zerr.With(domain.ErrInvalidTarget, "target", dto.Name)
		return 0, zerr.With(err, "reason", "exactly one of project, script or cmake is required")
	}
	return blocks[0], nil
}

func projectSpec(dto *ProjectDTO) (*domain.ProjectSpec, error) {
	if dto == nil {
		return nil, nil
	}
	typ, err := domain.ParseProjectType(dto.Type)
	if err != nil {
		return nil, err
	}
	tc, err := domain.ParseToolchainKind(dto.Toolchain)
	if err != nil {
		return nil, err
	}
	return &domain.ProjectSpec{
		Type:           typ,
		Toolchain:      tc,
		Sources:        dto.Sources,
		IncludeDirs:    dto.IncludeDirs,
		Defines:        dto.Defines,
		LibDirs:        dto.LibDirs,
		Links:          dto.Links,
		CompileOptions: dto.CompileOptions,
		LinkOptions:    dto.LinkOptions,
		Externals:      dto.Externals,
	}, nil
}

func scriptSpec(dto *ScriptDTO, root string) *domain.ScriptSpec {
	if dto == nil {
		return nil
	}
	return &domain.ScriptSpec{
		File:       dto.File,
		Command:    dto.Command,
		Args:       dto.Args,
		WorkingDir: resolvePath(root, dto.WorkingDir, "."),
		Inputs:     dto.Inputs,
		Env:        dto.Env,
	}
}

func cmakeSpec(dto *CMakeDTO, root string) (*domain.CMakeSpec, error) {
	if dto == nil {
		return nil, nil
	}
	tc, err := domain.ParseToolchainKind(dto.Toolchain)
	if err != nil {
		return nil, err
	}
	return &domain.CMakeSpec{
		Location:  resolvePath(root, dto.Location, ""),
		BuildDir:  resolvePath(root, dto.BuildDir, ""),
		Generator: dto.Generator,
		Defines:   dto.Defines,
		Targets:   dto.Targets,
		Toolchain: tc,
		Inputs:    dto.Inputs,
	}, nil
}

func resolveRoot(configPath, configuredRoot string) string {
	configDir := filepath.Dir(configPath)
	if configuredRoot == "" {
		return filepath.Clean(configDir)
	}
	if filepath.IsAbs(configuredRoot) {
		return filepath.Clean(configuredRoot)
	}
	return filepath.Clean(filepath.Join(configDir, configuredRoot))
}

// resolvePath anchors a configured path at root. An empty path falls back to def,
// and an empty def keeps it empty.
func resolvePath(root, configured, def string) string {
	if configured == "" {
		if def == "" {
			return ""
		}
		configured = def
	}
	if filepath.IsAbs(configured) {
		return filepath.Clean(configured)
	}
	return filepath.Clean(filepath.Join(root, configured))
}
