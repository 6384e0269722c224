package domain

import (
	"encoding/hex"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/zerr"
)

// TargetKind is the closed set of things a target can build.
type TargetKind int

const (
	TargetProject TargetKind = iota
	TargetScript
	TargetCMake
)

var targetKindNames = [...]string{
	TargetProject: "project",
	TargetScript:  "script",
	TargetCMake:   "cmake",
}

// ParseTargetKind parses a target kind name.
func ParseTargetKind(s string) (TargetKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "project", "":
		return TargetProject, nil
	case "script":
		return TargetScript, nil
	case "cmake", "cmakeproject":
		return TargetCMake, nil
	default:
		return 0, zerr.With(ErrUnknownTargetKind, "kind", s)
	}
}

func (k TargetKind) String() string {
	if k < 0 || int(k) >= len(targetKindNames) {
		return "unknown"
	}
	return targetKindNames[k]
}

// MarshalText implements encoding.TextMarshaler.
func (k TargetKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *TargetKind) UnmarshalText(text []byte) error {
	parsed, err := ParseTargetKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ProjectType is the artifact a Project target produces.
type ProjectType string

const (
	ProjectExecutable    ProjectType = "executable"
	ProjectStaticLibrary ProjectType = "staticLibrary"
	ProjectSharedLibrary ProjectType = "sharedLibrary"
)

// ParseProjectType parses a project type, accepting a few short forms.
func ParseProjectType(s string) (ProjectType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "executable", "exe", "binary":
		return ProjectExecutable, nil
	case "staticlibrary", "static", "staticlib":
		return ProjectStaticLibrary, nil
	case "sharedlibrary", "shared", "sharedlib", "dynamic":
		return ProjectSharedLibrary, nil
	default:
		return "", zerr.With(ErrInvalidTarget, "type", s)
	}
}

// IsLibrary reports whether the artifact can be linked by dependents.
func (t ProjectType) IsLibrary() bool {
	return t == ProjectStaticLibrary || t == ProjectSharedLibrary
}

// ProjectSpec is the payload of a native compiled target.
type ProjectSpec struct {
	Type           ProjectType   `json:"type"`
	Toolchain      ToolchainKind `json:"toolchain"`
	Sources        []string      `json:"sources"`
	IncludeDirs    []string      `json:"includeDirs,omitempty"`
	Defines        []string      `json:"defines,omitempty"`
	LibDirs        []string      `json:"libDirs,omitempty"`
	Links          []string      `json:"links,omitempty"`
	CompileOptions []string      `json:"compileOptions,omitempty"`
	LinkOptions    []string      `json:"linkOptions,omitempty"`
	Externals      []string      `json:"externals,omitempty"`
}

// ScriptSpec is the payload of a script or command target.
type ScriptSpec struct {
	File       string            `json:"file,omitempty"`
	Command    []string          `json:"command,omitempty"`
	Args       []string          `json:"args,omitempty"`
	WorkingDir string            `json:"workingDir,omitempty"`
	Inputs     []string          `json:"inputs,omitempty"`
	Env        map[string]string `json:"env,omitempty"`
}

// CMakeSpec is the payload of a target delegating to CMake.
type CMakeSpec struct {
	Location  string            `json:"location"`
	BuildDir  string            `json:"buildDir,omitempty"`
	Generator string            `json:"generator,omitempty"`
	Defines   map[string]string `json:"defines,omitempty"`
	Targets   []string          `json:"targets,omitempty"`
	Toolchain ToolchainKind     `json:"toolchain"`
	Inputs    []string          `json:"inputs,omitempty"`
}

// Target is one declared unit of work.
// Exactly one of Project, Script and CMake is set, matching Kind.
type Target struct {
	Name         InternedString
	Kind         TargetKind
	Dependencies []InternedString
	// Output is the declared artifact path. Project outputs are derived from the toolchain when empty.
	Output string
	// Index is the declaration position, used to break ordering ties.
	Index int

	Project *ProjectSpec
	Script  *ScriptSpec
	CMake   *CMakeSpec
}

// Validate checks that the payload matches the kind and carries what the kind needs.
func (t *Target) Validate() error {
	switch t.Kind {
	case TargetProject:
		if t.Project == nil || len(t.Project.Sources) == 0 {
			return zerr.With(zerr.With(ErrInvalidTarget, "target", t.Name.String()), "reason", "project targets need at least one source")
		}
	case TargetScript:
		if t.Script == nil || (t.Script.File == "" && len(t.Script.Command) == 0) {
			return zerr.With(zerr.With(ErrInvalidTarget, "target", t.Name.String()), "reason", "script targets need a file or a command")
		}
	case TargetCMake:
		if t.CMake == nil || t.CMake.Location == "" {
			return zerr.With(zerr.With(ErrInvalidTarget, "target", t.Name.String()), "reason", "cmake targets need a location")
		}
	default:
		return zerr.With(ErrUnknownTargetKind, "target", t.Name.String())
	}
	return nil
}

// Definition returns a stable digest of the declaration.
// Any edit to the target's settings changes it.
func (t *Target) Definition() string {
	decl := struct {
		Kind         TargetKind       `json:"kind"`
		Dependencies []InternedString `json:"dependencies"`
		Output       string           `json:"output"`
		Project      *ProjectSpec     `json:"project,omitempty"`
		Script       *ScriptSpec      `json:"script,omitempty"`
		CMake        *CMakeSpec       `json:"cmake,omitempty"`
	}{t.Kind, t.Dependencies, t.Output, t.Project, t.Script, t.CMake}

	// encoding/json sorts map keys, which keeps the digest stable.
	data, err := json.Marshal(decl)
	if err != nil {
		return ""
	}
	h := xxhash.New()
	_, _ = h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Inputs returns the input patterns whose files determine the target fingerprint.
func (t *Target) Inputs() []string {
	switch t.Kind {
	case TargetProject:
		inputs := append([]string{}, t.Project.Sources...)
		// Absolute include dirs are system or external headers, covered by the
		// toolchain identity and external revisions instead.
		for _, dir := range t.Project.IncludeDirs {
			if !filepath.IsAbs(dir) {
				inputs = append(inputs, dir)
			}
		}
		return inputs
	case TargetScript:
		var inputs []string
		if t.Script.File != "" {
			inputs = append(inputs, t.Script.File)
		}
		return append(inputs, t.Script.Inputs...)
	case TargetCMake:
		if len(t.CMake.Inputs) > 0 {
			return t.CMake.Inputs
		}
		return []string{t.CMake.Location}
	}
	return nil
}
