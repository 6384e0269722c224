package domain

import (
	"path/filepath"
	"strings"

	"go.trai.ch/zerr"
)

// Configuration is a named build configuration.
type Configuration string

const (
	ConfigurationDebug          Configuration = "debug"
	ConfigurationRelease        Configuration = "release"
	ConfigurationMinSize        Configuration = "minsize"
	ConfigurationRelWithDebInfo Configuration = "relwithdebinfo"
)

// DefaultConfiguration is used when neither the project file nor the command line picks one.
const DefaultConfiguration = ConfigurationRelease

// ParseConfiguration parses a configuration name, case-insensitively. Empty means the default.
func ParseConfiguration(s string) (Configuration, error) {
	switch c := Configuration(strings.ToLower(strings.TrimSpace(s))); c {
	case "":
		return DefaultConfiguration, nil
	case ConfigurationDebug, ConfigurationRelease, ConfigurationMinSize, ConfigurationRelWithDebInfo:
		return c, nil
	default:
		return "", zerr.With(ErrUnknownConfiguration, "configuration", s)
	}
}

// DebugInfo reports whether the configuration emits debug information.
func (c Configuration) DebugInfo() bool {
	return c == ConfigurationDebug || c == ConfigurationRelWithDebInfo
}

// CMakeBuildType returns the matching CMAKE_BUILD_TYPE value.
func (c Configuration) CMakeBuildType() string {
	switch c {
	case ConfigurationDebug:
		return "Debug"
	case ConfigurationMinSize:
		return "MinSizeRel"
	case ConfigurationRelWithDebInfo:
		return "RelWithDebInfo"
	default:
		return "Release"
	}
}

// FingerprintMode selects how input files are compared between sessions.
type FingerprintMode string

const (
	// FingerprintTimestamp compares modification time (whole seconds) and size.
	FingerprintTimestamp FingerprintMode = "timestamp"
	// FingerprintContent hashes file content.
	FingerprintContent FingerprintMode = "content"
)

// ParseFingerprintMode parses a fingerprint mode. Empty means timestamp.
func ParseFingerprintMode(s string) (FingerprintMode, error) {
	switch m := FingerprintMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return FingerprintTimestamp, nil
	case FingerprintTimestamp, FingerprintContent:
		return m, nil
	default:
		return "", zerr.With(ErrInvalidFingerprintMode, "mode", s)
	}
}

// DependencyDecl declares an external dependency that must already be present on disk.
type DependencyDecl struct {
	Name       string
	Path       string
	Repository string
	Ref        string
}

// ResolvedDependency is an external dependency located on disk.
type ResolvedDependency struct {
	Name     string
	Path     string
	Revision string
}

// Project is the parsed and validated project file.
type Project struct {
	Name            string
	Root            string
	BuildDir        string
	Configuration   Configuration
	Jobs            int
	Toolchain       ToolchainKind
	FingerprintMode FingerprintMode
	ToolchainPaths  []string
	Dependencies    []DependencyDecl
	Targets         []*Target

	// Source is the project file the project was loaded from.
	Source string
}

// ToolchainFor returns the toolchain kind a target builds with.
// Targets that do not name one inherit the project default.
func (p *Project) ToolchainFor(t *Target) ToolchainKind {
	var kind ToolchainKind
	switch t.Kind {
	case TargetProject:
		kind = t.Project.Toolchain
	case TargetCMake:
		kind = t.CMake.Toolchain
	default:
		return ToolchainUnknown
	}
	if kind == ToolchainUnknown {
		return p.Toolchain
	}
	return kind
}

// RequiredToolchains returns the distinct toolchain kinds needed by the given targets, in first-use order.
// CMake targets without an explicit or default toolchain let CMake pick its own compiler.
func (p *Project) RequiredToolchains(targets []*Target) []ToolchainKind {
	seen := make(map[ToolchainKind]bool)
	var kinds []ToolchainKind
	for _, t := range targets {
		if t.Kind == TargetScript {
			continue
		}
		kind := p.ToolchainFor(t)
		if t.Kind == TargetCMake && kind == ToolchainUnknown {
			continue
		}
		if !seen[kind] {
			seen[kind] = true
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

// ExternalPath returns where an external dependency is expected on disk.
func (p *Project) ExternalPath(d DependencyDecl) string {
	if d.Path != "" {
		if filepath.IsAbs(d.Path) {
			return d.Path
		}
		return filepath.Join(p.Root, d.Path)
	}
	return DefaultExternalPath(p.Root, d.Name)
}
