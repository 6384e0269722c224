package orchestrator

import "go.trai.ch/anvil/internal/core/domain"

// Toolchains holds the descriptors resolved for one session.
type Toolchains struct {
	// Default is the project-wide kind inherited by targets that do not name one.
	Default  domain.ToolchainKind
	Resolved map[domain.ToolchainKind]*domain.ToolchainDescriptor
}

// For returns the toolchain t builds with. Scripts have none, and CMake targets without
// an explicit or default kind let CMake pick its own compiler.
func (tc Toolchains) For(t *domain.Target) *domain.ToolchainDescriptor {
	var kind domain.ToolchainKind
	switch t.Kind {
	case domain.TargetProject:
		kind = t.Project.Toolchain
	case domain.TargetCMake:
		kind = t.CMake.Toolchain
	default:
		return nil
	}
	if kind == domain.ToolchainUnknown {
		kind = tc.Default
	}
	if t.Kind == domain.TargetCMake && kind == domain.ToolchainUnknown {
		return nil
	}
	return tc.Resolved[kind]
}
