package ports

import (
	"context"

	"go.trai.ch/anvil/internal/core/domain"
)

// SearchHints narrows where a toolchain is looked up.
type SearchHints struct {
	// Paths are directories searched before PATH.
	Paths []string
	// CC and CXX name explicit compiler executables and win over everything else.
	CC  string
	CXX string
	// Env is the environment whose PATH is searched. Empty means the process environment.
	Env []string
}

// ToolchainResolver locates and validates native toolchains.
//
//go:generate mockgen -source=toolchain.go -destination=mocks/mock_toolchain.go -package=mocks
type ToolchainResolver interface {
	// Resolve returns a descriptor for kind. ToolchainUnknown requests auto-detection.
	// It never modifies the environment.
	Resolve(ctx context.Context, kind domain.ToolchainKind, hints SearchHints) (*domain.ToolchainDescriptor, error)
}
