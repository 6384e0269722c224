package ports

import (
	"context"

	"go.trai.ch/anvil/internal/core/domain"
)

// DependencyProvider locates external dependencies on disk.
//
//go:generate mockgen -source=dependency.go -destination=mocks/mock_dependency.go -package=mocks
type DependencyProvider interface {
	// Resolve returns one resolved dependency per declaration, in declaration order.
	Resolve(ctx context.Context, root string, decls []domain.DependencyDecl) ([]domain.ResolvedDependency, error)
}
