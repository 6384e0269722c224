package ports

import (
	"io"

	"go.trai.ch/anvil/internal/core/domain"
)

// ExportSnapshot is a read-only view of a project handed to exporters.
type ExportSnapshot struct {
	Project    *domain.Project
	Graph      *domain.Graph
	Report     *domain.BuildReport
	Toolchains map[domain.ToolchainKind]*domain.ToolchainDescriptor
	Externals  map[string]domain.ResolvedDependency
}

// ProjectExporter writes a project description in some external format.
//
//go:generate mockgen -source=exporter.go -destination=mocks/mock_exporter.go -package=mocks
type ProjectExporter interface {
	// Format is the name the exporter is selected by.
	Format() string
	Export(w io.Writer, snapshot ExportSnapshot) error
}
