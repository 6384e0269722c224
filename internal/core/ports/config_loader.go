package ports

import "go.trai.ch/anvil/internal/core/domain"

// ConfigLoader defines the interface for loading the project file.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load finds the project file at or above cwd and returns the parsed project.
	// Target declarations keep their file order.
	Load(cwd string) (*domain.Project, error)
}
