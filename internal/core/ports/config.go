package ports

import "go.trai.ch/mason/internal/core/domain"

// ConfigLoader reads a project description from a source directory.
type ConfigLoader interface {
	// Load parses and validates the project file. The returned project has
	// its targets in a deterministic order.
	Load(srcDir string) (*domain.Project, error)
}
