package mcp

import (
	"github.com/custodia-labs/catalogd/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Catalog compiles catalogs.
	Catalog driving.CatalogService

	// Nodes manages node classifications. Optional.
	Nodes driving.NodeService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Catalog == nil {
		return ErrMissingCatalogService
	}
	return nil
}
