package driving

import (
	"context"

	"github.com/custodia-labs/catalogd/internal/core/domain"
)

// CatalogService compiles catalogs for nodes.
type CatalogService interface {
	// FindCatalog compiles the catalog described by req.
	// Failures carry a domain error kind, see domain.KindOf.
	FindCatalog(ctx context.Context, req domain.CompileRequest) (*domain.Catalog, error)
}

// NodeService manages stored node classifications.
type NodeService interface {
	// Classify stores a node's environment, classes and parameters.
	Classify(ctx context.Context, node domain.Node) error

	// Get returns a stored classification.
	Get(ctx context.Context, name string) (*domain.Node, error)
}
