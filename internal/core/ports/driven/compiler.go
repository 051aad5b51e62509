package driven

import (
	"context"

	"github.com/custodia-labs/catalogd/internal/core/domain"
)

// ManifestCompiler turns a resolved node into a catalog.
type ManifestCompiler interface {
	// Compile compiles node against the manifest snapshot identified by codeID.
	// An empty codeID compiles the environment's current code.
	Compile(ctx context.Context, node *domain.Node, codeID string) (*domain.Catalog, error)
}
