package driven

import (
	"context"

	"github.com/custodia-labs/catalogd/internal/core/domain"
)

// NodeLookupOptions is the context passed to a node lookup.
type NodeLookupOptions struct {
	Environment           string
	TransactionID         string
	ConfiguredEnvironment string
	Facts                 *domain.Facts
}

// NodeDirectory resolves node names to classified nodes.
type NodeDirectory interface {
	// Find resolves a node by name.
	// Returns domain.ErrNotFound when the name resolves to no node.
	Find(ctx context.Context, name string, opts NodeLookupOptions) (*domain.Node, error)
}

// NodeClassificationStore stores node classifications.
type NodeClassificationStore interface {
	NodeDirectory

	// Save stores or replaces a node classification.
	Save(ctx context.Context, node domain.Node) error
}
