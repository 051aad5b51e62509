package directory

import (
	"context"
	"fmt"

	"github.com/custodia-labs/catalogd/internal/core/domain"
	"github.com/custodia-labs/catalogd/internal/core/ports/driven"
)

// Ensure Classified implements the interface.
var _ driven.NodeDirectory = (*Classified)(nil)

// Classified resolves names through stored classifications. Unclassified
// names are not found.
type Classified struct {
	store driven.NodeDirectory

	// DefaultEnvironment is used when neither the classification nor the
	// lookup names an environment.
	DefaultEnvironment string
}

// NewClassified creates a store terminus over a classification store.
func NewClassified(store driven.NodeDirectory, defaultEnvironment string) *Classified {
	return &Classified{store: store, DefaultEnvironment: defaultEnvironment}
}

// Find returns the stored classification of name.
func (c *Classified) Find(ctx context.Context, name string, opts driven.NodeLookupOptions) (*domain.Node, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: node name is empty", domain.ErrMalformedRequest)
	}
	node, err := c.store.Find(ctx, name, opts)
	if err != nil {
		return nil, err
	}
	if node.Environment == "" {
		node.Environment = c.DefaultEnvironment
	}
	return node, nil
}
