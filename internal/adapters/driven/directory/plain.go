// Package directory provides the node directory termini selected by
// server.node_terminus.
package directory

import (
	"context"
	"fmt"

	"github.com/custodia-labs/catalogd/internal/core/domain"
	"github.com/custodia-labs/catalogd/internal/core/ports/driven"
)

// Ensure Plain implements the interface.
var _ driven.NodeDirectory = (*Plain)(nil)

// Plain resolves every name to an unclassified node in the requested
// environment. Facts passed in the lookup are attached to the node.
type Plain struct {
	// DefaultEnvironment is used when the lookup names no environment.
	DefaultEnvironment string
}

// NewPlain creates a plain terminus.
func NewPlain(defaultEnvironment string) *Plain {
	return &Plain{DefaultEnvironment: defaultEnvironment}
}

// Find returns a bare node named name.
func (p *Plain) Find(_ context.Context, name string, opts driven.NodeLookupOptions) (*domain.Node, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: node name is empty", domain.ErrMalformedRequest)
	}
	env := opts.Environment
	if env == "" {
		env = p.DefaultEnvironment
	}
	return &domain.Node{
		Name:        name,
		Environment: env,
		Classes:     []string{},
		Parameters:  map[string]any{},
		Facts:       opts.Facts,
	}, nil
}
