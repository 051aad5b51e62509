package driven

import (
	"context"

	"github.com/custodia-labs/catalogd/internal/core/domain"
)

// EnvironmentStore resolves environment names.
type EnvironmentStore interface {
	// Get returns an environment by name.
	// Returns domain.ErrNotFound when it does not exist.
	Get(ctx context.Context, name string) (*domain.Environment, error)

	// List returns all known environments.
	List(ctx context.Context) ([]domain.Environment, error)
}
