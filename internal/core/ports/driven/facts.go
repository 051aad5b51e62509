package driven

import (
	"context"

	"github.com/custodia-labs/catalogd/internal/core/domain"
)

// FactDecoder turns an encoded fact payload into Facts.
type FactDecoder interface {
	// Decode parses text in the given format.
	// Returns domain.ErrUnsupportedType for unknown formats.
	Decode(format, text string) (*domain.Facts, error)
}

// FactSaveOptions carries the compile context stored alongside facts.
type FactSaveOptions struct {
	Environment   string
	TransactionID string
}

// FactStore persists facts reported by agents.
type FactStore interface {
	// Save stores facts for owner, replacing any previous set.
	Save(ctx context.Context, facts *domain.Facts, owner string, opts FactSaveOptions) error

	// Get retrieves the last facts saved for a node.
	// Returns domain.ErrNotFound when none exist.
	Get(ctx context.Context, name string) (*domain.FactsRecord, error)
}
