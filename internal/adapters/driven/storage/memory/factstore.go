package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/custodia-labs/catalogd/internal/core/domain"
	"github.com/custodia-labs/catalogd/internal/core/ports/driven"
)

// Ensure FactStore implements the interface.
var _ driven.FactStore = (*FactStore)(nil)

// FactStore is an in-memory implementation of driven.FactStore.
type FactStore struct {
	mu      sync.RWMutex
	records map[string]domain.FactsRecord
	now     func() time.Time
}

// NewFactStore creates a new in-memory fact store.
func NewFactStore() *FactStore {
	return &FactStore{
		records: make(map[string]domain.FactsRecord),
		now:     time.Now,
	}
}

// Save stores facts for owner.
func (s *FactStore) Save(_ context.Context, facts *domain.Facts, owner string, opts driven.FactSaveOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *facts
	stored.Values = maps.Clone(facts.Values)
	s.records[owner] = domain.FactsRecord{
		Facts:         stored,
		Environment:   opts.Environment,
		TransactionID: opts.TransactionID,
		SavedAt:       s.now(),
	}
	return nil
}

// Get retrieves the last facts saved for a node.
func (s *FactStore) Get(_ context.Context, name string) (*domain.FactsRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

// Count returns the number of nodes with stored facts.
func (s *FactStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
