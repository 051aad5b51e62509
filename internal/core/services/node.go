package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/catalogd/internal/core/domain"
	"github.com/custodia-labs/catalogd/internal/core/ports/driven"
	"github.com/custodia-labs/catalogd/internal/core/ports/driving"
)

// Ensure NodeService implements the interface.
var _ driving.NodeService = (*NodeService)(nil)

// NodeService manages node classifications in the node store.
type NodeService struct {
	store driven.NodeClassificationStore
}

// NewNodeService creates a new node service.
func NewNodeService(store driven.NodeClassificationStore) *NodeService {
	return &NodeService{store: store}
}

// Classify stores a node's classification.
func (s *NodeService) Classify(ctx context.Context, node domain.Node) error {
	if node.Name == "" {
		return errors.New("node name is required")
	}
	if s.store == nil {
		return errors.New("node store not configured")
	}
	if err := s.store.Save(ctx, node); err != nil {
		return fmt.Errorf("save node %s: %w", node.Name, err)
	}
	return nil
}

// Get returns a stored classification.
func (s *NodeService) Get(ctx context.Context, name string) (*domain.Node, error) {
	if s.store == nil {
		return nil, errors.New("node store not configured")
	}
	return s.store.Find(ctx, name, driven.NodeLookupOptions{})
}
