package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/custodia-labs/catalogd/internal/core/domain"
	"github.com/custodia-labs/catalogd/internal/core/ports/driven"
)

// Ensure NodeStore implements the interface.
var _ driven.NodeClassificationStore = (*NodeStore)(nil)

// NodeStore is an in-memory implementation of driven.NodeClassificationStore.
// Find returns a fresh copy on every call so compiles never share a Node.
type NodeStore struct {
	mu    sync.RWMutex
	nodes map[string]domain.Node
}

// NewNodeStore creates a new in-memory node store.
func NewNodeStore() *NodeStore {
	return &NodeStore{
		nodes: make(map[string]domain.Node),
	}
}

// Save stores or replaces a node classification.
func (s *NodeStore) Save(_ context.Context, node domain.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[node.Name] = copyNode(node)
	return nil
}

// Find resolves a node by name. A classification without an environment
// takes the requested one.
func (s *NodeStore) Find(_ context.Context, name string, opts driven.NodeLookupOptions) (*domain.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	node, ok := s.nodes[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	found := copyNode(node)
	if found.Environment == "" {
		found.Environment = opts.Environment
	}
	found.Facts = opts.Facts
	return &found, nil
}

func copyNode(n domain.Node) domain.Node {
	return domain.Node{
		Name:        n.Name,
		Environment: n.Environment,
		Classes:     slices.Clone(n.Classes),
		Parameters:  maps.Clone(n.Parameters),
	}
}
