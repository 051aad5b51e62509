package mcp

import (
	"context"

	"github.com/custodia-labs/catalogd/internal/core/domain"
)

// mockCatalogService is a mock implementation of driving.CatalogService.
type mockCatalogService struct {
	catalog *domain.Catalog
	err     error
	lastReq domain.CompileRequest
}

func (m *mockCatalogService) FindCatalog(_ context.Context, req domain.CompileRequest) (*domain.Catalog, error) {
	m.lastReq = req
	return m.catalog, m.err
}

// mockNodeService is a mock implementation of driving.NodeService.
type mockNodeService struct {
	node       *domain.Node
	err        error
	classified []domain.Node
}

func (m *mockNodeService) Classify(_ context.Context, node domain.Node) error {
	m.classified = append(m.classified, node)
	return m.err
}

func (m *mockNodeService) Get(_ context.Context, _ string) (*domain.Node, error) {
	return m.node, m.err
}
