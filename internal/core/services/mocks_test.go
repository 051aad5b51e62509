package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/catalogd/internal/core/domain"
	"github.com/custodia-labs/catalogd/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockDecoder implements driven.FactDecoder for JSON only.
type mockDecoder struct {
	calls int
}

func (m *mockDecoder) Decode(format, text string) (*domain.Facts, error) {
	m.calls++
	if format != "json" {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, format)
	}
	var facts domain.Facts
	if err := json.Unmarshal([]byte(text), &facts); err != nil {
		return nil, err
	}
	return &facts, nil
}

// mockDirectory implements driven.NodeDirectory for testing.
type mockDirectory struct {
	nodes    map[string]domain.Node
	err      error
	lastOpts driven.NodeLookupOptions
	calls    int
}

func (m *mockDirectory) Find(_ context.Context, name string, opts driven.NodeLookupOptions) (*domain.Node, error) {
	m.calls++
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	node, ok := m.nodes[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if node.Environment == "" {
		node.Environment = opts.Environment
	}
	return &node, nil
}

// mockCompiler implements driven.ManifestCompiler for testing.
type mockCompiler struct {
	resources []domain.Resource
	err       error
	calls     int
	lastNode  *domain.Node
	lastCode  string
}

func (m *mockCompiler) Compile(_ context.Context, node *domain.Node, codeID string) (*domain.Catalog, error) {
	m.calls++
	m.lastNode = node
	m.lastCode = codeID
	if m.err != nil {
		return nil, m.err
	}
	c := domain.NewCatalog(node.Name, node.Environment)
	c.Resources = append([]domain.Resource(nil), m.resources...)
	return c, nil
}

// mockMetadata implements driven.MetadataSearch for testing.
// Entries are keyed by source.
type mockMetadata struct {
	mu        sync.Mutex
	single    map[string]*domain.FileMetadata
	recursive map[string][]domain.FileMetadata
	err       error
	queried   []string
	lastOpts  driven.MetadataOptions
}

func (m *mockMetadata) FindOne(_ context.Context, source string, opts driven.MetadataOptions) (*domain.FileMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queried = append(m.queried, source)
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	md, ok := m.single[source]
	if !ok {
		return nil, nil
	}
	cp := *md
	return &cp, nil
}

func (m *mockMetadata) FindRecursive(_ context.Context, source string, opts driven.MetadataOptions) ([]domain.FileMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queried = append(m.queried, source)
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	entries, ok := m.recursive[source]
	if !ok {
		return nil, nil
	}
	return append([]domain.FileMetadata(nil), entries...), nil
}

// recordingProfiler implements driven.Profiler and records span labels.
type recordingProfiler struct {
	labels []string

	// active is the label of the span currently running.
	active string
}

func (p *recordingProfiler) Profile(ctx context.Context, label string, _ []string, fn func(context.Context) error) error {
	p.labels = append(p.labels, label)
	outer := p.active
	p.active = label
	defer func() { p.active = outer }()
	return fn(ctx)
}

// mockHostFacts implements driven.HostFactSource for testing.
type mockHostFacts map[string]string

func (m mockHostFacts) Fact(name string) (string, error) {
	v, ok := m[name]
	if !ok {
		return "", errors.New("fact unavailable")
	}
	return v, nil
}
