package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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
	if m.err != nil {
		return nil, m.err
	}
	return m.catalog, nil
}

// mockNodeService is a mock implementation of driving.NodeService.
type mockNodeService struct {
	nodes map[string]domain.Node
	err   error
}

func (m *mockNodeService) Classify(_ context.Context, node domain.Node) error {
	if m.err != nil {
		return m.err
	}
	m.nodes[node.Name] = node
	return nil
}

func (m *mockNodeService) Get(_ context.Context, name string) (*domain.Node, error) {
	if m.err != nil {
		return nil, m.err
	}
	n, ok := m.nodes[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &n, nil
}

// setupTestServices installs mock services and returns a cleanup func.
func setupTestServices() (*mockCatalogService, *mockNodeService, func()) {
	catalogs := &mockCatalogService{catalog: domain.NewCatalog("web01", "production")}
	nodes := &mockNodeService{nodes: make(map[string]domain.Node)}

	old := servicesOverride
	servicesOverride = &Services{Catalog: catalogs, Nodes: nodes}
	return catalogs, nodes, func() { servicesOverride = old }
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "catalogd", rootCmd.Use)
}

func TestRootCmd_HasPersistentFlags(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("config")
	require.NotNil(t, flag, "config flag should exist")
	assert.Equal(t, "c", flag.Shorthand)

	flag = rootCmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, flag, "verbose flag should exist")
	assert.Equal(t, "false", flag.DefValue)
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	names := make([]string, 0)
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"compile", "serve", "mcp", "node", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestLoadServices_Bootstrap(t *testing.T) {
	oldBootstrap, oldPath := bootstrap, configPath
	defer func() { bootstrap, configPath = oldBootstrap, oldPath }()

	closed := false
	var gotPath string
	var gotNetworked bool
	SetBootstrap(func(path string, networked bool) (*Services, error) {
		gotPath, gotNetworked = path, networked
		return &Services{Close: func() error { closed = true; return nil }}, nil
	})
	configPath = "/etc/catalogd.toml"

	_, release, err := loadServices(true)
	require.NoError(t, err)
	release()

	assert.Equal(t, "/etc/catalogd.toml", gotPath)
	assert.True(t, gotNetworked)
	assert.True(t, closed)
}

func TestLoadServices_Errors(t *testing.T) {
	oldBootstrap := bootstrap
	defer func() { bootstrap = oldBootstrap }()

	SetBootstrap(nil)
	_, _, err := loadServices(false)
	assert.ErrorContains(t, err, "services not configured")

	SetBootstrap(func(string, bool) (*Services, error) { return nil, errors.New("bad toml") })
	_, _, err = loadServices(false)
	assert.ErrorContains(t, err, "loading configuration: bad toml")
}
