// Package precompiled is a manifest compiler that serves pre-rendered
// resource graphs from the environment's catalogs directory.
//
// A node's graph is read from <environment>/catalogs/<node>.yaml, falling
// back to <environment>/catalogs/default.yaml. Resources that name a class
// are only included when the node is classified with that class.
package precompiled

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/catalogd/internal/core/domain"
	"github.com/custodia-labs/catalogd/internal/core/ports/driven"
)

// CatalogsDir is the directory inside an environment holding resource graphs.
const CatalogsDir = "catalogs"

// DefaultGraph is the graph used for nodes without their own file.
const DefaultGraph = "default"

// graph is the on-disk form of a resource graph.
type graph struct {
	Resources []graphResource `yaml:"resources"`
}

type graphResource struct {
	domain.Resource `yaml:",inline"`

	// Class restricts the resource to nodes classified with it.
	Class string `yaml:"class,omitempty"`
}

// Ensure Compiler implements the interface.
var _ driven.ManifestCompiler = (*Compiler)(nil)

// Compiler compiles catalogs from pre-rendered graphs.
type Compiler struct {
	environments driven.EnvironmentStore
	now          func() time.Time
	newID        func() string
}

// New creates a compiler that locates environments through environments.
func New(environments driven.EnvironmentStore) *Compiler {
	return &Compiler{
		environments: environments,
		now:          time.Now,
		newID:        uuid.NewString,
	}
}

// Compile builds the catalog for node. codeID is recorded on the catalog;
// graphs are not versioned so the current files are always used.
func (c *Compiler) Compile(ctx context.Context, node *domain.Node, codeID string) (*domain.Catalog, error) {
	env, err := c.environments.Get(ctx, node.Environment)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("could not find environment '%s' for node %s: %w", node.Environment, node.Name, err)
	}
	if err != nil {
		return nil, err
	}

	g, err := loadGraph(env.Path, node.Name)
	if err != nil {
		return nil, err
	}

	now := c.now().UTC()
	catalog := domain.NewCatalog(node.Name, node.Environment)
	catalog.Version = strconv.FormatInt(now.Unix(), 10)
	catalog.CodeID = codeID
	catalog.CatalogID = c.newID()
	catalog.CompiledAt = now

	for _, class := range node.Classes {
		catalog.Resources = append(catalog.Resources, domain.Resource{
			Type:  "Class",
			Title: class,
			Tags:  []string{"class", class},
		})
	}
	for _, r := range g.Resources {
		if r.Class != "" && !slices.Contains(node.Classes, r.Class) {
			continue
		}
		catalog.Resources = append(catalog.Resources, r.Resource)
	}
	return catalog, nil
}

// loadGraph reads the node's graph, or the default graph when the node has none.
func loadGraph(envPath, nodeName string) (*graph, error) {
	dir := filepath.Join(envPath, CatalogsDir)
	candidates := []string{DefaultGraph}
	if nodeName == filepath.Base(nodeName) {
		candidates = []string{nodeName, DefaultGraph}
	}

	for _, name := range candidates {
		path := filepath.Join(dir, name+".yaml")
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}

		var g graph
		if err := yaml.Unmarshal(data, &g); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		for i, r := range g.Resources {
			if r.Type == "" || r.Title == "" {
				return nil, fmt.Errorf("%s: resource %d needs a type and a title", path, i)
			}
		}
		return &g, nil
	}
	return nil, fmt.Errorf("no resource graph for node %s in %s: %w", nodeName, dir, domain.ErrNotFound)
}
