package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/catalogd/internal/core/domain"
	"github.com/custodia-labs/catalogd/internal/core/ports/driven"
	"github.com/custodia-labs/catalogd/internal/core/ports/driving"
	"github.com/custodia-labs/catalogd/internal/logger"
)

// Ensure CatalogCompiler implements the interface.
var _ driving.CatalogService = (*CatalogCompiler)(nil)

// CatalogDeps holds the collaborators of a CatalogCompiler.
type CatalogDeps struct {
	Decoder      driven.FactDecoder
	FactStore    driven.FactStore
	Directory    driven.NodeDirectory
	Compiler     driven.ManifestCompiler
	Metadata     driven.MetadataSearch
	Environments driven.EnvironmentStore

	// Profiler is optional.
	Profiler driven.Profiler

	// ServerFacts is merged into every resolved node.
	ServerFacts ServerFacts
}

// CatalogOptions configures a CatalogCompiler.
type CatalogOptions struct {
	// Networked is true when serving remote agents. Compiler failures
	// are only logged when networked.
	Networked bool

	// ChecksumTypes is the set of checksum types the master supports.
	// Defaults to domain.KnownChecksumTypes.
	ChecksumTypes []string
}

// CatalogCompiler compiles catalogs: it ingests facts, resolves the node,
// runs the manifest compiler and inlines file metadata for static catalogs.
type CatalogCompiler struct {
	intake       *FactIntake
	resolver     *NodeResolver
	inliner      *Inliner
	compiler     driven.ManifestCompiler
	environments driven.EnvironmentStore
	profiler     driven.Profiler
	opts         CatalogOptions
}

// NewCatalogCompiler creates a catalog compiler.
func NewCatalogCompiler(deps CatalogDeps, opts CatalogOptions) *CatalogCompiler {
	if len(opts.ChecksumTypes) == 0 {
		opts.ChecksumTypes = domain.KnownChecksumTypes
	}
	return &CatalogCompiler{
		intake:       NewFactIntake(deps.Decoder, deps.FactStore, deps.Profiler),
		resolver:     NewNodeResolver(deps.Directory, deps.ServerFacts, deps.Profiler),
		inliner:      NewInliner(deps.Metadata),
		compiler:     deps.Compiler,
		environments: deps.Environments,
		profiler:     deps.Profiler,
		opts:         opts,
	}
}

// FindCatalog compiles the catalog for req.
func (c *CatalogCompiler) FindCatalog(ctx context.Context, req domain.CompileRequest) (*domain.Catalog, error) {
	facts, err := c.intake.Ingest(ctx, req)
	if err != nil {
		return nil, err
	}

	node, err := c.resolver.Resolve(ctx, req, facts)
	if err != nil {
		return nil, err
	}
	node.TrustedData = trustedData(req, node)

	env, checksumType, err := c.staticCatalogChecksum(ctx, req, node)
	if err != nil {
		return nil, err
	}

	catalog, err := c.compile(ctx, req, node, checksumType != "")
	if err != nil {
		return nil, err
	}

	if checksumType != "" {
		if err := c.inline(ctx, catalog, node, env, checksumType); err != nil {
			return nil, err
		}
	}
	return catalog, nil
}

// staticCatalogChecksum decides whether the catalog is compiled as a static
// catalog and, if so, negotiates its checksum type. An empty checksum type
// means a regular catalog.
func (c *CatalogCompiler) staticCatalogChecksum(
	ctx context.Context,
	req domain.CompileRequest,
	node *domain.Node,
) (*domain.Environment, string, error) {
	// Without a code id the catalog cannot be paired with file content.
	if !req.StaticCatalog || req.CodeID == "" || c.environments == nil {
		return nil, "", nil
	}

	env, err := c.environments.Get(ctx, node.Environment)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("%w: environment %s: %w", domain.ErrUpstream, node.Environment, err)
	}
	if !env.StaticCatalogs {
		return nil, "", nil
	}

	checksumType, ok := domain.NegotiateChecksumType(req.ChecksumTypes, c.opts.ChecksumTypes)
	if !ok {
		return nil, "", fmt.Errorf("%w: unable to find a common checksum type between agent '%s' and master '%s'",
			domain.ErrNegotiationFailed, req.ChecksumTypes, strings.Join(c.opts.ChecksumTypes, ", "))
	}
	return env, checksumType, nil
}

func (c *CatalogCompiler) compile(
	ctx context.Context,
	req domain.CompileRequest,
	node *domain.Node,
	static bool,
) (*domain.Catalog, error) {
	if c.compiler == nil {
		return nil, fmt.Errorf("%w: no manifest compiler configured", domain.ErrUpstream)
	}

	summary := ""
	compileType := "compile"
	if static {
		summary = "static "
		compileType = "static_compile"
	}
	msg := fmt.Sprintf("Compiled %scatalog for %s", summary, node.Name)
	if node.Environment != "" {
		msg += " in environment " + node.Environment
	}

	var catalog *domain.Catalog
	done := logger.Benchmark("%s", msg)
	tags := []string{"compiler", compileType, node.Environment, node.Name}
	err := profile(ctx, c.profiler, msg, tags, func(ctx context.Context) error {
		compiled, err := c.compiler.Compile(ctx, node, req.CodeID)
		if err != nil {
			if c.opts.Networked {
				logger.Error("%v", err)
			}
			// Not found is reserved for nodes and file metadata; a compiler
			// that cannot find its inputs has failed.
			switch domain.KindOf(err) {
			case domain.KindUnknown, domain.KindNotFound:
				return fmt.Errorf("%w: %w", domain.ErrUpstream, err)
			}
			return err
		}
		if compiled == nil {
			return fmt.Errorf("%w: compiler returned no catalog for %s", domain.ErrUpstream, node.Name)
		}
		catalog = compiled
		return nil
	})
	if err != nil {
		return nil, err
	}
	done()

	if catalog.TransactionID == "" {
		catalog.TransactionID = req.TransactionID
	}
	if catalog.CodeID == "" {
		catalog.CodeID = req.CodeID
	}
	if catalog.FileMetadata == nil {
		catalog.FileMetadata = make(map[string]domain.FileMetadata)
	}
	if catalog.RecursiveFileMetadata == nil {
		catalog.RecursiveFileMetadata = make(map[string]map[string][]domain.FileMetadata)
	}
	return catalog, nil
}

func (c *CatalogCompiler) inline(
	ctx context.Context,
	catalog *domain.Catalog,
	node *domain.Node,
	env *domain.Environment,
	checksumType string,
) error {
	if c.inliner.search == nil {
		return fmt.Errorf("%w: no metadata search configured", domain.ErrUpstream)
	}

	msg := fmt.Sprintf("Inlined resource metadata into static catalog for %s", node.Name)
	if node.Environment != "" {
		msg += " in environment " + node.Environment
	}

	done := logger.Benchmark("%s", msg)
	tags := []string{"compiler", "static_compile_postprocessing", node.Environment, node.Name}
	err := profile(ctx, c.profiler, msg, tags, func(ctx context.Context) error {
		results, err := c.inliner.Inline(ctx, catalog, env, checksumType)
		if err != nil {
			return err
		}
		for _, r := range results {
			if r.Status == InlineSkipped {
				logger.Debug("Not inlining %s: %s", r.Title, r.Reason)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	done()
	return nil
}

// trustedData returns the caller's authenticated identity for the node.
// Local requests without authentication data are trusted as local.
func trustedData(req domain.CompileRequest, node *domain.Node) map[string]any {
	if req.TrustedData != nil {
		return req.TrustedData
	}
	authenticated := "local"
	if req.Remote {
		authenticated = "remote"
	}
	return map[string]any{
		"authenticated": authenticated,
		"certname":      node.Name,
		"extensions":    map[string]any{},
	}
}
