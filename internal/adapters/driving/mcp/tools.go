package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/catalogd/internal/core/domain"
)

// CompileInput is the input schema for the compile_catalog tool.
type CompileInput struct {
	Node          string         `json:"node" jsonschema:"name of the node to compile a catalog for"`
	Environment   string         `json:"environment,omitempty" jsonschema:"environment to compile in"`
	Facts         map[string]any `json:"facts,omitempty" jsonschema:"fact values for the node"`
	StaticCatalog bool           `json:"static_catalog,omitempty" jsonschema:"inline file metadata for puppet: sources"`
	CodeID        string         `json:"code_id,omitempty" jsonschema:"code snapshot id, required for static catalogs"`
	ChecksumType  string         `json:"checksum_type,omitempty" jsonschema:"dot-separated checksum preference list, e.g. sha256.md5"`
}

// CompileOutput is the output schema for the compile_catalog tool.
type CompileOutput struct {
	Name          string            `json:"name"`
	Environment   string            `json:"environment"`
	Version       string            `json:"version"`
	CodeID        string            `json:"code_id,omitempty"`
	TransactionID string            `json:"transaction_uuid,omitempty"`
	CatalogID     string            `json:"catalog_uuid,omitempty"`
	Resources     []ResourceOutput  `json:"resources"`
	Metadata      []InlinedFile     `json:"metadata,omitempty"`
	Recursive     []RecursiveOutput `json:"recursive_metadata,omitempty"`
}

// ResourceOutput is a resource reference in a compiled catalog.
type ResourceOutput struct {
	Type  string `json:"type"`
	Title string `json:"title"`
}

// InlinedFile is metadata inlined for one File resource.
type InlinedFile struct {
	Title      string `json:"title"`
	Source     string `json:"source"`
	Path       string `json:"path"`
	Checksum   string `json:"checksum,omitempty"`
	ContentURI string `json:"content_uri,omitempty"`
}

// RecursiveOutput summarises the metadata inlined for a recursive File resource.
type RecursiveOutput struct {
	Title   string         `json:"title"`
	Sources []SourceOutput `json:"sources"`
}

// SourceOutput is the metadata found under one source.
type SourceOutput struct {
	Source  string `json:"source"`
	Entries int    `json:"entries"`
}

// ClassifyInput is the input schema for the classify_node tool.
type ClassifyInput struct {
	Node        string            `json:"node" jsonschema:"name of the node"`
	Environment string            `json:"environment,omitempty" jsonschema:"environment the node compiles in"`
	Classes     []string          `json:"classes,omitempty" jsonschema:"classes to apply to the node"`
	Parameters  map[string]string `json:"parameters,omitempty" jsonschema:"top-scope parameters for the node"`
}

// ClassifyOutput is the output schema for the classify_node tool.
type ClassifyOutput struct {
	Node    string `json:"node"`
	Message string `json:"message"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "compile_catalog",
		Description: "Compile the catalog for a node, optionally as a static catalog with inlined file metadata",
	}, s.handleCompile)

	if s.ports.Nodes != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "classify_node",
			Description: "Store the environment, classes and parameters of a node",
		}, s.handleClassify)
	}
}

// handleCompile handles the compile_catalog tool invocation.
func (s *Server) handleCompile(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CompileInput,
) (*mcp.CallToolResult, CompileOutput, error) {
	if input.Node == "" {
		return nil, CompileOutput{}, ErrMissingNode
	}

	req := domain.CompileRequest{
		NodeKey:       input.Node,
		Environment:   input.Environment,
		StaticCatalog: input.StaticCatalog,
		CodeID:        input.CodeID,
		ChecksumTypes: input.ChecksumType,
	}
	if input.Facts != nil {
		req.Facts = &domain.Facts{Name: input.Node, Values: input.Facts}
		req.FactsFormat = "json"
	}

	catalog, err := s.ports.Catalog.FindCatalog(ctx, req)
	if err != nil {
		return nil, CompileOutput{}, err
	}
	return nil, compileOutput(catalog), nil
}

func compileOutput(catalog *domain.Catalog) CompileOutput {
	out := CompileOutput{
		Name:          catalog.Name,
		Environment:   catalog.Environment,
		Version:       catalog.Version,
		CodeID:        catalog.CodeID,
		TransactionID: catalog.TransactionID,
		CatalogID:     catalog.CatalogID,
		Resources:     make([]ResourceOutput, len(catalog.Resources)),
	}
	for i, r := range catalog.Resources {
		out.Resources[i] = ResourceOutput{Type: r.Type, Title: r.Title}
	}

	// Walk resources so output follows catalog order.
	for _, r := range catalog.FileResources() {
		if md, ok := catalog.FileMetadata[r.Title]; ok {
			out.Metadata = append(out.Metadata, InlinedFile{
				Title:      r.Title,
				Source:     md.Source,
				Path:       md.FullPath,
				Checksum:   md.Checksum,
				ContentURI: md.ContentURI,
			})
		}
		if bySource, ok := catalog.RecursiveFileMetadata[r.Title]; ok {
			rec := RecursiveOutput{Title: r.Title}
			for _, src := range r.Sources() {
				if entries, ok := bySource[domain.NormalizeSource(src)]; ok {
					rec.Sources = append(rec.Sources, SourceOutput{
						Source:  domain.NormalizeSource(src),
						Entries: len(entries),
					})
				}
			}
			out.Recursive = append(out.Recursive, rec)
		}
	}
	return out
}

// handleClassify handles the classify_node tool invocation.
func (s *Server) handleClassify(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ClassifyInput,
) (*mcp.CallToolResult, ClassifyOutput, error) {
	if input.Node == "" {
		return nil, ClassifyOutput{}, ErrMissingNode
	}

	node := domain.Node{
		Name:        input.Node,
		Environment: input.Environment,
		Classes:     input.Classes,
		Parameters:  make(map[string]any, len(input.Parameters)),
	}
	for k, v := range input.Parameters {
		node.Parameters[k] = v
	}

	if err := s.ports.Nodes.Classify(ctx, node); err != nil {
		return nil, ClassifyOutput{}, err
	}
	return nil, ClassifyOutput{
		Node:    input.Node,
		Message: fmt.Sprintf("Classified %s with %d classes", input.Node, len(input.Classes)),
	}, nil
}
