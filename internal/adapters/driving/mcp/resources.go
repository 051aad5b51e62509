package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/catalogd/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for catalogd resources.
	uriScheme = "catalogd://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	if s.ports.Nodes == nil {
		return
	}

	// Template for node classifications.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "nodes/{name}",
		Name:        "node-classification",
		Description: "Stored classification of a node",
		MIMEType:    "application/json",
	}, s.handleNodeResource)
}

// handleNodeResource returns the stored classification of a node.
func (s *Server) handleNodeResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	name := extractNodeName(req.Params.URI)
	if name == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	node, err := s.ports.Nodes.Get(ctx, name)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting node: %w", err)
	}

	data, err := json.MarshalIndent(node, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling node: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractNodeName extracts the node name from a URI like catalogd://nodes/{name}.
func extractNodeName(uri string) string {
	const prefix = uriScheme + "nodes/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	name := strings.TrimPrefix(uri, prefix)
	if strings.Contains(name, "/") {
		return ""
	}
	return name
}
