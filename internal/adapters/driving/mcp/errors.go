// Package mcp provides an MCP (Model Context Protocol) server adapter for catalogd.
// It lets AI assistants compile catalogs and inspect node classifications locally.
package mcp

import "errors"

// ErrMissingCatalogService is returned when the catalog service is not provided.
var ErrMissingCatalogService = errors.New("mcp: catalog service is required")

// ErrMissingNode is returned when a tool is invoked without a node name.
var ErrMissingNode = errors.New("mcp: node is required")
