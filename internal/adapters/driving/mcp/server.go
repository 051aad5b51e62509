package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/catalogd/internal/logger"
)

// instructions is sent to clients on initialisation.
const instructions = `catalogd compiles configuration catalogs for nodes.

Use compile_catalog to see the resources a node would receive. Set
static_catalog and code_id to also get file metadata for puppet: sources.
Compiles run as local requests: facts given to the tool are trusted.`

// defaultShutdownTimeout bounds how long in-flight HTTP sessions may run
// after the context is cancelled.
const defaultShutdownTimeout = 10 * time.Second

// Options configures the MCP server.
type Options struct {
	// Version is reported to clients. Defaults to "dev".
	Version string

	// ShutdownTimeout bounds graceful shutdown of the HTTP transport.
	ShutdownTimeout time.Duration
}

// Server is the MCP server for catalogd.
type Server struct {
	ports  *Ports
	opts   Options
	server *mcp.Server
}

// NewServer creates an MCP server over the given ports. Node tools and
// resources are registered only when a node service is provided.
func NewServer(ports *Ports, opts Options) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = defaultShutdownTimeout
	}

	s := &Server{
		ports: ports,
		opts:  opts,
		server: mcp.NewServer(
			&mcp.Implementation{Name: "catalogd", Version: opts.Version},
			&mcp.ServerOptions{Instructions: instructions},
		),
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Handler returns the streamable HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)
}

// RunHTTP serves the streamable HTTP transport on addr until ctx is
// cancelled, then waits up to the shutdown timeout for open sessions.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("MCP server shutdown: %v", err)
		}
	}()

	logger.Info("MCP server listening on %s", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("serving mcp on %s: %w", addr, err)
	}
	return nil
}
