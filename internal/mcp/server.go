package mcp

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/tracemap/internal/resolver"
)

// Server manages the MCP server lifecycle: one shared resolver behind
// the resolve, lookup, graph, and search tools.
type Server struct {
	resolver *resolver.Resolver
	mcp      *server.MCPServer
}

// NewServer creates an MCP server with all tools registered. The
// resolver is shared across tool calls so repeated resolutions hit its
// caches.
func NewServer(opts *resolver.Options) (*Server, error) {
	r, err := resolver.New(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create resolver: %w", err)
	}

	mcpServer := server.NewMCPServer(
		"tracemap-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	AddResolveTool(mcpServer, r)
	AddLookupTool(mcpServer, r)
	AddGraphTool(mcpServer, r)
	AddSearchTool(mcpServer, r)

	return &Server{resolver: r, mcp: mcpServer}, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown.
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting MCP server on stdio...")
		if err := server.ServeStdio(s.mcp); err != nil {
			errCh <- fmt.Errorf("MCP server error: %w", err)
		}
	}()

	select {
	case <-sigCh:
		log.Printf("Received shutdown signal, stopping gracefully...")
		return nil
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close releases the shared resolver.
func (s *Server) Close() error {
	if s.resolver != nil {
		s.resolver.Close()
	}
	return nil
}
