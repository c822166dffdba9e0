package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/tracemap/internal/config"
	"github.com/mvp-joe/tracemap/internal/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for template resolution tools",
	Long: `Start the Model Context Protocol (MCP) server that lets LLM-powered coding
assistants resolve template trees, trace values to their source positions,
inspect dependency graphs, and search resolved documents.

The MCP server:
- Resolves template import trees on demand, with caching across calls
- Provides the tracemap_resolve, tracemap_lookup, tracemap_graph, and
  tracemap_search tools
- Communicates via stdio (standard MCP transport)

Example:
  tracemap mcp`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	rootDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Tracemap MCP Server\n")
	fmt.Fprintf(os.Stderr, "Base Directory: %s\n\n", rootDir)

	server, err := mcp.NewServer(cfg.ResolverOptions(rootDir))
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer server.Close()

	if err := server.Serve(ctx); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}

	return nil
}
