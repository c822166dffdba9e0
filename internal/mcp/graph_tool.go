package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	mcputils "github.com/mvp-joe/tracemap/internal/mcp-utils"
)

// AddGraphTool registers the tracemap_graph tool with an MCP server.
func AddGraphTool(s *server.MCPServer, res TreeResolver) {
	tool := mcp.NewTool(
		"tracemap_graph",
		mcp.WithDescription("Build the module dependency graph of a template import tree. Returns all modules, import edges, roots (nothing imports them), leaves (they import nothing), and a topological order when the graph is acyclic."),
		mcp.WithString("file",
			mcp.Required(),
			mcp.Description("Path to the root template file")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createGraphHandler(res))
}

// createGraphHandler creates the handler function for tracemap_graph.
func createGraphHandler(res TreeResolver) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args GraphRequest
		if err := mcputils.BindArguments(request, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		if args.File == "" {
			return mcp.NewToolResultError("file parameter is required"), nil
		}

		resolution, err := res.Resolve(ctx, args.File)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("resolve failed: %v", err)), nil
		}

		g := resolution.Graph
		response := &GraphResponse{
			Modules: g.Modules(),
			Edges:   []GraphEdge{},
			Roots:   g.Roots(),
			Leaves:  g.Leaves(),
		}
		for _, from := range g.Modules() {
			for _, to := range g.Dependencies(from) {
				response.Edges = append(response.Edges, GraphEdge{From: from, To: to})
			}
		}
		// Order stays empty when the tree contains cycles.
		if order, err := g.TopologicalOrder(); err == nil {
			response.Order = order
		}

		jsonData, err := json.Marshal(response)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response: %w", err)
		}
		return mcp.NewToolResultText(string(jsonData)), nil
	}
}
