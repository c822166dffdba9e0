package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	mcputils "github.com/mvp-joe/tracemap/internal/mcp-utils"
	"github.com/mvp-joe/tracemap/internal/search"
)

// AddSearchTool registers the tracemap_search tool with an MCP server.
func AddSearchTool(s *server.MCPServer, res TreeResolver) {
	tool := mcp.NewTool(
		"tracemap_search",
		mcp.WithDescription("Full-text search over the resolved entries of a template tree: keys, paths, and values. Each hit carries its source file:line:column. Query syntax follows bleve query strings (terms, phrases, field:value)."),
		mcp.WithString("file",
			mcp.Required(),
			mcp.Description("Path to the root template file whose tree to search")),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query (e.g., 'button', '\"Click me\"', 'type:import')")),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results (default: 15)")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createSearchHandler(res))
}

// createSearchHandler creates the handler function for tracemap_search.
func createSearchHandler(res TreeResolver) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args SearchRequest
		if err := mcputils.BindArguments(request, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		if args.File == "" {
			return mcp.NewToolResultError("file parameter is required"), nil
		}
		if args.Query == "" {
			return mcp.NewToolResultError("query parameter is required"), nil
		}

		resolution, err := res.Resolve(ctx, args.File)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("resolve failed: %v", err)), nil
		}

		searcher, err := search.NewSearcher(ctx, resolution)
		if err != nil {
			return nil, fmt.Errorf("failed to build search index: %w", err)
		}
		defer searcher.Close()

		opts := search.DefaultOptions()
		if args.Limit > 0 {
			opts.Limit = args.Limit
		}
		results, err := searcher.Search(ctx, args.Query, opts)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
		}

		jsonData, err := json.Marshal(&SearchResponse{Results: results, Total: len(results)})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response: %w", err)
		}
		return mcp.NewToolResultText(string(jsonData)), nil
	}
}
