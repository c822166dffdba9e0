package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	mcputils "github.com/mvp-joe/tracemap/internal/mcp-utils"
	"github.com/mvp-joe/tracemap/internal/resolver"
)

// TreeResolver resolves template import trees. Implemented by
// resolver.Resolver.
type TreeResolver interface {
	Resolve(ctx context.Context, rootPath string) (*resolver.Resolution, error)
}

// AddResolveTool registers the tracemap_resolve tool with an MCP server.
func AddResolveTool(s *server.MCPServer, res TreeResolver) {
	tool := mcp.NewTool(
		"tracemap_resolve",
		mcp.WithDescription("Resolve a JSON template file and its import tree into one assembled document. Returns the document, per-module import tallies, run statistics, and any import errors. Import failures inside the tree are reported, not fatal."),
		mcp.WithString("file",
			mcp.Required(),
			mcp.Description("Path to the root template file (e.g., './templates/main.json')")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createResolveHandler(res))
}

// createResolveHandler creates the handler function for tracemap_resolve.
func createResolveHandler(res TreeResolver) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args ResolveRequest
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

		jsonData, err := json.Marshal(buildResolveResponse(resolution))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response: %w", err)
		}
		return mcp.NewToolResultText(string(jsonData)), nil
	}
}

// buildResolveResponse shapes a resolution for tool output.
func buildResolveResponse(res *resolver.Resolution) *ResolveResponse {
	paths := make([]string, 0, len(res.Modules))
	for path := range res.Modules {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	mods := make([]ModuleInfo, 0, len(paths))
	for _, path := range paths {
		mod := res.Modules[path]
		mods = append(mods, ModuleInfo{
			Path:     mod.Path,
			Depth:    mod.Depth,
			Resolved: mod.ImportResolved(),
			Total:    mod.ImportTotal(),
		})
	}

	var errs []string
	for _, err := range res.Errors {
		errs = append(errs, err.Error())
	}

	return &ResolveResponse{
		Root:     res.Root.Path,
		Complete: res.Complete(),
		Document: res.Root.Document,
		Modules:  mods,
		Errors:   errs,
		Stats:    res.Stats,
	}
}
