package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	mcputils "github.com/mvp-joe/tracemap/internal/mcp-utils"
)

// AddLookupTool registers the tracemap_lookup tool with an MCP server.
func AddLookupTool(s *server.MCPServer, res TreeResolver) {
	tool := mcp.NewTool(
		"tracemap_lookup",
		mcp.WithDescription("Find the source file:line:column of a logical path inside a resolved template. Accepts dotted paths ('theme.colors[0]') or JSON Pointers ('/theme/colors/0'). The match field reports how exact the hit is: pointer, path, pattern, ancestor, or default."),
		mcp.WithString("file",
			mcp.Required(),
			mcp.Description("Path to the root template file")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Dotted path or JSON Pointer to locate (pointers start with '/')")),
		mcp.WithString("module",
			mcp.Description("Absolute path of an imported module to locate inside instead of the root")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createLookupHandler(res))
}

// createLookupHandler creates the handler function for tracemap_lookup.
func createLookupHandler(res TreeResolver) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args LookupRequest
		if err := mcputils.BindArguments(request, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		if args.File == "" {
			return mcp.NewToolResultError("file parameter is required"), nil
		}
		if args.Path == "" {
			return mcp.NewToolResultError("path parameter is required"), nil
		}

		resolution, err := res.Resolve(ctx, args.File)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("resolve failed: %v", err)), nil
		}

		// A leading slash marks a JSON Pointer; anything else is dotted.
		dotted, pointer := args.Path, ""
		if strings.HasPrefix(args.Path, "/") {
			dotted, pointer = "", args.Path
		}

		loc, ok := resolution.Locate(args.Module, dotted, pointer)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("module not part of this resolution: %s", args.Module)), nil
		}

		jsonData, err := json.Marshal(&LookupResponse{
			File:   loc.Path,
			Line:   loc.Line,
			Column: loc.Column,
			Match:  string(loc.Match),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response: %w", err)
		}
		return mcp.NewToolResultText(string(jsonData)), nil
	}
}
