// Package mcp serves template resolution, position lookup, dependency
// graphs, and search as MCP tools over stdio.
package mcp

import (
	"github.com/mvp-joe/tracemap/internal/resolver"
	"github.com/mvp-joe/tracemap/internal/search"
)

// ResolveRequest represents the tracemap_resolve tool parameters.
type ResolveRequest struct {
	File string `json:"file"`
}

// ResolveResponse is the tracemap_resolve tool result.
type ResolveResponse struct {
	Root     string         `json:"root"`
	Complete bool           `json:"complete"`
	Document any            `json:"document,omitempty"`
	Modules  []ModuleInfo   `json:"modules"`
	Errors   []string       `json:"errors,omitempty"`
	Stats    resolver.Stats `json:"stats"`
}

// ModuleInfo summarizes one resolved module.
type ModuleInfo struct {
	Path     string `json:"path"`
	Depth    int    `json:"depth"`
	Resolved int    `json:"imports_resolved"`
	Total    int    `json:"imports_total"`
}

// LookupRequest represents the tracemap_lookup tool parameters. Path
// takes a dotted path or a JSON Pointer; pointers start with '/'.
type LookupRequest struct {
	File   string `json:"file"`
	Path   string `json:"path"`
	Module string `json:"module"`
}

// LookupResponse is the tracemap_lookup tool result.
type LookupResponse struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Match  string `json:"match"`
}

// GraphRequest represents the tracemap_graph tool parameters.
type GraphRequest struct {
	File string `json:"file"`
}

// GraphEdge is one dependency edge.
type GraphEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// GraphResponse is the tracemap_graph tool result.
type GraphResponse struct {
	Modules []string    `json:"modules"`
	Edges   []GraphEdge `json:"edges"`
	Roots   []string    `json:"roots"`
	Leaves  []string    `json:"leaves"`
	Order   []string    `json:"order,omitempty"`
}

// SearchRequest represents the tracemap_search tool parameters.
type SearchRequest struct {
	File  string `json:"file"`
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

// SearchResponse is the tracemap_search tool result.
type SearchResponse struct {
	Results []*search.Result `json:"results"`
	Total   int              `json:"total"`
}
