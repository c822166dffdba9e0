// Package resolver loads a template module, resolves its import
// directives recursively, and assembles the final document with every
// import spliced in. Each file on the way gets a position index, so any
// path in the assembled document can be traced to a file, line, and
// column.
//
// Resolution is partial by design: a failed import is recorded and its
// slot neutralized while the rest of the tree resolves. Cycles and
// depth are guarded per import chain, so diamond-shaped dependencies
// resolve while true cycles fail with their trace.
package resolver

import (
	"time"

	"github.com/mvp-joe/tracemap/internal/position"
	"github.com/mvp-joe/tracemap/internal/source"
	"github.com/mvp-joe/tracemap/internal/template"
)

// ImportStatus says whether one directive resolved.
type ImportStatus string

const (
	StatusResolved ImportStatus = "resolved"
	StatusFailed   ImportStatus = "failed"
)

// ImportRecord is the outcome of one directive in one module.
type ImportRecord struct {
	Directive template.ImportDirective `json:"directive"`
	// Path is the absolute target path, empty when the path never
	// resolved.
	Path   string       `json:"path,omitempty"`
	Status ImportStatus `json:"status"`
	Err    error        `json:"-"`
	// Error carries Err's message for serialized reports.
	Error string `json:"error,omitempty"`
}

// Module is one resolved file: its source, its extraction, its position
// index, its assembled document (own content plus spliced imports), and
// the outcome of each of its directives.
type Module struct {
	Path       string               `json:"path"`
	Source     *source.Text         `json:"-"`
	Extraction *template.Extraction `json:"-"`
	Index      *position.Index      `json:"-"`
	Document   any                  `json:"document,omitempty"`
	Imports    []ImportRecord       `json:"imports,omitempty"`
	Depth      int                  `json:"depth"`
	FromCache  bool                 `json:"from_cache,omitempty"`
}

// ImportTotal counts this module's directives.
func (m *Module) ImportTotal() int { return len(m.Imports) }

// ImportResolved counts this module's successful directives.
func (m *Module) ImportResolved() int {
	n := 0
	for _, rec := range m.Imports {
		if rec.Status == StatusResolved {
			n++
		}
	}
	return n
}

// Stats aggregates counters across one resolution run.
type Stats struct {
	FilesLoaded     int           `json:"files_loaded"`
	CacheHits       int           `json:"cache_hits"`
	ImportsResolved int           `json:"imports_resolved"`
	ImportsFailed   int           `json:"imports_failed"`
	MaxDepth        int           `json:"max_depth"`
	Duration        time.Duration `json:"duration"`
}

// Resolution is the result of resolving one root module.
type Resolution struct {
	Root *Module `json:"root"`
	// Modules holds every file touched, keyed by absolute path.
	Modules map[string]*Module `json:"modules"`
	Graph   *Graph             `json:"-"`
	// Errors collects every import failure across the tree, in the
	// order they were recorded.
	Errors []error `json:"-"`
	Stats  Stats   `json:"stats"`
}

// Complete reports whether every import in the tree resolved.
func (r *Resolution) Complete() bool { return len(r.Errors) == 0 }

// Module returns the resolved module for an absolute path.
func (r *Resolution) Module(path string) (*Module, bool) {
	m, ok := r.Modules[path]
	return m, ok
}

// Location is a source position inside a resolved module.
type Location struct {
	Path   string         `json:"path"`
	Line   int            `json:"line"`
	Column int            `json:"column"`
	Match  position.Match `json:"match"`
}

// Locate turns a logical address (dotted path or JSON Pointer) inside a
// resolved module into its source position. An empty modulePath means
// the root module.
func (r *Resolution) Locate(modulePath, dotted, pointer string) (Location, bool) {
	mod := r.Root
	if modulePath != "" {
		var ok bool
		if mod, ok = r.Modules[modulePath]; !ok {
			return Location{}, false
		}
	}
	if mod == nil || mod.Index == nil {
		return Location{}, false
	}
	e, match := mod.Index.Lookup(dotted, pointer, nil)
	return Location{Path: mod.Path, Line: e.Line, Column: e.Column, Match: match}, true
}
