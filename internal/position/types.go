// Package position builds a multi-index lookup table over JSON-like text:
// every object key and array element is mapped to its exact line, column,
// and character offset in the original source. Downstream consumers use it
// to turn a logical data path (JSON Pointer or dotted path) into a
// file:line:column the user can click on.
//
// The scanner tolerates template constructs (comments, interpolations,
// control markers, import directives) so it can index template source
// directly; it records where they sit but never interprets them.
package position

import "time"

// TokenType classifies what kind of source token an entry points at.
type TokenType string

const (
	// TokenKey is an object key (the string before a colon).
	TokenKey TokenType = "key"
	// TokenElement is an array element boundary.
	TokenElement TokenType = "element"
	// TokenImport is an import directive occupying an array slot.
	TokenImport TokenType = "import"
	// TokenDocument is the document root.
	TokenDocument TokenType = "document"
)

// Entry is one recorded source position. Immutable once recorded.
// Line and Column are 1-based; Offset is a 0-based character (rune) index.
type Entry struct {
	Line   int       `json:"line"`
	Column int       `json:"column"`
	Offset int       `json:"offset"`
	Length int       `json:"length,omitempty"`
	Type   TokenType `json:"type,omitempty"`
}

// Stats aggregates counters collected while building an index.
type Stats struct {
	TokenCount   int           `json:"token_count"`
	CommentCount int           `json:"comment_count"`
	LineCount    int           `json:"line_count"`
	EntryCount   int           `json:"entry_count"`
	BuildTime    time.Duration `json:"build_time"`
}

// BuildOptions configures index construction.
type BuildOptions struct {
	// PatternIndex controls whether wildcard pattern variants are derived
	// for every concrete path. Costs memory proportional to the number of
	// array indices per path; callers that only need exact lookups can
	// switch it off.
	PatternIndex bool
}

// DefaultBuildOptions returns the options used when nil is passed to Build.
func DefaultBuildOptions() *BuildOptions {
	return &BuildOptions{PatternIndex: true}
}

// Index is the multi-keyed position table derived from one source text.
// Three tables answer lookups: exact JSON Pointer, exact dotted path, and
// normalized wildcard pattern (array indices replaced with "*").
type Index struct {
	path string
	hash string

	byPointer map[string]Entry
	byPath    map[string]Entry
	byPattern map[string][]Entry

	stats          Stats
	patternIndexed bool
}

// SourcePath returns the file path the index was built from.
func (ix *Index) SourcePath() string { return ix.path }

// SourceHash returns the content hash the index was built against.
func (ix *Index) SourceHash() string { return ix.hash }

// Stats returns the build-time counters.
func (ix *Index) Stats() Stats { return ix.stats }

// Len returns the number of exact paths recorded.
func (ix *Index) Len() int { return len(ix.byPointer) }

// HasPatternIndex reports whether wildcard variants were derived.
func (ix *Index) HasPatternIndex() bool { return ix.patternIndexed }

// Pointer returns the entry for an exact RFC 6901 JSON Pointer.
func (ix *Index) Pointer(ptr string) (Entry, bool) {
	e, ok := ix.byPointer[ptr]
	return e, ok
}

// DottedPath returns the entry for an exact dotted/bracketed path.
func (ix *Index) DottedPath(path string) (Entry, bool) {
	e, ok := ix.byPath[path]
	return e, ok
}

// Paths returns all recorded dotted paths, in no particular order.
func (ix *Index) Paths() []string {
	paths := make([]string, 0, len(ix.byPath))
	for p := range ix.byPath {
		paths = append(paths, p)
	}
	return paths
}

// Pointers returns a copy of the pointer table, in no particular order.
func (ix *Index) Pointers() map[string]Entry {
	out := make(map[string]Entry, len(ix.byPointer))
	for p, e := range ix.byPointer {
		out[p] = e
	}
	return out
}
