// Package template extracts parseable JSON from templating source. The
// extraction strips comments, substitutes interpolations with neutral
// defaults, neutralizes control markers, and swaps import directives for
// placeholder values that the resolver later splices real content into.
//
// Extraction preserves layout: the cleaned text has the same number of
// lines as the original, and columns shift only where a replacement could
// not be padded to the original token's width. Parse errors against the
// cleaned text therefore map straight back to template coordinates.
package template

import (
	"github.com/mvp-joe/tracemap/internal/source"
)

// ImportContext says what kind of slot a directive occupies, which
// determines both its placeholder form and its splice behavior.
type ImportContext string

const (
	// ContextArray directives occupy one array element.
	ContextArray ImportContext = "array"
	// ContextObject directives either bind an alias key or merge the
	// imported object's keys into the surrounding object.
	ContextObject ImportContext = "object"
	// ContextDocument directives replace the whole document.
	ContextDocument ImportContext = "document"
)

// ImportDirective is one parsed import found during extraction.
type ImportDirective struct {
	// ID is the placeholder token standing in for the directive in the
	// cleaned text. Unique within the extraction run.
	ID string `json:"id"`
	// RawPath is the path as written, file:// prefix stripped.
	RawPath string `json:"raw_path"`
	// Alias is the object key the imported content binds to; empty for
	// array slots, merges, and document imports.
	Alias string `json:"alias,omitempty"`
	// Description is the optional quoted annotation from comment-form
	// directives.
	Description string `json:"description,omitempty"`

	Line    int           `json:"line"`
	Column  int           `json:"column"`
	Offset  int           `json:"offset"`
	Context ImportContext `json:"context"`
}

// DirectiveError is a directive that could not be parsed. The surrounding
// extraction still succeeds; the resolver reports these per import.
type DirectiveError struct {
	Raw    string `json:"raw"`
	Reason string `json:"reason"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// Stats counts what extraction removed or replaced.
type Stats struct {
	Comments       int `json:"comments"`
	Interpolations int `json:"interpolations"`
	Directives     int `json:"directives"`
	ControlMarkers int `json:"control_markers"`
}

// Extraction is the result of cleaning one template source.
type Extraction struct {
	Source  *source.Text      `json:"-"`
	Cleaned string            `json:"cleaned"`
	Imports []ImportDirective `json:"imports,omitempty"`
	Invalid []DirectiveError  `json:"invalid,omitempty"`
	Map     *SourceMap        `json:"-"`
	Stats   Stats             `json:"stats"`
}

// Directive returns the import carrying the given placeholder ID.
func (e *Extraction) Directive(id string) (ImportDirective, bool) {
	for _, imp := range e.Imports {
		if imp.ID == id {
			return imp, true
		}
	}
	return ImportDirective{}, false
}

// Options configures extraction.
type Options struct {
	// Defaults supplies values for interpolations, keyed by the
	// interpolation name ("user.name" keys may also be nested maps).
	Defaults map[string]any
	// RunID scopes placeholder tokens. Empty means a random one is
	// generated; tests pin it for stable output.
	RunID string
}
