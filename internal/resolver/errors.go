package resolver

import (
	"fmt"
	"strings"
)

// FileNotFoundError reports an import whose target does not exist after
// extension probing.
type FileNotFoundError struct {
	Path         string // the path as resolved (absolute)
	RawPath      string // the path as written in the directive
	ImportedFrom string // the importing module, empty for the root
}

func (e *FileNotFoundError) Error() string {
	if e.ImportedFrom == "" {
		return fmt.Sprintf("file not found: %s", e.Path)
	}
	return fmt.Sprintf("file not found: %s (imported as %q from %s)", e.Path, e.RawPath, e.ImportedFrom)
}

// CircularImportError reports an import chain that reached a module
// already on its own ancestor stack. Trace holds the chain from the
// first visit through the repeat.
type CircularImportError struct {
	Trace []string
}

func (e *CircularImportError) Error() string {
	return fmt.Sprintf("circular import: %s", strings.Join(e.Trace, " -> "))
}

// DepthExceededError reports an import nested deeper than the configured
// limit.
type DepthExceededError struct {
	Path  string
	Depth int
	Limit int
}

func (e *DepthExceededError) Error() string {
	return fmt.Sprintf("import depth %d exceeds limit %d: %s", e.Depth, e.Limit, e.Path)
}

// ParseError reports cleaned text that failed to parse as JSON, with the
// failure mapped back to template coordinates.
type ParseError struct {
	Path   string
	Line   int
	Column int
	Offset int64
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %v", e.Path, e.Line, e.Column, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// InvalidDirectiveError reports a directive that could not be parsed or
// spliced.
type InvalidDirectiveError struct {
	Path   string
	Line   int
	Column int
	Reason string
}

func (e *InvalidDirectiveError) Error() string {
	return fmt.Sprintf("%s:%d:%d: invalid import directive: %s", e.Path, e.Line, e.Column, e.Reason)
}
