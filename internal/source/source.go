// Package source loads template and data files and fingerprints their
// content. Every downstream artifact (position indexes, resolved modules)
// is cached against the content hash produced here, so a stale read can
// never masquerade as a fresh one.
package source

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Kind classifies how a file's content must be processed before parsing.
type Kind string

const (
	// KindData is plain structured data, parsed directly.
	KindData Kind = "data"
	// KindTemplate contains templating constructs and requires extraction.
	KindTemplate Kind = "template"
)

// TemplateExtensions are the file extensions that always indicate template
// content, checked before any content sniffing.
var TemplateExtensions = []string{".jsont", ".tmpl", ".json.tmpl"}

// signatureWindow is how many characters of leading content are scanned for
// templating markers when the extension is not conclusive.
const signatureWindow = 512

// Text is an immutable snapshot of one loaded file.
type Text struct {
	Path    string // absolute file path
	Content string // raw content as read
	Hash    string // deterministic digest of Content
}

// Load reads the file at path and returns its snapshot.
// The path is made absolute so it can serve as a cache key.
func Load(path string) (*Text, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", path, err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, err
	}

	return New(abs, string(data)), nil
}

// New builds a snapshot from already-loaded content.
func New(path, content string) *Text {
	return &Text{
		Path:    path,
		Content: content,
		Hash:    HashContent(content),
	}
}

// HashContent returns a 16-char hex digest of the content. It is a cache
// validity key, not a security boundary; it is always paired with the file
// path when used as a key.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])[:16]
}

// CacheKey combines path and hash into a single cache key.
func (t *Text) CacheKey() string {
	return t.Path + "\x00" + t.Hash
}

// DetectKind reports whether the snapshot needs template extraction.
// Extension wins; otherwise the leading content is scanned for templating
// markers (interpolations, control blocks, template comments, import
// directives, line comments).
func (t *Text) DetectKind() Kind {
	name := strings.ToLower(filepath.Base(t.Path))
	for _, ext := range TemplateExtensions {
		if strings.HasSuffix(name, ext) {
			return KindTemplate
		}
	}
	if HasTemplateSignature(t.Content) {
		return KindTemplate
	}
	return KindData
}

// HasTemplateSignature scans the leading content for markers that identify
// template source. Plain JSON never contains these outside string literals,
// so a marker inside the window is treated as decisive.
func HasTemplateSignature(content string) bool {
	window := content
	if len(window) > signatureWindow {
		window = window[:signatureWindow]
	}

	markers := []string{"{{", "{%", "{#", "@import"}
	for _, m := range markers {
		if strings.Contains(window, m) {
			return true
		}
	}

	// A line starting with a // comment also forces extraction: strict JSON
	// parsers reject comments, the extractor strips them.
	for _, line := range strings.Split(window, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "//") {
			return true
		}
	}
	return false
}

// LineCol translates a byte offset in content into 1-based line and column.
// Columns count runes, not bytes, so multi-byte characters occupy one column.
// Offsets past the end of content clamp to the final position.
func LineCol(content string, offset int) (line, col int) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(content) {
		offset = len(content)
	}

	line = 1
	col = 1
	for i, r := range content {
		if i >= offset {
			break
		}
		if r == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}
