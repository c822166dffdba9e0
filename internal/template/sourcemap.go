package template

import (
	"github.com/mvp-joe/tracemap/internal/source"
)

// anchor records a column correspondence on one line: the cleaned text at
// cleanCol lines up with the original at origCol. Columns before a line's
// first anchor map 1:1.
type anchor struct {
	cleanCol int
	origCol  int
}

// SourceMap maps positions in the cleaned text back to the original
// template. Extraction never adds or removes lines, so lines map
// unchanged; anchors cover columns displaced by replacements that could
// not be padded to the original token's width.
type SourceMap struct {
	path    string
	anchors map[int][]anchor
}

func newSourceMap(path string) *SourceMap {
	return &SourceMap{path: path, anchors: make(map[int][]anchor)}
}

// addAnchor records that cleaned column cleanCol corresponds to original
// column origCol on the given line. Identity pairs are not stored.
func (m *SourceMap) addAnchor(line, cleanCol, origCol int) {
	if cleanCol == origCol {
		return
	}
	m.anchors[line] = append(m.anchors[line], anchor{cleanCol: cleanCol, origCol: origCol})
}

// Path returns the original source path.
func (m *SourceMap) Path() string { return m.path }

// ToOriginal maps a cleaned-text line and column to the original template.
func (m *SourceMap) ToOriginal(line, col int) (int, int) {
	best := anchor{}
	for _, a := range m.anchors[line] {
		if a.cleanCol <= col && a.cleanCol > best.cleanCol {
			best = a
		}
	}
	if best.cleanCol == 0 {
		return line, col
	}
	return line, best.origCol + (col - best.cleanCol)
}

// MapOffset converts a byte offset into the cleaned text (the offset
// encoding/json reports in a SyntaxError) to original template
// coordinates.
func (m *SourceMap) MapOffset(cleaned string, offset int) (line, col int) {
	line, col = source.LineCol(cleaned, offset)
	return m.ToOriginal(line, col)
}
