package template

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/tracemap/internal/source"
)

func extract(t *testing.T, content string) *Extraction {
	t.Helper()
	return Extract(source.New("test.jsont", content), &Options{RunID: "test"})
}

// mustParse fails the test unless the cleaned text is valid JSON.
func mustParse(t *testing.T, cleaned string) any {
	t.Helper()
	var doc any
	require.NoError(t, json.Unmarshal([]byte(cleaned), &doc), "cleaned text must parse:\n%s", cleaned)
	return doc
}

func TestExtract_StripsComments(t *testing.T) {
	t.Parallel()

	ex := extract(t, `{
  // plain note
  "a": /* inline */ 1,
  {# template note #}
  "b": 2
}`)

	doc := mustParse(t, ex.Cleaned)
	m := doc.(map[string]any)
	assert.Equal(t, float64(1), m["a"])
	assert.Equal(t, float64(2), m["b"])

	assert.Equal(t, 3, ex.Stats.Comments)
	assert.Empty(t, ex.Imports)
	assert.Equal(t, strings.Count(`{
  // plain note
  "a": /* inline */ 1,
  {# template note #}
  "b": 2
}`, "\n"), strings.Count(ex.Cleaned, "\n"), "line structure is preserved")
}

func TestExtract_CommentsInsideStringsAreContent(t *testing.T) {
	t.Parallel()

	ex := extract(t, `{"url": "http://example.com", "note": "a /* b */ {# c #} d"}`)

	doc := mustParse(t, ex.Cleaned)
	m := doc.(map[string]any)
	assert.Equal(t, "http://example.com", m["url"])
	assert.Equal(t, "a /* b */ {# c #} d", m["note"])
	assert.Equal(t, 0, ex.Stats.Comments)
}

func TestExtract_ArrayImportDirective(t *testing.T) {
	t.Parallel()

	ex := extract(t, `{
  "name": "main",
  "children": [
    // @import "Button component" file://./button.json
    {"type": "footer"}
  ]
}`)

	require.Len(t, ex.Imports, 1)
	imp := ex.Imports[0]
	assert.Equal(t, "@import:test:0", imp.ID)
	assert.Equal(t, "./button.json", imp.RawPath)
	assert.Equal(t, "Button component", imp.Description)
	assert.Equal(t, ContextArray, imp.Context)
	assert.Equal(t, 4, imp.Line)
	assert.Equal(t, 5, imp.Column)
	assert.Empty(t, imp.Alias)

	doc := mustParse(t, ex.Cleaned)
	children := doc.(map[string]any)["children"].([]any)
	require.Len(t, children, 2)
	assert.Equal(t, "@import:test:0", children[0], "the placeholder occupies the directive's slot")

	got, ok := ex.Directive("@import:test:0")
	require.True(t, ok)
	assert.Equal(t, imp, got)
}

func TestExtract_ObjectImportForms(t *testing.T) {
	t.Parallel()

	t.Run("merge form", func(t *testing.T) {
		ex := extract(t, `{
  // @import file://./base.json
  "own": 1
}`)
		require.Len(t, ex.Imports, 1)
		assert.Equal(t, ContextObject, ex.Imports[0].Context)
		assert.Empty(t, ex.Imports[0].Alias)

		doc := mustParse(t, ex.Cleaned)
		m := doc.(map[string]any)
		assert.Contains(t, m, "@import:test:0")
		assert.Nil(t, m["@import:test:0"], "object placeholders carry a null value")
		assert.Equal(t, float64(1), m["own"])
	})

	t.Run("aliased block form", func(t *testing.T) {
		ex := extract(t, `{
  "slots": {
    {% import "./header.json" as header %}
  }
}`)
		require.Len(t, ex.Imports, 1)
		imp := ex.Imports[0]
		assert.Equal(t, "./header.json", imp.RawPath)
		assert.Equal(t, "header", imp.Alias)
		assert.Equal(t, ContextObject, imp.Context)
		assert.Equal(t, 3, imp.Line)

		mustParse(t, ex.Cleaned)
	})
}

func TestExtract_DocumentImport(t *testing.T) {
	t.Parallel()

	ex := extract(t, `// @import "Everything" file://./all.json`)

	require.Len(t, ex.Imports, 1)
	assert.Equal(t, ContextDocument, ex.Imports[0].Context)

	doc := mustParse(t, ex.Cleaned)
	assert.Equal(t, "@import:test:0", doc, "the placeholder is the whole document")
}

// TestExtract_SeparatorRepair covers the comma decisions around
// placeholders: added when an element follows, omitted before a closing
// bracket, and never doubled when the author wrote one.
func TestExtract_SeparatorRepair(t *testing.T) {
	t.Parallel()

	t.Run("directive before closing bracket", func(t *testing.T) {
		ex := extract(t, `{"a": [
  1,
  // @import file://./x.json
]}`)
		doc := mustParse(t, ex.Cleaned)
		arr := doc.(map[string]any)["a"].([]any)
		require.Len(t, arr, 2)
		assert.Equal(t, "@import:test:0", arr[1])
	})

	t.Run("author-written comma is kept", func(t *testing.T) {
		ex := extract(t, `{"items": [
  {% import "./a.json" %}
  , 5
]}`)
		doc := mustParse(t, ex.Cleaned)
		arr := doc.(map[string]any)["items"].([]any)
		require.Len(t, arr, 2)
		assert.Equal(t, "@import:test:0", arr[0])
		assert.Equal(t, float64(5), arr[1])
	})

	t.Run("consecutive directives", func(t *testing.T) {
		ex := extract(t, `[
  // @import file://./a.json
  // @import file://./b.json
]`)
		require.Len(t, ex.Imports, 2)
		doc := mustParse(t, ex.Cleaned)
		arr := doc.([]any)
		require.Len(t, arr, 2)
		assert.Equal(t, "@import:test:0", arr[0])
		assert.Equal(t, "@import:test:1", arr[1])
	})

	t.Run("directive between object members", func(t *testing.T) {
		ex := extract(t, `{
  "first": 1,
  // @import file://./mid.json
  "last": 2
}`)
		doc := mustParse(t, ex.Cleaned)
		m := doc.(map[string]any)
		assert.Len(t, m, 3)
	})
}

func TestExtract_Interpolations(t *testing.T) {
	t.Parallel()

	src := source.New("test.jsont", `{
  "title": {{ title }},
  "count": {{ item_count }},
  "debug": {{ is_debug }},
  "user": {{ user.name }}
}`)
	ex := Extract(src, &Options{
		RunID:    "test",
		Defaults: map[string]any{"user": map[string]any{"name": "Ada"}},
	})

	doc := mustParse(t, ex.Cleaned)
	m := doc.(map[string]any)
	assert.Equal(t, "", m["title"])
	assert.Equal(t, float64(0), m["count"])
	assert.Equal(t, false, m["debug"])
	assert.Equal(t, "Ada", m["user"], "supplied defaults walk nested maps")
	assert.Equal(t, 4, ex.Stats.Interpolations)
}

func TestExtract_ControlMarkersVanishBodyStays(t *testing.T) {
	t.Parallel()

	content := `{% if dark %}
{
  "theme": "dark"
}
{% endif %}`
	ex := extract(t, content)

	doc := mustParse(t, ex.Cleaned)
	assert.Equal(t, "dark", doc.(map[string]any)["theme"])
	assert.Equal(t, 2, ex.Stats.ControlMarkers)
	assert.Equal(t, strings.Count(content, "\n"), strings.Count(ex.Cleaned, "\n"))
}

func TestExtract_InvalidDirectives(t *testing.T) {
	t.Parallel()

	ex := extract(t, `{"a": [
  // @import
  1
]}`)

	require.Len(t, ex.Invalid, 1)
	assert.Equal(t, 2, ex.Invalid[0].Line)
	assert.Equal(t, 3, ex.Invalid[0].Column)
	assert.Contains(t, ex.Invalid[0].Reason, "missing import path")
	assert.Empty(t, ex.Imports)

	// The broken directive is blanked; the document still parses.
	doc := mustParse(t, ex.Cleaned)
	arr := doc.(map[string]any)["a"].([]any)
	assert.Equal(t, []any{float64(1)}, arr)
}

func TestExtract_PositionFidelity(t *testing.T) {
	t.Parallel()

	t.Run("padded replacements keep columns", func(t *testing.T) {
		ex := extract(t, `{"k": {{ longer_name }}, "later": 1}`)

		// Nothing shifted: identity mapping everywhere.
		line, col := ex.Map.ToOriginal(1, 26)
		assert.Equal(t, 1, line)
		assert.Equal(t, 26, col)

		// The comma after the token sits where it sat.
		idx := strings.IndexByte(ex.Cleaned, ',')
		assert.Equal(t, strings.IndexByte(`{"k": {{ longer_name }}, "later": 1}`, ','), idx)
	})

	t.Run("wider replacements are anchored", func(t *testing.T) {
		src := source.New("test.jsont", `{"k": {{x}}, "later": 1}`)
		ex := Extract(src, &Options{
			RunID:    "test",
			Defaults: map[string]any{"x": "a very long replacement string"},
		})

		mustParse(t, ex.Cleaned)

		// Original: "later" starts at column 14. In the cleaned text it
		// moved right; the map brings it back.
		cleanCol := strings.Index(ex.Cleaned, `"later"`) + 1
		line, col := ex.Map.ToOriginal(1, cleanCol)
		assert.Equal(t, 1, line)
		assert.Equal(t, 14, col)
	})

	t.Run("parse error offsets map to template coordinates", func(t *testing.T) {
		// The unquoted token makes the cleaned text invalid on line 3.
		ex := extract(t, `{
  // a comment line
  "bad": oops~
}`)
		var doc any
		err := json.Unmarshal([]byte(ex.Cleaned), &doc)
		require.Error(t, err)

		var syn *json.SyntaxError
		require.ErrorAs(t, err, &syn)
		line, _ := ex.Map.MapOffset(ex.Cleaned, int(syn.Offset))
		assert.Equal(t, 3, line)
	})
}

func TestExtract_Deterministic(t *testing.T) {
	t.Parallel()

	content := `{
  "children": [
    // @import "B" file://./b.json
    {{ count }}
  ]
}`
	src := source.New("test.jsont", content)

	a := Extract(src, &Options{RunID: "test"})
	b := Extract(src, &Options{RunID: "test"})
	assert.Equal(t, a.Cleaned, b.Cleaned)
	assert.Equal(t, a.Imports, b.Imports)
}
