package report

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/tracemap/internal/position"
	"github.com/mvp-joe/tracemap/internal/resolver"
)

// fixtureResolution resolves a small tree with one success and one
// failure so reports have something of everything.
func fixtureResolution(t *testing.T) (*resolver.Resolution, string) {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"main.json": `{
  "children": [
    // @import "Button" file://./button.json
    // @import file://./missing.json
  ]
}`,
		"button.json": `{"type": "button"}`,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	r, err := resolver.New(&resolver.Options{BaseDir: dir})
	require.NoError(t, err)
	t.Cleanup(r.Close)

	res, err := r.Resolve(context.Background(), "main.json")
	require.NoError(t, err)
	return res, dir
}

func TestFormatter_ResolutionText(t *testing.T) {
	t.Parallel()

	res, dir := fixtureResolution(t)
	f := NewFormatter(FormatText, WithBaseDir(dir))

	out, err := f.Resolution(res)
	require.NoError(t, err)

	assert.Contains(t, out, "Resolved main.json (incomplete)")
	assert.Contains(t, out, "main.json: 1 of 2 imports succeeded")
	assert.Contains(t, out, "button.json: no imports")
	assert.Contains(t, out, "Errors:")
	assert.Contains(t, out, "main.json:4:5: file not found", "errors carry template coordinates")
}

func TestFormatter_ResolutionJSON(t *testing.T) {
	t.Parallel()

	res, dir := fixtureResolution(t)
	f := NewFormatter(FormatJSON, WithBaseDir(dir))

	out, err := f.Resolution(res)
	require.NoError(t, err)

	var rep struct {
		Root     string `json:"root"`
		Complete bool   `json:"complete"`
		Modules  []struct {
			Path     string `json:"path"`
			Resolved int    `json:"imports_resolved"`
			Total    int    `json:"imports_total"`
		} `json:"modules"`
		Errors []string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rep))

	assert.Equal(t, "main.json", rep.Root)
	assert.False(t, rep.Complete)
	require.Len(t, rep.Modules, 2, "modules sort deterministically")
	assert.Equal(t, "button.json", rep.Modules[0].Path)
	assert.Equal(t, "main.json", rep.Modules[1].Path)
	assert.Equal(t, 1, rep.Modules[1].Resolved)
	assert.Equal(t, 2, rep.Modules[1].Total)
	require.Len(t, rep.Errors, 1)
}

func TestFormatter_ResolutionYAML(t *testing.T) {
	t.Parallel()

	res, dir := fixtureResolution(t)
	f := NewFormatter(FormatYAML, WithBaseDir(dir))

	out, err := f.Resolution(res)
	require.NoError(t, err)

	assert.Contains(t, out, "root: main.json")
	assert.Contains(t, out, "complete: false")
	assert.Contains(t, out, "imports_resolved: 1")
}

func TestFormatter_Document(t *testing.T) {
	t.Parallel()

	doc := map[string]any{"name": "x", "items": []any{float64(1)}}

	out, err := NewFormatter(FormatText).Document(doc)
	require.NoError(t, err)
	assert.Contains(t, out, "\"name\": \"x\"", "text documents render as indented JSON")

	out, err = NewFormatter(FormatYAML).Document(doc)
	require.NoError(t, err)
	assert.Contains(t, out, "name: x")
}

func TestFormatter_Location(t *testing.T) {
	t.Parallel()

	loc := resolver.Location{Path: "/proj/main.json", Line: 4, Column: 5, Match: position.MatchPattern}

	out, err := NewFormatter(FormatText, WithBaseDir("/proj")).Location(loc)
	require.NoError(t, err)
	assert.Equal(t, "main.json:4:5 [pattern]", out)

	out, err = NewFormatter(FormatJSON).Location(loc)
	require.NoError(t, err)
	var got resolver.Location
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, loc, got)
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"xml", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			require.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}
