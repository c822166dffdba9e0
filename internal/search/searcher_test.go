package search

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/tracemap/internal/resolver"
)

func fixtureTree(t *testing.T) (string, *resolver.Resolver) {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"main.json": `{
  "name": "main",
  "children": [
    // @import "Button component" file://./button.json
    {"type": "footer"}
  ]
}`,
		"button.json": `{
  "type": "button",
  "label": "Click me"
}`,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	r, err := resolver.New(&resolver.Options{BaseDir: dir})
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return dir, r
}

func resolveFixture(t *testing.T, r *resolver.Resolver) *resolver.Resolution {
	t.Helper()
	res, err := r.Resolve(context.Background(), "main.json")
	require.NoError(t, err)
	require.True(t, res.Complete())
	return res
}

func TestEntries_FlattensResolution(t *testing.T) {
	t.Parallel()

	dir, r := fixtureTree(t)
	res := resolveFixture(t, r)

	entries := Entries(res)
	require.NotEmpty(t, entries)

	byID := make(map[string]Entry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}

	buttonPath := filepath.Join(dir, "button.json")
	label, ok := byID[buttonPath+"#/label"]
	require.True(t, ok)
	assert.Equal(t, "label", label.Path)
	assert.Equal(t, 3, label.Line)
	assert.Equal(t, "key", label.Type)
	assert.Equal(t, `"Click me"`, label.Value)

	mainPath := filepath.Join(dir, "main.json")
	imported, ok := byID[mainPath+"#/children/0"]
	require.True(t, ok)
	assert.Equal(t, "import", imported.Type)
	assert.Contains(t, imported.Value, `"type":"button"`, "import slots carry the spliced value")

	// Deterministic order.
	again := Entries(res)
	assert.Equal(t, entries, again)
}

func TestSearcher_Search(t *testing.T) {
	t.Parallel()

	dir, r := fixtureTree(t)
	res := resolveFixture(t, r)

	s, err := NewSearcher(context.Background(), res)
	require.NoError(t, err)
	defer s.Close()

	results, err := s.Search(context.Background(), "click", nil)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	buttonPath := filepath.Join(dir, "button.json")
	foundLabel := false
	for _, hit := range results {
		assert.NotEmpty(t, hit.Entry.File)
		assert.GreaterOrEqual(t, hit.Entry.Line, 1)
		if hit.Entry.File == buttonPath && hit.Entry.Pointer == "/label" {
			foundLabel = true
			assert.Equal(t, 3, hit.Entry.Line)
			assert.NotEmpty(t, hit.Highlights, "value hits come back highlighted")
		}
	}
	assert.True(t, foundLabel, "the label entry matches a value keyword")
}

func TestSearcher_Filters(t *testing.T) {
	t.Parallel()

	dir, r := fixtureTree(t)
	res := resolveFixture(t, r)

	s, err := NewSearcher(context.Background(), res)
	require.NoError(t, err)
	defer s.Close()

	t.Run("type filter", func(t *testing.T) {
		results, err := s.Search(context.Background(), "button", &Options{Type: "import"})
		require.NoError(t, err)
		require.NotEmpty(t, results)
		for _, hit := range results {
			assert.Equal(t, "import", hit.Entry.Type)
		}
	})

	t.Run("file filter", func(t *testing.T) {
		results, err := s.Search(context.Background(), "button", &Options{File: "*button*"})
		require.NoError(t, err)
		require.NotEmpty(t, results)
		buttonPath := filepath.Join(dir, "button.json")
		for _, hit := range results {
			assert.Equal(t, buttonPath, hit.Entry.File)
		}
	})

	t.Run("limit", func(t *testing.T) {
		results, err := s.Search(context.Background(), "button", &Options{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})
}

func TestSearcher_Update(t *testing.T) {
	t.Parallel()

	dir, r := fixtureTree(t)
	res := resolveFixture(t, r)

	s, err := NewSearcher(context.Background(), res)
	require.NoError(t, err)
	defer s.Close()

	// The tree changes on disk; a fresh resolution re-indexes.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "button.json"), []byte(`{
  "type": "button",
  "label": "Tap me"
}`), 0o644))
	require.NoError(t, s.Update(context.Background(), resolveFixture(t, r)))

	results, err := s.Search(context.Background(), "tap", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, results, "fresh values are searchable")

	results, err = s.Search(context.Background(), "click", nil)
	require.NoError(t, err)
	assert.Empty(t, results, "stale values are gone")
}
