package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files []string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))
	}
	return dir
}

func TestFinder_Find(t *testing.T) {
	t.Parallel()

	dir := writeTree(t, []string{
		"app.json",
		"ui/button.json",
		"ui/deep/icon.jsont",
		"notes.txt",
		"node_modules/pkg/index.json",
		".tracemap/config.yml",
	})

	f, err := NewFinder(dir, []string{"**/*.json", "**/*.jsont"}, []string{"node_modules/**"})
	require.NoError(t, err)

	files, err := f.Find()
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "app.json"),
		filepath.Join(dir, "ui", "button.json"),
		filepath.Join(dir, "ui", "deep", "icon.jsont"),
	}, files, "root-level and nested templates match; ignored and foreign files do not")
}

func TestFinder_Matches(t *testing.T) {
	t.Parallel()

	f, err := NewFinder("/root", []string{"**/*.json"}, []string{"dist/**"})
	require.NoError(t, err)

	assert.True(t, f.Matches("app.json"))
	assert.True(t, f.Matches("ui/app.json"))
	assert.False(t, f.Matches("dist/app.json"), "ignored paths never match")
	assert.False(t, f.Matches(".tracemap/state.json"))
	assert.False(t, f.Matches("readme.md"))
}

func TestFinder_BadPatternFails(t *testing.T) {
	t.Parallel()

	_, err := NewFinder("/root", []string{"[unclosed"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to compile template pattern")
}
