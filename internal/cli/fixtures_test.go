package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeTemplateTree lays out a two-file template tree and returns the
// directory plus both absolute paths.
func writeTemplateTree(t *testing.T) (dir, mainPath, buttonPath string) {
	t.Helper()
	dir = t.TempDir()

	buttonPath = filepath.Join(dir, "button.json")
	buttonContent := `{
  "type": "button",
  "label": "Click me"
}`
	require.NoError(t, os.WriteFile(buttonPath, []byte(buttonContent), 0o644))

	mainPath = filepath.Join(dir, "main.json")
	mainContent := `{
  "title": "Home",
  "children": [
    // @import "button" file://./button.json
  ]
}`
	require.NoError(t, os.WriteFile(mainPath, []byte(mainContent), 0o644))
	return dir, mainPath, buttonPath
}

// writeBrokenTree lays out a tree whose second import cannot resolve.
func writeBrokenTree(t *testing.T) (dir, mainPath string) {
	t.Helper()
	dir = t.TempDir()

	buttonPath := filepath.Join(dir, "button.json")
	require.NoError(t, os.WriteFile(buttonPath, []byte(`{"type": "button"}`), 0o644))

	mainPath = filepath.Join(dir, "main.json")
	mainContent := `{
  // @import "button" file://./button.json
  "title": "Home",
  // @import "missing" file://./missing.json
  "count": 2
}`
	require.NoError(t, os.WriteFile(mainPath, []byte(mainContent), 0o644))
	return dir, mainPath
}

// chdir switches the working directory for one test and restores it on
// cleanup. Tests using it cannot run in parallel.
func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(orig) })
}

// syncBuffer is an io.Writer safe for concurrent writers, for commands
// that print from background goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
