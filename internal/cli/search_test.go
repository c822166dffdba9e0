package cli

// Test Plan for Search Command:
// - executeSearch finds values in a freshly resolved tree
// - executeSearch requires --root unless --saved is set
// - executeSearch reports when nothing matches
// - executeSearch --saved queries the latest stored snapshot

import (
	"bytes"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteSearch_Live(t *testing.T) {
	t.Parallel()

	_, mainPath, buttonPath := writeTemplateTree(t)

	var buf bytes.Buffer
	require.NoError(t, executeSearch(&buf, "click", mainPath, "", 0, false))

	out := buf.String()
	assert.Contains(t, out, fmt.Sprintf("%s:3:", buttonPath))
	assert.Contains(t, out, "Click me")
}

func TestExecuteSearch_RequiresRoot(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := executeSearch(&buf, "click", "", "", 0, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--root is required")
}

func TestExecuteSearch_NoMatches(t *testing.T) {
	t.Parallel()

	_, mainPath, _ := writeTemplateTree(t)

	var buf bytes.Buffer
	require.NoError(t, executeSearch(&buf, "xyzzy", mainPath, "", 0, false))
	assert.Equal(t, "No matches.\n", buf.String())
}

func TestExecuteSearch_Saved(t *testing.T) {
	// Cannot use t.Parallel() because the snapshot store location
	// depends on the working directory.
	workDir := t.TempDir()
	chdir(t, workDir)

	_, mainPath, _ := writeTemplateTree(t)
	require.NoError(t, executeResolve(io.Discard, mainPath, "text", false, true, true))

	var buf bytes.Buffer
	require.NoError(t, executeSearch(&buf, "click", "", "", 0, true))

	out := buf.String()
	assert.Contains(t, out, fmt.Sprintf("%s:4:5", mainPath))
	assert.Contains(t, out, "Click me")
}
