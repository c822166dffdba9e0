package cli

// Test Plan for Lookup Command:
// - executeLookup locates a dotted path in the root template
// - executeLookup locates a JSON Pointer inside an imported module
// - executeLookup --explain names the lookup strategy that answered
// - executeLookup renders JSON when asked
// - executeLookup rejects a module outside the resolution

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteLookup_DottedPath(t *testing.T) {
	t.Parallel()

	_, mainPath, _ := writeTemplateTree(t)

	var buf bytes.Buffer
	require.NoError(t, executeLookup(&buf, mainPath, "title", "", "text", false))
	assert.Equal(t, "main.json:2:3 [path]\n", buf.String())
}

func TestExecuteLookup_PointerInModule(t *testing.T) {
	t.Parallel()

	_, mainPath, buttonPath := writeTemplateTree(t)

	var buf bytes.Buffer
	require.NoError(t, executeLookup(&buf, mainPath, "/label", buttonPath, "text", false))
	assert.Equal(t, "button.json:3:3 [pointer]\n", buf.String())
}

func TestExecuteLookup_Explain(t *testing.T) {
	t.Parallel()

	_, mainPath, _ := writeTemplateTree(t)

	var buf bytes.Buffer
	require.NoError(t, executeLookup(&buf, mainPath, "children[0].label", "", "text", true))

	out := buf.String()
	assert.Contains(t, out, "main.json:4:5 [ancestor]")
	assert.Contains(t, out, "match: ancestor (nearest enclosing entry")
}

func TestExecuteLookup_JSON(t *testing.T) {
	t.Parallel()

	_, mainPath, _ := writeTemplateTree(t)

	var buf bytes.Buffer
	require.NoError(t, executeLookup(&buf, mainPath, "/title", "", "json", false))

	var loc struct {
		Path   string `json:"path"`
		Line   int    `json:"line"`
		Column int    `json:"column"`
		Match  string `json:"match"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &loc))
	assert.Equal(t, mainPath, loc.Path)
	assert.Equal(t, 2, loc.Line)
	assert.Equal(t, 3, loc.Column)
	assert.Equal(t, "pointer", loc.Match)
}

func TestExecuteLookup_UnknownModule(t *testing.T) {
	t.Parallel()

	_, mainPath, _ := writeTemplateTree(t)

	var buf bytes.Buffer
	err := executeLookup(&buf, mainPath, "/label", "/no/such/module.json", "text", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "module not part of this resolution")
}
