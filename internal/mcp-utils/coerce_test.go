package mcputils

// Test Plan for BindArguments:
// - Arguments already carrying proper types bind unchanged
// - Numbers sent as strings ("10") coerce into int fields
// - Numbers sent as float64 (the JSON default) coerce into int fields
// - Booleans sent as strings ("true") coerce into bool fields
// - JSON-encoded array strings coerce into slice fields
// - Unknown keys are ignored, missing keys leave zero values

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockArgumentGetter implements ArgumentGetter for testing
type mockArgumentGetter struct {
	args map[string]interface{}
}

func (m *mockArgumentGetter) GetArguments() map[string]interface{} {
	return m.args
}

type testRequest struct {
	File  string   `json:"file"`
	Limit int      `json:"limit,omitempty"`
	Deep  bool     `json:"deep,omitempty"`
	Types []string `json:"types,omitempty"`
}

func TestBindArguments_ProperTypes(t *testing.T) {
	t.Parallel()

	request := &mockArgumentGetter{args: map[string]interface{}{
		"file":  "./main.json",
		"limit": 10,
		"deep":  true,
		"types": []string{"key", "import"},
	}}

	var result testRequest
	err := BindArguments(request, &result)
	require.NoError(t, err)

	assert.Equal(t, "./main.json", result.File)
	assert.Equal(t, 10, result.Limit)
	assert.True(t, result.Deep)
	assert.Equal(t, []string{"key", "import"}, result.Types)
}

func TestBindArguments_StringlyTyped(t *testing.T) {
	t.Parallel()

	request := &mockArgumentGetter{args: map[string]interface{}{
		"file":  "./main.json",
		"limit": "25",
		"deep":  "true",
		"types": `["key", "element"]`,
	}}

	var result testRequest
	err := BindArguments(request, &result)
	require.NoError(t, err)

	assert.Equal(t, "./main.json", result.File)
	assert.Equal(t, 25, result.Limit)
	assert.True(t, result.Deep)
	assert.Equal(t, []string{"key", "element"}, result.Types)
}

func TestBindArguments_JSONNumbers(t *testing.T) {
	t.Parallel()

	// JSON decoding hands numbers to handlers as float64.
	request := &mockArgumentGetter{args: map[string]interface{}{
		"file":  "a.json",
		"limit": float64(7),
	}}

	var result testRequest
	err := BindArguments(request, &result)
	require.NoError(t, err)
	assert.Equal(t, 7, result.Limit)
}

func TestBindArguments_MissingAndUnknownKeys(t *testing.T) {
	t.Parallel()

	request := &mockArgumentGetter{args: map[string]interface{}{
		"file":    "a.json",
		"unknown": "ignored",
	}}

	var result testRequest
	err := BindArguments(request, &result)
	require.NoError(t, err)

	assert.Equal(t, "a.json", result.File)
	assert.Equal(t, 0, result.Limit)
	assert.False(t, result.Deep)
	assert.Nil(t, result.Types)
}
