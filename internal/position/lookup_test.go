package position

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lookupFixture = `{
  "name": "demo",
  "items": [
    {"name": "first", "tags": ["x"]},
    {"name": "second"}
  ],
  "meta": {
    "owner": "ops"
  }
}`

// TestIndex_Lookup_FallbackChain exercises the strategy order: exact
// pointer, exact dotted path, wildcard pattern, nearest ancestor, and
// finally the document default.
func TestIndex_Lookup_FallbackChain(t *testing.T) {
	t.Parallel()

	ix := buildIndex(t, lookupFixture)

	t.Run("exact pointer", func(t *testing.T) {
		e, m := ix.Lookup("", "/items/1/name", nil)
		assert.Equal(t, MatchPointer, m)
		assert.Equal(t, 5, e.Line)
	})

	t.Run("exact dotted path", func(t *testing.T) {
		e, m := ix.Lookup("meta.owner", "", nil)
		assert.Equal(t, MatchPath, m)
		assert.Equal(t, 8, e.Line)
	})

	t.Run("pointer preferred over path when both given", func(t *testing.T) {
		e, m := ix.Lookup("meta.owner", "/name", nil)
		assert.Equal(t, MatchPointer, m)
		assert.Equal(t, 2, e.Line)
	})

	t.Run("pattern fallback for an index that does not exist", func(t *testing.T) {
		e, m := ix.Lookup("items[9].name", "", nil)
		assert.Equal(t, MatchPattern, m)
		assert.Equal(t, 4, e.Line, "first recorded entry for the pattern")
	})

	t.Run("pattern fallback from pointer form", func(t *testing.T) {
		e, m := ix.Lookup("", "/items/9/name", nil)
		assert.Equal(t, MatchPattern, m)
		assert.Equal(t, 4, e.Line)
	})

	t.Run("ancestor fallback", func(t *testing.T) {
		e, m := ix.Lookup("meta.owner.missing.deeper", "", nil)
		assert.Equal(t, MatchAncestor, m)
		assert.Equal(t, 8, e.Line, "nearest existing ancestor is meta.owner")
	})

	t.Run("unknown path walks up to the root", func(t *testing.T) {
		e, m := ix.Lookup("nope.nothing", "", nil)
		assert.Equal(t, MatchAncestor, m)
		assert.Equal(t, 1, e.Line)
		assert.Equal(t, TokenDocument, e.Type)
	})

	t.Run("root lookup", func(t *testing.T) {
		e, m := ix.Lookup("", "", nil)
		assert.Equal(t, MatchPointer, m)
		assert.Equal(t, 1, e.Line)
	})
}

func TestIndex_Lookup_FallbacksDisabled(t *testing.T) {
	t.Parallel()

	ix := buildIndex(t, lookupFixture)
	opts := &LookupOptions{PatternFallback: false, AncestorFallback: false}

	e, m := ix.Lookup("items[9].name", "", opts)
	assert.Equal(t, MatchDefault, m)
	assert.Equal(t, 1, e.Line)
	assert.Equal(t, 1, e.Column)

	// Exact hits are unaffected by disabled fallbacks.
	_, m = ix.Lookup("items[0].name", "", opts)
	assert.Equal(t, MatchPath, m)
}

func TestIndex_Lookup_PatternDisabledFallsToAncestor(t *testing.T) {
	t.Parallel()

	ix := buildIndex(t, lookupFixture)
	opts := &LookupOptions{PatternFallback: false, AncestorFallback: true}

	e, m := ix.Lookup("items[9].name", "", opts)
	require.Equal(t, MatchAncestor, m)
	assert.Equal(t, 3, e.Line, "items itself is the nearest ancestor")
}

func TestIndex_Lookup_DeterministicForSameInput(t *testing.T) {
	t.Parallel()

	ix := buildIndex(t, lookupFixture)

	first, m1 := ix.Lookup("items[9].name", "", nil)
	second, m2 := ix.Lookup("items[9].name", "", nil)
	assert.Equal(t, first, second)
	assert.Equal(t, m1, m2)
}

func TestIndex_Lookup_PointerAndDottedAgree(t *testing.T) {
	t.Parallel()

	ix := buildIndex(t, lookupFixture)

	for ptr, want := range ix.Pointers() {
		byPtr, ok := ix.Pointer(ptr)
		require.True(t, ok)
		assert.Equal(t, want, byPtr)

		byPath, ok := ix.DottedPath(PointerToDotted(ptr))
		require.True(t, ok, "dotted form of %q should be recorded", ptr)
		assert.Equal(t, want, byPath, "pointer and dotted tables should agree for %q", ptr)
	}
}
