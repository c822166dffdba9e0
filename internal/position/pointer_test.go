package position

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointerFromSegments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		segs []Segment
		want string
	}{
		{"root", nil, ""},
		{"single key", []Segment{KeySegment("a")}, "/a"},
		{"key and index", []Segment{KeySegment("children"), IndexSegment(0)}, "/children/0"},
		{"tilde escaped", []Segment{KeySegment("a~b")}, "/a~0b"},
		{"slash escaped", []Segment{KeySegment("a/b")}, "/a~1b"},
		{"empty key", []Segment{KeySegment("")}, "/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PointerFromSegments(tt.segs))
		})
	}
}

func TestParsePointer_RoundTrip(t *testing.T) {
	t.Parallel()

	pointers := []string{
		"",
		"/a",
		"/a/b/0/c",
		"/a~0b/a~1b",
		"/items/10/name",
	}
	for _, ptr := range pointers {
		assert.Equal(t, ptr, PointerFromSegments(ParsePointer(ptr)), "pointer %q must round-trip", ptr)
	}
}

func TestParsePointer_NumericTokens(t *testing.T) {
	t.Parallel()

	segs := ParsePointer("/a/3/b")
	require.Len(t, segs, 3)
	assert.False(t, segs[0].IsIndex)
	assert.True(t, segs[1].IsIndex)
	assert.Equal(t, 3, segs[1].Index)
	assert.False(t, segs[2].IsIndex)
}

func TestParseDotted(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
		want []Segment
	}{
		{"empty", "", nil},
		{"keys", "a.b.c", []Segment{KeySegment("a"), KeySegment("b"), KeySegment("c")}},
		{"index", "a[0].b", []Segment{KeySegment("a"), IndexSegment(0), KeySegment("b")}},
		{"root array", "[2]", []Segment{IndexSegment(2)}},
		{"wildcard", "a[*].b", []Segment{KeySegment("a"), {Key: Wildcard}, KeySegment("b")}},
		{"bracketed key", `a[foo].b`, []Segment{KeySegment("a"), KeySegment("foo"), KeySegment("b")}},
		{"adjacent indices", "a[1][2]", []Segment{KeySegment("a"), IndexSegment(1), IndexSegment(2)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDotted(tt.path))
		})
	}
}

func TestDottedPointerConversions(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/a/b/0/c", DottedToPointer("a.b[0].c"))
	assert.Equal(t, "a.b[0].c", PointerToDotted("/a/b/0/c"))
	assert.Equal(t, "", DottedToPointer(""))
	assert.Equal(t, "", PointerToDotted(""))

	// The two forms agree through a full cycle.
	path := "widgets[3].rows[0].label"
	assert.Equal(t, path, PointerToDotted(DottedToPointer(path)))
}
