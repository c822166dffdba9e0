package position

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
	}{
		{"a[3].b[0]", "a[*].b[*]"},
		{"a.b.c", "a.b.c"},
		{"items[0].name", "items[*].name"},
		{"items[*].name", "items[*].name"},
		{"[7]", "[*]"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePattern(tt.path), "path %q", tt.path)
	}
}

func TestPatternVariants(t *testing.T) {
	t.Parallel()

	t.Run("no indices means no variants", func(t *testing.T) {
		assert.Nil(t, patternVariants([]Segment{KeySegment("a"), KeySegment("b")}))
	})

	t.Run("single index", func(t *testing.T) {
		variants := patternVariants([]Segment{KeySegment("a"), IndexSegment(4)})
		assert.Equal(t, []string{"a[*]"}, variants)
	})

	t.Run("two indices", func(t *testing.T) {
		variants := patternVariants([]Segment{
			KeySegment("a"), IndexSegment(1), KeySegment("c"), IndexSegment(2),
		})
		assert.Equal(t, []string{
			"a[*].c[2]",
			"a[1].c[*]",
			"a[*].c[*]",
		}, variants)
	})

	t.Run("variant count grows linearly", func(t *testing.T) {
		// k indices produce k individual forms plus k cumulative forms,
		// two of which coincide: 2k-1 total, never 2^k.
		for k := 1; k <= 8; k++ {
			segs := make([]Segment, 0, k*2)
			for i := 0; i < k; i++ {
				segs = append(segs, KeySegment("s"), IndexSegment(i))
			}
			assert.Len(t, patternVariants(segs), 2*k-1, "k=%d", k)
		}
	})
}

func TestPatternBuckets_DocumentOrder(t *testing.T) {
	t.Parallel()

	ix := buildIndex(t, `{
  "items": [
    {"name": "first"},
    {"name": "second"},
    {"name": "third"}
  ]
}`)

	entries := ix.LookupAllByPattern("items[*].name")
	assert.Len(t, entries, 3)
	assert.Equal(t, 3, entries[0].Line)
	assert.Equal(t, 4, entries[1].Line)
	assert.Equal(t, 5, entries[2].Line)

	// A concrete path normalizes to the same bucket.
	assert.Equal(t, entries, ix.LookupAllByPattern("items[1].name"))
}
