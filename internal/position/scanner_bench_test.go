package position

import (
	"fmt"
	"strings"
	"testing"

	"github.com/mvp-joe/tracemap/internal/source"
)

// syntheticDoc builds a document whose token count scales with n, for
// checking that scan cost grows with input size and nothing worse.
func syntheticDoc(n int) string {
	var sb strings.Builder
	sb.WriteString("{\n  \"items\": [")
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, `{"id": %d, "name": "item-%d"}`, i, i)
	}
	sb.WriteString("],\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "  \"key%d\": %d,\n", i, i)
	}
	sb.WriteString("  \"end\": true\n}\n")
	return sb.String()
}

func BenchmarkBuild(b *testing.B) {
	for _, n := range []int{10, 100, 1000} {
		b.Run(fmt.Sprintf("n=%d", n), func(b *testing.B) {
			src := source.New("bench.json", syntheticDoc(n))
			b.SetBytes(int64(len(src.Content)))
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				Build(src, nil)
			}
		})
	}
}

func BenchmarkLookup(b *testing.B) {
	ix := Build(source.New("bench.json", syntheticDoc(1000)), nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ix.Lookup("items[500].name", "", nil)
	}
}
