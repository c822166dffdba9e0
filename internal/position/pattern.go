package position

import (
	"strconv"
	"strings"
)

// Wildcard is the placeholder that stands in for any array index inside a
// pattern path ("items[*].name").
const Wildcard = "*"

// patternVariants derives the wildcard forms of a concrete path: each array
// index replaced individually, plus the cumulative left-to-right forms
// (first index, first two, and so on, ending with all indices replaced).
// Paths without array indices produce no variants. The returned list is
// de-duplicated and preserves derivation order.
func patternVariants(segs []Segment) []string {
	indexPositions := make([]int, 0, 4)
	for i, s := range segs {
		if s.IsIndex {
			indexPositions = append(indexPositions, i)
		}
	}
	if len(indexPositions) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(indexPositions)*2)
	variants := make([]string, 0, len(indexPositions)*2)

	add := func(mask map[int]bool) {
		v := renderPattern(segs, mask)
		if _, dup := seen[v]; dup {
			return
		}
		seen[v] = struct{}{}
		variants = append(variants, v)
	}

	// Individual replacements.
	for _, pos := range indexPositions {
		add(map[int]bool{pos: true})
	}

	// Cumulative replacements (the last one is the all-wildcard form).
	mask := make(map[int]bool, len(indexPositions))
	for _, pos := range indexPositions {
		mask[pos] = true
		add(mask)
	}

	return variants
}

// renderPattern renders segments as a dotted path with the masked indices
// replaced by the wildcard. Segments that already are wildcards render as
// [*] regardless of the mask.
func renderPattern(segs []Segment, mask map[int]bool) string {
	var sb strings.Builder
	for i, s := range segs {
		if s.IsIndex || s.Key == Wildcard {
			sb.WriteByte('[')
			if s.IsIndex && !mask[i] {
				sb.WriteString(strconv.Itoa(s.Index))
			} else {
				sb.WriteString(Wildcard)
			}
			sb.WriteByte(']')
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(s.Key)
	}
	return sb.String()
}

// allWildcardPattern renders segments with every array index replaced by
// the wildcard.
func allWildcardPattern(segs []Segment) string {
	mask := make(map[int]bool, len(segs))
	for i, s := range segs {
		if s.IsIndex {
			mask[i] = true
		}
	}
	return renderPattern(segs, mask)
}

// NormalizePattern rewrites every concrete array index in a dotted path to
// the wildcard, producing the canonical all-wildcard pattern used for
// pattern lookups ("a[3].b[0]" -> "a[*].b[*]"). Already-wildcarded paths
// pass through unchanged.
func NormalizePattern(path string) string {
	segs := ParseDotted(path)
	if len(segs) == 0 {
		return ""
	}
	return allWildcardPattern(segs)
}
