package position

// Match reports which lookup strategy produced a result.
type Match string

const (
	// MatchPointer is an exact JSON Pointer hit.
	MatchPointer Match = "pointer"
	// MatchPath is an exact dotted-path hit.
	MatchPath Match = "path"
	// MatchPattern is a wildcard-pattern hit (first entry recorded for
	// the pattern, in document order).
	MatchPattern Match = "pattern"
	// MatchAncestor is the nearest existing ancestor of the requested path.
	MatchAncestor Match = "ancestor"
	// MatchDefault is the document's first line; nothing else matched.
	MatchDefault Match = "default"
)

// LookupOptions controls which fallback strategies run after the exact
// tables miss.
type LookupOptions struct {
	PatternFallback  bool `json:"pattern_fallback"`
	AncestorFallback bool `json:"ancestor_fallback"`
}

// DefaultLookupOptions enables every fallback.
func DefaultLookupOptions() *LookupOptions {
	return &LookupOptions{PatternFallback: true, AncestorFallback: true}
}

// Lookup resolves a logical location to a source position. Either form of
// address may be passed: pointer is an RFC 6901 JSON Pointer, path is a
// dotted path ("a.b[0].c"); when both are given the pointer is tried
// first. The strategies run in order (exact pointer, exact path, wildcard
// pattern, nearest ancestor, document default) and the first hit wins.
// Lookup always returns a usable entry; the Match value tells the caller
// how approximate it is.
func (ix *Index) Lookup(path, pointer string, opts *LookupOptions) (Entry, Match) {
	if opts == nil {
		opts = DefaultLookupOptions()
	}

	// The empty pointer addresses the document root, so it is only
	// consulted when the caller passed no dotted path either.
	if pointer != "" || path == "" {
		if e, ok := ix.byPointer[pointer]; ok {
			return e, MatchPointer
		}
	}
	if path != "" {
		if e, ok := ix.byPath[path]; ok {
			return e, MatchPath
		}
	}

	segs := ix.requestSegments(path, pointer)

	if opts.PatternFallback && ix.patternIndexed {
		if bucket, ok := ix.byPattern[allWildcardPattern(segs)]; ok && len(bucket) > 0 {
			return bucket[0], MatchPattern
		}
	}

	if opts.AncestorFallback {
		for len(segs) > 0 {
			segs = segs[:len(segs)-1]
			if e, ok := ix.byPointer[PointerFromSegments(segs)]; ok {
				return e, MatchAncestor
			}
			if e, ok := ix.byPath[DottedFromSegments(segs)]; ok {
				return e, MatchAncestor
			}
		}
	}

	return Entry{Line: 1, Column: 1, Offset: 0, Length: 0, Type: TokenDocument}, MatchDefault
}

// LookupAllByPattern returns every entry recorded under a wildcard
// pattern, in document order. A concrete path may be passed; its indices
// are normalized to wildcards first.
func (ix *Index) LookupAllByPattern(pattern string) []Entry {
	if !ix.patternIndexed {
		return nil
	}
	bucket := ix.byPattern[NormalizePattern(pattern)]
	if len(bucket) == 0 {
		return nil
	}
	out := make([]Entry, len(bucket))
	copy(out, bucket)
	return out
}

// requestSegments parses whichever address form the caller supplied into
// segments for the fallback strategies.
func (ix *Index) requestSegments(path, pointer string) []Segment {
	if path != "" {
		return ParseDotted(path)
	}
	if pointer != "" {
		return ParsePointer(pointer)
	}
	return nil
}
