package position

import (
	"strconv"
	"strings"
)

// Segment is one step of a logical path: either an object key or an array
// index.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

// KeySegment builds an object-key segment.
func KeySegment(key string) Segment { return Segment{Key: key} }

// IndexSegment builds an array-index segment.
func IndexSegment(i int) Segment { return Segment{Index: i, IsIndex: true} }

// PointerFromSegments renders segments as an RFC 6901 JSON Pointer.
// The empty segment list is the whole-document pointer "".
func PointerFromSegments(segs []Segment) string {
	if len(segs) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, s := range segs {
		sb.WriteByte('/')
		if s.IsIndex {
			sb.WriteString(strconv.Itoa(s.Index))
		} else {
			sb.WriteString(escapePointerToken(s.Key))
		}
	}
	return sb.String()
}

// DottedFromSegments renders segments as a dotted/bracketed property path:
// keys joined with ".", array indices in brackets ("a.b[0].c"). Keys that
// themselves contain "." or "[" are ambiguous in this form; the pointer
// form is the exact one.
func DottedFromSegments(segs []Segment) string {
	var sb strings.Builder
	for _, s := range segs {
		if s.IsIndex {
			sb.WriteByte('[')
			sb.WriteString(strconv.Itoa(s.Index))
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

// ParsePointer splits an RFC 6901 pointer into segments. Numeric tokens
// become array indices. The empty pointer yields nil (document root).
func ParsePointer(ptr string) []Segment {
	if ptr == "" {
		return nil
	}
	tokens := strings.Split(strings.TrimPrefix(ptr, "/"), "/")
	segs := make([]Segment, 0, len(tokens))
	for _, tok := range tokens {
		tok = unescapePointerToken(tok)
		if n, err := strconv.Atoi(tok); err == nil && tok != "" && tok[0] != '+' {
			segs = append(segs, IndexSegment(n))
			continue
		}
		segs = append(segs, KeySegment(tok))
	}
	return segs
}

// ParseDotted splits a dotted/bracketed path into segments.
// "a.b[0].c" becomes [a b 0 c]; a leading bracket addresses a root array.
func ParseDotted(path string) []Segment {
	if path == "" {
		return nil
	}
	var segs []Segment
	var key strings.Builder

	flushKey := func() {
		if key.Len() > 0 {
			segs = append(segs, KeySegment(key.String()))
			key.Reset()
		}
	}

	i := 0
	for i < len(path) {
		switch path[i] {
		case '.':
			flushKey()
			i++
		case '[':
			flushKey()
			end := strings.IndexByte(path[i:], ']')
			if end < 0 {
				// Unterminated bracket: keep the remainder as a key so the
				// path still round-trips rather than vanishing.
				key.WriteString(path[i:])
				i = len(path)
				break
			}
			tok := path[i+1 : i+end]
			if tok == Wildcard {
				segs = append(segs, Segment{Key: Wildcard})
			} else if n, err := strconv.Atoi(tok); err == nil {
				segs = append(segs, IndexSegment(n))
			} else {
				segs = append(segs, KeySegment(tok))
			}
			i += end + 1
		default:
			key.WriteByte(path[i])
			i++
		}
	}
	flushKey()
	return segs
}

// PointerToDotted converts an RFC 6901 pointer to the dotted form.
func PointerToDotted(ptr string) string {
	return DottedFromSegments(ParsePointer(ptr))
}

// DottedToPointer converts a dotted path to the RFC 6901 form.
func DottedToPointer(path string) string {
	return PointerFromSegments(ParseDotted(path))
}

func escapePointerToken(tok string) string {
	tok = strings.ReplaceAll(tok, "~", "~0")
	return strings.ReplaceAll(tok, "/", "~1")
}

func unescapePointerToken(tok string) string {
	tok = strings.ReplaceAll(tok, "~1", "/")
	return strings.ReplaceAll(tok, "~0", "~")
}
