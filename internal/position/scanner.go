package position

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf16"

	"github.com/mvp-joe/tracemap/internal/source"
)

// Build scans the source once, left to right, and returns the position
// index. The scan keeps an explicit container stack, so commas and closing
// brackets are attributed to the bracket depth they actually occur at;
// commas inside nested containers or string literals never advance an outer
// array's element counter.
//
// Template constructs are tolerated, not interpreted: comments are skipped
// and counted, interpolations and control markers are skipped, and an
// import directive found in array context claims the element slot it will
// occupy after resolution.
func Build(src *source.Text, opts *BuildOptions) *Index {
	if opts == nil {
		opts = DefaultBuildOptions()
	}
	start := time.Now()

	ix := &Index{
		path:           src.Path,
		hash:           src.Hash,
		byPointer:      make(map[string]Entry),
		byPath:         make(map[string]Entry),
		byPattern:      make(map[string][]Entry),
		patternIndexed: opts.PatternIndex,
	}

	s := &scanner{
		runes: []rune(src.Content),
		line:  1,
		col:   1,
		ix:    ix,
		opts:  *opts,
	}
	s.scan()

	ix.stats.LineCount = strings.Count(src.Content, "\n") + 1
	ix.stats.BuildTime = time.Since(start)
	return ix
}

type frameKind byte

const (
	frameObject frameKind = '{'
	frameArray  frameKind = '['
)

// frame tracks the scanner's state inside one container.
type frame struct {
	kind      frameKind
	elemIndex int    // arrays: index of the current/next element
	inElem    bool   // arrays: an element is open at elemIndex
	key       string // objects: current key
	keyActive bool   // objects: key recorded, value not yet finished
}

type scanner struct {
	runes []rune
	pos   int // rune offset
	line  int // 1-based
	col   int // 1-based, counted in runes

	frames []frame
	ix     *Index
	opts   BuildOptions

	rootRecorded bool
}

func (s *scanner) scan() {
	for s.pos < len(s.runes) {
		r := s.runes[s.pos]
		switch {
		case isSpace(r):
			s.advance()
		case r == '/' && s.peek(1) == '/':
			s.scanLineComment()
		case r == '/' && s.peek(1) == '*':
			s.scanBlockComment('*', '/')
		case r == '{' && s.peek(1) == '#':
			s.scanBlockComment('#', '}')
		case r == '{' && s.peek(1) == '{':
			s.scanInterpolation()
		case r == '{' && s.peek(1) == '%':
			s.scanControl()
		case r == '{':
			s.openContainer(frameObject)
		case r == '[':
			s.openContainer(frameArray)
		case r == '}' || r == ']':
			s.closeContainer()
		case r == ',':
			s.comma()
		case r == ':':
			s.ix.stats.TokenCount++
			s.advance()
		case r == '"':
			s.scanString()
		default:
			s.scanScalar()
		}
	}
}

// advance consumes one rune, updating line and column counters.
func (s *scanner) advance() {
	if s.pos >= len(s.runes) {
		return
	}
	if s.runes[s.pos] == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	s.pos++
}

// peek returns the rune at pos+n, or 0 past the end.
func (s *scanner) peek(n int) rune {
	if s.pos+n >= len(s.runes) {
		return 0
	}
	return s.runes[s.pos+n]
}

func (s *scanner) topFrame() *frame {
	if len(s.frames) == 0 {
		return nil
	}
	return &s.frames[len(s.frames)-1]
}

// currentSegments renders the active path: each object frame contributes
// its current key, each array frame its current element index.
func (s *scanner) currentSegments() []Segment {
	segs := make([]Segment, 0, len(s.frames))
	for i := range s.frames {
		f := &s.frames[i]
		switch {
		case f.kind == frameObject && f.keyActive:
			segs = append(segs, KeySegment(f.key))
		case f.kind == frameArray && f.inElem:
			segs = append(segs, IndexSegment(f.elemIndex))
		}
	}
	return segs
}

// record stores an entry under all derived keys. Duplicate paths overwrite
// (last occurrence wins, matching JSON key-overwrite semantics); pattern
// buckets accumulate in document order.
func (s *scanner) record(segs []Segment, e Entry) {
	s.ix.byPointer[PointerFromSegments(segs)] = e
	s.ix.byPath[DottedFromSegments(segs)] = e
	s.ix.stats.EntryCount++
	if s.opts.PatternIndex {
		for _, v := range patternVariants(segs) {
			s.ix.byPattern[v] = append(s.ix.byPattern[v], e)
		}
	}
}

// recordRoot records the document-root entry once, at the first top-level
// value.
func (s *scanner) recordRoot(e Entry) {
	if s.rootRecorded {
		return
	}
	s.rootRecorded = true
	if e.Type != TokenImport {
		e.Type = TokenDocument
	}
	s.record(nil, e)
}

// valueStartAt marks the start of a value token. In array context this is
// an element boundary: the element claims the current index and gets an
// entry. At top level it records the document root. Object values need no
// entry of their own; the key's entry covers the path.
func (s *scanner) valueStartAt(line, col, offset, length int, t TokenType) {
	top := s.topFrame()
	switch {
	case top == nil:
		s.recordRoot(Entry{Line: line, Column: col, Offset: offset, Length: length, Type: t})
	case top.kind == frameArray && !top.inElem:
		top.inElem = true
		s.record(s.currentSegments(), Entry{Line: line, Column: col, Offset: offset, Length: length, Type: t})
	}
}

func (s *scanner) openContainer(kind frameKind) {
	s.valueStartAt(s.line, s.col, s.pos, 1, TokenElement)
	s.frames = append(s.frames, frame{kind: kind})
	s.ix.stats.TokenCount++
	s.advance()
}

func (s *scanner) closeContainer() {
	if len(s.frames) > 0 {
		s.frames = s.frames[:len(s.frames)-1]
	}
	s.ix.stats.TokenCount++
	s.advance()
}

// comma separates members of the innermost container only.
func (s *scanner) comma() {
	if top := s.topFrame(); top != nil {
		if top.kind == frameArray {
			if top.inElem {
				top.elemIndex++
				top.inElem = false
			}
		} else {
			top.key = ""
			top.keyActive = false
		}
	}
	s.ix.stats.TokenCount++
	s.advance()
}

// scanString consumes a string literal. If the scanner is inside an object
// and the next significant rune is a colon, the string is a key: it is
// recorded and becomes the active path segment. Otherwise it is a value.
func (s *scanner) scanString() {
	startLine, startCol, startOffset := s.line, s.col, s.pos
	decoded := s.consumeString()
	length := s.pos - startOffset
	s.ix.stats.TokenCount++

	top := s.topFrame()
	if top != nil && top.kind == frameObject && s.nextSignificantIsColon() {
		top.key = decoded
		top.keyActive = true
		s.record(s.currentSegments(), Entry{
			Line: startLine, Column: startCol, Offset: startOffset,
			Length: length, Type: TokenKey,
		})
		return
	}
	s.valueStartAt(startLine, startCol, startOffset, length, TokenElement)
}

// consumeString reads a quoted string, decoding escapes. An escaped quote
// never terminates the string. Unterminated strings consume to the end of
// input; the parse of the cleaned text reports the real error later.
func (s *scanner) consumeString() string {
	s.advance() // opening quote
	var sb strings.Builder
	for s.pos < len(s.runes) {
		r := s.runes[s.pos]
		switch r {
		case '\\':
			s.advance()
			s.consumeEscape(&sb)
		case '"':
			s.advance()
			return sb.String()
		default:
			sb.WriteRune(r)
			s.advance()
		}
	}
	return sb.String()
}

// consumeEscape decodes one escape sequence (positioned just after the
// backslash) into sb. Decoding matches encoding/json so recorded keys are
// byte-equal to the keys a parse of the same text produces.
func (s *scanner) consumeEscape(sb *strings.Builder) {
	if s.pos >= len(s.runes) {
		return
	}
	esc := s.runes[s.pos]
	switch esc {
	case '"', '\\', '/':
		sb.WriteRune(esc)
		s.advance()
	case 'n':
		sb.WriteRune('\n')
		s.advance()
	case 't':
		sb.WriteRune('\t')
		s.advance()
	case 'r':
		sb.WriteRune('\r')
		s.advance()
	case 'b':
		sb.WriteRune('\b')
		s.advance()
	case 'f':
		sb.WriteRune('\f')
		s.advance()
	case 'u':
		s.advance()
		first, ok := s.consumeHex4()
		if !ok {
			sb.WriteRune(unicode.ReplacementChar)
			return
		}
		if utf16.IsSurrogate(first) {
			if s.peek(0) == '\\' && s.peek(1) == 'u' {
				markPos, markCol := s.pos, s.col
				s.advance()
				s.advance()
				second, ok2 := s.consumeHex4()
				if ok2 {
					if combined := utf16.DecodeRune(first, second); combined != unicode.ReplacementChar {
						sb.WriteRune(combined)
						return
					}
				}
				// Not a valid pair; leave the next escape for the loop.
				s.pos, s.col = markPos, markCol
			}
			sb.WriteRune(unicode.ReplacementChar)
			return
		}
		sb.WriteRune(first)
	default:
		sb.WriteRune(esc)
		s.advance()
	}
}

// consumeHex4 reads four hex digits as a UTF-16 code unit.
func (s *scanner) consumeHex4() (rune, bool) {
	if s.pos+4 > len(s.runes) {
		return 0, false
	}
	var v rune
	for i := 0; i < 4; i++ {
		d := hexDigit(s.runes[s.pos+i])
		if d < 0 {
			return 0, false
		}
		v = v<<4 | rune(d)
	}
	for i := 0; i < 4; i++ {
		s.advance()
	}
	return v, true
}

// scanScalar consumes a number, boolean, null, or bare identifier.
func (s *scanner) scanScalar() {
	startLine, startCol, startOffset := s.line, s.col, s.pos
	for s.pos < len(s.runes) && isScalarRune(s.runes[s.pos]) {
		s.advance()
	}
	if s.pos == startOffset {
		// Unknown rune: skip it rather than loop forever.
		s.advance()
		return
	}
	s.ix.stats.TokenCount++
	s.valueStartAt(startLine, startCol, startOffset, s.pos-startOffset, TokenElement)
}

// scanLineComment consumes a // comment. A comment body starting with
// @import is an import directive, which in array context occupies an
// element slot; everything else is counted and dropped.
func (s *scanner) scanLineComment() {
	startLine, startCol, startOffset := s.line, s.col, s.pos
	var body strings.Builder
	for s.pos < len(s.runes) && s.runes[s.pos] != '\n' {
		body.WriteRune(s.runes[s.pos])
		s.advance()
	}
	s.ix.stats.TokenCount++

	text := strings.TrimSpace(strings.TrimPrefix(body.String(), "//"))
	if strings.HasPrefix(text, "@import") {
		s.importToken(startLine, startCol, startOffset, s.pos-startOffset, "")
		return
	}
	s.ix.stats.CommentCount++
}

// scanBlockComment consumes a block comment terminated by the two-rune
// sequence t1 t2 ("*/" or "#}").
func (s *scanner) scanBlockComment(t1, t2 rune) {
	s.advance() // opener first rune
	s.advance() // opener second rune
	for s.pos < len(s.runes) {
		if s.runes[s.pos] == t1 && s.peek(1) == t2 {
			s.advance()
			s.advance()
			break
		}
		s.advance()
	}
	s.ix.stats.TokenCount++
	s.ix.stats.CommentCount++
}

// scanInterpolation consumes a {{ ... }} token. The interpolation stands
// where a value will stand after extraction, so in array context it claims
// an element slot.
func (s *scanner) scanInterpolation() {
	startLine, startCol, startOffset := s.line, s.col, s.pos
	s.advance()
	s.advance()
	for s.pos < len(s.runes) {
		if s.runes[s.pos] == '}' && s.peek(1) == '}' {
			s.advance()
			s.advance()
			break
		}
		s.advance()
	}
	s.ix.stats.TokenCount++
	s.valueStartAt(startLine, startCol, startOffset, s.pos-startOffset, TokenElement)
}

// scanControl consumes a {% ... %} marker. Import markers are element
// slots like comment-form directives; if/for/end markers are structural
// noise whose body content scans normally.
func (s *scanner) scanControl() {
	startLine, startCol, startOffset := s.line, s.col, s.pos
	s.advance()
	s.advance()
	var body strings.Builder
	for s.pos < len(s.runes) {
		if s.runes[s.pos] == '%' && s.peek(1) == '}' {
			s.advance()
			s.advance()
			break
		}
		body.WriteRune(s.runes[s.pos])
		s.advance()
	}
	s.ix.stats.TokenCount++

	fields := strings.Fields(body.String())
	if len(fields) > 0 && fields[0] == "import" {
		alias := ""
		for j := 1; j < len(fields)-1; j++ {
			if fields[j] == "as" {
				alias = fields[j+1]
			}
		}
		s.importToken(startLine, startCol, startOffset, s.pos-startOffset, alias)
	}
}

// importToken records the slot an import directive will fill once resolved.
// In array context the directive is a full element including its separator,
// so the slot advances immediately. In object context only an aliased
// import has a knowable path (the alias becomes the key); an un-aliased
// object import merges keys that are unknown until resolution. At top
// level the directive is the whole document.
func (s *scanner) importToken(line, col, offset, length int, alias string) {
	e := Entry{Line: line, Column: col, Offset: offset, Length: length, Type: TokenImport}
	top := s.topFrame()
	switch {
	case top == nil:
		s.recordRoot(e)
	case top.kind == frameArray && !top.inElem:
		top.inElem = true
		s.record(s.currentSegments(), e)
		top.elemIndex++
		top.inElem = false
	case top.kind == frameObject && alias != "":
		segs := append(s.currentSegments(), KeySegment(strings.Trim(alias, `"`)))
		s.record(segs, e)
	}
}

// nextSignificantIsColon peeks past whitespace and comments for a colon,
// without disturbing the scanner's counters.
func (s *scanner) nextSignificantIsColon() bool {
	i := s.pos
	for i < len(s.runes) {
		r := s.runes[i]
		switch {
		case isSpace(r):
			i++
		case r == '/' && i+1 < len(s.runes) && s.runes[i+1] == '/':
			for i < len(s.runes) && s.runes[i] != '\n' {
				i++
			}
		case r == '/' && i+1 < len(s.runes) && s.runes[i+1] == '*':
			i = skipPast(s.runes, i+2, '*', '/')
		case r == '{' && i+1 < len(s.runes) && s.runes[i+1] == '#':
			i = skipPast(s.runes, i+2, '#', '}')
		default:
			return r == ':'
		}
	}
	return false
}

// skipPast returns the index just after the first t1 t2 sequence at or
// after from, or len(runes) if none occurs.
func skipPast(runes []rune, from int, t1, t2 rune) int {
	for i := from; i+1 < len(runes); i++ {
		if runes[i] == t1 && runes[i+1] == t2 {
			return i + 2
		}
	}
	return len(runes)
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

func isScalarRune(r rune) bool {
	return r == '-' || r == '+' || r == '.' || r == '_' || r == '$' ||
		(r >= '0' && r <= '9') ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func hexDigit(r rune) int {
	switch {
	case r >= '0' && r <= '9':
		return int(r - '0')
	case r >= 'a' && r <= 'f':
		return int(r-'a') + 10
	case r >= 'A' && r <= 'F':
		return int(r-'A') + 10
	default:
		return -1
	}
}
