package template

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mvp-joe/tracemap/internal/source"
)

// Extract cleans one template source into parseable JSON. Comments become
// spaces, interpolations become default values, control markers vanish
// (their bodies stay), and import directives become placeholder values
// recorded in the result. The cleaned text keeps the original line
// structure; replaced regions are padded to the original token width
// whenever the replacement fits.
func Extract(src *source.Text, opts *Options) *Extraction {
	if opts == nil {
		opts = &Options{}
	}
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()[:8]
	}

	x := &extractor{
		runes:    []rune(src.Content),
		line:     1,
		col:      1,
		runID:    runID,
		defaults: opts.Defaults,
		result: &Extraction{
			Source: src,
			Map:    newSourceMap(src.Path),
		},
	}
	x.out = make([]rune, 0, len(x.runes))
	x.scan()

	x.result.Cleaned = string(x.out)
	return x.result
}

type extractor struct {
	runes []rune
	pos   int
	line  int
	col   int

	out    []rune
	outCol int // cleaned-text column at the write position

	frames   []byte // '{' and '[' only; directive context
	runID    string
	defaults map[string]any
	nextID   int

	result *Extraction
}

func (x *extractor) scan() {
	x.outCol = 1
	for x.pos < len(x.runes) {
		r := x.runes[x.pos]
		switch {
		case r == '/' && x.peek(1) == '/':
			x.lineComment()
		case r == '/' && x.peek(1) == '*':
			x.blockComment('*', '/')
		case r == '{' && x.peek(1) == '#':
			x.blockComment('#', '}')
		case r == '{' && x.peek(1) == '{':
			x.interpolation()
		case r == '{' && x.peek(1) == '%':
			x.controlMarker()
		case r == '{' || r == '[':
			x.frames = append(x.frames, byte(r))
			x.emitCurrent()
		case r == '}' || r == ']':
			if len(x.frames) > 0 {
				x.frames = x.frames[:len(x.frames)-1]
			}
			x.emitCurrent()
		case r == '"':
			x.copyString()
		default:
			x.emitCurrent()
		}
	}
}

func (x *extractor) peek(n int) rune {
	if x.pos+n >= len(x.runes) {
		return 0
	}
	return x.runes[x.pos+n]
}

// advance moves the read cursor without writing output.
func (x *extractor) advance() {
	if x.runes[x.pos] == '\n' {
		x.line++
		x.col = 1
	} else {
		x.col++
	}
	x.pos++
}

// emitCurrent copies the current rune to the output and advances.
func (x *extractor) emitCurrent() {
	x.emit(x.runes[x.pos])
	x.advance()
}

func (x *extractor) emit(r rune) {
	x.out = append(x.out, r)
	if r == '\n' {
		x.outCol = 1
	} else {
		x.outCol++
	}
}

func (x *extractor) emitString(s string) {
	for _, r := range s {
		x.emit(r)
	}
}

// blank overwrites the current rune with a space (newlines pass through,
// preserving line structure) and advances.
func (x *extractor) blank() {
	if x.runes[x.pos] == '\n' {
		x.emit('\n')
	} else {
		x.emit(' ')
	}
	x.advance()
}

// copyString copies a string literal verbatim. Escaped quotes do not end
// the literal; comment or template markers inside it are plain text.
func (x *extractor) copyString() {
	x.emitCurrent() // opening quote
	for x.pos < len(x.runes) {
		r := x.runes[x.pos]
		if r == '\\' {
			x.emitCurrent()
			if x.pos < len(x.runes) {
				x.emitCurrent()
			}
			continue
		}
		x.emitCurrent()
		if r == '"' {
			return
		}
	}
}

// context reports what kind of slot the cursor sits in.
func (x *extractor) context() ImportContext {
	if len(x.frames) == 0 {
		return ContextDocument
	}
	if x.frames[len(x.frames)-1] == '[' {
		return ContextArray
	}
	return ContextObject
}

// lineComment handles a // comment: directives become placeholders,
// anything else becomes spaces.
func (x *extractor) lineComment() {
	startLine, startCol, startOffset := x.line, x.col, x.pos
	end := x.pos
	for end < len(x.runes) && x.runes[end] != '\n' {
		end++
	}
	raw := string(x.runes[x.pos:end])

	body := strings.TrimSpace(strings.TrimPrefix(raw, "//"))
	if !strings.HasPrefix(body, "@import") {
		x.result.Stats.Comments++
		for x.pos < end {
			x.blank()
		}
		return
	}

	desc, path, err := parseCommentDirective(strings.TrimPrefix(body, "@import"))
	if err != nil {
		x.result.Invalid = append(x.result.Invalid, DirectiveError{
			Raw: raw, Reason: err.Error(), Line: startLine, Column: startCol,
		})
		for x.pos < end {
			x.blank()
		}
		return
	}

	x.placeDirective(ImportDirective{
		RawPath:     path,
		Description: desc,
		Line:        startLine,
		Column:      startCol,
		Offset:      startOffset,
	}, end)
}

func (x *extractor) blockComment(t1, t2 rune) {
	x.result.Stats.Comments++
	x.blank() // opener
	x.blank()
	for x.pos < len(x.runes) {
		if x.runes[x.pos] == t1 && x.peek(1) == t2 {
			x.blank()
			x.blank()
			return
		}
		x.blank()
	}
}

// interpolation replaces {{ name }} with a default value, padded to the
// token width when it fits.
func (x *extractor) interpolation() {
	startLine := x.line
	end := x.pos + 2
	for end < len(x.runes) {
		if x.runes[end] == '}' && end+1 < len(x.runes) && x.runes[end+1] == '}' {
			end += 2
			break
		}
		end++
	}
	name := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(string(x.runes[x.pos:end]), "{{"), "}}"))
	x.result.Stats.Interpolations++

	x.replaceToken(DefaultValue(name, x.defaults), end, startLine)
}

// controlMarker handles {% ... %}: import markers become placeholders,
// structural markers (if, for, end...) become spaces and their bodies
// keep flowing through the scan.
func (x *extractor) controlMarker() {
	startLine, startCol, startOffset := x.line, x.col, x.pos
	end := x.pos + 2
	for end < len(x.runes) {
		if x.runes[end] == '%' && end+1 < len(x.runes) && x.runes[end+1] == '}' {
			end += 2
			break
		}
		end++
	}
	raw := string(x.runes[x.pos:end])
	body := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(raw, "{%"), "%}"))
	fields := splitDirectiveFields(body)

	if len(fields) == 0 || fields[0] != "import" {
		x.result.Stats.ControlMarkers++
		for x.pos < end {
			x.blank()
		}
		return
	}

	path, alias, err := parseBlockDirective(fields[1:])
	if err != nil {
		x.result.Invalid = append(x.result.Invalid, DirectiveError{
			Raw: raw, Reason: err.Error(), Line: startLine, Column: startCol,
		})
		for x.pos < end {
			x.blank()
		}
		return
	}

	x.placeDirective(ImportDirective{
		RawPath: path,
		Alias:   alias,
		Line:    startLine,
		Column:  startCol,
		Offset:  startOffset,
	}, end)
}

// placeDirective assigns the directive its placeholder, emits the
// placeholder in the form its context needs, and repairs the separator.
// The read cursor consumes through tokenEnd.
func (x *extractor) placeDirective(d ImportDirective, tokenEnd int) {
	d.ID = fmt.Sprintf("@import:%s:%d", x.runID, x.nextID)
	d.Context = x.context()
	x.nextID++
	x.result.Stats.Directives++
	x.result.Imports = append(x.result.Imports, d)

	var repl strings.Builder
	repl.WriteByte('"')
	repl.WriteString(d.ID)
	repl.WriteByte('"')
	if d.Context == ContextObject {
		repl.WriteString(": null")
	}
	if d.Context != ContextDocument && x.needsComma(tokenEnd) {
		repl.WriteByte(',')
	}

	x.replaceToken(repl.String(), tokenEnd, d.Line)
}

// replaceToken writes repl in place of the source token ending at
// tokenEnd. The token's newlines are kept so line structure holds; on the
// token's last line the output is space-padded back to the original
// column when repl is narrow enough, and anchored in the source map when
// it is not.
func (x *extractor) replaceToken(repl string, tokenEnd, startLine int) {
	x.emitString(repl)
	for x.pos < tokenEnd {
		if x.runes[x.pos] == '\n' {
			x.emit('\n')
		}
		x.advance()
	}
	if x.line == startLine {
		for x.outCol < x.col {
			x.emit(' ')
		}
	}
	x.result.Map.addAnchor(x.line, x.outCol, x.col)
}

// needsComma looks ahead from tokenEnd for the next significant content.
// A separator is added unless the author already wrote one or the
// enclosing container closes.
func (x *extractor) needsComma(from int) bool {
	i := from
	for i < len(x.runes) {
		r := x.runes[i]
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			i++
		case r == '/' && i+1 < len(x.runes) && x.runes[i+1] == '/':
			// A following directive comment is an element; a plain
			// comment is not.
			rest := x.runes[i:]
			end := 0
			for end < len(rest) && rest[end] != '\n' {
				end++
			}
			body := strings.TrimSpace(strings.TrimPrefix(string(rest[:end]), "//"))
			if strings.HasPrefix(body, "@import") {
				return true
			}
			i += end
		case r == '/' && i+1 < len(x.runes) && x.runes[i+1] == '*':
			i = skipPastPair(x.runes, i+2, '*', '/')
		case r == '{' && i+1 < len(x.runes) && x.runes[i+1] == '#':
			i = skipPastPair(x.runes, i+2, '#', '}')
		case r == '{' && i+1 < len(x.runes) && x.runes[i+1] == '%':
			// Import markers are elements; if/for/end markers are not.
			end := skipPastPair(x.runes, i+2, '%', '}')
			body := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(string(x.runes[i:end]), "{%"), "%}"))
			if strings.HasPrefix(body, "import") {
				return true
			}
			i = end
		case r == ',' || r == ']' || r == '}':
			return false
		default:
			return true
		}
	}
	return false
}

// skipPastPair returns the index just after the first t1 t2 sequence at
// or after from, or len(runes).
func skipPastPair(runes []rune, from int, t1, t2 rune) int {
	for i := from; i+1 < len(runes); i++ {
		if runes[i] == t1 && runes[i+1] == t2 {
			return i + 2
		}
	}
	return len(runes)
}
