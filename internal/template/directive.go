package template

import (
	"errors"
	"strings"
)

// FileScheme is the prefix import paths may carry; it is stripped before
// resolution so paths are plain filesystem paths.
const FileScheme = "file://"

var errMissingPath = errors.New("missing import path")

// parseCommentDirective parses the remainder of a comment-form directive
// (the text after "@import"). Accepted shapes:
//
//	@import file://./button.json
//	@import "Button component" file://./button.json
//	@import "Button component" "./button.json"
func parseCommentDirective(rest string) (desc, path string, err error) {
	fields := splitDirectiveFields(rest)
	if len(fields) == 0 {
		return "", "", errMissingPath
	}

	pathField := fields[0]
	if strings.HasPrefix(fields[0], `"`) && len(fields) > 1 {
		desc = strings.Trim(fields[0], `"`)
		pathField = fields[1]
	}
	path = cleanImportPath(pathField)
	if path == "" {
		return "", "", errMissingPath
	}
	return desc, path, nil
}

// parseBlockDirective parses the fields of {% import "PATH" [as ALIAS] %}
// after the import keyword.
func parseBlockDirective(fields []string) (path, alias string, err error) {
	if len(fields) == 0 {
		return "", "", errMissingPath
	}
	path = cleanImportPath(fields[0])
	if path == "" {
		return "", "", errMissingPath
	}
	for i := 1; i < len(fields)-1; i++ {
		if fields[i] == "as" {
			alias = strings.Trim(fields[i+1], `"`)
		}
	}
	return path, alias, nil
}

// cleanImportPath strips surrounding quotes, stray separators, and the
// file:// scheme.
func cleanImportPath(tok string) string {
	tok = strings.Trim(tok, `",`)
	tok = strings.TrimPrefix(tok, FileScheme)
	return strings.TrimSpace(tok)
}

// splitDirectiveFields splits on whitespace, keeping quoted strings
// (quotes included) as single fields.
func splitDirectiveFields(s string) []string {
	var fields []string
	var cur strings.Builder
	inQuote := false
	flush := func() {
		if cur.Len() > 0 {
			fields = append(fields, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			inQuote = !inQuote
			cur.WriteByte(c)
		case c == '\\' && inQuote && i+1 < len(s):
			cur.WriteByte(c)
			i++
			cur.WriteByte(s[i])
		case !inQuote && (c == ' ' || c == '\t'):
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return fields
}
