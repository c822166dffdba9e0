package template

import (
	"encoding/json"
	"strings"
)

// DefaultValue returns the JSON literal substituted for an interpolation.
// A supplied defaults entry wins, matched by full name first and then by
// walking nested maps along dots. Without one, the name is guessed at:
// boolean-ish names default to false, numeric-ish names to 0,
// collection-ish names to an empty array, config-ish names to an empty
// object, everything else to the empty string.
func DefaultValue(name string, defaults map[string]any) string {
	// Filters ("{{ title | upper }}") do not change the default.
	if i := strings.IndexByte(name, '|'); i >= 0 {
		name = strings.TrimSpace(name[:i])
	}
	if v, ok := lookupDefault(name, defaults); ok {
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
	}
	return guessDefault(name)
}

func lookupDefault(name string, defaults map[string]any) (any, bool) {
	if len(defaults) == 0 || name == "" {
		return nil, false
	}
	if v, ok := defaults[name]; ok {
		return v, true
	}
	var cur any = defaults
	for _, part := range strings.Split(name, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

var (
	numericHints    = []string{"count", "num", "size", "index", "total", "limit", "port"}
	collectionHints = []string{"list", "items", "tags"}
	objectHints     = []string{"config", "options", "settings"}
)

func guessDefault(name string) string {
	last := strings.ToLower(name)
	if i := strings.LastIndexByte(last, '.'); i >= 0 {
		last = last[i+1:]
	}
	if strings.HasPrefix(last, "is_") || strings.HasPrefix(last, "has_") ||
		strings.HasSuffix(last, "enabled") || strings.HasSuffix(last, "disabled") {
		return "false"
	}
	for _, hint := range numericHints {
		if strings.Contains(last, hint) {
			return "0"
		}
	}
	for _, hint := range collectionHints {
		if strings.Contains(last, hint) {
			return "[]"
		}
	}
	for _, hint := range objectHints {
		if strings.Contains(last, hint) {
			return "{}"
		}
	}
	return `""`
}
