package resolver

import (
	"github.com/mvp-joe/tracemap/internal/template"
)

// spliceIssue reports a directive whose resolved content could not be
// placed.
type spliceIssue struct {
	id     string
	reason string
}

// splice rebuilds the document with placeholder values replaced by
// resolved content. Array placeholders become the imported value; object
// placeholders bind their alias key or merge the imported object's keys,
// with local keys winning collisions; a document placeholder replaces
// the whole document. Failed imports neutralize their slot: null in
// arrays and alias bindings (keeping array arity stable), nothing for
// merges.
//
// Every container is rebuilt, so the input document is left untouched
// and the returned tree shares no containers with it.
func splice(doc any, ex *template.Extraction, resolved map[string]any, failed map[string]bool) (any, []spliceIssue) {
	s := &splicer{
		ex:       ex,
		resolved: resolved,
		failed:   failed,
		ids:      make(map[string]bool, len(ex.Imports)),
	}
	for _, d := range ex.Imports {
		s.ids[d.ID] = true
	}
	return s.value(doc), s.issues
}

type splicer struct {
	ex       *template.Extraction
	resolved map[string]any
	failed   map[string]bool
	ids      map[string]bool
	issues   []spliceIssue
}

func (s *splicer) value(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return s.object(t)
	case []any:
		out := make([]any, len(t))
		for i, elem := range t {
			out[i] = s.value(elem)
		}
		return out
	case string:
		// Array-element and whole-document placeholders are strings.
		if content, ok := s.resolved[t]; ok {
			return content
		}
		if s.failed[t] {
			return nil
		}
		return t
	default:
		return v
	}
}

// object rebuilds one object: local members first, then placeholder
// directives in declaration order so multiple merges stay deterministic.
func (s *splicer) object(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if s.ids[k] {
			continue
		}
		out[k] = s.value(v)
	}

	for _, d := range s.ex.Imports {
		if _, present := m[d.ID]; !present {
			continue
		}
		if s.failed[d.ID] {
			if d.Alias != "" {
				out[d.Alias] = nil
			}
			continue
		}
		content, ok := s.resolved[d.ID]
		if !ok {
			continue
		}
		if d.Alias != "" {
			out[d.Alias] = content
			continue
		}
		merged, isObject := content.(map[string]any)
		if !isObject {
			s.issues = append(s.issues, spliceIssue{
				id:     d.ID,
				reason: "imported content must be an object to merge; bind it with an alias or import it into an array",
			})
			continue
		}
		for mk, mv := range merged {
			if _, exists := out[mk]; !exists {
				out[mk] = mv
			}
		}
	}
	return out
}
