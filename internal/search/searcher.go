// Package search provides full-text keyword search over the position
// entries of a resolved module tree. Every indexed path becomes one
// searchable document carrying its file, coordinates, token type, and a
// snippet of the resolved value, so "where is the login button defined"
// style queries come back as file:line:column hits.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/mvp-joe/tracemap/internal/position"
	"github.com/mvp-joe/tracemap/internal/resolver"
)

// maxSnippetLen bounds the value snippet stored per entry.
const maxSnippetLen = 160

// Entry is one searchable position record.
type Entry struct {
	ID      string `json:"id"`      // file#pointer
	File    string `json:"file"`    // absolute module path
	Path    string `json:"path"`    // dotted path
	Pointer string `json:"pointer"` // RFC 6901 pointer
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Type    string `json:"type"`  // key, element, import, document
	Value   string `json:"value"` // snippet of the resolved value
}

// Result is a single search hit with highlighting.
type Result struct {
	Entry      Entry    `json:"entry"`
	Score      float64  `json:"score"`
	Highlights []string `json:"highlights,omitempty"`
}

// Options narrows a search.
type Options struct {
	// Limit caps the number of hits; values outside (0,100] fall back
	// to 15.
	Limit int
	// File filters hits by a wildcard pattern over module paths.
	File string
	// Type filters hits by token type (key, element, import, document).
	Type string
}

// DefaultOptions returns the options used when nil is passed to Search.
func DefaultOptions() *Options {
	return &Options{Limit: 15}
}

// Searcher is a keyword index over one resolution, refreshable as the
// tree is re-resolved.
type Searcher interface {
	// Search executes a bleve query-string search ("label:click",
	// "butt*", quoted phrases) over the indexed entries.
	Search(ctx context.Context, queryStr string, opts *Options) ([]*Result, error)

	// Update replaces the indexed entries with those of a fresh
	// resolution.
	Update(ctx context.Context, res *resolver.Resolution) error

	// Close releases the underlying index.
	Close() error
}

// searcher implements Searcher using an in-memory bleve index.
type searcher struct {
	index bleve.Index
	mu    sync.RWMutex // protects index and ids across updates
	ids   []string     // currently indexed entry IDs, for replacement
}

// NewSearcher builds an in-memory index over the resolution's entries.
func NewSearcher(ctx context.Context, res *resolver.Resolution) (Searcher, error) {
	index, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create search index: %w", err)
	}

	s := &searcher{index: index}
	if err := s.Update(ctx, res); err != nil {
		index.Close()
		return nil, err
	}
	return s, nil
}

// NewSearcherFromEntries builds an in-memory index over pre-built
// entries. Callers replaying stored snapshots use this instead of
// NewSearcher since no live resolution exists.
func NewSearcherFromEntries(ctx context.Context, entries []Entry) (Searcher, error) {
	index, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create search index: %w", err)
	}

	s := &searcher{index: index}
	if err := s.replace(ctx, entries); err != nil {
		index.Close()
		return nil, err
	}
	return s, nil
}

// EntryValue renders the snippet an entry carries for the value at
// pointer within doc, for rebuilding entries from stored snapshots.
func EntryValue(doc any, pointer string) string {
	return snippet(valueAt(doc, pointer))
}

// buildMapping creates the index mapping for entry documents.
func buildMapping() *mapping.IndexMappingImpl {
	indexMapping := bleve.NewIndexMapping()

	// Value snippet (primary search target) - standard analyzer
	valueMapping := bleve.NewTextFieldMapping()
	valueMapping.Analyzer = "standard"
	valueMapping.Store = true
	valueMapping.Index = true
	valueMapping.IncludeTermVectors = true // phrase search

	// Dotted path - standard analyzer so "items.name" matches on parts
	pathMapping := bleve.NewTextFieldMapping()
	pathMapping.Analyzer = "standard"
	pathMapping.Store = true
	pathMapping.Index = true

	// File path - standard analyzer for partial matching
	fileMapping := bleve.NewTextFieldMapping()
	fileMapping.Analyzer = "standard"
	fileMapping.Store = true
	fileMapping.Index = true

	// Token type - keyword analyzer for exact filtering
	typeMapping := bleve.NewTextFieldMapping()
	typeMapping.Analyzer = "keyword"
	typeMapping.Store = true
	typeMapping.Index = true

	// Pointer and ID - stored for reconstruction, exact forms only
	pointerMapping := bleve.NewTextFieldMapping()
	pointerMapping.Analyzer = "keyword"
	pointerMapping.Store = true
	pointerMapping.Index = true

	idMapping := bleve.NewTextFieldMapping()
	idMapping.Analyzer = "keyword"
	idMapping.Store = true
	idMapping.Index = false

	// Coordinates - stored only
	lineMapping := bleve.NewNumericFieldMapping()
	lineMapping.Store = true
	lineMapping.Index = false
	columnMapping := bleve.NewNumericFieldMapping()
	columnMapping.Store = true
	columnMapping.Index = false

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("id", idMapping)
	docMapping.AddFieldMappingsAt("value", valueMapping)
	docMapping.AddFieldMappingsAt("path", pathMapping)
	docMapping.AddFieldMappingsAt("file", fileMapping)
	docMapping.AddFieldMappingsAt("type", typeMapping)
	docMapping.AddFieldMappingsAt("pointer", pointerMapping)
	docMapping.AddFieldMappingsAt("line", lineMapping)
	docMapping.AddFieldMappingsAt("column", columnMapping)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// Entries flattens a resolution into searchable entries, one per
// recorded pointer per module, sorted by ID for deterministic indexing.
func Entries(res *resolver.Resolution) []Entry {
	var entries []Entry
	for path, mod := range res.Modules {
		if mod.Index == nil {
			continue
		}
		for ptr, e := range mod.Index.Pointers() {
			entries = append(entries, Entry{
				ID:      path + "#" + ptr,
				File:    path,
				Path:    position.PointerToDotted(ptr),
				Pointer: ptr,
				Line:    e.Line,
				Column:  e.Column,
				Type:    string(e.Type),
				Value:   snippet(valueAt(mod.Document, ptr)),
			})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries
}

// valueAt walks the assembled document by pointer segments. Returns nil
// when the path does not survive into the document (failed imports,
// template-only slots).
func valueAt(doc any, ptr string) any {
	if ptr == "" {
		return doc
	}
	cur := doc
	for _, seg := range position.ParsePointer(ptr) {
		switch t := cur.(type) {
		case map[string]any:
			v, ok := t[seg.Key]
			if !ok {
				return nil
			}
			cur = v
		case []any:
			if !seg.IsIndex || seg.Index < 0 || seg.Index >= len(t) {
				return nil
			}
			cur = t[seg.Index]
		default:
			return nil
		}
	}
	return cur
}

// snippet renders a value as compact JSON, truncated to a search-sized
// fragment.
func snippet(v any) string {
	if v == nil {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	s := string(data)
	if len(s) > maxSnippetLen {
		s = s[:maxSnippetLen]
	}
	return s
}

func entryToDocument(e Entry) map[string]interface{} {
	return map[string]interface{}{
		"id":      e.ID,
		"file":    e.File,
		"path":    e.Path,
		"pointer": e.Pointer,
		"line":    e.Line,
		"column":  e.Column,
		"type":    e.Type,
		"value":   e.Value,
	}
}

// Update replaces the index contents with the resolution's entries.
func (s *searcher) Update(ctx context.Context, res *resolver.Resolution) error {
	return s.replace(ctx, Entries(res))
}

// replace swaps the indexed entry set in batches.
func (s *searcher) replace(ctx context.Context, entries []Entry) error {
	const batchSize = 1000
	batch := s.index.NewBatch()

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.ids {
		batch.Delete(id)
	}
	ids := make([]string, 0, len(entries))
	for i, e := range entries {
		if i%batchSize == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
		if err := batch.Index(e.ID, entryToDocument(e)); err != nil {
			return fmt.Errorf("failed to add entry %s to batch: %w", e.ID, err)
		}
		ids = append(ids, e.ID)

		if batch.Size() >= batchSize {
			if err := s.index.Batch(batch); err != nil {
				return fmt.Errorf("failed to execute batch: %w", err)
			}
			batch = s.index.NewBatch()
		}
	}
	if batch.Size() > 0 {
		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("failed to execute final batch: %w", err)
		}
	}

	s.ids = ids
	return nil
}

// Search executes a keyword search using bleve QueryStringQuery syntax.
func (s *searcher) Search(ctx context.Context, queryStr string, opts *Options) ([]*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	limit := opts.Limit
	if limit <= 0 || limit > 100 {
		limit = 15
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var queries []query.Query
	queries = append(queries, bleve.NewQueryStringQuery(queryStr))

	if opts.Type != "" {
		typeQuery := bleve.NewMatchQuery(opts.Type)
		typeQuery.SetField("type")
		queries = append(queries, typeQuery)
	}
	if opts.File != "" {
		fileQuery := bleve.NewWildcardQuery(opts.File)
		fileQuery.SetField("file")
		queries = append(queries, fileQuery)
	}

	var finalQuery query.Query
	if len(queries) == 1 {
		finalQuery = queries[0]
	} else {
		finalQuery = bleve.NewConjunctionQuery(queries...)
	}

	searchRequest := bleve.NewSearchRequestOptions(finalQuery, limit, 0, false)
	highlightStyle := "html"
	searchRequest.Highlight = bleve.NewHighlight()
	searchRequest.Highlight.Style = &highlightStyle
	searchRequest.Highlight.Fields = []string{"value"}
	searchRequest.Fields = []string{"id", "file", "path", "pointer", "line", "column", "type", "value"}

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	results := make([]*Result, 0, len(searchResult.Hits))
	for _, hit := range searchResult.Hits {
		entry := Entry{
			ID:      stringField(hit.Fields, "id"),
			File:    stringField(hit.Fields, "file"),
			Path:    stringField(hit.Fields, "path"),
			Pointer: stringField(hit.Fields, "pointer"),
			Line:    intField(hit.Fields, "line"),
			Column:  intField(hit.Fields, "column"),
			Type:    stringField(hit.Fields, "type"),
			Value:   stringField(hit.Fields, "value"),
		}
		results = append(results, &Result{
			Entry:      entry,
			Score:      hit.Score,
			Highlights: extractHighlights(hit.Fragments),
		})
	}
	return results, nil
}

// extractHighlights flattens bleve fragments, keeping at most 3 per hit.
func extractHighlights(fragments map[string][]string) []string {
	var highlights []string
	for _, snippets := range fragments {
		highlights = append(highlights, snippets...)
	}
	if len(highlights) > 3 {
		highlights = highlights[:3]
	}
	return highlights
}

func stringField(fields map[string]interface{}, name string) string {
	v, _ := fields[name].(string)
	return v
}

func intField(fields map[string]interface{}, name string) int {
	v, _ := fields[name].(float64)
	return int(v)
}

// Close releases resources held by the searcher.
func (s *searcher) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index != nil {
		return s.index.Close()
	}
	return nil
}
