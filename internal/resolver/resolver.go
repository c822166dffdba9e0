package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/maypok86/otter"

	"github.com/mvp-joe/tracemap/internal/position"
	"github.com/mvp-joe/tracemap/internal/source"
	"github.com/mvp-joe/tracemap/internal/template"
)

const (
	// DefaultMaxDepth bounds how deep import chains may nest.
	DefaultMaxDepth = 8
	// DefaultConcurrency bounds sibling imports resolved in parallel.
	DefaultConcurrency = 4
	// DefaultModuleCacheCapacity bounds the parsed-module cache.
	DefaultModuleCacheCapacity = 50
)

// DefaultExtensions is the probe order for import paths written without
// an extension.
var DefaultExtensions = []string{".json", ".jsont", ".tmpl", ".json.tmpl"}

// Options configures a Resolver. The zero value is usable: every field
// falls back to its default.
type Options struct {
	// BaseDir anchors the root path; imports are relative to the file
	// that declares them. Empty means the current directory.
	BaseDir string
	// MaxDepth is the deepest import nesting allowed.
	MaxDepth int
	// Concurrency bounds how many sibling imports resolve in parallel.
	Concurrency int
	// Extensions are probed, in order, for import paths written without
	// one.
	Extensions []string
	// Defaults feed interpolation substitution during extraction.
	Defaults map[string]any
	// CacheCapacity bounds both the position-index and parsed-module
	// caches.
	CacheCapacity int
	// Progress, when set, is called with each file path as it loads.
	Progress func(path string)
}

// parsed is the cacheable, splice-free part of a module: extraction and
// the pristine document with placeholders still in place. Keyed by path
// plus content hash, so edits invalidate naturally. Splicing always runs
// fresh because imported content may change even when this file did not.
type parsed struct {
	ex  *template.Extraction
	doc any
}

// Resolver loads template modules and resolves their import trees.
type Resolver struct {
	opts      Options
	positions *position.Cache
	modules   otter.Cache[string, *parsed]
}

// New builds a Resolver, applying defaults for unset options.
func New(opts *Options) (*Resolver, error) {
	o := Options{}
	if opts != nil {
		o = *opts
	}
	if o.BaseDir == "" {
		o.BaseDir = "."
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if len(o.Extensions) == 0 {
		o.Extensions = DefaultExtensions
	}
	if o.CacheCapacity <= 0 {
		o.CacheCapacity = DefaultModuleCacheCapacity
	}

	positions, err := position.NewCache(o.CacheCapacity, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build position cache: %w", err)
	}
	modules, err := otter.MustBuilder[string, *parsed](o.CacheCapacity).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build module cache: %w", err)
	}
	return &Resolver{opts: o, positions: positions, modules: modules}, nil
}

// Positions exposes the shared position-index cache.
func (r *Resolver) Positions() *position.Cache { return r.positions }

// Close releases the resolver's caches.
func (r *Resolver) Close() {
	r.positions.Close()
	r.modules.Close()
}

// Resolve loads the root module and resolves its import tree. Import
// failures inside the tree are partial: they are recorded on the
// resolution and the failed slots neutralized. Only a root that cannot
// be loaded or parsed at all returns an error.
func (r *Resolver) Resolve(ctx context.Context, rootPath string) (*Resolution, error) {
	start := time.Now()

	res := &Resolution{
		Modules: make(map[string]*Module),
		Graph:   NewGraph(),
	}
	st := &state{r: r, res: res}

	abs, err := r.resolveTarget(r.opts.BaseDir, rootPath)
	if err != nil {
		return nil, &FileNotFoundError{Path: abs, RawPath: rootPath}
	}
	root, err := st.resolveModule(ctx, abs, nil, 0)
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	res.Root = root
	res.Stats.Duration = time.Since(start)
	return res, nil
}

// resolveTarget turns a raw import path into an absolute path of an
// existing file, probing extensions when the path was written without
// one.
func (r *Resolver) resolveTarget(baseDir, raw string) (string, error) {
	p := raw
	if !filepath.IsAbs(p) {
		p = filepath.Join(baseDir, p)
	}
	p, err := filepath.Abs(filepath.Clean(p))
	if err != nil {
		return p, err
	}
	if _, err := os.Stat(p); err == nil {
		return p, nil
	}
	if filepath.Ext(p) == "" {
		for _, ext := range r.opts.Extensions {
			if _, err := os.Stat(p + ext); err == nil {
				return p + ext, nil
			}
		}
	}
	return p, os.ErrNotExist
}

// state carries one resolution run's shared collections.
type state struct {
	r   *Resolver
	res *Resolution
	mu  sync.Mutex
}

// resolveModule loads, extracts, parses, and splices one module. stack
// holds the absolute paths of the modules currently being resolved on
// this import chain; it is never mutated, each recursion level passes a
// fresh slice.
func (st *state) resolveModule(ctx context.Context, abs string, stack []string, depth int) (*Module, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for i, ancestor := range stack {
		if ancestor == abs {
			trace := make([]string, 0, len(stack)-i+1)
			trace = append(trace, stack[i:]...)
			trace = append(trace, abs)
			return nil, &CircularImportError{Trace: trace}
		}
	}
	if depth > st.r.opts.MaxDepth {
		return nil, &DepthExceededError{Path: abs, Depth: depth, Limit: st.r.opts.MaxDepth}
	}

	src, err := source.Load(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &FileNotFoundError{Path: abs}
		}
		return nil, fmt.Errorf("failed to load %s: %w", abs, err)
	}
	if st.r.opts.Progress != nil {
		st.r.opts.Progress(abs)
	}

	p, fromCache, err := st.parse(src)
	if err != nil {
		return nil, err
	}

	mod := &Module{
		Path:       abs,
		Source:     src,
		Extraction: p.ex,
		Index:      st.r.positions.GetOrBuild(src),
		Depth:      depth,
		FromCache:  fromCache,
	}

	var issues []error
	for _, inv := range p.ex.Invalid {
		issues = append(issues, &InvalidDirectiveError{
			Path: abs, Line: inv.Line, Column: inv.Column, Reason: inv.Reason,
		})
	}

	mod.Imports, mod.Document = st.resolveImports(ctx, mod, p, stack, depth, &issues)

	st.register(mod, fromCache, issues)
	return mod, nil
}

// parse returns the cached extraction and pristine document for the
// source, building and caching them on a miss.
func (st *state) parse(src *source.Text) (*parsed, bool, error) {
	key := src.CacheKey()
	if p, ok := st.r.modules.Get(key); ok {
		return p, true, nil
	}

	ex := template.Extract(src, &template.Options{Defaults: st.r.opts.Defaults})

	var doc any
	if err := json.Unmarshal([]byte(ex.Cleaned), &doc); err != nil {
		return nil, false, st.parseError(src, ex, err)
	}

	p := &parsed{ex: ex, doc: doc}
	st.r.modules.SetIfAbsent(key, p)
	return p, false, nil
}

// parseError maps a JSON decode failure on the cleaned text back to
// template coordinates.
func (st *state) parseError(src *source.Text, ex *template.Extraction, err error) error {
	pe := &ParseError{Path: src.Path, Line: 1, Column: 1, Err: err}
	var syn *json.SyntaxError
	if errors.As(err, &syn) {
		pe.Offset = syn.Offset
		pe.Line, pe.Column = ex.Map.MapOffset(ex.Cleaned, int(syn.Offset))
	}
	return pe
}

// resolveImports resolves the module's directives, siblings in parallel,
// and splices the results into a fresh copy of the pristine document.
func (st *state) resolveImports(ctx context.Context, mod *Module, p *parsed, stack []string, depth int, issues *[]error) ([]ImportRecord, any) {
	directives := p.ex.Imports
	recs := make([]ImportRecord, len(directives))
	if len(directives) == 0 {
		// Splicing with nothing to place still deep-copies, keeping the
		// cached pristine document out of callers' hands.
		doc, _ := splice(p.doc, p.ex, nil, nil)
		return nil, doc
	}

	childStack := make([]string, 0, len(stack)+1)
	childStack = append(childStack, stack...)
	childStack = append(childStack, mod.Path)
	baseDir := filepath.Dir(mod.Path)

	contents := make([]any, len(directives))
	resolveOne := func(i int, d template.ImportDirective) {
		rec := ImportRecord{Directive: d}
		target, terr := st.r.resolveTarget(baseDir, d.RawPath)
		if terr != nil {
			rec.Status = StatusFailed
			rec.Err = &FileNotFoundError{Path: target, RawPath: d.RawPath, ImportedFrom: mod.Path}
		} else {
			rec.Path = target
			child, cerr := st.resolveModule(ctx, target, childStack, depth+1)
			if cerr != nil {
				rec.Status = StatusFailed
				rec.Err = cerr
			} else {
				rec.Status = StatusResolved
				contents[i] = child.Document
			}
		}
		if rec.Err != nil {
			rec.Error = rec.Err.Error()
		}
		recs[i] = rec
	}

	if len(directives) == 1 {
		resolveOne(0, directives[0])
	} else {
		// The semaphore is per module, bounding sibling fan-out only. A
		// shared semaphore would let deep chains exhaust every slot with
		// parents blocked on their own children.
		sem := make(chan struct{}, st.r.opts.Concurrency)
		var wg sync.WaitGroup
		for i, d := range directives {
			wg.Add(1)
			go func(i int, d template.ImportDirective) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()
				resolveOne(i, d)
			}(i, d)
		}
		wg.Wait()
	}

	resolved := make(map[string]any, len(directives))
	failed := make(map[string]bool)
	for i, rec := range recs {
		if rec.Status == StatusResolved {
			resolved[rec.Directive.ID] = contents[i]
		} else {
			failed[rec.Directive.ID] = true
			*issues = append(*issues, rec.Err)
		}
	}

	doc, spliceIssues := splice(p.doc, p.ex, resolved, failed)
	for _, si := range spliceIssues {
		for i := range recs {
			if recs[i].Directive.ID == si.id {
				recs[i].Status = StatusFailed
				recs[i].Err = &InvalidDirectiveError{
					Path:   mod.Path,
					Line:   recs[i].Directive.Line,
					Column: recs[i].Directive.Column,
					Reason: si.reason,
				}
				recs[i].Error = recs[i].Err.Error()
				*issues = append(*issues, recs[i].Err)
			}
		}
	}
	return recs, doc
}

// register folds one finished module into the shared resolution.
func (st *state) register(mod *Module, fromCache bool, issues []error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.res.Modules[mod.Path]; !ok {
		st.res.Modules[mod.Path] = mod
	}
	st.res.Graph.AddModule(mod.Path)
	for _, rec := range mod.Imports {
		if rec.Status == StatusResolved {
			st.res.Graph.AddModule(rec.Path)
			st.res.Graph.AddDependency(mod.Path, rec.Path)
			st.res.Stats.ImportsResolved++
		} else {
			st.res.Stats.ImportsFailed++
		}
	}
	st.res.Stats.ImportsFailed += len(mod.Extraction.Invalid)
	st.res.Errors = append(st.res.Errors, issues...)

	if fromCache {
		st.res.Stats.CacheHits++
	} else {
		st.res.Stats.FilesLoaded++
	}
	if mod.Depth > st.res.Stats.MaxDepth {
		st.res.Stats.MaxDepth = mod.Depth
	}
}
