// Package report renders resolution results as text for people and as
// JSON or YAML for machines.
package report

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mvp-joe/tracemap/internal/resolver"
)

// Format selects an output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name from a flag or config value.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML:
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown format %q (valid: text, json, yaml)", s)
	}
}

// Formatter renders resolution artifacts in one format.
type Formatter interface {
	// Resolution renders the full resolution report: per-module import
	// outcomes, errors, and stats.
	Resolution(res *resolver.Resolution) (string, error)
	// Document renders an assembled document.
	Document(doc any) (string, error)
	// Location renders one position lookup result.
	Location(loc resolver.Location) (string, error)
}

// Option configures a formatter.
type Option func(*formatter)

// WithBaseDir renders paths relative to dir where possible.
func WithBaseDir(dir string) Option {
	return func(f *formatter) { f.baseDir = dir }
}

// NewFormatter creates a formatter for the given format.
func NewFormatter(format Format, opts ...Option) Formatter {
	f := &formatter{format: format}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

type formatter struct {
	format  Format
	baseDir string
}

// resolutionReport is the serializable shape shared by the JSON and
// YAML encodings.
type resolutionReport struct {
	Root     string         `json:"root" yaml:"root"`
	Complete bool           `json:"complete" yaml:"complete"`
	Modules  []moduleReport `json:"modules" yaml:"modules"`
	Errors   []string       `json:"errors,omitempty" yaml:"errors,omitempty"`
	Stats    statsReport    `json:"stats" yaml:"stats"`
}

type moduleReport struct {
	Path      string         `json:"path" yaml:"path"`
	Depth     int            `json:"depth" yaml:"depth"`
	FromCache bool           `json:"from_cache,omitempty" yaml:"from_cache,omitempty"`
	Resolved  int            `json:"imports_resolved" yaml:"imports_resolved"`
	Total     int            `json:"imports_total" yaml:"imports_total"`
	Imports   []importReport `json:"imports,omitempty" yaml:"imports,omitempty"`
}

type importReport struct {
	Path   string `json:"path,omitempty" yaml:"path,omitempty"`
	Raw    string `json:"raw_path" yaml:"raw_path"`
	Line   int    `json:"line" yaml:"line"`
	Column int    `json:"column" yaml:"column"`
	Status string `json:"status" yaml:"status"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

type statsReport struct {
	FilesLoaded     int    `json:"files_loaded" yaml:"files_loaded"`
	CacheHits       int    `json:"cache_hits" yaml:"cache_hits"`
	ImportsResolved int    `json:"imports_resolved" yaml:"imports_resolved"`
	ImportsFailed   int    `json:"imports_failed" yaml:"imports_failed"`
	MaxDepth        int    `json:"max_depth" yaml:"max_depth"`
	Duration        string `json:"duration" yaml:"duration"`
}

func (f *formatter) Resolution(res *resolver.Resolution) (string, error) {
	rep := f.buildReport(res)
	switch f.format {
	case FormatJSON:
		return marshalJSON(rep)
	case FormatYAML:
		return marshalYAML(rep)
	default:
		return f.renderText(rep), nil
	}
}

func (f *formatter) Document(doc any) (string, error) {
	switch f.format {
	case FormatYAML:
		return marshalYAML(doc)
	default:
		// Documents are JSON by nature; text renders them as JSON too.
		return marshalJSON(doc)
	}
}

func (f *formatter) Location(loc resolver.Location) (string, error) {
	switch f.format {
	case FormatJSON:
		return marshalJSON(loc)
	case FormatYAML:
		return marshalYAML(loc)
	default:
		return fmt.Sprintf("%s:%d:%d [%s]", f.rel(loc.Path), loc.Line, loc.Column, loc.Match), nil
	}
}

func (f *formatter) buildReport(res *resolver.Resolution) resolutionReport {
	rep := resolutionReport{
		Root:     f.rel(res.Root.Path),
		Complete: res.Complete(),
		Stats: statsReport{
			FilesLoaded:     res.Stats.FilesLoaded,
			CacheHits:       res.Stats.CacheHits,
			ImportsResolved: res.Stats.ImportsResolved,
			ImportsFailed:   res.Stats.ImportsFailed,
			MaxDepth:        res.Stats.MaxDepth,
			Duration:        res.Stats.Duration.Round(time.Microsecond).String(),
		},
	}

	paths := make([]string, 0, len(res.Modules))
	for path := range res.Modules {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		mod := res.Modules[path]
		mr := moduleReport{
			Path:      f.rel(mod.Path),
			Depth:     mod.Depth,
			FromCache: mod.FromCache,
			Resolved:  mod.ImportResolved(),
			Total:     mod.ImportTotal(),
		}
		for _, rec := range mod.Imports {
			mr.Imports = append(mr.Imports, importReport{
				Path:   f.rel(rec.Path),
				Raw:    rec.Directive.RawPath,
				Line:   rec.Directive.Line,
				Column: rec.Directive.Column,
				Status: string(rec.Status),
				Error:  rec.Error,
			})
		}
		rep.Modules = append(rep.Modules, mr)

		// Failed imports render as file:line:col entries against the
		// module that declares them.
		for _, rec := range mod.Imports {
			if rec.Status == resolver.StatusFailed {
				rep.Errors = append(rep.Errors,
					fmt.Sprintf("%s:%d:%d: %s", f.rel(mod.Path), rec.Directive.Line, rec.Directive.Column, rec.Error))
			}
		}
		for _, inv := range mod.Extraction.Invalid {
			rep.Errors = append(rep.Errors,
				fmt.Sprintf("%s:%d:%d: invalid import directive: %s", f.rel(mod.Path), inv.Line, inv.Column, inv.Reason))
		}
	}
	return rep
}

func (f *formatter) renderText(rep resolutionReport) string {
	var sb strings.Builder

	status := "ok"
	if !rep.Complete {
		status = "incomplete"
	}
	sb.WriteString(fmt.Sprintf("Resolved %s (%s) in %s\n", rep.Root, status, rep.Stats.Duration))
	sb.WriteString(fmt.Sprintf("Files: %d loaded, %d from cache\n\n", rep.Stats.FilesLoaded, rep.Stats.CacheHits))

	for _, mod := range rep.Modules {
		if mod.Total == 0 {
			sb.WriteString(fmt.Sprintf("  %s: no imports\n", mod.Path))
			continue
		}
		sb.WriteString(fmt.Sprintf("  %s: %d of %d imports succeeded\n", mod.Path, mod.Resolved, mod.Total))
	}

	if len(rep.Errors) > 0 {
		sb.WriteString("\nErrors:\n")
		for _, msg := range rep.Errors {
			sb.WriteString(fmt.Sprintf("  %s\n", msg))
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

// rel shortens a path against the base dir when one is configured.
func (f *formatter) rel(path string) string {
	if f.baseDir == "" || path == "" {
		return path
	}
	rel, err := filepath.Rel(f.baseDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

func marshalJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

func marshalYAML(v any) (string, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}
