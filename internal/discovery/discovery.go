// Package discovery finds template files under a root directory using
// glob patterns with ignore rules.
package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// compiledPattern holds both the pattern string and compiled glob
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// Finder walks a directory tree for template files matching configured
// glob patterns, skipping ignored paths.
type Finder struct {
	rootDir          string
	templatePatterns []compiledPattern
	ignorePatterns   []compiledPattern
}

// NewFinder creates a finder rooted at rootDir. Patterns use '/' as the
// separator regardless of platform.
func NewFinder(rootDir string, templatePatterns, ignorePatterns []string) (*Finder, error) {
	f := &Finder{
		rootDir: rootDir,
	}

	for _, pattern := range templatePatterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("failed to compile template pattern %q: %w", pattern, err)
		}
		f.templatePatterns = append(f.templatePatterns, compiledPattern{pattern: pattern, glob: g})
	}

	for _, pattern := range ignorePatterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("failed to compile ignore pattern %q: %w", pattern, err)
		}
		f.ignorePatterns = append(f.ignorePatterns, compiledPattern{pattern: pattern, glob: g})
	}

	return f, nil
}

// Find walks the tree and returns matching template files as absolute
// paths, sorted for stable output.
func (f *Finder) Find() ([]string, error) {
	files := []string{}

	err := filepath.Walk(f.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(f.rootDir, path)
		if err != nil {
			return err
		}
		// Normalize path separators for glob matching
		relPath = filepath.ToSlash(relPath)

		if info.IsDir() {
			// Prune ignored directories instead of descending.
			if relPath != "." && f.shouldIgnore(relPath) {
				return filepath.SkipDir
			}
			return nil
		}

		if f.shouldIgnore(relPath) {
			return nil
		}
		if f.matchesAnyPattern(relPath, f.templatePatterns) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// Matches reports whether a single path (relative to the root) is a
// non-ignored template file.
func (f *Finder) Matches(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	if f.shouldIgnore(relPath) {
		return false
	}
	return f.matchesAnyPattern(relPath, f.templatePatterns)
}

// Ignored reports whether a path (relative to the root) falls under an
// ignore pattern.
func (f *Finder) Ignored(relPath string) bool {
	return f.shouldIgnore(filepath.ToSlash(relPath))
}

// shouldIgnore checks if a path matches any ignore pattern.
func (f *Finder) shouldIgnore(relPath string) bool {
	// Always ignore the .tracemap directory
	if strings.HasPrefix(relPath, ".tracemap/") || relPath == ".tracemap" {
		return true
	}

	if f.matchesAnyPattern(relPath, f.ignorePatterns) {
		return true
	}

	// Also check if this is a directory that would match with /** suffix,
	// so "node_modules" is pruned by the pattern "node_modules/**".
	pathWithSuffix := relPath + "/**"
	return f.matchesAnyPattern(pathWithSuffix, f.ignorePatterns)
}

// matchesAnyPattern checks if a path matches any of the given patterns.
func (f *Finder) matchesAnyPattern(path string, patterns []compiledPattern) bool {
	for _, cp := range patterns {
		if cp.glob.Match(path) {
			return true
		}
	}

	// Special handling: if path is in root (no slash), also try matching
	// against patterns with **/ prefix removed. This makes "**/*.json"
	// match both "app.json" and "ui/app.json" as users would expect.
	if !strings.Contains(path, "/") {
		for _, cp := range patterns {
			if strings.HasPrefix(cp.pattern, "**/") {
				simplified := strings.TrimPrefix(cp.pattern, "**/")
				if simplifiedGlob, err := glob.Compile(simplified, '/'); err == nil {
					if simplifiedGlob.Match(path) {
						return true
					}
				}
			}
		}
	}

	return false
}
