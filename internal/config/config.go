// Package config provides configuration loading for tracemap.
//
// Configuration is read from .tracemap/config.yml in the project root,
// with TRACEMAP_* environment variables overriding file values and
// built-in defaults filling the rest.
//
// Hierarchy (highest to lowest priority):
//  1. Environment variables (TRACEMAP_*)
//  2. Project config (.tracemap/config.yml)
//  3. Built-in defaults
//
// Environment variable convention:
//   - Prefix: TRACEMAP_
//   - Nested fields use underscores (TRACEMAP_RESOLVER_MAX_DEPTH)
package config

import (
	"path/filepath"
	"strings"

	"github.com/mvp-joe/tracemap/internal/resolver"
)

// Config represents the complete tracemap configuration.
// It can be loaded from .tracemap/config.yml with environment variable
// overrides.
type Config struct {
	Resolver ResolverConfig `yaml:"resolver" mapstructure:"resolver"`
	Position PositionConfig `yaml:"position" mapstructure:"position"`
	Paths    PathsConfig    `yaml:"paths" mapstructure:"paths"`
	Storage  StorageConfig  `yaml:"storage" mapstructure:"storage"`
	// Defaults feed template interpolations during extraction, keyed by
	// interpolation name ("user.name" style keys allowed).
	Defaults map[string]any `yaml:"defaults" mapstructure:"defaults"`
}

// ResolverConfig configures import resolution.
type ResolverConfig struct {
	MaxDepth    int      `yaml:"max_depth" mapstructure:"max_depth"`     // deepest import nesting allowed
	Concurrency int      `yaml:"concurrency" mapstructure:"concurrency"` // sibling imports resolved in parallel
	Extensions  []string `yaml:"extensions" mapstructure:"extensions"`   // probe order for extensionless imports
	CacheSize   int      `yaml:"cache_size" mapstructure:"cache_size"`   // parsed-module cache capacity
	Progress    bool     `yaml:"progress" mapstructure:"progress"`       // show a progress bar on multi-file runs
}

// PositionConfig configures the position index.
type PositionConfig struct {
	PatternIndex bool `yaml:"pattern_index" mapstructure:"pattern_index"` // build the wildcard-pattern table
	CacheSize    int  `yaml:"cache_size" mapstructure:"cache_size"`       // index cache capacity
}

// PathsConfig defines which files are templates and which to ignore.
type PathsConfig struct {
	Templates []string `yaml:"templates" mapstructure:"templates"` // glob patterns for template files
	Ignore    []string `yaml:"ignore" mapstructure:"ignore"`       // glob patterns to skip
}

// StorageConfig defines snapshot persistence behavior.
type StorageConfig struct {
	Location string `yaml:"location" mapstructure:"location"` // override default .tracemap/snapshots.db
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Resolver: ResolverConfig{
			MaxDepth:    resolver.DefaultMaxDepth,
			Concurrency: resolver.DefaultConcurrency,
			Extensions:  resolver.DefaultExtensions,
			CacheSize:   resolver.DefaultModuleCacheCapacity,
			Progress:    true,
		},
		Position: PositionConfig{
			PatternIndex: true,
			CacheSize:    50,
		},
		Paths: PathsConfig{
			Templates: []string{
				"**/*.json",
				"**/*.jsont",
				"**/*.tmpl",
			},
			Ignore: []string{
				"node_modules/**",
				"vendor/**",
				".git/**",
				"dist/**",
				"build/**",
			},
		},
		Storage: StorageConfig{
			Location: "", // Empty means .tracemap/snapshots.db under the root
		},
		Defaults: map[string]any{},
	}
}

// ResolverOptions maps the configuration onto resolver options for a
// run anchored at baseDir.
func (c *Config) ResolverOptions(baseDir string) *resolver.Options {
	return &resolver.Options{
		BaseDir:       baseDir,
		MaxDepth:      c.Resolver.MaxDepth,
		Concurrency:   c.Resolver.Concurrency,
		Extensions:    c.Resolver.Extensions,
		Defaults:      c.Defaults,
		CacheCapacity: c.Resolver.CacheSize,
	}
}

// StoragePath returns the snapshot database path for a project root,
// honoring the configured override.
func (c *Config) StoragePath(rootDir string) string {
	if c.Storage.Location != "" {
		return c.Storage.Location
	}
	return filepath.Join(rootDir, ".tracemap", "snapshots.db")
}

// TemplateExtensions extracts unique file extensions from the template
// patterns. Returns extensions with leading dot (e.g. []string{".json",
// ".jsont"}), in pattern order.
func (c *Config) TemplateExtensions() []string {
	seen := make(map[string]bool)
	var exts []string
	for _, pattern := range c.Paths.Templates {
		ext := extractExtension(pattern)
		if ext != "" && !seen[ext] {
			seen[ext] = true
			exts = append(exts, ext)
		}
	}
	return exts
}

// extractExtension pulls the file extension out of a glob pattern.
// Returns "" when the pattern has no usable extension (e.g. "**/*").
func extractExtension(pattern string) string {
	base := filepath.Base(pattern)
	idx := strings.LastIndex(base, ".")
	if idx < 0 || idx == len(base)-1 {
		return ""
	}
	ext := base[idx:]
	if strings.ContainsAny(ext, "*?[") {
		return ""
	}
	return ext
}
