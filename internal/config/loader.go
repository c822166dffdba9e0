package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir string
}

// NewLoader creates a new configuration loader for the given root directory.
func NewLoader(rootDir string) Loader {
	return &loader{
		rootDir: rootDir,
	}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (TRACEMAP_*)
// 2. Config file (.tracemap/config.yml or .tracemap/config.yaml)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	configDir := filepath.Join(l.rootDir, ".tracemap")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	// Enable environment variable overrides
	v.SetEnvPrefix("TRACEMAP")
	v.AutomaticEnv()
	// Replace . with _ in env var names (e.g., TRACEMAP_RESOLVER_MAX_DEPTH)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Bind environment variables to config keys
	v.BindEnv("resolver.max_depth")
	v.BindEnv("resolver.concurrency")
	v.BindEnv("resolver.cache_size")
	v.BindEnv("resolver.progress")

	v.BindEnv("position.pattern_index")
	v.BindEnv("position.cache_size")

	v.BindEnv("storage.location")

	setDefaults(v)

	// Try to read config file
	if err := v.ReadInConfig(); err != nil {
		// Config file not found is acceptable - we'll use defaults + env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("resolver.max_depth", defaults.Resolver.MaxDepth)
	v.SetDefault("resolver.concurrency", defaults.Resolver.Concurrency)
	v.SetDefault("resolver.extensions", defaults.Resolver.Extensions)
	v.SetDefault("resolver.cache_size", defaults.Resolver.CacheSize)
	v.SetDefault("resolver.progress", defaults.Resolver.Progress)

	v.SetDefault("position.pattern_index", defaults.Position.PatternIndex)
	v.SetDefault("position.cache_size", defaults.Position.CacheSize)

	v.SetDefault("paths.templates", defaults.Paths.Templates)
	v.SetDefault("paths.ignore", defaults.Paths.Ignore)

	v.SetDefault("storage.location", defaults.Storage.Location)

	v.SetDefault("defaults", defaults.Defaults)
}

// LoadConfig is a convenience function that creates a loader and loads config.
// It uses the current working directory as the root.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd).Load()
}

// LoadConfigFromDir loads configuration from a specific directory.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}
