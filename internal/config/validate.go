package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidDepth indicates an out-of-range import depth limit
	ErrInvalidDepth = errors.New("invalid max depth")

	// ErrInvalidConcurrency indicates an out-of-range concurrency bound
	ErrInvalidConcurrency = errors.New("invalid concurrency")

	// ErrInvalidCacheSize indicates an out-of-range cache capacity
	ErrInvalidCacheSize = errors.New("invalid cache size")

	// ErrInvalidExtension indicates a malformed probe extension
	ErrInvalidExtension = errors.New("invalid extension")

	// ErrEmptyExtensions indicates an empty probe extension list
	ErrEmptyExtensions = errors.New("empty extensions")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if err := validateResolver(&cfg.Resolver); err != nil {
		errs = append(errs, err)
	}
	if err := validatePosition(&cfg.Position); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func validateResolver(cfg *ResolverConfig) error {
	var errs []error

	if cfg.MaxDepth <= 0 {
		errs = append(errs, fmt.Errorf("%w: max_depth must be positive, got %d", ErrInvalidDepth, cfg.MaxDepth))
	}
	if cfg.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("%w: concurrency must be positive, got %d", ErrInvalidConcurrency, cfg.Concurrency))
	}
	if cfg.CacheSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: cache_size must be positive, got %d", ErrInvalidCacheSize, cfg.CacheSize))
	}

	if len(cfg.Extensions) == 0 {
		errs = append(errs, fmt.Errorf("%w: at least one probe extension required", ErrEmptyExtensions))
	}
	for _, ext := range cfg.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			errs = append(errs, fmt.Errorf("%w: %q must start with a dot", ErrInvalidExtension, ext))
		}
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func validatePosition(cfg *PositionConfig) error {
	if cfg.CacheSize <= 0 {
		return fmt.Errorf("%w: cache_size must be positive, got %d", ErrInvalidCacheSize, cfg.CacheSize)
	}
	return nil
}

// joinErrors combines multiple errors into a single error with clear formatting.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}

	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	return fmt.Errorf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}
