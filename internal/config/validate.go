package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

var (
	// ErrNoExtensions indicates an empty supported-extension list
	ErrNoExtensions = errors.New("no supported extensions")

	// ErrInvalidCooldown indicates a non-positive cooldown
	ErrInvalidCooldown = errors.New("invalid cooldown")

	// ErrInvalidPattern indicates an ignore pattern that does not compile
	ErrInvalidPattern = errors.New("invalid ignore pattern")

	// ErrEmptyDocsPath indicates a missing docs location
	ErrEmptyDocsPath = errors.New("empty docs path")

	// ErrInvalidMarker indicates a marker that is not a markdown heading
	ErrInvalidMarker = errors.New("invalid insights marker")

	// ErrInvalidCacheSize indicates a negative analysis cache size
	ErrInvalidCacheSize = errors.New("invalid cache size")

	// ErrInvalidRetention indicates a negative journal retention
	ErrInvalidRetention = errors.New("invalid journal retention")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if err := validateWatch(&cfg.Watch); err != nil {
		errs = append(errs, err)
	}
	if err := validateDocs(&cfg.Docs); err != nil {
		errs = append(errs, err)
	}
	if cfg.Journal.Enabled && strings.TrimSpace(cfg.Journal.Path) == "" {
		errs = append(errs, fmt.Errorf("%w: journal.path is required when the journal is enabled", ErrEmptyDocsPath))
	}
	if cfg.Journal.Keep < 0 {
		errs = append(errs, fmt.Errorf("%w: keep cannot be negative, got %d", ErrInvalidRetention, cfg.Journal.Keep))
	}
	if cfg.Analysis.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("%w: cache_size cannot be negative, got %d", ErrInvalidCacheSize, cfg.Analysis.CacheSize))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func validateWatch(cfg *WatchConfig) error {
	var errs []error

	hasExt := false
	for _, ext := range cfg.Extensions {
		if strings.TrimSpace(ext) != "" {
			hasExt = true
			break
		}
	}
	if !hasExt {
		errs = append(errs, fmt.Errorf("%w: watch.extensions must list at least one extension", ErrNoExtensions))
	}

	if cfg.CooldownMS <= 0 {
		errs = append(errs, fmt.Errorf("%w: cooldown_ms must be positive, got %d", ErrInvalidCooldown, cfg.CooldownMS))
	}

	for _, pattern := range cfg.Ignore {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			errs = append(errs, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, pattern, err))
		}
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func validateDocs(cfg *DocsConfig) error {
	var errs []error

	fields := []struct {
		name  string
		value string
	}{
		{"docs.root", cfg.Root},
		{"docs.prompts_dir", cfg.PromptsDir},
		{"docs.progress_file", cfg.ProgressFile},
		{"docs.readme_name", cfg.ReadmeName},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			errs = append(errs, fmt.Errorf("%w: %s is required", ErrEmptyDocsPath, f.name))
		}
	}

	if marker := strings.TrimSpace(cfg.Marker); marker != "" {
		if !strings.HasPrefix(marker, "#") || strings.TrimSpace(strings.TrimLeft(marker, "#")) == "" {
			errs = append(errs, fmt.Errorf("%w: must be a markdown heading, got %q", ErrInvalidMarker, cfg.Marker))
		}
	}

	if len(errs) > 0 {
		return joinErrors(errs)
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
