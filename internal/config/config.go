// Package config provides configuration loading for autodocs.
//
// Configuration lives in .autodocs/config.yml at the project root.
// Priority (highest to lowest):
//  1. Environment variables (AUTODOCS_*, nested keys joined with underscores,
//     e.g. AUTODOCS_WATCH_COOLDOWN_MS)
//  2. Project config file (.autodocs/config.yml or .autodocs/config.yaml)
//  3. Built-in defaults
package config

import (
	"path/filepath"
	"time"

	"github.com/mvp-joe/autodocs/internal/analysis"
	"github.com/mvp-joe/autodocs/internal/docs"
	"github.com/mvp-joe/autodocs/internal/pathfilter"
)

// Dir is the per-project state directory.
const Dir = ".autodocs"

// LockFile is the watcher lock, relative to Dir.
const LockFile = "watch.lock"

// Config represents the complete autodocs configuration.
type Config struct {
	Watch    WatchConfig    `yaml:"watch" mapstructure:"watch"`
	Docs     DocsConfig     `yaml:"docs" mapstructure:"docs"`
	Journal  JournalConfig  `yaml:"journal" mapstructure:"journal"`
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
}

// WatchConfig decides which saves are tracked and how often flushes run.
type WatchConfig struct {
	Extensions []string `yaml:"extensions" mapstructure:"extensions"`   // supported extensions, e.g. ".ts"
	Exclude    []string `yaml:"exclude" mapstructure:"exclude"`         // excluded directory names
	Ignore     []string `yaml:"ignore" mapstructure:"ignore"`           // extra glob patterns relative to the root
	CooldownMS int      `yaml:"cooldown_ms" mapstructure:"cooldown_ms"` // minimum gap between flushes
}

// DocsConfig locates the generated documents.
type DocsConfig struct {
	Root         string `yaml:"root" mapstructure:"root"`                   // relative to the project root
	PromptsDir   string `yaml:"prompts_dir" mapstructure:"prompts_dir"`     // relative to Root
	ProgressFile string `yaml:"progress_file" mapstructure:"progress_file"` // relative to Root
	ReadmeName   string `yaml:"readme_name" mapstructure:"readme_name"`
	Marker       string `yaml:"marker" mapstructure:"marker"` // heading line that starts the generated section
}

// JournalConfig configures the flush history database.
type JournalConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"` // relative to the project root
	Keep    int    `yaml:"keep" mapstructure:"keep"` // newest flushes retained; 0 keeps all
}

// AnalysisConfig tunes the analyzer.
type AnalysisConfig struct {
	CacheSize int `yaml:"cache_size" mapstructure:"cache_size"` // 0 disables the memo cache
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Watch: WatchConfig{
			Extensions: analysis.SupportedExtensions(),
			Exclude: []string{
				"node_modules",
				".git",
				"dist",
				"build",
				"out",
				"target",
				"vendor",
				"__pycache__",
				".next",
				"coverage",
				Dir,
			},
			Ignore:     []string{},
			CooldownMS: 15000,
		},
		Docs: DocsConfig{
			Root:         "docs",
			PromptsDir:   "prompts",
			ProgressFile: "PROGRESS.md",
			ReadmeName:   "README.md",
			Marker:       docs.DefaultMarker,
		},
		Journal: JournalConfig{
			Enabled: true,
			Path:    filepath.Join(Dir, "journal.db"),
			Keep:    500,
		},
		Analysis: AnalysisConfig{
			CacheSize: 1000,
		},
	}
}

// Cooldown returns the watch cooldown as a duration.
func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.Watch.CooldownMS) * time.Millisecond
}

// NewFilter builds the path filter for a project rooted at rootDir.
func (c *Config) NewFilter(rootDir string) (*pathfilter.Filter, error) {
	return pathfilter.New(rootDir, c.Watch.Extensions, c.Watch.Exclude, c.Watch.Ignore)
}

// Layout returns the documentation layout for a project rooted at rootDir.
func (c *Config) Layout(rootDir string) docs.Layout {
	return docs.NewLayout(rootDir, c.Docs.Root, c.Docs.PromptsDir, c.Docs.ProgressFile, c.Docs.ReadmeName, c.Docs.Marker)
}

// JournalPath returns the absolute journal path for a project rooted at rootDir.
func (c *Config) JournalPath(rootDir string) string {
	if filepath.IsAbs(c.Journal.Path) {
		return c.Journal.Path
	}
	return filepath.Join(rootDir, c.Journal.Path)
}

// LockPath returns the watcher lock path for a project rooted at rootDir.
func LockPath(rootDir string) string {
	return filepath.Join(rootDir, Dir, LockFile)
}
