package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mvp-joe/autodocs/internal/analysis"
	"github.com/mvp-joe/autodocs/internal/docs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Config System:
// - Default() returns a valid configuration with the expected defaults
// - Load uses defaults when no config file exists
// - Load reads .autodocs/config.yml and .autodocs/config.yaml
// - A partial config file is merged with defaults
// - Environment variables override the config file and defaults
// - Load returns an error for malformed YAML and invalid values
// - NewFileLoader reads an explicit file and fails when it is missing
// - Validate rejects empty extensions, non-positive cooldown, bad globs,
//   empty docs paths, non-heading markers, negative cache size and
//   negative journal retention
// - Validate reports several problems at once
// - Helpers derive cooldown, filter, layout, journal and lock paths
// - WriteFile round-trips through Load and refuses to overwrite unless asked

func writeConfig(t *testing.T, rootDir, name, content string) {
	t.Helper()
	dir := filepath.Join(rootDir, Dir)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestDefault_ReturnsValidConfiguration(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NotNil(t, cfg)

	assert.Equal(t, analysis.SupportedExtensions(), cfg.Watch.Extensions)
	assert.Contains(t, cfg.Watch.Exclude, "node_modules")
	assert.Contains(t, cfg.Watch.Exclude, ".git")
	assert.Contains(t, cfg.Watch.Exclude, Dir)
	assert.Equal(t, 15000, cfg.Watch.CooldownMS)

	assert.Equal(t, "docs", cfg.Docs.Root)
	assert.Equal(t, "prompts", cfg.Docs.PromptsDir)
	assert.Equal(t, "PROGRESS.md", cfg.Docs.ProgressFile)
	assert.Equal(t, "README.md", cfg.Docs.ReadmeName)
	assert.Equal(t, docs.DefaultMarker, cfg.Docs.Marker)

	assert.True(t, cfg.Journal.Enabled)
	assert.Equal(t, filepath.Join(Dir, "journal.db"), cfg.Journal.Path)
	assert.Equal(t, 500, cfg.Journal.Keep)
	assert.Equal(t, 1000, cfg.Analysis.CacheSize)

	assert.NoError(t, Validate(cfg))
}

func TestLoadConfig_UsesDefaultsWhenNoConfigFile(t *testing.T) {
	t.Parallel()

	cfg, err := NewLoader(t.TempDir()).Load()
	require.NoError(t, err)

	defaults := Default()
	assert.Equal(t, defaults.Watch.Extensions, cfg.Watch.Extensions)
	assert.Equal(t, defaults.Watch.Exclude, cfg.Watch.Exclude)
	assert.Empty(t, cfg.Watch.Ignore)
	assert.Equal(t, defaults.Watch.CooldownMS, cfg.Watch.CooldownMS)
	assert.Equal(t, defaults.Docs, cfg.Docs)
	assert.Equal(t, defaults.Journal, cfg.Journal)
	assert.Equal(t, defaults.Analysis, cfg.Analysis)
}

func TestLoadConfig_LoadsFromConfigYml(t *testing.T) {
	t.Parallel()
	rootDir := t.TempDir()

	writeConfig(t, rootDir, "config.yml", `
watch:
  extensions: [".go", ".py"]
  exclude: ["third_party"]
  ignore: ["**/*_gen.go"]
  cooldown_ms: 5000
docs:
  root: documentation
  prompts_dir: ai
  progress_file: STATUS.md
  readme_name: NOTES.md
  marker: "## Generated"
journal:
  enabled: false
  keep: 25
analysis:
  cache_size: 0
`)

	cfg, err := NewLoader(rootDir).Load()
	require.NoError(t, err)

	assert.Equal(t, []string{".go", ".py"}, cfg.Watch.Extensions)
	assert.Equal(t, []string{"third_party"}, cfg.Watch.Exclude)
	assert.Equal(t, []string{"**/*_gen.go"}, cfg.Watch.Ignore)
	assert.Equal(t, 5*time.Second, cfg.Cooldown())
	assert.Equal(t, "documentation", cfg.Docs.Root)
	assert.Equal(t, "ai", cfg.Docs.PromptsDir)
	assert.Equal(t, "STATUS.md", cfg.Docs.ProgressFile)
	assert.Equal(t, "NOTES.md", cfg.Docs.ReadmeName)
	assert.Equal(t, "## Generated", cfg.Docs.Marker)
	assert.False(t, cfg.Journal.Enabled)
	assert.Equal(t, 25, cfg.Journal.Keep)
	assert.Equal(t, 0, cfg.Analysis.CacheSize)
}

func TestLoadConfig_LoadsFromConfigYaml(t *testing.T) {
	t.Parallel()
	rootDir := t.TempDir()

	writeConfig(t, rootDir, "config.yaml", "watch:\n  cooldown_ms: 1000\n")

	cfg, err := NewLoader(rootDir).Load()
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.Watch.CooldownMS)
}

func TestLoadConfig_MergesConfigWithDefaults(t *testing.T) {
	t.Parallel()
	rootDir := t.TempDir()

	writeConfig(t, rootDir, "config.yml", "docs:\n  root: site\n")

	cfg, err := NewLoader(rootDir).Load()
	require.NoError(t, err)

	assert.Equal(t, "site", cfg.Docs.Root)
	assert.Equal(t, "prompts", cfg.Docs.PromptsDir)
	assert.Equal(t, 15000, cfg.Watch.CooldownMS)
	assert.Equal(t, Default().Watch.Exclude, cfg.Watch.Exclude)
}

func TestLoadConfig_EnvironmentVariablesOverrideConfigFile(t *testing.T) {
	// Note: Cannot use t.Parallel() with t.Setenv()
	rootDir := t.TempDir()
	writeConfig(t, rootDir, "config.yml", "watch:\n  cooldown_ms: 5000\ndocs:\n  root: site\n")

	t.Setenv("AUTODOCS_WATCH_COOLDOWN_MS", "2500")
	t.Setenv("AUTODOCS_DOCS_ROOT", "env-docs")

	cfg, err := NewLoader(rootDir).Load()
	require.NoError(t, err)
	assert.Equal(t, 2500, cfg.Watch.CooldownMS)
	assert.Equal(t, "env-docs", cfg.Docs.Root)
}

func TestLoadConfig_EnvironmentVariablesOverrideDefaults(t *testing.T) {
	// Note: Cannot use t.Parallel() with t.Setenv()
	t.Setenv("AUTODOCS_WATCH_EXTENSIONS", ".ts,.tsx")
	t.Setenv("AUTODOCS_JOURNAL_ENABLED", "false")
	t.Setenv("AUTODOCS_ANALYSIS_CACHE_SIZE", "10")
	t.Setenv("AUTODOCS_JOURNAL_KEEP", "0")

	cfg, err := NewLoader(t.TempDir()).Load()
	require.NoError(t, err)
	assert.Equal(t, []string{".ts", ".tsx"}, cfg.Watch.Extensions)
	assert.False(t, cfg.Journal.Enabled)
	assert.Equal(t, 10, cfg.Analysis.CacheSize)
	assert.Equal(t, 0, cfg.Journal.Keep)
}

func TestLoadConfig_ReturnsErrorForMalformedYaml(t *testing.T) {
	t.Parallel()
	rootDir := t.TempDir()

	writeConfig(t, rootDir, "config.yml", "watch:\n  cooldown_ms: [1, 2\n")

	_, err := NewLoader(rootDir).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_ReturnsErrorForInvalidValues(t *testing.T) {
	t.Parallel()
	rootDir := t.TempDir()

	writeConfig(t, rootDir, "config.yml", "watch:\n  cooldown_ms: -1\n")

	_, err := NewLoader(rootDir).Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCooldown)
}

func TestNewFileLoader(t *testing.T) {
	t.Parallel()
	rootDir := t.TempDir()

	path := filepath.Join(rootDir, "custom.yml")
	require.NoError(t, os.WriteFile(path, []byte("docs:\n  root: handbook\n"), 0644))

	cfg, err := NewFileLoader(rootDir, path).Load()
	require.NoError(t, err)
	assert.Equal(t, "handbook", cfg.Docs.Root)

	_, err = NewFileLoader(rootDir, filepath.Join(rootDir, "missing.yml")).Load()
	assert.Error(t, err)
}

func TestValidate_SingleErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"empty extensions", func(c *Config) { c.Watch.Extensions = nil }, ErrNoExtensions},
		{"blank extensions", func(c *Config) { c.Watch.Extensions = []string{" "} }, ErrNoExtensions},
		{"zero cooldown", func(c *Config) { c.Watch.CooldownMS = 0 }, ErrInvalidCooldown},
		{"bad glob", func(c *Config) { c.Watch.Ignore = []string{"src/[a-"} }, ErrInvalidPattern},
		{"empty docs root", func(c *Config) { c.Docs.Root = "" }, ErrEmptyDocsPath},
		{"empty readme name", func(c *Config) { c.Docs.ReadmeName = " " }, ErrEmptyDocsPath},
		{"marker without hashes", func(c *Config) { c.Docs.Marker = "Insights" }, ErrInvalidMarker},
		{"marker only hashes", func(c *Config) { c.Docs.Marker = "##" }, ErrInvalidMarker},
		{"journal without path", func(c *Config) { c.Journal.Path = "" }, ErrEmptyDocsPath},
		{"negative cache", func(c *Config) { c.Analysis.CacheSize = -1 }, ErrInvalidCacheSize},
		{"negative journal keep", func(c *Config) { c.Journal.Keep = -1 }, ErrInvalidRetention},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, Validate(cfg), tt.want)
		})
	}
}

func TestValidate_EmptyMarkerUsesDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Docs.Marker = ""
	assert.NoError(t, Validate(cfg))
	assert.Equal(t, docs.DefaultMarker, cfg.Layout("/proj").Marker)
}

func TestValidate_MultipleErrors(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Watch.Extensions = nil
	cfg.Watch.CooldownMS = -5
	cfg.Docs.Root = ""

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
	assert.Contains(t, err.Error(), "no supported extensions")
	assert.Contains(t, err.Error(), "invalid cooldown")
	assert.Contains(t, err.Error(), "docs.root is required")
}

func TestHelpers(t *testing.T) {
	t.Parallel()
	cfg := Default()

	assert.Equal(t, 15*time.Second, cfg.Cooldown())

	filter, err := cfg.NewFilter("/proj")
	require.NoError(t, err)
	assert.True(t, filter.Accept("/proj/src/app.ts"))
	assert.False(t, filter.Accept("/proj/node_modules/x/index.ts"))
	assert.False(t, filter.Accept("/proj/src/notes.txt"))

	layout := cfg.Layout("/proj")
	assert.Equal(t, "/proj/docs", layout.DocsDir)
	assert.Equal(t, "/proj/docs/prompts", layout.PromptsDir)
	assert.Equal(t, "/proj/docs/PROGRESS.md", layout.ProgressPath)

	assert.Equal(t, "/proj/.autodocs/journal.db", cfg.JournalPath("/proj"))
	cfg.Journal.Path = "/var/lib/autodocs.db"
	assert.Equal(t, "/var/lib/autodocs.db", cfg.JournalPath("/proj"))

	assert.Equal(t, "/proj/.autodocs/watch.lock", LockPath("/proj"))
}

func TestWriteFile_RoundTrip(t *testing.T) {
	t.Parallel()
	rootDir := t.TempDir()
	path := filepath.Join(rootDir, Dir, "config.yml")

	cfg := Default()
	cfg.Watch.CooldownMS = 3000
	cfg.Docs.Root = "handbook"
	require.NoError(t, WriteFile(path, cfg, false))

	loaded, err := NewLoader(rootDir).Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, loaded.Watch.CooldownMS)
	assert.Equal(t, "handbook", loaded.Docs.Root)
	assert.Equal(t, cfg.Watch.Extensions, loaded.Watch.Extensions)

	assert.Error(t, WriteFile(path, Default(), false), "existing file must not be replaced")
	require.NoError(t, WriteFile(path, Default(), true))

	loaded, err = NewLoader(rootDir).Load()
	require.NoError(t, err)
	assert.Equal(t, "docs", loaded.Docs.Root)
}
