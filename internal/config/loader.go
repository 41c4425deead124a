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
	rootDir    string
	configFile string
}

// NewLoader creates a new configuration loader for the given root directory.
func NewLoader(rootDir string) Loader {
	return &loader{rootDir: rootDir}
}

// NewFileLoader loads an explicit config file instead of searching
// <rootDir>/.autodocs. A missing explicit file is an error.
func NewFileLoader(rootDir, configFile string) Loader {
	return &loader{rootDir: rootDir, configFile: configFile}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (AUTODOCS_*)
// 2. Config file (.autodocs/config.yml or .autodocs/config.yaml)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(l.rootDir, Dir))
	}

	v.SetEnvPrefix("AUTODOCS")
	v.AutomaticEnv()
	// Replace . with _ in env var names (e.g., AUTODOCS_DOCS_ROOT)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Watch configuration
	v.BindEnv("watch.extensions")
	v.BindEnv("watch.exclude")
	v.BindEnv("watch.ignore")
	v.BindEnv("watch.cooldown_ms")

	// Docs configuration
	v.BindEnv("docs.root")
	v.BindEnv("docs.prompts_dir")
	v.BindEnv("docs.progress_file")
	v.BindEnv("docs.readme_name")
	v.BindEnv("docs.marker")

	// Journal configuration
	v.BindEnv("journal.enabled")
	v.BindEnv("journal.path")
	v.BindEnv("journal.keep")

	// Analysis configuration
	v.BindEnv("analysis.cache_size")

	setDefaults(v)

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

	v.SetDefault("watch.extensions", defaults.Watch.Extensions)
	v.SetDefault("watch.exclude", defaults.Watch.Exclude)
	v.SetDefault("watch.ignore", defaults.Watch.Ignore)
	v.SetDefault("watch.cooldown_ms", defaults.Watch.CooldownMS)

	v.SetDefault("docs.root", defaults.Docs.Root)
	v.SetDefault("docs.prompts_dir", defaults.Docs.PromptsDir)
	v.SetDefault("docs.progress_file", defaults.Docs.ProgressFile)
	v.SetDefault("docs.readme_name", defaults.Docs.ReadmeName)
	v.SetDefault("docs.marker", defaults.Docs.Marker)

	v.SetDefault("journal.enabled", defaults.Journal.Enabled)
	v.SetDefault("journal.path", defaults.Journal.Path)
	v.SetDefault("journal.keep", defaults.Journal.Keep)

	v.SetDefault("analysis.cache_size", defaults.Analysis.CacheSize)
}

// WriteFile writes cfg as YAML to path. An existing file is only replaced
// when overwrite is set.
func WriteFile(path string, cfg *Config, overwrite bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.Set("watch.extensions", cfg.Watch.Extensions)
	v.Set("watch.exclude", cfg.Watch.Exclude)
	v.Set("watch.ignore", cfg.Watch.Ignore)
	v.Set("watch.cooldown_ms", cfg.Watch.CooldownMS)
	v.Set("docs.root", cfg.Docs.Root)
	v.Set("docs.prompts_dir", cfg.Docs.PromptsDir)
	v.Set("docs.progress_file", cfg.Docs.ProgressFile)
	v.Set("docs.readme_name", cfg.Docs.ReadmeName)
	v.Set("docs.marker", cfg.Docs.Marker)
	v.Set("journal.enabled", cfg.Journal.Enabled)
	v.Set("journal.path", cfg.Journal.Path)
	v.Set("journal.keep", cfg.Journal.Keep)
	v.Set("analysis.cache_size", cfg.Analysis.CacheSize)

	write := v.SafeWriteConfigAs
	if overwrite {
		write = v.WriteConfigAs
	}
	if err := write(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
