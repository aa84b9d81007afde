// Package config loads featurereg.yml with environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/integreat-cms/featurereg/internal/format"
)

// FileName is the project configuration file, without extension
const FileName = "featurereg"

// EnvPrefix prefixes environment overrides, e.g. FEATUREREG_OUTPUT
const EnvPrefix = "FEATUREREG"

// Config represents the featurereg configuration
type Config struct {
	// Root is the project root every relative path is resolved against
	Root string `mapstructure:"-"`

	FeatureDir string        `mapstructure:"feature_dir"`
	Output     string        `mapstructure:"output"`
	Extension  string        `mapstructure:"extension"`
	RootType   string        `mapstructure:"root_type"`
	Loader     LoaderConfig  `mapstructure:"loader"`
	Format     format.Config `mapstructure:"format"`
	Watch      WatchConfig   `mapstructure:"watch"`
}

// LoaderConfig configures markup scanning and module loading
type LoaderConfig struct {
	Attribute   string `mapstructure:"attribute"`
	Concurrency int    `mapstructure:"concurrency"`
}

// WatchConfig configures generate --watch
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
	Ignore   []string      `mapstructure:"ignore"`
}

// FeaturePath returns the absolute feature module root
func (c *Config) FeaturePath() string {
	return c.resolve(c.FeatureDir)
}

// OutputPath returns the absolute registry path
func (c *Config) OutputPath() string {
	return c.resolve(c.Output)
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(c.Root, path)
}

// Load finds the project root from the working directory and loads its
// configuration
func Load() (*Config, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	root, err := FindProjectRoot(dir)
	if err != nil {
		return nil, err
	}
	return LoadFrom(root)
}

// LoadFrom loads featurereg.yml from root, falling back to defaults when the
// file does not exist
func LoadFrom(root string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName(FileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(root)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.Root = root

	if err := validateConfig(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	defaults := format.DefaultConfig()

	v.SetDefault("feature_dir", "static/src/js/feature")
	v.SetDefault("output", "static/src/js/registry.ts")
	v.SetDefault("extension", ".ts")
	v.SetDefault("root_type", "HTMLElement")
	v.SetDefault("loader.attribute", "data-js-module")
	v.SetDefault("loader.concurrency", 8)
	v.SetDefault("format.indent_size", defaults.IndentSize)
	v.SetDefault("format.use_tabs", defaults.UseTabs)
	v.SetDefault("format.quote", defaults.Quote)
	v.SetDefault("format.trailing_comma", defaults.TrailingComma)
	v.SetDefault("format.command", "")
	v.SetDefault("watch.debounce", 150*time.Millisecond)
	v.SetDefault("watch.ignore", []string{})
}

// FindProjectRoot walks up from dir to the first directory holding
// featurereg.yml, featurereg.yaml or package.json
func FindProjectRoot(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	for {
		for _, marker := range []string{FileName + ".yml", FileName + ".yaml", "package.json"} {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a project (no %s.yml or package.json found)", FileName)
		}
		dir = parent
	}
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if strings.TrimSpace(cfg.FeatureDir) == "" {
		return fmt.Errorf("feature_dir must not be empty")
	}
	if strings.TrimSpace(cfg.Output) == "" {
		return fmt.Errorf("output must not be empty")
	}
	if !strings.HasPrefix(cfg.Extension, ".") {
		return fmt.Errorf("extension must start with '.', got: %s", cfg.Extension)
	}
	if !strings.HasSuffix(cfg.Output, cfg.Extension) {
		return fmt.Errorf("output must end with %s, got: %s", cfg.Extension, cfg.Output)
	}
	if strings.TrimSpace(cfg.Loader.Attribute) == "" {
		return fmt.Errorf("loader.attribute must not be empty")
	}
	if cfg.Loader.Concurrency < 1 {
		return fmt.Errorf("loader.concurrency must be at least 1, got: %d", cfg.Loader.Concurrency)
	}
	return cfg.Format.Validate()
}
