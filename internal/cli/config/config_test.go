package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	root := t.TempDir()

	cfg, err := LoadFrom(root)
	require.NoError(t, err)

	assert.Equal(t, root, cfg.Root)
	assert.Equal(t, "static/src/js/feature", cfg.FeatureDir)
	assert.Equal(t, "static/src/js/registry.ts", cfg.Output)
	assert.Equal(t, ".ts", cfg.Extension)
	assert.Equal(t, "HTMLElement", cfg.RootType)
	assert.Equal(t, "data-js-module", cfg.Loader.Attribute)
	assert.Equal(t, 8, cfg.Loader.Concurrency)
	assert.Equal(t, 4, cfg.Format.IndentSize)
	assert.Equal(t, "double", cfg.Format.Quote)
	assert.True(t, cfg.Format.TrailingComma)
	assert.Empty(t, cfg.Format.Command)
	assert.Equal(t, 150*time.Millisecond, cfg.Watch.Debounce)

	assert.Equal(t, filepath.Join(root, "static/src/js/feature"), cfg.FeaturePath())
	assert.Equal(t, filepath.Join(root, "static/src/js/registry.ts"), cfg.OutputPath())
}

func TestLoadFrom_ConfigFile(t *testing.T) {
	root := t.TempDir()
	content := `
feature_dir: assets/features
output: /abs/registry.ts
root_type: HTMLDivElement
loader:
  attribute: data-module
format:
  use_tabs: true
  quote: single
  trailing_comma: false
  command: npx prettier --stdin-filepath registry.ts
watch:
  debounce: 1s
  ignore: ["*.spec.ts"]
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "featurereg.yml"), []byte(content), 0o644))

	cfg, err := LoadFrom(root)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "assets/features"), cfg.FeaturePath())
	assert.Equal(t, "/abs/registry.ts", cfg.OutputPath())
	assert.Equal(t, "HTMLDivElement", cfg.RootType)
	assert.Equal(t, "data-module", cfg.Loader.Attribute)
	assert.True(t, cfg.Format.UseTabs)
	assert.Equal(t, "single", cfg.Format.Quote)
	assert.False(t, cfg.Format.TrailingComma)
	assert.Equal(t, "npx prettier --stdin-filepath registry.ts", cfg.Format.Command)
	assert.Equal(t, time.Second, cfg.Watch.Debounce)
	assert.Equal(t, []string{"*.spec.ts"}, cfg.Watch.Ignore)
}

func TestLoadFrom_EnvOverrides(t *testing.T) {
	t.Setenv("FEATUREREG_OUTPUT", "out/registry.ts")
	t.Setenv("FEATUREREG_FORMAT_INDENT_SIZE", "2")

	cfg, err := LoadFrom(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "out/registry.ts", cfg.Output)
	assert.Equal(t, 2, cfg.Format.IndentSize)
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{"extension without dot", "extension: ts\noutput: registry.ts", "extension must start"},
		{"output extension mismatch", "output: registry.js", "output must end with .ts"},
		{"bad quote", "format:\n  quote: backtick", "format.quote"},
		{"bad indent", "format:\n  indent_size: 40", "format.indent_size"},
		{"empty attribute", "loader:\n  attribute: \"\"", "loader.attribute"},
		{"zero concurrency", "loader:\n  concurrency: 0", "loader.concurrency"},
		{"malformed yaml", "feature_dir: [", "failed to read config file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(root, "featurereg.yml"), []byte(tt.content), 0o644))

			_, err := LoadFrom(root)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestFindProjectRoot(t *testing.T) {
	tests := []struct {
		name   string
		marker string
	}{
		{"config file", "featurereg.yml"},
		{"yaml extension", "featurereg.yaml"},
		{"package.json", "package.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(root, tt.marker), []byte("{}"), 0o644))
			nested := filepath.Join(root, "static", "src", "js")
			require.NoError(t, os.MkdirAll(nested, 0o755))

			found, err := FindProjectRoot(nested)
			require.NoError(t, err)
			assert.Equal(t, root, found)
		})
	}
}

func TestFindProjectRoot_NearestWins(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "package.json"), []byte("{}"), 0o644))
	inner := filepath.Join(root, "cms")
	require.NoError(t, os.MkdirAll(inner, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(inner, "featurereg.yml"), []byte(""), 0o644))

	found, err := FindProjectRoot(inner)
	require.NoError(t, err)
	assert.Equal(t, inner, found)
}
