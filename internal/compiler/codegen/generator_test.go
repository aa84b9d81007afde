package codegen

import (
	goerrors "errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/integreat-cms/featurereg/internal/compiler/errors"
	"github.com/integreat-cms/featurereg/internal/registry"
)

func descriptors() []registry.Descriptor {
	return []registry.Descriptor{
		{Name: "xliff-upload", SourcePath: "/p/js/feature/xliff.ts", ImportPath: "./feature/xliff"},
		{Name: "tree-drag", SourcePath: "/p/js/feature/tree/drag.ts", ImportPath: "./feature/tree/drag"},
	}
}

func TestGenerate_Registry(t *testing.T) {
	code, err := NewGenerator(Options{}).Generate(descriptors())
	require.NoError(t, err)

	expected := "export const registry: Record<string, () => Promise<FeatureModule>> = {\n" +
		"\t\"tree-drag\": () => import(\"./feature/tree/drag\"),\n" +
		"\t\"xliff-upload\": () => import(\"./feature/xliff\"),\n" +
		"};\n"
	assert.True(t, strings.HasSuffix(code, expected), "unexpected registry:\n%s", code)
	assert.Contains(t, code, "export type FeatureInit = (root: HTMLElement) => void | Promise<void>;")
	assert.Contains(t, code, "export type FeatureModule = { default: FeatureInit };")
}

func TestGenerate_Header(t *testing.T) {
	code, err := NewGenerator(Options{FeatureDir: "static/src/js/feature", Attribute: "data-module"}).Generate(nil)
	require.NoError(t, err)

	lines := strings.Split(code, "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	assert.Equal(t, "/**", lines[0])
	assert.Equal(t, " * "+GeneratedMarker, lines[1])
	assert.Contains(t, code, "static/src/js/feature")
	assert.Contains(t, code, `data-module="<moduleName>"`)
	assert.Contains(t, code, "/^[a-z0-9-]+$/")
	assert.NotContains(t, code, "\t")
}

func TestGenerate_Empty(t *testing.T) {
	code, err := NewGenerator(Options{}).Generate(nil)
	require.NoError(t, err)

	assert.Contains(t, code, "export const registry: Record<string, () => Promise<FeatureModule>> = {};\n")
}

func TestGenerate_CustomRootType(t *testing.T) {
	code, err := NewGenerator(Options{RootType: "HTMLDivElement"}).Generate(nil)
	require.NoError(t, err)

	assert.Contains(t, code, "(root: HTMLDivElement) => void | Promise<void>")
	assert.Contains(t, code, "const init = (root: HTMLDivElement)")
}

func TestGenerate_Deterministic(t *testing.T) {
	input := descriptors()
	reversed := []registry.Descriptor{input[1], input[0]}

	gen := NewGenerator(Options{})
	first, err := gen.Generate(input)
	require.NoError(t, err)
	second, err := gen.Generate(reversed)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "xliff-upload", input[0].Name, "Generate must not reorder its input")
}

func TestGenerate_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		input []registry.Descriptor
	}{
		{
			name: "duplicate name",
			input: []registry.Descriptor{
				{Name: "a", ImportPath: "./a"},
				{Name: "a", ImportPath: "./b"},
			},
		},
		{
			name:  "empty import path",
			input: []registry.Descriptor{{Name: "a"}},
		},
		{
			name:  "empty name",
			input: []registry.Descriptor{{ImportPath: "./a"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGenerator(Options{}).Generate(tt.input)
			require.Error(t, err)

			var compilerErr *errors.CompilerError
			require.True(t, goerrors.As(err, &compilerErr))
			assert.Equal(t, errors.ErrRenderFailed, compilerErr.Code)
		})
	}
}

func TestQuoteTS(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"tree-drag", `"tree-drag"`},
		{`./feature/with"quote`, `"./feature/with\"quote"`},
		{`back\slash`, `"back\\slash"`},
		{"line\nbreak", `"line\nbreak"`},
		{"bell\a", `"bell\x07"`},
		{"sep\u2028", `"sep\u2028"`},
		{"üñí", `"üñí"`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, quoteTS(tt.input))
		})
	}
}
