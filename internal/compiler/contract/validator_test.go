package contract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/integreat-cms/featurereg/internal/compiler/errors"
)

const validModule = `import { show } from "../utils/visibility";

export const moduleName = "xliff-upload";

const init = (root: HTMLElement) => {
    root.querySelector("input")?.addEventListener("change", () => show(root));
};

export default init;
`

type claimMap map[string]string

func (c claimMap) ClaimedBy(name string) (string, bool) {
	path, ok := c[name]
	return path, ok
}

func TestValidate_ValidModule(t *testing.T) {
	result := NewValidator("").Validate("feature/xliff-upload.ts", validModule, claimMap{})

	require.True(t, result.Valid(), "unexpected errors:\n%v", result.Errors)
	assert.Equal(t, "xliff-upload", result.Name)
	assert.Equal(t, "feature/xliff-upload.ts", result.File)
}

func TestValidate_AcceptedForms(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{
			name: "async arrow without semicolons",
			source: `export const moduleName = 'tree-drag'
const init = async (root: HTMLElement): Promise<void> => {
    await Promise.resolve(root)
}
export default init
`,
		},
		{
			name: "function expression",
			source: `export const moduleName = "a";
const init = function (root: HTMLElement): void {};
export default init;`,
		},
		{
			name: "export list",
			source: `const moduleName = "b1";
const init = (root: HTMLElement) => {};
export { moduleName, init as default };`,
		},
		{
			name: "separate export list",
			source: `const moduleName = "c";
export { moduleName };
const init = (root: HTMLElement) => {};
export { init as default };`,
		},
		{
			name: "as const",
			source: `export const moduleName = "d" as const;
const init = (root: HTMLElement) => {};
export default init;`,
		},
		{
			name: "other declarations around",
			source: `type Options = { a: string };
interface Thing { b: number }
export const moduleName = "e";
const helper = (x: number) => x * 2;
function other(a: string, b: string) { return a + b; }
class Widget { constructor(private el: HTMLElement) {} }
const init = (root: HTMLElement) => { new Widget(root); };
export default init;`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewValidator(DefaultRootType).Validate("f.ts", tt.source, nil)
			assert.True(t, result.Valid(), "unexpected errors:\n%v", result.Errors)
		})
	}
}

// Each source breaks exactly one rule and must yield exactly one reason.
func TestValidate_SingleRuleViolations(t *testing.T) {
	const init = "const init = (root: HTMLElement) => {};\n"
	const name = "export const moduleName = \"ok\";\n"
	const def = "export default init;\n"

	tests := []struct {
		name     string
		source   string
		code     errors.ErrorCode
		errType  string
		contains string
	}{
		{"name missing", init + def, errors.ErrModuleName, "module_name_missing", "moduleName"},
		{"name not exported", "const moduleName = \"ok\";\n" + init + def, errors.ErrModuleName, "module_name_not_exported", "not exported"},
		{"name is let", "export let moduleName = \"ok\";\n" + init + def, errors.ErrModuleName, "module_name_not_const", "not let"},
		{"name is computed", "export const moduleName = \"a\" + \"b\";\n" + init + def, errors.ErrModuleName, "module_name_not_literal", "string literal"},
		{"name is template", "export const moduleName = `ok`;\n" + init + def, errors.ErrModuleName, "module_name_not_literal", "string literal"},
		{"bad name", "export const moduleName = \"Xliff_Upload\";\n" + init + def, errors.ErrModuleName, "module_name_invalid", "^[a-z0-9-]+$"},
		{"empty name", "export const moduleName = \"\";\n" + init + def, errors.ErrModuleName, "module_name_invalid", "pattern"},

		{"init missing", name + def, errors.ErrInitSignature, "init_missing", "const init"},
		{"init declaration", name + "function init(root: HTMLElement) {}\n" + def, errors.ErrInitSignature, "init_not_const", "function declaration"},
		{"init is var", name + "var init = (root: HTMLElement) => {};\n" + def, errors.ErrInitSignature, "init_not_const", "not var"},
		{"init not function", name + "const init = makeInit();\n" + def, errors.ErrInitSignature, "init_not_function", "arrow function"},
		{"no params", name + "const init = () => {};\n" + def, errors.ErrInitSignature, "init_param_count", "found 0"},
		{"two params", name + "const init = (root: HTMLElement, x: number) => {};\n" + def, errors.ErrInitSignature, "init_param_count", "found 2"},
		{"wrong param name", name + "const init = (element: HTMLElement) => {};\n" + def, errors.ErrInitSignature, "init_param_name", "'root'"},
		{"untyped param", name + "const init = (root) => {};\n" + def, errors.ErrInitSignature, "init_param_type", "HTMLElement"},
		{"bare arrow param", name + "const init = root => {};\n" + def, errors.ErrInitSignature, "init_param_type", "HTMLElement"},
		{"wrong param type", name + "const init = (root: Element) => {};\n" + def, errors.ErrInitSignature, "init_param_type", "found Element"},
		{"nullable param type", name + "const init = (root: HTMLElement | null) => {};\n" + def, errors.ErrInitSignature, "init_param_type", "HTMLElement|null"},
		{"optional param", name + "const init = (root?: HTMLElement) => {};\n" + def, errors.ErrInitSignature, "init_param_shape", "optional"},
		{"rest param", name + "const init = (...root: HTMLElement[]) => {};\n" + def, errors.ErrInitSignature, "init_param_shape", "rest"},
		{"defaulted param", name + "const init = (root: HTMLElement = document.body) => {};\n" + def, errors.ErrInitSignature, "init_param_shape", "defaulted"},
		{"destructured param", name + "const init = ({ dataset }: HTMLElement) => {};\n" + def, errors.ErrInitSignature, "init_param_shape", "destructured"},

		{"no default export", name + init, errors.ErrDefaultExport, "default_export_missing", "default export"},
		{"other default export", name + init + "const other = 1;\nexport default other;\n", errors.ErrDefaultExport, "default_export_mismatch", "'other'"},
		{"anonymous default export", name + init + "export default () => {};\n", errors.ErrDefaultExport, "default_export_mismatch", "arrow function"},
		{"named export only", name + "export " + init, errors.ErrDefaultExport, "default_export_missing", "default export"},
		{"re-exported default", name + init + "export { default } from \"./other\";\n", errors.ErrDefaultExport, "default_export_missing", "default export"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewValidator("").Validate("feature/x.ts", tt.source, nil)

			require.Len(t, result.Errors, 1, "errors:\n%v", result.Errors)
			err := result.Errors[0]
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.errType, err.Type)
			assert.Contains(t, err.Message, tt.contains)
			assert.Equal(t, "feature/x.ts", err.File)
			assert.Empty(t, result.Name)
		})
	}
}

func TestValidate_MultipleViolationsReportedTogether(t *testing.T) {
	source := `export const moduleName = "Bad_Name";
const init = (element: HTMLElement) => {};
`
	result := NewValidator("").Validate("x.ts", source, nil)

	require.Len(t, result.Errors, 3)
	assert.Equal(t, []errors.ErrorCode{
		errors.ErrModuleName,
		errors.ErrInitSignature,
		errors.ErrDefaultExport,
	}, result.Errors.Codes())
}

func TestValidate_Duplicate(t *testing.T) {
	claims := claimMap{"xliff-upload": "feature/a/xliff.ts"}

	result := NewValidator("").Validate("feature/b/xliff.ts", validModule, claims)

	require.Len(t, result.Errors, 1)
	err := result.Errors[0]
	assert.Equal(t, errors.ErrDuplicateName, err.Code)
	assert.Equal(t, errors.CategoryDuplicate, err.Category)
	assert.Contains(t, err.Message, "feature/a/xliff.ts")
	assert.Equal(t, 3, err.Location.Line)
	assert.Empty(t, result.Name)
}

func TestValidate_DuplicateOnlyCheckedForValidNames(t *testing.T) {
	source := strings.Replace(validModule, `"xliff-upload"`, `"Xliff"`, 1)
	claims := claimMap{"Xliff": "other.ts"}

	result := NewValidator("").Validate("x.ts", source, claims)

	require.Len(t, result.Errors, 1)
	assert.Equal(t, "module_name_invalid", result.Errors[0].Type)
}

func TestValidate_DoesNotClaim(t *testing.T) {
	claims := claimMap{}
	NewValidator("").Validate("x.ts", validModule, claims)
	assert.Empty(t, claims)
}

func TestValidate_SyntaxErrorsSuppressContractChecks(t *testing.T) {
	source := `export const moduleName = "ok"
const init = (root: HTMLElement) => {
`
	result := NewValidator("").Validate("broken.ts", source, nil)

	require.NotEmpty(t, result.Errors)
	for _, err := range result.Errors {
		assert.Equal(t, errors.ErrSyntax, err.Code)
	}
}

func TestValidate_LexErrors(t *testing.T) {
	result := NewValidator("").Validate("x.ts", "export const moduleName = \"open\n", nil)

	require.NotEmpty(t, result.Errors)
	assert.Equal(t, errors.ErrSyntax, result.Errors[0].Code)
	assert.Equal(t, 1, result.Errors[0].Location.Line)
	require.NotNil(t, result.Errors[0].Context)
}

func TestValidate_CustomRootType(t *testing.T) {
	source := strings.Replace(validModule, "root: HTMLElement", "root: HTMLDivElement | null", 1)

	result := NewValidator("HTMLDivElement | null").Validate("x.ts", source, nil)
	assert.True(t, result.Valid(), "unexpected errors:\n%v", result.Errors)

	result = NewValidator("").Validate("x.ts", source, nil)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "init_param_type", result.Errors[0].Type)
}

func TestAnalyze_IsReusable(t *testing.T) {
	v := NewValidator("")
	analysis := v.Analyze(validModule)
	require.Empty(t, analysis.Errors)

	first := v.Finish("a.ts", validModule, analysis, claimMap{})
	second := v.Finish("b.ts", validModule, analysis, claimMap{"xliff-upload": "a.ts"})

	assert.True(t, first.Valid())
	assert.False(t, second.Valid())
	assert.Equal(t, "xliff-upload", analysis.Name, "Finish must not modify the analysis")
}

func TestAnalyze_ErrorsCarryNoFile(t *testing.T) {
	v := NewValidator("")
	analysis := v.Analyze("const init = 1;")
	require.NotEmpty(t, analysis.Errors)

	v.Finish("x.ts", "const init = 1;", analysis, nil)
	for _, err := range analysis.Errors {
		assert.Empty(t, err.File)
	}
}
