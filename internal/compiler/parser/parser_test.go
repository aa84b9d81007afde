package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/integreat-cms/featurereg/internal/compiler/ast"
)

func parse(t *testing.T, source string) *ast.Program {
	t.Helper()
	program, lexErrors, parseErrors := ParseSource(source)
	require.Empty(t, lexErrors)
	require.Empty(t, parseErrors)
	return program
}

func TestParse_ConformingModule(t *testing.T) {
	source := `import { hide } from "../utils/visibility";

export const moduleName = "xliff-upload";

const init = (root: HTMLElement): void => {
    root.addEventListener("change", () => hide(root));
};

export default init;
`
	program := parse(t, source)
	require.Len(t, program.Statements, 4)

	imp, ok := program.Statements[0].(*ast.ImportDecl)
	require.True(t, ok)
	assert.Equal(t, "../utils/visibility", imp.Source)

	name, ok := program.Statements[1].(*ast.VarDecl)
	require.True(t, ok)
	assert.True(t, name.Exported)
	assert.Equal(t, ast.VarConst, name.Kind)
	require.Len(t, name.Declarators, 1)
	lit, ok := name.Declarators[0].Init.(*ast.StringLiteral)
	require.True(t, ok)
	assert.Equal(t, "xliff-upload", lit.Value)
	assert.Equal(t, ast.SourceLocation{Line: 3, Column: 14}, name.Declarators[0].Loc)

	initDecl, ok := program.Statements[2].(*ast.VarDecl)
	require.True(t, ok)
	assert.False(t, initDecl.Exported)
	arrow, ok := initDecl.Declarators[0].Init.(*ast.ArrowFunction)
	require.True(t, ok)
	require.Len(t, arrow.Params, 1)
	assert.Equal(t, "root", arrow.Params[0].Name)
	assert.Equal(t, "HTMLElement", arrow.Params[0].Type)

	def, ok := program.Statements[3].(*ast.ExportDefault)
	require.True(t, ok)
	id, ok := def.Expr.(*ast.Identifier)
	require.True(t, ok)
	assert.Equal(t, "init", id.Name)
}

func TestParse_WithoutSemicolons(t *testing.T) {
	source := `export const moduleName = 'tree-drag'
const init = async (root: HTMLElement) => {
    await load(root)
}
export default init
`
	program := parse(t, source)
	require.Len(t, program.Statements, 3)

	initDecl := program.Statements[1].(*ast.VarDecl)
	arrow, ok := initDecl.Declarators[0].Init.(*ast.ArrowFunction)
	require.True(t, ok)
	assert.True(t, arrow.Async)

	_, ok = program.Statements[2].(*ast.ExportDefault)
	assert.True(t, ok)
}

func TestParse_Initializers(t *testing.T) {
	tests := []struct {
		name   string
		source string
		check  func(t *testing.T, expr ast.Expr)
	}{
		{
			name:   "template without substitutions",
			source: "const moduleName = `plain`",
			check: func(t *testing.T, expr ast.Expr) {
				lit, ok := expr.(*ast.StringLiteral)
				require.True(t, ok)
				assert.True(t, lit.Template)
				assert.Equal(t, "plain", lit.Value)
			},
		},
		{
			name:   "template with substitution",
			source: "const moduleName = `a-${b}`",
			check: func(t *testing.T, expr ast.Expr) {
				_, ok := expr.(*ast.OpaqueExpr)
				assert.True(t, ok)
			},
		},
		{
			name:   "string concatenation",
			source: `const moduleName = "a" + "b"`,
			check: func(t *testing.T, expr ast.Expr) {
				opaque, ok := expr.(*ast.OpaqueExpr)
				require.True(t, ok)
				assert.Equal(t, `"a" + "b"`, opaque.Text)
			},
		},
		{
			name:   "function expression",
			source: "const init = function (root: HTMLElement) { root.focus(); }",
			check: func(t *testing.T, expr ast.Expr) {
				fn, ok := expr.(*ast.FunctionExpr)
				require.True(t, ok)
				require.Len(t, fn.Params, 1)
				assert.Equal(t, "HTMLElement", fn.Params[0].Type)
			},
		},
		{
			name:   "async function expression",
			source: "const init = async function named(root: HTMLElement) {}",
			check: func(t *testing.T, expr ast.Expr) {
				fn, ok := expr.(*ast.FunctionExpr)
				require.True(t, ok)
				assert.True(t, fn.Async)
				assert.Equal(t, "named", fn.Name)
			},
		},
		{
			name:   "single untyped parameter",
			source: "const init = root => root.focus()",
			check: func(t *testing.T, expr ast.Expr) {
				fn, ok := expr.(*ast.ArrowFunction)
				require.True(t, ok)
				require.Len(t, fn.Params, 1)
				assert.Equal(t, "", fn.Params[0].Type)
			},
		},
		{
			name:   "generic arrow",
			source: "const init = <T extends HTMLElement>(root: T): Promise<void> => run(root)",
			check: func(t *testing.T, expr ast.Expr) {
				fn, ok := expr.(*ast.ArrowFunction)
				require.True(t, ok)
				assert.Equal(t, "T", fn.Params[0].Type)
			},
		},
		{
			name:   "immediately invoked arrow",
			source: "const init = ((root: HTMLElement) => {})()",
			check: func(t *testing.T, expr ast.Expr) {
				_, ok := expr.(*ast.OpaqueExpr)
				assert.True(t, ok)
			},
		},
		{
			name:   "call result",
			source: "const init = makeInit(root)",
			check: func(t *testing.T, expr ast.Expr) {
				_, ok := expr.(*ast.OpaqueExpr)
				assert.True(t, ok)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			program := parse(t, tt.source)
			require.Len(t, program.Statements, 1)
			decl := program.Statements[0].(*ast.VarDecl)
			tt.check(t, decl.Declarators[0].Init)
		})
	}
}

func TestParse_Params(t *testing.T) {
	source := `const init = (
    root: HTMLElement | null,
    opts?: Options<Map<string, number>>,
    { a, b }: Pair = defaults(),
    fallback = document.body,
    ...rest: unknown[]
) => {}`
	program := parse(t, source)
	fn := program.Statements[0].(*ast.VarDecl).Declarators[0].Init.(*ast.ArrowFunction)
	require.Len(t, fn.Params, 5)

	assert.Equal(t, "HTMLElement|null", fn.Params[0].Type)
	assert.True(t, fn.Params[1].Optional)
	assert.Equal(t, "Options<Map<string,number>>", fn.Params[1].Type)
	assert.True(t, fn.Params[2].Pattern)
	assert.True(t, fn.Params[2].HasDefault)
	assert.True(t, fn.Params[3].HasDefault)
	assert.Equal(t, "fallback", fn.Params[3].Name)
	assert.True(t, fn.Params[4].Rest)
	assert.Equal(t, "unknown[]", fn.Params[4].Type)
}

func TestParse_FunctionDeclarations(t *testing.T) {
	source := `export function helper(a: number): { ok: boolean } {
    return { ok: a > 0 };
}
export default async function (root: HTMLElement) {}
function* gen() {}
`
	program := parse(t, source)
	require.Len(t, program.Statements, 3)

	helper := program.Statements[0].(*ast.FunctionDecl)
	assert.Equal(t, "helper", helper.Name)
	assert.True(t, helper.Exported)

	anon := program.Statements[1].(*ast.FunctionDecl)
	assert.True(t, anon.Default)
	assert.True(t, anon.Async)
	assert.Empty(t, anon.Name)

	gen := program.Statements[2].(*ast.FunctionDecl)
	assert.True(t, gen.Generator)
}

func TestParse_ExportLists(t *testing.T) {
	source := `const init = (root: HTMLElement) => {};
export { init as default, moduleName, type Props };
export { other } from "./other";
export * from "./all";
export type { Shape };
`
	program := parse(t, source)
	require.Len(t, program.Statements, 5)

	local := program.Statements[1].(*ast.ExportNamed)
	require.Len(t, local.Specifiers, 2)
	assert.Equal(t, "init", local.Specifiers[0].Local)
	assert.Equal(t, "default", local.Specifiers[0].Exported)
	assert.Equal(t, "moduleName", local.Specifiers[1].Exported)

	reexport := program.Statements[2].(*ast.ExportNamed)
	assert.Equal(t, "./other", reexport.From)

	all := program.Statements[3].(*ast.ExportNamed)
	assert.True(t, all.All)

	typeOnly := program.Statements[4].(*ast.ExportNamed)
	assert.True(t, typeOnly.TypeOnly)
}

func TestParse_SkipsUninterestingStatements(t *testing.T) {
	source := `import type { Foo } from "./foo";
import "./side-effect.css";
interface Props { a: string; b?: number }
type Handler = (e: Event) => void;
enum Mode { A, B }
declare global { interface Window { x: number } }
class Widget extends Base<Props> implements Thing {
    method() { if (x < y && y > z) {} }
}
@decorator()
class Decorated {}
if (ready) { start(); } else { wait(); }
document.addEventListener("DOMContentLoaded", () => {
    const re = /[}]/g;
    console.log(` + "`${re}`" + `);
});
export const moduleName = "after";
`
	program := parse(t, source)

	last := program.Statements[len(program.Statements)-1]
	decl, ok := last.(*ast.VarDecl)
	require.True(t, ok, "expected the trailing declaration to survive skipping, got %T", last)
	assert.Equal(t, "moduleName", decl.Declarators[0].Name)
	assert.Equal(t, 17, decl.Loc.Line)
}

func TestParse_MultipleDeclarators(t *testing.T) {
	program := parse(t, `export const a = 1, moduleName = "x", [b, c] = pair;`)

	decl := program.Statements[0].(*ast.VarDecl)
	require.Len(t, decl.Declarators, 3)
	assert.Equal(t, "moduleName", decl.Declarators[1].Name)
	assert.True(t, decl.Declarators[2].Pattern)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		line   int
	}{
		{"missing initializer", "const moduleName = ;", 1},
		{"unclosed brace", "const init = (root: HTMLElement) => {\n", 1},
		{"missing export name", "export { , };", 1},
		{"stray closer", "const a = 1;\n}\n", 2},
		{"two statements on one line", "const a = 1 const b = 2", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, lexErrors, parseErrors := ParseSource(tt.source)
			require.Empty(t, lexErrors)
			require.NotEmpty(t, parseErrors)
			assert.Equal(t, tt.line, parseErrors[0].Location.Line)
		})
	}
}

func TestParse_RecoversAfterError(t *testing.T) {
	source := `const broken = ;
export const moduleName = "still-found";
`
	program, _, parseErrors := ParseSource(source)
	require.NotEmpty(t, parseErrors)

	found := false
	for _, stmt := range program.Statements {
		if decl, ok := stmt.(*ast.VarDecl); ok && decl.Exported {
			found = true
		}
	}
	assert.True(t, found, "parser should resynchronize at the next declaration")
}

func TestParseError_Error(t *testing.T) {
	_, _, parseErrors := ParseSource("const x =")
	require.NotEmpty(t, parseErrors)
	assert.Contains(t, parseErrors[0].Error(), "end of file")
}

func TestProgram_Lookups(t *testing.T) {
	source := `const moduleName = "x";
function init(root: HTMLElement) {}
export { moduleName, init as default };
`
	program := parse(t, source)

	binding, ok := program.Lookup("init")
	require.True(t, ok)
	assert.NotNil(t, binding.Func)
	assert.Equal(t, 2, binding.Location().Line)

	assert.True(t, program.IsExported("moduleName", "moduleName"))
	assert.False(t, program.IsExported("init", "init"))

	defaults := program.DefaultExports()
	require.Len(t, defaults, 1)
	assert.Equal(t, "init", defaults[0].Local)
}
