// Package contract decides, by static inspection of the syntax tree, whether
// a TypeScript file is a well-formed feature module. Candidate files are
// parsed, never executed.
//
// A feature module exports a const moduleName initialized to a string
// literal matching NamePattern. It declares a const init holding a function
// whose single parameter is named root and typed as the root element type,
// exports init as its default export, and uses a moduleName no previously
// processed file has claimed.
//
// Each violated rule yields exactly one reason; satisfied rules yield none.
package contract

import (
	"fmt"
	"regexp"

	"github.com/integreat-cms/featurereg/internal/compiler/ast"
	"github.com/integreat-cms/featurereg/internal/compiler/errors"
	"github.com/integreat-cms/featurereg/internal/compiler/parser"
)

// NamePattern is the pattern every module name must match
const NamePattern = `^[a-z0-9-]+$`

// DefaultRootType is the parameter type init must declare
const DefaultRootType = "HTMLElement"

var namePattern = regexp.MustCompile(NamePattern)

// ClaimChecker reports which file already claimed a module name
type ClaimChecker interface {
	ClaimedBy(name string) (path string, ok bool)
}

// Analysis is the result of checking one file in isolation: everything but
// name uniqueness.
// It depends only on the file contents and can be cached by content hash.
type Analysis struct {
	// Name is the declared module name, empty unless the moduleName export is
	// well formed
	Name string
	// NameLoc is the location of the moduleName binding
	NameLoc ast.SourceLocation
	// Errors holds syntax errors or contract reasons, without file names
	Errors errors.ErrorList
}

// Result is the outcome of validating one file
type Result struct {
	File   string
	Name   string
	Errors errors.ErrorList
}

// Valid reports whether the file satisfies the whole contract
func (r *Result) Valid() bool {
	return len(r.Errors) == 0
}

// Validator checks feature modules against the author contract
type Validator struct {
	rootType string
}

// NewValidator creates a validator requiring init's parameter to be typed as
// rootType. An empty rootType selects DefaultRootType.
func NewValidator(rootType string) *Validator {
	rootType = parser.NormalizeType(rootType)
	if rootType == "" {
		rootType = DefaultRootType
	}
	return &Validator{rootType: rootType}
}

// RootType returns the parameter type the validator requires
func (v *Validator) RootType() string {
	return v.rootType
}

// Validate checks a file against the whole contract. claims may be nil, in
// which case name uniqueness is not checked. Validate never claims a name.
func (v *Validator) Validate(file, source string, claims ClaimChecker) *Result {
	return v.Finish(file, source, v.Analyze(source), claims)
}

// Analyze parses source and checks the moduleName export, the init
// signature and the default export
func (v *Validator) Analyze(source string) *Analysis {
	analysis := &Analysis{Errors: make(errors.ErrorList, 0)}

	program, lexErrors, parseErrors := parser.ParseSource(source)
	for _, le := range lexErrors {
		loc := ast.SourceLocation{Line: le.Line, Column: le.Column}
		analysis.Errors = append(analysis.Errors, errors.NewSyntaxError(loc, le.Message))
	}
	for _, pe := range parseErrors {
		analysis.Errors = append(analysis.Errors, errors.NewSyntaxError(pe.Location, pe.Error()))
	}
	if len(analysis.Errors) > 0 {
		// The tree of a broken file cannot be trusted for contract checks
		return analysis
	}

	if name, loc, err := v.checkModuleName(program); err != nil {
		analysis.Errors = append(analysis.Errors, err)
	} else {
		analysis.Name = name
		analysis.NameLoc = loc
	}
	if err := v.checkInit(program); err != nil {
		analysis.Errors = append(analysis.Errors, err)
	}
	if err := v.checkDefaultExport(program); err != nil {
		analysis.Errors = append(analysis.Errors, err)
	}
	return analysis
}

// Finish checks name uniqueness for an analysis and attaches the file
// name and source context to every reason. The analysis is not modified.
func (v *Validator) Finish(file, source string, analysis *Analysis, claims ClaimChecker) *Result {
	result := &Result{File: file, Errors: make(errors.ErrorList, 0, len(analysis.Errors)+1)}

	for _, err := range analysis.Errors {
		copied := *err
		result.Errors = append(result.Errors, copied.WithFile(file).WithSource(source))
	}

	if analysis.Name != "" && claims != nil {
		if claimedBy, taken := claims.ClaimedBy(analysis.Name); taken {
			result.Errors = append(result.Errors,
				errors.NewDuplicateModuleName(analysis.NameLoc, analysis.Name, claimedBy).
					WithFile(file).WithSource(source))
		}
	}

	if len(result.Errors) == 0 {
		result.Name = analysis.Name
	}
	return result
}

// checkModuleName verifies moduleName is an exported const string literal
// matching NamePattern
func (v *Validator) checkModuleName(program *ast.Program) (string, ast.SourceLocation, *errors.CompilerError) {
	binding, ok := program.Lookup("moduleName")
	if !ok {
		return "", ast.SourceLocation{}, errors.NewModuleNameMissing()
	}
	loc := binding.Location()

	if !program.IsExported("moduleName", "moduleName") {
		return "", loc, errors.NewModuleNameNotExported(loc)
	}
	if kind := declaredAs(binding); kind != "const" {
		return "", loc, errors.NewModuleNameNotConst(loc, kind)
	}

	lit, ok := binding.Declarator.Init.(*ast.StringLiteral)
	if !ok || lit.Template {
		return "", loc, errors.NewModuleNameNotLiteral(loc, describeExpr(binding.Declarator.Init))
	}
	if !namePattern.MatchString(lit.Value) {
		return "", loc, errors.NewModuleNameInvalid(lit.Loc, lit.Value, NamePattern)
	}
	return lit.Value, loc, nil
}

// checkInit verifies init is a const function taking a single root
// parameter of the root type
func (v *Validator) checkInit(program *ast.Program) *errors.CompilerError {
	binding, ok := program.Lookup("init")
	if !ok {
		return errors.NewInitMissing(v.rootType)
	}
	loc := binding.Location()

	if kind := declaredAs(binding); kind != "const" {
		return errors.NewInitNotConst(loc, kind, v.rootType)
	}

	fn, ok := binding.Declarator.Init.(ast.FunctionLike)
	if !ok {
		return errors.NewInitNotFunction(loc, describeExpr(binding.Declarator.Init), v.rootType)
	}
	if expr, isExpr := fn.(*ast.FunctionExpr); isExpr && expr.Generator {
		return errors.NewInitNotFunction(fn.Location(), "generator function", v.rootType)
	}

	params := fn.Parameters()
	if len(params) != 1 {
		return errors.NewInitParamCount(fn.Location(), len(params), v.rootType)
	}

	param := params[0]
	switch {
	case param.Pattern:
		return errors.NewInitParamShape(param.Loc, "a destructured")
	case param.Rest:
		return errors.NewInitParamShape(param.Loc, "a rest")
	case param.Name != "root":
		return errors.NewInitParamName(param.Loc, param.Name)
	case param.Optional:
		return errors.NewInitParamShape(param.Loc, "an optional")
	case param.HasDefault:
		return errors.NewInitParamShape(param.Loc, "a defaulted")
	case param.Type != v.rootType:
		return errors.NewInitParamType(param.Loc, param.Type, v.rootType)
	}
	return nil
}

// checkDefaultExport verifies init is the default export
func (v *Validator) checkDefaultExport(program *ast.Program) *errors.CompilerError {
	defaults := program.DefaultExports()
	if len(defaults) == 0 {
		return errors.NewDefaultExportMissing()
	}

	for _, def := range defaults {
		if def.Local == "init" {
			return nil
		}
	}

	first := defaults[0]
	actual := "an anonymous default export"
	if first.Local != "" {
		actual = fmt.Sprintf("'%s'", first.Local)
	} else if stmt, ok := first.Node.(*ast.ExportDefault); ok && stmt.Expr != nil {
		actual = describeExpr(stmt.Expr)
	}
	return errors.NewDefaultExportMismatch(first.Node.Location(), actual)
}

// declaredAs names the kind of declaration a binding comes from
func declaredAs(b *ast.Binding) string {
	switch {
	case b.Func != nil:
		return "a function declaration"
	case b.Class != nil:
		return "a class declaration"
	}
	return b.Var.Kind.String()
}

// describeExpr names an expression for diagnostics
func describeExpr(expr ast.Expr) string {
	switch e := expr.(type) {
	case nil:
		return "no initializer"
	case *ast.StringLiteral:
		if e.Template {
			return "a template literal"
		}
		return fmt.Sprintf("%q", e.Value)
	case *ast.Identifier:
		return fmt.Sprintf("identifier '%s'", e.Name)
	case *ast.ArrowFunction:
		return "an arrow function"
	case *ast.FunctionExpr:
		return "a function expression"
	case *ast.OpaqueExpr:
		return fmt.Sprintf("expression '%s'", truncate(e.Text, 40))
	}
	return "an expression"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
