package errors

import (
	"fmt"

	"github.com/integreat-cms/featurereg/internal/compiler/ast"
)

// Module contract error codes (MOD101-199)
const (
	// ErrModuleName indicates a missing or invalid moduleName export
	ErrModuleName ErrorCode = "MOD101"
	// ErrInitSignature indicates a missing or malformed init function
	ErrInitSignature ErrorCode = "MOD102"
	// ErrDefaultExport indicates init is not the module's default export
	ErrDefaultExport ErrorCode = "MOD103"
	// ErrDuplicateName indicates the module name was already claimed
	ErrDuplicateName ErrorCode = "MOD104"
)

const moduleNameExample = `export const moduleName = "my-feature";`

// NewModuleNameMissing creates a MOD101 error for modules without moduleName
func NewModuleNameMissing() *CompilerError {
	return newError(
		ErrModuleName,
		"module_name_missing",
		CategoryContract,
		SeverityError,
		"Missing top-level 'export const moduleName'",
		ast.SourceLocation{Line: 1, Column: 1},
	).WithExamples(moduleNameExample)
}

// NewModuleNameNotExported creates a MOD101 error
func NewModuleNameNotExported(loc ast.SourceLocation) *CompilerError {
	return newError(
		ErrModuleName,
		"module_name_not_exported",
		CategoryContract,
		SeverityError,
		"moduleName is declared but not exported",
		loc,
	).WithSuggestion("Add 'export' in front of the declaration").
		WithExamples(moduleNameExample)
}

// NewModuleNameNotConst creates a MOD101 error for let/var/function bindings
func NewModuleNameNotConst(loc ast.SourceLocation, declaredAs string) *CompilerError {
	return newError(
		ErrModuleName,
		"module_name_not_const",
		CategoryContract,
		SeverityError,
		fmt.Sprintf("moduleName must be declared with const, not %s", declaredAs),
		loc,
	).WithExpected("const").WithActual(declaredAs)
}

// NewModuleNameNotLiteral creates a MOD101 error for computed names
func NewModuleNameNotLiteral(loc ast.SourceLocation, actual string) *CompilerError {
	return newError(
		ErrModuleName,
		"module_name_not_literal",
		CategoryContract,
		SeverityError,
		"moduleName must be initialized to a string literal",
		loc,
	).WithExpected("string literal").WithActual(actual).
		WithExamples(moduleNameExample)
}

// NewModuleNameInvalid creates a MOD101 error for names outside the pattern
func NewModuleNameInvalid(loc ast.SourceLocation, name, pattern string) *CompilerError {
	return newError(
		ErrModuleName,
		"module_name_invalid",
		CategoryContract,
		SeverityError,
		fmt.Sprintf("moduleName %q does not match the pattern %s", name, pattern),
		loc,
	).WithExpected(pattern).WithActual(fmt.Sprintf("%q", name)).
		WithSuggestion("Use lowercase letters, digits and hyphens only")
}

// NewInitMissing creates a MOD102 error for modules without init
func NewInitMissing(rootType string) *CompilerError {
	return newError(
		ErrInitSignature,
		"init_missing",
		CategoryContract,
		SeverityError,
		"Missing top-level 'const init'",
		ast.SourceLocation{Line: 1, Column: 1},
	).WithExamples(initExample(rootType))
}

// NewInitNotConst creates a MOD102 error for init bindings that are not const
func NewInitNotConst(loc ast.SourceLocation, declaredAs, rootType string) *CompilerError {
	return newError(
		ErrInitSignature,
		"init_not_const",
		CategoryContract,
		SeverityError,
		fmt.Sprintf("init must be declared with const, not %s", declaredAs),
		loc,
	).WithExpected("const").WithActual(declaredAs).
		WithExamples(initExample(rootType))
}

// NewInitNotFunction creates a MOD102 error for non-function initializers
func NewInitNotFunction(loc ast.SourceLocation, actual, rootType string) *CompilerError {
	return newError(
		ErrInitSignature,
		"init_not_function",
		CategoryContract,
		SeverityError,
		"init must be initialized to an arrow function or function expression",
		loc,
	).WithActual(actual).WithExamples(initExample(rootType))
}

// NewInitParamCount creates a MOD102 error for a wrong number of parameters
func NewInitParamCount(loc ast.SourceLocation, count int, rootType string) *CompilerError {
	return newError(
		ErrInitSignature,
		"init_param_count",
		CategoryContract,
		SeverityError,
		fmt.Sprintf("init must take exactly one parameter, found %d", count),
		loc,
	).WithExpected(fmt.Sprintf("(root: %s)", rootType)).
		WithActual(fmt.Sprintf("%d parameter(s)", count))
}

// NewInitParamName creates a MOD102 error for a parameter not named root
func NewInitParamName(loc ast.SourceLocation, name string) *CompilerError {
	return newError(
		ErrInitSignature,
		"init_param_name",
		CategoryContract,
		SeverityError,
		fmt.Sprintf("init parameter must be named 'root', found '%s'", name),
		loc,
	).WithExpected("root").WithActual(name)
}

// NewInitParamShape creates a MOD102 error for rest, optional, defaulted or
// destructured parameters
func NewInitParamShape(loc ast.SourceLocation, shape string) *CompilerError {
	return newError(
		ErrInitSignature,
		"init_param_shape",
		CategoryContract,
		SeverityError,
		fmt.Sprintf("init parameter must be a plain 'root' binding, found %s parameter", shape),
		loc,
	).WithActual(shape)
}

// NewInitParamType creates a MOD102 error for a missing or wrong type
// annotation. An empty actual means the annotation is missing.
func NewInitParamType(loc ast.SourceLocation, actual, rootType string) *CompilerError {
	message := fmt.Sprintf("init parameter 'root' must be typed as %s", rootType)
	if actual != "" {
		message = fmt.Sprintf("init parameter 'root' must be typed as %s, found %s", rootType, actual)
	}
	e := newError(
		ErrInitSignature,
		"init_param_type",
		CategoryContract,
		SeverityError,
		message,
		loc,
	).WithExpected(rootType)
	if actual != "" {
		e.WithActual(actual)
	}
	return e
}

// NewDefaultExportMissing creates a MOD103 error for modules without any
// default export
func NewDefaultExportMissing() *CompilerError {
	return newError(
		ErrDefaultExport,
		"default_export_missing",
		CategoryContract,
		SeverityError,
		"init is not the module's default export",
		ast.SourceLocation{Line: 1, Column: 1},
	).WithExamples("export default init;", "export { init as default };")
}

// NewDefaultExportMismatch creates a MOD103 error for a default export of
// something other than init
func NewDefaultExportMismatch(loc ast.SourceLocation, actual string) *CompilerError {
	return newError(
		ErrDefaultExport,
		"default_export_mismatch",
		CategoryContract,
		SeverityError,
		fmt.Sprintf("The default export must be init, found %s", actual),
		loc,
	).WithExpected("init").WithActual(actual).
		WithExamples("export default init;")
}

// NewDuplicateModuleName creates a MOD104 error
func NewDuplicateModuleName(loc ast.SourceLocation, name, claimedBy string) *CompilerError {
	return newError(
		ErrDuplicateName,
		"duplicate_module_name",
		CategoryDuplicate,
		SeverityError,
		fmt.Sprintf("moduleName %q is already used by %s", name, claimedBy),
		loc,
	).WithSuggestion("Module names must be unique; rename one of the modules")
}

func initExample(rootType string) string {
	return fmt.Sprintf("const init = (root: %s) => { /* ... */ };", rootType)
}
