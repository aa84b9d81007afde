package errors

import (
	"github.com/integreat-cms/featurereg/internal/compiler/ast"
)

// Syntax error codes (SYN001-099)
const (
	// ErrSyntax indicates the module could not be lexed or parsed
	ErrSyntax ErrorCode = "SYN001"
)

// NewSyntaxError creates a SYN001 error
func NewSyntaxError(loc ast.SourceLocation, message string) *CompilerError {
	return newError(
		ErrSyntax,
		"syntax_error",
		CategorySyntax,
		SeverityError,
		message,
		loc,
	).WithSuggestion("Fix the syntax error; contract checks run once the module parses")
}
