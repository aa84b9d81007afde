package errors

import (
	"fmt"

	"github.com/integreat-cms/featurereg/internal/compiler/ast"
)

// Filesystem error codes (IO501-599)
const (
	// ErrReadFailed indicates a feature module or directory could not be read
	ErrReadFailed ErrorCode = "IO501"
	// ErrWriteFailed indicates the registry could not be written
	ErrWriteFailed ErrorCode = "IO502"
)

// NewReadFailed creates an IO501 error. It aborts the generation run.
func NewReadFailed(path string, cause error) *CompilerError {
	e := newError(
		ErrReadFailed,
		"read_failed",
		CategoryIO,
		SeverityError,
		fmt.Sprintf("Cannot read %s: %v", path, cause),
		ast.SourceLocation{},
	).WithFile(path)
	e.Cause = cause
	return e
}

// NewWriteFailed creates an IO502 error. The previous registry stays in place.
func NewWriteFailed(path string, cause error) *CompilerError {
	e := newError(
		ErrWriteFailed,
		"write_failed",
		CategoryIO,
		SeverityError,
		fmt.Sprintf("Cannot write registry %s: %v", path, cause),
		ast.SourceLocation{},
	).WithFile(path).
		WithSuggestion("Check that the output directory exists and is writable")
	e.Cause = cause
	return e
}
