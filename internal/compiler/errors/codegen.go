package errors

import (
	"fmt"

	"github.com/integreat-cms/featurereg/internal/compiler/ast"
)

// Registry generation error codes (GEN600-699)
const (
	// ErrRenderFailed indicates the registry could not be rendered or formatted
	ErrRenderFailed ErrorCode = "GEN601"
)

// NewRenderFailed creates a GEN601 error
func NewRenderFailed(stage string, cause error) *CompilerError {
	e := newError(
		ErrRenderFailed,
		"render_failed",
		CategoryCodeGen,
		SeverityError,
		fmt.Sprintf("Registry %s failed: %v", stage, cause),
		ast.SourceLocation{},
	)
	e.Cause = cause
	if stage == "formatting" {
		e.WithSuggestion("Run the configured format command by hand on the registry to see its output")
	}
	return e
}
