// Package errors provides structured diagnostics for feature module
// validation and registry generation. It defines error codes, categories,
// and formatting for human-readable terminal output as well as JSON and YAML
// for CI tooling.
package errors

import (
	"encoding/json"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/integreat-cms/featurereg/internal/compiler/ast"
)

// ErrorCode represents a unique diagnostic code
type ErrorCode string

// ErrorCategory represents the category of a diagnostic
type ErrorCategory string

const (
	// CategorySyntax represents syntax errors (SYN001-099)
	CategorySyntax ErrorCategory = "syntax"
	// CategoryContract represents module contract violations (MOD101-103)
	CategoryContract ErrorCategory = "contract"
	// CategoryDuplicate represents duplicate module names (MOD104)
	CategoryDuplicate ErrorCategory = "duplicate"
	// CategoryIO represents filesystem failures (IO501-599)
	CategoryIO ErrorCategory = "io"
	// CategoryCodeGen represents registry rendering errors (GEN600-699)
	CategoryCodeGen ErrorCategory = "codegen"
)

// ErrorSeverity indicates the severity level of an error
type ErrorSeverity string

const (
	// SeverityError excludes the module from the registry
	SeverityError ErrorSeverity = "error"
	// SeverityWarning indicates a potential issue that does not exclude the module
	SeverityWarning ErrorSeverity = "warning"
	// SeverityInfo indicates informational messages
	SeverityInfo ErrorSeverity = "info"
)

// ErrorContext provides source code context for an error
type ErrorContext struct {
	// Current is the line of code where the error occurred
	Current string `json:"current" yaml:"current"`
	// SourceLines is a snippet of source code (before, error line, after)
	SourceLines []string `json:"source_lines" yaml:"source_lines"`
}

// CompilerError represents one structured diagnostic
type CompilerError struct {
	// Code is the unique error code (e.g., "MOD101", "SYN001")
	Code ErrorCode `json:"code" yaml:"code"`
	// Type is a machine-readable error type identifier
	Type string `json:"type" yaml:"type"`
	// Category is the error category
	Category ErrorCategory `json:"category" yaml:"category"`
	// Severity is the error severity level
	Severity ErrorSeverity `json:"severity" yaml:"severity"`
	// Message is the primary error message
	Message string `json:"message" yaml:"message"`
	// Location is the source location of the error
	Location ast.SourceLocation `json:"location" yaml:"location"`
	// File is the source file path (optional)
	File string `json:"file,omitempty" yaml:"file,omitempty"`
	// Context provides source code context
	Context *ErrorContext `json:"context,omitempty" yaml:"context,omitempty"`
	// Expected describes what was expected (optional)
	Expected string `json:"expected,omitempty" yaml:"expected,omitempty"`
	// Actual describes what was actually found (optional)
	Actual string `json:"actual,omitempty" yaml:"actual,omitempty"`
	// Suggestion provides a hint for fixing the error (optional)
	Suggestion string `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
	// Examples provides example fixes (optional)
	Examples []string `json:"examples,omitempty" yaml:"examples,omitempty"`
	// Cause is the underlying error for io and codegen failures
	Cause error `json:"-" yaml:"-"`
}

// Error implements the error interface
func (e *CompilerError) Error() string {
	return FormatCompact(e)
}

// Unwrap returns the underlying cause, if any
func (e *CompilerError) Unwrap() error {
	return e.Cause
}

// Format returns a human-readable error message for terminal output
func (e *CompilerError) Format() string {
	return FormatError(e)
}

// ToJSON returns the error as a JSON string
func (e *CompilerError) ToJSON() (string, error) {
	bytes, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// WithFile sets the source file name for the error
func (e *CompilerError) WithFile(file string) *CompilerError {
	e.File = file
	return e
}

// WithContext sets the source code context for the error
func (e *CompilerError) WithContext(current string, sourceLines []string) *CompilerError {
	e.Context = &ErrorContext{
		Current:     current,
		SourceLines: sourceLines,
	}
	return e
}

// WithSource attaches the lines around the error location taken from source
func (e *CompilerError) WithSource(source string) *CompilerError {
	lines := strings.Split(source, "\n")
	idx := e.Location.Line - 1
	if idx < 0 || idx >= len(lines) {
		return e
	}

	// Always three entries so the formatter can mark the middle one
	snippet := make([]string, 3)
	for i := range snippet {
		if n := idx - 1 + i; n >= 0 && n < len(lines) {
			snippet[i] = strings.TrimRight(lines[n], "\r")
		}
	}
	return e.WithContext(snippet[1], snippet)
}

// WithExpected sets the expected value for the error
func (e *CompilerError) WithExpected(expected string) *CompilerError {
	e.Expected = expected
	return e
}

// WithActual sets the actual value for the error
func (e *CompilerError) WithActual(actual string) *CompilerError {
	e.Actual = actual
	return e
}

// WithSuggestion sets a suggestion for fixing the error
func (e *CompilerError) WithSuggestion(suggestion string) *CompilerError {
	e.Suggestion = suggestion
	return e
}

// WithExamples sets example fixes for the error
func (e *CompilerError) WithExamples(examples ...string) *CompilerError {
	e.Examples = examples
	return e
}

// ErrorList is a collection of compiler errors
type ErrorList []*CompilerError

// Error implements the error interface
func (el ErrorList) Error() string {
	if len(el) == 0 {
		return "no errors"
	}
	return FormatErrorList(el)
}

// HasErrors returns true if the list contains any errors (excludes warnings/info)
func (el ErrorList) HasErrors() bool {
	for _, err := range el {
		if err.Severity == SeverityError {
			return true
		}
	}
	return false
}

// HasWarnings returns true if the list contains any warnings
func (el ErrorList) HasWarnings() bool {
	for _, err := range el {
		if err.Severity == SeverityWarning {
			return true
		}
	}
	return false
}

// WithFile sets the file on every error of the list
func (el ErrorList) WithFile(file string) ErrorList {
	for _, err := range el {
		err.WithFile(file)
	}
	return el
}

// Codes returns the error codes in list order
func (el ErrorList) Codes() []ErrorCode {
	codes := make([]ErrorCode, len(el))
	for i, err := range el {
		codes[i] = err.Code
	}
	return codes
}

// ToJSON returns all errors as a JSON array
func (el ErrorList) ToJSON() (string, error) {
	bytes, err := json.MarshalIndent(el, "", "  ")
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// ToYAML returns all errors as a YAML sequence
func (el ErrorList) ToYAML() (string, error) {
	bytes, err := yaml.Marshal(el)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// ErrorCount returns the number of errors by severity
func (el ErrorList) ErrorCount() (errors, warnings, info int) {
	for _, err := range el {
		switch err.Severity {
		case SeverityError:
			errors++
		case SeverityWarning:
			warnings++
		case SeverityInfo:
			info++
		}
	}
	return
}

// newError creates a new CompilerError with the given parameters
func newError(
	code ErrorCode,
	typ string,
	category ErrorCategory,
	severity ErrorSeverity,
	message string,
	loc ast.SourceLocation,
) *CompilerError {
	return &CompilerError{
		Code:     code,
		Type:     typ,
		Category: category,
		Severity: severity,
		Message:  message,
		Location: loc,
	}
}
