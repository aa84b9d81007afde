package errors

import (
	"encoding/json"
	goerrors "errors"
	"io/fs"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/integreat-cms/featurereg/internal/compiler/ast"
)

func TestErrorCodeUniqueness(t *testing.T) {
	codes := make(map[ErrorCode]string)

	all := map[string][]ErrorCode{
		"syntax":   {ErrSyntax},
		"contract": {ErrModuleName, ErrInitSignature, ErrDefaultExport, ErrDuplicateName},
		"io":       {ErrReadFailed, ErrWriteFailed},
		"codegen":  {ErrRenderFailed},
	}

	for group, groupCodes := range all {
		for _, code := range groupCodes {
			if prev, exists := codes[code]; exists {
				t.Errorf("Duplicate error code %s (previously used for %s)", code, prev)
			}
			codes[code] = group
		}
	}
}

func TestConstructorCategories(t *testing.T) {
	loc := ast.SourceLocation{Line: 3, Column: 14}

	tests := []struct {
		name     string
		err      *CompilerError
		code     ErrorCode
		category ErrorCategory
	}{
		{"syntax", NewSyntaxError(loc, "Expected ';'"), ErrSyntax, CategorySyntax},
		{"module name missing", NewModuleNameMissing(), ErrModuleName, CategoryContract},
		{"module name pattern", NewModuleNameInvalid(loc, "Xliff_Upload", "^[a-z0-9-]+$"), ErrModuleName, CategoryContract},
		{"init missing", NewInitMissing("HTMLElement"), ErrInitSignature, CategoryContract},
		{"init param", NewInitParamName(loc, "element"), ErrInitSignature, CategoryContract},
		{"default export", NewDefaultExportMissing(), ErrDefaultExport, CategoryContract},
		{"duplicate", NewDuplicateModuleName(loc, "tree-drag", "a/tree.ts"), ErrDuplicateName, CategoryDuplicate},
		{"read", NewReadFailed("feature/x.ts", fs.ErrPermission), ErrReadFailed, CategoryIO},
		{"render", NewRenderFailed("formatting", fs.ErrClosed), ErrRenderFailed, CategoryCodeGen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Expected code %s, got %s", tt.code, tt.err.Code)
			}
			if tt.err.Category != tt.category {
				t.Errorf("Expected category %s, got %s", tt.category, tt.err.Category)
			}
			if tt.err.Severity != SeverityError {
				t.Errorf("Expected severity error, got %s", tt.err.Severity)
			}
		})
	}
}

func TestModuleNameInvalidCitesPattern(t *testing.T) {
	err := NewModuleNameInvalid(ast.SourceLocation{Line: 1, Column: 14}, "Xliff_Upload", "^[a-z0-9-]+$")

	if !strings.Contains(err.Message, "^[a-z0-9-]+$") {
		t.Errorf("Message should cite the naming pattern, got %q", err.Message)
	}
	if !strings.Contains(err.Message, "Xliff_Upload") {
		t.Errorf("Message should cite the offending name, got %q", err.Message)
	}
}

func TestInitParamTypeMessage(t *testing.T) {
	loc := ast.SourceLocation{Line: 2, Column: 15}

	missing := NewInitParamType(loc, "", "HTMLElement")
	if missing.Actual != "" {
		t.Errorf("Expected no actual type, got %q", missing.Actual)
	}

	wrong := NewInitParamType(loc, "Element", "HTMLElement")
	if !strings.Contains(wrong.Message, "found Element") {
		t.Errorf("Expected the found type in the message, got %q", wrong.Message)
	}
}

func TestErrorJSONSerialization(t *testing.T) {
	loc := ast.SourceLocation{Line: 10, Column: 5}
	err := NewInitParamName(loc, "element").WithFile("feature/tree.ts")

	jsonStr, jsonErr := err.ToJSON()
	if jsonErr != nil {
		t.Fatalf("Failed to serialize error to JSON: %v", jsonErr)
	}

	var parsed CompilerError
	if unmarshalErr := json.Unmarshal([]byte(jsonStr), &parsed); unmarshalErr != nil {
		t.Fatalf("Failed to parse error JSON: %v", unmarshalErr)
	}

	if parsed.Code != ErrInitSignature {
		t.Errorf("Expected code %s, got %s", ErrInitSignature, parsed.Code)
	}
	if parsed.Type != "init_param_name" {
		t.Errorf("Expected type 'init_param_name', got '%s'", parsed.Type)
	}
	if parsed.Location.Line != 10 || parsed.Location.Column != 5 {
		t.Errorf("Expected location 10:5, got %d:%d", parsed.Location.Line, parsed.Location.Column)
	}
	if parsed.File != "feature/tree.ts" {
		t.Errorf("Expected file, got '%s'", parsed.File)
	}
	if parsed.Expected != "root" || parsed.Actual != "element" {
		t.Errorf("Expected root/element, got %s/%s", parsed.Expected, parsed.Actual)
	}
}

func TestErrorListYAMLSerialization(t *testing.T) {
	errors := ErrorList{
		NewModuleNameMissing(),
		NewDefaultExportMissing(),
	}

	out, err := errors.ToYAML()
	if err != nil {
		t.Fatalf("Failed to serialize error list to YAML: %v", err)
	}

	var parsed []map[string]interface{}
	if err := yaml.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("Failed to parse YAML: %v", err)
	}
	if len(parsed) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(parsed))
	}
	if parsed[1]["code"] != "MOD103" {
		t.Errorf("Expected MOD103, got %v", parsed[1]["code"])
	}
}

func TestErrorFormatting(t *testing.T) {
	source := "export const moduleName = \"tree\";\nconst init = (element: HTMLElement) => {};\nexport default init;"
	err := NewInitParamName(ast.SourceLocation{Line: 2, Column: 15}, "element").
		WithFile("feature/tree.ts").
		WithSource(source)

	formatted := err.Format()

	for _, want := range []string{
		"Module Contract Violation",
		"feature/tree.ts",
		"[MOD102]",
		"Line 2, Column 15",
		"const init = (element: HTMLElement) => {}; ← init parameter must be named 'root'",
		"Expected: root",
		"Actual:   element",
	} {
		if !strings.Contains(formatted, want) {
			t.Errorf("Formatted error should contain %q\n%s", want, formatted)
		}
	}
}

func TestWithSourceAtFirstLine(t *testing.T) {
	err := NewSyntaxError(ast.SourceLocation{Line: 1, Column: 20}, "Unterminated string").
		WithSource("const moduleName = \"open\nconst init = 1;")

	if err.Context == nil {
		t.Fatal("Expected context")
	}
	if err.Context.Current != "const moduleName = \"open" {
		t.Errorf("Unexpected current line %q", err.Context.Current)
	}
	if strings.Contains(err.Format(), "  0 |") {
		t.Error("Line 0 must not be rendered")
	}
}

func TestWithSourceOutOfRange(t *testing.T) {
	err := NewModuleNameMissing().WithSource("")
	if err.Context != nil && err.Context.Current != "" {
		t.Errorf("Unexpected context %+v", err.Context)
	}

	err = NewSyntaxError(ast.SourceLocation{Line: 9, Column: 1}, "x").WithSource("one line")
	if err.Context != nil {
		t.Error("Expected no context beyond the end of the source")
	}
}

func TestFormatCompact(t *testing.T) {
	err := NewDuplicateModuleName(ast.SourceLocation{Line: 1, Column: 14}, "tree-drag", "feature/a.ts").
		WithFile("feature/b.ts")

	expected := `feature/b.ts:1:14: error: moduleName "tree-drag" is already used by feature/a.ts [MOD104]`
	if got := FormatCompact(err); got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}
	if err.Error() != expected {
		t.Errorf("Error() should use the compact form, got %q", err.Error())
	}
}

func TestErrorListFormatting(t *testing.T) {
	errors := ErrorList{
		NewModuleNameMissing(),
		NewSyntaxError(ast.SourceLocation{Line: 4, Column: 1}, "Unexpected '}'"),
	}.WithFile("feature/x.ts")

	formatted := errors.Error()

	if !strings.Contains(formatted, "2 error(s)") {
		t.Error("Formatted error list should contain error count")
	}
	if !strings.Contains(formatted, "Module Contract Violation") || !strings.Contains(formatted, "Syntax Error") {
		t.Error("Formatted error list should contain both errors")
	}
	for _, err := range errors {
		if err.File != "feature/x.ts" {
			t.Errorf("Expected file on every error, got %q", err.File)
		}
	}
}

func TestErrorListHelpers(t *testing.T) {
	warning := NewSyntaxError(ast.SourceLocation{Line: 1, Column: 1}, "x")
	warning.Severity = SeverityWarning

	errors := ErrorList{NewModuleNameMissing(), warning}

	if !errors.HasErrors() || !errors.HasWarnings() {
		t.Error("Expected both errors and warnings")
	}
	errCount, warnCount, infoCount := errors.ErrorCount()
	if errCount != 1 || warnCount != 1 || infoCount != 0 {
		t.Errorf("Unexpected counts %d/%d/%d", errCount, warnCount, infoCount)
	}

	codes := errors.Codes()
	if len(codes) != 2 || codes[0] != ErrModuleName || codes[1] != ErrSyntax {
		t.Errorf("Unexpected codes %v", codes)
	}

	if (ErrorList{}).Error() != "no errors" {
		t.Error("Empty list should report no errors")
	}
}

func TestCauseUnwrap(t *testing.T) {
	err := NewWriteFailed("static/src/js/registry.ts", fs.ErrPermission)

	if !goerrors.Is(err, fs.ErrPermission) {
		t.Error("Expected the cause to be reachable through errors.Is")
	}
	if err.Suggestion == "" {
		t.Error("Expected a suggestion for write failures")
	}
}
