// Package parser transforms TypeScript token streams into the top-level
// syntax tree defined by package ast. It uses recursive descent for the
// declarations that matter to the module contract and skips everything else
// by balanced-bracket matching, with panic mode error recovery.
package parser

import (
	"fmt"

	"github.com/integreat-cms/featurereg/internal/compiler/ast"
	"github.com/integreat-cms/featurereg/internal/compiler/lexer"
)

// ParseError represents an error encountered during parsing
type ParseError struct {
	Message  string
	Location ast.SourceLocation
	Token    lexer.Token
}

// Error implements the error interface
func (e *ParseError) Error() string {
	near := e.Token.Lexeme
	if e.Token.Type == lexer.TOKEN_EOF {
		near = "end of file"
	}
	return fmt.Sprintf("Parse error at %d:%d: %s (near '%s')",
		e.Location.Line, e.Location.Column, e.Message, near)
}

// NewParseError creates a new parse error
func NewParseError(message string, token lexer.Token) ParseError {
	return ParseError{
		Message:  message,
		Location: ast.TokenLocation(token),
		Token:    token,
	}
}
