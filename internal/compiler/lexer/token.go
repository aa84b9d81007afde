package lexer

import "fmt"

// TokenType represents the type of a token in a TypeScript source file
type TokenType int

const (
	// TOKEN_EOF marks the end of the token stream.
	TOKEN_EOF TokenType = iota
	// TOKEN_ERROR represents a lexical error encountered during scanning.
	TOKEN_ERROR

	// Keywords - Declarations
	TOKEN_EXPORT    // export
	TOKEN_DEFAULT   // default
	TOKEN_IMPORT    // import
	TOKEN_FROM      // from
	TOKEN_AS        // as
	TOKEN_CONST     // const
	TOKEN_LET       // let
	TOKEN_VAR       // var
	TOKEN_FUNCTION  // function
	TOKEN_ASYNC     // async
	TOKEN_CLASS     // class
	TOKEN_TYPE      // type
	TOKEN_INTERFACE // interface
	TOKEN_ENUM      // enum
	TOKEN_DECLARE   // declare

	// Keywords - Statements that may appear at the top level
	TOKEN_IF     // if
	TOKEN_FOR    // for
	TOKEN_WHILE  // while
	TOKEN_DO     // do
	TOKEN_SWITCH // switch
	TOKEN_TRY    // try
	TOKEN_RETURN // return
	TOKEN_THROW  // throw
	TOKEN_NEW    // new

	// Literals
	TOKEN_IDENTIFIER     // root, init, moduleName
	TOKEN_STRING_LITERAL // "xliff-upload", 'tree-drag'
	TOKEN_TEMPLATE       // `...`
	TOKEN_NUMBER         // 42, 0x1f, 1_000, 3.14
	TOKEN_REGEX          // /ab+c/gi

	// Delimiters
	TOKEN_LBRACE   // {
	TOKEN_RBRACE   // }
	TOKEN_LPAREN   // (
	TOKEN_RPAREN   // )
	TOKEN_LBRACKET // [
	TOKEN_RBRACKET // ]

	// Punctuation and operators
	TOKEN_SEMICOLON // ;
	TOKEN_COMMA     // ,
	TOKEN_COLON     // :
	TOKEN_DOT       // .
	TOKEN_ELLIPSIS  // ...
	TOKEN_QUESTION  // ?
	TOKEN_OPT_CHAIN // ?.
	TOKEN_EQUALS    // =
	TOKEN_ARROW     // =>
	TOKEN_LT        // <
	TOKEN_GT        // >
	TOKEN_PIPE      // |
	TOKEN_AMP       // &
	TOKEN_AT        // @
	TOKEN_OPERATOR  // any other operator (+, ===, &&=, >>>, ...)

	// TOKEN_COMMENT is only produced when comment preservation is enabled
	TOKEN_COMMENT
)

// TokenTypeNames maps token types to their string representations
var TokenTypeNames = map[TokenType]string{
	TOKEN_EOF:            "EOF",
	TOKEN_ERROR:          "ERROR",
	TOKEN_EXPORT:         "EXPORT",
	TOKEN_DEFAULT:        "DEFAULT",
	TOKEN_IMPORT:         "IMPORT",
	TOKEN_FROM:           "FROM",
	TOKEN_AS:             "AS",
	TOKEN_CONST:          "CONST",
	TOKEN_LET:            "LET",
	TOKEN_VAR:            "VAR",
	TOKEN_FUNCTION:       "FUNCTION",
	TOKEN_ASYNC:          "ASYNC",
	TOKEN_CLASS:          "CLASS",
	TOKEN_TYPE:           "TYPE",
	TOKEN_INTERFACE:      "INTERFACE",
	TOKEN_ENUM:           "ENUM",
	TOKEN_DECLARE:        "DECLARE",
	TOKEN_IF:             "IF",
	TOKEN_FOR:            "FOR",
	TOKEN_WHILE:          "WHILE",
	TOKEN_DO:             "DO",
	TOKEN_SWITCH:         "SWITCH",
	TOKEN_TRY:            "TRY",
	TOKEN_RETURN:         "RETURN",
	TOKEN_THROW:          "THROW",
	TOKEN_NEW:            "NEW",
	TOKEN_IDENTIFIER:     "IDENTIFIER",
	TOKEN_STRING_LITERAL: "STRING_LITERAL",
	TOKEN_TEMPLATE:       "TEMPLATE",
	TOKEN_NUMBER:         "NUMBER",
	TOKEN_REGEX:          "REGEX",
	TOKEN_LBRACE:         "LBRACE",
	TOKEN_RBRACE:         "RBRACE",
	TOKEN_LPAREN:         "LPAREN",
	TOKEN_RPAREN:         "RPAREN",
	TOKEN_LBRACKET:       "LBRACKET",
	TOKEN_RBRACKET:       "RBRACKET",
	TOKEN_SEMICOLON:      "SEMICOLON",
	TOKEN_COMMA:          "COMMA",
	TOKEN_COLON:          "COLON",
	TOKEN_DOT:            "DOT",
	TOKEN_ELLIPSIS:       "ELLIPSIS",
	TOKEN_QUESTION:       "QUESTION",
	TOKEN_OPT_CHAIN:      "OPT_CHAIN",
	TOKEN_EQUALS:         "EQUALS",
	TOKEN_ARROW:          "ARROW",
	TOKEN_LT:             "LT",
	TOKEN_GT:             "GT",
	TOKEN_PIPE:           "PIPE",
	TOKEN_AMP:            "AMP",
	TOKEN_AT:             "AT",
	TOKEN_OPERATOR:       "OPERATOR",
	TOKEN_COMMENT:        "COMMENT",
}

// String returns the string representation of a TokenType
func (t TokenType) String() string {
	if name, ok := TokenTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", t)
}

// Token represents a single lexical token
type Token struct {
	Type    TokenType   // The type of the token
	Lexeme  string      // The raw text of the token
	Literal interface{} // The decoded value (string literals and plain templates)
	Line    int         // Line number (1-indexed)
	Column  int         // Column number (1-indexed)

	// NewlineBefore is set when at least one line break separates this
	// token from the previous one. The parser uses it for semicolon insertion.
	NewlineBefore bool
}

// String returns a string representation of the token
func (t Token) String() string {
	if t.Literal != nil {
		return fmt.Sprintf("%s '%s' (%v) at %d:%d",
			t.Type.String(), t.Lexeme, t.Literal, t.Line, t.Column)
	}
	return fmt.Sprintf("%s '%s' at %d:%d",
		t.Type.String(), t.Lexeme, t.Line, t.Column)
}

// StringValue returns the decoded string of a string literal or a template
// without substitutions.
func (t Token) StringValue() (string, bool) {
	s, ok := t.Literal.(string)
	return s, ok
}

// Keywords maps reserved words to their token types. Contextual keywords
// such as "from", "as", "type" and "async" are included; the parser accepts
// them as identifiers where TypeScript does.
var Keywords = map[string]TokenType{
	"export":    TOKEN_EXPORT,
	"default":   TOKEN_DEFAULT,
	"import":    TOKEN_IMPORT,
	"from":      TOKEN_FROM,
	"as":        TOKEN_AS,
	"const":     TOKEN_CONST,
	"let":       TOKEN_LET,
	"var":       TOKEN_VAR,
	"function":  TOKEN_FUNCTION,
	"async":     TOKEN_ASYNC,
	"class":     TOKEN_CLASS,
	"type":      TOKEN_TYPE,
	"interface": TOKEN_INTERFACE,
	"enum":      TOKEN_ENUM,
	"declare":   TOKEN_DECLARE,
	"if":        TOKEN_IF,
	"for":       TOKEN_FOR,
	"while":     TOKEN_WHILE,
	"do":        TOKEN_DO,
	"switch":    TOKEN_SWITCH,
	"try":       TOKEN_TRY,
	"return":    TOKEN_RETURN,
	"throw":     TOKEN_THROW,
	"new":       TOKEN_NEW,
}

// ContextualKeywords can be used as plain identifiers
var ContextualKeywords = map[TokenType]bool{
	TOKEN_FROM:      true,
	TOKEN_AS:        true,
	TOKEN_ASYNC:     true,
	TOKEN_TYPE:      true,
	TOKEN_DECLARE:   true,
	TOKEN_INTERFACE: true,
}

// LexError represents an error encountered during lexical analysis
type LexError struct {
	Message string // Error message
	Line    int    // Line number where error occurred
	Column  int    // Column number where error occurred
	Lexeme  string // The problematic text
}

// Error implements the error interface
func (e LexError) Error() string {
	return fmt.Sprintf("Lexical error at %d:%d: %s (near '%s')",
		e.Line, e.Column, e.Message, e.Lexeme)
}
