// Package lexer provides lexical analysis for TypeScript feature modules.
// It tokenizes .ts files into a stream of tokens for the parser. Only the
// lexical grammar is handled; no semantic interpretation happens here.
package lexer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Lexer tokenizes TypeScript source code.
//
// Thread Safety: Lexer instances are NOT thread-safe. Each goroutine must
// create its own Lexer instance via New().
type Lexer struct {
	source      string     // Source code to tokenize
	start       int        // Start position of current token
	current     int        // Current position in source
	line        int        // Current line number (1-indexed)
	column      int        // Current column number (1-indexed)
	startLine   int        // Line where the current token starts
	startColumn int        // Column where the current token starts
	newline     bool       // A line break was seen since the last token
	comments    bool       // Emit TOKEN_COMMENT tokens
	tokens      []Token    // Collected tokens
	errors      []LexError // Collected errors
}

// New creates a new Lexer for the given source code
func New(source string) *Lexer {
	// A leading byte order mark is not part of the program text.
	source = strings.TrimPrefix(source, "\ufeff")
	return &Lexer{
		source: source,
		line:   1,
		column: 1,
		tokens: make([]Token, 0),
		errors: make([]LexError, 0),
	}
}

// SetPreserveComments makes the lexer emit comments as TOKEN_COMMENT tokens.
// The parser does not accept comment tokens; only the formatter enables this.
func (l *Lexer) SetPreserveComments(preserve bool) {
	l.comments = preserve
}

// ScanTokens tokenizes the entire source and returns tokens and errors
func (l *Lexer) ScanTokens() ([]Token, []LexError) {
	for !l.isAtEnd() {
		l.start = l.current
		l.startLine = l.line
		l.startColumn = l.column
		l.scanToken()
	}

	l.tokens = append(l.tokens, Token{
		Type:          TOKEN_EOF,
		Line:          l.line,
		Column:        l.column,
		NewlineBefore: true,
	})

	return l.tokens, l.errors
}

// scanToken processes the next token.
//
//nolint:gocyclo,cyclop // Lexer dispatch function - complexity is inherent to the pattern
func (l *Lexer) scanToken() {
	c := l.advance()

	switch {
	case c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v':
		// Ignore whitespace
	case c == '\n':
		l.newline = true
	case c == '(' || c == ')' || c == '{' || c == '}' || c == '[' || c == ']':
		l.scanDelimiter(c)
	case c == ';':
		l.addToken(TOKEN_SEMICOLON)
	case c == ',':
		l.addToken(TOKEN_COMMA)
	case c == ':':
		l.addToken(TOKEN_COLON)
	case c == '@':
		l.addToken(TOKEN_AT)
	case c == '"' || c == '\'':
		l.string(c)
	case c == '`':
		l.template()
	case c == '/':
		l.scanSlash()
	case c == '.':
		l.scanDot()
	case c == '=':
		l.scanEquals()
	case c == '?':
		l.scanQuestion()
	case c == '<':
		l.scanLessThan()
	case c == '>':
		// Always a single token so that nested generics such as
		// Promise<Array<T>> close one level per '>'.
		l.addToken(TOKEN_GT)
	case c == '|' || c == '&':
		l.scanPipeOrAmp(c)
	case c == '+' || c == '-' || c == '*' || c == '%' || c == '^' || c == '!' || c == '~':
		l.scanOperator(c)
	case isDigit(c):
		l.number()
	case isIdentStart(c):
		l.identifier()
	default:
		l.addError(fmt.Sprintf("Unexpected character: '%c'", c))
	}
}

// scanDelimiter handles delimiter tokens: ( ) { } [ ]
func (l *Lexer) scanDelimiter(c byte) {
	switch c {
	case '(':
		l.addToken(TOKEN_LPAREN)
	case ')':
		l.addToken(TOKEN_RPAREN)
	case '{':
		l.addToken(TOKEN_LBRACE)
	case '}':
		l.addToken(TOKEN_RBRACE)
	case '[':
		l.addToken(TOKEN_LBRACKET)
	case ']':
		l.addToken(TOKEN_RBRACKET)
	}
}

// scanSlash handles comments, regular expression literals, / and /=
func (l *Lexer) scanSlash() {
	switch {
	case l.match('/'):
		l.lineComment()
		l.addComment()
	case l.match('*'):
		errs := len(l.errors)
		l.blockComment()
		if len(l.errors) == errs {
			l.addComment()
		}
	case l.regexAllowed():
		l.regex()
	case l.match('='):
		l.addToken(TOKEN_OPERATOR)
	default:
		l.addToken(TOKEN_OPERATOR)
	}
}

// scanDot handles ., ... and numbers starting with .
func (l *Lexer) scanDot() {
	switch {
	case isDigit(l.peek()):
		l.number()
	case l.peek() == '.' && l.peekNext() == '.':
		l.advance()
		l.advance()
		l.addToken(TOKEN_ELLIPSIS)
	default:
		l.addToken(TOKEN_DOT)
	}
}

// scanEquals handles =, =>, == and ===
func (l *Lexer) scanEquals() {
	switch {
	case l.match('>'):
		l.addToken(TOKEN_ARROW)
	case l.match('='):
		l.match('=')
		l.addToken(TOKEN_OPERATOR)
	default:
		l.addToken(TOKEN_EQUALS)
	}
}

// scanQuestion handles ?, ?., ?? and ??=
func (l *Lexer) scanQuestion() {
	switch {
	case l.peek() == '.' && !isDigit(l.peekNext()):
		l.advance()
		l.addToken(TOKEN_OPT_CHAIN)
	case l.match('?'):
		l.match('=')
		l.addToken(TOKEN_OPERATOR)
	default:
		l.addToken(TOKEN_QUESTION)
	}
}

// scanLessThan handles <, <=, << and <<=
func (l *Lexer) scanLessThan() {
	switch {
	case l.match('='):
		l.addToken(TOKEN_OPERATOR)
	case l.match('<'):
		l.match('=')
		l.addToken(TOKEN_OPERATOR)
	default:
		l.addToken(TOKEN_LT)
	}
}

// scanPipeOrAmp handles | || |= ||= and their & counterparts
func (l *Lexer) scanPipeOrAmp(c byte) {
	if l.match(c) {
		l.match('=')
		l.addToken(TOKEN_OPERATOR)
		return
	}
	if l.match('=') {
		l.addToken(TOKEN_OPERATOR)
		return
	}
	if c == '|' {
		l.addToken(TOKEN_PIPE)
	} else {
		l.addToken(TOKEN_AMP)
	}
}

// scanOperator handles the remaining arithmetic, logical and bitwise operators
func (l *Lexer) scanOperator(c byte) {
	switch c {
	case '+', '-':
		if !l.match(c) {
			l.match('=')
		}
	case '*':
		l.match('*')
		l.match('=')
	case '!':
		if l.match('=') {
			l.match('=')
		}
	case '~':
	default:
		l.match('=')
	}
	l.addToken(TOKEN_OPERATOR)
}

// lineComment skips a // comment up to the end of the line
func (l *Lexer) lineComment() {
	for l.peek() != '\n' && !l.isAtEnd() {
		l.advance()
	}
}

// blockComment skips a /* ... */ comment
func (l *Lexer) blockComment() {
	for !l.isAtEnd() {
		if l.peek() == '*' && l.peekNext() == '/' {
			l.advance()
			l.advance()
			return
		}
		if l.advance() == '\n' {
			l.newline = true
		}
	}
	l.addError("Unterminated block comment")
}

// addComment emits the comment just scanned when comments are preserved.
// The line break flag is carried over to the next real token.
func (l *Lexer) addComment() {
	if !l.comments {
		return
	}
	newline := l.newline
	l.addToken(TOKEN_COMMENT)
	l.newline = newline
}

// string handles quoted string literals and decodes escape sequences
func (l *Lexer) string(quote byte) {
	var value strings.Builder

	for {
		if l.isAtEnd() || l.peek() == '\n' {
			l.addError(fmt.Sprintf("Unterminated string starting at %d:%d", l.startLine, l.startColumn))
			return
		}
		c := l.advance()
		if c == quote {
			break
		}
		if c == '\\' {
			l.escape(&value)
			continue
		}
		value.WriteByte(c)
	}

	l.addTokenWithLiteral(TOKEN_STRING_LITERAL, value.String())
}

// escape decodes one escape sequence after a backslash
func (l *Lexer) escape(value *strings.Builder) {
	if l.isAtEnd() {
		return
	}
	c := l.advance()
	switch c {
	case 'n':
		value.WriteByte('\n')
	case 't':
		value.WriteByte('\t')
	case 'r':
		value.WriteByte('\r')
	case 'b':
		value.WriteByte('\b')
	case 'f':
		value.WriteByte('\f')
	case 'v':
		value.WriteByte('\v')
	case '0':
		value.WriteByte(0)
	case '\r':
		// Line continuation (CRLF)
		l.match('\n')
	case '\n':
		// Line continuation
	case 'x':
		l.hexEscape(value, 2)
	case 'u':
		if l.match('{') {
			start := l.current
			for !l.isAtEnd() && l.peek() != '}' {
				l.advance()
			}
			digits := l.source[start:l.current]
			l.match('}')
			l.writeCodePoint(value, digits)
			return
		}
		l.hexEscape(value, 4)
	default:
		value.WriteByte(c)
	}
}

// hexEscape decodes a fixed-width hexadecimal escape
func (l *Lexer) hexEscape(value *strings.Builder, width int) {
	start := l.current
	for i := 0; i < width && !l.isAtEnd() && isHexDigit(l.peek()); i++ {
		l.advance()
	}
	l.writeCodePoint(value, l.source[start:l.current])
}

// writeCodePoint appends the code point spelled by hex digits
func (l *Lexer) writeCodePoint(value *strings.Builder, digits string) {
	cp, err := strconv.ParseUint(digits, 16, 32)
	if err != nil || cp > utf8.MaxRune {
		l.addError(fmt.Sprintf("Invalid escape sequence: %s", digits))
		return
	}
	value.WriteRune(rune(cp))
}

// template handles template literals. Substitutions are skipped structurally;
// a template without substitutions gets its cooked string as literal value.
func (l *Lexer) template() {
	var value strings.Builder
	hasSubstitution := false

	for {
		if l.isAtEnd() {
			l.addError(fmt.Sprintf("Unterminated template literal starting at %d:%d", l.startLine, l.startColumn))
			return
		}
		c := l.advance()
		switch {
		case c == '`':
			if hasSubstitution {
				l.addToken(TOKEN_TEMPLATE)
			} else {
				l.addTokenWithLiteral(TOKEN_TEMPLATE, value.String())
			}
			return
		case c == '\\':
			l.escape(&value)
		case c == '$' && l.peek() == '{':
			l.advance()
			hasSubstitution = true
			if !l.skipSubstitution() {
				return
			}
		default:
			value.WriteByte(c)
		}
	}
}

// skipSubstitution consumes a ${ ... } body including nested strings,
// templates and comments. It returns false when the source ends first.
//
//nolint:gocyclo // Nested literal handling
func (l *Lexer) skipSubstitution() bool {
	depth := 1
	for !l.isAtEnd() {
		c := l.advance()
		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return true
			}
		case '"', '\'':
			for !l.isAtEnd() && l.peek() != c && l.peek() != '\n' {
				if l.advance() == '\\' {
					l.advance()
				}
			}
			l.match(c)
		case '`':
			if !l.skipNestedTemplate() {
				return false
			}
		case '/':
			if l.match('/') {
				l.lineComment()
			} else if l.match('*') {
				l.blockComment()
			}
		}
	}
	l.addError(fmt.Sprintf("Unterminated template literal starting at %d:%d", l.startLine, l.startColumn))
	return false
}

// skipNestedTemplate consumes a template literal nested in a substitution
func (l *Lexer) skipNestedTemplate() bool {
	for !l.isAtEnd() {
		c := l.advance()
		switch {
		case c == '`':
			return true
		case c == '\\':
			l.advance()
		case c == '$' && l.peek() == '{':
			l.advance()
			if !l.skipSubstitution() {
				return false
			}
		}
	}
	return false
}

// regex handles a regular expression literal; the opening / is consumed
func (l *Lexer) regex() {
	inClass := false
	for {
		if l.isAtEnd() || l.peek() == '\n' {
			l.addError("Unterminated regular expression literal")
			return
		}
		c := l.advance()
		switch {
		case c == '\\':
			l.advance()
		case c == '[':
			inClass = true
		case c == ']':
			inClass = false
		case c == '/' && !inClass:
			for isIdentPart(l.peek()) {
				l.advance()
			}
			l.addToken(TOKEN_REGEX)
			return
		}
	}
}

// regexAllowed reports whether a / at the current position starts a regular
// expression rather than a division, based on the previous token.
func (l *Lexer) regexAllowed() bool {
	last := len(l.tokens) - 1
	for last >= 0 && l.tokens[last].Type == TOKEN_COMMENT {
		last--
	}
	if last < 0 {
		return true
	}
	prev := l.tokens[last]
	switch prev.Type {
	case TOKEN_IDENTIFIER, TOKEN_NUMBER, TOKEN_STRING_LITERAL, TOKEN_TEMPLATE, TOKEN_REGEX,
		TOKEN_RPAREN, TOKEN_RBRACKET, TOKEN_RBRACE:
		return false
	case TOKEN_OPERATOR:
		// x++ / 2 and x-- / 2 divide
		return prev.Lexeme != "++" && prev.Lexeme != "--"
	}
	if ContextualKeywords[prev.Type] {
		return false
	}
	return true
}

// number handles numeric literals, including hex/octal/binary, separators,
// exponents and bigint suffixes. The value itself is not decoded.
func (l *Lexer) number() {
	for {
		c := l.peek()
		switch {
		case isDigit(c) || isAlpha(c) || c == '_' || c == '.':
			if c == '.' && l.peekNext() == '.' {
				l.addToken(TOKEN_NUMBER)
				return
			}
			l.advance()
		case (c == '+' || c == '-') && l.exponentSign():
			l.advance()
		default:
			l.addToken(TOKEN_NUMBER)
			return
		}
	}
}

// exponentSign reports whether a sign follows a decimal exponent marker
func (l *Lexer) exponentSign() bool {
	lexeme := l.source[l.start:l.current]
	if strings.HasPrefix(lexeme, "0x") || strings.HasPrefix(lexeme, "0X") {
		return false
	}
	last := lexeme[len(lexeme)-1]
	return last == 'e' || last == 'E'
}

// identifier handles identifiers and keywords
func (l *Lexer) identifier() {
	for isIdentPart(l.peek()) {
		l.advance()
	}

	text := l.source[l.start:l.current]

	tokenType, isKeyword := Keywords[text]
	if !isKeyword {
		tokenType = TOKEN_IDENTIFIER
	}
	l.addToken(tokenType)
}

// Helper methods

// isAtEnd checks if we've reached the end of the source
func (l *Lexer) isAtEnd() bool {
	return l.current >= len(l.source)
}

// advance consumes and returns the current character
func (l *Lexer) advance() byte {
	if l.isAtEnd() {
		return 0
	}
	c := l.source[l.current]
	l.current++
	if c == '\n' {
		l.line++
		l.column = 1
	} else if c < utf8.RuneSelf || utf8.RuneStart(c) {
		l.column++
	}
	return c
}

// match checks if the current character matches expected and consumes it
func (l *Lexer) match(expected byte) bool {
	if l.isAtEnd() || l.source[l.current] != expected {
		return false
	}
	l.advance()
	return true
}

// peek returns the current character without consuming it
func (l *Lexer) peek() byte {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.current]
}

// peekNext returns the next character without consuming
func (l *Lexer) peekNext() byte {
	if l.current+1 >= len(l.source) {
		return 0
	}
	return l.source[l.current+1]
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// isIdentStart accepts ASCII letters, _, $, # (private names) and any
// non-ASCII byte; multi-byte identifiers are kept whole.
func isIdentStart(c byte) bool {
	return isAlpha(c) || c == '_' || c == '$' || c == '#' || c >= utf8.RuneSelf
}

func isIdentPart(c byte) bool {
	return isAlpha(c) || isDigit(c) || c == '_' || c == '$' || c >= utf8.RuneSelf
}

// addToken adds a token with the current lexeme
func (l *Lexer) addToken(tokenType TokenType) {
	l.addTokenWithLiteral(tokenType, nil)
}

// addTokenWithLiteral adds a token with a literal value
func (l *Lexer) addTokenWithLiteral(tokenType TokenType, literal interface{}) {
	token := Token{
		Type:          tokenType,
		Lexeme:        l.source[l.start:l.current],
		Literal:       literal,
		Line:          l.startLine,
		Column:        l.startColumn,
		NewlineBefore: l.newline,
	}
	l.newline = false
	l.tokens = append(l.tokens, token)
}

// addError records a lexical error
func (l *Lexer) addError(message string) {
	end := l.current
	if end > l.start+20 {
		end = l.start + 20
	}

	l.errors = append(l.errors, LexError{
		Message: message,
		Line:    l.startLine,
		Column:  l.startColumn,
		Lexeme:  l.source[l.start:end],
	})
}

// IsKeyword checks if a string is a reserved word known to the lexer
func IsKeyword(s string) bool {
	_, ok := Keywords[s]
	return ok
}
