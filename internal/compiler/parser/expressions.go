package parser

import (
	"strings"

	"github.com/integreat-cms/featurereg/internal/compiler/ast"
	"github.com/integreat-cms/featurereg/internal/compiler/lexer"
)

// parseExpression parses an initializer or export default target. String
// literals, identifiers, arrow functions and function expressions are
// recognized when they form the whole expression; anything else becomes an
// OpaqueExpr.
func (p *Parser) parseExpression() ast.Expr {
	start := p.current
	tok := p.peek()

	switch tok.Type {
	case lexer.TOKEN_STRING_LITERAL, lexer.TOKEN_TEMPLATE:
		value, ok := tok.StringValue()
		if !ok {
			break
		}
		// "name" as const
		if p.checkAt(1, lexer.TOKEN_AS) && p.checkAt(2, lexer.TOKEN_CONST) && p.isExpressionEnd(p.current+3) {
			p.advance()
			p.advance()
			p.advance()
			return &ast.StringLiteral{
				Value:    value,
				Template: tok.Type == lexer.TOKEN_TEMPLATE,
				Loc:      ast.TokenLocation(tok),
			}
		}
		if p.isExpressionEnd(p.current + 1) {
			p.advance()
			return &ast.StringLiteral{
				Value:    value,
				Template: tok.Type == lexer.TOKEN_TEMPLATE,
				Loc:      ast.TokenLocation(tok),
			}
		}
	case lexer.TOKEN_IDENTIFIER, lexer.TOKEN_FROM, lexer.TOKEN_AS, lexer.TOKEN_TYPE, lexer.TOKEN_DECLARE, lexer.TOKEN_INTERFACE:
		if p.checkAt(1, lexer.TOKEN_ARROW) && !p.peekAt(1).NewlineBefore {
			if fn := p.tryArrowFunction(false); fn != nil {
				return fn
			}
		} else if p.isExpressionEnd(p.current + 1) {
			p.advance()
			return &ast.Identifier{Name: tok.Lexeme, Loc: ast.TokenLocation(tok)}
		}
	case lexer.TOKEN_ASYNC:
		next := p.peekAt(1)
		if next.NewlineBefore {
			break
		}
		if next.Type == lexer.TOKEN_FUNCTION {
			if fn := p.tryFunctionExpr(); fn != nil {
				return fn
			}
		} else if fn := p.tryArrowFunction(true); fn != nil {
			return fn
		}
	case lexer.TOKEN_LPAREN, lexer.TOKEN_LT:
		if fn := p.tryArrowFunction(false); fn != nil {
			return fn
		}
	case lexer.TOKEN_FUNCTION:
		if fn := p.tryFunctionExpr(); fn != nil {
			return fn
		}
	}

	p.current = start
	consumed := p.skipExpression()
	return &ast.OpaqueExpr{Text: joinExpressionTokens(consumed), Loc: ast.TokenLocation(tok)}
}

// tryArrowFunction attempts to parse an arrow function at the current
// position. On failure it restores the position, discards errors reported
// during the attempt and returns nil.
func (p *Parser) tryArrowFunction(async bool) ast.Expr {
	start := p.current
	errCount := len(p.errors)
	fail := func() ast.Expr {
		p.current = start
		p.errors = p.errors[:errCount]
		return nil
	}

	startTok := p.peek()
	if async {
		p.advance()
	}

	fn := &ast.ArrowFunction{Async: async, Loc: ast.TokenLocation(startTok)}

	if p.isBindingName(p.peek()) && p.checkAt(1, lexer.TOKEN_ARROW) {
		// x => ...
		nameTok := p.advance()
		fn.Params = []*ast.Param{{Name: nameTok.Lexeme, Loc: ast.TokenLocation(nameTok)}}
	} else {
		if p.check(lexer.TOKEN_LT) && !p.skipTypeParameters() {
			return fail()
		}
		if !p.check(lexer.TOKEN_LPAREN) {
			return fail()
		}
		params, ok := p.parseParams()
		if !ok {
			return fail()
		}
		fn.Params = params
		if p.match(lexer.TOKEN_COLON) {
			if p.parseReturnType(lexer.TOKEN_ARROW) == "" {
				return fail()
			}
		}
	}

	if !p.check(lexer.TOKEN_ARROW) || p.peek().NewlineBefore {
		return fail()
	}
	p.advance()

	if p.check(lexer.TOKEN_LBRACE) {
		if !p.skipBalanced() {
			return fail()
		}
	} else {
		p.skipExpression()
	}

	if !p.isExpressionEnd(p.current) {
		// (() => {})() and similar: the arrow is only part of the expression
		return fail()
	}
	return fn
}

// tryFunctionExpr attempts to parse [async] function [*] [name](params) { }
func (p *Parser) tryFunctionExpr() ast.Expr {
	start := p.current
	errCount := len(p.errors)
	fail := func() ast.Expr {
		p.current = start
		p.errors = p.errors[:errCount]
		return nil
	}

	startTok := p.peek()
	fn := &ast.FunctionExpr{Loc: ast.TokenLocation(startTok)}
	if p.match(lexer.TOKEN_ASYNC) {
		fn.Async = true
	}
	p.advance() // function
	if p.check(lexer.TOKEN_OPERATOR) && p.peek().Lexeme == "*" {
		fn.Generator = true
		p.advance()
	}
	if p.isBindingName(p.peek()) {
		fn.Name = p.advance().Lexeme
	}

	params, ok := p.parseFunctionSignature()
	if !ok || !p.check(lexer.TOKEN_LBRACE) || !p.skipBalanced() {
		return fail()
	}
	fn.Params = params

	if !p.isExpressionEnd(p.current) {
		return fail()
	}
	return fn
}

// parseParams parses a parenthesized parameter list
func (p *Parser) parseParams() ([]*ast.Param, bool) {
	p.advance() // (
	params := make([]*ast.Param, 0)

	for !p.check(lexer.TOKEN_RPAREN) && !p.isAtEnd() {
		param, ok := p.parseParam()
		if !ok {
			return nil, false
		}
		params = append(params, param)

		if !p.match(lexer.TOKEN_COMMA) {
			break
		}
	}

	if !p.match(lexer.TOKEN_RPAREN) {
		p.error(p.peek(), "Expected ')' after parameters")
		return nil, false
	}
	return params, true
}

// parseParam parses [...]name[?][: Type][= default]
func (p *Parser) parseParam() (*ast.Param, bool) {
	p.skipDecorators()

	// Parameter properties in constructors
	for p.check(lexer.TOKEN_IDENTIFIER) && isParameterModifier(p.peek().Lexeme) && p.isBindingName(p.peekAt(1)) {
		p.advance()
	}

	param := &ast.Param{Loc: ast.TokenLocation(p.peek())}
	if p.match(lexer.TOKEN_ELLIPSIS) {
		param.Rest = true
	}

	nameTok := p.peek()
	switch {
	case p.isBindingName(nameTok):
		p.advance()
		param.Name = nameTok.Lexeme
		param.Loc = ast.TokenLocation(nameTok)
	case nameTok.Type == lexer.TOKEN_LBRACE || nameTok.Type == lexer.TOKEN_LBRACKET:
		param.Pattern = true
		param.Loc = ast.TokenLocation(nameTok)
		if !p.skipBalanced() {
			return nil, false
		}
	default:
		p.error(nameTok, "Expected parameter name")
		return nil, false
	}

	if p.match(lexer.TOKEN_QUESTION) {
		param.Optional = true
	}

	if p.match(lexer.TOKEN_COLON) {
		param.Type = p.parseTypeText(lexer.TOKEN_COMMA, lexer.TOKEN_EQUALS)
		if param.Type == "" {
			p.error(p.peek(), "Expected parameter type after ':'")
			return nil, false
		}
	}

	if p.match(lexer.TOKEN_EQUALS) {
		param.HasDefault = true
		p.skip(func(tok, _ lexer.Token) bool {
			return tok.Type == lexer.TOKEN_COMMA
		}, false)
	}

	return param, true
}

func isParameterModifier(word string) bool {
	switch word {
	case "public", "private", "protected", "readonly", "override":
		return true
	}
	return false
}

// parseTypeText consumes a type annotation up to one of the stop tokens at
// nesting depth zero and returns its compact text.
func (p *Parser) parseTypeText(stops ...lexer.TokenType) string {
	consumed := p.skip(func(tok, prev lexer.Token) bool {
		for _, stop := range stops {
			if tok.Type == stop {
				return true
			}
		}
		return endsByASI(prev, tok, true)
	}, true)
	return joinTypeTokens(consumed)
}

// parseReturnType consumes a return type annotation. The terminator (body
// brace or arrow) stops the type only after at least one token was read so
// that object literal types such as `: { ok: boolean } {` still work.
func (p *Parser) parseReturnType(terminator lexer.TokenType) string {
	first := true
	consumed := p.skip(func(tok, _ lexer.Token) bool {
		if first {
			first = false
			return tok.Type == lexer.TOKEN_ARROW
		}
		if tok.Type == terminator || tok.Type == lexer.TOKEN_SEMICOLON {
			return true
		}
		// Overload signatures may end without a semicolon
		return tok.NewlineBefore && startsDeclaration(tok)
	}, true)
	return joinTypeTokens(consumed)
}

// skipTypeParameters skips a <...> type parameter list
func (p *Parser) skipTypeParameters() bool {
	p.advance() // <
	depth := 1
	for !p.isAtEnd() {
		switch p.peek().Type {
		case lexer.TOKEN_LT:
			depth++
		case lexer.TOKEN_GT:
			depth--
			if depth == 0 {
				p.advance()
				return true
			}
		case lexer.TOKEN_LPAREN, lexer.TOKEN_LBRACKET, lexer.TOKEN_LBRACE:
			if !p.skipBalanced() {
				return false
			}
			continue
		case lexer.TOKEN_SEMICOLON:
			p.error(p.peek(), "Expected '>' after type parameters")
			return false
		}
		p.advance()
	}
	p.error(p.peek(), "Unterminated type parameter list")
	return false
}

// skipExpression consumes an expression up to a comma, semicolon, an
// unbalanced closing bracket or an automatically inserted semicolon.
func (p *Parser) skipExpression() []lexer.Token {
	return p.skip(func(tok, prev lexer.Token) bool {
		switch tok.Type {
		case lexer.TOKEN_COMMA, lexer.TOKEN_SEMICOLON:
			return true
		case lexer.TOKEN_EXPORT, lexer.TOKEN_CONST, lexer.TOKEN_LET, lexer.TOKEN_VAR:
			// Never part of an expression
			return true
		}
		return endsByASI(prev, tok, false)
	}, false)
}

// skipStatement consumes a statement including its terminating semicolon
func (p *Parser) skipStatement() {
	p.skip(func(tok, prev lexer.Token) bool {
		if tok.Type == lexer.TOKEN_SEMICOLON {
			return true
		}
		return endsByASI(prev, tok, false)
	}, false)
	p.match(lexer.TOKEN_SEMICOLON)
}

// skip consumes tokens until stop returns true at nesting depth zero, an
// unbalanced closing bracket is reached, or the input ends. With angles set,
// < and > count as brackets (type context). It returns the consumed tokens.
func (p *Parser) skip(stop func(tok, prev lexer.Token) bool, angles bool) []lexer.Token {
	start := p.current
	var open []lexer.Token

	top := func() lexer.TokenType {
		if len(open) == 0 {
			return lexer.TOKEN_EOF
		}
		return open[len(open)-1].Type
	}

	for !p.isAtEnd() {
		tok := p.peek()

		if len(open) == 0 {
			prev := lexer.Token{Type: lexer.TOKEN_EQUALS}
			if p.current > start {
				prev = p.previous()
			}
			if stop(tok, prev) {
				break
			}
		}

		switch tok.Type {
		case lexer.TOKEN_LPAREN, lexer.TOKEN_LBRACKET, lexer.TOKEN_LBRACE:
			open = append(open, tok)
		case lexer.TOKEN_LT:
			if angles {
				open = append(open, tok)
			}
		case lexer.TOKEN_GT:
			if angles && top() == lexer.TOKEN_LT {
				open = open[:len(open)-1]
			}
		case lexer.TOKEN_RPAREN, lexer.TOKEN_RBRACKET, lexer.TOKEN_RBRACE:
			// Unclosed angle brackets were comparisons after all
			for top() == lexer.TOKEN_LT {
				open = open[:len(open)-1]
			}
			if len(open) == 0 {
				return p.tokens[start:p.current]
			}
			if closerFor(top()) != tok.Type {
				p.error(tok, "Unexpected '"+tok.Lexeme+"'")
			}
			open = open[:len(open)-1]
		}
		p.advance()
	}

	for top() == lexer.TOKEN_LT {
		open = open[:len(open)-1]
	}
	if len(open) > 0 {
		unclosed := open[len(open)-1]
		p.error(unclosed, "Unclosed '"+unclosed.Lexeme+"'")
	}
	return p.tokens[start:p.current]
}

// skipBalanced consumes a bracketed group starting at the current token
func (p *Parser) skipBalanced() bool {
	open := p.advance()
	closer := closerFor(open.Type)
	closers := []lexer.TokenType{closer}

	for !p.isAtEnd() {
		tok := p.advance()
		switch tok.Type {
		case lexer.TOKEN_LPAREN, lexer.TOKEN_LBRACKET, lexer.TOKEN_LBRACE:
			closers = append(closers, closerFor(tok.Type))
		case lexer.TOKEN_RPAREN, lexer.TOKEN_RBRACKET, lexer.TOKEN_RBRACE:
			if closers[len(closers)-1] != tok.Type {
				p.error(tok, "Unexpected '"+tok.Lexeme+"'")
				return false
			}
			closers = closers[:len(closers)-1]
			if len(closers) == 0 {
				return true
			}
		}
	}

	p.error(open, "Unclosed '"+open.Lexeme+"'")
	return false
}

func closerFor(t lexer.TokenType) lexer.TokenType {
	switch t {
	case lexer.TOKEN_LPAREN:
		return lexer.TOKEN_RPAREN
	case lexer.TOKEN_LBRACKET:
		return lexer.TOKEN_RBRACKET
	default:
		return lexer.TOKEN_RBRACE
	}
}

// isExpressionEnd reports whether the token at index i cannot continue the
// expression before it.
func (p *Parser) isExpressionEnd(i int) bool {
	tok := p.tokenAt(i)
	switch tok.Type {
	case lexer.TOKEN_EOF, lexer.TOKEN_SEMICOLON, lexer.TOKEN_COMMA,
		lexer.TOKEN_RPAREN, lexer.TOKEN_RBRACKET, lexer.TOKEN_RBRACE:
		return true
	}
	return tok.NewlineBefore && !continuesExpression(tok)
}

// endsByASI reports whether a line break between prev and tok terminates
// the current expression or statement.
func endsByASI(prev, tok lexer.Token, typeContext bool) bool {
	if !tok.NewlineBefore || !canEndExpression(prev, typeContext) {
		return false
	}
	return !continuesExpression(tok)
}

// canEndExpression reports whether a token may be the last of an expression
func canEndExpression(tok lexer.Token, typeContext bool) bool {
	switch tok.Type {
	case lexer.TOKEN_IDENTIFIER, lexer.TOKEN_NUMBER, lexer.TOKEN_STRING_LITERAL,
		lexer.TOKEN_TEMPLATE, lexer.TOKEN_REGEX,
		lexer.TOKEN_RPAREN, lexer.TOKEN_RBRACKET, lexer.TOKEN_RBRACE:
		return true
	case lexer.TOKEN_GT:
		return typeContext
	case lexer.TOKEN_OPERATOR:
		return tok.Lexeme == "++" || tok.Lexeme == "--"
	}
	return lexer.ContextualKeywords[tok.Type]
}

// continuesExpression reports whether a token at the start of a line still
// belongs to the expression on the previous line.
func continuesExpression(tok lexer.Token) bool {
	switch tok.Type {
	case lexer.TOKEN_DOT, lexer.TOKEN_OPT_CHAIN, lexer.TOKEN_EQUALS, lexer.TOKEN_ARROW,
		lexer.TOKEN_QUESTION, lexer.TOKEN_COLON, lexer.TOKEN_LT, lexer.TOKEN_GT,
		lexer.TOKEN_PIPE, lexer.TOKEN_AMP, lexer.TOKEN_COMMA, lexer.TOKEN_LPAREN,
		lexer.TOKEN_LBRACKET, lexer.TOKEN_TEMPLATE, lexer.TOKEN_AS:
		return true
	case lexer.TOKEN_OPERATOR:
		switch tok.Lexeme {
		case "++", "--", "!", "~":
			return false
		}
		return true
	case lexer.TOKEN_IDENTIFIER:
		return tok.Lexeme == "instanceof" || tok.Lexeme == "in" || tok.Lexeme == "satisfies"
	}
	return false
}

// joinExpressionTokens renders skipped expression tokens for diagnostics
func joinExpressionTokens(tokens []lexer.Token) string {
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		parts[i] = tok.Lexeme
	}
	return strings.Join(parts, " ")
}

// Token stream navigation

// peek returns the current token without advancing
func (p *Parser) peek() lexer.Token {
	return p.tokenAt(p.current)
}

// peekAt returns the token offset positions ahead of the current one
func (p *Parser) peekAt(offset int) lexer.Token {
	return p.tokenAt(p.current + offset)
}

func (p *Parser) tokenAt(i int) lexer.Token {
	if len(p.tokens) == 0 {
		return lexer.Token{Type: lexer.TOKEN_EOF}
	}
	if i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[i]
}

// previous returns the most recently consumed token
func (p *Parser) previous() lexer.Token {
	if len(p.tokens) == 0 || p.current == 0 {
		return lexer.Token{Type: lexer.TOKEN_EOF}
	}
	return p.tokens[p.current-1]
}

// advance consumes the current token and returns it
func (p *Parser) advance() lexer.Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

// check returns true if the current token matches the given type
func (p *Parser) check(tokenType lexer.TokenType) bool {
	if p.isAtEnd() {
		return false
	}
	return p.peek().Type == tokenType
}

// checkAt returns true if the token offset positions ahead matches
func (p *Parser) checkAt(offset int, tokenType lexer.TokenType) bool {
	return p.peekAt(offset).Type == tokenType
}

// match consumes the token if it matches any of the given types
func (p *Parser) match(types ...lexer.TokenType) bool {
	for _, t := range types {
		if p.check(t) {
			p.advance()
			return true
		}
	}
	return false
}

// consume advances if the next token matches, otherwise reports an error
func (p *Parser) consume(tokenType lexer.TokenType, message string) lexer.Token {
	if p.check(tokenType) {
		return p.advance()
	}

	p.error(p.peek(), message)
	return lexer.Token{Type: lexer.TOKEN_ERROR}
}

// isAtEnd returns true if we've reached the end of the token stream
func (p *Parser) isAtEnd() bool {
	return p.current >= len(p.tokens) || p.tokens[p.current].Type == lexer.TOKEN_EOF
}

// Error handling

// error records a parse error
func (p *Parser) error(token lexer.Token, message string) {
	p.errors = append(p.errors, NewParseError(message, token))
}

// synchronize implements panic mode error recovery: it skips to the next
// line that starts a declaration at nesting depth zero.
func (p *Parser) synchronize() {
	depth := 0
	for !p.isAtEnd() {
		tok := p.peek()
		if depth == 0 && tok.NewlineBefore && startsDeclaration(tok) {
			return
		}
		switch tok.Type {
		case lexer.TOKEN_LPAREN, lexer.TOKEN_LBRACKET, lexer.TOKEN_LBRACE:
			depth++
		case lexer.TOKEN_RPAREN, lexer.TOKEN_RBRACKET, lexer.TOKEN_RBRACE:
			if depth > 0 {
				depth--
			}
		case lexer.TOKEN_SEMICOLON:
			if depth == 0 {
				p.advance()
				return
			}
		}
		p.advance()
	}
}

func startsDeclaration(tok lexer.Token) bool {
	switch tok.Type {
	case lexer.TOKEN_EXPORT, lexer.TOKEN_IMPORT, lexer.TOKEN_CONST, lexer.TOKEN_LET,
		lexer.TOKEN_VAR, lexer.TOKEN_FUNCTION, lexer.TOKEN_CLASS:
		return true
	}
	return false
}
