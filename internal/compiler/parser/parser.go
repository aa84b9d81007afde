package parser

import (
	"strings"

	"github.com/integreat-cms/featurereg/internal/compiler/ast"
	"github.com/integreat-cms/featurereg/internal/compiler/lexer"
)

// Parser transforms a stream of tokens into an AST
type Parser struct {
	tokens  []lexer.Token
	current int
	errors  []ParseError
}

// New creates a new parser for the given token stream
func New(tokens []lexer.Token) *Parser {
	return &Parser{
		tokens:  tokens,
		current: 0,
		errors:  make([]ParseError, 0),
	}
}

// ParseSource lexes and parses a complete source file
func ParseSource(source string) (*ast.Program, []lexer.LexError, []ParseError) {
	tokens, lexErrors := lexer.New(source).ScanTokens()
	program, parseErrors := New(tokens).Parse()
	return program, lexErrors, parseErrors
}

// Parse parses the token stream and returns the AST and any errors
func (p *Parser) Parse() (*ast.Program, []ParseError) {
	program := &ast.Program{
		Statements: make([]ast.Stmt, 0),
	}

	for !p.isAtEnd() {
		start := p.current
		if stmt := p.parseStatement(); stmt != nil {
			program.Statements = append(program.Statements, stmt)
		}
		if p.current == start {
			// Never loop on a token the statement parsers refused
			p.error(p.peek(), "Unexpected token: "+p.peek().Lexeme)
			p.advance()
		}
	}

	return program, p.errors
}

// parseStatement parses one top-level statement
//
//nolint:gocyclo // Statement dispatch
func (p *Parser) parseStatement() ast.Stmt {
	tok := p.peek()

	switch tok.Type {
	case lexer.TOKEN_SEMICOLON:
		p.advance()
		return nil
	case lexer.TOKEN_RBRACE, lexer.TOKEN_RPAREN, lexer.TOKEN_RBRACKET:
		p.error(tok, "Unexpected '"+tok.Lexeme+"'")
		p.advance()
		return nil
	case lexer.TOKEN_AT:
		p.skipDecorators()
		return nil
	case lexer.TOKEN_IMPORT:
		if next := p.peekAt(1).Type; next == lexer.TOKEN_LPAREN || next == lexer.TOKEN_DOT {
			return p.parseOtherStatement()
		}
		return p.parseImport()
	case lexer.TOKEN_EXPORT:
		return p.parseExport()
	case lexer.TOKEN_CONST:
		if p.peekAt(1).Type == lexer.TOKEN_ENUM {
			p.advance()
			return p.parseTypeDecl(tok, false)
		}
		return p.parseVarDecl(tok, false, false)
	case lexer.TOKEN_LET, lexer.TOKEN_VAR:
		return p.parseVarDecl(tok, false, false)
	case lexer.TOKEN_FUNCTION:
		return p.parseFunctionDecl(tok, false, false)
	case lexer.TOKEN_ASYNC:
		if p.peekAt(1).Type == lexer.TOKEN_FUNCTION && !p.peekAt(1).NewlineBefore {
			return p.parseFunctionDecl(tok, false, false)
		}
	case lexer.TOKEN_CLASS:
		return p.parseClassDecl(tok, false, false)
	case lexer.TOKEN_TYPE, lexer.TOKEN_INTERFACE, lexer.TOKEN_ENUM:
		if p.isBindingName(p.peekAt(1)) && !p.peekAt(1).NewlineBefore {
			return p.parseTypeDecl(tok, false)
		}
	case lexer.TOKEN_DECLARE:
		if !p.peekAt(1).NewlineBefore {
			return p.parseDeclare(tok, false)
		}
	}

	return p.parseOtherStatement()
}

// parseImport parses an import declaration
func (p *Parser) parseImport() ast.Stmt {
	importTok := p.advance()
	decl := &ast.ImportDecl{Loc: ast.TokenLocation(importTok)}

	if p.check(lexer.TOKEN_TYPE) && !p.checkAt(1, lexer.TOKEN_FROM) && !p.checkAt(1, lexer.TOKEN_COMMA) {
		decl.TypeOnly = true
		p.advance()
	}

	// import "side-effect";
	if p.check(lexer.TOKEN_STRING_LITERAL) {
		decl.Source, _ = p.advance().StringValue()
		p.skipImportAttributes()
		p.endStatement()
		return decl
	}

	p.skip(func(tok, _ lexer.Token) bool {
		return tok.Type == lexer.TOKEN_FROM || tok.Type == lexer.TOKEN_SEMICOLON
	}, false)

	if !p.match(lexer.TOKEN_FROM) {
		p.error(p.peek(), "Expected 'from' in import declaration")
		p.synchronize()
		return decl
	}

	source := p.consume(lexer.TOKEN_STRING_LITERAL, "Expected module specifier after 'from'")
	if source.Type == lexer.TOKEN_ERROR {
		p.synchronize()
		return decl
	}
	decl.Source, _ = source.StringValue()
	p.skipImportAttributes()
	p.endStatement()
	return decl
}

// skipImportAttributes skips `with { type: "json" }` or `assert { ... }`
func (p *Parser) skipImportAttributes() {
	tok := p.peek()
	if tok.Type == lexer.TOKEN_IDENTIFIER && (tok.Lexeme == "with" || tok.Lexeme == "assert") &&
		!tok.NewlineBefore && p.checkAt(1, lexer.TOKEN_LBRACE) {
		p.advance()
		p.skipBalanced()
	}
}

// parseExport parses every form of export statement
//
//nolint:gocyclo // Export forms are numerous
func (p *Parser) parseExport() ast.Stmt {
	exportTok := p.advance()
	tok := p.peek()

	switch tok.Type {
	case lexer.TOKEN_DEFAULT:
		return p.parseExportDefault(exportTok)
	case lexer.TOKEN_LBRACE:
		return p.parseExportList(exportTok, false)
	case lexer.TOKEN_OPERATOR:
		if tok.Lexeme == "*" {
			return p.parseExportAll(exportTok)
		}
	case lexer.TOKEN_CONST:
		if p.peekAt(1).Type == lexer.TOKEN_ENUM {
			p.advance()
			return p.parseTypeDecl(exportTok, true)
		}
		return p.parseVarDecl(exportTok, true, false)
	case lexer.TOKEN_LET, lexer.TOKEN_VAR:
		return p.parseVarDecl(exportTok, true, false)
	case lexer.TOKEN_FUNCTION:
		return p.parseFunctionDecl(exportTok, true, false)
	case lexer.TOKEN_ASYNC:
		if p.checkAt(1, lexer.TOKEN_FUNCTION) {
			return p.parseFunctionDecl(exportTok, true, false)
		}
	case lexer.TOKEN_CLASS:
		return p.parseClassDecl(exportTok, true, false)
	case lexer.TOKEN_TYPE:
		if p.checkAt(1, lexer.TOKEN_LBRACE) {
			p.advance()
			return p.parseExportList(exportTok, true)
		}
		return p.parseTypeDecl(exportTok, true)
	case lexer.TOKEN_INTERFACE, lexer.TOKEN_ENUM:
		return p.parseTypeDecl(exportTok, true)
	case lexer.TOKEN_DECLARE:
		return p.parseDeclare(exportTok, true)
	case lexer.TOKEN_IDENTIFIER:
		if tok.Lexeme == "abstract" && p.checkAt(1, lexer.TOKEN_CLASS) {
			p.advance()
			return p.parseClassDecl(exportTok, true, false)
		}
	}

	// export = x; export import a = b.c; and other TypeScript-only forms
	return p.parseOtherStatement()
}

// parseExportDefault parses export default <declaration | expression>
func (p *Parser) parseExportDefault(exportTok lexer.Token) ast.Stmt {
	p.advance() // default

	switch {
	case p.check(lexer.TOKEN_FUNCTION):
		return p.parseFunctionDecl(exportTok, true, true)
	case p.check(lexer.TOKEN_ASYNC) && p.checkAt(1, lexer.TOKEN_FUNCTION):
		return p.parseFunctionDecl(exportTok, true, true)
	case p.check(lexer.TOKEN_CLASS):
		return p.parseClassDecl(exportTok, true, true)
	case p.check(lexer.TOKEN_IDENTIFIER) && p.peek().Lexeme == "abstract" && p.checkAt(1, lexer.TOKEN_CLASS):
		p.advance()
		return p.parseClassDecl(exportTok, true, true)
	case p.check(lexer.TOKEN_INTERFACE):
		return p.parseTypeDecl(exportTok, true)
	}

	stmt := &ast.ExportDefault{Loc: ast.TokenLocation(exportTok)}
	if p.isExpressionEnd(p.current) {
		p.error(p.peek(), "Expected expression after 'export default'")
		p.synchronize()
		return stmt
	}
	stmt.Expr = p.parseExpression()
	p.endStatement()
	return stmt
}

// parseExportList parses export { a, b as c } [from "..."]
func (p *Parser) parseExportList(exportTok lexer.Token, typeOnly bool) ast.Stmt {
	stmt := &ast.ExportNamed{
		Specifiers: make([]*ast.ExportSpecifier, 0),
		TypeOnly:   typeOnly,
		Loc:        ast.TokenLocation(exportTok),
	}

	p.advance() // {
	for !p.check(lexer.TOKEN_RBRACE) && !p.isAtEnd() {
		// export { type Foo } exports a type only
		if p.check(lexer.TOKEN_TYPE) && p.isModuleExportName(p.peekAt(1)) {
			p.advance()
			p.advance()
			if p.match(lexer.TOKEN_AS) {
				p.advance()
			}
		} else {
			spec, ok := p.parseExportSpecifier()
			if !ok {
				p.synchronize()
				return stmt
			}
			stmt.Specifiers = append(stmt.Specifiers, spec)
		}

		if !p.match(lexer.TOKEN_COMMA) {
			break
		}
	}

	if !p.match(lexer.TOKEN_RBRACE) {
		p.error(p.peek(), "Expected '}' after export list")
		p.synchronize()
		return stmt
	}

	if p.match(lexer.TOKEN_FROM) {
		source := p.consume(lexer.TOKEN_STRING_LITERAL, "Expected module specifier after 'from'")
		if source.Type == lexer.TOKEN_ERROR {
			p.synchronize()
			return stmt
		}
		stmt.From, _ = source.StringValue()
		p.skipImportAttributes()
	}

	p.endStatement()
	return stmt
}

// parseExportSpecifier parses `local` or `local as exported`
func (p *Parser) parseExportSpecifier() (*ast.ExportSpecifier, bool) {
	localTok := p.peek()
	if !p.isModuleExportName(localTok) {
		p.error(localTok, "Expected name in export list")
		return nil, false
	}
	p.advance()

	spec := &ast.ExportSpecifier{
		Local:    exportName(localTok),
		Exported: exportName(localTok),
		Loc:      ast.TokenLocation(localTok),
	}

	if p.match(lexer.TOKEN_AS) {
		exportedTok := p.peek()
		if !p.isModuleExportName(exportedTok) {
			p.error(exportedTok, "Expected name after 'as'")
			return nil, false
		}
		p.advance()
		spec.Exported = exportName(exportedTok)
	}

	return spec, true
}

// parseExportAll parses export * [as ns] from "..."
func (p *Parser) parseExportAll(exportTok lexer.Token) ast.Stmt {
	stmt := &ast.ExportNamed{All: true, Loc: ast.TokenLocation(exportTok)}
	p.advance() // *

	if p.match(lexer.TOKEN_AS) {
		p.advance()
	}
	if !p.match(lexer.TOKEN_FROM) {
		p.error(p.peek(), "Expected 'from' after 'export *'")
		p.synchronize()
		return stmt
	}
	source := p.consume(lexer.TOKEN_STRING_LITERAL, "Expected module specifier after 'from'")
	if source.Type == lexer.TOKEN_ERROR {
		p.synchronize()
		return stmt
	}
	stmt.From, _ = source.StringValue()
	p.endStatement()
	return stmt
}

// parseVarDecl parses a const/let/var statement. startTok is the first
// token of the statement (export, declare or the keyword itself).
func (p *Parser) parseVarDecl(startTok lexer.Token, exported, declare bool) ast.Stmt {
	kindTok := p.advance()

	decl := &ast.VarDecl{
		Kind:        varKind(kindTok.Type),
		Exported:    exported,
		Declare:     declare,
		Declarators: make([]*ast.Declarator, 0),
		Loc:         ast.TokenLocation(startTok),
	}

	for {
		d := p.parseDeclarator()
		if d == nil {
			p.synchronize()
			return decl
		}
		decl.Declarators = append(decl.Declarators, d)

		if !p.match(lexer.TOKEN_COMMA) {
			break
		}
	}

	p.endStatement()
	return decl
}

// parseDeclarator parses name[!][: Type][= init]
func (p *Parser) parseDeclarator() *ast.Declarator {
	nameTok := p.peek()
	d := &ast.Declarator{Loc: ast.TokenLocation(nameTok)}

	switch {
	case p.isBindingName(nameTok):
		p.advance()
		d.Name = nameTok.Lexeme
	case nameTok.Type == lexer.TOKEN_LBRACE || nameTok.Type == lexer.TOKEN_LBRACKET:
		d.Pattern = true
		if !p.skipBalanced() {
			return nil
		}
	default:
		p.error(nameTok, "Expected variable name")
		return nil
	}

	// Definite assignment assertion: let x!: T;
	if p.check(lexer.TOKEN_OPERATOR) && p.peek().Lexeme == "!" && p.checkAt(1, lexer.TOKEN_COLON) {
		p.advance()
	}

	if p.match(lexer.TOKEN_COLON) {
		d.Type = p.parseTypeText(lexer.TOKEN_EQUALS, lexer.TOKEN_COMMA, lexer.TOKEN_SEMICOLON)
		if d.Type == "" {
			p.error(p.peek(), "Expected type annotation after ':'")
			return nil
		}
	}

	if p.match(lexer.TOKEN_EQUALS) {
		if p.isExpressionEnd(p.current) {
			p.error(p.peek(), "Expected initializer after '='")
			return nil
		}
		d.Init = p.parseExpression()
	}

	return d
}

// parseFunctionDecl parses [async] function [*] name(params)[: T] { body }
func (p *Parser) parseFunctionDecl(startTok lexer.Token, exported, isDefault bool) ast.Stmt {
	decl := &ast.FunctionDecl{
		Exported: exported,
		Default:  isDefault,
		Loc:      ast.TokenLocation(startTok),
	}

	if p.match(lexer.TOKEN_ASYNC) {
		decl.Async = true
	}
	p.advance() // function
	if p.check(lexer.TOKEN_OPERATOR) && p.peek().Lexeme == "*" {
		decl.Generator = true
		p.advance()
	}

	if p.isBindingName(p.peek()) {
		decl.Name = p.advance().Lexeme
	} else if !isDefault {
		p.error(p.peek(), "Expected function name")
		p.synchronize()
		return decl
	}

	params, ok := p.parseFunctionSignature()
	if !ok {
		p.synchronize()
		return decl
	}
	decl.Params = params

	// Overload signature without a body
	if p.check(lexer.TOKEN_LBRACE) {
		p.skipBalanced()
	} else {
		p.endStatement()
	}
	return decl
}

// parseFunctionSignature parses [<T>](params)[: ReturnType]
func (p *Parser) parseFunctionSignature() ([]*ast.Param, bool) {
	if p.check(lexer.TOKEN_LT) && !p.skipTypeParameters() {
		return nil, false
	}

	if !p.check(lexer.TOKEN_LPAREN) {
		p.error(p.peek(), "Expected '(' before parameter list")
		return nil, false
	}

	params, ok := p.parseParams()
	if !ok {
		return nil, false
	}

	if p.match(lexer.TOKEN_COLON) {
		if p.parseReturnType(lexer.TOKEN_LBRACE) == "" {
			p.error(p.peek(), "Expected return type after ':'")
			return nil, false
		}
	}
	return params, true
}

// parseClassDecl parses a class declaration and skips its body
func (p *Parser) parseClassDecl(startTok lexer.Token, exported, isDefault bool) ast.Stmt {
	decl := &ast.ClassDecl{
		Exported: exported,
		Default:  isDefault,
		Loc:      ast.TokenLocation(startTok),
	}

	p.advance() // class
	if p.isBindingName(p.peek()) && p.peek().Lexeme != "implements" {
		decl.Name = p.advance().Lexeme
	}

	// Heritage clauses and type parameters up to the body
	p.skip(func(tok, _ lexer.Token) bool {
		return tok.Type == lexer.TOKEN_LBRACE
	}, true)

	if !p.check(lexer.TOKEN_LBRACE) {
		p.error(p.peek(), "Expected '{' before class body")
		p.synchronize()
		return decl
	}
	p.skipBalanced()
	return decl
}

// parseTypeDecl parses type aliases, interfaces and enums
func (p *Parser) parseTypeDecl(startTok lexer.Token, exported bool) ast.Stmt {
	keyword := p.advance()
	decl := &ast.TypeDecl{Exported: exported, Loc: ast.TokenLocation(startTok)}

	if !p.isBindingName(p.peek()) {
		p.error(p.peek(), "Expected name after '"+keyword.Lexeme+"'")
		p.synchronize()
		return decl
	}
	decl.Name = p.advance().Lexeme

	switch keyword.Type {
	case lexer.TOKEN_TYPE:
		if p.check(lexer.TOKEN_LT) && !p.skipTypeParameters() {
			p.synchronize()
			return decl
		}
		if !p.match(lexer.TOKEN_EQUALS) {
			p.error(p.peek(), "Expected '=' in type alias")
			p.synchronize()
			return decl
		}
		p.parseTypeText(lexer.TOKEN_SEMICOLON)
		p.endStatement()
	default:
		p.skip(func(tok, _ lexer.Token) bool {
			return tok.Type == lexer.TOKEN_LBRACE
		}, true)
		if !p.check(lexer.TOKEN_LBRACE) {
			p.error(p.peek(), "Expected '{' after '"+keyword.Lexeme+" "+decl.Name+"'")
			p.synchronize()
			return decl
		}
		p.skipBalanced()
	}

	return decl
}

// parseDeclare parses ambient declarations (declare const x: T; ...)
func (p *Parser) parseDeclare(startTok lexer.Token, exported bool) ast.Stmt {
	p.advance() // declare

	switch p.peek().Type {
	case lexer.TOKEN_CONST, lexer.TOKEN_LET, lexer.TOKEN_VAR:
		return p.parseVarDecl(startTok, exported, true)
	case lexer.TOKEN_FUNCTION:
		return p.parseFunctionDecl(startTok, exported, false)
	case lexer.TOKEN_CLASS:
		return p.parseClassDecl(startTok, exported, false)
	case lexer.TOKEN_TYPE, lexer.TOKEN_INTERFACE, lexer.TOKEN_ENUM:
		return p.parseTypeDecl(startTok, exported)
	}

	// declare module "x" { ... }, declare global { ... }
	return p.parseOtherStatement()
}

// parseOtherStatement skips a statement the contract does not care about
func (p *Parser) parseOtherStatement() ast.Stmt {
	stmt := &ast.OtherStmt{Loc: ast.TokenLocation(p.peek())}
	p.skipStatement()
	return stmt
}

// skipDecorators skips one or more @decorator(...) prefixes
func (p *Parser) skipDecorators() {
	for p.match(lexer.TOKEN_AT) {
		for p.isBindingName(p.peek()) || p.check(lexer.TOKEN_DOT) {
			p.advance()
		}
		if p.check(lexer.TOKEN_LPAREN) {
			p.skipBalanced()
		}
	}
}

// endStatement consumes a semicolon or accepts an automatically inserted one
func (p *Parser) endStatement() {
	if p.match(lexer.TOKEN_SEMICOLON) {
		return
	}
	tok := p.peek()
	if tok.NewlineBefore || tok.Type == lexer.TOKEN_RBRACE || tok.Type == lexer.TOKEN_EOF {
		return
	}
	p.error(tok, "Expected ';' or line break after statement")
	p.synchronize()
}

// Helpers

func varKind(t lexer.TokenType) ast.VarKind {
	switch t {
	case lexer.TOKEN_LET:
		return ast.VarLet
	case lexer.TOKEN_VAR:
		return ast.VarVar
	default:
		return ast.VarConst
	}
}

// isBindingName reports whether a token can name a binding
func (p *Parser) isBindingName(tok lexer.Token) bool {
	return tok.Type == lexer.TOKEN_IDENTIFIER || lexer.ContextualKeywords[tok.Type]
}

// isModuleExportName accepts identifiers, reserved words and string names
func (p *Parser) isModuleExportName(tok lexer.Token) bool {
	return tok.Type == lexer.TOKEN_IDENTIFIER ||
		tok.Type == lexer.TOKEN_STRING_LITERAL ||
		lexer.IsKeyword(tok.Lexeme)
}

// exportName returns the name carried by an export list entry
func exportName(tok lexer.Token) string {
	if s, ok := tok.StringValue(); ok && tok.Type == lexer.TOKEN_STRING_LITERAL {
		return s
	}
	return tok.Lexeme
}

// joinTypeTokens renders type tokens as compact text; words are separated
// by a single space and punctuation is attached (HTMLElement | null becomes
// "HTMLElement|null", keyof T stays "keyof T").
func joinTypeTokens(tokens []lexer.Token) string {
	var b strings.Builder
	prevWord := false
	for _, tok := range tokens {
		word := isWordToken(tok)
		if word && prevWord {
			b.WriteByte(' ')
		}
		b.WriteString(tok.Lexeme)
		prevWord = word
	}
	return b.String()
}

func isWordToken(tok lexer.Token) bool {
	switch tok.Type {
	case lexer.TOKEN_IDENTIFIER, lexer.TOKEN_NUMBER, lexer.TOKEN_STRING_LITERAL, lexer.TOKEN_TEMPLATE:
		return true
	}
	return lexer.IsKeyword(tok.Lexeme)
}

// NormalizeType renders type annotation text the way the parser records
// parameter types, so "HTMLElement | null" compares equal to "HTMLElement|null".
func NormalizeType(text string) string {
	tokens, _ := lexer.New(text).ScanTokens()
	if len(tokens) > 0 && tokens[len(tokens)-1].Type == lexer.TOKEN_EOF {
		tokens = tokens[:len(tokens)-1]
	}
	return joinTypeTokens(tokens)
}
