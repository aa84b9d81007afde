// Package ast defines the syntax tree for the top level of a TypeScript
// feature module. Only the declarations that matter for the module contract
// are modelled in detail; everything else is kept as opaque nodes with a
// source location.
package ast

import "github.com/integreat-cms/featurereg/internal/compiler/lexer"

// SourceLocation tracks the position of an AST node in source code
type SourceLocation struct {
	Line   int `json:"line" yaml:"line"`     // Line number (1-indexed)
	Column int `json:"column" yaml:"column"` // Column number (1-indexed)
}

// Node is the base interface for all AST nodes
type Node interface {
	Location() SourceLocation
	node()
}

// Stmt is a top-level statement
type Stmt interface {
	Node
	stmtNode()
}

// Expr is an expression used as an initializer or export target
type Expr interface {
	Node
	exprNode()
}

// Program is the root node of the AST
type Program struct {
	Statements []Stmt
}

func (p *Program) node() {}

// Location returns the source location of the program node in the AST.
func (p *Program) Location() SourceLocation {
	if len(p.Statements) > 0 {
		return p.Statements[0].Location()
	}
	return SourceLocation{Line: 1, Column: 1}
}

// VarKind distinguishes const, let and var declarations
type VarKind int

const (
	// VarConst is a const declaration
	VarConst VarKind = iota
	// VarLet is a let declaration
	VarLet
	// VarVar is a var declaration
	VarVar
)

// String returns the keyword for the declaration kind
func (k VarKind) String() string {
	switch k {
	case VarConst:
		return "const"
	case VarLet:
		return "let"
	default:
		return "var"
	}
}

// ImportDecl represents an import statement
type ImportDecl struct {
	Source   string // Module specifier, empty if it could not be read
	TypeOnly bool   // import type { ... }
	Loc      SourceLocation
}

// VarDecl represents a const/let/var statement
type VarDecl struct {
	Kind        VarKind
	Exported    bool
	Declare     bool // declare const x: T;
	Declarators []*Declarator
	Loc         SourceLocation
}

// Declarator is one binding of a VarDecl
type Declarator struct {
	Name    string // Empty for destructuring patterns
	Pattern bool   // Binding is an object or array pattern
	Type    string // Type annotation text, empty if absent
	Init    Expr   // Initializer, nil if absent
	Loc     SourceLocation
}

// FunctionDecl represents a function declaration
type FunctionDecl struct {
	Name      string
	Exported  bool
	Default   bool // export default function
	Async     bool
	Generator bool
	Params    []*Param
	Loc       SourceLocation
}

// ClassDecl represents a class declaration
type ClassDecl struct {
	Name     string
	Exported bool
	Default  bool
	Loc      SourceLocation
}

// TypeDecl represents a type alias, interface or enum declaration
type TypeDecl struct {
	Name     string
	Exported bool
	Loc      SourceLocation
}

// ExportDefault represents export default <expression>
type ExportDefault struct {
	Expr Expr
	Loc  SourceLocation
}

// ExportNamed represents export { a, b as c } [from "..."]
type ExportNamed struct {
	Specifiers []*ExportSpecifier
	From       string // Re-export source, empty for local exports
	All        bool   // export * from "..."
	TypeOnly   bool
	Loc        SourceLocation
}

// ExportSpecifier is one entry of an export list
type ExportSpecifier struct {
	Local    string
	Exported string
	Loc      SourceLocation
}

// OtherStmt is any statement the parser skipped structurally
type OtherStmt struct {
	Loc SourceLocation
}

func (*ImportDecl) node()    {}
func (*VarDecl) node()       {}
func (*FunctionDecl) node()  {}
func (*ClassDecl) node()     {}
func (*TypeDecl) node()      {}
func (*ExportDefault) node() {}
func (*ExportNamed) node()   {}
func (*OtherStmt) node()     {}

func (*ImportDecl) stmtNode()    {}
func (*VarDecl) stmtNode()       {}
func (*FunctionDecl) stmtNode()  {}
func (*ClassDecl) stmtNode()     {}
func (*TypeDecl) stmtNode()      {}
func (*ExportDefault) stmtNode() {}
func (*ExportNamed) stmtNode()   {}
func (*OtherStmt) stmtNode()     {}

// Location returns the source location of the import.
func (s *ImportDecl) Location() SourceLocation { return s.Loc }

// Location returns the source location of the declaration keyword.
func (s *VarDecl) Location() SourceLocation { return s.Loc }

// Location returns the source location of the function declaration.
func (s *FunctionDecl) Location() SourceLocation { return s.Loc }

// Location returns the source location of the class declaration.
func (s *ClassDecl) Location() SourceLocation { return s.Loc }

// Location returns the source location of the type declaration.
func (s *TypeDecl) Location() SourceLocation { return s.Loc }

// Location returns the source location of the export keyword.
func (s *ExportDefault) Location() SourceLocation { return s.Loc }

// Location returns the source location of the export keyword.
func (s *ExportNamed) Location() SourceLocation { return s.Loc }

// Location returns the source location of the first skipped token.
func (s *OtherStmt) Location() SourceLocation { return s.Loc }

// Location returns the source location of the binding name.
func (d *Declarator) Location() SourceLocation { return d.Loc }

// Param is a function parameter
type Param struct {
	Name       string // Empty for destructuring patterns
	Pattern    bool
	Type       string // Type annotation text, empty if absent
	Optional   bool   // root?: T
	Rest       bool   // ...args
	HasDefault bool   // root = document.body
	Loc        SourceLocation
}

// StringLiteral is a quoted string or a template without substitutions
type StringLiteral struct {
	Value    string
	Template bool
	Loc      SourceLocation
}

// Identifier is a bare identifier reference
type Identifier struct {
	Name string
	Loc  SourceLocation
}

// ArrowFunction is (params) => body
type ArrowFunction struct {
	Async  bool
	Params []*Param
	Loc    SourceLocation
}

// FunctionExpr is function name?(params) { body }
type FunctionExpr struct {
	Name      string
	Async     bool
	Generator bool
	Params    []*Param
	Loc       SourceLocation
}

// OpaqueExpr is any other expression; Text holds its tokens joined by spaces
type OpaqueExpr struct {
	Text string
	Loc  SourceLocation
}

func (*StringLiteral) node() {}
func (*Identifier) node()    {}
func (*ArrowFunction) node() {}
func (*FunctionExpr) node()  {}
func (*OpaqueExpr) node()    {}

func (*StringLiteral) exprNode() {}
func (*Identifier) exprNode()    {}
func (*ArrowFunction) exprNode() {}
func (*FunctionExpr) exprNode()  {}
func (*OpaqueExpr) exprNode()    {}

// Location returns the source location of the literal.
func (e *StringLiteral) Location() SourceLocation { return e.Loc }

// Location returns the source location of the identifier.
func (e *Identifier) Location() SourceLocation { return e.Loc }

// Location returns the source location of the parameter list.
func (e *ArrowFunction) Location() SourceLocation { return e.Loc }

// Location returns the source location of the function keyword.
func (e *FunctionExpr) Location() SourceLocation { return e.Loc }

// Location returns the source location of the first token.
func (e *OpaqueExpr) Location() SourceLocation { return e.Loc }

// Location returns the source location of the parameter name.
func (p *Param) Location() SourceLocation { return p.Loc }

// FunctionLike is implemented by arrow functions and function expressions
type FunctionLike interface {
	Expr
	Parameters() []*Param
}

// Parameters returns the parameter list.
func (e *ArrowFunction) Parameters() []*Param { return e.Params }

// Parameters returns the parameter list.
func (e *FunctionExpr) Parameters() []*Param { return e.Params }

// TokenLocation creates a SourceLocation from a lexer token
func TokenLocation(token lexer.Token) SourceLocation {
	return SourceLocation{
		Line:   token.Line,
		Column: token.Column,
	}
}
