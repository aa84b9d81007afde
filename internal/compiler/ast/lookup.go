package ast

// Binding is a top-level name together with the statement declaring it.
// Exactly one of Var, Func and Class is set.
type Binding struct {
	Name       string
	Var        *VarDecl
	Declarator *Declarator
	Func       *FunctionDecl
	Class      *ClassDecl
}

// Location returns the location of the declaring node
func (b *Binding) Location() SourceLocation {
	switch {
	case b.Declarator != nil:
		return b.Declarator.Loc
	case b.Func != nil:
		return b.Func.Loc
	case b.Class != nil:
		return b.Class.Loc
	}
	return SourceLocation{Line: 1, Column: 1}
}

// Lookup finds the first top-level declaration of name.
func (p *Program) Lookup(name string) (*Binding, bool) {
	for _, stmt := range p.Statements {
		switch s := stmt.(type) {
		case *VarDecl:
			for _, d := range s.Declarators {
				if d.Name == name {
					return &Binding{Name: name, Var: s, Declarator: d}, true
				}
			}
		case *FunctionDecl:
			if s.Name == name {
				return &Binding{Name: name, Func: s}, true
			}
		case *ClassDecl:
			if s.Name == name {
				return &Binding{Name: name, Class: s}, true
			}
		}
	}
	return nil, false
}

// IsExported reports whether a top-level name is exported under the given
// public name, either by an export modifier on its declaration or by a
// local export list.
func (p *Program) IsExported(local, exported string) bool {
	if local == exported {
		if b, ok := p.Lookup(local); ok {
			switch {
			case b.Var != nil && b.Var.Exported:
				return true
			case b.Func != nil && b.Func.Exported && !b.Func.Default:
				return true
			case b.Class != nil && b.Class.Exported && !b.Class.Default:
				return true
			}
		}
	}

	for _, stmt := range p.Statements {
		named, ok := stmt.(*ExportNamed)
		if !ok || named.From != "" || named.TypeOnly {
			continue
		}
		for _, spec := range named.Specifiers {
			if spec.Local == local && spec.Exported == exported {
				return true
			}
		}
	}
	return false
}

// DefaultExport describes one default export of a module. Local is the
// top-level name that is exported as default; it is empty for anonymous
// default exports such as export default () => {}.
type DefaultExport struct {
	Local string
	Node  Node
}

// DefaultExports returns every default export of the program in source order.
func (p *Program) DefaultExports() []DefaultExport {
	var exports []DefaultExport
	for _, stmt := range p.Statements {
		switch s := stmt.(type) {
		case *ExportDefault:
			local := ""
			if id, ok := s.Expr.(*Identifier); ok {
				local = id.Name
			}
			exports = append(exports, DefaultExport{Local: local, Node: s})
		case *FunctionDecl:
			if s.Default {
				exports = append(exports, DefaultExport{Local: s.Name, Node: s})
			}
		case *ClassDecl:
			if s.Default {
				exports = append(exports, DefaultExport{Local: s.Name, Node: s})
			}
		case *ExportNamed:
			if s.From != "" || s.TypeOnly {
				continue
			}
			for _, spec := range s.Specifiers {
				if spec.Exported == "default" {
					exports = append(exports, DefaultExport{Local: spec.Local, Node: spec})
				}
			}
		}
	}
	return exports
}

func (*ExportSpecifier) node() {}

// Location returns the source location of the specifier.
func (s *ExportSpecifier) Location() SourceLocation { return s.Loc }
