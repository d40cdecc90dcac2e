package graphcode

import "fmt"

// Inspect traverses the tree rooted at n in depth-first source order, calling
// f for each node. If f returns false, children of that node are skipped.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	switch n := n.(type) {
	case *Module:
		inspectStmts(n.Body, f)
	case *FuncDef:
		inspectExprs(n.Decorators, f)
		for i := range n.Params {
			Inspect(n.Params[i].Annotation, f)
			Inspect(n.Params[i].Default, f)
		}
		Inspect(n.Returns, f)
		inspectStmts(n.Body, f)
	case *ClassDef:
		inspectExprs(n.Decorators, f)
		inspectExprs(n.Bases, f)
		for _, kw := range n.Keywords {
			Inspect(kw.Value, f)
		}
		inspectStmts(n.Body, f)
	case *Assign:
		inspectExprs(n.Targets, f)
		Inspect(n.Value, f)
	case *AnnAssign:
		Inspect(n.Target, f)
		Inspect(n.Annotation, f)
		Inspect(n.Value, f)
	case *AugAssign:
		Inspect(n.Target, f)
		Inspect(n.Value, f)
	case *ExprStmt:
		Inspect(n.X, f)
	case *If:
		Inspect(n.Cond, f)
		inspectStmts(n.Body, f)
		inspectStmts(n.Else, f)
	case *For:
		Inspect(n.Target, f)
		Inspect(n.Iter, f)
		inspectStmts(n.Body, f)
		inspectStmts(n.Else, f)
	case *While:
		Inspect(n.Cond, f)
		inspectStmts(n.Body, f)
		inspectStmts(n.Else, f)
	case *Match:
		Inspect(n.Subject, f)
		for _, c := range n.Cases {
			inspectExprs(c.Patterns, f)
			inspectStmts(c.Body, f)
		}
	case *Return:
		Inspect(n.Value, f)
	case *Raise:
		Inspect(n.Exc, f)
	case *Import, *Pass, *Break, *Continue, *BadStmt:
	case *Attribute:
		Inspect(n.X, f)
	case *Call:
		Inspect(n.Func, f)
		inspectExprs(n.Args, f)
		for _, kw := range n.Keywords {
			Inspect(kw.Value, f)
		}
	case *UnaryOp:
		Inspect(n.X, f)
	case *BinOp:
		Inspect(n.X, f)
		Inspect(n.Y, f)
	case *BoolOp:
		inspectExprs(n.Values, f)
	case *Compare:
		Inspect(n.X, f)
		inspectExprs(n.Comparators, f)
	case *List:
		inspectExprs(n.Elts, f)
	case *Tuple:
		inspectExprs(n.Elts, f)
	case *Dict:
		inspectExprs(n.Keys, f)
		inspectExprs(n.Values, f)
	case *Subscript:
		Inspect(n.X, f)
		Inspect(n.Index, f)
	case *Name, *Str, *Num, *Const, *BadExpr:
	default:
		panic(fmt.Sprintf("graphcode.Inspect: unexpected node type %T", n))
	}
}

func inspectStmts(list []Stmt, f func(Node) bool) {
	for _, s := range list {
		Inspect(s, f)
	}
}

func inspectExprs(list []Expr, f func(Node) bool) {
	for _, e := range list {
		if e != nil {
			Inspect(e, f)
		}
	}
}

// Calls returns every call expression under n in source order.
func Calls(n Node) []*Call {
	var out []*Call
	Inspect(n, func(m Node) bool {
		if c, ok := m.(*Call); ok {
			out = append(out, c)
		}
		return true
	})
	return out
}

// FuncName returns the callee identifier of a bare-name call such as 加法(...).
func FuncName(c *Call) (string, bool) {
	if n, ok := c.Func.(*Name); ok {
		return n.ID, true
	}
	return "", false
}

// Keyword returns the value of the named keyword argument.
func (c *Call) Keyword(name string) (Expr, bool) {
	for _, kw := range c.Keywords {
		if kw.Name == name {
			return kw.Value, true
		}
	}
	return nil, false
}

// StringValue returns the value of a plain (non-formatted) string literal.
func StringValue(e Expr) (string, bool) {
	s, ok := e.(*Str)
	if !ok || s.Formatted {
		return "", false
	}
	return s.Value, true
}

// IsLiteral reports whether e is a non-None constant, optionally with a single
// leading sign.
func IsLiteral(e Expr) bool {
	switch e := e.(type) {
	case *Str:
		return !e.Formatted
	case *Num:
		return true
	case *Const:
		return e.Value != "None"
	case *UnaryOp:
		if e.Op != "+" && e.Op != "-" {
			return false
		}
		switch x := e.X.(type) {
		case *Num:
			return true
		case *Const:
			return x.Value != "None"
		case *Str:
			return !x.Formatted
		}
	}
	return false
}

// IsNone reports whether e is the literal None.
func IsNone(e Expr) bool {
	c, ok := e.(*Const)
	return ok && c.Value == "None"
}

// TopLevelFuncs returns the module's top-level function definitions.
func (m *Module) TopLevelFuncs() []*FuncDef {
	var out []*FuncDef
	for _, s := range m.Body {
		if fn, ok := s.(*FuncDef); ok {
			out = append(out, fn)
		}
	}
	return out
}

// Classes returns the module's top-level class definitions.
func (m *Module) Classes() []*ClassDef {
	var out []*ClassDef
	for _, s := range m.Body {
		if c, ok := s.(*ClassDef); ok {
			out = append(out, c)
		}
	}
	return out
}

// Methods returns the function definitions directly inside a class body.
func (c *ClassDef) Methods() []*FuncDef {
	var out []*FuncDef
	for _, s := range c.Body {
		if fn, ok := s.(*FuncDef); ok {
			out = append(out, fn)
		}
	}
	return out
}

// DecoratorName returns the dotted name of a decorator, ignoring call arguments.
func DecoratorName(d Expr) string {
	if c, ok := d.(*Call); ok {
		d = c.Func
	}
	return FormatExpr(d)
}

// HasDecorator reports whether fn carries a decorator named name.
func (fn *FuncDef) HasDecorator(name string) bool {
	for _, d := range fn.Decorators {
		if DecoratorName(d) == name {
			return true
		}
	}
	return false
}

// HasDecorator reports whether c carries a decorator named name.
func (c *ClassDef) HasDecorator(name string) bool {
	for _, d := range c.Decorators {
		if DecoratorName(d) == name {
			return true
		}
	}
	return false
}

// Param returns the named parameter.
func (fn *FuncDef) Param(name string) (Param, bool) {
	for _, p := range fn.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}
