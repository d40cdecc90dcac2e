// Package graphcode parses the generated node-graph source subset into a typed
// syntax tree. Statements and expressions are closed sum types: every concrete
// node implements Stmt or Expr through an unexported marker method, and
// constructs the generator never emits parse into BadStmt or BadExpr with an
// unsupported-shape diagnostic.
package graphcode

import "fmt"

// Span is a 1-based source range.
type Span struct {
	Line    int
	Col     int
	EndLine int
}

// Pos returns the span itself; embedding Span gives every node a position.
func (s Span) Pos() Span { return s }

// Text renders the span the way issue messages cite source lines.
func (s Span) Text() string {
	end := s.EndLine
	if end < s.Line {
		end = s.Line
	}
	return fmt.Sprintf("第%d~%d行", s.Line, end)
}

// Node is any syntax tree node.
type Node interface {
	Pos() Span
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// Module is a parsed source file.
type Module struct {
	Span
	// Doc is the module docstring, if any.
	Doc string
	// Metadata holds "key: value" lines of the module docstring.
	Metadata map[string]string
	Body     []Stmt
}

// ─── Statements ──────────────────────────────────────────────────────────────

// ParamKind distinguishes plain, *args and **kwargs parameters.
type ParamKind int

const (
	ParamPlain ParamKind = iota
	ParamStar
	ParamStarStar
)

// Param is one function parameter.
type Param struct {
	Span
	Name       string
	Annotation Expr // nil when absent
	Default    Expr // nil when absent
	Kind       ParamKind
}

// FuncDef is a function or method definition.
type FuncDef struct {
	Span
	Name       string
	Decorators []Expr
	Params     []Param
	Returns    Expr // nil when absent
	Doc        string
	Body       []Stmt
}

// ClassDef is a class definition.
type ClassDef struct {
	Span
	Name       string
	Decorators []Expr
	Bases      []Expr
	Keywords   []Keyword
	Doc        string
	Body       []Stmt
}

// Import is an import or from-import statement.
type Import struct {
	Span
	// From is the module of a from-import; empty for plain imports.
	From  string
	Names []ImportName
}

// ImportName is one imported name with an optional alias.
type ImportName struct {
	Name  string
	Alias string
}

// Assign is "t1 = t2 = value".
type Assign struct {
	Span
	Targets []Expr
	Value   Expr
}

// AnnAssign is "target: annotation [= value]".
type AnnAssign struct {
	Span
	Target     Expr
	Annotation Expr
	Value      Expr // nil when absent
}

// AugAssign is "target op= value".
type AugAssign struct {
	Span
	Target Expr
	Op     string
	Value  Expr
}

// ExprStmt is an expression evaluated for its effect.
type ExprStmt struct {
	Span
	X Expr
}

// If is an if statement; elif chains nest as a single If in Else.
type If struct {
	Span
	Cond Expr
	Body []Stmt
	Else []Stmt
}

// For is a for loop.
type For struct {
	Span
	Target Expr
	Iter   Expr
	Body   []Stmt
	Else   []Stmt
}

// While is a while loop.
type While struct {
	Span
	Cond Expr
	Body []Stmt
	Else []Stmt
}

// Match is a match statement.
type Match struct {
	Span
	Subject Expr
	Cases   []MatchCase
}

// MatchCase is one case arm. Patterns are alternatives joined by "|"; an empty
// slice is the wildcard "_".
type MatchCase struct {
	Span
	Patterns []Expr
	Body     []Stmt
}

// Return is a return statement.
type Return struct {
	Span
	Value Expr // nil for a bare return
}

// Raise is a raise statement.
type Raise struct {
	Span
	Exc Expr // nil for a bare raise
}

// Pass is a pass statement.
type Pass struct{ Span }

// Break is a break statement.
type Break struct{ Span }

// Continue is a continue statement.
type Continue struct{ Span }

// BadStmt stands in for a statement shape the generator never emits.
type BadStmt struct {
	Span
	Reason string
}

func (*FuncDef) stmtNode()   {}
func (*ClassDef) stmtNode()  {}
func (*Import) stmtNode()    {}
func (*Assign) stmtNode()    {}
func (*AnnAssign) stmtNode() {}
func (*AugAssign) stmtNode() {}
func (*ExprStmt) stmtNode()  {}
func (*If) stmtNode()        {}
func (*For) stmtNode()       {}
func (*While) stmtNode()     {}
func (*Match) stmtNode()     {}
func (*Return) stmtNode()    {}
func (*Raise) stmtNode()     {}
func (*Pass) stmtNode()      {}
func (*Break) stmtNode()     {}
func (*Continue) stmtNode()  {}
func (*BadStmt) stmtNode()   {}

// ─── Expressions ─────────────────────────────────────────────────────────────

// Name is an identifier reference.
type Name struct {
	Span
	ID string
}

// Attribute is "x.attr".
type Attribute struct {
	Span
	X    Expr
	Attr string
}

// Keyword is a keyword argument "name=value".
type Keyword struct {
	Span
	Name  string
	Value Expr
}

// Call is a call expression.
type Call struct {
	Span
	Func     Expr
	Args     []Expr
	Keywords []Keyword
}

// Str is a string literal; adjacent literals are concatenated.
type Str struct {
	Span
	Value string
	// Formatted marks f-strings, which are not constants.
	Formatted bool
}

// Num is a numeric literal.
type Num struct {
	Span
	Raw string
}

// Const is True, False or None.
type Const struct {
	Span
	Value string
}

// UnaryOp is "+x", "-x", "~x" or "not x".
type UnaryOp struct {
	Span
	Op string
	X  Expr
}

// BinOp is an arithmetic or bitwise binary expression.
type BinOp struct {
	Span
	X  Expr
	Op string
	Y  Expr
}

// BoolOp is a chain of "and" or "or".
type BoolOp struct {
	Span
	Op     string
	Values []Expr
}

// Compare is "x op1 y op2 z".
type Compare struct {
	Span
	X           Expr
	Ops         []string
	Comparators []Expr
}

// List is a list display.
type List struct {
	Span
	Elts []Expr
}

// Tuple is a tuple display or bare comma list.
type Tuple struct {
	Span
	Elts []Expr
}

// Dict is a dict display.
type Dict struct {
	Span
	Keys   []Expr
	Values []Expr
}

// Subscript is "x[index]".
type Subscript struct {
	Span
	X     Expr
	Index Expr
}

// BadExpr stands in for an expression shape the generator never emits.
type BadExpr struct {
	Span
	Reason string
}

func (*Name) exprNode()      {}
func (*Attribute) exprNode() {}
func (*Call) exprNode()      {}
func (*Str) exprNode()       {}
func (*Num) exprNode()       {}
func (*Const) exprNode()     {}
func (*UnaryOp) exprNode()   {}
func (*BinOp) exprNode()     {}
func (*BoolOp) exprNode()    {}
func (*Compare) exprNode()   {}
func (*List) exprNode()      {}
func (*Tuple) exprNode()     {}
func (*Dict) exprNode()      {}
func (*Subscript) exprNode() {}
func (*BadExpr) exprNode()   {}

// Diagnostic is a parse-time finding.
type Diagnostic struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Span    Span   `json:"span"`
}
