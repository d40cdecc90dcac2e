package graphcode

import (
	"strconv"
	"strings"
)

// FormatExpr renders an expression back to source-like text for messages.
// The output is canonical rather than byte-identical: spacing is normalized
// and strings are re-quoted.
func FormatExpr(e Expr) string {
	var b strings.Builder
	writeExpr(&b, e)
	return b.String()
}

func writeExpr(b *strings.Builder, e Expr) {
	switch e := e.(type) {
	case nil:
	case *Name:
		b.WriteString(e.ID)
	case *Attribute:
		writeExpr(b, e.X)
		b.WriteByte('.')
		b.WriteString(e.Attr)
	case *Call:
		writeExpr(b, e.Func)
		b.WriteByte('(')
		n := 0
		for _, a := range e.Args {
			if n > 0 {
				b.WriteString(", ")
			}
			writeExpr(b, a)
			n++
		}
		for _, kw := range e.Keywords {
			if n > 0 {
				b.WriteString(", ")
			}
			b.WriteString(kw.Name)
			b.WriteByte('=')
			writeExpr(b, kw.Value)
			n++
		}
		b.WriteByte(')')
	case *Str:
		if e.Formatted {
			b.WriteByte('f')
		}
		b.WriteString(strconv.Quote(e.Value))
	case *Num:
		b.WriteString(e.Raw)
	case *Const:
		b.WriteString(e.Value)
	case *UnaryOp:
		b.WriteString(e.Op)
		if e.Op == "not" {
			b.WriteByte(' ')
		}
		writeExpr(b, e.X)
	case *BinOp:
		writeExpr(b, e.X)
		b.WriteString(" " + e.Op + " ")
		writeExpr(b, e.Y)
	case *BoolOp:
		for i, v := range e.Values {
			if i > 0 {
				b.WriteString(" " + e.Op + " ")
			}
			writeExpr(b, v)
		}
	case *Compare:
		writeExpr(b, e.X)
		for i, op := range e.Ops {
			b.WriteString(" " + op + " ")
			writeExpr(b, e.Comparators[i])
		}
	case *List:
		b.WriteByte('[')
		writeList(b, e.Elts)
		b.WriteByte(']')
	case *Tuple:
		b.WriteByte('(')
		writeList(b, e.Elts)
		if len(e.Elts) == 1 {
			b.WriteByte(',')
		}
		b.WriteByte(')')
	case *Dict:
		b.WriteByte('{')
		for i := range e.Keys {
			if i > 0 {
				b.WriteString(", ")
			}
			writeExpr(b, e.Keys[i])
			b.WriteString(": ")
			writeExpr(b, e.Values[i])
		}
		b.WriteByte('}')
	case *Subscript:
		writeExpr(b, e.X)
		b.WriteByte('[')
		writeExpr(b, e.Index)
		b.WriteByte(']')
	case *BadExpr:
		b.WriteString("<" + e.Reason + ">")
	}
}

func writeList(b *strings.Builder, elts []Expr) {
	for i, el := range elts {
		if i > 0 {
			b.WriteString(", ")
		}
		writeExpr(b, el)
	}
}
