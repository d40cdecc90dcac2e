// Package coderules implements the rules that inspect the parsed source of a
// single graph or composite node.
package coderules

import (
	"fmt"
	"strings"

	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/graphcode"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/issue"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/ruletable"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/validate"
)

const pkgName = "coderules"

// Default returns the code rules in the order they run.
func Default() []validate.Rule {
	return []validate.Rule{
		UnsupportedShapeRule{},
		RequiredInputsRule{},
		TypeNameRule{},
		GraphVarsDeclarationRule{},
		NoLiteralAssignmentRule{},
		LocalVarInitialValueRule{},
		SignalParamNamesRule{},
		StructNameRequiredRule{},
		UnknownEventNameRule{},
		CompositeTypesAndNestingRule{},
		LongWireRule{},
		UnusedQueryOutputRule{},
		UnreachableCodeRule{},
	}
}

// NewPipeline returns a pipeline of the default code rules.
func NewPipeline() *validate.Pipeline { return validate.NewPipeline(Default()...) }

// at builds an issue located at span of the context's file. The message is
// prefixed with the rendered line span.
func at(ctx *validate.Context, level issue.Level, category, code string, span graphcode.Span, format string, args ...any) issue.Issue {
	text := span.Text()
	msg := fmt.Sprintf(format, args...)
	return issue.New(level, category, code, text+": "+msg).InFile(ctx.RelPath, text)
}

// functions returns every method of every top-level class followed by every
// top-level function: the code that runs as graph logic.
func functions(mod *graphcode.Module) []*graphcode.FuncDef {
	var out []*graphcode.FuncDef
	for _, c := range mod.Classes() {
		out = append(out, c.Methods()...)
	}
	return append(out, mod.TopLevelFuncs()...)
}

// calls returns every call inside fns in source order.
func calls(fns []*graphcode.FuncDef) []*graphcode.Call {
	var out []*graphcode.Call
	for _, fn := range fns {
		for _, stmt := range fn.Body {
			out = append(out, graphcode.Calls(stmt)...)
		}
	}
	return out
}

// dataArgs drops the reserved arguments (self, game, self.game, ...) and a
// leading runtime context from a call's positional arguments.
func dataArgs(c *graphcode.Call) []graphcode.Expr {
	var out []graphcode.Expr
	for i, a := range c.Args {
		text := graphcode.FormatExpr(a)
		if ruletable.ReservedLeadingArgs[text] || (i == 0 && ruletable.ContextArgs[text]) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// staticString resolves e to a trimmed string when it is a literal or a
// module-level string constant.
func staticString(mod *graphcode.Module, consts map[string]string, e graphcode.Expr) (string, bool) {
	s, ok := mod.ResolveString(e, consts)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(s), true
}
