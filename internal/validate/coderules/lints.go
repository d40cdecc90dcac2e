package coderules

import (
	"slices"

	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/graphcode"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/issue"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/ruletable"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/validate"
)

// LongWireRule reports event methods that pass 事件源实体 as a keyword
// argument more than LongWireUsageMax times across at least
// LongWireLineSpanMin source lines.
type LongWireRule struct{}

func (LongWireRule) ID() string       { return "code.long_wire" }
func (LongWireRule) Category() string { return issue.CategoryCodeStyle }
func (LongWireRule) Package() string  { return pkgName }
func (LongWireRule) Revision() int    { return 2 }

func (r LongWireRule) Apply(ctx *validate.Context) []issue.Issue {
	if !ctx.FileMode() || ctx.IsComposite {
		return nil
	}
	var out []issue.Issue
	for _, c := range ctx.Module.Classes() {
		for _, m := range c.Methods() {
			if _, ok := m.Param(ruletable.ParamEventSource); !ok {
				continue
			}
			var lines []int
			for _, stmt := range m.Body {
				for _, call := range graphcode.Calls(stmt) {
					for _, kw := range call.Keywords {
						if n, ok := kw.Value.(*graphcode.Name); ok && n.ID == ruletable.ParamEventSource {
							lines = append(lines, n.Line)
						}
					}
				}
			}
			if len(lines) <= ctx.Config.LongWireUsageMax {
				continue
			}
			first, last := slices.Min(lines), slices.Max(lines)
			span := last - first
			if span < ctx.Config.LongWireLineSpanMin {
				continue
			}
			out = append(out, issue.Errorf(r.Category(), issue.CodeEventEntityLongWire,
				"方法 %s.%s 内『%s』作为参数被使用 %d 次，源码行跨度约 %d 行；建议在方法内部尽早获取局部引用或拆分流程以缩短跨越。",
				c.Name, m.Name, ruletable.ParamEventSource, len(lines), span).
				InFile(ctx.RelPath, graphcode.Span{Line: first, EndLine: last}.Text()).
				WithDetail(map[string]any{
					"class_name":  c.Name,
					"method":      m.Name,
					"usage_count": len(lines),
					"line_span":   span,
				}))
		}
	}
	return out
}

// UnusedQueryOutputRule warns about names assigned from a query or compute
// node call and never read on a later line of the same function.
type UnusedQueryOutputRule struct{}

func (UnusedQueryOutputRule) ID() string       { return "code.unused_query_output" }
func (UnusedQueryOutputRule) Category() string { return issue.CategoryCodeStyle }
func (UnusedQueryOutputRule) Package() string  { return pkgName }
func (UnusedQueryOutputRule) Revision() int    { return 2 }

func (r UnusedQueryOutputRule) Apply(ctx *validate.Context) []issue.Issue {
	if !ctx.FileMode() || ctx.IsComposite || ctx.Registry == nil {
		return nil
	}
	var out []issue.Issue
	for _, fn := range functions(ctx.Module) {
		var order []string
		assigned := map[string]graphcode.Span{}
		for _, stmt := range fn.Body {
			graphcode.Inspect(stmt, func(n graphcode.Node) bool {
				a, ok := n.(*graphcode.Assign)
				if !ok || len(a.Targets) != 1 {
					return true
				}
				target, ok := a.Targets[0].(*graphcode.Name)
				if !ok {
					return true
				}
				call, ok := a.Value.(*graphcode.Call)
				if !ok {
					return true
				}
				name, ok := graphcode.FuncName(call)
				if !ok || !ruletable.IsDataQueryCategory(ctx.Registry.Category(name)) {
					return true
				}
				if _, seen := assigned[target.ID]; !seen {
					order = append(order, target.ID)
				}
				assigned[target.ID] = a.Span
				return true
			})
		}
		if len(assigned) == 0 {
			continue
		}

		used := map[string]bool{}
		for _, stmt := range fn.Body {
			nameLoads(stmt, func(n *graphcode.Name) {
				if span, ok := assigned[n.ID]; ok && n.Line > span.Line {
					used[n.ID] = true
				}
			})
		}
		for _, v := range order {
			if used[v] {
				continue
			}
			out = append(out, issue.Warnf(r.Category(), issue.CodeUnusedQueryOutput,
				"变量 '%s' 接收了查询节点输出但后续未使用；请删除赋值或使用其值", v).
				InFile(ctx.RelPath, assigned[v].Text()))
		}
	}
	return out
}

// nameLoads calls visit for every name read under n. Plain names on the left
// of an assignment or as a loop target are stores and are not visited.
func nameLoads(n graphcode.Node, visit func(*graphcode.Name)) {
	graphcode.Inspect(n, func(m graphcode.Node) bool {
		switch m := m.(type) {
		case *graphcode.Name:
			visit(m)
		case *graphcode.Assign:
			for _, t := range m.Targets {
				storeTarget(t, visit)
			}
			nameLoads(m.Value, visit)
			return false
		case *graphcode.AnnAssign:
			storeTarget(m.Target, visit)
			if m.Value != nil {
				nameLoads(m.Value, visit)
			}
			return false
		case *graphcode.For:
			storeTarget(m.Target, visit)
			nameLoads(m.Iter, visit)
			for _, s := range m.Body {
				nameLoads(s, visit)
			}
			for _, s := range m.Else {
				nameLoads(s, visit)
			}
			return false
		}
		return true
	})
}

func storeTarget(t graphcode.Expr, visit func(*graphcode.Name)) {
	switch t := t.(type) {
	case *graphcode.Name:
	case *graphcode.Tuple:
		for _, e := range t.Elts {
			storeTarget(e, visit)
		}
	case *graphcode.List:
		for _, e := range t.Elts {
			storeTarget(e, visit)
		}
	default:
		nameLoads(t, visit)
	}
}

// UnreachableCodeRule reports the first statement after a return or raise in
// every block as an error.
type UnreachableCodeRule struct{}

func (UnreachableCodeRule) ID() string       { return "code.unreachable" }
func (UnreachableCodeRule) Category() string { return issue.CategoryCodeStyle }
func (UnreachableCodeRule) Package() string  { return pkgName }
func (UnreachableCodeRule) Revision() int    { return 2 }

func (r UnreachableCodeRule) Apply(ctx *validate.Context) []issue.Issue {
	if !ctx.FileMode() || ctx.IsComposite {
		return nil
	}
	var out []issue.Issue
	var block func([]graphcode.Stmt)
	block = func(stmts []graphcode.Stmt) {
		terminated := false
		for _, s := range stmts {
			if terminated {
				out = append(out, at(ctx, issue.LevelError, r.Category(), issue.CodeUnreachableAfterReturn, s.Pos(),
					"该语句位于 return/raise 之后，永远不会被执行"))
				break
			}
			switch s := s.(type) {
			case *graphcode.Return, *graphcode.Raise:
				terminated = true
			case *graphcode.If:
				block(s.Body)
				block(s.Else)
			case *graphcode.For:
				block(s.Body)
				block(s.Else)
			case *graphcode.While:
				block(s.Body)
				block(s.Else)
			case *graphcode.Match:
				for _, c := range s.Cases {
					block(c.Body)
				}
			}
		}
	}
	for _, fn := range functions(ctx.Module) {
		block(fn.Body)
	}
	return out
}
