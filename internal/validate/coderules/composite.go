package coderules

import (
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/graphcode"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/issue"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/ruletable"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/validate"
)

// CompositeTypesAndNestingRule checks the signature of function-style
// composite nodes and the pin types of class-style ones. It runs on composite
// units only.
type CompositeTypesAndNestingRule struct{}

func (CompositeTypesAndNestingRule) ID() string       { return "code.composite_types_nesting" }
func (CompositeTypesAndNestingRule) Category() string { return issue.CategoryComposite }
func (CompositeTypesAndNestingRule) Package() string  { return pkgName }
func (CompositeTypesAndNestingRule) Revision() int    { return 1 }

func (r CompositeTypesAndNestingRule) Apply(ctx *validate.Context) []issue.Issue {
	if !ctx.FileMode() || !ctx.IsComposite {
		return nil
	}
	var out []issue.Issue
	if fns := ctx.Module.TopLevelFuncs(); len(fns) > 0 {
		out = append(out, r.checkFunction(ctx, fns[0])...)
	}
	for _, c := range ctx.Module.Classes() {
		if c.HasDecorator(graphcode.DecoratorCompositeClass) {
			out = append(out, r.checkClass(ctx, c)...)
		}
	}
	return out
}

func (r CompositeTypesAndNestingRule) checkFunction(ctx *validate.Context, fn *graphcode.FuncDef) []issue.Issue {
	var out []issue.Issue
	for _, p := range fn.Params {
		if p.Name == ruletable.RuntimeContextArg {
			continue
		}
		if _, ok := graphcode.StringValue(p.Annotation); !ok {
			out = append(out, issue.Errorf(r.Category(), issue.CodeCompositeArgType,
				"参数 '%s' 需要中文字符串类型注解（例如：\"实体\"、\"整数列表\"）", p.Name).
				InFile(ctx.RelPath, p.Span.Text()))
		}
	}
	if _, ok := graphcode.StringValue(fn.Returns); !ok {
		out = append(out, issue.Errorf(r.Category(), issue.CodeCompositeReturnType,
			"复合节点函数需要中文字符串返回类型注解（例如：\"流程\" 或具体数据类型）").
			InFile(ctx.RelPath, fn.Span.Text()))
	}

	flowIn := false
	if p, ok := fn.Param(ruletable.PortFlowIn); ok {
		t, _ := graphcode.StringValue(p.Annotation)
		flowIn = t == ruletable.TypeFlow
	}
	if !flowIn {
		out = append(out, issue.Errorf(r.Category(), issue.CodeCompositeFlowIn,
			"复合节点必须声明参数『%s: \"%s\"』以表明流程入口", ruletable.PortFlowIn, ruletable.TypeFlow).
			InFile(ctx.RelPath, fn.Span.Text()))
	}

	if ctx.Registry == nil {
		return out
	}
	for _, stmt := range fn.Body {
		for _, call := range graphcode.Calls(stmt) {
			name, ok := graphcode.FuncName(call)
			if !ok || !ctx.Registry.IsComposite(name) {
				continue
			}
			out = append(out, at(ctx, issue.LevelError, r.Category(), issue.CodeCompositeNesting, call.Span,
				"禁止在复合节点内部调用其他复合节点 '%s'", name))
		}
	}
	return out
}

func (r CompositeTypesAndNestingRule) checkClass(ctx *validate.Context, c *graphcode.ClassDef) []issue.Issue {
	var out []issue.Issue
	check := func(span graphcode.Span, what, typ string) {
		switch {
		case typ == ruletable.TypeAny || typ == ruletable.TypeGeneric:
			out = append(out, at(ctx, issue.LevelError, r.Category(), issue.CodeCompositePinGeneric, span,
				"复合节点%s不能使用泛型类型 '%s'；请声明具体的数据类型", what, typ))
		case !ruletable.IsScalarOrList(typ):
			out = append(out, at(ctx, issue.LevelError, r.Category(), issue.CodeCompositePinType, span,
				"复合节点%s的类型 '%s' 无效；只允许基础类型或其列表类型", what, typ))
		}
	}

	for _, m := range c.Methods() {
		if !m.HasDecorator(graphcode.DecoratorFlowEntry) && !m.HasDecorator(graphcode.DecoratorEventHandler) {
			continue
		}
		for _, p := range m.Params {
			t, ok := graphcode.StringValue(p.Annotation)
			if !ok || t == ruletable.TypeFlow {
				continue
			}
			check(p.Span, "参数『"+p.Name+"』", t)
		}
		for _, stmt := range m.Body {
			for _, call := range graphcode.Calls(stmt) {
				name, _ := graphcode.FuncName(call)
				if name != ruletable.PinDataIn && name != ruletable.PinDataOut {
					continue
				}
				v, ok := call.Keyword(ruletable.PinTypeKeyword)
				if !ok {
					continue
				}
				if t, ok := graphcode.StringValue(v); ok {
					check(call.Span, "引脚【"+name+"】", t)
				}
			}
		}
	}
	return out
}
