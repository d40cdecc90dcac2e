package coderules

import (
	"strings"

	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/graphcode"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/issue"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/ruletable"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/validate"
)

// RequiredInputsRule reports node calls that leave required input ports
// unset. It applies to composite units too.
type RequiredInputsRule struct{}

func (RequiredInputsRule) ID() string       { return "code.required_inputs" }
func (RequiredInputsRule) Category() string { return issue.CategoryCodeStyle }
func (RequiredInputsRule) Package() string  { return pkgName }
func (RequiredInputsRule) Revision() int    { return 2 }

func (r RequiredInputsRule) Apply(ctx *validate.Context) []issue.Issue {
	if !ctx.FileMode() || ctx.Registry == nil {
		return nil
	}
	var out []issue.Issue
	for _, call := range calls(functions(ctx.Module)) {
		name, ok := graphcode.FuncName(call)
		if !ok || ctx.Registry.IsComposite(name) {
			continue
		}
		required := ctx.Registry.RequiredInputs(name)
		if len(required) == 0 {
			continue
		}
		provided := make(map[string]bool, len(call.Keywords))
		for _, kw := range call.Keywords {
			provided[kw.Name] = true
		}
		for i := range min(len(dataArgs(call)), len(required)) {
			provided[required[i]] = true
		}
		var missing []string
		for _, p := range required {
			if !provided[p] {
				missing = append(missing, p)
			}
		}
		if len(missing) == 0 {
			continue
		}
		out = append(out, at(ctx, issue.LevelError, r.Category(), issue.CodeMissingRequiredInputs, call.Span,
			"【%s】调用缺少必填输入端口参数: %s。请按节点定义补全这些端口的输入值（流程端口不在本规则检查范围）。",
			name, strings.Join(missing, "，")))
	}
	return out
}

// TypeNameRule reports type names outside the allowed set in the declared
// graph variables and string annotations of annotated assignments.
type TypeNameRule struct{}

func (TypeNameRule) ID() string       { return "code.type_name" }
func (TypeNameRule) Category() string { return issue.CategoryCodeStyle }
func (TypeNameRule) Package() string  { return pkgName }
func (TypeNameRule) Revision() int    { return 1 }

func (r TypeNameRule) Apply(ctx *validate.Context) []issue.Issue {
	if !ctx.FileMode() || ctx.IsComposite {
		return nil
	}
	var extra []string
	if ctx.Registry != nil {
		extra = ctx.Registry.PortTypes()
	}
	allowed := ruletable.NewTypeSet(extra...)

	var out []issue.Issue
	report := func(span graphcode.Span, where, name string) {
		out = append(out, at(ctx, issue.LevelError, r.Category(), issue.CodeUnknownTypeName, span,
			"%s使用了未知的类型名 '%s'；请使用基础类型、列表类型、结构体类型或节点端口类型（字典别名写作『键-值字典』）", where, name))
	}

	for _, gv := range ctx.Module.GraphVariables() {
		if gv.TypeExpr == nil {
			continue
		}
		if _, ok := graphcode.StringValue(gv.TypeExpr); !ok {
			report(gv.Span, "节点图变量『"+gv.Name+"』的 variable_type ", graphcode.FormatExpr(gv.TypeExpr))
			continue
		}
		if !allowed.Allows(gv.Type) {
			report(gv.Span, "节点图变量『"+gv.Name+"』", gv.Type)
		}
	}

	graphcode.Inspect(ctx.Module, func(n graphcode.Node) bool {
		if a, ok := n.(*graphcode.AnnAssign); ok {
			if t, ok := graphcode.StringValue(a.Annotation); ok && !allowed.Allows(t) {
				report(a.Span, "类型注解", t)
			}
		}
		return true
	})
	return out
}

// GraphVarsDeclarationRule requires graph-variable nodes to name a variable
// declared in GRAPH_VARIABLES with a string literal.
type GraphVarsDeclarationRule struct{}

func (GraphVarsDeclarationRule) ID() string       { return "code.graph_vars_declaration" }
func (GraphVarsDeclarationRule) Category() string { return issue.CategoryCodeStyle }
func (GraphVarsDeclarationRule) Package() string  { return pkgName }
func (GraphVarsDeclarationRule) Revision() int    { return 1 }

func (r GraphVarsDeclarationRule) Apply(ctx *validate.Context) []issue.Issue {
	if !ctx.FileMode() || ctx.IsComposite {
		return nil
	}
	var declared []string
	declaredSet := map[string]bool{}
	for _, gv := range ctx.Module.GraphVariables() {
		if gv.Name != "" && !declaredSet[gv.Name] {
			declaredSet[gv.Name] = true
			declared = append(declared, gv.Name)
		}
	}

	var out []issue.Issue
	for _, call := range calls(functions(ctx.Module)) {
		name, _ := graphcode.FuncName(call)
		if name != ruletable.NodeSetGraphVar && name != ruletable.NodeGetGraphVar {
			continue
		}
		v, ok := call.Keyword(ruletable.PortVarName)
		if !ok {
			out = append(out, at(ctx, issue.LevelError, r.Category(), issue.CodeGraphVarDeclaration, call.Span,
				"【%s】必须提供参数『变量名』，且为字符串常量并在文件顶部的 GRAPH_VARIABLES 清单中声明", name))
			continue
		}
		varName, ok := graphcode.StringValue(v)
		if !ok {
			out = append(out, at(ctx, issue.LevelError, r.Category(), issue.CodeGraphVarDeclaration, v.Pos(),
				"【%s】的参数『变量名』必须为字符串常量，并在 GRAPH_VARIABLES 清单中声明", name))
			continue
		}
		if declaredSet[varName] {
			continue
		}
		extra := ""
		if len(declared) > 0 {
			limit := max(ctx.Config.GraphVarPreview, 1)
			preview := declared[:min(limit, len(declared))]
			extra = "；已声明: " + strings.Join(preview, ", ")
			if len(declared) > limit {
				extra += "..."
			}
		}
		out = append(out, at(ctx, issue.LevelError, r.Category(), issue.CodeGraphVarDeclaration, v.Pos(),
			"【%s】参数『变量名』='%s' 未在 GRAPH_VARIABLES 清单中声明%s", name, varName, extra))
	}
	return out
}

// NoLiteralAssignmentRule bans assigning raw literals to plain variables and
// copying named constants into other variables.
type NoLiteralAssignmentRule struct{}

func (NoLiteralAssignmentRule) ID() string       { return "code.no_literal_assignment" }
func (NoLiteralAssignmentRule) Category() string { return issue.CategoryCodeStyle }
func (NoLiteralAssignmentRule) Package() string  { return pkgName }
func (NoLiteralAssignmentRule) Revision() int    { return 1 }

func (r NoLiteralAssignmentRule) Apply(ctx *validate.Context) []issue.Issue {
	if !ctx.FileMode() || ctx.IsComposite {
		return nil
	}
	constants := map[string]bool{}
	graphcode.Inspect(ctx.Module, func(n graphcode.Node) bool {
		if a, ok := n.(*graphcode.AnnAssign); ok && isNamedConstant(a) {
			constants[a.Target.(*graphcode.Name).ID] = true
		}
		return true
	})

	var out []issue.Issue
	literal := func(span graphcode.Span) {
		out = append(out, at(ctx, issue.LevelError, r.Category(), issue.CodeNoLiteralAssignment, span,
			"禁止直接将常量赋值给变量，请改用节点输出（如【获取局部变量】或常量节点）"))
	}
	alias := func(span graphcode.Span, constant string, target graphcode.Expr) {
		label := "该变量"
		if n, ok := target.(*graphcode.Name); ok {
			label = "变量『" + n.ID + "』"
		}
		out = append(out, at(ctx, issue.LevelError, r.Category(), issue.CodeNoConstAliasAssignment, span,
			"禁止通过赋值语句将命名常量『%s』复制到%s；请直接在节点参数中使用该常量，或改用【获取局部变量】/【设置局部变量】节点管理运行时变量",
			constant, label))
	}

	for _, fn := range functions(ctx.Module) {
		for _, stmt := range fn.Body {
			graphcode.Inspect(stmt, func(n graphcode.Node) bool {
				switch n := n.(type) {
				case *graphcode.Assign:
					if graphcode.IsLiteral(n.Value) {
						literal(n.Value.Pos())
					} else if name, ok := n.Value.(*graphcode.Name); ok && constants[name.ID] {
						alias(n.Span, name.ID, n.Targets[0])
					}
				case *graphcode.AnnAssign:
					if n.Value == nil {
						break
					}
					if graphcode.IsLiteral(n.Value) {
						if !isNamedConstant(n) {
							literal(n.Value.Pos())
						}
					} else if name, ok := n.Value.(*graphcode.Name); ok && constants[name.ID] {
						alias(n.Span, name.ID, n.Target)
					}
				}
				return true
			})
		}
	}
	return out
}

// isNamedConstant reports whether a declares a named constant: a plain name
// with a non-empty string annotation.
func isNamedConstant(a *graphcode.AnnAssign) bool {
	if _, ok := a.Target.(*graphcode.Name); !ok {
		return false
	}
	t, ok := graphcode.StringValue(a.Annotation)
	return ok && strings.TrimSpace(t) != ""
}

// LocalVarInitialValueRule requires 获取局部变量 to supply a non-None initial value.
type LocalVarInitialValueRule struct{}

func (LocalVarInitialValueRule) ID() string       { return "code.local_var_initial_value" }
func (LocalVarInitialValueRule) Category() string { return issue.CategoryCodeStyle }
func (LocalVarInitialValueRule) Package() string  { return pkgName }
func (LocalVarInitialValueRule) Revision() int    { return 1 }

func (r LocalVarInitialValueRule) Apply(ctx *validate.Context) []issue.Issue {
	if !ctx.FileMode() || ctx.IsComposite {
		return nil
	}
	var out []issue.Issue
	for _, call := range calls(functions(ctx.Module)) {
		if name, _ := graphcode.FuncName(call); name != ruletable.NodeGetLocalVar {
			continue
		}
		v, ok := call.Keyword(ruletable.PortInitialValue)
		if !ok {
			if args := dataArgs(call); len(args) > 0 {
				v, ok = args[0], true
			}
		}
		if ok && !graphcode.IsNone(v) {
			continue
		}
		out = append(out, at(ctx, issue.LevelError, r.Category(), issue.CodeLocalVarInitialValue, call.Span,
			"【%s】必须提供非空的『%s』；None 视为未提供", ruletable.NodeGetLocalVar, ruletable.PortInitialValue))
	}
	return out
}
