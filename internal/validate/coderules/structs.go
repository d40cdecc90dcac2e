package coderules

import (
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/graphcode"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/issue"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/ruletable"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/validate"
)

// StructNameRequiredRule requires the struct nodes to name an existing basic
// struct through a literal or a module-level string constant. A missing
// 结构体名 keyword is left to RequiredInputsRule.
type StructNameRequiredRule struct{}

func (StructNameRequiredRule) ID() string       { return "code.struct_name_required" }
func (StructNameRequiredRule) Category() string { return issue.CategoryStruct }
func (StructNameRequiredRule) Package() string  { return pkgName }
func (StructNameRequiredRule) Revision() int    { return 1 }

func (r StructNameRequiredRule) Apply(ctx *validate.Context) []issue.Issue {
	if !ctx.FileMode() {
		return nil
	}
	known := ctx.Catalog != nil && ctx.Catalog.HasStructs()
	consts := ctx.Module.StringConstants()

	var out []issue.Issue
	for _, call := range calls(functions(ctx.Module)) {
		title, _ := graphcode.FuncName(call)
		if !ruletable.StructNodeTitles[title] {
			continue
		}
		v, ok := call.Keyword(ruletable.PortStructName)
		if !ok {
			continue
		}
		name, static := staticString(ctx.Module, consts, v)
		switch {
		case !static:
			out = append(out, at(ctx, issue.LevelError, r.Category(), issue.CodeStructNameNotStatic, call.Span,
				"【%s】的“%s”必须是非空字符串字面量，或引用模块顶层字符串常量；不允许使用运行期表达式。",
				title, ruletable.PortStructName))
			continue
		case name == "":
			out = append(out, at(ctx, issue.LevelError, r.Category(), issue.CodeStructNameInvalid, call.Span,
				"【%s】的“%s”必须是非空字符串字面量，或引用模块顶层字符串常量；不允许使用运行期表达式。",
				title, ruletable.PortStructName))
			continue
		}
		if !known {
			continue
		}
		st, ok := ctx.Catalog.StructByName(name)
		if !ok {
			out = append(out, at(ctx, issue.LevelError, r.Category(), issue.CodeStructNameUnknown, call.Span,
				"【%s】的“%s”取值 '%s' 在当前工程的结构体定义中不存在；请在“管理配置/结构体定义”中确认结构体，并修正为有效结构体名称。",
				title, ruletable.PortStructName, name))
			continue
		}
		if st.Kind != "" && st.Kind != ruletable.StructKindBasic {
			out = append(out, at(ctx, issue.LevelError, r.Category(), issue.CodeStructNameNotBasic, call.Span,
				"【%s】只能使用基础结构体；'%s' 的类型为 '%s'", title, name, st.Kind))
		}
	}
	return out
}
