package pkgrules

import (
	"fmt"

	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/issue"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/ruletable"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/validate"
)

// ManagementConfigRule checks timers and level variables.
type ManagementConfigRule struct{}

func (ManagementConfigRule) ID() string       { return "package.management" }
func (ManagementConfigRule) Category() string { return issue.CategoryManagement }
func (ManagementConfigRule) Package() string  { return pkgName }
func (ManagementConfigRule) Revision() int    { return 1 }

func (r ManagementConfigRule) Apply(ctx *validate.Context) []issue.Issue {
	if !ctx.PackageMode() {
		return nil
	}
	mgmt := ctx.Package.Management
	var out []issue.Issue
	fail := func(loc, format string, args ...any) {
		out = append(out, issue.Errorf(r.Category(), issue.CodeManagementConfig, format, args...).
			At(loc).
			WithDetail(map[string]any{"type": "management", "package_id": ctx.Package.ID}))
	}

	ids, names := map[string]bool{}, map[string]bool{}
	for i, t := range mgmt.Timers {
		loc := fmt.Sprintf("管理配置 > 计时器 '%s' (%s)", t.Name, t.ID)
		switch {
		case t.ID == "":
			fail(loc, "第%d个计时器缺少 timer_id", i+1)
		case ids[t.ID]:
			fail(loc, "计时器 ID '%s' 重复", t.ID)
		}
		ids[t.ID] = true
		switch {
		case t.Name == "":
			fail(loc, "第%d个计时器缺少 timer_name", i+1)
		case names[t.Name]:
			fail(loc, "计时器名称 '%s' 重复", t.Name)
		}
		names[t.Name] = true
		if t.Initial() <= 0 {
			fail(loc, "计时器 '%s' 的初始时间必须大于 0，当前为 %g", t.Name, t.Initial())
		}
		if t.CallbackGraph != "" && ctx.Resources != nil {
			if _, ok := ctx.Resources.Graph(t.CallbackGraph); !ok {
				fail(loc, "计时器 '%s' 的回调节点图 '%s' 不存在", t.Name, t.CallbackGraph)
			}
		}
	}

	types := ruletable.NewTypeSet()
	seen := map[string]bool{}
	for i, v := range mgmt.LevelVariables {
		loc := fmt.Sprintf("管理配置 > 关卡变量 '%s'", v.Name)
		switch {
		case v.Name == "":
			fail(loc, "第%d个关卡变量缺少名称", i+1)
		case seen[v.Name]:
			fail(loc, "关卡变量名称 '%s' 重复", v.Name)
		}
		seen[v.Name] = true
		if !types.Allows(v.Type) {
			fail(loc, "关卡变量 '%s' 的类型 '%s' 无效", v.Name, v.Type)
			continue
		}
		if v.Default != "" && !ruletable.LiteralCompatible(v.Default, v.Type) {
			fail(loc, "关卡变量 '%s' 的默认值 '%s' 与类型 '%s' 不兼容", v.Name, v.Default, v.Type)
		}
	}
	return out
}

// UiControlsRule forbids node graphs on UI widgets.
type UiControlsRule struct{}

func (UiControlsRule) ID() string       { return "package.ui_controls" }
func (UiControlsRule) Category() string { return issue.CategoryUIControl }
func (UiControlsRule) Package() string  { return pkgName }
func (UiControlsRule) Revision() int    { return 1 }

func (r UiControlsRule) Apply(ctx *validate.Context) []issue.Issue {
	if !ctx.PackageMode() {
		return nil
	}
	var out []issue.Issue
	for _, c := range ctx.Package.UIControls {
		if len(c.Graphs) == 0 {
			continue
		}
		et := ruletable.EntityTypes[ruletable.EntityUIControl]
		out = append(out, issue.Errorf(r.Category(), issue.CodeUIControlGraph,
			"界面控件 '%s' 不能挂载节点图（当前挂载 %d 个）", c.Name, len(c.Graphs)).
			At(fmt.Sprintf("界面控件 '%s' (%s) > 节点图", c.Name, c.ID)).
			WithHint("界面控件的逻辑应写在关卡或玩家实体的节点图中。", et.Reference).
			WithDetail(map[string]any{"type": "ui_control", "ui_control_id": c.ID}))
	}
	return out
}
