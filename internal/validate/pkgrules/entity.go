package pkgrules

import (
	"fmt"
	"slices"
	"strings"

	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/issue"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/pkgmodel"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/ruletable"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/validate"
)

// TemplateRule checks every template: its entity type, its default components
// and the graphs it carries.
type TemplateRule struct {
	Checker *GraphCodeChecker
}

func (TemplateRule) ID() string       { return "package.templates" }
func (TemplateRule) Category() string { return issue.CategoryEntity }
func (TemplateRule) Package() string  { return pkgName }
func (TemplateRule) Revision() int    { return 1 }

func (r TemplateRule) Apply(ctx *validate.Context) []issue.Issue {
	if !ctx.PackageMode() {
		return nil
	}
	var out []issue.Issue
	for _, t := range ctx.Package.Templates {
		out = append(out, r.template(ctx, t)...)
	}
	return out
}

func (r TemplateRule) template(ctx *validate.Context, t pkgmodel.Template) []issue.Issue {
	owner := fmt.Sprintf("模板 '%s' (%s)", t.Name, t.ID)
	detail := map[string]any{"type": pkgmodel.OwnerTemplate, "template_id": t.ID}

	var out []issue.Issue
	switch {
	case t.EntityType == ruletable.EntityLevel:
		out = append(out, issue.Errorf(r.Category(), issue.CodeEntityType, "元件库中不应包含关卡类型的模板").
			At(owner).WithHint("关卡实体应存储在 level_entity 字段中，请移除此模板。", "").WithDetail(detail))
	case t.EntityType == ruletable.EntityUIControl:
		out = append(out, issue.Errorf(r.Category(), issue.CodeEntityType, "元件库中不应包含UI控件类型的模板").
			At(owner).WithHint("UI控件属于资产类型，应移至界面控件组管理区域。", "").WithDetail(detail))
	case !slices.Contains(ruletable.TemplateEntityTypes, t.EntityType):
		out = append(out, issue.Warnf(r.Category(), issue.CodeEntityType, "模板类型'%s'可能不适合放在元件库中", t.EntityType).
			At(owner).
			WithHint("元件库应只包含可摆放的实体类型："+strings.Join(ruletable.TemplateEntityTypes, ", "), "").
			WithDetail(detail))
	}
	out = append(out, entityType(r.Category(), t.EntityType, owner, detail)...)
	out = append(out, components(r.Category(), t.Components, t.EntityType, owner+" > 组件", detail)...)

	if len(t.Graphs) == 0 {
		return out
	}
	if !ruletable.CanCarryGraphs(t.EntityType) {
		return append(out, noGraphs(r.Category(), t.EntityType, owner+" > 节点图", detail))
	}
	return append(out, checkOwnerGraphs(ctx, r.Checker, pkgmodel.OwnerTemplate, t.ID)...)
}

// InstanceRule checks every placed instance: its template, its additional
// components and the graphs it carries.
type InstanceRule struct {
	Checker *GraphCodeChecker
}

func (InstanceRule) ID() string       { return "package.instances" }
func (InstanceRule) Category() string { return issue.CategoryEntity }
func (InstanceRule) Package() string  { return pkgName }
func (InstanceRule) Revision() int    { return 1 }

func (r InstanceRule) Apply(ctx *validate.Context) []issue.Issue {
	if !ctx.PackageMode() {
		return nil
	}
	var out []issue.Issue
	for _, inst := range ctx.Package.Instances {
		owner := fmt.Sprintf("实例 '%s' (%s)", inst.Name, inst.ID)
		detail := map[string]any{"type": pkgmodel.OwnerInstance, "instance_id": inst.ID}

		tmpl, ok := ctx.Package.Template(inst.TemplateID)
		if !ok {
			out = append(out, issue.Errorf(r.Category(), issue.CodeInstanceTemplateMissing,
				"实例引用的模板'%s'不存在", inst.TemplateID).
				At(owner).WithHint("请确保模板已创建，或修正实例的 template_id。", "").WithDetail(detail))
			continue
		}
		entity := inst.EntityType
		if entity == "" {
			entity = tmpl.EntityType
		}
		out = append(out, checkEntity(ctx, r.Checker, r.Category(), pkgmodel.OwnerInstance, inst, entity, owner, detail)...)
	}
	return out
}

// LevelEntityRule checks the package's level entity. Its entity type defaults
// to 关卡.
type LevelEntityRule struct {
	Checker *GraphCodeChecker
}

func (LevelEntityRule) ID() string       { return "package.level_entity" }
func (LevelEntityRule) Category() string { return issue.CategoryEntity }
func (LevelEntityRule) Package() string  { return pkgName }
func (LevelEntityRule) Revision() int    { return 1 }

func (r LevelEntityRule) Apply(ctx *validate.Context) []issue.Issue {
	if !ctx.PackageMode() || ctx.Package.LevelEntity == nil {
		return nil
	}
	lvl := *ctx.Package.LevelEntity
	entity := lvl.EntityType
	if entity == "" {
		entity = ruletable.EntityLevel
	}
	owner := fmt.Sprintf("关卡实体 '%s' (%s)", lvl.Name, lvl.ID)
	detail := map[string]any{"type": pkgmodel.OwnerLevelEntity, "level_entity_id": lvl.ID}

	out := entityType(r.Category(), entity, owner, detail)
	return append(out, checkEntity(ctx, r.Checker, r.Category(), pkgmodel.OwnerLevelEntity, lvl, entity, owner, detail)...)
}

func checkEntity(ctx *validate.Context, checker *GraphCodeChecker, category, kind string, inst pkgmodel.Instance, entity, owner string, detail map[string]any) []issue.Issue {
	out := components(category, inst.Components, entity, owner+" > 附加组件", detail)
	if len(inst.Graphs) == 0 {
		return out
	}
	if !ruletable.CanCarryGraphs(entity) {
		return append(out, noGraphs(category, entity, owner+" > 节点图", detail))
	}
	return append(out, checkOwnerGraphs(ctx, checker, kind, inst.ID)...)
}

func checkOwnerGraphs(ctx *validate.Context, checker *GraphCodeChecker, kind, id string) []issue.Issue {
	if checker == nil {
		checker = NewGraphCodeChecker()
	}
	var out []issue.Issue
	for a := range pkgmodel.Attachments(ctx.Package, ctx.Resources) {
		if a.OwnerKind == kind && a.OwnerID == id {
			out = append(out, checker.Check(ctx, a)...)
		}
	}
	return out
}

// entityType reports entity types missing from the capability table.
func entityType(category, entity, location string, detail map[string]any) []issue.Issue {
	if _, ok := ruletable.LookupEntityType(entity); ok {
		return nil
	}
	return []issue.Issue{
		issue.Errorf(category, issue.CodeEntityType, "未知的实体类型 '%s'", entity).
			At(location).
			WithHint("实体类型必须是："+strings.Join(knownEntityTypes(), ", "), "").
			WithDetail(detail),
	}
}

// components reports components the entity type cannot carry. Unknown entity
// types are reported by entityType and skipped here.
func components(category string, comps []string, entity, location string, detail map[string]any) []issue.Issue {
	et, ok := ruletable.LookupEntityType(entity)
	if !ok {
		return nil
	}
	var out []issue.Issue
	for _, c := range comps {
		if ruletable.ComponentAllowed(entity, c) {
			continue
		}
		allowed := "无"
		if len(et.AllowedComponents) > 0 {
			allowed = strings.Join(et.AllowedComponents, ", ")
		}
		code := issue.CodeEntityComponent
		if et.NoGraphs {
			code = issue.CodeStaticObjectAttachment
		}
		out = append(out, issue.Errorf(category, code, "实体类型 '%s' 不支持组件 '%s'", entity, c).
			At(location).
			WithHint("该实体类型可用的组件："+allowed, et.Reference).
			WithDetail(detail))
	}
	return out
}

func noGraphs(category, entity, location string, detail map[string]any) issue.Issue {
	et, _ := ruletable.LookupEntityType(entity)
	return issue.Errorf(category, issue.CodeStaticObjectAttachment, "实体类型 '%s' 不能挂载节点图", entity).
		At(location).
		WithHint("静态物件不支持节点图，请改用动态物件或移除挂载的节点图。", et.Reference).
		WithDetail(detail)
}

func knownEntityTypes() []string {
	out := make([]string, 0, len(ruletable.EntityTypes))
	for name := range ruletable.EntityTypes {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}
