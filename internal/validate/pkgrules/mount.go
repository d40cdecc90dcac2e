package pkgrules

import (
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/issue"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/pkgmodel"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/ruletable"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/validate"
)

// PackageGraphMountRule compares the graphs a package declares with the graphs
// its entities carry. View packages are skipped.
type PackageGraphMountRule struct{}

func (PackageGraphMountRule) ID() string       { return "package.graph_mount" }
func (PackageGraphMountRule) Category() string { return issue.CategoryMount }
func (PackageGraphMountRule) Package() string  { return pkgName }
func (PackageGraphMountRule) Revision() int    { return 1 }

func (r PackageGraphMountRule) Apply(ctx *validate.Context) []issue.Issue {
	if !ctx.PackageMode() || ctx.Package.ID == "" || ruletable.ViewPackageIDs[ctx.Package.ID] {
		return nil
	}
	pkg := ctx.Package
	declared := make(map[string]bool, len(pkg.Graphs))
	for _, id := range pkg.Graphs {
		declared[id] = true
	}

	attached := map[string]bool{}
	var firstAttachments []pkgmodel.Attachment
	for a := range pkgmodel.Attachments(pkg, ctx.Resources) {
		if !a.Mounted() || attached[a.GraphID] {
			continue
		}
		attached[a.GraphID] = true
		firstAttachments = append(firstAttachments, a)
	}

	var out []issue.Issue
	index := packageLocation(pkg) + " > 节点图索引"
	seen := map[string]bool{}
	for _, id := range pkg.Graphs {
		if id == "" || attached[id] || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, issue.Warnf(r.Category(), issue.CodeGraphNotAttached,
			"节点图 '%s' 在存档索引的 resources.graphs 中声明，但当前存档内没有任何模板或实体挂载该节点图。", id).
			At(index).
			WithHint("如该节点图已废弃，请从存档索引中移除；否则请将其挂载到对应的模板或实体上。", "").
			WithDetail(map[string]any{"type": "package_graph", "package_id": pkg.ID, "graph_id": id}).
			WithGraph(id, "", ""))
	}
	for _, a := range firstAttachments {
		if declared[a.GraphID] {
			continue
		}
		out = append(out, issue.Warnf(r.Category(), issue.CodeGraphNotDeclared,
			"实体挂载的节点图 '%s' (%s) 未在当前存档索引的 resources.graphs 中声明。", a.GraphName(), a.GraphID).
			At(a.Location).
			WithHint("请在存档索引中补充该节点图的声明，使其随存档一起导出。", "").
			WithDetail(a.Detail).
			WithGraph(a.GraphID, "", ""))
	}
	return out
}

// ResourceLibraryGraphsRule runs the graph checks on the graphs stored in the
// resource library that no entity of the package carries. Mounted graphs are
// checked by the entity rules.
type ResourceLibraryGraphsRule struct {
	Checker *GraphCodeChecker
}

func (ResourceLibraryGraphsRule) ID() string       { return "package.library_graphs" }
func (ResourceLibraryGraphsRule) Category() string { return issue.CategoryLibrary }
func (ResourceLibraryGraphsRule) Package() string  { return pkgName }
func (ResourceLibraryGraphsRule) Revision() int    { return 2 }

func (r ResourceLibraryGraphsRule) Apply(ctx *validate.Context) []issue.Issue {
	if !ctx.PackageMode() || ctx.Resources == nil {
		return nil
	}
	checker := r.Checker
	if checker == nil {
		checker = NewGraphCodeChecker()
	}
	mounted := map[string]bool{}
	var library []pkgmodel.Attachment
	for a := range pkgmodel.Attachments(ctx.Package, ctx.Resources) {
		if a.Mounted() {
			mounted[a.GraphID] = true
		} else {
			library = append(library, a)
		}
	}
	var out []issue.Issue
	for _, a := range library {
		if mounted[a.GraphID] {
			continue
		}
		out = append(out, checker.Check(ctx, a)...)
	}
	return out
}
