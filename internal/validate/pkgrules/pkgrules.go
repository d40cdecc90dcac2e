// Package pkgrules implements the rules that inspect a whole content package:
// entity configuration, graph mounting, composite nodes, signal and struct
// usage, management configuration and the resource library.
package pkgrules

import (
	"context"
	"fmt"
	"maps"
	"path"
	"strings"

	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/issue"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/pkgmodel"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/registry"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/ruletable"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/validate"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/validate/coderules"
)

const pkgName = "pkgrules"

// Default returns the package rules in the order they run. checker validates
// the graphs attached to entities; nil uses NewGraphCodeChecker.
func Default(checker *GraphCodeChecker) []validate.Rule {
	if checker == nil {
		checker = NewGraphCodeChecker()
	}
	return []validate.Rule{
		TemplateRule{Checker: checker},
		InstanceRule{Checker: checker},
		LevelEntityRule{Checker: checker},
		PackageGraphMountRule{},
		CompositeNodesRule{},
		FrontendVariableRule{},
		GraphPerformanceRule{},
		ManagementConfigRule{},
		UiControlsRule{},
		StructUsageRule{},
		SignalUsageRule{},
		ResourceLibraryGraphsRule{Checker: checker},
	}
}

// GraphCodeChecker validates one attached graph: its existence, the code rules
// on its generated source and the events it listens to against the carrying
// entity type.
type GraphCodeChecker struct {
	pipeline *validate.Pipeline
}

// NewGraphCodeChecker returns a checker running the default code rules.
func NewGraphCodeChecker() *GraphCodeChecker {
	return &GraphCodeChecker{pipeline: coderules.NewPipeline()}
}

// Rules returns the code rules the checker runs.
func (c *GraphCodeChecker) Rules() []validate.Rule { return c.pipeline.Rules() }

// Check validates the graph of a.
func (c *GraphCodeChecker) Check(ctx *validate.Context, a pkgmodel.Attachment) []issue.Issue {
	if a.Graph == nil {
		return []issue.Issue{
			issue.Errorf(issue.CategoryMount, issue.CodeGraphMissing,
				"挂载的节点图 '%s' 不存在或无法加载", a.GraphID).
				At(a.Location).
				WithHint("请确认节点图资源存在，或从挂载列表中移除该节点图。", "").
				WithDetail(a.Detail).
				WithGraph(a.GraphID, "", ""),
		}
	}
	out := c.checkSource(ctx, a)
	if a.Mounted() && a.EntityType != "" {
		out = append(out, checkEventMount(ctx, a)...)
	}
	return out
}

func (c *GraphCodeChecker) checkSource(ctx *validate.Context, a pkgmodel.Attachment) []issue.Issue {
	g := a.Graph
	if len(g.Source) == 0 || ctx.Env == nil {
		return nil
	}
	rel := g.SourcePath
	if rel == "" {
		rel = path.Join(validate.GraphSourceDir, g.ID+".py")
	}
	gctx, err := ctx.Env.SourceContext(context.Background(), rel, g.Source)
	if err != nil {
		ctx.Logger().Warnw("graph source skipped", "graph", g.ID, "error", err)
		return nil
	}
	if g.IsClient() && gctx.Scope != registry.ScopeClient {
		gctx.Scope = registry.ScopeClient
		gctx.Registry = ctx.Env.Registry(registry.ScopeClient)
	}
	gctx.Package = nil
	gctx.Resources = ctx.Resources
	gctx.Catalog = ctx.Catalog

	found := c.pipeline.Run(gctx)
	for i, is := range found {
		if is.Location == "" {
			is = is.At(a.Location)
		}
		if is.GraphID == "" {
			is.GraphID = a.GraphID
		}
		if is.Detail == nil {
			is = is.WithDetail(a.Detail)
		}
		found[i] = is
	}
	return found
}

// checkEventMount reports event nodes the carrying entity type never fires.
func checkEventMount(ctx *validate.Context, a pkgmodel.Attachment) []issue.Issue {
	var out []issue.Issue
	for _, n := range a.Graph.Nodes {
		isEvent := strings.Contains(n.Category, "事件") || (ctx.Registry != nil && ctx.Registry.IsEvent(n.Title))
		if !isEvent || ruletable.EventAllowedOn(n.Title, a.EntityType) {
			continue
		}
		out = append(out, issue.Errorf(issue.CategoryEntity, issue.CodeEventNotAllowed,
			"事件【%s】不会在实体类型 '%s' 上触发", n.Title, a.EntityType).
			At(nodeLocation(a.Location, n)).
			WithHint(fmt.Sprintf("请将该节点图挂载到可触发【%s】的实体上，或改用其他事件。", n.Title), "").
			WithDetail(withNode(a.Detail, n)).
			WithGraph(a.GraphID, n.ID, ""))
	}
	return out
}

// graphAttachments returns every mounted attachment with an existing graph,
// plus library graphs that no entity carries.
func graphAttachments(ctx *validate.Context) []pkgmodel.Attachment {
	var out []pkgmodel.Attachment
	mounted := map[string]bool{}
	var library []pkgmodel.Attachment
	for a := range pkgmodel.Attachments(ctx.Package, ctx.Resources) {
		if a.Graph == nil {
			continue
		}
		if a.Mounted() {
			mounted[a.GraphID] = true
			out = append(out, a)
			continue
		}
		library = append(library, a)
	}
	for _, a := range library {
		if !mounted[a.GraphID] {
			out = append(out, a)
		}
	}
	return out
}

func nodeLocation(base string, n pkgmodel.GraphNode) string {
	return fmt.Sprintf("%s > 节点 '%s' (ID: %s)", base, n.Title, n.ID)
}

func withNode(detail map[string]any, n pkgmodel.GraphNode) map[string]any {
	out := maps.Clone(detail)
	if out == nil {
		out = map[string]any{}
	}
	out["node_id"] = n.ID
	out["node_title"] = n.Title
	return out
}

func packageLocation(pkg *pkgmodel.Package) string {
	return fmt.Sprintf("存档 '%s' (%s)", pkg.Name, pkg.ID)
}
