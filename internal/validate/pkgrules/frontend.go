package pkgrules

import (
	"strings"

	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/issue"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/pkgmodel"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/ruletable"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/validate"
)

// FrontendVariableRule restricts client graphs to reading custom variables of
// the level or player entities.
type FrontendVariableRule struct{}

func (FrontendVariableRule) ID() string       { return "package.frontend_variable_usage" }
func (FrontendVariableRule) Category() string { return issue.CategoryFrontendVar }
func (FrontendVariableRule) Package() string  { return pkgName }
func (FrontendVariableRule) Revision() int    { return 1 }

func (r FrontendVariableRule) Apply(ctx *validate.Context) []issue.Issue {
	if !ctx.PackageMode() || ctx.Resources == nil {
		return nil
	}
	var out []issue.Issue
	for a := range pkgmodel.Attachments(ctx.Package, ctx.Resources) {
		if !a.Mounted() || a.Graph == nil || a.EntityType == "" || !isClientGraph(a.Graph) {
			continue
		}
		selfAllowed := ruletable.SelfEntityPrivilegedOwners[ruletable.NormalizeEntityType(a.EntityType)]
		out = append(out, r.graph(a, selfAllowed)...)
	}
	return out
}

func (r FrontendVariableRule) graph(a pkgmodel.Attachment, selfAllowed bool) []issue.Issue {
	g := a.Graph
	conns := connections(g.Edges)
	var out []issue.Issue
	for _, n := range g.Nodes {
		if n.Title != ruletable.NodeGetCustomVar {
			continue
		}
		src, ok := traceEntitySource(g, conns, n.ID, ruletable.PortTargetEntity)
		if !ok {
			continue
		}
		if ruletable.FrontendEntitySources[src.Title] || (selfAllowed && src.Title == ruletable.NodeGetSelfEntity) {
			continue
		}
		title := src.Title
		if title == "" {
			title = "未知实体"
		}
		detail := withNode(a.Detail, n)
		detail["violation_type"] = "frontend_variable_restriction"
		detail["source_title"] = title
		out = append(out, issue.Errorf(r.Category(), issue.CodeFrontendVariable,
			"客户端节点图不能读取非关卡/玩家实体的自定义变量。当前读取来源：%s", title).
			At(nodeLocation(a.Location, n)).
			WithHint("请将需要在前端显示的变量存储在关卡或玩家实体上。", "前端变量使用规则.md").
			WithDetail(detail).
			WithGraph(a.GraphID, n.ID, ruletable.PortTargetEntity))
	}
	return out
}

// isClientGraph reports whether g runs on the client: a client-typed graph,
// or one containing a client-only node or a client category.
func isClientGraph(g *pkgmodel.GraphResource) bool {
	if g.IsClient() {
		return true
	}
	for _, n := range g.Nodes {
		if ruletable.ClientOnlyNodeTitles[n.Title] || strings.Contains(n.Category, ruletable.ClientCategoryMarker) {
			return true
		}
	}
	return false
}

type portRef struct {
	node, port string
}

// connections maps every destination port to its first source port.
func connections(edges []pkgmodel.Edge) map[portRef]portRef {
	m := make(map[portRef]portRef, len(edges))
	for _, e := range edges {
		if e.SrcNode == "" || e.SrcPort == "" || e.DstNode == "" || e.DstPort == "" {
			continue
		}
		dst := portRef{e.DstNode, e.DstPort}
		if _, taken := m[dst]; !taken {
			m[dst] = portRef{e.SrcNode, e.SrcPort}
		}
	}
	return m
}

// traceEntitySource walks backwards from the input port (node, port) to the
// node that produced the entity. List iteration is followed through its list
// input. The walk stops at the first node that is neither an entity query nor
// a list iteration, and is bounded by twice the number of connections.
func traceEntitySource(g *pkgmodel.GraphResource, conns map[portRef]portRef, node, port string) (pkgmodel.GraphNode, bool) {
	limit := max(len(conns), 1) * 2
	visited := map[portRef]bool{}
	cur := portRef{node, port}
	for range limit {
		src, ok := conns[cur]
		if !ok || visited[src] {
			return pkgmodel.GraphNode{}, false
		}
		visited[src] = true
		n, ok := g.Node(src.node)
		if !ok {
			return pkgmodel.GraphNode{}, false
		}
		switch {
		case n.Title == ruletable.NodeIterateEntityList:
			cur = portRef{n.ID, ruletable.PortEntityList}
		case ruletable.EntityQueryNodes[n.Title]:
			return n, true
		default:
			return pkgmodel.GraphNode{}, false
		}
	}
	return pkgmodel.GraphNode{}, false
}

// GraphPerformanceRule is reserved for graph performance checks and reports
// nothing.
type GraphPerformanceRule struct{}

func (GraphPerformanceRule) ID() string       { return "package.graph_performance" }
func (GraphPerformanceRule) Category() string { return issue.CategoryCodeQuality }
func (GraphPerformanceRule) Package() string  { return pkgName }
func (GraphPerformanceRule) Revision() int    { return 1 }

func (GraphPerformanceRule) Apply(*validate.Context) []issue.Issue { return nil }
