package pkgrules

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/issue"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/pkgmodel"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/registry"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/ruletable"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/validate"
)

// StructUsageRule checks that struct nodes in server graphs are bound to an
// existing basic struct and only to fields that struct declares.
type StructUsageRule struct{}

func (StructUsageRule) ID() string       { return "package.struct_usage" }
func (StructUsageRule) Category() string { return issue.CategoryStruct }
func (StructUsageRule) Package() string  { return pkgName }
func (StructUsageRule) Revision() int    { return 1 }

func (r StructUsageRule) Apply(ctx *validate.Context) []issue.Issue {
	if !ctx.PackageMode() || ctx.Resources == nil || ctx.Catalog == nil {
		return nil
	}
	var out []issue.Issue
	for _, a := range graphAttachments(ctx) {
		if a.Graph.IsClient() {
			continue
		}
		for _, n := range a.Graph.Nodes {
			if !ruletable.StructNodeTitles[n.Title] {
				continue
			}
			if is, ok := r.node(ctx.Catalog, a, n); ok {
				out = append(out, is)
			}
		}
	}
	return out
}

func (r StructUsageRule) node(cat *pkgmodel.Catalog, a pkgmodel.Attachment, n pkgmodel.GraphNode) (issue.Issue, bool) {
	detail := withNode(a.Detail, n)
	detail["graph_id"] = a.GraphID
	fail := func(msg, hint string) (issue.Issue, bool) {
		return issue.New(issue.LevelError, r.Category(), issue.CodeStructBinding, msg).
			At(nodeLocation(a.Location, n)).
			WithHint(hint, "节点图变量声明设计.md").
			WithDetail(detail).
			WithGraph(a.GraphID, n.ID, ""), true
	}

	binding := a.Graph.Metadata.StructBindings[n.ID]
	id := strings.TrimSpace(binding.StructID)
	if id == "" {
		return fail("结构体节点未选择结构体。",
			"请在编辑器中为该节点选择一个基础结构体，局内存档结构体不支持直接绑定到结构体节点。")
	}
	detail["struct_id"] = id
	st, ok := cat.StructByID(id)
	if !ok {
		return fail("结构体节点引用了在当前工程中不存在的结构体定义（可能已被删除或重命名）。",
			"请确认该结构体是否仍然存在，必要时在节点上重新选择一个有效的基础结构体。")
	}
	if st.Kind != "" && st.Kind != ruletable.StructKindBasic {
		detail["struct_kind"] = st.Kind
		return fail("结构体节点绑定的目标不是基础结构体（例如绑定到了局内存档结构体）。",
			"请在节点上重新选择一个基础结构体。")
	}
	if len(st.Fields) == 0 {
		return fail("结构体定义中未声明任何字段，无法用于当前结构体节点。",
			"请为该结构体添加至少一个字段，或在节点图中移除对该结构体的依赖。")
	}
	var invalid []string
	for _, f := range binding.FieldNames {
		if f != "" && !st.HasField(f) {
			invalid = append(invalid, f)
		}
	}
	if len(invalid) == 0 {
		return issue.Issue{}, false
	}
	detail["invalid_fields"] = invalid
	return fail("结构体节点绑定的字段在目标结构体定义中不存在。",
		"请确认字段是否已被重命名或移除，并在节点上重新勾选有效字段。")
}

// SignalUsageRule checks signal definitions against their bounds and every
// send or listen node against the signal it is bound to.
type SignalUsageRule struct{}

func (SignalUsageRule) ID() string       { return "package.signal_usage" }
func (SignalUsageRule) Category() string { return issue.CategorySignal }
func (SignalUsageRule) Package() string  { return pkgName }
func (SignalUsageRule) Revision() int    { return 1 }

func (r SignalUsageRule) Apply(ctx *validate.Context) []issue.Issue {
	if !ctx.PackageMode() || ctx.Resources == nil {
		return nil
	}
	out := r.bounds(ctx.Resources.Signals())
	cat := ctx.Catalog
	if cat == nil {
		cat = pkgmodel.NewCatalog(ctx.Resources)
	}
	for _, a := range graphAttachments(ctx) {
		reg := ctx.Registry
		if a.Graph.IsClient() && ctx.Env != nil {
			reg = ctx.Env.Registry(registry.ScopeClient)
		}
		conns := edgesByPort(a.Graph.Edges)
		for _, n := range a.Graph.Nodes {
			if n.Title != ruletable.NodeSendSignal && n.Title != ruletable.NodeListenSignal {
				continue
			}
			out = append(out, r.node(cat, reg, a, conns, n)...)
		}
	}
	return out
}

func (r SignalUsageRule) bounds(signals []pkgmodel.Signal) []issue.Issue {
	var out []issue.Issue
	for _, s := range signals {
		name := s.Name
		if name == "" {
			name = s.ID
		}
		loc := fmt.Sprintf("信号定义 '%s' (ID: %s)", name, s.ID)
		if len(s.Params) > ruletable.MaxSignalParams {
			out = append(out, issue.Errorf(r.Category(), issue.CodeSignalDefinitionBounds,
				"信号定义包含 %d 个参数，超过允许的最大数量 %d。", len(s.Params), ruletable.MaxSignalParams).
				At(loc).
				WithHint(fmt.Sprintf("请精简该信号的参数，确保单个信号的参数数量不超过 %d 个。", ruletable.MaxSignalParams), "信号系统设计.md").
				WithDetail(map[string]any{"type": "signal_definition", "signal_id": s.ID, "signal_name": name, "param_count": len(s.Params)}))
		}
		for _, p := range s.Params {
			n := utf8.RuneCountInString(p.Name)
			if n <= ruletable.MaxSignalParamNameLength {
				continue
			}
			out = append(out, issue.Errorf(r.Category(), issue.CodeSignalDefinitionBounds,
				"信号参数名 '%s' 长度为 %d，超过允许的最大长度 %d 字符。", p.Name, n, ruletable.MaxSignalParamNameLength).
				At(loc).
				WithHint(fmt.Sprintf("请缩短参数名，使其不超过 %d 个字符。", ruletable.MaxSignalParamNameLength), "信号系统设计.md").
				WithDetail(map[string]any{"type": "signal_definition", "signal_id": s.ID, "signal_name": name, "param_name": p.Name, "param_name_length": n}))
		}
	}
	return out
}

func (r SignalUsageRule) node(cat *pkgmodel.Catalog, reg *registry.Registry, a pkgmodel.Attachment, conns portEdges, n pkgmodel.GraphNode) []issue.Issue {
	loc := nodeLocation(a.Location, n)
	detail := withNode(a.Detail, n)
	detail["graph_id"] = a.GraphID
	send := n.Title == ruletable.NodeSendSignal

	id := a.Graph.Metadata.SignalBindings[n.ID].SignalID
	if id == "" {
		if s, ok := cat.SignalByName(strings.TrimSpace(n.InputConstants[ruletable.PortSignalName])); ok {
			id = s.ID
		}
	}
	if id == "" {
		msg := "监听信号节点未选择信号"
		if send {
			msg = "发送信号节点未选择信号"
		}
		return []issue.Issue{
			issue.New(issue.LevelError, r.Category(), issue.CodeSignalUnbound, msg).
				At(loc).
				WithHint("请在节点上选择有效的信号定义，或在信号管理中先创建所需信号。", "信号系统设计.md").
				WithDetail(detail).
				WithGraph(a.GraphID, n.ID, ""),
		}
	}
	detail["signal_id"] = id
	sig, ok := cat.SignalByID(id)
	if !ok {
		if name := n.InputConstants[ruletable.PortSignalName]; name != "" {
			detail["signal_name"] = name
		}
		return []issue.Issue{
			issue.New(issue.LevelError, r.Category(), issue.CodeSignalUnbound,
				"节点引用了在当前存档中不存在的信号（可能已被删除）。").
				At(loc).
				WithHint("请在信号管理中重新创建该信号，或在节点上选择一个现有的信号。", "信号系统设计.md").
				WithDetail(detail).
				WithGraph(a.GraphID, n.ID, ""),
		}
	}

	var out []issue.Issue
	paramDetail := func(p pkgmodel.SignalParam) map[string]any {
		d := withNode(detail, n)
		d["param_name"] = p.Name
		d["expected_type"] = p.Type
		return d
	}
	for _, p := range sig.Params {
		has := n.HasOutput(p.Name)
		if send {
			has = n.HasInput(p.Name)
		}
		if !has {
			out = append(out, issue.Errorf(r.Category(), issue.CodeSignalMissingParamPort,
				"信号 '%s' 的参数 '%s' 在节点上缺少对应端口", sig.Name, p.Name).
				At(loc).
				WithHint("请在节点上重新选择信号以同步参数端口。", "信号系统设计.md").
				WithDetail(paramDetail(p)).
				WithGraph(a.GraphID, n.ID, p.Name))
			continue
		}
		if p.Type == "" {
			continue
		}
		if send {
			if v, ok := n.InputConstants[p.Name]; ok && v != "" && !ruletable.LiteralCompatible(v, p.Type) {
				d := paramDetail(p)
				d["value"] = v
				out = append(out, issue.Errorf(r.Category(), issue.CodeSignalConstantType,
					"信号参数常量类型不匹配：参数 '%s' 期望类型 '%s'，当前填入 '%s'。", p.Name, p.Type, v).
					At(loc).
					WithHint("请修改常量值，使其符合信号参数定义的类型。", "信号系统设计.md").
					WithDetail(d).
					WithGraph(a.GraphID, n.ID, p.Name))
			}
		}
		out = append(out, r.wireTypes(reg, a, conns, n, p, send, paramDetail)...)
	}
	return out
}

// wireTypes warns about wires on a parameter port whose far end has a
// concrete type that neither equals nor converts to the parameter type.
func (r SignalUsageRule) wireTypes(reg *registry.Registry, a pkgmodel.Attachment, conns portEdges, n pkgmodel.GraphNode, p pkgmodel.SignalParam, send bool, paramDetail func(pkgmodel.SignalParam) map[string]any) []issue.Issue {
	if reg == nil {
		return nil
	}
	var peers []portRef
	if send {
		peers = conns.in[portRef{n.ID, p.Name}]
	} else {
		peers = conns.out[portRef{n.ID, p.Name}]
	}
	var out []issue.Issue
	for _, peer := range peers {
		pn, ok := a.Graph.Node(peer.node)
		if !ok {
			continue
		}
		peerType, ok := reg.PortType(pn.Title, peer.port)
		if !ok || peerType == "" || strings.Contains(peerType, ruletable.TypeGeneric) || peerType == ruletable.TypeAny {
			continue
		}
		from, to := peerType, p.Type
		if !send {
			from, to = p.Type, peerType
		}
		if from == to {
			continue
		}
		if ok, _ := ruletable.CanConvert(from, to); ok {
			continue
		}
		d := paramDetail(p)
		d["peer_node_id"] = pn.ID
		d["peer_port"] = peer.port
		d["peer_type"] = peerType
		out = append(out, issue.Warnf(r.Category(), issue.CodeSignalWireType,
			"信号参数端口的连线类型与信号定义不一致：参数 '%s' 期望 '%s'，但连接的节点端口类型为 '%s'。", p.Name, p.Type, peerType).
			At(nodeLocation(a.Location, n)).
			WithHint("请调整相连节点的端口类型或信号参数类型，保证两者一致。", "信号系统设计.md").
			WithDetail(d).
			WithGraph(a.GraphID, n.ID, p.Name))
	}
	return out
}

type portEdges struct {
	in  map[portRef][]portRef
	out map[portRef][]portRef
}

// edgesByPort indexes every edge by both of its ends, in edge order.
func edgesByPort(edges []pkgmodel.Edge) portEdges {
	idx := portEdges{in: map[portRef][]portRef{}, out: map[portRef][]portRef{}}
	for _, e := range edges {
		src, dst := portRef{e.SrcNode, e.SrcPort}, portRef{e.DstNode, e.DstPort}
		if !slices.Contains(idx.in[dst], src) {
			idx.in[dst] = append(idx.in[dst], src)
		}
		if !slices.Contains(idx.out[src], dst) {
			idx.out[src] = append(idx.out[src], dst)
		}
	}
	return idx
}
