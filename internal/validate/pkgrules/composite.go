package pkgrules

import (
	"fmt"

	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/issue"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/pkgmodel"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/validate"
)

// CompositeNodesRule checks the stored composite node definitions: subgraph
// presence, virtual pin mappings and wiring on mapped ports.
type CompositeNodesRule struct{}

func (CompositeNodesRule) ID() string       { return "package.composite_nodes" }
func (CompositeNodesRule) Category() string { return issue.CategoryComposite }
func (CompositeNodesRule) Package() string  { return pkgName }
func (CompositeNodesRule) Revision() int    { return 1 }

func (r CompositeNodesRule) Apply(ctx *validate.Context) []issue.Issue {
	if !ctx.PackageMode() || ctx.Resources == nil {
		return nil
	}
	var out []issue.Issue
	for _, c := range ctx.Resources.Composites() {
		out = append(out, r.composite(c)...)
	}
	return out
}

type pinPort struct {
	node, port string
}

func (r CompositeNodesRule) composite(c pkgmodel.CompositeNode) []issue.Issue {
	loc := fmt.Sprintf("复合节点 '%s' (%s)", c.Name, c.ID)
	detail := map[string]any{"type": "composite_node", "composite_id": c.ID}

	if c.SubGraph == nil {
		return []issue.Issue{
			issue.Errorf(r.Category(), issue.CodeCompositeSubgraphMissing, "复合节点缺少子图定义").
				At(loc).WithHint("请为复合节点创建子图。", "").WithDetail(detail),
		}
	}
	var out []issue.Issue
	if len(c.SubGraph.Nodes) == 0 {
		out = append(out, issue.Warnf(r.Category(), issue.CodeCompositeSubgraphEmpty, "复合节点的子图为空，没有任何节点").
			At(loc).WithHint("请在子图中添加节点以实现复合逻辑。", "").WithDetail(detail))
	}

	nodes := make(map[string]bool, len(c.SubGraph.Nodes))
	for _, n := range c.SubGraph.Nodes {
		nodes[n.ID] = true
	}
	inputs := map[pinPort]string{}
	outputs := map[pinPort]string{}
	for _, pin := range c.Pins {
		pinLoc := fmt.Sprintf("%s > 虚拟引脚 '%s'", loc, pin.Name)
		if len(pin.Mapped) == 0 {
			if !pin.AllowUnmapped {
				out = append(out, issue.Warnf(r.Category(), issue.CodeCompositePinUnmapped,
					"虚拟引脚'%s'没有映射到任何内部端口", pin.Name).
					At(pinLoc).WithHint("请将虚拟引脚映射到子图中的端口，或删除该引脚。", "").WithDetail(detail))
			}
			continue
		}
		for _, m := range pin.Mapped {
			if !nodes[m.NodeID] {
				out = append(out, issue.Errorf(r.Category(), issue.CodeCompositePinNodeMissing,
					"虚拟引脚映射的节点'%s'在子图中不存在", m.NodeID).
					At(pinLoc).WithHint("请重新映射引脚或恢复被删除的节点。", "").WithDetail(detail))
				continue
			}
			key := pinPort{m.NodeID, m.Port}
			if m.IsInput {
				inputs[key] = pin.Name
			} else {
				outputs[key] = pin.Name
			}
		}
	}

	for _, e := range c.SubGraph.Edges {
		if pin, ok := outputs[pinPort{e.SrcNode, e.SrcPort}]; ok {
			out = append(out, issue.Errorf(r.Category(), issue.CodeCompositePinExtraWiring,
				"端口 '%s' 已映射到虚拟输出引脚 '%s'，不能再有额外的连线", e.SrcPort, pin).
				At(fmt.Sprintf("%s > 节点 %s", loc, e.SrcNode)).
				WithHint("请删除该连线，已映射到虚拟引脚的端口只能通过引脚与外部交互。", "").
				WithDetail(detail))
		}
		if pin, ok := inputs[pinPort{e.DstNode, e.DstPort}]; ok {
			out = append(out, issue.Errorf(r.Category(), issue.CodeCompositePinExtraWiring,
				"端口 '%s' 已映射到虚拟输入引脚 '%s'，不能再有额外的连线", e.DstPort, pin).
				At(fmt.Sprintf("%s > 节点 %s", loc, e.DstNode)).
				WithHint("请删除该连线，已映射到虚拟引脚的端口只能通过引脚与外部交互。", "").
				WithDetail(detail))
		}
	}
	return out
}
