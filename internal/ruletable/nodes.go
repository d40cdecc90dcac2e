package ruletable

import "strings"

// Node titles the rules key on.
const (
	NodeSetGraphVar       = "设置节点图变量"
	NodeGetGraphVar       = "获取节点图变量"
	NodeGetLocalVar       = "获取局部变量"
	NodeSendSignal        = "发送信号"
	NodeListenSignal      = "监听信号"
	NodeSplitStruct       = "拆分结构体"
	NodeBuildStruct       = "拼装结构体"
	NodeModifyStruct      = "修改结构体"
	NodeGetCustomVar      = "获取自定义变量"
	NodeIterateEntityList = "遍历实体列表"
	NodeGetSelfEntity     = "获取自身实体"
)

// Port and keyword names the rules key on.
const (
	PortFlowIn        = "流程入"
	PortFlowOut       = "流程出"
	PortVarName       = "变量名"
	PortInitialValue  = "初始值"
	PortSignalName    = "信号名"
	PortTargetEntity  = "目标实体"
	PortStructName    = "结构体名"
	PortEntityList    = "实体列表"
	ParamEventSource  = "事件源实体"
	VariadicMarker    = "~"
	RuntimeContextArg = "game"
)

// Node categories.
const (
	CategoryEvent     = "事件节点"
	CategoryExecution = "执行节点"
	CategoryQuery     = "查询节点"
	CategoryCompute   = "运算节点"
	CategoryFlow      = "流程控制节点"
	CategoryComposite = "复合节点"
)

// flowPortNames are control-flow port names in addition to anything containing 流程.
var flowPortNames = map[string]bool{
	"flow": true, PortFlowOut: true, "是": true, "否": true, "默认": true,
	"循环体": true, "循环完成": true, PortFlowIn: true, "跳出循环": true,
}

// IsFlowPortName reports whether a port carries control flow rather than data.
func IsFlowPortName(name string) bool {
	return strings.Contains(name, "流程") || flowPortNames[name]
}

// IsVariadicPort reports whether a port name is a variadic placeholder.
func IsVariadicPort(name string) bool { return strings.Contains(name, VariadicMarker) }

// ReservedLeadingArgs are positional arguments the generator emits before the
// node's own ports; they never map onto input ports.
var ReservedLeadingArgs = map[string]bool{
	"self": true, "game": true, "self.game": true,
	"owner_entity": true, "self.owner_entity": true,
}

// ContextArgs name the runtime context when passed as the first positional
// argument, as in Add(ctx, a=1).
var ContextArgs = map[string]bool{"ctx": true, "self.ctx": true}

// IsDataQueryCategory reports whether nodes of category produce values without side effects.
func IsDataQueryCategory(category string) bool {
	return category == CategoryQuery || category == CategoryCompute
}

// StructNodeTitles are the nodes that manipulate basic structs.
var StructNodeTitles = map[string]bool{
	NodeSplitStruct: true, NodeBuildStruct: true, NodeModifyStruct: true,
}

// SignalStaticInputs are send-signal arguments that are not signal parameters.
var SignalStaticInputs = map[string]bool{
	PortFlowIn: true, PortTargetEntity: true, PortSignalName: true,
}

// ClientOnlyNodeTitles mark a graph as client side when present.
var ClientOnlyNodeTitles = map[string]bool{
	"播放限时特效": true, "定点发射投射物": true, "定点位移": true,
	"显示UI": true, "隐藏UI": true, "设置UI文本": true, "客户端": true,
}

// ClientCategoryMarker marks client-side node categories.
const ClientCategoryMarker = "客户端"

// FrontendEntitySources are the producers a client graph may read custom variables from.
var FrontendEntitySources = map[string]bool{
	"获取关卡实体": true, "获取玩家实体": true, "获取本地玩家": true,
}

// SelfEntityPrivilegedOwners may read custom variables through 获取自身实体 on the client.
var SelfEntityPrivilegedOwners = map[string]bool{
	EntityPlayer: true, EntityLevel: true,
}

// EntityQueryNodes end a backward trace of an entity value.
var EntityQueryNodes = map[string]bool{
	NodeGetSelfEntity: true, "获取关卡实体": true, "获取玩家实体": true, "获取本地玩家": true,
	"获取实体位置": true, "获取单位标签的实体列表": true,
}

// Pin declarations inside class-style composite nodes.
const (
	PinDataIn      = "数据入"
	PinDataOut     = "数据出"
	PinTypeKeyword = "pin_type"
)
