package issue

// Categories group issues in reports.
const (
	CategoryCodeStyle   = "代码规范"
	CategoryCodeQuality = "代码质量"
	CategoryComposite   = "复合节点"
	CategorySignal      = "信号系统"
	CategoryStruct      = "结构体系统"
	CategoryMount       = "节点图挂载"
	CategoryEntity      = "实体配置"
	CategoryFrontendVar = "前端变量使用限制"
	CategoryManagement  = "管理配置"
	CategoryUIControl   = "界面控件"
	CategoryLibrary     = "资源库节点图"
)

// Syntax-tree rule codes.
const (
	// CodeSyntaxError indicates the graph source could not be tokenized or parsed.
	CodeSyntaxError = "CODE_SYNTAX_ERROR"
	// CodeUnsupportedShape indicates a construct the graph generator never emits.
	CodeUnsupportedShape = "CODE_UNSUPPORTED_SHAPE"
	// CodeMissingRequiredInputs indicates a node call that leaves required input ports unset.
	CodeMissingRequiredInputs = "CODE_NODE_MISSING_REQUIRED_INPUTS"
	// CodeUnknownTypeName indicates a type annotation outside the allowed type set.
	CodeUnknownTypeName = "CODE_UNKNOWN_TYPE_NAME"
	// CodeGraphVarDeclaration indicates a graph variable access that does not name a declared variable literally.
	CodeGraphVarDeclaration = "CODE_GRAPH_VAR_DECLARATION"
	// CodeNoLiteralAssignment indicates a raw literal assigned to a plain variable.
	CodeNoLiteralAssignment = "CODE_NO_LITERAL_ASSIGNMENT"
	// CodeNoConstAliasAssignment indicates a named constant re-aliased into a plain variable.
	CodeNoConstAliasAssignment = "CODE_NO_CONST_ALIAS_ASSIGNMENT"
	// CodeLocalVarInitialValue indicates a local-variable handle acquired without an initial value.
	CodeLocalVarInitialValue = "CODE_LOCAL_VAR_INITIAL_VALUE_REQUIRED"
	// CodeUnknownEventName indicates an event handler registered for an event the registry does not define.
	CodeUnknownEventName = "CODE_UNKNOWN_EVENT_NAME"
)

// Signal codes.
const (
	// CodeSignalIDNotAllowed indicates a signal id passed where a signal name is expected.
	CodeSignalIDNotAllowed = "CODE_SIGNAL_ID_NOT_ALLOWED"
	// CodeSignalUnknownID indicates a signal name that matches no defined signal.
	CodeSignalUnknownID = "CODE_SIGNAL_UNKNOWN_ID"
	// CodeSignalExtraParams indicates send-signal keywords absent from the signal's parameters.
	CodeSignalExtraParams = "CODE_SIGNAL_EXTRA_PARAMS"
	// CodeSignalDefinitionBounds indicates a signal definition with too many or too long parameters.
	CodeSignalDefinitionBounds = "SIGNAL_DEFINITION_BOUNDS"
	// CodeSignalUnbound indicates a signal node with no resolvable signal binding.
	CodeSignalUnbound = "SIGNAL_NODE_UNBOUND"
	// CodeSignalMissingParamPort indicates a signal node lacking a port for a declared parameter.
	CodeSignalMissingParamPort = "SIGNAL_PARAM_PORT_MISSING"
	// CodeSignalConstantType indicates a constant on a signal node incompatible with the parameter type.
	CodeSignalConstantType = "SIGNAL_PARAM_CONSTANT_TYPE"
	// CodeSignalWireType indicates a wire into a signal parameter port whose source type does not match (warning).
	CodeSignalWireType = "SIGNAL_PARAM_WIRE_TYPE"
)

// Struct codes.
const (
	// CodeStructNameInvalid indicates an empty struct name argument.
	CodeStructNameInvalid = "CODE_STRUCT_NAME_INVALID"
	// CodeStructNameUnknown indicates a struct name that matches no defined struct.
	CodeStructNameUnknown = "CODE_STRUCT_NAME_UNKNOWN"
	// CodeStructNameNotBasic indicates a struct node bound to a non-basic struct.
	CodeStructNameNotBasic = "CODE_STRUCT_NAME_NOT_BASIC"
	// CodeStructNameNotStatic indicates a struct name that cannot be resolved statically.
	CodeStructNameNotStatic = "CODE_STRUCT_NAME_NOT_STATIC"
	// CodeStructBinding indicates a struct node whose recorded binding disagrees with the struct table.
	CodeStructBinding = "STRUCT_BINDING_INVALID"
)

// Composite codes.
const (
	// CodeCompositeArgType indicates a composite parameter without a string type annotation.
	CodeCompositeArgType = "COMPOSITE_ARG_CHINESE_TYPE_REQUIRED"
	// CodeCompositeReturnType indicates a composite function without a string return annotation.
	CodeCompositeReturnType = "COMPOSITE_RETURN_CHINESE_TYPE_REQUIRED"
	// CodeCompositeFlowIn indicates a composite function without a 流程入 parameter typed 流程.
	CodeCompositeFlowIn = "COMPOSITE_FLOW_IN_REQUIRED"
	// CodeCompositeNesting indicates a composite body calling another composite node.
	CodeCompositeNesting = "COMPOSITE_NESTING_FORBIDDEN"
	// CodeCompositePinGeneric indicates a class-style composite pin typed any or 泛型.
	CodeCompositePinGeneric = "COMPOSITE_PIN_GENERIC_FORBIDDEN"
	// CodeCompositePinType indicates a class-style composite pin typed outside the scalar and list types.
	CodeCompositePinType = "COMPOSITE_PIN_TYPE_INVALID"
	// CodeCompositeSubgraphMissing indicates a composite definition without a subgraph.
	CodeCompositeSubgraphMissing = "COMPOSITE_SUBGRAPH_MISSING"
	// CodeCompositeSubgraphEmpty indicates a composite subgraph with no nodes (warning).
	CodeCompositeSubgraphEmpty = "COMPOSITE_SUBGRAPH_EMPTY"
	// CodeCompositePinUnmapped indicates a virtual pin with no internal port mapping (warning).
	CodeCompositePinUnmapped = "COMPOSITE_PIN_UNMAPPED"
	// CodeCompositePinNodeMissing indicates a pin mapping that names a node absent from the subgraph.
	CodeCompositePinNodeMissing = "COMPOSITE_PIN_NODE_MISSING"
	// CodeCompositePinExtraWiring indicates a subgraph edge on a port already claimed by a virtual pin.
	CodeCompositePinExtraWiring = "COMPOSITE_PIN_EXTRA_WIRING"
)

// Code-quality codes.
const (
	// CodeEventEntityLongWire indicates an event source entity threaded through too many distant calls.
	CodeEventEntityLongWire = "CODE_EVENT_ENTITY_LONG_WIRE"
	// CodeUnusedQueryOutput indicates a query or computation result that is never read (warning).
	CodeUnusedQueryOutput = "CODE_UNUSED_QUERY_OUTPUT"
	// CodeUnreachableAfterReturn indicates statements after return or raise in the same block (error).
	CodeUnreachableAfterReturn = "CODE_UNREACHABLE_AFTER_RETURN"
)

// Package-level codes.
const (
	// CodeGraphNotAttached indicates a declared package graph that no entity carries (warning).
	CodeGraphNotAttached = "PACKAGE_GRAPH_NOT_ATTACHED"
	// CodeGraphNotDeclared indicates an attached graph missing from the package declaration (warning).
	CodeGraphNotDeclared = "PACKAGE_GRAPH_NOT_DECLARED"
	// CodeGraphMissing indicates an attachment that names a graph the resource accessor cannot load.
	CodeGraphMissing = "GRAPH_RESOURCE_MISSING"
	// CodeEntityType indicates an unknown or disallowed entity type.
	CodeEntityType = "ENTITY_TYPE_INVALID"
	// CodeEntityComponent indicates a component the entity type cannot carry.
	CodeEntityComponent = "ENTITY_COMPONENT_NOT_ALLOWED"
	// CodeStaticObjectAttachment indicates graphs or components on a static object template.
	CodeStaticObjectAttachment = "ENTITY_STATIC_OBJECT_ATTACHMENT"
	// CodeInstanceTemplateMissing indicates an instance whose template does not exist.
	CodeInstanceTemplateMissing = "INSTANCE_TEMPLATE_MISSING"
	// CodeEventNotAllowed indicates an event node mounted on an entity type that never fires it.
	CodeEventNotAllowed = "EVENT_NOT_ALLOWED_ON_ENTITY"
	// CodeFrontendVariable indicates a client graph reading custom variables from a disallowed entity.
	CodeFrontendVariable = "FRONTEND_CUSTOM_VARIABLE_SOURCE"
	// CodeManagementConfig indicates an invalid timer or level variable definition.
	CodeManagementConfig = "MANAGEMENT_CONFIG_INVALID"
	// CodeUIControlGraph indicates a UI widget carrying node graphs.
	CodeUIControlGraph = "UI_CONTROL_GRAPH_FORBIDDEN"
)
