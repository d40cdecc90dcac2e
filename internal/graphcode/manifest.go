package graphcode

import "strings"

// Well-known names in generated graph source.
const (
	GraphVariablesName     = "GRAPH_VARIABLES"
	GraphVariableConfig    = "GraphVariableConfig"
	RegisterEventHandler   = "register_event_handler"
	EventMethodPrefix      = "on_"
	MetaGraphType          = "graph_type"
	MetaNodeType           = "node_type"
	MetaGraphID            = "graph_id"
	MetaGraphName          = "graph_name"
	MetaValueClient        = "client"
	MetaValueComposite     = "composite"

	DecoratorCompositeClass = "composite_class"
	DecoratorFlowEntry      = "flow_entry"
	DecoratorEventHandler   = "event_handler"
)

// GraphVariable is one entry of the file's declared-variables manifest.
type GraphVariable struct {
	Span
	Name string
	// Type is the declared variable_type; TypeExpr is its expression, which may
	// be nil or non-literal.
	Type     string
	TypeExpr Expr
}

// GraphVariables returns the entries of the module-level GRAPH_VARIABLES list.
func (m *Module) GraphVariables() []GraphVariable {
	value := m.moduleValue(GraphVariablesName)
	list, ok := value.(*List)
	if !ok {
		return nil
	}
	var out []GraphVariable
	for _, el := range list.Elts {
		call, ok := el.(*Call)
		if !ok {
			continue
		}
		if name, _ := FuncName(call); name != GraphVariableConfig {
			continue
		}
		gv := GraphVariable{Span: call.Span}
		if v, ok := call.Keyword("name"); ok {
			gv.Name, _ = StringValue(v)
		}
		if v, ok := call.Keyword("variable_type"); ok {
			gv.TypeExpr = v
			gv.Type, _ = StringValue(v)
		}
		out = append(out, gv)
	}
	return out
}

// moduleValue returns the value last assigned to a module-level name.
func (m *Module) moduleValue(name string) Expr {
	var value Expr
	for _, s := range m.Body {
		switch s := s.(type) {
		case *Assign:
			for _, t := range s.Targets {
				if n, ok := t.(*Name); ok && n.ID == name {
					value = s.Value
				}
			}
		case *AnnAssign:
			if n, ok := s.Target.(*Name); ok && n.ID == name && s.Value != nil {
				value = s.Value
			}
		}
	}
	return value
}

// StringConstants returns module-level names bound to non-blank string
// literals, trimmed. The first binding of a name wins.
func (m *Module) StringConstants() map[string]string {
	out := map[string]string{}
	bind := func(target Expr, value Expr) {
		n, ok := target.(*Name)
		if !ok {
			return
		}
		v, ok := StringValue(value)
		if !ok {
			return
		}
		v = strings.TrimSpace(v)
		if _, seen := out[n.ID]; v == "" || seen {
			return
		}
		out[n.ID] = v
	}
	for _, s := range m.Body {
		switch s := s.(type) {
		case *Assign:
			for _, t := range s.Targets {
				bind(t, s.Value)
			}
		case *AnnAssign:
			if s.Value != nil {
				bind(s.Target, s.Value)
			}
		}
	}
	return out
}

// ResolveString resolves e to a string when it is a literal or a name bound to
// a module-level string constant.
func (m *Module) ResolveString(e Expr, consts map[string]string) (string, bool) {
	if v, ok := StringValue(e); ok {
		return v, true
	}
	if n, ok := e.(*Name); ok {
		v, ok := consts[n.ID]
		return v, ok
	}
	return "", false
}

// EventRef is an event a graph subscribes to.
type EventRef struct {
	Span
	Name string
}

// Events returns the events the module subscribes to: the first argument of
// every register_event_handler call plus every on_<event> method, deduplicated
// by name in first-seen order.
func (m *Module) Events() []EventRef {
	seen := map[string]bool{}
	var out []EventRef
	add := func(name string, span Span) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		out = append(out, EventRef{Span: span, Name: name})
	}
	for _, c := range m.Classes() {
		for _, fn := range c.Methods() {
			if strings.HasPrefix(fn.Name, EventMethodPrefix) {
				add(strings.TrimPrefix(fn.Name, EventMethodPrefix), fn.Span)
			}
		}
	}
	for _, call := range Calls(m) {
		attr, ok := call.Func.(*Attribute)
		if !ok || attr.Attr != RegisterEventHandler || len(call.Args) == 0 {
			continue
		}
		if name, ok := StringValue(call.Args[0]); ok {
			add(name, call.Span)
		}
	}
	return out
}

// IsClient reports whether the module declares itself a client graph.
func (m *Module) IsClient() bool {
	return strings.EqualFold(m.Metadata[MetaGraphType], MetaValueClient)
}

// IsComposite reports whether the module declares itself a composite node,
// either through its docstring or a @composite_class class.
func (m *Module) IsComposite() bool {
	if strings.EqualFold(m.Metadata[MetaNodeType], MetaValueComposite) {
		return true
	}
	for _, c := range m.Classes() {
		if c.HasDecorator(DecoratorCompositeClass) {
			return true
		}
	}
	return false
}
