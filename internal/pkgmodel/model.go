// Package pkgmodel holds the materialized package data the package-level rules
// inspect: templates, instances, the level entity, graph resources, signals,
// structs, composite nodes and management configuration.
package pkgmodel

import "slices"

// Package is one content package.
type Package struct {
	ID          string      `yaml:"id" json:"id" validate:"required"`
	Name        string      `yaml:"name" json:"name"`
	Templates   []Template  `yaml:"templates,omitempty" json:"templates,omitempty" validate:"dive"`
	Instances   []Instance  `yaml:"instances,omitempty" json:"instances,omitempty" validate:"dive"`
	LevelEntity *Instance   `yaml:"level_entity,omitempty" json:"level_entity,omitempty"`
	Graphs      []string    `yaml:"graphs,omitempty" json:"graphs,omitempty"`
	Management  Management  `yaml:"management,omitempty" json:"management,omitempty"`
	UIControls  []UIControl `yaml:"ui_controls,omitempty" json:"ui_controls,omitempty" validate:"dive"`
}

// Template returns the template with the given id.
func (p *Package) Template(id string) (Template, bool) {
	for _, t := range p.Templates {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}

// Template is a placeable entity blueprint.
type Template struct {
	ID         string   `yaml:"id" json:"id" validate:"required"`
	Name       string   `yaml:"name" json:"name"`
	EntityType string   `yaml:"entity_type" json:"entity_type"`
	Components []string `yaml:"default_components,omitempty" json:"default_components,omitempty"`
	Graphs     []string `yaml:"default_graphs,omitempty" json:"default_graphs,omitempty"`
}

// Instance is a placed entity. The level entity is an Instance with no template.
type Instance struct {
	ID         string   `yaml:"id" json:"id" validate:"required"`
	Name       string   `yaml:"name" json:"name"`
	TemplateID string   `yaml:"template_id,omitempty" json:"template_id,omitempty"`
	EntityType string   `yaml:"entity_type,omitempty" json:"entity_type,omitempty"`
	Components []string `yaml:"additional_components,omitempty" json:"additional_components,omitempty"`
	Graphs     []string `yaml:"additional_graphs,omitempty" json:"additional_graphs,omitempty"`
}

// GraphNode is one node of a stored graph.
type GraphNode struct {
	ID             string            `yaml:"id" json:"id" validate:"required"`
	Title          string            `yaml:"title" json:"title"`
	Category       string            `yaml:"category,omitempty" json:"category,omitempty"`
	Inputs         []string          `yaml:"inputs,omitempty" json:"inputs,omitempty"`
	Outputs        []string          `yaml:"outputs,omitempty" json:"outputs,omitempty"`
	InputConstants map[string]string `yaml:"input_constants,omitempty" json:"input_constants,omitempty"`
}

// HasInput reports whether the node exposes the named input port.
func (n GraphNode) HasInput(port string) bool { return slices.Contains(n.Inputs, port) }

// HasOutput reports whether the node exposes the named output port.
func (n GraphNode) HasOutput(port string) bool { return slices.Contains(n.Outputs, port) }

// Edge connects an output port to an input port.
type Edge struct {
	ID      string `yaml:"id,omitempty" json:"id,omitempty"`
	SrcNode string `yaml:"src_node" json:"src_node"`
	SrcPort string `yaml:"src_port" json:"src_port"`
	DstNode string `yaml:"dst_node" json:"dst_node"`
	DstPort string `yaml:"dst_port" json:"dst_port"`
}

// StructBinding records which struct a struct node is bound to.
type StructBinding struct {
	StructID   string   `yaml:"struct_id" json:"struct_id"`
	FieldNames []string `yaml:"field_names,omitempty" json:"field_names,omitempty"`
}

// SignalBinding records which signal a send/listen node is bound to.
type SignalBinding struct {
	SignalID string `yaml:"signal_id" json:"signal_id"`
}

// GraphMetadata carries editor-side bindings.
type GraphMetadata struct {
	StructBindings map[string]StructBinding `yaml:"struct_bindings,omitempty" json:"struct_bindings,omitempty"`
	SignalBindings map[string]SignalBinding `yaml:"signal_bindings,omitempty" json:"signal_bindings,omitempty"`
}

// GraphResource is a stored node graph together with its generated source.
type GraphResource struct {
	ID         string        `yaml:"id" json:"id" validate:"required"`
	Name       string        `yaml:"name" json:"name"`
	Type       string        `yaml:"type" json:"type" validate:"omitempty,oneof=server client"`
	Nodes      []GraphNode   `yaml:"nodes,omitempty" json:"nodes,omitempty" validate:"dive"`
	Edges      []Edge        `yaml:"edges,omitempty" json:"edges,omitempty"`
	Metadata   GraphMetadata `yaml:"metadata,omitempty" json:"metadata,omitempty"`
	SourcePath string        `yaml:"source_path,omitempty" json:"source_path,omitempty"`

	// Source is the generated code read from SourcePath.
	Source []byte `yaml:"-" json:"-"`
}

// IsClient reports whether the graph runs on the client.
func (g *GraphResource) IsClient() bool { return g.Type == "client" }

// Node returns the node with the given id.
func (g *GraphResource) Node(id string) (GraphNode, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return GraphNode{}, false
}

// SignalParam is one declared signal parameter.
type SignalParam struct {
	Name string `yaml:"name" json:"name" validate:"required"`
	Type string `yaml:"type" json:"type"`
}

// Signal is a globally named event with a parameter schema.
type Signal struct {
	ID     string        `yaml:"id" json:"id" validate:"required"`
	Name   string        `yaml:"name" json:"name" validate:"required"`
	Params []SignalParam `yaml:"params,omitempty" json:"params,omitempty" validate:"dive"`
}

// Param returns the named parameter.
func (s Signal) Param(name string) (SignalParam, bool) {
	for _, p := range s.Params {
		if p.Name == name {
			return p, true
		}
	}
	return SignalParam{}, false
}

// StructField is one struct field.
type StructField struct {
	Name string `yaml:"name" json:"name"`
	Type string `yaml:"type" json:"type"`
}

// Struct is a named record type.
type Struct struct {
	ID     string        `yaml:"id" json:"id" validate:"required"`
	Name   string        `yaml:"name" json:"name"`
	Kind   string        `yaml:"kind" json:"kind"`
	Fields []StructField `yaml:"fields,omitempty" json:"fields,omitempty"`
}

// HasField reports whether the struct declares the named field.
func (s Struct) HasField(name string) bool {
	for _, f := range s.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// MappedPort binds a virtual pin to an internal port.
type MappedPort struct {
	NodeID  string `yaml:"node_id" json:"node_id"`
	Port    string `yaml:"port" json:"port"`
	IsInput bool   `yaml:"is_input" json:"is_input"`
}

// VirtualPin is an external pin of a composite node.
type VirtualPin struct {
	Index         int          `yaml:"index" json:"index"`
	Name          string       `yaml:"name" json:"name"`
	AllowUnmapped bool         `yaml:"allow_unmapped,omitempty" json:"allow_unmapped,omitempty"`
	Mapped        []MappedPort `yaml:"mapped_ports,omitempty" json:"mapped_ports,omitempty"`
}

// SubGraph is the body of a composite node.
type SubGraph struct {
	Nodes []GraphNode `yaml:"nodes,omitempty" json:"nodes,omitempty"`
	Edges []Edge      `yaml:"edges,omitempty" json:"edges,omitempty"`
}

// CompositeNode is a reusable sub-graph exposed through virtual pins.
type CompositeNode struct {
	ID       string       `yaml:"id" json:"id" validate:"required"`
	Name     string       `yaml:"name" json:"name"`
	SubGraph *SubGraph    `yaml:"sub_graph,omitempty" json:"sub_graph,omitempty"`
	Pins     []VirtualPin `yaml:"virtual_pins,omitempty" json:"virtual_pins,omitempty"`
}

// Timer is a management-configured timer.
type Timer struct {
	ID            string   `yaml:"timer_id" json:"timer_id"`
	Name          string   `yaml:"timer_name" json:"timer_name"`
	InitialTime   *float64 `yaml:"initial_time,omitempty" json:"initial_time,omitempty"`
	CallbackGraph string   `yaml:"callback_graph,omitempty" json:"callback_graph,omitempty"`
}

// DefaultTimerInitialTime applies when a timer omits initial_time.
const DefaultTimerInitialTime = 60.0

// Initial returns the timer's initial time, applying the default.
func (t Timer) Initial() float64 {
	if t.InitialTime == nil {
		return DefaultTimerInitialTime
	}
	return *t.InitialTime
}

// LevelVariable is a package-level custom variable.
type LevelVariable struct {
	Name    string `yaml:"name" json:"name"`
	Type    string `yaml:"type" json:"type"`
	Default string `yaml:"default,omitempty" json:"default,omitempty"`
}

// Management groups package management configuration.
type Management struct {
	Timers         []Timer         `yaml:"timers,omitempty" json:"timers,omitempty"`
	LevelVariables []LevelVariable `yaml:"level_variables,omitempty" json:"level_variables,omitempty"`
}

// UIControl is a UI widget asset.
type UIControl struct {
	ID     string   `yaml:"id" json:"id" validate:"required"`
	Name   string   `yaml:"name" json:"name"`
	Graphs []string `yaml:"graphs,omitempty" json:"graphs,omitempty"`
}
