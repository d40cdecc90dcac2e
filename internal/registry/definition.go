// Package registry indexes node definitions per execution scope and derives the
// lookup tables rules need: required input ports, boolean outputs, control-flow
// and event nodes, variadic minimums, and generic/enum constraints.
package registry

import (
	"strings"

	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/ruletable"
)

// Scope is the execution environment a node is available in.
type Scope string

const (
	// ScopeServer is the default scope.
	ScopeServer Scope = "server"
	// ScopeClient is the client-side scope.
	ScopeClient Scope = "client"
)

// NormalizeScope maps anything other than "client" to ScopeServer.
func NormalizeScope(s string) Scope {
	if strings.EqualFold(strings.TrimSpace(s), string(ScopeClient)) {
		return ScopeClient
	}
	return ScopeServer
}

// Port is a named, typed node slot.
type Port struct {
	Name string `yaml:"name" json:"name" validate:"required"`
	Type string `yaml:"type" json:"type"`
}

// NodeDefinition describes one callable node.
type NodeDefinition struct {
	Name     string  `yaml:"name" json:"name" validate:"required"`
	Category string  `yaml:"category" json:"category" validate:"required"`
	Scopes   []Scope `yaml:"scopes,omitempty" json:"scopes,omitempty" validate:"dive,oneof=server client"`
	Inputs   []Port  `yaml:"inputs,omitempty" json:"inputs,omitempty" validate:"dive"`
	Outputs  []Port  `yaml:"outputs,omitempty" json:"outputs,omitempty" validate:"dive"`
	// GenericConstraints lists the concrete types a generic port accepts.
	GenericConstraints map[string][]string `yaml:"generic_constraints,omitempty" json:"generic_constraints,omitempty"`
	// EnumCandidates lists the values an enum port accepts.
	EnumCandidates map[string][]string `yaml:"enum_candidates,omitempty" json:"enum_candidates,omitempty"`
	Composite      bool                `yaml:"composite,omitempty" json:"composite,omitempty"`
}

// AvailableIn reports whether the node may be used in scope. A definition with
// no scopes is available everywhere.
func (d NodeDefinition) AvailableIn(scope Scope) bool {
	if len(d.Scopes) == 0 {
		return true
	}
	for _, s := range d.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// InputNames returns the declared input port names in order.
func (d NodeDefinition) InputNames() []string {
	out := make([]string, 0, len(d.Inputs))
	for _, p := range d.Inputs {
		out = append(out, p.Name)
	}
	return out
}

// IsEvent reports whether the node is an event entry point.
func (d NodeDefinition) IsEvent() bool { return strings.Contains(d.Category, "事件") }

// IsFlow reports whether the node participates in control flow.
func (d NodeDefinition) IsFlow() bool {
	for _, p := range d.Inputs {
		if strings.Contains(p.Type, ruletable.TypeFlow) || p.Name == ruletable.PortFlowIn {
			return true
		}
	}
	for _, p := range d.Outputs {
		if strings.Contains(p.Type, ruletable.TypeFlow) || p.Name == ruletable.PortFlowOut {
			return true
		}
	}
	return false
}

// HasBooleanOutput reports whether any output is typed 布尔值.
func (d NodeDefinition) HasBooleanOutput() bool {
	for _, p := range d.Outputs {
		if strings.Contains(p.Type, ruletable.TypeBool) {
			return true
		}
	}
	return false
}

// variadicCount counts variadic placeholder inputs.
func (d NodeDefinition) variadicCount() int {
	n := 0
	for _, p := range d.Inputs {
		if ruletable.IsVariadicPort(p.Name) {
			n++
		}
	}
	return n
}

// requiredInputs lists inputs that every call must supply.
func (d NodeDefinition) requiredInputs() []string {
	var out []string
	for _, p := range d.Inputs {
		if ruletable.IsVariadicPort(p.Name) || ruletable.IsFlowPortName(p.Name) || p.Type == ruletable.TypeFlow {
			continue
		}
		out = append(out, p.Name)
	}
	return out
}
