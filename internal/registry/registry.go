package registry

import (
	"sort"
	"sync"

	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/ruletable"
)

// Registry is the immutable node library of one scope. Derived indices are
// built on first use; call Warm before sharing a Registry across goroutines
// that may race to build them.
type Registry struct {
	scope  Scope
	byName map[string]NodeDefinition
	names  []string

	once sync.Once
	idx  indices
}

type indices struct {
	required    map[string][]string
	boolOutputs map[string]bool
	flowNodes   map[string]bool
	events      map[string]bool
	variadicMin map[string]int
	portTypes   map[string]map[string]string
	composite   map[string]bool
	allTypes    map[string]bool
}

// Scope returns the scope this registry was built for.
func (r *Registry) Scope() Scope { return r.scope }

// Len returns the number of definitions.
func (r *Registry) Len() int { return len(r.names) }

// Names returns the sorted node names.
func (r *Registry) Names() []string { return append([]string(nil), r.names...) }

// Lookup returns the named definition.
func (r *Registry) Lookup(name string) (NodeDefinition, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Has reports whether name is a known node.
func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Category returns the node's category, or "" when unknown.
func (r *Registry) Category(name string) string { return r.byName[name].Category }

// Warm builds all derived indices now.
func (r *Registry) Warm() { r.once.Do(r.build) }

func (r *Registry) indices() *indices {
	r.once.Do(r.build)
	return &r.idx
}

func (r *Registry) build() {
	idx := indices{
		required:    make(map[string][]string),
		boolOutputs: make(map[string]bool),
		flowNodes:   make(map[string]bool),
		events:      make(map[string]bool),
		variadicMin: make(map[string]int),
		portTypes:   make(map[string]map[string]string),
		composite:   make(map[string]bool),
		allTypes:    make(map[string]bool),
	}
	for _, name := range r.names {
		d := r.byName[name]
		if req := d.requiredInputs(); len(req) > 0 {
			idx.required[name] = req
		}
		if d.HasBooleanOutput() {
			idx.boolOutputs[name] = true
		}
		if d.IsFlow() {
			idx.flowNodes[name] = true
		}
		if d.IsEvent() {
			idx.events[name] = true
		}
		switch d.variadicCount() {
		case 0:
		case 1:
			idx.variadicMin[name] = 1
		default:
			idx.variadicMin[name] = 2
		}
		ports := make(map[string]string, len(d.Inputs)+len(d.Outputs))
		for _, p := range d.Inputs {
			ports[p.Name] = p.Type
		}
		for _, p := range d.Outputs {
			if _, taken := ports[p.Name]; !taken {
				ports[p.Name] = p.Type
			}
		}
		idx.portTypes[name] = ports
		for _, t := range ports {
			if t != "" {
				idx.allTypes[t] = true
			}
		}
		if d.Composite || d.Category == ruletable.CategoryComposite {
			idx.composite[name] = true
		}
	}
	r.idx = idx
}

// RequiredInputs returns the data inputs every call of name must supply.
func (r *Registry) RequiredInputs(name string) []string { return r.indices().required[name] }

// HasBooleanOutput reports whether name produces a boolean.
func (r *Registry) HasBooleanOutput(name string) bool { return r.indices().boolOutputs[name] }

// IsFlowNode reports whether name has flow ports.
func (r *Registry) IsFlowNode(name string) bool { return r.indices().flowNodes[name] }

// IsEvent reports whether name is an event node.
func (r *Registry) IsEvent(name string) bool { return r.indices().events[name] }

// EventNames returns the sorted event node names.
func (r *Registry) EventNames() []string { return r.filter(r.indices().events) }

// BooleanOutputNames returns the sorted names of nodes with a boolean output.
func (r *Registry) BooleanOutputNames() []string { return r.filter(r.indices().boolOutputs) }

// FlowNodeNames returns the sorted names of nodes with flow ports.
func (r *Registry) FlowNodeNames() []string { return r.filter(r.indices().flowNodes) }

// CompositeNames returns the sorted composite node names.
func (r *Registry) CompositeNames() []string { return r.filter(r.indices().composite) }

// PortTypes returns every port type declared anywhere in the registry, sorted.
func (r *Registry) PortTypes() []string {
	all := r.indices().allTypes
	out := make([]string, 0, len(all))
	for t := range all {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) filter(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for _, n := range r.names {
		if set[n] {
			out = append(out, n)
		}
	}
	return out
}

// VariadicMin returns the minimum number of variadic arguments for name.
func (r *Registry) VariadicMin(name string) int { return r.indices().variadicMin[name] }

// PortType returns the declared type of a port on name.
func (r *Registry) PortType(name, port string) (string, bool) {
	t, ok := r.indices().portTypes[name][port]
	return t, ok
}

// IsComposite reports whether name is a composite node.
func (r *Registry) IsComposite(name string) bool { return r.indices().composite[name] }

// GenericConstraints returns the allowed concrete types of a generic port.
func (r *Registry) GenericConstraints(name, port string) []string {
	return r.byName[name].GenericConstraints[port]
}

// EnumCandidates returns the allowed values of an enum port.
func (r *Registry) EnumCandidates(name, port string) []string {
	return r.byName[name].EnumCandidates[port]
}
