package pkgmodel

import "sort"

// ResourceAccessor supplies the resources a package refers to. The validator
// never reads storage itself; it asks the accessor.
type ResourceAccessor interface {
	// Graph returns the stored graph with the given id.
	Graph(id string) (*GraphResource, bool)
	// LibraryGraphIDs lists every graph stored in the resource library.
	LibraryGraphIDs() []string
	Signals() []Signal
	Structs() []Struct
	Composites() []CompositeNode
}

// Store is an in-memory ResourceAccessor.
type Store struct {
	graphs     map[string]*GraphResource
	signals    []Signal
	structs    []Struct
	composites []CompositeNode
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{graphs: make(map[string]*GraphResource)}
}

// AddGraph stores g, replacing any graph with the same id.
func (s *Store) AddGraph(g *GraphResource) { s.graphs[g.ID] = g }

// AddSignal stores a signal definition.
func (s *Store) AddSignal(sig Signal) { s.signals = append(s.signals, sig) }

// AddStruct stores a struct definition.
func (s *Store) AddStruct(st Struct) { s.structs = append(s.structs, st) }

// AddComposite stores a composite node.
func (s *Store) AddComposite(c CompositeNode) { s.composites = append(s.composites, c) }

// Graph implements ResourceAccessor.
func (s *Store) Graph(id string) (*GraphResource, bool) {
	g, ok := s.graphs[id]
	return g, ok
}

// LibraryGraphIDs implements ResourceAccessor.
func (s *Store) LibraryGraphIDs() []string {
	ids := make([]string, 0, len(s.graphs))
	for id := range s.graphs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Signals implements ResourceAccessor.
func (s *Store) Signals() []Signal { return s.signals }

// Structs implements ResourceAccessor.
func (s *Store) Structs() []Struct { return s.structs }

// Composites implements ResourceAccessor.
func (s *Store) Composites() []CompositeNode { return s.composites }

// Catalog indexes signals and structs for lookups by id and by name.
type Catalog struct {
	signalsByID   map[string]Signal
	signalsByName map[string]Signal
	structsByID   map[string]Struct
	structsByName map[string]Struct
}

// NewCatalog indexes the signals and structs of res. A nil res gives an empty
// catalog.
func NewCatalog(res ResourceAccessor) *Catalog {
	c := &Catalog{
		signalsByID:   make(map[string]Signal),
		signalsByName: make(map[string]Signal),
		structsByID:   make(map[string]Struct),
		structsByName: make(map[string]Struct),
	}
	if res == nil {
		return c
	}
	for _, sig := range res.Signals() {
		c.signalsByID[sig.ID] = sig
		if _, taken := c.signalsByName[sig.Name]; !taken {
			c.signalsByName[sig.Name] = sig
		}
	}
	for _, st := range res.Structs() {
		c.structsByID[st.ID] = st
		if st.Name != "" {
			if _, taken := c.structsByName[st.Name]; !taken {
				c.structsByName[st.Name] = st
			}
		}
	}
	return c
}

// HasSignals reports whether any signal is defined.
func (c *Catalog) HasSignals() bool { return len(c.signalsByID) > 0 }

// HasStructs reports whether any struct is defined.
func (c *Catalog) HasStructs() bool { return len(c.structsByID) > 0 }

// SignalByID looks a signal up by id.
func (c *Catalog) SignalByID(id string) (Signal, bool) {
	s, ok := c.signalsByID[id]
	return s, ok
}

// SignalByName looks a signal up by display name.
func (c *Catalog) SignalByName(name string) (Signal, bool) {
	s, ok := c.signalsByName[name]
	return s, ok
}

// StructByID looks a struct up by id.
func (c *Catalog) StructByID(id string) (Struct, bool) {
	s, ok := c.structsByID[id]
	return s, ok
}

// StructByName looks a struct up by name, falling back to id.
func (c *Catalog) StructByName(name string) (Struct, bool) {
	if s, ok := c.structsByName[name]; ok {
		return s, true
	}
	s, ok := c.structsByID[name]
	return s, ok
}
