package pkgmodel

import (
	"fmt"
	"iter"

	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/ruletable"
)

// Owner kinds of an Attachment.
const (
	OwnerTemplate    = "template"
	OwnerInstance    = "instance"
	OwnerLevelEntity = "level_entity"
	OwnerLibrary     = "library"
)

// Attachment is one graph reference together with the entity that carries it.
type Attachment struct {
	GraphID    string
	OwnerKind  string
	OwnerID    string
	OwnerName  string
	EntityType string
	// Location is the breadcrumb of owner and graph, e.g. 模板 'A' (t1) > 节点图 'G' (g1).
	Location string
	// OwnerLocation is the breadcrumb of the owner alone.
	OwnerLocation string
	Detail        map[string]any
	// Graph is nil when the referenced graph does not exist.
	Graph *GraphResource
}

// Mounted reports whether the graph is attached to an entity rather than
// merely stored in the library.
func (a Attachment) Mounted() bool { return a.OwnerKind != OwnerLibrary }

// GraphName returns the graph's display name, falling back to its id.
func (a Attachment) GraphName() string {
	if a.Graph != nil && a.Graph.Name != "" {
		return a.Graph.Name
	}
	return a.GraphID
}

// Attachments yields every graph attached to a template, an instance or the
// level entity of pkg, followed by every graph stored in the resource library.
// Repeated references on the same owner are yielded once.
func Attachments(pkg *Package, res ResourceAccessor) iter.Seq[Attachment] {
	return func(yield func(Attachment) bool) {
		if pkg != nil {
			for _, t := range pkg.Templates {
				owner := fmt.Sprintf("模板 '%s' (%s)", t.Name, t.ID)
				if !yieldOwner(yield, res, OwnerTemplate, t.ID, t.Name, t.EntityType, owner, t.Graphs) {
					return
				}
			}
			for _, inst := range pkg.Instances {
				entityType := inst.EntityType
				if tmpl, ok := pkg.Template(inst.TemplateID); ok && entityType == "" {
					entityType = tmpl.EntityType
				}
				owner := fmt.Sprintf("实例 '%s' (%s)", inst.Name, inst.ID)
				if !yieldOwner(yield, res, OwnerInstance, inst.ID, inst.Name, entityType, owner, inst.Graphs) {
					return
				}
			}
			if lvl := pkg.LevelEntity; lvl != nil {
				entityType := lvl.EntityType
				if entityType == "" {
					entityType = ruletable.EntityLevel
				}
				owner := fmt.Sprintf("关卡实体 '%s' (%s)", lvl.Name, lvl.ID)
				if !yieldOwner(yield, res, OwnerLevelEntity, lvl.ID, lvl.Name, entityType, owner, lvl.Graphs) {
					return
				}
			}
		}
		if res == nil {
			return
		}
		for _, id := range res.LibraryGraphIDs() {
			g, _ := res.Graph(id)
			a := Attachment{
				GraphID:       id,
				OwnerKind:     OwnerLibrary,
				Location:      fmt.Sprintf("资源库 > 节点图 '%s' (%s)", graphName(g, id), id),
				OwnerLocation: "资源库",
				Detail:        map[string]any{"type": "library_graph", "graph_id": id},
				Graph:         g,
			}
			if !yield(a) {
				return
			}
		}
	}
}

func yieldOwner(yield func(Attachment) bool, res ResourceAccessor, kind, id, name, entityType, owner string, graphs []string) bool {
	seen := make(map[string]bool, len(graphs))
	for _, gid := range graphs {
		if gid == "" || seen[gid] {
			continue
		}
		seen[gid] = true
		var g *GraphResource
		if res != nil {
			g, _ = res.Graph(gid)
		}
		a := Attachment{
			GraphID:       gid,
			OwnerKind:     kind,
			OwnerID:       id,
			OwnerName:     name,
			EntityType:    entityType,
			Location:      fmt.Sprintf("%s > 节点图 '%s' (%s)", owner, graphName(g, gid), gid),
			OwnerLocation: owner,
			Detail: map[string]any{
				"type":        kind,
				kind + "_id":  id,
				"graph_id":    gid,
				"entity_type": entityType,
			},
			Graph: g,
		}
		if !yield(a) {
			return false
		}
	}
	return true
}

func graphName(g *GraphResource, id string) string {
	if g != nil && g.Name != "" {
		return g.Name
	}
	return id
}
