package subgraph

import (
	"github.com/coregraph/typegraph/internal/entity"
	"github.com/coregraph/typegraph/internal/ident"
	"github.com/coregraph/typegraph/internal/ontology"
	"github.com/coregraph/typegraph/internal/temporal"
)

// OntologyVertex is the payload stored at one OntologyTypeVertexId: one
// of the three ontology schema kinds, tagged so callers can dispatch
// without a type switch on the concrete Go type.
type OntologyVertex struct {
	DataType     *ontology.DataType
	PropertyType *ontology.PropertyType
	EntityType   *ontology.EntityType
}

// Vertices holds both halves of a subgraph's node set: ontology types,
// keyed by family then edition, and entities, keyed by canonical
// identity then the variable-axis timestamp at which each edition was
// current.
type Vertices struct {
	Ontology  map[ident.BaseUrl]map[ident.OntologyTypeVersion]OntologyVertex
	Knowledge map[ident.EntityId]map[temporal.Timestamp[temporal.VariableAxis]]entity.Entity
}

// NewVertices returns an empty Vertices container.
func NewVertices() *Vertices {
	return &Vertices{
		Ontology:  make(map[ident.BaseUrl]map[ident.OntologyTypeVersion]OntologyVertex),
		Knowledge: make(map[ident.EntityId]map[temporal.Timestamp[temporal.VariableAxis]]entity.Entity),
	}
}

// AddOntologyVertex inserts v at id, creating the inner map lazily. It
// reports whether the vertex was newly added.
func (vs *Vertices) AddOntologyVertex(id OntologyTypeVertexId, v OntologyVertex) bool {
	byVersion, ok := vs.Ontology[id.BaseID]
	if !ok {
		byVersion = make(map[ident.OntologyTypeVersion]OntologyVertex)
		vs.Ontology[id.BaseID] = byVersion
	}
	if _, exists := byVersion[id.RevisionID]; exists {
		return false
	}
	byVersion[id.RevisionID] = v
	return true
}

// AddEntityVertex inserts e at id, creating the inner map lazily. It
// reports whether the vertex was newly added.
func (vs *Vertices) AddEntityVertex(id EntityVertexId, e entity.Entity) bool {
	byRevision, ok := vs.Knowledge[id.BaseID]
	if !ok {
		byRevision = make(map[temporal.Timestamp[temporal.VariableAxis]]entity.Entity)
		vs.Knowledge[id.BaseID] = byRevision
	}
	if _, exists := byRevision[id.RevisionID]; exists {
		return false
	}
	byRevision[id.RevisionID] = e
	return true
}
