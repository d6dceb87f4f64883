package subgraph

import (
	"github.com/coregraph/typegraph/internal/ident"
	"github.com/coregraph/typegraph/internal/temporal"
)

// EdgeDirection is which way an edge was traversed from its source
// vertex.
type EdgeDirection int

const (
	Outgoing EdgeDirection = iota
	Incoming
)

func (d EdgeDirection) String() string {
	if d == Incoming {
		return "incoming"
	}
	return "outgoing"
}

// OntologyEdgeKind enumerates the ways one ontology type edition can
// reference another.
type OntologyEdgeKind int

const (
	ConstrainsValuesOn OntologyEdgeKind = iota
	ConstrainsPropertiesOn
	ConstrainsLinksOn
	ConstrainsLinkDestinationsOn
	InheritsFrom
)

// SharedEdgeKind enumerates edges that cross the ontology/knowledge
// boundary: an entity is typed by an entity type edition.
type SharedEdgeKind int

const (
	IsOfType SharedEdgeKind = iota
)

// KnowledgeGraphEdgeKind enumerates the ways one entity can reference
// another: as a link's left or right endpoint.
type KnowledgeGraphEdgeKind int

const (
	HasLeftEntity KnowledgeGraphEdgeKind = iota
	HasRightEntity
)

// edgeData is the (kind, direction) composite key an AdjacencyList
// stores endpoints under, mirroring the upstream EdgeData<K> struct.
type edgeData[K comparable] struct {
	Kind      K
	Direction EdgeDirection
}

// OutwardEdge is one flattened edge: its kind, direction, and the
// endpoint it points at, as produced by AdjacencyList.IntoFlattened.
type OutwardEdge[K any, Endpoint any] struct {
	Kind          K
	Direction     EdgeDirection
	RightEndpoint Endpoint
}

// AdjacencyList is the edge container keyed by vertex base id, then
// revision id, then (kind, direction), with endpoints deduplicated in a
// set. B and R are the vertex id's base/revision id types; K is the edge
// kind enum; Endpoint is whatever the edge points at (another vertex id,
// or an interval-tagged entity id for knowledge-graph edges).
type AdjacencyList[B comparable, R comparable, K comparable, Endpoint comparable] struct {
	edges map[B]map[R]map[edgeData[K]]map[Endpoint]struct{}
}

// NewAdjacencyList returns an empty AdjacencyList.
func NewAdjacencyList[B comparable, R comparable, K comparable, Endpoint comparable]() *AdjacencyList[B, R, K, Endpoint] {
	return &AdjacencyList[B, R, K, Endpoint]{edges: make(map[B]map[R]map[edgeData[K]]map[Endpoint]struct{})}
}

// Insert adds one edge, creating intermediate maps lazily. It reports
// whether the endpoint was newly added (false if it was already present,
// matching the idempotent add_edge semantics the spec calls for).
func (a *AdjacencyList[B, R, K, Endpoint]) Insert(baseID B, revisionID R, kind K, direction EdgeDirection, endpoint Endpoint) bool {
	byRevision, ok := a.edges[baseID]
	if !ok {
		byRevision = make(map[R]map[edgeData[K]]map[Endpoint]struct{})
		a.edges[baseID] = byRevision
	}
	byEdge, ok := byRevision[revisionID]
	if !ok {
		byEdge = make(map[edgeData[K]]map[Endpoint]struct{})
		byRevision[revisionID] = byEdge
	}
	key := edgeData[K]{Kind: kind, Direction: direction}
	endpoints, ok := byEdge[key]
	if !ok {
		endpoints = make(map[Endpoint]struct{})
		byEdge[key] = endpoints
	}
	if _, exists := endpoints[endpoint]; exists {
		return false
	}
	endpoints[endpoint] = struct{}{}
	return true
}

// IntoFlattened renders the adjacency list as (baseID -> revisionID ->
// []OutwardEdge) for serialization, matching the upstream
// into_flattened.
func (a *AdjacencyList[B, R, K, Endpoint]) IntoFlattened() map[B]map[R][]OutwardEdge[K, Endpoint] {
	out := make(map[B]map[R][]OutwardEdge[K, Endpoint], len(a.edges))
	for baseID, byRevision := range a.edges {
		revisions := make(map[R][]OutwardEdge[K, Endpoint], len(byRevision))
		for revisionID, byEdge := range byRevision {
			var flat []OutwardEdge[K, Endpoint]
			for key, endpoints := range byEdge {
				for endpoint := range endpoints {
					flat = append(flat, OutwardEdge[K, Endpoint]{
						Kind:          key.Kind,
						Direction:     key.Direction,
						RightEndpoint: endpoint,
					})
				}
			}
			revisions[revisionID] = flat
		}
		out[baseID] = revisions
	}
	return out
}

// entityRevisionID is the revision-id type entity-sourced adjacency
// lists key on: the point on the query's variable temporal axis at
// which the source edition was current.
type entityRevisionID = temporal.Timestamp[temporal.VariableAxis]

// Edges is the full edge set of a subgraph, one AdjacencyList per
// endpoint-category pair the traversal may cross. Each category's key
// type mirrors its source vertex kind: entity-sourced lists key on
// (EntityId, variable-axis timestamp); ontology-sourced lists key on
// (BaseUrl, OntologyTypeVersion).
type Edges struct {
	EntityToEntity           *AdjacencyList[ident.EntityId, entityRevisionID, KnowledgeGraphEdgeKind, EntityVertexId]
	EntityToEntityType       *AdjacencyList[ident.EntityId, entityRevisionID, SharedEdgeKind, OntologyTypeVertexId]
	EntityTypeToEntityType   *AdjacencyList[ident.BaseUrl, ident.OntologyTypeVersion, OntologyEdgeKind, OntologyTypeVertexId]
	EntityTypeToPropertyType *AdjacencyList[ident.BaseUrl, ident.OntologyTypeVersion, OntologyEdgeKind, OntologyTypeVertexId]
	PropertyTypeToPropertyType *AdjacencyList[ident.BaseUrl, ident.OntologyTypeVersion, OntologyEdgeKind, OntologyTypeVertexId]
	PropertyTypeToDataType     *AdjacencyList[ident.BaseUrl, ident.OntologyTypeVersion, OntologyEdgeKind, OntologyTypeVertexId]
}

// NewEdges returns an Edges with every adjacency list initialized.
func NewEdges() *Edges {
	return &Edges{
		EntityToEntity:             NewAdjacencyList[ident.EntityId, entityRevisionID, KnowledgeGraphEdgeKind, EntityVertexId](),
		EntityToEntityType:         NewAdjacencyList[ident.EntityId, entityRevisionID, SharedEdgeKind, OntologyTypeVertexId](),
		EntityTypeToEntityType:     NewAdjacencyList[ident.BaseUrl, ident.OntologyTypeVersion, OntologyEdgeKind, OntologyTypeVertexId](),
		EntityTypeToPropertyType:   NewAdjacencyList[ident.BaseUrl, ident.OntologyTypeVersion, OntologyEdgeKind, OntologyTypeVertexId](),
		PropertyTypeToPropertyType: NewAdjacencyList[ident.BaseUrl, ident.OntologyTypeVersion, OntologyEdgeKind, OntologyTypeVertexId](),
		PropertyTypeToDataType:     NewAdjacencyList[ident.BaseUrl, ident.OntologyTypeVersion, OntologyEdgeKind, OntologyTypeVertexId](),
	}
}

// InsertEntityToEntity adds an edge from vertex id to the given endpoint, delegating
// to the right adjacency list's Insert and reporting whether the
// endpoint was newly added.
func (e *Edges) InsertEntityToEntity(id EntityVertexId, kind KnowledgeGraphEdgeKind, direction EdgeDirection, endpoint EntityVertexId) bool {
	return e.EntityToEntity.Insert(id.BaseID, id.RevisionID, kind, direction, endpoint)
}

// InsertEntityToEntityType records that an entity edition is of a given
// entity type.
func (e *Edges) InsertEntityToEntityType(id EntityVertexId, direction EdgeDirection, endpoint OntologyTypeVertexId) bool {
	return e.EntityToEntityType.Insert(id.BaseID, id.RevisionID, IsOfType, direction, endpoint)
}
