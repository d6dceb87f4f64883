package subgraph

import "sort"

// EdgeResolveDepths bounds how many hops of a given edge category are
// resolved outward and inward from a root vertex.
type EdgeResolveDepths struct {
	Outgoing int
	Incoming int
}

// GraphResolveDepths names, for each of the six edge categories a
// traversal may cross, how many hops to resolve. Zero means "don't
// traverse this category at all".
type GraphResolveDepths struct {
	EntityToEntity           EdgeResolveDepths
	EntityToEntityType        EdgeResolveDepths
	EntityTypeToEntityType    EdgeResolveDepths
	EntityTypeToPropertyType  EdgeResolveDepths
	PropertyTypeToPropertyType EdgeResolveDepths
	PropertyTypeToDataType     EdgeResolveDepths
}

// IsZero reports whether every category's depth is zero, i.e. the
// traversal resolves no edges at all beyond the roots.
func (d GraphResolveDepths) IsZero() bool {
	return d == GraphResolveDepths{}
}

// Subgraph is the traversal result: a vertex set, an edge set, and the
// depths that were used to produce it. It is a value object owned by a
// single query; nothing about it is shared across concurrent queries.
type Subgraph struct {
	Vertices *Vertices
	Edges    *Edges
	Depths   GraphResolveDepths
}

// NewSubgraph returns an empty Subgraph configured with the given
// resolve depths.
func NewSubgraph(depths GraphResolveDepths) *Subgraph {
	return &Subgraph{
		Vertices: NewVertices(),
		Edges:    NewEdges(),
		Depths:   depths,
	}
}

// SortFrontier orders a same-depth batch of (kind, baseId, revisionId)
// triples for deterministic BFS visitation, per the tie-break spec.md
// §4.5 calls for. keyFn extracts the comparable sort key from each item.
func SortFrontier[T any](items []T, keyFn func(T) string) {
	sort.Slice(items, func(i, j int) bool {
		return keyFn(items[i]) < keyFn(items[j])
	})
}
