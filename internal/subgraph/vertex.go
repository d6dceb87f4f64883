// Package subgraph implements the traversal result container: vertices
// (ontology types and entities), edges between them as adjacency lists,
// and the resolve-depth configuration that bounds traversal.
package subgraph

import (
	"github.com/coregraph/typegraph/internal/ident"
	"github.com/coregraph/typegraph/internal/temporal"
)

// OntologyTypeVertexId identifies one edition of an ontology type: its
// type family (BaseUrl) and the edition's version within that family.
type OntologyTypeVertexId struct {
	BaseID     ident.BaseUrl
	RevisionID ident.OntologyTypeVersion
}

// FromVersionedURL derives an OntologyTypeVertexId from a VersionedUrl.
func FromVersionedURL(url ident.VersionedUrl) OntologyTypeVertexId {
	return OntologyTypeVertexId{BaseID: url.BaseURL, RevisionID: url.Version}
}

// EntityVertexId identifies one edition of an entity: its canonical
// identity (EntityId) and the point on the query's chosen temporal axis
// (decision or transaction time) at which this edition was current.
type EntityVertexId struct {
	BaseID     ident.EntityId
	RevisionID temporal.Timestamp[temporal.VariableAxis]
}
