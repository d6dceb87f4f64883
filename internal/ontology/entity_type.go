package ontology

import "github.com/coregraph/typegraph/internal/ident"

// EntityTypeReference names an EntityType by its versioned URL, used both
// for inherits_from and for link destination possibilities.
type EntityTypeReference struct {
	URL ident.VersionedUrl
}

// MaybeOrderedArray pairs an Array with whether its items are
// order-significant, as link destination arrays carry an "ordered" flag
// the property arrays don't.
type MaybeOrderedArray[T any] struct {
	Array   Array[T]
	Ordered bool
}

// Links maps a link entity type's VersionedUrl to the destinations it
// permits. An empty Possibilities list (zero value of OneOf) means "any
// entity type" is permitted as destination.
type Links map[ident.VersionedUrl]MaybeOrderedArray[OneOf[EntityTypeReference]]

// EntityType is a typed record shape: the properties an entity of this
// type may carry, which of them are required, the links it may hold, and
// the parent types it inherits from.
type EntityType struct {
	ID          ident.VersionedUrl
	Title       string
	Description string
	Properties  map[ident.BaseUrl]ValueOrArray[PropertyTypeReference]
	Required    map[ident.BaseUrl]struct{}
	Links       Links
	InheritsFrom []EntityTypeReference
}

// IsLinkType reports whether this entity type may itself describe a link
// between two entities, i.e. it (or an ancestor folded into it) carries
// link destinations of its own. Mirrors the schema convention that link
// entity types are entity types referenced as Links map keys elsewhere.
func (et EntityType) IsLinkType() bool {
	return len(et.Links) > 0
}
