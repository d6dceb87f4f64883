package ontology

import "github.com/coregraph/typegraph/internal/ident"

// PropertyTypeReference names a PropertyType by its versioned URL.
type PropertyTypeReference struct {
	URL ident.VersionedUrl
}

// OneOf holds a non-empty set of alternative possibilities, mirroring the
// original schema's OneOf<T> combinator: a value must match exactly one.
type OneOf[T any] struct {
	Possibilities []T
}

// Array wraps an item schema with optional min/max item-count bounds. It
// is the shared shape behind both PropertyValues arrays and entity-type
// link destination arrays.
type Array[T any] struct {
	Items    T
	MinItems *int
	MaxItems *int
}

// ValueOrArray holds either a bare value or an Array of it, matching the
// schema's ValueOrArray<T> combinator used for property and link
// destinations that may be singular or plural.
type ValueOrArray[T any] struct {
	Value *T
	Array *Array[T]
}

// IsArray reports whether this slot holds an array rather than a single
// value.
func (v ValueOrArray[T]) IsArray() bool { return v.Array != nil }

// PropertyValues is the body of a PropertyType: either a reference to a
// DataType, a nested object of further property references, or an array
// of property values.
type PropertyValues struct {
	DataTypeRef *DataTypeReference
	Object      map[ident.BaseUrl]ValueOrArray[PropertyTypeReference]
	ArrayOf     *PropertyValues
}

// PropertyType is a reusable, composable property specification.
type PropertyType struct {
	ID          ident.VersionedUrl
	Title       string
	Description string
	OneOf       []PropertyValues
}
