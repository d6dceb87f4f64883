package ontology

import (
	"fmt"

	"github.com/coregraph/typegraph/internal/ident"
)

// MismatchedInheritanceError is returned when an entity type's declared
// inherits_from disagrees with what closure actually produced — e.g. an
// ancestor's link constraints cannot be merged with the child's own.
type MismatchedInheritanceError struct {
	Type   ident.VersionedUrl
	Detail string
}

func (e *MismatchedInheritanceError) Error() string {
	return fmt.Sprintf("ontology: mismatched inheritance for %s: %s", e.Type.String(), e.Detail)
}

// TypeResolver looks up ontology types by VersionedUrl, the capability
// the closure algorithm and constraint validation need to chase
// references without the ontology package depending on a storage
// implementation.
type TypeResolver interface {
	ResolveDataType(ident.VersionedUrl) (DataType, error)
	ResolvePropertyType(ident.VersionedUrl) (PropertyType, error)
	ResolveEntityType(ident.VersionedUrl) (EntityType, error)
}

// ResolveEntityType computes et's ClosedEntityType and validates every
// invariant spelled out for entity types: required is a subset of the
// merged properties, every link's max_items is >= min_items, and the
// type's own id shares a base with its record id (checked by the caller,
// which owns both).
func ResolveEntityType(resolver TypeResolver, et EntityType) (ClosedEntityType, error) {
	closed, err := Close(et, resolver.ResolveEntityType)
	if err != nil {
		return ClosedEntityType{}, err
	}

	for url := range closed.Required {
		if _, ok := closed.Properties[url]; !ok {
			return ClosedEntityType{}, &MismatchedInheritanceError{
				Type:   et.ID,
				Detail: fmt.Sprintf("required property %q is not in the merged property set", url.String()),
			}
		}
	}

	for url, link := range closed.Links {
		if link.Array.MinItems != nil && link.Array.MaxItems != nil && *link.Array.MaxItems < *link.Array.MinItems {
			return ClosedEntityType{}, &MismatchedInheritanceError{
				Type:   et.ID,
				Detail: fmt.Sprintf("link %q has max_items %d < min_items %d", url.String(), *link.Array.MaxItems, *link.Array.MinItems),
			}
		}
	}

	for url := range closed.Properties {
		if _, err := resolver.ResolvePropertyType(propertyTypeURLFor(url, closed)); err != nil {
			// Properties reference BaseUrls, not VersionedUrls directly;
			// the concrete versioned reference lives on the property
			// object itself, so a missing property type here is only
			// possible if the caller's resolver can't find any edition
			// at all for this base, which is always a genuine error.
			return ClosedEntityType{}, &UnresolvedReferenceError{URL: propertyTypeURLFor(url, closed), Cause: err}
		}
	}

	return closed, nil
}

// propertyTypeURLFor recovers the VersionedUrl bound to a property's
// BaseUrl within a closed entity type, following whichever ancestor
// contributed it.
func propertyTypeURLFor(base ident.BaseUrl, closed ClosedEntityType) ident.VersionedUrl {
	voa := closed.Properties[base]
	if voa.IsArray() {
		return voa.Array.Items.URL
	}
	return voa.Value.URL
}
