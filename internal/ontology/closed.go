package ontology

import (
	"fmt"

	"github.com/coregraph/typegraph/internal/ident"
)

// ClosedEntityTypeSchemaData is the ancestor metadata retained per folded
// VersionedUrl in a ClosedEntityType's Schemas map.
type ClosedEntityTypeSchemaData struct {
	Title       string
	Description string
}

// ClosedEntityType is an EntityType after transitive closure of
// InheritsFrom: every ancestor's properties, required set, and links are
// merged in, and any InheritsFrom entry already folded into Schemas is
// pruned.
type ClosedEntityType struct {
	Schemas      map[ident.VersionedUrl]ClosedEntityTypeSchemaData
	Properties   map[ident.BaseUrl]ValueOrArray[PropertyTypeReference]
	Required     map[ident.BaseUrl]struct{}
	Links        Links
	InheritsFrom map[ident.VersionedUrl]EntityTypeReference
}

// AmbiguousPropertyError is returned when two ancestors disagree on the
// shape bound to the same BaseUrl (last-writer-wins only for identical
// values; a genuine conflict is an error).
type AmbiguousPropertyError struct {
	Property ident.BaseUrl
}

func (e *AmbiguousPropertyError) Error() string {
	return fmt.Sprintf("ontology: ambiguous property %q: conflicting definitions from multiple ancestors", e.Property.String())
}

// FromEntityType seeds a ClosedEntityType from a single EntityType, the
// base case of the closure fold.
func FromEntityType(et EntityType) ClosedEntityType {
	c := newClosedEntityType()
	c.extendOne(et)
	return c
}

func newClosedEntityType() ClosedEntityType {
	return ClosedEntityType{
		Schemas:      make(map[ident.VersionedUrl]ClosedEntityTypeSchemaData),
		Properties:   make(map[ident.BaseUrl]ValueOrArray[PropertyTypeReference]),
		Required:     make(map[ident.BaseUrl]struct{}),
		Links:        make(Links),
		InheritsFrom: make(map[ident.VersionedUrl]EntityTypeReference),
	}
}

// Close resolves the transitive closure of root's InheritsFrom chain by
// repeatedly looking up ancestors through resolve and merging each in,
// breadth-first rather than depth-first. The merge is commutative and
// associative (mergeEntityType only adds missing entries or rejects a
// conflicting one), so traversal order does not affect the result. It
// fails with an *AmbiguousPropertyError if two ancestors bind the same
// property to different shapes, or with an *UnresolvedReferenceError if
// resolve cannot find an ancestor.
func Close(root EntityType, resolve func(ident.VersionedUrl) (EntityType, error)) (ClosedEntityType, error) {
	closed := FromEntityType(root)
	visited := make(map[ident.VersionedUrl]struct{})
	visited[root.ID] = struct{}{}

	queue := make([]EntityTypeReference, len(root.InheritsFrom))
	copy(queue, root.InheritsFrom)

	for len(queue) > 0 {
		ref := queue[0]
		queue = queue[1:]
		if _, seen := visited[ref.URL]; seen {
			continue
		}
		visited[ref.URL] = struct{}{}

		parent, err := resolve(ref.URL)
		if err != nil {
			return ClosedEntityType{}, &UnresolvedReferenceError{URL: ref.URL, Cause: err}
		}
		if err := closed.mergeEntityType(parent); err != nil {
			return ClosedEntityType{}, err
		}
		queue = append(queue, parent.InheritsFrom...)
	}

	closed.pruneFoldedAncestors()
	return closed, nil
}

// mergeEntityType folds one EntityType's contributions into c, matching
// the upstream Extend<EntityType> for ClosedEntityType impl.
func (c *ClosedEntityType) mergeEntityType(other EntityType) error {
	for _, ref := range other.InheritsFrom {
		c.InheritsFrom[ref.URL] = ref
	}
	c.Schemas[other.ID] = ClosedEntityTypeSchemaData{Title: other.Title, Description: other.Description}

	for url, val := range other.Properties {
		if existing, ok := c.Properties[url]; ok {
			if !valueOrArrayEqual(existing, val) {
				return &AmbiguousPropertyError{Property: url}
			}
			continue
		}
		c.Properties[url] = val
	}
	for url := range other.Required {
		c.Required[url] = struct{}{}
	}

	c.mergeLinks(other.Links)
	return nil
}

func (c *ClosedEntityType) extendOne(et EntityType) {
	for _, ref := range et.InheritsFrom {
		c.InheritsFrom[ref.URL] = ref
	}
	c.Schemas[et.ID] = ClosedEntityTypeSchemaData{Title: et.Title, Description: et.Description}
	for url, val := range et.Properties {
		c.Properties[url] = val
	}
	for url := range et.Required {
		c.Required[url] = struct{}{}
	}
	c.mergeLinks(et.Links)
	c.pruneFoldedAncestors()
}

// mergeLinks implements the link-merge rule from the schema's
// FromIterator<Links> impl: ordered is OR'd, min_items takes the max
// across contributions, max_items takes the min, and destination
// possibilities are intersected (first contribution wins if the other
// side carries no destination constraint at all).
func (c *ClosedEntityType) mergeLinks(other Links) {
	for url, incoming := range other {
		existing, ok := c.Links[url]
		if !ok {
			c.Links[url] = incoming
			continue
		}

		existing.Ordered = existing.Ordered || incoming.Ordered

		if incoming.Array.MinItems != nil {
			if existing.Array.MinItems == nil || *incoming.Array.MinItems > *existing.Array.MinItems {
				existing.Array.MinItems = incoming.Array.MinItems
			}
		}
		if incoming.Array.MaxItems != nil {
			if existing.Array.MaxItems == nil || *incoming.Array.MaxItems < *existing.Array.MaxItems {
				existing.Array.MaxItems = incoming.Array.MaxItems
			}
		}

		existing.Array.Items.Possibilities = intersectRefs(existing.Array.Items.Possibilities, incoming.Array.Items.Possibilities)

		c.Links[url] = existing
	}
}

func intersectRefs(existing, incoming []EntityTypeReference) []EntityTypeReference {
	if len(incoming) == 0 {
		return existing
	}
	if len(existing) == 0 {
		return incoming
	}
	allowed := make(map[ident.VersionedUrl]struct{}, len(incoming))
	for _, r := range incoming {
		allowed[r.URL] = struct{}{}
	}
	out := existing[:0:0]
	for _, r := range existing {
		if _, ok := allowed[r.URL]; ok {
			out = append(out, r)
		}
	}
	return out
}

// pruneFoldedAncestors drops any InheritsFrom entry whose VersionedUrl
// already has a Schemas record, matching the upstream retain() call that
// closes out inherits_from once an ancestor is fully folded in.
func (c *ClosedEntityType) pruneFoldedAncestors() {
	for url := range c.InheritsFrom {
		if _, folded := c.Schemas[url]; folded {
			delete(c.InheritsFrom, url)
		}
	}
}

func valueOrArrayEqual(a, b ValueOrArray[PropertyTypeReference]) bool {
	if a.IsArray() != b.IsArray() {
		return false
	}
	if a.IsArray() {
		return a.Array.Items.URL == b.Array.Items.URL
	}
	return a.Value.URL == b.Value.URL
}

// UnresolvedReferenceError is returned when closure cannot find a
// referenced ancestor type.
type UnresolvedReferenceError struct {
	URL   ident.VersionedUrl
	Cause error
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("ontology: unresolved reference to %s: %v", e.URL.String(), e.Cause)
}

func (e *UnresolvedReferenceError) Unwrap() error { return e.Cause }
