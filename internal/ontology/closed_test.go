package ontology

import (
	"testing"

	"github.com/coregraph/typegraph/internal/ident"
)

func mustBaseURL(t *testing.T, s string) ident.BaseUrl {
	t.Helper()
	b, err := ident.ParseBaseUrl(s)
	if err != nil {
		t.Fatalf("ParseBaseUrl(%q): %v", s, err)
	}
	return b
}

func mustVersionedURL(t *testing.T, base string, version uint32) ident.VersionedUrl {
	t.Helper()
	return ident.VersionedUrl{BaseURL: mustBaseURL(t, base), Version: ident.OntologyTypeVersion(version)}
}

func TestCloseMergesPropertiesFromAncestor(t *testing.T) {
	parentURL := mustVersionedURL(t, "https://example.com/types/entity-type/parent/", 1)
	childURL := mustVersionedURL(t, "https://example.com/types/entity-type/child/", 1)
	nameProp := mustBaseURL(t, "https://example.com/types/property-type/name/")
	ageProp := mustBaseURL(t, "https://example.com/types/property-type/age/")

	parent := EntityType{
		ID:         parentURL,
		Title:      "Parent",
		Properties: map[ident.BaseUrl]ValueOrArray[PropertyTypeReference]{
			nameProp: {Value: &PropertyTypeReference{URL: mustVersionedURL(t, "https://example.com/types/property-type/name/", 1)}},
		},
		Required: map[ident.BaseUrl]struct{}{nameProp: {}},
	}

	child := EntityType{
		ID:    childURL,
		Title: "Child",
		Properties: map[ident.BaseUrl]ValueOrArray[PropertyTypeReference]{
			ageProp: {Value: &PropertyTypeReference{URL: mustVersionedURL(t, "https://example.com/types/property-type/age/", 1)}},
		},
		InheritsFrom: []EntityTypeReference{{URL: parentURL}},
	}

	resolve := func(u ident.VersionedUrl) (EntityType, error) {
		if u == parentURL {
			return parent, nil
		}
		t.Fatalf("unexpected resolve(%s)", u.String())
		return EntityType{}, nil
	}

	closed, err := Close(child, resolve)
	if err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, ok := closed.Properties[nameProp]; !ok {
		t.Error("expected merged properties to include the parent's name property")
	}
	if _, ok := closed.Properties[ageProp]; !ok {
		t.Error("expected merged properties to include the child's own age property")
	}
	if _, ok := closed.Required[nameProp]; !ok {
		t.Error("expected required set to include the parent's required name property")
	}
	if _, ok := closed.Schemas[parentURL]; !ok {
		t.Error("expected schemas to retain the parent's record")
	}
	if _, stillPending := closed.InheritsFrom[parentURL]; stillPending {
		t.Error("expected parent to be pruned from inherits_from once folded into schemas")
	}
}

func TestMergeLinksTakesMaxOfMinAndMinOfMax(t *testing.T) {
	linkURL := mustVersionedURL(t, "https://example.com/types/entity-type/friend-of/", 1)
	destA := EntityTypeReference{URL: mustVersionedURL(t, "https://example.com/types/entity-type/person/", 1)}
	destB := EntityTypeReference{URL: mustVersionedURL(t, "https://example.com/types/entity-type/organization/", 1)}

	min2, max5 := 2, 5
	min1, max3 := 1, 3

	c := newClosedEntityType()
	c.mergeLinks(Links{
		linkURL: {
			Array: Array[OneOf[EntityTypeReference]]{
				Items:    OneOf[EntityTypeReference]{Possibilities: []EntityTypeReference{destA, destB}},
				MinItems: &min2,
				MaxItems: &max5,
			},
		},
	})
	c.mergeLinks(Links{
		linkURL: {
			Array: Array[OneOf[EntityTypeReference]]{
				Items:    OneOf[EntityTypeReference]{Possibilities: []EntityTypeReference{destA}},
				MinItems: &min1,
				MaxItems: &max3,
			},
		},
	})

	got := c.Links[linkURL]
	if *got.Array.MinItems != 2 {
		t.Errorf("min_items = %d, want 2 (max of contributions)", *got.Array.MinItems)
	}
	if *got.Array.MaxItems != 3 {
		t.Errorf("max_items = %d, want 3 (min of contributions)", *got.Array.MaxItems)
	}
	if len(got.Array.Items.Possibilities) != 1 || got.Array.Items.Possibilities[0].URL != destA.URL {
		t.Errorf("expected destination possibilities to be intersected down to just destA, got %+v", got.Array.Items.Possibilities)
	}
}

func TestMergeLinksOrFlagIsOrd(t *testing.T) {
	linkURL := mustVersionedURL(t, "https://example.com/types/entity-type/friend-of/", 1)

	c := newClosedEntityType()
	c.mergeLinks(Links{linkURL: {Ordered: false}})
	c.mergeLinks(Links{linkURL: {Ordered: true}})

	if !c.Links[linkURL].Ordered {
		t.Error("expected ordered flag to be OR'd across contributions")
	}
}

func TestAmbiguousPropertyRejectsConflictingDefinitions(t *testing.T) {
	parentURL := mustVersionedURL(t, "https://example.com/types/entity-type/parent/", 1)
	otherURL := mustVersionedURL(t, "https://example.com/types/entity-type/other/", 1)
	childURL := mustVersionedURL(t, "https://example.com/types/entity-type/child/", 1)
	prop := mustBaseURL(t, "https://example.com/types/property-type/shared/")

	parent := EntityType{
		ID: parentURL,
		Properties: map[ident.BaseUrl]ValueOrArray[PropertyTypeReference]{
			prop: {Value: &PropertyTypeReference{URL: mustVersionedURL(t, "https://example.com/types/property-type/shared/", 1)}},
		},
	}
	other := EntityType{
		ID: otherURL,
		Properties: map[ident.BaseUrl]ValueOrArray[PropertyTypeReference]{
			prop: {Value: &PropertyTypeReference{URL: mustVersionedURL(t, "https://example.com/types/property-type/shared/", 2)}},
		},
	}
	child := EntityType{
		ID:           childURL,
		InheritsFrom: []EntityTypeReference{{URL: parentURL}, {URL: otherURL}},
	}

	resolve := func(u ident.VersionedUrl) (EntityType, error) {
		switch u {
		case parentURL:
			return parent, nil
		case otherURL:
			return other, nil
		}
		t.Fatalf("unexpected resolve(%s)", u.String())
		return EntityType{}, nil
	}

	_, err := Close(child, resolve)
	if err == nil {
		t.Fatal("expected AmbiguousPropertyError for conflicting property definitions")
	}
	if _, ok := err.(*AmbiguousPropertyError); !ok {
		t.Errorf("expected *AmbiguousPropertyError, got %T: %v", err, err)
	}
}
