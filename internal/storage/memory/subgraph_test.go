package memory

import (
	"context"
	"testing"

	"github.com/coregraph/typegraph/internal/entity"
	"github.com/coregraph/typegraph/internal/graphquery"
	"github.com/coregraph/typegraph/internal/ident"
	"github.com/coregraph/typegraph/internal/ontology"
	"github.com/coregraph/typegraph/internal/storage"
	"github.com/coregraph/typegraph/internal/subgraph"
)

// chainedOntology builds a three-link ontology chain (entity type ->
// property type -> data type) and returns their VersionedUrls.
func chainedOntology(t *testing.T, s *Store) (dataTypeID, propertyTypeID, entityTypeID ident.VersionedUrl) {
	t.Helper()
	ctx := context.Background()
	actor := testActor()

	dt := textDataType(mustBaseURL(t, "https://example.com/types/data-type/text/"))
	if _, err := s.CreateType(ctx, storage.CreateTypeParams{Kind: storage.DataTypeKind, DataType: dt, ActorID: actor}); err != nil {
		t.Fatalf("CreateType(data type) failed: %v", err)
	}

	pt := propertyTypeReferencingText(mustBaseURL(t, "https://example.com/types/property-type/name/"), dt.ID)
	if _, err := s.CreateType(ctx, storage.CreateTypeParams{Kind: storage.PropertyTypeKind, PropertyType: pt, ActorID: actor}); err != nil {
		t.Fatalf("CreateType(property type) failed: %v", err)
	}

	propBase := mustBaseURL(t, "https://example.com/properties/name/")
	et := &ontology.EntityType{
		ID:         versioned(mustBaseURL(t, "https://example.com/types/entity-type/person/"), 1),
		Title:      "Person",
		Properties: map[ident.BaseUrl]ontology.ValueOrArray[ontology.PropertyTypeReference]{propBase: {Value: &ontology.PropertyTypeReference{URL: pt.ID}}},
	}
	if _, err := s.CreateType(ctx, storage.CreateTypeParams{Kind: storage.EntityTypeKind, EntityType: et, ActorID: actor}); err != nil {
		t.Fatalf("CreateType(entity type) failed: %v", err)
	}

	return dt.ID, pt.ID, et.ID
}

func dataTypeRootQuery(base ident.BaseUrl) storage.StructuralQuery {
	return storage.StructuralQuery{
		RecordType: graphquery.RecordDataType,
		Filter: graphquery.Equal{
			LHS: graphquery.PathExpression{Path: graphquery.DataTypeBaseUrl()},
			RHS: graphquery.ParameterExpression{Parameter: graphquery.TextParam(base.String())},
		},
	}
}

func TestGetSubgraph_OutgoingWalksPropertyChain(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, propertyTypeID, entityTypeID := chainedOntology(t, s)

	sg, err := s.GetSubgraph(ctx, storage.StructuralQuery{
		RecordType: graphquery.RecordEntityType,
		Filter: graphquery.Equal{
			LHS: graphquery.PathExpression{Path: graphquery.EntityTypeBaseUrl()},
			RHS: graphquery.ParameterExpression{Parameter: graphquery.TextParam(entityTypeID.BaseURL.String())},
		},
	}, subgraph.GraphResolveDepths{
		EntityTypeToPropertyType: subgraph.EdgeResolveDepths{Outgoing: 1},
		PropertyTypeToDataType:   subgraph.EdgeResolveDepths{Outgoing: 1},
	})
	if err != nil {
		t.Fatalf("GetSubgraph failed: %v", err)
	}

	if _, ok := sg.Vertices.Ontology[propertyTypeID.BaseURL][propertyTypeID.Version]; !ok {
		t.Error("property type vertex missing from outgoing expansion")
	}
}

func TestGetSubgraph_IncomingWalksPropertyChainInReverse(t *testing.T) {
	ctx := context.Background()
	s := New()
	dataTypeID, propertyTypeID, entityTypeID := chainedOntology(t, s)

	sg, err := s.GetSubgraph(ctx, dataTypeRootQuery(dataTypeID.BaseURL), subgraph.GraphResolveDepths{
		PropertyTypeToDataType:   subgraph.EdgeResolveDepths{Incoming: 1},
		EntityTypeToPropertyType: subgraph.EdgeResolveDepths{Incoming: 1},
	})
	if err != nil {
		t.Fatalf("GetSubgraph failed: %v", err)
	}

	if _, ok := sg.Vertices.Ontology[propertyTypeID.BaseURL][propertyTypeID.Version]; !ok {
		t.Error("incoming expansion from the data type did not surface the referencing property type")
	}
	if _, ok := sg.Vertices.Ontology[entityTypeID.BaseURL][entityTypeID.Version]; !ok {
		t.Error("incoming expansion did not reach the entity type two hops back")
	}
}

func TestGetSubgraph_ConstrainsLinksAndDestinations(t *testing.T) {
	ctx := context.Background()
	s := New()
	actor := testActor()

	destBase := mustBaseURL(t, "https://example.com/types/entity-type/person/")
	dest := &ontology.EntityType{ID: versioned(destBase, 1), Title: "Person"}
	if _, err := s.CreateType(ctx, storage.CreateTypeParams{Kind: storage.EntityTypeKind, EntityType: dest, ActorID: actor}); err != nil {
		t.Fatalf("CreateType(dest) failed: %v", err)
	}

	linkBase := mustBaseURL(t, "https://example.com/types/entity-type/friend-of/")
	link := &ontology.EntityType{ID: versioned(linkBase, 1), Title: "FriendOf"}
	if _, err := s.CreateType(ctx, storage.CreateTypeParams{Kind: storage.EntityTypeKind, EntityType: link, ActorID: actor}); err != nil {
		t.Fatalf("CreateType(link) failed: %v", err)
	}

	sourceBase := mustBaseURL(t, "https://example.com/types/entity-type/socialite/")
	source := &ontology.EntityType{
		ID:    versioned(sourceBase, 1),
		Title: "Socialite",
		Links: ontology.Links{
			link.ID: {Array: ontology.Array[ontology.OneOf[ontology.EntityTypeReference]]{
				Items: ontology.OneOf[ontology.EntityTypeReference]{Possibilities: []ontology.EntityTypeReference{{URL: dest.ID}}},
			}},
		},
	}
	if _, err := s.CreateType(ctx, storage.CreateTypeParams{Kind: storage.EntityTypeKind, EntityType: source, ActorID: actor}); err != nil {
		t.Fatalf("CreateType(source) failed: %v", err)
	}

	sg, err := s.GetSubgraph(ctx, storage.StructuralQuery{
		RecordType: graphquery.RecordEntityType,
		Filter: graphquery.Equal{
			LHS: graphquery.PathExpression{Path: graphquery.EntityTypeBaseUrl()},
			RHS: graphquery.ParameterExpression{Parameter: graphquery.TextParam(sourceBase.String())},
		},
	}, subgraph.GraphResolveDepths{
		EntityTypeToEntityType: subgraph.EdgeResolveDepths{Outgoing: 2},
	})
	if err != nil {
		t.Fatalf("GetSubgraph failed: %v", err)
	}

	if _, ok := sg.Vertices.Ontology[link.ID.BaseURL][link.ID.Version]; !ok {
		t.Error("ConstrainsLinksOn did not surface the link entity type")
	}
	if _, ok := sg.Vertices.Ontology[dest.ID.BaseURL][dest.ID.Version]; !ok {
		t.Error("ConstrainsLinkDestinationsOn did not surface the destination entity type")
	}
}

func createPerson(t *testing.T, s *Store, personTypeID ident.VersionedUrl) entity.Entity {
	t.Helper()
	e, err := s.CreateEntity(context.Background(), entity.CreateParams{
		EntityTypeIDs: []ident.VersionedUrl{personTypeID},
		ActorID:       testActor(),
	})
	if err != nil {
		t.Fatalf("CreateEntity failed: %v", err)
	}
	return e
}

func entityRootQuery(uuid ident.EntityUuid) storage.StructuralQuery {
	return storage.StructuralQuery{
		RecordType: graphquery.RecordEntity,
		Filter: graphquery.Equal{
			LHS: graphquery.PathExpression{Path: graphquery.EntityUuid()},
			RHS: graphquery.ParameterExpression{Parameter: graphquery.TextParam(uuid.String())},
		},
	}
}

func TestGetSubgraph_EntityToEntityBothEndpointsBothDirections(t *testing.T) {
	ctx := context.Background()
	s := New()
	personTypeID := setupPersonType(t, s)
	actor := testActor()

	left := createPerson(t, s, personTypeID)
	right := createPerson(t, s, personTypeID)
	link, err := s.CreateEntity(ctx, entity.CreateParams{
		EntityTypeIDs: []ident.VersionedUrl{personTypeID},
		LinkData:      &entity.LinkData{LeftEntityID: left.ID.EntityID, RightEntityID: right.ID.EntityID},
		ActorID:       actor,
	})
	if err != nil {
		t.Fatalf("CreateEntity(link) failed: %v", err)
	}

	// Outgoing from the link entity reaches both endpoints.
	sg, err := s.GetSubgraph(ctx, entityRootQuery(link.ID.EntityID.EntityUUID), subgraph.GraphResolveDepths{
		EntityToEntity: subgraph.EdgeResolveDepths{Outgoing: 1},
	})
	if err != nil {
		t.Fatalf("GetSubgraph(outgoing) failed: %v", err)
	}
	if _, ok := sg.Vertices.Knowledge[left.ID.EntityID]; !ok {
		t.Error("outgoing expansion from the link entity did not reach its left endpoint")
	}
	if _, ok := sg.Vertices.Knowledge[right.ID.EntityID]; !ok {
		t.Error("outgoing expansion from the link entity did not reach its right endpoint")
	}

	// Incoming from either endpoint reaches the link entity back.
	sg, err = s.GetSubgraph(ctx, entityRootQuery(right.ID.EntityID.EntityUUID), subgraph.GraphResolveDepths{
		EntityToEntity: subgraph.EdgeResolveDepths{Incoming: 1},
	})
	if err != nil {
		t.Fatalf("GetSubgraph(incoming) failed: %v", err)
	}
	if _, ok := sg.Vertices.Knowledge[link.ID.EntityID]; !ok {
		t.Error("incoming expansion from the right endpoint did not reach the link entity")
	}
}

func TestGetSubgraph_EntityToEntityTypeIncomingFindsEntitiesOfType(t *testing.T) {
	ctx := context.Background()
	s := New()
	personTypeID := setupPersonType(t, s)
	person := createPerson(t, s, personTypeID)

	sg, err := s.GetSubgraph(ctx, storage.StructuralQuery{
		RecordType: graphquery.RecordEntityType,
		Filter: graphquery.Equal{
			LHS: graphquery.PathExpression{Path: graphquery.EntityTypeBaseUrl()},
			RHS: graphquery.ParameterExpression{Parameter: graphquery.TextParam(personTypeID.BaseURL.String())},
		},
	}, subgraph.GraphResolveDepths{
		EntityToEntityType: subgraph.EdgeResolveDepths{Incoming: 1},
	})
	if err != nil {
		t.Fatalf("GetSubgraph failed: %v", err)
	}

	if _, ok := sg.Vertices.Knowledge[person.ID.EntityID]; !ok {
		t.Error("EntityToEntityType.Incoming from a type did not surface an entity of that type")
	}
}
