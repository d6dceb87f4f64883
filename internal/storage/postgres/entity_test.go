package postgres

import (
	"errors"
	"testing"

	"github.com/coregraph/typegraph/internal/entity"
	"github.com/coregraph/typegraph/internal/ident"
	"github.com/coregraph/typegraph/internal/ontology"
	"github.com/coregraph/typegraph/internal/storage"
)

// personEntityType returns a bare entity type with no required
// properties, enough for CreateEntity to validate against trivially.
func personEntityType(base ident.BaseUrl) *ontology.EntityType {
	return &ontology.EntityType{
		ID:    versioned(base, 1),
		Title: "Person",
	}
}

func setupPersonType(t *testing.T, s *Store) ident.VersionedUrl {
	t.Helper()
	ctx, cancel := testContext(t)
	defer cancel()

	base := mustBaseURL(t, "https://example.com/types/entity-type/person/")
	et := personEntityType(base)
	if _, err := s.CreateType(ctx, storage.CreateTypeParams{
		Kind:       storage.EntityTypeKind,
		EntityType: et,
		Owner:      ownedBy(ident.NewWebId()),
		ActorID:    testActor(),
	}); err != nil {
		t.Fatalf("CreateType(entity type) failed: %v", err)
	}
	return et.ID
}

func TestStore_CreateEntity(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx, cancel := testContext(t)
	defer cancel()
	personTypeID := setupPersonType(t, s)

	web := ident.NewWebId()
	e, err := s.CreateEntity(ctx, entity.CreateParams{
		EntityTypeIDs: []ident.VersionedUrl{personTypeID},
		Properties:    entity.Properties{},
		Owner:         ident.Ownership{Owned: &web},
		ActorID:       testActor(),
	})
	if err != nil {
		t.Fatalf("CreateEntity failed: %v", err)
	}
	if e.ID.EntityID.WebID != web {
		t.Errorf("entity web id = %v, want %v", e.ID.EntityID.WebID, web)
	}
	if len(e.Metadata.EntityTypeIDs) != 1 || e.Metadata.EntityTypeIDs[0] != personTypeID {
		t.Errorf("entity type ids = %v, want [%v]", e.Metadata.EntityTypeIDs, personTypeID)
	}
}

func TestStore_CreateEntity_UnknownEntityTypeIsRejected(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx, cancel := testContext(t)
	defer cancel()

	ghost := versioned(mustBaseURL(t, "https://example.com/types/entity-type/ghost/"), 1)
	_, err := s.CreateEntity(ctx, entity.CreateParams{
		EntityTypeIDs: []ident.VersionedUrl{ghost},
		ActorID:       testActor(),
	})
	if !errors.Is(err, storage.ErrReference) {
		t.Errorf("CreateEntity error = %v, want ErrReference", err)
	}
}

func TestStore_CreateEntity_LinkRequiresExistingEndpoints(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx, cancel := testContext(t)
	defer cancel()
	personTypeID := setupPersonType(t, s)
	actor := testActor()

	left, err := s.CreateEntity(ctx, entity.CreateParams{EntityTypeIDs: []ident.VersionedUrl{personTypeID}, ActorID: actor})
	if err != nil {
		t.Fatalf("CreateEntity(left) failed: %v", err)
	}

	ghost := ident.EntityId{WebID: ident.NewWebId(), EntityUUID: ident.NewEntityUuid()}
	_, err = s.CreateEntity(ctx, entity.CreateParams{
		EntityTypeIDs: []ident.VersionedUrl{personTypeID},
		LinkData:      &entity.LinkData{LeftEntityID: left.ID.EntityID, RightEntityID: ghost},
		ActorID:       actor,
	})
	if err == nil {
		t.Fatal("CreateEntity with a nonexistent right endpoint unexpectedly succeeded")
	}

	right, err := s.CreateEntity(ctx, entity.CreateParams{EntityTypeIDs: []ident.VersionedUrl{personTypeID}, ActorID: actor})
	if err != nil {
		t.Fatalf("CreateEntity(right) failed: %v", err)
	}

	link, err := s.CreateEntity(ctx, entity.CreateParams{
		EntityTypeIDs: []ident.VersionedUrl{personTypeID},
		LinkData:      &entity.LinkData{LeftEntityID: left.ID.EntityID, RightEntityID: right.ID.EntityID},
		ActorID:       actor,
	})
	if err != nil {
		t.Fatalf("CreateEntity(link) failed: %v", err)
	}
	if link.LinkData == nil || link.LinkData.LeftEntityID != left.ID.EntityID || link.LinkData.RightEntityID != right.ID.EntityID {
		t.Errorf("link data = %+v, want left %v right %v", link.LinkData, left.ID.EntityID, right.ID.EntityID)
	}
}

func TestStore_UpdateEntity_AppendsEdition(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx, cancel := testContext(t)
	defer cancel()
	personTypeID := setupPersonType(t, s)
	actor := testActor()

	e, err := s.CreateEntity(ctx, entity.CreateParams{EntityTypeIDs: []ident.VersionedUrl{personTypeID}, ActorID: actor})
	if err != nil {
		t.Fatalf("CreateEntity failed: %v", err)
	}

	updated, err := s.UpdateEntity(ctx, e.ID.EntityID, entity.Properties{}, actor, ident.ProvidedEditionProvenance{})
	if err != nil {
		t.Fatalf("UpdateEntity failed: %v", err)
	}
	if updated.ID.EditionID == e.ID.EditionID {
		t.Error("UpdateEntity returned the same edition id as the original")
	}

	current, err := s.currentEdition(ctx, e.ID.EntityID)
	if err != nil {
		t.Fatalf("currentEdition failed: %v", err)
	}
	if current.ID.EditionID != updated.ID.EditionID {
		t.Errorf("current edition = %v, want %v", current.ID.EditionID, updated.ID.EditionID)
	}
}

func TestStore_ArchiveEntity(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx, cancel := testContext(t)
	defer cancel()
	personTypeID := setupPersonType(t, s)
	actor := testActor()

	e, err := s.CreateEntity(ctx, entity.CreateParams{EntityTypeIDs: []ident.VersionedUrl{personTypeID}, ActorID: actor})
	if err != nil {
		t.Fatalf("CreateEntity failed: %v", err)
	}

	archived, err := s.ArchiveEntity(ctx, e.ID.EntityID, actor)
	if err != nil {
		t.Fatalf("ArchiveEntity failed: %v", err)
	}
	if !archived.Metadata.Archived {
		t.Error("archived entity's Metadata.Archived is false")
	}

	if _, err := s.currentEdition(ctx, e.ID.EntityID); err == nil {
		t.Error("currentEdition found a live edition after archiving")
	}
}

func TestStore_CreateEntity_PersistsProvidedProvenance(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx, cancel := testContext(t)
	defer cancel()
	personTypeID := setupPersonType(t, s)
	actor := testActor()

	provided := ident.ProvidedEditionProvenance{
		ActorType: ident.ActorTypeHuman,
		Origin:    ident.OriginProvenance{Type: ident.OriginWebApp, ID: "req-123"},
		Sources: []ident.SourceProvenance{
			{Type: ident.SourceWebpage, Authors: []string{"jane"}},
		},
	}

	e, err := s.CreateEntity(ctx, entity.CreateParams{
		EntityTypeIDs: []ident.VersionedUrl{personTypeID},
		ActorID:       actor,
		Provided:      provided,
	})
	if err != nil {
		t.Fatalf("CreateEntity failed: %v", err)
	}
	if e.Metadata.EditionProvenance.Provided.ActorType != ident.ActorTypeHuman {
		t.Errorf("create-time Provided.ActorType = %v, want %v", e.Metadata.EditionProvenance.Provided.ActorType, ident.ActorTypeHuman)
	}

	current, err := s.currentEdition(ctx, e.ID.EntityID)
	if err != nil {
		t.Fatalf("currentEdition failed: %v", err)
	}
	got := current.Metadata.EditionProvenance.Provided
	if got.ActorType != provided.ActorType || got.Origin != provided.Origin {
		t.Errorf("restored Provided = %+v, want %+v", got, provided)
	}
	if len(got.Sources) != 1 || got.Sources[0].Type != ident.SourceWebpage {
		t.Errorf("restored Provided.Sources = %+v, want one webpage source", got.Sources)
	}
}

func TestStore_CreateEntity_StampsFirstNonDraftProvenance(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx, cancel := testContext(t)
	defer cancel()
	personTypeID := setupPersonType(t, s)
	actor := testActor()

	e, err := s.CreateEntity(ctx, entity.CreateParams{EntityTypeIDs: []ident.VersionedUrl{personTypeID}, ActorID: actor})
	if err != nil {
		t.Fatalf("CreateEntity failed: %v", err)
	}
	if e.Metadata.Provenance.FirstNonDraftCreatedAtTransactionTime == nil {
		t.Fatal("FirstNonDraftCreatedAtTransactionTime not stamped on a non-draft create")
	}

	current, err := s.currentEdition(ctx, e.ID.EntityID)
	if err != nil {
		t.Fatalf("currentEdition failed: %v", err)
	}
	if current.Metadata.Provenance.FirstNonDraftCreatedAtTransactionTime == nil {
		t.Fatal("FirstNonDraftCreatedAtTransactionTime did not round-trip through storage")
	}

	updated, err := s.UpdateEntity(ctx, e.ID.EntityID, entity.Properties{}, actor, ident.ProvidedEditionProvenance{})
	if err != nil {
		t.Fatalf("UpdateEntity failed: %v", err)
	}
	if updated.Metadata.Provenance.FirstNonDraftCreatedAtTransactionTime == nil {
		t.Error("FirstNonDraftCreatedAtTransactionTime lost across Update")
	}
	if !updated.Metadata.Provenance.FirstNonDraftCreatedAtTransactionTime.Time().Equal(
		current.Metadata.Provenance.FirstNonDraftCreatedAtTransactionTime.Time()) {
		t.Error("FirstNonDraftCreatedAtTransactionTime should carry forward unchanged across Update, not be re-stamped")
	}
}
