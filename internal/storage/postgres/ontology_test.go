package postgres

import (
	"errors"
	"testing"

	"github.com/coregraph/typegraph/internal/ident"
	"github.com/coregraph/typegraph/internal/ontology"
	"github.com/coregraph/typegraph/internal/storage"
)

func ownedBy(web ident.WebId) ident.Ownership {
	return ident.Ownership{Owned: &web}
}

func TestStore_CreateDataType(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx, cancel := testContext(t)
	defer cancel()

	base := mustBaseURL(t, "https://example.com/types/data-type/text/")
	meta, err := s.CreateType(ctx, storage.CreateTypeParams{
		Kind:     storage.DataTypeKind,
		DataType: textDataType(base),
		Owner:    ownedBy(ident.NewWebId()),
		ActorID:  testActor(),
	})
	if err != nil {
		t.Fatalf("CreateType failed: %v", err)
	}
	if meta.RecordID != versioned(base, 1) {
		t.Errorf("RecordID = %v, want %v", meta.RecordID, versioned(base, 1))
	}
}

func TestStore_CreateType_DuplicateVersionConflicts(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx, cancel := testContext(t)
	defer cancel()

	base := mustBaseURL(t, "https://example.com/types/data-type/text/")
	params := storage.CreateTypeParams{
		Kind:     storage.DataTypeKind,
		DataType: textDataType(base),
		Owner:    ownedBy(ident.NewWebId()),
		ActorID:  testActor(),
	}
	if _, err := s.CreateType(ctx, params); err != nil {
		t.Fatalf("first CreateType failed: %v", err)
	}
	if _, err := s.CreateType(ctx, params); !errors.Is(err, storage.ErrBaseUrlAlreadyExists) {
		t.Errorf("second CreateType error = %v, want ErrBaseUrlAlreadyExists", err)
	}
}

func TestStore_UpdateType_BumpsVersion(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx, cancel := testContext(t)
	defer cancel()

	base := mustBaseURL(t, "https://example.com/types/data-type/text/")
	dt := textDataType(base)
	if _, err := s.CreateType(ctx, storage.CreateTypeParams{
		Kind: storage.DataTypeKind, DataType: dt, Owner: ownedBy(ident.NewWebId()), ActorID: testActor(),
	}); err != nil {
		t.Fatalf("CreateType failed: %v", err)
	}

	next := *dt
	next.Description = "An updated plain string"
	meta, err := s.UpdateType(ctx, storage.UpdateTypeParams{
		Kind: storage.DataTypeKind, BaseURL: base, DataType: &next,
		ActorID: testActor(),
	})
	if err != nil {
		t.Fatalf("UpdateType failed: %v", err)
	}
	if meta.RecordID.Version != 2 {
		t.Errorf("updated version = %d, want 2", meta.RecordID.Version)
	}
}

func TestStore_UpdateType_UnknownBaseURLIsReference(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx, cancel := testContext(t)
	defer cancel()

	base := mustBaseURL(t, "https://example.com/types/data-type/ghost/")
	_, err := s.UpdateType(ctx, storage.UpdateTypeParams{
		Kind: storage.DataTypeKind, BaseURL: base, DataType: textDataType(base),
		ActorID: testActor(),
	})
	if !errors.Is(err, storage.ErrReference) {
		t.Errorf("UpdateType error = %v, want ErrReference", err)
	}
}

// propertyTypeReferencingText returns a PropertyType whose sole OneOf
// alternative is a direct reference to the data type at dataTypeID.
func propertyTypeReferencingText(base ident.BaseUrl, dataTypeID ident.VersionedUrl) *ontology.PropertyType {
	return &ontology.PropertyType{
		ID:    versioned(base, 1),
		Title: "Name",
		OneOf: []ontology.PropertyValues{{DataTypeRef: &ontology.DataTypeReference{URL: dataTypeID}}},
	}
}

func TestStore_ArchiveType_RefusesWithLiveReferences(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx, cancel := testContext(t)
	defer cancel()
	actor := testActor()

	dtBase := mustBaseURL(t, "https://example.com/types/data-type/text/")
	dt := textDataType(dtBase)
	if _, err := s.CreateType(ctx, storage.CreateTypeParams{
		Kind: storage.DataTypeKind, DataType: dt, Owner: ownedBy(ident.NewWebId()), ActorID: actor,
	}); err != nil {
		t.Fatalf("CreateType(data type) failed: %v", err)
	}

	ptBase := mustBaseURL(t, "https://example.com/types/property-type/name/")
	pt := propertyTypeReferencingText(ptBase, dt.ID)
	if _, err := s.CreateType(ctx, storage.CreateTypeParams{
		Kind: storage.PropertyTypeKind, PropertyType: pt, Owner: ownedBy(ident.NewWebId()), ActorID: actor,
	}); err != nil {
		t.Fatalf("CreateType(property type) failed: %v", err)
	}

	if err := s.ArchiveType(ctx, dt.ID, actor, false); !errors.Is(err, storage.ErrLiveReferencesExist) {
		t.Fatalf("ArchiveType error = %v, want ErrLiveReferencesExist", err)
	}

	if err := s.ArchiveType(ctx, dt.ID, actor, true); err != nil {
		t.Fatalf("cascading ArchiveType failed: %v", err)
	}
}

func TestStore_ArchiveType_UnknownIDIsReference(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx, cancel := testContext(t)
	defer cancel()

	ghost := versioned(mustBaseURL(t, "https://example.com/types/data-type/ghost/"), 1)
	if err := s.ArchiveType(ctx, ghost, testActor(), false); !errors.Is(err, storage.ErrReference) {
		t.Errorf("ArchiveType error = %v, want ErrReference", err)
	}
}
