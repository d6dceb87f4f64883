package memory

import (
	"context"
	"testing"

	"github.com/coregraph/typegraph/internal/entity"
	"github.com/coregraph/typegraph/internal/ident"
	"github.com/coregraph/typegraph/internal/storage"
)

func TestStore_LastModified_ZeroUntilFirstMutation(t *testing.T) {
	s := New()
	got, err := s.LastModified(context.Background())
	if err != nil {
		t.Fatalf("LastModified failed: %v", err)
	}
	if !got.IsZero() {
		t.Errorf("LastModified on an untouched store = %v, want zero Time", got)
	}
}

func TestStore_LastModified_AdvancesOnEntityMutation(t *testing.T) {
	s := New()
	ctx := context.Background()
	personTypeID := setupPersonType(t, s)

	before, _ := s.LastModified(ctx)

	e, err := s.CreateEntity(ctx, entity.CreateParams{
		EntityTypeIDs: []ident.VersionedUrl{personTypeID},
		ActorID:       testActor(),
	})
	if err != nil {
		t.Fatalf("CreateEntity failed: %v", err)
	}

	afterCreate, err := s.LastModified(ctx)
	if err != nil {
		t.Fatalf("LastModified failed: %v", err)
	}
	if !afterCreate.After(before) {
		t.Errorf("LastModified did not advance after CreateEntity: before=%v after=%v", before, afterCreate)
	}

	if _, err := s.ArchiveEntity(ctx, e.ID.EntityID, testActor()); err != nil {
		t.Fatalf("ArchiveEntity failed: %v", err)
	}
	afterArchive, err := s.LastModified(ctx)
	if err != nil {
		t.Fatalf("LastModified failed: %v", err)
	}
	if afterArchive.Before(afterCreate) {
		t.Errorf("LastModified went backwards after ArchiveEntity: create=%v archive=%v", afterCreate, afterArchive)
	}
}

var _ storage.ChangeFeed = (*Store)(nil)
