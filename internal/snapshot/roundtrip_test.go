package snapshot_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregraph/typegraph/internal/entity"
	"github.com/coregraph/typegraph/internal/ident"
	"github.com/coregraph/typegraph/internal/ontology"
	"github.com/coregraph/typegraph/internal/snapshot"
	"github.com/coregraph/typegraph/internal/storage"
	"github.com/coregraph/typegraph/internal/storage/memory"
	"github.com/coregraph/typegraph/internal/temporal"
)

func liveTxRange(t *testing.T) temporal.Interval[temporal.Timestamp[temporal.TransactionTime]] {
	t.Helper()
	now := temporal.FromTime[temporal.TransactionTime](time.Unix(1_700_000_000, 0))
	iv, err := temporal.LeftClosed[temporal.Timestamp[temporal.TransactionTime]](now, temporal.UnboundedBound[temporal.Timestamp[temporal.TransactionTime]]())
	require.NoError(t, err)
	return iv
}

func liveDecisionRange(t *testing.T) temporal.Interval[temporal.Timestamp[temporal.DecisionTime]] {
	t.Helper()
	now := temporal.FromTime[temporal.DecisionTime](time.Unix(1_700_000_000, 0))
	iv, err := temporal.LeftClosed[temporal.Timestamp[temporal.DecisionTime]](now, temporal.UnboundedBound[temporal.Timestamp[temporal.DecisionTime]]())
	require.NoError(t, err)
	return iv
}

// seedStore populates a fresh in-memory store with one record of every
// snapshot stream kind by staging and committing a RestoreTx directly,
// the same path a real restore takes.
func seedStore(t *testing.T) (*memory.Store, ident.WebId, ident.ActorId, ident.VersionedUrl) {
	t.Helper()
	ctx := context.Background()
	store := memory.New()

	webID := ident.NewWebId()
	actorID := ident.NewActorId(ident.ActorUser, uuid.New())
	meta := storage.OntologyMetadata{
		Ownership:       ident.Ownership{Owned: &webID},
		TransactionTime: liveTxRange(t),
		Provenance:      ident.EditionProvenance{CreatedByID: actorID},
	}

	dataTypeID := ident.VersionedUrl{BaseURL: mustBaseURL(t, "https://example.com/types/data-type/text/"), Version: 1}
	dataType := ontology.DataType{ID: dataTypeID, Title: "Text", Constraints: ontology.ValueConstraints{Kind: ontology.KindString}}

	propTypeID := ident.VersionedUrl{BaseURL: mustBaseURL(t, "https://example.com/types/property-type/name/"), Version: 1}
	propType := ontology.PropertyType{
		ID:    propTypeID,
		Title: "Name",
		OneOf: []ontology.PropertyValues{{DataTypeRef: &ontology.DataTypeReference{URL: dataTypeID}}},
	}

	entityTypeID := ident.VersionedUrl{BaseURL: mustBaseURL(t, "https://example.com/types/entity-type/person/"), Version: 1}
	entityType := ontology.EntityType{
		ID:    entityTypeID,
		Title: "Person",
		Properties: map[ident.BaseUrl]ontology.ValueOrArray[ontology.PropertyTypeReference]{
			propTypeID.BaseURL: {Value: &ontology.PropertyTypeReference{URL: propTypeID}},
		},
	}

	nameValue, err := json.Marshal("Ada Lovelace")
	require.NoError(t, err)

	e := entity.Entity{
		ID: ident.EntityRecordId{
			EntityID:  ident.EntityId{WebID: webID, EntityUUID: ident.NewEntityUuid()},
			EditionID: ident.EntityEditionId(uuid.New()),
		},
		Properties: entity.Properties{propTypeID.BaseURL: nameValue},
		Metadata: entity.Metadata{
			EntityTypeIDs: []ident.VersionedUrl{entityTypeID},
			Temporal: entity.TemporalMetadata{
				DecisionTime:    liveDecisionRange(t),
				TransactionTime: liveTxRange(t),
			},
			Ownership:         ident.Ownership{Owned: &webID},
			EditionProvenance: ident.EditionProvenance{CreatedByID: actorID},
		},
	}

	tx, err := store.BeginRestore(ctx)
	require.NoError(t, err)

	require.NoError(t, tx.WriteDataTypes(ctx, []storage.DataTypeWithMetadata{{Schema: dataType, Metadata: meta}}))
	require.NoError(t, tx.WritePropertyTypes(ctx, []storage.PropertyTypeWithMetadata{{Schema: propType, Metadata: meta}}))
	require.NoError(t, tx.WriteEntityTypes(ctx, []storage.EntityTypeWithMetadata{{Schema: entityType, Metadata: meta}}))
	require.NoError(t, tx.WriteWebs(ctx, []storage.WebRecord{{ID: webID}}))
	require.NoError(t, tx.WriteActors(ctx, []storage.ActorRecord{{ID: actorID}}))
	require.NoError(t, tx.WriteRoles(ctx, []storage.RoleRecord{{WebID: webID, ActorID: actorID, Role: "owner"}}))
	require.NoError(t, tx.WriteEntities(ctx, []entity.Entity{e}))
	require.NoError(t, tx.WritePolicies(ctx, []storage.PolicyRecord{{ID: "allow-all", Document: json.RawMessage(`{"effect":"allow"}`)}}))

	require.NoError(t, tx.Commit(ctx, false))

	return store, webID, actorID, entityTypeID
}

func mustBaseURL(t *testing.T, s string) ident.BaseUrl {
	t.Helper()
	b, err := ident.ParseBaseUrl(s)
	require.NoError(t, err)
	return b
}

// drain collects every value off out, then asserts errc reported
// nothing, the common shape every SnapshotSource stream shares.
func drain[T any](t *testing.T, out <-chan T, errc <-chan error) []T {
	t.Helper()
	var vs []T
	for v := range out {
		vs = append(vs, v)
	}
	require.NoError(t, <-errc)
	return vs
}

// TestDumpRestoreRoundTrip exercises spec.md §8's snapshot round-trip
// property: restoring a dump of one store into a fresh store reproduces
// every record across all eight streams.
func TestDumpRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	src, webID, actorID, entityTypeID := seedStore(t)

	var buf bytes.Buffer
	require.NoError(t, snapshot.Dump(ctx, src, &buf, snapshot.DumpOptions{}))

	lineCount := bytes.Count(buf.Bytes(), []byte("\n"))
	assert.Equal(t, 8, lineCount, "expected exactly one line per seeded record")

	dst := memory.New()
	require.NoError(t, snapshot.Restore(ctx, bytes.NewReader(buf.Bytes()), dst, snapshot.RestoreOptions{}))

	dataTypesOut, dataTypesErr := dst.AllDataTypes(ctx)
	dataTypes := drain(t, dataTypesOut, dataTypesErr)
	require.Len(t, dataTypes, 1)
	assert.Equal(t, "Text", dataTypes[0].Schema.Title)

	propertyTypesOut, propertyTypesErr := dst.AllPropertyTypes(ctx)
	propertyTypes := drain(t, propertyTypesOut, propertyTypesErr)
	require.Len(t, propertyTypes, 1)
	assert.Equal(t, "Name", propertyTypes[0].Schema.Title)

	entityTypesOut, entityTypesErr := dst.AllEntityTypes(ctx)
	entityTypes := drain(t, entityTypesOut, entityTypesErr)
	require.Len(t, entityTypes, 1)
	assert.Equal(t, entityTypeID, entityTypes[0].Schema.ID)

	websOut, websErr := dst.AllWebs(ctx)
	webs := drain(t, websOut, websErr)
	require.Len(t, webs, 1)
	assert.Equal(t, webID, webs[0].ID)

	actorsOut, actorsErr := dst.AllActors(ctx)
	actors := drain(t, actorsOut, actorsErr)
	require.Len(t, actors, 1)
	assert.Equal(t, actorID, actors[0].ID)

	rolesOut, rolesErr := dst.AllRoles(ctx)
	roles := drain(t, rolesOut, rolesErr)
	require.Len(t, roles, 1)
	assert.Equal(t, "owner", roles[0].Role)

	entitiesOut, entitiesErr := dst.AllEntities(ctx)
	entities := drain(t, entitiesOut, entitiesErr)
	require.Len(t, entities, 1)
	assert.Equal(t, webID, entities[0].ID.EntityID.WebID)
	assert.Len(t, entities[0].Properties, 1)

	policiesOut, policiesErr := dst.AllPolicies(ctx)
	policies := drain(t, policiesOut, policiesErr)
	require.Len(t, policies, 1)
	assert.Equal(t, "allow-all", policies[0].ID)
}

// TestDumpRestoreHonorsSkipFlags checks that a --no-X dump flag drops
// exactly that stream and nothing else.
func TestDumpRestoreHonorsSkipFlags(t *testing.T) {
	ctx := context.Background()
	src, _, _, _ := seedStore(t)

	var buf bytes.Buffer
	opts := snapshot.DumpOptions{SkipPolicies: true, SkipRoles: true}
	require.NoError(t, snapshot.Dump(ctx, src, &buf, opts))

	dst := memory.New()
	require.NoError(t, snapshot.Restore(ctx, bytes.NewReader(buf.Bytes()), dst, snapshot.RestoreOptions{}))

	policiesOut, policiesErr := dst.AllPolicies(ctx)
	assert.Empty(t, drain(t, policiesOut, policiesErr))

	rolesOut, rolesErr := dst.AllRoles(ctx)
	assert.Empty(t, drain(t, rolesOut, rolesErr))

	dataTypesOut, dataTypesErr := dst.AllDataTypes(ctx)
	assert.Len(t, drain(t, dataTypesOut, dataTypesErr), 1)

	entitiesOut, entitiesErr := dst.AllEntities(ctx)
	assert.Len(t, drain(t, entitiesOut, entitiesErr), 1)
}

// TestRestoreRejectsUnknownEntryType checks the wire format's documented
// "unknown tags are rejected" rule.
func TestRestoreRejectsUnknownEntryType(t *testing.T) {
	ctx := context.Background()
	dst := memory.New()
	body := []byte(`{"type":"bogus","value":{}}` + "\n")
	err := snapshot.Restore(ctx, bytes.NewReader(body), dst, snapshot.RestoreOptions{})
	require.Error(t, err)
}

// TestRestoreIgnoreValidationErrorsDowngradesFailure checks that a
// dangling link endpoint fails validation by default but is downgraded
// to a ValidationWarning (with data still committed) when the caller
// passes IgnoreValidationErrors.
func TestRestoreIgnoreValidationErrorsDowngradesFailure(t *testing.T) {
	ctx := context.Background()
	webID := ident.NewWebId()
	actorID := ident.NewActorId(ident.ActorUser, uuid.New())

	danglingLeft := ident.EntityId{WebID: webID, EntityUUID: ident.NewEntityUuid()}
	danglingRight := ident.EntityId{WebID: webID, EntityUUID: ident.NewEntityUuid()}
	link := entity.Entity{
		ID: ident.EntityRecordId{
			EntityID:  ident.EntityId{WebID: webID, EntityUUID: ident.NewEntityUuid()},
			EditionID: ident.EntityEditionId(uuid.New()),
		},
		Properties: entity.Properties{},
		LinkData:   &entity.LinkData{LeftEntityID: danglingLeft, RightEntityID: danglingRight},
		Metadata: entity.Metadata{
			Temporal: entity.TemporalMetadata{
				DecisionTime:    liveDecisionRange(t),
				TransactionTime: liveTxRange(t),
			},
			Ownership:         ident.Ownership{Owned: &webID},
			EditionProvenance: ident.EditionProvenance{CreatedByID: actorID},
		},
	}

	entryBody, err := json.Marshal(link)
	require.NoError(t, err)
	line, err := json.Marshal(struct {
		Type  string          `json:"type"`
		Value json.RawMessage `json:"value"`
	}{Type: "entity", Value: entryBody})
	require.NoError(t, err)
	body := append(line, '\n')

	failing := memory.New()
	err = snapshot.Restore(ctx, bytes.NewReader(body), failing, snapshot.RestoreOptions{})
	require.Error(t, err)
	failingOut, failingErr := failing.AllEntities(ctx)
	assert.Empty(t, drain(t, failingOut, failingErr), "a failed commit must leave the store untouched")

	ignoring := memory.New()
	err = snapshot.Restore(ctx, bytes.NewReader(body), ignoring, snapshot.RestoreOptions{IgnoreValidationErrors: true})
	var warning *snapshot.ValidationWarning
	require.ErrorAs(t, err, &warning)
	ignoringOut, ignoringErr := ignoring.AllEntities(ctx)
	assert.Len(t, drain(t, ignoringOut, ignoringErr), 1, "ignored validation errors must still commit the data")
}
