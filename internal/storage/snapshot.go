package storage

import (
	"context"
	"encoding/json"

	"github.com/coregraph/typegraph/internal/entity"
	"github.com/coregraph/typegraph/internal/ident"
)

// WebRecord, ActorRecord, RoleRecord and PolicyRecord are the store's
// opaque passthrough representation of the principal/policy records the
// snapshot wire format names (spec.md §6's "web"/"actor"/"role"/"policy"
// SnapshotEntry tags). This store does not implement an authorization
// policy engine — it only consumes the capability "check permission for
// (actor, action, resource)" at its API boundary — so it stores and
// streams these records verbatim without interpreting them, to keep
// dump/restore round-trips byte-faithful for callers that do own that
// interpretation.
type WebRecord struct {
	ID ident.WebId `json:"id"`
}

type ActorRecord struct {
	ID ident.ActorId `json:"id"`
}

type RoleRecord struct {
	WebID   ident.WebId   `json:"webId"`
	ActorID ident.ActorId `json:"actorId"`
	Role    string        `json:"role"`
}

type PolicyRecord struct {
	ID       string          `json:"id"`
	Document json.RawMessage `json:"document"`
}

// SnapshotSource streams every record of every kind this store holds,
// for dump: the read side of spec.md §4.9. Each method returns a channel
// of decoded records and a single-value error channel; the record
// channel closes when the stream is exhausted or ctx is cancelled, and
// the caller should check the error channel afterward.
type SnapshotSource interface {
	AllDataTypes(ctx context.Context) (<-chan DataTypeWithMetadata, <-chan error)
	AllPropertyTypes(ctx context.Context) (<-chan PropertyTypeWithMetadata, <-chan error)
	AllEntityTypes(ctx context.Context) (<-chan EntityTypeWithMetadata, <-chan error)
	AllWebs(ctx context.Context) (<-chan WebRecord, <-chan error)
	AllActors(ctx context.Context) (<-chan ActorRecord, <-chan error)
	AllRoles(ctx context.Context) (<-chan RoleRecord, <-chan error)
	AllEntities(ctx context.Context) (<-chan entity.Entity, <-chan error)
	AllPolicies(ctx context.Context) (<-chan PolicyRecord, <-chan error)
}

// RestoreTx is one staged restore transaction: every stream is written
// to its own staging area via Write*, nothing becomes visible to other
// readers until Commit, and Rollback discards everything written so far.
// This is the Go-side shape of spec.md §4.9's begin/write/commit phases
// (`CREATE TEMPORARY TABLE X_tmp ...` / `INSERT INTO X_tmp ...` /
// `INSERT INTO X SELECT * FROM X_tmp`).
type RestoreTx interface {
	WriteDataTypes(ctx context.Context, batch []DataTypeWithMetadata) error
	WritePropertyTypes(ctx context.Context, batch []PropertyTypeWithMetadata) error
	WriteEntityTypes(ctx context.Context, batch []EntityTypeWithMetadata) error
	WriteWebs(ctx context.Context, batch []WebRecord) error
	WriteActors(ctx context.Context, batch []ActorRecord) error
	WriteRoles(ctx context.Context, batch []RoleRecord) error
	WriteEntities(ctx context.Context, batch []entity.Entity) error
	WritePolicies(ctx context.Context, batch []PolicyRecord) error

	// Commit moves every staged batch into the live tables atomically.
	// When validate is true the implementation additionally checks link
	// endpoints before committing, surfacing failures as KindValidation
	// errors rather than partially applying. Required properties are not
	// checked.
	Commit(ctx context.Context, validate bool) error
	// Rollback discards every batch staged so far. Safe to call after a
	// successful Commit (a no-op) so callers can defer it unconditionally.
	Rollback(ctx context.Context) error
}

// SnapshotSink begins a staged restore transaction.
type SnapshotSink interface {
	BeginRestore(ctx context.Context) (RestoreTx, error)
}
