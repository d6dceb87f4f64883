// Package storage defines the capability-trait interfaces the store's
// callers (the CLI, the snapshot pipeline) program against: ontology type
// lifecycle, entity lifecycle, and subgraph resolution. Concrete backends
// live in storage/postgres (the durable engine) and storage/memory (a
// fast in-process fake used by unit tests).
package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/coregraph/typegraph/internal/entity"
	"github.com/coregraph/typegraph/internal/graphquery"
	"github.com/coregraph/typegraph/internal/ident"
	"github.com/coregraph/typegraph/internal/ontology"
	"github.com/coregraph/typegraph/internal/subgraph"
	"github.com/coregraph/typegraph/internal/temporal"
)

// TypeKind discriminates the three ontology record kinds create_type and
// update_type operate over.
type TypeKind int

const (
	DataTypeKind TypeKind = iota
	PropertyTypeKind
	EntityTypeKind
)

func (k TypeKind) String() string {
	switch k {
	case DataTypeKind:
		return "dataType"
	case PropertyTypeKind:
		return "propertyType"
	case EntityTypeKind:
		return "entityType"
	default:
		return "unknown"
	}
}

// OntologyMetadata is the bitemporal, provenance-carrying envelope every
// ontology type edition is stored and returned with, per spec.md §3.4.
type OntologyMetadata struct {
	RecordID        ident.OntologyTypeRecordId
	Ownership       ident.Ownership
	TransactionTime temporal.Interval[temporal.Timestamp[temporal.TransactionTime]]
	Provenance      ident.EditionProvenance
}

type jsonOntologyMetadata struct {
	RecordID        ident.OntologyTypeRecordId                                         `json:"recordId"`
	Ownership       ident.Ownership                                                    `json:"ownership"`
	TransactionTime temporal.Interval[temporal.Timestamp[temporal.TransactionTime]]    `json:"transactionTime"`
	Provenance      ident.EditionProvenance                                            `json:"provenance"`
}

// MarshalJSON renders the ontology metadata envelope in camelCase, the
// form every type's SnapshotEntry value embeds it in.
func (m OntologyMetadata) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonOntologyMetadata{
		RecordID: m.RecordID, Ownership: m.Ownership, TransactionTime: m.TransactionTime, Provenance: m.Provenance,
	})
}

// UnmarshalJSON parses the camelCase ontology metadata envelope form.
func (m *OntologyMetadata) UnmarshalJSON(data []byte) error {
	var j jsonOntologyMetadata
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	m.RecordID, m.Ownership, m.TransactionTime, m.Provenance = j.RecordID, j.Ownership, j.TransactionTime, j.Provenance
	return nil
}

// DataTypeWithMetadata, PropertyTypeWithMetadata and EntityTypeWithMetadata
// pair a decoded ontology schema with the envelope it was stored under;
// create_type/update_type return one of these depending on kind.
type DataTypeWithMetadata struct {
	Schema   ontology.DataType `json:"schema"`
	Metadata OntologyMetadata  `json:"metadata"`
}

type PropertyTypeWithMetadata struct {
	Schema   ontology.PropertyType `json:"schema"`
	Metadata OntologyMetadata      `json:"metadata"`
}

type EntityTypeWithMetadata struct {
	Schema   ontology.EntityType `json:"schema"`
	Metadata OntologyMetadata    `json:"metadata"`
}

// CreateTypeParams is the caller-supplied input to CreateType. Exactly one
// of the three schema fields is populated, matching Kind.
type CreateTypeParams struct {
	Kind         TypeKind
	DataType     *ontology.DataType
	PropertyType *ontology.PropertyType
	EntityType   *ontology.EntityType
	Owner        ident.Ownership
	ActorID      ident.ActorId
	Provided     ident.ProvidedEditionProvenance
}

// UpdateTypeParams is the caller-supplied input to UpdateType: the same
// shape as CreateTypeParams, targeting an existing BaseUrl whose next
// version is assigned by the store.
type UpdateTypeParams struct {
	Kind         TypeKind
	BaseURL      ident.BaseUrl
	DataType     *ontology.DataType
	PropertyType *ontology.PropertyType
	EntityType   *ontology.EntityType
	ActorID      ident.ActorId
	Provided     ident.ProvidedEditionProvenance
}

// OntologyStore is the lifecycle surface over data types, property types
// and entity types: create, update (version bump), and archive.
type OntologyStore interface {
	// CreateType inserts the type's first edition. Neither the memory nor
	// the Postgres backend resolves the referenced ontology URLs or checks
	// the meta-schema, so neither returns ErrReferenceMissing. A repeated
	// (base URL, version) fails with ErrVersionAlreadyExists (memory) or
	// ErrBaseUrlAlreadyExists (Postgres).
	CreateType(ctx context.Context, params CreateTypeParams) (OntologyMetadata, error)

	// UpdateType bumps params.BaseURL to its next version, carrying the
	// same invariants as CreateType.
	UpdateType(ctx context.Context, params UpdateTypeParams) (OntologyMetadata, error)

	// ArchiveType closes id's transaction_time interval. It refuses with
	// ErrLiveReferencesExist if other live editions still reference id,
	// unless cascade is set.
	ArchiveType(ctx context.Context, id ident.VersionedUrl, actorID ident.ActorId, cascade bool) error
}

// EntityStore is the lifecycle surface over entities: create, update
// (closes the previous edition and opens a new one), and archive.
type EntityStore interface {
	CreateEntity(ctx context.Context, params entity.CreateParams) (entity.Entity, error)
	UpdateEntity(ctx context.Context, id ident.EntityId, patch entity.Properties, actorID ident.ActorId, provided ident.ProvidedEditionProvenance) (entity.Entity, error)
	ArchiveEntity(ctx context.Context, id ident.EntityId, actorID ident.ActorId) (entity.Entity, error)
}

// StructuralQuery pairs a root record type with the filter its SQL
// compilation is rooted at, the input to GetSubgraph.
type StructuralQuery struct {
	RecordType graphquery.RecordType
	Filter     graphquery.Filter
}

// GraphStore resolves a StructuralQuery into roots, then expands outward
// by the requested resolve depths.
type GraphStore interface {
	GetSubgraph(ctx context.Context, query StructuralQuery, depths subgraph.GraphResolveDepths) (*subgraph.Subgraph, error)
}

// Store is the full capability surface a backend implements.
type Store interface {
	OntologyStore
	EntityStore
	GraphStore
}

// ChangeFeed is an optional capability a Store may implement to let a
// watcher poll for mutations without re-scanning the whole store. It is
// a generalized, single-watermark simplification of the teacher's
// per-record dirty-issue tracking: callers that need "has anything
// changed since t" get an answer without the store keeping a dirty set.
type ChangeFeed interface {
	// LastModified reports the wall-clock time of the most recent type
	// or entity mutation the store has accepted, or the zero Time if
	// the store has never been written to.
	LastModified(ctx context.Context) (time.Time, error)
}
