// Package entity implements the store's entity model: property bags
// validated against ontology types, link data for link entities, and
// the bitemporal edition metadata every entity carries.
package entity

import (
	"encoding/json"

	"github.com/coregraph/typegraph/internal/ident"
	"github.com/coregraph/typegraph/internal/temporal"
)

// Properties is the decoded property bag of one entity edition: a
// mapping from a property type's BaseUrl to its JSON-encoded value.
// Values are validated against the owning entity type's closed property
// set before an edition is ever written.
type Properties map[ident.BaseUrl]json.RawMessage

// LinkOrder is an optional fractional-index-style ordering value used
// when an entity type's link destinations are declared ordered.
type LinkOrder *float64

// LinkData identifies the two endpoints of a link entity and, when the
// link type is declared ordered, their relative order among sibling
// links from the same source.
type LinkData struct {
	LeftEntityID  ident.EntityId
	RightEntityID ident.EntityId
	LeftOrder     LinkOrder
	RightOrder    LinkOrder
}

// Entity is one edition of an entity: its record id, its validated
// property bag, optional link data, and its metadata.
type Entity struct {
	ID         ident.EntityRecordId
	Properties Properties
	LinkData   *LinkData
	Metadata   Metadata
}

// IsLink reports whether this edition carries link data, i.e. it is an
// instance of a link entity type.
func (e Entity) IsLink() bool { return e.LinkData != nil }

// TemporalMetadata is the pair of bitemporal intervals every entity
// edition carries: when the store believes the fact held (decision
// time) and when the row itself was visible to readers (transaction
// time).
type TemporalMetadata struct {
	DecisionTime    temporal.Interval[temporal.Timestamp[temporal.DecisionTime]]
	TransactionTime temporal.Interval[temporal.Timestamp[temporal.TransactionTime]]
}

// InferredProvenance is provenance the store computes rather than
// accepts from callers, derived from an entity's edition history.
type InferredProvenance struct {
	CreatedByID                          ident.ActorId
	CreatedAtTransactionTime              temporal.Timestamp[temporal.TransactionTime]
	CreatedAtDecisionTime                 temporal.Timestamp[temporal.DecisionTime]
	FirstNonDraftCreatedAtTransactionTime *temporal.Timestamp[temporal.TransactionTime]
	FirstNonDraftCreatedAtDecisionTime    *temporal.Timestamp[temporal.DecisionTime]
}

// Metadata is the full metadata block attached to one entity edition:
// its type, temporal versioning, ownership, and provenance (both
// inferred and edition-provided).
type Metadata struct {
	EntityTypeIDs   []ident.VersionedUrl
	Temporal        TemporalMetadata
	Ownership       ident.Ownership
	Provenance      InferredProvenance
	EditionProvenance ident.EditionProvenance
	Archived        bool
}
