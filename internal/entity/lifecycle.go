package entity

import (
	"errors"
	"fmt"

	"github.com/coregraph/typegraph/internal/ident"
	"github.com/coregraph/typegraph/internal/ontology"
	"github.com/coregraph/typegraph/internal/temporal"
)

// Sentinel errors surfaced by Create/Update/Archive per the entity
// model's error taxonomy.
var (
	ErrEntityTypeDoesNotExist  = errors.New("entity: entity type does not exist")
	ErrOwnerDoesNotExist       = errors.New("entity: owner does not exist")
	ErrEntityUuidAlreadyExists = errors.New("entity: entity uuid already exists")
	ErrLinkEndpointTypeMismatch = errors.New("entity: link endpoint type mismatch")
)

// InvalidPropertiesError wraps the constraint failures ValidateProperties
// produced for one create/update attempt.
type InvalidPropertiesError struct {
	Errors []error
}

func (e *InvalidPropertiesError) Error() string {
	return fmt.Sprintf("entity: invalid properties (%d error(s)): %v", len(e.Errors), e.Errors[0])
}

// CreateParams is the caller-supplied input to Create.
type CreateParams struct {
	EntityTypeIDs []ident.VersionedUrl
	Properties    Properties
	LinkData      *LinkData
	Owner         ident.Ownership
	ActorID       ident.ActorId
	DecisionTime  *temporal.Timestamp[temporal.DecisionTime]
	Provided      ident.ProvidedEditionProvenance
}

// LinkEndpointChecker reports whether the left/right entities named in a
// LinkData may be joined by an entity of linkType, given that type's
// declared link destination constraints. The storage engine supplies
// this, since it alone can resolve the endpoints' own closed entity
// types.
type LinkEndpointChecker func(linkType ident.VersionedUrl, left, right ident.EntityId) error

// Create validates params against the entity type's closed property set
// and link constraints, then produces the first edition of a new entity.
// now is injected so callers control the transaction-time clock.
func Create(
	resolver ontology.TypeResolver,
	closed map[ident.VersionedUrl]ontology.ClosedEntityType,
	checkLinkEndpoints LinkEndpointChecker,
	params CreateParams,
	entityID ident.EntityId,
	now temporal.Timestamp[temporal.TransactionTime],
) (Entity, error) {
	if len(params.EntityTypeIDs) == 0 {
		return Entity{}, ErrEntityTypeDoesNotExist
	}

	var validationErrs []error
	for _, typeID := range params.EntityTypeIDs {
		c, ok := closed[typeID]
		if !ok {
			return Entity{}, ErrEntityTypeDoesNotExist
		}
		validationErrs = append(validationErrs, ontology.ValidateProperties(resolver, c, params.Properties)...)
	}
	if len(validationErrs) > 0 {
		return Entity{}, &InvalidPropertiesError{Errors: validationErrs}
	}

	if params.LinkData != nil {
		if checkLinkEndpoints == nil {
			return Entity{}, fmt.Errorf("entity: link endpoint check required but not provided")
		}
		if err := checkLinkEndpoints(params.EntityTypeIDs[0], params.LinkData.LeftEntityID, params.LinkData.RightEntityID); err != nil {
			return Entity{}, fmt.Errorf("%w: %v", ErrLinkEndpointTypeMismatch, err)
		}
	}

	decisionTime := params.DecisionTime
	if decisionTime == nil {
		cast := temporal.Cast[temporal.DecisionTime](now)
		decisionTime = &cast
	}

	decisionInterval, err := temporal.LeftClosed[temporal.Timestamp[temporal.DecisionTime]](
		*decisionTime, temporal.UnboundedBound[temporal.Timestamp[temporal.DecisionTime]](),
	)
	if err != nil {
		return Entity{}, err
	}
	transactionInterval, err := temporal.LeftClosed[temporal.Timestamp[temporal.TransactionTime]](
		now, temporal.UnboundedBound[temporal.Timestamp[temporal.TransactionTime]](),
	)
	if err != nil {
		return Entity{}, err
	}

	provenance := InferredProvenance{
		CreatedByID:              params.ActorID,
		CreatedAtTransactionTime: now,
		CreatedAtDecisionTime:    *decisionTime,
	}
	if !entityID.IsDraft() {
		provenance.FirstNonDraftCreatedAtTransactionTime = &now
		provenance.FirstNonDraftCreatedAtDecisionTime = decisionTime
	}

	return Entity{
		ID: ident.EntityRecordId{
			EntityID:  entityID,
			EditionID: ident.NewEntityEditionId(),
		},
		Properties: params.Properties,
		LinkData:   params.LinkData,
		Metadata: Metadata{
			EntityTypeIDs: params.EntityTypeIDs,
			Temporal: TemporalMetadata{
				DecisionTime:    decisionInterval,
				TransactionTime: transactionInterval,
			},
			Ownership:  params.Owner,
			Provenance: provenance,
			EditionProvenance: ident.EditionProvenance{
				CreatedByID: params.ActorID,
				Provided:    params.Provided,
			},
		},
	}, nil
}

// Close produces the closed-off form of prev's previous edition: its
// transaction_time interval's upper bound becomes Excluded(now), leaving
// decision_time and properties untouched. The caller is responsible for
// persisting both this closed edition and whatever new edition replaces
// it (Update) or for stopping here (Archive).
func Close(prev Entity, now temporal.Timestamp[temporal.TransactionTime]) (Entity, error) {
	closedInterval, err := temporal.LeftClosed[temporal.Timestamp[temporal.TransactionTime]](
		prev.Metadata.Temporal.TransactionTime.Start.Value, temporal.ExcludedBound(now),
	)
	if err != nil {
		return Entity{}, err
	}
	closed := prev
	closed.Metadata.Temporal.TransactionTime = closedInterval
	return closed, nil
}

// Update closes prev's transaction-time interval at now and produces a
// new edition carrying patch's properties, validated against the same
// entity types prev already belongs to. The entity's identity
// (EntityId) is preserved; only the EditionId changes.
func Update(
	resolver ontology.TypeResolver,
	closed map[ident.VersionedUrl]ontology.ClosedEntityType,
	prev Entity,
	patch Properties,
	actorID ident.ActorId,
	now temporal.Timestamp[temporal.TransactionTime],
	provided ident.ProvidedEditionProvenance,
) (closedPrev Entity, nextEdition Entity, err error) {
	closedPrev, err = Close(prev, now)
	if err != nil {
		return Entity{}, Entity{}, err
	}

	var validationErrs []error
	for _, typeID := range prev.Metadata.EntityTypeIDs {
		c, ok := closed[typeID]
		if !ok {
			return Entity{}, Entity{}, ErrEntityTypeDoesNotExist
		}
		validationErrs = append(validationErrs, ontology.ValidateProperties(resolver, c, patch)...)
	}
	if len(validationErrs) > 0 {
		return Entity{}, Entity{}, &InvalidPropertiesError{Errors: validationErrs}
	}

	transactionInterval, err := temporal.LeftClosed[temporal.Timestamp[temporal.TransactionTime]](
		now, temporal.UnboundedBound[temporal.Timestamp[temporal.TransactionTime]](),
	)
	if err != nil {
		return Entity{}, Entity{}, err
	}

	provenance := prev.Metadata.Provenance
	if provenance.FirstNonDraftCreatedAtTransactionTime == nil && !prev.ID.EntityID.IsDraft() {
		decisionStart, _ := prev.Metadata.Temporal.DecisionTime.StartValue()
		provenance.FirstNonDraftCreatedAtTransactionTime = &now
		provenance.FirstNonDraftCreatedAtDecisionTime = &decisionStart
	}

	nextEdition = Entity{
		ID: ident.EntityRecordId{
			EntityID:  prev.ID.EntityID,
			EditionID: ident.NewEntityEditionId(),
		},
		Properties: patch,
		LinkData:   prev.LinkData,
		Metadata: Metadata{
			EntityTypeIDs: prev.Metadata.EntityTypeIDs,
			Temporal: TemporalMetadata{
				DecisionTime:    prev.Metadata.Temporal.DecisionTime,
				TransactionTime: transactionInterval,
			},
			Ownership:  prev.Metadata.Ownership,
			Provenance: provenance,
			EditionProvenance: ident.EditionProvenance{
				CreatedByID: actorID,
				Provided:    provided,
			},
		},
	}
	return closedPrev, nextEdition, nil
}

// Archive closes prev's transaction-time interval at now and stamps
// archived_by_id, without producing a replacement edition.
func Archive(prev Entity, actorID ident.ActorId, now temporal.Timestamp[temporal.TransactionTime]) (Entity, error) {
	archived, err := Close(prev, now)
	if err != nil {
		return Entity{}, err
	}
	archived.Metadata.EditionProvenance.ArchivedByID = &actorID
	archived.Metadata.Archived = true
	return archived, nil
}
