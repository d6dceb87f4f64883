package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/coregraph/typegraph/internal/entity"
	"github.com/coregraph/typegraph/internal/ident"
	"github.com/coregraph/typegraph/internal/sqlcompiler"
	"github.com/coregraph/typegraph/internal/storage"
	"github.com/coregraph/typegraph/internal/temporal"
)

// CreateEntity validates params against its entity types' closed property
// sets, then persists the first edition: a row in Entities plus its
// EntityIsOfType/HasLeftEntity/HasRightEntity join rows, all in one
// transaction.
func (s *Store) CreateEntity(ctx context.Context, params entity.CreateParams) (entity.Entity, error) {
	closed, err := s.closedEntityTypes(ctx, params.EntityTypeIDs)
	if err != nil {
		return entity.Entity{}, err
	}

	checkLinkEndpoints := func(linkType ident.VersionedUrl, left, right ident.EntityId) error {
		return s.checkLinkEndpoints(ctx, linkType, left, right)
	}

	entityID := ident.EntityId{WebID: ownerWebID(params.Owner), EntityUUID: ident.NewEntityUuid()}
	now := temporal.Now[temporal.TransactionTime]()

	e, err := entity.Create(s.resolver(ctx), closed, checkLinkEndpoints, params, entityID, now)
	if err != nil {
		return entity.Entity{}, storage.Wrap(storage.KindValidation, "create_entity", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return entity.Entity{}, wrapPgError("create_entity", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := insertEntityEdition(ctx, tx, e); err != nil {
		return entity.Entity{}, wrapPgError("create_entity", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return entity.Entity{}, wrapPgError("create_entity", err)
	}
	return e, nil
}

// UpdateEntity fetches id's current edition, closes it, and inserts patch
// as the next edition, transactionally.
func (s *Store) UpdateEntity(ctx context.Context, id ident.EntityId, patch entity.Properties, actorID ident.ActorId, provided ident.ProvidedEditionProvenance) (entity.Entity, error) {
	prev, err := s.currentEdition(ctx, id)
	if err != nil {
		return entity.Entity{}, err
	}

	closed, err := s.closedEntityTypes(ctx, prev.Metadata.EntityTypeIDs)
	if err != nil {
		return entity.Entity{}, err
	}

	now := temporal.Now[temporal.TransactionTime]()
	closedPrev, next, err := entity.Update(s.resolver(ctx), closed, prev, patch, actorID, now, provided)
	if err != nil {
		return entity.Entity{}, storage.Wrap(storage.KindValidation, "update_entity", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return entity.Entity{}, wrapPgError("update_entity", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := closeEntityEdition(ctx, tx, closedPrev); err != nil {
		return entity.Entity{}, wrapPgError("update_entity", err)
	}
	if err := insertEntityEdition(ctx, tx, next); err != nil {
		return entity.Entity{}, wrapPgError("update_entity", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return entity.Entity{}, wrapPgError("update_entity", err)
	}
	return next, nil
}

// ArchiveEntity closes id's current edition and stamps it archived,
// without inserting a replacement.
func (s *Store) ArchiveEntity(ctx context.Context, id ident.EntityId, actorID ident.ActorId) (entity.Entity, error) {
	prev, err := s.currentEdition(ctx, id)
	if err != nil {
		return entity.Entity{}, err
	}

	now := temporal.Now[temporal.TransactionTime]()
	archived, err := entity.Archive(prev, actorID, now)
	if err != nil {
		return entity.Entity{}, storage.Wrap(storage.KindFatal, "archive_entity", err)
	}

	endValue, _ := archived.Metadata.Temporal.TransactionTime.EndValue()
	_, err = s.execContext(ctx,
		`UPDATE `+sqlcompiler.TableEntities.String()+`
		 SET archived = true, transaction_time = tstzrange(lower(transaction_time), $1, '[)'), archived_by_id = $2
		 WHERE web_id = $3 AND entity_uuid = $4 AND draft_id IS NOT DISTINCT FROM $5 AND upper_inf(transaction_time)`,
		endValue.Time(), actorID.UUID, id.WebID.String(), id.EntityUUID.String(), draftArg(id.DraftID),
	)
	if err != nil {
		return entity.Entity{}, wrapPgError("archive_entity", err)
	}
	return archived, nil
}

func draftArg(d *ident.DraftId) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func ownerWebID(owner ident.Ownership) ident.WebId {
	if owner.Owned != nil {
		return *owner.Owned
	}
	return ident.WebId{}
}

func archivedByArg(a *ident.ActorId) any {
	if a == nil {
		return nil
	}
	return a.UUID
}

func firstNonDraftArg[A temporal.Axis](ts *temporal.Timestamp[A]) any {
	if ts == nil {
		return nil
	}
	return ts.Time()
}

// currentEdition fetches the live (unarchived, transaction-time-open)
// edition of id, along with the entity type(s) that edition belongs to.
func (s *Store) currentEdition(ctx context.Context, id ident.EntityId) (entity.Entity, error) {
	var editionID, createdByID string
	var propsJSON, provenanceJSON []byte
	var decisionLower, transactionLower time.Time
	var createdAtTxTime, createdAtDecisionTime time.Time
	var firstNonDraftTxTime, firstNonDraftDecisionTime *time.Time
	err := s.queryRowContext(ctx, func(row pgx.Row) error {
		return row.Scan(
			&editionID, &propsJSON, &decisionLower, &transactionLower, &createdByID, &provenanceJSON,
			&createdAtTxTime, &createdAtDecisionTime, &firstNonDraftTxTime, &firstNonDraftDecisionTime,
		)
	}, `SELECT edition_id, properties, lower(decision_time), lower(transaction_time), created_by_id, provenance,
			created_at_transaction_time, created_at_decision_time,
			first_non_draft_created_at_transaction_time, first_non_draft_created_at_decision_time
		FROM `+sqlcompiler.TableEntities.String()+`
		WHERE web_id = $1 AND entity_uuid = $2 AND draft_id IS NOT DISTINCT FROM $3 AND upper_inf(transaction_time)`,
		id.WebID.String(), id.EntityUUID.String(), draftArg(id.DraftID),
	)
	if err != nil {
		return entity.Entity{}, storage.WrapID(storage.KindReference, "update_entity", id.EntityUUID.String(), err)
	}

	typeIDs, err := s.queryEntityTypes(ctx, id)
	if err != nil {
		return entity.Entity{}, err
	}

	var props entity.Properties
	if err := json.Unmarshal(propsJSON, &props); err != nil {
		return entity.Entity{}, storage.Wrap(storage.KindFatal, "update_entity", err)
	}
	var provided ident.ProvidedEditionProvenance
	if err := json.Unmarshal(provenanceJSON, &provided); err != nil {
		return entity.Entity{}, storage.Wrap(storage.KindFatal, "update_entity", err)
	}

	editionUUID, err := parseUUID(editionID)
	if err != nil {
		return entity.Entity{}, storage.Wrap(storage.KindFatal, "update_entity", err)
	}
	actorUUID, err := parseUUID(createdByID)
	if err != nil {
		return entity.Entity{}, storage.Wrap(storage.KindFatal, "update_entity", err)
	}

	decisionInterval, err := temporal.LeftClosed[temporal.Timestamp[temporal.DecisionTime]](
		temporal.FromTime[temporal.DecisionTime](decisionLower), temporal.UnboundedBound[temporal.Timestamp[temporal.DecisionTime]](),
	)
	if err != nil {
		return entity.Entity{}, storage.Wrap(storage.KindFatal, "update_entity", err)
	}
	transactionInterval, err := temporal.LeftClosed[temporal.Timestamp[temporal.TransactionTime]](
		temporal.FromTime[temporal.TransactionTime](transactionLower), temporal.UnboundedBound[temporal.Timestamp[temporal.TransactionTime]](),
	)
	if err != nil {
		return entity.Entity{}, storage.Wrap(storage.KindFatal, "update_entity", err)
	}

	var firstNonDraftTx *temporal.Timestamp[temporal.TransactionTime]
	if firstNonDraftTxTime != nil {
		ts := temporal.FromTime[temporal.TransactionTime](*firstNonDraftTxTime)
		firstNonDraftTx = &ts
	}
	var firstNonDraftDecision *temporal.Timestamp[temporal.DecisionTime]
	if firstNonDraftDecisionTime != nil {
		ts := temporal.FromTime[temporal.DecisionTime](*firstNonDraftDecisionTime)
		firstNonDraftDecision = &ts
	}

	return entity.Entity{
		ID:         ident.EntityRecordId{EntityID: id, EditionID: ident.EntityEditionId(editionUUID)},
		Properties: props,
		Metadata: entity.Metadata{
			EntityTypeIDs: typeIDs,
			Temporal: entity.TemporalMetadata{
				DecisionTime:    decisionInterval,
				TransactionTime: transactionInterval,
			},
			Provenance: entity.InferredProvenance{
				CreatedByID:                           ident.NewActorId(ident.ActorUser, actorUUID),
				CreatedAtTransactionTime:               temporal.FromTime[temporal.TransactionTime](createdAtTxTime),
				CreatedAtDecisionTime:                  temporal.FromTime[temporal.DecisionTime](createdAtDecisionTime),
				FirstNonDraftCreatedAtTransactionTime:  firstNonDraftTx,
				FirstNonDraftCreatedAtDecisionTime:     firstNonDraftDecision,
			},
			EditionProvenance: ident.EditionProvenance{
				CreatedByID: ident.NewActorId(ident.ActorUser, actorUUID),
				Provided:    provided,
			},
		},
	}, nil
}

// checkLinkEndpoints verifies that both endpoints of a link exist, the
// LinkEndpointChecker the pure entity.Create function delegates to. The
// endpoints' entity types are not compared against linkType's destination
// constraints.
func (s *Store) checkLinkEndpoints(ctx context.Context, linkType ident.VersionedUrl, left, right ident.EntityId) error {
	for _, id := range []ident.EntityId{left, right} {
		var exists bool
		err := s.queryRowContext(ctx, func(row pgx.Row) error {
			return row.Scan(&exists)
		}, `SELECT EXISTS(SELECT 1 FROM `+sqlcompiler.TableEntities.String()+` WHERE web_id = $1 AND entity_uuid = $2 AND upper_inf(transaction_time))`,
			id.WebID.String(), id.EntityUUID.String(),
		)
		if err != nil {
			return wrapPgError("create_entity", err)
		}
		if !exists {
			return storage.WrapID(storage.KindReference, "create_entity", id.EntityUUID.String(), storage.ErrNotFound)
		}
	}
	return nil
}

func insertEntityEdition(ctx context.Context, tx pgx.Tx, e entity.Entity) error {
	props, err := json.Marshal(e.Properties)
	if err != nil {
		return err
	}
	provenance, err := json.Marshal(e.Metadata.EditionProvenance.Provided)
	if err != nil {
		return err
	}
	decisionRange, err := temporal.ToRange(e.Metadata.Temporal.DecisionTime)
	if err != nil {
		return err
	}
	transactionRange, err := temporal.ToRange(e.Metadata.Temporal.TransactionTime)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO `+sqlcompiler.TableEntities.String()+`
			(edition_id, web_id, entity_uuid, draft_id, archived, decision_time, transaction_time, properties,
			 provenance, created_by_id, archived_by_id,
			 created_at_transaction_time, created_at_decision_time,
			 first_non_draft_created_at_transaction_time, first_non_draft_created_at_decision_time)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9::jsonb, $10, $11, $12, $13, $14, $15)`,
		e.ID.EditionID.String(), e.ID.EntityID.WebID.String(), e.ID.EntityID.EntityUUID.String(), draftArg(e.ID.EntityID.DraftID),
		e.Metadata.Archived, decisionRange, transactionRange, props,
		provenance, e.Metadata.EditionProvenance.CreatedByID.UUID, archivedByArg(e.Metadata.EditionProvenance.ArchivedByID),
		e.Metadata.Provenance.CreatedAtTransactionTime.Time(), e.Metadata.Provenance.CreatedAtDecisionTime.Time(),
		firstNonDraftArg(e.Metadata.Provenance.FirstNonDraftCreatedAtTransactionTime),
		firstNonDraftArg(e.Metadata.Provenance.FirstNonDraftCreatedAtDecisionTime),
	); err != nil {
		return err
	}

	for _, typeID := range e.Metadata.EntityTypeIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO `+sqlcompiler.TableEntityIsOfType.String()+` (entity_uuid, entity_type_base_url, entity_type_version) VALUES ($1, $2, $3)`,
			e.ID.EntityID.EntityUUID.String(), typeID.BaseURL.String(), typeID.Version,
		); err != nil {
			return err
		}
	}

	if e.LinkData != nil {
		if _, err := tx.Exec(ctx,
			`INSERT INTO `+sqlcompiler.TableEntityHasLeftEntity.String()+` (entity_uuid, left_entity_uuid, left_order) VALUES ($1, $2, $3)`,
			e.ID.EntityID.EntityUUID.String(), e.LinkData.LeftEntityID.EntityUUID.String(), (*float64)(e.LinkData.LeftOrder),
		); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO `+sqlcompiler.TableEntityHasRightEntity.String()+` (entity_uuid, right_entity_uuid, right_order) VALUES ($1, $2, $3)`,
			e.ID.EntityID.EntityUUID.String(), e.LinkData.RightEntityID.EntityUUID.String(), (*float64)(e.LinkData.RightOrder),
		); err != nil {
			return err
		}
	}

	return nil
}

func closeEntityEdition(ctx context.Context, tx pgx.Tx, closed entity.Entity) error {
	transactionRange, err := temporal.ToRange(closed.Metadata.Temporal.TransactionTime)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx,
		`UPDATE `+sqlcompiler.TableEntities.String()+` SET transaction_time = $1 WHERE edition_id = $2`,
		transactionRange, closed.ID.EditionID.String(),
	)
	return err
}
