package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/coregraph/typegraph/internal/entity"
	"github.com/coregraph/typegraph/internal/ident"
	"github.com/coregraph/typegraph/internal/ontology"
	"github.com/coregraph/typegraph/internal/sqlcompiler"
	"github.com/coregraph/typegraph/internal/storage"
	"github.com/coregraph/typegraph/internal/temporal"
)

// streamRows runs query in its own read-only, repeatable-read transaction
// (so each stream sees one consistent snapshot of its own rows; separate
// streams of a dump run in separate transactions and are not consistent
// with one another) and decodes each row with scan, sending the
// result on the returned channel from a dedicated goroutine. The error
// channel carries at most one value and is only meaningful after the row
// channel closes.
func streamRows[T any](ctx context.Context, s *Store, scan func(pgx.Rows) (T, error), query string, args ...any) (<-chan T, <-chan error) {
	out := make(chan T)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)

		tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
		if err != nil {
			errc <- wrapPgError("snapshot_dump", err)
			return
		}
		defer tx.Rollback(ctx) //nolint:errcheck

		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			errc <- wrapPgError("snapshot_dump", err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			v, err := scan(rows)
			if err != nil {
				errc <- wrapPgError("snapshot_dump", err)
				return
			}
			select {
			case out <- v:
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			}
		}
		if err := rows.Err(); err != nil {
			errc <- wrapPgError("snapshot_dump", err)
		}
	}()
	return out, errc
}

func scanOntologyMetadata(recordID uuid.UUID, ownedWebID *uuid.UUID, externalFetchedAt *time.Time, txRange pgtype.Range[time.Time], provenanceJSON []byte, createdByID uuid.UUID, archivedByID *uuid.UUID, base ident.BaseUrl, version ident.OntologyTypeVersion) (storage.OntologyMetadata, error) {
	var ownership ident.Ownership
	if ownedWebID != nil {
		web := ident.WebId(*ownedWebID)
		ownership.Owned = &web
	} else if externalFetchedAt != nil {
		ownership.External = &ident.ExternalOwnership{FetchedAt: temporal.FromTime[temporal.TransactionTime](*externalFetchedAt)}
	}

	txInterval, err := temporal.FromRange[temporal.TransactionTime](txRange)
	if err != nil {
		return storage.OntologyMetadata{}, err
	}

	var provided ident.ProvidedEditionProvenance
	if len(provenanceJSON) > 0 {
		if err := json.Unmarshal(provenanceJSON, &provided); err != nil {
			return storage.OntologyMetadata{}, err
		}
	}

	var archivedBy *ident.ActorId
	if archivedByID != nil {
		a := ident.NewActorId(ident.ActorUser, *archivedByID)
		archivedBy = &a
	}

	return storage.OntologyMetadata{
		RecordID:        ident.VersionedUrl{BaseURL: base, Version: version},
		Ownership:       ownership,
		TransactionTime: txInterval,
		Provenance: ident.EditionProvenance{
			CreatedByID:  ident.NewActorId(ident.ActorUser, createdByID),
			ArchivedByID: archivedBy,
			Provided:     provided,
		},
	}, nil
}

func ontologyKindQuery(table sqlcompiler.Table) string {
	return `SELECT t.base_url, t.version, t.schema, o.ontology_id,
			ow.web_id, ext.fetched_at,
			tm.transaction_time, tm.provenance, tm.created_by_id, tm.archived_by_id
		FROM ` + table.String() + ` t
		JOIN ` + sqlcompiler.TableOntologyIds.String() + ` o ON o.base_url = t.base_url AND o.version = t.version
		LEFT JOIN ` + sqlcompiler.TableOntologyIds.String() + `_owned ow ON ow.ontology_id = o.ontology_id
		LEFT JOIN ` + sqlcompiler.TableOntologyIds.String() + `_external ext ON ext.ontology_id = o.ontology_id
		JOIN ` + sqlcompiler.TableOntologyTemporalMetadata.String() + ` tm ON tm.ontology_id = o.ontology_id`
}

func (s *Store) AllDataTypes(ctx context.Context) (<-chan storage.DataTypeWithMetadata, <-chan error) {
	return streamRows(ctx, s, func(rows pgx.Rows) (storage.DataTypeWithMetadata, error) {
		var baseURL, rawSchema string
		var version uint32
		var ontologyID, createdByID uuid.UUID
		var ownedWebID, archivedByID *uuid.UUID
		var fetchedAt *time.Time
		var txRange pgtype.Range[time.Time]
		var provenanceJSON []byte
		if err := rows.Scan(&baseURL, &version, &rawSchema, &ontologyID, &ownedWebID, &fetchedAt, &txRange, &provenanceJSON, &createdByID, &archivedByID); err != nil {
			return storage.DataTypeWithMetadata{}, err
		}
		base, err := ident.ParseBaseUrl(baseURL)
		if err != nil {
			return storage.DataTypeWithMetadata{}, err
		}
		var schema ontology.DataType
		if err := schema.UnmarshalJSON([]byte(rawSchema)); err != nil {
			return storage.DataTypeWithMetadata{}, err
		}
		meta, err := scanOntologyMetadata(ontologyID, ownedWebID, fetchedAt, txRange, provenanceJSON, createdByID, archivedByID, base, ident.OntologyTypeVersion(version))
		if err != nil {
			return storage.DataTypeWithMetadata{}, err
		}
		return storage.DataTypeWithMetadata{Schema: schema, Metadata: meta}, nil
	}, ontologyKindQuery(sqlcompiler.TableDataTypes))
}

func (s *Store) AllPropertyTypes(ctx context.Context) (<-chan storage.PropertyTypeWithMetadata, <-chan error) {
	return streamRows(ctx, s, func(rows pgx.Rows) (storage.PropertyTypeWithMetadata, error) {
		var baseURL, rawSchema string
		var version uint32
		var ontologyID, createdByID uuid.UUID
		var ownedWebID, archivedByID *uuid.UUID
		var fetchedAt *time.Time
		var txRange pgtype.Range[time.Time]
		var provenanceJSON []byte
		if err := rows.Scan(&baseURL, &version, &rawSchema, &ontologyID, &ownedWebID, &fetchedAt, &txRange, &provenanceJSON, &createdByID, &archivedByID); err != nil {
			return storage.PropertyTypeWithMetadata{}, err
		}
		base, err := ident.ParseBaseUrl(baseURL)
		if err != nil {
			return storage.PropertyTypeWithMetadata{}, err
		}
		var schema ontology.PropertyType
		if err := schema.UnmarshalJSON([]byte(rawSchema)); err != nil {
			return storage.PropertyTypeWithMetadata{}, err
		}
		meta, err := scanOntologyMetadata(ontologyID, ownedWebID, fetchedAt, txRange, provenanceJSON, createdByID, archivedByID, base, ident.OntologyTypeVersion(version))
		if err != nil {
			return storage.PropertyTypeWithMetadata{}, err
		}
		return storage.PropertyTypeWithMetadata{Schema: schema, Metadata: meta}, nil
	}, ontologyKindQuery(sqlcompiler.TablePropertyTypes))
}

func (s *Store) AllEntityTypes(ctx context.Context) (<-chan storage.EntityTypeWithMetadata, <-chan error) {
	return streamRows(ctx, s, func(rows pgx.Rows) (storage.EntityTypeWithMetadata, error) {
		var baseURL, rawSchema string
		var version uint32
		var ontologyID, createdByID uuid.UUID
		var ownedWebID, archivedByID *uuid.UUID
		var fetchedAt *time.Time
		var txRange pgtype.Range[time.Time]
		var provenanceJSON []byte
		if err := rows.Scan(&baseURL, &version, &rawSchema, &ontologyID, &ownedWebID, &fetchedAt, &txRange, &provenanceJSON, &createdByID, &archivedByID); err != nil {
			return storage.EntityTypeWithMetadata{}, err
		}
		base, err := ident.ParseBaseUrl(baseURL)
		if err != nil {
			return storage.EntityTypeWithMetadata{}, err
		}
		var schema ontology.EntityType
		if err := schema.UnmarshalJSON([]byte(rawSchema)); err != nil {
			return storage.EntityTypeWithMetadata{}, err
		}
		meta, err := scanOntologyMetadata(ontologyID, ownedWebID, fetchedAt, txRange, provenanceJSON, createdByID, archivedByID, base, ident.OntologyTypeVersion(version))
		if err != nil {
			return storage.EntityTypeWithMetadata{}, err
		}
		return storage.EntityTypeWithMetadata{Schema: schema, Metadata: meta}, nil
	}, ontologyKindQuery(sqlcompiler.TableEntityTypes))
}

// AllEntities streams every edition ever written, archived ones
// included, since a dump moves the store's full bitemporal history.
func (s *Store) AllEntities(ctx context.Context) (<-chan entity.Entity, <-chan error) {
	return streamRows(ctx, s, func(rows pgx.Rows) (entity.Entity, error) {
		var editionID, webID, entityUUID, createdByID string
		var draftID *string
		var archived bool
		var propsJSON []byte
		var decisionRange, transactionRange pgtype.Range[time.Time]
		if err := rows.Scan(&editionID, &webID, &entityUUID, &draftID, &archived, &decisionRange, &transactionRange, &propsJSON, &createdByID); err != nil {
			return entity.Entity{}, err
		}

		id, err := entityIDFromParts(webID, entityUUID, draftID)
		if err != nil {
			return entity.Entity{}, err
		}
		editionUUID, err := parseUUID(editionID)
		if err != nil {
			return entity.Entity{}, err
		}
		actorUUID, err := parseUUID(createdByID)
		if err != nil {
			return entity.Entity{}, err
		}

		var props entity.Properties
		if err := json.Unmarshal(propsJSON, &props); err != nil {
			return entity.Entity{}, err
		}

		decisionInterval, err := temporal.FromRange[temporal.DecisionTime](decisionRange)
		if err != nil {
			return entity.Entity{}, err
		}
		transactionInterval, err := temporal.FromRange[temporal.TransactionTime](transactionRange)
		if err != nil {
			return entity.Entity{}, err
		}

		return entity.Entity{
			ID:         ident.EntityRecordId{EntityID: id, EditionID: ident.EntityEditionId(editionUUID)},
			Properties: props,
			Metadata: entity.Metadata{
				Temporal: entity.TemporalMetadata{
					DecisionTime:    decisionInterval,
					TransactionTime: transactionInterval,
				},
				Archived:          archived,
				EditionProvenance: ident.EditionProvenance{CreatedByID: ident.NewActorId(ident.ActorUser, actorUUID)},
			},
		}, nil
	}, `SELECT edition_id, web_id, entity_uuid, draft_id, archived, decision_time, transaction_time, properties, created_by_id
		FROM `+sqlcompiler.TableEntities.String())
}

func (s *Store) AllWebs(ctx context.Context) (<-chan storage.WebRecord, <-chan error) {
	return streamRows(ctx, s, func(rows pgx.Rows) (storage.WebRecord, error) {
		var id string
		if err := rows.Scan(&id); err != nil {
			return storage.WebRecord{}, err
		}
		u, err := parseUUID(id)
		if err != nil {
			return storage.WebRecord{}, err
		}
		return storage.WebRecord{ID: ident.WebId(u)}, nil
	}, `SELECT web_id FROM `+sqlcompiler.TableWebs.String())
}

func (s *Store) AllActors(ctx context.Context) (<-chan storage.ActorRecord, <-chan error) {
	return streamRows(ctx, s, func(rows pgx.Rows) (storage.ActorRecord, error) {
		var id string
		if err := rows.Scan(&id); err != nil {
			return storage.ActorRecord{}, err
		}
		u, err := parseUUID(id)
		if err != nil {
			return storage.ActorRecord{}, err
		}
		return storage.ActorRecord{ID: ident.NewActorId(ident.ActorUser, u)}, nil
	}, `SELECT actor_id FROM `+sqlcompiler.TableActors.String())
}

func (s *Store) AllRoles(ctx context.Context) (<-chan storage.RoleRecord, <-chan error) {
	return streamRows(ctx, s, func(rows pgx.Rows) (storage.RoleRecord, error) {
		var webID, actorID, role string
		if err := rows.Scan(&webID, &actorID, &role); err != nil {
			return storage.RoleRecord{}, err
		}
		web, err := parseUUID(webID)
		if err != nil {
			return storage.RoleRecord{}, err
		}
		actor, err := parseUUID(actorID)
		if err != nil {
			return storage.RoleRecord{}, err
		}
		return storage.RoleRecord{WebID: ident.WebId(web), ActorID: ident.NewActorId(ident.ActorUser, actor), Role: role}, nil
	}, `SELECT web_id, actor_id, role FROM `+sqlcompiler.TableRoles.String())
}

func (s *Store) AllPolicies(ctx context.Context) (<-chan storage.PolicyRecord, <-chan error) {
	return streamRows(ctx, s, func(rows pgx.Rows) (storage.PolicyRecord, error) {
		var id string
		var doc []byte
		if err := rows.Scan(&id, &doc); err != nil {
			return storage.PolicyRecord{}, err
		}
		return storage.PolicyRecord{ID: id, Document: doc}, nil
	}, `SELECT policy_id, document FROM `+sqlcompiler.TablePolicies.String())
}

func entityIDFromParts(webID, entityUUID string, draftID *string) (ident.EntityId, error) {
	web, err := parseUUID(webID)
	if err != nil {
		return ident.EntityId{}, err
	}
	eu, err := parseUUID(entityUUID)
	if err != nil {
		return ident.EntityId{}, err
	}
	id := ident.EntityId{WebID: ident.WebId(web), EntityUUID: ident.EntityUuid(eu)}
	if draftID != nil {
		du, err := parseUUID(*draftID)
		if err != nil {
			return ident.EntityId{}, err
		}
		d := ident.DraftId(du)
		id.DraftID = &d
	}
	return id, nil
}
