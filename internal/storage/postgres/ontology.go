package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/coregraph/typegraph/internal/ident"
	"github.com/coregraph/typegraph/internal/ontology"
	"github.com/coregraph/typegraph/internal/sqlcompiler"
	"github.com/coregraph/typegraph/internal/storage"
	"github.com/coregraph/typegraph/internal/temporal"
)

// kindTable names the per-kind table a CreateTypeParams.Kind is stored in,
// reusing sqlcompiler's table identifiers so the storage layer and the
// query compiler never disagree on a table's name.
func kindTable(kind storage.TypeKind) sqlcompiler.Table {
	switch kind {
	case storage.DataTypeKind:
		return sqlcompiler.TableDataTypes
	case storage.PropertyTypeKind:
		return sqlcompiler.TablePropertyTypes
	case storage.EntityTypeKind:
		return sqlcompiler.TableEntityTypes
	default:
		panic("postgres: unknown type kind")
	}
}

// joinTablesReferencing names the join tables whose `target_base_url`/
// `target_version` columns (`entity_type_base_url`/`entity_type_version`
// for EntityIsOfType) may point at a type of this kind, the set
// ArchiveType scans to enforce the live-reference check.
func joinTablesReferencing(kind storage.TypeKind) []sqlcompiler.Table {
	switch kind {
	case storage.DataTypeKind:
		return []sqlcompiler.Table{sqlcompiler.TableDataTypeInheritsFrom, sqlcompiler.TablePropertyTypeConstrainsValuesOn}
	case storage.PropertyTypeKind:
		return []sqlcompiler.Table{sqlcompiler.TablePropertyTypeConstrainsPropertiesOn, sqlcompiler.TableEntityTypeConstrainsPropertiesOn}
	case storage.EntityTypeKind:
		return []sqlcompiler.Table{
			sqlcompiler.TableEntityTypeInheritsFrom,
			sqlcompiler.TableEntityTypeConstrainsLinksOn,
			sqlcompiler.TableEntityTypeConstrainsLinkDestinationsOn,
			sqlcompiler.TableEntityIsOfType,
		}
	default:
		return nil
	}
}

func schemaAndTitle(params storage.CreateTypeParams) (id ident.VersionedUrl, title, description string, schema []byte, err error) {
	switch params.Kind {
	case storage.DataTypeKind:
		if params.DataType == nil {
			return id, "", "", nil, fmt.Errorf("postgres: CreateType(DataTypeKind) requires DataType")
		}
		schema, err = json.Marshal(*params.DataType)
		return params.DataType.ID, params.DataType.Title, params.DataType.Description, schema, err
	case storage.PropertyTypeKind:
		if params.PropertyType == nil {
			return id, "", "", nil, fmt.Errorf("postgres: CreateType(PropertyTypeKind) requires PropertyType")
		}
		schema, err = json.Marshal(*params.PropertyType)
		return params.PropertyType.ID, params.PropertyType.Title, params.PropertyType.Description, schema, err
	case storage.EntityTypeKind:
		if params.EntityType == nil {
			return id, "", "", nil, fmt.Errorf("postgres: CreateType(EntityTypeKind) requires EntityType")
		}
		schema, err = json.Marshal(*params.EntityType)
		return params.EntityType.ID, params.EntityType.Title, params.EntityType.Description, schema, err
	default:
		return id, "", "", nil, fmt.Errorf("postgres: unknown type kind %v", params.Kind)
	}
}

// CreateType inserts the first edition of an ontology type: an
// ontology_id row, its ownership/temporal/provenance metadata, and the
// per-kind schema row, all within one transaction so the insert is
// atomic per spec.md §4.8's "bulk inserts use a single transaction".
func (s *Store) CreateType(ctx context.Context, params storage.CreateTypeParams) (storage.OntologyMetadata, error) {
	id, title, description, schema, err := schemaAndTitle(params)
	if err != nil {
		return storage.OntologyMetadata{}, storage.Wrap(storage.KindValidation, "create_type", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return storage.OntologyMetadata{}, wrapPgError("create_type", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	ontologyID := uuid.New()
	now := temporal.Now[temporal.TransactionTime]()
	validityRange, err := mustUnbounded(now)
	if err != nil {
		return storage.OntologyMetadata{}, storage.Wrap(storage.KindFatal, "create_type", err)
	}
	txRange, err := temporal.ToRange(validityRange)
	if err != nil {
		return storage.OntologyMetadata{}, storage.Wrap(storage.KindFatal, "create_type", err)
	}
	provenance, err := json.Marshal(params.Provided)
	if err != nil {
		return storage.OntologyMetadata{}, storage.Wrap(storage.KindFatal, "create_type", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO `+sqlcompiler.TableOntologyIds.String()+` (ontology_id, base_url, version) VALUES ($1, $2, $3)`,
		ontologyID, id.BaseURL.String(), id.Version,
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return storage.OntologyMetadata{}, storage.WrapID(storage.KindConflict, "create_type", id.BaseURL.String(), storage.ErrBaseUrlAlreadyExists)
		}
		return storage.OntologyMetadata{}, wrapPgError("create_type", err)
	}

	if err := insertOwnership(ctx, tx, ontologyID, params.Owner); err != nil {
		return storage.OntologyMetadata{}, wrapPgError("create_type", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO `+sqlcompiler.TableOntologyTemporalMetadata.String()+` (ontology_id, transaction_time, provenance, created_by_id) VALUES ($1, $2, $3, $4)`,
		ontologyID, txRange, provenance, params.ActorID.UUID,
	); err != nil {
		return storage.OntologyMetadata{}, wrapPgError("create_type", err)
	}

	table := kindTable(params.Kind)
	if _, err := tx.Exec(ctx,
		`INSERT INTO `+table.String()+` (ontology_id, base_url, version, title, description, schema) VALUES ($1, $2, $3, $4, $5, $6::jsonb)`,
		ontologyID, id.BaseURL.String(), id.Version, title, description, schema,
	); err != nil {
		return storage.OntologyMetadata{}, wrapPgError("create_type", err)
	}

	if err := insertOntologyReferences(ctx, tx, params); err != nil {
		return storage.OntologyMetadata{}, wrapPgError("create_type", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return storage.OntologyMetadata{}, wrapPgError("create_type", err)
	}

	return storage.OntologyMetadata{
		RecordID:        id,
		Ownership:       params.Owner,
		TransactionTime: validityRange,
		Provenance:      ident.EditionProvenance{CreatedByID: params.ActorID, Provided: params.Provided},
	}, nil
}

// UpdateType assigns BaseURL its next version and otherwise follows the
// same insert shape as CreateType.
func (s *Store) UpdateType(ctx context.Context, params storage.UpdateTypeParams) (storage.OntologyMetadata, error) {
	table := kindTable(params.Kind)

	var nextVersion ident.OntologyTypeVersion
	err := s.queryRowContext(ctx, func(row pgx.Row) error {
		var maxVersion *uint32
		if err := row.Scan(&maxVersion); err != nil {
			return err
		}
		if maxVersion == nil {
			return storage.WrapID(storage.KindReference, "update_type", params.BaseURL.String(), fmt.Errorf("base URL does not exist"))
		}
		nextVersion = ident.OntologyTypeVersion(*maxVersion + 1)
		return nil
	}, `SELECT MAX(version) FROM `+table.String()+` WHERE base_url = $1`, params.BaseURL.String())
	if err != nil {
		return storage.OntologyMetadata{}, err
	}

	create := storage.CreateTypeParams{
		Kind: params.Kind, DataType: params.DataType, PropertyType: params.PropertyType, EntityType: params.EntityType,
		ActorID: params.ActorID, Provided: params.Provided,
	}
	switch params.Kind {
	case storage.DataTypeKind:
		create.DataType.ID.Version = nextVersion
	case storage.PropertyTypeKind:
		create.PropertyType.ID.Version = nextVersion
	case storage.EntityTypeKind:
		create.EntityType.ID.Version = nextVersion
	}
	return s.CreateType(ctx, create)
}

// ArchiveType closes id's transaction_time interval, refusing if other
// live editions still reference it unless cascade is set.
func (s *Store) ArchiveType(ctx context.Context, id ident.VersionedUrl, actorID ident.ActorId, cascade bool) error {
	kind, table, err := s.resolveKind(ctx, id)
	if err != nil {
		return err
	}

	if !cascade {
		live, err := s.hasLiveReferences(ctx, kind, id)
		if err != nil {
			return err
		}
		if live {
			return storage.WrapID(storage.KindConflict, "archive_type", id.String(), storage.ErrLiveReferencesExist)
		}
	}

	_, err = s.execContext(ctx,
		`UPDATE `+sqlcompiler.TableOntologyTemporalMetadata.String()+` SET transaction_time = tstzrange(lower(transaction_time), $1, '[)'), archived_by_id = $2
		 WHERE ontology_id = (SELECT ontology_id FROM `+table.String()+` WHERE base_url = $3 AND version = $4)`,
		time.Now().UTC(), actorID.UUID, id.BaseURL.String(), id.Version,
	)
	return wrapPgError("archive_type", err)
}

// resolveKind discovers which per-kind table id's edition lives in, since
// ArchiveType's public contract (spec.md §4.8) takes a bare VersionedUrl
// without a kind tag.
func (s *Store) resolveKind(ctx context.Context, id ident.VersionedUrl) (storage.TypeKind, sqlcompiler.Table, error) {
	candidates := []storage.TypeKind{storage.DataTypeKind, storage.PropertyTypeKind, storage.EntityTypeKind}
	for _, kind := range candidates {
		table := kindTable(kind)
		var exists bool
		err := s.queryRowContext(ctx, func(row pgx.Row) error {
			return row.Scan(&exists)
		}, `SELECT EXISTS(SELECT 1 FROM `+table.String()+` WHERE base_url = $1 AND version = $2)`,
			id.BaseURL.String(), id.Version,
		)
		if err != nil {
			return 0, sqlcompiler.Table{}, wrapPgError("archive_type", err)
		}
		if exists {
			return kind, table, nil
		}
	}
	return 0, sqlcompiler.Table{}, storage.WrapID(storage.KindReference, "archive_type", id.String(), storage.ErrNotFound)
}

func (s *Store) hasLiveReferences(ctx context.Context, kind storage.TypeKind, id ident.VersionedUrl) (bool, error) {
	for _, joinTable := range joinTablesReferencing(kind) {
		baseCol, versionCol := "target_base_url", "target_version"
		if joinTable.Name == sqlcompiler.TableEntityIsOfType.Name {
			baseCol, versionCol = "entity_type_base_url", "entity_type_version"
		}
		var exists bool
		err := s.queryRowContext(ctx, func(row pgx.Row) error {
			return row.Scan(&exists)
		}, `SELECT EXISTS(SELECT 1 FROM `+joinTable.String()+` WHERE `+baseCol+` = $1 AND `+versionCol+` = $2)`,
			id.BaseURL.String(), id.Version,
		)
		if err != nil {
			return false, wrapPgError("archive_type", err)
		}
		if exists {
			return true, nil
		}
	}
	return false, nil
}

// insertOwnership records params.Owner's owned-by-web or fetched-externally
// row. UpdateType never supplies an owner (UpdateTypeParams carries none,
// matching the memory backend, which leaves a bumped edition's ownership
// unset too), so a zero Ownership is left unrecorded rather than treated as
// external with a zero FetchedAt.
func insertOwnership(ctx context.Context, tx pgx.Tx, ontologyID uuid.UUID, owner ident.Ownership) error {
	switch {
	case owner.IsOwned():
		_, err := tx.Exec(ctx,
			`INSERT INTO `+sqlcompiler.TableOntologyIds.String()+`_owned (ontology_id, web_id) VALUES ($1, $2)`,
			ontologyID, uuid.UUID(*owner.Owned),
		)
		return err
	case owner.External != nil:
		_, err := tx.Exec(ctx,
			`INSERT INTO `+sqlcompiler.TableOntologyIds.String()+`_external (ontology_id, fetched_at) VALUES ($1, $2)`,
			ontologyID, owner.External.FetchedAt.Time(),
		)
		return err
	default:
		return nil
	}
}

func mustUnbounded(now temporal.Timestamp[temporal.TransactionTime]) (temporal.Interval[temporal.Timestamp[temporal.TransactionTime]], error) {
	return temporal.LeftClosed[temporal.Timestamp[temporal.TransactionTime]](now, temporal.UnboundedBound[temporal.Timestamp[temporal.TransactionTime]]())
}

// insertOntologyReferences populates the ontology-to-ontology join tables
// the query compiler and ArchiveType's live-reference check both read,
// mirroring the reference fields the in-memory backend walks directly off
// the decoded PropertyType/EntityType structs.
func insertOntologyReferences(ctx context.Context, tx pgx.Tx, params storage.CreateTypeParams) error {
	switch params.Kind {
	case storage.PropertyTypeKind:
		pt := params.PropertyType
		for _, alt := range pt.OneOf {
			if alt.DataTypeRef != nil {
				if err := insertEdgeRow(ctx, tx, sqlcompiler.TablePropertyTypeConstrainsValuesOn, pt.ID, alt.DataTypeRef.URL); err != nil {
					return err
				}
			}
			for _, slot := range alt.Object {
				if err := insertEdgeRow(ctx, tx, sqlcompiler.TablePropertyTypeConstrainsPropertiesOn, pt.ID, propertyRefURL(slot)); err != nil {
					return err
				}
			}
		}
	case storage.EntityTypeKind:
		et := params.EntityType
		for _, ancestor := range et.InheritsFrom {
			if err := insertEdgeRow(ctx, tx, sqlcompiler.TableEntityTypeInheritsFrom, et.ID, ancestor.URL); err != nil {
				return err
			}
		}
		for _, slot := range et.Properties {
			if err := insertEdgeRow(ctx, tx, sqlcompiler.TableEntityTypeConstrainsPropertiesOn, et.ID, propertyRefURL(slot)); err != nil {
				return err
			}
		}
		for linkType, destinations := range et.Links {
			if err := insertEdgeRow(ctx, tx, sqlcompiler.TableEntityTypeConstrainsLinksOn, et.ID, linkType); err != nil {
				return err
			}
			for _, dest := range destinations.Array.Items.Possibilities {
				if err := insertEdgeRow(ctx, tx, sqlcompiler.TableEntityTypeConstrainsLinkDestinationsOn, et.ID, dest.URL); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func insertEdgeRow(ctx context.Context, tx pgx.Tx, table sqlcompiler.Table, src, dst ident.VersionedUrl) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO `+table.String()+` (source_base_url, source_version, target_base_url, target_version) VALUES ($1, $2, $3, $4)`,
		src.BaseURL.String(), src.Version, dst.BaseURL.String(), dst.Version,
	)
	return err
}

// propertyRefURL unwraps a property slot to the VersionedUrl it points
// at, regardless of whether the schema author wrote it as a bare value
// or a single-item array.
func propertyRefURL(slot ontology.ValueOrArray[ontology.PropertyTypeReference]) ident.VersionedUrl {
	if slot.IsArray() {
		return slot.Array.Items.URL
	}
	return slot.Value.URL
}
