package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/coregraph/typegraph/internal/entity"
	"github.com/coregraph/typegraph/internal/ident"
	"github.com/coregraph/typegraph/internal/sqlcompiler"
	"github.com/coregraph/typegraph/internal/storage"
	"github.com/coregraph/typegraph/internal/temporal"
)

// postgresRestoreTx stages a snapshot restore in one transaction: the
// high-volume entity stream loads through a `CREATE TEMPORARY TABLE
// Entities_tmp (LIKE Entities INCLUDING ALL) ON COMMIT DROP` staging
// table via CopyFrom, per spec.md §4.9's begin/write/commit phases; the
// lower-volume ontology/principal/policy streams are buffered in Go and
// applied with pgx.Batch at Commit, since their rows also need
// ontology_id/join-table fan-out that a bare bulk copy can't express.
// Nothing is visible to other sessions until Commit, and Rollback aborts
// tx outright.
type postgresRestoreTx struct {
	store *Store
	tx    pgx.Tx
	done  bool

	dataTypes     []storage.DataTypeWithMetadata
	propertyTypes []storage.PropertyTypeWithMetadata
	entityTypes   []storage.EntityTypeWithMetadata
	webs          []storage.WebRecord
	actors        []storage.ActorRecord
	roles         []storage.RoleRecord
	entities      []entity.Entity
	policies      []storage.PolicyRecord
}

// BeginRestore opens the restore transaction and creates the Entities_tmp
// staging table.
func (s *Store) BeginRestore(ctx context.Context) (storage.RestoreTx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, wrapPgError("restore_begin", err)
	}
	if _, err := tx.Exec(ctx,
		`CREATE TEMPORARY TABLE `+sqlcompiler.TableEntities.Staging().String()+
			` (LIKE `+sqlcompiler.TableEntities.String()+` INCLUDING ALL) ON COMMIT DROP`,
	); err != nil {
		tx.Rollback(ctx) //nolint:errcheck
		return nil, wrapPgError("restore_begin", err)
	}
	return &postgresRestoreTx{store: s, tx: tx}, nil
}

func (t *postgresRestoreTx) WriteDataTypes(_ context.Context, batch []storage.DataTypeWithMetadata) error {
	t.dataTypes = append(t.dataTypes, batch...)
	return nil
}

func (t *postgresRestoreTx) WritePropertyTypes(_ context.Context, batch []storage.PropertyTypeWithMetadata) error {
	t.propertyTypes = append(t.propertyTypes, batch...)
	return nil
}

func (t *postgresRestoreTx) WriteEntityTypes(_ context.Context, batch []storage.EntityTypeWithMetadata) error {
	t.entityTypes = append(t.entityTypes, batch...)
	return nil
}

func (t *postgresRestoreTx) WriteWebs(_ context.Context, batch []storage.WebRecord) error {
	t.webs = append(t.webs, batch...)
	return nil
}

func (t *postgresRestoreTx) WriteActors(_ context.Context, batch []storage.ActorRecord) error {
	t.actors = append(t.actors, batch...)
	return nil
}

func (t *postgresRestoreTx) WriteRoles(_ context.Context, batch []storage.RoleRecord) error {
	t.roles = append(t.roles, batch...)
	return nil
}

func (t *postgresRestoreTx) WritePolicies(_ context.Context, batch []storage.PolicyRecord) error {
	t.policies = append(t.policies, batch...)
	return nil
}

// WriteEntities copies batch straight into Entities_tmp, the stream
// chunking matters most for since entities are typically the bulk of a
// snapshot's volume.
func (t *postgresRestoreTx) WriteEntities(ctx context.Context, batch []entity.Entity) error {
	rows := make([][]any, 0, len(batch))
	for _, e := range batch {
		props, err := json.Marshal(e.Properties)
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
		rows = append(rows, []any{
			e.ID.EditionID.String(), e.ID.EntityID.WebID.String(), e.ID.EntityID.EntityUUID.String(), draftArg(e.ID.EntityID.DraftID),
			e.Metadata.Archived, decisionRange, transactionRange, props, e.Metadata.EditionProvenance.CreatedByID.UUID,
		})
	}
	if _, err := t.tx.CopyFrom(ctx,
		pgx.Identifier{sqlcompiler.TableEntities.Staging().String()},
		[]string{"edition_id", "web_id", "entity_uuid", "draft_id", "archived", "decision_time", "transaction_time", "properties", "created_by_id"},
		pgx.CopyFromRows(rows),
	); err != nil {
		return wrapPgError("restore_write_entities", err)
	}
	t.entities = append(t.entities, batch...)
	return nil
}

// Commit applies every staged stream inside the restore transaction:
// ontology types and principal/policy records through batched inserts,
// then the staged entity rows moved from Entities_tmp into Entities,
// followed by their join-table rows (which must wait until the entity
// rows they reference exist). When validate is true, link endpoints are
// checked against the fully-merged picture before the transaction
// commits; a failure rolls everything back.
func (t *postgresRestoreTx) Commit(ctx context.Context, validate bool) error {
	if t.done {
		return nil
	}

	if err := t.commitOntologyTypes(ctx); err != nil {
		t.tx.Rollback(ctx) //nolint:errcheck
		t.done = true
		return wrapPgError("restore_commit", err)
	}
	if err := t.commitPrincipalsAndPolicies(ctx); err != nil {
		t.tx.Rollback(ctx) //nolint:errcheck
		t.done = true
		return wrapPgError("restore_commit", err)
	}

	if _, err := t.tx.Exec(ctx,
		`INSERT INTO `+sqlcompiler.TableEntities.String()+` SELECT * FROM `+sqlcompiler.TableEntities.Staging().String(),
	); err != nil {
		t.tx.Rollback(ctx) //nolint:errcheck
		t.done = true
		return wrapPgError("restore_commit", err)
	}
	if err := t.commitEntityJoins(ctx); err != nil {
		t.tx.Rollback(ctx) //nolint:errcheck
		t.done = true
		return wrapPgError("restore_commit", err)
	}

	if validate {
		if err := t.validateLinkEndpoints(ctx); err != nil {
			t.tx.Rollback(ctx) //nolint:errcheck
			t.done = true
			return storage.Wrap(storage.KindValidation, "restore_commit", err)
		}
	}

	if err := t.tx.Commit(ctx); err != nil {
		t.done = true
		return wrapPgError("restore_commit", err)
	}
	t.done = true
	return nil
}

// Rollback aborts the restore transaction outright. A no-op once Commit
// has run, successfully or not, so callers can defer it unconditionally.
func (t *postgresRestoreTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	return t.tx.Rollback(ctx)
}

func (t *postgresRestoreTx) commitOntologyTypes(ctx context.Context) error {
	for _, dt := range t.dataTypes {
		schema, err := json.Marshal(dt.Schema)
		if err != nil {
			return err
		}
		if err := insertRestoredOntologyRow(ctx, t.tx, sqlcompiler.TableDataTypes, dt.Schema.ID, dt.Schema.Title, dt.Schema.Description, schema, dt.Metadata); err != nil {
			return err
		}
	}
	for _, pt := range t.propertyTypes {
		schema, err := json.Marshal(pt.Schema)
		if err != nil {
			return err
		}
		if err := insertRestoredOntologyRow(ctx, t.tx, sqlcompiler.TablePropertyTypes, pt.Schema.ID, pt.Schema.Title, pt.Schema.Description, schema, pt.Metadata); err != nil {
			return err
		}
	}
	for _, et := range t.entityTypes {
		schema, err := json.Marshal(et.Schema)
		if err != nil {
			return err
		}
		if err := insertRestoredOntologyRow(ctx, t.tx, sqlcompiler.TableEntityTypes, et.Schema.ID, et.Schema.Title, et.Schema.Description, schema, et.Metadata); err != nil {
			return err
		}
	}
	return nil
}

// insertRestoredOntologyRow reinserts one previously-dumped ontology
// edition, regenerating a fresh ontology_id since the original is not
// part of the wire format (only base_url/version identify an edition
// externally). Idempotent on (base_url, version): a restore replayed
// over data that is already present leaves it untouched, echoing
// `INSERT INTO X_tmp SELECT DISTINCT ...`'s within-batch dedup.
func insertRestoredOntologyRow(ctx context.Context, tx pgx.Tx, table sqlcompiler.Table, id ident.VersionedUrl, title, description string, schema []byte, meta storage.OntologyMetadata) error {
	var exists bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM `+table.String()+` WHERE base_url = $1 AND version = $2)`,
		id.BaseURL.String(), id.Version,
	).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return nil
	}

	ontologyID := uuid.New()
	if _, err := tx.Exec(ctx,
		`INSERT INTO `+sqlcompiler.TableOntologyIds.String()+` (ontology_id, base_url, version) VALUES ($1, $2, $3)`,
		ontologyID, id.BaseURL.String(), id.Version,
	); err != nil {
		return err
	}
	if err := insertOwnership(ctx, tx, ontologyID, meta.Ownership); err != nil {
		return err
	}
	txRange, err := temporal.ToRange(meta.TransactionTime)
	if err != nil {
		return err
	}
	provenance, err := json.Marshal(meta.Provenance.Provided)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO `+sqlcompiler.TableOntologyTemporalMetadata.String()+` (ontology_id, transaction_time, provenance, created_by_id, archived_by_id) VALUES ($1, $2, $3, $4, $5)`,
		ontologyID, txRange, provenance, meta.Provenance.CreatedByID.UUID, archivedByArg(meta.Provenance.ArchivedByID),
	); err != nil {
		return err
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO `+table.String()+` (ontology_id, base_url, version, title, description, schema) VALUES ($1, $2, $3, $4, $5, $6::jsonb)`,
		ontologyID, id.BaseURL.String(), id.Version, title, description, schema,
	)
	return err
}

func (t *postgresRestoreTx) commitPrincipalsAndPolicies(ctx context.Context) error {
	for _, w := range t.webs {
		if _, err := t.tx.Exec(ctx,
			`INSERT INTO `+sqlcompiler.TableWebs.String()+` (web_id) VALUES ($1) ON CONFLICT (web_id) DO NOTHING`,
			w.ID.String(),
		); err != nil {
			return err
		}
	}
	for _, a := range t.actors {
		if _, err := t.tx.Exec(ctx,
			`INSERT INTO `+sqlcompiler.TableActors.String()+` (actor_id) VALUES ($1) ON CONFLICT (actor_id) DO NOTHING`,
			a.ID.UUID,
		); err != nil {
			return err
		}
	}
	for _, r := range t.roles {
		if _, err := t.tx.Exec(ctx,
			`INSERT INTO `+sqlcompiler.TableRoles.String()+` (web_id, actor_id, role) VALUES ($1, $2, $3) ON CONFLICT (web_id, actor_id, role) DO NOTHING`,
			r.WebID.String(), r.ActorID.UUID, r.Role,
		); err != nil {
			return err
		}
	}
	for _, p := range t.policies {
		if _, err := t.tx.Exec(ctx,
			`INSERT INTO `+sqlcompiler.TablePolicies.String()+` (policy_id, document) VALUES ($1, $2::jsonb)
			 ON CONFLICT (policy_id) DO UPDATE SET document = EXCLUDED.document`,
			p.ID, []byte(p.Document),
		); err != nil {
			return err
		}
	}
	return nil
}

// commitEntityJoins inserts the EntityIsOfType/EntityHasLeftEntity/
// EntityHasRightEntity rows for every staged entity, run after the
// Entities_tmp -> Entities move so their foreign keys resolve.
func (t *postgresRestoreTx) commitEntityJoins(ctx context.Context) error {
	for _, e := range t.entities {
		for _, typeID := range e.Metadata.EntityTypeIDs {
			if _, err := t.tx.Exec(ctx,
				`INSERT INTO `+sqlcompiler.TableEntityIsOfType.String()+` (entity_uuid, entity_type_base_url, entity_type_version) VALUES ($1, $2, $3)
				 ON CONFLICT DO NOTHING`,
				e.ID.EntityID.EntityUUID.String(), typeID.BaseURL.String(), typeID.Version,
			); err != nil {
				return err
			}
		}
		if e.LinkData == nil {
			continue
		}
		if _, err := t.tx.Exec(ctx,
			`INSERT INTO `+sqlcompiler.TableEntityHasLeftEntity.String()+` (entity_uuid, left_entity_uuid, left_order) VALUES ($1, $2, $3)
			 ON CONFLICT DO NOTHING`,
			e.ID.EntityID.EntityUUID.String(), e.LinkData.LeftEntityID.EntityUUID.String(), (*float64)(e.LinkData.LeftOrder),
		); err != nil {
			return err
		}
		if _, err := t.tx.Exec(ctx,
			`INSERT INTO `+sqlcompiler.TableEntityHasRightEntity.String()+` (entity_uuid, right_entity_uuid, right_order) VALUES ($1, $2, $3)
			 ON CONFLICT DO NOTHING`,
			e.ID.EntityID.EntityUUID.String(), e.LinkData.RightEntityID.EntityUUID.String(), (*float64)(e.LinkData.RightOrder),
		); err != nil {
			return err
		}
	}
	return nil
}

// validateLinkEndpoints checks that every restored link's endpoints
// exist as live entities, the same check checkLinkEndpoints runs for
// CreateEntity, run here against the fully-merged post-restore state.
func (t *postgresRestoreTx) validateLinkEndpoints(ctx context.Context) error {
	for _, e := range t.entities {
		if e.LinkData == nil {
			continue
		}
		for _, id := range []ident.EntityId{e.LinkData.LeftEntityID, e.LinkData.RightEntityID} {
			var exists bool
			if err := t.tx.QueryRow(ctx,
				`SELECT EXISTS(SELECT 1 FROM `+sqlcompiler.TableEntities.String()+` WHERE web_id = $1 AND entity_uuid = $2 AND upper_inf(transaction_time))`,
				id.WebID.String(), id.EntityUUID.String(),
			).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return storage.WrapID(storage.KindReference, "restore_commit", id.EntityUUID.String(), storage.ErrNotFound)
			}
		}
	}
	return nil
}
