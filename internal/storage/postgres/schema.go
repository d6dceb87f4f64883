package postgres

import "context"

// schemaStatements creates every table this package's queries name, in
// dependency order. Each is idempotent (CREATE TABLE IF NOT EXISTS) so a
// process can call EnsureSchema on every startup without a version
// ledger: this store bootstraps the meta-schema once rather than
// migrating it across revisions.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS Webs (
		web_id UUID PRIMARY KEY
	)`,
	`CREATE TABLE IF NOT EXISTS Actors (
		actor_id UUID PRIMARY KEY
	)`,
	`CREATE TABLE IF NOT EXISTS OntologyIds (
		ontology_id UUID PRIMARY KEY,
		base_url TEXT NOT NULL,
		version INTEGER NOT NULL,
		UNIQUE (base_url, version)
	)`,
	`CREATE TABLE IF NOT EXISTS OntologyIds_owned (
		ontology_id UUID PRIMARY KEY REFERENCES OntologyIds (ontology_id),
		web_id UUID NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS OntologyIds_external (
		ontology_id UUID PRIMARY KEY REFERENCES OntologyIds (ontology_id),
		fetched_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS OntologyTemporalMetadata (
		ontology_id UUID PRIMARY KEY REFERENCES OntologyIds (ontology_id),
		transaction_time TSTZRANGE NOT NULL,
		provenance JSONB NOT NULL,
		created_by_id UUID NOT NULL,
		archived_by_id UUID
	)`,
	`CREATE TABLE IF NOT EXISTS DataTypes (
		ontology_id UUID NOT NULL REFERENCES OntologyIds (ontology_id),
		base_url TEXT NOT NULL,
		version INTEGER NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		schema JSONB NOT NULL,
		PRIMARY KEY (base_url, version)
	)`,
	`CREATE TABLE IF NOT EXISTS PropertyTypes (
		ontology_id UUID NOT NULL REFERENCES OntologyIds (ontology_id),
		base_url TEXT NOT NULL,
		version INTEGER NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		schema JSONB NOT NULL,
		PRIMARY KEY (base_url, version)
	)`,
	`CREATE TABLE IF NOT EXISTS EntityTypes (
		ontology_id UUID NOT NULL REFERENCES OntologyIds (ontology_id),
		base_url TEXT NOT NULL,
		version INTEGER NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		schema JSONB NOT NULL,
		PRIMARY KEY (base_url, version)
	)`,

	// Ontology-to-ontology join tables. DataTypeInheritsFrom is declared
	// for schema parity with sqlcompiler's field registry but never
	// populated: DataType carries no InheritsFrom field to source rows
	// from (see DESIGN.md).
	`CREATE TABLE IF NOT EXISTS DataTypeInheritsFrom (
		source_base_url TEXT NOT NULL, source_version INTEGER NOT NULL,
		target_base_url TEXT NOT NULL, target_version INTEGER NOT NULL,
		PRIMARY KEY (source_base_url, source_version, target_base_url, target_version)
	)`,
	`CREATE TABLE IF NOT EXISTS PropertyTypeConstrainsValuesOn (
		source_base_url TEXT NOT NULL, source_version INTEGER NOT NULL,
		target_base_url TEXT NOT NULL, target_version INTEGER NOT NULL,
		PRIMARY KEY (source_base_url, source_version, target_base_url, target_version)
	)`,
	`CREATE TABLE IF NOT EXISTS PropertyTypeConstrainsPropertiesOn (
		source_base_url TEXT NOT NULL, source_version INTEGER NOT NULL,
		target_base_url TEXT NOT NULL, target_version INTEGER NOT NULL,
		PRIMARY KEY (source_base_url, source_version, target_base_url, target_version)
	)`,
	`CREATE TABLE IF NOT EXISTS EntityTypeInheritsFrom (
		source_base_url TEXT NOT NULL, source_version INTEGER NOT NULL,
		target_base_url TEXT NOT NULL, target_version INTEGER NOT NULL,
		PRIMARY KEY (source_base_url, source_version, target_base_url, target_version)
	)`,
	`CREATE TABLE IF NOT EXISTS EntityTypeConstrainsPropertiesOn (
		source_base_url TEXT NOT NULL, source_version INTEGER NOT NULL,
		target_base_url TEXT NOT NULL, target_version INTEGER NOT NULL,
		PRIMARY KEY (source_base_url, source_version, target_base_url, target_version)
	)`,
	`CREATE TABLE IF NOT EXISTS EntityTypeConstrainsLinksOn (
		source_base_url TEXT NOT NULL, source_version INTEGER NOT NULL,
		target_base_url TEXT NOT NULL, target_version INTEGER NOT NULL,
		PRIMARY KEY (source_base_url, source_version, target_base_url, target_version)
	)`,
	`CREATE TABLE IF NOT EXISTS EntityTypeConstrainsLinkDestinationsOn (
		source_base_url TEXT NOT NULL, source_version INTEGER NOT NULL,
		target_base_url TEXT NOT NULL, target_version INTEGER NOT NULL,
		PRIMARY KEY (source_base_url, source_version, target_base_url, target_version)
	)`,

	`CREATE TABLE IF NOT EXISTS Roles (
		web_id UUID NOT NULL,
		actor_id UUID NOT NULL,
		role TEXT NOT NULL,
		PRIMARY KEY (web_id, actor_id, role)
	)`,
	`CREATE TABLE IF NOT EXISTS Policies (
		policy_id UUID PRIMARY KEY,
		document JSONB NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS Entities (
		edition_id UUID PRIMARY KEY,
		web_id UUID NOT NULL,
		entity_uuid UUID NOT NULL,
		draft_id UUID,
		archived BOOLEAN NOT NULL DEFAULT FALSE,
		decision_time TSTZRANGE NOT NULL,
		transaction_time TSTZRANGE NOT NULL,
		properties JSONB NOT NULL,
		provenance JSONB NOT NULL,
		created_by_id UUID NOT NULL,
		archived_by_id UUID,
		created_at_transaction_time TIMESTAMPTZ NOT NULL,
		created_at_decision_time TIMESTAMPTZ NOT NULL,
		first_non_draft_created_at_transaction_time TIMESTAMPTZ,
		first_non_draft_created_at_decision_time TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS entities_entity_uuid_idx ON Entities (entity_uuid)`,
	`CREATE INDEX IF NOT EXISTS entities_current_edition_idx ON Entities (web_id, entity_uuid, draft_id) WHERE upper_inf(transaction_time)`,

	`CREATE TABLE IF NOT EXISTS EntityIsOfType (
		entity_uuid UUID NOT NULL,
		entity_type_base_url TEXT NOT NULL,
		entity_type_version INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS entity_is_of_type_entity_idx ON EntityIsOfType (entity_uuid)`,
	`CREATE INDEX IF NOT EXISTS entity_is_of_type_type_idx ON EntityIsOfType (entity_type_base_url, entity_type_version)`,

	`CREATE TABLE IF NOT EXISTS EntityHasLeftEntity (
		entity_uuid UUID NOT NULL,
		left_entity_uuid UUID NOT NULL,
		left_order DOUBLE PRECISION
	)`,
	`CREATE INDEX IF NOT EXISTS entity_has_left_entity_idx ON EntityHasLeftEntity (entity_uuid)`,
	`CREATE INDEX IF NOT EXISTS entity_has_left_entity_reverse_idx ON EntityHasLeftEntity (left_entity_uuid)`,

	`CREATE TABLE IF NOT EXISTS EntityHasRightEntity (
		entity_uuid UUID NOT NULL,
		right_entity_uuid UUID NOT NULL,
		right_order DOUBLE PRECISION
	)`,
	`CREATE INDEX IF NOT EXISTS entity_has_right_entity_idx ON EntityHasRightEntity (entity_uuid)`,
	`CREATE INDEX IF NOT EXISTS entity_has_right_entity_reverse_idx ON EntityHasRightEntity (right_entity_uuid)`,
}

// EnsureSchema creates every table and index this package's queries
// depend on if they don't already exist. Safe to call repeatedly and
// concurrently; it does not track or apply incremental revisions.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return wrapPgError("ensure_schema", err)
		}
	}
	return nil
}
