// Package sqlcompiler renders graphquery.Filter trees into parameterized
// SQL against the store's relational schema: ontology tables (DataTypes,
// PropertyTypes, EntityTypes, OntologyIds, OntologyTemporalMetadata,
// per-edge-kind join tables) and knowledge tables (Entities,
// EntityEditions).
package sqlcompiler

// Table is a named relation the compiler can select from or join
// against. Tmp marks the transient `_tmp` staging variant a snapshot
// restore writes into before the three-phase commit swaps it in.
type Table struct {
	Name string
	Tmp  bool
}

// String renders the table's SQL identifier, appending the `_tmp` suffix
// for staging variants.
func (t Table) String() string {
	if t.Tmp {
		return t.Name + "_tmp"
	}
	return t.Name
}

// Staging returns the `_tmp` variant of t.
func (t Table) Staging() Table {
	return Table{Name: t.Name, Tmp: true}
}

var (
	TableDataTypes                Table = Table{Name: "DataTypes"}
	TablePropertyTypes            Table = Table{Name: "PropertyTypes"}
	TableEntityTypes               Table = Table{Name: "EntityTypes"}
	TableOntologyIds               Table = Table{Name: "OntologyIds"}
	TableOntologyTemporalMetadata  Table = Table{Name: "OntologyTemporalMetadata"}
	TableEntities                   Table = Table{Name: "Entities"}
	TableEntityEditions             Table = Table{Name: "EntityEditions"}

	TableDataTypeInheritsFrom              Table = Table{Name: "DataTypeInheritsFrom"}
	TablePropertyTypeConstrainsValuesOn     Table = Table{Name: "PropertyTypeConstrainsValuesOn"}
	TablePropertyTypeConstrainsPropertiesOn Table = Table{Name: "PropertyTypeConstrainsPropertiesOn"}
	TableEntityTypeInheritsFrom              Table = Table{Name: "EntityTypeInheritsFrom"}
	TableEntityTypeConstrainsPropertiesOn     Table = Table{Name: "EntityTypeConstrainsPropertiesOn"}
	TableEntityTypeConstrainsLinksOn          Table = Table{Name: "EntityTypeConstrainsLinksOn"}
	TableEntityTypeConstrainsLinkDestinationsOn Table = Table{Name: "EntityTypeConstrainsLinkDestinationsOn"}
	TableEntityIsOfType                         Table = Table{Name: "EntityIsOfType"}
	TableEntityHasLeftEntity                    Table = Table{Name: "EntityHasLeftEntity"}
	TableEntityHasRightEntity                   Table = Table{Name: "EntityHasRightEntity"}

	// Webs, Actors, Roles and Policies back the snapshot pipeline's
	// passthrough principal/policy streams (storage.WebRecord et al.).
	// The compiler never selects or joins against them; they exist here
	// only so the storage layer and a future restore never disagree on a
	// table's name, the same reason every other Table lives in this file.
	TableWebs     Table = Table{Name: "Webs"}
	TableActors   Table = Table{Name: "Actors"}
	TableRoles    Table = Table{Name: "Roles"}
	TablePolicies Table = Table{Name: "Policies"}
)

// Column is a strongly-typed accessor naming a table, a column within it,
// and, for JSON-valued columns, one top-level field read with Postgres'
// `->>` operator (e.g. `schema->>'title'`).
type Column struct {
	Table     Table
	Name      string
	JSONField string // non-empty to render `table.name->>'jsonField'`
}

// Render writes the column reference qualified by the given alias.
func (c Column) Render(alias AliasedTable) string {
	base := alias.Alias.String(alias.Table) + "." + c.Name
	if c.JSONField == "" {
		return base
	}
	return base + "->>'" + c.JSONField + "'"
}
