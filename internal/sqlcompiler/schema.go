package sqlcompiler

import "github.com/coregraph/typegraph/internal/graphquery"

// fieldSchema describes how one PathSegment's FieldName resolves against
// the table its parent path is rooted at: either a column on that same
// table, or a join to another table (with the record type the nested
// path on the far side of the join should be resolved against).
type fieldSchema struct {
	column         string // non-empty: a plain column on the current table
	jsonProperties bool   // true: EntityQueryPath.Properties, column resolved per-call from the JsonPath
	joinTable      Table
	joinRef        ForeignKeyReference
	nestedRecord   graphquery.RecordType

	// expectedKind is the semantic type a terminal column's value unifies
	// with. Only meaningful when column is set: join fields have no fixed
	// terminal type (resolution continues into the nested path), and JSON
	// field types are dynamic, so both leave expectedKind unchecked.
	expectedKind graphquery.ParameterKind
}

// baseTable names the table a SelectCompiler seeds `FROM` with for each
// record type.
func baseTable(rt graphquery.RecordType) Table {
	switch rt {
	case graphquery.RecordDataType:
		return TableDataTypes
	case graphquery.RecordPropertyType:
		return TablePropertyTypes
	case graphquery.RecordEntityType:
		return TableEntityTypes
	case graphquery.RecordEntity:
		return TableEntities
	default:
		panic("sqlcompiler: unknown record type")
	}
}

// schemaFor is the per-record-type field registry the compiler consults
// to turn one PathSegment into either a plain column access or a join.
func schemaFor(rt graphquery.RecordType) map[string]fieldSchema {
	switch rt {
	case graphquery.RecordDataType:
		return dataTypeSchema
	case graphquery.RecordPropertyType:
		return propertyTypeSchema
	case graphquery.RecordEntityType:
		return entityTypeSchema
	case graphquery.RecordEntity:
		return entitySchema
	default:
		panic("sqlcompiler: unknown record type")
	}
}

var dataTypeSchema = map[string]fieldSchema{
	"BaseUrl":     {column: "base_url", expectedKind: graphquery.ParamURL},
	"Version":     {column: "version", expectedKind: graphquery.ParamNumber},
	"Title":       {column: "title", expectedKind: graphquery.ParamText},
	"Description": {column: "description", expectedKind: graphquery.ParamText},
	"InheritsFrom": {
		joinTable:    TableDataTypeInheritsFrom,
		nestedRecord: graphquery.RecordDataType,
		joinRef: Double{
			Join:         [2]Column{{Name: "target_base_url"}, {Name: "target_version"}},
			On:           [2]Column{{Name: "source_base_url"}, {Name: "source_version"}},
			JoinNullable: false,
			OnNullable:   false,
		},
	},
}

var propertyTypeSchema = map[string]fieldSchema{
	"BaseUrl":     {column: "base_url", expectedKind: graphquery.ParamURL},
	"Version":     {column: "version", expectedKind: graphquery.ParamNumber},
	"Title":       {column: "title", expectedKind: graphquery.ParamText},
	"Description": {column: "description", expectedKind: graphquery.ParamText},
	"DataTypes": {
		joinTable:    TablePropertyTypeConstrainsValuesOn,
		nestedRecord: graphquery.RecordDataType,
		joinRef: Double{
			Join: [2]Column{{Name: "target_base_url"}, {Name: "target_version"}},
			On:   [2]Column{{Name: "source_base_url"}, {Name: "source_version"}},
		},
	},
	"PropertyTypes": {
		joinTable:    TablePropertyTypeConstrainsPropertiesOn,
		nestedRecord: graphquery.RecordPropertyType,
		joinRef: Double{
			Join: [2]Column{{Name: "target_base_url"}, {Name: "target_version"}},
			On:   [2]Column{{Name: "source_base_url"}, {Name: "source_version"}},
		},
	},
}

var entityTypeSchema = map[string]fieldSchema{
	"BaseUrl":     {column: "base_url", expectedKind: graphquery.ParamURL},
	"Version":     {column: "version", expectedKind: graphquery.ParamNumber},
	"Title":       {column: "title", expectedKind: graphquery.ParamText},
	"Description": {column: "description", expectedKind: graphquery.ParamText},
	"InheritsFrom": {
		joinTable:    TableEntityTypeInheritsFrom,
		nestedRecord: graphquery.RecordEntityType,
		joinRef: Double{
			Join: [2]Column{{Name: "target_base_url"}, {Name: "target_version"}},
			On:   [2]Column{{Name: "source_base_url"}, {Name: "source_version"}},
		},
	},
	"Properties": {
		joinTable:    TableEntityTypeConstrainsPropertiesOn,
		nestedRecord: graphquery.RecordPropertyType,
		joinRef: Double{
			Join: [2]Column{{Name: "target_base_url"}, {Name: "target_version"}},
			On:   [2]Column{{Name: "source_base_url"}, {Name: "source_version"}},
		},
	},
	"Links": {
		joinTable:    TableEntityTypeConstrainsLinksOn,
		nestedRecord: graphquery.RecordEntityType,
		joinRef: Double{
			Join: [2]Column{{Name: "target_base_url"}, {Name: "target_version"}},
			On:   [2]Column{{Name: "source_base_url"}, {Name: "source_version"}},
		},
	},
	"LinkDestinations": {
		joinTable:    TableEntityTypeConstrainsLinkDestinationsOn,
		nestedRecord: graphquery.RecordEntityType,
		joinRef: Double{
			Join: [2]Column{{Name: "target_base_url"}, {Name: "target_version"}},
			On:   [2]Column{{Name: "source_base_url"}, {Name: "source_version"}},
		},
	},
}

var entitySchema = map[string]fieldSchema{
	"Uuid":            {column: "entity_uuid", expectedKind: graphquery.ParamUUID},
	"WebId":           {column: "web_id", expectedKind: graphquery.ParamUUID},
	"DraftId":         {column: "draft_id", expectedKind: graphquery.ParamUUID},
	"Archived":        {column: "archived", expectedKind: graphquery.ParamBool},
	"DecisionTime":    {column: "decision_time", expectedKind: graphquery.ParamTimestamp},
	"TransactionTime": {column: "transaction_time", expectedKind: graphquery.ParamTimestamp},
	"Properties":      {jsonProperties: true},
	"EntityType": {
		joinTable:    TableEntityIsOfType,
		nestedRecord: graphquery.RecordEntityType,
		joinRef: Single{
			Join:         Column{Name: "entity_type_base_url"},
			On:           Column{Name: "entity_uuid"},
			JoinNullable: false,
			OnNullable:   false,
		},
	},
	"LeftEntity": {
		joinTable:    TableEntityHasLeftEntity,
		nestedRecord: graphquery.RecordEntity,
		joinRef: Single{
			Join:         Column{Name: "left_entity_uuid"},
			On:           Column{Name: "entity_uuid"},
			JoinNullable: true,
			OnNullable:   false,
		},
	},
	"RightEntity": {
		joinTable:    TableEntityHasRightEntity,
		nestedRecord: graphquery.RecordEntity,
		joinRef: Single{
			Join:         Column{Name: "right_entity_uuid"},
			On:           Column{Name: "entity_uuid"},
			JoinNullable: true,
			OnNullable:   false,
		},
	},
}
