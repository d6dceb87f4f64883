package graphquery

// PathSegment is the generic view of one Path value the compiler walks
// without needing to know its concrete variant type: a field name, and,
// for variants that traverse an edge, the Path continuing on the other
// side of it. JSONPath is set only for EntityQueryPath's Properties
// variant, whose terminal column is addressed by a JsonPath rather than a
// fixed name.
type PathSegment struct {
	FieldName string
	Nested    Path
	JSONPath  *JsonPath
}

// DataTypeQueryPath is the set of navigable fields for a data type
// filter/projection.
type DataTypeQueryPath struct {
	variant  dataTypePathVariant
	inherits *DataTypeQueryPath
}

type dataTypePathVariant int

const (
	dataTypePathBaseUrl dataTypePathVariant = iota
	dataTypePathVersion
	dataTypePathTitle
	dataTypePathDescription
	dataTypePathInheritsFrom
)

func DataTypeBaseUrl() DataTypeQueryPath     { return DataTypeQueryPath{variant: dataTypePathBaseUrl} }
func DataTypeVersion() DataTypeQueryPath     { return DataTypeQueryPath{variant: dataTypePathVersion} }
func DataTypeTitle() DataTypeQueryPath       { return DataTypeQueryPath{variant: dataTypePathTitle} }
func DataTypeDescription() DataTypeQueryPath { return DataTypeQueryPath{variant: dataTypePathDescription} }

// DataTypeInheritsFrom wraps the same path recursed through an ancestor
// data type edge, mirroring the original's boxed self-reference.
func DataTypeInheritsFrom(p DataTypeQueryPath) DataTypeQueryPath {
	return DataTypeQueryPath{variant: dataTypePathInheritsFrom, inherits: &p}
}

func (DataTypeQueryPath) pathNode()              {}
func (DataTypeQueryPath) RecordType() RecordType { return RecordDataType }

// Segment returns the generic view of p for the compiler to walk.
func (p DataTypeQueryPath) Segment() PathSegment {
	switch p.variant {
	case dataTypePathBaseUrl:
		return PathSegment{FieldName: "BaseUrl"}
	case dataTypePathVersion:
		return PathSegment{FieldName: "Version"}
	case dataTypePathTitle:
		return PathSegment{FieldName: "Title"}
	case dataTypePathDescription:
		return PathSegment{FieldName: "Description"}
	case dataTypePathInheritsFrom:
		return PathSegment{FieldName: "InheritsFrom", Nested: *p.inherits}
	default:
		return PathSegment{}
	}
}

// PropertyTypeQueryPath is the set of navigable fields for a property type
// filter/projection.
type PropertyTypeQueryPath struct {
	variant propertyTypePathVariant
	dataTy  *DataTypeQueryPath
	propTy  *PropertyTypeQueryPath
}

type propertyTypePathVariant int

const (
	propertyTypePathBaseUrl propertyTypePathVariant = iota
	propertyTypePathVersion
	propertyTypePathTitle
	propertyTypePathDescription
	propertyTypePathDataTypes
	propertyTypePathPropertyTypes
)

func PropertyTypeBaseUrl() PropertyTypeQueryPath { return PropertyTypeQueryPath{variant: propertyTypePathBaseUrl} }
func PropertyTypeVersion() PropertyTypeQueryPath { return PropertyTypeQueryPath{variant: propertyTypePathVersion} }
func PropertyTypeTitle() PropertyTypeQueryPath   { return PropertyTypeQueryPath{variant: propertyTypePathTitle} }
func PropertyTypeDescription() PropertyTypeQueryPath {
	return PropertyTypeQueryPath{variant: propertyTypePathDescription}
}

// PropertyTypeDataTypes traverses the property-to-data-type constraint edge.
func PropertyTypeDataTypes(p DataTypeQueryPath) PropertyTypeQueryPath {
	return PropertyTypeQueryPath{variant: propertyTypePathDataTypes, dataTy: &p}
}

// PropertyTypePropertyTypes traverses the nested property-type constraint
// edge (an object-valued property referencing further property types).
func PropertyTypePropertyTypes(p PropertyTypeQueryPath) PropertyTypeQueryPath {
	return PropertyTypeQueryPath{variant: propertyTypePathPropertyTypes, propTy: &p}
}

func (PropertyTypeQueryPath) pathNode()              {}
func (PropertyTypeQueryPath) RecordType() RecordType { return RecordPropertyType }

// Segment returns the generic view of p for the compiler to walk.
func (p PropertyTypeQueryPath) Segment() PathSegment {
	switch p.variant {
	case propertyTypePathBaseUrl:
		return PathSegment{FieldName: "BaseUrl"}
	case propertyTypePathVersion:
		return PathSegment{FieldName: "Version"}
	case propertyTypePathTitle:
		return PathSegment{FieldName: "Title"}
	case propertyTypePathDescription:
		return PathSegment{FieldName: "Description"}
	case propertyTypePathDataTypes:
		return PathSegment{FieldName: "DataTypes", Nested: *p.dataTy}
	case propertyTypePathPropertyTypes:
		return PathSegment{FieldName: "PropertyTypes", Nested: *p.propTy}
	default:
		return PathSegment{}
	}
}

// EntityTypeQueryPath is the set of navigable fields for an entity type
// filter/projection.
type EntityTypeQueryPath struct {
	variant  entityTypePathVariant
	inherits *EntityTypeQueryPath
	propTy   *PropertyTypeQueryPath
	linkedTo *EntityTypeQueryPath
}

type entityTypePathVariant int

const (
	entityTypePathBaseUrl entityTypePathVariant = iota
	entityTypePathVersion
	entityTypePathTitle
	entityTypePathDescription
	entityTypePathInheritsFrom
	entityTypePathProperties
	entityTypePathLinks
	entityTypePathLinkDestinations
)

func EntityTypeBaseUrl() EntityTypeQueryPath { return EntityTypeQueryPath{variant: entityTypePathBaseUrl} }
func EntityTypeVersion() EntityTypeQueryPath { return EntityTypeQueryPath{variant: entityTypePathVersion} }
func EntityTypeTitle() EntityTypeQueryPath   { return EntityTypeQueryPath{variant: entityTypePathTitle} }
func EntityTypeDescription() EntityTypeQueryPath {
	return EntityTypeQueryPath{variant: entityTypePathDescription}
}

// EntityTypeInheritsFrom traverses the entity type's inherits_from edge.
func EntityTypeInheritsFrom(p EntityTypeQueryPath) EntityTypeQueryPath {
	return EntityTypeQueryPath{variant: entityTypePathInheritsFrom, inherits: &p}
}

// EntityTypeProperties traverses the entity type's property constraint edge.
func EntityTypeProperties(p PropertyTypeQueryPath) EntityTypeQueryPath {
	return EntityTypeQueryPath{variant: entityTypePathProperties, propTy: &p}
}

// EntityTypeLinks traverses the entity type's link-type constraint edge.
func EntityTypeLinks(p EntityTypeQueryPath) EntityTypeQueryPath {
	return EntityTypeQueryPath{variant: entityTypePathLinks, linkedTo: &p}
}

// EntityTypeLinkDestinations traverses the link-destination constraint
// edge of a link entity type.
func EntityTypeLinkDestinations(p EntityTypeQueryPath) EntityTypeQueryPath {
	return EntityTypeQueryPath{variant: entityTypePathLinkDestinations, linkedTo: &p}
}

func (EntityTypeQueryPath) pathNode()              {}
func (EntityTypeQueryPath) RecordType() RecordType { return RecordEntityType }

// Segment returns the generic view of p for the compiler to walk.
func (p EntityTypeQueryPath) Segment() PathSegment {
	switch p.variant {
	case entityTypePathBaseUrl:
		return PathSegment{FieldName: "BaseUrl"}
	case entityTypePathVersion:
		return PathSegment{FieldName: "Version"}
	case entityTypePathTitle:
		return PathSegment{FieldName: "Title"}
	case entityTypePathDescription:
		return PathSegment{FieldName: "Description"}
	case entityTypePathInheritsFrom:
		return PathSegment{FieldName: "InheritsFrom", Nested: *p.inherits}
	case entityTypePathProperties:
		return PathSegment{FieldName: "Properties", Nested: *p.propTy}
	case entityTypePathLinks:
		return PathSegment{FieldName: "Links", Nested: *p.linkedTo}
	case entityTypePathLinkDestinations:
		return PathSegment{FieldName: "LinkDestinations", Nested: *p.linkedTo}
	default:
		return PathSegment{}
	}
}

// EntityQueryPath is the set of navigable fields for an entity
// filter/projection. Properties addresses into the JSON property bag via
// a JsonPath; the temporal and link fields name fixed columns.
type EntityQueryPath struct {
	variant      entityPathVariant
	jsonPath     *JsonPath
	entityType   *EntityTypeQueryPath
	linkedEntity *EntityQueryPath
}

type entityPathVariant int

const (
	entityPathUuid entityPathVariant = iota
	entityPathWebId
	entityPathDraftId
	entityPathProperties
	entityPathEntityType
	entityPathDecisionTime
	entityPathTransactionTime
	entityPathArchived
	entityPathLeftEntity
	entityPathRightEntity
)

func EntityUuid() EntityQueryPath     { return EntityQueryPath{variant: entityPathUuid} }
func EntityWebId() EntityQueryPath    { return EntityQueryPath{variant: entityPathWebId} }
func EntityDraftId() EntityQueryPath  { return EntityQueryPath{variant: entityPathDraftId} }
func EntityArchived() EntityQueryPath { return EntityQueryPath{variant: entityPathArchived} }
func EntityDecisionTime() EntityQueryPath {
	return EntityQueryPath{variant: entityPathDecisionTime}
}
func EntityTransactionTime() EntityQueryPath {
	return EntityQueryPath{variant: entityPathTransactionTime}
}

// EntityProperties addresses into the entity's property bag at jp.
func EntityProperties(jp JsonPath) EntityQueryPath {
	return EntityQueryPath{variant: entityPathProperties, jsonPath: &jp}
}

// EntityEntityType traverses the is-of-type edge to the entity's type.
func EntityEntityType(p EntityTypeQueryPath) EntityQueryPath {
	return EntityQueryPath{variant: entityPathEntityType, entityType: &p}
}

// EntityLeftEntity and EntityRightEntity traverse a link entity's
// has-left-entity/has-right-entity edges.
func EntityLeftEntity(p EntityQueryPath) EntityQueryPath {
	return EntityQueryPath{variant: entityPathLeftEntity, linkedEntity: &p}
}

func EntityRightEntity(p EntityQueryPath) EntityQueryPath {
	return EntityQueryPath{variant: entityPathRightEntity, linkedEntity: &p}
}

func (EntityQueryPath) pathNode()              {}
func (EntityQueryPath) RecordType() RecordType { return RecordEntity }

// Segment returns the generic view of p for the compiler to walk.
func (p EntityQueryPath) Segment() PathSegment {
	switch p.variant {
	case entityPathUuid:
		return PathSegment{FieldName: "Uuid"}
	case entityPathWebId:
		return PathSegment{FieldName: "WebId"}
	case entityPathDraftId:
		return PathSegment{FieldName: "DraftId"}
	case entityPathArchived:
		return PathSegment{FieldName: "Archived"}
	case entityPathDecisionTime:
		return PathSegment{FieldName: "DecisionTime"}
	case entityPathTransactionTime:
		return PathSegment{FieldName: "TransactionTime"}
	case entityPathProperties:
		return PathSegment{FieldName: "Properties", JSONPath: p.jsonPath}
	case entityPathEntityType:
		return PathSegment{FieldName: "EntityType", Nested: *p.entityType}
	case entityPathLeftEntity:
		return PathSegment{FieldName: "LeftEntity", Nested: *p.linkedEntity}
	case entityPathRightEntity:
		return PathSegment{FieldName: "RightEntity", Nested: *p.linkedEntity}
	default:
		return PathSegment{}
	}
}
