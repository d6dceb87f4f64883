package graphquery

// Filter is an algebraic expression over a record type, evaluated by the
// SQL compiler (the store's C7 layer) into a WHERE clause.
type Filter interface {
	filterNode()
}

// All is the conjunction of its operands; an empty All is always true.
type All struct{ Operands []Filter }

// Any is the disjunction of its operands; an empty Any is always false.
type Any struct{ Operands []Filter }

// Not negates its operand.
type Not struct{ Operand Filter }

// Equal tests its two expressions for equality; NotEqual its negation.
type Equal struct{ LHS, RHS FilterExpression }
type NotEqual struct{ LHS, RHS FilterExpression }

// StartsWith, EndsWith and ContainsSegment are string/path predicates:
// LHS is tested against the literal prefix/suffix/segment named by RHS.
type StartsWith struct{ LHS, RHS FilterExpression }
type EndsWith struct{ LHS, RHS FilterExpression }
type ContainsSegment struct{ LHS, RHS FilterExpression }

// CosineDistance filters embeddings within threshold of one another under
// cosine distance.
type CosineDistance struct {
	LHS, RHS  FilterExpression
	Threshold FilterExpression
}

func (All) filterNode()             {}
func (Any) filterNode()             {}
func (Not) filterNode()             {}
func (Equal) filterNode()           {}
func (NotEqual) filterNode()        {}
func (StartsWith) filterNode()      {}
func (EndsWith) filterNode()        {}
func (ContainsSegment) filterNode() {}
func (CosineDistance) filterNode()  {}

// FilterExpression is one side of a Filter predicate: a navigable path, a
// single bound parameter, or a list of them (for IN-style predicates).
type FilterExpression interface {
	filterExpressionNode()
}

// PathExpression resolves to a column via a record's typed Path.
type PathExpression struct{ Path Path }

// ParameterExpression is a single bound literal.
type ParameterExpression struct{ Parameter Parameter }

// ParameterListExpression is an ordered list of bound literals.
type ParameterListExpression struct{ Parameters []Parameter }

func (PathExpression) filterExpressionNode()         {}
func (ParameterExpression) filterExpressionNode()    {}
func (ParameterListExpression) filterExpressionNode() {}

// Path is implemented by every record's typed path enum (DataTypeQueryPath,
// EntityQueryPath, EntityTypeQueryPath, PropertyTypeQueryPath), each of
// whose variants names a navigable field or, for recursive variants, wraps
// another Path of the same or a linked record type.
type Path interface {
	pathNode()
	// RecordType names which record's table the path is rooted at, used by
	// the compiler to pick the FROM table and the ForeignKeyReference set
	// a given segment's join resolves through.
	RecordType() RecordType
}

// RecordType enumerates the record kinds a Path/Filter can be compiled
// against.
type RecordType int

const (
	RecordDataType RecordType = iota
	RecordPropertyType
	RecordEntityType
	RecordEntity
)

func (r RecordType) String() string {
	switch r {
	case RecordDataType:
		return "DataType"
	case RecordPropertyType:
		return "PropertyType"
	case RecordEntityType:
		return "EntityType"
	case RecordEntity:
		return "Entity"
	default:
		return "unknown"
	}
}
