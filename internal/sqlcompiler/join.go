package sqlcompiler

// ForeignKeyReference drives JoinExpression construction for one path
// segment that leaves its current table. Single covers the common
// one-column foreign key (e.g. EntityEditions.entity_edition_id ->
// Entities.entity_edition_id); Double covers composite keys such as an
// ontology edge table keyed on (source_base_url, source_version).
type ForeignKeyReference interface {
	foreignKeyReference()
}

// Single is a foreign key expressed by one column pair.
type Single struct {
	Join Column
	On   Column

	// JoinNullable/OnNullable record whether the join/on side may be
	// null, used to pick the JoinType.
	JoinNullable bool
	OnNullable   bool
}

// Double is a foreign key expressed by two column pairs, ANDed together
// (a composite key).
type Double struct {
	Join [2]Column
	On   [2]Column

	JoinNullable bool
	OnNullable   bool
}

func (Single) foreignKeyReference() {}
func (Double) foreignKeyReference() {}

// JoinType is the kind of SQL join a ForeignKeyReference's nullability
// determines.
type JoinType int

const (
	JoinInner JoinType = iota
	JoinLeftOuter
	JoinRightOuter
	JoinFullOuter
)

func (jt JoinType) String() string {
	switch jt {
	case JoinInner:
		return "INNER JOIN"
	case JoinLeftOuter:
		return "LEFT OUTER JOIN"
	case JoinRightOuter:
		return "RIGHT OUTER JOIN"
	case JoinFullOuter:
		return "FULL OUTER JOIN"
	default:
		return "INNER JOIN"
	}
}

// JoinTypeFor derives a JoinType from the bound nullability of a foreign
// key reference's two sides.
func JoinTypeFor(joinNullable, onNullable bool) JoinType {
	switch {
	case !joinNullable && !onNullable:
		return JoinInner
	case joinNullable && !onNullable:
		return JoinLeftOuter
	case !joinNullable && onNullable:
		return JoinRightOuter
	default:
		return JoinFullOuter
	}
}

// JoinCondition is one `left = right` equality ANDed into a join's ON
// clause.
type JoinCondition struct {
	Left  Column
	Right Column
}

// JoinExpression is one join the compiler has emitted: the table/alias
// being joined in, its type, and the conditions attaching it to
// already-bound aliases.
type JoinExpression struct {
	Type       JoinType
	Table      AliasedTable
	Conditions []JoinCondition
}

// FromForeignKey builds a JoinExpression from a ForeignKeyReference,
// joining dest in under destAlias and matching it against srcAlias.
func FromForeignKey(ref ForeignKeyReference, dest Table, destAlias Alias, srcAlias Alias) JoinExpression {
	destTable := AliasedTable{Table: dest, Alias: destAlias}

	switch r := ref.(type) {
	case Single:
		return JoinExpression{
			Type:       JoinTypeFor(r.JoinNullable, r.OnNullable),
			Table:      destTable,
			Conditions: []JoinCondition{{Left: r.Join, Right: r.On}},
		}
	case Double:
		return JoinExpression{
			Type:  JoinTypeFor(r.JoinNullable, r.OnNullable),
			Table: destTable,
			Conditions: []JoinCondition{
				{Left: r.Join[0], Right: r.On[0]},
				{Left: r.Join[1], Right: r.On[1]},
			},
		}
	default:
		panic("sqlcompiler: unknown ForeignKeyReference implementation")
	}
}

// render writes the `JOIN ... ON ...` SQL fragment for one join, given
// the aliases its conditions' tables were bound under.
func (j JoinExpression) render(destAlias, srcAlias AliasedTable) string {
	sql := j.Type.String() + " " + j.Table.String() + " ON "
	for i, cond := range j.Conditions {
		if i > 0 {
			sql += " AND "
		}
		sql += cond.Left.Render(destAlias) + " = " + cond.Right.Render(srcAlias)
	}
	return sql
}
