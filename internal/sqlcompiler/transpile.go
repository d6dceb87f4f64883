package sqlcompiler

import (
	"strconv"
	"strings"

	"github.com/coregraph/typegraph/internal/graphquery"
)

// Transpile is a total rendering function: given a finished
// SelectStatement and the parameters a SelectCompiler accumulated while
// building it, it produces the SQL text and the parameter list in the
// same positional order as the `$N` placeholders within it.
func Transpile(stmt *SelectStatement, params []graphquery.Parameter) (string, []graphquery.Parameter) {
	var b strings.Builder

	if !stmt.With.isEmpty() {
		b.WriteString("WITH ")
		for i, cte := range stmt.With.CTEs {
			if i > 0 {
				b.WriteString(", ")
			}
			cteSQL, _ := Transpile(cte.Statement, params)
			b.WriteString(cte.Name)
			b.WriteString(" AS (")
			b.WriteString(cteSQL)
			b.WriteString(")")
		}
		b.WriteString(" ")
	}

	b.WriteString("SELECT ")
	if len(stmt.Distinct) > 0 {
		b.WriteString("DISTINCT ")
	}
	columns := stmt.Distinct
	if len(columns) == 0 {
		columns = stmt.Selects
	}
	renderColumnList(&b, columns, stmt)

	b.WriteString(" FROM ")
	b.WriteString(stmt.From.String())

	for _, j := range stmt.Joins {
		b.WriteString(" ")
		b.WriteString(j.expr.render(j.expr.Table, j.fromAlias))
	}

	if stmt.Where != nil {
		b.WriteString(" WHERE ")
		b.WriteString(stmt.Where.sql)
	}

	if len(stmt.GroupBy) > 0 {
		b.WriteString(" GROUP BY ")
		renderColumnList(&b, stmt.GroupBy, stmt)
	}

	if len(stmt.OrderBy) > 0 {
		b.WriteString(" ORDER BY ")
		for i, ord := range stmt.OrderBy {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(ord.Column.Render(aliasFor(stmt, ord.Column.Table)))
			if ord.Direction == Descending {
				b.WriteString(" DESC")
			} else {
				b.WriteString(" ASC")
			}
		}
	}

	if stmt.Limit != nil {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(*stmt.Limit))
	}

	return b.String(), params
}

func renderColumnList(b *strings.Builder, columns []Column, stmt *SelectStatement) {
	if len(columns) == 0 {
		b.WriteString("*")
		return
	}
	for i, col := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(col.Render(aliasFor(stmt, col.Table)))
	}
}

// aliasFor finds which AliasedTable in stmt a column's table was bound
// under: the root `FROM` table, or one of the joins. Falls back to the
// root alias if the table was never joined (a compiler bug, not a user
// error, since every Column the compiler produces names a table it has
// itself bound).
func aliasFor(stmt *SelectStatement, table Table) AliasedTable {
	if table == stmt.From.Table {
		return stmt.From
	}
	for _, j := range stmt.Joins {
		if j.expr.Table.Table == table {
			return j.expr.Table
		}
	}
	return stmt.From
}
