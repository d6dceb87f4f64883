package sqlcompiler

// condition is the compiler's rendered WHERE fragment: SQL text with
// `$1`-style placeholders. The parameters those placeholders refer to
// are held, in order, by the SelectCompiler (see Parameters).
type condition struct {
	sql string
}

func literalCondition(sql string) *condition { return &condition{sql: sql} }

func and(parts []*condition) *condition {
	return joinConditions(parts, " AND ", "TRUE")
}

func or(parts []*condition) *condition {
	return joinConditions(parts, " OR ", "FALSE")
}

func joinConditions(parts []*condition, sep, empty string) *condition {
	if len(parts) == 0 {
		return literalCondition(empty)
	}
	sql := "(" + parts[0].sql
	for _, p := range parts[1:] {
		sql += sep + p.sql
	}
	sql += ")"
	return literalCondition(sql)
}

func not(c *condition) *condition {
	return literalCondition("NOT (" + c.sql + ")")
}
