package sqlcompiler

import "strconv"

// Alias identifies one occurrence of a table in a compiled statement.
// ConditionIndex distinguishes aliases introduced by different top-level
// filter conditions; ChainDepth counts hops along a single path's join
// chain; Number disambiguates repeated occurrences of the same
// (table, condition_index, chain_depth) within one chain.
type Alias struct {
	ConditionIndex int
	ChainDepth     int
	Number         int
}

// RootAlias is the alias a SelectCompiler seeds its base table with.
var RootAlias = Alias{}

// String renders the alias as `{table}_{ci}_{cd}_{n}`.
func (a Alias) String(table Table) string {
	return table.String() + "_" +
		strconv.Itoa(a.ConditionIndex) + "_" +
		strconv.Itoa(a.ChainDepth) + "_" +
		strconv.Itoa(a.Number)
}

// AliasedTable pairs a table with the alias it is referenced under in one
// compiled statement.
type AliasedTable struct {
	Table Table
	Alias Alias
}

// String renders the `AS` clause fragment: `table AS table_ci_cd_n`.
func (at AliasedTable) String() string {
	return at.Table.String() + " AS " + at.Alias.String(at.Table)
}
