package sqlcompiler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/coregraph/typegraph/internal/graphquery"
)

// TypeMismatchError is returned when a Parameter's literal kind cannot
// unify with the semantic type of the path it is compared against.
type TypeMismatchError struct {
	Path      string
	ParamKind graphquery.ParameterKind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("sqlcompiler: parameter kind %d does not unify with path %q", e.ParamKind, e.Path)
}

// SelectCompiler incrementally builds a SelectStatement from a record
// type's root table, walking each filter's paths to resolve joins and
// allocate parameters.
type SelectCompiler struct {
	recordType graphquery.RecordType
	root       AliasedTable

	joins     []compiledJoin
	joinAlias map[string]AliasedTable // dedup key -> already-bound alias
	joinSeq   map[string]int          // dedup key prefix -> next Number to allocate

	params []graphquery.Parameter

	conditionIndex int
}

// NewSelectCompilerFor seeds a SelectCompiler for rt: base `FROM` table,
// root alias (0,0,0).
func NewSelectCompilerFor(rt graphquery.RecordType) *SelectCompiler {
	table := baseTable(rt)
	return &SelectCompiler{
		recordType: rt,
		root:       AliasedTable{Table: table, Alias: RootAlias},
		joinAlias:  make(map[string]AliasedTable),
		joinSeq:    make(map[string]int),
	}
}

// CompileFilter compiles f into a WHERE condition, allocating any joins
// and parameters it needs. Each top-level call to CompileFilter bumps the
// condition index, so join aliases introduced by independent filters
// never collide even when they walk identical paths.
func (c *SelectCompiler) CompileFilter(f graphquery.Filter) (*condition, error) {
	cond, err := c.compileFilter(f)
	c.conditionIndex++
	return cond, err
}

func (c *SelectCompiler) compileFilter(f graphquery.Filter) (*condition, error) {
	switch v := f.(type) {
	case graphquery.All:
		return c.compileAll(v.Operands)
	case graphquery.Any:
		return c.compileAny(v.Operands)
	case graphquery.Not:
		inner, err := c.compileFilter(v.Operand)
		if err != nil {
			return nil, err
		}
		return not(inner), nil
	case graphquery.Equal:
		return c.compileBinary(v.LHS, v.RHS, "=")
	case graphquery.NotEqual:
		return c.compileBinary(v.LHS, v.RHS, "<>")
	case graphquery.StartsWith:
		return c.compileLike(v.LHS, v.RHS, true)
	case graphquery.EndsWith:
		return c.compileLike(v.LHS, v.RHS, false)
	case graphquery.ContainsSegment:
		lhs, err := c.compileExpression(v.LHS)
		if err != nil {
			return nil, err
		}
		rhs, err := c.compileExpression(v.RHS)
		if err != nil {
			return nil, err
		}
		return literalCondition(lhs + " LIKE '%' || " + rhs + " || '%'"), nil
	case graphquery.CosineDistance:
		lhs, err := c.compileExpression(v.LHS)
		if err != nil {
			return nil, err
		}
		rhs, err := c.compileExpression(v.RHS)
		if err != nil {
			return nil, err
		}
		threshold, err := c.compileExpression(v.Threshold)
		if err != nil {
			return nil, err
		}
		return literalCondition("(" + lhs + " <=> " + rhs + ") <= " + threshold), nil
	default:
		return nil, fmt.Errorf("sqlcompiler: unknown filter variant %T", f)
	}
}

func (c *SelectCompiler) compileAll(operands []graphquery.Filter) (*condition, error) {
	parts := make([]*condition, 0, len(operands))
	for _, op := range operands {
		cond, err := c.compileFilter(op)
		if err != nil {
			return nil, err
		}
		parts = append(parts, cond)
	}
	return and(parts), nil
}

func (c *SelectCompiler) compileAny(operands []graphquery.Filter) (*condition, error) {
	parts := make([]*condition, 0, len(operands))
	for _, op := range operands {
		cond, err := c.compileFilter(op)
		if err != nil {
			return nil, err
		}
		parts = append(parts, cond)
	}
	return or(parts), nil
}

func (c *SelectCompiler) compileBinary(lhs, rhs graphquery.FilterExpression, op string) (*condition, error) {
	l, err := c.compileTypedExpression(lhs, rhs)
	if err != nil {
		return nil, err
	}
	r, err := c.compileExpression(rhs)
	if err != nil {
		return nil, err
	}
	return literalCondition(l + " " + op + " " + r), nil
}

func (c *SelectCompiler) compileLike(lhs, rhs graphquery.FilterExpression, prefix bool) (*condition, error) {
	l, err := c.compileExpression(lhs)
	if err != nil {
		return nil, err
	}
	r, err := c.compileExpression(rhs)
	if err != nil {
		return nil, err
	}
	if prefix {
		return literalCondition(l + " LIKE " + r + " || '%'"), nil
	}
	return literalCondition(l + " LIKE '%' || " + r), nil
}

// compileTypedExpression compiles lhs the same way compileExpression does,
// additionally checking — when lhs resolves to a path with a fixed
// terminal kind and rhs is a single bound parameter — that the parameter's
// kind unifies with it, per spec.md's TypeMismatch invariant.
func (c *SelectCompiler) compileTypedExpression(lhs, rhs graphquery.FilterExpression) (string, error) {
	pathExpr, isPath := lhs.(graphquery.PathExpression)
	paramExpr, isParam := rhs.(graphquery.ParameterExpression)
	if isPath && isParam {
		kind, constrained, err := c.terminalKind(pathExpr.Path)
		if err != nil {
			return "", err
		}
		if constrained && kind != paramExpr.Parameter.Kind {
			return "", &TypeMismatchError{Path: pathDescription(pathExpr.Path), ParamKind: paramExpr.Parameter.Kind}
		}
	}
	return c.compileExpression(lhs)
}

// compileExpression renders one FilterExpression side: a resolved,
// alias-qualified column for a Path, or a `$N` placeholder for a
// Parameter/ParameterList (recording the literal(s) positionally).
func (c *SelectCompiler) compileExpression(expr graphquery.FilterExpression) (string, error) {
	switch v := expr.(type) {
	case graphquery.PathExpression:
		sql, _, _, err := c.resolvePath(v.Path)
		return sql, err
	case graphquery.ParameterExpression:
		c.params = append(c.params, v.Parameter)
		return "$" + strconv.Itoa(len(c.params)), nil
	case graphquery.ParameterListExpression:
		placeholders := make([]string, len(v.Parameters))
		for i, p := range v.Parameters {
			c.params = append(c.params, p)
			placeholders[i] = "$" + strconv.Itoa(len(c.params))
		}
		return "(" + strings.Join(placeholders, ", ") + ")", nil
	default:
		return "", fmt.Errorf("sqlcompiler: unknown filter expression variant %T", expr)
	}
}

// terminalKind resolves path and reports the ParameterKind its terminal
// column unifies with, if it has a fixed one. Resolving records any join
// the path needs; joinFor deduplicates it, so the compileExpression call
// that follows reuses the same alias.
func (c *SelectCompiler) terminalKind(path graphquery.Path) (kind graphquery.ParameterKind, constrained bool, err error) {
	_, kind, constrained, err = c.resolvePath(path)
	return kind, constrained, err
}

// resolvePath walks path's segments from the compiler's root table,
// resolving each edge-traversing segment to a join (deduplicating joins
// of the same table from the same parent alias within one condition, so
// that repeated path mentions share an alias) and the terminal segment to a
// rendered, alias-qualified column reference plus its expected parameter
// kind, if the schema fixes one.
func (c *SelectCompiler) resolvePath(path graphquery.Path) (sql string, kind graphquery.ParameterKind, constrained bool, err error) {
	current := c.root
	recordType := path.RecordType()
	if recordType != c.recordType {
		return "", 0, false, fmt.Errorf("sqlcompiler: path rooted at %s does not match compiler's record type %s", recordType, c.recordType)
	}

	chainDepth := 0
	var p graphquery.Path = path
	for {
		seg := segmentOf(p)
		schema, ok := schemaFor(p.RecordType())[seg.FieldName]
		if !ok {
			return "", 0, false, fmt.Errorf("sqlcompiler: unknown field %q on %s", seg.FieldName, p.RecordType())
		}

		if seg.Nested == nil {
			if schema.jsonProperties {
				col := Column{Table: current.Table, Name: "properties", JSONField: jsonFieldOf(seg.JSONPath)}
				return col.Render(current), 0, false, nil
			}
			col := Column{Table: current.Table, Name: schema.column}
			return col.Render(current), schema.expectedKind, true, nil
		}

		current = c.joinFor(schema, current, chainDepth)
		chainDepth++
		p = seg.Nested
	}
}

// pathDescription renders a short human-readable label for a path, used
// only in TypeMismatchError messages.
func pathDescription(p graphquery.Path) string {
	return p.RecordType().String() + "." + segmentOf(p).FieldName
}

// joinFor resolves the join named by schema from fromAlias, deduplicating
// by (table, condition_index, chain_depth, parent alias) so repeated
// mentions of the same path segment within one filter share an alias. A
// join of the same table at the same condition index and chain depth
// from a different parent alias gets the next Number.
func (c *SelectCompiler) joinFor(schema fieldSchema, fromAlias AliasedTable, chainDepth int) AliasedTable {
	seqKey := fmt.Sprintf("%s|%d|%d", schema.joinTable.String(), c.conditionIndex, chainDepth)
	key := seqKey + "|" + fromAlias.Alias.String(fromAlias.Table)
	if existing, ok := c.joinAlias[key]; ok {
		return existing
	}

	number := c.joinSeq[seqKey]
	c.joinSeq[seqKey] = number + 1

	alias := Alias{ConditionIndex: c.conditionIndex, ChainDepth: chainDepth, Number: number}
	aliasedTable := AliasedTable{Table: schema.joinTable, Alias: alias}

	c.joins = append(c.joins, compiledJoin{
		expr:      FromForeignKey(schema.joinRef, schema.joinTable, alias, fromAlias.Alias),
		fromAlias: fromAlias,
	})
	c.joinAlias[key] = aliasedTable
	return aliasedTable
}

func segmentOf(p graphquery.Path) graphquery.PathSegment {
	switch v := p.(type) {
	case graphquery.DataTypeQueryPath:
		return v.Segment()
	case graphquery.PropertyTypeQueryPath:
		return v.Segment()
	case graphquery.EntityTypeQueryPath:
		return v.Segment()
	case graphquery.EntityQueryPath:
		return v.Segment()
	default:
		panic(fmt.Sprintf("sqlcompiler: unknown path type %T", p))
	}
}

func jsonFieldOf(jp *graphquery.JsonPath) string {
	if jp == nil {
		return ""
	}
	tokens := jp.PathTokens()
	if len(tokens) == 0 || tokens[0].Field == nil {
		return ""
	}
	return *tokens[0].Field
}

// Build assembles the compiler's accumulated joins and the given WHERE
// condition into a finished SelectStatement projecting the given columns.
func (c *SelectCompiler) Build(selects []Column, where *condition) *SelectStatement {
	return &SelectStatement{
		Selects: selects,
		From:    c.root,
		Joins:   append([]compiledJoin(nil), c.joins...),
		Where:   where,
	}
}

// Parameters returns the positional parameter list accumulated across
// every CompileFilter call so far, in `$1, $2, ...` order.
func (c *SelectCompiler) Parameters() []graphquery.Parameter {
	return c.params
}
