package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/refset/internal/queryir"
	"github.com/roach88/refset/internal/value"
)

// Select describes a single-table read.
type Select struct {
	// Table is the source table name.
	Table string

	// Columns to return. Empty means every column.
	Columns []string

	// Filter restricts the rows returned. Nil means all rows.
	Filter queryir.Predicate

	// OrderBy lists the columns to sort by. Empty means rowid, which keeps
	// rows in insertion order.
	OrderBy []string
}

// SQLCompiler compiles queryir predicates to parameterized SQL for SQLite.
//
// Every query includes ORDER BY so rows come back in a deterministic order.
// Values are always bound as parameters, never interpolated.
type SQLCompiler struct{}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile converts q to parameterized SQL.
// Returns (sql, params, error) tuple.
func (c *SQLCompiler) Compile(q Select) (string, []any, error) {
	if q.Table == "" {
		return "", nil, fmt.Errorf("cannot compile select without a table")
	}

	selectClause := c.compileColumns(q.Columns)

	var whereClause string
	var params []any
	if q.Filter != nil {
		filterSQL, filterParams, err := c.CompilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		whereClause = " WHERE " + filterSQL
		params = filterParams
	}

	sql := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s",
		selectClause,
		QuoteIdent(q.Table),
		whereClause,
		c.orderKey(q.OrderBy))

	return sql, params, nil
}

func (c *SQLCompiler) compileColumns(cols []string) string {
	if len(cols) == 0 {
		return "*"
	}
	parts := make([]string, len(cols))
	for i, col := range cols {
		parts[i] = QuoteIdent(col)
	}
	return strings.Join(parts, ", ")
}

// orderKey returns the ORDER BY clause body.
// COLLATE BINARY keeps text ordering stable across SQLite versions.
func (c *SQLCompiler) orderKey(cols []string) string {
	if len(cols) == 0 {
		return "rowid ASC"
	}
	parts := make([]string, len(cols))
	for i, col := range cols {
		parts[i] = QuoteIdent(col) + " ASC COLLATE BINARY"
	}
	return strings.Join(parts, ", ")
}

// CompilePredicate compiles p to a WHERE clause fragment.
// Returns (sql, params, error).
//
// Equality with nil compiles to IS NULL so that nil only matches NULL, the
// same rule queryir.Match applies. Negation treats an unknown (NULL) result
// as false before negating, so NOT (code = ?) keeps rows whose code is NULL.
func (c *SQLCompiler) CompilePredicate(p queryir.Predicate) (string, []any, error) {
	if p == nil {
		return "1 = 1", nil, nil
	}

	switch pred := p.(type) {
	case queryir.Equals:
		return c.compileEquals(pred)
	case *queryir.Equals:
		return c.compileEquals(*pred)
	case queryir.In:
		return c.compileIn(pred)
	case *queryir.In:
		return c.compileIn(*pred)
	case queryir.Not:
		return c.compileNot(pred)
	case *queryir.Not:
		return c.compileNot(*pred)
	case queryir.And:
		return c.compileAnd(pred)
	case *queryir.And:
		return c.compileAnd(*pred)
	case queryir.Func, *queryir.Func:
		return "", nil, fmt.Errorf("function predicate %s cannot be compiled to SQL", p)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (c *SQLCompiler) compileEquals(eq queryir.Equals) (string, []any, error) {
	param, err := toParam(eq.Value)
	if err != nil {
		return "", nil, fmt.Errorf("convert value for %s: %w", eq.Field, err)
	}
	if param == nil {
		return QuoteIdent(eq.Field) + " IS NULL", nil, nil
	}
	return QuoteIdent(eq.Field) + " = ?", []any{param}, nil
}

func (c *SQLCompiler) compileIn(in queryir.In) (string, []any, error) {
	if len(in.Values) == 0 {
		return "1 = 0", nil, nil
	}

	var placeholders []string
	var params []any
	hasNull := false
	for _, v := range in.Values {
		param, err := toParam(v)
		if err != nil {
			return "", nil, fmt.Errorf("convert value for %s: %w", in.Field, err)
		}
		if param == nil {
			hasNull = true
			continue
		}
		placeholders = append(placeholders, "?")
		params = append(params, param)
	}

	field := QuoteIdent(in.Field)
	switch {
	case len(params) == 0:
		return field + " IS NULL", nil, nil
	case hasNull:
		return fmt.Sprintf("(%s IN (%s) OR %s IS NULL)", field, strings.Join(placeholders, ", "), field), params, nil
	default:
		return fmt.Sprintf("%s IN (%s)", field, strings.Join(placeholders, ", ")), params, nil
	}
}

func (c *SQLCompiler) compileNot(not queryir.Not) (string, []any, error) {
	sql, params, err := c.CompilePredicate(not.Predicate)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("NOT COALESCE((%s), 0)", sql), params, nil
}

// compileAnd compiles an And predicate to conjunction with AND.
func (c *SQLCompiler) compileAnd(and queryir.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil // vacuous truth
	}

	var sqlParts []string
	var allParams []any

	for _, pred := range and.Predicates {
		sql, params, err := c.CompilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		sqlParts = append(sqlParts, "("+sql+")")
		allParams = append(allParams, params...)
	}

	return strings.Join(sqlParts, " AND "), allParams, nil
}

// QuoteIdent quotes a table or column name for SQLite.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// toParam converts a record value to a SQL parameter.
// Lists and maps have no column representation.
func toParam(v any) (any, error) {
	switch val := value.Normalize(v).(type) {
	case []any:
		return nil, fmt.Errorf("list cannot be used as SQL parameter directly")
	case map[string]any:
		return nil, fmt.Errorf("map cannot be used as SQL parameter directly")
	default:
		return val, nil
	}
}
