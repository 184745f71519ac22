package store

import (
	"context"
	"fmt"

	"github.com/roach88/refset/internal/queryir"
	"github.com/roach88/refset/internal/querysql"
	"github.com/roach88/refset/internal/value"
)

// ReadMatching returns the rows of table that match p, with the same
// result queryir.Match gives over every row. A nil p returns every row.
// Comparisons SQLite evaluates the same way run in the query; the rest,
// including Func predicates, run on the rows read.
func (s *Store) ReadMatching(ctx context.Context, table string, p queryir.Predicate) ([]map[string]any, error) {
	sel := querysql.Select{Table: table}
	if p != nil {
		columns, err := s.Columns(ctx, table)
		if err != nil {
			return nil, fmt.Errorf("read table %s: %w", table, err)
		}
		sel.Filter, _ = pushdown(p, columns)
	}

	rows, err := s.ReadTable(ctx, sel)
	if err != nil || p == nil {
		return rows, err
	}

	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		if queryir.Match(p, rowReader(row)) {
			out = append(out, row)
		}
	}
	return out, nil
}

type rowReader map[string]any

func (r rowReader) Read(field string) any { return r[field] }

// pushdown returns the part of p that SQLite evaluates exactly as
// queryir.Match does, or nil when no part qualifies, and whether that part
// is all of p. Untyped columns compare 1 and '1' as different while Match
// treats them as equal, so a comparison is pushed only when its values share
// the storage class of every value in the column. The rows kept are a
// superset of the matches; the caller applies the full predicate afterwards.
func pushdown(p queryir.Predicate, columns map[string]Column) (queryir.Predicate, bool) {
	switch pred := p.(type) {
	case queryir.Equals:
		if exactColumn(columns, pred.Field, pred.Value) {
			return pred, true
		}
	case queryir.In:
		if exactColumn(columns, pred.Field, pred.Values...) {
			return pred, true
		}
	case queryir.Not:
		// a partly pushed operand would widen the negation
		if _, whole := pushdown(pred.Predicate, columns); whole {
			return pred, true
		}
	case queryir.And:
		var parts []queryir.Predicate
		all := true
		for _, sub := range pred.Predicates {
			part, whole := pushdown(sub, columns)
			if part != nil {
				parts = append(parts, part)
			}
			all = all && whole
		}
		switch {
		case all:
			return pred, true
		case len(parts) == 0:
			return nil, false
		default:
			return queryir.And{Predicates: parts}, false
		}
	}
	return nil, false
}

// exactColumn reports whether SQL equality against field agrees with
// queryir.ValuesMatch for every value in values.
func exactColumn(columns map[string]Column, field string, values ...any) bool {
	col, ok := columns[field]
	if !ok {
		return false
	}
	for _, v := range values {
		v = value.Normalize(v)
		if v == nil {
			continue
		}
		switch col.Kind {
		case KindNative:
			class := paramClass(v)
			if class == "" {
				return false
			}
			for _, c := range col.Classes {
				if storageGroup(c) != class {
					return false
				}
			}
		case KindBool:
			if _, isBool := v.(bool); !isBool {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// paramClass groups a bound parameter the way SQLite compares it.
func paramClass(v any) string {
	switch v.(type) {
	case int64, float64:
		return "numeric"
	case string:
		return "text"
	default:
		return ""
	}
}

func storageGroup(class string) string {
	switch class {
	case "integer", "real":
		return "numeric"
	default:
		return class
	}
}
