package model

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/refset/internal/value"
)

// OrderKey is one sort field with its direction.
type OrderKey struct {
	Field string
	Desc  bool
}

// Asc sorts field ascending.
func Asc(field string) OrderKey {
	return OrderKey{Field: field}
}

// Desc sorts field descending.
func Desc(field string) OrderKey {
	return OrderKey{Field: field, Desc: true}
}

func (k OrderKey) String() string {
	if k.Desc {
		return k.Field + " DESC"
	}
	return k.Field + " ASC"
}

// ParseOrder parses an order clause such as "name desc, id".
// Directions are case-insensitive; the default is ascending.
func ParseOrder(clause string) ([]OrderKey, error) {
	var keys []OrderKey
	for _, part := range strings.Split(clause, ",") {
		tokens := strings.Fields(part)
		switch len(tokens) {
		case 1:
			keys = append(keys, Asc(tokens[0]))
		case 2:
			switch strings.ToLower(tokens[1]) {
			case "asc":
				keys = append(keys, Asc(tokens[0]))
			case "desc":
				keys = append(keys, Desc(tokens[0]))
			default:
				return nil, fmt.Errorf("order %q: unknown direction %q", part, tokens[1])
			}
		default:
			return nil, fmt.Errorf("order %q: expected \"<field> [asc|desc]\"", strings.TrimSpace(part))
		}
	}
	return keys, nil
}

// sortRecords stably sorts records by keys. Field values are read once per
// record.
func sortRecords(records []*Record, keys []OrderKey) {
	if len(keys) == 0 || len(records) < 2 {
		return
	}

	type sortable struct {
		rec  *Record
		vals []any
	}
	items := make([]sortable, len(records))
	for i, r := range records {
		vals := make([]any, len(keys))
		for j, k := range keys {
			vals[j] = r.Read(k.Field)
		}
		items[i] = sortable{rec: r, vals: vals}
	}

	slices.SortStableFunc(items, func(a, b sortable) int {
		for j, k := range keys {
			c := value.Compare(a.vals[j], b.vals[j])
			if k.Desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})

	for i, it := range items {
		records[i] = it.rec
	}
}
