package queryir

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/refset/internal/value"
)

// Row is anything a predicate can read fields from.
type Row interface {
	Read(field string) any
}

// Predicate represents a filter condition.
//
// This is a sealed interface - only types in this package implement it.
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
	fmt.Stringer
}

// Equals represents a field-equals-value predicate.
//
// Semantics:
//
//	<field> = <value>
//
// Values match when they are typed-equal (1 and 1.0 are equal) or when
// their string forms are equal (1 and "1" are equal). nil only matches nil.
type Equals struct {
	Field string
	Value any
}

func (Equals) predicateNode() {}

func (p Equals) String() string {
	return fmt.Sprintf("%s = %s", p.Field, quote(p.Value))
}

// In represents a membership predicate.
//
// Semantics:
//
//	<field> IN (<values>...)
//
// An empty Values list matches nothing.
type In struct {
	Field  string
	Values []any
}

func (In) predicateNode() {}

func (p In) String() string {
	parts := make([]string, len(p.Values))
	for i, v := range p.Values {
		parts[i] = quote(v)
	}
	return fmt.Sprintf("%s IN (%s)", p.Field, strings.Join(parts, ", "))
}

// Not negates a predicate. A nil Predicate negates "always true".
type Not struct {
	Predicate Predicate
}

func (Not) predicateNode() {}

func (p Not) String() string {
	if p.Predicate == nil {
		return "NOT (TRUE)"
	}
	return fmt.Sprintf("NOT (%s)", p.Predicate)
}

// And represents a conjunction of predicates (all must be true).
// An empty Predicates slice means "always true".
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

func (p And) String() string {
	if len(p.Predicates) == 0 {
		return "TRUE"
	}
	parts := make([]string, len(p.Predicates))
	for i, sub := range p.Predicates {
		parts[i] = sub.String()
	}
	return strings.Join(parts, " AND ")
}

// Func wraps a Go function as a predicate. Name is used for display only.
type Func struct {
	Name string
	Fn   func(Row) bool
}

func (Func) predicateNode() {}

func (p Func) String() string {
	if p.Name == "" {
		return "func()"
	}
	return p.Name + "()"
}

// FromConditions builds a predicate from a field → value mapping.
// Slice values become In predicates; everything else becomes Equals.
// Keys are visited in sorted order so the result is deterministic.
func FromConditions(conds map[string]any) Predicate {
	keys := make([]string, 0, len(conds))
	for k := range conds {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	preds := make([]Predicate, 0, len(keys))
	for _, k := range keys {
		if list, ok := value.AsList(conds[k]); ok {
			preds = append(preds, In{Field: k, Values: list})
			continue
		}
		preds = append(preds, Equals{Field: k, Value: value.Normalize(conds[k])})
	}
	if len(preds) == 1 {
		return preds[0]
	}
	return And{Predicates: preds}
}

func quote(v any) string {
	switch val := value.Normalize(v).(type) {
	case nil:
		return "NULL"
	case string:
		return fmt.Sprintf("%q", val)
	default:
		return value.Stringify(val)
	}
}
