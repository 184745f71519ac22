package queryir

import "github.com/roach88/refset/internal/value"

// Match evaluates p against row. A nil predicate matches every row.
func Match(p Predicate, row Row) bool {
	if p == nil {
		return true
	}

	switch pred := p.(type) {
	case Equals:
		return ValuesMatch(row.Read(pred.Field), pred.Value)
	case *Equals:
		return ValuesMatch(row.Read(pred.Field), pred.Value)
	case In:
		return matchIn(row.Read(pred.Field), pred.Values)
	case *In:
		return matchIn(row.Read(pred.Field), pred.Values)
	case Not:
		return !Match(pred.Predicate, row)
	case *Not:
		return !Match(pred.Predicate, row)
	case And:
		return matchAll(pred.Predicates, row)
	case *And:
		return matchAll(pred.Predicates, row)
	case Func:
		return pred.Fn != nil && pred.Fn(row)
	case *Func:
		return pred.Fn != nil && pred.Fn(row)
	default:
		return false
	}
}

// ValuesMatch is the equality used by Where conditions: typed equality,
// or equality of the stringified forms. nil only matches nil.
func ValuesMatch(actual, expected any) bool {
	actual, expected = value.Normalize(actual), value.Normalize(expected)
	if actual == nil || expected == nil {
		return actual == nil && expected == nil
	}
	return value.Equal(actual, expected) || value.StringEqual(actual, expected)
}

func matchIn(actual any, values []any) bool {
	for _, v := range values {
		if ValuesMatch(actual, v) {
			return true
		}
	}
	return false
}

func matchAll(preds []Predicate, row Row) bool {
	for _, sub := range preds {
		if !Match(sub, row) {
			return false
		}
	}
	return true
}
