package queryir

import "fmt"

// ValidationResult contains portability analysis of a predicate.
//
// A portable predicate can be compiled to SQL by querysql and evaluated
// by a database as well as in memory. Non-portable predicates still work
// in memory.
type ValidationResult struct {
	// IsPortable indicates the predicate uses only Equals, In, Not and And
	// over known fields.
	IsPortable bool

	// Warnings lists non-portable features used in the predicate.
	// Empty when IsPortable is true.
	Warnings []string
}

// Validate checks p against the portable fragment.
//
// Portable fragment rules:
//  1. No Func predicates - Go closures have no SQL form
//  2. Known fields - every field must satisfy known (when known is non-nil)
//  3. Scalar values - Equals and In values must not be lists or maps
//
// Validate is a pure function with no side effects.
func Validate(p Predicate, known func(field string) bool) ValidationResult {
	v := &validator{
		known:    known,
		warnings: []string{},
	}
	v.validate(p)

	return ValidationResult{
		IsPortable: len(v.warnings) == 0,
		Warnings:   v.warnings,
	}
}

type validator struct {
	known    func(string) bool
	warnings []string
}

func (v *validator) validate(p Predicate) {
	switch pred := p.(type) {
	case nil:
		return
	case Equals:
		v.checkField(pred.Field)
		v.checkScalar(pred.Field, pred.Value)
	case *Equals:
		v.validate(*pred)
	case In:
		v.checkField(pred.Field)
		for _, val := range pred.Values {
			v.checkScalar(pred.Field, val)
		}
	case *In:
		v.validate(*pred)
	case Not:
		v.validate(pred.Predicate)
	case *Not:
		v.validate(*pred)
	case And:
		for _, sub := range pred.Predicates {
			v.validate(sub)
		}
	case *And:
		v.validate(*pred)
	case Func:
		v.addWarning(fmt.Sprintf("function predicate %s has no SQL form", pred))
	case *Func:
		v.validate(*pred)
	default:
		v.addWarning(fmt.Sprintf("unknown predicate type %T", p))
	}
}

func (v *validator) checkField(field string) {
	if v.known == nil || v.known(field) {
		return
	}
	v.addWarning(fmt.Sprintf("unknown field %q", field))
}

func (v *validator) checkScalar(field string, val any) {
	switch val.(type) {
	case []any, map[string]any:
		v.addWarning(fmt.Sprintf("field %q compared against a composite value", field))
	}
}

func (v *validator) addWarning(msg string) {
	v.warnings = append(v.warnings, msg)
}
