package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/refset/internal/schema"
	"github.com/roach88/refset/internal/value"
)

// ReservedFieldError is returned when declaring a field named "attributes".
type ReservedFieldError = schema.ReservedFieldError

// ErrIDFrozen is returned when changing the id of a record that is stored.
// The id index is built at insert time, so a stored record keeps its id
// until the store is cleared or reloaded.
var ErrIDFrozen = errors.New("id cannot change while the record is stored")

// RecordNotFound is returned by Find, FindByOrFail and bang finders when
// nothing matches.
type RecordNotFound struct {
	// Model is the record type name.
	Model string

	// PrimaryKey is the name of the id attribute.
	PrimaryKey string

	// ID is the requested id, when the lookup was by id.
	ID any

	// Criteria are the field/value pairs of the lookup, in call order.
	Criteria []Criterion
}

// Criterion is one field/value pair of a failed lookup.
type Criterion struct {
	Field string
	Value any
}

// Error implements the error interface.
func (e *RecordNotFound) Error() string {
	if len(e.Criteria) == 0 {
		return fmt.Sprintf("couldn't find %s with '%s'=%s", e.Model, e.PrimaryKey, value.Stringify(e.ID))
	}
	parts := make([]string, len(e.Criteria))
	for i, c := range e.Criteria {
		parts[i] = fmt.Sprintf("%s = %s", c.Field, value.Stringify(c.Value))
	}
	return fmt.Sprintf("couldn't find %s with %s", e.Model, strings.Join(parts, ", "))
}

// IdError is returned when inserting a record whose id is already stored,
// or when no id can be derived for it.
type IdError struct {
	// Model is the record type name.
	Model string

	// ID is the offending id (nil when none could be derived).
	ID any

	// Attributes are the record's attributes at the time of the insert.
	Attributes map[string]any
}

// Error implements the error interface.
func (e *IdError) Error() string {
	if e.ID == nil {
		return fmt.Sprintf("no id could be assigned to %s record %s", e.Model, describeAttrs(e.Attributes))
	}
	return fmt.Sprintf("duplicate id %s found for %s record %s", value.Stringify(e.ID), e.Model, describeAttrs(e.Attributes))
}

// UnknownAttributeError is returned when constructing a record from a key
// that has no declared field (and so no setter).
type UnknownAttributeError struct {
	Model     string
	Attribute string
}

// Error implements the error interface.
func (e *UnknownAttributeError) Error() string {
	return fmt.Sprintf("unknown attribute '%s' for %s", e.Attribute, e.Model)
}

// NoMethodError is returned by Call for names that are neither scopes nor
// resolvable finders.
type NoMethodError struct {
	Model  string
	Method string
}

// Error implements the error interface.
func (e *NoMethodError) Error() string {
	return fmt.Sprintf("undefined method '%s' for %s", e.Method, e.Model)
}

// IsNotFound returns true if err is (or wraps) a *RecordNotFound.
func IsNotFound(err error) bool {
	var nf *RecordNotFound
	return errors.As(err, &nf)
}

// IsIdError returns true if err is (or wraps) an *IdError.
func IsIdError(err error) bool {
	var ie *IdError
	return errors.As(err, &ie)
}

// IsReservedField returns true if err is (or wraps) a *ReservedFieldError.
func IsReservedField(err error) bool {
	var rf *ReservedFieldError
	return errors.As(err, &rf)
}

// IsNoMethod returns true if err is (or wraps) a *NoMethodError.
func IsNoMethod(err error) bool {
	var nm *NoMethodError
	return errors.As(err, &nm)
}

func describeAttrs(attrs map[string]any) string {
	data, err := value.MarshalCanonical(attrs)
	if err != nil {
		return fmt.Sprint(attrs)
	}
	return string(data)
}
