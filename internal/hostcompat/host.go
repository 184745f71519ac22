package hostcompat

import (
	"errors"
	"strings"

	"github.com/jinzhu/inflection"

	"github.com/roach88/refset/internal/schema"
)

// Host answers the type-level questions a host framework asks of a model.
type Host interface {
	// TypeCacheKey is the prefix of every record cache key ("countries").
	TypeCacheKey(typeName string) string

	// BaseTypeName is the root of the type hierarchy reported for
	// association metadata.
	BaseTypeName(typeName string) string

	// PolymorphicName is stored in polymorphic association type columns.
	PolymorphicName(typeName string) string
}

// Reflector is implemented by models that resolve methods dynamically.
type Reflector interface {
	// RespondsTo reports whether name can be called, without calling it.
	RespondsTo(name string) bool

	// Call invokes name with positional arguments.
	Call(name string, args ...any) (any, error)
}

// ErrRollback is the host-specific signal a transaction block returns to
// abandon the transaction. Transaction absorbs it.
var ErrRollback = errors.New("rollback")

// Transaction runs fn. An error matching ErrRollback (errors.Is) is
// absorbed and Transaction returns nil; any other error is returned as is.
func Transaction(fn func() error) error {
	if fn == nil {
		return nil
	}
	if err := fn(); err != nil && !errors.Is(err, ErrRollback) {
		return err
	}
	return nil
}

// Inflector is the default Host. It has no state.
//
// With Base set, BaseTypeName and PolymorphicName report Base for every
// type, matching hosts where all in-memory models share one base class.
type Inflector struct {
	Base string
}

// TypeCacheKey tableizes typeName: "Country" → "countries",
// "CurrencyCode" → "currency_codes".
func (in Inflector) TypeCacheKey(typeName string) string {
	return Tableize(typeName)
}

// BaseTypeName returns Base, or typeName when Base is empty.
func (in Inflector) BaseTypeName(typeName string) string {
	if in.Base != "" {
		return in.Base
	}
	return typeName
}

// PolymorphicName is the base type name.
func (in Inflector) PolymorphicName(typeName string) string {
	return in.BaseTypeName(typeName)
}

// Tableize converts a type name to its plural snake_case table name.
// Namespaced names keep only the last segment ("geo.Country" → "countries").
func Tableize(typeName string) string {
	if i := strings.LastIndexAny(typeName, ".:/"); i >= 0 {
		typeName = typeName[i+1:]
	}
	return Pluralize(schema.Snake(typeName))
}

// Classify converts a table or file name to a type name:
// "countries" → "Country", "currency_codes" → "CurrencyCode".
func Classify(table string) string {
	return schema.Camel(Singularize(table))
}

// Pluralize applies English plural rules to the last word of a
// snake_case name.
func Pluralize(word string) string {
	head, last := splitLastWord(word)
	if last == "" {
		return word
	}
	return head + inflection.Plural(last)
}

// Singularize reverses Pluralize for the last word of a snake_case name.
func Singularize(word string) string {
	head, last := splitLastWord(word)
	if last == "" {
		return word
	}
	return head + inflection.Singular(last)
}

func splitLastWord(word string) (string, string) {
	i := strings.LastIndexByte(word, '_')
	return word[:i+1], word[i+1:]
}
