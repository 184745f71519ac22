package model

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/refset/internal/finder"
	"github.com/roach88/refset/internal/hostcompat"
	"github.com/roach88/refset/internal/schema"
)

// Model is the per-type context: a Schema and a record store.
//
// INVARIANTS:
//   - every stored record has a non-nil id
//   - index maps value.Stringify(id) to the record's position in records
//   - ids are unique at insert time once the store is dirty
type Model struct {
	name string

	mu      sync.RWMutex
	schema  *schema.Schema
	scopes  map[string]ScopeFunc
	records []*Record
	index   map[string]int
	dirty   bool
	data    []map[string]any // last payload given to Load, for Reload

	host            hostcompat.Host
	logger          *slog.Logger
	idgen           IDGenerator
	finders         *finder.Parser
	finderCacheSize int
}

var _ hostcompat.Reflector = (*Model)(nil)

// New creates an empty Model for the record type name.
func New(name string, opts ...Option) *Model {
	m := &Model{
		name:   name,
		schema: schema.New(),
		scopes: make(map[string]ScopeFunc),
		index:  make(map[string]int),
		host:   hostcompat.Inflector{},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.finders = finder.NewParser(m.finderCacheSize)
	return m
}

// Name returns the record type name.
func (m *Model) Name() string {
	return m.name
}

// PrimaryKey returns the name of the id attribute.
func (m *Model) PrimaryKey() string {
	return schema.PrimaryKey
}

// CacheKey returns the type-level cache key supplied by the host.
func (m *Model) CacheKey() string {
	return m.host.TypeCacheKey(m.name)
}

// BaseTypeName reports the base type for association metadata.
func (m *Model) BaseTypeName() string {
	return m.host.BaseTypeName(m.name)
}

// PolymorphicName reports the name stored in polymorphic type columns.
func (m *Model) PolymorphicName() string {
	return m.host.PolymorphicName(m.name)
}

// HasQueryConstraints is always false: records are located by id alone.
func (m *Model) HasQueryConstraints() bool {
	return false
}

// CompositePrimaryKey is always false.
func (m *Model) CompositePrimaryKey() bool {
	return false
}

// Transaction runs fn through the host transaction wrapper.
func (m *Model) Transaction(fn func() error) error {
	return hostcompat.Transaction(fn)
}

// DeclareField registers a field. See schema.Schema.Declare.
func (m *Model) DeclareField(name string, opts ...schema.FieldOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.schema.Declare(name, opts...); err != nil {
		return fmt.Errorf("declare %s.%s: %w", m.name, name, err)
	}
	return nil
}

// DeclareFields registers several fields sharing the same options.
func (m *Model) DeclareFields(names []string, opts ...schema.FieldOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.schema.DeclareFields(names, opts...); err != nil {
		return fmt.Errorf("declare %s fields: %w", m.name, err)
	}
	return nil
}

// Override registers hand-written accessors for a field. Declarations
// never replace them.
func (m *Model) Override(name string, acc schema.Accessor) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.schema.Override(name, acc)
}

// Fields returns the declared field names in declaration order.
func (m *Model) Fields() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.schema.Fields()
}

// ColumnNames returns "id" followed by the declared fields.
func (m *Model) ColumnNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.schema.ColumnNames()
}

// HasField reports whether name is a declared field or the primary key.
func (m *Model) HasField(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return name == schema.PrimaryKey || m.schema.Has(name)
}

// Defaults returns a copy of the declared default values.
func (m *Model) Defaults() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.schema.Defaults()
}

// field looks up a declared field under the read lock.
func (m *Model) field(name string) (*schema.Field, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.schema.Field(name)
}
