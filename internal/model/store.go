package model

import (
	"fmt"

	"github.com/roach88/refset/internal/schema"
	"github.com/roach88/refset/internal/value"
)

// NoCriteria is the Exists argument meaning "any record at all".
var NoCriteria = noCriteria{}

type noCriteria struct{}

// Conditions maps field names to the values they must match. A slice
// value matches any of its elements.
type Conditions map[string]any

// Load replaces the store's contents with rows.
//
// The index and record sequence are cleared first. A nil rows leaves the
// store empty. Otherwise every key in rows (except id) is declared as a
// field and each row is built and inserted in order. Uniqueness is checked
// for every insert, so duplicate ids within rows fail with *IdError; the
// records inserted before the failure stay in the store.
//
// rows is retained (not copied) for Reload.
func (m *Model) Load(rows []map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.loadLocked(rows); err != nil {
		return err
	}
	m.logger.Debug("records loaded", "model", m.name, "count", len(m.records), "fields", len(m.schema.Fields()))
	return nil
}

func (m *Model) loadLocked(rows []map[string]any) error {
	m.dirty = true
	m.records = nil
	m.resetIndexLocked()
	m.data = rows
	if rows == nil {
		return nil
	}

	if err := m.schema.AutoDetect(rows); err != nil {
		return fmt.Errorf("load %s: %w", m.name, err)
	}

	m.records = make([]*Record, 0, len(rows))
	for i, row := range rows {
		r, err := m.newRecordLocked(row)
		if err != nil {
			return fmt.Errorf("load %s row %d: %w", m.name, i, err)
		}
		if err := m.insertLocked(r); err != nil {
			m.logger.Debug("load stopped", "model", m.name, "row", i, "error", err)
			return fmt.Errorf("load %s row %d: %w", m.name, i, err)
		}
	}
	return nil
}

// Reload rebuilds the store from the last payload given to Load and marks
// it clean.
func (m *Model) Reload() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.resetIndexLocked()
	if err := m.loadLocked(m.data); err != nil {
		return err
	}
	m.dirty = false
	m.logger.Debug("records reloaded", "model", m.name, "count", len(m.records))
	return nil
}

// Clear empties the store. The last payload is kept for Reload.
func (m *Model) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.dirty = true
	m.resetIndexLocked()
	m.records = []*Record{}
	m.logger.Debug("records cleared", "model", m.name)
}

// DeleteAll is Clear.
func (m *Model) DeleteAll() {
	m.Clear()
}

// IsDirty reports whether the store has been modified since the last
// Reload. A fresh Model is clean.
func (m *Model) IsDirty() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.dirty
}

// Data returns the last payload given to Load.
func (m *Model) Data() []map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.data
}

// Insert stores r, assigning NextID when r has no id.
func (m *Model) Insert(r *Record) error {
	if r.model != m {
		return fmt.Errorf("insert: record belongs to %s, not %s", r.model.name, m.name)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.insertLocked(r)
}

func (m *Model) insertLocked(r *Record) error {
	if r.ID() == nil {
		id, ok := m.nextIDLocked()
		if !ok {
			return &IdError{Model: m.name, Attributes: r.ownAttributes()}
		}
		r.attrs[schema.PrimaryKey] = value.Normalize(id)
	}

	key := value.Stringify(r.ID())
	if m.dirty {
		if _, exists := m.index[key]; exists {
			return &IdError{Model: m.name, ID: r.ID(), Attributes: r.ownAttributes()}
		}
	}
	m.dirty = true

	m.index[key] = len(m.records)
	m.records = append(m.records, r)
	return nil
}

// ownAttributes copies the record's attributes without defaults, so it is
// safe to call with m.mu held.
func (r *Record) ownAttributes() map[string]any {
	out := make(map[string]any, len(r.attrs))
	for k, v := range r.attrs {
		out[k] = v
	}
	return out
}

// NextID returns the id the next record inserted without one would get:
// 1 for an empty store, the maximum id plus one when that maximum is
// numeric. The second result is false when the maximum id is not a number
// or is math.MaxInt64, in which case callers must supply ids themselves.
//
// NextID never consumes an id. With an IDGenerator configured it reports
// the generator's next id when the generator is an IDPreviewer, and false
// otherwise.
func (m *Model) NextID() (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.idgen != nil {
		if p, ok := m.idgen.(IDPreviewer); ok {
			return p.Peek()
		}
		return nil, false
	}
	return m.successorIDLocked()
}

// nextIDLocked assigns an id, drawing it from the generator when one is
// configured.
func (m *Model) nextIDLocked() (any, bool) {
	if m.idgen != nil {
		return m.idgen.Generate(), true
	}
	return m.successorIDLocked()
}

func (m *Model) successorIDLocked() (any, bool) {
	if len(m.records) == 0 {
		return int64(1), true
	}

	maxID := m.records[0].ID()
	for _, r := range m.records[1:] {
		if value.Compare(r.ID(), maxID) > 0 {
			maxID = r.ID()
		}
	}
	return value.Succ(maxID)
}

func (m *Model) resetIndexLocked() {
	m.index = make(map[string]int)
}

// Exists answers whether records match criteria:
//
//   - interface{ ID() any } (a *Record, say): its id is indexed
//   - nil or false: always false
//   - NoCriteria: the store holds any record
//   - Conditions or map[string]any: some record matches them
//   - anything else: a record has that id
func (m *Model) Exists(criteria any) bool {
	switch c := criteria.(type) {
	case nil:
		return false
	case bool:
		if !c {
			return false
		}
		return m.hasID(c)
	case noCriteria:
		return m.Count() > 0
	case interface{ ID() any }:
		return m.hasID(c.ID())
	case Conditions:
		return m.All().Where(c).Exists()
	case map[string]any:
		return m.All().Where(Conditions(c)).Exists()
	default:
		return m.hasID(c)
	}
}

func (m *Model) hasID(id any) bool {
	if value.Normalize(id) == nil {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.index[value.Stringify(id)]
	return ok
}

// save inserts r unless its id is already stored. It reports whether r
// was inserted.
func (m *Model) save(r *Record) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id := r.ID(); id != nil {
		if _, exists := m.index[value.Stringify(id)]; exists {
			return false, nil
		}
	}
	if err := m.insertLocked(r); err != nil {
		return false, err
	}
	return true, nil
}

// Create builds a record from attrs and saves it. When a record with the
// same id is already stored the new record is returned unsaved.
func (m *Model) Create(attrs map[string]any) (*Record, error) {
	r, err := m.NewRecord(attrs)
	if err != nil {
		return nil, err
	}
	if _, err := m.save(r); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.dirty = true
	m.mu.Unlock()
	return r, nil
}

// Add is Create.
func (m *Model) Add(attrs map[string]any) (*Record, error) {
	return m.Create(attrs)
}

// CreateOrFail is Create, except that a record whose id is already stored
// fails with *IdError instead of being returned unsaved.
func (m *Model) CreateOrFail(attrs map[string]any) (*Record, error) {
	r, err := m.NewRecord(attrs)
	if err != nil {
		return nil, err
	}
	inserted, err := m.save(r)
	if err != nil {
		return nil, err
	}
	if !inserted {
		return nil, &IdError{Model: m.name, ID: r.ID(), Attributes: r.ownAttributes()}
	}
	return r, nil
}
