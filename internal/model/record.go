package model

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"maps"
	"sort"
	"time"

	"github.com/roach88/refset/internal/schema"
	"github.com/roach88/refset/internal/value"
)

// Record is one entity: an attribute map owned by a Model.
//
// Two records are equal when they belong to the same Model and have equal,
// non-nil ids. A record with a nil id is equal to nothing, itself included.
type Record struct {
	model *Model
	attrs map[string]any
}

// NewRecord builds a record from attrs. Every key is routed through its
// field's setter, so per-field side effects run; a key with no declared
// field fails with *UnknownAttributeError. The record is not inserted.
func (m *Model) NewRecord(attrs map[string]any) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.newRecordLocked(attrs)
}

// newRecordLocked requires m.mu held (read or write).
func (m *Model) newRecordLocked(attrs map[string]any) (*Record, error) {
	r := &Record{model: m, attrs: make(map[string]any, len(attrs))}

	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if k == schema.PrimaryKey {
			r.attrs[k] = value.Normalize(attrs[k])
			continue
		}
		f, ok := m.schema.Field(k)
		if !ok {
			return nil, &UnknownAttributeError{Model: m.name, Attribute: k}
		}
		f.Set(r.attrs, attrs[k])
	}
	return r, nil
}

// Model returns the record's owning Model.
func (r *Record) Model() *Model {
	return r.model
}

// ID returns the id attribute, or nil.
func (r *Record) ID() any {
	return r.attrs[schema.PrimaryKey]
}

// SetID assigns the id. It fails with ErrIDFrozen while the record is
// stored.
func (r *Record) SetID(id any) error {
	return r.Set(schema.PrimaryKey, id)
}

// Get reads the raw attribute, bypassing field getters and defaults.
func (r *Record) Get(key string) any {
	return r.attrs[key]
}

// Set assigns the raw attribute, bypassing field setters. Changing the id
// of a stored record fails with ErrIDFrozen.
func (r *Record) Set(key string, v any) error {
	v = value.Normalize(v)
	if key == schema.PrimaryKey && !value.Equal(r.attrs[key], v) && r.isStoredInstance() {
		return fmt.Errorf("set id of %s %s: %w", r.model.name, value.Stringify(r.ID()), ErrIDFrozen)
	}
	r.attrs[key] = v
	return nil
}

// Read returns a field through its getter, so defaults and hand-written
// getters apply. Undeclared names read the raw attribute.
func (r *Record) Read(field string) any {
	if field == schema.PrimaryKey {
		return r.ID()
	}
	v, ok := r.model.readField(r.attrs, field)
	if !ok {
		return r.attrs[field]
	}
	return v
}

// ReadAttribute reads from the merged attribute view.
func (r *Record) ReadAttribute(field string) any {
	return r.Attributes()[field]
}

// Present is the field's interrogator.
func (r *Record) Present(field string) bool {
	r.model.mu.RLock()
	defer r.model.mu.RUnlock()

	if f, ok := r.model.schema.Field(field); ok {
		return f.Present(r.attrs)
	}
	return value.Present(r.attrs[field])
}

// Attributes returns the merged view: defaults overlaid by the record's
// own attributes. The result is a copy.
func (r *Record) Attributes() map[string]any {
	merged := r.model.Defaults()
	maps.Copy(merged, r.attrs)
	return merged
}

// readField calls a field getter under the read lock.
func (m *Model) readField(attrs map[string]any, name string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.schema.Field(name)
	if !ok {
		return nil, false
	}
	return f.Get(attrs), true
}

// IsNewRecord reports whether neither this record nor one equal to it is in
// the store.
func (r *Record) IsNewRecord() bool {
	return !r.isStored()
}

func (r *Record) isStored() bool {
	m := r.model
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, stored := range m.records {
		if stored == r || stored.Equal(r) {
			return true
		}
	}
	return false
}

// isStoredInstance reports whether this exact record (not an equal one) is
// in the store.
func (r *Record) isStoredInstance() bool {
	m := r.model
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, stored := range m.records {
		if stored == r {
			return true
		}
	}
	return false
}

// IsPersisted reports whether some stored record has this record's id.
func (r *Record) IsPersisted() bool {
	m := r.model
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.index[value.Stringify(r.ID())]
	return ok && r.ID() != nil
}

// Save inserts the record unless a record with its id is already stored,
// in which case Save does nothing. The only failure is a record whose id
// cannot be derived (non-numeric ids in the store and no id given).
func (r *Record) Save() error {
	_, err := r.model.save(r)
	return err
}

// SaveOrFail is Save. Records are always valid, so there is nothing more to
// fail on.
func (r *Record) SaveOrFail() error {
	return r.Save()
}

// IsValid is always true.
func (r *Record) IsValid() bool { return true }

// IsReadonly is always true.
func (r *Record) IsReadonly() bool { return true }

// IsDestroyed is always false; records are never deleted one by one.
func (r *Record) IsDestroyed() bool { return false }

// IsMarkedForDestruction is always false.
func (r *Record) IsMarkedForDestruction() bool { return false }

// Errors returns the validation errors, which are always empty.
func (r *Record) Errors() []string { return []string{} }

// ToParam returns the id as a string, or "" when the id is nil.
func (r *Record) ToParam() string {
	if r.ID() == nil {
		return ""
	}
	return value.Stringify(r.ID())
}

// CacheKeyTimeFormat formats updated_at in record cache keys.
const CacheKeyTimeFormat = "20060102150405"

// UpdatedAtField is the attribute CacheKey reads a timestamp from.
const UpdatedAtField = "updated_at"

// CacheKey returns "<type>/new" for new records, "<type>/<id>-<updated_at>"
// when the record carries an updated_at timestamp, else "<type>/<id>".
func (r *Record) CacheKey() string {
	prefix := r.model.CacheKey()
	if r.IsNewRecord() {
		return prefix + "/new"
	}
	id := value.Stringify(r.ID())
	if ts, ok := timestamp(r.Attributes()[UpdatedAtField]); ok {
		return fmt.Sprintf("%s/%s-%s", prefix, id, ts.Format(CacheKeyTimeFormat))
	}
	return prefix + "/" + id
}

// timestampLayouts are the string forms of updated_at CacheKey accepts.
// Layouts without a zone read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999 -0700",
	time.DateTime + ".999999999",
	time.DateOnly,
}

func timestamp(v any) (time.Time, bool) {
	switch ts := v.(type) {
	case time.Time:
		return ts, !ts.IsZero()
	case string:
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, ts); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// Equal reports whether r and other are the same entity.
func (r *Record) Equal(other *Record) bool {
	if r == nil || other == nil || r.model != other.model {
		return false
	}
	id := r.ID()
	return id != nil && value.Equal(id, other.ID())
}

// Domain separator for record hashes.
const domainRecord = "refset/record/v1"

// Hash is derived from the model name and the id, so equal records share a
// hash. Records with nil ids all hash alike within a model.
func (r *Record) Hash() uint64 {
	h := sha256.New()
	h.Write([]byte(domainRecord))
	h.Write([]byte{0x00})
	h.Write([]byte(r.model.name))
	h.Write([]byte{0x00})
	h.Write([]byte(value.Stringify(r.ID())))
	return binary.BigEndian.Uint64(h.Sum(nil))
}

// String implements fmt.Stringer.
func (r *Record) String() string {
	return fmt.Sprintf("#<%s %s>", r.model.name, describeAttrs(r.Attributes()))
}
