package model

import (
	"slices"
	"strings"

	"github.com/roach88/refset/internal/queryir"
	"github.com/roach88/refset/internal/schema"
	"github.com/roach88/refset/internal/value"
)

// Relation is a point-in-time view of a Model's records.
//
// Every chaining method returns a new Relation; the receiver and the store
// are left untouched. Records are shared, not copied.
type Relation struct {
	model      *Model
	records    []*Record
	predicates []queryir.Predicate
	orders     []OrderKey
}

var _ queryir.Row = (*Record)(nil)

// All returns a Relation over every stored record, in store order,
// narrowed by conds.
func (m *Model) All(conds ...Conditions) *Relation {
	m.mu.RLock()
	records := slices.Clone(m.records)
	m.mu.RUnlock()

	if records == nil {
		records = []*Record{}
	}
	rel := &Relation{model: m, records: records}
	for _, c := range conds {
		rel.whereInPlace(queryir.FromConditions(c))
	}
	return rel
}

// Where is All().Where(c).
func (m *Model) Where(c Conditions) *Relation { return m.All().Where(c) }

// Find is All().Find(id).
func (m *Model) Find(id any) (*Record, error) { return m.All().Find(id) }

// FindBy is All().FindBy(c).
func (m *Model) FindBy(c Conditions) (*Record, bool) { return m.All().FindBy(c) }

// FindByOrFail is All().FindByOrFail(c).
func (m *Model) FindByOrFail(c Conditions) (*Record, error) { return m.All().FindByOrFail(c) }

// FindByID is All().FindByID(id).
func (m *Model) FindByID(id any) (*Record, bool) { return m.All().FindByID(id) }

// Count returns the number of stored records.
func (m *Model) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.records)
}

// Pluck is All().Pluck(fields...).
func (m *Model) Pluck(fields ...string) []any { return m.All().Pluck(fields...) }

// IDs is All().IDs().
func (m *Model) IDs() []any { return m.All().IDs() }

// Pick is All().Pick(fields...).
func (m *Model) Pick(fields ...string) (any, bool) { return m.All().Pick(fields...) }

// First is All().First().
func (m *Model) First() (*Record, bool) { return m.All().First() }

// Last is All().Last().
func (m *Model) Last() (*Record, bool) { return m.All().Last() }

// Order is All().Order(keys...).
func (m *Model) Order(keys ...OrderKey) *Relation { return m.All().Order(keys...) }

func (rel *Relation) derive(records []*Record) *Relation {
	return &Relation{
		model:      rel.model,
		records:    records,
		predicates: slices.Clone(rel.predicates),
		orders:     slices.Clone(rel.orders),
	}
}

// Model returns the Relation's Model.
func (rel *Relation) Model() *Model {
	return rel.model
}

// Where keeps records matching every condition. A slice value matches any
// of its elements. Values match when typed-equal or equal as strings; nil
// only matches nil.
func (rel *Relation) Where(c Conditions) *Relation {
	if len(c) == 0 {
		return rel.derive(slices.Clone(rel.records))
	}
	return rel.WherePredicate(queryir.FromConditions(c))
}

// WhereNot keeps records that do not match all of c.
func (rel *Relation) WhereNot(c Conditions) *Relation {
	if len(c) == 0 {
		return rel.derive(slices.Clone(rel.records))
	}
	return rel.WherePredicate(queryir.Not{Predicate: queryir.FromConditions(c)})
}

// Filter keeps records for which fn returns true.
func (rel *Relation) Filter(fn func(*Record) bool) *Relation {
	return rel.WherePredicate(queryir.Func{
		Name: "filter",
		Fn: func(row queryir.Row) bool {
			r, ok := row.(*Record)
			return ok && fn(r)
		},
	})
}

// WherePredicate keeps records matching p.
func (rel *Relation) WherePredicate(p queryir.Predicate) *Relation {
	out := rel.derive(slices.Clone(rel.records))
	out.whereInPlace(p)
	return out
}

// whereInPlace narrows rel itself. Used by Model.All for its conditions.
func (rel *Relation) whereInPlace(p queryir.Predicate) {
	if p == nil {
		return
	}
	rel.records = filter(rel.records, p)
	rel.predicates = append(rel.predicates, p)
}

func filter(records []*Record, p queryir.Predicate) []*Record {
	out := make([]*Record, 0, len(records))
	for _, r := range records {
		if queryir.Match(p, r) {
			out = append(out, r)
		}
	}
	return out
}

// Predicate returns the accumulated filter as a single predicate.
func (rel *Relation) Predicate() queryir.Predicate {
	switch len(rel.predicates) {
	case 0:
		return nil
	case 1:
		return rel.predicates[0]
	default:
		return queryir.And{Predicates: slices.Clone(rel.predicates)}
	}
}

// Find returns the record whose id equals id. Ids compare the way they are
// indexed, so 1, 1.0 and "1" all find the record with id 1.
func (rel *Relation) Find(id any) (*Record, error) {
	if id = value.Normalize(id); id != nil {
		key := value.Stringify(id)
		for _, r := range rel.records {
			if value.Stringify(r.ID()) == key {
				return r, nil
			}
		}
	}
	return nil, &RecordNotFound{Model: rel.model.name, PrimaryKey: schema.PrimaryKey, ID: id}
}

// FindMany finds every id, in argument order. The first missing id fails
// with *RecordNotFound.
func (rel *Relation) FindMany(ids ...any) ([]*Record, error) {
	out := make([]*Record, 0, len(ids))
	for _, id := range ids {
		r, err := rel.Find(id)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// FindBy returns the first record matching c.
func (rel *Relation) FindBy(c Conditions) (*Record, bool) {
	p := queryir.FromConditions(c)
	for _, r := range rel.records {
		if queryir.Match(p, r) {
			return r, true
		}
	}
	return nil, false
}

// FindByOrFail is FindBy, failing with *RecordNotFound on a miss.
func (rel *Relation) FindByOrFail(c Conditions) (*Record, error) {
	if r, ok := rel.FindBy(c); ok {
		return r, nil
	}
	criteria := make([]Criterion, 0, len(c))
	for _, k := range value.SortedKeys(c) {
		criteria = append(criteria, Criterion{Field: k, Value: c[k]})
	}
	return nil, &RecordNotFound{Model: rel.model.name, PrimaryKey: schema.PrimaryKey, Criteria: criteria}
}

// FindByID is FindBy(Conditions{"id": id}).
func (rel *Relation) FindByID(id any) (*Record, bool) {
	return rel.FindBy(Conditions{schema.PrimaryKey: id})
}

// Pluck reads fields from every record in order. With one field the result
// holds the values themselves; with several, each element is a []any tuple.
func (rel *Relation) Pluck(fields ...string) []any {
	out := make([]any, len(rel.records))
	for i, r := range rel.records {
		out[i] = pluckOne(r, fields)
	}
	return out
}

func pluckOne(r *Record, fields []string) any {
	if len(fields) == 1 {
		return r.Read(fields[0])
	}
	tuple := make([]any, len(fields))
	for i, f := range fields {
		tuple[i] = r.Read(f)
	}
	return tuple
}

// IDs is Pluck("id").
func (rel *Relation) IDs() []any {
	return rel.Pluck(schema.PrimaryKey)
}

// Pick is Pluck for the first record only.
func (rel *Relation) Pick(fields ...string) (any, bool) {
	if len(rel.records) == 0 {
		return nil, false
	}
	return pluckOne(rel.records[0], fields), true
}

// First returns the first record in the current order.
func (rel *Relation) First() (*Record, bool) {
	if len(rel.records) == 0 {
		return nil, false
	}
	return rel.records[0], true
}

// Last returns the last record in the current order.
func (rel *Relation) Last() (*Record, bool) {
	if len(rel.records) == 0 {
		return nil, false
	}
	return rel.records[len(rel.records)-1], true
}

// Count returns the number of records.
func (rel *Relation) Count() int {
	return len(rel.records)
}

// Empty reports whether the relation holds no records.
func (rel *Relation) Empty() bool {
	return len(rel.records) == 0
}

// Exists reports whether the relation holds any record.
func (rel *Relation) Exists() bool {
	return len(rel.records) > 0
}

// Records returns the records in order. The slice is a copy.
func (rel *Relation) Records() []*Record {
	return slices.Clone(rel.records)
}

// Order sorts stably by keys, in sequence.
func (rel *Relation) Order(keys ...OrderKey) *Relation {
	out := rel.derive(slices.Clone(rel.records))
	sortRecords(out.records, keys)
	out.orders = append(out.orders, keys...)
	return out
}

// OrderBy parses clause with ParseOrder and sorts by it.
func (rel *Relation) OrderBy(clause string) (*Relation, error) {
	keys, err := ParseOrder(clause)
	if err != nil {
		return nil, err
	}
	return rel.Order(keys...), nil
}

// Limit keeps at most n records. A negative n keeps all.
func (rel *Relation) Limit(n int) *Relation {
	if n < 0 || n >= len(rel.records) {
		return rel.derive(slices.Clone(rel.records))
	}
	return rel.derive(slices.Clone(rel.records[:n]))
}

// Offset skips the first n records.
func (rel *Relation) Offset(n int) *Relation {
	if n <= 0 {
		return rel.derive(slices.Clone(rel.records))
	}
	if n >= len(rel.records) {
		return rel.derive([]*Record{})
	}
	return rel.derive(slices.Clone(rel.records[n:]))
}

// String describes the relation's filter and order.
func (rel *Relation) String() string {
	var b strings.Builder
	b.WriteString(rel.model.name)
	if p := rel.Predicate(); p != nil {
		b.WriteString(" WHERE ")
		b.WriteString(p.String())
	}
	if len(rel.orders) > 0 {
		parts := make([]string, len(rel.orders))
		for i, k := range rel.orders {
			parts[i] = k.String()
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(parts, ", "))
	}
	return b.String()
}
