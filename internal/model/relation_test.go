package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/refset/internal/queryir"
	"github.com/roach88/refset/internal/testutil"
)

func names(rel *Relation) []any {
	return rel.Pluck("name")
}

func TestPluck(t *testing.T) {
	m := newLoaded(t, "Item", testutil.PairRows())

	assert.Equal(t, []any{"a", "b"}, m.Pluck("name"))
	assert.Equal(t, []any{
		[]any{int64(1), "a"},
		[]any{int64(2), "b"},
	}, m.Pluck("id", "name"))
	assert.Equal(t, []any{int64(1), int64(2)}, m.IDs())
	assert.Equal(t, []any{nil, nil}, m.Pluck("missing"))
}

func TestPick(t *testing.T) {
	m := newLoaded(t, "Item", testutil.PairRows())

	v, ok := m.Pick("name")
	require.True(t, ok)
	assert.Equal(t, "a", v)

	v, ok = m.Where(Conditions{"name": "b"}).Pick("id", "name")
	require.True(t, ok)
	assert.Equal(t, []any{int64(2), "b"}, v)

	_, ok = m.Where(Conditions{"name": "z"}).Pick("name")
	assert.False(t, ok)
}

func TestWhere(t *testing.T) {
	m := newLoaded(t, "Country", testutil.CountryRows())

	tests := []struct {
		name  string
		conds Conditions
		want  []any
	}{
		{"string", Conditions{"name": "Peru"}, []any{"Peru"}},
		{"bool", Conditions{"active": true}, []any{"Canada", "Peru"}},
		{"stringified bool", Conditions{"active": "false"}, []any{"Mexico"}},
		{"stringified id", Conditions{"id": "2"}, []any{"Mexico"}},
		{"float id", Conditions{"id": 3.0}, []any{"Peru"}},
		{"nil matches nil only", Conditions{"code": nil}, []any{"Mexico"}},
		{"empty string does not match nil", Conditions{"code": ""}, []any{}},
		{"slice means membership", Conditions{"code": []string{"CA", "PE"}}, []any{"Canada", "Peru"}},
		{"several conditions", Conditions{"active": true, "code": "PE"}, []any{"Peru"}},
		{"no conditions", Conditions{}, []any{"Canada", "Mexico", "Peru"}},
		{"unknown field", Conditions{"zone": "x"}, []any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(m.Where(tt.conds)))
		})
	}
}

func TestAllWithConditions(t *testing.T) {
	m := newLoaded(t, "Country", testutil.CountryRows())

	rel := m.All(Conditions{"active": true}, Conditions{"code": "CA"})
	assert.Equal(t, []any{"Canada"}, names(rel))
	assert.Equal(t, `Country WHERE active = true AND code = "CA"`, rel.String())
}

func TestWhereNotAndFilter(t *testing.T) {
	m := newLoaded(t, "Country", testutil.CountryRows())

	assert.Equal(t, []any{"Mexico", "Peru"}, names(m.All().WhereNot(Conditions{"code": "CA"})))
	assert.Equal(t, []any{"Canada", "Peru"}, names(m.All().WhereNot(Conditions{"code": nil})))

	big := m.All().Filter(func(r *Record) bool {
		n, _ := r.Read("population").(int64)
		return n > 35
	})
	assert.Equal(t, []any{"Canada", "Mexico"}, names(big))

	rel := m.All().WherePredicate(queryir.In{Field: "id", Values: []any{1, 3}})
	assert.Equal(t, []any{"Canada", "Peru"}, names(rel))
}

func TestWhereDoesNotMutateReceiver(t *testing.T) {
	m := newLoaded(t, "Country", testutil.CountryRows())

	all := m.All()
	_ = all.Where(Conditions{"name": "Peru"})
	_ = all.Order(Desc("name"))

	assert.Equal(t, 3, all.Count())
	assert.Equal(t, []any{"Canada", "Mexico", "Peru"}, names(all))
	assert.Nil(t, all.Predicate())
}

func TestFind(t *testing.T) {
	m := newLoaded(t, "Country", testutil.CountryRows())

	for _, id := range []any{2, int64(2), 2.0, "2", uint8(2)} {
		r, err := m.Find(id)
		require.NoError(t, err)
		assert.Equal(t, "Mexico", r.Read("name"))
	}

	_, err := m.Find(99)
	require.Error(t, err)
	var nf *RecordNotFound
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "Country", nf.Model)
	assert.Equal(t, "id", nf.PrimaryKey)
	assert.Equal(t, int64(99), nf.ID)
	assert.Equal(t, "couldn't find Country with 'id'=99", err.Error())

	_, err = m.Find(nil)
	assert.True(t, IsNotFound(err))

	// Find searches the relation, not the whole store
	_, err = m.Where(Conditions{"active": true}).Find(2)
	assert.True(t, IsNotFound(err))
}

func TestFindMany(t *testing.T) {
	m := newLoaded(t, "Country", testutil.CountryRows())

	records, err := m.All().FindMany(3, 1)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Peru", records[0].Read("name"))
	assert.Equal(t, "Canada", records[1].Read("name"))

	_, err = m.All().FindMany(1, 7)
	assert.True(t, IsNotFound(err))
}

func TestFindBy(t *testing.T) {
	m := newLoaded(t, "Country", testutil.CountryRows())

	r, ok := m.FindBy(Conditions{"active": true})
	require.True(t, ok)
	assert.Equal(t, "Canada", r.Read("name"))

	_, ok = m.FindBy(Conditions{"name": "Chile"})
	assert.False(t, ok)

	r, ok = m.FindByID("3")
	require.True(t, ok)
	assert.Equal(t, "Peru", r.Read("name"))

	r, err := m.FindByOrFail(Conditions{"code": "PE"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), r.ID())

	_, err = m.FindByOrFail(Conditions{"name": "Chile", "active": true})
	var nf *RecordNotFound
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, []Criterion{{Field: "active", Value: true}, {Field: "name", Value: "Chile"}}, nf.Criteria)
	assert.Equal(t, "couldn't find Country with active = true, name = Chile", err.Error())
}

func TestFirstLastCount(t *testing.T) {
	m := newLoaded(t, "Country", testutil.CountryRows())

	first, ok := m.First()
	require.True(t, ok)
	assert.Equal(t, "Canada", first.Read("name"))

	last, ok := m.Last()
	require.True(t, ok)
	assert.Equal(t, "Peru", last.Read("name"))

	assert.Equal(t, 3, m.Count())
	assert.Equal(t, 2, m.Where(Conditions{"active": true}).Count())

	empty := m.Where(Conditions{"name": "none"})
	assert.True(t, empty.Empty())
	assert.False(t, empty.Exists())
	_, ok = empty.First()
	assert.False(t, ok)
	_, ok = empty.Last()
	assert.False(t, ok)
}

func TestOrder(t *testing.T) {
	m := newLoaded(t, "Item", []map[string]any{
		{"id": 1, "name": "b"},
		{"id": 2, "name": "a"},
	})

	assert.Equal(t, []any{"a", "b"}, names(m.Order(Asc("name"))))
	assert.Equal(t, []any{"b", "a"}, names(m.Order(Desc("name"))))

	// store order is untouched
	assert.Equal(t, []any{"b", "a"}, m.Pluck("name"))
}

func TestOrderMultipleKeysIsStable(t *testing.T) {
	m := newLoaded(t, "Country", []map[string]any{
		{"id": 1, "region": "south", "name": "Peru"},
		{"id": 2, "region": "north", "name": "Canada"},
		{"id": 3, "region": "south", "name": "Chile"},
		{"id": 4, "region": "north", "name": "Mexico"},
		{"id": 5, "region": nil, "name": "Atlantis"},
	})

	rel := m.Order(Asc("region"), Desc("name"))
	assert.Equal(t, []any{"Atlantis", "Mexico", "Canada", "Peru", "Chile"}, names(rel))

	// equal keys keep their relative order
	rel = m.Order(Desc("region"))
	assert.Equal(t, []any{"Peru", "Chile", "Canada", "Mexico", "Atlantis"}, names(rel))

	assert.Equal(t, "Country ORDER BY region DESC", rel.String())
}

func TestOrderNumeric(t *testing.T) {
	m := newLoaded(t, "Country", testutil.CountryRows())

	rel, err := m.All().OrderBy("population desc")
	require.NoError(t, err)
	assert.Equal(t, []any{"Mexico", "Canada", "Peru"}, names(rel))
}

func TestParseOrder(t *testing.T) {
	keys, err := ParseOrder("name DESC, id")
	require.NoError(t, err)
	assert.Equal(t, []OrderKey{Desc("name"), Asc("id")}, keys)

	keys, err = ParseOrder("code asc")
	require.NoError(t, err)
	assert.Equal(t, []OrderKey{Asc("code")}, keys)

	_, err = ParseOrder("name sideways")
	assert.Error(t, err)
	_, err = ParseOrder("name, ")
	assert.Error(t, err)
	_, err = ParseOrder("a b c")
	assert.Error(t, err)
}

func TestChainingLeavesStoreUntouched(t *testing.T) {
	m := newLoaded(t, "Country", testutil.CountryRows())
	before := snapshot(m)

	r, ok := m.Where(Conditions{"active": true}).Order(Asc("name")).Order(Desc("population")).First()
	require.True(t, ok)
	assert.Equal(t, "Canada", r.Read("name"))

	assert.Equal(t, before, snapshot(m))
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, m.IDs())
}

func TestRelationIsASnapshot(t *testing.T) {
	m := newLoaded(t, "Country", testutil.CountryRows())
	rel := m.All()

	_, err := m.Create(map[string]any{"name": "Chile"})
	require.NoError(t, err)
	m.Clear()

	assert.Equal(t, 3, rel.Count())
	assert.Equal(t, 0, m.Count())
}

func TestLimitOffset(t *testing.T) {
	m := newLoaded(t, "Country", testutil.CountryRows())

	assert.Equal(t, []any{"Canada", "Mexico"}, names(m.All().Limit(2)))
	assert.Equal(t, []any{"Canada", "Mexico", "Peru"}, names(m.All().Limit(-1)))
	assert.Equal(t, []any{}, names(m.All().Limit(0)))
	assert.Equal(t, []any{"Peru"}, names(m.All().Offset(2)))
	assert.Equal(t, []any{}, names(m.All().Offset(5)))
	assert.Equal(t, []any{"Mexico"}, names(m.All().Offset(1).Limit(1)))
}

func TestRecordsIsACopy(t *testing.T) {
	m := newLoaded(t, "Country", testutil.CountryRows())
	rel := m.All()

	records := rel.Records()
	records[0] = nil

	first, ok := rel.First()
	require.True(t, ok)
	assert.NotNil(t, first)
}
