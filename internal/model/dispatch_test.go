package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/refset/internal/hostcompat"
	"github.com/roach88/refset/internal/schema"
	"github.com/roach88/refset/internal/testutil"
)

func TestFinderByName(t *testing.T) {
	m := newLoaded(t, "Item", testutil.PairRows())

	got, err := m.Call("findByName", "b")
	require.NoError(t, err)
	r, ok := got.(*Record)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"id": int64(2), "name": "b"}, r.Attributes())

	got, err = m.Call("findByName", "z")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFinderBang(t *testing.T) {
	m := newLoaded(t, "Item", testutil.PairRows())

	_, err := m.Call("findByNameBang", "z")
	require.Error(t, err)

	var nf *RecordNotFound
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "Item", nf.Model)
	assert.Equal(t, []Criterion{{Field: "name", Value: "z"}}, nf.Criteria)
	assert.Equal(t, "couldn't find Item with name = z", err.Error())

	got, err := m.Call("find_by_name!", "a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.(*Record).ID())
}

func TestFinderAll(t *testing.T) {
	m := newLoaded(t, "Country", testutil.CountryRows())

	got, err := m.Call("findAllByActive", true)
	require.NoError(t, err)
	records, ok := got.([]*Record)
	require.True(t, ok)
	require.Len(t, records, 2)
	assert.Equal(t, "Canada", records[0].Read("name"))
	assert.Equal(t, "Peru", records[1].Read("name"))

	got, err = m.Call("find_all_by_code", "XX")
	require.NoError(t, err)
	assert.Equal(t, []*Record{}, got)
}

func TestFinderMatchesStringified(t *testing.T) {
	m := newLoaded(t, "Country", testutil.CountryRows())

	got, err := m.Call("findById", "3")
	require.NoError(t, err)
	assert.Equal(t, "Peru", got.(*Record).Read("name"))

	got, err = m.Call("findByActive", "false")
	require.NoError(t, err)
	assert.Equal(t, "Mexico", got.(*Record).Read("name"))

	got, err = m.Call("findByPopulation", 126.0)
	require.NoError(t, err)
	assert.Equal(t, "Mexico", got.(*Record).Read("name"))
}

func TestFieldFinderMatchesTyped(t *testing.T) {
	m := newLoaded(t, "Country", testutil.CountryRows())

	got, err := m.Call("find_by_population", "126")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = m.Call("find_by_population", 126)
	require.NoError(t, err)
	assert.Equal(t, "Mexico", got.(*Record).Read("name"))

	got, err = m.Call("find_all_by_active", "true")
	require.NoError(t, err)
	assert.Equal(t, []*Record{}, got)

	got, err = m.Call("find_all_by_active", true)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	// the bang form and camel case keep string comparison
	got, err = m.Call("find_by_population!", "126")
	require.NoError(t, err)
	assert.Equal(t, "Mexico", got.(*Record).Read("name"))

	got, err = m.Call("findByPopulation", "126")
	require.NoError(t, err)
	assert.Equal(t, "Mexico", got.(*Record).Read("name"))
}

func TestFinderSeveralFields(t *testing.T) {
	m := newLoaded(t, "Country", testutil.CountryRows())

	got, err := m.Call("findByActiveAndCode", true, "PE")
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.(*Record).ID())

	got, err = m.Call("find_by_active_and_code", true, "MX")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFinderMissingArgumentsAreNil(t *testing.T) {
	m := newLoaded(t, "Country", testutil.CountryRows())

	// nil stringifies to "", which is also how a nil code stringifies
	got, err := m.Call("findByCode")
	require.NoError(t, err)
	assert.Equal(t, "Mexico", got.(*Record).Read("name"))
}

func TestFinderUsesDefaults(t *testing.T) {
	m := newLoaded(t, "Country", []map[string]any{
		{"id": 1, "name": "Canada", "currency": "CAD"},
		{"id": 2, "name": "Ecuador"},
	})
	require.NoError(t, m.DeclareField("currency", schema.WithDefault("USD")))

	got, err := m.Call("findByCurrency", "USD")
	require.NoError(t, err)
	assert.Equal(t, "Ecuador", got.(*Record).Read("name"))
}

func TestRespondsTo(t *testing.T) {
	m := newLoaded(t, "Country", []map[string]any{{"id": 1, "name": "Canada", "first_name": "x", "isoCode": "CA"}})
	require.NoError(t, m.DefineScope("named", func(rel *Relation, args ...any) (*Relation, error) {
		return rel, nil
	}))

	for _, name := range []string{
		"findByName", "FindByName", "findById", "findByIdAndName", "findAllByName",
		"findByNameBang", "find_by_name", "find_by_first_name", "findByFirstName",
		"findByIsoCode", "find_all_by_id", "named",
	} {
		assert.True(t, m.RespondsTo(name), name)
	}

	for _, name := range []string{
		"findByZone", "findAllByNameBang", "find_all_by_name!", "findByNameAndZone",
		"where", "", "findBy", "unknownScope",
	} {
		assert.False(t, m.RespondsTo(name), name)
	}
}

func TestFinderTrailingBangField(t *testing.T) {
	m := newLoaded(t, "Event", []map[string]any{
		{"id": 1, "big": "x", "big_bang": "yes"},
		{"id": 2, "big": "y", "big_bang": "no"},
	})

	// Big resolves, so the bang reading wins
	got, err := m.Call("findByBigBang", "y")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.(*Record).ID())

	only := newLoaded(t, "Event", []map[string]any{
		{"id": 1, "big_bang": "yes"},
		{"id": 2, "big_bang": "no"},
	})
	assert.True(t, only.RespondsTo("findByBigBang"))
	assert.True(t, only.RespondsTo("findAllByBigBang"))

	got, err = only.Call("findByBigBang", "no")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.(*Record).ID())

	got, err = only.Call("findByBigBang", "maybe")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = only.Call("findAllByBigBang", "yes")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestCallUnknownMethod(t *testing.T) {
	m := newLoaded(t, "Country", testutil.CountryRows())

	_, err := m.Call("findByZone", "x")
	require.Error(t, err)
	assert.True(t, IsNoMethod(err))
	assert.Equal(t, "undefined method 'findByZone' for Country", err.Error())

	_, err = m.Call("findAllByActiveBang", true)
	assert.True(t, IsNoMethod(err))
}

func TestFinderSeesFieldsDeclaredLater(t *testing.T) {
	m := newLoaded(t, "Country", testutil.PairRows())
	assert.False(t, m.RespondsTo("findByZone"))

	require.NoError(t, m.DeclareField("zone"))
	assert.True(t, m.RespondsTo("findByZone"))
}

func TestModelIsReflector(t *testing.T) {
	var r hostcompat.Reflector = newLoaded(t, "Item", testutil.PairRows())

	assert.True(t, r.RespondsTo("findByName"))
	got, err := r.Call("findByName", "a")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestTransaction(t *testing.T) {
	m := newLoaded(t, "Item", testutil.PairRows())

	err := m.Transaction(func() error {
		_, err := m.Call("findByNameBang", "z")
		return err
	})
	assert.True(t, IsNotFound(err))

	err = m.Transaction(func() error { return hostcompat.ErrRollback })
	assert.NoError(t, err)
}
