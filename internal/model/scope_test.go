package model

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/refset/internal/testutil"
)

func countryScopes(t *testing.T, m *Model) {
	t.Helper()
	require.NoError(t, m.DefineScope("active", func(rel *Relation, _ ...any) (*Relation, error) {
		return rel.Where(Conditions{"active": true}), nil
	}))
	require.NoError(t, m.DefineScope("larger_than", func(rel *Relation, args ...any) (*Relation, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("want 1 argument, got %d", len(args))
		}
		floor, ok := args[0].(int)
		if !ok {
			return nil, fmt.Errorf("argument must be an int, got %T", args[0])
		}
		return rel.Filter(func(r *Record) bool {
			n, _ := r.Read("population").(int64)
			return n > int64(floor)
		}), nil
	}))
}

func TestScope(t *testing.T) {
	m := newLoaded(t, "Country", testutil.CountryRows())
	countryScopes(t, m)

	rel, err := m.Scope("active")
	require.NoError(t, err)
	assert.Equal(t, []any{"Canada", "Peru"}, names(rel))

	rel, err = m.Scope("larger_than", 35)
	require.NoError(t, err)
	assert.Equal(t, []any{"Canada", "Mexico"}, names(rel))

	assert.Equal(t, []string{"active", "larger_than"}, m.Scopes())
	assert.True(t, m.HasScope("active"))
	assert.False(t, m.HasScope("inactive"))
}

func TestScopesChain(t *testing.T) {
	m := newLoaded(t, "Country", testutil.CountryRows())
	countryScopes(t, m)

	rel, err := m.Scope("active")
	require.NoError(t, err)
	rel, err = rel.Scope("larger_than", 35)
	require.NoError(t, err)
	assert.Equal(t, []any{"Canada"}, names(rel))

	rel, err = m.Where(Conditions{"code": "PE"}).Scope("active")
	require.NoError(t, err)
	assert.Equal(t, []any{"Peru"}, names(rel))

	ordered := rel.Order(Desc("name"))
	assert.Equal(t, 1, ordered.Count())
}

func TestScopeErrors(t *testing.T) {
	m := newLoaded(t, "Country", testutil.CountryRows())
	countryScopes(t, m)

	_, err := m.Scope("missing")
	assert.True(t, IsNoMethod(err))

	_, err = m.Scope("larger_than", "big")
	require.Error(t, err)
	assert.Equal(t, "scope Country.larger_than: argument must be an int, got string", err.Error())

	sentinel := errors.New("boom")
	require.NoError(t, m.DefineScope("broken", func(*Relation, ...any) (*Relation, error) {
		return nil, sentinel
	}))
	_, err = m.Call("broken")
	assert.ErrorIs(t, err, sentinel)
}

func TestDefineScopeValidation(t *testing.T) {
	m := newLoaded(t, "Country", nil)

	assert.Error(t, m.DefineScope("nothing", nil))
	assert.Error(t, m.DefineScope("", func(rel *Relation, _ ...any) (*Relation, error) { return rel, nil }))
	assert.Empty(t, m.Scopes())
}

func TestScopeReturningNilIsEmpty(t *testing.T) {
	m := newLoaded(t, "Country", testutil.CountryRows())
	require.NoError(t, m.DefineScope("none", func(*Relation, ...any) (*Relation, error) {
		return nil, nil
	}))

	rel, err := m.Scope("none")
	require.NoError(t, err)
	assert.Equal(t, 0, rel.Count())
	assert.Equal(t, []*Record{}, rel.Records())
}

func TestScopeSeesLaterRecords(t *testing.T) {
	m := newLoaded(t, "Country", testutil.CountryRows())
	countryScopes(t, m)

	_, err := m.Create(map[string]any{"name": "Chile", "active": true, "population": 19})
	require.NoError(t, err)

	rel, err := m.Scope("active")
	require.NoError(t, err)
	assert.Equal(t, []any{"Canada", "Peru", "Chile"}, names(rel))
}

func TestCallScope(t *testing.T) {
	m := newLoaded(t, "Country", testutil.CountryRows())
	countryScopes(t, m)

	got, err := m.Call("larger_than", 100)
	require.NoError(t, err)
	rel, ok := got.(*Relation)
	require.True(t, ok)
	assert.Equal(t, []any{"Mexico"}, names(rel))
	assert.True(t, m.RespondsTo("larger_than"))
}

func TestScopeMayCallBackIntoModel(t *testing.T) {
	m := newLoaded(t, "Country", testutil.CountryRows())
	require.NoError(t, m.DefineScope("like_first", func(rel *Relation, _ ...any) (*Relation, error) {
		first, ok := m.First()
		if !ok {
			return rel, nil
		}
		return rel.Where(Conditions{"active": first.Read("active")}), nil
	}))

	rel, err := m.Scope("like_first")
	require.NoError(t, err)
	assert.Equal(t, []any{"Canada", "Peru"}, names(rel))
}

func TestConcurrentCreateAndRead(t *testing.T) {
	m := newLoaded(t, "Country", testutil.CountryRows())
	countryScopes(t, m)

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := m.Create(map[string]any{"name": fmt.Sprintf("c%d", i), "active": true}); err != nil {
				errs <- err
			}
		}(i)

		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.Where(Conditions{"active": true}).Order(Asc("name")).Count()
			_, _ = m.Call("findByName", "Peru")
			_, _ = m.Scope("active")
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("create: %v", err)
	}

	assert.Equal(t, 3+writers, m.Count())
	ids := make(map[any]bool)
	for _, id := range m.IDs() {
		ids[id] = true
	}
	assert.Len(t, ids, 3+writers)
}
