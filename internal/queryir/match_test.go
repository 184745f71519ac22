package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type mapRow map[string]any

func (r mapRow) Read(field string) any { return r[field] }

func TestMatchEquals(t *testing.T) {
	row := mapRow{"id": int64(1), "name": "Canada", "code": nil}

	tests := []struct {
		name string
		pred Predicate
		want bool
	}{
		{"typed equal", Equals{Field: "id", Value: 1}, true},
		{"float equals int", Equals{Field: "id", Value: 1.0}, true},
		{"string equals int", Equals{Field: "id", Value: "1"}, true},
		{"different", Equals{Field: "id", Value: 2}, false},
		{"string field", Equals{Field: "name", Value: "Canada"}, true},
		{"nil matches nil", Equals{Field: "code", Value: nil}, true},
		{"nil matches missing", Equals{Field: "zone", Value: nil}, true},
		{"nil does not match empty string", Equals{Field: "name", Value: nil}, false},
		{"empty string does not match nil", Equals{Field: "code", Value: ""}, false},
		{"pointer form", &Equals{Field: "name", Value: "Canada"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Match(tt.pred, row))
		})
	}
}

func TestMatchIn(t *testing.T) {
	row := mapRow{"id": int64(2)}

	assert.True(t, Match(In{Field: "id", Values: []any{1, 2}}, row))
	assert.True(t, Match(In{Field: "id", Values: []any{"2"}}, row))
	assert.False(t, Match(In{Field: "id", Values: []any{3}}, row))
	assert.False(t, Match(In{Field: "id", Values: nil}, row))
}

func TestMatchComposite(t *testing.T) {
	row := mapRow{"id": int64(1), "name": "US", "active": true}

	pred := And{Predicates: []Predicate{
		Equals{Field: "name", Value: "US"},
		Not{Predicate: Equals{Field: "active", Value: false}},
	}}
	assert.True(t, Match(pred, row))

	assert.True(t, Match(And{}, row))
	assert.False(t, Match(Not{}, row))
	assert.True(t, Match(nil, row))
}

func TestMatchFunc(t *testing.T) {
	row := mapRow{"population": int64(10)}
	big := Func{Name: "big", Fn: func(r Row) bool {
		n, _ := r.Read("population").(int64)
		return n > 5
	}}

	assert.True(t, Match(big, row))
	assert.False(t, Match(Func{Name: "nil"}, row))
}

func TestFromConditions(t *testing.T) {
	pred := FromConditions(map[string]any{"name": "US", "id": []int{1, 2}})

	assert.Equal(t, And{Predicates: []Predicate{
		In{Field: "id", Values: []any{int64(1), int64(2)}},
		Equals{Field: "name", Value: "US"},
	}}, pred)
	assert.Equal(t, `id IN (1, 2) AND name = "US"`, pred.String())

	assert.Equal(t, Equals{Field: "id", Value: int64(1)}, FromConditions(map[string]any{"id": 1}))
	assert.Equal(t, And{Predicates: []Predicate{}}, FromConditions(nil))
}

func TestValuesMatch(t *testing.T) {
	assert.True(t, ValuesMatch(nil, nil))
	assert.False(t, ValuesMatch(nil, ""))
	assert.True(t, ValuesMatch(true, "true"))
	assert.True(t, ValuesMatch(int64(3), 3.0))
}
