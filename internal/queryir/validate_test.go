package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePortable(t *testing.T) {
	pred := And{Predicates: []Predicate{
		Equals{Field: "name", Value: "US"},
		Not{Predicate: In{Field: "id", Values: []any{int64(1)}}},
	}}

	result := Validate(pred, nil)
	assert.True(t, result.IsPortable)
	assert.Empty(t, result.Warnings)
	assert.NotNil(t, result.Warnings)
}

func TestValidateFunc(t *testing.T) {
	result := Validate(Func{Name: "big"}, nil)

	assert.False(t, result.IsPortable)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "big()")
}

func TestValidateUnknownField(t *testing.T) {
	known := func(f string) bool { return f == "id" || f == "name" }
	pred := And{Predicates: []Predicate{
		Equals{Field: "name", Value: "US"},
		Equals{Field: "zone", Value: "z"},
	}}

	result := Validate(pred, known)
	assert.False(t, result.IsPortable)
	assert.Equal(t, []string{`unknown field "zone"`}, result.Warnings)
}

func TestValidateCompositeValue(t *testing.T) {
	result := Validate(Equals{Field: "tags", Value: []any{"a"}}, nil)
	assert.False(t, result.IsPortable)
}

func TestValidateNil(t *testing.T) {
	assert.True(t, Validate(nil, nil).IsPortable)
}
