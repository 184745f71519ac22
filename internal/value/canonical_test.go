package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"null", nil, "null"},
		{"string", "hello", `"hello"`},
		{"empty string", "", `""`},
		{"int", 42, "42"},
		{"negative int", -100, "-100"},
		{"max int64", int64(9223372036854775807), "9223372036854775807"},
		{"float", 1.5, "1.5"},
		{"integral float", 3.0, "3"},
		{"bool", false, "false"},
		{"empty array", []any{}, "[]"},
		{"empty object", map[string]any{}, "{}"},
		{"nested", map[string]any{"z": []any{1, "a"}, "a": nil}, `{"a":null,"z":[1,"a"]}`},
		{"no html escaping", "<a&b>", `"<a&b>"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalStruct(t *testing.T) {
	type pair struct {
		B int    `json:"b"`
		A string `json:"a"`
	}

	result, err := MarshalCanonical(pair{B: 2, A: "x"})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"x","b":2}`, string(result))
}

func TestMarshalCanonicalRejectsNonFinite(t *testing.T) {
	_, err := MarshalCanonical(math.Inf(1))
	assert.Error(t, err)
}

func TestSortedKeysUTF16Order(t *testing.T) {
	m := map[string]any{"a": 1, "A": 2, "aa": 3, "aA": 4, "Aa": 5, "AA": 6}

	assert.Equal(t, []string{"A", "AA", "Aa", "a", "aA", "aa"}, SortedKeys(m))
}

func TestSortedKeysSurrogatePairs(t *testing.T) {
	// U+1F600 encodes as surrogates 0xD83D 0xDE00, which sort before U+FF61
	// in UTF-16 even though the UTF-8 bytes sort after.
	m := map[string]any{"\U0001F600": 1, "｡": 2}

	assert.Equal(t, []string{"\U0001F600", "｡"}, SortedKeys(m))
}
