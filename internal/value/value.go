package value

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Normalize converts v into the representation records store.
//
// Integers of every width become int64. Unsigned values that do not fit in
// int64 become float64. float32 becomes float64. json.Number becomes int64
// when integral, float64 otherwise. []byte becomes string. Nested []any and
// map[string]any are normalized recursively, and map[any]any (as produced by
// some YAML decoders) is converted to map[string]any.
func Normalize(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case int:
		return int64(val)
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case int64:
		return val
	case uint:
		return normalizeUnsigned(uint64(val))
	case uint8:
		return int64(val)
	case uint16:
		return int64(val)
	case uint32:
		return int64(val)
	case uint64:
		return normalizeUnsigned(val)
	case float32:
		return float64(val)
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case []byte:
		return string(val)
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = Normalize(elem)
		}
		return out
	case map[string]any:
		return NormalizeRow(val)
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[fmt.Sprint(k)] = Normalize(elem)
		}
		return out
	default:
		return v
	}
}

func normalizeUnsigned(u uint64) any {
	if u > math.MaxInt64 {
		return float64(u)
	}
	return int64(u)
}

// NormalizeRow returns a normalized copy of row. The input is not modified.
func NormalizeRow(row map[string]any) map[string]any {
	if row == nil {
		return nil
	}
	out := make(map[string]any, len(row))
	for k, v := range row {
		out[k] = Normalize(v)
	}
	return out
}

// IsNumeric reports whether v is a number after normalization.
func IsNumeric(v any) bool {
	_, ok := asFloat(Normalize(v))
	return ok
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// Stringify returns the string form used for index keys and finder matching.
//
// nil stringifies to "". Strings are NFC-normalized so that composed and
// decomposed spellings of the same text compare equal. Integral floats drop
// their fraction ("1", not "1.0") so ids read from JSON index the same way as
// ids read from YAML.
func Stringify(v any) string {
	switch val := Normalize(v).(type) {
	case nil:
		return ""
	case string:
		return norm.NFC.String(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format(time.RFC3339Nano)
	case fmt.Stringer:
		return val.String()
	case []any, map[string]any:
		data, err := MarshalCanonical(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	default:
		return fmt.Sprint(val)
	}
}

// Equal reports typed equality. Numbers compare by value across int64 and
// float64; times compare with time.Time.Equal; everything else must have the
// same dynamic type and be deeply equal.
func Equal(a, b any) bool {
	a, b = Normalize(a), Normalize(b)
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if fa, ok := asFloat(a); ok {
		fb, ok := asFloat(b)
		return ok && fa == fb
	}
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	return reflect.DeepEqual(a, b)
}

// StringEqual reports whether a and b have the same Stringify form.
// Dynamic finders and Where conditions match with this.
func StringEqual(a, b any) bool {
	return Stringify(a) == Stringify(b)
}

// Compare orders a and b, returning -1, 0 or +1.
//
// nil sorts before everything else. Numbers compare numerically, strings
// lexically, booleans false before true, and times chronologically. Values
// of different kinds fall back to comparing their Stringify forms so that
// the order is total and deterministic.
func Compare(a, b any) int {
	a, b = Normalize(a), Normalize(b)
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	if fa, ok := asFloat(a); ok {
		if fb, ok := asFloat(b); ok {
			return compareFloat(fa, fb)
		}
	}

	switch va := a.(type) {
	case string:
		if vb, ok := b.(string); ok {
			return strings.Compare(va, vb)
		}
	case bool:
		if vb, ok := b.(bool); ok {
			switch {
			case va == vb:
				return 0
			case !va:
				return -1
			default:
				return 1
			}
		}
	case time.Time:
		if vb, ok := b.(time.Time); ok {
			return va.Compare(vb)
		}
	}

	return strings.Compare(Stringify(a), Stringify(b))
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Succ returns v+1 for numeric v. The second result is false when v is not
// a number, which is how id assignment signals "no usable next id", and
// when v+1 is not representable: math.MaxInt64, or a float too large to
// change when one is added.
func Succ(v any) (any, bool) {
	switch n := Normalize(v).(type) {
	case int64:
		if n == math.MaxInt64 {
			return nil, false
		}
		return n + 1, true
	case float64:
		if n+1 == n {
			return nil, false
		}
		return n + 1, true
	default:
		return nil, false
	}
}

// Present implements interrogator semantics: nil, strings that are empty
// or whitespace only, false, and empty slices or maps are absent.
func Present(v any) bool {
	switch val := Normalize(v).(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(val) != ""
	case bool:
		return val
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	default:
		return true
	}
}

// AsList returns v as []any when v is a slice or array (other than a byte
// slice, which Normalize treats as a string).
func AsList(v any) ([]any, bool) {
	v = Normalize(v)
	if list, ok := v.([]any); ok {
		return list, true
	}
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = Normalize(rv.Index(i).Interface())
	}
	return out, true
}
