package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/refset/internal/value"
)

// Kind is how a column's values are encoded in SQLite.
type Kind string

const (
	// KindNative values are stored as SQLite integers, reals or text.
	KindNative Kind = ""
	KindBool   Kind = "bool"
	KindJSON   Kind = "json"
	KindTime   Kind = "time"
)

func kindOf(v any) Kind {
	switch v.(type) {
	case bool:
		return KindBool
	case time.Time:
		return KindTime
	case []any, map[string]any:
		return KindJSON
	default:
		return KindNative
	}
}

// columnKinds picks one kind per column. Columns whose non-nil values
// disagree are stored as JSON so every value survives the round trip.
func columnKinds(columns []string, rows []map[string]any) map[string]Kind {
	kinds := make(map[string]Kind, len(columns))
	for _, col := range columns {
		var (
			kind Kind
			seen bool
		)
		for _, row := range rows {
			v := value.Normalize(row[col])
			if v == nil {
				continue
			}
			k := kindOf(v)
			switch {
			case !seen:
				kind, seen = k, true
			case k != kind:
				kind = KindJSON
			}
		}
		if kind != KindNative {
			kinds[col] = kind
		}
	}
	return kinds
}

// encodeValue converts v to a value go-sqlite3 can bind.
func encodeValue(v any, kind Kind) (any, error) {
	v = value.Normalize(v)
	if v == nil {
		return nil, nil
	}
	switch kind {
	case KindBool:
		if v.(bool) {
			return int64(1), nil
		}
		return int64(0), nil
	case KindTime:
		return v.(time.Time).UTC().Format(time.RFC3339Nano), nil
	case KindJSON:
		data, err := value.MarshalCanonical(v)
		if err != nil {
			return nil, fmt.Errorf("encode value: %w", err)
		}
		return string(data), nil
	default:
		return v, nil
	}
}

// decodeValue reverses encodeValue. Values of unknown kind pass through,
// with []byte converted to string.
func decodeValue(v any, kind Kind) (any, error) {
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	if v == nil {
		return nil, nil
	}
	switch kind {
	case KindBool:
		n, ok := v.(int64)
		if !ok {
			return nil, fmt.Errorf("decode bool: unexpected %T", v)
		}
		return n != 0, nil
	case KindTime:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("decode time: unexpected %T", v)
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, fmt.Errorf("decode time: %w", err)
		}
		return t, nil
	case KindJSON:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("decode json: unexpected %T", v)
		}
		dec := json.NewDecoder(strings.NewReader(s))
		dec.UseNumber()
		var out any
		if err := dec.Decode(&out); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
		return value.Normalize(out), nil
	default:
		return v, nil
	}
}

// marshalColumns converts a column list to canonical JSON TEXT for storage.
func marshalColumns(columns []string) (string, error) {
	list := make([]any, len(columns))
	for i, c := range columns {
		list[i] = c
	}
	data, err := value.MarshalCanonical(list)
	if err != nil {
		return "", fmt.Errorf("marshal columns: %w", err)
	}
	return string(data), nil
}

// marshalKinds converts the column kinds to canonical JSON TEXT for storage.
func marshalKinds(kinds map[string]Kind) (string, error) {
	m := make(map[string]any, len(kinds))
	for col, k := range kinds {
		m[col] = string(k)
	}
	data, err := value.MarshalCanonical(m)
	if err != nil {
		return "", fmt.Errorf("marshal kinds: %w", err)
	}
	return string(data), nil
}

func unmarshalColumns(data string) ([]string, error) {
	var cols []string
	if err := json.Unmarshal([]byte(data), &cols); err != nil {
		return nil, fmt.Errorf("unmarshal columns: %w", err)
	}
	if cols == nil {
		cols = []string{}
	}
	return cols, nil
}

func unmarshalKinds(data string) (map[string]Kind, error) {
	var kinds map[string]Kind
	if data == "" || data == "{}" {
		return map[string]Kind{}, nil
	}
	if err := json.Unmarshal([]byte(data), &kinds); err != nil {
		return nil, fmt.Errorf("unmarshal kinds: %w", err)
	}
	return kinds, nil
}

// hashDomain separates table content hashes from any other SHA-256 use.
const hashDomain = "refset/table/v1"

// ContentHash returns a hex SHA-256 over the canonical JSON of rows. Key
// order within rows does not matter; row order does.
func ContentHash(rows []map[string]any) (string, error) {
	list := make([]any, len(rows))
	for i, row := range rows {
		list[i] = value.NormalizeRow(row)
	}
	data, err := value.MarshalCanonical(list)
	if err != nil {
		return "", fmt.Errorf("hash rows: %w", err)
	}

	h := sha256.New()
	h.Write([]byte(hashDomain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}
