package attr

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"strings"
)

// Map is an immutable mapping from keys to one or more values.
// Values are stored already coerced to the key's Go type.
type Map struct {
	values map[string][]any
}

// Build validates raw configuration entries against the schema and returns
// the resulting map. Scalar and list raw values are accepted for every key.
//
// The first offending entry (in name order) is reported; a type mismatch is
// never replaced with a default.
func Build(s *Schema, raw map[string]any) (*Map, error) {
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	m := &Map{values: make(map[string][]any, len(raw))}
	for _, name := range names {
		key, ok := s.Lookup(name)
		if !ok {
			return nil, &UnknownKeyError{Key: name}
		}
		vals, err := coerceAll(key, raw[name])
		if err != nil {
			return nil, err
		}
		if len(vals) == 0 {
			continue
		}
		m.values[name] = vals
	}
	return m, nil
}

func coerceAll(key AnyKey, raw any) ([]any, error) {
	list, isList := raw.([]any)
	if !isList {
		v, err := coerce(key, raw, -1)
		if err != nil {
			return nil, err
		}
		return []any{v}, nil
	}
	out := make([]any, 0, len(list))
	for i, elem := range list {
		v, err := coerce(key, elem, i)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func coerce(key AnyKey, raw any, index int) (any, error) {
	mismatch := &TypeError{Key: key.Name(), Want: key.Kind(), Value: raw, Index: index}
	switch key.Kind() {
	case KindInt:
		if n, ok := toInt(raw); ok {
			return n, nil
		}
	case KindFloat:
		if f, ok := toFloat(raw); ok {
			return f, nil
		}
	case KindBool:
		if b, ok := raw.(bool); ok {
			return b, nil
		}
	case KindString:
		if s, ok := raw.(string); ok {
			return s, nil
		}
	case KindJSON:
		if s, ok := raw.(string); ok {
			return s, nil
		}
		if raw == nil {
			return nil, mismatch
		}
		s, err := encodeJSON(normalizeJSON(raw))
		if err != nil {
			return nil, mismatch
		}
		return s, nil
	}
	return nil, mismatch
}

// encodeJSON is compact json without HTML escaping, so expressions like
// "<10" stay readable in explain output and diagnostics.
func encodeJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func toInt(raw any) (int, bool) {
	switch n := raw.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		return int(n), true
	case float32:
		return intFromFloat(float64(n))
	case float64:
		return intFromFloat(n)
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	}
	return 0, false
}

func intFromFloat(f float64) (int, bool) {
	if math.Trunc(f) != f || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}

func toFloat(raw any) (float64, bool) {
	switch n := raw.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	if i, ok := toInt(raw); ok {
		return float64(i), true
	}
	return 0, false
}

// normalizeJSON converts map[any]any (older YAML decoders) into
// map[string]any so json.Marshal accepts it.
func normalizeJSON(v any) any {
	switch val := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			if ks, ok := k.(string); ok {
				out[ks] = normalizeJSON(elem)
			}
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = normalizeJSON(elem)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = normalizeJSON(elem)
		}
		return out
	default:
		return v
	}
}

// Has reports whether a value was supplied for key.
func Has[T any](m *Map, key Key[T]) bool {
	if m == nil {
		return false
	}
	_, ok := m.values[key.name]
	return ok
}

// Get returns the first value for key. Callers guard with Has; an absent key
// yields a *MissingKeyError.
func Get[T any](m *Map, key Key[T]) (T, error) {
	var zero T
	if !Has(m, key) {
		return zero, &MissingKeyError{Key: key.name}
	}
	v, ok := m.values[key.name][0].(T)
	if !ok {
		return zero, &TypeError{Key: key.name, Want: key.kind, Value: m.values[key.name][0], Index: -1}
	}
	return v, nil
}

// GetOr returns the first value for key, or def when absent.
func GetOr[T any](m *Map, key Key[T], def T) T {
	v, err := Get(m, key)
	if err != nil {
		return def
	}
	return v
}

// List returns every value supplied for key in configuration order.
// The result is never nil.
func List[T any](m *Map, key Key[T]) []T {
	if !Has(m, key) {
		return []T{}
	}
	raw := m.values[key.name]
	out := make([]T, 0, len(raw))
	for _, v := range raw {
		if tv, ok := v.(T); ok {
			out = append(out, tv)
		}
	}
	return out
}

// Keys returns the names of all present keys, sorted.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	names := make([]string, 0, len(m.values))
	for name := range m.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MarshalJSON encodes the map as an object of value lists. Keys are emitted
// in sorted order, so equal maps always encode to equal bytes.
func (m *Map) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m.values)
}

// Len returns the number of present keys.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.values)
}
