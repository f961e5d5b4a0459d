package provision

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
)

const redacted = "[secret]"

type (
	// Value is an output value reported by an engine. It is a closed set: Scalar, SecretValue,
	// Deferred, Mapping and Sequence.
	Value interface {
		value()
	}

	Scalar struct {
		V any
	}

	SecretValue struct {
		Inner Value
	}

	// Deferred is a value whose computation has not run yet.
	Deferred struct {
		Resolve func() (Value, error)
	}

	Mapping map[string]Value

	Sequence []Value
)

func (Scalar) value()      {}
func (SecretValue) value() {}
func (Deferred) value()    {}
func (Mapping) value()     {}
func (Sequence) value()    {}

func (s SecretValue) String() string {
	return redacted
}

func (s SecretValue) GoString() string {
	return redacted
}

func (s SecretValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(redacted)
}

// FromAny converts plain data into a Value. Values already in the model are returned unchanged.
func FromAny(v any) Value {
	switch v := v.(type) {
	case Value:
		return v
	case nil:
		return Scalar{}
	case map[string]any:
		m := make(Mapping, len(v))
		for k, item := range v {
			m[k] = FromAny(item)
		}
		return m
	case []any:
		s := make(Sequence, len(v))
		for i, item := range v {
			s[i] = FromAny(item)
		}
		return s
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		m := make(Mapping, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = FromAny(iter.Value().Interface())
		}
		return m
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			break
		}
		s := make(Sequence, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			s[i] = FromAny(rv.Index(i).Interface())
		}
		return s
	}
	return Scalar{V: v}
}

// Unwrap turns a Value into plain data, resolving deferred values and revealing secrets,
// recursing through mappings and sequences.
func Unwrap(v Value) (any, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case Scalar:
		return v.V, nil
	case SecretValue:
		return Unwrap(v.Inner)
	case Deferred:
		if v.Resolve == nil {
			return nil, nil
		}
		resolved, err := v.Resolve()
		if err != nil {
			return nil, err
		}
		return Unwrap(resolved)
	case Mapping:
		out := make(map[string]any, len(v))
		for _, k := range sortedKeys(v) {
			item, err := Unwrap(v[k])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = item
		}
		return out, nil
	case Sequence:
		out := make([]any, len(v))
		for i, item := range v {
			u, err := Unwrap(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = u
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown value type %T", v)
	}
}

// UnwrapAll unwraps every entry of an output namespace.
func UnwrapAll(outputs map[string]Value) (map[string]any, error) {
	out := make(map[string]any, len(outputs))
	for _, k := range sortedKeys(outputs) {
		u, err := Unwrap(outputs[k])
		if err != nil {
			return nil, fmt.Errorf("output %s: %w", k, err)
		}
		out[k] = u
	}
	return out, nil
}

// Redact is like Unwrap but replaces secrets with a placeholder, for logging and persisted state.
// Deferred values are left unresolved.
func Redact(v Value) any {
	switch v := v.(type) {
	case Scalar:
		return v.V
	case SecretValue:
		return redacted
	case Deferred:
		return "[deferred]"
	case Mapping:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = Redact(item)
		}
		return out
	case Sequence:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = Redact(item)
		}
		return out
	default:
		return nil
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
