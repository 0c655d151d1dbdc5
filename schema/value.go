// Package schema defines the blog post front-matter schema and validates
// untyped front-matter records against it.
package schema

import (
	"fmt"
	"reflect"
	"time"
)

// Kind identifies the primitive carried by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindSequence
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindSequence:
		return "array"
	case KindMap:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a single untyped front-matter value.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	seq  []Value
	m    map[string]Value
}

// Record is a raw front-matter block. A missing key means the field is
// absent; a key mapped to Null() is present with a null value.
type Record map[string]Value

func String(s string) Value         { return Value{kind: KindString, str: s} }
func Number(n float64) Value        { return Value{kind: KindNumber, num: n} }
func Bool(b bool) Value             { return Value{kind: KindBool, b: b} }
func Null() Value                   { return Value{kind: KindNull} }
func Sequence(items ...Value) Value { return Value{kind: KindSequence, seq: items} }
func Map(m map[string]Value) Value  { return Value{kind: KindMap, m: m} }

func (v Value) Kind() Kind { return v.kind }

// Str returns the string payload and whether v is a string.
func (v Value) Str() (string, bool) { return v.str, v.kind == KindString }

// Num returns the numeric payload and whether v is a number.
func (v Value) Num() (float64, bool) { return v.num, v.kind == KindNumber }

// Items returns the elements of a sequence and whether v is a sequence.
func (v Value) Items() ([]Value, bool) { return v.seq, v.kind == KindSequence }

// Fields returns the members of a map and whether v is a map.
func (v Value) Fields() (map[string]Value, bool) { return v.m, v.kind == KindMap }

// Interface converts v back into plain Go values.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindSequence:
		out := make([]any, len(v.seq))
		for i, item := range v.seq {
			out[i] = item.Interface()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.m))
		for k, item := range v.m {
			out[k] = item.Interface()
		}
		return out
	default:
		return nil
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindString:
		return fmt.Sprintf("%q", v.str)
	case KindNull:
		return "null"
	default:
		return fmt.Sprint(v.Interface())
	}
}

// FromAny converts a value produced by a JSON, YAML or TOML decoder.
// time.Time values become RFC 3339 strings and other fmt.Stringer values
// (TOML local dates) become their string form, so that every date goes
// through the same coercion rules.
func FromAny(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case float64:
		return Number(t), nil
	case float32:
		return Number(float64(t)), nil
	case int:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case int32:
		return Number(float64(t)), nil
	case uint64:
		return Number(float64(t)), nil
	case time.Time:
		return String(t.Format(time.RFC3339Nano)), nil
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			v, err := FromAny(item)
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			items[i] = v
		}
		return Sequence(items...), nil
	case map[string]any:
		m := make(map[string]Value, len(t))
		for k, item := range t {
			v, err := FromAny(item)
			if err != nil {
				return Value{}, fmt.Errorf("%s: %w", k, err)
			}
			m[k] = v
		}
		return Map(m), nil
	case fmt.Stringer:
		return String(t.String()), nil
	}

	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Number(float64(rv.Int())), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Number(float64(rv.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return Number(rv.Float()), nil
	case reflect.Slice, reflect.Array:
		items := make([]Value, rv.Len())
		for i := range items {
			v, err := FromAny(rv.Index(i).Interface())
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			items[i] = v
		}
		return Sequence(items...), nil
	}
	return Value{}, fmt.Errorf("unsupported value of type %T", x)
}

// RecordFromMap converts a decoded mapping into a Record.
func RecordFromMap(m map[string]any) (Record, error) {
	rec := make(Record, len(m))
	for k, x := range m {
		v, err := FromAny(x)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		rec[k] = v
	}
	return rec, nil
}
