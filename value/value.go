// SPDX-License-Identifier: GPL-3.0-or-later

// Package value implements the probe engine's dynamic variable model: an
// insertion-ordered mapping from variable name to a tagged value, and the
// tagged value sum type itself (spec.md §3, §9).
package value

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind tags the variant held by a [Value].
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBytes
	KindArray
	KindObject
)

// Value is the tagged sum Null | Bool | Int | Float | String | Bytes |
// Array<Value> | Object<Name→Value> used throughout the engine: binary
// reads, HTTP JSON bodies, code-interpreter results, and output templates
// all produce and consume this one type (spec.md §9).
type Value struct {
	kind   Kind
	b      bool
	i      int64
	f      float64
	s      string
	bytes  []byte
	arr    []Value
	object *Table
}

// Null returns the null [Value].
func Null() Value { return Value{kind: KindNull} }

// Bool returns a boolean [Value].
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int returns an integer [Value].
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a floating-point [Value].
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// String returns a string [Value].
func String(s string) Value { return Value{kind: KindString, s: s} }

// Bytes returns a byte-slice [Value], used for raw response payloads that
// are not (yet) decoded as strings.
func Bytes(b []byte) Value { return Value{kind: KindBytes, bytes: b} }

// Array returns an array [Value].
func Array(items []Value) Value { return Value{kind: KindArray, arr: items} }

// Object returns an object [Value] backed by an insertion-ordered [Table],
// the representation dot-paths in output templates walk (spec.md §4.7).
func Object(t *Table) Value { return Value{kind: KindObject, object: t} }

// Kind returns the tag of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns v's boolean payload; zero value if v is not a bool.
func (v Value) AsBool() bool { return v.b }

// AsBytes returns v's raw byte payload; nil if v is not a byte value.
func (v Value) AsBytes() []byte { return v.bytes }

// AsArray returns v's element slice; nil if v is not an array.
func (v Value) AsArray() []Value { return v.arr }

// AsObject returns v's backing table, or nil if v is not an object.
func (v Value) AsObject() *Table { return v.object }

// AsInt64 returns v's integer form, attempting numeric coercion from
// floats and numeric strings (decimal first, then hex), as request
// builders and code-interpreter comparisons require.
func (v Value) AsInt64() (int64, bool) {
	switch v.kind {
	case KindInt:
		return v.i, true
	case KindFloat:
		return int64(v.f), true
	case KindBool:
		if v.b {
			return 1, true
		}
		return 0, true
	case KindString:
		if n, err := strconv.ParseInt(v.s, 10, 64); err == nil {
			return n, true
		}
		if n, err := strconv.ParseUint(trimHexPrefix(v.s), 16, 64); err == nil {
			return int64(n), true
		}
		return 0, false
	default:
		return 0, false
	}
}

// AsFloat64 converts v to double precision, used by code-interpreter
// ordering comparisons (spec.md §4.6: "ordering converts both sides to
// double-precision floats").
func (v Value) AsFloat64() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	case KindString:
		f, err := strconv.ParseFloat(v.s, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// AsString renders v's display form, used by the request builder's string
// write ops and the output formatter's token resolution.
func (v Value) AsString() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	case KindBytes:
		return string(v.bytes)
	case KindArray, KindObject:
		data, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(data)
	default:
		return ""
	}
}

// Equal implements the code interpreter's structural-JSON-equality
// comparison operator (spec.md §4.6).
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		// Cross-kind numeric equality: "5" == 5, 5 == 5.0, etc.
		vf, vok := v.AsFloat64()
		of, ook := other.AsFloat64()
		if vok && ook {
			return vf == of
		}
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindInt:
		return v.i == other.i
	case KindFloat:
		return v.f == other.f
	case KindString:
		return v.s == other.s
	case KindBytes:
		return string(v.bytes) == string(other.bytes)
	case KindArray:
		if len(v.arr) != len(other.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(other.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		return v.object.Equal(other.object)
	default:
		return false
	}
}

// MarshalJSON implements [json.Marshaler].
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindInt:
		return json.Marshal(v.i)
	case KindFloat:
		return json.Marshal(v.f)
	case KindString:
		return json.Marshal(v.s)
	case KindBytes:
		return json.Marshal(v.bytes)
	case KindArray:
		return json.Marshal(v.arr)
	case KindObject:
		return json.Marshal(v.object)
	default:
		return nil, fmt.Errorf("value: unknown kind %d", v.kind)
	}
}

// FromJSON converts a decoded [any] (as produced by [encoding/json] with
// UseNumber disabled) into a [Value] tree. Objects become [Table]s so
// that dot-path resolution and insertion order apply uniformly to values
// parsed from JSON response bodies (spec.md §4.4's READ_BODY_JSON).
func FromJSON(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(x)
	case float64:
		return Float(x)
	case string:
		return String(x)
	case []any:
		items := make([]Value, len(x))
		for i, e := range x {
			items[i] = FromJSON(e)
		}
		return Array(items)
	case map[string]any:
		t := NewTable()
		for k, e := range x {
			t.Set(k, FromJSON(e))
		}
		return Object(t)
	default:
		return Null()
	}
}

// ParseJSON parses raw JSON text into a [Value] tree.
func ParseJSON(data []byte) (Value, error) {
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return Null(), err
	}
	return FromJSON(decoded), nil
}

func trimHexPrefix(s string) string {
	if len(s) > 2 && (s[0:2] == "0x" || s[0:2] == "0X") {
		return s[2:]
	}
	return s
}
