// SPDX-License-Identifier: GPL-3.0-or-later

package value

import "encoding/json"

// Table is an insertion-ordered mapping from variable name to [Value].
//
// Order matters for two reasons (spec.md §3): later writes to the same
// name overwrite the earlier entry in place (the position does not move),
// and the output formatter's dot-path resolution walks this structure.
// Table is not safe for concurrent use; each probe owns a private set of
// tables (spec.md §5).
type Table struct {
	keys []string
	vals map[string]Value
}

// NewTable returns an empty [Table].
func NewTable() *Table {
	return &Table{vals: make(map[string]Value)}
}

// Set inserts or overwrites name's value. A first write appends name to
// the insertion order; a subsequent write to the same name keeps its
// original position.
func (t *Table) Set(name string, v Value) {
	if _, ok := t.vals[name]; !ok {
		t.keys = append(t.keys, name)
	}
	t.vals[name] = v
}

// Get looks up name, reporting whether it is present.
func (t *Table) Get(name string) (Value, bool) {
	v, ok := t.vals[name]
	return v, ok
}

// Has reports whether name is present.
func (t *Table) Has(name string) bool {
	_, ok := t.vals[name]
	return ok
}

// Keys returns variable names in insertion order. The caller must not
// mutate the returned slice.
func (t *Table) Keys() []string {
	return t.keys
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.keys)
}

// Clone returns a shallow copy with its own independent key order and
// map, used when code-interpreter vars must shadow parsed vars without
// mutating the latter (spec.md §4.6).
func (t *Table) Clone() *Table {
	out := NewTable()
	for _, k := range t.keys {
		out.Set(k, t.vals[k])
	}
	return out
}

// Merge returns a new [Table] containing t's entries followed by
// other's, with other's entries overwriting t's on name collision but
// keeping t's original position for any overwritten name — this is the
// "pair i+1 sees pair i's variables" merge used by the transport
// executor (spec.md §2, §5).
func Merge(tables ...*Table) *Table {
	out := NewTable()
	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, k := range t.keys {
			out.Set(k, t.vals[k])
		}
	}
	return out
}

// Equal implements structural equality over two tables, used by the
// code interpreter's "==" operator over object values (spec.md §4.6).
func (t *Table) Equal(other *Table) bool {
	if t == nil || other == nil {
		return t == other
	}
	if len(t.keys) != len(other.keys) {
		return false
	}
	for _, k := range t.keys {
		v, ok := other.Get(k)
		if !ok {
			return false
		}
		tv, _ := t.Get(k)
		if !tv.Equal(v) {
			return false
		}
	}
	return true
}

// MarshalJSON implements [json.Marshaler], emitting keys in insertion
// order.
func (t *Table) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("{}"), nil
	}
	buf := []byte("{")
	for i, k := range t.keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(t.vals[k])
		if err != nil {
			return nil, err
		}
		buf = append(buf, kb...)
		buf = append(buf, ':')
		buf = append(buf, vb...)
	}
	buf = append(buf, '}')
	return buf, nil
}

// ResolvePath resolves a dot-path such as "payload.server.version" against
// t: segment 0 selects a variable, each subsequent segment selects a
// child of the nested [Value] if it is an object (spec.md §4.7).
func (t *Table) ResolvePath(path []string) (Value, bool) {
	if len(path) == 0 {
		return Null(), false
	}
	v, ok := t.Get(path[0])
	if !ok {
		return Null(), false
	}
	for _, seg := range path[1:] {
		obj := v.AsObject()
		if obj == nil {
			return Null(), false
		}
		v, ok = obj.Get(seg)
		if !ok {
			return Null(), false
		}
	}
	return v, true
}
