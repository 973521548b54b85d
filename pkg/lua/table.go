// SPDX-License-Identifier: MPL-2.0

package lua

import (
	"strconv"
	"strings"

	"github.com/mizkit/mizkit/pkg/natsort"

	"golang.org/x/exp/slices"
)

type (
	// Key is a table key: either an integer or a string. Keys are comparable
	// and can be used as Go map keys.
	Key struct {
		s     string
		num   int64
		isInt bool
	}

	// Array is an ordered sequence whose Lua keys are 1..N.
	Array struct {
		items []Value
	}

	// Table maps keys to values.
	Table struct {
		entries map[Key]Value
	}
)

// IntKey returns an integer key.
func IntKey(n int64) Key { return Key{num: n, isInt: true} }

// StringKey returns a string key.
func StringKey(s string) Key { return Key{s: s} }

// IsInt reports whether k is an integer key.
func (k Key) IsInt() bool { return k.isInt }

// Int returns the integer held by an integer key.
func (k Key) Int() int64 { return k.num }

// String returns the key text: the decimal digits of an integer key or the
// string itself.
func (k Key) String() string {
	if k.isInt {
		return strconv.FormatInt(k.num, 10)
	}
	return k.s
}

// Literal returns the bracketed Lua form of the key: [1] or ["name"]. A
// string the double-quoted form cannot carry is written as [ [[name]] ], and
// one neither form can carry yields ErrUnencodable.
func (k Key) Literal() (string, error) {
	if k.isInt {
		return "[" + strconv.FormatInt(k.num, 10) + "]", nil
	}
	s, err := encodeString(k.s)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(s, "[[") {
		// "[[[" would open a long string, so the brackets need spaces.
		return "[ " + s + " ]", nil
	}
	return "[" + s + "]", nil
}

// CompareKeys orders keys naturally by their text. When an integer and a
// string key share the same text the integer key sorts first.
func CompareKeys(a, b Key) int {
	if c := natsort.Compare(a.String(), b.String()); c != 0 {
		return c
	}
	switch {
	case a.isInt == b.isInt:
		return 0
	case a.isInt:
		return -1
	default:
		return 1
	}
}

// Len returns the number of elements.
func (a *Array) Len() int {
	if a == nil {
		return 0
	}
	return len(a.items)
}

// At returns the element at zero-based position i.
func (a *Array) At(i int) Value { return a.items[i] }

// Set replaces the element at zero-based position i.
func (a *Array) Set(i int, v Value) { a.items[i] = v }

// Append adds elements to the end of the array.
func (a *Array) Append(vs ...Value) { a.items = append(a.items, vs...) }

// Items returns a copy of the elements.
func (a *Array) Items() []Value { return slices.Clone(a.items) }

func newTable() *Table {
	return &Table{entries: make(map[Key]Value)}
}

// Len returns the number of entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Get returns the value stored under k.
func (t *Table) Get(k Key) (Value, bool) {
	v, ok := t.entries[k]
	return v, ok
}

// Set stores v under k, replacing any previous value.
func (t *Table) Set(k Key, v Value) { t.entries[k] = v }

// Delete removes k.
func (t *Table) Delete(k Key) { delete(t.entries, k) }

// Keys returns the keys in natural order.
func (t *Table) Keys() []Key {
	keys := make([]Key, 0, len(t.entries))
	for k := range t.entries {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, CompareKeys)
	return keys
}

// sequence returns the elements of v in index order when v is an array or a
// table whose keys are exactly the integers 1..N.
func sequence(v Value) ([]Value, bool) {
	switch v.kind {
	case KindArray:
		return v.arr.items, v.arr.Len() > 0
	case KindTable:
		n := v.tbl.Len()
		if n == 0 {
			return nil, false
		}
		items := make([]Value, n)
		for k, val := range v.tbl.entries {
			if !k.isInt || k.num < 1 || k.num > int64(n) {
				return nil, false
			}
			items[k.num-1] = val
		}
		return items, true
	default:
		return nil, false
	}
}
