// SPDX-License-Identifier: MPL-2.0

package lua

import (
	"fmt"
	"strconv"

	"github.com/cockroachdb/apd/v3"
)

const (
	// KindNil is the Lua nil value.
	KindNil Kind = iota
	// KindBool is a boolean.
	KindBool
	// KindInt is an integer literal that fits in an int64.
	KindInt
	// KindDecimal is any other number, held with exact precision.
	KindDecimal
	// KindString is a string.
	KindString
	// KindArray is a sequence with implicit keys 1..N.
	KindArray
	// KindTable is a mapping from Int or String keys to values.
	KindTable
)

type (
	// Kind identifies the variant held by a Value.
	Kind uint8

	// Value is a decoded Lua literal. The zero Value is nil.
	//
	// Arrays and tables are reference types: copying a Value that holds one
	// shares the underlying storage, so mutations through Array or Table are
	// visible to every copy.
	Value struct {
		kind Kind
		b    bool
		i    int64
		d    *apd.Decimal
		s    string
		arr  *Array
		tbl  *Table
	}
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindDecimal:
		return "decimal"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindTable:
		return "table"
	default:
		return fmt.Sprintf("kind(%d)", k)
	}
}

// Nil returns the nil value.
func Nil() Value { return Value{} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int returns an integer value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Decimal returns a decimal value wrapping d. The decimal must be finite.
func Decimal(d *apd.Decimal) (Value, error) {
	if d == nil || d.Form != apd.Finite {
		return Value{}, fmt.Errorf("decimal must be finite, got %v", d)
	}
	return Value{kind: KindDecimal, d: d}, nil
}

// ParseDecimal parses s (for example "12.50" or "1E-7") into a decimal value.
func ParseDecimal(s string) (Value, error) {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return Value{}, fmt.Errorf("parse decimal %q: %w", s, err)
	}
	return Decimal(d)
}

// MustDecimal is like ParseDecimal but panics on error. Intended for literals
// in tests and static tables.
func MustDecimal(s string) Value {
	v, err := ParseDecimal(s)
	if err != nil {
		panic(err)
	}
	return v
}

// ArrayOf returns an array value holding items.
func ArrayOf(items ...Value) Value {
	return Value{kind: KindArray, arr: &Array{items: items}}
}

// NewTable returns an empty table value.
func NewTable() Value {
	return Value{kind: KindTable, tbl: newTable()}
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNil reports whether v is nil.
func (v Value) IsNil() bool { return v.kind == KindNil }

// IsNumber reports whether v is an Int or a Decimal.
func (v Value) IsNumber() bool { return v.kind == KindInt || v.kind == KindDecimal }

// IsComposite reports whether v is an array or a table.
func (v Value) IsComposite() bool { return v.kind == KindArray || v.kind == KindTable }

// AsBool returns the boolean held by v.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsInt returns the integer held by v.
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

// AsDecimal returns the decimal held by v. Int values are converted.
func (v Value) AsDecimal() (*apd.Decimal, bool) {
	switch v.kind {
	case KindDecimal:
		return v.d, true
	case KindInt:
		return apd.New(v.i, 0), true
	default:
		return nil, false
	}
}

// AsString returns the string held by v.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// Array returns the array held by v, or nil.
func (v Value) Array() *Array { return v.arr }

// Table returns the table held by v, or nil.
func (v Value) Table() *Table { return v.tbl }

// Len returns the number of entries of an array or table, and 0 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return v.arr.Len()
	case KindTable:
		return v.tbl.Len()
	default:
		return 0
	}
}

// Get returns the entry stored under k. Arrays answer integer keys 1..N.
func (v Value) Get(k Key) (Value, bool) {
	switch v.kind {
	case KindArray:
		if !k.isInt || k.num < 1 || k.num > int64(v.arr.Len()) {
			return Value{}, false
		}
		return v.arr.items[k.num-1], true
	case KindTable:
		return v.tbl.Get(k)
	default:
		return Value{}, false
	}
}

// Lookup walks a path of keys from v. Each segment first matches a string key;
// a segment made of digits also matches the integer key of the same value,
// which is how array elements are reached ("units.1.name").
func (v Value) Lookup(path ...string) (Value, bool) {
	cur := v
	for _, seg := range path {
		next, ok := cur.Get(StringKey(seg))
		if !ok {
			n, err := strconv.ParseInt(seg, 10, 64)
			if err != nil {
				return Value{}, false
			}
			next, ok = cur.Get(IntKey(n))
			if !ok {
				return Value{}, false
			}
		}
		cur = next
	}
	return cur, true
}

// Equal reports whether v and o hold the same value. Decimals compare by
// numeric value; a table whose keys are exactly 1..N equals the array holding
// the same elements in order.
func (v Value) Equal(o Value) bool {
	if v.IsComposite() && o.IsComposite() {
		return compositeEqual(v, o)
	}
	if v.kind != o.kind {
		if v.IsNumber() && o.IsNumber() {
			a, _ := v.AsDecimal()
			b, _ := o.AsDecimal()
			return a.Cmp(b) == 0
		}
		return false
	}
	switch v.kind {
	case KindNil:
		return true
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindDecimal:
		return v.d.Cmp(o.d) == 0
	case KindString:
		return v.s == o.s
	default:
		return false
	}
}

func compositeEqual(v, o Value) bool {
	if v.Len() != o.Len() {
		return false
	}
	for _, k := range v.Keys() {
		a, _ := v.Get(k)
		b, ok := o.Get(k)
		if !ok || !a.Equal(b) {
			return false
		}
	}
	return true
}

// Keys returns the keys of an array or table in encoding order: array indices
// ascending, table keys in natural order.
func (v Value) Keys() []Key {
	switch v.kind {
	case KindArray:
		keys := make([]Key, v.arr.Len())
		for i := range keys {
			keys[i] = IntKey(int64(i + 1))
		}
		return keys
	case KindTable:
		return v.tbl.Keys()
	default:
		return nil
	}
}

// GoString renders v in Lua literal syntax on a single line, for debugging.
func (v Value) GoString() string {
	return inlineLiteral(v)
}
