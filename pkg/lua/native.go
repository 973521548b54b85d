// SPDX-License-Identifier: MPL-2.0

package lua

import "encoding/json"

// ToNative converts v into plain Go values for generic serializers:
// nil, bool, int64, json.Number (exact decimal text), string, []any for
// arrays and map[string]any for tables (keys rendered with Key.String).
func ToNative(v Value) any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindDecimal:
		return json.Number(v.d.String())
	case KindString:
		return v.s
	case KindArray:
		out := make([]any, v.arr.Len())
		for i, it := range v.arr.items {
			out[i] = ToNative(it)
		}
		return out
	case KindTable:
		out := make(map[string]any, v.tbl.Len())
		for k, it := range v.tbl.entries {
			out[k.String()] = ToNative(it)
		}
		return out
	default:
		return nil
	}
}
