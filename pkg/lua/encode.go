// SPDX-License-Identifier: MPL-2.0

package lua

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	// indentUnit is the per-level indentation DCS uses.
	indentUnit = "    "

	// shortStringLen is the length in characters below which a string element still allows
	// an array to be written inline.
	shortStringLen = 10
)

// encoder accumulates output for one Encode call.
type encoder struct {
	sb strings.Builder
}

// Encode renders v as a complete file for qualifier q. Table keys are written
// in natural order and every nested table is closed with an
// "-- end of [<key>]" comment, so encoding is deterministic and
// Encode(Decode(Encode(v, q))) equals Encode(v, q).
//
// An empty top-level table is only accepted for mapResource; any other
// qualifier yields an EmptyObjectError.
func Encode(v Value, q Qualifier) (string, error) {
	if err := q.Validate(); err != nil {
		return "", err
	}
	if !v.IsComposite() {
		return "", fmt.Errorf("%w: %s has kind %s", ErrNotTable, q.Name, v.Kind())
	}

	e := &encoder{}
	e.sb.WriteString(q.Prefix)
	if v.Len() == 0 {
		if q.Name != QualifierMapResource {
			return "", &EmptyObjectError{Qualifier: q.Name}
		}
		e.sb.WriteString("{}")
	} else if err := e.writeBlock(v, 0); err != nil {
		return "", err
	}
	e.sb.WriteString(q.Trailer())
	return e.sb.String(), nil
}

// EncodeValue renders a single value without qualifier or trailer. Composite
// values are laid out exactly as nested tables are in Encode.
func EncodeValue(v Value) (string, error) {
	e := &encoder{}
	if v.IsComposite() && v.Len() > 0 && !inlineable(v) {
		if err := e.writeBlock(v, 0); err != nil {
			return "", err
		}
		return e.sb.String(), nil
	}
	s, err := scalarOrInline(v)
	if err != nil {
		return "", err
	}
	return s, nil
}

// writeBlock writes "{", one line per entry, and the closing brace at depth.
// The caller writes whatever follows the brace.
func (e *encoder) writeBlock(v Value, depth int) error {
	e.sb.WriteString("{\n")
	inner := strings.Repeat(indentUnit, depth+1)
	for _, k := range v.Keys() {
		child, _ := v.Get(k)
		lit, err := k.Literal()
		if err != nil {
			return fmt.Errorf("table key: %w", err)
		}
		e.sb.WriteString(inner)
		e.sb.WriteString(lit)
		e.sb.WriteString(" = ")
		if child.IsComposite() && child.Len() > 0 && !inlineable(child) {
			e.sb.WriteString("\n")
			e.sb.WriteString(inner)
			if err := e.writeBlock(child, depth+1); err != nil {
				return err
			}
			e.sb.WriteString(", -- end of ")
			e.sb.WriteString(commentSafe(lit))
			e.sb.WriteString("\n")
			continue
		}
		s, err := scalarOrInline(child)
		if err != nil {
			return fmt.Errorf("%s: %w", lit, err)
		}
		e.sb.WriteString(s)
		e.sb.WriteString(",\n")
	}
	e.sb.WriteString(strings.Repeat(indentUnit, depth))
	e.sb.WriteString("}")
	return nil
}

// commentSafe keeps a key literal on the comment line it closes.
func commentSafe(lit string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(lit)
}

// inlineable reports whether v is written on one line as {a, b, c}: only
// sequences made entirely of numbers, booleans and short strings qualify.
func inlineable(v Value) bool {
	items, ok := sequence(v)
	if !ok {
		return false
	}
	for _, it := range items {
		switch it.kind {
		case KindInt, KindDecimal, KindBool:
		case KindString:
			if utf8.RuneCountInString(it.s) >= shortStringLen {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// scalarOrInline renders a scalar, an empty table, or an inlineable sequence.
func scalarOrInline(v Value) (string, error) {
	switch v.kind {
	case KindNil:
		return "nil", nil
	case KindBool:
		return strconv.FormatBool(v.b), nil
	case KindInt:
		return strconv.FormatInt(v.i, 10), nil
	case KindDecimal:
		return v.d.String(), nil
	case KindString:
		return encodeString(v.s)
	case KindArray, KindTable:
		if v.Len() == 0 {
			return "{}", nil
		}
		items, _ := sequence(v)
		parts := make([]string, len(items))
		for i, it := range items {
			s, err := scalarOrInline(it)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return "{" + strings.Join(parts, ", ") + "}", nil
	default:
		return "", fmt.Errorf("unknown value kind %s", v.kind)
	}
}

// encodeString double-quotes s, escaping '"'. Contents the parser could not
// read back from that form (a backslash directly before a quote or at the
// end) fall back to a [[long string]].
func encodeString(s string) (string, error) {
	if doubleQuotable(s) {
		return quoteString(s), nil
	}
	if !strings.Contains(s, "]]") && !strings.HasSuffix(s, "]") {
		return "[[" + s + "]]", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnencodable, s)
}

func quoteString(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// doubleQuotable mirrors parseQuoted: a backslash always consumes the byte
// after it, so a backslash may not be last or directly precede a quote.
func doubleQuotable(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			continue
		}
		if i+1 == len(s) || s[i+1] == '"' {
			return false
		}
		i++
	}
	return true
}

// inlineLiteral renders any value on one line, used for debugging output.
func inlineLiteral(v Value) string {
	if !v.IsComposite() || v.Len() == 0 || inlineable(v) {
		s, err := scalarOrInline(v)
		if err != nil {
			return fmt.Sprintf("<%v>", err)
		}
		return s
	}
	parts := make([]string, 0, v.Len())
	for _, k := range v.Keys() {
		child, _ := v.Get(k)
		lit, err := k.Literal()
		if err != nil {
			lit = fmt.Sprintf("[<%v>]", err)
		}
		parts = append(parts, lit+" = "+inlineLiteral(child))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
