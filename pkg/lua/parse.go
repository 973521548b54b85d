// SPDX-License-Identifier: MPL-2.0

package lua

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// maxDepth bounds table nesting so crafted input cannot exhaust the stack.
const maxDepth = 512

// parser holds the immutable input and a cursor. Every parse step advances
// pos explicitly; there is no other mutable state.
type parser struct {
	src string
	pos int
}

// Decode parses a complete file: the qualifier line followed by one table
// literal. Any error aborts decoding and no partial value is returned.
func Decode(text string) (Value, Qualifier, error) {
	m := qualifierLine.FindStringSubmatch(text)
	if m == nil {
		return Value{}, Qualifier{}, newParseError(text, 0, "missing qualifier line (expected \"mission = \", \"dictionary = \" or \"mapResource = \")")
	}
	q := Qualifier{Name: m[1], Prefix: m[0]}

	p := &parser{src: text, pos: len(m[0])}
	p.skipSpace()
	if p.peek() != '{' {
		return Value{}, Qualifier{}, p.errorf("expected '{' after qualifier %q", q.Name)
	}
	v, err := p.parseTable(1)
	if err != nil {
		return Value{}, Qualifier{}, err
	}
	p.skipSpace()
	if !p.eof() {
		return Value{}, Qualifier{}, p.errorf("unexpected content after end of %s", q.Name)
	}
	return v, q, nil
}

// DecodeValue parses a single literal without a qualifier line, for example
// "{1, 2}" or "\"text\"".
func DecodeValue(text string) (Value, error) {
	p := &parser{src: text}
	p.skipSpace()
	v, err := p.parseValue(0)
	if err != nil {
		return Value{}, err
	}
	p.skipSpace()
	if !p.eof() {
		return Value{}, p.errorf("unexpected content after value")
	}
	return v, nil
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) peekAt(n int) byte {
	if p.pos+n >= len(p.src) {
		return 0
	}
	return p.src[p.pos+n]
}

func (p *parser) errorf(format string, args ...any) *ParseError {
	return newParseError(p.src, p.pos, format, args...)
}

// skipSpace skips whitespace and "--" comments running to the end of line.
func (p *parser) skipSpace() {
	for !p.eof() {
		switch c := p.src[p.pos]; {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			p.pos++
		case c == '-' && p.peekAt(1) == '-':
			nl := strings.IndexByte(p.src[p.pos:], '\n')
			if nl < 0 {
				p.pos = len(p.src)
			} else {
				p.pos += nl + 1
			}
		default:
			return
		}
	}
}

func (p *parser) parseValue(depth int) (Value, error) {
	switch c := p.peek(); {
	case p.eof():
		return Value{}, p.errorf("unexpected end of input, expected a value")
	case c == '{':
		return p.parseTable(depth + 1)
	case c == '"' || c == '\'':
		s, err := p.parseQuoted(c)
		return String(s), err
	case c == '[':
		s, err := p.parseBracketString()
		return String(s), err
	case c == '-' || isDigit(c):
		return p.parseNumber()
	case isWordStart(c):
		switch w := p.readWord(); w {
		case "true":
			return Bool(true), nil
		case "false":
			return Bool(false), nil
		case "nil":
			return Nil(), nil
		default:
			return String(w), nil
		}
	default:
		return Value{}, p.errorf("unexpected character %q", c)
	}
}

func (p *parser) parseTable(depth int) (Value, error) {
	if depth > maxDepth {
		return Value{}, p.errorf("tables nested deeper than %d levels", maxDepth)
	}
	start := p.pos
	p.pos++ // '{'

	entries := make(map[Key]Value)
	next := int64(1)
	for {
		p.skipSpace()
		if p.eof() {
			return Value{}, newParseError(p.src, start, "unexpected end of table")
		}
		if p.peek() == '}' {
			p.pos++
			break
		}

		key, explicit, err := p.parseKey(depth)
		if err != nil {
			return Value{}, err
		}
		p.skipSpace()
		val, err := p.parseValue(depth)
		if err != nil {
			return Value{}, err
		}
		if !explicit {
			key = IntKey(next)
			next++
		}
		entries[key] = val

		p.skipSpace()
		switch p.peek() {
		case ',', ';':
			p.pos++
		case '}':
		default:
			if p.eof() {
				return Value{}, newParseError(p.src, start, "unexpected end of table")
			}
			return Value{}, p.errorf("expected ',' or '}' in table")
		}
	}
	return tableValue(entries), nil
}

// parseKey consumes "[<value>] =" or "name =" when present. explicit is false
// when the entry is positional and nothing was consumed.
func (p *parser) parseKey(depth int) (key Key, explicit bool, err error) {
	switch c := p.peek(); {
	case c == '[' && p.peekAt(1) != '[':
		open := p.pos
		p.pos++
		p.skipSpace()
		kv, err := p.parseValue(depth)
		if err != nil {
			return Key{}, false, err
		}
		switch kv.kind {
		case KindInt:
			key = IntKey(kv.i)
		case KindString:
			key = StringKey(kv.s)
		default:
			return Key{}, false, newParseError(p.src, open, "unsupported %s table key", kv.kind)
		}
		p.skipSpace()
		if p.peek() != ']' {
			return Key{}, false, p.errorf("expected ']' after table key")
		}
		p.pos++
		p.skipSpace()
		if p.peek() != '=' {
			return Key{}, false, p.errorf("expected '=' after table key")
		}
		p.pos++
		return key, true, nil

	case isWordStart(c):
		save := p.pos
		w := p.readWord()
		p.skipSpace()
		if p.peek() == '=' && p.peekAt(1) != '=' {
			p.pos++
			return StringKey(w), true, nil
		}
		p.pos = save
	}
	return Key{}, false, nil
}

// parseQuoted reads a string closed by q. A backslash followed by q yields q;
// every other byte, including other escape sequences, is kept verbatim.
func (p *parser) parseQuoted(q byte) (string, error) {
	start := p.pos
	p.pos++
	var sb strings.Builder
	for {
		if p.eof() {
			return "", newParseError(p.src, start, "unterminated string")
		}
		c := p.src[p.pos]
		switch {
		case c == '\\' && p.pos+1 < len(p.src):
			if n := p.src[p.pos+1]; n == q {
				sb.WriteByte(q)
			} else {
				sb.WriteByte('\\')
				sb.WriteByte(n)
			}
			p.pos += 2
		case c == q:
			p.pos++
			return sb.String(), nil
		default:
			sb.WriteByte(c)
			p.pos++
		}
	}
}

// parseBracketString reads "[[...]]" verbatim, or "[...]" with the same
// escape rule as quoted strings.
func (p *parser) parseBracketString() (string, error) {
	if p.peekAt(1) != '[' {
		return p.parseQuoted(']')
	}
	start := p.pos
	end := strings.Index(p.src[p.pos+2:], "]]")
	if end < 0 {
		return "", newParseError(p.src, start, "unterminated string")
	}
	s := p.src[p.pos+2 : p.pos+2+end]
	p.pos += 2 + end + 2
	return s, nil
}

func (p *parser) parseNumber() (Value, error) {
	start := p.pos
	neg := false
	if p.peek() == '-' {
		neg = true
		p.pos++
	}
	if !isDigit(p.peek()) {
		return Value{}, p.errorf("malformed number")
	}

	if p.peek() == '0' && (p.peekAt(1) == 'x' || p.peekAt(1) == 'X') {
		p.pos += 2
		digits := p.pos
		for isHexDigit(p.peek()) {
			p.pos++
		}
		if p.pos == digits {
			return Value{}, newParseError(p.src, start, "malformed hex number")
		}
		if isWordChar(p.peek()) {
			return Value{}, newParseError(p.src, start, "malformed hex number")
		}
		return hexValue(p.src[digits:p.pos], neg)
	}

	isInt := true
	p.skipDigits()
	if p.peek() == '.' {
		p.pos++
		if !isDigit(p.peek()) {
			return Value{}, newParseError(p.src, start, "malformed number: '.' must be followed by a digit")
		}
		p.skipDigits()
		isInt = false
	}
	if c := p.peek(); c == 'e' || c == 'E' {
		p.pos++
		if s := p.peek(); s != '+' && s != '-' {
			return Value{}, newParseError(p.src, start, "malformed number: exponent requires an explicit sign")
		}
		p.pos++
		if !isDigit(p.peek()) {
			return Value{}, newParseError(p.src, start, "malformed number: exponent requires digits")
		}
		p.skipDigits()
		isInt = false
	}
	if isWordChar(p.peek()) || p.peek() == '.' {
		return Value{}, newParseError(p.src, start, "malformed number")
	}

	text := p.src[start:p.pos]
	if isInt {
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return Int(n), nil
		}
	}
	d, _, err := apd.NewFromString(text)
	if err != nil {
		return Value{}, newParseError(p.src, start, "malformed number: %v", err)
	}
	return Value{kind: KindDecimal, d: d}, nil
}

func (p *parser) skipDigits() {
	for isDigit(p.peek()) {
		p.pos++
	}
}

func (p *parser) readWord() string {
	start := p.pos
	for isWordChar(p.peek()) {
		p.pos++
	}
	return p.src[start:p.pos]
}

// hexValue converts hex digits to an Int, or to a Decimal when the value
// does not fit in an int64.
func hexValue(digits string, neg bool) (Value, error) {
	n, ok := new(big.Int).SetString(digits, 16)
	if !ok {
		return Value{}, &ParseError{Message: "malformed hex number", Fragment: digits}
	}
	if neg {
		n.Neg(n)
	}
	if n.IsInt64() {
		return Int(n.Int64()), nil
	}
	d, _, err := apd.NewFromString(n.String())
	if err != nil {
		return Value{}, &ParseError{Message: err.Error(), Fragment: digits}
	}
	return Value{kind: KindDecimal, d: d}, nil
}

// tableValue turns decoded entries into an Array when the keys are exactly
// the integers 1..N, and into a Table otherwise.
func tableValue(entries map[Key]Value) Value {
	t := &Table{entries: entries}
	if items, ok := sequence(Value{kind: KindTable, tbl: t}); ok {
		return ArrayOf(items...)
	}
	return Value{kind: KindTable, tbl: t}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isWordStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isWordChar(c byte) bool { return isWordStart(c) || isDigit(c) }
