// SPDX-License-Identifier: MPL-2.0

package miz

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

const (
	// CharsetLatin9 is ISO-8859-15, the charset the mission editor writes.
	CharsetLatin9 Charset = "iso-8859-15"
	// CharsetUTF8 leaves member bytes untouched.
	CharsetUTF8 Charset = "utf-8"
)

// Charset names the text encoding of the Lua members inside an archive.
type Charset string

// ParseCharset accepts the canonical names and their common aliases.
func ParseCharset(name string) (Charset, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "iso-8859-15", "iso8859-15", "iso8859_15", "latin-9", "latin9":
		return CharsetLatin9, nil
	case "utf-8", "utf8":
		return CharsetUTF8, nil
	default:
		return "", fmt.Errorf("%w: unknown charset %q", ErrCharset, name)
	}
}

// String returns the canonical charset name.
func (c Charset) String() string { return string(c) }

// decodeText converts member bytes to a UTF-8 string.
func (c Charset) decodeText(data []byte) (string, error) {
	switch c {
	case CharsetUTF8:
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%w: member is not valid UTF-8", ErrCharset)
		}
		return string(data), nil
	case CharsetLatin9, "":
		s, err := charmap.ISO8859_15.NewDecoder().Bytes(data)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrCharset, err)
		}
		return string(s), nil
	default:
		return "", fmt.Errorf("%w: unknown charset %q", ErrCharset, string(c))
	}
}

// encodeText converts a UTF-8 string back to member bytes.
func (c Charset) encodeText(s string) ([]byte, error) {
	switch c {
	case CharsetUTF8:
		return []byte(s), nil
	case CharsetLatin9, "":
		b, err := charmap.ISO8859_15.NewEncoder().String(s)
		if err != nil {
			return nil, fmt.Errorf("%w: text cannot be written as %s: %v", ErrCharset, CharsetLatin9, err)
		}
		return []byte(b), nil
	default:
		return nil, fmt.Errorf("%w: unknown charset %q", ErrCharset, string(c))
	}
}
