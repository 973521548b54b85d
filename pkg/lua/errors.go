// SPDX-License-Identifier: MPL-2.0

package lua

import (
	"errors"
	"fmt"
)

var (
	// ErrParse is the sentinel error wrapped by ParseError.
	ErrParse = errors.New("lua parse error")

	// ErrEmptyObject is the sentinel error wrapped by EmptyObjectError.
	ErrEmptyObject = errors.New("empty top-level table")

	// ErrNotTable is returned when the value passed to Encode is not a table.
	ErrNotTable = errors.New("top-level value is not a table")

	// ErrQualifier is returned for unknown qualifier names.
	ErrQualifier = errors.New("invalid qualifier")

	// ErrUnencodable is returned for string contents that no supported Lua
	// string form can represent.
	ErrUnencodable = errors.New("string cannot be encoded")
)

type (
	// ParseError describes malformed input. Decoding never returns a partial
	// value alongside a ParseError.
	ParseError struct {
		// Message describes the problem.
		Message string
		// Offset is the byte offset into the decoded text.
		Offset int
		// Line and Column are 1-based and refer to Offset.
		Line   int
		Column int
		// Fragment is a short excerpt of the input starting at Offset.
		Fragment string
	}

	// EmptyObjectError is returned when encoding an empty top-level table for
	// a qualifier that does not allow one.
	EmptyObjectError struct {
		Qualifier string
	}
)

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Fragment == "" {
		return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("line %d, column %d: %s near %q", e.Line, e.Column, e.Message, e.Fragment)
}

// Unwrap returns ErrParse so callers can use errors.Is for programmatic detection.
func (e *ParseError) Unwrap() error { return ErrParse }

// Error implements the error interface.
func (e *EmptyObjectError) Error() string {
	return fmt.Sprintf("cannot encode empty %q table", e.Qualifier)
}

// Unwrap returns ErrEmptyObject so callers can use errors.Is for programmatic detection.
func (e *EmptyObjectError) Unwrap() error { return ErrEmptyObject }

// newParseError builds a ParseError for the given offset of src.
func newParseError(src string, offset int, format string, args ...any) *ParseError {
	if offset > len(src) {
		offset = len(src)
	}
	line, col := 1, 1
	for i := 0; i < offset; i++ {
		if src[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return &ParseError{
		Message:  fmt.Sprintf(format, args...),
		Offset:   offset,
		Line:     line,
		Column:   col,
		Fragment: fragmentAt(src, offset),
	}
}

// fragmentAt returns up to 32 bytes of src from offset, cut at the first newline.
func fragmentAt(src string, offset int) string {
	const maxFragment = 32
	end := offset
	for end < len(src) && end-offset < maxFragment && src[end] != '\n' {
		end++
	}
	return src[offset:end]
}
