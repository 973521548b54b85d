// SPDX-License-Identifier: MPL-2.0

package miz

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when the archive path does not exist or is not a file.
	ErrNotFound = errors.New("mission archive not found")

	// ErrFormat is returned when the archive is not a well-formed ZIP file or
	// holds member names that would escape the scratch directory.
	ErrFormat = errors.New("malformed mission archive")

	// ErrStructure is the sentinel error wrapped by StructureError.
	ErrStructure = errors.New("mission archive is missing required members")

	// ErrCharset is returned for unknown charsets and for text that cannot be
	// represented in the container charset.
	ErrCharset = errors.New("charset error")

	// ErrLifecycle is returned when container operations are called out of order.
	ErrLifecycle = errors.New("container used out of order")
)

type (
	// StructureError lists the required members an archive lacks.
	StructureError struct {
		Missing []string
	}

	// Error describes a failed container operation. ScratchDir is set whenever
	// a scratch directory exists, so the extracted files can be inspected.
	Error struct {
		Op         string
		Archive    string
		ScratchDir string
		Err        error
	}
)

// Error implements the error interface.
func (e *StructureError) Error() string {
	return fmt.Sprintf("missing required member(s): %s", strings.Join(e.Missing, ", "))
}

// Unwrap returns ErrStructure so callers can use errors.Is for programmatic detection.
func (e *StructureError) Unwrap() error { return ErrStructure }

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Op)
	sb.WriteString(" ")
	sb.WriteString(e.Archive)
	sb.WriteString(": ")
	sb.WriteString(e.Err.Error())
	if e.ScratchDir != "" {
		sb.WriteString(" (scratch directory: ")
		sb.WriteString(e.ScratchDir)
		sb.WriteString(")")
	}
	return sb.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Err }
