// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"fmt"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
)

// ErrValidation is the sentinel wrapped by ValidationError.
var ErrValidation = errors.New("CUE validation failed")

// ValidationError lists the problems found in one file. Each problem is
// "<json-path>: <message>", or just the message when CUE reports no path.
type ValidationError struct {
	FilePath string
	Problems []string
}

// Error implements the error interface.
//
// Examples:
//   - config.cue: jobs: invalid value 100 (out of bound <=64)
//   - config.cue: validation failed:
//     charset: ...
//     ui.color_scheme: ...
func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return fmt.Sprintf("%s: %s", e.FilePath, e.Problems[0])
	}
	return fmt.Sprintf("%s: validation failed:\n  %s", e.FilePath, strings.Join(e.Problems, "\n  "))
}

// Unwrap returns ErrValidation for errors.Is compatibility.
func (e *ValidationError) Unwrap() error { return ErrValidation }

// FormatError converts a CUE error into a ValidationError for filePath. A
// non-CUE error is wrapped with the file path instead.
func FormatError(err error, filePath string) error {
	if err == nil {
		return nil
	}

	cueErrs := cueerrors.Errors(err)
	if len(cueErrs) == 0 {
		return fmt.Errorf("%s: %w", filePath, err)
	}

	problems := make([]string, 0, len(cueErrs))
	for _, e := range cueErrs {
		pathStr := formatPath(cueerrors.Path(e))
		msg := e.Error()

		// CUE sometimes repeats the path at the start of the message.
		if pathStr != "" && strings.HasPrefix(msg, pathStr) {
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, pathStr), ":"))
		}
		if pathStr != "" {
			msg = pathStr + ": " + msg
		}
		problems = append(problems, msg)
	}
	return &ValidationError{FilePath: filePath, Problems: problems}
}

// formatPath renders a CUE path such as ["folders", "0", "name"] as
// "folders[0].name".
func formatPath(path []string) string {
	var sb strings.Builder
	for i, part := range path {
		if i > 0 && isIndex(part) {
			sb.WriteString("[" + part + "]")
			continue
		}
		if i > 0 {
			sb.WriteString(".")
		}
		sb.WriteString(part)
	}
	return sb.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// CheckFileSize rejects data larger than maxSize before it is handed to the
// CUE compiler.
func CheckFileSize(data []byte, maxSize int64, filename string) error {
	if int64(len(data)) > maxSize {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes",
			filename, len(data), maxSize)
	}
	return nil
}
