// SPDX-License-Identifier: MPL-2.0

package reorder

import (
	"errors"
	"fmt"
)

// ErrCorruption is returned when a mirrored file does not read back with the
// bytes that were written.
var ErrCorruption = errors.New("mirrored file does not match its source")

// CorruptionError names the target file that failed verification. The
// partially written file has already been removed.
type CorruptionError struct {
	Path string
}

// Error implements the error interface.
func (e *CorruptionError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCorruption, e.Path)
}

// Unwrap returns ErrCorruption for errors.Is compatibility.
func (e *CorruptionError) Unwrap() error { return ErrCorruption }
