// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"errors"
	"syscall"

	"golang.org/x/exp/slices"
)

// watcherExhausted reports whether err leaves the watcher unable to observe
// the tree, in which case Run returns it instead of logging and carrying on.
func watcherExhausted(err error) bool {
	return slices.ContainsFunc(exhaustionErrnos, func(errno syscall.Errno) bool {
		return errors.Is(err, errno)
	})
}
