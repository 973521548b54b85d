// SPDX-License-Identifier: MPL-2.0

//go:build windows

package watch

import "syscall"

// exhaustionErrnos stop the watcher on Windows. ReadDirectoryChangesW has no
// watch limit, but the handle can run out (4), become invalid when the
// Saved Games folder is removed (6), or fail to get a buffer (8).
var exhaustionErrnos = []syscall.Errno{4, 6, 8}
