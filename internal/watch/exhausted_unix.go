// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package watch

import "syscall"

// exhaustionErrnos stop the watcher on Unix: ENOSPC is the inotify watch
// limit (fs.inotify.max_user_watches), EMFILE and ENFILE are descriptor
// limits. A mission folder with many campaign subdirectories can hit the
// first one.
var exhaustionErrnos = []syscall.Errno{syscall.ENOSPC, syscall.EMFILE, syscall.ENFILE}
