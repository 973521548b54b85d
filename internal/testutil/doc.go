// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Common helpers include filesystem operations (MustMkdirAll, MustWriteFile,
// MustReadFile), resource cleanup (MustClose, DeferClose), readable text diffs
// (Diff) and builders for DCS mission archives (WriteMiz, MinimalMembers).
package testutil
