// SPDX-License-Identifier: MPL-2.0

// Package reorder rewrites mission archives into a canonical, diff-stable
// form.
//
// The mission editor writes table keys in whatever order its hash tables
// happen to iterate, so two saves of the same mission rarely produce the same
// text. Reorder decodes every Lua member and encodes it again; the encoder's
// natural key order makes the output depend only on content. The result is
// either mirrored into a directory suited to version control (Reorder) or
// packed into a new archive (ReorderArchive).
package reorder
