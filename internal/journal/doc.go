// SPDX-License-Identifier: MPL-2.0

// Package journal records reorder runs in a SQLite database.
//
// Each run stores the source archive, its content hash, the target and the
// outcome. The CLI consults the journal to skip archives whose content has
// not changed since the last successful run into the same target.
package journal
