// SPDX-License-Identifier: MPL-2.0

// Package issue turns failures into messages a mission maker can act on.
//
// ActionableError carries the failed operation, the archive involved and
// short suggestions; the catalog holds longer Markdown guidance rendered with
// glamour for the common failure classes.
package issue
