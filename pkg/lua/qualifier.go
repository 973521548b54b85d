// SPDX-License-Identifier: MPL-2.0

package lua

import (
	"fmt"
	"regexp"
)

const (
	// QualifierMission names the main mission file.
	QualifierMission = "mission"
	// QualifierDictionary names the l10n dictionary file.
	QualifierDictionary = "dictionary"
	// QualifierMapResource names the l10n map resource file.
	QualifierMapResource = "mapResource"
	// QualifierOptions names the per-user options file.
	QualifierOptions = "options"
	// QualifierWarehouses names the warehouses file.
	QualifierWarehouses = "warehouses"
)

// qualifierLine matches the statement prefix of a file. DCS puts the opening
// brace on the next line; hand-written files often keep it on the same one.
var qualifierLine = regexp.MustCompile(`^(dictionary|mission|mapResource|options|warehouses) = ?(?:\r?\n)?`)

// Qualifier names a decoded file and keeps its verbatim prefix line so the
// encoder reproduces it exactly.
type Qualifier struct {
	// Name is the Lua variable the file assigns (mission, dictionary, ...).
	Name string
	// Prefix is the verbatim text before the opening brace, for example
	// "mission = \n" or "mission = ".
	Prefix string
}

// NewQualifier returns the qualifier DCS writes for name.
func NewQualifier(name string) Qualifier {
	return Qualifier{Name: name, Prefix: name + " = \n"}
}

// Validate checks that the qualifier name is known and that the prefix line
// belongs to it.
func (q Qualifier) Validate() error {
	m := qualifierLine.FindStringSubmatch(q.Prefix)
	if m == nil || len(m[0]) != len(q.Prefix) {
		return fmt.Errorf("%w: prefix %q", ErrQualifier, q.Prefix)
	}
	if m[1] != q.Name {
		return fmt.Errorf("%w: prefix %q does not name %q", ErrQualifier, q.Prefix, q.Name)
	}
	return nil
}

// Trailer returns the comment that closes the file, including its newline.
func (q Qualifier) Trailer() string {
	return " -- end of " + q.Name + "\n"
}

// String returns the qualifier name.
func (q Qualifier) String() string { return q.Name }
