// SPDX-License-Identifier: MPL-2.0

// Package natsort implements natural string ordering, where embedded runs of
// decimal digits compare by numeric value ("item2" sorts before "item10").
//
// Strings are split into alternating digit and non-digit runs. Non-digit runs
// compare byte-wise, digit runs compare numerically. Strings that compare equal
// under those rules (for example "01" and "1") fall back to plain byte order so
// the result is a total order suitable for deterministic serialization.
package natsort

import (
	"strings"

	"golang.org/x/exp/slices"
)

// Compare returns -1, 0 or +1 depending on whether a sorts before, equal to,
// or after b in natural order.
func Compare(a, b string) int {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		ca, cb := a[i], b[j]
		if isDigit(ca) && isDigit(cb) {
			si, sj := i, j
			for i < len(a) && isDigit(a[i]) {
				i++
			}
			for j < len(b) && isDigit(b[j]) {
				j++
			}
			if c := compareDigits(a[si:i], b[sj:j]); c != 0 {
				return c
			}
			continue
		}
		if ca != cb {
			if ca < cb {
				return -1
			}
			return 1
		}
		i++
		j++
	}

	switch {
	case i < len(a):
		return 1
	case j < len(b):
		return -1
	}
	return strings.Compare(a, b)
}

// Less reports whether a sorts strictly before b in natural order.
func Less(a, b string) bool {
	return Compare(a, b) < 0
}

// Sort sorts s in place in natural order.
func Sort(s []string) {
	slices.SortFunc(s, Compare)
}

// Sorted returns a naturally sorted copy of s. The input is not modified.
func Sorted(s []string) []string {
	out := slices.Clone(s)
	Sort(out)
	return out
}

// compareDigits compares two digit runs by numeric value without converting
// them, so arbitrarily long runs never overflow.
func compareDigits(x, y string) int {
	x = strings.TrimLeft(x, "0")
	y = strings.TrimLeft(y, "0")
	if len(x) != len(y) {
		if len(x) < len(y) {
			return -1
		}
		return 1
	}
	return strings.Compare(x, y)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
