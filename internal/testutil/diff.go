// SPDX-License-Identifier: MPL-2.0

package testutil

import "github.com/pmezard/go-difflib/difflib"

// Diff returns a unified diff from want to got, or "" when they are equal.
// Golden-text assertions print it instead of two opaque blobs.
func Diff(want, got string) string {
	if want == got {
		return ""
	}
	d, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "want",
		ToFile:   "got",
		Context:  2,
	})
	if err != nil {
		return "diff failed: " + err.Error()
	}
	return d
}
