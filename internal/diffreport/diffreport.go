// Package diffreport renders a unified line diff between two multi-line
// strings for test failure output — the same role esbuild's hand-rolled
// internal/test/diff.go plays for its own snapshot tests, except built on
// github.com/pmezard/go-difflib's SequenceMatcher instead of a hand-rolled
// longest-common-substring recursion. testify/require already pulls in
// go-difflib transitively, so this package adds no new module dependency;
// it only gives that library a named, reusable home for the ownership and
// borrow state-merge mismatches this module's tests need to report.
package diffreport

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Unified returns a unified diff of want vs got, labeled "want"/"got" the
// way a table-driven test's failure message should read.
func Unified(want, got string) string {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "want",
		ToFile:   "got",
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "want:\n" + want + "\ngot:\n" + got
	}
	return strings.TrimRight(text, "\n")
}
