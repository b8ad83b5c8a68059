// Package test holds small test-construction helpers shared across the
// module's _test.go files, the way esbuild's internal/test holds
// SourceForTest for its own suite. Assertions themselves now live in
// testify/require rather than a hand-rolled AssertEqual, since every other
// repo in the retrieval pack leans on testify and a compiler-core suite
// with dozens of table cases benefits from its fail-fast semantics.
package test

import "github.com/wulfhouse/pyrite/internal/logger"

// Span builds a throwaway logger.Span for hand-constructed test ASTs, where
// there is no real parser to attach one. The core never parses source text
// itself (§6: spans are the parser's contract with the core), so unlike
// esbuild's SourceForTest (which wraps real source contents), this only
// needs a location, not text.
func Span(file string, startLine, startCol, endLine, endCol int) logger.Span {
	return logger.Span{File: file, StartLine: startLine, StartCol: startCol, EndLine: endLine, EndCol: endCol}
}

// Spanned is a convenience for the common case of a single-point span
// (a literal or identifier token occupying one line).
func Spanned(file string, line, col int) logger.Span {
	return Span(file, line, col, line, col)
}
