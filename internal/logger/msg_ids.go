package logger

// Stable diagnostic codes emitted by the core (spec §6). These are the
// identifiers a downstream formatter keys off of to decide rendering,
// severity overrides, or "did you mean" suggestions — analogous to
// esbuild's MsgID enum, except stringly-typed here because the codes are
// part of the external contract (§6 lists them verbatim) rather than an
// internal enumeration private to one binary.
const (
	CodeNonExhaustivePatterns    Code = "P0004"
	CodeUseOfMovedValue          Code = "P0234"
	CodeTraitBoundNotSatisfied   Code = "P0277"
	CodeTypeMismatch             Code = "P0308"
	CodeBorrowOfMovedValue       Code = "P0382"
	CodeUnknownType              Code = "P0412"
	CodeUnknownValue             Code = "P0425"
	CodeDuplicateMutableBorrow   Code = "P0499"
	CodeMutableImmutableConflict Code = "P0502"
	CodeImmutableMutableConflict Code = "P0503"
	CodeReferenceOutlivesValue   Code = "P0505"

	// Module resolution. Not enumerated in §6's minimum list but required
	// by §4.1's contract (circular-import and module-not-found errors).
	CodeCircularImport Code = "P0432"
	CodeModuleNotFound Code = "P0433"

	// Re-registering a name already bound in the same namespace at pass one
	// (§4.4.1). Not in §6's minimum list either; the reference implementation
	// reports this case as a plain string with no code at all, but every
	// other pass-one error here carries a stable code, so this one does too.
	CodeDuplicateDefinition Code = "P0428"

	// Internal compiler errors (§7): unexpected AST shape, invariant
	// violation. Reported, never silently swallowed.
	CodeInternal Code = "P9000"

	// A @requires/@ensures/@invariant clause that compile-time evaluation
	// (§4.4.5) proved always false — §8 scenario 5's hard error.
	CodeUnsatisfiableContract Code = "P0600"
)
