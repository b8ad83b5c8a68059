// Package config holds the handful of knobs the semantic core's driver
// chooses at construction time. This replaces the teacher's own
// internal/config, which held JS/CSS transform options (target,
// minification, JSX pragma, loader mappings) that have no counterpart in a
// semantic-analysis-only core; what survives here is the set of decisions
// the spec leaves to an Open Question or an explicit implementation choice.
package config

// Options configures one run of the core over a set of modules.
type Options struct {
	// StdlibRoot is the directory `std::...` imports resolve under (§4.1).
	StdlibRoot string

	// CompilationRoot is the directory relative-path imports resolve under
	// (§4.1).
	CompilationRoot string

	// DowngradeMissingModuleToWarning, when true, turns a missing non-stdlib
	// module into a warning instead of a hard error, allowing the rest of
	// the program to still be analysed (§4.1's Open Question on partial
	// analysis). Missing stdlib modules are always a hard error.
	DowngradeMissingModuleToWarning bool

	// StrictLoopOwnership selects which of the two documented behaviors a
	// loop body's ownership restoration uses (§4.5's Open Question): true
	// restores the pre-loop-body state exactly between iterations (a value
	// moved in iteration N is usable again in iteration N+1, matching a
	// loop that logically re-runs from the same bindings); false instead
	// merges the loop body's exit state back into itself once, treating a
	// value moved anywhere in the body as moved for every iteration after
	// the first. The reference implementation uses the strict behavior;
	// this is the default.
	StrictLoopOwnership bool
}

// Default returns an Options with the reference implementation's choices
// for every Open Question.
func Default() Options {
	return Options{
		DowngradeMissingModuleToWarning: false,
		StrictLoopOwnership:             true,
	}
}
