// Package pyrite is the public facade over the semantic core: it wires the
// module resolver, type checker, ownership analyser, and borrow checker into
// one stable entry point, the way esbuild's own pkg/api sits in front of its
// internal passes. A caller supplies a parser (lexing/parsing stays out of
// this module's scope, per spec §1) and gets back every diagnostic the whole
// pipeline produced, in deterministic order.
package pyrite

import (
	"fmt"

	"github.com/wulfhouse/pyrite/internal/ast"
	"github.com/wulfhouse/pyrite/internal/borrow"
	"github.com/wulfhouse/pyrite/internal/check"
	"github.com/wulfhouse/pyrite/internal/config"
	"github.com/wulfhouse/pyrite/internal/logger"
	"github.com/wulfhouse/pyrite/internal/ownership"
	"github.com/wulfhouse/pyrite/internal/resolver"
)

// Result is everything a run of the pipeline produced.
type Result struct {
	Diagnostics []logger.Msg
	Modules     []*resolver.Module

	// OwnershipTimelines/BorrowTimelines are populated only when
	// Options.TrackTimeline is set, keyed by the function they were recorded for
	// (SPEC_FULL §3's supplemented ownership-timeline feature).
	OwnershipTimelines map[*ast.FunctionDef][]ownership.Event
	BorrowTimelines    map[*ast.FunctionDef][]ownership.Event
}

// HasErrors reports whether any diagnostic in the result is an error or an
// internal invariant violation.
func (r *Result) HasErrors() bool {
	for _, m := range r.Diagnostics {
		if m.Kind == logger.Error || m.Kind == logger.Internal {
			return true
		}
	}
	return false
}

// Options configures one run of the pipeline. Resolver holds §4.1's path
// resolution knobs; TrackTimeline opts into the ownership/borrow event logs
// supplemented from the Python reference (SPEC_FULL §3).
type Options struct {
	Resolver      config.Options
	TrackTimeline bool
}

// Compile runs the whole pipeline over a single entry-point source: module
// resolution, then (gated on no resolver errors) two-pass type checking,
// then (gated on no type errors per §7's stability contract) ownership
// analysis and borrow checking over every function in every loaded module.
//
// A panic escaping any one pass is recovered at this boundary and reported
// as a single internal diagnostic rather than crashing the caller (§7).
func Compile(mainPath, mainSource string, parse resolver.ParseFunc, readFile resolver.ReadFileFunc, exists resolver.ExistsFunc, opts Options) (result *Result, err error) {
	log := logger.NewDeferLog()

	defer func() {
		if rec := recover(); rec != nil {
			log.AddInternal(logger.Span{File: mainPath}, fmt.Sprintf("internal error: %v", rec))
			result = &Result{Diagnostics: log.Done()}
			err = nil
		}
	}()

	res := resolver.New(resolver.Options{
		StdlibRoot:                      opts.Resolver.StdlibRoot,
		CompilationRoot:                 opts.Resolver.CompilationRoot,
		DowngradeMissingModuleToWarning: opts.Resolver.DowngradeMissingModuleToWarning,
	}, parse, readFile, exists, log)
	_, modules, loadErr := res.LoadEntryPoint(mainPath, mainSource)
	if loadErr != nil {
		return &Result{Diagnostics: log.Done()}, loadErr
	}

	if log.HasErrors() {
		return &Result{Diagnostics: log.Done(), Modules: modules}, nil
	}

	// Modules arrive dependency-first (resolver.TopoOrder): one Checker's
	// Symbols.Global accumulates across calls, so checking a dependency
	// before its importer is what makes ImportModuleSymbols's "every
	// top-level item is visible to importers" guarantee hold without this
	// facade re-registering anything.
	checker := check.New(log)
	for _, m := range modules {
		checker.CheckProgram(m.AST)
	}

	result = &Result{Diagnostics: log.Done(), Modules: modules}

	// §7's fatal-gate: ownership and borrow analysis assume a well-typed
	// program (an unresolved identifier or unknown type would make "is this
	// value moved" meaningless), so a type error suppresses both passes
	// rather than risk a cascade of spurious ownership diagnostics.
	if result.HasErrors() {
		return result, nil
	}

	result.OwnershipTimelines = make(map[*ast.FunctionDef][]ownership.Event)
	result.BorrowTimelines = make(map[*ast.FunctionDef][]ownership.Event)

	for _, m := range modules {
		runAnalysisPasses(m.AST, checker, log, opts, result)
	}

	result.Diagnostics = log.Done()
	return result, nil
}

// runAnalysisPasses walks every function in prog — free functions and impl
// methods alike — running ownership analysis then borrow checking over each,
// using the variable-type map the checker recorded for that function.
func runAnalysisPasses(prog *ast.Program, checker *check.Checker, log logger.Log, opts Options, result *Result) {
	visit := func(fn *ast.FunctionDef) {
		if fn.Body == nil {
			return
		}
		varTypes := checker.FunctionVarTypes[fn]

		oa := ownership.NewAnalyzer(log, varTypes, checker.IsTypeName, checker.FieldType)
		oa.StrictLoop = opts.Resolver.StrictLoopOwnership
		oa.TrackTimeline = opts.TrackTimeline
		oa.AnalyzeFunction(fn)
		if opts.TrackTimeline {
			result.OwnershipTimelines[fn] = oa.Timeline()
		}

		bc := borrow.NewChecker(log, varTypes)
		bc.TrackTimeline = opts.TrackTimeline
		bc.CheckFunction(fn)
		if opts.TrackTimeline {
			result.BorrowTimelines[fn] = bc.Timeline()
		}
	}

	for _, item := range prog.Items {
		switch d := item.Data.(type) {
		case *ast.FunctionDef:
			visit(d)
		case *ast.ImplBlock:
			for _, m := range d.Methods {
				visit(m)
			}
		}
	}
}
