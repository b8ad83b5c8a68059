// Package scope implements the symbol table of §3.3: lexical scope with
// shadowing, and three independent namespaces (values, functions, types).
// It mirrors the shape of esbuild's internal/js_ast Scope/Symbol — a tree of
// scopes linked by Parent, each holding its own member maps — generalized
// from esbuild's single "symbols in a scope" map to the three namespaces
// this language's grammar actually needs (the same identifier can name a
// variable, a function, and a type at once, per §3.3's closing sentence).
package scope

import (
	"github.com/wulfhouse/pyrite/internal/logger"
	"github.com/wulfhouse/pyrite/internal/types"
)

// Symbol is an entry in the value or function namespace.
type Symbol struct {
	Name     string
	Type     types.Type
	Mutable  bool
	Span     logger.Span
	IsExtern bool // true for externally-linked (FFI) functions
}

// Scope is one node of the lexical scope tree (§3.3): a triple of mappings
// plus an optional parent.
type Scope struct {
	Parent    *Scope
	Values    map[string]*Symbol
	Functions map[string]*Symbol
	Types     map[string]types.Type
}

func newScope(parent *Scope) *Scope {
	return &Scope{
		Parent:    parent,
		Values:    make(map[string]*Symbol),
		Functions: make(map[string]*Symbol),
		Types:     make(map[string]types.Type),
	}
}

// Table is the symbol table threaded through name resolution and the type
// checker: a global scope plus whichever lexical scope is currently active.
type Table struct {
	Global  *Scope
	Current *Scope
}

// NewTable creates a symbol table with an empty global scope as the
// current scope.
func NewTable() *Table {
	g := newScope(nil)
	return &Table{Global: g, Current: g}
}

// EnterScope pushes a new child scope (§3.3).
func (t *Table) EnterScope() {
	t.Current = newScope(t.Current)
}

// ExitScope pops back to the parent scope. Exiting the global scope is a
// no-op (there is nothing to pop to), matching the idempotence law of §8
// ("entering and immediately exiting a scope leaves the symbol table
// observably unchanged").
func (t *Table) ExitScope() {
	if t.Current.Parent != nil {
		t.Current = t.Current.Parent
	}
}

// DefineVariable inserts a value-namespace symbol into the current scope.
// Re-definition in the same scope is an error (§3.3) — ok reports whether
// the insertion succeeded; on failure the caller is expected to report a
// diagnostic using the returned existing symbol's span as a related span.
func (t *Table) DefineVariable(name string, typ types.Type, mutable bool, span logger.Span) (ok bool, existing *Symbol) {
	if existing, found := t.Current.Values[name]; found {
		return false, existing
	}
	t.Current.Values[name] = &Symbol{Name: name, Type: typ, Mutable: mutable, Span: span}
	return true, nil
}

// DefineFunction inserts a symbol into the function namespace, always at
// global scope (functions are not block-scoped in this language). An
// identical-signature extern re-declaration is idempotent (§3.3c).
func (t *Table) DefineFunction(name string, typ *types.FunctionType, span logger.Span, isExtern bool) (ok bool, existing *Symbol) {
	if prev, found := t.Global.Functions[name]; found {
		if prev.IsExtern && isExtern {
			if prevFn, ok2 := prev.Type.(*types.FunctionType); ok2 && sameFunctionSignature(prevFn, typ) {
				return true, nil // idempotent re-declaration
			}
		}
		return false, prev
	}
	t.Global.Functions[name] = &Symbol{Name: name, Type: typ, Span: span, IsExtern: isExtern}
	return true, nil
}

func sameFunctionSignature(a, b *types.FunctionType) bool {
	if len(a.Params) != len(b.Params) {
		return false
	}
	for i := range a.Params {
		if !types.Compatible(a.Params[i], b.Params[i]) {
			return false
		}
	}
	if (a.Return == nil) != (b.Return == nil) {
		return false
	}
	return a.Return == nil || types.Compatible(a.Return, b.Return)
}

// DefineType inserts a type-namespace symbol, always at global scope.
// Overwriting the `unknown` forward-reference placeholder (§3.3a) and
// re-registering a same-named generic parameter across successive generic
// item definitions (§3.3b) are both idempotent.
func (t *Table) DefineType(name string, typ types.Type, span logger.Span) (ok bool) {
	if existing, found := t.Global.Types[name]; found {
		if _, isUnknown := existing.(*types.UnknownType); isUnknown {
			t.Global.Types[name] = typ
			return true
		}
		if existingVar, ok1 := existing.(*types.TypeVariable); ok1 {
			if newVar, ok2 := typ.(*types.TypeVariable); ok2 && existingVar.Name == newVar.Name {
				return true // idempotent generic-parameter re-registration
			}
		}
		return false
	}
	t.Global.Types[name] = typ
	return true
}

// LookupVariable walks the scope chain starting at the current scope.
func (t *Table) LookupVariable(name string) (*Symbol, bool) {
	for s := t.Current; s != nil; s = s.Parent {
		if sym, ok := s.Values[name]; ok {
			return sym, true
		}
	}
	return nil, false
}

// LookupFunction always begins at the global scope (§3.3).
func (t *Table) LookupFunction(name string) (*Symbol, bool) {
	sym, ok := t.Global.Functions[name]
	return sym, ok
}

// LookupType always begins at the global scope (§3.3).
func (t *Table) LookupType(name string) (types.Type, bool) {
	typ, ok := t.Global.Types[name]
	return typ, ok
}

// IsDefinedInCurrentScope reports whether name is already bound as a value
// in exactly the current scope (not an ancestor).
func (t *Table) IsDefinedInCurrentScope(name string) bool {
	_, ok := t.Current.Values[name]
	return ok
}
