// Package borrow implements the per-scope borrow checker of §3.5/§4.6:
// tracks active shared/exclusive borrows in a linked-scope state and
// enforces the aliasing-XOR-mutability rule, running after ownership
// analysis over the same function body (§5's pass ordering).
//
// Grounded directly on the reference implementation's borrow_checker.py
// (BorrowState/BorrowChecker), following its scope-linking and conflict
// rule exactly; reports through the shared logger.Log instead of raising.
package borrow

import (
	"github.com/wulfhouse/pyrite/internal/ast"
	"github.com/wulfhouse/pyrite/internal/logger"
	"github.com/wulfhouse/pyrite/internal/ownership"
	"github.com/wulfhouse/pyrite/internal/types"
)

// Borrow is an active reference recorded in a scope's list (§3.5).
type Borrow struct {
	Variable    string
	Mutable     bool
	BorrowSpan  logger.Span
	LastUseSpan logger.Span
}

// State is one node of the linked-scope borrow tree: its own list of active
// borrows plus a parent pointer. The in-force borrow set of a scope is its
// own list plus every ancestor's (§3.5).
type State struct {
	active []Borrow
	parent *State
}

func NewState() *State { return &State{} }

func (s *State) AddBorrow(variable string, mutable bool, span logger.Span) Borrow {
	b := Borrow{Variable: variable, Mutable: mutable, BorrowSpan: span, LastUseSpan: span}
	s.active = append(s.active, b)
	return b
}

// ActiveBorrows returns every active borrow of variable in this scope and
// all enclosing scopes.
func (s *State) ActiveBorrows(variable string) []Borrow {
	var result []Borrow
	for cur := s; cur != nil; cur = cur.parent {
		for _, b := range cur.active {
			if b.Variable == variable {
				result = append(result, b)
			}
		}
	}
	return result
}

// CheckConflict implements §4.6's conflict rule: a new shared borrow
// conflicts with any existing exclusive borrow; a new exclusive borrow
// conflicts with any existing borrow at all. Returns the first conflicting
// borrow, or ok=false if there is none.
func (s *State) CheckConflict(variable string, mutable bool) (conflict Borrow, ok bool) {
	for _, b := range s.ActiveBorrows(variable) {
		if mutable || b.Mutable {
			return b, true
		}
	}
	return Borrow{}, false
}

// Clone copies this scope's own borrow list (not the parent chain, which is
// shared and immutable from this scope's perspective), matching
// BorrowState.clone.
func (s *State) Clone() *State {
	c := &State{parent: s.parent}
	c.active = append([]Borrow(nil), s.active...)
	return c
}

// EnterScope creates a child scope linked to s, per §3.5's "entering a child
// scope adds to the list without removing".
func (s *State) EnterScope() *State { return &State{parent: s} }

// Checker walks one function body checking borrow conflicts, after
// ownership analysis has already run over the same body (§5).
type Checker struct {
	Log           logger.Log
	VariableTypes map[string]types.Type
	TrackTimeline bool

	state    *State
	timeline []ownership.Event
}

func NewChecker(log logger.Log, varTypes map[string]types.Type) *Checker {
	return &Checker{Log: log, VariableTypes: varTypes}
}

func (c *Checker) Timeline() []ownership.Event { return c.timeline }

func (c *Checker) event(variable string, kind ownership.EventKind, desc string, span logger.Span) {
	if !c.TrackTimeline {
		return
	}
	c.timeline = append(c.timeline, ownership.Event{Variable: variable, Line: span.StartLine, Kind: kind, Description: desc, Span: span})
}

// CheckFunction runs the analysis over fn's body.
func (c *Checker) CheckFunction(fn *ast.FunctionDef) {
	c.state = NewState()
	if fn.Body != nil {
		c.checkBlock(fn.Body)
	}
}

func (c *Checker) checkBlock(b *ast.Block) {
	for _, stmt := range b.Statements {
		c.checkStmt(stmt)
	}
}

func (c *Checker) checkStmt(stmt ast.Stmt) {
	switch s := stmt.Data.(type) {
	case *ast.SVarDecl:
		c.checkExpr(s.Initializer)
	case *ast.SAssignment:
		c.checkAssignment(s, stmt.Span)
	case *ast.SExprStmt:
		c.checkExpr(s.Value)
	case *ast.SReturn:
		if s.Value != nil {
			c.checkExpr(*s.Value)
		}
	case *ast.SIf:
		c.checkIf(s)
	case *ast.SWhile:
		c.checkExpr(s.Cond)
		c.checkInChildScope(s.Body)
	case *ast.SFor:
		c.checkExpr(s.Iterable)
		c.checkInChildScope(s.Body)
	case *ast.SMatch:
		c.checkMatch(s)
	case *ast.SDefer:
		c.checkInChildScope(s.Body)
	case *ast.SWith:
		c.checkExpr(s.Resource)
		c.checkInChildScope(s.Body)
	case *ast.SUnsafe:
		c.checkInChildScope(s.Body)
	case *ast.SBreak, *ast.SContinue:
	}
}

// checkInChildScope runs body in a fresh child scope, then discards it —
// borrows made inside a loop/defer/with/unsafe body never escape it, and
// the outer state is restored exactly, matching check_while/check_for.
func (c *Checker) checkInChildScope(body *ast.Block) {
	outer := c.state
	c.state = outer.EnterScope()
	c.checkBlock(body)
	c.state = outer
}

func (c *Checker) checkAssignment(assign *ast.SAssignment, span logger.Span) {
	if target, ok := assign.Target.Data.(*ast.EIdentifier); ok {
		if borrows := c.state.ActiveBorrows(target.Name); len(borrows) > 0 {
			related := make([]logger.Related, len(borrows))
			for i, b := range borrows {
				related[i] = logger.Related{Span: b.BorrowSpan, Label: "borrowed here"}
			}
			c.Log.AddErrorWithRelated(span,logger.CodeMutableImmutableConflict,
				"cannot assign to '"+target.Name+"' because it is borrowed", related...)
		}
	}
	c.checkExpr(assign.Value)
}

// checkIf analyses each branch in its own child scope, discarding all of
// them at the join — branch borrow states never escape their branch
// (§4.6: "their borrow states are discarded at the join").
func (c *Checker) checkIf(s *ast.SIf) {
	c.checkExpr(s.Cond)
	outer := c.state

	c.state = outer.EnterScope()
	c.checkBlock(s.Then)
	c.state = outer

	for _, clause := range s.Elifs {
		c.state = outer.EnterScope()
		c.checkExpr(clause.Cond)
		c.checkBlock(clause.Block)
		c.state = outer
	}

	if s.Else != nil {
		c.state = outer.EnterScope()
		c.checkBlock(s.Else)
		c.state = outer
	}
}

func (c *Checker) checkMatch(s *ast.SMatch) {
	c.checkExpr(s.Scrutinee)
	outer := c.state
	for _, arm := range s.Arms {
		c.state = outer.EnterScope()
		if arm.Guard != nil {
			c.checkExpr(*arm.Guard)
		}
		c.checkBlock(arm.Body)
		c.state = outer
	}
}

func (c *Checker) checkExpr(e ast.Expr) {
	switch d := e.Data.(type) {
	case *ast.EIdentifier:
		c.event(d.Name, ownership.EventUse, "'"+d.Name+"' used", e.Span)
	case *ast.EUnary:
		switch d.Op {
		case ast.OpRef:
			c.checkBorrow(d.Operand, false, e.Span)
		case ast.OpRefMut:
			c.checkBorrow(d.Operand, true, e.Span)
		default:
			c.checkExpr(d.Operand)
		}
	case *ast.EBinary:
		c.checkExpr(d.Left)
		c.checkExpr(d.Right)
	case *ast.ETernary:
		c.checkExpr(d.Cond)
		c.checkExpr(d.True)
		c.checkExpr(d.False)
	case *ast.ECall:
		c.checkExpr(d.Callee)
		for _, arg := range d.Args {
			c.checkExpr(arg)
		}
	case *ast.EMethodCall:
		c.checkExpr(d.Receiver)
		for _, arg := range d.Args {
			c.checkExpr(arg)
		}
	case *ast.EFieldAccess:
		c.checkExpr(d.Object)
	case *ast.EIndex:
		c.checkExpr(d.Object)
		c.checkExpr(d.Index)
	case *ast.EAsCast:
		c.checkExpr(d.Value)
	case *ast.EStructLiteral:
		for _, f := range d.Fields {
			c.checkExpr(f.Value)
		}
	case *ast.EListLiteral:
		for _, elem := range d.Elements {
			c.checkExpr(elem)
		}
	case *ast.ETupleLiteral:
		for _, elem := range d.Elements {
			c.checkExpr(elem)
		}
	case *ast.ETry:
		c.checkExpr(d.Value)
	case *ast.EOld:
		c.checkExpr(d.Value)
	case *ast.EQuantifier:
		c.checkExpr(d.Collection)
		c.checkExpr(d.Predicate)
	case *ast.EParamClosure:
		c.checkExpr(d.Body)
	case *ast.ERuntimeClosure:
		c.checkBlock(d.Body)
	case *ast.EInt, *ast.EFloat, *ast.EString, *ast.EChar, *ast.EBool, *ast.ENone:
	}
}

func (c *Checker) checkBorrow(operand ast.Expr, mutable bool, span logger.Span) {
	ident, ok := operand.Data.(*ast.EIdentifier)
	if !ok {
		c.checkExpr(operand)
		return
	}
	name := ident.Name

	if mutable {
		c.event(name, ownership.EventBorrowMut, "'"+name+"' borrowed as mutable", span)
	} else {
		c.event(name, ownership.EventBorrow, "'"+name+"' borrowed as immutable", span)
	}

	conflict, has := c.state.CheckConflict(name, mutable)
	if !has {
		c.state.AddBorrow(name, mutable, span)
		return
	}

	switch {
	case mutable && conflict.Mutable:
		c.Log.AddErrorWithRelated(span, logger.CodeDuplicateMutableBorrow,
			"cannot borrow '"+name+"' as mutable more than once at a time",
			logger.Related{Span: conflict.BorrowSpan, Label: "first mutable borrow occurs here"})
	case mutable && !conflict.Mutable:
		c.Log.AddErrorWithRelated(span, logger.CodeMutableImmutableConflict,
			"cannot borrow '"+name+"' as mutable because it is also borrowed as immutable",
			logger.Related{Span: conflict.BorrowSpan, Label: "immutable borrow occurs here"})
	default: // !mutable && conflict.Mutable
		c.Log.AddErrorWithRelated(span, logger.CodeImmutableMutableConflict,
			"cannot borrow '"+name+"' as immutable because it is also borrowed as mutable",
			logger.Related{Span: conflict.BorrowSpan, Label: "mutable borrow occurs here"})
	}
}

// ElideLifetime implements §4.6's simple elision rule: when a function has
// exactly one reference parameter and returns a reference without an
// explicit lifetime, the input's lifetime is assigned to the output.
func ElideLifetime(params []types.Type, ret *types.ReferenceType) {
	if ret == nil || ret.Lifetime != "" {
		return
	}
	var only *types.ReferenceType
	count := 0
	for _, p := range params {
		if r, ok := p.(*types.ReferenceType); ok {
			only = r
			count++
		}
	}
	if count == 1 {
		ret.Lifetime = only.Lifetime
	}
}
