// Package ownership implements the per-function move analysis of §3.4/§4.5:
// an abstract interpretation over a function body that tracks which values
// (and which struct fields) have been moved, producing use-after-move
// diagnostics including partial moves and conservative merges across
// control-flow branches.
//
// It is grounded directly on the reference implementation's
// ownership.py (OwnershipState/OwnershipAnalyzer), carried into Go the way
// esbuild carries its own per-file analysis passes: a stateful analyzer
// value threaded through a single exhaustive statement/expression walk,
// reporting through the shared logger.Log rather than raising.
package ownership

import (
	"fmt"

	"github.com/wulfhouse/pyrite/internal/ast"
	"github.com/wulfhouse/pyrite/internal/logger"
	"github.com/wulfhouse/pyrite/internal/types"
)

// ValueInfo is §3.4's per-variable record.
type ValueInfo struct {
	ID            int
	Name          string
	Type          types.Type
	AllocSpan     logger.Span
	MovedTo       string
	MoveSpan      logger.Span
	HasMove       bool
	MovedFields   map[string]bool
}

// State is §3.4's OwnershipState: a map from variable id to ValueInfo plus
// the set of fully-moved ids.
type State struct {
	values   map[int]*ValueInfo
	moved    map[int]bool
	nameToID map[string]int
	counter  int
}

func NewState() *State {
	return &State{
		values:   make(map[int]*ValueInfo),
		moved:    make(map[int]bool),
		nameToID: make(map[string]int),
	}
}

// Allocate registers a new owned value, as happens on function entry for
// parameters and at every declaration/binding site thereafter.
func (s *State) Allocate(name string, typ types.Type, span logger.Span) int {
	id := s.counter
	s.counter++
	s.values[id] = &ValueInfo{ID: id, Name: name, Type: typ, AllocSpan: span, MovedFields: make(map[string]bool)}
	s.nameToID[name] = id
	return id
}

// IsOwned reports whether the whole value (field == "") or just one field is
// still owned.
func (s *State) IsOwned(id int, field string) bool {
	info, ok := s.values[id]
	if !ok {
		return false
	}
	if s.moved[id] {
		return false
	}
	if field != "" {
		return !info.MovedFields[field]
	}
	return len(info.MovedFields) == 0
}

func (s *State) IsOwnedByName(name, field string) bool {
	id, ok := s.nameToID[name]
	if !ok {
		return false
	}
	return s.IsOwned(id, field)
}

func (s *State) Info(name string) (*ValueInfo, bool) {
	id, ok := s.nameToID[name]
	if !ok {
		return nil, false
	}
	info, ok := s.values[id]
	return info, ok
}

// MoveValue moves the whole value, or (when field != "") just one field.
func (s *State) MoveValue(from, to string, span logger.Span, field string) {
	id, ok := s.nameToID[from]
	if !ok {
		return
	}
	if s.moved[id] {
		return
	}
	if field != "" {
		s.values[id].MovedFields[field] = true
		return
	}
	s.moved[id] = true
	s.values[id].MovedTo = to
	s.values[id].MoveSpan = span
	s.values[id].HasMove = true
}

// Clone deep-copies the state, the way a branch or loop body needs its own
// mutable copy to analyse independently of its siblings.
func (s *State) Clone() *State {
	c := &State{
		values:   make(map[int]*ValueInfo, len(s.values)),
		moved:    make(map[int]bool, len(s.moved)),
		nameToID: make(map[string]int, len(s.nameToID)),
		counter:  s.counter,
	}
	for id, info := range s.values {
		fields := make(map[string]bool, len(info.MovedFields))
		for f := range info.MovedFields {
			fields[f] = true
		}
		cp := *info
		cp.MovedFields = fields
		c.values[id] = &cp
	}
	for id := range s.moved {
		c.moved[id] = true
	}
	for name, id := range s.nameToID {
		c.nameToID[name] = id
	}
	return c
}

// MergeStates implements the conservative branch merge of §4.5/§9: a value
// is moved after the join iff it was moved on any of the input states.
func MergeStates(states []*State) *State {
	if len(states) == 0 {
		return NewState()
	}
	merged := states[0].Clone()
	for _, s := range states[1:] {
		for id := range s.moved {
			merged.moved[id] = true
		}
		for id, info := range s.values {
			if mergedInfo, ok := merged.values[id]; ok {
				for f := range info.MovedFields {
					mergedInfo.MovedFields[f] = true
				}
			}
		}
	}
	return merged
}

// EventKind tags one entry of the opt-in ownership timeline (SPEC_FULL §3,
// grounded on ownership.py's OwnershipEvent/format_timeline).
type EventKind string

const (
	EventMove    EventKind = "move"
	EventUse     EventKind = "use"
	EventBorrow  EventKind = "borrow"
	EventBorrowMut EventKind = "borrow_mut"
	EventRelease EventKind = "release"
)

type Event struct {
	Variable    string
	Line        int
	Kind        EventKind
	Description string
	Span        logger.Span
}

// Analyzer walks one function body, reporting use-after-move and partial-move
// diagnostics through Log. VariableTypes must already hold the resolved type
// of every local, parameter, and loop variable in the function (the type
// checker's job, per §5's pass ordering); IsTypeName distinguishes a field
// access `T.f` naming an enum-variant constructor from a true field access on
// a value, matching the reference's resolver.global_scope.lookup_type check.
type Analyzer struct {
	Log           logger.Log
	VariableTypes map[string]types.Type
	IsTypeName    func(name string) bool
	FieldType     func(objType types.Type, field string) (types.Type, bool)
	StrictLoop    bool
	TrackTimeline bool

	state    *State
	timeline []Event
}

func NewAnalyzer(log logger.Log, varTypes map[string]types.Type, isTypeName func(string) bool, fieldType func(types.Type, string) (types.Type, bool)) *Analyzer {
	return &Analyzer{Log: log, VariableTypes: varTypes, IsTypeName: isTypeName, FieldType: fieldType, state: NewState()}
}

func (a *Analyzer) Timeline() []Event { return a.timeline }

func (a *Analyzer) event(variable string, kind EventKind, desc string, span logger.Span) {
	if !a.TrackTimeline {
		return
	}
	a.timeline = append(a.timeline, Event{Variable: variable, Line: span.StartLine, Kind: kind, Description: desc, Span: span})
}

// AnalyzeFunction runs the analysis over fn's body; parameters are allocated
// as owned on entry (§3.4).
func (a *Analyzer) AnalyzeFunction(fn *ast.FunctionDef) {
	a.state = NewState()
	for _, p := range fn.Params {
		if t, ok := a.VariableTypes[p.Name]; ok {
			a.state.Allocate(p.Name, t, p.Span)
		}
	}
	if fn.Body != nil {
		a.analyzeBlock(fn.Body)
	}
}

func (a *Analyzer) analyzeBlock(b *ast.Block) {
	for _, stmt := range b.Statements {
		a.analyzeStmt(stmt)
	}
}

func (a *Analyzer) analyzeStmt(stmt ast.Stmt) {
	switch s := stmt.Data.(type) {
	case *ast.SVarDecl:
		a.analyzeVarDecl(s, stmt.Span)
	case *ast.SAssignment:
		a.analyzeAssignment(s)
	case *ast.SExprStmt:
		a.analyzeExpr(s.Value)
	case *ast.SReturn:
		if s.Value != nil {
			a.analyzeExpr(*s.Value)
		}
	case *ast.SIf:
		a.analyzeIf(s)
	case *ast.SWhile:
		a.analyzeWhile(s)
	case *ast.SFor:
		a.analyzeFor(s)
	case *ast.SMatch:
		a.analyzeMatch(s)
	case *ast.SDefer:
		a.analyzeBlock(s.Body)
	case *ast.SWith:
		a.analyzeExpr(s.Resource)
		if t, ok := a.VariableTypes[s.Binding]; ok {
			a.state.Allocate(s.Binding, t, stmt.Span)
		}
		a.analyzeBlock(s.Body)
	case *ast.SUnsafe:
		// ownership checks are suspended inside unsafe blocks (§4.5)
	case *ast.SBreak, *ast.SContinue:
	}
}

func (a *Analyzer) analyzeVarDecl(decl *ast.SVarDecl, span logger.Span) {
	name := decl.Name
	if id, ok := decl.Pattern.Data.(*ast.PIdentifier); ok && name == "" {
		name = id.Name
	}

	switch init := decl.Initializer.Data.(type) {
	case *ast.ERuntimeClosure:
		a.analyzeRuntimeClosure(init, decl.Initializer.Span)
	case *ast.EIdentifier:
		a.maybeMoveIdentifierInto(init.Name, name, span)
	case *ast.EFieldAccess:
		a.analyzeFieldAccessMove(init, name, span)
	default:
		a.analyzeExpr(decl.Initializer)
	}

	a.bindPattern(decl.Pattern, a.VariableTypes[name])
}

func (a *Analyzer) maybeMoveIdentifierInto(sourceName, targetName string, span logger.Span) {
	sourceType, ok := a.VariableTypes[sourceName]
	if !ok || types.IsCopy(sourceType) {
		a.checkIdentifierUseByName(sourceName, span)
		return
	}
	a.checkIdentifierUseByName(sourceName, span)
	a.state.MoveValue(sourceName, targetName, span, "")
	a.event(sourceName, EventMove, fmt.Sprintf("'%s' moved to '%s'", sourceName, targetName), span)
}

func (a *Analyzer) analyzeFieldAccessMove(fa *ast.EFieldAccess, targetName string, span logger.Span) {
	objIdent, ok := fa.Object.Data.(*ast.EIdentifier)
	if !ok {
		a.analyzeExpr(fa.Object)
		return
	}
	objName := objIdent.Name
	if a.IsTypeName != nil && a.IsTypeName(objName) {
		return // enum-variant constructor syntax, not a field access
	}
	objType, hasType := a.VariableTypes[objName]
	if !hasType {
		return
	}
	a.checkFieldUse(objName, fa.Field, fa.Object.Span)

	if a.FieldType == nil {
		return
	}
	fieldType, ok := a.FieldType(objType, fa.Field)
	if !ok {
		return
	}
	if _, isUnknown := fieldType.(*types.UnknownType); isUnknown {
		return
	}
	if types.IsCopy(fieldType) {
		return
	}
	a.state.MoveValue(objName, targetName, span, fa.Field)
	a.event(objName, EventMove, fmt.Sprintf("field '%s' of '%s' moved to '%s'", fa.Field, objName, targetName), span)
}

func (a *Analyzer) analyzeAssignment(assign *ast.SAssignment) {
	targetIdent, targetIsIdent := assign.Target.Data.(*ast.EIdentifier)
	valueIdent, valueIsIdent := assign.Value.Data.(*ast.EIdentifier)
	if targetIsIdent && valueIsIdent {
		a.maybeMoveIdentifierInto(valueIdent.Name, targetIdent.Name, assign.Value.Span)
		return
	}
	a.analyzeExpr(assign.Value)
}

func (a *Analyzer) analyzeIf(s *ast.SIf) {
	a.analyzeExpr(s.Cond)
	original := a.state.Clone()

	a.analyzeBlock(s.Then)
	states := []*State{a.state.Clone()}

	for _, clause := range s.Elifs {
		a.state = original.Clone()
		a.analyzeExpr(clause.Cond)
		a.analyzeBlock(clause.Block)
		states = append(states, a.state.Clone())
	}

	if s.Else != nil {
		a.state = original.Clone()
		a.analyzeBlock(s.Else)
		states = append(states, a.state.Clone())
	} else {
		states = append(states, original.Clone())
	}

	a.state = MergeStates(states)
}

func (a *Analyzer) analyzeWhile(s *ast.SWhile) {
	a.analyzeExpr(s.Cond)
	original := a.state.Clone()
	a.analyzeBlock(s.Body)
	if a.StrictLoop {
		a.state = original
	} else {
		a.state = MergeStates([]*State{original, a.state.Clone()})
	}
}

func (a *Analyzer) analyzeFor(s *ast.SFor) {
	a.analyzeExpr(s.Iterable)
	if t, ok := a.VariableTypes[s.Variable]; ok {
		a.state.Allocate(s.Variable, t, s.Iterable.Span)
	}
	original := a.state.Clone()
	a.analyzeBlock(s.Body)
	if a.StrictLoop {
		a.state = original
	} else {
		a.state = MergeStates([]*State{original, a.state.Clone()})
	}
}

func (a *Analyzer) analyzeMatch(s *ast.SMatch) {
	a.analyzeExpr(s.Scrutinee)
	scrutineeIdent, scrutineeIsIdent := s.Scrutinee.Data.(*ast.EIdentifier)
	var scrutineeType types.Type
	if scrutineeIsIdent {
		scrutineeType = a.VariableTypes[scrutineeIdent.Name]
	}

	original := a.state.Clone()
	var armStates []*State
	for _, arm := range s.Arms {
		a.state = original.Clone()
		if scrutineeIsIdent && scrutineeType != nil && !types.IsCopy(scrutineeType) {
			a.state.MoveValue(scrutineeIdent.Name, "<match arm>", arm.Pattern.Span, "")
			a.event(scrutineeIdent.Name, EventMove, fmt.Sprintf("'%s' moved into match arm", scrutineeIdent.Name), arm.Pattern.Span)
		}
		a.bindPattern(arm.Pattern, scrutineeType)
		if arm.Guard != nil {
			a.analyzeExpr(*arm.Guard)
		}
		a.analyzeBlock(arm.Body)
		armStates = append(armStates, a.state.Clone())
	}
	a.state = MergeStates(armStates)
}

func (a *Analyzer) analyzeRuntimeClosure(closure *ast.ERuntimeClosure, span logger.Span) {
	for _, captured := range closure.Captures {
		if a.state.IsOwnedByName(captured, "") {
			continue
		}
		info, ok := a.state.Info(captured)
		if ok && info.HasMove {
			a.Log.AddError(span, logger.CodeUseOfMovedValue,
				fmt.Sprintf("cannot capture moved value '%s' (moved to '%s')", captured, info.MovedTo))
		}
	}
}

// bindPattern allocates every identifier a pattern binds, recursing through
// tuple/enum-variant/or-pattern shapes the way the reference's
// bind_pattern_variables does.
func (a *Analyzer) bindPattern(p ast.Pattern, expected types.Type) {
	switch d := p.Data.(type) {
	case *ast.PIdentifier:
		t := expected
		if t == nil {
			t = a.VariableTypes[d.Name]
		}
		if t != nil {
			a.state.Allocate(d.Name, t, p.Span)
		}
	case *ast.PTuple:
		if tup, ok := expected.(*types.TupleType); ok && len(tup.Elements) == len(d.Elements) {
			for i, sub := range d.Elements {
				a.bindPattern(sub, tup.Elements[i])
			}
			return
		}
		for _, sub := range d.Elements {
			a.bindPattern(sub, nil)
		}
	case *ast.PEnumVariant:
		for _, sub := range d.Fields {
			a.bindPattern(sub, nil)
		}
	case *ast.POr:
		for _, alt := range d.Alternatives {
			a.bindPattern(alt, expected)
		}
	case *ast.PLiteral, *ast.PWildcard:
	}
}

// analyzeExpr walks an expression purely for ownership side-effects
// (use-after-move checks and moves into calls); it has no return value
// because the core's checker, not this analyser, threads types through
// expressions (§5: ownership analysis reads but does not drive typing).
func (a *Analyzer) analyzeExpr(e ast.Expr) {
	switch d := e.Data.(type) {
	case *ast.EIdentifier:
		a.checkIdentifierUseByName(d.Name, e.Span)
	case *ast.EBinary:
		a.analyzeExpr(d.Left)
		a.analyzeExpr(d.Right)
	case *ast.EUnary:
		if d.Op == ast.OpRef || d.Op == ast.OpRefMut {
			if ident, ok := d.Operand.Data.(*ast.EIdentifier); ok {
				a.checkIdentifierUseByName(ident.Name, d.Operand.Span)
			} else {
				a.analyzeExpr(d.Operand)
			}
			return
		}
		a.analyzeExpr(d.Operand)
	case *ast.ETernary:
		a.analyzeExpr(d.Cond)
		a.analyzeExpr(d.True)
		a.analyzeExpr(d.False)
	case *ast.ECall:
		a.analyzeCall(d)
	case *ast.EMethodCall:
		a.analyzeExpr(d.Receiver)
		for _, arg := range d.Args {
			a.analyzeExpr(arg)
		}
	case *ast.EFieldAccess:
		a.analyzeFieldAccessUse(d, e.Span)
	case *ast.EIndex:
		a.analyzeExpr(d.Object)
		a.analyzeExpr(d.Index)
	case *ast.EAsCast:
		a.analyzeExpr(d.Value)
	case *ast.EStructLiteral:
		for _, f := range d.Fields {
			a.analyzeExpr(f.Value)
		}
	case *ast.EListLiteral:
		for _, elem := range d.Elements {
			a.analyzeExpr(elem)
		}
	case *ast.ETupleLiteral:
		for _, elem := range d.Elements {
			a.analyzeExpr(elem)
		}
	case *ast.ETry:
		a.analyzeExpr(d.Value)
	case *ast.EOld:
		a.analyzeExpr(d.Value)
	case *ast.EQuantifier:
		a.analyzeExpr(d.Collection)
		a.analyzeExpr(d.Predicate)
	case *ast.ERuntimeClosure:
		a.analyzeRuntimeClosure(d, e.Span)
	case *ast.EParamClosure:
		a.analyzeExpr(d.Body)
	case *ast.EInt, *ast.EFloat, *ast.EString, *ast.EChar, *ast.EBool, *ast.ENone:
	}
}

func (a *Analyzer) analyzeFieldAccessUse(fa *ast.EFieldAccess, span logger.Span) {
	objIdent, ok := fa.Object.Data.(*ast.EIdentifier)
	if !ok {
		a.analyzeExpr(fa.Object)
		return
	}
	if a.IsTypeName != nil && a.IsTypeName(objIdent.Name) {
		return
	}
	if _, hasType := a.VariableTypes[objIdent.Name]; !hasType {
		return
	}
	a.checkFieldUse(objIdent.Name, fa.Field, span)
}

// analyzeCall mirrors analyze_function_call: `print` is a pure read of its
// arguments, everything else moves non-Copy identifier arguments.
func (a *Analyzer) analyzeCall(call *ast.ECall) {
	a.analyzeExpr(call.Callee)

	if callee, ok := call.Callee.Data.(*ast.EIdentifier); ok && callee.Name == "print" {
		for _, arg := range call.Args {
			if ident, ok := arg.Data.(*ast.EIdentifier); ok {
				a.checkIdentifierUseByName(ident.Name, arg.Span)
			} else {
				a.analyzeExpr(arg)
			}
		}
		return
	}

	for _, arg := range call.Args {
		ident, ok := arg.Data.(*ast.EIdentifier)
		if !ok {
			a.analyzeExpr(arg)
			continue
		}
		argType, hasType := a.VariableTypes[ident.Name]
		if !hasType || types.IsCopy(argType) {
			continue
		}
		if !a.state.IsOwnedByName(ident.Name, "") {
			if info, ok := a.state.Info(ident.Name); ok {
				a.Log.AddError(arg.Span, logger.CodeUseOfMovedValue,
					fmt.Sprintf("cannot move value '%s' (already moved to '%s')", ident.Name, info.MovedTo))
			}
			continue
		}
		a.state.MoveValue(ident.Name, "<function parameter>", arg.Span, "")
		a.event(ident.Name, EventMove, fmt.Sprintf("'%s' moved into call", ident.Name), arg.Span)
	}
}

func (a *Analyzer) checkIdentifierUseByName(name string, span logger.Span) {
	a.event(name, EventUse, fmt.Sprintf("'%s' used", name), span)
	if a.state.IsOwnedByName(name, "") {
		return
	}
	info, ok := a.state.Info(name)
	if !ok {
		return
	}
	if info.HasMove {
		a.Log.AddError(span, logger.CodeUseOfMovedValue,
			fmt.Sprintf("use of moved value '%s' (moved to '%s')", name, info.MovedTo))
		return
	}
	if len(info.MovedFields) > 0 {
		a.Log.AddError(span, logger.CodeUseOfMovedValue,
			fmt.Sprintf("cannot use '%s' because it has partially moved fields", name))
	}
}

func (a *Analyzer) checkFieldUse(objName, field string, span logger.Span) {
	a.event(objName, EventUse, fmt.Sprintf("field '%s' of '%s' used", field, objName), span)
	info, ok := a.state.Info(objName)
	if !ok {
		return
	}
	switch {
	case !a.state.IsOwnedByName(objName, "") && info.HasMove:
		a.Log.AddError(span, logger.CodeUseOfMovedValue,
			fmt.Sprintf("cannot use field '%s' of moved value '%s'", field, objName))
	case !a.state.IsOwnedByName(objName, field):
		a.Log.AddError(span, logger.CodeUseOfMovedValue,
			fmt.Sprintf("cannot use already-moved field '%s' of '%s'", field, objName))
	}
}
