package check

import (
	"github.com/wulfhouse/pyrite/internal/ast"
	"github.com/wulfhouse/pyrite/internal/logger"
	"github.com/wulfhouse/pyrite/internal/types"
)

func (c *Checker) checkBlock(b *ast.Block) {
	for _, stmt := range b.Statements {
		c.checkStatement(stmt)
	}
}

func (c *Checker) checkStatement(stmt ast.Stmt) {
	switch s := stmt.Data.(type) {
	case *ast.SVarDecl:
		c.checkVarDecl(s, stmt.Span)
	case *ast.SAssignment:
		c.checkAssignment(s, stmt.Span)
	case *ast.SExprStmt:
		c.checkExpr(s.Value, nil)
	case *ast.SReturn:
		c.checkReturn(s, stmt.Span)
	case *ast.SIf:
		c.checkIf(s)
	case *ast.SWhile:
		c.checkWhile(s)
	case *ast.SFor:
		c.checkFor(s, stmt.Span)
	case *ast.SMatch:
		c.checkMatch(s)
	case *ast.SDefer:
		c.Symbols.EnterScope()
		c.checkBlock(s.Body)
		c.Symbols.ExitScope()
	case *ast.SWith:
		c.checkWith(s, stmt.Span)
	case *ast.SUnsafe:
		c.Symbols.EnterScope()
		c.checkBlock(s.Body)
		c.Symbols.ExitScope()
	case *ast.SBreak, *ast.SContinue:
	default:
		c.Log.AddInternal(stmt.Span, "unhandled statement node")
	}
}

func (c *Checker) checkVarDecl(decl *ast.SVarDecl, span logger.Span) {
	var expected types.Type
	if decl.TypeAnnotation != nil {
		expected = c.resolveType(*decl.TypeAnnotation)
	}
	initType := c.checkExpr(decl.Initializer, expected)

	declared := initType
	if expected != nil {
		if !types.Compatible(initType, expected) {
			c.Log.AddError(decl.Initializer.Span, logger.CodeTypeMismatch,
				"type mismatch: expected "+getTypeName(expected)+", got "+getTypeName(initType))
		}
		declared = expected
	}

	if decl.Name != "" {
		c.bindVar(decl.Name, declared, decl.Mutable, span)
	}
	c.checkPattern(decl.Pattern, declared)
}

func (c *Checker) checkAssignment(assign *ast.SAssignment, span logger.Span) {
	targetType := c.checkExpr(assign.Target, nil)
	if ident, ok := assign.Target.Data.(*ast.EIdentifier); ok {
		if sym, ok := c.Symbols.LookupVariable(ident.Name); ok && !sym.Mutable {
			c.Log.AddError(span, logger.CodeMutableImmutableConflict,
				"cannot assign to immutable variable '"+ident.Name+"'")
		}
	}
	valType := c.checkExpr(assign.Value, targetType)
	if !types.Compatible(valType, targetType) {
		c.Log.AddError(assign.Value.Span, logger.CodeTypeMismatch,
			"cannot assign "+getTypeName(valType)+" to "+getTypeName(targetType))
	}
}

// checkReturn implements §4.4.3/§8 scenario 6: a bare `return Option.None`
// (or any payload-less generic-enum variant) infers its type arguments from
// the function's declared return type rather than reporting every argument
// as Unknown.
func (c *Checker) checkReturn(ret *ast.SReturn, span logger.Span) {
	if ret.Value == nil {
		if _, ok := c.currentFunctionReturn.(*types.VoidType); !ok && c.currentFunctionReturn != nil {
			c.Log.AddError(span, logger.CodeTypeMismatch,
				"missing return value, expected "+getTypeName(c.currentFunctionReturn))
		}
		return
	}

	valType := c.checkExpr(*ret.Value, c.currentFunctionReturn)
	if c.currentFunctionReturn != nil && !types.Compatible(valType, c.currentFunctionReturn) {
		c.Log.AddError(ret.Value.Span, logger.CodeTypeMismatch,
			"return type mismatch: expected "+getTypeName(c.currentFunctionReturn)+", got "+getTypeName(valType))
	}

	c.recordConstraint(*ret.Value)
}

func (c *Checker) checkIf(s *ast.SIf) {
	c.checkExpr(s.Cond, types.Bool)
	c.Symbols.EnterScope()
	c.checkBlock(s.Then)
	c.Symbols.ExitScope()

	for _, clause := range s.Elifs {
		c.checkExpr(clause.Cond, types.Bool)
		c.Symbols.EnterScope()
		c.checkBlock(clause.Block)
		c.Symbols.ExitScope()
	}

	if s.Else != nil {
		c.Symbols.EnterScope()
		c.checkBlock(s.Else)
		c.Symbols.ExitScope()
	}
}

func (c *Checker) checkWhile(s *ast.SWhile) {
	c.checkExpr(s.Cond, types.Bool)
	c.Symbols.EnterScope()
	if s.Invariant != nil {
		c.checkExpr(s.Invariant.Expr, types.Bool)
		c.checkContractSatisfiable(s.Invariant.Expr, "loop invariant")
	}
	c.checkBlock(s.Body)
	c.Symbols.ExitScope()
}

// elementType returns the iteration element type of a for-loop's iterable
// (slices, arrays, ranges, and List[T] generics), matching the reference
// implementation's check_for element inference.
func elementType(t types.Type) types.Type {
	switch v := t.(type) {
	case *types.SliceType:
		return v.Element
	case *types.ArrayType:
		return v.Element
	case *types.GenericType:
		if len(v.TypeArgs) == 1 {
			return v.TypeArgs[0]
		}
	}
	return types.Unknown
}

func (c *Checker) checkFor(s *ast.SFor, span logger.Span) {
	iterType := c.checkExpr(s.Iterable, nil)
	elem := elementType(iterType)

	c.Symbols.EnterScope()
	c.bindVar(s.Variable, elem, false, span)
	c.checkBlock(s.Body)
	c.Symbols.ExitScope()
}

func (c *Checker) checkMatch(s *ast.SMatch) {
	scrutineeType := c.checkExpr(s.Scrutinee, nil)
	for _, arm := range s.Arms {
		c.Symbols.EnterScope()
		c.checkPattern(arm.Pattern, scrutineeType)
		if arm.Guard != nil {
			c.checkExpr(*arm.Guard, types.Bool)
		}
		c.checkBlock(arm.Body)
		c.Symbols.ExitScope()
	}
	checkExhaustiveness(s, scrutineeType, c.Log)
}

// checkExhaustiveness implements §4.4.4's non-exhaustive-match diagnostic
// for the one shape the checker can decide cheaply: an enum scrutinee whose
// arms don't mention every variant and have no wildcard/identifier catch-all.
func checkExhaustiveness(s *ast.SMatch, scrutineeType types.Type, log logger.Log) {
	enumType, ok := scrutineeType.(*types.EnumType)
	if !ok {
		if g, ok := scrutineeType.(*types.GenericType); ok {
			enumType, ok = g.Base.(*types.EnumType)
			if !ok {
				return
			}
		} else {
			return
		}
	}

	covered := make(map[string]bool, len(enumType.VariantOrder))
	for _, arm := range s.Arms {
		if armCoversAll(arm.Pattern) {
			return
		}
		collectCoveredVariants(arm.Pattern, covered)
	}

	var missing []string
	for _, v := range enumType.VariantOrder {
		if !covered[v] {
			missing = append(missing, v)
		}
	}
	if len(missing) > 0 {
		log.AddError(s.Scrutinee.Span, logger.CodeNonExhaustivePatterns,
			"non-exhaustive match on "+enumType.Name+": missing variant(s) "+joinNames(missing))
	}
}

func armCoversAll(p ast.Pattern) bool {
	switch p.Data.(type) {
	case *ast.PWildcard, *ast.PIdentifier:
		return true
	}
	if or, ok := p.Data.(*ast.POr); ok {
		for _, alt := range or.Alternatives {
			if armCoversAll(alt) {
				return true
			}
		}
	}
	return false
}

func collectCoveredVariants(p ast.Pattern, covered map[string]bool) {
	switch d := p.Data.(type) {
	case *ast.PEnumVariant:
		covered[d.VariantName] = true
	case *ast.POr:
		for _, alt := range d.Alternatives {
			collectCoveredVariants(alt, covered)
		}
	}
}

func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += "'" + n + "'"
	}
	return out
}

// checkWith implements §4.4's `with` statement: the resource's type must
// implement a Closeable-like trait (named "Closeable" per the reference
// stdlib convention) before the bound name is usable in the body.
func (c *Checker) checkWith(s *ast.SWith, span logger.Span) {
	resourceType := c.checkExpr(s.Resource, nil)
	underlying := resourceType
	if r, ok := underlying.(*types.ReferenceType); ok {
		underlying = r.Inner
	}
	if name := typeName(underlying); name != "" {
		if !c.typeImplementsTrait(name, "Closeable") {
			c.Log.AddError(span, logger.CodeTraitBoundNotSatisfied,
				"type '"+name+"' used in 'with' statement must implement 'Closeable'")
		}
	}

	c.Symbols.EnterScope()
	c.bindVar(s.Binding, resourceType, false, span)
	c.checkBlock(s.Body)
	c.Symbols.ExitScope()
}
