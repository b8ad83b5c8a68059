package check

import (
	"strconv"

	"github.com/wulfhouse/pyrite/internal/ast"
	"github.com/wulfhouse/pyrite/internal/logger"
	"github.com/wulfhouse/pyrite/internal/types"
)

// checkExpr implements §4.4.2's bidirectional expr typing: expected is the
// type context the expression is checked against (e.g. the declared type of
// a var-decl, or a call argument's parameter type), or nil when there is
// none. It always returns the expression's inferred type, widened to match
// expected when that's legal (integer literals into a wider/narrower
// declared integer type, `Option.None` into its enclosing `Option[T]`).
func (c *Checker) checkExpr(e ast.Expr, expected types.Type) types.Type {
	switch d := e.Data.(type) {
	case *ast.EInt:
		return c.checkIntLiteral(d.Value, expected, e.Span)
	case *ast.EFloat:
		if expected != nil {
			if _, ok := expected.(*types.FloatType); ok {
				return expected
			}
		}
		return types.F64
	case *ast.EString:
		return types.String
	case *ast.EChar:
		return types.Char
	case *ast.EBool:
		return types.Bool
	case *ast.ENone:
		return types.None
	case *ast.EIdentifier:
		return c.checkIdentifier(d, e.Span)
	case *ast.EBinary:
		return c.checkBinop(d, e.Span)
	case *ast.EUnary:
		return c.checkUnaryop(d, e.Span)
	case *ast.ETernary:
		return c.checkTernary(d, e.Span, expected)
	case *ast.ECall:
		return c.checkFunctionCall(d, e.Span, expected)
	case *ast.EMethodCall:
		return c.checkMethodCall(d, e.Span)
	case *ast.EFieldAccess:
		return c.checkFieldAccess(d, e.Span, expected)
	case *ast.EIndex:
		return c.checkIndexAccess(d, e.Span)
	case *ast.EAsCast:
		return c.checkAsExpression(d)
	case *ast.EStructLiteral:
		return c.checkStructLiteral(d, e.Span)
	case *ast.EListLiteral:
		return c.checkListLiteral(d, e.Span, expected)
	case *ast.ETupleLiteral:
		elemExpected := func(int) types.Type { return nil }
		if tup, ok := expected.(*types.TupleType); ok && len(tup.Elements) == len(d.Elements) {
			elemExpected = func(i int) types.Type { return tup.Elements[i] }
		}
		elems := make([]types.Type, len(d.Elements))
		for i, el := range d.Elements {
			elems[i] = c.checkExpr(el, elemExpected(i))
		}
		return &types.TupleType{Elements: elems}
	case *ast.ETry:
		return c.checkTryExpr(d, e.Span)
	case *ast.EOld:
		return c.checkOldExpr(d, e.Span)
	case *ast.EQuantifier:
		return c.checkQuantifiedExpr(d, e.Span)
	case *ast.EParamClosure:
		return c.checkParamClosure(d, expected)
	case *ast.ERuntimeClosure:
		return c.checkRuntimeClosure(d, e.Span)
	default:
		c.Log.AddInternal(e.Span, "unhandled expression node")
		return types.Unknown
	}
}

// checkIntLiteral implements §4.4.2's literal-coercion rule: an integer
// literal widens/narrows to whatever integer type is expected, except u8,
// which only accepts literals in 0..=255 (matching the reference's
// int->u8 coercion check applied at argument/assignment sites).
func (c *Checker) checkIntLiteral(value int64, expected types.Type, span logger.Span) types.Type {
	if expected != nil {
		if it, ok := expected.(*types.IntType); ok {
			if it.Width == 8 && !it.Signed && (value < 0 || value > 255) {
				c.Log.AddError(span, logger.CodeTypeMismatch,
					"integer literal "+strconv.FormatInt(value, 10)+" is out of range for u8 (0..=255)")
				return types.Int
			}
			return it
		}
		if _, ok := expected.(*types.FloatType); ok {
			return expected
		}
	}
	return types.Int
}

func (c *Checker) checkIdentifier(id *ast.EIdentifier, span logger.Span) types.Type {
	if sym, ok := c.Symbols.LookupVariable(id.Name); ok {
		return sym.Type
	}
	if sym, ok := c.Symbols.LookupFunction(id.Name); ok {
		return sym.Type
	}
	c.Log.AddError(span, logger.CodeUnknownValue, "undefined variable '"+id.Name+"'")
	return types.Unknown
}

func (c *Checker) checkBinop(b *ast.EBinary, span logger.Span) types.Type {
	left := c.checkExpr(b.Left, nil)
	switch b.Op {
	case ast.OpAnd, ast.OpOr:
		c.checkExpr(b.Right, types.Bool)
		return types.Bool
	case ast.OpEq, ast.OpNe, ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		c.checkExpr(b.Right, left)
		return types.Bool
	case ast.OpRange:
		right := c.checkExpr(b.Right, left)
		elem := left
		if types.IsNumeric(right) && !types.IsNumeric(left) {
			elem = right
		}
		return &types.SliceType{Element: elem}
	default: // arithmetic
		right := c.checkExpr(b.Right, left)
		if !types.IsNumeric(left) || !types.IsNumeric(right) {
			if _, leftUnknown := left.(*types.UnknownType); !leftUnknown {
				if _, rightUnknown := right.(*types.UnknownType); !rightUnknown {
					c.Log.AddError(span, logger.CodeTypeMismatch,
						"arithmetic requires numeric operands, got "+getTypeName(left)+" and "+getTypeName(right))
				}
			}
			return types.Unknown
		}
		common := types.CommonNumeric(left, right)
		if common == nil {
			return types.Unknown
		}
		return common
	}
}

func (c *Checker) checkUnaryop(u *ast.EUnary, span logger.Span) types.Type {
	switch u.Op {
	case ast.OpNeg:
		return c.checkExpr(u.Operand, nil)
	case ast.OpNot:
		c.checkExpr(u.Operand, types.Bool)
		return types.Bool
	case ast.OpRef:
		inner := c.checkExpr(u.Operand, nil)
		return &types.ReferenceType{Inner: inner, Mutable: false}
	case ast.OpRefMut:
		inner := c.checkExpr(u.Operand, nil)
		if ident, ok := u.Operand.Data.(*ast.EIdentifier); ok {
			if sym, ok := c.Symbols.LookupVariable(ident.Name); ok && !sym.Mutable {
				c.Log.AddError(span, logger.CodeMutableImmutableConflict,
					"cannot borrow '"+ident.Name+"' as mutable, as it is not declared mutable")
			}
		}
		return &types.ReferenceType{Inner: inner, Mutable: true}
	case ast.OpDeref:
		inner := c.checkExpr(u.Operand, nil)
		switch t := inner.(type) {
		case *types.ReferenceType:
			return t.Inner
		case *types.PointerType:
			return t.Inner
		default:
			if _, ok := inner.(*types.UnknownType); !ok {
				c.Log.AddError(span, logger.CodeTypeMismatch, "cannot dereference non-reference type "+getTypeName(inner))
			}
			return types.Unknown
		}
	default:
		c.Log.AddInternal(span, "unhandled unary operator")
		return types.Unknown
	}
}

func (c *Checker) checkTernary(t *ast.ETernary, span logger.Span, expected types.Type) types.Type {
	c.checkExpr(t.Cond, types.Bool)
	trueType := c.checkExpr(t.True, expected)
	falseType := c.checkExpr(t.False, expected)
	if !types.Compatible(trueType, falseType) {
		c.Log.AddError(span, logger.CodeTypeMismatch,
			"ternary branches have incompatible types: "+getTypeName(trueType)+" and "+getTypeName(falseType))
	}
	return trueType
}

func (c *Checker) checkAsExpression(a *ast.EAsCast) types.Type {
	c.checkExpr(a.Value, nil)
	return c.resolveType(a.Target)
}

func (c *Checker) checkTryExpr(t *ast.ETry, span logger.Span) types.Type {
	inner := c.checkExpr(t.Value, nil)
	enum, ok := inner.(*types.EnumType)
	if !ok {
		if _, isUnknown := inner.(*types.UnknownType); !isUnknown {
			c.Log.AddError(span, logger.CodeTypeMismatch, "'try' requires a Result or Option value, got "+getTypeName(inner))
		}
		return types.Unknown
	}
	if okVariant, ok := enum.Variants["Ok"]; ok && len(okVariant.Fields) == 1 {
		return okVariant.Fields[0]
	}
	if someVariant, ok := enum.Variants["Some"]; ok && len(someVariant.Fields) == 1 {
		return someVariant.Fields[0]
	}
	return types.Unknown
}

// checkOldExpr implements `old(e)`, legal only inside an @ensures clause
// (§4.4.2): it evaluates e's type exactly like a normal expression (the
// evaluation-time semantics, re-running the precondition-time snapshot, is
// the runtime's concern, not the checker's) but is rejected outside of a
// postcondition.
func (c *Checker) checkOldExpr(o *ast.EOld, span logger.Span) types.Type {
	if !c.insideEnsures {
		c.Log.AddError(span, logger.CodeTypeMismatch, "'old' is only valid inside an @ensures clause")
	}
	return c.checkExpr(o.Value, nil)
}

func (c *Checker) checkQuantifiedExpr(q *ast.EQuantifier, span logger.Span) types.Type {
	collection := c.checkExpr(q.Collection, nil)
	var elem types.Type = types.Unknown
	switch ct := collection.(type) {
	case *types.SliceType:
		elem = ct.Element
	case *types.ArrayType:
		elem = ct.Element
	case *types.GenericType:
		if len(ct.TypeArgs) == 1 {
			elem = ct.TypeArgs[0]
		}
	default:
		if _, ok := collection.(*types.UnknownType); !ok {
			c.Log.AddError(span, logger.CodeTypeMismatch, "quantifier requires an iterable collection")
		}
	}

	c.Symbols.EnterScope()
	c.Symbols.DefineVariable(q.Binder, elem, false, span)
	c.checkExpr(q.Predicate, types.Bool)
	c.Symbols.ExitScope()
	return types.Bool
}

func (c *Checker) checkParamClosure(pc *ast.EParamClosure, expected types.Type) types.Type {
	c.Symbols.EnterScope()
	var paramTypes []types.Type
	for _, p := range pc.Params {
		var pt types.Type = types.Unknown
		c.Symbols.DefineVariable(p, pt, false, pc.Body.Span)
		paramTypes = append(paramTypes, pt)
	}
	bodyType := c.checkExpr(pc.Body, nil)
	c.Symbols.ExitScope()
	_ = expected
	return &types.FunctionType{Params: paramTypes, Return: bodyType}
}

// checkRuntimeClosure checks a closure whose body is a block (unlike
// EParamClosure's single expression) and records which outer-scope
// identifiers it reads, matching the reference implementation's
// _find_captured_variables — used by the ownership analyser later to catch
// captures of already-moved values.
func (c *Checker) checkRuntimeClosure(rc *ast.ERuntimeClosure, span logger.Span) types.Type {
	c.Symbols.EnterScope()
	paramTypes := make([]types.Type, len(rc.Params))
	for i, p := range rc.Params {
		pt := c.resolveType(p.TypeAnnotation)
		c.Symbols.DefineVariable(p.Name, pt, p.Mutable, p.Span)
		c.varTypes[p.Name] = pt
		paramTypes[i] = pt
	}
	c.checkBlock(rc.Body)
	c.Symbols.ExitScope()

	bound := make(map[string]bool, len(rc.Params))
	for _, p := range rc.Params {
		bound[p.Name] = true
	}
	var captures []string
	seen := make(map[string]bool)
	collectCapturedVars(rc.Body, bound, seen, &captures)
	rc.Captures = captures

	return &types.FunctionType{Params: paramTypes, Return: types.Void}
}

// collectCapturedVars walks body collecting every identifier reference that
// is not bound by a parameter or a local declaration inside the closure
// itself — a simplified port of the reference implementation's
// _collect_outer_scope_variables/_find_captured_variables/_collect_variable_uses
// trio, collapsed into one pass since this AST's closures are not nested
// inside further closures that would need their own bound-set layering.
func collectCapturedVars(b *ast.Block, bound map[string]bool, seen map[string]bool, out *[]string) {
	local := make(map[string]bool, len(bound))
	for k := range bound {
		local[k] = true
	}
	for _, stmt := range b.Statements {
		collectCapturedVarsStmt(stmt, local, seen, out)
	}
}

func collectCapturedVarsStmt(stmt ast.Stmt, bound map[string]bool, seen map[string]bool, out *[]string) {
	switch s := stmt.Data.(type) {
	case *ast.SVarDecl:
		collectCapturedVarsExpr(s.Initializer, bound, seen, out)
		if s.Name != "" {
			bound[s.Name] = true
		}
	case *ast.SAssignment:
		collectCapturedVarsExpr(s.Target, bound, seen, out)
		collectCapturedVarsExpr(s.Value, bound, seen, out)
	case *ast.SExprStmt:
		collectCapturedVarsExpr(s.Value, bound, seen, out)
	case *ast.SReturn:
		if s.Value != nil {
			collectCapturedVarsExpr(*s.Value, bound, seen, out)
		}
	case *ast.SIf:
		collectCapturedVarsExpr(s.Cond, bound, seen, out)
		collectCapturedVars(s.Then, bound, seen, out)
		for _, el := range s.Elifs {
			collectCapturedVarsExpr(el.Cond, bound, seen, out)
			collectCapturedVars(el.Block, bound, seen, out)
		}
		if s.Else != nil {
			collectCapturedVars(s.Else, bound, seen, out)
		}
	case *ast.SWhile:
		collectCapturedVarsExpr(s.Cond, bound, seen, out)
		collectCapturedVars(s.Body, bound, seen, out)
	case *ast.SFor:
		collectCapturedVarsExpr(s.Iterable, bound, seen, out)
		child := cloneBoundSet(bound)
		child[s.Variable] = true
		collectCapturedVars(s.Body, child, seen, out)
	case *ast.SMatch:
		collectCapturedVarsExpr(s.Scrutinee, bound, seen, out)
		for _, arm := range s.Arms {
			child := cloneBoundSet(bound)
			bindPatternNames(arm.Pattern, child)
			if arm.Guard != nil {
				collectCapturedVarsExpr(*arm.Guard, child, seen, out)
			}
			collectCapturedVars(arm.Body, child, seen, out)
		}
	case *ast.SDefer:
		collectCapturedVars(s.Body, bound, seen, out)
	case *ast.SWith:
		collectCapturedVarsExpr(s.Resource, bound, seen, out)
		child := cloneBoundSet(bound)
		child[s.Binding] = true
		collectCapturedVars(s.Body, child, seen, out)
	case *ast.SUnsafe:
		collectCapturedVars(s.Body, bound, seen, out)
	}
}

func cloneBoundSet(bound map[string]bool) map[string]bool {
	c := make(map[string]bool, len(bound))
	for k := range bound {
		c[k] = true
	}
	return c
}

func bindPatternNames(p ast.Pattern, bound map[string]bool) {
	switch d := p.Data.(type) {
	case *ast.PIdentifier:
		bound[d.Name] = true
	case *ast.PTuple:
		for _, e := range d.Elements {
			bindPatternNames(e, bound)
		}
	case *ast.PEnumVariant:
		for _, f := range d.Fields {
			bindPatternNames(f, bound)
		}
	case *ast.POr:
		for _, a := range d.Alternatives {
			bindPatternNames(a, bound)
		}
	}
}

func collectCapturedVarsExpr(e ast.Expr, bound map[string]bool, seen map[string]bool, out *[]string) {
	switch d := e.Data.(type) {
	case *ast.EIdentifier:
		if !bound[d.Name] && !seen[d.Name] {
			seen[d.Name] = true
			*out = append(*out, d.Name)
		}
	case *ast.EBinary:
		collectCapturedVarsExpr(d.Left, bound, seen, out)
		collectCapturedVarsExpr(d.Right, bound, seen, out)
	case *ast.EUnary:
		collectCapturedVarsExpr(d.Operand, bound, seen, out)
	case *ast.ETernary:
		collectCapturedVarsExpr(d.Cond, bound, seen, out)
		collectCapturedVarsExpr(d.True, bound, seen, out)
		collectCapturedVarsExpr(d.False, bound, seen, out)
	case *ast.ECall:
		collectCapturedVarsExpr(d.Callee, bound, seen, out)
		for _, a := range d.Args {
			collectCapturedVarsExpr(a, bound, seen, out)
		}
	case *ast.EMethodCall:
		collectCapturedVarsExpr(d.Receiver, bound, seen, out)
		for _, a := range d.Args {
			collectCapturedVarsExpr(a, bound, seen, out)
		}
	case *ast.EFieldAccess:
		collectCapturedVarsExpr(d.Object, bound, seen, out)
	case *ast.EIndex:
		collectCapturedVarsExpr(d.Object, bound, seen, out)
		collectCapturedVarsExpr(d.Index, bound, seen, out)
	case *ast.EAsCast:
		collectCapturedVarsExpr(d.Value, bound, seen, out)
	case *ast.EStructLiteral:
		for _, f := range d.Fields {
			collectCapturedVarsExpr(f.Value, bound, seen, out)
		}
	case *ast.EListLiteral:
		for _, el := range d.Elements {
			collectCapturedVarsExpr(el, bound, seen, out)
		}
	case *ast.ETupleLiteral:
		for _, el := range d.Elements {
			collectCapturedVarsExpr(el, bound, seen, out)
		}
	case *ast.ETry:
		collectCapturedVarsExpr(d.Value, bound, seen, out)
	case *ast.EOld:
		collectCapturedVarsExpr(d.Value, bound, seen, out)
	case *ast.EQuantifier:
		collectCapturedVarsExpr(d.Collection, bound, seen, out)
		child := cloneBoundSet(bound)
		child[d.Binder] = true
		collectCapturedVarsExpr(d.Predicate, child, seen, out)
	case *ast.EParamClosure:
		child := cloneBoundSet(bound)
		for _, p := range d.Params {
			child[p] = true
		}
		collectCapturedVarsExpr(d.Body, child, seen, out)
	case *ast.ERuntimeClosure:
		child := cloneBoundSet(bound)
		for _, p := range d.Params {
			child[p.Name] = true
		}
		collectCapturedVars(d.Body, child, seen, out)
	}
}
