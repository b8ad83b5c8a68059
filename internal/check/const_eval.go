package check

import "github.com/wulfhouse/pyrite/internal/ast"

// Bound is one variable's accumulated range fact: which of a lower/upper
// bound is known, and its value. Multiple @requires clauses about the same
// variable narrow the same Bound rather than overwrite it.
type Bound struct {
	HasLower bool
	Lower    int64
	HasUpper bool
	Upper    int64
	// Exact is set when a @requires clause pins the variable to one value
	// (`x == 5`); when set it subsumes Lower/Upper.
	HasExact bool
	Exact    int64
}

// RangeFacts is SPEC_FULL §3's per-function accumulator: a map from
// variable name to the bound(s) established by that function's @requires
// clauses, consulted when compile-time-evaluating an @ensures clause of a
// matching shape — the reference implementation's _track_constraint /
// _prove_from_constraints, generalized from a flat list of constraints into
// one bound per variable since every constraint this language's grammar can
// express is a single comparison against a literal.
type RangeFacts map[string]Bound

// recordConstraint implements _track_constraint: after a @requires clause
// has been type-checked, inspect its shape and, if it is a simple
// `identifier OP literal` (or `literal OP identifier`) comparison, narrow
// that identifier's Bound.
func (c *Checker) recordConstraint(e ast.Expr) {
	b, ok := e.Data.(*ast.EBinary)
	if !ok {
		return
	}

	if name, lit, ok := identAndLiteral(b.Left, b.Right); ok {
		c.applyBound(name, b.Op, lit)
		return
	}
	if name, lit, ok := identAndLiteral(b.Right, b.Left); ok {
		c.applyBound(name, flipOp(b.Op), lit)
	}
}

func identAndLiteral(a, b ast.Expr) (name string, lit int64, ok bool) {
	id, idOk := a.Data.(*ast.EIdentifier)
	li, liOk := b.Data.(*ast.EInt)
	if !idOk || !liOk {
		return "", 0, false
	}
	return id.Name, li.Value, true
}

// flipOp rewrites `literal OP identifier` into the equivalent
// `identifier OP' literal` comparison.
func flipOp(op ast.BinaryOp) ast.BinaryOp {
	switch op {
	case ast.OpLt:
		return ast.OpGt
	case ast.OpLe:
		return ast.OpGe
	case ast.OpGt:
		return ast.OpLt
	case ast.OpGe:
		return ast.OpLe
	default:
		return op
	}
}

func (c *Checker) applyBound(name string, op ast.BinaryOp, lit int64) {
	b := c.rangeFacts[name]
	switch op {
	case ast.OpGt:
		if !b.HasLower || lit+1 > b.Lower {
			b.HasLower, b.Lower = true, lit+1
		}
	case ast.OpGe:
		if !b.HasLower || lit > b.Lower {
			b.HasLower, b.Lower = true, lit
		}
	case ast.OpLt:
		if !b.HasUpper || lit-1 < b.Upper {
			b.HasUpper, b.Upper = true, lit-1
		}
	case ast.OpLe:
		if !b.HasUpper || lit < b.Upper {
			b.HasUpper, b.Upper = true, lit
		}
	case ast.OpEq:
		b.HasExact, b.Exact = true, lit
	default:
		return
	}
	c.rangeFacts[name] = b
}

// proveFromConstraints implements _prove_from_constraints: decide whether a
// simple `identifier OP literal` comparison is guaranteed true given the
// accumulated RangeFacts for that identifier. ok is false when the shape
// isn't one this analysis covers; with ok true, proven false means only that
// the facts do not establish the comparison. evaluateConstantBool uses a
// proven result and treats every other result as not a constant.
func (c *Checker) proveFromConstraints(e ast.Expr) (proven bool, ok bool) {
	b, isBinary := e.Data.(*ast.EBinary)
	if !isBinary {
		return false, false
	}
	name, lit, direct := identAndLiteral(b.Left, b.Right)
	op := b.Op
	if !direct {
		var flipped bool
		name, lit, flipped = identAndLiteral(b.Right, b.Left)
		if !flipped {
			return false, false
		}
		op = flipOp(op)
	}

	bound, has := c.rangeFacts[name]
	if !has {
		return false, false
	}

	if bound.HasExact {
		return evalIntCompare(bound.Exact, op, lit), true
	}

	switch op {
	case ast.OpGt:
		return bound.HasLower && bound.Lower > lit, true
	case ast.OpGe:
		return bound.HasLower && bound.Lower >= lit, true
	case ast.OpLt:
		return bound.HasUpper && bound.Upper < lit, true
	case ast.OpLe:
		return bound.HasUpper && bound.Upper <= lit, true
	default:
		return false, false
	}
}

func evalIntCompare(a int64, op ast.BinaryOp, b int64) bool {
	switch op {
	case ast.OpEq:
		return a == b
	case ast.OpNe:
		return a != b
	case ast.OpLt:
		return a < b
	case ast.OpLe:
		return a <= b
	case ast.OpGt:
		return a > b
	case ast.OpGe:
		return a >= b
	default:
		return false
	}
}

// evaluateConstantInt implements §4.4.5's compile-time integer evaluation,
// used for array-length expressions (`[int; N]`): literal values and
// arithmetic/unary-negation over them fold; anything else is not a constant
// expression and reports ok=false.
func (c *Checker) evaluateConstantInt(e ast.Expr) (int64, bool) {
	switch d := e.Data.(type) {
	case *ast.EInt:
		return d.Value, true
	case *ast.EUnary:
		if d.Op == ast.OpNeg {
			v, ok := c.evaluateConstantInt(d.Operand)
			return -v, ok
		}
		return 0, false
	case *ast.EBinary:
		l, lok := c.evaluateConstantInt(d.Left)
		r, rok := c.evaluateConstantInt(d.Right)
		if !lok || !rok {
			return 0, false
		}
		switch d.Op {
		case ast.OpAdd:
			return l + r, true
		case ast.OpSub:
			return l - r, true
		case ast.OpMul:
			return l * r, true
		case ast.OpDiv:
			if r == 0 {
				return 0, false
			}
			return l / r, true
		case ast.OpMod:
			if r == 0 {
				return 0, false
			}
			return l % r, true
		default:
			return 0, false
		}
	default:
		return 0, false
	}
}

// evaluateConstantBool implements §4.4.5's compile-time boolean evaluation,
// used to detect always-false (hard error, §8 scenario 5)
// @requires/@ensures/@invariant contracts: literal booleans, and/or/not over
// them, and integer comparisons between two constant integers. A simple
// comparison that RangeFacts proves folds to true; one they do not prove is
// not a constant. An always-true result reports nothing and records no
// proven flag.
func (c *Checker) evaluateConstantBool(e ast.Expr) (bool, bool) {
	switch d := e.Data.(type) {
	case *ast.EBool:
		return d.Value, true
	case *ast.EUnary:
		if d.Op == ast.OpNot {
			v, ok := c.evaluateConstantBool(d.Operand)
			return !v, ok
		}
		return false, false
	case *ast.EBinary:
		switch d.Op {
		case ast.OpAnd:
			l, lok := c.evaluateConstantBool(d.Left)
			r, rok := c.evaluateConstantBool(d.Right)
			if lok && rok {
				return l && r, true
			}
			if lok && !l {
				return false, true
			}
			if rok && !r {
				return false, true
			}
			return false, false
		case ast.OpOr:
			l, lok := c.evaluateConstantBool(d.Left)
			r, rok := c.evaluateConstantBool(d.Right)
			if lok && rok {
				return l || r, true
			}
			if lok && l {
				return true, true
			}
			if rok && r {
				return true, true
			}
			return false, false
		case ast.OpEq, ast.OpNe, ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
			if l, lok := c.evaluateConstantInt(d.Left); lok {
				if r, rok := c.evaluateConstantInt(d.Right); rok {
					return evalIntCompare(l, d.Op, r), true
				}
			}
			if proven, ok := c.proveFromConstraints(e); ok && proven {
				return true, true
			}
			return false, false
		default:
			return false, false
		}
	default:
		return false, false
	}
}
