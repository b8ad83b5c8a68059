package borrow_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wulfhouse/pyrite/internal/ast"
	"github.com/wulfhouse/pyrite/internal/borrow"
	"github.com/wulfhouse/pyrite/internal/logger"
	"github.com/wulfhouse/pyrite/internal/test"
	"github.com/wulfhouse/pyrite/internal/types"
)

func ident(name string, sp logger.Span) ast.Expr {
	return ast.Expr{Span: sp, Data: &ast.EIdentifier{Name: name}}
}

func refExpr(op ast.UnaryOp, operand ast.Expr, sp logger.Span) ast.Expr {
	return ast.Expr{Span: sp, Data: &ast.EUnary{Op: op, Operand: operand}}
}

// scenario 3: var x = 5; let a = &x; let b = &mut x; — one error at the
// second statement (&mut x), code P0502, related span pointing at &x.
func TestSharedThenMutableBorrowConflicts(t *testing.T) {
	spX := test.Spanned("t.pyrite", 1, 1)
	spA := test.Spanned("t.pyrite", 2, 9)
	spB := test.Spanned("t.pyrite", 3, 9)

	fn := &ast.FunctionDef{
		Name: "f",
		Body: &ast.Block{Statements: []ast.Stmt{
			{Span: spX, Data: &ast.SVarDecl{
				Pattern:     ast.Pattern{Span: spX, Data: &ast.PIdentifier{Name: "x"}},
				Name:        "x",
				Initializer: ast.Expr{Span: spX, Data: &ast.EInt{Value: 5}},
				Mutable:     true,
			}},
			{Span: spA, Data: &ast.SVarDecl{
				Pattern:     ast.Pattern{Span: spA, Data: &ast.PIdentifier{Name: "a"}},
				Name:        "a",
				Initializer: refExpr(ast.OpRef, ident("x", spA), spA),
			}},
			{Span: spB, Data: &ast.SVarDecl{
				Pattern:     ast.Pattern{Span: spB, Data: &ast.PIdentifier{Name: "b"}},
				Name:        "b",
				Initializer: refExpr(ast.OpRefMut, ident("x", spB), spB),
			}},
		}},
	}

	varTypes := map[string]types.Type{"x": types.Int}
	log := logger.NewDeferLog()
	c := borrow.NewChecker(log, varTypes)
	c.CheckFunction(fn)

	msgs := log.Done()
	require.Len(t, msgs, 1)
	require.Equal(t, logger.CodeMutableImmutableConflict, msgs[0].Code)
	require.Equal(t, spB, msgs[0].Span)
	require.Len(t, msgs[0].Related, 1)
	require.Equal(t, spA, msgs[0].Related[0].Span)
}

// scenario 4: var x = 5; let a = &mut x; let b = &mut x; — one error at the
// second &mut x, code P0499.
func TestDoubleMutableBorrowConflicts(t *testing.T) {
	spX := test.Spanned("t.pyrite", 1, 1)
	spA := test.Spanned("t.pyrite", 2, 9)
	spB := test.Spanned("t.pyrite", 3, 9)

	fn := &ast.FunctionDef{
		Name: "f",
		Body: &ast.Block{Statements: []ast.Stmt{
			{Span: spX, Data: &ast.SVarDecl{
				Pattern:     ast.Pattern{Span: spX, Data: &ast.PIdentifier{Name: "x"}},
				Name:        "x",
				Initializer: ast.Expr{Span: spX, Data: &ast.EInt{Value: 5}},
				Mutable:     true,
			}},
			{Span: spA, Data: &ast.SVarDecl{
				Pattern:     ast.Pattern{Span: spA, Data: &ast.PIdentifier{Name: "a"}},
				Name:        "a",
				Initializer: refExpr(ast.OpRefMut, ident("x", spA), spA),
			}},
			{Span: spB, Data: &ast.SVarDecl{
				Pattern:     ast.Pattern{Span: spB, Data: &ast.PIdentifier{Name: "b"}},
				Name:        "b",
				Initializer: refExpr(ast.OpRefMut, ident("x", spB), spB),
			}},
		}},
	}

	varTypes := map[string]types.Type{"x": types.Int}
	log := logger.NewDeferLog()
	c := borrow.NewChecker(log, varTypes)
	c.CheckFunction(fn)

	msgs := log.Done()
	require.Len(t, msgs, 1)
	require.Equal(t, logger.CodeDuplicateMutableBorrow, msgs[0].Code)
	require.Equal(t, spB, msgs[0].Span)
	require.Len(t, msgs[0].Related, 1)
	require.Equal(t, spA, msgs[0].Related[0].Span)
}

// a borrow made inside an if-branch never escapes to conflict with a borrow
// made after the branch closes (§4.6: branch borrow states are discarded at
// the join).
func TestBorrowInsideIfBranchDoesNotEscapeToJoin(t *testing.T) {
	spX := test.Spanned("t.pyrite", 1, 1)
	spThen := test.Spanned("t.pyrite", 2, 9)
	spAfter := test.Spanned("t.pyrite", 3, 9)

	fn := &ast.FunctionDef{
		Name: "f",
		Body: &ast.Block{Statements: []ast.Stmt{
			{Span: spX, Data: &ast.SVarDecl{
				Pattern:     ast.Pattern{Span: spX, Data: &ast.PIdentifier{Name: "x"}},
				Name:        "x",
				Initializer: ast.Expr{Span: spX, Data: &ast.EInt{Value: 5}},
				Mutable:     true,
			}},
			{Span: spThen, Data: &ast.SIf{
				Cond: ast.Expr{Span: spThen, Data: &ast.EBool{Value: true}},
				Then: &ast.Block{Statements: []ast.Stmt{
					{Span: spThen, Data: &ast.SVarDecl{
						Pattern:     ast.Pattern{Span: spThen, Data: &ast.PIdentifier{Name: "a"}},
						Name:        "a",
						Initializer: refExpr(ast.OpRefMut, ident("x", spThen), spThen),
					}},
				}},
			}},
			{Span: spAfter, Data: &ast.SVarDecl{
				Pattern:     ast.Pattern{Span: spAfter, Data: &ast.PIdentifier{Name: "b"}},
				Name:        "b",
				Initializer: refExpr(ast.OpRefMut, ident("x", spAfter), spAfter),
			}},
		}},
	}

	varTypes := map[string]types.Type{"x": types.Int}
	log := logger.NewDeferLog()
	c := borrow.NewChecker(log, varTypes)
	c.CheckFunction(fn)

	require.Empty(t, log.Done())
}
