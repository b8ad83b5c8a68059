package check_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wulfhouse/pyrite/internal/ast"
	"github.com/wulfhouse/pyrite/internal/check"
	"github.com/wulfhouse/pyrite/internal/logger"
	"github.com/wulfhouse/pyrite/internal/test"
	"github.com/wulfhouse/pyrite/internal/types"
)

func expr(d ast.ExprData, sp logger.Span) ast.Expr { return ast.Expr{Span: sp, Data: d} }

func newProgram(items ...ast.Item) *ast.Program { return &ast.Program{Items: items} }

// varDecl builds an SVarDecl with Pattern and Name kept in sync, the way the
// real parser always does for a plain `let name = value` binding (Name is
// documented as a convenience mirror of a PIdentifier Pattern).
func varDecl(name string, init ast.Expr, mutable bool, sp logger.Span) *ast.SVarDecl {
	return &ast.SVarDecl{
		Pattern:     ast.Pattern{Span: sp, Data: &ast.PIdentifier{Name: name}},
		Name:        name,
		Initializer: init,
		Mutable:     mutable,
	}
}

// scenario 5: `@requires(1 == 2) fn f(): pass` — one error, no others.
func TestUnsatisfiablePreconditionIsHardError(t *testing.T) {
	sp := test.Spanned("t.pyrite", 1, 1)
	fn := &ast.FunctionDef{
		Name: "f",
		Requires: []ast.Contract{
			{Kind: "requires", Expr: expr(&ast.EBinary{
				Op:    ast.OpEq,
				Left:  expr(&ast.EInt{Value: 1}, sp),
				Right: expr(&ast.EInt{Value: 2}, sp),
			}, sp)},
		},
		Body: &ast.Block{},
	}
	prog := newProgram(ast.Item{Span: sp, Data: fn})

	log := logger.NewDeferLog()
	c := check.New(log)
	c.CheckProgram(prog)

	msgs := log.Done()
	require.Len(t, msgs, 1)
	require.Equal(t, logger.CodeUnsatisfiableContract, msgs[0].Code)
}

// scenario 6: `fn f() -> Option[int]: return Option.None` — no errors, and
// the return's inferred type is Option[int] via generic inference.
func TestOptionNoneInfersReturnTypeArguments(t *testing.T) {
	sp := test.Spanned("t.pyrite", 1, 1)
	returnType := ast.TypeExpr{Span: sp, Data: &ast.TENamed{
		Name:     "Option",
		TypeArgs: []ast.TypeExpr{{Span: sp, Data: &ast.TENamed{Name: "int"}}},
	}}

	fn := &ast.FunctionDef{
		Name:       "f",
		ReturnType: returnType,
		Body: &ast.Block{Statements: []ast.Stmt{
			{Span: sp, Data: &ast.SReturn{Value: ptrExpr(expr(&ast.EFieldAccess{
				Object: expr(&ast.EIdentifier{Name: "Option"}, sp),
				Field:  "None",
			}, sp))}},
		}},
	}
	prog := newProgram(ast.Item{Span: sp, Data: fn})

	log := logger.NewDeferLog()
	c := check.New(log)
	c.CheckProgram(prog)

	require.Empty(t, log.Done())
}

func ptrExpr(e ast.Expr) *ast.Expr { return &e }

func TestDuplicateTopLevelDefinitionReported(t *testing.T) {
	sp := test.Spanned("t.pyrite", 1, 1)
	first := &ast.StructDef{Name: "Point", Fields: []ast.FieldDef{{Name: "x", Type: ast.TypeExpr{Span: sp, Data: &ast.TENamed{Name: "int"}}}}}
	second := &ast.StructDef{Name: "Point", Fields: []ast.FieldDef{{Name: "y", Type: ast.TypeExpr{Span: sp, Data: &ast.TENamed{Name: "int"}}}}}
	prog := newProgram(ast.Item{Span: sp, Data: first}, ast.Item{Span: sp, Data: second})

	log := logger.NewDeferLog()
	c := check.New(log)
	c.CheckProgram(prog)

	msgs := log.Done()
	require.Len(t, msgs, 1)
	require.Equal(t, logger.CodeDuplicateDefinition, msgs[0].Code)
}

func TestNonExhaustiveMatchReported(t *testing.T) {
	sp := test.Spanned("t.pyrite", 1, 1)
	enumDef := &ast.EnumDef{
		Name: "Direction",
		Variants: []ast.VariantDef{
			{Name: "North"}, {Name: "South"},
		},
	}

	fn := &ast.FunctionDef{
		Name: "f",
		Params: []*ast.Param{
			{Span: sp, Name: "d", TypeAnnotation: ast.TypeExpr{Span: sp, Data: &ast.TENamed{Name: "Direction"}}},
		},
		Body: &ast.Block{Statements: []ast.Stmt{
			{Span: sp, Data: &ast.SMatch{
				Scrutinee: expr(&ast.EIdentifier{Name: "d"}, sp),
				Arms: []ast.MatchArm{
					{Pattern: ast.Pattern{Span: sp, Data: &ast.PEnumVariant{EnumName: "Direction", VariantName: "North"}}, Body: &ast.Block{}},
				},
			}},
		}},
	}

	prog := newProgram(ast.Item{Span: sp, Data: enumDef}, ast.Item{Span: sp, Data: fn})

	log := logger.NewDeferLog()
	c := check.New(log)
	c.CheckProgram(prog)

	msgs := log.Done()
	require.Len(t, msgs, 1)
	require.Equal(t, logger.CodeNonExhaustivePatterns, msgs[0].Code)
}

func TestCopyIntAssignmentsTypeCheckCleanly(t *testing.T) {
	sp := test.Spanned("t.pyrite", 1, 1)
	fn := &ast.FunctionDef{
		Name: "f",
		Body: &ast.Block{Statements: []ast.Stmt{
			{Span: sp, Data: varDecl("x", expr(&ast.EInt{Value: 5}, sp), false, sp)},
			{Span: sp, Data: varDecl("y", expr(&ast.EIdentifier{Name: "x"}, sp), false, sp)},
			{Span: sp, Data: varDecl("z", expr(&ast.EIdentifier{Name: "x"}, sp), false, sp)},
		}},
	}
	prog := newProgram(ast.Item{Span: sp, Data: fn})

	log := logger.NewDeferLog()
	c := check.New(log)
	c.CheckProgram(prog)

	require.Empty(t, log.Done())
	require.Equal(t, types.Int, c.FunctionVarTypes[fn]["x"])
}
