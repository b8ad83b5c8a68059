package pyrite_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wulfhouse/pyrite/internal/ast"
	"github.com/wulfhouse/pyrite/internal/config"
	"github.com/wulfhouse/pyrite/internal/logger"
	"github.com/wulfhouse/pyrite/internal/resolver"
	"github.com/wulfhouse/pyrite/pkg/pyrite"
)

func namedType(name string, sp logger.Span) ast.TypeExpr {
	return ast.TypeExpr{Span: sp, Data: &ast.TENamed{Name: name}}
}

func ident(name string, sp logger.Span) ast.Expr {
	return ast.Expr{Span: sp, Data: &ast.EIdentifier{Name: name}}
}

func varDecl(name string, init ast.Expr, sp logger.Span) ast.Stmt {
	return ast.Stmt{Span: sp, Data: &ast.SVarDecl{
		Pattern:     ast.Pattern{Span: sp, Data: &ast.PIdentifier{Name: name}},
		Name:        name,
		Initializer: init,
	}}
}

func noopFuncs() (resolver.ReadFileFunc, resolver.ExistsFunc) {
	return func(string) (string, error) { return "", errors.New("not used") },
		func(string) bool { return false }
}

// program containing D, consume(d: D), and f() which moves d into consume
// then reads d.v — the facade should surface the use-of-moved-value error
// only after a clean type-check, proving ownership analysis actually ran.
func buildMovedValueProgram(sp logger.Span) *ast.Program {
	structD := &ast.StructDef{
		Name:   "D",
		Fields: []ast.FieldDef{{Name: "v", Type: namedType("int", sp)}},
	}
	consume := &ast.FunctionDef{
		Name:   "consume",
		Params: []*ast.Param{{Span: sp, Name: "d", TypeAnnotation: namedType("D", sp)}},
		Body:   &ast.Block{},
	}
	spDV := logger.Span{File: sp.File, StartLine: 3, StartCol: 9}
	f := &ast.FunctionDef{
		Name: "f",
		Body: &ast.Block{Statements: []ast.Stmt{
			varDecl("d", ast.Expr{Span: sp, Data: &ast.EStructLiteral{
				StructName: "D",
				Fields:     []ast.StructFieldInit{{Name: "v", Value: ast.Expr{Span: sp, Data: &ast.EInt{Value: 1}}}},
			}}, sp),
			{Span: sp, Data: &ast.SExprStmt{Value: ast.Expr{Span: sp, Data: &ast.ECall{
				Callee: ident("consume", sp),
				Args:   []ast.Expr{ident("d", sp)},
			}}}},
			varDecl("n", ast.Expr{Span: spDV, Data: &ast.EFieldAccess{
				Object: ast.Expr{Span: spDV, Data: &ast.EIdentifier{Name: "d"}},
				Field:  "v",
			}}, sp),
		}},
	}
	return &ast.Program{Items: []ast.Item{
		{Span: sp, Data: structD},
		{Span: sp, Data: consume},
		{Span: sp, Data: f},
	}}
}

func TestCompileRunsOwnershipAnalysisAfterCleanTypeCheck(t *testing.T) {
	sp := logger.Span{File: "main.pyrite", StartLine: 1, StartCol: 1}
	prog := buildMovedValueProgram(sp)

	parse := func(source, filename string) (*ast.Program, error) { return prog, nil }
	readFile, exists := noopFuncs()

	result, err := pyrite.Compile("main.pyrite", "unused", parse, readFile, exists, pyrite.Options{
		Resolver: config.Default(),
	})
	require.NoError(t, err)
	require.True(t, result.HasErrors())
	require.Len(t, result.Diagnostics, 1)
	require.Equal(t, logger.CodeUseOfMovedValue, result.Diagnostics[0].Code)
}

// a function with a plain unresolved-identifier type error must suppress
// ownership/borrow analysis entirely (§7's fatal-gate) — the facade should
// report only the one type error, not a cascade of spurious move diagnostics.
func TestCompileSuppressesAnalysisPassesAfterTypeError(t *testing.T) {
	sp := logger.Span{File: "main.pyrite", StartLine: 1, StartCol: 1}
	f := &ast.FunctionDef{
		Name: "f",
		Body: &ast.Block{Statements: []ast.Stmt{
			{Span: sp, Data: &ast.SExprStmt{Value: ident("totallyUndefined", sp)}},
		}},
	}
	prog := &ast.Program{Items: []ast.Item{{Span: sp, Data: f}}}

	parse := func(source, filename string) (*ast.Program, error) { return prog, nil }
	readFile, exists := noopFuncs()

	result, err := pyrite.Compile("main.pyrite", "unused", parse, readFile, exists, pyrite.Options{
		Resolver: config.Default(),
	})
	require.NoError(t, err)
	require.True(t, result.HasErrors())
	require.Len(t, result.Diagnostics, 1)
	require.Nil(t, result.OwnershipTimelines, "ownership analysis must not run once type-checking reported an error")
}

func TestCompileReturnsNoDiagnosticsForACleanProgram(t *testing.T) {
	sp := logger.Span{File: "main.pyrite", StartLine: 1, StartCol: 1}
	f := &ast.FunctionDef{
		Name: "f",
		Body: &ast.Block{Statements: []ast.Stmt{
			varDecl("x", ast.Expr{Span: sp, Data: &ast.EInt{Value: 5}}, sp),
		}},
	}
	prog := &ast.Program{Items: []ast.Item{{Span: sp, Data: f}}}

	parse := func(source, filename string) (*ast.Program, error) { return prog, nil }
	readFile, exists := noopFuncs()

	result, err := pyrite.Compile("main.pyrite", "unused", parse, readFile, exists, pyrite.Options{
		Resolver: config.Default(),
	})
	require.NoError(t, err)
	require.False(t, result.HasErrors())
	require.Empty(t, result.Diagnostics)
}
