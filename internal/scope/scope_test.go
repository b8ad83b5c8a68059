package scope_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wulfhouse/pyrite/internal/logger"
	"github.com/wulfhouse/pyrite/internal/scope"
	"github.com/wulfhouse/pyrite/internal/types"
)

func span(line int) logger.Span { return logger.Span{File: "t.pyrite", StartLine: line} }

func TestEnterExitScopeIsNoOpOnObservableState(t *testing.T) {
	table := scope.NewTable()
	table.DefineVariable("x", types.Int, false, span(1))

	before := table.Current
	table.EnterScope()
	table.ExitScope()
	require.Same(t, before, table.Current)

	sym, ok := table.LookupVariable("x")
	require.True(t, ok)
	require.Equal(t, types.Int, sym.Type)
}

func TestExitScopeFromGlobalIsNoOp(t *testing.T) {
	table := scope.NewTable()
	global := table.Current
	table.ExitScope()
	require.Same(t, global, table.Current)
}

func TestDefineVariableRejectsRedefinitionInSameScope(t *testing.T) {
	table := scope.NewTable()
	ok, existing := table.DefineVariable("x", types.Int, false, span(1))
	require.True(t, ok)
	require.Nil(t, existing)

	ok, existing = table.DefineVariable("x", types.Bool, false, span(2))
	require.False(t, ok)
	require.NotNil(t, existing)
	require.Equal(t, types.Int, existing.Type)
}

func TestDefineVariableShadowsInChildScope(t *testing.T) {
	table := scope.NewTable()
	table.DefineVariable("x", types.Int, false, span(1))

	table.EnterScope()
	ok, _ := table.DefineVariable("x", types.Bool, false, span(2))
	require.True(t, ok, "a child scope may shadow an outer binding of the same name")

	sym, _ := table.LookupVariable("x")
	require.Equal(t, types.Bool, sym.Type)
	table.ExitScope()

	sym, _ = table.LookupVariable("x")
	require.Equal(t, types.Int, sym.Type)
}

func TestDefineFunctionIdempotentExternRedeclaration(t *testing.T) {
	table := scope.NewTable()
	fnType := &types.FunctionType{Params: []types.Type{types.Int}, Return: types.Bool}

	ok, _ := table.DefineFunction("puts", fnType, span(1), true)
	require.True(t, ok)

	ok, existing := table.DefineFunction("puts", fnType, span(2), true)
	require.True(t, ok, "identical-signature extern re-declaration is idempotent")
	require.Nil(t, existing)
}

func TestDefineFunctionRejectsConflictingSignature(t *testing.T) {
	table := scope.NewTable()
	a := &types.FunctionType{Params: []types.Type{types.Int}, Return: types.Bool}
	b := &types.FunctionType{Params: []types.Type{types.String}, Return: types.Bool}

	table.DefineFunction("puts", a, span(1), true)
	ok, existing := table.DefineFunction("puts", b, span(2), true)
	require.False(t, ok)
	require.NotNil(t, existing)
}

func TestDefineTypeOverwritesUnknownPlaceholder(t *testing.T) {
	table := scope.NewTable()
	ok := table.DefineType("Widget", types.Unknown, span(1))
	require.True(t, ok)

	real := &types.StructType{Name: "Widget"}
	ok = table.DefineType("Widget", real, span(2))
	require.True(t, ok, "overwriting the unknown forward-reference placeholder is idempotent")

	got, _ := table.LookupType("Widget")
	require.Same(t, real, got)
}

func TestDefineTypeIdempotentForSameNamedTypeVariable(t *testing.T) {
	table := scope.NewTable()
	ok := table.DefineType("T", &types.TypeVariable{Name: "T"}, span(1))
	require.True(t, ok)

	ok = table.DefineType("T", &types.TypeVariable{Name: "T"}, span(2))
	require.True(t, ok, "re-registering a same-named generic parameter is idempotent")
}

func TestLookupFunctionAndTypeAlwaysStartAtGlobalScope(t *testing.T) {
	table := scope.NewTable()
	table.DefineFunction("f", &types.FunctionType{}, span(1), false)
	table.DefineType("Widget", &types.StructType{Name: "Widget"}, span(1))

	table.EnterScope()
	_, ok := table.LookupFunction("f")
	require.True(t, ok)
	_, ok = table.LookupType("Widget")
	require.True(t, ok)
}
