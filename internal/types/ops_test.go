package types_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wulfhouse/pyrite/internal/types"
)

func TestIsCopy(t *testing.T) {
	require.True(t, types.IsCopy(types.Int))
	require.True(t, types.IsCopy(types.Bool))
	require.True(t, types.IsCopy(&types.ReferenceType{Inner: types.Int}))
	require.False(t, types.IsCopy(types.String))
	require.False(t, types.IsCopy(&types.StructType{Name: "Point"}))
}

func TestCompatibleNominalByNameOnly(t *testing.T) {
	a := &types.StructType{Name: "Point", Fields: map[string]types.Type{"x": types.Int}}
	b := &types.StructType{Name: "Point", Fields: map[string]types.Type{"x": types.Int, "y": types.Int}}
	require.True(t, types.Compatible(a, b), "two structs with the same name are compatible regardless of field shape")

	c := &types.StructType{Name: "Vector"}
	require.False(t, types.Compatible(a, c))
}

func TestCompatibleUnknownAndTypeVariableMatchAnything(t *testing.T) {
	require.True(t, types.Compatible(types.Unknown, &types.StructType{Name: "Anything"}))
	require.True(t, types.Compatible(&types.StructType{Name: "Anything"}, types.Unknown))
	require.True(t, types.Compatible(&types.TypeVariable{Name: "T"}, types.Bool))
}

func TestCompatibleGenericEnumWithBaseEnum(t *testing.T) {
	option := &types.EnumType{Name: "Option", GenericParams: []string{"T"}}
	instantiated := &types.GenericType{Name: "Option", Base: option, TypeArgs: []types.Type{types.Int}}
	require.True(t, types.Compatible(option, instantiated))
	require.True(t, types.Compatible(instantiated, option))
}

func TestCompatibleListAndArrayElementwise(t *testing.T) {
	list := &types.GenericType{Name: "List", TypeArgs: []types.Type{types.Int}}
	arr := &types.ArrayType{Element: types.Int, Size: 4}
	require.True(t, types.Compatible(list, arr))
	require.True(t, types.Compatible(arr, list))

	wrongElem := &types.ArrayType{Element: types.Bool, Size: 4}
	require.False(t, types.Compatible(list, wrongElem))
}

func TestCommonNumericFloatDominatesAndWidestWins(t *testing.T) {
	require.Equal(t, types.F64, types.CommonNumeric(types.Int, types.F64))
	require.Equal(t, types.I64, types.CommonNumeric(types.I64, types.I32))
	require.Equal(t, types.Int, types.CommonNumeric(types.I32, types.I32))
}

func TestSubstituteIdentityLaw(t *testing.T) {
	// Substitute(T, {x -> x}) = T for any structural T not containing the
	// substituted variable.
	tup := &types.TupleType{Elements: []types.Type{types.Int, types.Bool}}
	result := types.Substitute(tup, map[string]types.Type{"x": &types.TypeVariable{Name: "x"}})
	require.True(t, types.Compatible(tup, result))
}

func TestSubstituteRewritesTypeVariableButNotNominalBody(t *testing.T) {
	tv := &types.TypeVariable{Name: "T"}
	ref := &types.ReferenceType{Inner: tv}
	sigma := map[string]types.Type{"T": types.Int}

	result := types.Substitute(ref, sigma)
	rt, ok := result.(*types.ReferenceType)
	require.True(t, ok)
	require.Equal(t, types.Int, rt.Inner)

	// Substitute never rewrites the body of a nominal EnumType/StructType —
	// variant payloads are substituted lazily at use sites instead.
	enum := &types.EnumType{
		Name:          "Option",
		GenericParams: []string{"T"},
		VariantOrder:  []string{"Some"},
		Variants:      map[string]*types.EnumVariant{"Some": {Name: "Some", Fields: []types.Type{tv}}},
	}
	same := types.Substitute(enum, sigma)
	require.Same(t, enum, same)
}
