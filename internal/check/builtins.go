package check

import (
	"github.com/wulfhouse/pyrite/internal/logger"
	"github.com/wulfhouse/pyrite/internal/types"
)

// registerBuiltins implements §6's built-in surface: the three free
// functions every program can call without an import, the `String` type
// (a real types.StringType, since the checker already models it precisely),
// and the two structurally-opaque placeholders `Result`/`Box` the reference
// implementation also registers as Unknown rather than giving them real
// shape — full Result/Box field layouts are deferred to the standard
// library, not the core's concern. Finally, registerOptionEnum gives
// `Option[T]` its real Some/None shape so pattern matching and the
// generic-inference scenario of §8 (Option.None in a typed return position)
// both work without needing the standard library to be loaded.
func (c *Checker) registerBuiltins() {
	builtinSpan := logger.Span{File: "<builtin>"}

	c.Symbols.DefineFunction("print", &types.FunctionType{Params: nil, Return: types.Void}, builtinSpan, true)
	c.Symbols.DefineFunction("assert", &types.FunctionType{Params: []types.Type{types.Bool}, Return: types.Void}, builtinSpan, true)
	c.Symbols.DefineFunction("fail", &types.FunctionType{Params: []types.Type{types.String}, Return: types.Void}, builtinSpan, true)

	c.Symbols.DefineType("String", types.String, builtinSpan)
	c.Symbols.DefineType("Result", types.Unknown, builtinSpan)
	c.Symbols.DefineType("Box", types.Unknown, builtinSpan)

	c.registerOptionEnum(builtinSpan)
}

// registerOptionEnum constructs the fallback `Option[T]` shape the
// reference implementation's _register_option_enum falls back to when it
// cannot load `pyrite/core/option.pyrite` from the standard library: a
// generic enum with a one-field `Some(T)` variant and a payload-less
// `None` variant. Loading the real stdlib declaration instead (were one
// available to parse) is the driver's responsibility, not this package's —
// see DESIGN.md's pkg/pyrite section on wiring the module resolver in front
// of the checker.
func (c *Checker) registerOptionEnum(span logger.Span) {
	tv := &types.TypeVariable{Name: "T"}
	optionType := &types.EnumType{
		Name:          "Option",
		GenericParams: []string{"T"},
		VariantOrder:  []string{"Some", "None"},
		Variants: map[string]*types.EnumVariant{
			"Some": {Name: "Some", Fields: []types.Type{tv}},
			"None": {Name: "None", Fields: nil},
		},
	}
	c.Symbols.DefineType("Option", optionType, span)
}
