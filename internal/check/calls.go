package check

import (
	"github.com/wulfhouse/pyrite/internal/ast"
	"github.com/wulfhouse/pyrite/internal/logger"
	"github.com/wulfhouse/pyrite/internal/types"
)

// checkFunctionCall implements §4.4.3's plain-call resolution: the callee is
// either a simple identifier (a registered free function or a builtin), or
// a field access `Type.variant`/`Type.method` naming a static constructor or
// associated function — an instance method call always parses as
// EMethodCall instead, never as ECall.
func (c *Checker) checkFunctionCall(call *ast.ECall, span logger.Span, expected types.Type) types.Type {
	if fa, ok := call.Callee.Data.(*ast.EFieldAccess); ok {
		if objIdent, ok := fa.Object.Data.(*ast.EIdentifier); ok && c.IsTypeName(objIdent.Name) {
			return c.checkStaticCall(objIdent.Name, fa.Field, call.Args, span, expected)
		}
	}

	ident, ok := call.Callee.Data.(*ast.EIdentifier)
	if !ok {
		c.checkExpr(call.Callee, nil)
		for _, a := range call.Args {
			c.checkExpr(a, nil)
		}
		return types.Unknown
	}

	switch ident.Name {
	case "print":
		for _, a := range call.Args {
			c.checkExpr(a, nil)
		}
		return types.Void
	case "assert":
		if len(call.Args) > 0 {
			c.checkExpr(call.Args[0], types.Bool)
		}
		return types.Void
	case "fail":
		if len(call.Args) > 0 {
			c.checkExpr(call.Args[0], types.String)
		}
		return types.Void
	}

	sym, ok := c.Symbols.LookupFunction(ident.Name)
	if !ok {
		c.Log.AddError(span, logger.CodeUnknownValue, "undefined function '"+ident.Name+"'")
		for _, a := range call.Args {
			c.checkExpr(a, nil)
		}
		return types.Unknown
	}
	fnType, ok := sym.Type.(*types.FunctionType)
	if !ok {
		c.Log.AddInternal(span, "function symbol '"+ident.Name+"' has non-function type")
		return types.Unknown
	}

	c.checkCallArgs(call.Args, fnType.Params, span)

	if fnType.Return == nil {
		return types.Void
	}
	return fnType.Return
}

func (c *Checker) checkCallArgs(args []ast.Expr, params []types.Type, span logger.Span) {
	if len(args) != len(params) {
		c.Log.AddError(span, logger.CodeTypeMismatch,
			"argument count mismatch: expected")
		for _, a := range args {
			c.checkExpr(a, nil)
		}
		return
	}
	for i, a := range args {
		argType := c.checkExpr(a, params[i])
		if !types.Compatible(argType, params[i]) {
			c.Log.AddError(a.Span, logger.CodeTypeMismatch,
				"argument type mismatch: expected "+getTypeName(params[i])+", got "+getTypeName(argType))
		}
	}
}

// checkStaticCall resolves `Type.name(args)`: an enum-variant constructor
// when name matches a variant of the enum named typeName, otherwise a
// static (non-self) associated function bound through an impl block.
func (c *Checker) checkStaticCall(typeName, name string, args []ast.Expr, span logger.Span, expected types.Type) types.Type {
	base, _ := c.Symbols.LookupType(typeName)
	if enumType, ok := base.(*types.EnumType); ok {
		if variant, ok := enumType.Variants[name]; ok {
			return c.checkEnumVariantConstructor(enumType, variant, args, span, expected)
		}
	}

	if methods, ok := c.methodTypes[typeName]; ok {
		if fn, ok := methods[name]; ok {
			c.checkCallArgs(args, fn.Params, span)
			if fn.Return == nil {
				return types.Void
			}
			return fn.Return
		}
	}

	c.Log.AddError(span, logger.CodeUnknownValue, "'"+typeName+"' has no associated function or variant named '"+name+"'")
	for _, a := range args {
		c.checkExpr(a, nil)
	}
	return types.Unknown
}

// checkEnumVariantConstructor implements §8 scenario 6: `Option.None` (and
// similarly generic-payload variants like `Option.Some(42)`) infer the
// enum's type arguments either from the constructor's own arguments or, when
// the variant is payload-less, from the expected return-context type.
func (c *Checker) checkEnumVariantConstructor(enumType *types.EnumType, variant *types.EnumVariant, args []ast.Expr, span logger.Span, expected types.Type) types.Type {
	if len(enumType.GenericParams) == 0 {
		c.checkCallArgs(args, variant.Fields, span)
		return enumType
	}

	subst := make(map[string]types.Type, len(enumType.GenericParams))
	if len(variant.Fields) > 0 && len(args) == len(variant.Fields) {
		for i, a := range args {
			argType := c.checkExpr(a, variant.Fields[i])
			bindGenericArg(variant.Fields[i], argType, subst)
		}
	} else if expectedEnum, ok := unwrapGeneric(expected, enumType); ok {
		for i, g := range enumType.GenericParams {
			if i < len(expectedEnum) {
				subst[g] = expectedEnum[i]
			}
		}
		for _, a := range args {
			c.checkExpr(a, nil)
		}
	} else {
		for _, a := range args {
			c.checkExpr(a, nil)
		}
	}

	typeArgs := make([]types.Type, len(enumType.GenericParams))
	for i, g := range enumType.GenericParams {
		if t, ok := subst[g]; ok {
			typeArgs[i] = t
		} else {
			typeArgs[i] = types.Unknown
		}
	}
	return &types.GenericType{Name: enumType.Name, Base: enumType, TypeArgs: typeArgs}
}

// bindGenericArg records a binding in subst for each bare TypeVariable it
// finds inside declared (the variant field's declared type), by matching
// structurally against the concrete argType.
func bindGenericArg(declared, argType types.Type, subst map[string]types.Type) {
	if tv, ok := declared.(*types.TypeVariable); ok {
		if _, bound := subst[tv.Name]; !bound {
			subst[tv.Name] = argType
		}
		return
	}
	switch d := declared.(type) {
	case *types.ReferenceType:
		if a, ok := argType.(*types.ReferenceType); ok {
			bindGenericArg(d.Inner, a.Inner, subst)
		}
	case *types.SliceType:
		if a, ok := argType.(*types.SliceType); ok {
			bindGenericArg(d.Element, a.Element, subst)
		}
	}
}

// unwrapGeneric reports whether expected is an instantiation of base: a
// types.GenericType of the same name, whose type arguments it returns, or a
// flattened *types.EnumType of the same name (what a resolved annotation such
// as `-> Option[int]` becomes), whose type arguments it recovers by matching
// its variant payloads against base's; arguments it cannot recover are Unknown.
func unwrapGeneric(expected types.Type, base *types.EnumType) ([]types.Type, bool) {
	if g, ok := expected.(*types.GenericType); ok && g.Name == base.Name {
		return g.TypeArgs, true
	}
	inst, ok := expected.(*types.EnumType)
	if !ok || inst.Name != base.Name || len(inst.GenericParams) != 0 {
		return nil, false
	}
	subst := make(map[string]types.Type, len(base.GenericParams))
	for _, name := range base.VariantOrder {
		decl, instV := base.Variants[name], inst.Variants[name]
		if decl != nil && instV != nil && len(decl.Fields) == len(instV.Fields) {
			for i, f := range decl.Fields {
				bindGenericArg(f, instV.Fields[i], subst)
			}
		}
	}
	args := make([]types.Type, len(base.GenericParams))
	for i, g := range base.GenericParams {
		args[i] = types.Unknown
		if t, ok := subst[g]; ok {
			args[i] = t
		}
	}
	return args, true
}

// checkMethodCall implements §4.4.3's three call shapes: a static call on a
// type name, an instance call on a value (eliding the `self` parameter from
// the declared arity), or an error when the receiver resolves to neither.
func (c *Checker) checkMethodCall(mc *ast.EMethodCall, span logger.Span) types.Type {
	if objIdent, ok := mc.Receiver.Data.(*ast.EIdentifier); ok && c.IsTypeName(objIdent.Name) {
		return c.checkStaticCall(objIdent.Name, mc.Method, mc.Args, span, nil)
	}

	receiverType := c.checkExpr(mc.Receiver, nil)
	underlying := receiverType
	if r, ok := underlying.(*types.ReferenceType); ok {
		underlying = r.Inner
	}

	name := typeName(underlying)
	if name == "" {
		if _, isUnknown := underlying.(*types.UnknownType); !isUnknown {
			c.Log.AddError(span, logger.CodeUnknownValue,
				"no method '"+mc.Method+"' found for type "+getTypeName(receiverType))
		}
		for _, a := range mc.Args {
			c.checkExpr(a, nil)
		}
		return types.Unknown
	}

	fn, ok := c.methodTypes[name][mc.Method]
	if !ok {
		c.Log.AddError(span, logger.CodeUnknownValue,
			"no method '"+mc.Method+"' found for type "+name)
		for _, a := range mc.Args {
			c.checkExpr(a, nil)
		}
		return types.Unknown
	}

	c.checkCallArgs(mc.Args, fn.Params, span)
	if fn.Return == nil {
		return types.Void
	}
	return fn.Return
}

// checkFieldAccess implements §4.4.2's field-access dispatch: `Type.Variant`
// (no call parens) referencing a payload-less enum-variant constructor,
// String's synthetic `data`/`len` fields, or an ordinary struct field. A
// bare payload-less variant reference (§8 scenario 6's `Option.None`) infers
// its enum's type arguments from expected the same way
// checkEnumVariantConstructor does for a called variant.
func (c *Checker) checkFieldAccess(fa *ast.EFieldAccess, span logger.Span, expected types.Type) types.Type {
	if objIdent, ok := fa.Object.Data.(*ast.EIdentifier); ok && c.IsTypeName(objIdent.Name) {
		base, _ := c.Symbols.LookupType(objIdent.Name)
		if enumType, ok := base.(*types.EnumType); ok {
			if _, ok := enumType.Variants[fa.Field]; ok {
				if len(enumType.GenericParams) == 0 {
					return enumType
				}
				args := make([]types.Type, len(enumType.GenericParams))
				if expectedArgs, ok := unwrapGeneric(expected, enumType); ok {
					for i := range args {
						if i < len(expectedArgs) {
							args[i] = expectedArgs[i]
						} else {
							args[i] = types.Unknown
						}
					}
				} else {
					for i := range args {
						args[i] = types.Unknown
					}
				}
				return &types.GenericType{Name: enumType.Name, Base: enumType, TypeArgs: args}
			}
		}
		c.Log.AddError(span, logger.CodeUnknownValue, "'"+objIdent.Name+"' has no member named '"+fa.Field+"'")
		return types.Unknown
	}

	objType := c.checkExpr(fa.Object, nil)
	underlying := objType
	if r, ok := underlying.(*types.ReferenceType); ok {
		underlying = r.Inner
	}

	if _, ok := underlying.(*types.StringType); ok {
		switch fa.Field {
		case "len":
			return types.I64
		case "data":
			return &types.PointerType{Inner: types.U8}
		}
	}

	if st, ok := underlying.(*types.StructType); ok {
		if ft, ok := st.Fields[fa.Field]; ok {
			return ft
		}
		c.Log.AddError(span, logger.CodeUnknownValue, "struct '"+st.Name+"' has no field '"+fa.Field+"'")
		return types.Unknown
	}

	if _, isUnknown := underlying.(*types.UnknownType); !isUnknown {
		c.Log.AddError(span, logger.CodeTypeMismatch, "cannot access field '"+fa.Field+"' on type "+getTypeName(objType))
	}
	return types.Unknown
}

func (c *Checker) checkIndexAccess(idx *ast.EIndex, span logger.Span) types.Type {
	objType := c.checkExpr(idx.Object, nil)
	c.checkExpr(idx.Index, types.Int)

	switch t := objType.(type) {
	case *types.ArrayType:
		return t.Element
	case *types.SliceType:
		return t.Element
	case *types.GenericType:
		if t.Name == "List" && len(t.TypeArgs) == 1 {
			return t.TypeArgs[0]
		}
	}
	if _, isUnknown := objType.(*types.UnknownType); !isUnknown {
		c.Log.AddError(span, logger.CodeTypeMismatch, "cannot index into type "+getTypeName(objType))
	}
	return types.Unknown
}

func (c *Checker) checkStructLiteral(sl *ast.EStructLiteral, span logger.Span) types.Type {
	base, ok := c.Symbols.LookupType(sl.StructName)
	if !ok {
		c.Log.AddError(span, logger.CodeUnknownType, "unknown struct type '"+sl.StructName+"'")
		for _, f := range sl.Fields {
			c.checkExpr(f.Value, nil)
		}
		return types.Unknown
	}
	st, ok := base.(*types.StructType)
	if !ok {
		c.Log.AddError(span, logger.CodeTypeMismatch, "'"+sl.StructName+"' is not a struct type")
		for _, f := range sl.Fields {
			c.checkExpr(f.Value, nil)
		}
		return types.Unknown
	}

	given := make(map[string]bool, len(sl.Fields))
	for _, f := range sl.Fields {
		given[f.Name] = true
		expectedType, ok := st.Fields[f.Name]
		if !ok {
			c.Log.AddError(span, logger.CodeUnknownValue, "struct '"+st.Name+"' has no field '"+f.Name+"'")
			c.checkExpr(f.Value, nil)
			continue
		}
		valType := c.checkExpr(f.Value, expectedType)
		if !types.Compatible(valType, expectedType) {
			c.Log.AddError(f.Value.Span, logger.CodeTypeMismatch,
				"field '"+f.Name+"' type mismatch: expected "+getTypeName(expectedType)+", got "+getTypeName(valType))
		}
	}
	for _, name := range st.FieldOrder {
		if !given[name] {
			c.Log.AddError(span, logger.CodeTypeMismatch, "missing field '"+name+"' in struct literal for '"+st.Name+"'")
		}
	}
	return st
}

func (c *Checker) checkListLiteral(ll *ast.EListLiteral, span logger.Span, expected types.Type) types.Type {
	var elemExpected types.Type
	if g, ok := expected.(*types.GenericType); ok && g.Name == "List" && len(g.TypeArgs) == 1 {
		elemExpected = g.TypeArgs[0]
	}

	var elemType types.Type = types.Unknown
	for i, el := range ll.Elements {
		t := c.checkExpr(el, elemExpected)
		if i == 0 {
			elemType = t
		} else if !types.Compatible(elemType, t) {
			c.Log.AddError(el.Span, logger.CodeTypeMismatch,
				"list element type mismatch: expected "+getTypeName(elemType)+", got "+getTypeName(t))
		}
	}
	if elemExpected != nil {
		elemType = elemExpected
	}
	return &types.GenericType{Name: "List", TypeArgs: []types.Type{elemType}}
}
