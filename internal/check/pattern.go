package check

import (
	"github.com/wulfhouse/pyrite/internal/ast"
	"github.com/wulfhouse/pyrite/internal/logger"
	"github.com/wulfhouse/pyrite/internal/types"
)

// checkPattern implements §4.4.4: binds every identifier a pattern
// introduces into the current scope at the given expected type, checking
// literal patterns against it and recursing through tuple/enum-variant/or
// shapes. Matches the reference implementation's check_pattern.
func (c *Checker) checkPattern(p ast.Pattern, expected types.Type) {
	switch d := p.Data.(type) {
	case *ast.PLiteral:
		litType := c.checkExpr(d.Value, expected)
		if !types.Compatible(litType, expected) {
			c.Log.AddError(p.Span, logger.CodeTypeMismatch,
				"pattern type mismatch: expected "+getTypeName(expected)+", got "+getTypeName(litType))
		}
	case *ast.PIdentifier:
		c.bindVar(d.Name, expected, false, p.Span)
	case *ast.PWildcard:
	case *ast.PTuple:
		tup, ok := expected.(*types.TupleType)
		if !ok || len(tup.Elements) != len(d.Elements) {
			for _, sub := range d.Elements {
				c.checkPattern(sub, types.Unknown)
			}
			return
		}
		for i, sub := range d.Elements {
			c.checkPattern(sub, tup.Elements[i])
		}
	case *ast.PEnumVariant:
		c.checkEnumVariantPattern(d, p.Span, expected)
	case *ast.POr:
		for _, alt := range d.Alternatives {
			c.checkPattern(alt, expected)
		}
	default:
		c.Log.AddInternal(p.Span, "unhandled pattern node")
	}
}

func (c *Checker) checkEnumVariantPattern(d *ast.PEnumVariant, span logger.Span, expected types.Type) {
	var enumType *types.EnumType
	var typeArgs []types.Type

	switch t := expected.(type) {
	case *types.EnumType:
		enumType = t
	case *types.GenericType:
		if base, ok := t.Base.(*types.EnumType); ok {
			enumType = base
			typeArgs = t.TypeArgs
		} else if base, ok := c.Symbols.LookupType(t.Name); ok {
			if et, ok := base.(*types.EnumType); ok {
				enumType = et
				typeArgs = t.TypeArgs
			}
		}
	}

	if enumType == nil && d.EnumName != "" {
		if base, ok := c.Symbols.LookupType(d.EnumName); ok {
			enumType, _ = base.(*types.EnumType)
		}
	}

	if enumType == nil {
		c.Log.AddError(span, logger.CodeUnknownType, "cannot determine enum type for pattern '"+d.VariantName+"'")
		for _, sub := range d.Fields {
			c.checkPattern(sub, types.Unknown)
		}
		return
	}

	variant, ok := enumType.Variants[d.VariantName]
	if !ok {
		c.Log.AddError(span, logger.CodeUnknownValue,
			"enum '"+enumType.Name+"' has no variant '"+d.VariantName+"'")
		for _, sub := range d.Fields {
			c.checkPattern(sub, types.Unknown)
		}
		return
	}

	subst := make(map[string]types.Type, len(enumType.GenericParams))
	for i, g := range enumType.GenericParams {
		if i < len(typeArgs) {
			subst[g] = typeArgs[i]
		}
	}

	if len(d.Fields) != len(variant.Fields) {
		c.Log.AddError(span, logger.CodeTypeMismatch,
			"variant '"+d.VariantName+"' expects "+getTypeName(enumType)+" with a different field count")
	}
	for i, sub := range d.Fields {
		var fieldType types.Type = types.Unknown
		if i < len(variant.Fields) {
			fieldType = types.Substitute(variant.Fields[i], subst)
		}
		c.checkPattern(sub, fieldType)
	}
}
