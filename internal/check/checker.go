// Package check implements the two-pass type checker of §4.4: pass one
// registers every top-level item's signature (so forward references and
// mutual recursion between functions/structs/enums resolve), pass two
// walks every function body, method, and constant initializer checking
// expressions and statements bidirectionally.
//
// Grounded directly on the reference implementation's type_checker.py
// (TypeChecker), generalized to this Go AST's simpler shape — this AST has
// no monomorphization machinery (compile-time parameters, generic call
// arguments), so the argument-count/substitution bookkeeping around those
// in the reference has no counterpart here.
package check

import (
	"github.com/wulfhouse/pyrite/internal/ast"
	"github.com/wulfhouse/pyrite/internal/borrow"
	"github.com/wulfhouse/pyrite/internal/logger"
	"github.com/wulfhouse/pyrite/internal/scope"
	"github.com/wulfhouse/pyrite/internal/types"
)

// typeAliasEntry is a registered `type Name[params] = target` declaration,
// consulted when resolving a generic instantiation of that name (§4.2's
// substitute, applied to type aliases).
type typeAliasEntry struct {
	GenericParams []string
	Target        types.Type
}

// Checker is a single run of the type checker over one module's items.
// State that only matters for the function currently being checked
// (current return type, range facts, collected variable types) is reset at
// the start of CheckFunction.
type Checker struct {
	Log     logger.Log
	Symbols *scope.Table

	traitImplementations map[string]map[string]*ast.ImplBlock
	typeImplBlocks        map[string]*ast.ImplBlock
	functionDefs          map[string]*ast.FunctionDef
	typeAliases           map[string]typeAliasEntry

	// methodTypes[typeName][methodName] is the signature of a method bound
	// through a (possibly trait) impl block on typeName, computed once at
	// registration time the same way a free function's signature is.
	methodTypes map[string]map[string]*types.FunctionType

	// FunctionVarTypes collects, per checked function, every variable's
	// resolved type — parameters and every pattern-bound name seen in a
	// var-decl, match arm, or quantifier. The ownership and borrow passes
	// consume this directly instead of re-deriving types themselves (§5:
	// each later pass reads, but does not re-infer, an earlier pass's
	// results).
	FunctionVarTypes map[*ast.FunctionDef]map[string]types.Type

	currentFunctionReturn types.Type
	currentImplType       types.Type
	insideEnsures         bool
	rangeFacts            RangeFacts
	varTypes              map[string]types.Type
}

// New creates a Checker with the builtins of §6 already registered.
func New(log logger.Log) *Checker {
	c := &Checker{
		Log:                   log,
		Symbols:               scope.NewTable(),
		traitImplementations: make(map[string]map[string]*ast.ImplBlock),
		typeImplBlocks:        make(map[string]*ast.ImplBlock),
		functionDefs:          make(map[string]*ast.FunctionDef),
		typeAliases:           make(map[string]typeAliasEntry),
		methodTypes:           make(map[string]map[string]*types.FunctionType),
		FunctionVarTypes:      make(map[*ast.FunctionDef]map[string]types.Type),
	}
	c.registerBuiltins()
	return c
}

// IsTypeName reports whether name is registered in the type namespace —
// the callback the ownership analyser uses to distinguish `T.f` (an
// enum-variant constructor reference) from `v.f` (a field access) per
// §4.5's "is not a type name" check.
func (c *Checker) IsTypeName(name string) bool {
	_, ok := c.Symbols.LookupType(name)
	return ok
}

// FieldType looks up a struct field's type, the callback the ownership
// analyser uses to decide whether a partial move's field is itself Copy.
func (c *Checker) FieldType(t types.Type, field string) (types.Type, bool) {
	if st, ok := derefStruct(t); ok {
		ft, ok := st.Fields[field]
		return ft, ok
	}
	return nil, false
}

func derefStruct(t types.Type) (*types.StructType, bool) {
	if r, ok := t.(*types.ReferenceType); ok {
		t = r.Inner
	}
	st, ok := t.(*types.StructType)
	return st, ok
}

// CheckProgram runs both passes over prog's items (§4.4.1).
func (c *Checker) CheckProgram(prog *ast.Program) {
	for _, item := range prog.Items {
		switch d := item.Data.(type) {
		case *ast.FunctionDef:
			c.registerFunction(d, item.Span)
		case *ast.StructDef:
			c.registerStruct(d, item.Span)
		case *ast.EnumDef:
			c.registerEnum(d, item.Span)
		case *ast.TraitDef:
			c.registerTrait(d, item.Span)
		case *ast.ImplBlock:
			c.registerImpl(d, item.Span)
		case *ast.ConstDecl:
			c.registerConst(d, item.Span)
		case *ast.OpaqueDecl:
			c.registerOpaqueType(d, item.Span)
		}
	}

	for _, item := range prog.Items {
		if alias, ok := item.Data.(*ast.TypeAlias); ok {
			c.registerTypeAlias(alias, item.Span)
		}
	}

	for _, item := range prog.Items {
		switch d := item.Data.(type) {
		case *ast.FunctionDef:
			c.CheckFunction(d, item.Span)
		case *ast.ImplBlock:
			c.checkImpl(d, item.Span)
		case *ast.ConstDecl:
			c.checkConst(d)
		}
	}
}

// ImportModuleSymbols registers an imported module's top-level items into
// the global scope (every top-level item is visible to importers — the
// language has no module-private/public distinction per the reference
// implementation's import_module_symbols).
func (c *Checker) ImportModuleSymbols(prog *ast.Program) {
	for _, item := range prog.Items {
		switch d := item.Data.(type) {
		case *ast.StructDef:
			c.registerStruct(d, item.Span)
		case *ast.EnumDef:
			c.registerEnum(d, item.Span)
		case *ast.FunctionDef:
			c.registerFunction(d, item.Span)
		case *ast.ImplBlock:
			c.registerImpl(d, item.Span)
		}
	}
}

func (c *Checker) validateWhereClause(where []ast.WhereClause, generics []string, span logger.Span) {
	if len(where) == 0 {
		return
	}
	names := make(map[string]bool, len(generics))
	for _, g := range generics {
		names[g] = true
	}
	for _, w := range where {
		if !names[w.Param] {
			c.Log.AddError(span, logger.CodeUnknownType, "type parameter '"+w.Param+"' in where clause is not a generic parameter")
			continue
		}
		t, ok := c.Symbols.LookupType(w.Trait)
		if !ok {
			c.Log.AddError(span, logger.CodeUnknownType, "trait '"+w.Trait+"' in where clause not found")
			continue
		}
		if _, isTrait := t.(*types.TraitType); !isTrait {
			c.Log.AddError(span, logger.CodeUnknownType, "trait '"+w.Trait+"' in where clause not found")
		}
	}
}

// applyLifetimeElision delegates to the borrow package's own elision rule
// (§4.4.1/§4.6) so the registration-time function type and the borrow
// checker's later reasoning about that same function always agree — one
// rule, not two copies of it.
func applyLifetimeElision(params []types.Type, ret types.Type) {
	if r, ok := ret.(*types.ReferenceType); ok {
		borrow.ElideLifetime(params, r)
	}
}

func (c *Checker) registerFunction(fn *ast.FunctionDef, span logger.Span) {
	c.functionDefs[fn.Name] = fn
	c.validateWhereClause(fn.Where, fn.GenericParams, span)

	c.Symbols.EnterScope()
	for _, g := range fn.GenericParams {
		c.Symbols.DefineType(g, &types.TypeVariable{Name: g}, span)
	}
	paramTypes := make([]types.Type, len(fn.Params))
	for i, p := range fn.Params {
		paramTypes[i] = c.resolveType(p.TypeAnnotation)
	}
	var returnType types.Type = types.Void
	if fn.ReturnType.Data != nil {
		returnType = c.resolveType(fn.ReturnType)
	}
	c.Symbols.ExitScope()

	applyLifetimeElision(paramTypes, returnType)

	funcType := &types.FunctionType{Params: paramTypes, Return: returnType}
	if ok, existing := c.Symbols.DefineFunction(fn.Name, funcType, span, fn.IsExtern); !ok {
		c.Log.AddErrorWithRelated(span, logger.CodeDuplicateDefinition,
			"function '"+fn.Name+"' is already defined",
			logger.Related{Span: existing.Span, Label: "first defined here"})
	}
}

func (c *Checker) registerStruct(s *ast.StructDef, span logger.Span) {
	c.validateWhereClause(s.Where, s.GenericParams, span)

	for _, g := range s.GenericParams {
		c.Symbols.DefineType(g, &types.TypeVariable{Name: g}, span)
	}

	fieldOrder := make([]string, len(s.Fields))
	fields := make(map[string]types.Type, len(s.Fields))
	for i, f := range s.Fields {
		fieldOrder[i] = f.Name
		fields[f.Name] = c.resolveType(f.Type)
	}

	structType := &types.StructType{Name: s.Name, FieldOrder: fieldOrder, Fields: fields, GenericParams: s.GenericParams}
	if !c.Symbols.DefineType(s.Name, structType, span) {
		c.Log.AddError(span, logger.CodeDuplicateDefinition, "type '"+s.Name+"' is already defined")
	}

	for _, inv := range s.Invariants {
		c.Symbols.EnterScope()
		c.Symbols.DefineVariable("self", &types.ReferenceType{Inner: structType}, false, span)
		c.checkExpr(inv.Expr, types.Bool)
		c.checkContractSatisfiable(inv.Expr, "invariant")
		c.Symbols.ExitScope()
	}
}

func (c *Checker) registerEnum(e *ast.EnumDef, span logger.Span) {
	for _, g := range e.GenericParams {
		c.Symbols.DefineType(g, &types.TypeVariable{Name: g}, span)
	}

	// Register a placeholder first so variants referring back to the enum
	// itself (e.g. `Cons(T, Box[List[T]])`) resolve during variant
	// processing (§9's cyclic/recursive types design note).
	placeholder := &types.EnumType{Name: e.Name, Variants: map[string]*types.EnumVariant{}, GenericParams: e.GenericParams}
	if !c.Symbols.DefineType(e.Name, placeholder, span) {
		c.Log.AddError(span, logger.CodeDuplicateDefinition, "type '"+e.Name+"' is already defined")
		return
	}

	variantOrder := make([]string, len(e.Variants))
	variants := make(map[string]*types.EnumVariant, len(e.Variants))
	for i, v := range e.Variants {
		variantOrder[i] = v.Name
		if v.Fields == nil {
			variants[v.Name] = &types.EnumVariant{Name: v.Name, Fields: nil}
			continue
		}
		fieldTypes := make([]types.Type, len(v.Fields))
		for j, ft := range v.Fields {
			fieldTypes[j] = c.resolveType(ft)
		}
		variants[v.Name] = &types.EnumVariant{Name: v.Name, Fields: fieldTypes}
	}

	enumType := &types.EnumType{Name: e.Name, VariantOrder: variantOrder, Variants: variants, GenericParams: e.GenericParams}
	c.Symbols.Global.Types[e.Name] = enumType
}

func (c *Checker) registerTrait(t *ast.TraitDef, span logger.Span) {
	c.validateWhereClause(t.Where, t.GenericParams, span)

	for _, g := range t.GenericParams {
		c.Symbols.DefineType(g, &types.TypeVariable{Name: g}, span)
	}

	methodOrder := make([]string, len(t.Methods))
	methods := make(map[string]*types.FunctionType, len(t.Methods))
	for i, m := range t.Methods {
		methodOrder[i] = m.Name
		params := make([]types.Type, len(m.Params))
		for j, p := range m.Params {
			params[j] = c.resolveType(p.TypeAnnotation)
		}
		ret := types.Type(types.Void)
		if m.ReturnType.Data != nil {
			ret = c.resolveType(m.ReturnType)
		}
		methods[m.Name] = &types.FunctionType{Params: params, Return: ret}
	}

	traitType := &types.TraitType{
		Name:            t.Name,
		MethodOrder:     methodOrder,
		Methods:         methods,
		GenericParams:   t.GenericParams,
		AssociatedTypes: t.AssociatedTypes,
	}
	if !c.Symbols.DefineType(t.Name, traitType, span) {
		c.Log.AddError(span, logger.CodeDuplicateDefinition, "type '"+t.Name+"' is already defined")
	}
}

func (c *Checker) registerImpl(impl *ast.ImplBlock, span logger.Span) {
	c.validateWhereClause(impl.Where, impl.GenericParams, span)

	typeName := typeExprName(impl.TargetType)
	if typeName == "" {
		c.Log.AddInternal(span, "impl target type has no name")
		return
	}
	if _, ok := c.Symbols.LookupType(typeName); !ok {
		c.Log.AddError(span, logger.CodeUnknownType, "type '"+typeName+"' not found")
		return
	}

	if impl.TraitName != "" {
		if _, ok := c.Symbols.LookupType(impl.TraitName); !ok {
			c.Log.AddError(span, logger.CodeUnknownType, "trait '"+impl.TraitName+"' not found")
			return
		}
		if c.traitImplementations[typeName] == nil {
			c.traitImplementations[typeName] = make(map[string]*ast.ImplBlock)
		}
		c.traitImplementations[typeName][impl.TraitName] = impl
	} else {
		c.typeImplBlocks[typeName] = impl
	}

	if c.methodTypes[typeName] == nil {
		c.methodTypes[typeName] = make(map[string]*types.FunctionType)
	}
	for _, m := range impl.Methods {
		c.Symbols.EnterScope()
		for _, g := range m.GenericParams {
			c.Symbols.DefineType(g, &types.TypeVariable{Name: g}, span)
		}
		params := make([]types.Type, len(m.Params))
		for i, p := range m.Params {
			params[i] = c.resolveType(p.TypeAnnotation)
		}
		ret := types.Type(types.Void)
		if m.ReturnType.Data != nil {
			ret = c.resolveType(m.ReturnType)
		}
		c.Symbols.ExitScope()
		c.methodTypes[typeName][m.Name] = &types.FunctionType{Params: params, Return: ret}
	}
}

// typeExprName extracts the leading name of a type expression, the shape
// every impl target/trait bound/enum-constructor lookup needs.
func typeExprName(te ast.TypeExpr) string {
	if named, ok := te.Data.(*ast.TENamed); ok {
		return named.Name
	}
	return ""
}

func (c *Checker) checkImpl(impl *ast.ImplBlock, span logger.Span) {
	typeName := typeExprName(impl.TargetType)

	if impl.TraitName != "" {
		if traitType, ok := c.Symbols.LookupType(impl.TraitName); ok {
			if tt, ok := traitType.(*types.TraitType); ok {
				implemented := make(map[string]bool, len(impl.Methods))
				for _, m := range impl.Methods {
					implemented[m.Name] = true
				}
				for _, required := range tt.MethodOrder {
					if !implemented[required] {
						c.Log.AddError(span, logger.CodeTraitBoundNotSatisfied,
							"trait '"+impl.TraitName+"' requires implementation of '"+required+"'")
					}
				}

				boundAssoc := make(map[string]bool, len(impl.AssocTypes))
				for _, a := range impl.AssocTypes {
					boundAssoc[a.Name] = true
				}
				for _, required := range tt.AssociatedTypes {
					if !boundAssoc[required] {
						c.Log.AddError(span, logger.CodeTraitBoundNotSatisfied,
							"trait '"+impl.TraitName+"' requires associated type '"+required+"'")
					}
				}
				for _, a := range impl.AssocTypes {
					found := false
					for _, required := range tt.AssociatedTypes {
						if required == a.Name {
							found = true
							break
						}
					}
					if !found {
						c.Log.AddError(span, logger.CodeTraitBoundNotSatisfied,
							"associated type '"+a.Name+"' is not declared in trait '"+impl.TraitName+"'")
						continue
					}
					c.resolveType(a.Type)
				}
			}
		}
	}

	if implType, ok := c.Symbols.LookupType(typeName); ok {
		c.currentImplType = implType
	}
	for _, m := range impl.Methods {
		c.CheckFunction(m, span)
	}
	c.currentImplType = nil
}

func (c *Checker) registerConst(decl *ast.ConstDecl, span logger.Span) {
	constType := types.Type(types.Unknown)
	if decl.TypeAnnotation.Data != nil {
		constType = c.resolveType(decl.TypeAnnotation)
	}
	if ok, existing := c.Symbols.DefineVariable(decl.Name, constType, false, span); !ok {
		c.Log.AddErrorWithRelated(span, logger.CodeDuplicateDefinition,
			"'"+decl.Name+"' is already defined",
			logger.Related{Span: existing.Span, Label: "first defined here"})
	}
}

func (c *Checker) checkConst(decl *ast.ConstDecl) {
	exprType := c.checkExpr(decl.Value, nil)
	if decl.TypeAnnotation.Data != nil {
		expected := c.resolveType(decl.TypeAnnotation)
		if !types.Compatible(exprType, expected) {
			c.Log.AddError(decl.Value.Span, logger.CodeTypeMismatch,
				"type mismatch: expected "+expected.String()+", got "+exprType.String())
		}
	}
}

func (c *Checker) registerOpaqueType(decl *ast.OpaqueDecl, span logger.Span) {
	if !c.Symbols.DefineType(decl.Name, &types.OpaqueType{Name: decl.Name}, span) {
		c.Log.AddError(span, logger.CodeDuplicateDefinition, "type '"+decl.Name+"' is already defined")
	}
}

func (c *Checker) registerTypeAlias(alias *ast.TypeAlias, span logger.Span) {
	target := c.resolveType(alias.Type)
	// A plain (non-generic) alias has no generic parameters of its own; the
	// reference implementation threads ast.GenericParam through TypeAlias,
	// but this AST's TypeAlias is always non-generic, so GenericParams is
	// always empty here.
	c.typeAliases[alias.Name] = typeAliasEntry{Target: target}
	if !c.Symbols.DefineType(alias.Name, target, span) {
		c.Log.AddError(span, logger.CodeDuplicateDefinition, "type '"+alias.Name+"' is already defined")
	}
}

// typeImplementsTrait reports whether typeName has a registered impl of
// traitName (used by `with` statement's Closeable requirement, analogous
// to check_with's type_implements_trait call).
func (c *Checker) typeImplementsTrait(typeName, traitName string) bool {
	impls, ok := c.traitImplementations[typeName]
	if !ok {
		return false
	}
	_, ok = impls[traitName]
	return ok
}

// typeName extracts a nominal type's name for trait-implementation lookup
// (structs, enums, traits and generic instantiations; everything else has no
// named-type identity and yields "").
func typeName(t types.Type) string {
	switch v := t.(type) {
	case *types.StructType:
		return v.Name
	case *types.EnumType:
		return v.Name
	case *types.TraitType:
		return v.Name
	case *types.GenericType:
		return v.Name
	default:
		return ""
	}
}

// CheckFunction checks one function or impl-method body (§4.4.3): enters a
// fresh scope binding every parameter (plus `self`, for methods, typed by
// whatever impl block is currently being checked), walks the body, and
// collects every bound variable's type into FunctionVarTypes for the
// ownership/borrow passes to consume afterward.
func (c *Checker) CheckFunction(fn *ast.FunctionDef, span logger.Span) {
	savedReturn := c.currentFunctionReturn
	savedVarTypes := c.varTypes
	savedRangeFacts := c.rangeFacts

	c.varTypes = make(map[string]types.Type)
	c.rangeFacts = make(RangeFacts)

	c.Symbols.EnterScope()
	for _, g := range fn.GenericParams {
		c.Symbols.DefineType(g, &types.TypeVariable{Name: g}, span)
	}

	if fn.IsMethod && c.currentImplType != nil {
		selfType := types.Type(&types.ReferenceType{Inner: c.currentImplType})
		c.Symbols.DefineVariable("self", selfType, false, span)
		c.varTypes["self"] = selfType
	}

	for _, p := range fn.Params {
		pt := c.resolveType(p.TypeAnnotation)
		c.Symbols.DefineVariable(p.Name, pt, p.Mutable, p.Span)
		c.varTypes[p.Name] = pt
	}

	returnType := types.Type(types.Void)
	if fn.ReturnType.Data != nil {
		returnType = c.resolveType(fn.ReturnType)
	}
	c.currentFunctionReturn = returnType

	for _, req := range fn.Requires {
		c.checkExpr(req.Expr, types.Bool)
		c.checkContractSatisfiable(req.Expr, "precondition")
		c.recordConstraint(req.Expr)
	}

	if fn.Body != nil {
		c.checkBlock(fn.Body)
	}

	for _, ens := range fn.Ensures {
		c.insideEnsures = true
		c.checkExpr(ens.Expr, types.Bool)
		c.insideEnsures = false
		c.checkContractSatisfiable(ens.Expr, "postcondition")
	}

	c.Symbols.ExitScope()

	c.FunctionVarTypes[fn] = c.varTypes
	c.varTypes = savedVarTypes
	c.currentFunctionReturn = savedReturn
	c.rangeFacts = savedRangeFacts
}

// checkContractSatisfiable implements §8 scenario 5: a @requires/@ensures/
// @invariant clause that compile-time evaluation proves always false is a
// hard error, reported once and not accompanied by any other diagnostic for
// that same clause.
func (c *Checker) checkContractSatisfiable(e ast.Expr, kind string) {
	if val, ok := c.evaluateConstantBool(e); ok && !val {
		c.Log.AddError(e.Span, logger.CodeUnsatisfiableContract, kind+" is always false")
	}
}

// bindVar records a variable's resolved type both in the symbol table (for
// lookups during the rest of this function body) and in the per-function
// map the ownership/borrow passes will read afterward.
func (c *Checker) bindVar(name string, t types.Type, mutable bool, span logger.Span) {
	c.Symbols.DefineVariable(name, t, mutable, span)
	c.varTypes[name] = t
}

// resolveType turns an ast.TypeExpr into a types.Type (§4.2), resolving
// named references through the symbol table (structs, enums, traits, type
// aliases, generic parameters already bound in the current scope) and
// recursing through compound shapes.
func (c *Checker) resolveType(te ast.TypeExpr) types.Type {
	if te.Data == nil {
		return types.Unknown
	}
	switch d := te.Data.(type) {
	case *ast.TENamed:
		return c.resolveNamedType(d, te.Span)
	case *ast.TEReference:
		inner := c.resolveType(d.Inner)
		return &types.ReferenceType{Inner: inner, Mutable: d.Mutable, Lifetime: d.Lifetime}
	case *ast.TEPointer:
		inner := c.resolveType(d.Inner)
		return &types.PointerType{Inner: inner, Mutable: d.Mutable}
	case *ast.TEArray:
		elem := c.resolveType(d.Element)
		size, _ := c.evaluateConstantInt(d.Size)
		return &types.ArrayType{Element: elem, Size: size}
	case *ast.TESlice:
		return &types.SliceType{Element: c.resolveType(d.Element)}
	case *ast.TETuple:
		elems := make([]types.Type, len(d.Elements))
		for i, e := range d.Elements {
			elems[i] = c.resolveType(e)
		}
		return &types.TupleType{Elements: elems}
	case *ast.TEFunction:
		params := make([]types.Type, len(d.Params))
		for i, p := range d.Params {
			params[i] = c.resolveType(p)
		}
		ret := types.Type(types.Void)
		if d.Return != nil {
			ret = c.resolveType(*d.Return)
		}
		return &types.FunctionType{Params: params, Return: ret}
	default:
		return types.Unknown
	}
}

func (c *Checker) resolveNamedType(named *ast.TENamed, span logger.Span) types.Type {
	if prim, ok := types.PrimitiveFromName(named.Name); ok {
		return prim
	}
	if named.Name == "Self" && c.currentImplType != nil {
		return c.currentImplType
	}

	base, ok := c.Symbols.LookupType(named.Name)
	if !ok {
		c.Log.AddError(span, logger.CodeUnknownType, "unknown type '"+named.Name+"'")
		return types.Unknown
	}

	if len(named.TypeArgs) == 0 {
		return base
	}

	args := make([]types.Type, len(named.TypeArgs))
	for i, a := range named.TypeArgs {
		args[i] = c.resolveType(a)
	}
	return instantiateGeneric(base, args)
}

// instantiateGeneric substitutes a generic struct/enum/trait's declared
// type parameters with concrete arguments at a use site (`List[Int]`),
// using types.Substitute on every member type the way the reference
// implementation's resolve_type threads generic_args through.
func instantiateGeneric(base types.Type, args []types.Type) types.Type {
	switch b := base.(type) {
	case *types.StructType:
		if len(b.GenericParams) != len(args) {
			return b
		}
		subst := make(map[string]types.Type, len(args))
		for i, g := range b.GenericParams {
			subst[g] = args[i]
		}
		fields := make(map[string]types.Type, len(b.Fields))
		for name, ft := range b.Fields {
			fields[name] = types.Substitute(ft, subst)
		}
		return &types.StructType{Name: b.Name, FieldOrder: b.FieldOrder, Fields: fields, GenericParams: nil}
	case *types.EnumType:
		if len(b.GenericParams) != len(args) {
			return b
		}
		subst := make(map[string]types.Type, len(args))
		for i, g := range b.GenericParams {
			subst[g] = args[i]
		}
		variants := make(map[string]*types.EnumVariant, len(b.Variants))
		for name, v := range b.Variants {
			fields := make([]types.Type, len(v.Fields))
			for i, ft := range v.Fields {
				fields[i] = types.Substitute(ft, subst)
			}
			variants[name] = &types.EnumVariant{Name: v.Name, Fields: fields}
		}
		return &types.EnumType{Name: b.Name, VariantOrder: b.VariantOrder, Variants: variants, GenericParams: nil}
	default:
		return base
	}
}

// getTypeName returns a human-readable name for error messages, matching
// the reference implementation's _get_type_name fallback chain.
func getTypeName(t types.Type) string {
	if t == nil {
		return "unknown"
	}
	if name := typeName(t); name != "" {
		return name
	}
	return t.String()
}
