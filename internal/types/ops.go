package types

// IsCopy implements the Copy discipline of §3.1: primitives, references, and
// raw pointers are Copy; everything else (structs, enums, arrays, slices,
// strings, tuples, generics, functions...) is Move.
func IsCopy(t Type) bool {
	switch t.(type) {
	case *IntType, *FloatType, *BoolType, *CharType, *ReferenceType, *PointerType:
		return true
	default:
		return false
	}
}

// IsNumeric reports whether t is an integer or float type.
func IsNumeric(t Type) bool {
	switch t.(type) {
	case *IntType, *FloatType:
		return true
	default:
		return false
	}
}

func namesEqual(a, b string) bool { return a == b }

// structurallyEqual is the shape-based comparison used for structural type
// forms (§3.1); nominal forms (struct/enum/trait/opaque) are compared by
// name only via Compatible below.
func structurallyEqual(a, b Type) bool {
	switch at := a.(type) {
	case *IntType:
		bt, ok := b.(*IntType)
		return ok && at.Width == bt.Width && at.Signed == bt.Signed
	case *FloatType:
		bt, ok := b.(*FloatType)
		return ok && at.Width == bt.Width
	case *BoolType:
		_, ok := b.(*BoolType)
		return ok
	case *CharType:
		_, ok := b.(*CharType)
		return ok
	case *StringType:
		_, ok := b.(*StringType)
		return ok
	case *VoidType:
		_, ok := b.(*VoidType)
		if ok {
			return true
		}
		// the empty tuple is equivalent to void (§3.1)
		if tup, ok2 := b.(*TupleType); ok2 {
			return len(tup.Elements) == 0
		}
		return false
	case *TupleType:
		if len(at.Elements) == 0 {
			if _, ok := b.(*VoidType); ok {
				return true
			}
		}
		bt, ok := b.(*TupleType)
		if !ok || len(at.Elements) != len(bt.Elements) {
			return false
		}
		for i := range at.Elements {
			if !Compatible(at.Elements[i], bt.Elements[i]) {
				return false
			}
		}
		return true
	case *NoneKindType:
		_, ok := b.(*NoneKindType)
		return ok
	case *SelfType:
		_, ok := b.(*SelfType)
		return ok
	case *ReferenceType:
		bt, ok := b.(*ReferenceType)
		return ok && at.Mutable == bt.Mutable && Compatible(at.Inner, bt.Inner)
	case *PointerType:
		bt, ok := b.(*PointerType)
		return ok && at.Mutable == bt.Mutable && Compatible(at.Inner, bt.Inner)
	case *ArrayType:
		bt, ok := b.(*ArrayType)
		return ok && at.Size == bt.Size && Compatible(at.Element, bt.Element)
	case *SliceType:
		bt, ok := b.(*SliceType)
		return ok && Compatible(at.Element, bt.Element)
	case *FunctionType:
		bt, ok := b.(*FunctionType)
		if !ok || len(at.Params) != len(bt.Params) {
			return false
		}
		for i := range at.Params {
			if !Compatible(at.Params[i], bt.Params[i]) {
				return false
			}
		}
		if (at.Return == nil) != (bt.Return == nil) {
			return false
		}
		return at.Return == nil || Compatible(at.Return, bt.Return)
	case *GenericType:
		bt, ok := b.(*GenericType)
		if !ok || at.Name != bt.Name || len(at.TypeArgs) != len(bt.TypeArgs) {
			return false
		}
		for i := range at.TypeArgs {
			if !Compatible(at.TypeArgs[i], bt.TypeArgs[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Compatible implements §3.1/§4.2's compatibility relation, used by
// assignment, argument passing, and return checking. It is reflexive and
// structural, with the additional rules spelled out there: unknown and type
// variables match anything, a generic instantiation of an enum is
// compatible with its bare base enum, and List[T] is compatible with
// [T; N] element-wise.
func Compatible(a, b Type) bool {
	if _, ok := a.(*UnknownType); ok {
		return true
	}
	if _, ok := b.(*UnknownType); ok {
		return true
	}
	if _, ok := a.(*TypeVariable); ok {
		return true
	}
	if _, ok := b.(*TypeVariable); ok {
		return true
	}

	switch at := a.(type) {
	case *StructType:
		bt, ok := b.(*StructType)
		return ok && at.Name == bt.Name
	case *EnumType:
		if bt, ok := b.(*EnumType); ok {
			return at.Name == bt.Name
		}
		// a generic instantiation `Name[...]` and the base enum `Name` are
		// compatible when their names match (§3.1c); the number of type
		// arguments is not compared.
		if bt, ok := b.(*GenericType); ok {
			return at.Name == bt.Name
		}
		return false
	case *GenericType:
		if bt, ok := b.(*GenericType); ok {
			if at.Name != bt.Name || len(at.TypeArgs) != len(bt.TypeArgs) {
				return false
			}
			for i := range at.TypeArgs {
				if !Compatible(at.TypeArgs[i], bt.TypeArgs[i]) {
					return false
				}
			}
			return true
		}
		if bt, ok := b.(*EnumType); ok {
			return at.Name == bt.Name
		}
		if at.Name == "List" {
			if bt, ok := b.(*ArrayType); ok && len(at.TypeArgs) == 1 {
				return Compatible(at.TypeArgs[0], bt.Element)
			}
		}
		return false
	case *ArrayType:
		if bt, ok := b.(*GenericType); ok && bt.Name == "List" && len(bt.TypeArgs) == 1 {
			return Compatible(at.Element, bt.TypeArgs[0])
		}
		return structurallyEqual(a, b)
	case *TraitType:
		bt, ok := b.(*TraitType)
		return ok && at.Name == bt.Name
	case *OpaqueType:
		bt, ok := b.(*OpaqueType)
		return ok && at.Name == bt.Name
	default:
		return structurallyEqual(a, b)
	}
}

// CommonNumeric implements §4.2's common_numeric: float dominates int, and
// within one family the wider type wins.
func CommonNumeric(a, b Type) Type {
	af, aIsFloat := a.(*FloatType)
	bf, bIsFloat := b.(*FloatType)
	ai, aIsInt := a.(*IntType)
	bi, bIsInt := b.(*IntType)

	switch {
	case aIsFloat && bIsFloat:
		if af.Width >= bf.Width {
			return af
		}
		return bf
	case aIsFloat:
		return af
	case bIsFloat:
		return bf
	case aIsInt && bIsInt:
		width := ai.Width
		if bi.Width > width {
			width = bi.Width
		}
		signed := ai.Signed && bi.Signed
		if width == 32 && signed {
			return Int
		}
		return &IntType{Width: width, Signed: signed}
	default:
		return nil
	}
}

// Substitute implements §4.2's capture-free substitution of a map
// name->Type through every structural form. A type variable found in sigma
// is replaced by sigma[name]; everything else recurses into its children.
func Substitute(t Type, sigma map[string]Type) Type {
	switch v := t.(type) {
	case *TypeVariable:
		if repl, ok := sigma[v.Name]; ok {
			return repl
		}
		return v
	case *ReferenceType:
		return &ReferenceType{Inner: Substitute(v.Inner, sigma), Mutable: v.Mutable, Lifetime: v.Lifetime}
	case *PointerType:
		return &PointerType{Inner: Substitute(v.Inner, sigma), Mutable: v.Mutable}
	case *ArrayType:
		return &ArrayType{Element: Substitute(v.Element, sigma), Size: v.Size}
	case *SliceType:
		return &SliceType{Element: Substitute(v.Element, sigma)}
	case *TupleType:
		elems := make([]Type, len(v.Elements))
		for i, e := range v.Elements {
			elems[i] = Substitute(e, sigma)
		}
		return &TupleType{Elements: elems}
	case *FunctionType:
		params := make([]Type, len(v.Params))
		for i, p := range v.Params {
			params[i] = Substitute(p, sigma)
		}
		var ret Type
		if v.Return != nil {
			ret = Substitute(v.Return, sigma)
		}
		return &FunctionType{Params: params, Return: ret}
	case *GenericType:
		args := make([]Type, len(v.TypeArgs))
		for i, a := range v.TypeArgs {
			args[i] = Substitute(a, sigma)
		}
		return &GenericType{Name: v.Name, Base: v.Base, TypeArgs: args}
	case *EnumType:
		// Nominal types are not rewritten themselves, but a substitution
		// through a reference to one resolves to the same named type;
		// variant payloads are substituted lazily at use sites (see
		// internal/check's enum-variant constructor resolution) rather
		// than by copying the whole EnumType here.
		return v
	case *StructType:
		return v
	default:
		return v
	}
}
