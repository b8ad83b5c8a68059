// Package types implements the closed type universe of §3.1: a fixed set of
// type forms plus the compatibility and substitution rules used throughout
// the checker. The sum is modelled the way esbuild models its expression and
// statement ASTs — a marker interface (Type) implemented by one concrete
// struct per variant, closed by an unexported method so no type outside this
// package joins the sum. Go does not check type switches for exhaustiveness:
// a variant missing from the switch in Compatible or Substitute takes that
// switch's default arm.
package types

import (
	"fmt"
	"strings"
)

// Type is implemented by every member of the closed type sum in §3.1.
type Type interface {
	isType()
	String() string
}

// --- Primitives -------------------------------------------------------

type IntType struct {
	Width  int // 8, 16, 32, 64
	Signed bool
}

func (*IntType) isType() {}
func (t *IntType) String() string {
	if t.Width == 32 && t.Signed {
		return "int"
	}
	prefix := "i"
	if !t.Signed {
		prefix = "u"
	}
	return fmt.Sprintf("%s%d", prefix, t.Width)
}

type FloatType struct{ Width int } // 32 or 64

func (*FloatType) isType()        {}
func (t *FloatType) String() string { return fmt.Sprintf("f%d", t.Width) }

type BoolType struct{}

func (*BoolType) isType()          {}
func (*BoolType) String() string   { return "bool" }

type CharType struct{}

func (*CharType) isType()        {}
func (*CharType) String() string { return "char" }

type StringType struct{}

func (*StringType) isType()        {}
func (*StringType) String() string { return "String" }

type VoidType struct{}

func (*VoidType) isType()        {}
func (*VoidType) String() string { return "void" }

// NoneKindType is the type of the `none` literal, distinct from the Option
// enum's `None` variant.
type NoneKindType struct{}

func (*NoneKindType) isType()        {}
func (*NoneKindType) String() string { return "none" }

// UnknownType is the error-recovery placeholder: compatible with everything
// so a single undefined type does not flood the diagnostic report (§7).
type UnknownType struct{}

func (*UnknownType) isType()        {}
func (*UnknownType) String() string { return "?" }

// SelfType is the placeholder type used inside trait/impl bodies.
type SelfType struct{}

func (*SelfType) isType()        {}
func (*SelfType) String() string { return "Self" }

// --- References and pointers -------------------------------------------

type ReferenceType struct {
	Inner    Type
	Mutable  bool
	Lifetime string // optional explicit lifetime tag, "" if elided/none
}

func (*ReferenceType) isType() {}
func (t *ReferenceType) String() string {
	if t.Mutable {
		return fmt.Sprintf("&mut %s", t.Inner)
	}
	return fmt.Sprintf("&%s", t.Inner)
}

type PointerType struct {
	Inner   Type
	Mutable bool
}

func (*PointerType) isType() {}
func (t *PointerType) String() string {
	if t.Mutable {
		return fmt.Sprintf("*mut %s", t.Inner)
	}
	return fmt.Sprintf("*%s", t.Inner)
}

// --- Aggregates ----------------------------------------------------------

type ArrayType struct {
	Element Type
	Size    int64
}

func (*ArrayType) isType()        {}
func (t *ArrayType) String() string { return fmt.Sprintf("[%s; %d]", t.Element, t.Size) }

type SliceType struct{ Element Type }

func (*SliceType) isType()        {}
func (t *SliceType) String() string { return fmt.Sprintf("&[%s]", t.Element) }

type TupleType struct{ Elements []Type }

func (*TupleType) isType() {}
func (t *TupleType) String() string {
	parts := make([]string, len(t.Elements))
	for i, e := range t.Elements {
		parts[i] = e.String()
	}
	return fmt.Sprintf("(%s)", strings.Join(parts, ", "))
}

// StructType is a named nominal type. Two StructTypes compare equal by name
// only (§3.1).
type StructType struct {
	Name          string
	FieldOrder    []string
	Fields        map[string]Type
	GenericParams []string
}

func (*StructType) isType() {}
func (t *StructType) String() string {
	if len(t.GenericParams) > 0 {
		return fmt.Sprintf("%s[%s]", t.Name, strings.Join(t.GenericParams, ", "))
	}
	return t.Name
}

// EnumVariant is either payload-less (Fields == nil) or carries an ordered
// list of field types.
type EnumVariant struct {
	Name   string
	Fields []Type // nil means a payload-less variant
}

// EnumType is a named nominal type with an ordered mapping of variant name
// to payload. Two EnumTypes compare equal by name only (§3.1).
type EnumType struct {
	Name          string
	VariantOrder  []string
	Variants      map[string]*EnumVariant
	GenericParams []string
}

func (*EnumType) isType() {}
func (t *EnumType) String() string {
	if len(t.GenericParams) > 0 {
		return fmt.Sprintf("%s[%s]", t.Name, strings.Join(t.GenericParams, ", "))
	}
	return t.Name
}

// GenericType is an instantiation `Name[T1,...,Tn]` of a base nominal type.
type GenericType struct {
	Name     string
	Base     Type // the struct/enum this instantiates, may be nil until resolved
	TypeArgs []Type
}

func (*GenericType) isType() {}
func (t *GenericType) String() string {
	parts := make([]string, len(t.TypeArgs))
	for i, a := range t.TypeArgs {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s[%s]", t.Name, strings.Join(parts, ", "))
}

type FunctionType struct {
	Params []Type
	Return Type // nil means no return (unit)
}

func (*FunctionType) isType() {}
func (t *FunctionType) String() string {
	parts := make([]string, len(t.Params))
	for i, p := range t.Params {
		parts[i] = p.String()
	}
	ret := ""
	if t.Return != nil {
		ret = fmt.Sprintf(" -> %s", t.Return)
	}
	return fmt.Sprintf("fn(%s)%s", strings.Join(parts, ", "), ret)
}

// TraitType is a named type with a mapping of method name to function type.
type TraitType struct {
	Name             string
	MethodOrder      []string
	Methods          map[string]*FunctionType
	GenericParams    []string
	AssociatedTypes  []string
}

func (*TraitType) isType() {}
func (t *TraitType) String() string {
	if len(t.GenericParams) > 0 {
		return fmt.Sprintf("%s[%s]", t.Name, strings.Join(t.GenericParams, ", "))
	}
	return t.Name
}

// OpaqueType has no observable structure; used at the FFI boundary.
type OpaqueType struct{ Name string }

func (*OpaqueType) isType()        {}
func (t *OpaqueType) String() string { return t.Name }

// TypeVariable is a bound generic parameter referenced by name.
type TypeVariable struct{ Name string }

func (*TypeVariable) isType()        {}
func (t *TypeVariable) String() string { return t.Name }

// --- Singletons, matching the reference implementation's module-level
// constants (types.py) so callers never need to allocate the common cases. ---

var (
	Int    = &IntType{Width: 32, Signed: true}
	I8     = &IntType{Width: 8, Signed: true}
	I16    = &IntType{Width: 16, Signed: true}
	I32    = &IntType{Width: 32, Signed: true}
	I64    = &IntType{Width: 64, Signed: true}
	U8     = &IntType{Width: 8, Signed: false}
	U16    = &IntType{Width: 16, Signed: false}
	U32    = &IntType{Width: 32, Signed: false}
	U64    = &IntType{Width: 64, Signed: false}
	F32    = &FloatType{Width: 32}
	F64    = &FloatType{Width: 64}
	Bool   = &BoolType{}
	Char   = &CharType{}
	String = &StringType{}
	Void   = &VoidType{}
	None   = &NoneKindType{}
	Unknown = &UnknownType{}
	Self   = &SelfType{}
)

// PrimitiveFromName implements §4.2's primitive_from_name.
func PrimitiveFromName(name string) (Type, bool) {
	switch name {
	case "int":
		return Int, true
	case "i8":
		return I8, true
	case "i16":
		return I16, true
	case "i32":
		return I32, true
	case "i64":
		return I64, true
	case "u8":
		return U8, true
	case "u16":
		return U16, true
	case "u32":
		return U32, true
	case "u64":
		return U64, true
	case "float", "f64":
		return F64, true
	case "f32":
		return F32, true
	case "bool":
		return Bool, true
	case "char":
		return Char, true
	case "String":
		return String, true
	case "void":
		return Void, true
	case "Self":
		return Self, true
	default:
		return nil, false
	}
}
