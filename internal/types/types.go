// Package types defines the Orus language type system used by the front end
// checker (C12) to annotate the AST before it reaches the compiler.
//
// Design principles:
//   - Value types only: every Orus type is freely copyable, there is no
//     linear/ownership tracking in this subset of the language.
//   - Kind mirrors the Value variants the VM's register file actually stores
//     (C1), so the checker's output maps directly onto compiler decisions
//     about which typed opcode family to emit.
package types

import (
	"fmt"
	"strings"
)

// Kind categorizes the fundamental shape of a type, one entry per Value
// variant the VM understands.
type Kind int

const (
	KindVoid Kind = iota
	KindBool
	KindI32
	KindI64
	KindU32
	KindU64
	KindF64
	KindString
	KindBytes
	KindArray
	KindEnumInstance // tagged-union instance, e.g. Result<T>
	KindError
	KindNil
	KindFn
)

var kindNames = [...]string{
	KindVoid:         "void",
	KindBool:         "bool",
	KindI32:          "i32",
	KindI64:          "i64",
	KindU32:          "u32",
	KindU64:          "u64",
	KindF64:          "f64",
	KindString:       "string",
	KindBytes:        "bytes",
	KindArray:        "array",
	KindEnumInstance: "enum_instance",
	KindError:        "error",
	KindNil:          "nil",
	KindFn:           "fn",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// IsInteger reports whether k is one of the fixed-width integer kinds.
func (k Kind) IsInteger() bool {
	switch k {
	case KindI32, KindI64, KindU32, KindU64:
		return true
	default:
		return false
	}
}

// IsNumeric reports whether k supports arithmetic operators.
func (k Kind) IsNumeric() bool {
	return k.IsInteger() || k == KindF64
}

// Type is the interface every Orus type implements.
type Type interface {
	Kind() Kind
	String() string
	Equals(other Type) bool
}

// primitiveType is the concrete implementation for all built-in scalar types.
type primitiveType struct {
	kind Kind
}

func (p *primitiveType) Kind() Kind   { return p.kind }
func (p *primitiveType) String() string { return p.kind.String() }
func (p *primitiveType) Equals(other Type) bool {
	return other != nil && p.kind == other.Kind()
}

// Pre-allocated singletons for all primitive types.
var (
	Void   Type = &primitiveType{kind: KindVoid}
	Bool   Type = &primitiveType{kind: KindBool}
	I32    Type = &primitiveType{kind: KindI32}
	I64    Type = &primitiveType{kind: KindI64}
	U32    Type = &primitiveType{kind: KindU32}
	U64    Type = &primitiveType{kind: KindU64}
	F64    Type = &primitiveType{kind: KindF64}
	String Type = &primitiveType{kind: KindString}
	Bytes  Type = &primitiveType{kind: KindBytes}
	Nil    Type = &primitiveType{kind: KindNil}
	Error  Type = &primitiveType{kind: KindError}
)

// FromName resolves a grammar type keyword (i32, u64, bool, ...) to its
// singleton Type, reporting false for anything the checker doesn't accept as
// a declared type.
func FromName(name string) (Type, bool) {
	switch name {
	case "i32":
		return I32, true
	case "i64":
		return I64, true
	case "u32":
		return U32, true
	case "u64":
		return U64, true
	case "f64":
		return F64, true
	case "bool":
		return Bool, true
	case "string":
		return String, true
	default:
		return nil, false
	}
}

// ArrayType is a dynamically-sized homogeneous array.
type ArrayType struct {
	Elem Type
}

func (a *ArrayType) Kind() Kind   { return KindArray }
func (a *ArrayType) String() string { return fmt.Sprintf("[%s]", a.Elem) }
func (a *ArrayType) Equals(other Type) bool {
	o, ok := other.(*ArrayType)
	return ok && a.Elem.Equals(o.Elem)
}

// EnumType describes a tagged union, e.g. Result<T> with variants Ok(T) and
// Err(string).
type EnumType struct {
	Name     string
	Variants []Variant
}

// Variant is one arm of an EnumType.
type Variant struct {
	Name string
	Payload Type // nil for a unit variant
}

func (e *EnumType) Kind() Kind { return KindEnumInstance }
func (e *EnumType) String() string {
	names := make([]string, len(e.Variants))
	for i, v := range e.Variants {
		names[i] = v.Name
	}
	return fmt.Sprintf("%s { %s }", e.Name, strings.Join(names, " | "))
}
func (e *EnumType) Equals(other Type) bool {
	o, ok := other.(*EnumType)
	return ok && e.Name == o.Name
}

// Result is the built-in Result<T> tagged union every Orus program may
// construct via Result.Ok(v) / Result.Err(v).
func Result(payload Type) *EnumType {
	return &EnumType{
		Name: "Result",
		Variants: []Variant{
			{Name: "Ok", Payload: payload},
			{Name: "Err", Payload: String},
		},
	}
}

// FnType describes a function signature.
type FnType struct {
	Params []Type
	Return Type // nil means void
}

func (f *FnType) Kind() Kind { return KindFn }
func (f *FnType) String() string {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.String()
	}
	ret := "void"
	if f.Return != nil {
		ret = f.Return.String()
	}
	return fmt.Sprintf("fn(%s) -> %s", strings.Join(params, ", "), ret)
}
func (f *FnType) Equals(other Type) bool {
	o, ok := other.(*FnType)
	if !ok || len(f.Params) != len(o.Params) {
		return false
	}
	for i := range f.Params {
		if !f.Params[i].Equals(o.Params[i]) {
			return false
		}
	}
	if f.Return == nil || o.Return == nil {
		return f.Return == o.Return
	}
	return f.Return.Equals(o.Return)
}
