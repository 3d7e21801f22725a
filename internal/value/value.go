// Package value implements the tagged Value union every register cell and
// constant-pool slot stores (C1), plus the string/type/variant intern table
// the rest of the core shares.
package value

import (
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
)

// Kind is the discriminator of a Value's variant.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindI32
	KindI64
	KindU32
	KindU64
	KindF64
	KindString
	KindBytes
	KindArray
	KindEnumInstance
	KindError
)

var kindNames = [...]string{
	KindNil:          "nil",
	KindBool:         "bool",
	KindI32:          "i32",
	KindI64:          "i64",
	KindU32:          "u32",
	KindU64:          "u64",
	KindF64:          "f64",
	KindString:       "string",
	KindBytes:        "bytes",
	KindArray:        "array",
	KindEnumInstance: "enum-instance",
	KindError:        "error",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// IsPrimitive reports whether k is one of the fixed-width scalar kinds the
// typed-register cache (C6) can hold directly.
func (k Kind) IsPrimitive() bool {
	switch k {
	case KindBool, KindI32, KindI64, KindU32, KindU64, KindF64:
		return true
	default:
		return false
	}
}

// Object is the heap-allocated payload backing the string, bytes, array,
// enum-instance, and error variants. Object identity (not value equality) is
// what a Value's Obj pointer carries; the bump allocator (internal/heap) is
// the only thing that constructs one.
type Object struct {
	Kind  Kind
	Str   string        // KindString, KindError (message)
	Bytes []byte        // KindBytes
	Array []Value       // KindArray
	Enum  *EnumInstance // KindEnumInstance
}

// EnumInstance is a tagged-union instance: a Result.Ok/Err or user enum value.
type EnumInstance struct {
	TypeName     string
	VariantName  string
	VariantIndex int
	Payload      []Value // nil when the variant carries no payload
}

// Value is the tagged union every register cell holds. Primitive kinds pack
// their payload into Bits (bit-reinterpreted, never sign/zero-extended
// implicitly); heap kinds carry an *Object.
type Value struct {
	Kind Kind
	Bits uint64
	Obj  *Object
}

// Nil is the canonical nil value.
var Nil = Value{Kind: KindNil}

func Bool(b bool) Value {
	var bits uint64
	if b {
		bits = 1
	}
	return Value{Kind: KindBool, Bits: bits}
}

func I32(n int32) Value { return Value{Kind: KindI32, Bits: uint64(uint32(n))} }
func I64(n int64) Value { return Value{Kind: KindI64, Bits: uint64(n)} }
func U32(n uint32) Value { return Value{Kind: KindU32, Bits: uint64(n)} }
func U64(n uint64) Value { return Value{Kind: KindU64, Bits: n} }
func F64(f float64) Value { return Value{Kind: KindF64, Bits: math.Float64bits(f)} }

func Str(obj *Object) Value  { return Value{Kind: KindString, Obj: obj} }
func Bytes(obj *Object) Value { return Value{Kind: KindBytes, Obj: obj} }
func Array(obj *Object) Value { return Value{Kind: KindArray, Obj: obj} }
func Enum(obj *Object) Value  { return Value{Kind: KindEnumInstance, Obj: obj} }
func Err(obj *Object) Value   { return Value{Kind: KindError, Obj: obj} }

func (v Value) AsBool() bool    { return v.Bits != 0 }
func (v Value) AsI32() int32    { return int32(uint32(v.Bits)) }
func (v Value) AsI64() int64    { return int64(v.Bits) }
func (v Value) AsU32() uint32   { return uint32(v.Bits) }
func (v Value) AsU64() uint64   { return v.Bits }
func (v Value) AsF64() float64  { return math.Float64frombits(v.Bits) }
func (v Value) AsString() string {
	if v.Obj == nil {
		return ""
	}
	return v.Obj.Str
}

// Equal reports bit-for-bit, object-identity equality — the comparison the
// typed-cache write-back law and VM equality opcodes rely on.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	if v.Kind.IsPrimitive() || v.Kind == KindNil {
		return v.Bits == other.Bits
	}
	return v.Obj == other.Obj
}

func (v Value) String() string {
	switch v.Kind {
	case KindNil:
		return "nil"
	case KindBool:
		return fmt.Sprintf("%t", v.AsBool())
	case KindI32:
		return fmt.Sprintf("%d", v.AsI32())
	case KindI64:
		return fmt.Sprintf("%d", v.AsI64())
	case KindU32:
		return fmt.Sprintf("%d", v.AsU32())
	case KindU64:
		return fmt.Sprintf("%d", v.AsU64())
	case KindF64:
		return fmt.Sprintf("%g", v.AsF64())
	case KindString:
		return v.AsString()
	case KindBytes:
		if v.Obj == nil {
			return "bytes()"
		}
		return fmt.Sprintf("bytes(%d)", len(v.Obj.Bytes))
	case KindArray:
		if v.Obj == nil {
			return "[]"
		}
		return fmt.Sprintf("array(%d)", len(v.Obj.Array))
	case KindEnumInstance:
		if v.Obj == nil || v.Obj.Enum == nil {
			return "enum(?)"
		}
		return fmt.Sprintf("%s.%s", v.Obj.Enum.TypeName, v.Obj.Enum.VariantName)
	case KindError:
		if v.Obj == nil {
			return "error"
		}
		return "error: " + v.Obj.Str
	default:
		return "<invalid>"
	}
}

// InternTable deduplicates strings shared across a VM's lifetime: type
// names, variant names, and any other identifier the runtime needs to
// compare by identity rather than by repeated byte comparison. Hashing uses
// xxhash rather than a hand-rolled function so bucket distribution matches
// the rest of the pack's cache-key hashing.
type InternTable struct {
	buckets map[uint64][]string
}

// NewInternTable returns an empty InternTable.
func NewInternTable() *InternTable {
	return &InternTable{buckets: make(map[uint64][]string)}
}

// Intern returns the canonical instance of s, allocating a new entry only the
// first time s is seen.
func (t *InternTable) Intern(s string) string {
	h := xxhash.Sum64String(s)
	for _, existing := range t.buckets[h] {
		if existing == s {
			return existing
		}
	}
	t.buckets[h] = append(t.buckets[h], s)
	return s
}

// Len returns the number of distinct interned strings.
func (t *InternTable) Len() int {
	n := 0
	for _, bucket := range t.buckets {
		n += len(bucket)
	}
	return n
}
