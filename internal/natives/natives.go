// Package natives implements the host intrinsic registry (C14): the table
// @[core("symbol")] function declarations resolve against, and CALL_NATIVE_R
// dispatches through at runtime. Every registered intrinsic is unary (one
// argument, one result), which is what lets the compiler's trampoline
// emission (internal/compiler) and CALL_NATIVE_R's encoding (internal/
// bytecode) stay fixed-width instead of per-arity.
package natives

import (
	"fmt"
	"math"

	"golang.org/x/crypto/sha3"

	"github.com/jordyorel/orus-lang-sub001/internal/heap"
	"github.com/jordyorel/orus-lang-sub001/internal/value"
)

// Signature is a unary intrinsic's parameter and return Value kind.
type Signature struct {
	Param  value.Kind
	Return value.Kind
}

// Fn is the host implementation behind one intrinsic symbol. h is the
// calling VM's heap, needed by intrinsics that allocate (hashes return
// KindBytes objects).
type Fn func(in value.Value, h *heap.Heap) (value.Value, error)

// Descriptor is one registered intrinsic: its symbol, dispatch index, and
// signature, plus the Go implementation CALL_NATIVE_R invokes.
type Descriptor struct {
	Symbol    string
	Index     uint16
	Signature Signature
	Call      Fn
}

// Registry is the symbol table CALL_NATIVE_R's u16 intrinsic index resolves
// through, and @[core("...")] function declarations resolve against at
// compile time.
type Registry struct {
	bySymbol map[string]*Descriptor
	byIndex  []*Descriptor
}

// New returns a Registry pre-populated with this module's built-in
// intrinsics: SHA3-256 and SHAKE256 hashing, and the sin/cos/sqrt transcendental
// functions.
func New() *Registry {
	r := &Registry{bySymbol: make(map[string]*Descriptor)}
	r.Register("__orus_sha3_256", Signature{Param: value.KindBytes, Return: value.KindBytes}, sha3256)
	r.Register("__orus_shake256", Signature{Param: value.KindBytes, Return: value.KindBytes}, shake256)
	r.Register("__orus_sin", Signature{Param: value.KindF64, Return: value.KindF64}, unaryMath(math.Sin))
	r.Register("__orus_cos", Signature{Param: value.KindF64, Return: value.KindF64}, unaryMath(math.Cos))
	r.Register("__orus_sqrt", Signature{Param: value.KindF64, Return: value.KindF64}, unaryMath(math.Sqrt))
	return r
}

// Register assigns symbol the next dispatch index and records fn as its
// implementation. Returns the assigned index.
func (r *Registry) Register(symbol string, sig Signature, fn Fn) uint16 {
	idx := uint16(len(r.byIndex))
	d := &Descriptor{Symbol: symbol, Index: idx, Signature: sig, Call: fn}
	r.bySymbol[symbol] = d
	r.byIndex = append(r.byIndex, d)
	return idx
}

// Lookup resolves symbol to its descriptor, as the compiler does when it
// encounters a @[core("symbol")] function declaration.
func (r *Registry) Lookup(symbol string) (*Descriptor, bool) {
	d, ok := r.bySymbol[symbol]
	return d, ok
}

// ByIndex resolves a CALL_NATIVE_R dispatch index to its descriptor, as the
// dispatch loop does on every intrinsic call.
func (r *Registry) ByIndex(idx uint16) (*Descriptor, bool) {
	if int(idx) >= len(r.byIndex) {
		return nil, false
	}
	return r.byIndex[idx], true
}

// Len reports how many intrinsics are registered.
func (r *Registry) Len() int { return len(r.byIndex) }

func bytesOf(v value.Value) ([]byte, error) {
	switch v.Kind {
	case value.KindBytes:
		if v.Obj == nil {
			return nil, nil
		}
		return v.Obj.Bytes, nil
	case value.KindString:
		return []byte(v.AsString()), nil
	default:
		return nil, fmt.Errorf("natives: expected bytes or string, got %s", v.Kind)
	}
}

func sha3256(in value.Value, h *heap.Heap) (value.Value, error) {
	data, err := bytesOf(in)
	if err != nil {
		return value.Nil, err
	}
	sum := sha3.Sum256(data)
	obj := h.NewBytes(sum[:])
	return value.Bytes(obj), nil
}

// shake256OutputLen is the fixed output length this unary intrinsic produces.
// A variable-length SHAKE256 would need a second argument, which CALL_NATIVE_R
// cannot carry (spec.md §6 fixes it to one argument register).
const shake256OutputLen = 32

func shake256(in value.Value, h *heap.Heap) (value.Value, error) {
	data, err := bytesOf(in)
	if err != nil {
		return value.Nil, err
	}
	out := make([]byte, shake256OutputLen)
	sha3.ShakeSum256(out, data)
	obj := h.NewBytes(out)
	return value.Bytes(obj), nil
}

func unaryMath(f func(float64) float64) Fn {
	return func(in value.Value, h *heap.Heap) (value.Value, error) {
		if in.Kind != value.KindF64 {
			return value.Nil, fmt.Errorf("natives: expected f64, got %s", in.Kind)
		}
		return value.F64(f(in.AsF64())), nil
	}
}
