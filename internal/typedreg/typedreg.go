// Package typedreg implements the typed-register cache (C6): a hot,
// per-register typed payload paired with the boxed register file, a dirty
// bit, and the reconciliation operations that keep the two views
// consistent per spec.md §3's Invariant A/B.
package typedreg

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/jordyorel/orus-lang-sub001/internal/value"
)

// TypedKind is the cache's own discriminator — a strict subset of
// value.Kind restricted to the fixed-width scalars the typed cache can
// hold directly.
type TypedKind uint8

const (
	TypedNone TypedKind = iota
	TypedI32
	TypedI64
	TypedU32
	TypedU64
	TypedF64
	TypedBool
)

type cell struct {
	kind    TypedKind
	payload uint64
	dirty   bool
}

// File pairs a boxed register file (size n, storing value.Value) with a
// parallel typed cache of the same size.
type File struct {
	boxed []value.Value
	typed []cell
}

// New returns a File with n registers, all boxed cells nil-valued
// (value.Nil) and all typed cells TypedNone/clean.
func New(n int) *File {
	f := &File{
		boxed: make([]value.Value, n),
		typed: make([]cell, n),
	}
	for i := range f.boxed {
		f.boxed[i] = value.Nil
	}
	return f
}

// Len returns the register count.
func (f *File) Len() int { return len(f.boxed) }

// storeTypedHot sets kind/payload and marks dirty without touching the
// boxed cell — the write-back law is deferred to reconciliation.
func (f *File) storeTypedHot(reg int, kind TypedKind, payload uint64) {
	f.typed[reg] = cell{kind: kind, payload: payload, dirty: true}
}

func (f *File) StoreI32TypedHot(reg int, v int32) { f.storeTypedHot(reg, TypedI32, uint64(uint32(v))) }
func (f *File) StoreI64TypedHot(reg int, v int64) { f.storeTypedHot(reg, TypedI64, uint64(v)) }
func (f *File) StoreU32TypedHot(reg int, v uint32) { f.storeTypedHot(reg, TypedU32, uint64(v)) }
func (f *File) StoreU64TypedHot(reg int, v uint64) { f.storeTypedHot(reg, TypedU64, v) }
func (f *File) StoreF64TypedHot(reg int, v float64) {
	f.storeTypedHot(reg, TypedF64, floatBits(v))
}
func (f *File) StoreBoolTypedHot(reg int, v bool) {
	var bits uint64
	if v {
		bits = 1
	}
	f.storeTypedHot(reg, TypedBool, bits)
}

// TryReadI32Typed returns the cached value without clearing dirty. ok is
// false when the cache is cold (kind mismatch).
func (f *File) TryReadI32Typed(reg int) (v int32, ok bool) {
	c := f.typed[reg]
	if c.kind != TypedI32 {
		return 0, false
	}
	return int32(uint32(c.payload)), true
}

func (f *File) TryReadI64Typed(reg int) (int64, bool) {
	c := f.typed[reg]
	if c.kind != TypedI64 {
		return 0, false
	}
	return int64(c.payload), true
}

func (f *File) TryReadF64Typed(reg int) (float64, bool) {
	c := f.typed[reg]
	if c.kind != TypedF64 {
		return 0, false
	}
	return floatFromBits(c.payload), true
}

func (f *File) TryReadBoolTyped(reg int) (bool, bool) {
	c := f.typed[reg]
	if c.kind != TypedBool {
		return false, false
	}
	return c.payload != 0, true
}

// IsDirty reports whether reg's typed cell has not yet been written back.
func (f *File) IsDirty(reg int) bool { return f.typed[reg].dirty }

// IncI32 and DecI32 operate directly on the typed cache and do NOT clear dirty (spec.md §4.5): reconciliation happens
// later, on demand.
func (f *File) IncI32(reg int) {
	c := &f.typed[reg]
	*c = cell{kind: TypedI32, payload: uint64(uint32(int32(uint32(c.payload)) + 1)), dirty: true}
}

func (f *File) DecI32(reg int) {
	c := &f.typed[reg]
	*c = cell{kind: TypedI32, payload: uint64(uint32(int32(uint32(c.payload)) - 1)), dirty: true}
}

// SetRegisterSafe writes the boxed cell directly. When v is a primitive
// kind the typed cache is updated in lock-step and dirty is cleared
// (write-through), per spec.md §4.5.
func (f *File) SetRegisterSafe(reg int, v value.Value) {
	f.boxed[reg] = v
	switch v.Kind {
	case value.KindI32:
		f.typed[reg] = cell{kind: TypedI32, payload: v.Bits, dirty: false}
	case value.KindI64:
		f.typed[reg] = cell{kind: TypedI64, payload: v.Bits, dirty: false}
	case value.KindU32:
		f.typed[reg] = cell{kind: TypedU32, payload: v.Bits, dirty: false}
	case value.KindU64:
		f.typed[reg] = cell{kind: TypedU64, payload: v.Bits, dirty: false}
	case value.KindF64:
		f.typed[reg] = cell{kind: TypedF64, payload: v.Bits, dirty: false}
	case value.KindBool:
		f.typed[reg] = cell{kind: TypedBool, payload: v.Bits, dirty: false}
	default:
		f.typed[reg] = cell{}
	}
}

// SetBoxedOnly writes the boxed cell without touching the typed cache,
// leaving it cold. Used by code paths that only ever see the boxed view
// (e.g. module export initialisation); RehydrateFromBoxed is the intended
// way to bring the typed cache back in sync afterward.
func (f *File) SetBoxedOnly(reg int, v value.Value) {
	f.boxed[reg] = v
}

// GetRegisterSafe reconciles reg (if dirty) and returns its boxed Value.
func (f *File) GetRegisterSafe(reg int) value.Value {
	return f.ReconcileTypedRegister(reg)
}

// ReconcileTypedRegister writes a dirty typed cell back into the boxed
// file and clears dirty, restoring Invariant B. If the cell is clean, the
// existing boxed value is returned unchanged.
func (f *File) ReconcileTypedRegister(reg int) value.Value {
	c := &f.typed[reg]
	if !c.dirty {
		return f.boxed[reg]
	}
	var v value.Value
	switch c.kind {
	case TypedI32:
		v = value.I32(int32(uint32(c.payload)))
	case TypedI64:
		v = value.I64(int64(c.payload))
	case TypedU32:
		v = value.U32(uint32(c.payload))
	case TypedU64:
		v = value.U64(c.payload)
	case TypedF64:
		v = value.F64(floatFromBits(c.payload))
	case TypedBool:
		v = value.Bool(c.payload != 0)
	default:
		v = f.boxed[reg]
	}
	f.boxed[reg] = v
	c.dirty = false
	return v
}

// RehydrateFromBoxed is the fallback path (spec.md §4.5): when a typed
// opcode finds the cache cold but the boxed cell already holds a matching
// primitive, it rehydrates the typed cache clean (dirty=false), restoring
// Invariant B without a write-back.
func (f *File) RehydrateFromBoxed(reg int) {
	v := f.boxed[reg]
	switch v.Kind {
	case value.KindI32:
		f.typed[reg] = cell{kind: TypedI32, payload: v.Bits, dirty: false}
	case value.KindI64:
		f.typed[reg] = cell{kind: TypedI64, payload: v.Bits, dirty: false}
	case value.KindU32:
		f.typed[reg] = cell{kind: TypedU32, payload: v.Bits, dirty: false}
	case value.KindU64:
		f.typed[reg] = cell{kind: TypedU64, payload: v.Bits, dirty: false}
	case value.KindF64:
		f.typed[reg] = cell{kind: TypedF64, payload: v.Bits, dirty: false}
	case value.KindBool:
		f.typed[reg] = cell{kind: TypedBool, payload: v.Bits, dirty: false}
	}
}

// DebugDump renders every non-empty register (boxed + typed, dirty bits) as
// a spew dump, for diagnosing reconciliation bugs.
func (f *File) DebugDump() string {
	type dumpCell struct {
		Reg     int
		Boxed   string
		Typed   TypedKind
		Payload uint64
		Dirty   bool
	}
	var rows []dumpCell
	for i := range f.boxed {
		if f.typed[i].kind == TypedNone && f.boxed[i].Kind == value.KindNil {
			continue
		}
		rows = append(rows, dumpCell{
			Reg:     i,
			Boxed:   f.boxed[i].String(),
			Typed:   f.typed[i].kind,
			Payload: f.typed[i].payload,
			Dirty:   f.typed[i].dirty,
		})
	}
	return spew.Sdump(rows)
}

func (k TypedKind) String() string {
	switch k {
	case TypedNone:
		return "none"
	case TypedI32:
		return "i32"
	case TypedI64:
		return "i64"
	case TypedU32:
		return "u32"
	case TypedU64:
		return "u64"
	case TypedF64:
		return "f64"
	case TypedBool:
		return "bool"
	default:
		return fmt.Sprintf("typedkind(%d)", k)
	}
}
