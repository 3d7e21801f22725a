package jit

// Builder constructs a flat Program one instruction at a time, numbering
// results as it goes — the straight-line counterpart of the teacher's
// basic-block IR builder.
type Builder struct {
	prog   *Program
	nextID int
}

// NewBuilder returns a Builder for a loop identified by (fn, loop) — the
// same key the hot-loop profiler uses.
func NewBuilder(fn string, loop int) *Builder {
	return &Builder{prog: &Program{Func: fn, Loop: loop}}
}

// Program returns the program built so far.
func (b *Builder) Program() *Program { return b.prog }

func (b *Builder) alloc(kind ValueKind) Value {
	v := Value{ID: b.nextID, Kind: kind}
	b.nextID++
	return v
}

func (b *Builder) emit(inst *Instruction) Value {
	b.prog.Instructions = append(b.prog.Instructions, inst)
	return inst.Result
}

// Const emits a load-const instruction and returns its value.
func (b *Builder) Const(kind ValueKind, lit interface{}) Value {
	result := b.alloc(kind)
	return b.emit(&Instruction{Op: OpLoadConst, Result: result, Const: lit})
}

// Arith emits a binary arithmetic instruction (add/sub/mul/div/mod).
func (b *Builder) Arith(op Op, kind ValueKind, lhs, rhs Value) Value {
	result := b.alloc(kind)
	return b.emit(&Instruction{Op: op, Result: result, Operands: []Value{lhs, rhs}})
}

// Compare emits a comparison instruction; its result is always KindBool.
func (b *Builder) Compare(op Op, lhs, rhs Value) Value {
	result := b.alloc(KindBool)
	return b.emit(&Instruction{Op: op, Result: result, Operands: []Value{lhs, rhs}})
}

// Convert emits a narrowing/widening conversion to kind.
func (b *Builder) Convert(kind ValueKind, src Value) Value {
	result := b.alloc(kind)
	return b.emit(&Instruction{Op: OpConvert, Result: result, Operands: []Value{src}})
}

// Concat emits a string concatenation.
func (b *Builder) Concat(lhs, rhs Value) Value {
	result := b.alloc(KindString)
	return b.emit(&Instruction{Op: OpConcat, Result: result, Operands: []Value{lhs, rhs}})
}

// CallHelper emits a call into a named runtime helper (the lifted shape of
// a CALL_NATIVE_R trampoline reached from inside the loop body).
func (b *Builder) CallHelper(kind ValueKind, name string, args ...Value) Value {
	result := b.alloc(kind)
	return b.emit(&Instruction{Op: OpCallHelper, Result: result, Operands: args, HelperName: name})
}

// Safepoint emits a bare safepoint instruction; its result carries no value
// and is never referenced by a later operand.
func (b *Builder) Safepoint() {
	b.emit(&Instruction{Op: OpSafepoint, Result: b.alloc(KindBool)})
}

// Return emits the program's terminating return of v.
func (b *Builder) Return(v Value) {
	b.emit(&Instruction{Op: OpReturn, Result: b.alloc(v.Kind), Operands: []Value{v}})
}
