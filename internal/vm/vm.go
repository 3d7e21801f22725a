// Package vm implements the register VM dispatch loop (C7): it consumes the
// byte stream internal/compiler emits, mutating internal/typedreg's boxed
// and typed views jointly, issuing calls into internal/tagged and
// internal/natives, and ticking internal/profiler on every loop back-edge.
package vm

import (
	"fmt"

	"github.com/jordyorel/orus-lang-sub001/internal/bytecode"
	"github.com/jordyorel/orus-lang-sub001/internal/compiler"
	"github.com/jordyorel/orus-lang-sub001/internal/diag"
	"github.com/jordyorel/orus-lang-sub001/internal/heap"
	"github.com/jordyorel/orus-lang-sub001/internal/natives"
	"github.com/jordyorel/orus-lang-sub001/internal/profiler"
	"github.com/jordyorel/orus-lang-sub001/internal/tagged"
	"github.com/jordyorel/orus-lang-sub001/internal/token"
	"github.com/jordyorel/orus-lang-sub001/internal/typedreg"
	"github.com/jordyorel/orus-lang-sub001/internal/value"
)

// Result is the dispatch loop's outcome, exactly spec.md §4.6's three-way
// contract.
type Result int

const (
	OK Result = iota
	CompileError
	RuntimeError
)

func (r Result) String() string {
	switch r {
	case OK:
		return "OK"
	case CompileError:
		return "COMPILE_ERROR"
	case RuntimeError:
		return "RUNTIME_ERROR"
	default:
		return fmt.Sprintf("result(%d)", int(r))
	}
}

// activation is one call frame: the chunk being executed, its instruction
// pointer, its own local register window ([0,LocalRegEnd)), its own
// span-spill window ([SpanRegStart,RegisterCount)), and the register in the
// caller's window awaiting this frame's return value. Spans are per-activation
// rather than carved out of the VM-wide globals file so that a callee's
// typed-span temporaries never alias a suspended caller's.
type activation struct {
	chunk     *bytecode.Chunk
	ip        int
	locals    *typedreg.File
	spans     *typedreg.File
	resultReg int
}

// VM executes one compiler.Program. Its globals register band and heap
// outlive any single activation; everything else is pushed and popped per
// call, so a callee's local temporaries never alias a caller's.
type VM struct {
	globals   *typedreg.File
	heap      *heap.Heap
	interned  *value.InternTable
	natives   *natives.Registry
	functions []*bytecode.Chunk
	profiler  *profiler.Profiler

	lastError *diag.RuntimeError
}

// New returns a VM bound to prog's compiled functions, ready to Run. h is
// the heap every heap-allocated Value this run produces is owned by;
// nativeReg must be the same registry the program was compiled against (its
// CALL_NATIVE_R indices must resolve to the same descriptors).
func New(prog *compiler.Program, nativeReg *natives.Registry, h *heap.Heap) *VM {
	functions := make([]*bytecode.Chunk, len(prog.FunctionOrder))
	for i, name := range prog.FunctionOrder {
		functions[i] = prog.Functions[name]
	}
	return &VM{
		globals:   typedreg.New(compiler.GlobalRegEnd - compiler.GlobalRegStart),
		heap:      h,
		interned:  value.NewInternTable(),
		natives:   nativeReg,
		functions: functions,
		profiler:  profiler.New(),
	}
}

// LastError returns the runtime error that caused the most recent Run to
// return RuntimeError, or nil.
func (vm *VM) LastError() *diag.RuntimeError { return vm.lastError }

// Global returns the current boxed value of the global register at physical
// id reg (as recorded in compiler.Program.Globals), reconciling first.
func (vm *VM) Global(reg int) value.Value {
	return vm.globals.GetRegisterSafe(reg - compiler.GlobalRegStart)
}

// Run executes prog.Main (the top-level script, which initializes every
// global) and then, if prog declares a function named entryFn, calls it as
// the program's entry point. A program with no such function still runs its
// globals and halts cleanly — Orus source files are scripts first.
func (vm *VM) Run(prog *compiler.Program, entryFn string) (Result, value.Value) {
	if !prog.Main.Sealed() {
		return CompileError, value.Nil
	}
	res, v := vm.execute(prog.Main)
	if res != OK {
		return res, v
	}
	entry, ok := prog.Functions[entryFn]
	if !ok {
		return OK, value.Nil
	}
	if !entry.Sealed() {
		return CompileError, value.Nil
	}
	return vm.execute(entry)
}

// execute runs chunk as a fresh call stack rooted at a single activation,
// returning once that root activation (and anything it transitively calls)
// has returned.
func (vm *VM) execute(chunk *bytecode.Chunk) (Result, value.Value) {
	stack := []*activation{{
		chunk:     chunk,
		locals:    typedreg.New(compiler.LocalRegEnd - compiler.FrameRegStart),
		spans:     typedreg.New(compiler.RegisterCount - compiler.SpanRegStart),
		resultReg: -1,
	}}

	for {
		act := stack[len(stack)-1]
		code := act.chunk.Code()
		if act.ip >= len(code) {
			return vm.fail(act, diag.Internal, "ip %d ran past end of chunk (%d bytes)", act.ip, len(code))
		}

		op := bytecode.Opcode(code[act.ip])
		switch op {
		case bytecode.OpHalt:
			act.ip++
			return OK, value.Nil

		case bytecode.OpJump:
			disp := readS16(code, act.ip+1)
			act.ip = act.ip + 3 + disp

		case bytecode.OpJumpShort:
			disp := int(code[act.ip+1])
			act.ip = act.ip + 2 + disp

		case bytecode.OpLoop:
			back := int(readU16(code, act.ip+1))
			target := act.ip + 3 - back
			act.ip = target
			vm.tickLoop(act.chunk.File, target)

		case bytecode.OpLoopShort:
			back := int(code[act.ip+1])
			target := act.ip + 2 - back
			act.ip = target
			vm.tickLoop(act.chunk.File, target)

		case bytecode.OpJumpIfNotR:
			reg := int(code[act.ip+1])
			disp := readS16(code, act.ip+2)
			cond := vm.get(act, reg)
			act.ip += 4
			if !cond.AsBool() {
				act.ip += disp
			}

		case bytecode.OpJumpIfNotI32Typed:
			reg := int(code[act.ip+1])
			aux := code[act.ip+2]
			disp := readS16(code, act.ip+3)
			i := vm.readI32Typed(act, reg)
			end := vm.readI32Typed(act, reg+1)
			act.ip += 5
			stop := i >= end
			if aux == 1 {
				stop = i <= end
			}
			if stop {
				act.ip += disp
			}

		case bytecode.OpAddI32Typed:
			dst, lhs, rhs := int(code[act.ip+1]), int(code[act.ip+2]), int(code[act.ip+3])
			act.ip += 4
			a := vm.readI32Typed(act, lhs)
			b := vm.readI32Typed(act, rhs)
			sum := int64(a) + int64(b)
			if sum < minI32 || sum > maxI32 {
				return vm.fail(act, diag.Value, "i32 add overflow: %d + %d", a, b)
			}
			vm.storeI32Typed(act, dst, int32(sum))

		case bytecode.OpMulI32Imm:
			dst, src := int(code[act.ip+1]), int(code[act.ip+2])
			imm := readS32(code, act.ip+3)
			act.ip += 7
			a := vm.readI32Typed(act, src)
			product := int64(a) * int64(imm)
			if product < minI32 || product > maxI32 {
				return vm.fail(act, diag.Value, "i32 mul overflow: %d * %d", a, imm)
			}
			vm.storeI32Typed(act, dst, int32(product))

		case bytecode.OpIncI32R:
			reg := int(code[act.ip+1])
			act.ip += 2
			vm.incI32Typed(act, reg)

		case bytecode.OpDecI32R:
			reg := int(code[act.ip+1])
			act.ip += 2
			vm.decI32Typed(act, reg)

		case bytecode.OpIncI64R, bytecode.OpDecI64R, bytecode.OpIncU32R, bytecode.OpDecU32R,
			bytecode.OpIncU64R, bytecode.OpDecU64R, bytecode.OpIncF64R, bytecode.OpDecF64R:
			reg := int(code[act.ip+1])
			act.ip += 2
			vm.execTypedIncDec(act, op, reg)

		case bytecode.OpLoadGlobal:
			dst, idx := int(code[act.ip+1]), int(code[act.ip+2])
			act.ip += 3
			v := vm.globals.GetRegisterSafe(idx)
			vm.set(act, dst, v)

		case bytecode.OpStoreGlobal:
			src, idx := int(code[act.ip+1]), int(code[act.ip+2])
			act.ip += 3
			v := vm.get(act, src)
			vm.globals.SetRegisterSafe(idx, v)

		case bytecode.OpCallNativeR:
			idx := readU16(code, act.ip+1)
			argReg, dstReg := int(code[act.ip+3]), int(code[act.ip+4])
			act.ip += 5
			d, ok := vm.natives.ByIndex(idx)
			if !ok {
				return vm.fail(act, diag.Name, "call to unregistered intrinsic index %d", idx)
			}
			out, err := d.Call(vm.get(act, argReg), vm.heap)
			if err != nil {
				return vm.fail(act, diag.Value, "intrinsic %q: %v", d.Symbol, err)
			}
			vm.set(act, dstReg, out)

		case bytecode.OpCallR:
			fnIdx := readU16(code, act.ip+1)
			argc := int(code[act.ip+3])
			argRegs := make([]int, argc)
			for i := 0; i < argc; i++ {
				argRegs[i] = int(code[act.ip+4+i])
			}
			dstReg := int(code[act.ip+4+argc])
			act.ip += 5 + argc

			if int(fnIdx) >= len(vm.functions) {
				return vm.fail(act, diag.Name, "call to undefined function index %d", fnIdx)
			}
			argVals := make([]value.Value, argc)
			for i, r := range argRegs {
				argVals[i] = vm.get(act, r)
			}
			callee := &activation{
				chunk:     vm.functions[fnIdx],
				locals:    typedreg.New(compiler.LocalRegEnd - compiler.FrameRegStart),
				spans:     typedreg.New(compiler.RegisterCount - compiler.SpanRegStart),
				resultReg: dstReg,
			}
			for i, v := range argVals {
				callee.locals.SetRegisterSafe(i, v)
			}
			stack = append(stack, callee)

		case bytecode.OpReturnR:
			reg := int(code[act.ip+1])
			v := vm.get(act, reg)
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return OK, v
			}
			caller := stack[len(stack)-1]
			vm.set(caller, act.resultReg, v)

		case bytecode.OpLoadConst:
			dst := int(code[act.ip+1])
			idx := readU16(code, act.ip+2)
			act.ip += 4
			vm.set(act, dst, act.chunk.Constant(idx))

		case bytecode.OpLoadTrue:
			dst := int(code[act.ip+1])
			act.ip += 2
			vm.set(act, dst, value.Bool(true))

		case bytecode.OpLoadFalse:
			dst := int(code[act.ip+1])
			act.ip += 2
			vm.set(act, dst, value.Bool(false))

		case bytecode.OpLoadNil:
			dst := int(code[act.ip+1])
			act.ip += 2
			vm.set(act, dst, value.Nil)

		case bytecode.OpMove:
			dst, src := int(code[act.ip+1]), int(code[act.ip+2])
			act.ip += 3
			vm.set(act, dst, vm.get(act, src))

		case bytecode.OpAddR, bytecode.OpSubR, bytecode.OpMulR, bytecode.OpDivR, bytecode.OpModR,
			bytecode.OpEqR, bytecode.OpNeqR, bytecode.OpLtR, bytecode.OpLteR, bytecode.OpGtR, bytecode.OpGteR:
			dst, lhs, rhs := int(code[act.ip+1]), int(code[act.ip+2]), int(code[act.ip+3])
			act.ip += 4
			result, err := binaryOp(op, vm.get(act, lhs), vm.get(act, rhs), vm.heap)
			if err != nil {
				return vm.fail(act, diag.Value, "%v", err)
			}
			vm.set(act, dst, result)

		case bytecode.OpNegR:
			dst, src := int(code[act.ip+1]), int(code[act.ip+2])
			act.ip += 3
			result, err := negate(vm.get(act, src))
			if err != nil {
				return vm.fail(act, diag.Value, "%v", err)
			}
			vm.set(act, dst, result)

		case bytecode.OpNotR:
			dst, src := int(code[act.ip+1]), int(code[act.ip+2])
			act.ip += 3
			vm.set(act, dst, value.Bool(!vm.get(act, src).AsBool()))

		case bytecode.OpMakeEnum:
			dst := int(code[act.ip+1])
			typeIdx := readU16(code, act.ip+2)
			variantIdx := readU16(code, act.ip+4)
			variantNum := int(code[act.ip+6])
			payloadArgc := int(code[act.ip+7])
			payloadRegs := make([]int, payloadArgc)
			for i := 0; i < payloadArgc; i++ {
				payloadRegs[i] = int(code[act.ip+8+i])
			}
			act.ip += 8 + payloadArgc

			typeName := act.chunk.Constant(typeIdx).AsString()
			variantName := act.chunk.Constant(variantIdx).AsString()
			payload := make([]value.Value, payloadArgc)
			for i, r := range payloadRegs {
				payload[i] = vm.get(act, r)
			}
			var out value.Value
			ok := tagged.MakeTaggedUnion(vm.heap, vm.interned, tagged.Request{
				TypeName:     typeName,
				VariantName:  variantName,
				VariantIndex: variantNum,
				Payload:      payload,
				PayloadCount: payloadArgc,
			}, &out)
			if !ok {
				return vm.fail(act, diag.Internal, "make_tagged_union failed for %s.%s", typeName, variantName)
			}
			vm.set(act, dst, out)

		case bytecode.OpReconcileR:
			reg := int(code[act.ip+1])
			act.ip += 2
			f, id := vm.fileFor(act, reg)
			f.ReconcileTypedRegister(id)

		default:
			return vm.fail(act, diag.Internal, "invalid opcode 0x%02x", uint8(op))
		}
	}
}

func (vm *VM) tickLoop(fn string, loop int) {
	if vm.profiler.ProfileTick(fn, loop) {
		// internal/jit is not wired into the dispatch loop yet (C10's
		// backend facade has no installable native entry to call here), so
		// every threshold trigger takes the "JIT disabled" path spec.md
		// §4.8 describes: the counter resets and the loop keeps
		// interpreting.
		vm.profiler.Reset(fn, loop)
	}
}

// fileFor resolves which typed-register file backs physical register id,
// and the index within that file: ids below GlobalRegStart are this
// activation's own local window, ids in [GlobalRegStart,GlobalRegEnd) are
// the VM-wide persistent global band, and ids at or above SpanRegStart are
// this activation's own typed-span-spill window (kept per-activation, like
// locals, so a callee's span spills never alias a suspended caller's).
func (vm *VM) fileFor(act *activation, id int) (*typedreg.File, int) {
	switch {
	case id >= compiler.SpanRegStart:
		return act.spans, id - compiler.SpanRegStart
	case id >= compiler.GlobalRegStart:
		return vm.globals, id - compiler.GlobalRegStart
	default:
		return act.locals, id
	}
}

func (vm *VM) get(act *activation, id int) value.Value {
	f, local := vm.fileFor(act, id)
	return f.GetRegisterSafe(local)
}

func (vm *VM) set(act *activation, id int, v value.Value) {
	f, local := vm.fileFor(act, id)
	f.SetRegisterSafe(local, v)
}

func (vm *VM) readI32Typed(act *activation, id int) int32 {
	f, local := vm.fileFor(act, id)
	if v, ok := f.TryReadI32Typed(local); ok {
		return v
	}
	f.RehydrateFromBoxed(local)
	if v, ok := f.TryReadI32Typed(local); ok {
		return v
	}
	return 0
}

func (vm *VM) storeI32Typed(act *activation, id int, v int32) {
	f, local := vm.fileFor(act, id)
	f.StoreI32TypedHot(local, v)
}

// incI32Typed and decI32Typed warm a cold typed cell (File.IncI32/DecI32
// assume the cache already holds an i32 payload) and then delegate the
// actual increment/decrement to internal/typedreg, so dirty-bit bookkeeping
// stays entirely inside File rather than being reimplemented here.
func (vm *VM) incI32Typed(act *activation, id int) {
	f, local := vm.fileFor(act, id)
	if _, ok := f.TryReadI32Typed(local); !ok {
		f.RehydrateFromBoxed(local)
	}
	f.IncI32(local)
}

func (vm *VM) decI32Typed(act *activation, id int) {
	f, local := vm.fileFor(act, id)
	if _, ok := f.TryReadI32Typed(local); !ok {
		f.RehydrateFromBoxed(local)
	}
	f.DecI32(local)
}

func (vm *VM) execTypedIncDec(act *activation, op bytecode.Opcode, id int) {
	f, local := vm.fileFor(act, id)
	switch op {
	case bytecode.OpIncI64R:
		v, ok := f.TryReadI64Typed(local)
		if !ok {
			f.RehydrateFromBoxed(local)
			v, _ = f.TryReadI64Typed(local)
		}
		f.StoreI64TypedHot(local, v+1)
	case bytecode.OpDecI64R:
		v, ok := f.TryReadI64Typed(local)
		if !ok {
			f.RehydrateFromBoxed(local)
			v, _ = f.TryReadI64Typed(local)
		}
		f.StoreI64TypedHot(local, v-1)
	case bytecode.OpIncF64R:
		v, ok := f.TryReadF64Typed(local)
		if !ok {
			f.RehydrateFromBoxed(local)
			v, _ = f.TryReadF64Typed(local)
		}
		f.StoreF64TypedHot(local, v+1)
	case bytecode.OpDecF64R:
		v, ok := f.TryReadF64Typed(local)
		if !ok {
			f.RehydrateFromBoxed(local)
			v, _ = f.TryReadF64Typed(local)
		}
		f.StoreF64TypedHot(local, v-1)
	case bytecode.OpIncU32R, bytecode.OpDecU32R, bytecode.OpIncU64R, bytecode.OpDecU64R:
		// u32/u64 share i64's hot storage width; reconcile through the
		// boxed view rather than adding two more TypedKind accessors for
		// arithmetic no for-loop lowering in this grammar subset needs.
		boxed := f.GetRegisterSafe(local)
		switch op {
		case bytecode.OpIncU32R:
			f.SetRegisterSafe(local, value.U32(boxed.AsU32()+1))
		case bytecode.OpDecU32R:
			f.SetRegisterSafe(local, value.U32(boxed.AsU32()-1))
		case bytecode.OpIncU64R:
			f.SetRegisterSafe(local, value.U64(boxed.AsU64()+1))
		case bytecode.OpDecU64R:
			f.SetRegisterSafe(local, value.U64(boxed.AsU64()-1))
		}
	}
}

func (vm *VM) fail(act *activation, kind diag.Kind, format string, args ...interface{}) (Result, value.Value) {
	vm.lastError = &diag.RuntimeError{
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
		Location: token.Position{File: act.chunk.File},
	}
	return RuntimeError, value.Nil
}

const (
	minI32 = -1 << 31
	maxI32 = 1<<31 - 1
)

func readU16(code []byte, at int) uint16 {
	return uint16(code[at])<<8 | uint16(code[at+1])
}

func readS16(code []byte, at int) int {
	return int(int16(readU16(code, at)))
}

func readS32(code []byte, at int) int32 {
	v := uint32(code[at])<<24 | uint32(code[at+1])<<16 | uint32(code[at+2])<<8 | uint32(code[at+3])
	return int32(v)
}

func binaryOp(op bytecode.Opcode, a, b value.Value, h *heap.Heap) (value.Value, error) {
	switch op {
	case bytecode.OpEqR:
		return value.Bool(a.Equal(b)), nil
	case bytecode.OpNeqR:
		return value.Bool(!a.Equal(b)), nil
	}
	switch {
	case a.Kind == value.KindF64 || b.Kind == value.KindF64:
		x, y := asF64(a), asF64(b)
		switch op {
		case bytecode.OpAddR:
			return value.F64(x + y), nil
		case bytecode.OpSubR:
			return value.F64(x - y), nil
		case bytecode.OpMulR:
			return value.F64(x * y), nil
		case bytecode.OpDivR:
			if y == 0 {
				return value.Nil, fmt.Errorf("division by zero")
			}
			return value.F64(x / y), nil
		case bytecode.OpLtR:
			return value.Bool(x < y), nil
		case bytecode.OpLteR:
			return value.Bool(x <= y), nil
		case bytecode.OpGtR:
			return value.Bool(x > y), nil
		case bytecode.OpGteR:
			return value.Bool(x >= y), nil
		}
	case a.Kind == value.KindString && op == bytecode.OpAddR:
		return value.Str(h.NewString(a.AsString() + b.AsString())), nil
	default:
		x, y := asI64(a), asI64(b)
		switch op {
		case bytecode.OpAddR:
			return reboxI64(a.Kind, x+y), nil
		case bytecode.OpSubR:
			return reboxI64(a.Kind, x-y), nil
		case bytecode.OpMulR:
			return reboxI64(a.Kind, x*y), nil
		case bytecode.OpDivR:
			if y == 0 {
				return value.Nil, fmt.Errorf("division by zero")
			}
			return reboxI64(a.Kind, x/y), nil
		case bytecode.OpModR:
			if y == 0 {
				return value.Nil, fmt.Errorf("division by zero")
			}
			return reboxI64(a.Kind, x%y), nil
		case bytecode.OpLtR:
			return value.Bool(x < y), nil
		case bytecode.OpLteR:
			return value.Bool(x <= y), nil
		case bytecode.OpGtR:
			return value.Bool(x > y), nil
		case bytecode.OpGteR:
			return value.Bool(x >= y), nil
		}
	}
	return value.Nil, fmt.Errorf("unsupported binary op %s on %s/%s", op, a.Kind, b.Kind)
}

func negate(v value.Value) (value.Value, error) {
	switch v.Kind {
	case value.KindI32:
		return value.I32(-v.AsI32()), nil
	case value.KindI64:
		return value.I64(-v.AsI64()), nil
	case value.KindF64:
		return value.F64(-v.AsF64()), nil
	default:
		return value.Nil, fmt.Errorf("cannot negate %s", v.Kind)
	}
}

func asF64(v value.Value) float64 {
	switch v.Kind {
	case value.KindF64:
		return v.AsF64()
	case value.KindI32:
		return float64(v.AsI32())
	case value.KindI64:
		return float64(v.AsI64())
	case value.KindU32:
		return float64(v.AsU32())
	case value.KindU64:
		return float64(v.AsU64())
	default:
		return 0
	}
}

func asI64(v value.Value) int64 {
	switch v.Kind {
	case value.KindI32:
		return int64(v.AsI32())
	case value.KindI64:
		return v.AsI64()
	case value.KindU32:
		return int64(v.AsU32())
	case value.KindU64:
		return int64(v.AsU64())
	default:
		return 0
	}
}

func reboxI64(kind value.Kind, n int64) value.Value {
	switch kind {
	case value.KindI64:
		return value.I64(n)
	case value.KindU32:
		return value.U32(uint32(n))
	case value.KindU64:
		return value.U64(uint64(n))
	default:
		return value.I32(int32(n))
	}
}
