// Package jit implements the tiering JIT facade (C10): a flat typed
// intermediate representation for a single hot loop body, a
// backend-independent parity report, and an entry cache keyed by
// (func, loop). Only the IR-level contract is specified; no backend emits
// real machine code, so every installed entry runs through the interpreter
// backend below.
package jit

import "fmt"

// ValueKind tags every IR value and instruction with the primitive kind it
// operates on, mirroring internal/value.Kind's integer-family split.
type ValueKind int

const (
	KindI32 ValueKind = iota
	KindI64
	KindU32
	KindU64
	KindF64
	KindBool
	KindString
)

var kindNames = [...]string{
	KindI32: "i32", KindI64: "i64", KindU32: "u32", KindU64: "u64",
	KindF64: "f64", KindBool: "bool", KindString: "string",
}

func (k ValueKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// Value is a reference to a prior instruction's result within the same flat
// program — SSA-style numbering without basic blocks, since a hot loop body
// compiled by this facade is always straight-line (the back-edge and guard
// stay in the interpreter; see Compiler.Compile).
type Value struct {
	ID   int
	Kind ValueKind
}

func (v Value) String() string { return fmt.Sprintf("%%v%d", v.ID) }

// Op is a flat IR instruction opcode, exactly the families spec.md §4.8
// lists: load-const, arithmetic, comparison, conversion, string concat,
// helper calls, safepoint, return.
type Op int

const (
	OpLoadConst Op = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpConvert
	OpConcat
	OpCallHelper
	OpSafepoint
	OpReturn
	OpMove
)

var opNames = [...]string{
	OpLoadConst: "const", OpAdd: "add", OpSub: "sub", OpMul: "mul", OpDiv: "div", OpMod: "mod",
	OpEq: "eq", OpNeq: "neq", OpLt: "lt", OpLte: "lte", OpGt: "gt", OpGte: "gte",
	OpConvert: "convert", OpConcat: "concat", OpCallHelper: "call", OpSafepoint: "safepoint", OpReturn: "return",
	OpMove: "move",
}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("op(%d)", op)
}

func (op Op) isArithmetic() bool {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv, OpMod:
		return true
	}
	return false
}

func (op Op) isComparison() bool {
	switch op {
	case OpEq, OpNeq, OpLt, OpLte, OpGt, OpGte:
		return true
	}
	return false
}

// Instruction is one flat IR instruction. Const carries the literal value
// for OpLoadConst; HelperName names the runtime helper for OpCallHelper
// (e.g. a CALL_NATIVE_R trampoline lifted into the loop body).
type Instruction struct {
	Op         Op
	Result     Value
	Operands   []Value
	Const      interface{}
	HelperName string
}

func (inst *Instruction) String() string {
	s := fmt.Sprintf("%s = %s", inst.Result, inst.Op)
	for _, o := range inst.Operands {
		s += " " + o.String()
	}
	if inst.Op == OpLoadConst {
		s += fmt.Sprintf(" $%v", inst.Const)
	}
	if inst.Op == OpCallHelper {
		s += " @" + inst.HelperName
	}
	return s
}

// Program is a complete flat IR program for one compiled loop: the
// function and loop it belongs to, and its instruction sequence.
type Program struct {
	Func         string
	Loop         int
	Instructions []*Instruction
}

// ParityReport is collect_parity's backend-independent summary (spec.md
// §4.8): its fields must be identical across every backend Translate()s
// the same Program, since it is computed purely from the IR and never
// touches backend-specific state.
type ParityReport struct {
	TotalInstructions int
	ArithmeticOps     int
	ComparisonOps     int
	HelperOps         int
	Safepoints        int
	ConversionOps     int
	MemoryOps         int
	ValueKindMask     uint32
}

// CollectParity computes prog's ParityReport. MemoryOps stays 0 for this
// facade: the flat IR has no load/store instructions of its own, since
// register access is the interpreter's job, not the compiled loop body's.
func CollectParity(prog *Program) ParityReport {
	var r ParityReport
	for _, inst := range prog.Instructions {
		r.TotalInstructions++
		switch {
		case inst.Op.isArithmetic():
			r.ArithmeticOps++
		case inst.Op.isComparison():
			r.ComparisonOps++
		case inst.Op == OpCallHelper:
			r.HelperOps++
		case inst.Op == OpSafepoint:
			r.Safepoints++
		case inst.Op == OpConvert:
			r.ConversionOps++
		}
		r.ValueKindMask |= 1 << uint(inst.Result.Kind)
		for _, op := range inst.Operands {
			r.ValueKindMask |= 1 << uint(op.Kind)
		}
	}
	return r
}
