// Package bytecode implements the append-only instruction stream, its
// jump-patch bookkeeping, and the fixed-width opcode encodings the compiler
// (C5) emits and the dispatch loop (C7) decodes.
package bytecode

// Opcode is the 1-byte instruction discriminator. Unlike a uniform 3-address
// encoding, operand width varies per opcode — some instructions carry a
// single register, others a register plus a 16-bit displacement, others a
// variable-length call descriptor.
type Opcode uint8

const (
	OpHalt Opcode = iota

	// Control flow.
	OpJump
	OpJumpShort
	OpLoop
	OpLoopShort
	OpJumpIfNotR
	OpJumpIfNotI32Typed

	// Typed i32 arithmetic/in-place ops used by the for-loop lowering.
	OpAddI32Typed
	OpMulI32Imm
	OpIncI32R
	OpDecI32R
	OpIncI64R
	OpDecI64R
	OpIncU32R
	OpDecU32R
	OpIncU64R
	OpDecU64R
	OpIncF64R
	OpDecF64R

	// Globals.
	OpLoadGlobal
	OpStoreGlobal

	// Calls.
	OpCallNativeR
	OpCallR
	OpReturnR

	// Constants / literals.
	OpLoadConst
	OpLoadTrue
	OpLoadFalse
	OpLoadNil
	OpMove

	// Generic boxed-register arithmetic (any numeric kind; kind is carried by
	// the Value itself, not the opcode).
	OpAddR
	OpSubR
	OpMulR
	OpDivR
	OpModR
	OpNegR
	OpNotR

	// Comparison (boxed registers; result is a bool Value).
	OpEqR
	OpNeqR
	OpLtR
	OpLteR
	OpGtR
	OpGteR

	// Tagged-union construction.
	OpMakeEnum

	// OpReconcileR forces the typed-register cache's write-back law for one
	// register without otherwise changing it: a freed typed-span register
	// can be left dirty when its owning loop closes, and this is what the
	// compiler emits to drain internal/register's pending-reconciliation
	// queue before another variable reuses the same physical id.
	OpReconcileR

	opcodeCount
)

// operandSize is the number of bytes following the opcode byte for
// fixed-width instructions. -1 marks variable-length instructions decoded by
// dedicated logic (OpCallR, OpMakeEnum).
var operandSize = [opcodeCount]int{
	OpHalt: 0,

	OpJump:              2, // s16 disp
	OpJumpShort:         1, // u8 disp
	OpLoop:               2, // u16 back
	OpLoopShort:          1, // u8 back
	OpJumpIfNotR:         3, // u8 reg, s16 disp
	OpJumpIfNotI32Typed:  4, // u8 reg, u8 aux, s16 disp

	OpAddI32Typed: 3, // u8 dst, lhs, rhs
	OpMulI32Imm:   6, // u8 dst, src, i32 imm
	OpIncI32R:     1,
	OpDecI32R:     1,
	OpIncI64R:     1,
	OpDecI64R:     1,
	OpIncU32R:     1,
	OpDecU32R:     1,
	OpIncU64R:     1,
	OpDecU64R:     1,
	OpIncF64R:     1,
	OpDecF64R:     1,

	OpLoadGlobal:  2, // u8 dst, idx
	OpStoreGlobal: 2, // u8 src, idx

	// CALL_NATIVE_R is fixed-width because every host intrinsic this module
	// registers (internal/natives) is unary: u16 intrinsic index, u8 arg
	// reg, u8 result reg. This is what makes the intrinsic trampoline's
	// "RETURN_R at offset 5" contract (spec.md §6) a fixed constant rather
	// than a per-arity computation.
	OpCallNativeR: 4,
	OpCallR:       -1, // variable arity user calls: decoded specially
	OpReturnR:     1,

	OpLoadConst: 3, // u8 dst, u16 const index
	OpLoadTrue:  1,
	OpLoadFalse: 1,
	OpLoadNil:   1,
	OpMove:      2,

	OpAddR: 3,
	OpSubR: 3,
	OpMulR: 3,
	OpDivR: 3,
	OpModR: 3,
	OpNegR: 2,
	OpNotR: 2,

	OpEqR:  3,
	OpNeqR: 3,
	OpLtR:  3,
	OpLteR: 3,
	OpGtR:  3,
	OpGteR: 3,

	OpMakeEnum: -1,

	OpReconcileR: 1,
}

var opcodeNames = [opcodeCount]string{
	OpHalt:              "HALT",
	OpJump:               "JUMP",
	OpJumpShort:          "JUMP_SHORT",
	OpLoop:               "LOOP",
	OpLoopShort:          "LOOP_SHORT",
	OpJumpIfNotR:         "JUMP_IF_NOT_R",
	OpJumpIfNotI32Typed:  "JUMP_IF_NOT_I32_TYPED",
	OpAddI32Typed:        "ADD_I32_TYPED",
	OpMulI32Imm:          "MUL_I32_IMM",
	OpIncI32R:            "INC_I32_R",
	OpDecI32R:            "DEC_I32_R",
	OpIncI64R:            "INC_I64_R",
	OpDecI64R:            "DEC_I64_R",
	OpIncU32R:            "INC_U32_R",
	OpDecU32R:            "DEC_U32_R",
	OpIncU64R:            "INC_U64_R",
	OpDecU64R:            "DEC_U64_R",
	OpIncF64R:            "INC_F64_R",
	OpDecF64R:            "DEC_F64_R",
	OpLoadGlobal:         "LOAD_GLOBAL",
	OpStoreGlobal:        "STORE_GLOBAL",
	OpCallNativeR:        "CALL_NATIVE_R",
	OpCallR:              "CALL_R",
	OpReturnR:            "RETURN_R",
	OpLoadConst:          "LOAD_CONST",
	OpLoadTrue:           "LOAD_TRUE",
	OpLoadFalse:          "LOAD_FALSE",
	OpLoadNil:            "LOAD_NIL",
	OpMove:               "MOVE",
	OpAddR:               "ADD_R",
	OpSubR:               "SUB_R",
	OpMulR:               "MUL_R",
	OpDivR:               "DIV_R",
	OpModR:               "MOD_R",
	OpNegR:               "NEG_R",
	OpNotR:               "NOT_R",
	OpEqR:                "EQ_R",
	OpNeqR:               "NEQ_R",
	OpLtR:                "LT_R",
	OpLteR:               "LTE_R",
	OpGtR:                "GT_R",
	OpGteR:               "GTE_R",
	OpMakeEnum:           "MAKE_ENUM",
	OpReconcileR:         "RECONCILE_R",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) && opcodeNames[op] != "" {
		return opcodeNames[op]
	}
	return "UNKNOWN"
}

// OperandSize returns the fixed number of operand bytes following the
// opcode, or -1 for a variable-length instruction.
func (op Opcode) OperandSize() int {
	if int(op) >= len(operandSize) {
		return 0
	}
	return operandSize[op]
}

// Width returns the total instruction length in bytes (opcode + operands)
// for fixed-width opcodes, or -1 for variable-length ones.
func (op Opcode) Width() int {
	sz := op.OperandSize()
	if sz < 0 {
		return -1
	}
	return 1 + sz
}

// IsIncDec reports whether op is one of the typed INC_*_R/DEC_*_R family,
// which operate on the typed register cache in place without clearing dirty.
func (op Opcode) IsIncDec() bool {
	switch op {
	case OpIncI32R, OpDecI32R, OpIncI64R, OpDecI64R, OpIncU32R, OpDecU32R,
		OpIncU64R, OpDecU64R, OpIncF64R, OpDecF64R:
		return true
	default:
		return false
	}
}
