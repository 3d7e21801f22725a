package bytecode

import (
	"encoding/binary"
	"fmt"

	"github.com/jordyorel/orus-lang-sub001/internal/value"
)

// PatchKind records which jump family a pending patch belongs to, so
// PatchJump knows which short/wide opcode pair to rewrite into.
type PatchKind uint8

const (
	PatchJumpPlain PatchKind = iota
	PatchJumpIfNotR
	PatchJumpIfNotI32Typed
)

// patch is a pending jump whose displacement operand was reserved but not
// yet written, per the bytecode buffer's Invariant C (every patch recorded
// during compilation is resolved before sealing).
type patch struct {
	instructionOffset int
	operandOffset     int
	operandSize       int // bytes reserved for the displacement, always 2 at emission time
	kind              PatchKind
	resolved          bool
}

// Chunk is a single compiled unit: the top-level script or one function's
// independent bytecode, plus its constant pool and source-file tag used for
// runtime-error locations (spec.md §7).
type Chunk struct {
	File string

	code     []byte
	consts   []value.Value
	patches  []*patch
	sealed   bool
}

// NewChunk returns an empty chunk tagged with the given source file name.
func NewChunk(file string) *Chunk {
	return &Chunk{File: file}
}

// Len returns the current instruction-stream length in bytes.
func (c *Chunk) Len() int { return len(c.code) }

// Code returns the raw instruction stream. Valid only after Seal.
func (c *Chunk) Code() []byte { return c.code }

// EmitByte appends a single raw byte, returning its offset.
func (c *Chunk) EmitByte(b byte) int {
	c.code = append(c.code, b)
	return len(c.code) - 1
}

// EmitOpcode appends an opcode's byte value.
func (c *Chunk) EmitOpcode(op Opcode) int {
	return c.EmitByte(byte(op))
}

// EmitU16 appends a big-endian u16.
func (c *Chunk) EmitU16(v uint16) {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	c.code = append(c.code, buf[:]...)
}

// EmitI32 appends a big-endian i32.
func (c *Chunk) EmitI32(v int32) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(v))
	c.code = append(c.code, buf[:]...)
}

// AddConstant appends v to the constant pool and returns its index.
func (c *Chunk) AddConstant(v value.Value) uint16 {
	c.consts = append(c.consts, v)
	return uint16(len(c.consts) - 1)
}

// Constant returns the constant at idx.
func (c *Chunk) Constant(idx uint16) value.Value {
	return c.consts[idx]
}

// EmitJumpPlaceholder writes opcode (the wide form: JUMP, JUMP_IF_NOT_R, or
// JUMP_IF_NOT_I32_TYPED) plus any fixed operand bytes preceding the
// displacement (e.g. the condition register), reserves a 2-byte zeroed
// displacement slot, and records a patch. Returns a patch id for PatchJump.
func (c *Chunk) EmitJumpPlaceholder(kind PatchKind, fixedOperands ...byte) int {
	instrOffset := c.EmitOpcode(wideOpcodeFor(kind))
	for _, b := range fixedOperands {
		c.EmitByte(b)
	}
	operandOffset := len(c.code)
	c.EmitU16(0)
	c.patches = append(c.patches, &patch{
		instructionOffset: instrOffset,
		operandOffset:     operandOffset,
		operandSize:       2,
		kind:              kind,
	})
	return len(c.patches) - 1
}

func wideOpcodeFor(kind PatchKind) Opcode {
	switch kind {
	case PatchJumpIfNotR:
		return OpJumpIfNotR
	case PatchJumpIfNotI32Typed:
		return OpJumpIfNotI32Typed
	default:
		return OpJump
	}
}

// shortOpcodeFor is only consulted from PatchJump's backward branch, so the
// short form it names is always the short *loop* opcode, never JUMP_SHORT
// (that one has no backward meaning — its sign-free displacement always
// reads forward).
func shortOpcodeFor(kind PatchKind) (Opcode, bool) {
	switch kind {
	case PatchJumpPlain:
		return OpLoopShort, true
	default:
		// JUMP_IF_NOT_R and JUMP_IF_NOT_I32_TYPED have no short variant in
		// the bit-exact ISA (spec.md §6); always resolved wide.
		return 0, false
	}
}

// PatchJump resolves the displacement for the jump recorded under id,
// targeting byte offset target within this chunk.
//
// Forward jumps (target > operandOffset) always resolve to the wide form:
// this chunk's compiler never knows a forward target's distance at emission
// time, so it conservatively reserves — and keeps — the 2-byte s16 slot.
// Invariant D permits this: short patches are required to be used only when
// the distance fits in a byte, never mandated whenever it could.
//
// Backward jumps (target <= instructionOffset) are resolved immediately
// after the loop body that needed them closes, which in this compiler's
// lowering is always before any further bytes are appended — so the pending
// placeholder is still the last thing in the buffer. That lets PatchJump
// shrink a backward jump from the reserved wide form down to the short
// LOOP_SHORT encoding when the distance fits, matching spec.md §4.1 exactly.
func (c *Chunk) PatchJump(id int, target int) error {
	if id < 0 || id >= len(c.patches) {
		return fmt.Errorf("bytecode: invalid patch id %d", id)
	}
	p := c.patches[id]
	if p.resolved {
		return fmt.Errorf("bytecode: patch %d already resolved", id)
	}

	if target > p.operandOffset {
		disp := target - (p.operandOffset + p.operandSize)
		if disp < -32768 || disp > 32767 {
			return fmt.Errorf("bytecode: forward displacement %d overflows s16 slot", disp)
		}
		binary.BigEndian.PutUint16(c.code[p.operandOffset:], uint16(int16(disp)))
		p.resolved = true
		return nil
	}

	// Backward: target <= instructionOffset.
	atTail := p.operandOffset+p.operandSize == len(c.code)
	shortOp, hasShort := shortOpcodeFor(p.kind)
	if atTail && hasShort {
		distShort := (p.operandOffset + 1) - target
		if distShort >= 0 && distShort <= 255 {
			c.code[p.instructionOffset] = byte(shortOp)
			c.code = append(c.code[:p.operandOffset], byte(distShort))
			p.resolved = true
			return nil
		}
	}

	distWide := (p.operandOffset + p.operandSize) - target
	if distWide < 0 || distWide > 65535 {
		return fmt.Errorf("bytecode: backward distance %d overflows u16 slot", distWide)
	}
	c.code[p.instructionOffset] = byte(loopOpcodeFor(p.kind))
	binary.BigEndian.PutUint16(c.code[p.operandOffset:], uint16(distWide))
	p.resolved = true
	return nil
}

func loopOpcodeFor(kind PatchKind) Opcode {
	if kind == PatchJumpPlain {
		return OpLoop
	}
	// Conditional guards never serve as back-edges in this compiler's
	// lowering; LOOP is the only backward target any patch here resolves to.
	return OpLoop
}

// Seal finalizes the chunk: every recorded patch must already be resolved
// (Invariant C). Returns an error naming the first unresolved patch.
func (c *Chunk) Seal() error {
	for i, p := range c.patches {
		if !p.resolved {
			return fmt.Errorf("bytecode: unresolved jump patch %d at instruction offset %d", i, p.instructionOffset)
		}
	}
	c.sealed = true
	return nil
}

// Sealed reports whether Seal has succeeded.
func (c *Chunk) Sealed() bool { return c.sealed }
