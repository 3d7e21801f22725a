package bytecode_test

import (
	"testing"

	"github.com/jordyorel/orus-lang-sub001/internal/bytecode"
	"github.com/jordyorel/orus-lang-sub001/internal/value"
	"github.com/stretchr/testify/require"
)

func TestForwardPatch_RoundTrips(t *testing.T) {
	c := bytecode.NewChunk("test.orus")
	id := c.EmitJumpPlaceholder(bytecode.PatchJumpPlain)
	for i := 0; i < 10; i++ {
		c.EmitOpcode(bytecode.OpHalt)
	}
	target := c.Len()
	require.NoError(t, c.PatchJump(id, target))
	require.NoError(t, c.Seal())

	code := c.Code()
	require.Equal(t, bytecode.OpJump, bytecode.Opcode(code[0]))
}

func TestBackwardPatch_RewritesToLoopShort(t *testing.T) {
	c := bytecode.NewChunk("test.orus")
	guardOffset := c.Len()
	c.EmitOpcode(bytecode.OpHalt) // stand-in loop body, 1 byte

	id := c.EmitJumpPlaceholder(bytecode.PatchJumpPlain)
	require.NoError(t, c.PatchJump(id, guardOffset))
	require.NoError(t, c.Seal())

	code := c.Code()
	require.Equal(t, bytecode.OpLoopShort, bytecode.Opcode(code[1]))
	// distance = (operandOffset+1) - target = (3)-0 = 3
	require.Equal(t, byte(3), code[2])
}

func TestBackwardPatch_WideWhenDistanceTooLarge(t *testing.T) {
	c := bytecode.NewChunk("test.orus")
	guardOffset := c.Len()
	for i := 0; i < 300; i++ {
		c.EmitOpcode(bytecode.OpHalt)
	}
	id := c.EmitJumpPlaceholder(bytecode.PatchJumpPlain)
	require.NoError(t, c.PatchJump(id, guardOffset))
	require.NoError(t, c.Seal())

	code := c.Code()
	require.Equal(t, bytecode.OpLoop, bytecode.Opcode(code[300]))
}

func TestSeal_FailsOnUnresolvedPatch(t *testing.T) {
	c := bytecode.NewChunk("test.orus")
	c.EmitJumpPlaceholder(bytecode.PatchJumpPlain)
	require.Error(t, c.Seal())
	require.False(t, c.Sealed())
}

func TestConstants_AreAppendedInOrder(t *testing.T) {
	c := bytecode.NewChunk("test.orus")
	idx0 := c.AddConstant(value.I32(1))
	idx1 := c.AddConstant(value.I32(2))
	require.Equal(t, uint16(0), idx0)
	require.Equal(t, uint16(1), idx1)
}
