package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jordyorel/orus-lang-sub001/internal/bytecode"
	"github.com/jordyorel/orus-lang-sub001/internal/compiler"
	"github.com/jordyorel/orus-lang-sub001/internal/diag"
	"github.com/jordyorel/orus-lang-sub001/internal/natives"
	"github.com/jordyorel/orus-lang-sub001/internal/parser"
	"github.com/jordyorel/orus-lang-sub001/internal/types"
)

func compileSource(t *testing.T, src string) (*compiler.Program, *diag.Reporter) {
	t.Helper()
	reporter := diag.NewReporter()
	prog := parser.Parse("test.orus", src, reporter)
	require.False(t, reporter.Failed(), "parse errors: %v", reporter.Errors())

	checker := types.NewChecker(reporter)
	checker.Check(prog)
	require.False(t, reporter.Failed(), "type errors: %v", reporter.Errors())

	out := compiler.Compile(prog, checker, natives.New(), reporter, "test")
	return out, reporter
}

// decode scans a chunk's opcode stream, returning the sequence of opcodes
// encountered (ignoring operand bytes), for asserting lowering shape without
// hand-computing every displacement.
func decode(t *testing.T, chunk *bytecode.Chunk) []bytecode.Opcode {
	t.Helper()
	code := chunk.Code()
	var ops []bytecode.Opcode
	i := 0
	for i < len(code) {
		op := bytecode.Opcode(code[i])
		ops = append(ops, op)
		width := op.Width()
		if width < 0 {
			switch op {
			case bytecode.OpCallR:
				argc := int(code[i+3])
				width = 4 + argc + 1
			case bytecode.OpMakeEnum:
				argc := int(code[i+7])
				width = 8 + argc
			default:
				t.Fatalf("decode: unhandled variable-width opcode %s", op)
			}
		}
		i += width
	}
	return ops
}

func TestCompile_ForLoopLowersToTypedGuardNotFusedBranch(t *testing.T) {
	out, _ := compileSource(t, `
fn main() {
	mut total: i32 = 0;
	for i in 0..10..2 {
		total = total + i;
	}
}
`)
	require.NotNil(t, out)
	chunk := out.Functions["main"]
	require.NotNil(t, chunk)
	require.True(t, chunk.Sealed())

	ops := decode(t, chunk)
	require.Contains(t, ops, bytecode.OpJumpIfNotI32Typed)
	require.Contains(t, ops, bytecode.OpAddI32Typed)
	require.NotContains(t, ops, bytecode.OpMulI32Imm)

	// The guard must appear before the typed add (step=2 forces ADD_I32_TYPED,
	// not INC_I32_R), and a LOOP/LOOP_SHORT back-edge must close the loop.
	guardIdx, addIdx, loopIdx := -1, -1, -1
	for i, op := range ops {
		switch op {
		case bytecode.OpJumpIfNotI32Typed:
			if guardIdx == -1 {
				guardIdx = i
			}
		case bytecode.OpAddI32Typed:
			addIdx = i
		case bytecode.OpLoop, bytecode.OpLoopShort:
			loopIdx = i
		}
	}
	require.True(t, guardIdx >= 0 && addIdx > guardIdx)
	require.True(t, loopIdx > addIdx)
}

func TestCompile_BreakAndContinuePatchToLoopBoundaries(t *testing.T) {
	out, reporter := compileSource(t, `
fn main() {
	for i in 0..10 {
		if i == 5 {
			break;
		}
		if i == 2 {
			continue;
		}
	}
}
`)
	require.False(t, reporter.Failed())
	chunk := out.Functions["main"]
	require.True(t, chunk.Sealed())
}

func TestCompile_IntrinsicTrampolineShape(t *testing.T) {
	out, _ := compileSource(t, `
@[core("__orus_sqrt")]
fn sqrt(x: f64) -> f64;
`)
	chunk := out.Functions["sqrt"]
	require.NotNil(t, chunk)
	code := chunk.Code()
	require.True(t, len(code) >= 6)
	require.Equal(t, bytecode.OpCallNativeR, bytecode.Opcode(code[0]))
	require.Equal(t, bytecode.OpReturnR, bytecode.Opcode(code[5]))
}

func TestCompile_MulByLiteralUsesImmediateForm(t *testing.T) {
	out, _ := compileSource(t, `
fn double(x: i32) -> i32 {
	return x * 2;
}
`)
	chunk := out.Functions["double"]
	ops := decode(t, chunk)
	require.Contains(t, ops, bytecode.OpMulI32Imm)
	require.NotContains(t, ops, bytecode.OpMulR)
}

func TestCompile_GlobalAssignmentUsesLoadGlobalOnRead(t *testing.T) {
	out, _ := compileSource(t, `
let counter: i32 = 0;
fn main() {
	let x: i32 = counter;
}
`)
	chunk := out.Functions["main"]
	ops := decode(t, chunk)
	require.Contains(t, ops, bytecode.OpLoadGlobal)
	require.Equal(t, 1, len(out.Globals))
}

func TestCompile_ResultOkLowersToMakeEnum(t *testing.T) {
	out, _ := compileSource(t, `
fn compute() {
	let r = Result.Ok(1);
}
`)
	chunk := out.Functions["compute"]
	ops := decode(t, chunk)
	require.Contains(t, ops, bytecode.OpMakeEnum)
}

func TestCompile_LogicalAndShortCircuitsViaJumpIfNotR(t *testing.T) {
	out, _ := compileSource(t, `
fn both(a: bool, b: bool) -> bool {
	return a && b;
}
`)
	chunk := out.Functions["both"]
	ops := decode(t, chunk)
	require.Contains(t, ops, bytecode.OpJumpIfNotR)
}

func TestCompile_FunctionCallEmitsCallR(t *testing.T) {
	out, _ := compileSource(t, `
fn helper(x: i32) -> i32 {
	return x;
}
fn main() {
	let y: i32 = helper(3);
}
`)
	chunk := out.Functions["main"]
	ops := decode(t, chunk)
	require.Contains(t, ops, bytecode.OpCallR)
	require.Equal(t, []string{"helper", "main"}, out.FunctionOrder)
}
