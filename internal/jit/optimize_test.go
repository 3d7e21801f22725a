package jit

import "testing"

func TestConstantFold_FoldsArithmeticOverConstants(t *testing.T) {
	b := NewBuilder("f", 0)
	x := b.Const(KindI32, int64(10))
	y := b.Const(KindI32, int64(32))
	sum := b.Arith(OpAdd, KindI32, x, y)
	b.Return(sum)
	prog := b.Program()

	ConstantFold(prog)

	folded := prog.Instructions[2]
	if folded.Op != OpLoadConst {
		t.Fatalf("expected folded instruction to become OpLoadConst, got %s", folded.Op)
	}
	if folded.Const.(int64) != 42 {
		t.Errorf("folded constant: got %v, want 42", folded.Const)
	}
}

func TestConstantFold_LeavesDivisionByZeroUnfolded(t *testing.T) {
	b := NewBuilder("f", 0)
	x := b.Const(KindI32, int64(10))
	y := b.Const(KindI32, int64(0))
	q := b.Arith(OpDiv, KindI32, x, y)
	b.Return(q)
	prog := b.Program()

	ConstantFold(prog)

	if prog.Instructions[2].Op != OpDiv {
		t.Errorf("division by a constant zero must not be folded, got %s", prog.Instructions[2].Op)
	}
}

func TestDeadCodeEliminate_DropsUnusedComputation(t *testing.T) {
	b := NewBuilder("f", 0)
	x := b.Const(KindI32, int64(2))
	y := b.Const(KindI32, int64(3))
	live := b.Arith(OpAdd, KindI32, x, y)
	_ = b.Arith(OpMul, KindI32, x, y) // unused
	b.Return(live)
	prog := b.Program()

	before := len(prog.Instructions)
	DeadCodeEliminate(prog)
	if len(prog.Instructions) >= before {
		t.Fatalf("expected DeadCodeEliminate to shrink the program, got %d -> %d", before, len(prog.Instructions))
	}
	for _, inst := range prog.Instructions {
		if inst.Op == OpMul {
			t.Errorf("dead OpMul survived DeadCodeEliminate")
		}
	}
}

func TestDeadCodeEliminate_KeepsHelperCallsAndSafepoints(t *testing.T) {
	b := NewBuilder("f", 0)
	x := b.Const(KindF64, 2.0)
	b.CallHelper(KindF64, "__orus_sqrt", x)
	b.Safepoint()
	b.Return(x)
	prog := b.Program()

	DeadCodeEliminate(prog)

	var sawHelper, sawSafepoint bool
	for _, inst := range prog.Instructions {
		if inst.Op == OpCallHelper {
			sawHelper = true
		}
		if inst.Op == OpSafepoint {
			sawSafepoint = true
		}
	}
	if !sawHelper {
		t.Error("helper call with side effects was eliminated")
	}
	if !sawSafepoint {
		t.Error("safepoint was eliminated")
	}
}

func TestCommonSubexprEliminate_ReplacesRepeatedComputation(t *testing.T) {
	b := NewBuilder("f", 0)
	x := b.Const(KindI32, int64(4))
	y := b.Const(KindI32, int64(5))
	first := b.Arith(OpAdd, KindI32, x, y)
	second := b.Arith(OpAdd, KindI32, x, y) // redundant
	b.Return(second)
	prog := b.Program()
	_ = first

	CommonSubexprEliminate(prog)

	var moves int
	for _, inst := range prog.Instructions {
		if inst.Op == OpMove {
			moves++
		}
	}
	if moves != 1 {
		t.Errorf("expected the redundant add to become 1 OpMove, got %d", moves)
	}
}
