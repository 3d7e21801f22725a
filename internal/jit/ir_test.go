package jit

import "testing"

func TestBuilderBasic(t *testing.T) {
	b := NewBuilder("sum_loop", 12)
	ten := b.Const(KindI32, int64(10))
	thirty := b.Const(KindI32, int64(32))
	sum := b.Arith(OpAdd, KindI32, ten, thirty)
	b.Return(sum)

	prog := b.Program()
	if prog.Func != "sum_loop" || prog.Loop != 12 {
		t.Fatalf("Program key: got (%q, %d), want (sum_loop, 12)", prog.Func, prog.Loop)
	}
	if len(prog.Instructions) != 4 {
		t.Fatalf("expected 4 instructions, got %d", len(prog.Instructions))
	}
	if prog.Instructions[2].Op != OpAdd {
		t.Errorf("expected OpAdd, got %s", prog.Instructions[2].Op)
	}
}

func TestValueAndOpString(t *testing.T) {
	v := Value{ID: 42, Kind: KindI32}
	if s := v.String(); s != "%v42" {
		t.Errorf("Value.String: got %q, want %%v42", s)
	}
	if s := OpAdd.String(); s != "add" {
		t.Errorf("OpAdd.String: got %q, want add", s)
	}
	if s := OpCallHelper.String(); s != "call" {
		t.Errorf("OpCallHelper.String: got %q, want call", s)
	}
}

func TestCollectParity_CountsEveryCategory(t *testing.T) {
	b := NewBuilder("f", 0)
	x := b.Const(KindI32, int64(1))
	y := b.Const(KindI32, int64(2))
	sum := b.Arith(OpAdd, KindI32, x, y)
	cmp := b.Compare(OpLt, x, y)
	_ = cmp
	wide := b.Convert(KindI64, sum)
	b.Safepoint()
	b.Return(wide)
	prog := b.Program()

	got := CollectParity(prog)
	if got.TotalInstructions != len(prog.Instructions) {
		t.Errorf("TotalInstructions: got %d, want %d", got.TotalInstructions, len(prog.Instructions))
	}
	if got.ArithmeticOps != 1 {
		t.Errorf("ArithmeticOps: got %d, want 1", got.ArithmeticOps)
	}
	if got.ComparisonOps != 1 {
		t.Errorf("ComparisonOps: got %d, want 1", got.ComparisonOps)
	}
	if got.ConversionOps != 1 {
		t.Errorf("ConversionOps: got %d, want 1", got.ConversionOps)
	}
	if got.Safepoints != 1 {
		t.Errorf("Safepoints: got %d, want 1", got.Safepoints)
	}
	if got.ValueKindMask&(1<<uint(KindI32)) == 0 {
		t.Errorf("ValueKindMask: missing KindI32 bit, got %b", got.ValueKindMask)
	}
	if got.ValueKindMask&(1<<uint(KindBool)) == 0 {
		t.Errorf("ValueKindMask: missing KindBool bit, got %b", got.ValueKindMask)
	}
}

// TestCollectParity_IndependentOfBackend is the cross-architecture parity
// contract (spec.md §4.8/§8): two distinct Backends translating the same
// Program must not change CollectParity's report, since it never inspects
// backend-specific state.
func TestCollectParity_IndependentOfBackend(t *testing.T) {
	b := NewBuilder("f", 0)
	x := b.Const(KindI32, int64(7))
	y := b.Const(KindI32, int64(3))
	sum := b.Arith(OpAdd, KindI32, x, y)
	b.Return(sum)
	prog := b.Program()

	before := CollectParity(prog)
	if _, err := (InterpreterBackend{}).Translate(prog); err != nil {
		t.Fatalf("Translate: %v", err)
	}
	after := CollectParity(prog)
	if before != after {
		t.Errorf("CollectParity changed after Translate: before=%+v after=%+v", before, after)
	}
}
