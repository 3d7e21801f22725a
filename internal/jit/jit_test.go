package jit

import "testing"

func buildAddProgram(fn string, loop int) *Program {
	b := NewBuilder(fn, loop)
	x := b.Const(KindI32, int64(3))
	y := b.Const(KindI32, int64(4))
	sum := b.Arith(OpAdd, KindI32, x, y)
	b.Return(sum)
	return b.Program()
}

func TestCompiler_CompileInstallsAndCounts(t *testing.T) {
	c, err := New(0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	key := Key{Func: "main", Loop: 7}
	prog := buildAddProgram("main", 7)

	entry, err := c.Compile(key, prog)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if entry.EntryPoint == nil {
		t.Fatal("Compile: entry has nil EntryPoint")
	}
	if c.CompilationCount() != 1 {
		t.Errorf("CompilationCount: got %d, want 1", c.CompilationCount())
	}

	got, ok := c.Lookup(key)
	if !ok {
		t.Fatal("Lookup: entry not found after Compile")
	}
	if got != entry {
		t.Error("Lookup: returned a different entry than Compile installed")
	}
}

func TestCompiler_InvokeRunsEntryPointAndCounts(t *testing.T) {
	c, _ := New(0)
	key := Key{Func: "main", Loop: 1}
	entry, err := c.Compile(key, buildAddProgram("main", 1))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	out, err := c.Invoke(entry, nil)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if out.(int64) != 7 {
		t.Errorf("Invoke result: got %v, want 7", out)
	}
	if c.InvocationCount() != 1 {
		t.Errorf("InvocationCount: got %d, want 1", c.InvocationCount())
	}
}

func TestCompiler_SupersedingEntryGetsNewGeneration(t *testing.T) {
	c, _ := New(0)
	key := Key{Func: "main", Loop: 2}
	first, _ := c.Compile(key, buildAddProgram("main", 2))
	second, _ := c.Compile(key, buildAddProgram("main", 2))

	if first.Generation == second.Generation {
		t.Error("recompiling the same key produced the same generation")
	}
	got, ok := c.Lookup(key)
	if !ok || got.Generation != second.Generation {
		t.Error("Lookup did not return the superseding entry")
	}
}

func TestCompiler_LookupMissReturnsFalse(t *testing.T) {
	c, _ := New(0)
	if _, ok := c.Lookup(Key{Func: "nowhere", Loop: 99}); ok {
		t.Error("Lookup found an entry that was never installed")
	}
}

func TestCache_EvictsLeastRecentlyUsedAtCapacity(t *testing.T) {
	cache, err := NewCache(1)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	k1, k2 := Key{Func: "a", Loop: 0}, Key{Func: "b", Loop: 0}
	cache.Install(k1, &Entry{})
	cache.Install(k2, &Entry{})

	if cache.Len() != 1 {
		t.Fatalf("Len: got %d, want 1 (capacity-bounded)", cache.Len())
	}
	if _, ok := cache.Lookup(k1); ok {
		t.Error("expected k1 to be evicted in favor of k2")
	}
	if _, ok := cache.Lookup(k2); !ok {
		t.Error("expected k2 to still be cached")
	}
}
