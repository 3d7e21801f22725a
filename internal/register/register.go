// Package register implements the dual-bank register allocator (C3): a
// per-bank free-list allocator for typed-cache physical ids, a bounded scope
// stack with overflow/underflow diagnostics, and typed span reservations
// used to lower vector-like temporaries.
//
// This is independent of the boxed register file's fixed id space
// (internal/vm uses REGISTER_COUNT=256 boxed cells directly); the allocator
// here hands out small per-bank integers the compiler maps onto whichever
// boxed/typed storage it is assembling for a function.
package register

// MPScopeLevelCount bounds the scope stack depth tracked by this allocator
// (SPEC_FULL.md §3).
const MPScopeLevelCount = 64

// Bank discriminates independent free-list spaces. Banks never share ids:
// the first allocation in any bank returns physical id 0 regardless of
// other banks' state.
type Bank int

const (
	BankI32 Bank = iota
	BankI64
	BankU32
	BankU64
	BankF64
	BankBool
	BankString
	// BankLocal is the compiler's general-purpose frame-register bank: one
	// physical id per local variable or temporary slot, regardless of the
	// Value kind it will hold at runtime. The numeric/bool/string banks
	// above back typed-span reservations (spec.md §4.2's "vector-like
	// usage"); BankLocal backs the everyday case of one boxed register per
	// source-level binding.
	BankLocal
	bankCount
)

// Allocation is a single physical register id within a bank.
type Allocation struct {
	Bank Bank
	ID   int
}

// Reservation is a contiguous typed span within a bank.
type Reservation struct {
	Bank                Bank
	PhysicalStart       int
	Length              int
	NeedsReconciliation bool
}

type bankState struct {
	free      []bool // free[i] == true means id i is available
	highWater int     // one past the highest id ever handed out
}

func newBankState() *bankState {
	return &bankState{}
}

// alloc returns the lowest free id in the bank, growing the bank if none is
// free yet.
func (b *bankState) alloc() int {
	for i, free := range b.free {
		if free {
			b.free[i] = false
			return i
		}
	}
	id := b.highWater
	b.free = append(b.free, false)
	b.highWater++
	return id
}

func (b *bankState) release(id int) {
	for id >= len(b.free) {
		b.free = append(b.free, false)
	}
	b.free[id] = true
}

// findWindow returns the lowest contiguous run of `length` free ids,
// growing the bank if no existing window fits.
func (b *bankState) findWindow(length int) int {
	run := 0
	for i := 0; i < len(b.free); i++ {
		if b.free[i] {
			run++
			if run == length {
				return i - length + 1
			}
		} else {
			run = 0
		}
	}
	start := b.highWater
	for len(b.free) < start+length {
		b.free = append(b.free, false)
	}
	if b.highWater < start+length {
		b.highWater = start + length
	}
	return start
}

func (b *bankState) reserveWindow(start, length int) {
	for i := start; i < start+length; i++ {
		b.free[i] = false
	}
}

func (b *bankState) releaseWindow(start, length int) {
	for i := start; i < start+length; i++ {
		b.free[i] = true
	}
}

// Allocator owns the per-bank free lists, the scope-depth counters and the
// queue of released spans awaiting reconciliation. Scope levels carry no
// per-frame payload; only their depth is tracked.
type Allocator struct {
	banks [bankCount]*bankState

	scopeDepth             int
	maxScopeDepthSeen      int
	scopeDepthOverflowCount int
	scopeExitUnderflowCount int

	pendingReconciliations []Reservation
}

// New returns an allocator with all banks empty.
func New() *Allocator {
	a := &Allocator{}
	for i := range a.banks {
		a.banks[i] = newBankState()
	}
	return a
}

func (a *Allocator) bank(b Bank) *bankState {
	return a.banks[b]
}

// AllocTyped returns the lowest free physical id in bank.
func (a *Allocator) AllocTyped(bank Bank) Allocation {
	return Allocation{Bank: bank, ID: a.bank(bank).alloc()}
}

// Free returns alloc's id to its bank's free-set. A subsequent AllocTyped in
// the same bank is guaranteed to return the same id (reuse invariant).
func (a *Allocator) Free(alloc Allocation) {
	a.bank(alloc.Bank).release(alloc.ID)
}

// EnterScope pushes a scope level. Exceeding MPScopeLevelCount is counted in
// diagnostics rather than aborting.
func (a *Allocator) EnterScope() {
	a.scopeDepth++
	if a.scopeDepth > MPScopeLevelCount {
		a.scopeDepthOverflowCount++
	}
	if a.scopeDepth > a.maxScopeDepthSeen {
		a.maxScopeDepthSeen = a.scopeDepth
	}
}

// ExitScope pops a scope level. Popping past zero is counted in diagnostics
// rather than aborting.
func (a *Allocator) ExitScope() {
	if a.scopeDepth == 0 {
		a.scopeExitUnderflowCount++
		return
	}
	a.scopeDepth--
}

// ScopeDepthOverflowCount reports how many EnterScope calls exceeded
// MPScopeLevelCount.
func (a *Allocator) ScopeDepthOverflowCount() int { return a.scopeDepthOverflowCount }

// ScopeExitUnderflowCount reports how many ExitScope calls occurred at depth
// zero.
func (a *Allocator) ScopeExitUnderflowCount() int { return a.scopeExitUnderflowCount }

// MaxScopeDepthSeen is the high-water mark of scope depth.
func (a *Allocator) MaxScopeDepthSeen() int { return a.maxScopeDepthSeen }

// BeginTypedSpan reserves a contiguous window of length ids within bank,
// taking the lowest-starting free window that fits (first fit), or growing
// the bank past its high-water mark when none does.
func (a *Allocator) BeginTypedSpan(bank Bank, length int, needsReconciliation bool) Reservation {
	bs := a.bank(bank)
	start := bs.findWindow(length)
	bs.reserveWindow(start, length)
	return Reservation{
		Bank:                bank,
		PhysicalStart:       start,
		Length:              length,
		NeedsReconciliation: needsReconciliation,
	}
}

// ReleaseTypedSpan returns res's window to its bank's free-set. If the
// reservation needed reconciliation, it is queued for
// CollectPendingReconciliations.
func (a *Allocator) ReleaseTypedSpan(res Reservation) {
	a.bank(res.Bank).releaseWindow(res.PhysicalStart, res.Length)
	if res.NeedsReconciliation {
		a.pendingReconciliations = append(a.pendingReconciliations, res)
	}
}

// CollectPendingReconciliations drains the FIFO of released spans the
// compiler must emit reconciliation instructions for before reuse.
func (a *Allocator) CollectPendingReconciliations() []Reservation {
	out := a.pendingReconciliations
	a.pendingReconciliations = nil
	return out
}
