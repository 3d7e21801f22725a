package register_test

import (
	"testing"

	"github.com/jordyorel/orus-lang-sub001/internal/register"
	"github.com/stretchr/testify/require"
)

func TestAllocTyped_ReuseAfterFree(t *testing.T) {
	a := register.New()
	alloc := a.AllocTyped(register.BankI32)
	a.Free(alloc)
	again := a.AllocTyped(register.BankI32)
	require.Equal(t, alloc.ID, again.ID)
}

func TestAllocTyped_BanksAreIndependent(t *testing.T) {
	a := register.New()
	a.AllocTyped(register.BankI32)
	first := a.AllocTyped(register.BankF64)
	require.Equal(t, 0, first.ID)
}

func TestBeginTypedSpan_BothBanksStartAtZero(t *testing.T) {
	a := register.New()
	i32Span := a.BeginTypedSpan(register.BankI32, 3, false)
	f64Span := a.BeginTypedSpan(register.BankF64, 3, false)
	require.Equal(t, 0, i32Span.PhysicalStart)
	require.Equal(t, 0, f64Span.PhysicalStart)
}

func TestScopeDiagnostics_OverflowAndUnderflow(t *testing.T) {
	a := register.New()
	for i := 0; i < register.MPScopeLevelCount+5; i++ {
		a.EnterScope()
	}
	require.Equal(t, 5, a.ScopeDepthOverflowCount())
	require.Equal(t, register.MPScopeLevelCount+5, a.MaxScopeDepthSeen())

	for i := 0; i < register.MPScopeLevelCount+5; i++ {
		a.ExitScope()
	}
	require.Equal(t, 0, a.ScopeExitUnderflowCount())

	a.ExitScope()
	a.ExitScope()
	require.Equal(t, 2, a.ScopeExitUnderflowCount())
}

func TestReleaseTypedSpan_QueuesReconciliation(t *testing.T) {
	a := register.New()
	span := a.BeginTypedSpan(register.BankI32, 2, true)
	a.ReleaseTypedSpan(span)
	pending := a.CollectPendingReconciliations()
	require.Len(t, pending, 1)
	require.Equal(t, span, pending[0])
	require.Empty(t, a.CollectPendingReconciliations())
}
