package typedreg_test

import (
	"testing"

	"github.com/jordyorel/orus-lang-sub001/internal/typedreg"
	"github.com/jordyorel/orus-lang-sub001/internal/value"
	"github.com/stretchr/testify/require"
)

func TestStoreTypedHot_LeavesBoxedCellStaleUntilReconciled(t *testing.T) {
	f := typedreg.New(4)
	f.SetRegisterSafe(0, value.I32(1))
	f.StoreI32TypedHot(0, 99)

	require.True(t, f.IsDirty(0))
	got, ok := f.TryReadI32Typed(0)
	require.True(t, ok)
	require.Equal(t, int32(99), got, "typed cache reflects the hot store")

	// Only reconciliation (GetRegisterSafe) writes the new value into the
	// boxed cell and clears dirty.
	require.Equal(t, int32(99), f.GetRegisterSafe(0).AsI32())
	require.False(t, f.IsDirty(0))
}

func TestReconcile_WriteBackLaw(t *testing.T) {
	f := typedreg.New(4)
	f.StoreI32TypedHot(1, 7)
	require.True(t, f.IsDirty(1))

	v := f.ReconcileTypedRegister(1)
	require.Equal(t, int32(7), v.AsI32())
	require.False(t, f.IsDirty(1))
	require.Equal(t, int32(7), f.GetRegisterSafe(1).AsI32())
}

func TestSetRegisterSafe_WriteThroughClearsDirty(t *testing.T) {
	f := typedreg.New(4)
	f.StoreI32TypedHot(2, 5)
	require.True(t, f.IsDirty(2))

	f.SetRegisterSafe(2, value.I32(10))
	require.False(t, f.IsDirty(2))
	got, ok := f.TryReadI32Typed(2)
	require.True(t, ok)
	require.Equal(t, int32(10), got)
}

// TestIncThenLoadGlobal_Reconciles mirrors spec.md §8 end-to-end scenario 5:
// INC on a global-backed register followed by a global load must observe
// the post-increment value.
func TestIncThenLoadGlobal_Reconciles(t *testing.T) {
	f := typedreg.New(4)
	f.SetRegisterSafe(0, value.I32(41))
	f.IncI32(0)
	require.True(t, f.IsDirty(0), "INC must not clear dirty")

	reconciled := f.ReconcileTypedRegister(0)
	require.Equal(t, int32(42), reconciled.AsI32())
	require.False(t, f.IsDirty(0))
}

func TestTryReadTyped_DoesNotClearDirty(t *testing.T) {
	f := typedreg.New(2)
	f.StoreI32TypedHot(0, 3)
	_, ok := f.TryReadI32Typed(0)
	require.True(t, ok)
	require.True(t, f.IsDirty(0))
}

func TestRehydrateFromBoxed_RestoresInvariantBWithoutDirty(t *testing.T) {
	g := typedreg.New(2)
	g.SetBoxedOnly(0, value.F64(2.5))
	g.RehydrateFromBoxed(0)
	got, ok := g.TryReadF64Typed(0)
	require.True(t, ok)
	require.Equal(t, 2.5, got)
	require.False(t, g.IsDirty(0))
}
