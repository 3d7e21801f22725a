package profiler_test

import (
	"testing"

	"github.com/jordyorel/orus-lang-sub001/internal/profiler"
	"github.com/stretchr/testify/require"
)

func TestProfileTick_TriggersExactlyAtThreshold(t *testing.T) {
	p := profiler.New()
	triggered := 0
	for i := 0; i < profiler.HotThreshold; i++ {
		if p.ProfileTick("main", 0) {
			triggered++
			require.Equal(t, profiler.HotThreshold-1, i)
		}
	}
	require.Equal(t, 1, triggered)
}

func TestProfileTick_KeysAreIndependentPerFuncLoop(t *testing.T) {
	p := profiler.New()
	p.ProfileTick("a", 0)
	p.ProfileTick("b", 0)
	require.Equal(t, 1, p.Sample("a", 0).HitCount)
	require.Equal(t, 1, p.Sample("b", 0).HitCount)
}

func TestReset_ZeroesCounterForReuse(t *testing.T) {
	p := profiler.New()
	for i := 0; i < profiler.HotThreshold; i++ {
		p.ProfileTick("main", 0)
	}
	p.Reset("main", 0)
	require.Equal(t, 0, p.Sample("main", 0).HitCount)
	require.False(t, p.ProfileTick("main", 0) && p.Sample("main", 0).HitCount != 1)
}
