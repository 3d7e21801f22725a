package natives_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jordyorel/orus-lang-sub001/internal/heap"
	"github.com/jordyorel/orus-lang-sub001/internal/natives"
	"github.com/jordyorel/orus-lang-sub001/internal/value"
)

func TestLookup_ResolvesBuiltinSymbols(t *testing.T) {
	r := natives.New()
	d, ok := r.Lookup("__orus_sha3_256")
	require.True(t, ok)
	require.Equal(t, value.KindBytes, d.Signature.Param)
	require.Equal(t, value.KindBytes, d.Signature.Return)
}

func TestByIndex_RoundTripsRegisteredOrder(t *testing.T) {
	r := natives.New()
	d, ok := r.Lookup("__orus_sin")
	require.True(t, ok)
	byIdx, ok := r.ByIndex(d.Index)
	require.True(t, ok)
	require.Same(t, d, byIdx)
}

func TestByIndex_OutOfRangeFails(t *testing.T) {
	r := natives.New()
	_, ok := r.ByIndex(uint16(r.Len() + 10))
	require.False(t, ok)
}

func TestSHA3_256_IsDeterministic(t *testing.T) {
	r := natives.New()
	d, _ := r.Lookup("__orus_sha3_256")
	h := heap.New(heap.DefaultGCThreshold)
	in := value.Str(h.NewString("orus"))
	out1, err := d.Call(in, h)
	require.NoError(t, err)
	out2, err := d.Call(in, h)
	require.NoError(t, err)
	require.Equal(t, out1.Obj.Bytes, out2.Obj.Bytes)
	require.Len(t, out1.Obj.Bytes, 32)
}

func TestSHAKE256_ProducesFixedLength(t *testing.T) {
	r := natives.New()
	d, _ := r.Lookup("__orus_shake256")
	h := heap.New(heap.DefaultGCThreshold)
	in := value.Str(h.NewString("orus"))
	out, err := d.Call(in, h)
	require.NoError(t, err)
	require.Len(t, out.Obj.Bytes, 32)
}

func TestSqrt_MatchesMathSqrt(t *testing.T) {
	r := natives.New()
	d, _ := r.Lookup("__orus_sqrt")
	h := heap.New(heap.DefaultGCThreshold)
	out, err := d.Call(value.F64(16.0), h)
	require.NoError(t, err)
	require.Equal(t, 4.0, out.AsF64())
}

func TestSqrt_RejectsWrongKind(t *testing.T) {
	r := natives.New()
	d, _ := r.Lookup("__orus_sqrt")
	h := heap.New(heap.DefaultGCThreshold)
	_, err := d.Call(value.I32(16), h)
	require.Error(t, err)
}
