package tagged_test

import (
	"testing"

	"github.com/jordyorel/orus-lang-sub001/internal/heap"
	"github.com/jordyorel/orus-lang-sub001/internal/tagged"
	"github.com/jordyorel/orus-lang-sub001/internal/value"
	"github.com/stretchr/testify/require"
)

func TestResultOk_Shape(t *testing.T) {
	h := heap.New(0)
	interned := value.NewInternTable()

	var out value.Value
	ok := tagged.ResultOk(h, interned, value.I32(42), &out)
	require.True(t, ok)
	require.Equal(t, value.KindEnumInstance, out.Kind)

	inst := out.Obj.Enum
	require.Equal(t, "Result", inst.TypeName)
	require.Equal(t, "Ok", inst.VariantName)
	require.Equal(t, 0, inst.VariantIndex)
	require.Len(t, inst.Payload, 1)
	require.Equal(t, int32(42), inst.Payload[0].AsI32())
}

func TestResultErr_Shape(t *testing.T) {
	h := heap.New(0)
	interned := value.NewInternTable()

	var out value.Value
	ok := tagged.ResultErr(h, interned, value.I32(-1), &out)
	require.True(t, ok)
	require.Equal(t, "Err", out.Obj.Enum.VariantName)
	require.Equal(t, 1, out.Obj.Enum.VariantIndex)
}

func TestMakeTaggedUnion_MissingTypeNameFails(t *testing.T) {
	h := heap.New(0)
	interned := value.NewInternTable()

	out := value.I32(99) // sentinel; must remain untouched on failure
	ok := tagged.MakeTaggedUnion(h, interned, tagged.Request{}, &out)
	require.False(t, ok)
	require.Equal(t, int32(99), out.AsI32())
}

func TestMakeTaggedUnion_PayloadCountWithoutPayloadFails(t *testing.T) {
	h := heap.New(0)
	interned := value.NewInternTable()

	out := value.Nil
	ok := tagged.MakeTaggedUnion(h, interned, tagged.Request{
		TypeName:     "Option",
		VariantName:  "Some",
		PayloadCount: 1,
	}, &out)
	require.False(t, ok)
}

func TestMakeTaggedUnion_ZeroPayloadAllocatesNoArray(t *testing.T) {
	h := heap.New(0)
	interned := value.NewInternTable()

	var out value.Value
	ok := tagged.MakeTaggedUnion(h, interned, tagged.Request{
		TypeName:    "Option",
		VariantName: "None",
	}, &out)
	require.True(t, ok)
	require.Nil(t, out.Obj.Enum.Payload)
}

// TestResultOk_SurvivesGCPressure lowers the collection threshold to 1 so a
// safepoint is forced between the payload-array allocation and the
// instance allocation; the result must still be a well-formed
// Result.Ok(42).
func TestResultOk_SurvivesGCPressure(t *testing.T) {
	h := heap.New(1)
	interned := value.NewInternTable()

	var out value.Value
	ok := tagged.ResultOk(h, interned, value.I32(42), &out)
	require.True(t, ok)

	inst := out.Obj.Enum
	require.Equal(t, "Result", inst.TypeName)
	require.Equal(t, "Ok", inst.VariantName)
	require.Equal(t, 0, inst.VariantIndex)
	require.Len(t, inst.Payload, 1)
	require.Equal(t, int32(42), inst.Payload[0].AsI32())
}
