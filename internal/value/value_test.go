package value_test

import (
	"testing"

	"github.com/jordyorel/orus-lang-sub001/internal/value"
	"github.com/stretchr/testify/require"
)

func TestPrimitiveConstructors_RoundTrip(t *testing.T) {
	require.Equal(t, int32(-7), value.I32(-7).AsI32())
	require.Equal(t, int64(1<<40), value.I64(1<<40).AsI64())
	require.Equal(t, uint32(4000000000), value.U32(4000000000).AsU32())
	require.Equal(t, uint64(1<<63), value.U64(1<<63).AsU64())
	require.Equal(t, 3.5, value.F64(3.5).AsF64())
	require.True(t, value.Bool(true).AsBool())
	require.False(t, value.Bool(false).AsBool())
}

func TestEqual_PrimitivesCompareByBits(t *testing.T) {
	require.True(t, value.I32(5).Equal(value.I32(5)))
	require.False(t, value.I32(5).Equal(value.I32(6)))
	require.False(t, value.I32(5).Equal(value.I64(5)), "different kinds never equal")
}

func TestEqual_HeapValuesCompareByIdentity(t *testing.T) {
	objA := &value.Object{Kind: value.KindString, Str: "x"}
	objB := &value.Object{Kind: value.KindString, Str: "x"}

	a := value.Str(objA)
	b := value.Str(objB)
	c := value.Str(objA)

	require.False(t, a.Equal(b), "distinct objects with equal contents are not Value-equal")
	require.True(t, a.Equal(c), "same object pointer is equal")
}

func TestKind_IsPrimitive(t *testing.T) {
	require.True(t, value.KindI32.IsPrimitive())
	require.True(t, value.KindF64.IsPrimitive())
	require.False(t, value.KindString.IsPrimitive())
	require.False(t, value.KindNil.IsPrimitive())
}

func TestString_FormatsEachVariant(t *testing.T) {
	require.Equal(t, "nil", value.Nil.String())
	require.Equal(t, "42", value.I32(42).String())
	require.Equal(t, "true", value.Bool(true).String())

	obj := &value.Object{Kind: value.KindEnumInstance, Enum: &value.EnumInstance{
		TypeName:    "Result",
		VariantName: "Ok",
	}}
	require.Equal(t, "Result.Ok", value.Enum(obj).String())
}

func TestInternTable_DedupesEqualStrings(t *testing.T) {
	tbl := value.NewInternTable()
	a := tbl.Intern("Result")
	b := tbl.Intern("Result")
	c := tbl.Intern("Option")

	require.Equal(t, a, b)
	require.Equal(t, 2, tbl.Len())
	require.Equal(t, "Option", c)
}
