// Package tagged implements the tagged-union constructor (C8):
// make_tagged_union and the result_ok/result_err shortcut constructors, with
// the GC-pinning discipline spec.md §4.7 requires across the two allocations
// (payload array, then instance) a construction performs.
package tagged

import (
	"github.com/jordyorel/orus-lang-sub001/internal/heap"
	"github.com/jordyorel/orus-lang-sub001/internal/value"
)

// Request bundles the inputs to MakeTaggedUnion.
type Request struct {
	TypeName     string
	VariantName  string
	VariantIndex int
	Payload      []value.Value // nil/empty when PayloadCount == 0
	PayloadCount int
}

// MakeTaggedUnion allocates a new enum-instance Value per spec.md §4.7.
//
// Failure modes leave out untouched and return false:
//   - TypeName is empty.
//   - PayloadCount > 0 but Payload is nil.
//
// Of the two allocations this requires (the payload array object, then
// the instance object referencing it), the payload array is pinned until
// the instance has been allocated, so a safepoint-triggered collection
// between them can never observe or discard a partially-built value — the invariant exercised by lowering the heap's
// GC trigger threshold to 1 and constructing Result.Ok(i32).
func MakeTaggedUnion(h *heap.Heap, interned *value.InternTable, req Request, out *value.Value) bool {
	if req.TypeName == "" {
		return false
	}
	if req.PayloadCount > 0 && req.Payload == nil {
		return false
	}

	typeName := interned.Intern(req.TypeName)
	variantName := req.VariantName
	if variantName != "" {
		variantName = interned.Intern(variantName)
	}

	instance := &value.EnumInstance{
		TypeName:     typeName,
		VariantName:  variantName,
		VariantIndex: req.VariantIndex,
	}

	if req.PayloadCount > 0 {
		payloadObj := h.NewArray(req.Payload[:req.PayloadCount])
		h.Pin(payloadObj)
		defer h.Unpin(payloadObj)
		instance.Payload = payloadObj.Array
	}

	enumObj := h.Alloc(value.KindEnumInstance)
	enumObj.Enum = instance

	*out = value.Enum(enumObj)
	return true
}

// ResultOk builds Result.Ok(v): make_tagged_union({"Result","Ok",0,[v],1}).
func ResultOk(h *heap.Heap, interned *value.InternTable, v value.Value, out *value.Value) bool {
	return MakeTaggedUnion(h, interned, Request{
		TypeName:     "Result",
		VariantName:  "Ok",
		VariantIndex: 0,
		Payload:      []value.Value{v},
		PayloadCount: 1,
	}, out)
}

// ResultErr builds Result.Err(v): make_tagged_union({"Result","Err",1,[v],1}).
func ResultErr(h *heap.Heap, interned *value.InternTable, v value.Value, out *value.Value) bool {
	return MakeTaggedUnion(h, interned, Request{
		TypeName:     "Result",
		VariantName:  "Err",
		VariantIndex: 1,
		Payload:      []value.Value{v},
		PayloadCount: 1,
	}, out)
}
