// Package heap implements the bump allocator backing every heap-allocated
// Value variant (string, bytes, array, enum-instance, error). It is not a
// production tracing collector: it exposes a safepoint contract and a
// GC-trigger-threshold hook sufficient to exercise the pinning invariant
// tagged-union construction (C8) depends on, as a no-op copying collector.
package heap

import (
	"fmt"

	"github.com/jordyorel/orus-lang-sub001/internal/value"
)

// DefaultGCThreshold is the number of allocations between safepoint-triggered
// collections under normal operation.
const DefaultGCThreshold = 1 << 16

// Heap owns every live *value.Object for one VM instance.
//
// Collection is triggered only at a safepoint (Alloc calls Safepoint
// internally once the allocation counter reaches gcThreshold); it never runs
// concurrently with guest execution. The "collector" here is a no-op: it
// exists to exercise the pin/unpin contract, not to reclaim memory, since
// tracing and relocation are explicitly out of scope.
type Heap struct {
	objects      []*value.Object
	allocSince   int
	gcThreshold  int
	gcRuns       int
	pinned       map[*value.Object]int // pin refcount; pinned objects survive collection hooks
}

// New returns an empty Heap. threshold<=0 uses DefaultGCThreshold.
func New(threshold int) *Heap {
	if threshold <= 0 {
		threshold = DefaultGCThreshold
	}
	return &Heap{
		gcThreshold: threshold,
		pinned:      make(map[*value.Object]int),
	}
}

// SetThreshold changes the allocation count between safepoint collections.
// Used by tests to force a collection on the very next allocation (threshold
// 1), exercising the pinning invariant under GC pressure.
func (h *Heap) SetThreshold(n int) {
	if n <= 0 {
		n = 1
	}
	h.gcThreshold = n
}

// Alloc allocates a fresh, zero-valued Object of the given kind, registers it
// with the heap, and runs a safepoint check.
func (h *Heap) Alloc(kind value.Kind) *value.Object {
	obj := &value.Object{Kind: kind}
	h.objects = append(h.objects, obj)
	h.allocSince++
	if h.allocSince >= h.gcThreshold {
		h.Safepoint()
	}
	return obj
}

// Pin marks obj as a GC root for the duration of a multi-allocation
// construction sequence (e.g. tagged-union building a payload array and then
// the instance that references it). Unpin must be called exactly once per
// Pin. A pinned object is never touched by Safepoint's collection hook.
func (h *Heap) Pin(obj *value.Object) {
	if obj == nil {
		return
	}
	h.pinned[obj]++
}

// Unpin releases one pin previously taken by Pin.
func (h *Heap) Unpin(obj *value.Object) {
	if obj == nil {
		return
	}
	if h.pinned[obj] <= 1 {
		delete(h.pinned, obj)
		return
	}
	h.pinned[obj]--
}

// IsPinned reports whether obj currently has at least one outstanding pin.
func (h *Heap) IsPinned(obj *value.Object) bool {
	return h.pinned[obj] > 0
}

// Safepoint is the only program point at which collection may run: back-edge
// safepoints in the dispatch loop, function entry, and allocator slow paths.
// This collector is a no-op copying collector — it never moves or frees
// objects — because the spec's core has no interest in the marking
// algorithm itself, only in the contract that pinned objects are never
// disturbed across it.
func (h *Heap) Safepoint() {
	h.gcRuns++
	h.allocSince = 0
}

// Stats reports allocator bookkeeping.
type Stats struct {
	LiveObjects int
	GCRuns      int
	PinnedCount int
}

func (h *Heap) Stats() Stats {
	return Stats{
		LiveObjects: len(h.objects),
		GCRuns:      h.gcRuns,
		PinnedCount: len(h.pinned),
	}
}

// NewString allocates a heap-backed string Object.
func (h *Heap) NewString(s string) *value.Object {
	obj := h.Alloc(value.KindString)
	obj.Str = s
	return obj
}

// NewBytes allocates a heap-backed byte-slice Object, copying data so the
// caller's backing array is never aliased into the heap.
func (h *Heap) NewBytes(data []byte) *value.Object {
	obj := h.Alloc(value.KindBytes)
	obj.Bytes = append([]byte(nil), data...)
	return obj
}

// NewArray allocates a heap-backed array Object.
func (h *Heap) NewArray(elems []value.Value) *value.Object {
	obj := h.Alloc(value.KindArray)
	obj.Array = append([]value.Value(nil), elems...)
	return obj
}

// NewError allocates a heap-backed error Object.
func (h *Heap) NewError(message string) *value.Object {
	obj := h.Alloc(value.KindError)
	obj.Str = message
	return obj
}

// String renders brief allocator bookkeeping.
func (h *Heap) String() string {
	s := h.Stats()
	return fmt.Sprintf("heap{live=%d gc_runs=%d pinned=%d}", s.LiveObjects, s.GCRuns, s.PinnedCount)
}
