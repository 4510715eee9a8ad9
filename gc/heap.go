// Package gc provides a small mark-sweep heap with scoped mutation windows.
//
// The host grants one mutation window per update tick via Heap.Mutate; every
// call path that allocates or mutates shared state carries the *Mutation
// token so the discipline is visible at each call boundary. Allocating
// outside a window is an initialization-ordering bug, not a recoverable
// runtime error, and panics.
package gc

import (
	"time"
)

// Object is anything that can live on the heap. Trace must call mark for
// every heap object directly reachable from the receiver.
type Object interface {
	Trace(mark func(Object))
}

// ---------------------------------------------------------------------------
// Heap
// ---------------------------------------------------------------------------

// Heap tracks every live heap object. Objects become unreachable garbage
// when a Collect pass cannot mark them from the given roots.
type Heap struct {
	live map[Object]struct{}

	// windowDepth > 0 while a mutation window is open. Windows may nest
	// (a native callable may re-enter the player, which re-enters Mutate).
	windowDepth int

	// Statistics
	allocCount   uint64
	collectCount uint64
}

// NewHeap creates an empty heap with no open mutation window.
func NewHeap() *Heap {
	return &Heap{
		live: make(map[Object]struct{}),
	}
}

// Mutate opens a mutation window, runs fn with the window token, and closes
// the window again. Windows nest; the outermost close ends the window. The
// window closes even when fn returns an error.
func (h *Heap) Mutate(fn func(mc *Mutation) error) error {
	h.windowDepth++
	defer func() { h.windowDepth-- }()
	return fn(&Mutation{heap: h})
}

// InWindow reports whether a mutation window is currently open.
func (h *Heap) InWindow() bool {
	return h.windowDepth > 0
}

// Len returns the number of live heap objects.
func (h *Heap) Len() int {
	return len(h.live)
}

// AllocCount returns the total number of allocations performed.
func (h *Heap) AllocCount() uint64 {
	return h.allocCount
}

// ---------------------------------------------------------------------------
// Mutation: the window token
// ---------------------------------------------------------------------------

// Mutation is the token granting heap access for the duration of one window.
// It is only valid inside the Heap.Mutate call that produced it; callers
// must not retain it past the window.
type Mutation struct {
	heap *Heap
}

// Allocate registers obj as a live heap object and returns it.
// Panics if called outside a mutation window.
func (mc *Mutation) Allocate(obj Object) Object {
	if !mc.heap.InWindow() {
		panic("gc: allocation outside mutation window")
	}
	mc.heap.live[obj] = struct{}{}
	mc.heap.allocCount++
	return obj
}

// Heap returns the heap this window belongs to.
func (mc *Mutation) Heap() *Heap {
	return mc.heap
}

// ---------------------------------------------------------------------------
// Collection
// ---------------------------------------------------------------------------

// CollectStats holds statistics from a single collection pass.
type CollectStats struct {
	Marked        int
	Swept         int
	SweepDuration time.Duration
	Timestamp     time.Time
}

// Collect performs one mark-sweep pass. Everything reachable from roots via
// Object.Trace survives; everything else is dropped from the live set.
// Collect must not run while a mutation window is open.
func (h *Heap) Collect(roots ...Object) CollectStats {
	if h.InWindow() {
		panic("gc: collect inside mutation window")
	}

	start := time.Now()
	stats := CollectStats{Timestamp: start}

	marked := make(map[Object]struct{}, len(h.live))
	var mark func(Object)
	mark = func(obj Object) {
		if obj == nil {
			return
		}
		if _, seen := marked[obj]; seen {
			return
		}
		marked[obj] = struct{}{}
		obj.Trace(mark)
	}
	for _, root := range roots {
		mark(root)
	}

	for obj := range h.live {
		if _, ok := marked[obj]; !ok {
			delete(h.live, obj)
			stats.Swept++
		}
	}

	stats.Marked = len(marked)
	stats.SweepDuration = time.Since(start)
	h.collectCount++
	return stats
}

// CollectCount returns the total number of collection passes performed.
func (h *Heap) CollectCount() uint64 {
	return h.collectCount
}
