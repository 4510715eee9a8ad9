package gc

import (
	"testing"
)

// ---------------------------------------------------------------------------
// Test fixtures
// ---------------------------------------------------------------------------

// node is a heap object with outgoing edges.
type node struct {
	edges []*node
}

func (n *node) Trace(mark func(Object)) {
	for _, e := range n.edges {
		mark(e)
	}
}

// ---------------------------------------------------------------------------
// Mutation window discipline
// ---------------------------------------------------------------------------

func TestAllocateInsideWindow(t *testing.T) {
	h := NewHeap()

	h.Mutate(func(mc *Mutation) error {
		mc.Allocate(&node{})
		mc.Allocate(&node{})
		return nil
	})

	if h.Len() != 2 {
		t.Errorf("expected 2 live objects, got %d", h.Len())
	}
	if h.AllocCount() != 2 {
		t.Errorf("expected alloc count 2, got %d", h.AllocCount())
	}
}

func TestAllocateOutsideWindowPanics(t *testing.T) {
	h := NewHeap()

	var leaked *Mutation
	h.Mutate(func(mc *Mutation) error {
		leaked = mc
		return nil
	})

	defer func() {
		if recover() == nil {
			t.Error("expected panic allocating outside mutation window")
		}
	}()
	leaked.Allocate(&node{})
}

func TestWindowsNest(t *testing.T) {
	h := NewHeap()

	h.Mutate(func(outer *Mutation) error {
		h.Mutate(func(inner *Mutation) error {
			inner.Allocate(&node{})
			return nil
		})
		// Outer window must still be open after inner closes.
		outer.Allocate(&node{})
		return nil
	})

	if h.InWindow() {
		t.Error("window still open after outermost Mutate returned")
	}
	if h.Len() != 2 {
		t.Errorf("expected 2 live objects, got %d", h.Len())
	}
}

func TestMutatePropagatesError(t *testing.T) {
	h := NewHeap()

	want := errStub("boom")
	err := h.Mutate(func(mc *Mutation) error {
		return want
	})
	if err != want {
		t.Errorf("Mutate returned %v, want %v", err, want)
	}
	if h.InWindow() {
		t.Error("window left open after error")
	}
}

type errStub string

func (e errStub) Error() string { return string(e) }

// ---------------------------------------------------------------------------
// Collection
// ---------------------------------------------------------------------------

func TestCollectSweepsUnreachable(t *testing.T) {
	h := NewHeap()

	var root, garbage *node
	h.Mutate(func(mc *Mutation) error {
		root = &node{}
		garbage = &node{}
		mc.Allocate(root)
		mc.Allocate(garbage)
		return nil
	})

	stats := h.Collect(root)
	if stats.Swept != 1 {
		t.Errorf("expected 1 swept, got %d", stats.Swept)
	}
	if h.Len() != 1 {
		t.Errorf("expected 1 live object, got %d", h.Len())
	}
}

func TestCollectFollowsEdges(t *testing.T) {
	h := NewHeap()

	var root, child, grandchild *node
	h.Mutate(func(mc *Mutation) error {
		grandchild = &node{}
		child = &node{edges: []*node{grandchild}}
		root = &node{edges: []*node{child}}
		mc.Allocate(grandchild)
		mc.Allocate(child)
		mc.Allocate(root)
		return nil
	})

	stats := h.Collect(root)
	if stats.Swept != 0 {
		t.Errorf("expected 0 swept, got %d", stats.Swept)
	}
	if stats.Marked != 3 {
		t.Errorf("expected 3 marked, got %d", stats.Marked)
	}
}

func TestCollectHandlesCycles(t *testing.T) {
	h := NewHeap()

	var a, b *node
	h.Mutate(func(mc *Mutation) error {
		a = &node{}
		b = &node{edges: []*node{a}}
		a.edges = []*node{b}
		mc.Allocate(a)
		mc.Allocate(b)
		return nil
	})

	// Cycle reachable from a root survives.
	h.Collect(a)
	if h.Len() != 2 {
		t.Errorf("expected cycle to survive, got %d live", h.Len())
	}

	// Unreachable cycle is swept.
	stats := h.Collect()
	if stats.Swept != 2 {
		t.Errorf("expected unreachable cycle swept, got %d", stats.Swept)
	}
}

func TestCollectInsideWindowPanics(t *testing.T) {
	h := NewHeap()

	defer func() {
		if recover() == nil {
			t.Error("expected panic collecting inside mutation window")
		}
	}()
	h.Mutate(func(mc *Mutation) error {
		h.Collect()
		return nil
	})
}
