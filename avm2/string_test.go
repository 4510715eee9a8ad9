package avm2

import (
	"testing"

	"github.com/noctilia/ruffle/gc"
)

func TestStringFormsCompareSymmetrically(t *testing.T) {
	heap := gc.NewHeap()
	heap.Mutate(func(mc *gc.Mutation) error {
		owned := NewString(mc, "hello")
		static := StaticString("hello")

		if !owned.Equals(static) || !static.Equals(owned) {
			t.Error("equal content compared unequal across forms")
		}
		if owned.Str() != static.Str() {
			t.Error("Str() differs across forms")
		}
		if owned.Len() != 5 || static.Len() != 5 {
			t.Errorf("Len() = %d / %d", owned.Len(), static.Len())
		}

		other := NewString(mc, "world")
		if owned.Equals(other) {
			t.Error("different content compared equal")
		}
		return nil
	})
}

func TestOwnedStringIsTraced(t *testing.T) {
	heap := gc.NewHeap()
	var v Value
	heap.Mutate(func(mc *gc.Mutation) error {
		v = StringValue(NewString(mc, "kept"))
		return nil
	})

	marked := 0
	v.Trace(func(gc.Object) { marked++ })
	if marked != 1 {
		t.Errorf("owned string marked %d times, want 1", marked)
	}

	marked = 0
	StringValue(StaticString("const")).Trace(func(gc.Object) { marked++ })
	if marked != 0 {
		t.Errorf("static string marked %d times, want 0", marked)
	}
}
