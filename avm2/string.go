package avm2

import (
	"github.com/noctilia/ruffle/gc"
)

// ---------------------------------------------------------------------------
// String: two-form text value
// ---------------------------------------------------------------------------

// ownedString is the heap-owned backing of a dynamically produced string.
type ownedString struct {
	chars string
}

func (s *ownedString) Trace(mark func(gc.Object)) {}

// String is a text value with two backing forms: a process-lifetime constant
// that needs no allocation, or a heap-owned string produced at runtime. The
// form is invisible to consumers; dereference and equality behave the same
// either way.
type String struct {
	owned  *ownedString
	static string
}

// NewString allocates a heap-owned string inside the given mutation window.
func NewString(mc *gc.Mutation, s string) String {
	owned := &ownedString{chars: s}
	mc.Allocate(owned)
	return String{owned: owned}
}

// StaticString wraps a process-lifetime constant without allocating.
func StaticString(s string) String {
	return String{static: s}
}

// Str returns the text content regardless of backing form.
func (s String) Str() string {
	if s.owned != nil {
		return s.owned.chars
	}
	return s.static
}

// Len returns the length of the text content in bytes.
func (s String) Len() int {
	return len(s.Str())
}

// Equals compares raw text content. The comparison is structural and
// symmetric regardless of which side holds which backing form.
func (s String) Equals(other String) bool {
	return s.Str() == other.Str()
}

func (s String) trace(mark func(gc.Object)) {
	if s.owned != nil {
		mark(s.owned)
	}
}
