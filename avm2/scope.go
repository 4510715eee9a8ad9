package avm2

import (
	"github.com/noctilia/ruffle/gc"
)

// ---------------------------------------------------------------------------
// Scope: lexical scope chain
// ---------------------------------------------------------------------------

// Scope is one link of a lexical scope chain. Chains are immutable once
// captured by a function; activations extend them with frame-local links.
type Scope struct {
	parent *Scope
	values Object
}

// NewScope pushes a new scope holding values on top of parent.
func NewScope(mc *gc.Mutation, parent *Scope, values Object) *Scope {
	s := &Scope{parent: parent, values: values}
	mc.Allocate(s)
	return s
}

// Parent returns the enclosing scope, or nil at the outermost link.
func (s *Scope) Parent() *Scope {
	return s.parent
}

// Values returns the object holding this scope's bindings.
func (s *Scope) Values() Object {
	return s.values
}

// FindDefiningObject searches the chain from innermost to outermost for an
// object that resolves name, including prototype-chain resolution at every
// link.
func (s *Scope) FindDefiningObject(name QName) (Object, bool) {
	for link := s; link != nil; link = link.parent {
		if _, ok := link.values.ResolveProperty(name); ok {
			return link.values, true
		}
	}
	return nil, false
}

// GlobalObject returns the values of the outermost scope link.
func (s *Scope) GlobalObject() Object {
	link := s
	for link.parent != nil {
		link = link.parent
	}
	return link.values
}

// Trace marks the parent link and the scope values.
func (s *Scope) Trace(mark func(gc.Object)) {
	if s.parent != nil {
		mark(s.parent)
	}
	if s.values != nil {
		mark(s.values)
	}
}
