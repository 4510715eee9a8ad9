package avm2

import (
	"github.com/noctilia/ruffle/abc"
)

// ---------------------------------------------------------------------------
// Method: immutable callable descriptor
// ---------------------------------------------------------------------------

// NativeFunc is a host-provided function body.
type NativeFunc func(a *Activation, this Value, args []Value) (Value, error)

// Method describes a callable body: either a host-native function or an
// entry point into a translation unit's bytecode. Methods are immutable
// after construction.
type Method struct {
	name   string
	native NativeFunc

	// Bytecode entry form
	tu    *TranslationUnit
	index uint32
}

// NewNativeMethod creates a method backed by a host-native function.
func NewNativeMethod(name string, fn NativeFunc) *Method {
	return &Method{name: name, native: fn}
}

// newEntryMethod creates a bytecode entry descriptor for a method index in
// the given translation unit.
func newEntryMethod(tu *TranslationUnit, index uint32) *Method {
	name := tu.file.String(tu.file.Methods[index].Name)
	return &Method{name: name, tu: tu, index: index}
}

// IsNative reports whether the method is a host-native function.
func (m *Method) IsNative() bool {
	return m.native != nil
}

// Name returns the method's name, possibly empty for anonymous methods.
func (m *Method) Name() string {
	return m.name
}

// Native returns the host function backing a native method, or nil.
func (m *Method) Native() NativeFunc {
	return m.native
}

// Unit returns the translation unit of a bytecode entry method, or nil.
func (m *Method) Unit() *TranslationUnit {
	return m.tu
}

// Body returns the bytecode body of an entry method.
// Returns false for native methods and bodiless entries.
func (m *Method) Body() (*abc.MethodBody, bool) {
	if m.tu == nil {
		return nil, false
	}
	return m.tu.file.Body(m.index)
}
