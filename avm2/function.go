package avm2

import (
	"fmt"

	"github.com/noctilia/ruffle/gc"
)

// ---------------------------------------------------------------------------
// FunctionObject: callable object
// ---------------------------------------------------------------------------

// FunctionObject is an object carrying the call capability: a method body
// plus the lexical scope it closes over.
type FunctionObject struct {
	ScriptObject
	method *Method
	scope  *Scope
}

// NewFunctionObject allocates a callable object for the given method and
// captured scope.
func NewFunctionObject(mc *gc.Mutation, proto Object, method *Method, scope *Scope) *FunctionObject {
	fo := &FunctionObject{
		ScriptObject: ScriptObject{
			properties: make(map[QName]Value),
			proto:      proto,
		},
		method: method,
		scope:  scope,
	}
	mc.Allocate(fo)
	return fo
}

// NewNativeFunctionObject allocates a callable wrapping a host function.
func NewNativeFunctionObject(mc *gc.Mutation, proto Object, name string, fn NativeFunc) *FunctionObject {
	return NewFunctionObject(mc, proto, NewNativeMethod(name, fn), nil)
}

// Method returns the function's immutable method descriptor.
func (fo *FunctionObject) Method() *Method {
	return fo.method
}

// Callable returns the function itself as its call capability.
func (fo *FunctionObject) Callable() (Callable, bool) {
	return fo, true
}

// Call invokes the function with the given receiver and arguments.
func (fo *FunctionObject) Call(receiver Value, args []Value, ctx *Context) (Value, error) {
	a := FromNothing(ctx)
	if fo.method.IsNative() {
		return fo.method.Native()(a, receiver, args)
	}
	result, err := a.runMethodBody(fo.method, fo.scope, receiver, args)
	if err != nil {
		return Undefined, fmt.Errorf("avm2: calling %s: %w", fo.describe(), err)
	}
	return result, nil
}

func (fo *FunctionObject) describe() string {
	if name := fo.method.Name(); name != "" {
		return name
	}
	return "<anonymous>"
}

// Trace marks properties, prototype, captured scope, and the owning unit.
func (fo *FunctionObject) Trace(mark func(gc.Object)) {
	fo.ScriptObject.Trace(mark)
	if fo.scope != nil {
		mark(fo.scope)
	}
	if tu := fo.method.Unit(); tu != nil {
		mark(tu)
	}
}
