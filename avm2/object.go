package avm2

import (
	"github.com/noctilia/ruffle/gc"
)

// ---------------------------------------------------------------------------
// Object model
// ---------------------------------------------------------------------------

// Callable is the call capability of an object. Objects that can be invoked
// return a Callable handle from their Callable method; everything else is
// definitively not callable.
type Callable interface {
	Call(receiver Value, args []Value, ctx *Context) (Value, error)
}

// Object is a heap-allocated AVM2 object: property storage plus
// prototype-chain resolution, polymorphic over the call capability.
type Object interface {
	gc.Object

	// GetOwnProperty returns the property defined directly on the object.
	GetOwnProperty(name QName) (Value, bool)

	// ResolveProperty looks the property up on the object and then along
	// its prototype chain.
	ResolveProperty(name QName) (Value, bool)

	// SetProperty defines or overwrites a property on the object itself.
	SetProperty(name QName, value Value, mc *gc.Mutation)

	// Proto returns the prototype, or nil at the end of the chain.
	Proto() Object

	// Callable returns the object's call capability, or false if the
	// object is not callable.
	Callable() (Callable, bool)
}

// ---------------------------------------------------------------------------
// ScriptObject: the plain property-bag object
// ---------------------------------------------------------------------------

// ScriptObject is the basic object: a property map and a prototype link.
type ScriptObject struct {
	properties map[QName]Value
	proto      Object
}

// NewScriptObject allocates a plain object with the given prototype.
func NewScriptObject(mc *gc.Mutation, proto Object) *ScriptObject {
	obj := &ScriptObject{
		properties: make(map[QName]Value),
		proto:      proto,
	}
	mc.Allocate(obj)
	return obj
}

// GetOwnProperty returns a property defined directly on this object.
func (o *ScriptObject) GetOwnProperty(name QName) (Value, bool) {
	v, ok := o.properties[name]
	return v, ok
}

// ResolveProperty walks the prototype chain starting at this object.
func (o *ScriptObject) ResolveProperty(name QName) (Value, bool) {
	if v, ok := o.properties[name]; ok {
		return v, true
	}
	for proto := o.proto; proto != nil; proto = proto.Proto() {
		if v, ok := proto.GetOwnProperty(name); ok {
			return v, true
		}
	}
	return Undefined, false
}

// SetProperty defines or overwrites a property on this object.
func (o *ScriptObject) SetProperty(name QName, value Value, mc *gc.Mutation) {
	o.properties[name] = value
}

// DeleteProperty removes a property defined on this object.
func (o *ScriptObject) DeleteProperty(name QName) {
	delete(o.properties, name)
}

// OwnProperties calls fn for every property defined directly on the object.
func (o *ScriptObject) OwnProperties(fn func(name QName, value Value)) {
	for name, value := range o.properties {
		fn(name, value)
	}
}

// Proto returns the prototype link.
func (o *ScriptObject) Proto() Object {
	return o.proto
}

// Callable returns false: plain objects cannot be invoked.
func (o *ScriptObject) Callable() (Callable, bool) {
	return nil, false
}

// Trace marks the prototype and every property value.
func (o *ScriptObject) Trace(mark func(gc.Object)) {
	if o.proto != nil {
		mark(o.proto)
	}
	for _, v := range o.properties {
		v.Trace(mark)
	}
}
