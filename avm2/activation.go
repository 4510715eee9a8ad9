package avm2

import (
	"fmt"
	"math"

	"github.com/noctilia/ruffle/abc"
)

// ---------------------------------------------------------------------------
// Activation: one transient call frame
// ---------------------------------------------------------------------------

// Activation executes one method body against a receiver, argument list, and
// lexical scope. Activations are exclusively owned by the call that creates
// them and never outlive it; nested calls create fresh activations that
// reenter the interpreter's shared operand stack.
type Activation struct {
	ctx    *Context
	script *Script
}

// FromNothing creates a context-less activation, used for host-driven calls
// and the player-globals loader.
func FromNothing(ctx *Context) *Activation {
	return &Activation{ctx: ctx}
}

// FromScript creates an activation bound to a script initializer.
func FromScript(ctx *Context, script *Script) (*Activation, error) {
	if script == nil {
		return nil, fmt.Errorf("avm2: activation from nil script")
	}
	return &Activation{ctx: ctx, script: script}, nil
}

// Context returns the host context this activation runs under.
func (a *Activation) Context() *Context {
	return a.ctx
}

// Avm returns the owning interpreter.
func (a *Activation) Avm() *Avm2 {
	return a.ctx.Avm
}

// RunStackFrameForScript executes a script initializer's bytecode body with
// the script's global object as receiver.
func (a *Activation) RunStackFrameForScript(script *Script) error {
	method, globals := script.Init(a.ctx.GC)
	if method.IsNative() {
		_, err := method.Native()(a, ObjectValue(globals), nil)
		return err
	}
	_, err := a.runMethodBody(method, nil, ObjectValue(globals), nil)
	return err
}

// runMethodBody executes a method's bytecode body in a fresh frame on top
// of the shared operand stack.
func (a *Activation) runMethodBody(m *Method, outer *Scope, receiver Value, args []Value) (Value, error) {
	if m.IsNative() {
		return m.Native()(a, receiver, args)
	}
	body, ok := m.Body()
	if !ok {
		return Undefined, fmt.Errorf("avm2: method %q has no body", m.Name())
	}

	localCount := int(body.LocalCount)
	if localCount < 1+len(args) {
		localCount = 1 + len(args)
	}
	locals := make([]Value, localCount)
	locals[0] = receiver
	copy(locals[1:], args)
	for i := 1 + len(args); i < localCount; i++ {
		locals[i] = Undefined
	}

	f := &frame{
		a:      a,
		tu:     m.Unit(),
		body:   body,
		locals: locals,
		outer:  outer,
		scope:  outer,
	}
	return f.run()
}

// ---------------------------------------------------------------------------
// frame: bytecode execution state
// ---------------------------------------------------------------------------

type frame struct {
	a    *Activation
	tu   *TranslationUnit
	body *abc.MethodBody
	ip   int

	locals []Value

	// outer is the scope captured at frame entry; scope is the innermost
	// link including frame-local pushes. frameScopes tracks the frame-local
	// objects bottom to top for getscopeobject.
	outer       *Scope
	scope       *Scope
	frameScopes []Object
}

func (f *frame) errorf(format string, args ...interface{}) error {
	prefix := fmt.Sprintf("avm2: offset %04d: ", f.ip)
	return fmt.Errorf(prefix+format, args...)
}

// --- operand decoding ---

func (f *frame) u8() (byte, error) {
	if f.ip >= len(f.body.Code) {
		return 0, f.errorf("truncated instruction")
	}
	b := f.body.Code[f.ip]
	f.ip++
	return b, nil
}

func (f *frame) u30() (uint32, error) {
	var result uint32
	var shift uint
	for i := 0; i < 5; i++ {
		b, err := f.u8()
		if err != nil {
			return 0, err
		}
		result |= uint32(b&0x7F) << shift
		if b&0x80 == 0 {
			return result & 0x3FFFFFFF, nil
		}
		shift += 7
	}
	return 0, f.errorf("overlong variable-length integer")
}

func (f *frame) s24() (int32, error) {
	if f.ip+3 > len(f.body.Code) {
		return 0, f.errorf("truncated branch offset")
	}
	code := f.body.Code
	v := int32(code[f.ip]) | int32(code[f.ip+1])<<8 | int32(code[f.ip+2])<<16
	if v&0x800000 != 0 {
		v |= ^int32(0xFFFFFF)
	}
	f.ip += 3
	return v, nil
}

// --- execution ---

func (f *frame) run() (Value, error) {
	avm := f.a.ctx.Avm
	mc := f.a.ctx.GC

	for f.ip < len(f.body.Code) {
		opOffset := f.ip
		op := abc.Opcode(f.body.Code[f.ip])
		f.ip++

		if avm.DebugOutput {
			log.Debugf("exec %04d %s", opOffset, op.Name())
		}

		switch op {
		// --- constants ---
		case abc.OpPushNull:
			avm.Push(Null)
		case abc.OpPushUndefined:
			avm.Push(Undefined)
		case abc.OpPushTrue:
			avm.Push(True)
		case abc.OpPushFalse:
			avm.Push(False)
		case abc.OpPushNaN:
			avm.Push(NumberValue(math.NaN()))
		case abc.OpPushByte:
			b, err := f.u8()
			if err != nil {
				return Undefined, err
			}
			avm.Push(IntegerValue(int32(int8(b))))
		case abc.OpPushShort:
			v, err := f.u30()
			if err != nil {
				return Undefined, err
			}
			// Operand is a 30-bit value interpreted as signed.
			avm.Push(IntegerValue(int32(v<<2) >> 2))
		case abc.OpPushString:
			idx, err := f.u30()
			if err != nil {
				return Undefined, err
			}
			if int(idx) >= len(f.tu.file.Strings) {
				return Undefined, f.errorf("string index %d out of range", idx)
			}
			// Pool strings live as long as the unit; use the constant form.
			avm.Push(StringValue(StaticString(f.tu.file.Strings[idx])))
		case abc.OpPushInt:
			idx, err := f.u30()
			if err != nil {
				return Undefined, err
			}
			if int(idx) >= len(f.tu.file.Ints) {
				return Undefined, f.errorf("int index %d out of range", idx)
			}
			avm.Push(IntegerValue(f.tu.file.Ints[idx]))
		case abc.OpPushUInt:
			idx, err := f.u30()
			if err != nil {
				return Undefined, err
			}
			if int(idx) >= len(f.tu.file.UInts) {
				return Undefined, f.errorf("uint index %d out of range", idx)
			}
			avm.Push(NumberValue(float64(f.tu.file.UInts[idx])))
		case abc.OpPushDouble:
			idx, err := f.u30()
			if err != nil {
				return Undefined, err
			}
			if int(idx) >= len(f.tu.file.Doubles) {
				return Undefined, f.errorf("double index %d out of range", idx)
			}
			avm.Push(NumberValue(f.tu.file.Doubles[idx]))

		// --- stack manipulation ---
		case abc.OpPop:
			avm.Pop()
		case abc.OpDup:
			v := avm.Pop()
			avm.Push(v)
			avm.Push(v)
		case abc.OpSwap:
			b := avm.Pop()
			x := avm.Pop()
			avm.Push(b)
			avm.Push(x)

		// --- locals ---
		case abc.OpGetLocal0, abc.OpGetLocal1, abc.OpGetLocal2, abc.OpGetLocal3:
			if err := f.getLocal(avm, int(op-abc.OpGetLocal0)); err != nil {
				return Undefined, err
			}
		case abc.OpSetLocal0, abc.OpSetLocal1, abc.OpSetLocal2, abc.OpSetLocal3:
			if err := f.setLocal(avm, int(op-abc.OpSetLocal0)); err != nil {
				return Undefined, err
			}
		case abc.OpGetLocal:
			idx, err := f.u30()
			if err != nil {
				return Undefined, err
			}
			if err := f.getLocal(avm, int(idx)); err != nil {
				return Undefined, err
			}
		case abc.OpSetLocal:
			idx, err := f.u30()
			if err != nil {
				return Undefined, err
			}
			if err := f.setLocal(avm, int(idx)); err != nil {
				return Undefined, err
			}
		case abc.OpKill:
			idx, err := f.u30()
			if err != nil {
				return Undefined, err
			}
			if int(idx) < len(f.locals) {
				f.locals[idx] = Undefined
			}

		// --- scope ---
		case abc.OpPushScope:
			v := avm.Pop()
			obj, ok := v.AsObject()
			if !ok {
				return Undefined, f.errorf("pushscope on %s value", v.Kind())
			}
			f.scope = NewScope(mc, f.scope, obj)
			f.frameScopes = append(f.frameScopes, obj)
		case abc.OpPopScope:
			if len(f.frameScopes) == 0 {
				log.Warningf("popscope on empty frame scope stack")
				break
			}
			f.scope = f.scope.Parent()
			f.frameScopes = f.frameScopes[:len(f.frameScopes)-1]
		case abc.OpGetGlobalScope:
			if f.scope != nil {
				avm.Push(ObjectValue(f.scope.GlobalObject()))
			} else {
				avm.Push(f.locals[0])
			}
		case abc.OpGetScopeObject:
			n, err := f.u8()
			if err != nil {
				return Undefined, err
			}
			if int(n) >= len(f.frameScopes) {
				return Undefined, f.errorf("scope index %d out of range", n)
			}
			avm.Push(ObjectValue(f.frameScopes[n]))

		// --- names and properties ---
		case abc.OpFindPropStrict, abc.OpFindProperty:
			idx, err := f.u30()
			if err != nil {
				return Undefined, err
			}
			name, err := f.tu.PoolQName(idx)
			if err != nil {
				return Undefined, f.errorf("%v", err)
			}
			obj, found, err := f.findProperty(name)
			if err != nil {
				return Undefined, err
			}
			switch {
			case found:
				avm.Push(ObjectValue(obj))
			case op == abc.OpFindPropStrict:
				return Undefined, f.errorf("property %s not found", name)
			case f.scope != nil:
				avm.Push(ObjectValue(f.scope.GlobalObject()))
			default:
				avm.Push(f.locals[0])
			}
		case abc.OpGetLex:
			idx, err := f.u30()
			if err != nil {
				return Undefined, err
			}
			name, err := f.tu.PoolQName(idx)
			if err != nil {
				return Undefined, f.errorf("%v", err)
			}
			obj, found, err := f.findProperty(name)
			if err != nil {
				return Undefined, err
			}
			if !found {
				return Undefined, f.errorf("property %s not found", name)
			}
			v, _ := obj.ResolveProperty(name)
			avm.Push(v)
		case abc.OpGetProperty:
			idx, err := f.u30()
			if err != nil {
				return Undefined, err
			}
			name, err := f.tu.PoolQName(idx)
			if err != nil {
				return Undefined, f.errorf("%v", err)
			}
			recv := avm.Pop()
			obj, ok := recv.AsObject()
			if !ok {
				return Undefined, f.errorf("getproperty %s on %s value", name, recv.Kind())
			}
			v, _ := obj.ResolveProperty(name)
			avm.Push(v)
		case abc.OpSetProperty, abc.OpInitProperty:
			idx, err := f.u30()
			if err != nil {
				return Undefined, err
			}
			name, err := f.tu.PoolQName(idx)
			if err != nil {
				return Undefined, f.errorf("%v", err)
			}
			value := avm.Pop()
			recv := avm.Pop()
			obj, ok := recv.AsObject()
			if !ok {
				return Undefined, f.errorf("setproperty %s on %s value", name, recv.Kind())
			}
			obj.SetProperty(name, value, mc)

		// --- calls ---
		case abc.OpCallProperty, abc.OpCallPropVoid:
			idx, err := f.u30()
			if err != nil {
				return Undefined, err
			}
			argc, err := f.u30()
			if err != nil {
				return Undefined, err
			}
			name, err := f.tu.PoolQName(idx)
			if err != nil {
				return Undefined, f.errorf("%v", err)
			}
			args := avm.PopArgs(int(argc))
			recv := avm.Pop()
			result, err := f.a.callProperty(recv, name, args)
			if err != nil {
				return Undefined, f.errorf("%v", err)
			}
			if op == abc.OpCallProperty {
				avm.Push(result)
			}
		case abc.OpCall:
			argc, err := f.u30()
			if err != nil {
				return Undefined, err
			}
			args := avm.PopArgs(int(argc))
			recv := avm.Pop()
			fn := avm.Pop()
			result, err := f.a.callValue(fn, recv, args)
			if err != nil {
				return Undefined, f.errorf("%v", err)
			}
			avm.Push(result)
		case abc.OpNewFunction:
			idx, err := f.u30()
			if err != nil {
				return Undefined, err
			}
			m, err := f.tu.LoadMethod(idx)
			if err != nil {
				return Undefined, f.errorf("%v", err)
			}
			var proto Object
			if protos := avm.systemPrototypes; protos != nil {
				proto = protos.Function
			}
			avm.Push(ObjectValue(NewFunctionObject(mc, proto, m, f.scope)))
		case abc.OpConstructSuper:
			argc, err := f.u30()
			if err != nil {
				return Undefined, err
			}
			avm.PopArgs(int(argc))
			avm.Pop() // receiver; no class hierarchy to initialize here

		// --- arithmetic and logic ---
		case abc.OpAdd:
			b := avm.Pop()
			x := avm.Pop()
			switch {
			case x.IsString() || b.IsString():
				s := x.CoerceString() + b.CoerceString()
				avm.Push(StringValue(NewString(mc, s)))
			case x.Kind() == KindInteger && b.Kind() == KindInteger:
				avm.Push(IntegerValue(x.Integer() + b.Integer()))
			default:
				avm.Push(NumberValue(x.CoerceNumber() + b.CoerceNumber()))
			}
		case abc.OpSubtract:
			b := avm.Pop()
			x := avm.Pop()
			avm.Push(NumberValue(x.CoerceNumber() - b.CoerceNumber()))
		case abc.OpMultiply:
			b := avm.Pop()
			x := avm.Pop()
			avm.Push(NumberValue(x.CoerceNumber() * b.CoerceNumber()))
		case abc.OpDivide:
			b := avm.Pop()
			x := avm.Pop()
			avm.Push(NumberValue(x.CoerceNumber() / b.CoerceNumber()))
		case abc.OpModulo:
			b := avm.Pop()
			x := avm.Pop()
			avm.Push(NumberValue(math.Mod(x.CoerceNumber(), b.CoerceNumber())))
		case abc.OpNegate:
			avm.Push(NumberValue(-avm.Pop().CoerceNumber()))
		case abc.OpNot:
			avm.Push(BooleanValue(!avm.Pop().CoerceBoolean()))

		// --- comparison ---
		case abc.OpEquals:
			b := avm.Pop()
			x := avm.Pop()
			avm.Push(BooleanValue(x.Equals(b)))
		case abc.OpStrictEquals:
			b := avm.Pop()
			x := avm.Pop()
			avm.Push(BooleanValue(x.StrictEquals(b)))
		case abc.OpLessThan:
			b := avm.Pop()
			x := avm.Pop()
			less, _ := lessThan(x, b)
			avm.Push(BooleanValue(less))
		case abc.OpLessEquals:
			b := avm.Pop()
			x := avm.Pop()
			less, ordered := lessThan(b, x)
			avm.Push(BooleanValue(ordered && !less))
		case abc.OpGreaterThan:
			b := avm.Pop()
			x := avm.Pop()
			less, _ := lessThan(b, x)
			avm.Push(BooleanValue(less))
		case abc.OpGreaterEquals:
			b := avm.Pop()
			x := avm.Pop()
			less, ordered := lessThan(x, b)
			avm.Push(BooleanValue(ordered && !less))

		// --- conversions ---
		case abc.OpConvertB:
			avm.Push(BooleanValue(avm.Pop().CoerceBoolean()))
		case abc.OpConvertI:
			avm.Push(IntegerValue(avm.Pop().CoerceInteger()))
		case abc.OpConvertU:
			avm.Push(NumberValue(float64(uint32(avm.Pop().CoerceInteger()))))
		case abc.OpConvertD:
			avm.Push(NumberValue(avm.Pop().CoerceNumber()))
		case abc.OpConvertS:
			v := avm.Pop()
			avm.Push(StringValue(NewString(mc, v.CoerceString())))
		case abc.OpCoerceS:
			v := avm.Pop()
			if v.IsUndefined() || v.IsNull() {
				avm.Push(Null)
			} else {
				avm.Push(StringValue(NewString(mc, v.CoerceString())))
			}
		case abc.OpCoerceA:
			// No-op: every value is already of type any.

		// --- control flow ---
		case abc.OpLabel:
			// Branch target marker only.
		case abc.OpJump:
			off, err := f.s24()
			if err != nil {
				return Undefined, err
			}
			if err := f.branch(off); err != nil {
				return Undefined, err
			}
		case abc.OpIfTrue:
			off, err := f.s24()
			if err != nil {
				return Undefined, err
			}
			if avm.Pop().CoerceBoolean() {
				if err := f.branch(off); err != nil {
					return Undefined, err
				}
			}
		case abc.OpIfFalse:
			off, err := f.s24()
			if err != nil {
				return Undefined, err
			}
			if !avm.Pop().CoerceBoolean() {
				if err := f.branch(off); err != nil {
					return Undefined, err
				}
			}
		case abc.OpIfEq, abc.OpIfNe, abc.OpIfLt, abc.OpIfLe, abc.OpIfGt, abc.OpIfGe:
			off, err := f.s24()
			if err != nil {
				return Undefined, err
			}
			b := avm.Pop()
			x := avm.Pop()
			var taken bool
			switch op {
			case abc.OpIfEq:
				taken = x.Equals(b)
			case abc.OpIfNe:
				taken = !x.Equals(b)
			case abc.OpIfLt:
				taken, _ = lessThan(x, b)
			case abc.OpIfLe:
				less, ordered := lessThan(b, x)
				taken = ordered && !less
			case abc.OpIfGt:
				taken, _ = lessThan(b, x)
			case abc.OpIfGe:
				less, ordered := lessThan(x, b)
				taken = ordered && !less
			}
			if taken {
				if err := f.branch(off); err != nil {
					return Undefined, err
				}
			}

		// --- returns ---
		case abc.OpReturnValue:
			return avm.Pop(), nil
		case abc.OpReturnVoid:
			return Undefined, nil

		// --- debug ---
		case abc.OpDebug:
			if _, err := f.u8(); err != nil {
				return Undefined, err
			}
			if _, err := f.u30(); err != nil {
				return Undefined, err
			}
			if _, err := f.u8(); err != nil {
				return Undefined, err
			}
			if _, err := f.u30(); err != nil {
				return Undefined, err
			}
		case abc.OpDebugLine, abc.OpDebugFile:
			if _, err := f.u30(); err != nil {
				return Undefined, err
			}

		default:
			return Undefined, f.errorf("unimplemented opcode %s", op.Name())
		}
	}

	// Fell off the end of the body.
	return Undefined, nil
}

func (f *frame) branch(offset int32) error {
	target := f.ip + int(offset)
	if target < 0 || target > len(f.body.Code) {
		return f.errorf("branch target %d out of range", target)
	}
	f.ip = target
	return nil
}

func (f *frame) getLocal(avm *Avm2, idx int) error {
	if idx >= len(f.locals) {
		return f.errorf("local register %d out of range", idx)
	}
	avm.Push(f.locals[idx])
	return nil
}

func (f *frame) setLocal(avm *Avm2, idx int) error {
	if idx >= len(f.locals) {
		return f.errorf("local register %d out of range", idx)
	}
	f.locals[idx] = avm.Pop()
	return nil
}

// findProperty resolves a name against the frame's scope chain, falling back
// to the unit's domain. A domain hit forces the defining script's globals.
func (f *frame) findProperty(name QName) (Object, bool, error) {
	if f.scope != nil {
		if obj, ok := f.scope.FindDefiningObject(name); ok {
			return obj, true, nil
		}
	}
	domain := f.tu.Domain()
	if script, ok := domain.GetDefiningScript(name); ok {
		globals, err := script.Globals(f.a.ctx)
		if err != nil {
			return nil, false, err
		}
		return globals, true, nil
	}
	return nil, false, nil
}

// ---------------------------------------------------------------------------
// Call helpers
// ---------------------------------------------------------------------------

// callProperty resolves name on the receiver and invokes its call
// capability.
func (a *Activation) callProperty(recv Value, name QName, args []Value) (Value, error) {
	obj, ok := recv.AsObject()
	if !ok {
		return Undefined, fmt.Errorf("cannot call %s on %s value", name, recv.Kind())
	}
	prop, ok := obj.ResolveProperty(name)
	if !ok {
		return Undefined, fmt.Errorf("property %s not found", name)
	}
	return a.callValue(prop, recv, args)
}

// callValue invokes a value's call capability with the given receiver.
func (a *Activation) callValue(fn Value, recv Value, args []Value) (Value, error) {
	obj, ok := fn.AsObject()
	if !ok {
		return Undefined, fmt.Errorf("%s value is not callable", fn.Kind())
	}
	callable, ok := obj.Callable()
	if !ok {
		return Undefined, fmt.Errorf("object is not callable")
	}
	return callable.Call(recv, args, a.ctx)
}
