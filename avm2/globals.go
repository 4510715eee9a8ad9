package avm2

import (
	"fmt"
	"strings"

	"github.com/noctilia/ruffle/gc"
	"github.com/noctilia/ruffle/storage"
)

// ---------------------------------------------------------------------------
// Player globals
// ---------------------------------------------------------------------------

// SystemPrototypes holds the prototype objects for the built-in types,
// created once during the player-globals load.
type SystemPrototypes struct {
	Object   *ScriptObject
	Function *ScriptObject
	Class    *ScriptObject
	String   *ScriptObject
	Number   *ScriptObject
	Int      *ScriptObject
	Boolean  *ScriptObject
}

// Trace marks every prototype object.
func (p *SystemPrototypes) Trace(mark func(gc.Object)) {
	mark(p.Object)
	mark(p.Function)
	mark(p.Class)
	mark(p.String)
	mark(p.Number)
	mark(p.Int)
	mark(p.Boolean)
}

// loadPlayerGlobals builds the host-provided definitions and exports them
// into the given domain behind a native script, so that name resolution
// finds them the same way it finds bytecode-defined globals.
func loadPlayerGlobals(avm *Avm2, domain *Domain, ctx *Context) error {
	if avm.systemPrototypes != nil {
		return fmt.Errorf("avm2: player globals already loaded")
	}
	mc := ctx.GC

	objectProto := NewScriptObject(mc, nil)
	protos := &SystemPrototypes{
		Object:   objectProto,
		Function: NewScriptObject(mc, objectProto),
		Class:    NewScriptObject(mc, objectProto),
		String:   NewScriptObject(mc, objectProto),
		Number:   NewScriptObject(mc, objectProto),
		Int:      NewScriptObject(mc, objectProto),
		Boolean:  NewScriptObject(mc, objectProto),
	}

	globals := NewScriptObject(mc, objectProto)

	traceName := PublicQName("trace")
	traceFn := NewNativeFunctionObject(mc, protos.Function, "trace", nativeTrace)
	globals.SetProperty(traceName, ObjectValue(traceFn), mc)

	soName := NewQName("flash.net", "SharedObject")
	sharedObject := NewScriptObject(mc, objectProto)
	getLocal := NewNativeFunctionObject(mc, protos.Function, "getLocal", nativeSharedObjectGetLocal)
	sharedObject.SetProperty(PublicQName("getLocal"), ObjectValue(getLocal), mc)
	globals.SetProperty(soName, ObjectValue(sharedObject), mc)

	script := NewNativeScript(mc, globals)
	domain.ExportDefinition(traceName, script, mc)
	domain.ExportDefinition(soName, script, mc)

	avm.systemPrototypes = protos
	return nil
}

// nativeTrace joins its arguments with spaces and hands the line to the
// host's trace sink.
func nativeTrace(a *Activation, this Value, args []Value) (Value, error) {
	parts := make([]string, len(args))
	for i, v := range args {
		parts[i] = v.CoerceString()
	}
	msg := strings.Join(parts, " ")
	if out := a.Context().TraceOutput; out != nil {
		out(msg)
	} else {
		log.Infof("trace: %s", msg)
	}
	return Undefined, nil
}

// ---------------------------------------------------------------------------
// SharedObject
// ---------------------------------------------------------------------------

// nativeSharedObjectGetLocal returns a shared object bound to a storage
// name: its data slot is populated from the storage backend and its flush
// method writes the data slot back.
func nativeSharedObjectGetLocal(a *Activation, this Value, args []Value) (Value, error) {
	if len(args) == 0 {
		return Undefined, fmt.Errorf("SharedObject.getLocal: missing name argument")
	}
	name := args[0].CoerceString()
	ctx := a.Context()
	mc := ctx.GC
	protos := ctx.Avm.Prototypes()

	data := NewScriptObject(mc, protos.Object)
	if ctx.Storage != nil {
		raw, found, err := ctx.Storage.Load(name)
		if err != nil {
			return Undefined, fmt.Errorf("SharedObject.getLocal %q: %w", name, err)
		}
		if found {
			decoded, err := storage.DecodeData(raw)
			if err != nil {
				log.Warningf("discarding corrupt shared object %q: %s", name, err)
			} else {
				for key, v := range decoded {
					data.SetProperty(PublicQName(key), decodedValue(mc, v), mc)
				}
			}
		}
	}

	so := NewScriptObject(mc, protos.Object)
	so.SetProperty(PublicQName("data"), ObjectValue(data), mc)
	flush := NewNativeFunctionObject(mc, protos.Function, "flush",
		func(a *Activation, this Value, args []Value) (Value, error) {
			return flushSharedObject(a.Context(), name, data)
		})
	so.SetProperty(PublicQName("flush"), ObjectValue(flush), mc)
	return ObjectValue(so), nil
}

func flushSharedObject(ctx *Context, name string, data *ScriptObject) (Value, error) {
	if ctx.Storage == nil {
		return False, nil
	}
	plain := make(map[string]interface{})
	data.OwnProperties(func(key QName, v Value) {
		if key.NS != "" {
			return
		}
		if ev, ok := encodedValue(v); ok {
			plain[key.Local] = ev
		}
	})
	raw, err := storage.EncodeData(plain)
	if err != nil {
		return False, fmt.Errorf("SharedObject.flush %q: %w", name, err)
	}
	if err := ctx.Storage.Store(name, raw); err != nil {
		return False, fmt.Errorf("SharedObject.flush %q: %w", name, err)
	}
	return True, nil
}

// encodedValue maps a runtime value to a storable primitive. Objects and
// nullish values are not persisted.
func encodedValue(v Value) (interface{}, bool) {
	switch v.Kind() {
	case KindBoolean:
		return v.Boolean(), true
	case KindNumber, KindInteger:
		return v.CoerceNumber(), true
	case KindString:
		return v.CoerceString(), true
	default:
		return nil, false
	}
}

// decodedValue maps a stored primitive back to a runtime value.
func decodedValue(mc *gc.Mutation, v interface{}) Value {
	switch x := v.(type) {
	case bool:
		return BooleanValue(x)
	case float64:
		return NumberValue(x)
	case int64:
		return NumberValue(float64(x))
	case uint64:
		return NumberValue(float64(x))
	case string:
		return StringValue(NewString(mc, x))
	default:
		return Undefined
	}
}
