package avm2

import (
	"fmt"

	"github.com/noctilia/ruffle/abc"
	"github.com/noctilia/ruffle/gc"
)

// ---------------------------------------------------------------------------
// TranslationUnit: one loaded bytecode container
// ---------------------------------------------------------------------------

// TranslationUnit wraps one parsed bytecode container together with the
// domain it installs into. The parsed file is shared with every Script and
// Method drawn from it, since they reference overlapping pool tables. The
// unit executes nothing itself; it produces Scripts on demand by index.
type TranslationUnit struct {
	file   *abc.File
	domain *Domain

	scripts map[uint32]*Script
	methods map[uint32]*Method
}

// FromABC wraps a parsed bytecode file with its destination domain.
func FromABC(file *abc.File, domain *Domain, mc *gc.Mutation) *TranslationUnit {
	tu := &TranslationUnit{
		file:    file,
		domain:  domain,
		scripts: make(map[uint32]*Script),
		methods: make(map[uint32]*Method),
	}
	mc.Allocate(tu)
	return tu
}

// File returns the shared parsed container.
func (tu *TranslationUnit) File() *abc.File {
	return tu.file
}

// Domain returns the domain this unit installs definitions into.
func (tu *TranslationUnit) Domain() *Domain {
	return tu.domain
}

// ScriptCount returns the number of top-level scripts in the container.
func (tu *TranslationUnit) ScriptCount() int {
	return len(tu.file.Scripts)
}

// LoadMethod returns the Method descriptor for a method index, constructing
// it on first request.
func (tu *TranslationUnit) LoadMethod(index uint32) (*Method, error) {
	if m, ok := tu.methods[index]; ok {
		return m, nil
	}
	if int(index) >= len(tu.file.Methods) {
		return nil, fmt.Errorf("avm2: method index %d out of range", index)
	}
	m := newEntryMethod(tu, index)
	tu.methods[index] = m
	return m, nil
}

// LoadScript returns the Script for a script index, constructing and caching
// its bindings on first request. Subsequent calls with the same index return
// the identical cached instance.
func (tu *TranslationUnit) LoadScript(index uint32, avm *Avm2, mc *gc.Mutation) (*Script, error) {
	if s, ok := tu.scripts[index]; ok {
		return s, nil
	}
	if int(index) >= len(tu.file.Scripts) {
		return nil, fmt.Errorf("avm2: script index %d out of range", index)
	}

	info := &tu.file.Scripts[index]
	init, err := tu.LoadMethod(info.Init)
	if err != nil {
		return nil, err
	}

	script := &Script{
		tu:        tu,
		index:     index,
		init:      init,
		loadOrder: avm.nextLoadOrder(),
	}
	mc.Allocate(script)
	tu.scripts[index] = script

	// Export the script's trait names so the domain can resolve them back
	// to this script before its initializer has run.
	for i := range info.Traits {
		name, err := tu.PoolQName(info.Traits[i].Name)
		if err != nil {
			return nil, err
		}
		tu.domain.ExportDefinition(name, script, mc)
	}

	return script, nil
}

// PoolQName resolves a multiname pool index to a static qualified name.
// Runtime-qualified multinames cannot be resolved without an executing
// frame and are rejected here.
func (tu *TranslationUnit) PoolQName(index uint32) (QName, error) {
	if index == 0 || int(index) >= len(tu.file.Multinames) {
		return QName{}, fmt.Errorf("avm2: multiname index %d out of range", index)
	}
	mn := tu.file.Multinames[index]
	switch mn.Kind {
	case abc.MnQName, abc.MnQNameA:
		ns := tu.file.Namespaces[mn.Namespace]
		return NewQName(tu.file.String(ns.Name), tu.file.String(mn.Name)), nil
	case abc.MnMultiname, abc.MnMultinameA:
		// Late-bound namespace set; resolve against the public namespace.
		return PublicQName(tu.file.String(mn.Name)), nil
	default:
		return QName{}, fmt.Errorf("avm2: unsupported multiname kind 0x%02x", mn.Kind)
	}
}

// Trace marks the domain and every cached script.
func (tu *TranslationUnit) Trace(mark func(gc.Object)) {
	if tu.domain != nil {
		mark(tu.domain)
	}
	for _, s := range tu.scripts {
		mark(s)
	}
}

// ---------------------------------------------------------------------------
// Script: one top-level code unit
// ---------------------------------------------------------------------------

// Script is one top-level code unit of a container: an initializer method,
// its defining scope, and a lazily created global object. The initializer
// executes at most once per Script instance.
type Script struct {
	tu    *TranslationUnit
	index uint32
	init  *Method

	globals     *ScriptObject
	initialized bool

	// loadOrder records the instantiation sequence across the interpreter;
	// containers load scripts from the highest index down.
	loadOrder int
}

// NewNativeScript wraps a pre-built global object in a script whose
// initializer has already notionally run. The player-globals loader uses
// this for host-defined definitions.
func NewNativeScript(mc *gc.Mutation, globals *ScriptObject) *Script {
	s := &Script{
		init:        NewNativeMethod("", func(a *Activation, this Value, args []Value) (Value, error) {
			return Undefined, nil
		}),
		globals:     globals,
		initialized: true,
	}
	mc.Allocate(s)
	return s
}

// Init returns the initializer method and the scope it runs against.
// The scope object is created on first access without running the
// initializer.
func (s *Script) Init(mc *gc.Mutation) (*Method, *ScriptObject) {
	return s.init, s.globalsObject(mc)
}

// Unit returns the owning translation unit, or nil for native scripts.
func (s *Script) Unit() *TranslationUnit {
	return s.tu
}

// LoadOrder returns the instantiation sequence number of this script.
func (s *Script) LoadOrder() int {
	return s.loadOrder
}

// Initialized reports whether the initializer has already run.
func (s *Script) Initialized() bool {
	return s.initialized
}

// Globals returns the per-script global object, first guaranteeing
// (idempotently) that the initializer has run. Repeated calls return the
// same object without re-running side effects.
func (s *Script) Globals(ctx *Context) (*ScriptObject, error) {
	globals := s.globalsObject(ctx.GC)
	if !s.initialized {
		// Mark before running so reentrant access during the initializer
		// does not run it twice.
		s.initialized = true
		if err := ctx.Avm.RunScriptInitializer(s, ctx); err != nil {
			return nil, fmt.Errorf("avm2: script %d initializer: %w", s.index, err)
		}
	}
	return globals, nil
}

// globalsObject lazily creates the script's global object and seeds it with
// the script's trait slots.
func (s *Script) globalsObject(mc *gc.Mutation) *ScriptObject {
	if s.globals != nil {
		return s.globals
	}
	s.globals = NewScriptObject(mc, nil)
	if s.tu != nil {
		info := &s.tu.file.Scripts[s.index]
		for i := range info.Traits {
			if name, err := s.tu.PoolQName(info.Traits[i].Name); err == nil {
				s.globals.SetProperty(name, Undefined, mc)
			}
		}
	}
	return s.globals
}

// Trace marks the unit and the global object.
func (s *Script) Trace(mark func(gc.Object)) {
	if s.tu != nil {
		mark(s.tu)
	}
	if s.globals != nil {
		mark(s.globals)
	}
}
