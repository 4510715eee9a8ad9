// Package avm2 is the bytecode execution core: a stack interpreter over the
// abc container format, with a prototype-based object model, qualified-name
// domains, and memoized one-shot script initialization.
package avm2

import (
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/noctilia/ruffle/abc"
	"github.com/noctilia/ruffle/gc"
)

var log = commonlog.GetLogger("avm2")

// ---------------------------------------------------------------------------
// Avm2: the interpreter core
// ---------------------------------------------------------------------------

// Avm2 is the interpreter core: the shared operand stack, the global domain,
// and the system prototypes installed by the player-globals loader. One Avm2
// serves one player instance; it is not safe for concurrent use.
type Avm2 struct {
	// stack is the operand stack shared by every activation. Frames push
	// and pop on top of whatever their callers left; exact balance is each
	// frame's responsibility.
	stack []Value

	globals          *Domain
	systemPrototypes *SystemPrototypes

	// DebugOutput enables per-instruction execution logging.
	DebugOutput bool

	loadOrder int
}

// NewAvm2 creates an interpreter with an empty global domain.
func NewAvm2(mc *gc.Mutation) *Avm2 {
	avm := &Avm2{
		globals: GlobalDomain(mc),
	}
	mc.Allocate(avm)
	return avm
}

// GlobalDomain returns the root definition domain.
func (avm *Avm2) GlobalDomain() *Domain {
	return avm.globals
}

// Prototypes returns the system prototypes. It panics if the player globals
// have not been loaded yet; callers reaching prototypes before LoadPlayerGlobals
// indicate a broken initialization order.
func (avm *Avm2) Prototypes() *SystemPrototypes {
	if avm.systemPrototypes == nil {
		panic("avm2: system prototypes accessed before player globals load")
	}
	return avm.systemPrototypes
}

// LoadPlayerGlobals installs the host-provided global definitions (trace,
// SharedObject, and the system prototypes) into the global domain.
func (avm *Avm2) LoadPlayerGlobals(ctx *Context) error {
	return loadPlayerGlobals(avm, avm.globals, ctx)
}

func (avm *Avm2) nextLoadOrder() int {
	avm.loadOrder++
	return avm.loadOrder
}

// ---------------------------------------------------------------------------
// Container loading
// ---------------------------------------------------------------------------

// LoadABC parses a bytecode container and installs its scripts into the
// given domain. Scripts are instantiated from the highest index down. With
// lazyInit false every script initializer runs immediately, lowest index
// last; with lazyInit true initializers are deferred until a definition
// resolution forces them.
func (avm *Avm2) LoadABC(data []byte, name string, lazyInit bool, ctx *Context, domain *Domain) (*TranslationUnit, error) {
	file, err := abc.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("avm2: loading %q: %w", name, err)
	}
	log.Debugf("loaded container %q: %d scripts, %d methods", name, len(file.Scripts), len(file.Methods))

	tu := FromABC(file, domain, ctx.GC)
	for i := len(file.Scripts) - 1; i >= 0; i-- {
		script, err := tu.LoadScript(uint32(i), avm, ctx.GC)
		if err != nil {
			return nil, fmt.Errorf("avm2: loading %q: %w", name, err)
		}
		if !lazyInit {
			if _, err := script.Globals(ctx); err != nil {
				return nil, fmt.Errorf("avm2: loading %q: %w", name, err)
			}
		}
	}
	return tu, nil
}

// RunScriptInitializer executes a script's initializer in a fresh
// activation. Callers are expected to go through Script.Globals, which
// guards against repeat runs.
func (avm *Avm2) RunScriptInitializer(script *Script, ctx *Context) error {
	a, err := FromScript(ctx, script)
	if err != nil {
		return err
	}
	return a.RunStackFrameForScript(script)
}

// RunStackFrameForCallable invokes an object's call capability from the
// host, outside any executing frame.
func (avm *Avm2) RunStackFrameForCallable(callable Object, receiver Value, args []Value, ctx *Context) (Value, error) {
	c, ok := callable.Callable()
	if !ok {
		return Undefined, fmt.Errorf("avm2: object is not callable")
	}
	return c.Call(receiver, args, ctx)
}

// ---------------------------------------------------------------------------
// Operand stack
// ---------------------------------------------------------------------------

// Push pushes a value onto the shared operand stack.
func (avm *Avm2) Push(v Value) {
	avm.stack = append(avm.stack, v)
}

// Pop removes and returns the top of the operand stack. Popping an empty
// stack is tolerated: it logs a warning and yields undefined, keeping
// malformed bytecode from tearing down the whole player.
func (avm *Avm2) Pop() Value {
	if len(avm.stack) == 0 {
		log.Warningf("avm2 stack underflow")
		return Undefined
	}
	v := avm.stack[len(avm.stack)-1]
	avm.stack = avm.stack[:len(avm.stack)-1]
	return v
}

// PopArgs pops count values and returns them in push order, so that
// args[0] is the first argument pushed by the caller.
func (avm *Avm2) PopArgs(count int) []Value {
	args := make([]Value, count)
	for i := count - 1; i >= 0; i-- {
		args[i] = avm.Pop()
	}
	return args
}

// StackDepth returns the current operand stack depth.
func (avm *Avm2) StackDepth() int {
	return len(avm.stack)
}

// Trace marks the global domain, the operand stack, and the system
// prototypes.
func (avm *Avm2) Trace(mark func(gc.Object)) {
	if avm.globals != nil {
		mark(avm.globals)
	}
	for i := range avm.stack {
		avm.stack[i].Trace(mark)
	}
	if avm.systemPrototypes != nil {
		avm.systemPrototypes.Trace(mark)
	}
}
