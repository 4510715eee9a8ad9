package avm2

import (
	"testing"

	"github.com/noctilia/ruffle/abc"
	"github.com/noctilia/ruffle/gc"
	"github.com/noctilia/ruffle/storage"
)

// ---------------------------------------------------------------------------
// Test harness
// ---------------------------------------------------------------------------

// testHost owns a heap, an interpreter with player globals loaded, an
// in-memory storage backend, and a trace capture buffer.
type testHost struct {
	heap   *gc.Heap
	avm    *Avm2
	store  *storage.Memory
	traces []string
}

func newTestHost(t *testing.T) *testHost {
	t.Helper()
	th := &testHost{
		heap:  gc.NewHeap(),
		store: storage.NewMemory(),
	}
	err := th.heap.Mutate(func(mc *gc.Mutation) error {
		th.avm = NewAvm2(mc)
		return th.avm.LoadPlayerGlobals(th.ctx(mc))
	})
	if err != nil {
		t.Fatalf("loading player globals: %v", err)
	}
	return th
}

func (th *testHost) ctx(mc *gc.Mutation) *Context {
	return &Context{
		Avm:     th.avm,
		GC:      mc,
		Storage: th.store,
		TraceOutput: func(s string) {
			th.traces = append(th.traces, s)
		},
	}
}

func (th *testHost) update(t *testing.T, fn func(ctx *Context) error) {
	t.Helper()
	err := th.heap.Mutate(func(mc *gc.Mutation) error {
		return fn(th.ctx(mc))
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
}

func (th *testHost) load(t *testing.T, data []byte, lazy bool) *TranslationUnit {
	t.Helper()
	var tu *TranslationUnit
	th.update(t, func(ctx *Context) error {
		var err error
		tu, err = th.avm.LoadABC(data, "test", lazy, ctx, th.avm.GlobalDomain())
		return err
	})
	return tu
}

func wantTraces(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("traces = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("traces = %q, want %q", got, want)
		}
	}
}

// ---------------------------------------------------------------------------
// Operand stack
// ---------------------------------------------------------------------------

func TestStackPushPop(t *testing.T) {
	th := newTestHost(t)

	th.avm.Push(IntegerValue(1))
	th.avm.Push(IntegerValue(2))
	if got := th.avm.Pop().Integer(); got != 2 {
		t.Errorf("first Pop = %d, want 2", got)
	}
	if got := th.avm.Pop().Integer(); got != 1 {
		t.Errorf("second Pop = %d, want 1", got)
	}
}

func TestStackUnderflowYieldsUndefined(t *testing.T) {
	th := newTestHost(t)

	if th.avm.StackDepth() != 0 {
		t.Fatalf("fresh stack depth = %d", th.avm.StackDepth())
	}
	v := th.avm.Pop()
	if !v.IsUndefined() {
		t.Errorf("Pop on empty stack = %v, want undefined", v.Kind())
	}
}

func TestPopArgsOrder(t *testing.T) {
	th := newTestHost(t)

	th.avm.Push(IntegerValue(10))
	th.avm.Push(IntegerValue(20))
	th.avm.Push(IntegerValue(30))
	args := th.avm.PopArgs(3)
	for i, want := range []int32{10, 20, 30} {
		if args[i].Integer() != want {
			t.Errorf("args[%d] = %d, want %d", i, args[i].Integer(), want)
		}
	}
	if th.avm.StackDepth() != 0 {
		t.Errorf("stack depth after PopArgs = %d", th.avm.StackDepth())
	}
}

func TestPopArgsUnderflowFillsUndefined(t *testing.T) {
	th := newTestHost(t)

	th.avm.Push(IntegerValue(7))
	args := th.avm.PopArgs(2)
	if !args[0].IsUndefined() {
		t.Errorf("args[0] = %v, want undefined from underflow", args[0].Kind())
	}
	if args[1].Integer() != 7 {
		t.Errorf("args[1] = %v, want 7", args[1])
	}
}

// ---------------------------------------------------------------------------
// Prototypes
// ---------------------------------------------------------------------------

func TestPrototypesBeforeGlobalsPanics(t *testing.T) {
	heap := gc.NewHeap()
	var avm *Avm2
	heap.Mutate(func(mc *gc.Mutation) error {
		avm = NewAvm2(mc)
		return nil
	})

	defer func() {
		if recover() == nil {
			t.Error("expected panic accessing prototypes before globals load")
		}
	}()
	avm.Prototypes()
}

func TestLoadPlayerGlobalsTwiceFails(t *testing.T) {
	th := newTestHost(t)
	err := th.heap.Mutate(func(mc *gc.Mutation) error {
		return th.avm.LoadPlayerGlobals(th.ctx(mc))
	})
	if err == nil {
		t.Error("second LoadPlayerGlobals succeeded")
	}
}

// ---------------------------------------------------------------------------
// Container loading
// ---------------------------------------------------------------------------

// buildTracingScripts assembles a container whose scripts each trace a
// distinct marker string from their initializer.
func buildTracingScripts(markers ...string) []byte {
	b := abc.NewBuilder()
	traceName := b.PublicQName("trace")
	for _, marker := range markers {
		init := b.AddMethod("", 0)
		code := abc.NewCode().
			Op(abc.OpGetLocal0).
			Op(abc.OpPushScope).
			OpU30(abc.OpFindPropStrict, traceName).
			OpU30(abc.OpPushString, b.StringConst(marker)).
			OpU30x2(abc.OpCallPropVoid, traceName, 1).
			Op(abc.OpReturnVoid)
		b.AddBody(init, 4, 1, 2, code.Bytes())
		b.AddScript(init)
	}
	return b.Encode()
}

func TestLoadABCEagerRunsHighestScriptFirst(t *testing.T) {
	th := newTestHost(t)
	th.load(t, buildTracingScripts("first", "second", "third"), false)

	// Scripts initialize from the highest index down.
	wantTraces(t, th.traces, []string{"third", "second", "first"})
}

func TestLoadABCLazyDefersInitializers(t *testing.T) {
	th := newTestHost(t)

	b := abc.NewBuilder()
	traceName := b.PublicQName("trace")
	answerName := b.PublicQName("answer")
	init := b.AddMethod("", 0)
	code := abc.NewCode().
		Op(abc.OpGetLocal0).
		Op(abc.OpPushScope).
		Op(abc.OpGetLocal0).
		OpByte(abc.OpPushByte, 42).
		OpU30(abc.OpSetProperty, answerName).
		OpU30(abc.OpFindPropStrict, traceName).
		OpU30(abc.OpPushString, b.StringConst("ran")).
		OpU30x2(abc.OpCallPropVoid, traceName, 1).
		Op(abc.OpReturnVoid)
	b.AddBody(init, 4, 1, 2, code.Bytes())
	b.AddScript(init, b.SlotTrait(answerName, 1))

	th.load(t, b.Encode(), true)
	if len(th.traces) != 0 {
		t.Fatalf("lazy load ran initializer: traces %q", th.traces)
	}

	// Resolving the exported definition forces the initializer, once.
	th.update(t, func(ctx *Context) error {
		name := PublicQName("answer")
		v, ok, err := th.avm.GlobalDomain().GetDefined(name, ctx)
		if err != nil {
			return err
		}
		if !ok || v.Integer() != 42 {
			t.Errorf("GetDefined(answer) = %v ok=%v", v, ok)
		}
		_, _, err = th.avm.GlobalDomain().GetDefined(name, ctx)
		return err
	})
	wantTraces(t, th.traces, []string{"ran"})
}

func TestLoadABCGarbageFails(t *testing.T) {
	th := newTestHost(t)
	err := th.heap.Mutate(func(mc *gc.Mutation) error {
		_, err := th.avm.LoadABC([]byte{0xDE, 0xAD, 0xBE, 0xEF}, "bad", false, th.ctx(mc), th.avm.GlobalDomain())
		return err
	})
	if err == nil {
		t.Fatal("LoadABC accepted garbage")
	}
}

func TestLoadOrderDescending(t *testing.T) {
	th := newTestHost(t)
	tu := th.load(t, buildTracingScripts("a", "b"), true)

	s0, err0 := tu.LoadScript(0, th.avm, nil)
	s1, err1 := tu.LoadScript(1, th.avm, nil)
	if err0 != nil || err1 != nil {
		t.Fatal(err0, err1)
	}
	if s1.LoadOrder() >= s0.LoadOrder() {
		t.Errorf("script 1 load order %d, script 0 load order %d; want descending instantiation",
			s1.LoadOrder(), s0.LoadOrder())
	}
}

// ---------------------------------------------------------------------------
// Host-driven calls
// ---------------------------------------------------------------------------

func TestRunStackFrameForCallable(t *testing.T) {
	th := newTestHost(t)
	th.update(t, func(ctx *Context) error {
		fn := NewNativeFunctionObject(ctx.GC, th.avm.Prototypes().Function, "double",
			func(a *Activation, this Value, args []Value) (Value, error) {
				return NumberValue(args[0].CoerceNumber() * 2), nil
			})
		result, err := th.avm.RunStackFrameForCallable(fn, Undefined, []Value{IntegerValue(21)}, ctx)
		if err != nil {
			return err
		}
		if result.CoerceNumber() != 42 {
			t.Errorf("callable result = %v", result)
		}

		plain := NewScriptObject(ctx.GC, nil)
		if _, err := th.avm.RunStackFrameForCallable(plain, Undefined, nil, ctx); err == nil {
			t.Error("calling a plain object succeeded")
		}
		return nil
	})
}
