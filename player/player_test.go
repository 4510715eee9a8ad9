package player

import (
	"path/filepath"
	"testing"

	"github.com/noctilia/ruffle/abc"
	"github.com/noctilia/ruffle/avm2"
	"github.com/noctilia/ruffle/config"
)

func memoryConfig() *config.Config {
	cfg := config.Default()
	cfg.Storage.InMemory = true
	return cfg
}

func buildTraceMovie(marker string) []byte {
	b := abc.NewBuilder()
	traceName := b.PublicQName("trace")
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
	return b.Encode()
}

func TestPlayerRunsMovie(t *testing.T) {
	p, err := New(memoryConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	var traces []string
	p.TraceOutput = func(s string) { traces = append(traces, s) }

	if _, err := p.LoadMovie(buildTraceMovie("from movie"), "movie.abc"); err != nil {
		t.Fatal(err)
	}
	if len(traces) != 1 || traces[0] != "from movie" {
		t.Errorf("traces = %q", traces)
	}
}

func TestPlayerRejectsGarbageMovie(t *testing.T) {
	p, err := New(memoryConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	if _, err := p.LoadMovie([]byte{1, 2, 3}, "bad.abc"); err == nil {
		t.Error("LoadMovie accepted garbage")
	}
}

func TestPlayerCollectKeepsInterpreterState(t *testing.T) {
	p, err := New(memoryConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	var traces []string
	p.TraceOutput = func(s string) { traces = append(traces, s) }

	// The lazy script's state must survive a collection between load and
	// first resolution.
	b := abc.NewBuilder()
	answer := b.PublicQName("answer")
	init := b.AddMethod("", 0)
	code := abc.NewCode().
		Op(abc.OpGetLocal0).
		Op(abc.OpPushScope).
		Op(abc.OpGetLocal0).
		OpByte(abc.OpPushByte, 42).
		OpU30(abc.OpSetProperty, answer).
		Op(abc.OpReturnVoid)
	b.AddBody(init, 4, 1, 2, code.Bytes())
	b.AddScript(init, b.SlotTrait(answer, 1))

	cfg := memoryConfig()
	cfg.Player.LazyInit = true
	lazy, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer lazy.Close()

	if _, err := lazy.LoadMovie(b.Encode(), "lazy.abc"); err != nil {
		t.Fatal(err)
	}
	stats := lazy.Collect()
	if stats.Marked == 0 {
		t.Error("collection marked nothing; interpreter not rooted")
	}

	err = lazy.Update(func(ctx *avm2.Context) error {
		v, ok, err := lazy.Avm().GlobalDomain().GetDefined(avm2.PublicQName("answer"), ctx)
		if err != nil {
			return err
		}
		if !ok || v.Integer() != 42 {
			t.Errorf("answer = %v ok=%v after collect", v, ok)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestPlayerSQLiteStorage(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Path = filepath.Join(t.TempDir(), "so.db")
	p, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	if _, err := p.LoadMovie(buildTraceMovie("ok"), ""); err != nil {
		t.Fatal(err)
	}
}
