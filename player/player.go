// Package player hosts the interpreter: it owns the heap, the storage
// backend, and the update loop that grants mutation windows.
package player

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"github.com/noctilia/ruffle/avm2"
	"github.com/noctilia/ruffle/config"
	"github.com/noctilia/ruffle/gc"
	"github.com/noctilia/ruffle/storage"
)

var log = commonlog.GetLogger("player")

// Player owns one interpreter instance and its heap. All bytecode
// execution goes through Update, which grants the mutation window the
// interpreter allocates under.
type Player struct {
	heap    *gc.Heap
	avm     *avm2.Avm2
	backend storage.Backend
	cfg     *config.Config

	// TraceOutput receives trace() lines. When nil, output goes to the
	// interpreter log.
	TraceOutput func(string)
}

// New creates a player from configuration: heap, interpreter, storage
// backend, and the player globals, ready to load movies.
func New(cfg *config.Config) (*Player, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	var backend storage.Backend
	if cfg.Storage.InMemory {
		backend = storage.NewMemory()
	} else {
		path, err := cfg.StoragePath()
		if err != nil {
			return nil, err
		}
		sq, err := storage.NewSQLite(path)
		if err != nil {
			return nil, fmt.Errorf("player: opening storage: %w", err)
		}
		backend = sq
	}

	p := &Player{
		heap:    gc.NewHeap(),
		backend: backend,
		cfg:     cfg,
	}

	err := p.heap.Mutate(func(mc *gc.Mutation) error {
		p.avm = avm2.NewAvm2(mc)
		p.avm.DebugOutput = cfg.Player.DebugOutput
		return p.avm.LoadPlayerGlobals(p.context(mc))
	})
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("player: loading globals: %w", err)
	}
	return p, nil
}

func (p *Player) context(mc *gc.Mutation) *avm2.Context {
	return &avm2.Context{
		Avm:         p.avm,
		GC:          mc,
		Storage:     p.backend,
		TraceOutput: p.TraceOutput,
	}
}

// Avm returns the interpreter core.
func (p *Player) Avm() *avm2.Avm2 {
	return p.avm
}

// Update runs fn inside a heap mutation window with a fresh context. This
// is the only entry point for host-driven execution.
func (p *Player) Update(fn func(ctx *avm2.Context) error) error {
	return p.heap.Mutate(func(mc *gc.Mutation) error {
		return fn(p.context(mc))
	})
}

// LoadMovie loads a bytecode container into the global domain. An empty
// name gets a generated placeholder so log lines stay distinguishable.
func (p *Player) LoadMovie(data []byte, name string) (*avm2.TranslationUnit, error) {
	if name == "" {
		name = "movie-" + uuid.NewString()
	}
	log.Infof("loading movie %q (%d bytes)", name, len(data))

	var tu *avm2.TranslationUnit
	err := p.Update(func(ctx *avm2.Context) error {
		var err error
		tu, err = p.avm.LoadABC(data, name, p.cfg.Player.LazyInit, ctx, p.avm.GlobalDomain())
		return err
	})
	if err != nil {
		return nil, err
	}
	return tu, nil
}

// Collect runs a garbage collection cycle with the interpreter as root.
// It must not be called from inside Update.
func (p *Player) Collect() gc.CollectStats {
	stats := p.heap.Collect(p.avm)
	log.Debugf("collected: %d marked, %d swept in %s", stats.Marked, stats.Swept, stats.SweepDuration)
	return stats
}

// Close releases the storage backend.
func (p *Player) Close() error {
	return p.backend.Close()
}
