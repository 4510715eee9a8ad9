package avm2

import (
	"github.com/noctilia/ruffle/gc"
	"github.com/noctilia/ruffle/storage"
)

// ---------------------------------------------------------------------------
// Context: per-call host context
// ---------------------------------------------------------------------------

// Context bundles the state threaded through every entry point for the
// duration of one host update: the interpreter itself, the mutation window
// granted by the host's heap, the shared-object storage backend, and the
// sink for trace output. Passing it explicitly keeps the reentrancy and
// heap-mutation discipline visible at each call boundary.
type Context struct {
	Avm *Avm2
	GC  *gc.Mutation

	// Storage backs SharedObject persistence. May be nil when the host
	// provides no local storage.
	Storage storage.Backend

	// TraceOutput receives trace() output. When nil, output goes to the
	// interpreter log.
	TraceOutput func(string)
}
