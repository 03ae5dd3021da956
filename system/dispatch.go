package system

import (
	"context"

	"github.com/oriys/actoredge/actor"
	"github.com/oriys/actoredge/invocation"
)

// MethodHandler is one actor method's server-side entry point. The
// runtime has no reflection-based method table (see spec.md §9's design
// note on macro-free generics), so each actor implementation supplies
// its own: a MethodHandler decodes exactly the arguments it expects from
// dec in declaration order, invokes the real method, and routes the
// outcome through rh.
type MethodHandler func(ctx context.Context, dec *invocation.Decoder, rh *ResultHandler)

// Dispatchable extends actor.Local with the method table
// executeDistributedTarget needs to locate a target by name. Actors that
// only ever run locally (never addressed from a remote caller or proxy)
// may implement just actor.Local.
type Dispatchable interface {
	actor.Local
	// Dispatch returns the handler registered under target, or ok=false
	// if no such method exists — surfaced to a local caller as
	// ErrUnknownTarget, and to a remote caller as a RemoteCallGenericError
	// with typeHint "UnknownTarget".
	Dispatch(target string) (MethodHandler, bool)
}

// MethodTable is a convenience embeddable base that implements Dispatch
// over a plain map, for actors that register handlers at construction
// time instead of hand-writing a switch statement.
type MethodTable struct {
	methods map[string]MethodHandler
}

// NewMethodTable constructs an empty MethodTable.
func NewMethodTable() MethodTable {
	return MethodTable{methods: make(map[string]MethodHandler)}
}

// Register adds handler under name. Intended to be called once per
// method from the embedding actor's constructor.
func (t *MethodTable) Register(name string, handler MethodHandler) {
	if t.methods == nil {
		t.methods = make(map[string]MethodHandler)
	}
	t.methods[name] = handler
}

// Dispatch implements the lookup half of Dispatchable.
func (t *MethodTable) Dispatch(target string) (MethodHandler, bool) {
	h, ok := t.methods[target]
	return h, ok
}
