package actor

import (
	"context"

	"github.com/oriys/actoredge/actorid"
	"github.com/oriys/actoredge/invocation"
)

// Caller is the subset of the distributed actor system a Stub needs: the
// two call shapes described in spec.md §4.F. system.System implements
// this interface; Stub depends on it rather than on system directly so
// that actor (registry + stub) and system (dispatch) don't form an
// import cycle.
type Caller interface {
	RemoteCall(ctx context.Context, on actorid.ID, target string, build func(*invocation.Encoder) error, out any) error
	RemoteCallVoid(ctx context.Context, on actorid.ID, target string, build func(*invocation.Encoder) error) error
}

// Stub is the explicit client-side proxy described in spec.md's design
// notes: constructed from a (system, actorID) pair, it forwards each
// named call to the owning system's remoteCall/remoteCallVoid. A
// generated or hand-written per-protocol wrapper type normally embeds a
// Stub and exposes one typed Go method per remote method name, each of
// which builds its Encoder closure and calls Invoke/InvokeVoid.
type Stub struct {
	caller Caller
	id     actorid.ID
}

// NewStub constructs a Stub addressed at id, forwarding through caller.
func NewStub(caller Caller, id actorid.ID) Stub {
	return Stub{caller: caller, id: id}
}

// ActorID returns the ID this stub forwards calls to.
func (s Stub) ActorID() actorid.ID {
	return s.id
}

// Invoke forwards a non-void call named target. build must drive the
// encoder through the mandated recording sequence (generics, arguments,
// return type, error type) before returning; the system finalizes
// recording and decodes the reply into out.
func (s Stub) Invoke(ctx context.Context, target string, build func(*invocation.Encoder) error, out any) error {
	return s.caller.RemoteCall(ctx, s.id, target, build, out)
}

// InvokeVoid forwards a void call named target.
func (s Stub) InvokeVoid(ctx context.Context, target string, build func(*invocation.Encoder) error) error {
	return s.caller.RemoteCallVoid(ctx, s.id, target, build)
}
