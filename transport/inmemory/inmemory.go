// Package inmemory implements spec.md §4.H: a Transport with no network
// involved, used by tests and as the reference implementation of the
// correlation contract every other transport must also satisfy. The
// channel-subscription discipline is grounded on the teacher's
// queue.ChannelNotifier (internal/queue/notifier.go) — a mutex-guarded
// set of per-endpoint channels, closed on shutdown to unblock readers.
package inmemory

import (
	"context"
	"sync"

	"github.com/oriys/actoredge/envelope"
	"github.com/oriys/actoredge/transport"
)

// Handler maps one inbound envelope to an optional synchronous response,
// as described for the single-instance, handler-installed configuration
// in spec.md §4.H.
type Handler func(env envelope.Envelope) (*envelope.Envelope, error)

// HandlerTransport is the single-endpoint configuration: every Send is
// routed straight into a user-installed Handler, with no Receive
// traffic of its own (Receive always returns a channel that only closes,
// never delivers, matching a transport whose replies are always
// synchronous).
type HandlerTransport struct {
	mu        sync.Mutex
	handler   Handler
	closed    bool
	recv      chan envelope.Envelope
	closeOnce sync.Once
}

// NewHandlerTransport constructs a HandlerTransport that routes every
// Send through handler.
func NewHandlerTransport(handler Handler) *HandlerTransport {
	return &HandlerTransport{handler: handler, recv: make(chan envelope.Envelope)}
}

// Send implements transport.Transport.
func (t *HandlerTransport) Send(_ context.Context, env envelope.Envelope) (*envelope.Envelope, error) {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return nil, transport.ErrDisconnected
	}
	return t.handler(env)
}

// Receive implements transport.Transport. A HandlerTransport never pushes
// asynchronous envelopes; the channel only ever closes.
func (t *HandlerTransport) Receive() <-chan envelope.Envelope { return t.recv }

// Close implements transport.Transport. Idempotent.
func (t *HandlerTransport) Close() error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	t.closeOnce.Do(func() { close(t.recv) })
	return nil
}

// IsConnected implements transport.Transport.
func (t *HandlerTransport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.closed
}

// Metadata implements transport.Transport.
func (t *HandlerTransport) Metadata() transport.Metadata {
	return transport.Metadata{TransportType: "inmemory.handler", IsSecure: false}
}

// endpoint is one side of a paired transport: sends push onto the peer's
// recv channel; closing marks both sides disconnected.
type endpoint struct {
	mu      sync.Mutex
	peer    *endpoint
	recv    chan envelope.Envelope
	closed  bool
	onceCls sync.Once
}

// Send implements transport.Transport. Paired endpoints never answer
// synchronously; the peer observes the envelope through its own Receive
// channel.
func (e *endpoint) Send(ctx context.Context, env envelope.Envelope) (*envelope.Envelope, error) {
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return nil, transport.ErrDisconnected
	}

	// The peer's own mutex guards both its closed flag and writes onto
	// its recv channel, so a concurrent Close can never observe a send
	// racing past the closed check.
	e.peer.mu.Lock()
	defer e.peer.mu.Unlock()
	if e.peer.closed {
		return nil, transport.ErrDisconnected
	}
	select {
	case e.peer.recv <- env:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
		return nil, &transport.ErrSendFailed{Reason: "peer receive buffer full"}
	}
}

func (e *endpoint) Receive() <-chan envelope.Envelope { return e.recv }

func (e *endpoint) Close() error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.peer.mu.Lock()
	e.peer.closed = true
	e.peer.mu.Unlock()
	e.onceCls.Do(func() { close(e.recv) })
	return nil
}

func (e *endpoint) IsConnected() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.closed
}

func (e *endpoint) Metadata() transport.Metadata {
	return transport.Metadata{TransportType: "inmemory.paired", IsSecure: true}
}

// NewPair returns two linked transport.Transport endpoints: a Send on
// one is observed on the other's Receive channel, FIFO per direction.
// Closing either side surfaces as ErrDisconnected on the other's
// subsequent Send, and closes its Receive channel.
func NewPair() (transport.Transport, transport.Transport) {
	a := &endpoint{recv: make(chan envelope.Envelope, 16)}
	b := &endpoint{recv: make(chan envelope.Envelope, 16)}
	a.peer, b.peer = b, a
	return a, b
}
