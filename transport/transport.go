// Package transport defines the capability contract every ActorEdge wire
// adapter implements (spec.md §4.G), plus the sentinel errors shared by
// every concrete transport. transport/inmemory, transport/http2, and
// transport/framed are the concrete implementations.
package transport

import (
	"context"
	"errors"

	"github.com/oriys/actoredge/envelope"
)

// ErrDisconnected is returned by Send after Close. Receive carries no
// errors; a lost or closed connection shows up there as a closed channel.
var ErrDisconnected = errors.New("transport: disconnected")

// ErrSendFailed wraps a transport-specific send failure with its reason.
type ErrSendFailed struct {
	Reason string
	Err    error
}

func (e *ErrSendFailed) Error() string { return "transport: send failed: " + e.Reason }
func (e *ErrSendFailed) Unwrap() error { return e.Err }

// Metadata describes a transport instance for diagnostics and metrics
// dimensions, per spec.md §4.G.
type Metadata struct {
	TransportType string
	Endpoint      string
	IsSecure      bool
	Attributes    map[string]string
}

// Transport is the capability every wire adapter must satisfy. Send may
// return a non-nil response envelope directly (synchronous pairing, e.g.
// a unary gRPC call or the in-memory handler form); a nil response means
// the reply, if any, arrives later through Receive and must be correlated
// by the caller's pending-call table using the envelope's callID.
type Transport interface {
	// Send delivers env to the peer. A non-nil returned envelope
	// completes the corresponding callID synchronously.
	Send(ctx context.Context, env envelope.Envelope) (*envelope.Envelope, error)
	// Receive returns a channel of envelopes arriving asynchronously
	// (responses not returned synchronously from Send, or inbound
	// invocations on the server side). The channel is closed after Close
	// or when the underlying connection is lost.
	Receive() <-chan envelope.Envelope
	// Close releases the transport's resources. Idempotent; after Close,
	// Send MUST fail with ErrDisconnected.
	Close() error
	// IsConnected reports whether the transport currently believes it
	// has a live peer.
	IsConnected() bool
	// Metadata describes this transport instance.
	Metadata() Metadata
}
