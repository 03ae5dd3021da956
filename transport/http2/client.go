package http2

import (
	"context"
	"fmt"
	"sync"
	"time"

	"google.golang.org/grpc"

	"github.com/oriys/actoredge/config"
	"github.com/oriys/actoredge/envelope"
	"github.com/oriys/actoredge/internal/obslog"
	"github.com/oriys/actoredge/transport"
)

const defaultDialTimeout = 10 * time.Second

var pool = newConnPool()

// ClientTransport is the dialing side of an HTTP/2 ActorEdge connection.
// Invocation envelopes ride the unary RemoteCall RPC and resolve
// synchronously, satisfying system.call's "resp != nil" fast path without
// ever touching the pending table. Everything else (a response/error
// envelope answering a server-initiated invocation) and any inbound
// server-pushed invocation rides the long-lived StreamCall RPC opened at
// construction.
type ClientTransport struct {
	conn   *grpc.ClientConn
	stream StreamCallClient

	recv chan envelope.Envelope

	closeOnce sync.Once
	closed    chan struct{}

	endpoint string
	secure   bool
}

// DialOptions configures a ClientTransport.
type DialOptions struct {
	TLS         config.TLSConfig
	DialTimeout time.Duration
}

// Dial connects to an ActorEdge HTTP/2 server at addr and opens the
// long-lived StreamCall RPC used for server-initiated invocations.
func Dial(ctx context.Context, addr string, opts DialOptions) (*ClientTransport, error) {
	timeout := opts.DialTimeout
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}
	conn, err := pool.get(ctx, addr, opts.TLS, timeout)
	if err != nil {
		return nil, err
	}

	streamCtx, cancel := context.WithCancel(context.Background())
	rawStream, err := conn.NewStream(streamCtx, &serviceDesc.Streams[0], fullMethod(methodStreamCall),
		grpc.CallContentSubtype(jsonCodecName))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("transport/http2: open StreamCall: %w", err)
	}

	ct := &ClientTransport{
		conn:     conn,
		stream:   &streamCallClient{ClientStream: rawStream},
		recv:     make(chan envelope.Envelope, 64),
		closed:   make(chan struct{}),
		endpoint: addr,
		secure:   opts.TLS.Posture != config.TLSPlaintext && opts.TLS.Posture != "",
	}

	go ct.drainStream(cancel)
	return ct, nil
}

func (c *ClientTransport) drainStream(cancelStream context.CancelFunc) {
	defer cancelStream()
	for {
		env, err := c.stream.Recv()
		if err != nil {
			obslog.Op().Debug("transport/http2: StreamCall closed", "error", err)
			close(c.recv)
			return
		}
		select {
		case c.recv <- *env:
		case <-c.closed:
			return
		}
	}
}

// Send implements transport.Transport. Invocation envelopes use the
// unary RemoteCall RPC and return their response synchronously;
// everything else rides the StreamCall duplex.
func (c *ClientTransport) Send(ctx context.Context, env envelope.Envelope) (*envelope.Envelope, error) {
	if env.Kind() == envelope.KindInvocation {
		resp := new(envelope.Envelope)
		err := c.conn.Invoke(ctx, fullMethod(methodRemoteCall), &env, resp, grpc.CallContentSubtype(jsonCodecName))
		if err != nil {
			return nil, &transport.ErrSendFailed{Reason: "RemoteCall", Err: err}
		}
		return resp, nil
	}
	if err := c.stream.Send(&env); err != nil {
		return nil, &transport.ErrSendFailed{Reason: "StreamCall send", Err: err}
	}
	return nil, nil
}

// Receive implements transport.Transport.
func (c *ClientTransport) Receive() <-chan envelope.Envelope { return c.recv }

// Close implements transport.Transport, closing the StreamCall and
// returning the underlying connection to the pool (connections are
// shared across ClientTransports dialing the same address, so Close
// never tears down the pooled *grpc.ClientConn itself).
func (c *ClientTransport) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.stream.CloseSend()
	})
	return nil
}

// IsConnected reports whether the underlying connection is usable.
func (c *ClientTransport) IsConnected() bool {
	select {
	case <-c.closed:
		return false
	default:
	}
	state := c.conn.GetState()
	return state.String() != "SHUTDOWN" && state.String() != "TRANSIENT_FAILURE"
}

// Metadata implements transport.Transport.
func (c *ClientTransport) Metadata() transport.Metadata {
	return transport.Metadata{
		TransportType: "http2.client",
		Endpoint:      c.endpoint,
		IsSecure:      c.secure,
	}
}

// ClosePool closes every pooled connection. Intended for process shutdown
// or test teardown.
func ClosePool() error {
	return pool.closeAll()
}
