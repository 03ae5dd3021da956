package http2

import (
	"context"
	"fmt"
	"net"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/oriys/actoredge/config"
	"github.com/oriys/actoredge/envelope"
	"github.com/oriys/actoredge/internal/obslog"
	"github.com/oriys/actoredge/metrics"
	"github.com/oriys/actoredge/transport"
)

// ServerTransport is the accepting side of an HTTP/2 ActorEdge
// connection: it hosts a grpc.Server exposing RemoteCall (unary) for
// client-initiated invocations and StreamCall (bidi) for server-initiated
// ones, grounded on internal/grpc/server_unified.go's health+reflection
// wiring and internal/grpc/interceptors.go's interceptor chain.
//
// Unary RemoteCall replies are correlated back to the waiting RPC call by
// callID using the same register/resolve/remove discipline as
// system.pendingTable — a transport-layer instance of the identical
// pattern, since a grpc unary handler must answer synchronously while the
// actual dispatch happens on package system's own goroutine.
type ServerTransport struct {
	listener net.Listener
	grpc     *grpc.Server

	recv chan envelope.Envelope

	mu          sync.Mutex
	unaryWaiter map[string]chan envelope.Envelope
	pushStream  StreamCallServer // most recently connected client, for server-initiated pushes

	closeOnce sync.Once
	closed    chan struct{}

	endpoint string
}

// NewServerTransport starts listening on addr and serving the
// DistributedActor gRPC service. reg may be nil to skip metrics.
func NewServerTransport(addr string, tlsCfg config.TLSConfig, reg *metrics.Registry) (*ServerTransport, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport/http2: listen %s: %w", addr, err)
	}

	creds, err := buildServerCredentials(tlsCfg)
	if err != nil {
		_ = lis.Close()
		return nil, err
	}

	st := &ServerTransport{
		listener:    lis,
		recv:        make(chan envelope.Envelope, 64),
		unaryWaiter: make(map[string]chan envelope.Envelope),
		closed:      make(chan struct{}),
		endpoint:    addr,
	}

	grpcServer := grpc.NewServer(
		grpc.Creds(creds),
		chainedUnaryInterceptor(reg),
		grpc.ChainStreamInterceptor(loggingStreamInterceptor),
	)
	grpcServer.RegisterService(&serviceDesc, &serverHandlers{serverTransport: st})

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	st.grpc = grpcServer

	go func() {
		obslog.Op().Info("transport/http2: server listening", "addr", addr)
		if err := grpcServer.Serve(lis); err != nil {
			obslog.Op().Debug("transport/http2: server stopped", "error", err)
		}
	}()

	return st, nil
}

// handle is invoked by the RemoteCall unary RPC handler for every inbound
// invocation. It hands the envelope to whoever drains Receive() (package
// system's pump goroutine) and blocks until that goroutine answers by
// calling Send with a correlated Response/Error envelope, or ctx is done.
func (t *ServerTransport) handle(ctx context.Context, env envelope.Envelope) (*envelope.Envelope, error) {
	callID := env.Metadata().CallID
	waiter := make(chan envelope.Envelope, 1)

	t.mu.Lock()
	t.unaryWaiter[callID] = waiter
	t.mu.Unlock()

	select {
	case t.recv <- env:
	case <-ctx.Done():
		t.mu.Lock()
		delete(t.unaryWaiter, callID)
		t.mu.Unlock()
		return nil, ctx.Err()
	case <-t.closed:
		return nil, transport.ErrDisconnected
	}

	select {
	case resp := <-waiter:
		return &resp, nil
	case <-ctx.Done():
		t.mu.Lock()
		delete(t.unaryWaiter, callID)
		t.mu.Unlock()
		return nil, ctx.Err()
	case <-t.closed:
		return nil, transport.ErrDisconnected
	}
}

// serveStream drains a connected StreamCall, registers it for
// server-initiated pushes, and forwards every inbound message to Receive().
func (t *ServerTransport) serveStream(stream StreamCallServer) error {
	t.mu.Lock()
	t.pushStream = stream
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		if t.pushStream == stream {
			t.pushStream = nil
		}
		t.mu.Unlock()
	}()

	for {
		env, err := stream.Recv()
		if err != nil {
			return nil
		}
		select {
		case t.recv <- *env:
		case <-t.closed:
			return nil
		case <-stream.Context().Done():
			return stream.Context().Err()
		}
	}
}

// Send implements transport.Transport. A Response/Error envelope
// correlated to an outstanding unary waiter is delivered to that RPC
// caller directly; anything else is pushed to the currently connected
// StreamCall client, for server-initiated invocations.
func (t *ServerTransport) Send(ctx context.Context, env envelope.Envelope) (*envelope.Envelope, error) {
	callID := env.Metadata().CallID

	t.mu.Lock()
	waiter, ok := t.unaryWaiter[callID]
	if ok {
		delete(t.unaryWaiter, callID)
	}
	t.mu.Unlock()
	if ok {
		select {
		case waiter <- env:
		default:
		}
		return nil, nil
	}

	t.mu.Lock()
	stream := t.pushStream
	t.mu.Unlock()
	if stream == nil {
		return nil, &transport.ErrSendFailed{Reason: "no connected StreamCall client"}
	}
	if err := stream.Send(&env); err != nil {
		return nil, &transport.ErrSendFailed{Reason: "stream send", Err: err}
	}
	return nil, nil
}

// Receive implements transport.Transport.
func (t *ServerTransport) Receive() <-chan envelope.Envelope { return t.recv }

// Close implements transport.Transport, stopping the gRPC server.
func (t *ServerTransport) Close() error {
	t.closeOnce.Do(func() {
		close(t.closed)
		t.grpc.GracefulStop()
	})
	return nil
}

// IsConnected reports whether the server is still accepting traffic.
func (t *ServerTransport) IsConnected() bool {
	select {
	case <-t.closed:
		return false
	default:
		return true
	}
}

// Addr returns the listener's actual bound address, useful when
// constructed with a ":0" port for tests.
func (t *ServerTransport) Addr() string { return t.listener.Addr().String() }

// Metadata implements transport.Transport.
func (t *ServerTransport) Metadata() transport.Metadata {
	return transport.Metadata{
		TransportType: "http2.server",
		Endpoint:      t.endpoint,
		IsSecure:      false,
	}
}
