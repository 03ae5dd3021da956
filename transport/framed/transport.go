package framed

import (
	"context"
	"net"
	"sync"

	"github.com/oriys/actoredge/envelope"
	"github.com/oriys/actoredge/internal/obslog"
	"github.com/oriys/actoredge/transport"
)

// Transport is a transport.Transport over one net.Conn. Every Send writes
// a frame and returns (nil, nil) immediately — plain TCP has no built-in
// request/response pairing, so replies arrive asynchronously through
// Receive and are correlated by the caller's pending-call table using the
// envelope's callID, exactly as spec.md §4.G's contract allows.
type Transport struct {
	conn  net.Conn
	codec *codec

	recv chan envelope.Envelope

	closeOnce sync.Once
	closed    chan struct{}
}

// Dial opens a plain TCP connection to addr and starts its read loop.
func Dial(ctx context.Context, addr string) (*Transport, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return newTransport(conn), nil
}

func newTransport(conn net.Conn) *Transport {
	t := &Transport{
		conn:   conn,
		codec:  newCodec(conn),
		recv:   make(chan envelope.Envelope, 64),
		closed: make(chan struct{}),
	}
	go t.readLoop()
	return t
}

func (t *Transport) readLoop() {
	defer close(t.recv)
	for {
		env, err := t.codec.receive()
		if err != nil {
			obslog.Op().Debug("transport/framed: read loop ended", "error", err)
			return
		}
		select {
		case t.recv <- env:
		case <-t.closed:
			return
		}
	}
}

// Send implements transport.Transport.
func (t *Transport) Send(ctx context.Context, env envelope.Envelope) (*envelope.Envelope, error) {
	select {
	case <-t.closed:
		return nil, transport.ErrDisconnected
	default:
	}
	if err := t.codec.send(env); err != nil {
		return nil, &transport.ErrSendFailed{Reason: "frame write", Err: err}
	}
	return nil, nil
}

// Receive implements transport.Transport.
func (t *Transport) Receive() <-chan envelope.Envelope { return t.recv }

// Close implements transport.Transport.
func (t *Transport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.closed)
		err = t.conn.Close()
	})
	return err
}

// IsConnected implements transport.Transport.
func (t *Transport) IsConnected() bool {
	select {
	case <-t.closed:
		return false
	default:
		return true
	}
}

// Metadata implements transport.Transport.
func (t *Transport) Metadata() transport.Metadata {
	return transport.Metadata{
		TransportType: "framed.tcp",
		Endpoint:      t.conn.RemoteAddr().String(),
		IsSecure:      false,
	}
}

// Listener accepts framed connections and hands each one back as a
// Transport, one per accepted net.Conn.
type Listener struct {
	ln net.Listener
}

// Listen starts accepting TCP connections on addr.
func Listen(addr string) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Listener{ln: ln}, nil
}

// Addr returns the listener's bound address.
func (l *Listener) Addr() string { return l.ln.Addr().String() }

// Accept blocks until a client connects, then returns a Transport wrapping
// it. Callers typically loop on Accept, wiring each returned Transport
// into its own system.System via SetTransport.
func (l *Listener) Accept() (*Transport, error) {
	conn, err := l.ln.Accept()
	if err != nil {
		return nil, err
	}
	return newTransport(conn), nil
}

// Close stops accepting new connections.
func (l *Listener) Close() error {
	return l.ln.Close()
}
