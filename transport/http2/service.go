package http2

import (
	"context"
	"fmt"

	"google.golang.org/grpc"

	"github.com/oriys/actoredge/envelope"
)

// serviceName is the gRPC service path every RemoteCall/StreamCall RPC is
// registered and dialed under. There is no .proto for this service — the
// descriptor below is hand-authored in exactly the shape protoc-gen-go-grpc
// would emit for a service with one unary and one bidi-streaming method,
// per SPEC_FULL.md §6.
const serviceName = "actoredge.v1.DistributedActor"

const (
	methodRemoteCall = "RemoteCall"
	methodStreamCall = "StreamCall"
)

func fullMethod(name string) string {
	return fmt.Sprintf("/%s/%s", serviceName, name)
}

// inboundHandler answers one inbound invocation envelope synchronously,
// mirroring transport/inmemory's Handler so the http2 and in-memory
// transports present the identical server-side contract to package system.
type inboundHandler func(ctx context.Context, env envelope.Envelope) (*envelope.Envelope, error)

// serverHandlers backs the grpc.ServiceDesc's HandlerType: its methods
// are invoked by the generated-shaped dispatch glue below.
type serverHandlers struct {
	serverTransport *ServerTransport
}

func (h *serverHandlers) remoteCall(ctx context.Context, req *envelope.Envelope) (*envelope.Envelope, error) {
	resp, err := h.serverTransport.handle(ctx, *req)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return &envelope.Envelope{}, nil
	}
	return resp, nil
}

func (h *serverHandlers) streamCall(stream StreamCallServer) error {
	return h.serverTransport.serveStream(stream)
}

func remoteCallHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(envelope.Envelope)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*serverHandlers).remoteCall(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(methodRemoteCall)}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(*serverHandlers).remoteCall(ctx, req.(*envelope.Envelope))
	}
	return interceptor(ctx, in, info, handler)
}

func streamCallHandler(srv any, stream grpc.ServerStream) error {
	return srv.(*serverHandlers).streamCall(&streamCallServer{ServerStream: stream})
}

// StreamCallServer is the server-side view of the bidi StreamCall RPC,
// shaped the way protoc-gen-go-grpc would emit it for a bidi-streaming
// method exchanging *envelope.Envelope.
type StreamCallServer interface {
	Send(*envelope.Envelope) error
	Recv() (*envelope.Envelope, error)
	grpc.ServerStream
}

type streamCallServer struct {
	grpc.ServerStream
}

func (s *streamCallServer) Send(e *envelope.Envelope) error {
	return s.ServerStream.SendMsg(e)
}

func (s *streamCallServer) Recv() (*envelope.Envelope, error) {
	e := new(envelope.Envelope)
	if err := s.ServerStream.RecvMsg(e); err != nil {
		return nil, err
	}
	return e, nil
}

// StreamCallClient is the client-side view of the bidi StreamCall RPC.
type StreamCallClient interface {
	Send(*envelope.Envelope) error
	Recv() (*envelope.Envelope, error)
	grpc.ClientStream
}

type streamCallClient struct {
	grpc.ClientStream
}

func (s *streamCallClient) Send(e *envelope.Envelope) error {
	return s.ClientStream.SendMsg(e)
}

func (s *streamCallClient) Recv() (*envelope.Envelope, error) {
	e := new(envelope.Envelope)
	if err := s.ClientStream.RecvMsg(e); err != nil {
		return nil, err
	}
	return e, nil
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*serverHandlers)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: methodRemoteCall,
			Handler:    remoteCallHandler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    methodStreamCall,
			Handler:       streamCallHandler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "actoredge/transport/http2.proto",
}
