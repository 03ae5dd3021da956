package http2

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// jsonCodecName is the gRPC content-subtype this codec answers to
// (negotiated as "application/grpc+json" on the wire). No protoc is
// available in this environment, so ActorEdge never generates .pb.go
// stubs; every RPC message is an *envelope.Envelope (or a small
// wrapper around one) marshaled with encoding/json instead of
// protobuf, while the RPC itself still rides real HTTP/2 framing via
// google.golang.org/grpc.
const jsonCodecName = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string { return jsonCodecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
