// Package framed implements a length-prefixed transport.Transport over a
// raw net.Conn: a 4-byte big-endian length prefix followed by a
// JSON-encoded envelope. Grounded on the teacher's
// internal/pkg/vsockpb/codec.go, which frames protobuf-encoded
// VsockMessages the identical way over a hypervisor guest/host channel;
// this package keeps the framing discipline and swaps protobuf for JSON
// envelopes, giving the transport abstraction a plain-TCP reference
// implementation distinct from HTTP/2.
package framed

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net"

	"github.com/oriys/actoredge/envelope"
)

// maxMessageBytes bounds a single frame, matching the teacher's codec's
// defensive cap against a corrupt or hostile length prefix.
const maxMessageBytes = 8 * 1024 * 1024

// codec handles envelope serialization over a length-prefixed net.Conn.
type codec struct {
	conn net.Conn
}

func newCodec(conn net.Conn) *codec {
	return &codec{conn: conn}
}

// send marshals env to JSON and writes it with a 4-byte big-endian length
// prefix.
func (c *codec) send(env envelope.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("framed: marshal envelope: %w", err)
	}

	buf := make([]byte, 4+len(data))
	binary.BigEndian.PutUint32(buf[:4], uint32(len(data)))
	copy(buf[4:], data)

	_, err = c.conn.Write(buf)
	return err
}

// receive reads one length-prefixed envelope from the connection,
// blocking until a full frame arrives or the connection errors.
func (c *codec) receive() (envelope.Envelope, error) {
	lenBuf := make([]byte, 4)
	if _, err := io.ReadFull(c.conn, lenBuf); err != nil {
		return envelope.Envelope{}, err
	}

	msgLen := binary.BigEndian.Uint32(lenBuf)
	if msgLen > maxMessageBytes {
		return envelope.Envelope{}, fmt.Errorf("framed: message too large: %d bytes", msgLen)
	}

	data := make([]byte, msgLen)
	if _, err := io.ReadFull(c.conn, data); err != nil {
		return envelope.Envelope{}, err
	}

	var env envelope.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return envelope.Envelope{}, fmt.Errorf("framed: unmarshal envelope: %w", err)
	}
	return env, nil
}
