// Package envelope defines the transport-neutral message container that
// carries every invocation, response, error, and system message between
// an ActorEdge caller and callee. Envelopes are immutable after
// construction: every concrete transport adapts between this shape and
// its own wire representation without ever mutating one in place.
package envelope

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oriys/actoredge/actorid"
)

// Kind identifies what an envelope carries.
type Kind uint8

const (
	// KindInvocation carries a method call targeting an actor.
	KindInvocation Kind = iota
	// KindResponse carries a successful or void method result.
	KindResponse
	// KindError carries a domain or transport-level failure.
	KindError
	// KindSystem carries a runtime control message (not a method call).
	KindSystem
)

func (k Kind) String() string {
	switch k {
	case KindInvocation:
		return "invocation"
	case KindResponse:
		return "response"
	case KindError:
		return "error"
	case KindSystem:
		return "system"
	default:
		return "unknown"
	}
}

// Manifest identifies the serializer used to encode a payload, plus an
// advisory type hint the decoder may use but must never require.
type Manifest struct {
	SerializerID string `json:"serializerID"`
	TypeHint     string `json:"typeHint,omitempty"`
	Version      string `json:"version,omitempty"`
}

// Metadata carries the structural fields every envelope needs regardless
// of transport: correlation, target method name, free-form headers (trace
// propagation, tenant scoping — opaque to the core), and a send timestamp.
type Metadata struct {
	CallID          string            `json:"callID"`
	Target          string            `json:"target,omitempty"`
	Headers         map[string]string `json:"headers,omitempty"`
	TimestampMillis int64             `json:"timestampMillis"`
}

// Envelope is the immutable message container. Construct one via
// NewInvocation, NewResponse, NewError, or NewSystem; there is no public
// mutator — every field is read through an accessor.
type Envelope struct {
	recipient actorid.ID
	sender    actorid.ID
	manifest  Manifest
	payload   []byte
	metadata  Metadata
	kind      Kind
}

// Recipient returns the addressed actor's ID.
func (e Envelope) Recipient() actorid.ID { return e.recipient }

// Sender returns the originating actor's ID, if any (zero value if absent).
func (e Envelope) Sender() actorid.ID { return e.sender }

// Manifest returns the payload's serialization manifest.
func (e Envelope) Manifest() Manifest { return e.manifest }

// Payload returns the envelope's raw bytes. May be empty for a void return.
func (e Envelope) Payload() []byte { return e.payload }

// Metadata returns the envelope's structural metadata.
func (e Envelope) Metadata() Metadata { return e.metadata }

// Kind reports what this envelope carries.
func (e Envelope) Kind() Kind { return e.kind }

// newCallID generates a fresh correlation ID for an invocation envelope.
func newCallID() string {
	return uuid.NewString()
}

// NewInvocation builds an invocation envelope addressed to recipient,
// targeting the named method. If callID is empty, a fresh one is
// generated. headers is copied defensively so the caller's map can be
// reused or mutated after this call returns.
func NewInvocation(recipient, sender actorid.ID, target string, manifest Manifest, payload []byte, headers map[string]string, callID string) (Envelope, error) {
	if target == "" {
		return Envelope{}, fmt.Errorf("envelope: invocation target must not be empty")
	}
	if callID == "" {
		callID = newCallID()
	}
	return Envelope{
		recipient: recipient,
		sender:    sender,
		manifest:  manifest,
		payload:   payload,
		kind:      KindInvocation,
		metadata: Metadata{
			CallID:          callID,
			Target:          target,
			Headers:         copyHeaders(headers),
			TimestampMillis: time.Now().UnixMilli(),
		},
	}, nil
}

// NewResponse builds a response envelope correlated to callID, addressed
// back to recipient (the original caller). target is always empty on a
// response per the envelope invariant in the data model.
func NewResponse(recipient, sender actorid.ID, callID string, manifest Manifest, payload []byte, headers map[string]string) (Envelope, error) {
	if callID == "" {
		return Envelope{}, fmt.Errorf("envelope: response callID must not be empty")
	}
	return Envelope{
		recipient: recipient,
		sender:    sender,
		manifest:  manifest,
		payload:   payload,
		kind:      KindResponse,
		metadata: Metadata{
			CallID:          callID,
			Headers:         copyHeaders(headers),
			TimestampMillis: time.Now().UnixMilli(),
		},
	}, nil
}

// NewError builds an error envelope correlated to callID. The payload
// carries the serialized domain error (manifest describes its encoding);
// errorTypeHint is carried in metadata headers under the reserved
// "errorTypeHint" key so transports that flatten headers still see it.
func NewError(recipient, sender actorid.ID, callID string, manifest Manifest, payload []byte, errorTypeHint string, headers map[string]string) (Envelope, error) {
	if callID == "" {
		return Envelope{}, fmt.Errorf("envelope: error callID must not be empty")
	}
	hdrs := copyHeaders(headers)
	if errorTypeHint != "" {
		if hdrs == nil {
			hdrs = make(map[string]string, 1)
		}
		hdrs["errorTypeHint"] = errorTypeHint
	}
	return Envelope{
		recipient: recipient,
		sender:    sender,
		manifest:  manifest,
		payload:   payload,
		kind:      KindError,
		metadata: Metadata{
			CallID:          callID,
			Headers:         hdrs,
			TimestampMillis: time.Now().UnixMilli(),
		},
	}, nil
}

// NewSystem builds a system control envelope (not correlated to a call).
func NewSystem(recipient, sender actorid.ID, payload []byte, headers map[string]string) Envelope {
	return Envelope{
		recipient: recipient,
		sender:    sender,
		payload:   payload,
		kind:      KindSystem,
		metadata: Metadata{
			CallID:          newCallID(),
			Headers:         copyHeaders(headers),
			TimestampMillis: time.Now().UnixMilli(),
		},
	}
}

// ErrorTypeHint extracts the reserved errorTypeHint header set by NewError,
// returning "" if absent.
func (e Envelope) ErrorTypeHint() string {
	if e.metadata.Headers == nil {
		return ""
	}
	return e.metadata.Headers["errorTypeHint"]
}

func copyHeaders(h map[string]string) map[string]string {
	if len(h) == 0 {
		return nil
	}
	cp := make(map[string]string, len(h))
	for k, v := range h {
		cp[k] = v
	}
	return cp
}
