package system

import (
	"fmt"
	"sync"

	"github.com/oriys/actoredge/actorid"
	"github.com/oriys/actoredge/envelope"
	"github.com/oriys/actoredge/invocation"
	"github.com/oriys/actoredge/serialization"
)

// DomainError is implemented by target-method errors that should
// round-trip to the caller as the same domain error rather than being
// collapsed into RemoteCallGenericError. TypeHint identifies the error's
// shape on the wire; the error value itself must also be marshalable by
// the handler's configured serializer (normally JSON-taggable fields).
type DomainError interface {
	error
	TypeHint() string
}

// continuation delivers a local call's outcome back to the waiting
// caller goroutine without going through the wire at all.
type continuation func(invocation.Result)

// responseWriter sends a completed envelope back over whatever channel
// the original invocation arrived on (a transport's Send, or a paired
// in-memory endpoint).
type responseWriter func(envelope.Envelope) error

// ResultHandler is the single-use sink a target method's outcome is
// routed through, per spec.md §4.D. Exactly one of onReturn,
// onReturnVoid, onThrow may complete successfully; every later call
// fails with ErrHandlerAlreadyCompleted.
type ResultHandler struct {
	mu        sync.Mutex
	completed bool

	registry *serialization.Registry
	wireID   string

	// Set for a local-call handler.
	local continuation

	// Set for a remote-call handler.
	remote    bool
	recipient actorid.ID
	sender    actorid.ID
	callID    string
	write     responseWriter
}

// NewLocalResultHandler builds a handler that resumes a local caller's
// continuation directly, without building an envelope. The outcome is
// still encoded through registry before it reaches the continuation
// (the continuation itself decides whether it needs to decode).
func NewLocalResultHandler(registry *serialization.Registry, wireID string, cont continuation) *ResultHandler {
	return &ResultHandler{registry: registry, wireID: wireID, local: cont}
}

// NewRemoteResultHandler builds a handler that serializes its outcome
// into a response or error envelope correlated to callID and hands it to
// write.
func NewRemoteResultHandler(registry *serialization.Registry, wireID string, recipient, sender actorid.ID, callID string, write responseWriter) *ResultHandler {
	return &ResultHandler{registry: registry, wireID: wireID, remote: true, recipient: recipient, sender: sender, callID: callID, write: write}
}

func (h *ResultHandler) complete() error {
	if h.completed {
		return ErrHandlerAlreadyCompleted
	}
	h.completed = true
	return nil
}

// OnReturn completes the handler with a non-void value.
func (h *ResultHandler) OnReturn(value any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.complete(); err != nil {
		return err
	}

	payload, manifest, err := h.registry.Encode(h.wireID, value)
	if err != nil {
		return &SerializationFailureError{Manifest: manifest, Err: err}
	}
	result := invocation.Result{Kind: invocation.ResultSuccess, Payload: payload, Manifest: manifest}

	if h.local != nil {
		h.local(result)
		return nil
	}
	env, err := envelope.NewResponse(h.recipient, h.sender, h.callID, manifest, payload, nil)
	if err != nil {
		return fmt.Errorf("system: build response envelope: %w", err)
	}
	return h.write(env)
}

// OnReturnVoid completes the handler with an empty, void result.
func (h *ResultHandler) OnReturnVoid() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.complete(); err != nil {
		return err
	}

	result := invocation.Result{Kind: invocation.ResultVoid}
	if h.local != nil {
		h.local(result)
		return nil
	}
	env, err := envelope.NewResponse(h.recipient, h.sender, h.callID, envelope.Manifest{}, nil, nil)
	if err != nil {
		return fmt.Errorf("system: build void response envelope: %w", err)
	}
	return h.write(env)
}

// OnThrow completes the handler with a failure. Errors implementing
// DomainError are serialized and carried faithfully; everything else is
// reduced to a RemoteCallGenericError carrying a stable type hint and
// the error's message.
func (h *ResultHandler) OnThrow(cause error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.complete(); err != nil {
		return err
	}

	typeHint := fmt.Sprintf("%T", cause)
	payload := []byte(cause.Error())
	var manifest envelope.Manifest
	if de, ok := cause.(DomainError); ok {
		typeHint = de.TypeHint()
		if encoded, m, err := h.registry.Encode(h.wireID, de); err == nil {
			payload, manifest = encoded, m
		}
	}

	result := invocation.Result{Kind: invocation.ResultFailure, Payload: payload, Manifest: manifest, ErrorTypeHint: typeHint}
	if h.local != nil {
		h.local(result)
		return nil
	}

	env, err := envelope.NewError(h.recipient, h.sender, h.callID, manifest, payload, typeHint, nil)
	if err != nil {
		return fmt.Errorf("system: build error envelope: %w", err)
	}
	return h.write(env)
}
