package system

import (
	"errors"
	"fmt"

	"github.com/oriys/actoredge/envelope"
)

// Sentinel errors for the structural and transport-layer failure kinds
// named in spec.md §7. Domain errors thrown by a target method are never
// one of these; they are preserved or wrapped in RemoteCallGeneric.
var (
	// ErrHandlerAlreadyCompleted is returned when onReturn, onReturnVoid,
	// or onThrow is invoked more than once on the same ResultHandler.
	ErrHandlerAlreadyCompleted = errors.New("system: handler already completed")
	// ErrUnknownTarget is returned when a call to a local actor names a
	// method the actor does not have. On the remote path,
	// executeDistributedTarget reports the same condition as an error
	// envelope with typeHint "UnknownTarget", which the caller receives as
	// a RemoteCallGenericError.
	ErrUnknownTarget = errors.New("system: unknown target method")
	// ErrActorNotFound is returned when remoteCall or executeDistributedTarget
	// addresses an ID with no registered or resolvable actor.
	ErrActorNotFound = errors.New("system: actor not found")
	// ErrTransportUnavailable is returned when remoteCall is attempted
	// with no transport installed.
	ErrTransportUnavailable = errors.New("system: transport unavailable")
	// ErrDisconnected is returned to in-flight calls on a channel-wide
	// fault: the System is closed, or its transport's Receive channel
	// closes. A transport's own Send failure is reported as a
	// SendFailedError wrapping the transport's error instead.
	ErrDisconnected = errors.New("system: transport disconnected")
	// ErrTimeout is returned when a remoteCall's deadline elapses before
	// a response is observed.
	ErrTimeout = errors.New("system: call timed out")
)

// SerializationFailureError wraps a failure to encode or decode a payload
// with the manifest that was being processed, per spec.md §7.
type SerializationFailureError struct {
	Manifest envelope.Manifest
	Err      error
}

func (e *SerializationFailureError) Error() string {
	return fmt.Sprintf("system: serialization failure (serializerID=%q typeHint=%q): %v", e.Manifest.SerializerID, e.Manifest.TypeHint, e.Err)
}

func (e *SerializationFailureError) Unwrap() error { return e.Err }

// ActorNotFoundError carries the offending ID alongside ErrActorNotFound
// so callers can extract it with errors.As. It implements DomainError and
// is registered by every System by default under the "ActorNotFound"
// wire typeHint, per spec.md §7/§8 scenario 5.
type ActorNotFoundError struct {
	ID string `json:"id"`
}

func (e *ActorNotFoundError) Error() string {
	return fmt.Sprintf("system: actor not found: %s", e.ID)
}

func (e *ActorNotFoundError) Unwrap() error { return ErrActorNotFound }

// TypeHint implements DomainError.
func (e *ActorNotFoundError) TypeHint() string { return "ActorNotFound" }

// SendFailedError wraps a transport-reported send failure with its reason.
type SendFailedError struct {
	Reason string
	Err    error
}

func (e *SendFailedError) Error() string {
	return fmt.Sprintf("system: send failed: %s: %v", e.Reason, e.Err)
}

func (e *SendFailedError) Unwrap() error { return e.Err }

// RemoteCallGenericError is the fallback carrier for a target error that
// could not be faithfully reconstructed on the caller: a stable
// typeHint plus a human-readable message, per spec.md §4.F(e).
type RemoteCallGenericError struct {
	TypeHint string
	Message  string
}

func (e *RemoteCallGenericError) Error() string {
	return fmt.Sprintf("system: remote call failed (%s): %s", e.TypeHint, e.Message)
}
