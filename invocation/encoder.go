// Package invocation implements the Apple-ordered recording and replay of
// one distributed method call: generic substitutions, positional
// arguments, the return type, and the error type, in that mandated order.
// Encoder and Decoder are single-call, single-goroutine objects — they
// must never be shared across concurrent calls.
package invocation

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/oriys/actoredge/envelope"
	"github.com/oriys/actoredge/serialization"
)

// phase tracks how far an Encoder (or Decoder) has advanced through the
// mandated recording sequence. Phases only move forward.
type phase int

const (
	phaseGenerics phase = iota
	phaseArguments
	phaseReturnType
	phaseErrorType
	phaseDone
)

// Encoder records one invocation's generics, arguments, return type, and
// error type, in that order, then finalizes into a Data value. It is not
// safe for concurrent use — callers use one Encoder per call.
type Encoder struct {
	mu sync.Mutex

	registry *serialization.Registry
	wireID   string // serializerID used for argument payloads

	phase phase

	generics  []string
	arguments [][]byte
	manifests []envelope.Manifest

	isVoid         bool
	returnRecorded bool
	returnTypeHint string
	errorRecorded  bool
	errorTypeHint  string

	// localValues mirrors arguments/return/error as native Go values, so
	// a local short-circuit handoff can skip byte (de)serialization
	// entirely while still honoring the same ordering contract.
	localValues []any
}

// NewEncoder constructs an Encoder that serializes arguments through
// registry using the serializer named by wireSerializerID (normally
// "json", or the caller's configured default).
func NewEncoder(registry *serialization.Registry, wireSerializerID string) *Encoder {
	return &Encoder{registry: registry, wireID: wireSerializerID}
}

// RecordGenericSubstitution records one generic type parameter's
// reflected name, in the order the caller's generic parameters appear.
// Must be called before any RecordArgument.
func (e *Encoder) RecordGenericSubstitution(t reflect.Type) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != phaseGenerics {
		return fmt.Errorf("%w: recordGenericSubstitution after recording has advanced past generics", ErrInvalidRecordingOrder)
	}
	e.generics = append(e.generics, typeHintFor(t))
	return nil
}

// RecordArgument records one positional argument's serialized form, in
// the callee's declaration order. May be called zero or more times, and
// must follow all RecordGenericSubstitution calls.
func (e *Encoder) RecordArgument(arg any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase > phaseArguments {
		return fmt.Errorf("%w: recordArgument after recording has advanced past arguments", ErrInvalidRecordingOrder)
	}
	e.phase = phaseArguments

	payload, manifest, err := e.registry.Encode(e.wireID, arg)
	if err != nil {
		return fmt.Errorf("invocation: record argument: %w", err)
	}
	e.arguments = append(e.arguments, payload)
	e.manifests = append(e.manifests, manifest)
	e.localValues = append(e.localValues, arg)
	return nil
}

// RecordReturnType records the call's return type. Must be called at
// most once, and only when the target returns a non-void value; it must
// follow every RecordArgument call and precede RecordErrorType.
func (e *Encoder) RecordReturnType(t reflect.Type) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase > phaseReturnType {
		return fmt.Errorf("%w: recordReturnType after recording has advanced past return type", ErrInvalidRecordingOrder)
	}
	if e.returnRecorded {
		return fmt.Errorf("%w: recordReturnType called twice", ErrAlreadyRecorded)
	}
	e.phase = phaseReturnType
	e.returnRecorded = true
	e.returnTypeHint = typeHintFor(t)
	return nil
}

// RecordErrorType records the call's thrown-error type. Must be called at
// most once, only when the target is fallible, and must follow
// RecordReturnType (if present).
func (e *Encoder) RecordErrorType(t reflect.Type) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase > phaseErrorType {
		return fmt.Errorf("%w: recordErrorType after recording has advanced past error type", ErrInvalidRecordingOrder)
	}
	if e.errorRecorded {
		return fmt.Errorf("%w: recordErrorType called twice", ErrAlreadyRecorded)
	}
	e.phase = phaseErrorType
	e.errorRecorded = true
	e.errorTypeHint = typeHintFor(t)
	return nil
}

// DoneRecording closes the encoder to further recording. Must be called
// exactly once, after every other Record* call.
func (e *Encoder) DoneRecording() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase == phaseDone {
		return fmt.Errorf("%w: doneRecording called twice", ErrInvalidRecordingOrder)
	}
	e.isVoid = !e.returnRecorded
	e.phase = phaseDone
	return nil
}

// Finalize returns the recorded Data. DoneRecording must have already
// succeeded.
func (e *Encoder) Finalize() (Data, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != phaseDone {
		return Data{}, ErrNotFinalized
	}
	return Data{
		GenericSubstitutions: append([]string(nil), e.generics...),
		Arguments:            append([][]byte(nil), e.arguments...),
		ArgumentManifests:    append([]envelope.Manifest(nil), e.manifests...),
		IsVoid:               e.isVoid,
		ReturnTypeHint:       e.returnTypeHint,
		ErrorTypeHint:        e.errorTypeHint,
	}, nil
}

// LocalHandoff returns a Decoder pre-loaded with this encoder's recorded
// native Go values, skipping byte serialization entirely. Used on the
// local-call short-circuit path when the target actor lives in the same
// process. DoneRecording must have already succeeded.
func (e *Encoder) LocalHandoff(owner any) (*Decoder, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != phaseDone {
		return nil, ErrNotFinalized
	}
	return &Decoder{
		registry:       e.registry,
		owner:          owner,
		generics:       append([]string(nil), e.generics...),
		localValues:    append([]any(nil), e.localValues...),
		usingLocal:     true,
		returnTypeHint: e.returnTypeHint,
		errorTypeHint:  e.errorTypeHint,
	}, nil
}
