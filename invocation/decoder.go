package invocation

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/oriys/actoredge/serialization"
)

// Decoder replays one invocation's generics, arguments, return type, and
// error type, in the same order an Encoder recorded them. Like Encoder,
// it is single-call and not safe for concurrent use.
//
// The decoder carries an owner value — normally the distributed actor
// system that received the call — so custom deserializers can resolve a
// decoded actor-ID argument back into a live proxy. The owner is opaque
// to this package; callers type-assert it back to whatever concrete type
// they passed into NewDecoder.
type Decoder struct {
	mu sync.Mutex

	registry *serialization.Registry
	owner    any

	generics []string
	genIndex int

	// Remote path: arguments travel as bytes + manifests.
	data     Data
	argIndex int

	// Local-call short-circuit path: arguments travel as native values.
	usingLocal  bool
	localValues []any

	returnTypeHint string
	errorTypeHint  string
	decodedGeneric bool
}

// NewDecoder constructs a Decoder over a received Data value (the remote
// path: every argument must be deserialized from bytes).
func NewDecoder(registry *serialization.Registry, owner any, data Data) *Decoder {
	return &Decoder{
		registry:       registry,
		owner:          owner,
		data:           data,
		generics:       data.GenericSubstitutions,
		returnTypeHint: data.ReturnTypeHint,
		errorTypeHint:  data.ErrorTypeHint,
	}
}

// Owner returns the value NewDecoder (or Encoder.LocalHandoff) was given
// as the decoding context — the owning actor system, for deserializers
// that need to resolve actor-reference arguments into proxies.
func (d *Decoder) Owner() any {
	return d.owner
}

// DecodeGenericSubstitutions returns the recorded generic type names, in
// recording order. May be called at most once, before any
// DecodeNextArgument call.
func (d *Decoder) DecodeGenericSubstitutions() ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.decodedGeneric {
		return nil, fmt.Errorf("%w: decodeGenericSubstitutions called twice", ErrInvalidRecordingOrder)
	}
	if d.argIndex != 0 {
		return nil, fmt.Errorf("%w: decodeGenericSubstitutions after arguments have been decoded", ErrInvalidRecordingOrder)
	}
	d.decodedGeneric = true
	return append([]string(nil), d.generics...), nil
}

// DecodeNextArgument decodes the next positional argument into target,
// which must be a non-nil pointer. Consumes exactly one argument slot;
// calling this past the last recorded argument returns
// ErrMissingArgument.
func (d *Decoder) DecodeNextArgument(target any) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("invocation: decodeNextArgument target must be a non-nil pointer")
	}

	if d.usingLocal {
		if d.argIndex >= len(d.localValues) {
			return ErrMissingArgument
		}
		value := d.localValues[d.argIndex]
		if value == nil {
			rv.Elem().Set(reflect.Zero(rv.Elem().Type()))
		} else {
			vv := reflect.ValueOf(value)
			if !vv.Type().AssignableTo(rv.Elem().Type()) {
				return fmt.Errorf("invocation: argument %d has type %s, target wants %s", d.argIndex, vv.Type(), rv.Elem().Type())
			}
			rv.Elem().Set(vv)
		}
		d.argIndex++
		return nil
	}

	if d.argIndex >= len(d.data.Arguments) {
		return ErrMissingArgument
	}
	payload := d.data.Arguments[d.argIndex]
	manifest := d.data.ArgumentManifests[d.argIndex]
	if err := d.registry.Decode(payload, manifest, target); err != nil {
		return fmt.Errorf("invocation: decode argument %d: %w", d.argIndex, err)
	}
	d.argIndex++
	return nil
}

// RemainingArguments reports how many arguments have not yet been
// consumed by DecodeNextArgument.
func (d *Decoder) RemainingArguments() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.usingLocal {
		return len(d.localValues) - d.argIndex
	}
	return len(d.data.Arguments) - d.argIndex
}

// DecodeReturnType returns the recorded return-type hint, or "" if the
// target is void.
func (d *Decoder) DecodeReturnType() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.returnTypeHint, nil
}

// DecodeErrorType returns the recorded error-type hint, or "" if the
// target is infallible.
func (d *Decoder) DecodeErrorType() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.errorTypeHint, nil
}
