// Package actorid defines the identifier type used to address every actor
// in an ActorEdge runtime: the opaque, printable ID carried in every
// envelope and used as the registry key.
package actorid

import (
	"encoding/hex"
	"regexp"

	"github.com/google/uuid"
)

// minGeneratedHexChars is the minimum length of a system-assigned ID,
// matching the identity format invariant: ^[0-9a-f]{8,}$.
const minGeneratedHexChars = 8

var identityFormat = regexp.MustCompile(`^[0-9a-f]{8,}$`)

// ID is the opaque, value-comparable identifier for an actor. Two IDs
// are equal iff their underlying strings are equal.
type ID struct {
	value string
}

// Well known constructs an ID from a caller-supplied, stable name (e.g.
// "chat-1"). Well-known IDs skip the hex-format invariant since they are
// chosen by the embedding application, not generated by the runtime.
func WellKnown(name string) ID {
	return ID{value: name}
}

// Generate returns a fresh, system-assigned ID: a random (v4) UUID's raw
// 16 bytes, hex-encoded to 32 lowercase hex characters with no dashes. It
// satisfies the identity format invariant ^[0-9a-f]{8,}$ and is
// collision-free with overwhelming probability within a process lifetime.
func Generate() (ID, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return ID{}, err
	}
	raw := [16]byte(u)
	return ID{value: hex.EncodeToString(raw[:])}, nil
}

// MustGenerate is like Generate but panics on entropy-source failure.
// Intended for call sites where the caller has no sensible recovery path
// (e.g. package-level test fixtures).
func MustGenerate() ID {
	id, err := Generate()
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the printable form of the ID.
func (id ID) String() string {
	return id.value
}

// IsZero reports whether id is the zero value (no ID assigned).
func (id ID) IsZero() bool {
	return id.value == ""
}

// Equal reports whether two IDs carry the same value.
func (id ID) Equal(other ID) bool {
	return id.value == other.value
}

// IsSystemAssignedFormat reports whether the ID's string form matches the
// system-assigned identity format (lowercase hex, at least 8 characters).
// Well-known IDs are not required to match this format.
func IsSystemAssignedFormat(id ID) bool {
	return identityFormat.MatchString(id.value)
}

// Parse wraps a raw wire string back into an ID. Used when decoding an
// envelope's recipient/sender field.
func Parse(raw string) ID {
	return ID{value: raw}
}

// MarshalText implements encoding.TextMarshaler so ID can be used directly
// as a JSON map key or struct field.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.value), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(text []byte) error {
	id.value = string(text)
	return nil
}
