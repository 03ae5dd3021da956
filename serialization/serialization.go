// Package serialization provides the pluggable encode/decode layer behind
// every envelope payload. A Serializer is looked up by the serializerID
// carried in a SerializationManifest; the registry always carries a JSON
// serializer under "json".
package serialization

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/oriys/actoredge/envelope"
)

// Serializer encodes and decodes values of arbitrary shape to and from
// bytes, producing (or consuming) a manifest that uniquely identifies how
// the bytes were encoded. Implementations must preserve round-trip
// equality for plain data; stable ordering of map keys is not required.
type Serializer interface {
	// ID is the serializerID this implementation registers under.
	ID() string
	// Serialize encodes value and returns its bytes plus a manifest.
	Serialize(value any) ([]byte, envelope.Manifest, error)
	// Deserialize decodes data into target, which must be a pointer.
	// manifest.TypeHint is advisory only and MUST NOT cause failure if
	// unrecognized.
	Deserialize(data []byte, manifest envelope.Manifest, target any) error
}

// Registry looks up a Serializer by serializerID.
type Registry struct {
	mu          sync.RWMutex
	serializers map[string]Serializer
	defaultID   string
}

// NewRegistry returns a registry pre-populated with the JSON serializer
// registered under "json" and selected as the default.
func NewRegistry() *Registry {
	r := &Registry{serializers: make(map[string]Serializer)}
	json := NewJSONSerializer()
	r.Register(json)
	r.defaultID = json.ID()
	return r
}

// Register adds or replaces a serializer under its own ID.
func (r *Registry) Register(s Serializer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.serializers[s.ID()] = s
}

// SetDefault changes which registered serializer Default() returns.
func (r *Registry) SetDefault(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.serializers[id]; !ok {
		return fmt.Errorf("serialization: unknown default serializer %q", id)
	}
	r.defaultID = id
	return nil
}

// Lookup returns the serializer registered under id.
func (r *Registry) Lookup(id string) (Serializer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.serializers[id]
	if !ok {
		return nil, fmt.Errorf("serialization: no serializer registered for id %q", id)
	}
	return s, nil
}

// Default returns the registry's default serializer (initially JSON).
func (r *Registry) Default() Serializer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.serializers[r.defaultID]
}

// Encode serializes value with the serializer named by serializerID,
// returning bytes plus the manifest produced by that serializer.
func (r *Registry) Encode(serializerID string, value any) ([]byte, envelope.Manifest, error) {
	s, err := r.Lookup(serializerID)
	if err != nil {
		return nil, envelope.Manifest{}, err
	}
	return s.Serialize(value)
}

// Decode deserializes data according to manifest.SerializerID into target.
func (r *Registry) Decode(data []byte, manifest envelope.Manifest, target any) error {
	s, err := r.Lookup(manifest.SerializerID)
	if err != nil {
		return err
	}
	return s.Deserialize(data, manifest, target)
}

// JSONSerializer is the registry's built-in, always-available serializer.
type JSONSerializer struct{}

// NewJSONSerializer constructs a JSONSerializer.
func NewJSONSerializer() *JSONSerializer { return &JSONSerializer{} }

// ID implements Serializer.
func (*JSONSerializer) ID() string { return "json" }

// Serialize implements Serializer.
func (*JSONSerializer) Serialize(value any) ([]byte, envelope.Manifest, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, envelope.Manifest{}, fmt.Errorf("serialization: json encode: %w", err)
	}
	return data, envelope.Manifest{SerializerID: "json", TypeHint: typeHintOf(value)}, nil
}

// Deserialize implements Serializer. Unknown/empty type hints never cause
// failure; they are advisory only.
func (*JSONSerializer) Deserialize(data []byte, _ envelope.Manifest, target any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("serialization: json decode: %w", err)
	}
	return nil
}

func typeHintOf(value any) string {
	if value == nil {
		return ""
	}
	return fmt.Sprintf("%T", value)
}
