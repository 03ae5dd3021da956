package serialization

import (
	"testing"

	"github.com/oriys/actoredge/envelope"
)

type sample struct {
	Name string `json:"name"`
	N    int    `json:"n"`
}

func TestJSONRoundTrip(t *testing.T) {
	r := NewRegistry()
	in := sample{Name: "hi", N: 7}

	data, manifest, err := r.Encode("json", in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if manifest.SerializerID != "json" {
		t.Fatalf("serializerID = %q, want json", manifest.SerializerID)
	}

	var out sample
	if err := r.Decode(data, manifest, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out != in {
		t.Fatalf("round trip mismatch: got %+v, want %+v", out, in)
	}
}

func TestLookupUnknownSerializer(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Lookup("bson"); err == nil {
		t.Fatalf("expected error for unregistered serializer")
	}
}

func TestDecodeIgnoresUnknownTypeHint(t *testing.T) {
	r := NewRegistry()
	var out sample
	manifest := envelope.Manifest{SerializerID: "json", TypeHint: "SomeUnknownMangledSwiftTypeName"}
	if err := r.Decode([]byte(`{"name":"x","n":1}`), manifest, &out); err != nil {
		t.Fatalf("decode with unknown type hint should not fail: %v", err)
	}
	if out.Name != "x" || out.N != 1 {
		t.Fatalf("unexpected decode result: %+v", out)
	}
}

func TestEmptyPayloadDecodesWithoutError(t *testing.T) {
	r := NewRegistry()
	var out sample
	if err := r.Decode(nil, envelope.Manifest{SerializerID: "json"}, &out); err != nil {
		t.Fatalf("empty payload should not error: %v", err)
	}
}

func TestRegisterAndSetDefault(t *testing.T) {
	r := NewRegistry()
	custom := &stubSerializer{id: "custom"}
	r.Register(custom)
	if err := r.SetDefault("custom"); err != nil {
		t.Fatalf("SetDefault: %v", err)
	}
	if r.Default().ID() != "custom" {
		t.Fatalf("Default().ID() = %q, want custom", r.Default().ID())
	}
}

func TestSetDefaultRejectsUnknownID(t *testing.T) {
	r := NewRegistry()
	if err := r.SetDefault("nope"); err == nil {
		t.Fatalf("expected error setting unknown default")
	}
}

type stubSerializer struct{ id string }

func (s *stubSerializer) ID() string { return s.id }

func (s *stubSerializer) Serialize(value any) ([]byte, envelope.Manifest, error) {
	return nil, envelope.Manifest{SerializerID: s.id}, nil
}

func (s *stubSerializer) Deserialize(data []byte, manifest envelope.Manifest, target any) error {
	return nil
}
