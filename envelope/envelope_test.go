package envelope

import (
	"testing"

	"github.com/oriys/actoredge/actorid"
)

func TestNewInvocationRequiresTarget(t *testing.T) {
	recipient := actorid.WellKnown("chat-1")
	if _, err := NewInvocation(recipient, actorid.ID{}, "", Manifest{SerializerID: "json"}, nil, nil, ""); err == nil {
		t.Fatalf("expected error for empty target")
	}
}

func TestNewInvocationGeneratesCallID(t *testing.T) {
	recipient := actorid.WellKnown("chat-1")
	env, err := NewInvocation(recipient, actorid.ID{}, "echo", Manifest{SerializerID: "json"}, []byte("hi"), nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.Metadata().CallID == "" {
		t.Fatalf("expected a generated callID")
	}
	if env.Metadata().Target != "echo" {
		t.Fatalf("target = %q, want echo", env.Metadata().Target)
	}
	if env.Kind() != KindInvocation {
		t.Fatalf("kind = %v, want KindInvocation", env.Kind())
	}
}

func TestNewInvocationHonorsExplicitCallID(t *testing.T) {
	recipient := actorid.WellKnown("chat-1")
	env, err := NewInvocation(recipient, actorid.ID{}, "echo", Manifest{SerializerID: "json"}, nil, nil, "c-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.Metadata().CallID != "c-1" {
		t.Fatalf("callID = %q, want c-1", env.Metadata().CallID)
	}
}

func TestNewResponseTargetIsEmpty(t *testing.T) {
	env, err := NewResponse(actorid.ID{}, actorid.WellKnown("chat-1"), "c-1", Manifest{SerializerID: "json"}, []byte("hi"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.Metadata().Target != "" {
		t.Fatalf("response target = %q, want empty", env.Metadata().Target)
	}
	if env.Metadata().CallID != "c-1" {
		t.Fatalf("callID not preserved: got %q", env.Metadata().CallID)
	}
}

func TestNewResponseRequiresCallID(t *testing.T) {
	if _, err := NewResponse(actorid.ID{}, actorid.ID{}, "", Manifest{}, nil, nil); err == nil {
		t.Fatalf("expected error for empty callID")
	}
}

func TestNewErrorCarriesTypeHint(t *testing.T) {
	env, err := NewError(actorid.ID{}, actorid.WellKnown("chat-1"), "c-1", Manifest{SerializerID: "json"}, []byte(`{"id":"u-42"}`), "NotFound", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.Kind() != KindError {
		t.Fatalf("kind = %v, want KindError", env.Kind())
	}
	if got := env.ErrorTypeHint(); got != "NotFound" {
		t.Fatalf("ErrorTypeHint() = %q, want NotFound", got)
	}
}

func TestHeadersAreCopiedDefensively(t *testing.T) {
	headers := map[string]string{"traceparent": "00-abc"}
	env, err := NewInvocation(actorid.ID{}, actorid.ID{}, "echo", Manifest{}, nil, headers, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	headers["traceparent"] = "mutated"
	if got := env.Metadata().Headers["traceparent"]; got != "00-abc" {
		t.Fatalf("envelope headers mutated by caller's map: got %q", got)
	}
}

func TestKindString(t *testing.T) {
	cases := []struct {
		kind Kind
		want string
	}{
		{KindInvocation, "invocation"},
		{KindResponse, "response"},
		{KindError, "error"},
		{KindSystem, "system"},
		{Kind(99), "unknown"},
	}
	for _, tc := range cases {
		t.Run(tc.want, func(t *testing.T) {
			if got := tc.kind.String(); got != tc.want {
				t.Errorf("String() = %q, want %q", got, tc.want)
			}
		})
	}
}
