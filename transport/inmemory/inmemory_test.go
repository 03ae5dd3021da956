package inmemory

import (
	"context"
	"testing"
	"time"

	"github.com/oriys/actoredge/actorid"
	"github.com/oriys/actoredge/envelope"
	"github.com/oriys/actoredge/transport"
)

func testEnvelope(t *testing.T, callID string) envelope.Envelope {
	t.Helper()
	env, err := envelope.NewInvocation(actorid.WellKnown("chat-1"), actorid.ID{}, "echo", envelope.Manifest{SerializerID: "json"}, []byte(`"hi"`), nil, callID)
	if err != nil {
		t.Fatalf("NewInvocation: %v", err)
	}
	return env
}

func TestHandlerTransportRoutesSendThroughHandler(t *testing.T) {
	var received envelope.Envelope
	ht := NewHandlerTransport(func(env envelope.Envelope) (*envelope.Envelope, error) {
		received = env
		resp, err := envelope.NewResponse(env.Sender(), env.Recipient(), env.Metadata().CallID, env.Manifest(), env.Payload(), nil)
		if err != nil {
			t.Fatalf("NewResponse: %v", err)
		}
		return &resp, nil
	})
	defer ht.Close()

	resp, err := ht.Send(context.Background(), testEnvelope(t, "c-1"))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if resp == nil || resp.Metadata().CallID != "c-1" {
		t.Fatalf("resp = %v, want callID c-1", resp)
	}
	if received.Metadata().Target != "echo" {
		t.Fatalf("handler saw target %q, want echo", received.Metadata().Target)
	}
}

func TestHandlerTransportSendAfterCloseFails(t *testing.T) {
	ht := NewHandlerTransport(func(envelope.Envelope) (*envelope.Envelope, error) { return nil, nil })
	if err := ht.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := ht.Send(context.Background(), testEnvelope(t, "c-2")); err != transport.ErrDisconnected {
		t.Fatalf("Send after close = %v, want ErrDisconnected", err)
	}
}

func TestPairedTransportDeliversAcrossEndpoints(t *testing.T) {
	a, b := NewPair()
	defer a.Close()
	defer b.Close()

	if _, err := a.Send(context.Background(), testEnvelope(t, "c-3")); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case env := <-b.Receive():
		if env.Metadata().CallID != "c-3" {
			t.Fatalf("received callID %q, want c-3", env.Metadata().CallID)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delivery")
	}
}

func TestPairedTransportIsSecure(t *testing.T) {
	a, b := NewPair()
	defer a.Close()
	defer b.Close()
	if !a.Metadata().IsSecure || !b.Metadata().IsSecure {
		t.Fatalf("paired endpoints must report IsSecure=true")
	}
}

func TestPairedTransportFIFOPerDirection(t *testing.T) {
	a, b := NewPair()
	defer a.Close()
	defer b.Close()

	for _, id := range []string{"c-1", "c-2", "c-3"} {
		if _, err := a.Send(context.Background(), testEnvelope(t, id)); err != nil {
			t.Fatalf("Send(%s): %v", id, err)
		}
	}
	for _, want := range []string{"c-1", "c-2", "c-3"} {
		select {
		case env := <-b.Receive():
			if env.Metadata().CallID != want {
				t.Fatalf("received %q, want %q", env.Metadata().CallID, want)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for delivery")
		}
	}
}

func TestClosingOneEndpointDisconnectsTheOther(t *testing.T) {
	a, b := NewPair()
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := b.Send(context.Background(), testEnvelope(t, "c-4")); err != transport.ErrDisconnected {
		t.Fatalf("Send on peer of closed endpoint = %v, want ErrDisconnected", err)
	}
	if _, ok := <-a.Receive(); ok {
		t.Fatalf("Receive on closed endpoint yielded a value, want closed channel")
	}
}
