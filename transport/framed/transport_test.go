package framed

import (
	"context"
	"testing"
	"time"

	"github.com/oriys/actoredge/actorid"
	"github.com/oriys/actoredge/envelope"
)

func TestDialAndAcceptExchangeEnvelopes(t *testing.T) {
	ln, err := Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	accepted := make(chan *Transport, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			t.Errorf("Accept: %v", err)
			return
		}
		accepted <- conn
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client, err := Dial(ctx, ln.Addr())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	var server *Transport
	select {
	case server = <-accepted:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for Accept")
	}
	defer server.Close()

	recipient := actorid.WellKnown("chat-1")
	env, err := envelope.NewInvocation(recipient, actorid.ID{}, "echo", envelope.Manifest{SerializerID: "json"}, []byte(`"hi"`), nil, "")
	if err != nil {
		t.Fatalf("NewInvocation: %v", err)
	}

	if _, err := client.Send(context.Background(), env); err != nil {
		t.Fatalf("client.Send: %v", err)
	}

	select {
	case got := <-server.Receive():
		if string(got.Payload()) != `"hi"` {
			t.Fatalf("payload = %s, want \"hi\"", got.Payload())
		}
		if got.Metadata().Target != "echo" {
			t.Fatalf("target = %q, want echo", got.Metadata().Target)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for the server to receive the envelope")
	}
}

func TestSendAfterCloseFails(t *testing.T) {
	ln, err := Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	go func() { _, _ = ln.Accept() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client, err := Dial(ctx, ln.Addr())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	recipient := actorid.WellKnown("chat-1")
	env, err := envelope.NewInvocation(recipient, actorid.ID{}, "echo", envelope.Manifest{SerializerID: "json"}, nil, nil, "")
	if err != nil {
		t.Fatalf("NewInvocation: %v", err)
	}
	if _, err := client.Send(context.Background(), env); err == nil {
		t.Fatalf("expected Send after Close to fail")
	}
	if client.IsConnected() {
		t.Fatalf("expected IsConnected to be false after Close")
	}
}
