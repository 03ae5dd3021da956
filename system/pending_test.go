package system

import (
	"errors"
	"testing"

	"github.com/oriys/actoredge/actorid"
	"github.com/oriys/actoredge/envelope"
)

func envelopeStub() envelope.Envelope {
	env, err := envelope.NewResponse(actorid.WellKnown("a"), actorid.WellKnown("b"), "c-1", envelope.Manifest{SerializerID: "json"}, nil, nil)
	if err != nil {
		panic(err)
	}
	return env
}

func TestPendingTableResolveDeliversToWaiter(t *testing.T) {
	pt := newPendingTable()
	waiter := pt.register("c-1")
	if !pt.resolve("c-1", envelopeStub()) {
		t.Fatalf("resolve on a registered callID should return true")
	}
	result := <-waiter
	if result.err != nil {
		t.Fatalf("unexpected error: %v", result.err)
	}
}

func TestPendingTableResolveUnknownCallIDReturnsFalse(t *testing.T) {
	pt := newPendingTable()
	if pt.resolve("nope", envelopeStub()) {
		t.Fatalf("resolve on an unknown callID should return false")
	}
}

func TestPendingTableRemoveDropsWaiterSilently(t *testing.T) {
	pt := newPendingTable()
	pt.register("c-1")
	pt.remove("c-1")
	if pt.resolve("c-1", envelopeStub()) {
		t.Fatalf("resolve after remove should find no waiter")
	}
	if pt.len() != 0 {
		t.Fatalf("len = %d, want 0 after remove", pt.len())
	}
}

func TestPendingTableFailAllResolvesEveryWaiterWithError(t *testing.T) {
	pt := newPendingTable()
	w1 := pt.register("c-1")
	w2 := pt.register("c-2")

	boom := errors.New("boom")
	pt.failAll(boom)

	for _, w := range []<-chan pendingResult{w1, w2} {
		result := <-w
		if !errors.Is(result.err, boom) {
			t.Fatalf("err = %v, want %v", result.err, boom)
		}
	}
	if pt.len() != 0 {
		t.Fatalf("len = %d, want 0 after failAll", pt.len())
	}
}
