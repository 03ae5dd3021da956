package actor

import (
	"strings"
	"sync"
	"testing"

	"github.com/oriys/actoredge/actorid"
	"github.com/oriys/actoredge/metrics"
)

func counterValue(t *testing.T, m *metrics.Registry, name string) float64 {
	t.Helper()
	families, err := m.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	var total float64
	for _, f := range families {
		if !strings.HasSuffix(f.GetName(), name) {
			continue
		}
		for _, metric := range f.Metric {
			if metric.Counter != nil {
				total += metric.Counter.GetValue()
			}
		}
	}
	return total
}

type stubActor struct{ id actorid.ID }

func (a stubActor) ActorID() actorid.ID { return a.id }

func TestAssignIDThenReadyThenFind(t *testing.T) {
	r := NewRegistry(nil)
	id, err := r.AssignID("stubActor")
	if err != nil {
		t.Fatalf("AssignID: %v", err)
	}
	if r.Find(id) != nil {
		t.Fatalf("Find before ActorReady = non-nil, want nil")
	}
	if err := r.ActorReady(stubActor{id: id}); err != nil {
		t.Fatalf("ActorReady: %v", err)
	}
	found := r.Find(id)
	if found == nil || found.ActorID() != id {
		t.Fatalf("Find after ActorReady = %v, want actor with id %s", found, id)
	}
}

func TestResignIDRemovesFromFind(t *testing.T) {
	r := NewRegistry(nil)
	id, err := r.AssignID("stubActor")
	if err != nil {
		t.Fatalf("AssignID: %v", err)
	}
	if err := r.ActorReady(stubActor{id: id}); err != nil {
		t.Fatalf("ActorReady: %v", err)
	}
	r.ResignID(id)
	if r.Find(id) != nil {
		t.Fatalf("Find after ResignID = non-nil, want nil")
	}
}

func TestResignUnknownIDIsNotAnError(t *testing.T) {
	r := NewRegistry(nil)
	id := actorid.MustGenerate()
	r.ResignID(id) // must not panic
}

func TestActorReadyTwiceFails(t *testing.T) {
	r := NewRegistry(nil)
	id, err := r.AssignID("stubActor")
	if err != nil {
		t.Fatalf("AssignID: %v", err)
	}
	if err := r.ActorReady(stubActor{id: id}); err != nil {
		t.Fatalf("first ActorReady: %v", err)
	}
	if err := r.ActorReady(stubActor{id: id}); err == nil {
		t.Fatalf("second ActorReady = nil error, want error")
	}
}

func TestPreregisterWellKnownThenReady(t *testing.T) {
	r := NewRegistry(nil)
	id := actorid.WellKnown("singleton")
	r.PreregisterWellKnown(id)
	if r.Find(id) != nil {
		t.Fatalf("Find before ActorReady = non-nil, want nil")
	}
	if err := r.ActorReady(stubActor{id: id}); err != nil {
		t.Fatalf("ActorReady: %v", err)
	}
	if r.Find(id) == nil {
		t.Fatalf("Find after ActorReady = nil, want actor")
	}
}

func TestConcurrentFindDuringReadyAndResign(t *testing.T) {
	r := NewRegistry(nil)
	id, err := r.AssignID("stubActor")
	if err != nil {
		t.Fatalf("AssignID: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		_ = r.ActorReady(stubActor{id: id})
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			r.Find(id)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			r.Count()
		}
	}()
	wg.Wait()
}

func TestCountReflectsLiveEntries(t *testing.T) {
	r := NewRegistry(nil)
	if r.Count() != 0 {
		t.Fatalf("Count of empty registry = %d, want 0", r.Count())
	}
	id, err := r.AssignID("stubActor")
	if err != nil {
		t.Fatalf("AssignID: %v", err)
	}
	if r.Count() != 1 {
		t.Fatalf("Count after AssignID = %d, want 1", r.Count())
	}
	r.ResignID(id)
	if r.Count() != 0 {
		t.Fatalf("Count after ResignID = %d, want 0", r.Count())
	}
}

func TestRegistryRecordsRegistrationAndResolutionMetrics(t *testing.T) {
	m := metrics.NewRegistry("actoredge_registry_test")
	r := NewRegistry(m)

	id, err := r.AssignID("stubActor")
	if err != nil {
		t.Fatalf("AssignID: %v", err)
	}

	r.Find(id) // not ready yet: a miss
	if err := r.ActorReady(stubActor{id: id}); err != nil {
		t.Fatalf("ActorReady: %v", err)
	}
	r.Find(id) // ready now: a hit

	if got := counterValue(t, m, "actor_registrations_total"); got != 1 {
		t.Fatalf("actor_registrations_total = %v, want 1", got)
	}
	if got := counterValue(t, m, "actor_resolutions_total"); got != 2 {
		t.Fatalf("actor_resolutions_total = %v, want 2 (one miss, one hit)", got)
	}
}
