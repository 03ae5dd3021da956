// Package actor implements actor identity lifecycle (assign, ready,
// resign) and the local registry that a distributed actor system looks
// up incoming invocations against. It also defines the client-side Stub
// used to forward named method calls to a remote actor.
package actor

import (
	"fmt"
	"sync"

	"github.com/oriys/actoredge/actorid"
	"github.com/oriys/actoredge/internal/obslog"
	"github.com/oriys/actoredge/metrics"
)

// Local is any actor instance hosted in this process. The runtime never
// inspects method sets reflectively beyond what a caller of
// executeDistributedTarget supplies; Local exists so the registry can
// hold heterogeneous actor instances under a single map value type.
type Local interface {
	// ActorID returns the identity assigned to this actor. Implementations
	// typically store the ID handed to them at construction time.
	ActorID() actorid.ID
}

// entry is the registry's bookkeeping per live ID: the actor, once
// actorReady has registered it, plus whether the slot has been assigned
// but not yet readied.
type entry struct {
	actor Local
	ready bool
}

// Registry is the process-local map from ActorID to actor instance. An ID
// is live from AssignID until ResignID; ActorReady may be called exactly
// once per ID in between, after which Find succeeds. Safe for concurrent
// use from many goroutines.
type Registry struct {
	mu      sync.RWMutex
	entries map[actorid.ID]*entry
	metrics *metrics.Registry
}

// NewRegistry constructs an empty Registry. metricsReg may be nil to skip
// recording spec.md §4.J's actor_registrations_total/actor_resolutions_total
// counters.
func NewRegistry(metricsReg *metrics.Registry) *Registry {
	return &Registry{entries: make(map[actorid.ID]*entry), metrics: metricsReg}
}

// AssignID allocates a fresh system-assigned ID and marks it live but not
// yet ready. typeName is used only for logging.
func (r *Registry) AssignID(typeName string) (actorid.ID, error) {
	id, err := actorid.Generate()
	if err != nil {
		return actorid.ID{}, fmt.Errorf("actor: assign id: %w", err)
	}
	r.mu.Lock()
	r.entries[id] = &entry{}
	r.mu.Unlock()
	obslog.Op().Debug("actor id assigned", "id", id.String(), "type", typeName)
	return id, nil
}

// PreregisterWellKnown marks a caller-supplied, stable ID as live, so a
// server can resolve actors by a fixed name without an AssignID round
// trip. It does not mark the ID ready; ActorReady must still be called.
func (r *Registry) PreregisterWellKnown(id actorid.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[id]; !exists {
		r.entries[id] = &entry{}
	}
}

// ActorReady registers actor under its own ActorID so that concurrent
// Find calls start succeeding. The ID must already be live (via AssignID
// or PreregisterWellKnown). Calling ActorReady twice for the same ID is a
// programmer error and returns an error rather than silently replacing
// the actor.
func (r *Registry) ActorReady(a Local) error {
	id := a.ActorID()
	r.mu.Lock()
	defer r.mu.Unlock()

	e, exists := r.entries[id]
	if !exists {
		e = &entry{}
		r.entries[id] = e
	}
	if e.ready {
		return fmt.Errorf("actor: actorReady called twice for id %s", id)
	}
	e.actor = a
	e.ready = true
	obslog.Op().Info("actor ready", "id", id.String())
	if r.metrics != nil {
		r.metrics.IncActorRegistration()
	}
	return nil
}

// ResignID removes id from the registry. After ResignID resolves, Find
// returns nothing for id. Idempotent: resigning an unknown or
// already-resigned ID is not an error.
func (r *Registry) ResignID(id actorid.ID) {
	r.mu.Lock()
	delete(r.entries, id)
	r.mu.Unlock()
	obslog.Op().Info("actor id resigned", "id", id.String())
}

// Find returns the actor registered under id, or nil if no ready actor is
// registered under it (never registered, assigned but not yet ready, or
// already resigned).
func (r *Registry) Find(id actorid.ID) Local {
	r.mu.RLock()
	e, exists := r.entries[id]
	found := exists && e.ready
	var a Local
	if found {
		a = e.actor
	}
	r.mu.RUnlock()

	if r.metrics != nil {
		r.metrics.IncActorResolution(found)
	}
	return a
}

// Count returns the number of live entries (assigned or ready), mainly
// for tests and metrics.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
