package system

import (
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/oriys/actoredge/envelope"
)

// pendingResult is what a pendingTable waiter receives: either the
// correlated envelope, or a channel-wide fault.
type pendingResult struct {
	env envelope.Envelope
	err error
}

// pendingTable is the caller-side correlation table keyed by callID,
// grounded on the teacher's internal/pool discipline: a mutex guarding a
// plain map, one-shot buffered channels as waiters so resolve/fail never
// blocks on a slow or abandoned reader.
type pendingTable struct {
	mu      sync.Mutex
	waiters map[string]chan pendingResult
}

func newPendingTable() *pendingTable {
	return &pendingTable{waiters: make(map[string]chan pendingResult)}
}

// register allocates a one-shot waiter for callID and returns the
// channel the caller should block on.
func (p *pendingTable) register(callID string) <-chan pendingResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch := make(chan pendingResult, 1)
	p.waiters[callID] = ch
	return ch
}

// resolve completes the waiter for callID with env, if one is still
// registered. Returns false if callID is unknown (already resolved,
// timed out, or never registered) — the caller should drop the envelope
// silently in that case, per spec.md's Timeout Cleanup property.
func (p *pendingTable) resolve(callID string, env envelope.Envelope) bool {
	p.mu.Lock()
	ch, ok := p.waiters[callID]
	if ok {
		delete(p.waiters, callID)
	}
	p.mu.Unlock()
	if !ok {
		return false
	}
	ch <- pendingResult{env: env}
	return true
}

// remove unregisters callID without resolving it, used on timeout and
// cancellation so a later-arriving response finds no waiter.
func (p *pendingTable) remove(callID string) {
	p.mu.Lock()
	delete(p.waiters, callID)
	p.mu.Unlock()
}

// failAll resolves every outstanding waiter with err, used when the
// underlying transport connection is lost. Matches spec.md §5's
// channel-wide fault requirement. Delivery fans out across an errgroup
// rather than a plain loop so one very large in-flight call set doesn't
// serialize the broadcast behind a single goroutine.
func (p *pendingTable) failAll(err error) {
	p.mu.Lock()
	waiters := p.waiters
	p.waiters = make(map[string]chan pendingResult)
	p.mu.Unlock()

	var g errgroup.Group
	for _, ch := range waiters {
		ch := ch
		g.Go(func() error {
			ch <- pendingResult{err: err}
			return nil
		})
	}
	_ = g.Wait()
}

// len reports the number of outstanding waiters, for tests and metrics.
func (p *pendingTable) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.waiters)
}
