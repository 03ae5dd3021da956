// Package system implements spec.md §4.D and §4.F: the per-call
// ResultHandler and the distributed actor system that ties the actor
// registry, the invocation pipeline, and a transport together into
// remoteCall / remoteCallVoid / executeDistributedTarget / resolve.
package system

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oriys/actoredge/actor"
	"github.com/oriys/actoredge/actorid"
	"github.com/oriys/actoredge/envelope"
	"github.com/oriys/actoredge/internal/obslog"
	"github.com/oriys/actoredge/invocation"
	"github.com/oriys/actoredge/metrics"
	"github.com/oriys/actoredge/serialization"
	"github.com/oriys/actoredge/transport"
)

const invocationDataTypeHint = "InvocationData"

var _ actor.Caller = (*System)(nil)

// DefaultCallTimeout is applied to remoteCall/remoteCallVoid when the
// caller's context carries no deadline, per spec.md §4.F.
const DefaultCallTimeout = 30 * time.Second

// System is the distributed actor system: it composes a local actor
// registry, a pending-call table, and an installed transport. The zero
// value is not usable; construct with New.
type System struct {
	id        actorid.ID
	registry  *actor.Registry
	serials   *serialization.Registry
	wireID    string
	pending   *pendingTable
	transport transport.Transport
	timeout   time.Duration
	metrics   *metrics.Registry

	mu         sync.RWMutex
	errorTypes map[string]func() DomainError

	closeOnce sync.Once
	done      chan struct{}
}

// New constructs a System addressed under selfID (used as the sender on
// outbound envelopes), backed by registry for local lookups and
// serials for the wire codec. metricsReg may be nil to skip recording
// spec.md §4.J's call/actor metrics entirely. The transport may be
// installed later with SetTransport — a System with no transport can
// still serve purely local calls.
func New(selfID actorid.ID, registry *actor.Registry, serials *serialization.Registry, metricsReg *metrics.Registry) *System {
	s := &System{
		id:         selfID,
		registry:   registry,
		serials:    serials,
		wireID:     serials.Default().ID(),
		pending:    newPendingTable(),
		timeout:    DefaultCallTimeout,
		metrics:    metricsReg,
		errorTypes: make(map[string]func() DomainError),
		done:       make(chan struct{}),
	}
	// ActorNotFound is a well-known kind per spec.md §7/§8 scenario 5; every
	// System reconstructs it without the caller having to register it.
	s.errorTypes[(&ActorNotFoundError{}).TypeHint()] = func() DomainError { return &ActorNotFoundError{} }
	return s
}

// recordCall records one completed call's outcome on the configured
// metrics registry, a no-op when metricsReg was nil at construction.
func (s *System) recordCall(direction metrics.Direction, target string, result metrics.Result, latency time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveCall(direction, target, result, latency)
}

// classifyResult maps a call's outcome to spec.md §4.J's result dimension.
func classifyResult(err error) metrics.Result {
	if err == nil {
		return metrics.ResultOK
	}
	if errors.Is(err, ErrTimeout) {
		return metrics.ResultTimeout
	}
	if errors.Is(err, ErrTransportUnavailable) || errors.Is(err, ErrDisconnected) {
		return metrics.ResultTransportError
	}
	var sendErr *SendFailedError
	if errors.As(err, &sendErr) {
		return metrics.ResultTransportError
	}
	return metrics.ResultDomainError
}

// SetTransport installs tr and starts the background loop that routes
// inbound envelopes: responses/errors resolve pending waiters,
// invocations are handed to executeDistributedTarget, and system
// messages are dropped.
func (s *System) SetTransport(tr transport.Transport) {
	s.mu.Lock()
	s.transport = tr
	s.mu.Unlock()
	go s.pump(tr)
}

// RegisterDomainError lets callers reconstruct a specific domain error
// type by its wire typeHint instead of falling back to
// RemoteCallGenericError. zero must return a fresh, decode-target value
// implementing DomainError.
func (s *System) RegisterDomainError(typeHint string, zero func() DomainError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errorTypes[typeHint] = zero
}

// Close shuts down the background receive loop and fails every
// outstanding waiter with ErrDisconnected.
func (s *System) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	s.pending.failAll(ErrDisconnected)
	s.mu.RLock()
	tr := s.transport
	s.mu.RUnlock()
	if tr != nil {
		return tr.Close()
	}
	return nil
}

func (s *System) currentTransport() transport.Transport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.transport
}

// resolve implements spec.md §4.F's resolve(id, as) operation for the
// in-process half: it returns the locally registered actor for id, or
// nil when the caller must fall back to building a remote proxy
// (actor.NewStub).
func (s *System) resolve(id actorid.ID) actor.Local {
	return s.registry.Find(id)
}

// RemoteCall implements actor.Caller, and is also the direct entry point
// for non-void calls per spec.md §4.F. build must drive enc through the
// mandated recording order; out receives the decoded return value.
func (s *System) RemoteCall(ctx context.Context, on actorid.ID, target string, build func(*invocation.Encoder) error, out any) error {
	return s.call(ctx, on, target, build, out, false)
}

// RemoteCallVoid implements actor.Caller for void targets.
func (s *System) RemoteCallVoid(ctx context.Context, on actorid.ID, target string, build func(*invocation.Encoder) error) error {
	return s.call(ctx, on, target, build, nil, true)
}

func (s *System) call(ctx context.Context, on actorid.ID, target string, build func(*invocation.Encoder) error, out any, isVoid bool) error {
	enc := invocation.NewEncoder(s.serials, s.wireID)
	if err := build(enc); err != nil {
		return fmt.Errorf("system: build invocation: %w", err)
	}
	if err := enc.DoneRecording(); err != nil {
		return fmt.Errorf("system: done recording: %w", err)
	}

	if local := s.resolve(on); local != nil {
		return s.localDispatch(ctx, local, target, enc, out, isVoid)
	}
	return s.remoteDispatch(ctx, on, target, enc, out, isVoid)
}

func (s *System) localDispatch(ctx context.Context, local actor.Local, target string, enc *invocation.Encoder, out any, isVoid bool) error {
	dispatchable, ok := local.(Dispatchable)
	if !ok {
		return fmt.Errorf("system: actor %s has no method table: %w", local.ActorID(), ErrUnknownTarget)
	}
	handler, ok := dispatchable.Dispatch(target)
	if !ok {
		return fmt.Errorf("system: target %q: %w", target, ErrUnknownTarget)
	}

	dec, err := enc.LocalHandoff(s)
	if err != nil {
		return fmt.Errorf("system: local handoff: %w", err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resultCh := make(chan invocation.Result, 1)
	rh := NewLocalResultHandler(s.serials, s.wireID, func(r invocation.Result) { resultCh <- r })
	go handler(ctx, dec, rh)

	select {
	case result := <-resultCh:
		return s.deliverLocal(result, out, isVoid)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *System) deliverLocal(result invocation.Result, out any, isVoid bool) error {
	switch result.Kind {
	case invocation.ResultVoid:
		return nil
	case invocation.ResultSuccess:
		if isVoid || out == nil {
			return nil
		}
		if err := s.serials.Decode(result.Payload, result.Manifest, out); err != nil {
			return &SerializationFailureError{Manifest: result.Manifest, Err: err}
		}
		return nil
	default: // invocation.ResultFailure
		return s.reconstructError(result.ErrorTypeHint, result.Payload, result.Manifest)
	}
}

func (s *System) remoteDispatch(ctx context.Context, on actorid.ID, target string, enc *invocation.Encoder, out any, isVoid bool) (err error) {
	start := time.Now()
	ctx, endSpan := startSpan(ctx, "system.remoteCall")
	defer func() {
		endSpan(err)
		s.recordCall(metrics.DirectionClient, target, classifyResult(err), time.Since(start))
	}()

	tr := s.currentTransport()
	if tr == nil {
		return ErrTransportUnavailable
	}

	data, err := enc.Finalize()
	if err != nil {
		return fmt.Errorf("system: finalize invocation: %w", err)
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("system: marshal invocation data: %w", err)
	}
	manifest := envelope.Manifest{SerializerID: s.wireID, TypeHint: invocationDataTypeHint}

	headers := tracingHeaders(ctx)
	req, err := envelope.NewInvocation(on, s.id, target, manifest, payload, headers, "")
	if err != nil {
		return fmt.Errorf("system: build invocation envelope: %w", err)
	}
	callID := req.Metadata().CallID

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	waiter := s.pending.register(callID)
	resp, err := tr.Send(ctx, req)
	if err != nil {
		s.pending.remove(callID)
		return &SendFailedError{Reason: "transport send", Err: err}
	}
	if resp != nil {
		s.pending.remove(callID)
		return s.handleResponse(*resp, out, isVoid)
	}

	select {
	case result := <-waiter:
		if result.err != nil {
			return result.err
		}
		return s.handleResponse(result.env, out, isVoid)
	case <-ctx.Done():
		s.pending.remove(callID)
		return ErrTimeout
	}
}

func (s *System) handleResponse(env envelope.Envelope, out any, isVoid bool) error {
	switch env.Kind() {
	case envelope.KindResponse:
		if isVoid || out == nil || len(env.Payload()) == 0 {
			return nil
		}
		if err := s.serials.Decode(env.Payload(), env.Manifest(), out); err != nil {
			return &SerializationFailureError{Manifest: env.Manifest(), Err: err}
		}
		return nil
	case envelope.KindError:
		return s.reconstructError(env.ErrorTypeHint(), env.Payload(), env.Manifest())
	default:
		return fmt.Errorf("system: unexpected response kind %s", env.Kind())
	}
}

func (s *System) reconstructError(typeHint string, payload []byte, manifest envelope.Manifest) error {
	s.mu.RLock()
	zero, known := s.errorTypes[typeHint]
	s.mu.RUnlock()
	if known && len(payload) > 0 {
		domainErr := zero()
		if err := s.serials.Decode(payload, manifest, domainErr); err == nil {
			return domainErr
		}
	}
	return &RemoteCallGenericError{TypeHint: typeHint, Message: string(payload)}
}

func (s *System) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// executeDistributedTarget is the server-side entry point invoked once
// per received invocation envelope, per spec.md §4.F.
func (s *System) executeDistributedTarget(ctx context.Context, env envelope.Envelope, write responseWriter) {
	start := time.Now()
	target := env.Metadata().Target
	result := metrics.ResultOK
	defer func() { s.recordCall(metrics.DirectionServer, target, result, time.Since(start)) }()

	// write is wrapped so every code path below — the handler's own
	// OnReturn/OnThrow as well as this function's own error envelopes —
	// records its outcome on the way out, without each call site having to
	// set result itself.
	innerWrite := write
	write = func(resp envelope.Envelope) error {
		if resp.Kind() == envelope.KindError {
			result = metrics.ResultDomainError
		}
		return innerWrite(resp)
	}

	ctx = inboundTracingHeaders(ctx, env.Metadata().Headers)
	ctx, endSpan := startSpan(ctx, "system.executeDistributedTarget")
	defer func() {
		var spanErr error
		if result != metrics.ResultOK {
			spanErr = fmt.Errorf("system: executeDistributedTarget result=%s", result)
		}
		endSpan(spanErr)
	}()

	local := s.resolve(env.Recipient())
	if local == nil {
		_ = write(s.domainErrorEnvelope(env, &ActorNotFoundError{ID: env.Recipient().String()}))
		return
	}
	dispatchable, ok := local.(Dispatchable)
	if !ok {
		_ = write(errorEnvelope(env, s.id, "UnknownTarget", fmt.Sprintf("actor %s has no method table", env.Recipient())))
		return
	}
	handler, ok := dispatchable.Dispatch(target)
	if !ok {
		_ = write(errorEnvelope(env, s.id, "UnknownTarget", fmt.Sprintf("unknown target %q", target)))
		return
	}

	var data invocation.Data
	if err := json.Unmarshal(env.Payload(), &data); err != nil {
		_ = write(errorEnvelope(env, s.id, "SerializationFailure", err.Error()))
		return
	}
	dec := invocation.NewDecoder(s.serials, s, data)
	rh := NewRemoteResultHandler(s.serials, s.wireID, env.Sender(), s.id, env.Metadata().CallID, write)
	handler(ctx, dec, rh)
}

func errorEnvelope(req envelope.Envelope, sender actorid.ID, typeHint, message string) envelope.Envelope {
	env, err := envelope.NewError(req.Sender(), sender, req.Metadata().CallID, envelope.Manifest{}, []byte(message), typeHint, nil)
	if err != nil {
		obslog.Op().Error("system: failed to build error envelope", "err", err)
	}
	return env
}

// domainErrorEnvelope builds an error envelope that faithfully carries de,
// the same way ResultHandler.OnThrow does for a handler-thrown DomainError,
// so a caller can reconstructError it back into the concrete type via
// RegisterDomainError instead of a bare RemoteCallGenericError.
func (s *System) domainErrorEnvelope(req envelope.Envelope, de DomainError) envelope.Envelope {
	payload, manifest, err := s.serials.Encode(s.wireID, de)
	if err != nil {
		return errorEnvelope(req, s.id, de.TypeHint(), de.Error())
	}
	env, err := envelope.NewError(req.Sender(), s.id, req.Metadata().CallID, manifest, payload, de.TypeHint(), nil)
	if err != nil {
		obslog.Op().Error("system: failed to build domain error envelope", "err", err)
	}
	return env
}

// pump drains tr.Receive(), correlating responses against the pending
// table and dispatching inbound invocations to executeDistributedTarget.
func (s *System) pump(tr transport.Transport) {
	for {
		select {
		case <-s.done:
			return
		case env, ok := <-tr.Receive():
			if !ok {
				s.pending.failAll(ErrDisconnected)
				return
			}
			s.route(env, tr)
		}
	}
}

func (s *System) route(env envelope.Envelope, tr transport.Transport) {
	switch env.Kind() {
	case envelope.KindResponse, envelope.KindError:
		s.pending.resolve(env.Metadata().CallID, env)
	case envelope.KindInvocation:
		write := func(resp envelope.Envelope) error {
			_, err := tr.Send(context.Background(), resp)
			return err
		}
		go s.executeDistributedTarget(context.Background(), env, write)
	default:
		obslog.Op().Debug("system: dropping system envelope", "callID", env.Metadata().CallID)
	}
}

// tracingHeaders copies W3C trace-context carried on ctx into envelope
// headers, if the tracing package has installed one. Kept as a narrow
// seam so system doesn't import tracing directly and risk a cycle with
// its OTel propagation helpers.
var tracingHeaders = func(ctx context.Context) map[string]string { return nil }

// SetTracingHeaderExtractor lets package tracing install its
// propagation.Inject-backed extractor without system importing tracing.
func SetTracingHeaderExtractor(fn func(context.Context) map[string]string) {
	tracingHeaders = fn
}

// inboundTracingHeaders restores trace context from received envelope
// headers, if the tracing package has installed an injector.
var inboundTracingHeaders = func(ctx context.Context, headers map[string]string) context.Context { return ctx }

// SetTracingHeaderInjector lets package tracing install its
// propagation.Extract-backed injector without system importing tracing.
func SetTracingHeaderInjector(fn func(context.Context, map[string]string) context.Context) {
	inboundTracingHeaders = fn
}

// startSpan opens a span named name around the returned context, and
// returns a function that ends it, recording err on it if non-nil. The
// default is a no-op so system never depends on tracing being installed.
// Kept as the same kind of seam as tracingHeaders/inboundTracingHeaders,
// for the same reason: tracing imports system to install its hooks, so
// system cannot import tracing back without a cycle.
var startSpan = func(ctx context.Context, name string) (context.Context, func(error)) {
	return ctx, func(error) {}
}

// SetSpanHook lets package tracing install a real tracer.Start/span.End
// pair around remoteCall and executeDistributedTarget.
func SetSpanHook(fn func(context.Context, string) (context.Context, func(error))) {
	startSpan = fn
}
