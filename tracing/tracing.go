// Package tracing wires ActorEdge into OpenTelemetry: a TracerProvider
// per process plus W3C trace-context propagation through envelope
// headers, so a distributed call chain stays correlated across
// transports. Grounded on the teacher's internal/observability/
// telemetry.go and propagation.go — the exporter setup, sampler
// selection, and MapCarrier-based header propagation are carried over
// unchanged; only the carrier's destination (envelope.Metadata.Headers
// instead of a vsock-specific TraceContext struct) is new.
package tracing

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/oriys/actoredge/system"
)

// Config selects the exporter and sampling policy for a Provider.
type Config struct {
	Enabled     bool
	Exporter    string  // otlp-http, noop
	Endpoint    string  // e.g. localhost:4318
	ServiceName string  // e.g. actoredge
	SampleRate  float64 // 0.0 to 1.0
}

// Provider wraps the process's TracerProvider, or a no-op one when
// tracing is disabled.
type Provider struct {
	tp      *sdktrace.TracerProvider
	tracer  trace.Tracer
	enabled bool
}

// NewProvider builds and installs a Provider as the process-global
// OpenTelemetry tracer and text-map propagator, and wires
// system.SetTracingHeaderExtractor so every remote call carries the
// ambient trace context in its envelope headers.
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	if !cfg.Enabled {
		p := &Provider{enabled: false, tracer: trace.NewNoopTracerProvider().Tracer("")}
		installPropagator()
		system.SetTracingHeaderExtractor(extractHeaders)
		system.SetTracingHeaderInjector(InjectHeaders)
		system.SetSpanHook(p.startSpan)
		return p, nil
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion("1.0.0"),
	))
	if err != nil {
		return nil, fmt.Errorf("tracing: build resource: %w", err)
	}

	var exporter sdktrace.SpanExporter
	switch cfg.Exporter {
	case "otlp-http", "otlp", "":
		exp, err := otlptracehttp.New(ctx,
			otlptracehttp.WithEndpoint(cfg.Endpoint),
			otlptracehttp.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("tracing: build OTLP exporter: %w", err)
		}
		exporter = exp
	case "noop":
		exporter = noopExporter{}
	default:
		return nil, fmt.Errorf("tracing: unknown exporter %q", cfg.Exporter)
	}

	sampler := sdktrace.AlwaysSample()
	if cfg.SampleRate < 1.0 && cfg.SampleRate >= 0 {
		sampler = sdktrace.TraceIDRatioBased(cfg.SampleRate)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)
	otel.SetTracerProvider(tp)
	installPropagator()

	p := &Provider{tp: tp, tracer: tp.Tracer(cfg.ServiceName), enabled: true}
	system.SetTracingHeaderExtractor(extractHeaders)
	system.SetTracingHeaderInjector(InjectHeaders)
	system.SetSpanHook(p.startSpan)
	return p, nil
}

// startSpan implements system's span hook: it opens a child span named
// name on ctx's active trace and returns a closer that records err (if
// any) before ending the span, wiring real span emission around
// system.call's remoteCall path and executeDistributedTarget per
// spec.md §6's tracing requirement.
func (p *Provider) startSpan(ctx context.Context, name string) (context.Context, func(error)) {
	ctx, span := p.tracer.Start(ctx, name)
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

func installPropagator() {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
}

// Tracer returns this provider's Tracer.
func (p *Provider) Tracer() trace.Tracer { return p.tracer }

// Enabled reports whether spans are actually exported.
func (p *Provider) Enabled() bool { return p.enabled }

// Shutdown flushes and stops the underlying TracerProvider. A no-op
// Provider returns nil immediately.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tp == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return p.tp.Shutdown(ctx)
}

// extractHeaders copies the ambient trace context on ctx into a plain
// header map suitable for envelope.Metadata.Headers, per spec.md §6's
// "headers carry invocation metadata (trace ids, baggage)" requirement.
func extractHeaders(ctx context.Context) map[string]string {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	if len(carrier) == 0 {
		return nil
	}
	headers := make(map[string]string, len(carrier))
	for k, v := range carrier {
		headers[k] = v
	}
	return headers
}

// InjectHeaders restores a remote caller's trace context from received
// envelope headers into ctx, so a server-side span can be parented
// correctly.
func InjectHeaders(ctx context.Context, headers map[string]string) context.Context {
	if len(headers) == 0 {
		return ctx
	}
	carrier := propagation.MapCarrier{}
	for k, v := range headers {
		carrier[k] = v
	}
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}

// TraceID returns the trace ID carried on ctx's active span, or "" if
// none.
func TraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().HasTraceID() {
		return ""
	}
	return span.SpanContext().TraceID().String()
}

// SpanID returns the span ID carried on ctx's active span, or "" if
// none.
func SpanID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().HasSpanID() {
		return ""
	}
	return span.SpanContext().SpanID().String()
}

type noopExporter struct{}

func (noopExporter) ExportSpans(context.Context, []sdktrace.ReadOnlySpan) error { return nil }
func (noopExporter) Shutdown(context.Context) error                            { return nil }
