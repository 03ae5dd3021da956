// Package metrics implements spec.md §4.J's canonical metrics surface:
// calls_total, calls_failed_total, call_latency_seconds,
// actor_registrations_total, actor_resolutions_total, dimensioned by
// direction/target/result. Collector construction and the MustRegister
// style are grounded on the teacher's internal/metrics/prometheus.go;
// unlike the teacher's package-level singleton, Registry is an instance
// so more than one System in a process can keep independent metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

// Direction is the client/server dimension on every call metric.
type Direction string

const (
	DirectionClient Direction = "client"
	DirectionServer Direction = "server"
)

// Result classifies how a call finished, for the result dimension.
type Result string

const (
	ResultOK             Result = "ok"
	ResultDomainError    Result = "domain_error"
	ResultTransportError Result = "transport_error"
	ResultTimeout        Result = "timeout"
)

var defaultLatencyBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// Registry wraps the Prometheus collectors backing ActorEdge's canonical
// metric names.
type Registry struct {
	reg *prometheus.Registry

	callsTotal              *prometheus.CounterVec
	callsFailedTotal        *prometheus.CounterVec
	callLatencySeconds      *prometheus.HistogramVec
	actorRegistrationsTotal *prometheus.CounterVec
	actorResolutionsTotal   *prometheus.CounterVec
}

// NewRegistry constructs a Registry under namespace, registering the Go
// and process collectors alongside the canonical call/actor metrics.
func NewRegistry(namespace string) *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector())
	reg.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Registry{
		reg: reg,
		callsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calls_total",
			Help:      "Total number of remote calls attempted.",
		}, []string{"direction", "target"}),
		callsFailedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calls_failed_total",
			Help:      "Total number of remote calls that did not complete with result=ok.",
		}, []string{"direction", "target", "result"}),
		callLatencySeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "call_latency_seconds",
			Help:      "Remote call latency in seconds.",
			Buckets:   defaultLatencyBuckets,
		}, []string{"direction", "target", "result"}),
		actorRegistrationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actor_registrations_total",
			Help:      "Total number of actors that reached actorReady.",
		}, []string{}),
		actorResolutionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actor_resolutions_total",
			Help:      "Total number of registry find() lookups, successful or not.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.callsTotal,
		m.callsFailedTotal,
		m.callLatencySeconds,
		m.actorRegistrationsTotal,
		m.actorResolutionsTotal,
	)
	return m
}

// ObserveCall records one completed call's outcome and latency.
func (m *Registry) ObserveCall(direction Direction, target string, result Result, latency time.Duration) {
	m.callsTotal.WithLabelValues(string(direction), target).Inc()
	if result != ResultOK {
		m.callsFailedTotal.WithLabelValues(string(direction), target, string(result)).Inc()
	}
	m.callLatencySeconds.WithLabelValues(string(direction), target, string(result)).Observe(latency.Seconds())
}

// IncActorRegistration records one actorReady completion.
func (m *Registry) IncActorRegistration() {
	m.actorRegistrationsTotal.WithLabelValues().Inc()
}

// IncActorResolution records one registry find() call, successful or not.
func (m *Registry) IncActorResolution(found bool) {
	result := "found"
	if !found {
		result = "not_found"
	}
	m.actorResolutionsTotal.WithLabelValues(result).Inc()
}

// Handler returns an http.Handler that serves this registry's metrics in
// the Prometheus exposition format.
func (m *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Gather returns the registry's current metric families, mainly for
// tests that assert on recorded counter/histogram values without
// scraping the HTTP exposition format.
func (m *Registry) Gather() ([]*dto.MetricFamily, error) {
	return m.reg.Gather()
}
