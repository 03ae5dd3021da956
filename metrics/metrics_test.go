package metrics

import (
	"strings"
	"testing"
	"time"
)

func gaugeValue(t *testing.T, m *Registry, name string) float64 {
	t.Helper()
	families, err := m.reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, f := range families {
		if !strings.HasSuffix(f.GetName(), name) {
			continue
		}
		var total float64
		for _, metric := range f.Metric {
			switch {
			case metric.Counter != nil:
				total += metric.Counter.GetValue()
			case metric.Histogram != nil:
				total += float64(metric.Histogram.GetSampleCount())
			}
		}
		return total
	}
	return 0
}

func TestObserveCallIncrementsCallsTotal(t *testing.T) {
	m := NewRegistry("actoredge_test_1")
	m.ObserveCall(DirectionClient, "echo", ResultOK, 5*time.Millisecond)
	if got := gaugeValue(t, m, "calls_total"); got != 1 {
		t.Fatalf("calls_total = %v, want 1", got)
	}
	if got := gaugeValue(t, m, "calls_failed_total"); got != 0 {
		t.Fatalf("calls_failed_total = %v, want 0 for a successful call", got)
	}
}

func TestObserveCallFailureIncrementsFailedTotal(t *testing.T) {
	m := NewRegistry("actoredge_test_2")
	m.ObserveCall(DirectionServer, "echo", ResultTimeout, 50*time.Millisecond)
	if got := gaugeValue(t, m, "calls_failed_total"); got != 1 {
		t.Fatalf("calls_failed_total = %v, want 1", got)
	}
}

func TestIncActorRegistrationAndResolution(t *testing.T) {
	m := NewRegistry("actoredge_test_3")
	m.IncActorRegistration()
	m.IncActorResolution(true)
	m.IncActorResolution(false)
	if got := gaugeValue(t, m, "actor_registrations_total"); got != 1 {
		t.Fatalf("actor_registrations_total = %v, want 1", got)
	}
	if got := gaugeValue(t, m, "actor_resolutions_total"); got != 2 {
		t.Fatalf("actor_resolutions_total = %v, want 2", got)
	}
}
