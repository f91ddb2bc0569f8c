package metrics

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
)

func gaugeValue(t *testing.T, m *Metrics, chain string) float64 {
	t.Helper()
	metric := &dto.Metric{}
	if err := m.ChainComponents.WithLabelValues(chain).Write(metric); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return metric.GetGauge().GetValue()
}

func TestObserveStepSetsChainGauges(t *testing.T) {
	m := New()
	m.ObserveStep("0", 3, -12.5, 7, 1.0)

	if got := gaugeValue(t, m, "0"); got != 3 {
		t.Errorf("ChainComponents = %v, want 3", got)
	}
}

func TestCacheCounters(t *testing.T) {
	m := New()
	m.CacheHits.Inc()
	m.CacheMisses.Inc()
	m.CacheMisses.Inc()

	metricFamilies, err := m.Registry.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	found := 0
	for _, mf := range metricFamilies {
		if mf.GetName() == "dpmtfbs_cache_hits_total" || mf.GetName() == "dpmtfbs_cache_misses_total" {
			found++
		}
	}
	if found != 2 {
		t.Fatalf("expected both cache counters registered, found %d", found)
	}
}
