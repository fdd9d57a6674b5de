package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestDisabledMetricsIgnoreWrites(t *testing.T) {
	m := New(Config{Enabled: false, EnableLatency: true})
	m.Inc(MetricLoginSuccess)
	m.Observe(MetricValidateLatency, time.Millisecond)

	if m.Value(MetricLoginSuccess) != 0 {
		t.Fatalf("disabled counter incremented")
	}
	if m.LatencyEnabled() {
		t.Fatalf("latency must require Enabled")
	}
	if s := m.Snapshot(); len(s.Counters) != 0 || len(s.Histograms) != 0 {
		t.Fatalf("disabled snapshot should be empty: %+v", s)
	}
}

func TestConcurrentIncrements(t *testing.T) {
	m := New(Config{Enabled: true})

	const goroutines, perG = 16, 1000
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				m.Inc(MetricReissueSuccess)
			}
		}()
	}
	wg.Wait()

	if got := m.Value(MetricReissueSuccess); got != goroutines*perG {
		t.Fatalf("expected %d, got %d", goroutines*perG, got)
	}
}

func TestHistogramBuckets(t *testing.T) {
	m := New(Config{Enabled: true, EnableLatency: true})
	m.Observe(MetricValidateLatency, 2*time.Millisecond)
	m.Observe(MetricValidateLatency, 40*time.Millisecond)
	m.Observe(MetricValidateLatency, 2*time.Second)
	m.Observe(MetricLoginSuccess, time.Millisecond)

	h := m.Snapshot().Histograms[MetricValidateLatency]
	if len(h) != HistogramBucketCount {
		t.Fatalf("expected %d buckets, got %d", HistogramBucketCount, len(h))
	}
	if h[0] != 1 || h[3] != 1 || h[7] != 1 {
		t.Fatalf("unexpected buckets %v", h)
	}
}

func TestOutOfRangeIDIgnored(t *testing.T) {
	m := New(Config{Enabled: true})
	m.Inc(MetricIDCount + 3)
	if m.Value(MetricIDCount+3) != 0 {
		t.Fatalf("out of range id should read zero")
	}
}
