package perf

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/wangwenjie1314/sentinel/internal/collab"
	"github.com/wangwenjie1314/sentinel/internal/events"
)

// fakeSource returns queued samples, repeating the last one when drained.
type fakeSource struct {
	mu      sync.Mutex
	samples []Sample
}

func (f *fakeSource) push(residentMB, cpu float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.samples = append(f.samples, Sample{
		Timestamp:  time.Now(),
		ResidentMB: residentMB,
		VirtualMB:  residentMB * 4,
		CPUPercent: cpu,
	})
}

func (f *fakeSource) Sample() (Sample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.samples) == 0 {
		return Sample{Timestamp: time.Now(), ResidentMB: 50, CPUPercent: 5}, nil
	}
	s := f.samples[0]
	if len(f.samples) > 1 {
		f.samples = f.samples[1:]
	}
	return s, nil
}

func testThresholds() Thresholds {
	return Thresholds{
		MemoryWarnMB:     150,
		MemoryCriticalMB: 200,
		CPUWarnPercent:   80,
		CPUCritPercent:   90,
	}
}

func TestSampleOnceStatusBands(t *testing.T) {
	cases := []struct {
		name     string
		resident float64
		cpu      float64
		want     Status
	}{
		{"normal", 100, 10, StatusNormal},
		{"memory warning", 160, 10, StatusWarning},
		{"cpu warning", 100, 85, StatusWarning},
		{"memory critical", 250, 10, StatusCritical},
		{"cpu critical", 100, 95, StatusCritical},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			src := &fakeSource{}
			src.push(tc.resident, tc.cpu)
			s := NewSampler(src, time.Second, 100, testThresholds(), nil, nil)

			got := s.SampleOnce(context.Background())
			if got != tc.want {
				t.Errorf("status = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestEnteringCriticalTriggersOptimization(t *testing.T) {
	src := &fakeSource{}
	src.push(100, 10)
	src.push(250, 10)

	bus := events.New(10)
	defer bus.Close()
	throttle := bus.Subscribe(events.TypeThrottleRequested)

	cache := collab.NewMemoryCache()
	cache.Put("scan-results", []byte("cached"))

	s := NewSampler(src, time.Second, 100, testThresholds(), bus, nil)
	s.RegisterPurger(cache)

	ctx := context.Background()
	s.SampleOnce(ctx) // normal
	s.SampleOnce(ctx) // critical: purge + throttle

	if cache.Len() != 0 {
		t.Error("expected cache purged on critical transition")
	}
	if cache.Purges() != 1 {
		t.Errorf("expected exactly one purge, got %d", cache.Purges())
	}

	select {
	case <-throttle:
	case <-time.After(time.Second):
		t.Fatal("expected throttle event")
	}
}

func TestCriticalDoesNotReoptimizeWhileCritical(t *testing.T) {
	src := &fakeSource{}
	src.push(250, 10)
	src.push(260, 10)
	src.push(270, 10)

	cache := collab.NewMemoryCache()
	s := NewSampler(src, time.Second, 100, testThresholds(), nil, nil)
	s.RegisterPurger(cache)

	ctx := context.Background()
	s.SampleOnce(ctx)
	s.SampleOnce(ctx)
	s.SampleOnce(ctx)

	if cache.Purges() != 1 {
		t.Errorf("expected one purge on entering critical, got %d", cache.Purges())
	}
}

func TestMemoryPressureTakesSamePath(t *testing.T) {
	bus := events.New(10)
	defer bus.Close()
	throttle := bus.Subscribe(events.TypeThrottleRequested)

	cache := collab.NewMemoryCache()
	cache.Put("k", []byte("v"))

	s := NewSampler(&fakeSource{}, time.Second, 100, testThresholds(), bus, nil)
	s.RegisterPurger(cache)

	s.NotifyMemoryPressure(context.Background(), PressureCritical)

	if cache.Len() != 0 {
		t.Error("expected cache purged on critical pressure")
	}
	select {
	case <-throttle:
	case <-time.After(time.Second):
		t.Fatal("expected throttle event")
	}
}

func TestHistoryBounded(t *testing.T) {
	src := &fakeSource{}
	s := NewSampler(src, time.Second, 5, testThresholds(), nil, nil)

	ctx := context.Background()
	for i := 0; i < 12; i++ {
		s.SampleOnce(ctx)
	}

	if got := len(s.History()); got != 5 {
		t.Errorf("history length = %d, want 5", got)
	}
}

func TestOptimizeTruncatesHistory(t *testing.T) {
	src := &fakeSource{}
	s := NewSampler(src, time.Second, 100, testThresholds(), nil, nil)

	ctx := context.Background()
	for i := 0; i < 30; i++ {
		s.SampleOnce(ctx)
	}
	s.Optimize(ctx, "test")

	if got := len(s.History()); got != retainOnOptimize {
		t.Errorf("history length after optimize = %d, want %d", got, retainOnOptimize)
	}
}

func TestAveragesAndPeak(t *testing.T) {
	src := &fakeSource{}
	src.push(100, 10)
	src.push(120, 20)
	src.push(140, 30)

	s := NewSampler(src, time.Second, 100, testThresholds(), nil, nil)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		s.SampleOnce(ctx)
	}

	mem, cpu := s.Averages()
	if mem < 119 || mem > 121 {
		t.Errorf("mean memory = %.1f, want 120", mem)
	}
	if cpu < 19 || cpu > 21 {
		t.Errorf("mean cpu = %.1f, want 20", cpu)
	}

	peak, ok := s.Peak()
	if !ok || peak.ResidentMB != 140 {
		t.Errorf("peak = %+v, want resident 140", peak)
	}
}

func TestStartStop(t *testing.T) {
	src := &fakeSource{}
	s := NewSampler(src, 20*time.Millisecond, 100, testThresholds(), nil, nil)

	s.Start(t.Context())
	time.Sleep(100 * time.Millisecond)
	s.Stop()

	if len(s.History()) == 0 {
		t.Error("expected samples collected while running")
	}
	s.Stop() // idempotent
}
