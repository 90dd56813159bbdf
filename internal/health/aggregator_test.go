package health

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/wangwenjie1314/sentinel/internal/events"
)

// stubProbe returns a canned result.
type stubProbe struct {
	name   string
	result Result
}

func (p *stubProbe) Name() string { return p.name }

func (p *stubProbe) Check(context.Context) Result { return p.result }

func healthyProbe(name string) *stubProbe {
	return &stubProbe{name: name, result: Result{
		ProbeName: name,
		Healthy:   true,
		Timestamp: time.Now(),
	}}
}

func impactProbe(name string, impact float64) *stubProbe {
	return &stubProbe{name: name, result: Result{
		ProbeName:   name,
		ScoreImpact: impact,
		Warnings: []Issue{{
			Type:        IssueResourceExhaustion,
			Description: name + " degraded",
			Severity:    SeverityWarning,
			Timestamp:   time.Now(),
		}},
		Timestamp: time.Now(),
	}}
}

func criticalProbe(name string, impact float64) *stubProbe {
	return &stubProbe{name: name, result: Result{
		ProbeName:   name,
		ScoreImpact: impact,
		CriticalIssues: []Issue{{
			Type:        IssueMemoryLeak,
			Description: name + " critical",
			Severity:    SeverityCritical,
			Timestamp:   time.Now(),
		}},
		Timestamp: time.Now(),
	}}
}

func TestCheckAllHealthy(t *testing.T) {
	agg := NewAggregator([]Probe{healthyProbe("a"), healthyProbe("b")}, 100, nil, nil)

	snap := agg.Check(context.Background())

	if snap.Score != 100 {
		t.Errorf("score = %v, want 100", snap.Score)
	}
	if snap.Status != StatusExcellent {
		t.Errorf("status = %v, want excellent", snap.Status)
	}
	if len(snap.Results) != 2 {
		t.Errorf("results = %d, want 2", len(snap.Results))
	}
}

func TestCheckSumsImpacts(t *testing.T) {
	agg := NewAggregator([]Probe{impactProbe("a", 10), impactProbe("b", 15)}, 100, nil, nil)

	snap := agg.Check(context.Background())

	if snap.Score != 75 {
		t.Errorf("score = %v, want 75", snap.Score)
	}
	if snap.Status != StatusFair {
		t.Errorf("status = %v, want fair", snap.Status)
	}
}

func TestCheckScoreFloorsAtZero(t *testing.T) {
	agg := NewAggregator([]Probe{impactProbe("a", 80), impactProbe("b", 50)}, 100, nil, nil)

	snap := agg.Check(context.Background())

	if snap.Score != 0 {
		t.Errorf("score = %v, want 0", snap.Score)
	}
}

func TestCriticalIssueOverridesScore(t *testing.T) {
	// Tiny impact keeps the score in the excellent band, but the critical
	// issue must force critical status.
	agg := NewAggregator([]Probe{criticalProbe("a", 2)}, 100, nil, nil)

	snap := agg.Check(context.Background())

	if snap.Score < 90 {
		t.Fatalf("test setup: score %v should stay in the excellent band", snap.Score)
	}
	if snap.Status != StatusCritical {
		t.Errorf("status = %v, want critical despite high score", snap.Status)
	}
}

func TestStatusBands(t *testing.T) {
	cases := []struct {
		impact float64
		want   Status
	}{
		{0, StatusExcellent},
		{5, StatusExcellent},
		{15, StatusGood},
		{25, StatusFair},
		{35, StatusPoor},
		{45, StatusCritical},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("impact_%v", tc.impact), func(t *testing.T) {
			agg := NewAggregator([]Probe{impactProbe("a", tc.impact)}, 100, nil, nil)
			snap := agg.Check(context.Background())
			if snap.Status != tc.want {
				t.Errorf("impact %v: status = %v, want %v", tc.impact, snap.Status, tc.want)
			}
		})
	}
}

func TestHistoryBoundedFIFO(t *testing.T) {
	agg := NewAggregator([]Probe{healthyProbe("a")}, 5, nil, nil)

	ctx := context.Background()
	for i := 0; i < 12; i++ {
		agg.Check(ctx)
	}

	history := agg.History()
	if len(history) != 5 {
		t.Fatalf("history length = %d, want 5", len(history))
	}
	// Oldest entries evicted first.
	for i := 1; i < len(history); i++ {
		if history[i].Timestamp.Before(history[i-1].Timestamp) {
			t.Error("history not in chronological order")
		}
	}
}

func TestStatusChangeEmitsEvent(t *testing.T) {
	bus := events.New(10)
	defer bus.Close()
	ch := bus.Subscribe(events.TypeHealthStatusChanged)

	probe := healthyProbe("a")
	agg := NewAggregator([]Probe{probe}, 100, bus, nil)

	ctx := context.Background()
	agg.Check(ctx) // unknown -> excellent

	select {
	case ev := <-ch:
		changed := ev.(events.HealthStatusChangedEvent)
		if changed.Current != string(StatusExcellent) {
			t.Errorf("current = %q, want excellent", changed.Current)
		}
	case <-time.After(time.Second):
		t.Fatal("expected status change event")
	}

	// Same status again: no event.
	agg.Check(ctx)
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event: %v", ev.EventType())
	case <-time.After(50 * time.Millisecond):
	}

	// Degrade: event again.
	probe.result = criticalProbe("a", 30).result
	agg.Check(ctx)
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected status change event on degradation")
	}
}

func TestPanickingProbeDoesNotCrash(t *testing.T) {
	panicker := &panicProbe{}
	agg := NewAggregator([]Probe{panicker, healthyProbe("b")}, 100, nil, nil)

	snap := agg.Check(context.Background())

	if len(snap.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(snap.Results))
	}
	if snap.Results[0].Healthy {
		t.Error("expected panicking probe marked unhealthy")
	}
}

type panicProbe struct{}

func (p *panicProbe) Name() string { return "panic" }
func (p *panicProbe) Check(context.Context) Result {
	panic("broken probe")
}

func TestClearHistoryIdempotent(t *testing.T) {
	agg := NewAggregator([]Probe{healthyProbe("a")}, 100, nil, nil)
	agg.Check(context.Background())

	agg.ClearHistory()
	if len(agg.History()) != 0 {
		t.Error("expected empty history after clear")
	}
	agg.ClearHistory() // no panic, still empty
	if len(agg.History()) != 0 {
		t.Error("expected empty history after second clear")
	}
}

func TestRegisterAddsProbeWithoutAggregatorChanges(t *testing.T) {
	agg := NewAggregator([]Probe{healthyProbe("a")}, 100, nil, nil)
	agg.Register(impactProbe("late", 10))

	snap := agg.Check(context.Background())
	if len(snap.Results) != 2 {
		t.Errorf("results = %d, want 2 after registration", len(snap.Results))
	}
	if snap.Score != 90 {
		t.Errorf("score = %v, want 90", snap.Score)
	}
}
