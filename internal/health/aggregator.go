package health

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wangwenjie1314/sentinel/internal/events"
)

// Aggregator runs all registered probes and merges their results into a
// single snapshot with bounded history.
type Aggregator struct {
	probes      []Probe
	historySize int
	bus         *events.Bus
	logger      *slog.Logger

	mu         sync.RWMutex
	history    []Snapshot
	lastStatus Status
}

// NewAggregator creates an aggregator over the given probes.
func NewAggregator(probes []Probe, historySize int, bus *events.Bus, logger *slog.Logger) *Aggregator {
	if historySize <= 0 {
		historySize = 100
	}
	return &Aggregator{
		probes:      probes,
		historySize: historySize,
		bus:         bus,
		logger:      logger,
		history:     make([]Snapshot, 0, historySize),
		lastStatus:  StatusUnknown,
	}
}

// Register adds a probe. Probes added after construction participate in
// subsequent checks.
func (a *Aggregator) Register(p Probe) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.probes = append(a.probes, p)
}

// Check runs every probe, merges the results into a snapshot, appends it
// to the bounded history, and emits a status-change event when the status
// differs from the previous snapshot.
func (a *Aggregator) Check(ctx context.Context) Snapshot {
	started := time.Now()

	a.mu.RLock()
	probes := make([]Probe, len(a.probes))
	copy(probes, a.probes)
	a.mu.RUnlock()

	// Probes are independent; run them concurrently but merge in
	// registration order so snapshots are deterministic.
	results := make([]Result, len(probes))
	g, gctx := errgroup.WithContext(ctx)
	for i, probe := range probes {
		g.Go(func() error {
			results[i] = a.runProbe(gctx, probe)
			return nil
		})
	}
	_ = g.Wait()

	snapshot := Snapshot{
		Timestamp: started,
		Score:     100,
		Results:   results,
	}

	for _, result := range results {
		snapshot.Score -= result.ScoreImpact
		snapshot.CriticalIssues = append(snapshot.CriticalIssues, result.CriticalIssues...)
		snapshot.Warnings = append(snapshot.Warnings, result.Warnings...)
	}
	if snapshot.Score < 0 {
		snapshot.Score = 0
	}

	// Any critical issue forces critical status regardless of score.
	if len(snapshot.CriticalIssues) > 0 {
		snapshot.Status = StatusCritical
	} else {
		snapshot.Status = StatusFromScore(snapshot.Score)
	}
	snapshot.CheckDurationMS = time.Since(started).Milliseconds()

	a.mu.Lock()
	previous := a.lastStatus
	a.lastStatus = snapshot.Status
	a.history = append(a.history, snapshot)
	if len(a.history) > a.historySize {
		a.history = a.history[len(a.history)-a.historySize:]
	}
	a.mu.Unlock()

	if snapshot.Status != previous && a.bus != nil {
		a.bus.Publish(events.NewHealthStatusChangedEvent(
			string(previous), string(snapshot.Status), snapshot.Score))
	}

	if a.logger != nil {
		a.logger.Debug("health check complete",
			"status", string(snapshot.Status),
			"score", snapshot.Score,
			"critical_issues", len(snapshot.CriticalIssues),
			"duration_ms", snapshot.CheckDurationMS,
		)
	}

	return snapshot
}

// runProbe executes one probe, converting a panic into an unhealthy
// result so a broken probe cannot take the supervisor down.
func (a *Aggregator) runProbe(ctx context.Context, probe Probe) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			if a.logger != nil {
				a.logger.Error("probe panicked", "probe", probe.Name(), "panic", r)
			}
			result = newResult(probe.Name())
			result.addWarning(IssueComponentFailure,
				fmt.Sprintf("probe %q panicked: %v", probe.Name(), r), 0)
		}
	}()
	return probe.Check(ctx)
}

// Latest returns the most recent snapshot.
func (a *Aggregator) Latest() (Snapshot, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if len(a.history) == 0 {
		return Snapshot{}, false
	}
	return a.history[len(a.history)-1], true
}

// History returns a copy of the snapshot history.
func (a *Aggregator) History() []Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Snapshot, len(a.history))
	copy(out, a.history)
	return out
}

// ClearHistory drops all recorded snapshots. Idempotent.
func (a *Aggregator) ClearHistory() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = a.history[:0]
	a.lastStatus = StatusUnknown
}

// Trend analyzes the short-term score trend over the history.
func (a *Aggregator) Trend() Trend {
	return AnalyzeTrend(a.History())
}

// LongTermTrend analyzes the long-term score trend over the history.
func (a *Aggregator) LongTermTrend() Trend {
	return AnalyzeLongTermTrend(a.History())
}
