// Package diag composes on-demand diagnostic reports: a cheap quick
// diagnosis from already-collected data and a comprehensive diagnosis
// that re-runs the probes and analyzes fault and performance patterns.
package diag

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/wangwenjie1314/sentinel/internal/collab"
	"github.com/wangwenjie1314/sentinel/internal/config"
	"github.com/wangwenjie1314/sentinel/internal/faults"
	"github.com/wangwenjie1314/sentinel/internal/health"
	"github.com/wangwenjie1314/sentinel/internal/perf"
	"github.com/wangwenjie1314/sentinel/internal/stability"
)

// perfTrendWindow and perfTrendDeltaMB bound the memory trend analysis
// over the most recent samples.
const (
	perfTrendWindow  = 5
	perfTrendDeltaMB = 10
)

// frequentPatternThreshold marks a fault cause as a recurring pattern.
const frequentPatternThreshold = 2

// Reporter supplies the current stability summary.
type Reporter interface {
	Report() stability.Report
}

// QuickDiagnosis is the cheap point-in-time report. It reads current
// state only; no probes are re-run.
type QuickDiagnosis struct {
	Timestamp      time.Time      `json:"timestamp"`
	OverallStatus  health.Status  `json:"overall_status"`
	HealthScore    float64        `json:"health_score,omitempty"`
	StabilityScore float64        `json:"stability_score"`
	ResidentMB     float64        `json:"resident_mb"`
	CPUPercent     float64        `json:"cpu_percent"`
	CriticalIssues []health.Issue `json:"critical_issues,omitempty"`
	Warnings       []health.Issue `json:"warnings,omitempty"`
	Risk           RiskAssessment `json:"risk"`
}

// FaultPattern is a fault cause grouped across the recorded history.
type FaultPattern struct {
	Cause    faults.Cause `json:"cause"`
	Count    int          `json:"count"`
	Frequent bool         `json:"frequent"`
}

// ComponentTally counts managed components by reported health.
type ComponentTally struct {
	Healthy  int `json:"healthy"`
	Warning  int `json:"warning"`
	Critical int `json:"critical"`
	Unknown  int `json:"unknown"`
}

// Diagnosis is the comprehensive report.
type Diagnosis struct {
	Timestamp        time.Time               `json:"timestamp"`
	Snapshot         health.Snapshot         `json:"snapshot"`
	Stability        stability.Report        `json:"stability"`
	FaultPatterns    []FaultPattern          `json:"fault_patterns,omitempty"`
	PerformanceTrend health.Trend            `json:"performance_trend"`
	Components       ComponentTally          `json:"components"`
	ComponentStates  []collab.ComponentState `json:"component_states,omitempty"`
	ShortTermTrend   health.Trend            `json:"short_term_trend"`
	LongTermTrend    health.Trend            `json:"long_term_trend"`
	Risk             RiskAssessment          `json:"risk"`
	Recommendations  []Recommendation        `json:"recommendations,omitempty"`
}

// Tool builds diagnostic reports from the monitoring components.
type Tool struct {
	aggregator *health.Aggregator
	sampler    *perf.Sampler
	recorder   *faults.Recorder
	components collab.ComponentSource
	reporter   Reporter
	logger     *slog.Logger

	mu         sync.RWMutex
	thresholds config.ThresholdsConfig
}

// NewTool creates a diagnostic tool.
func NewTool(aggregator *health.Aggregator, sampler *perf.Sampler, recorder *faults.Recorder, components collab.ComponentSource, reporter Reporter, thresholds config.ThresholdsConfig, logger *slog.Logger) *Tool {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Tool{
		aggregator: aggregator,
		sampler:    sampler,
		recorder:   recorder,
		components: components,
		reporter:   reporter,
		thresholds: thresholds,
		logger:     logger,
	}
}

// SetThresholds replaces the classification thresholds on config reload.
func (t *Tool) SetThresholds(thresholds config.ThresholdsConfig) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.thresholds = thresholds
}

// Quick produces the cheap diagnosis from the latest snapshot, the
// latest performance sample, and the stability report.
func (t *Tool) Quick() QuickDiagnosis {
	t.mu.RLock()
	thresholds := t.thresholds
	t.mu.RUnlock()

	report := t.reporter.Report()
	snapshot, hasSnapshot := t.aggregator.Latest()

	diagnosis := QuickDiagnosis{
		Timestamp: time.Now(),
	}
	if hasSnapshot {
		// Without a completed check there is no health score; leaving the
		// field unset keeps an idle supervisor from reporting a zero.
		diagnosis.HealthScore = snapshot.Score
		diagnosis.CriticalIssues = append(diagnosis.CriticalIssues, snapshot.CriticalIssues...)
		diagnosis.Warnings = append(diagnosis.Warnings, snapshot.Warnings...)
	}

	sample, hasSample := t.sampler.Latest()
	if hasSample {
		diagnosis.ResidentMB = sample.ResidentMB
		diagnosis.CPUPercent = sample.CPUPercent
		t.classifySample(&diagnosis, sample, thresholds)
	}

	switch {
	case len(diagnosis.CriticalIssues) > 0:
		diagnosis.OverallStatus = health.StatusCritical
	case hasSnapshot:
		diagnosis.OverallStatus = snapshot.Status
	default:
		diagnosis.OverallStatus = health.StatusUnknown
	}

	// Stability score recomputed against the freshly classified status,
	// not the possibly stale one inside the periodic report.
	diagnosis.StabilityScore = stability.Score(
		report.CrashCount, report.ExceptionCount,
		report.ConsecutiveFailures, diagnosis.OverallStatus)

	diagnosis.Risk = AssessRisk(RiskInput{
		RecentCrashes:    t.recentCrashes(),
		ResidentMB:       diagnosis.ResidentMB,
		MemoryWarnMB:     thresholds.MemoryWarnMB,
		MemoryCriticalMB: thresholds.MemoryCriticalMB,
		StabilityScore:   diagnosis.StabilityScore,
		HealthStatus:     diagnosis.OverallStatus,
	})

	return diagnosis
}

// classifySample applies the memory and CPU bands to the latest sample,
// surfacing breaches the last probe run may predate.
func (t *Tool) classifySample(d *QuickDiagnosis, sample perf.Sample, thresholds config.ThresholdsConfig) {
	now := time.Now()
	switch {
	case thresholds.MemoryCriticalMB > 0 && sample.ResidentMB > thresholds.MemoryCriticalMB:
		d.CriticalIssues = append(d.CriticalIssues, health.Issue{
			Type:        health.IssueMemoryLeak,
			Description: fmt.Sprintf("resident memory %.1f MB exceeds critical threshold %.0f MB", sample.ResidentMB, thresholds.MemoryCriticalMB),
			Severity:    health.SeverityCritical,
			Timestamp:   now,
		})
	case thresholds.MemoryWarnMB > 0 && sample.ResidentMB > thresholds.MemoryWarnMB:
		d.Warnings = append(d.Warnings, health.Issue{
			Type:        health.IssueMemoryLeak,
			Description: fmt.Sprintf("resident memory %.1f MB exceeds warning threshold %.0f MB", sample.ResidentMB, thresholds.MemoryWarnMB),
			Severity:    health.SeverityWarning,
			Timestamp:   now,
		})
	}

	switch {
	case thresholds.CPUCritPercent > 0 && sample.CPUPercent > thresholds.CPUCritPercent:
		d.CriticalIssues = append(d.CriticalIssues, health.Issue{
			Type:        health.IssueResourceExhaustion,
			Description: fmt.Sprintf("cpu usage %.1f%% exceeds critical threshold %.0f%%", sample.CPUPercent, thresholds.CPUCritPercent),
			Severity:    health.SeverityCritical,
			Timestamp:   now,
		})
	case thresholds.CPUWarnPercent > 0 && sample.CPUPercent > thresholds.CPUWarnPercent:
		d.Warnings = append(d.Warnings, health.Issue{
			Type:        health.IssueResourceExhaustion,
			Description: fmt.Sprintf("cpu usage %.1f%% exceeds warning threshold %.0f%%", sample.CPUPercent, thresholds.CPUWarnPercent),
			Severity:    health.SeverityWarning,
			Timestamp:   now,
		})
	}
}

// Comprehensive re-runs the probes and assembles the full report.
func (t *Tool) Comprehensive(ctx context.Context) Diagnosis {
	t.mu.RLock()
	thresholds := t.thresholds
	t.mu.RUnlock()

	started := time.Now()
	snapshot := t.aggregator.Check(ctx)
	report := t.reporter.Report()

	diagnosis := Diagnosis{
		Timestamp:        started,
		Snapshot:         snapshot,
		Stability:        report,
		FaultPatterns:    t.faultPatterns(),
		PerformanceTrend: t.performanceTrend(),
		ShortTermTrend:   t.aggregator.Trend(),
		LongTermTrend:    t.aggregator.LongTermTrend(),
	}

	if t.components != nil {
		states := t.components.Components()
		diagnosis.ComponentStates = states
		diagnosis.Components = tally(states)
	}

	var residentMB float64
	if sample, ok := t.sampler.Latest(); ok {
		residentMB = sample.ResidentMB
	}
	diagnosis.Risk = AssessRisk(RiskInput{
		RecentCrashes:    t.recentCrashes(),
		ResidentMB:       residentMB,
		MemoryWarnMB:     thresholds.MemoryWarnMB,
		MemoryCriticalMB: thresholds.MemoryCriticalMB,
		StabilityScore:   report.StabilityScore,
		HealthStatus:     snapshot.Status,
	})
	diagnosis.Recommendations = Recommend(diagnosis.Risk)

	t.logger.Info("comprehensive diagnosis complete",
		"status", string(snapshot.Status),
		"risk", string(diagnosis.Risk.Level),
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return diagnosis
}

// faultPatterns groups the fault history by classified cause, most
// frequent first.
func (t *Tool) faultPatterns() []FaultPattern {
	counts := make(map[faults.Cause]int)
	for _, record := range t.recorder.Records() {
		for _, cause := range record.Causes {
			counts[cause]++
		}
	}

	patterns := make([]FaultPattern, 0, len(counts))
	for cause, count := range counts {
		patterns = append(patterns, FaultPattern{
			Cause:    cause,
			Count:    count,
			Frequent: count >= frequentPatternThreshold,
		})
	}
	sort.Slice(patterns, func(i, j int) bool {
		if patterns[i].Count != patterns[j].Count {
			return patterns[i].Count > patterns[j].Count
		}
		return patterns[i].Cause < patterns[j].Cause
	})
	return patterns
}

// performanceTrend compares mean resident memory of the first half of
// the most recent samples against the second half. Rising memory is a
// declining trend.
func (t *Tool) performanceTrend() health.Trend {
	history := t.sampler.History()
	if len(history) > perfTrendWindow {
		history = history[len(history)-perfTrendWindow:]
	}
	if len(history) < 2 {
		return health.TrendStable
	}

	mid := len(history) / 2
	first := meanResident(history[:mid])
	second := meanResident(history[mid:])

	switch {
	case second-first > perfTrendDeltaMB:
		return health.TrendDeclining
	case first-second > perfTrendDeltaMB:
		return health.TrendImproving
	default:
		return health.TrendStable
	}
}

func (t *Tool) recentCrashes() int {
	if t.recorder == nil {
		return 0
	}
	return t.recorder.CountSince(faults.KindCrash, time.Now().Add(-24*time.Hour))
}

func meanResident(samples []perf.Sample) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s.ResidentMB
	}
	return sum / float64(len(samples))
}

func tally(states []collab.ComponentState) ComponentTally {
	var t ComponentTally
	for _, state := range states {
		switch state.Health {
		case collab.ComponentHealthy:
			t.Healthy++
		case collab.ComponentWarning:
			t.Warning++
		case collab.ComponentCritical:
			t.Critical++
		default:
			t.Unknown++
		}
	}
	return t
}
