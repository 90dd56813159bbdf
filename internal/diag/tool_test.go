package diag

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wangwenjie1314/sentinel/internal/collab"
	"github.com/wangwenjie1314/sentinel/internal/config"
	"github.com/wangwenjie1314/sentinel/internal/faults"
	"github.com/wangwenjie1314/sentinel/internal/health"
	"github.com/wangwenjie1314/sentinel/internal/perf"
	"github.com/wangwenjie1314/sentinel/internal/stability"
)

// queueSource returns queued samples, repeating the last one.
type queueSource struct {
	queue []perf.Sample
}

func (s *queueSource) Sample() (perf.Sample, error) {
	sample := s.queue[0]
	if len(s.queue) > 1 {
		s.queue = s.queue[1:]
	}
	return sample, nil
}

// stubProbe returns a fixed healthy result.
type stubProbe struct{}

func (stubProbe) Name() string { return "stub" }

func (stubProbe) Check(context.Context) health.Result {
	return health.Result{ProbeName: "stub", Healthy: true, Timestamp: time.Now()}
}

// stubReporter returns a canned stability report.
type stubReporter struct {
	report stability.Report
}

func (r *stubReporter) Report() stability.Report { return r.report }

func testThresholds() config.ThresholdsConfig {
	return config.ThresholdsConfig{
		MemoryWarnMB:     150,
		MemoryCriticalMB: 200,
		CPUWarnPercent:   80,
		CPUCritPercent:   90,
	}
}

func newTool(t *testing.T, samples ...perf.Sample) (*Tool, *faults.Recorder, *perf.Sampler) {
	t.Helper()

	aggregator := health.NewAggregator([]health.Probe{stubProbe{}}, 100, nil, nil)
	recorder := faults.NewRecorder(t.TempDir(), 50, "test", nil)

	sampler := perf.NewSampler(&queueSource{queue: samples}, time.Second, 100, perf.Thresholds{
		MemoryWarnMB:     150,
		MemoryCriticalMB: 200,
		CPUWarnPercent:   80,
		CPUCritPercent:   90,
	}, nil, nil)
	for range samples {
		sampler.SampleOnce(context.Background())
	}

	components := collab.NewStaticComponents(
		collab.ComponentState{Name: "sync", Health: collab.ComponentHealthy},
		collab.ComponentState{Name: "cache", Health: collab.ComponentHealthy},
		collab.ComponentState{Name: "network", Health: collab.ComponentWarning},
	)
	reporter := &stubReporter{report: stability.Report{StabilityScore: 100}}

	tool := NewTool(aggregator, sampler, recorder, components, reporter, testThresholds(), nil)
	return tool, recorder, sampler
}

func TestQuickDiagnosisCriticalMemory(t *testing.T) {
	tool, _, _ := newTool(t, perf.Sample{Timestamp: time.Now(), ResidentMB: 250, CPUPercent: 10})

	quick := tool.Quick()

	assert.Equal(t, health.StatusCritical, quick.OverallStatus)
	require.NotEmpty(t, quick.CriticalIssues)
	assert.Equal(t, health.IssueMemoryLeak, quick.CriticalIssues[0].Type)
	assert.Equal(t, RiskHigh, quick.Risk.Level)
	assert.InDelta(t, 250, quick.ResidentMB, 0.01)
}

func TestQuickDiagnosisHealthy(t *testing.T) {
	tool, _, _ := newTool(t, perf.Sample{Timestamp: time.Now(), ResidentMB: 80, CPUPercent: 5})

	quick := tool.Quick()

	assert.Empty(t, quick.CriticalIssues)
	assert.Empty(t, quick.Warnings)
	assert.Equal(t, RiskMinimal, quick.Risk.Level)
}

func TestQuickDiagnosisIdle(t *testing.T) {
	// No health check and no sample yet: status is unknown and no zero
	// health score leaks into the report.
	tool, _, _ := newTool(t)

	quick := tool.Quick()

	assert.Equal(t, health.StatusUnknown, quick.OverallStatus)
	assert.Zero(t, quick.HealthScore)
	assert.Equal(t, RiskMinimal, quick.Risk.Level)

	data, err := json.Marshal(quick)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "health_score")
}

func TestCrashHistoryRiskFactor(t *testing.T) {
	// Two crashes and one exception in the window: the crash factor
	// counts only crashes, at medium severity for a frequency of two.
	risk := AssessRisk(RiskInput{
		RecentCrashes:  2,
		StabilityScore: 100,
		HealthStatus:   health.StatusGood,
	})

	require.Len(t, risk.Factors, 1)
	factor := risk.Factors[0]
	assert.Equal(t, "crash_history", factor.Name)
	assert.Equal(t, "medium", factor.Severity)
	assert.InDelta(t, 30, factor.Score, 0.01)
	assert.Equal(t, RiskMedium, risk.Level)
}

func TestRiskBands(t *testing.T) {
	cases := []struct {
		score float64
		want  RiskLevel
	}{
		{0, RiskMinimal},
		{10, RiskMinimal},
		{11, RiskLow},
		{25, RiskLow},
		{26, RiskMedium},
		{50, RiskMedium},
		{51, RiskHigh},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, levelFor(tc.score), "score %v", tc.score)
	}
}

func TestComprehensiveDiagnosis(t *testing.T) {
	// Rising memory across the last five samples: declining trend.
	tool, recorder, _ := newTool(t,
		perf.Sample{ResidentMB: 100},
		perf.Sample{ResidentMB: 100},
		perf.Sample{ResidentMB: 120},
		perf.Sample{ResidentMB: 130},
		perf.Sample{ResidentMB: 140},
	)
	recorder.RecordCrash("SIGSEGV", "")
	recorder.RecordCrash("SIGSEGV", "")
	recorder.RecordException("nil deref", "")

	diagnosis := tool.Comprehensive(context.Background())

	assert.True(t, diagnosis.Snapshot.IsHealthy())
	assert.Equal(t, health.TrendDeclining, diagnosis.PerformanceTrend)

	require.NotEmpty(t, diagnosis.FaultPatterns)
	top := diagnosis.FaultPatterns[0]
	assert.Equal(t, faults.CauseMemoryCorruption, top.Cause)
	assert.Equal(t, 2, top.Count)
	assert.True(t, top.Frequent)

	assert.Equal(t, 2, diagnosis.Components.Healthy)
	assert.Equal(t, 1, diagnosis.Components.Warning)
	assert.NotEmpty(t, diagnosis.Recommendations)
}

func TestRecommendationsSortedByPriority(t *testing.T) {
	risk := AssessRisk(RiskInput{
		RecentCrashes:    3,
		ResidentMB:       250,
		MemoryWarnMB:     150,
		MemoryCriticalMB: 200,
		StabilityScore:   40,
		HealthStatus:     health.StatusCritical,
	})
	assert.Equal(t, RiskHigh, risk.Level)

	recs := Recommend(risk)
	require.NotEmpty(t, recs)
	for i := 1; i < len(recs); i++ {
		assert.GreaterOrEqual(t, recs[i-1].Priority, recs[i].Priority)
	}
	assert.Equal(t, 100, recs[0].Priority)
}

func TestExportJSONRoundTrip(t *testing.T) {
	tool, recorder, _ := newTool(t, perf.Sample{ResidentMB: 80})
	recorder.RecordCrash("SIGSEGV", "")

	data, err := tool.ExportData(context.Background(), FormatJSON)
	require.NoError(t, err)

	var export Export
	require.NoError(t, json.Unmarshal(data, &export))
	assert.False(t, export.GeneratedAt.IsZero())
	assert.Len(t, export.FaultRecords, 1)
	assert.NotEmpty(t, export.PerfTrail)
}

func TestExportYAML(t *testing.T) {
	tool, _, _ := newTool(t, perf.Sample{ResidentMB: 80})

	data, err := tool.ExportData(context.Background(), FormatYAML)
	require.NoError(t, err)
	assert.Contains(t, string(data), "generated_at")
}

func TestExportUnknownFormat(t *testing.T) {
	tool, _, _ := newTool(t, perf.Sample{ResidentMB: 80})

	_, err := tool.ExportData(context.Background(), Format("xml"))
	assert.Error(t, err)
}
