package health

import (
	"context"
	"fmt"

	"github.com/wangwenjie1314/sentinel/internal/perf"
)

// Score impacts for CPU findings.
const (
	cpuCriticalImpact = 20
	cpuWarnImpact     = 8
)

// CPUThresholds configure the CPU probe.
type CPUThresholds struct {
	WarnPercent float64
	CritPercent float64
}

// CPUProbe checks process CPU usage.
type CPUProbe struct {
	source     perf.Source
	thresholds CPUThresholds
}

// NewCPUProbe creates a CPU probe reading from source.
func NewCPUProbe(source perf.Source, thresholds CPUThresholds) *CPUProbe {
	return &CPUProbe{source: source, thresholds: thresholds}
}

// Name implements Probe.
func (p *CPUProbe) Name() string { return "cpu" }

// Check implements Probe.
func (p *CPUProbe) Check(_ context.Context) Result {
	result := newResult(p.Name())

	sample, err := p.source.Sample()
	if err != nil {
		result.addWarning(IssueResourceExhaustion,
			fmt.Sprintf("cpu usage unavailable: %v", err), 0)
		return result
	}

	result.Metrics["cpu_percent"] = fmt.Sprintf("%.1f", sample.CPUPercent)

	switch {
	case sample.CPUPercent > p.thresholds.CritPercent:
		result.addCritical(IssueResourceExhaustion,
			fmt.Sprintf("cpu usage %.1f%% exceeds critical threshold %.0f%%",
				sample.CPUPercent, p.thresholds.CritPercent),
			cpuCriticalImpact)
	case sample.CPUPercent > p.thresholds.WarnPercent:
		result.addWarning(IssueResourceExhaustion,
			fmt.Sprintf("cpu usage %.1f%% exceeds warning threshold %.0f%%",
				sample.CPUPercent, p.thresholds.WarnPercent),
			cpuWarnImpact)
	}

	return result
}
