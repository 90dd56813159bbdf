package health

import (
	"context"
	"fmt"

	"github.com/wangwenjie1314/sentinel/internal/perf"
)

// Score impacts for memory findings.
const (
	memoryCriticalImpact = 25
	memoryWarnImpact     = 10
	virtualWarnImpact    = 5
)

// MemoryThresholds configure the memory probe.
type MemoryThresholds struct {
	WarnMB     float64
	CriticalMB float64
	VirtualMB  float64
}

// MemoryProbe checks resident and virtual memory of the process.
type MemoryProbe struct {
	source     perf.Source
	thresholds MemoryThresholds
}

// NewMemoryProbe creates a memory probe reading from source.
func NewMemoryProbe(source perf.Source, thresholds MemoryThresholds) *MemoryProbe {
	return &MemoryProbe{source: source, thresholds: thresholds}
}

// Name implements Probe.
func (p *MemoryProbe) Name() string { return "memory" }

// Check implements Probe.
func (p *MemoryProbe) Check(_ context.Context) Result {
	result := newResult(p.Name())

	sample, err := p.source.Sample()
	if err != nil {
		result.addWarning(IssueResourceExhaustion,
			fmt.Sprintf("memory usage unavailable: %v", err), 0)
		return result
	}

	result.Metrics["resident_mb"] = fmt.Sprintf("%.1f", sample.ResidentMB)
	result.Metrics["virtual_mb"] = fmt.Sprintf("%.1f", sample.VirtualMB)

	switch {
	case sample.ResidentMB > p.thresholds.CriticalMB:
		result.addCritical(IssueMemoryLeak,
			fmt.Sprintf("resident memory %.1f MB exceeds critical threshold %.0f MB",
				sample.ResidentMB, p.thresholds.CriticalMB),
			memoryCriticalImpact)
	case sample.ResidentMB > p.thresholds.WarnMB:
		result.addWarning(IssueMemoryLeak,
			fmt.Sprintf("resident memory %.1f MB exceeds warning threshold %.0f MB",
				sample.ResidentMB, p.thresholds.WarnMB),
			memoryWarnImpact)
	}

	if p.thresholds.VirtualMB > 0 && sample.VirtualMB > p.thresholds.VirtualMB {
		result.addWarning(IssueMemoryLeak,
			fmt.Sprintf("virtual memory %.1f MB exceeds threshold %.0f MB",
				sample.VirtualMB, p.thresholds.VirtualMB),
			virtualWarnImpact)
	}

	return result
}
