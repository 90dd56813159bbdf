package health

import (
	"context"
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v3/disk"
)

// Score impacts for filesystem findings.
const (
	diskCriticalImpact = 15
	diskWarnImpact     = 5
	dataDirImpact      = 10
)

// FilesystemThresholds configure the filesystem probe.
type FilesystemThresholds struct {
	WarnFreeGB float64
	CritFreeGB float64
}

// diskUsage is swapped in tests.
type diskUsageFunc func(path string) (*disk.UsageStat, error)

// FilesystemProbe checks free disk space and data directory access.
type FilesystemProbe struct {
	dataDir    string
	thresholds FilesystemThresholds
	usage      diskUsageFunc
}

// NewFilesystemProbe creates a filesystem probe for the given data directory.
func NewFilesystemProbe(dataDir string, thresholds FilesystemThresholds) *FilesystemProbe {
	return &FilesystemProbe{
		dataDir:    dataDir,
		thresholds: thresholds,
		usage:      disk.Usage,
	}
}

// Name implements Probe.
func (p *FilesystemProbe) Name() string { return "filesystem" }

// Check implements Probe.
func (p *FilesystemProbe) Check(_ context.Context) Result {
	result := newResult(p.Name())

	if usage, err := p.usage(p.dataDir); err == nil {
		freeGB := float64(usage.Free) / 1024 / 1024 / 1024
		result.Metrics["free_gb"] = fmt.Sprintf("%.1f", freeGB)

		switch {
		case freeGB < p.thresholds.CritFreeGB:
			result.addCritical(IssueResourceExhaustion,
				fmt.Sprintf("free disk space %.1f GB below critical threshold %.0f GB",
					freeGB, p.thresholds.CritFreeGB),
				diskCriticalImpact)
		case freeGB < p.thresholds.WarnFreeGB:
			result.addWarning(IssueResourceExhaustion,
				fmt.Sprintf("free disk space %.1f GB below warning threshold %.0f GB",
					freeGB, p.thresholds.WarnFreeGB),
				diskWarnImpact)
		}
	}

	if info, err := os.Stat(p.dataDir); err != nil || !info.IsDir() {
		result.addCritical(IssueResourceExhaustion,
			fmt.Sprintf("data directory %q is not accessible", p.dataDir),
			dataDirImpact)
	}

	return result
}
