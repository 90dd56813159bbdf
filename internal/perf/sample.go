package perf

import (
	"fmt"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// Sample captures process resource usage at a point in time.
type Sample struct {
	Timestamp  time.Time `json:"timestamp"`
	ResidentMB float64   `json:"resident_mb"`
	VirtualMB  float64   `json:"virtual_mb"`
	CPUPercent float64   `json:"cpu_percent"`
}

// Source produces resource samples. The production implementation reads
// the running process; tests inject deterministic values.
type Source interface {
	Sample() (Sample, error)
}

// ProcessSource samples the current process via gopsutil.
type ProcessSource struct {
	proc *process.Process
}

// NewProcessSource creates a source for the running process.
func NewProcessSource() (*ProcessSource, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("opening process handle: %w", err)
	}
	return &ProcessSource{proc: proc}, nil
}

// Sample reads current memory and CPU usage.
func (s *ProcessSource) Sample() (Sample, error) {
	mem, err := s.proc.MemoryInfo()
	if err != nil {
		return Sample{}, fmt.Errorf("reading memory info: %w", err)
	}

	// Percent with zero interval returns usage since the previous call.
	cpu, err := s.proc.Percent(0)
	if err != nil {
		return Sample{}, fmt.Errorf("reading cpu usage: %w", err)
	}

	return Sample{
		Timestamp:  time.Now(),
		ResidentMB: float64(mem.RSS) / 1024 / 1024,
		VirtualMB:  float64(mem.VMS) / 1024 / 1024,
		CPUPercent: cpu,
	}, nil
}
