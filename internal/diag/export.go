package diag

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wangwenjie1314/sentinel/internal/faults"
	"github.com/wangwenjie1314/sentinel/internal/health"
	"github.com/wangwenjie1314/sentinel/internal/perf"
)

// Format selects the export serialization.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Export bundles a comprehensive diagnosis with the raw histories it was
// derived from. Field names are stable within a version.
type Export struct {
	GeneratedAt  time.Time         `json:"generated_at" yaml:"generated_at"`
	Diagnosis    Diagnosis         `json:"diagnosis" yaml:"diagnosis"`
	HealthTrail  []health.Snapshot `json:"health_history" yaml:"health_history"`
	PerfTrail    []perf.Sample     `json:"performance_history" yaml:"performance_history"`
	FaultRecords []faults.Record   `json:"fault_records" yaml:"fault_records"`
}

// ExportData runs a comprehensive diagnosis and serializes it together
// with the underlying histories.
func (t *Tool) ExportData(ctx context.Context, format Format) ([]byte, error) {
	export := Export{
		GeneratedAt: time.Now(),
		Diagnosis:   t.Comprehensive(ctx),
		HealthTrail: t.aggregator.History(),
		PerfTrail:   t.sampler.History(),
	}
	if t.recorder != nil {
		export.FaultRecords = t.recorder.Records()
	}

	switch format {
	case FormatYAML:
		data, err := yaml.Marshal(export)
		if err != nil {
			return nil, fmt.Errorf("marshaling yaml export: %w", err)
		}
		return data, nil
	case FormatJSON, "":
		data, err := json.MarshalIndent(export, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling json export: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}
