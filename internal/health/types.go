// Package health runs diagnostic probes and aggregates their results
// into point-in-time health snapshots with bounded history and trend
// analysis.
package health

import "time"

// Status is the aggregated health classification, ordered from unknown
// through critical.
type Status string

const (
	StatusUnknown   Status = "unknown"
	StatusExcellent Status = "excellent"
	StatusGood      Status = "good"
	StatusFair      Status = "fair"
	StatusPoor      Status = "poor"
	StatusCritical  Status = "critical"
)

var statusRank = map[Status]int{
	StatusUnknown:   0,
	StatusExcellent: 1,
	StatusGood:      2,
	StatusFair:      3,
	StatusPoor:      4,
	StatusCritical:  5,
}

// WorseThan reports whether s is further along the degradation order
// than other.
func (s Status) WorseThan(other Status) bool {
	return statusRank[s] > statusRank[other]
}

// StatusFromScore maps an overall score to its band. The critical-issue
// override is applied by the aggregator, not here.
func StatusFromScore(score float64) Status {
	switch {
	case score >= 90:
		return StatusExcellent
	case score >= 80:
		return StatusGood
	case score >= 70:
		return StatusFair
	case score >= 60:
		return StatusPoor
	default:
		return StatusCritical
	}
}

// IssueType classifies a detected health issue.
type IssueType string

const (
	IssueMemoryLeak         IssueType = "memory_leak"
	IssueComponentFailure   IssueType = "component_failure"
	IssueResourceExhaustion IssueType = "resource_exhaustion"
	IssueNetworkFailure     IssueType = "network_failure"
)

// Severity is the urgency of an issue.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Issue is a single detected health problem.
type Issue struct {
	Type        IssueType `json:"type"`
	Description string    `json:"description"`
	Severity    Severity  `json:"severity"`
	Timestamp   time.Time `json:"timestamp"`
}

// Result is the outcome of one probe run. Fresh per run, never persisted
// on its own.
type Result struct {
	ProbeName      string            `json:"probe_name"`
	Healthy        bool              `json:"healthy"`
	ScoreImpact    float64           `json:"score_impact"`
	CriticalIssues []Issue           `json:"critical_issues,omitempty"`
	Warnings       []Issue           `json:"warnings,omitempty"`
	Metrics        map[string]string `json:"metrics,omitempty"`
	Timestamp      time.Time         `json:"timestamp"`
}

// Snapshot is one aggregated health measurement. Immutable once built.
type Snapshot struct {
	Timestamp       time.Time `json:"timestamp"`
	Status          Status    `json:"status"`
	Score           float64   `json:"score"`
	Results         []Result  `json:"results"`
	CriticalIssues  []Issue   `json:"critical_issues,omitempty"`
	Warnings        []Issue   `json:"warnings,omitempty"`
	CheckDurationMS int64     `json:"check_duration_ms"`
}

// IsHealthy reports whether the snapshot represents an acceptable state
// (excellent or good).
func (s Snapshot) IsHealthy() bool {
	return s.Status == StatusExcellent || s.Status == StatusGood
}
