package health

import (
	"context"
	"time"
)

// Probe is a single-purpose diagnostic check. Implementations must be
// stateless beyond reading counters and must not mutate shared state.
// New probes plug into the aggregator without modifying it.
type Probe interface {
	Name() string
	Check(ctx context.Context) Result
}

// newResult seeds a healthy Result for a probe.
func newResult(name string) Result {
	return Result{
		ProbeName: name,
		Healthy:   true,
		Metrics:   make(map[string]string),
		Timestamp: time.Now(),
	}
}

// addCritical appends a critical issue and applies its score impact.
func (r *Result) addCritical(issueType IssueType, description string, impact float64) {
	r.Healthy = false
	r.ScoreImpact += impact
	r.CriticalIssues = append(r.CriticalIssues, Issue{
		Type:        issueType,
		Description: description,
		Severity:    SeverityCritical,
		Timestamp:   time.Now(),
	})
}

// addWarning appends a warning issue and applies its score impact.
func (r *Result) addWarning(issueType IssueType, description string, impact float64) {
	r.Healthy = false
	r.ScoreImpact += impact
	r.Warnings = append(r.Warnings, Issue{
		Type:        issueType,
		Description: description,
		Severity:    SeverityWarning,
		Timestamp:   time.Now(),
	})
}
