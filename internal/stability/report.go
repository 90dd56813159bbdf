// Package stability owns the supervisor's overall state: it schedules
// health checks, reacts to degradation, drives crash recovery, and
// computes the composite stability score.
package stability

import (
	"time"

	"github.com/wangwenjie1314/sentinel/internal/health"
)

// CrashRecoveryStatus is the crash-recovery state machine position.
type CrashRecoveryStatus string

const (
	RecoveryNone       CrashRecoveryStatus = "none"
	RecoveryNeeded     CrashRecoveryStatus = "needs_recovery"
	RecoveryInProgress CrashRecoveryStatus = "recovering"
	RecoveryCompleted  CrashRecoveryStatus = "recovered"
)

// Report is a point-in-time stability summary.
type Report struct {
	Timestamp           time.Time           `json:"timestamp"`
	HealthStatus        health.Status       `json:"health_status"`
	HealthScore         float64             `json:"health_score"`
	StabilityScore      float64             `json:"stability_score"`
	CrashCount          int                 `json:"crash_count"`
	ExceptionCount      int                 `json:"exception_count"`
	ConsecutiveFailures int                 `json:"consecutive_failures"`
	RecoveryStatus      CrashRecoveryStatus `json:"recovery_status"`
	Uptime              time.Duration       `json:"uptime"`
}

// Score computes the composite stability score: a perfect 100 minus
// deductions for recorded crashes, recorded exceptions, consecutive
// failed checks, and the current health band, floored at zero.
func Score(crashes, exceptions, consecutiveFailures int, status health.Status) float64 {
	score := 100.0
	score -= 10 * float64(crashes)
	score -= 5 * float64(exceptions)
	score -= 15 * float64(consecutiveFailures)

	switch status {
	case health.StatusCritical:
		score -= 30
	case health.StatusFair, health.StatusPoor:
		score -= 15
	case health.StatusUnknown:
		score -= 5
	}

	if score < 0 {
		score = 0
	}
	return score
}
