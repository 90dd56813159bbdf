package diag

import (
	"fmt"

	"github.com/wangwenjie1314/sentinel/internal/health"
)

// RiskLevel bands the weighted risk score.
type RiskLevel string

const (
	RiskMinimal RiskLevel = "minimal"
	RiskLow     RiskLevel = "low"
	RiskMedium  RiskLevel = "medium"
	RiskHigh    RiskLevel = "high"
)

// RiskFactor is one contributing dimension of the assessment.
type RiskFactor struct {
	Name        string  `json:"name"`
	Severity    string  `json:"severity"`
	Score       float64 `json:"score"`
	Description string  `json:"description"`
}

// RiskAssessment is the forward-looking instability estimate.
type RiskAssessment struct {
	Level   RiskLevel    `json:"level"`
	Score   float64      `json:"score"`
	Factors []RiskFactor `json:"factors,omitempty"`
}

// Risk weights per dimension.
const (
	crashWeight           = 15
	memoryHighRisk        = 20
	memoryElevatedRisk    = 10
	stabilityLowRisk      = 25
	stabilityElevatedRisk = 12
	statusCriticalRisk    = 35
	statusDegradedRisk    = 15
)

// RiskInput carries the dimensions the assessment weighs.
type RiskInput struct {
	RecentCrashes    int
	ResidentMB       float64
	MemoryWarnMB     float64
	MemoryCriticalMB float64
	StabilityScore   float64
	HealthStatus     health.Status
}

// AssessRisk computes the weighted risk score and its contributing
// factors, then bands the total.
func AssessRisk(in RiskInput) RiskAssessment {
	var assessment RiskAssessment

	if in.RecentCrashes > 0 {
		severity := "low"
		switch {
		case in.RecentCrashes >= 3:
			severity = "high"
		case in.RecentCrashes == 2:
			severity = "medium"
		}
		assessment.add(RiskFactor{
			Name:        "crash_history",
			Severity:    severity,
			Score:       float64(in.RecentCrashes * crashWeight),
			Description: fmt.Sprintf("%d crash(es) recorded in the last 24 hours", in.RecentCrashes),
		})
	}

	switch {
	case in.MemoryCriticalMB > 0 && in.ResidentMB > in.MemoryCriticalMB:
		assessment.add(RiskFactor{
			Name:        "memory_usage",
			Severity:    "high",
			Score:       memoryHighRisk,
			Description: fmt.Sprintf("resident memory %.1f MB above critical threshold %.0f MB", in.ResidentMB, in.MemoryCriticalMB),
		})
	case in.MemoryWarnMB > 0 && in.ResidentMB > in.MemoryWarnMB:
		assessment.add(RiskFactor{
			Name:        "memory_usage",
			Severity:    "medium",
			Score:       memoryElevatedRisk,
			Description: fmt.Sprintf("resident memory %.1f MB above warning threshold %.0f MB", in.ResidentMB, in.MemoryWarnMB),
		})
	}

	switch {
	case in.StabilityScore < 50:
		assessment.add(RiskFactor{
			Name:        "stability_score",
			Severity:    "high",
			Score:       stabilityLowRisk,
			Description: fmt.Sprintf("stability score %.0f below 50", in.StabilityScore),
		})
	case in.StabilityScore < 70:
		assessment.add(RiskFactor{
			Name:        "stability_score",
			Severity:    "medium",
			Score:       stabilityElevatedRisk,
			Description: fmt.Sprintf("stability score %.0f below 70", in.StabilityScore),
		})
	}

	switch in.HealthStatus {
	case health.StatusCritical:
		assessment.add(RiskFactor{
			Name:        "health_status",
			Severity:    "high",
			Score:       statusCriticalRisk,
			Description: "current health status is critical",
		})
	case health.StatusFair, health.StatusPoor:
		assessment.add(RiskFactor{
			Name:        "health_status",
			Severity:    "medium",
			Score:       statusDegradedRisk,
			Description: fmt.Sprintf("current health status is %s", in.HealthStatus),
		})
	}

	assessment.Level = levelFor(assessment.Score)
	return assessment
}

func (a *RiskAssessment) add(f RiskFactor) {
	a.Factors = append(a.Factors, f)
	a.Score += f.Score
}

func levelFor(score float64) RiskLevel {
	switch {
	case score > 50:
		return RiskHigh
	case score > 25:
		return RiskMedium
	case score > 10:
		return RiskLow
	default:
		return RiskMinimal
	}
}
