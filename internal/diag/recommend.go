package diag

import "sort"

// Recommendation is one suggested action, higher priority first.
type Recommendation struct {
	Priority int    `json:"priority"`
	Action   string `json:"action"`
	Reason   string `json:"reason"`
}

// Recommend derives actions deterministically from the risk level and
// each breached dimension, sorted by priority descending.
func Recommend(risk RiskAssessment) []Recommendation {
	var recs []Recommendation

	switch risk.Level {
	case RiskHigh:
		recs = append(recs, Recommendation{
			Priority: 100,
			Action:   "run full application recovery",
			Reason:   "overall risk level is high",
		})
	case RiskMedium:
		recs = append(recs, Recommendation{
			Priority: 70,
			Action:   "schedule a component reset during the next idle period",
			Reason:   "overall risk level is medium",
		})
	case RiskLow:
		recs = append(recs, Recommendation{
			Priority: 40,
			Action:   "increase monitoring frequency",
			Reason:   "overall risk level is low but not minimal",
		})
	default:
		recs = append(recs, Recommendation{
			Priority: 10,
			Action:   "no action required",
			Reason:   "overall risk level is minimal",
		})
	}

	for _, factor := range risk.Factors {
		switch factor.Name {
		case "crash_history":
			recs = append(recs, Recommendation{
				Priority: 90,
				Action:   "review recent crash records and their classified causes",
				Reason:   factor.Description,
			})
		case "memory_usage":
			priority := 50
			if factor.Severity == "high" {
				priority = 80
			}
			recs = append(recs, Recommendation{
				Priority: priority,
				Action:   "purge caches and reduce memory footprint",
				Reason:   factor.Description,
			})
		case "stability_score":
			recs = append(recs, Recommendation{
				Priority: 60,
				Action:   "investigate the sources of repeated check failures",
				Reason:   factor.Description,
			})
		case "health_status":
			priority := 55
			if factor.Severity == "high" {
				priority = 85
			}
			recs = append(recs, Recommendation{
				Priority: priority,
				Action:   "address the open health issues reported by the probes",
				Reason:   factor.Description,
			})
		}
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Priority > recs[j].Priority
	})
	return recs
}
