package health

// Trend describes the direction of health score movement.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

const (
	trendWindow          = 3
	trendDelta           = 5
	longTermMinSnapshots = 10
	longTermDelta        = 10
)

// AnalyzeTrend compares the mean score of the most recent snapshots
// against the window immediately preceding them. A delta above +5 is
// improving, below -5 declining, otherwise stable. Needs at least
// trendWindow snapshots plus one older point for a meaningful delta.
func AnalyzeTrend(history []Snapshot) Trend {
	if len(history) < trendWindow+1 {
		return TrendStable
	}

	recent := history[len(history)-trendWindow:]
	earlierStart := len(history) - 2*trendWindow
	if earlierStart < 0 {
		earlierStart = 0
	}
	earlier := history[earlierStart : len(history)-trendWindow]

	delta := meanScore(recent) - meanScore(earlier)
	switch {
	case delta > trendDelta:
		return TrendImproving
	case delta < -trendDelta:
		return TrendDeclining
	default:
		return TrendStable
	}
}

// AnalyzeLongTermTrend compares the first quarter of the history against
// the last quarter, with a wider delta band. Needs at least ten snapshots.
func AnalyzeLongTermTrend(history []Snapshot) Trend {
	if len(history) < longTermMinSnapshots {
		return TrendStable
	}

	quarter := len(history) / 4
	first := history[:quarter]
	last := history[len(history)-quarter:]

	delta := meanScore(last) - meanScore(first)
	switch {
	case delta > longTermDelta:
		return TrendImproving
	case delta < -longTermDelta:
		return TrendDeclining
	default:
		return TrendStable
	}
}

func meanScore(snapshots []Snapshot) float64 {
	if len(snapshots) == 0 {
		return 0
	}
	var sum float64
	for _, s := range snapshots {
		sum += s.Score
	}
	return sum / float64(len(snapshots))
}
