package events

// Event type constants for health events.
const (
	TypeHealthStatusChanged = "health_status_changed"
)

// HealthStatusChangedEvent is emitted when the aggregated health status
// differs from the previous snapshot.
type HealthStatusChangedEvent struct {
	BaseEvent
	Previous string  `json:"previous"`
	Current  string  `json:"current"`
	Score    float64 `json:"score"`
}

// NewHealthStatusChangedEvent creates a new health status change event.
func NewHealthStatusChangedEvent(previous, current string, score float64) HealthStatusChangedEvent {
	return HealthStatusChangedEvent{
		BaseEvent: NewBaseEvent(TypeHealthStatusChanged, "aggregator"),
		Previous:  previous,
		Current:   current,
		Score:     score,
	}
}
