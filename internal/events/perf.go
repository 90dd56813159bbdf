package events

// Event type constants for performance events.
const (
	TypePerformanceAlert  = "performance_alert"
	TypeThrottleRequested = "throttle_requested"
)

// PerformanceAlertEvent is emitted when the performance status changes.
type PerformanceAlertEvent struct {
	BaseEvent
	Status     string  `json:"status"`
	ResidentMB float64 `json:"resident_mb"`
	CPUPercent float64 `json:"cpu_percent"`
}

// NewPerformanceAlertEvent creates a new performance alert event.
func NewPerformanceAlertEvent(status string, residentMB, cpuPercent float64) PerformanceAlertEvent {
	return PerformanceAlertEvent{
		BaseEvent:  NewBaseEvent(TypePerformanceAlert, "sampler"),
		Status:     status,
		ResidentMB: residentMB,
		CPUPercent: cpuPercent,
	}
}

// ThrottleRequestedEvent asks dependent components to shed load while the
// process is under memory or CPU pressure.
type ThrottleRequestedEvent struct {
	BaseEvent
	Reason string `json:"reason"`
}

// NewThrottleRequestedEvent creates a new throttle request event.
func NewThrottleRequestedEvent(reason string) ThrottleRequestedEvent {
	return ThrottleRequestedEvent{
		BaseEvent: NewBaseEvent(TypeThrottleRequested, "sampler"),
		Reason:    reason,
	}
}
