package events

// Event type constants for recovery events.
const (
	TypeCrashRecoveryCompleted = "crash_recovery_completed"
	TypeAutoRepairCompleted    = "auto_repair_completed"
)

// CrashRecoveryCompletedEvent is emitted when a full application recovery
// run finishes, successfully or not.
type CrashRecoveryCompletedEvent struct {
	BaseEvent
	Succeeded  bool     `json:"succeeded"`
	Strategies []string `json:"strategies"`
	Escalated  bool     `json:"escalated"`
}

// NewCrashRecoveryCompletedEvent creates a new crash recovery completion event.
func NewCrashRecoveryCompletedEvent(succeeded, escalated bool, strategies []string) CrashRecoveryCompletedEvent {
	return CrashRecoveryCompletedEvent{
		BaseEvent:  NewBaseEvent(TypeCrashRecoveryCompleted, "orchestrator"),
		Succeeded:  succeeded,
		Strategies: strategies,
		Escalated:  escalated,
	}
}

// AutoRepairCompletedEvent is emitted after a preventive single-issue repair.
type AutoRepairCompletedEvent struct {
	BaseEvent
	Strategy  string `json:"strategy"`
	Succeeded bool   `json:"succeeded"`
}

// NewAutoRepairCompletedEvent creates a new auto repair completion event.
func NewAutoRepairCompletedEvent(strategy string, succeeded bool) AutoRepairCompletedEvent {
	return AutoRepairCompletedEvent{
		BaseEvent: NewBaseEvent(TypeAutoRepairCompleted, "orchestrator"),
		Strategy:  strategy,
		Succeeded: succeeded,
	}
}
