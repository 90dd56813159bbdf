// Package collab defines the boundary interfaces toward the supervised
// application: the network-status source, managed components, the
// preferences store, and the cache layer. The supervisor only polls or
// commands these collaborators; it never owns their state.
package collab

import "context"

// ConnectivityStatus is the externally supplied network connectivity enum.
type ConnectivityStatus string

const (
	ConnectivityConnected            ConnectivityStatus = "connected"
	ConnectivityDisconnected         ConnectivityStatus = "disconnected"
	ConnectivityDisabled             ConnectivityStatus = "disabled"
	ConnectivityError                ConnectivityStatus = "error"
	ConnectivityUnexpectedDisconnect ConnectivityStatus = "unexpected_disconnect"
)

// ConnectivitySource supplies the current connectivity state.
type ConnectivitySource interface {
	Status() ConnectivityStatus
	Connected() bool
}

// ComponentHealth is a dependent component's self-reported health enum.
type ComponentHealth string

const (
	ComponentHealthy  ComponentHealth = "healthy"
	ComponentWarning  ComponentHealth = "warning"
	ComponentCritical ComponentHealth = "critical"
	ComponentUnknown  ComponentHealth = "unknown"
)

// ComponentState is one managed component's self-reported state.
type ComponentState struct {
	Name           string          `json:"name"`
	Health         ComponentHealth `json:"health"`
	RecoveryStatus string          `json:"recovery_status"`
}

// ComponentSource supplies the current state of all managed components.
type ComponentSource interface {
	Components() []ComponentState
}

// ComponentController resets and reinitializes managed components.
// Implementations must be idempotent.
type ComponentController interface {
	ResetAll(ctx context.Context) error
	ReinitializeCritical(ctx context.Context) error
}

// CacheManager purges application caches.
type CacheManager interface {
	PurgeAll(ctx context.Context) error
}

// PreferencesStore provides access to the persisted preferences of the
// supervised application.
type PreferencesStore interface {
	Defaults() map[string]string
	Reset(ctx context.Context) error
}

// NetworkController restarts the application's network stack.
type NetworkController interface {
	Restart(ctx context.Context) error
}
