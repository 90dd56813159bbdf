package collab

import (
	"context"
	"sync"
)

// StaticConnectivity is a ConnectivitySource with a settable status.
// It serves as the default wiring point until a real network collaborator
// is attached, and doubles as a test double.
type StaticConnectivity struct {
	mu     sync.RWMutex
	status ConnectivityStatus
}

// NewStaticConnectivity creates a source reporting the given status.
func NewStaticConnectivity(status ConnectivityStatus) *StaticConnectivity {
	return &StaticConnectivity{status: status}
}

// Set updates the reported status.
func (s *StaticConnectivity) Set(status ConnectivityStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// Status returns the current connectivity status.
func (s *StaticConnectivity) Status() ConnectivityStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Connected reports whether the status counts as connected.
func (s *StaticConnectivity) Connected() bool {
	return s.Status() == ConnectivityConnected
}

// StaticComponents is a ComponentSource backed by a settable slice.
type StaticComponents struct {
	mu     sync.RWMutex
	states []ComponentState
}

// NewStaticComponents creates a source reporting the given states.
func NewStaticComponents(states ...ComponentState) *StaticComponents {
	return &StaticComponents{states: states}
}

// Set replaces the reported states.
func (s *StaticComponents) Set(states ...ComponentState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = states
}

// Components returns a copy of the current states.
func (s *StaticComponents) Components() []ComponentState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ComponentState, len(s.states))
	copy(out, s.states)
	return out
}

// NopController is a ComponentController and NetworkController that
// records invocations and always succeeds. Reset and restart calls on it
// are trivially idempotent.
type NopController struct {
	mu       sync.Mutex
	resets   int
	reinits  int
	restarts int
}

// NewNopController creates a no-op controller.
func NewNopController() *NopController { return &NopController{} }

// ResetAll records a component reset request.
func (c *NopController) ResetAll(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resets++
	return nil
}

// ReinitializeCritical records a reinitialization request.
func (c *NopController) ReinitializeCritical(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reinits++
	return nil
}

// Restart records a network restart request.
func (c *NopController) Restart(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.restarts++
	return nil
}

// Resets returns the number of ResetAll calls.
func (c *NopController) Resets() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resets
}

// Restarts returns the number of Restart calls.
func (c *NopController) Restarts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.restarts
}

// MemoryCache is a CacheManager over an in-process map.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	purges  int
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string][]byte)}
}

// Put stores an entry.
func (c *MemoryCache) Put(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

// Len returns the number of cached entries.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// PurgeAll drops every cached entry.
func (c *MemoryCache) PurgeAll(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]byte)
	c.purges++
	return nil
}

// Purges returns the number of PurgeAll calls.
func (c *MemoryCache) Purges() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.purges
}

// MapPreferences is a PreferencesStore over an in-process map seeded with
// default values.
type MapPreferences struct {
	mu       sync.RWMutex
	defaults map[string]string
	values   map[string]string
}

// NewMapPreferences creates a store with the given defaults.
func NewMapPreferences(defaults map[string]string) *MapPreferences {
	values := make(map[string]string, len(defaults))
	for k, v := range defaults {
		values[k] = v
	}
	return &MapPreferences{defaults: defaults, values: values}
}

// Defaults returns the default preference values.
func (p *MapPreferences) Defaults() map[string]string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]string, len(p.defaults))
	for k, v := range p.defaults {
		out[k] = v
	}
	return out
}

// Set stores a preference value.
func (p *MapPreferences) Set(key, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values[key] = value
}

// Get returns a preference value.
func (p *MapPreferences) Get(key string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.values[key]
}

// Reset restores every preference to its default.
func (p *MapPreferences) Reset(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values = make(map[string]string, len(p.defaults))
	for k, v := range p.defaults {
		p.values[k] = v
	}
	return nil
}
