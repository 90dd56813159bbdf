// Package perf samples process memory and CPU usage on a fixed interval,
// derives a performance status from configured thresholds, and triggers
// local optimization when the process enters a critical state. The same
// reaction path serves OS memory-pressure notifications.
package perf

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wangwenjie1314/sentinel/internal/collab"
	"github.com/wangwenjie1314/sentinel/internal/events"
)

// Status classifies current process performance.
type Status string

const (
	StatusNormal   Status = "normal"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

// PressureLevel is an OS memory-pressure notification level.
type PressureLevel string

const (
	PressureWarning  PressureLevel = "warning"
	PressureCritical PressureLevel = "critical"
)

// Thresholds are the performance limits, independent from the health
// probe thresholds in configuration terms but fed from the same set.
type Thresholds struct {
	MemoryWarnMB     float64
	MemoryCriticalMB float64
	CPUWarnPercent   float64
	CPUCritPercent   float64
}

// retainOnOptimize is how many samples survive a history truncation.
const retainOnOptimize = 10

// Sampler periodically samples process resources and reacts to pressure.
type Sampler struct {
	source      Source
	interval    time.Duration
	historySize int
	bus         *events.Bus
	logger      *slog.Logger

	mu         sync.RWMutex
	thresholds Thresholds
	history    []Sample
	status     Status
	purgers    []collab.CacheManager

	stopCh  chan struct{}
	stopped atomic.Bool
}

// NewSampler creates a performance sampler.
func NewSampler(source Source, interval time.Duration, historySize int, thresholds Thresholds, bus *events.Bus, logger *slog.Logger) *Sampler {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if historySize <= 0 {
		historySize = 100
	}
	return &Sampler{
		source:      source,
		interval:    interval,
		historySize: historySize,
		thresholds:  thresholds,
		bus:         bus,
		logger:      logger,
		history:     make([]Sample, 0, historySize),
		status:      StatusNormal,
		stopCh:      make(chan struct{}),
	}
}

// RegisterPurger adds a cache that optimization may purge.
func (s *Sampler) RegisterPurger(p collab.CacheManager) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgers = append(s.purgers, p)
}

// SetThresholds replaces the thresholds; used by config hot-reload.
func (s *Sampler) SetThresholds(t Thresholds) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.thresholds = t
}

// Start begins periodic sampling. Stop only halts the timer; an in-flight
// sample completes.
func (s *Sampler) Start(ctx context.Context) {
	go func() {
		s.SampleOnce(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			case <-ticker.C:
				s.SampleOnce(ctx)
			}
		}
	}()
}

// Stop halts the sampling loop.
func (s *Sampler) Stop() {
	if s.stopped.CompareAndSwap(false, true) {
		close(s.stopCh)
	}
}

// SampleOnce takes a sample, records it, and reacts to threshold
// crossings. It returns the derived status.
func (s *Sampler) SampleOnce(ctx context.Context) Status {
	sample, err := s.source.Sample()
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("performance sample failed", "error", err)
		}
		return s.Status()
	}

	s.mu.Lock()
	s.history = append(s.history, sample)
	if len(s.history) > s.historySize {
		s.history = s.history[len(s.history)-s.historySize:]
	}
	previous := s.status
	current := classify(sample, s.thresholds)
	s.status = current
	s.mu.Unlock()

	if current != previous && s.bus != nil {
		s.bus.Publish(events.NewPerformanceAlertEvent(string(current), sample.ResidentMB, sample.CPUPercent))
	}

	if current == StatusCritical && previous != StatusCritical {
		s.Optimize(ctx, "threshold")
	}

	return current
}

// NotifyMemoryPressure handles an OS memory-pressure callback. Critical
// pressure takes the same optimization path as a threshold crossing.
func (s *Sampler) NotifyMemoryPressure(ctx context.Context, level PressureLevel) {
	if s.logger != nil {
		s.logger.Warn("memory pressure notification", "level", string(level))
	}
	if level == PressureCritical {
		s.Optimize(ctx, "memory_pressure")
		return
	}
	s.SampleOnce(ctx)
}

// Optimize purges registered caches, truncates the sample history, and
// asks dependents to throttle. Safe to invoke repeatedly.
func (s *Sampler) Optimize(ctx context.Context, reason string) {
	s.mu.Lock()
	purgers := make([]collab.CacheManager, len(s.purgers))
	copy(purgers, s.purgers)
	if len(s.history) > retainOnOptimize {
		s.history = append([]Sample(nil), s.history[len(s.history)-retainOnOptimize:]...)
	}
	s.mu.Unlock()

	for _, p := range purgers {
		if err := p.PurgeAll(ctx); err != nil && s.logger != nil {
			s.logger.Warn("cache purge failed", "error", err)
		}
	}

	if s.bus != nil {
		s.bus.Publish(events.NewThrottleRequestedEvent(reason))
	}
	if s.logger != nil {
		s.logger.Info("performance optimization executed", "reason", reason)
	}
}

// ClearHistory drops all recorded samples. Idempotent.
func (s *Sampler) ClearHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = s.history[:0]
}

// Status returns the most recently derived status.
func (s *Sampler) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Latest returns the most recent sample.
func (s *Sampler) Latest() (Sample, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.history) == 0 {
		return Sample{}, false
	}
	return s.history[len(s.history)-1], true
}

// History returns a copy of the sample history.
func (s *Sampler) History() []Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Sample, len(s.history))
	copy(out, s.history)
	return out
}

// Averages returns mean resident memory and CPU over the history.
func (s *Sampler) Averages() (memMB, cpuPercent float64) {
	history := s.History()
	if len(history) == 0 {
		return 0, 0
	}
	for _, sample := range history {
		memMB += sample.ResidentMB
		cpuPercent += sample.CPUPercent
	}
	n := float64(len(history))
	return memMB / n, cpuPercent / n
}

// Peak returns the sample with the highest resident memory.
func (s *Sampler) Peak() (Sample, bool) {
	history := s.History()
	if len(history) == 0 {
		return Sample{}, false
	}
	peak := history[0]
	for _, sample := range history[1:] {
		if sample.ResidentMB > peak.ResidentMB {
			peak = sample
		}
	}
	return peak, true
}

func classify(sample Sample, t Thresholds) Status {
	switch {
	case sample.ResidentMB > t.MemoryCriticalMB || sample.CPUPercent > t.CPUCritPercent:
		return StatusCritical
	case sample.ResidentMB > t.MemoryWarnMB || sample.CPUPercent > t.CPUWarnPercent:
		return StatusWarning
	default:
		return StatusNormal
	}
}
