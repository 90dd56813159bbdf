package recovery

import (
	"context"
	"log/slog"
	"sync"

	"github.com/wangwenjie1314/sentinel/internal/collab"
	"github.com/wangwenjie1314/sentinel/internal/health"
	"github.com/wangwenjie1314/sentinel/internal/perf"
)

// HealthChecker re-runs the health probes for post-recovery verification.
type HealthChecker interface {
	Check(ctx context.Context) health.Snapshot
}

// Outcome summarizes one recovery attempt.
type Outcome struct {
	Succeeded  bool   `json:"succeeded"`
	Escalated  bool   `json:"escalated"`
	Strategies []Type `json:"strategies"`
}

// Engine holds the registered strategies and runs recovery attempts.
// Strategies run sequentially in registration order; a failed strategy is
// logged and the attempt moves on to the next one.
type Engine struct {
	checker      HealthChecker
	connectivity collab.ConnectivitySource
	perfSource   perf.Source
	memCritMB    float64
	logger       *slog.Logger

	mu       sync.RWMutex
	registry []Strategy
}

// NewEngine creates an engine verifying against the given checker,
// connectivity source, and memory-critical threshold.
func NewEngine(checker HealthChecker, connectivity collab.ConnectivitySource, perfSource perf.Source, memCriticalMB float64, logger *slog.Logger) *Engine {
	return &Engine{
		checker:      checker,
		connectivity: connectivity,
		perfSource:   perfSource,
		memCritMB:    memCriticalMB,
		logger:       logger,
	}
}

// Register appends a strategy. Registration order is execution order.
func (e *Engine) Register(s Strategy) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.registry = append(e.registry, s)
}

// SetMemoryCriticalMB updates the verification threshold on config reload.
func (e *Engine) SetMemoryCriticalMB(mb float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.memCritMB = mb
}

// Select resolves strategy types against the registry, preserving
// registration order and dropping duplicates and unhandled types.
func (e *Engine) Select(types []Type) []Strategy {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []Strategy
	seen := make(map[Type]bool)
	for _, s := range e.registry {
		if seen[s.Name()] {
			continue
		}
		for _, t := range types {
			if s.CanHandle(t) {
				seen[s.Name()] = true
				out = append(out, s)
				break
			}
		}
	}
	return out
}

// All returns every registered strategy in registration order.
func (e *Engine) All() []Strategy {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Strategy, len(e.registry))
	copy(out, e.registry)
	return out
}

// Run executes the given strategies sequentially. A strategy error is
// logged and does not stop the remaining strategies.
func (e *Engine) Run(ctx context.Context, strategies []Strategy) []Type {
	executed := make([]Type, 0, len(strategies))
	for _, s := range strategies {
		if e.logger != nil {
			e.logger.Info("executing recovery strategy", "strategy", string(s.Name()))
		}
		if err := s.Execute(ctx); err != nil {
			if e.logger != nil {
				e.logger.Warn("recovery strategy failed", "strategy", string(s.Name()), "error", err)
			}
		}
		executed = append(executed, s.Name())
	}
	return executed
}

// Verify re-runs the health probes and checks the immediate environment.
// Recovery counts as successful when the fresh status is better than
// critical, connectivity is not in an error state, and resident memory is
// below the critical threshold.
func (e *Engine) Verify(ctx context.Context) bool {
	snapshot := e.checker.Check(ctx)
	if snapshot.Status == health.StatusCritical {
		return false
	}

	if e.connectivity != nil && e.connectivity.Status() == collab.ConnectivityError {
		return false
	}

	if e.perfSource != nil {
		if sample, err := e.perfSource.Sample(); err == nil {
			e.mu.RLock()
			limit := e.memCritMB
			e.mu.RUnlock()
			if limit > 0 && sample.ResidentMB >= limit {
				return false
			}
		}
	}

	return true
}

// Attempt runs the strategies selected for the given types, verifies, and
// on failure escalates exactly once to the full registry before the final
// verification. Idempotent strategies make a repeated attempt safe.
func (e *Engine) Attempt(ctx context.Context, types []Type) Outcome {
	executed := e.Run(ctx, e.Select(types))

	if e.Verify(ctx) {
		return Outcome{Succeeded: true, Strategies: executed}
	}

	if e.logger != nil {
		e.logger.Warn("recovery verification failed, escalating to all strategies")
	}
	executed = append(executed, e.Run(ctx, e.All())...)

	return Outcome{
		Succeeded:  e.Verify(ctx),
		Escalated:  true,
		Strategies: executed,
	}
}
