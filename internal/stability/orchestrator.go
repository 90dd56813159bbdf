package stability

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wangwenjie1314/sentinel/internal/collab"
	"github.com/wangwenjie1314/sentinel/internal/events"
	"github.com/wangwenjie1314/sentinel/internal/faults"
	"github.com/wangwenjie1314/sentinel/internal/fsutil"
	"github.com/wangwenjie1314/sentinel/internal/health"
	"github.com/wangwenjie1314/sentinel/internal/perf"
	"github.com/wangwenjie1314/sentinel/internal/recovery"
)

const stateFile = "appstate.json"

// ErrNotRunning is returned when a command is submitted after Stop.
var ErrNotRunning = errors.New("orchestrator stopped")

// Options wires the orchestrator's collaborators and policy knobs.
type Options struct {
	Aggregator *health.Aggregator
	Sampler    *perf.Sampler
	Recorder   *faults.Recorder
	Engine     *recovery.Engine
	Controller collab.ComponentController
	Cache      collab.CacheManager
	Bus        *events.Bus
	Logger     *slog.Logger

	HealthInterval     time.Duration
	FlushInterval      time.Duration
	CrashRecencyWindow time.Duration
	FailureLimit       int
	StateDir           string
}

// command is one unit of work for the orchestrator loop.
type command struct {
	fn   func(ctx context.Context)
	done chan struct{}
}

// Orchestrator is the single writer of supervisor state. All mutations
// run on its loop goroutine; external calls are enqueued as commands, so
// a periodic check and an API-triggered recovery can never interleave.
type Orchestrator struct {
	aggregator *health.Aggregator
	sampler    *perf.Sampler
	recorder   *faults.Recorder
	engine     *recovery.Engine
	controller collab.ComponentController
	cache      collab.CacheManager
	bus        *events.Bus
	logger     *slog.Logger

	healthInterval time.Duration
	flushInterval  time.Duration
	recencyWindow  time.Duration
	statePath      string

	cmds     chan command
	stopCh   chan struct{}
	loopDone chan struct{}
	stopped  atomic.Bool
	running  atomic.Bool

	mu                  sync.RWMutex
	failureLimit        int
	recoveryStatus      CrashRecoveryStatus
	consecutiveFailures int
	lastStatus          health.Status
	startedAt           time.Time
}

// New creates an orchestrator. Start launches its loop.
func New(opts Options) *Orchestrator {
	if opts.HealthInterval <= 0 {
		opts.HealthInterval = 30 * time.Second
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = time.Minute
	}
	if opts.FailureLimit <= 0 {
		opts.FailureLimit = 3
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	o := &Orchestrator{
		aggregator:     opts.Aggregator,
		sampler:        opts.Sampler,
		recorder:       opts.Recorder,
		engine:         opts.Engine,
		controller:     opts.Controller,
		cache:          opts.Cache,
		bus:            opts.Bus,
		logger:         opts.Logger,
		healthInterval: opts.HealthInterval,
		flushInterval:  opts.FlushInterval,
		recencyWindow:  opts.CrashRecencyWindow,
		statePath:      filepath.Join(opts.StateDir, stateFile),
		cmds:           make(chan command),
		stopCh:         make(chan struct{}),
		loopDone:       make(chan struct{}),
		failureLimit:   opts.FailureLimit,
		recoveryStatus: RecoveryNone,
		lastStatus:     health.StatusUnknown,
		startedAt:      time.Now(),
	}

	// A crash inside the recency window means the previous run died
	// abnormally; the state machine starts at needs_recovery.
	if o.recorder != nil && o.recorder.NeedsRecovery(o.recencyWindow) {
		o.recoveryStatus = RecoveryNeeded
	}
	return o
}

// Start runs pending crash recovery, then enters the periodic check loop.
func (o *Orchestrator) Start(ctx context.Context) {
	o.running.Store(true)

	go func() {
		defer func() {
			o.running.Store(false)
			close(o.loopDone)
		}()

		if o.RecoveryStatus() == RecoveryNeeded {
			o.logger.Warn("recent crash detected at startup, recovery required")
			o.recoverFromCrash(ctx)
		}

		ticker := time.NewTicker(o.healthInterval)
		defer ticker.Stop()
		flush := time.NewTicker(o.flushInterval)
		defer flush.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-o.stopCh:
				return
			case cmd := <-o.cmds:
				cmd.fn(ctx)
				close(cmd.done)
			case <-ticker.C:
				o.tick(ctx)
			case <-flush.C:
				o.persistState()
			}
		}
	}()
}

// Stop halts the loop and persists a final state snapshot.
func (o *Orchestrator) Stop() {
	if o.stopped.CompareAndSwap(false, true) {
		close(o.stopCh)
		o.persistState()
		if o.recorder != nil {
			o.recorder.Flush()
		}
	}
}

// do runs fn on the loop goroutine and waits for it. When the loop is
// not running, fn executes inline; nothing else mutates state then.
func (o *Orchestrator) do(ctx context.Context, fn func(ctx context.Context)) error {
	if !o.running.Load() {
		fn(ctx)
		return nil
	}

	cmd := command{fn: fn, done: make(chan struct{})}
	select {
	case o.cmds <- cmd:
	case <-o.loopDone:
		return ErrNotRunning
	case <-o.stopCh:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-cmd.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// tick runs one scheduled health check and applies the reaction policy.
// Ticks run on the loop goroutine, so a slow check simply absorbs the
// following tick instead of overlapping it.
func (o *Orchestrator) tick(ctx context.Context) health.Snapshot {
	snapshot := o.aggregator.Check(ctx)

	o.mu.Lock()
	previous := o.lastStatus
	o.lastStatus = snapshot.Status
	o.mu.Unlock()

	if snapshot.IsHealthy() {
		o.mu.Lock()
		o.consecutiveFailures = 0
		recovered := o.recoveryStatus == RecoveryCompleted
		if recovered {
			o.recoveryStatus = RecoveryNone
		}
		o.mu.Unlock()
		if recovered {
			o.logger.Info("health stable after recovery, state machine reset")
		}
		return snapshot
	}

	o.mu.Lock()
	o.consecutiveFailures++
	failures := o.consecutiveFailures
	limit := o.failureLimit
	o.mu.Unlock()

	if failures >= limit {
		o.logger.Warn("consecutive failure limit reached, forcing full recovery",
			"failures", failures, "limit", limit)
		o.performRecovery(ctx)
		o.mu.Lock()
		o.consecutiveFailures = 0
		o.mu.Unlock()
		return snapshot
	}

	switch snapshot.Status {
	case health.StatusCritical:
		if previous != health.StatusCritical {
			o.reactToCritical(ctx, snapshot)
		}
	case health.StatusFair, health.StatusPoor:
		o.preventiveRepair(ctx, snapshot)
	}

	return snapshot
}

// reactToCritical runs the strategies addressing the snapshot's critical
// issues, with the engine's usual verify-and-escalate-once behavior.
func (o *Orchestrator) reactToCritical(ctx context.Context, snapshot health.Snapshot) {
	types := recovery.TypesForIssues(snapshot.CriticalIssues)
	o.logger.Error("health entered critical, attempting recovery",
		"score", snapshot.Score, "strategies", len(types))

	outcome := o.engine.Attempt(ctx, types)
	if o.bus != nil {
		o.bus.PublishPriority(events.NewCrashRecoveryCompletedEvent(
			outcome.Succeeded, outcome.Escalated, typeNames(outcome.Strategies)))
	}
	if !outcome.Succeeded {
		o.setRecoveryStatus(RecoveryNeeded)
	}
}

// preventiveRepair runs at most one strategy for a degraded-but-not-
// critical snapshot. A single light action per tick avoids compounding
// disruption while the app is still partially working.
func (o *Orchestrator) preventiveRepair(ctx context.Context, snapshot health.Snapshot) {
	types := recovery.TypesForIssues(snapshot.Warnings)
	if len(types) == 0 {
		return
	}
	strategies := o.engine.Select(types[:1])
	if len(strategies) == 0 {
		return
	}

	strategy := strategies[0]
	err := strategy.Execute(ctx)
	if err != nil {
		o.logger.Warn("preventive repair failed",
			"strategy", string(strategy.Name()), "error", err)
	} else {
		o.logger.Info("preventive repair executed", "strategy", string(strategy.Name()))
	}
	if o.bus != nil {
		o.bus.Publish(events.NewAutoRepairCompletedEvent(string(strategy.Name()), err == nil))
	}
}

// recoverFromCrash runs startup crash recovery. It first attempts the
// strategies keyed to the last crash's classified causes; if there is no
// classified crash or the targeted attempt does not verify, it falls
// back to the full recovery sequence.
func (o *Orchestrator) recoverFromCrash(ctx context.Context) {
	var types []recovery.Type
	if o.recorder != nil {
		if record, ok := o.recorder.LatestCrash(); ok {
			types = recovery.TypesForCauses(record.Causes)
		}
	}
	if len(types) == 0 {
		o.performRecovery(ctx)
		return
	}

	o.setRecoveryStatus(RecoveryInProgress)
	o.logger.Info("attempting cause-keyed crash recovery", "strategies", typeNames(types))

	outcome := o.engine.Attempt(ctx, types)
	if !outcome.Succeeded {
		o.logger.Warn("cause-keyed recovery failed, running full sequence")
		o.performRecovery(ctx)
		return
	}

	o.setRecoveryStatus(RecoveryCompleted)
	if o.bus != nil {
		o.bus.PublishPriority(events.NewCrashRecoveryCompletedEvent(
			outcome.Succeeded, outcome.Escalated, typeNames(outcome.Strategies)))
	}
	o.logger.Info("cause-keyed crash recovery completed", "escalated", outcome.Escalated)
}

// performRecovery drives the full crash-recovery sequence. It always
// lands in recovered or needs_recovery, never stuck in recovering.
func (o *Orchestrator) performRecovery(ctx context.Context) recovery.Outcome {
	o.setRecoveryStatus(RecoveryInProgress)
	o.logger.Info("full recovery started")

	var executed []recovery.Type
	if o.controller != nil {
		if err := o.controller.ResetAll(ctx); err != nil {
			o.logger.Warn("component reset failed", "error", err)
		}
		executed = append(executed, recovery.TypeComponentReset)
	}
	if o.cache != nil {
		if err := o.cache.PurgeAll(ctx); err != nil {
			o.logger.Warn("cache purge failed", "error", err)
		}
		executed = append(executed, recovery.TypeCacheCleanup)
	}
	if o.controller != nil {
		if err := o.controller.ReinitializeCritical(ctx); err != nil {
			o.logger.Warn("critical component reinitialization failed", "error", err)
		}
	}
	o.restoreState()

	succeeded := o.engine.Verify(ctx)
	escalated := false
	if !succeeded {
		o.logger.Warn("recovery verification failed, escalating to all strategies")
		executed = append(executed, o.engine.Run(ctx, o.engine.All())...)
		succeeded = o.engine.Verify(ctx)
		escalated = true
	}

	if succeeded {
		o.setRecoveryStatus(RecoveryCompleted)
		o.logger.Info("full recovery completed", "escalated", escalated)
	} else {
		o.setRecoveryStatus(RecoveryNeeded)
		o.logger.Error("full recovery failed, will retry on next trigger")
	}

	if o.bus != nil {
		o.bus.PublishPriority(events.NewCrashRecoveryCompletedEvent(
			succeeded, escalated, typeNames(executed)))
	}

	return recovery.Outcome{Succeeded: succeeded, Escalated: escalated, Strategies: executed}
}

// CheckNow runs one check cycle, including any reaction it triggers.
func (o *Orchestrator) CheckNow(ctx context.Context) (health.Snapshot, error) {
	var snapshot health.Snapshot
	err := o.do(ctx, func(ctx context.Context) {
		snapshot = o.tick(ctx)
	})
	return snapshot, err
}

// PerformRecovery runs the full recovery sequence on demand.
func (o *Orchestrator) PerformRecovery(ctx context.Context) (recovery.Outcome, error) {
	var outcome recovery.Outcome
	err := o.do(ctx, func(ctx context.Context) {
		outcome = o.performRecovery(ctx)
	})
	return outcome, err
}

// Repair executes a single named strategy and reports success.
func (o *Orchestrator) Repair(ctx context.Context, t recovery.Type) (bool, error) {
	var succeeded bool
	err := o.do(ctx, func(ctx context.Context) {
		strategies := o.engine.Select([]recovery.Type{t})
		if len(strategies) == 0 {
			return
		}
		execErr := strategies[0].Execute(ctx)
		succeeded = execErr == nil
		if o.bus != nil {
			o.bus.Publish(events.NewAutoRepairCompletedEvent(string(t), succeeded))
		}
	})
	return succeeded, err
}

// ClearHistory drops health snapshots, performance samples, and the
// fault history. Idempotent.
func (o *Orchestrator) ClearHistory(ctx context.Context) error {
	return o.do(ctx, func(context.Context) {
		o.aggregator.ClearHistory()
		if o.sampler != nil {
			o.sampler.ClearHistory()
		}
		if o.recorder != nil {
			o.recorder.Clear()
		}
		o.mu.Lock()
		o.consecutiveFailures = 0
		o.lastStatus = health.StatusUnknown
		o.mu.Unlock()
		o.logger.Info("monitoring history cleared")
	})
}

// Report assembles the current stability summary. Read-only; safe to
// call from any goroutine.
func (o *Orchestrator) Report() Report {
	snapshot, _ := o.aggregator.Latest()

	crashes, exceptions := 0, 0
	if o.recorder != nil {
		crashes = o.recorder.CrashCount()
		exceptions = o.recorder.ExceptionCount()
	}

	o.mu.RLock()
	failures := o.consecutiveFailures
	recoveryStatus := o.recoveryStatus
	startedAt := o.startedAt
	o.mu.RUnlock()

	return Report{
		Timestamp:           time.Now(),
		HealthStatus:        snapshot.Status,
		HealthScore:         snapshot.Score,
		StabilityScore:      Score(crashes, exceptions, failures, snapshot.Status),
		CrashCount:          crashes,
		ExceptionCount:      exceptions,
		ConsecutiveFailures: failures,
		RecoveryStatus:      recoveryStatus,
		Uptime:              time.Since(startedAt),
	}
}

// RecoveryStatus returns the crash-recovery state machine position.
func (o *Orchestrator) RecoveryStatus() CrashRecoveryStatus {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.recoveryStatus
}

// SetFailureLimit updates the consecutive-failure limit on config reload.
func (o *Orchestrator) SetFailureLimit(limit int) {
	if limit <= 0 {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failureLimit = limit
}

func (o *Orchestrator) setRecoveryStatus(status CrashRecoveryStatus) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.recoveryStatus = status
}

// appState is the periodically persisted supervisor state, restored
// during crash recovery to report continuity across restarts.
type appState struct {
	SavedAt             time.Time           `json:"saved_at"`
	HealthStatus        health.Status       `json:"health_status"`
	RecoveryStatus      CrashRecoveryStatus `json:"recovery_status"`
	ConsecutiveFailures int                 `json:"consecutive_failures"`
	StabilityScore      float64             `json:"stability_score"`
}

// persistState overwrites the state snapshot on disk.
func (o *Orchestrator) persistState() {
	report := o.Report()
	state := appState{
		SavedAt:             report.Timestamp,
		HealthStatus:        report.HealthStatus,
		RecoveryStatus:      report.RecoveryStatus,
		ConsecutiveFailures: report.ConsecutiveFailures,
		StabilityScore:      report.StabilityScore,
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		o.logger.Error("marshaling app state failed", "error", err)
		return
	}
	if err := fsutil.WriteFileAtomic(o.statePath, data, 0o600); err != nil {
		o.logger.Warn("persisting app state failed", "error", err)
	}
}

// restoreState loads the last persisted snapshot during recovery and
// carries its failure count and last observed status into the current
// state, so the supervisor resumes where the previous run left off. A
// missing or unreadable snapshot is not an error; recovery proceeds
// from a clean slate.
func (o *Orchestrator) restoreState() {
	data, err := fsutil.ReadFileScoped(o.statePath)
	if err != nil {
		return
	}
	var state appState
	if err := json.Unmarshal(data, &state); err != nil {
		o.logger.Warn("persisted app state corrupt, ignoring", "error", err)
		return
	}

	o.mu.Lock()
	o.consecutiveFailures = state.ConsecutiveFailures
	if state.HealthStatus != "" {
		o.lastStatus = state.HealthStatus
	}
	o.mu.Unlock()

	o.logger.Info("restored app state snapshot",
		"saved_at", state.SavedAt.Format(time.RFC3339),
		"health_status", string(state.HealthStatus),
		"consecutive_failures", state.ConsecutiveFailures,
		"stability_score", state.StabilityScore,
	)
}

func typeNames(types []recovery.Type) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}
