package faults

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

// pendingFault is the fixed-size slot a fault notification is captured
// into. The capture path only copies bytes into pre-allocated arrays and
// sets a flag; classification and persistence happen later on a normal
// task so the capture path stays cheap even under duress.
type pendingFault struct {
	mu        sync.Mutex
	signal    [32]byte
	signalLen int
	at        int64 // unix nanos
}

// SignalWatcher turns OS fault signals into durable crash records using
// a two-stage capture: minimal raw capture first, deferred classification
// and persistence second.
type SignalWatcher struct {
	recorder *Recorder
	logger   *slog.Logger
	signals  []os.Signal

	pending     pendingFault
	pendingFlag atomic.Bool

	sigCh   chan os.Signal
	stopCh  chan struct{}
	stopped atomic.Bool
}

// NewSignalWatcher creates a watcher for the given signals.
func NewSignalWatcher(recorder *Recorder, logger *slog.Logger, signals ...os.Signal) *SignalWatcher {
	return &SignalWatcher{
		recorder: recorder,
		logger:   logger,
		signals:  signals,
		sigCh:    make(chan os.Signal, 4),
		stopCh:   make(chan struct{}),
	}
}

// Start begins watching. Captured faults are drained shortly after on a
// separate scheduled pass, never inside the capture path.
func (w *SignalWatcher) Start(ctx context.Context) {
	signal.Notify(w.sigCh, w.signals...)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.stopCh:
				return
			case sig := <-w.sigCh:
				w.capture(sig)
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.stopCh:
				return
			case <-ticker.C:
				w.Drain()
			}
		}
	}()
}

// Stop halts the watcher and drains any captured fault.
func (w *SignalWatcher) Stop() {
	if w.stopped.CompareAndSwap(false, true) {
		signal.Stop(w.sigCh)
		close(w.stopCh)
		w.Drain()
	}
}

// capture records raw fault data into the pre-allocated slot.
func (w *SignalWatcher) capture(sig os.Signal) {
	w.pending.mu.Lock()
	name := sig.String()
	w.pending.signalLen = copy(w.pending.signal[:], name)
	w.pending.at = time.Now().UnixNano()
	w.pending.mu.Unlock()
	w.pendingFlag.Store(true)
}

// Drain classifies and persists a captured fault, if any. Safe to call
// from any goroutine; a no-op when nothing is pending.
func (w *SignalWatcher) Drain() {
	if !w.pendingFlag.CompareAndSwap(true, false) {
		return
	}

	w.pending.mu.Lock()
	name := string(w.pending.signal[:w.pending.signalLen])
	w.pending.mu.Unlock()

	record := w.recorder.RecordCrash(name, "")
	if w.logger != nil {
		w.logger.Error("fault signal recorded",
			"signal", name,
			"severity", string(record.Severity),
			"causes", fmt.Sprintf("%v", record.Causes),
		)
	}
}

// RecoverAndRecord is a defer-compatible helper that records a panic as
// an exception before re-panicking.
// Usage: defer recorder.RecoverAndRecord()
func (r *Recorder) RecoverAndRecord() {
	if v := recover(); v != nil {
		record := r.RecordException(fmt.Sprintf("%v", v), string(debug.Stack()))
		r.Flush()
		if r.logger != nil {
			r.logger.Error("panic recorded", "panic", v, "id", record.ID)
		}
		panic(v)
	}
}

// RecoverAndReturn recovers from a panic, records it, and reports it as
// an error instead of re-panicking.
// Usage: defer recorder.RecoverAndReturn(&err)
func (r *Recorder) RecoverAndReturn(errPtr *error) {
	if v := recover(); v != nil {
		record := r.RecordException(fmt.Sprintf("%v", v), string(debug.Stack()))
		r.Flush()
		*errPtr = fmt.Errorf("recovered from panic: %v (record %s)", v, record.ID)
	}
}
