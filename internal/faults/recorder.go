package faults

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/wangwenjie1314/sentinel/internal/fsutil"
)

const historyFile = "faults.json"

// Recorder keeps a bounded, durable, append-only fault history. Writes
// are asynchronous so recording never blocks a timer tick; on write
// failure the recorder degrades to in-memory-only and keeps going.
type Recorder struct {
	path       string
	capacity   int
	appVersion string
	logger     *slog.Logger

	mu      sync.RWMutex
	records []Record

	flushMu sync.Mutex // serializes file writes
}

// NewRecorder creates a recorder persisting under dir and loads any
// existing history. A load failure is logged and starts empty.
func NewRecorder(dir string, capacity int, appVersion string, logger *slog.Logger) *Recorder {
	if capacity <= 0 {
		capacity = 50
	}
	r := &Recorder{
		path:       filepath.Join(dir, historyFile),
		capacity:   capacity,
		appVersion: appVersion,
		logger:     logger,
	}
	r.load()
	return r
}

func (r *Recorder) load() {
	data, err := fsutil.ReadFileScoped(r.path)
	if err != nil {
		if !os.IsNotExist(err) && r.logger != nil {
			r.logger.Warn("fault history unreadable, starting empty", "error", err)
		}
		return
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		if r.logger != nil {
			r.logger.Warn("fault history corrupt, starting empty", "error", err)
		}
		return
	}

	if len(records) > r.capacity {
		records = records[len(records)-r.capacity:]
	}
	r.records = records
}

// RecordCrash appends a crash record and schedules an async flush.
func (r *Recorder) RecordCrash(signal, stack string) Record {
	return r.append(newRecord(KindCrash, signal, "", stack, r.appVersion))
}

// RecordException appends an exception record and schedules an async flush.
func (r *Recorder) RecordException(reason, stack string) Record {
	return r.append(newRecord(KindException, "", reason, stack, r.appVersion))
}

func (r *Recorder) append(record Record) Record {
	r.mu.Lock()
	r.records = append(r.records, record)
	if len(r.records) > r.capacity {
		r.records = r.records[len(r.records)-r.capacity:]
	}
	r.mu.Unlock()

	go r.flush()
	return record
}

// flush persists the current history. Failures are logged, not retried;
// the in-memory history remains authoritative for this process.
func (r *Recorder) flush() {
	r.flushMu.Lock()
	defer r.flushMu.Unlock()

	r.mu.RLock()
	records := make([]Record, len(r.records))
	copy(records, r.records)
	r.mu.RUnlock()

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		if r.logger != nil {
			r.logger.Error("marshaling fault history failed", "error", err)
		}
		return
	}

	if err := fsutil.WriteFileAtomic(r.path, data, 0o600); err != nil {
		if r.logger != nil {
			r.logger.Warn("persisting fault history failed, continuing in-memory", "error", err)
		}
	}
}

// Flush synchronously persists the history. Used at shutdown and in tests.
func (r *Recorder) Flush() {
	r.flush()
}

// Records returns a copy of the fault history, oldest first.
func (r *Recorder) Records() []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}

// Latest returns the most recent record.
func (r *Recorder) Latest() (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.records) == 0 {
		return Record{}, false
	}
	return r.records[len(r.records)-1], true
}

// LatestCrash returns the most recent crash record, skipping exceptions.
func (r *Recorder) LatestCrash() (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.records) - 1; i >= 0; i-- {
		if r.records[i].Kind == KindCrash {
			return r.records[i], true
		}
	}
	return Record{}, false
}

// CrashCount returns the number of crash records in the history.
func (r *Recorder) CrashCount() int { return r.count(KindCrash, time.Time{}) }

// ExceptionCount returns the number of exception records in the history.
func (r *Recorder) ExceptionCount() int { return r.count(KindException, time.Time{}) }

// CountSince returns the number of records of the given kind at or after t.
func (r *Recorder) CountSince(kind Kind, t time.Time) int { return r.count(kind, t) }

func (r *Recorder) count(kind Kind, since time.Time) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, record := range r.records {
		if record.Kind == kind && !record.Timestamp.Before(since) {
			n++
		}
	}
	return n
}

// NeedsRecovery reports whether the most recent crash happened within
// the recency window. Consulted at startup to seed the crash-recovery
// state machine.
func (r *Recorder) NeedsRecovery(window time.Duration) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.records) - 1; i >= 0; i-- {
		if r.records[i].Kind == KindCrash {
			return time.Since(r.records[i].Timestamp) <= window
		}
	}
	return false
}

// Clear drops the in-memory history and truncates the persisted log.
// Idempotent.
func (r *Recorder) Clear() {
	r.mu.Lock()
	r.records = r.records[:0]
	r.mu.Unlock()
	go r.flush()
}

// Path returns the persisted history location.
func (r *Recorder) Path() string { return r.path }

// String implements fmt.Stringer for diagnostics output.
func (r *Recorder) String() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return fmt.Sprintf("faults(%d records, cap %d)", len(r.records), r.capacity)
}
