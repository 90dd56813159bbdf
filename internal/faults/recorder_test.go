package faults

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRecorderRoundTrip(t *testing.T) {
	dir := t.TempDir()

	r := NewRecorder(dir, 50, "1.2.3", nil)
	r.RecordCrash("SIGSEGV", "stack here")
	r.RecordException("nil map write", "another stack")
	r.Flush()

	reloaded := NewRecorder(dir, 50, "1.2.3", nil)
	records := reloaded.Records()
	if len(records) != 2 {
		t.Fatalf("reloaded %d records, want 2", len(records))
	}
	if records[0].Kind != KindCrash || records[0].Signal != "SIGSEGV" {
		t.Errorf("first record = %+v", records[0])
	}
	if records[1].Kind != KindException || records[1].Reason != "nil map write" {
		t.Errorf("second record = %+v", records[1])
	}
	if records[0].AppVersion != "1.2.3" {
		t.Errorf("app version = %q", records[0].AppVersion)
	}
	if records[0].ID == "" || records[0].ID == records[1].ID {
		t.Error("expected unique non-empty ids")
	}
}

func TestRecorderBoundedFIFO(t *testing.T) {
	r := NewRecorder(t.TempDir(), 5, "test", nil)

	for i := 0; i < 12; i++ {
		r.RecordException(fmt.Sprintf("fault %d", i), "")
	}

	records := r.Records()
	if len(records) != 5 {
		t.Fatalf("records = %d, want 5", len(records))
	}
	if records[0].Reason != "fault 7" {
		t.Errorf("oldest retained = %q, want fault 7", records[0].Reason)
	}
	if records[4].Reason != "fault 11" {
		t.Errorf("newest = %q, want fault 11", records[4].Reason)
	}
}

// writeHistory persists crafted records for startup tests.
func writeHistory(t *testing.T, dir string, records []Record) {
	t.Helper()
	data, err := json.Marshal(records)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, historyFile), data, 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestNeedsRecoveryWithinWindow(t *testing.T) {
	dir := t.TempDir()
	writeHistory(t, dir, []Record{{
		ID:        "a",
		Timestamp: time.Now().Add(-60 * time.Second),
		Kind:      KindCrash,
		Signal:    "SIGSEGV",
		Causes:    []Cause{CauseMemoryCorruption},
		Severity:  SeverityCritical,
	}})

	r := NewRecorder(dir, 50, "test", nil)
	if !r.NeedsRecovery(5 * time.Minute) {
		t.Error("crash 60s ago should need recovery within a 5m window")
	}
}

func TestNeedsRecoveryOutsideWindow(t *testing.T) {
	dir := t.TempDir()
	writeHistory(t, dir, []Record{{
		ID:        "a",
		Timestamp: time.Now().Add(-600 * time.Second),
		Kind:      KindCrash,
		Signal:    "SIGSEGV",
		Causes:    []Cause{CauseMemoryCorruption},
		Severity:  SeverityCritical,
	}})

	r := NewRecorder(dir, 50, "test", nil)
	if r.NeedsRecovery(5 * time.Minute) {
		t.Error("crash 600s ago should not need recovery within a 5m window")
	}
}

func TestNeedsRecoveryIgnoresExceptions(t *testing.T) {
	dir := t.TempDir()
	writeHistory(t, dir, []Record{
		{ID: "a", Timestamp: time.Now().Add(-10 * time.Minute), Kind: KindCrash},
		{ID: "b", Timestamp: time.Now(), Kind: KindException},
	})

	r := NewRecorder(dir, 50, "test", nil)
	if r.NeedsRecovery(5 * time.Minute) {
		t.Error("a recent exception must not trigger crash recovery")
	}
}

func TestCountSince(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	writeHistory(t, dir, []Record{
		{ID: "a", Timestamp: now.Add(-48 * time.Hour), Kind: KindCrash},
		{ID: "b", Timestamp: now.Add(-2 * time.Hour), Kind: KindCrash},
		{ID: "c", Timestamp: now.Add(-1 * time.Hour), Kind: KindCrash},
		{ID: "d", Timestamp: now.Add(-30 * time.Minute), Kind: KindException},
	})

	r := NewRecorder(dir, 50, "test", nil)
	if got := r.CountSince(KindCrash, now.Add(-24*time.Hour)); got != 2 {
		t.Errorf("crashes in 24h = %d, want 2", got)
	}
	if got := r.CountSince(KindException, now.Add(-24*time.Hour)); got != 1 {
		t.Errorf("exceptions in 24h = %d, want 1", got)
	}
	if got := r.CrashCount(); got != 3 {
		t.Errorf("total crashes = %d, want 3", got)
	}
}

func TestLatestCrashSkipsExceptions(t *testing.T) {
	dir := t.TempDir()
	writeHistory(t, dir, []Record{
		{ID: "a", Timestamp: time.Now().Add(-time.Hour), Kind: KindCrash, Causes: []Cause{CauseNetworkFrameworkError}},
		{ID: "b", Timestamp: time.Now(), Kind: KindException},
	})

	r := NewRecorder(dir, 50, "test", nil)
	record, ok := r.LatestCrash()
	if !ok {
		t.Fatal("expected a crash record")
	}
	if record.ID != "a" {
		t.Errorf("latest crash = %q, want a", record.ID)
	}
	if len(record.Causes) != 1 || record.Causes[0] != CauseNetworkFrameworkError {
		t.Errorf("causes = %v, want the persisted classification", record.Causes)
	}

	if _, ok := NewRecorder(t.TempDir(), 50, "test", nil).LatestCrash(); ok {
		t.Error("empty history must not report a crash")
	}
}

func TestClearIdempotent(t *testing.T) {
	r := NewRecorder(t.TempDir(), 50, "test", nil)
	r.RecordCrash("SIGSEGV", "")

	r.Clear()
	if len(r.Records()) != 0 {
		t.Error("expected empty history after clear")
	}
	r.Clear()
	if len(r.Records()) != 0 {
		t.Error("expected empty history after second clear")
	}
}

func TestCorruptHistoryStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, historyFile), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	r := NewRecorder(dir, 50, "test", nil)
	if len(r.Records()) != 0 {
		t.Error("corrupt history should start empty, not fail")
	}

	// Recorder still works after the bad load.
	r.RecordCrash("SIGSEGV", "")
	if len(r.Records()) != 1 {
		t.Error("expected recorder usable after corrupt load")
	}
}

func TestRecoverAndReturn(t *testing.T) {
	r := NewRecorder(t.TempDir(), 50, "test", nil)

	err := func() (err error) {
		defer r.RecoverAndReturn(&err)
		panic("boom")
	}()

	if err == nil {
		t.Fatal("expected error from recovered panic")
	}
	records := r.Records()
	if len(records) != 1 || records[0].Kind != KindException {
		t.Fatalf("records = %+v, want one exception", records)
	}
	if records[0].StackTrace == "" {
		t.Error("expected stack trace captured")
	}
}
