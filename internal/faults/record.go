// Package faults durably records crashes and unhandled exceptions across
// restarts, classifies their causes, and answers recency queries for the
// crash-recovery state machine.
package faults

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind distinguishes crash records from exception records.
type Kind string

const (
	KindCrash     Kind = "crash"
	KindException Kind = "exception"
)

// Cause is a classified fault cause tag.
type Cause string

const (
	CauseMemoryCorruption      Cause = "memory_corruption"
	CauseAssertionFailure      Cause = "assertion_failure"
	CauseUnhandledException    Cause = "unhandled_exception"
	CauseNetworkFrameworkError Cause = "network_framework_error"
	CauseUIFrameworkError      Cause = "ui_framework_error"
	CausePreferencesCorruption Cause = "preferences_corruption"
	CauseArithmeticError       Cause = "arithmetic_error"
	CauseUnknownSignal         Cause = "unknown_signal"
)

// Severity grades a fault by its classified causes.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityModerate Severity = "moderate"
	SeverityLow      Severity = "low"
)

// Record is one durable fault entry. Append-only; never mutated after
// creation.
type Record struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Kind       Kind      `json:"kind"`
	Signal     string    `json:"signal,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	StackTrace string    `json:"stack_trace,omitempty"`
	AppVersion string    `json:"app_version"`
	Causes     []Cause   `json:"causes"`
	Severity   Severity  `json:"severity"`
}

func newRecord(kind Kind, signal, reason, stack, appVersion string) Record {
	causes := Classify(kind, signal, stack)
	return Record{
		ID:         uuid.NewString(),
		Timestamp:  time.Now(),
		Kind:       kind,
		Signal:     signal,
		Reason:     reason,
		StackTrace: stack,
		AppVersion: appVersion,
		Causes:     causes,
		Severity:   SeverityFor(causes),
	}
}

var signalCauses = map[string]Cause{
	"SIGSEGV": CauseMemoryCorruption,
	"SIGBUS":  CauseMemoryCorruption,
	"SIGILL":  CauseMemoryCorruption,
	"SIGABRT": CauseAssertionFailure,
	"SIGFPE":  CauseArithmeticError,
}

var stackCauses = []struct {
	substring string
	cause     Cause
}{
	{"assertion", CauseAssertionFailure},
	{"net/http", CauseNetworkFrameworkError},
	{"dial tcp", CauseNetworkFrameworkError},
	{"connection refused", CauseNetworkFrameworkError},
	{"/ui/", CauseUIFrameworkError},
	{"menubar", CauseUIFrameworkError},
	{"preferences", CausePreferencesCorruption},
	{"prefs", CausePreferencesCorruption},
	{"divide by zero", CauseArithmeticError},
	{"integer overflow", CauseArithmeticError},
}

// Classify maps a fault's signal and stack-trace contents to cause tags.
// A crash whose signal is unrecognized and whose stack yields nothing is
// tagged unknown_signal; an exception always carries unhandled_exception.
func Classify(kind Kind, signal, stack string) []Cause {
	var causes []Cause
	seen := make(map[Cause]bool)
	add := func(c Cause) {
		if !seen[c] {
			seen[c] = true
			causes = append(causes, c)
		}
	}

	if kind == KindException {
		add(CauseUnhandledException)
	}

	if signal != "" {
		if cause, ok := signalCauses[strings.ToUpper(signal)]; ok {
			add(cause)
		}
	}

	lower := strings.ToLower(stack)
	for _, sc := range stackCauses {
		if strings.Contains(lower, sc.substring) {
			add(sc.cause)
		}
	}

	if len(causes) == 0 {
		add(CauseUnknownSignal)
	}
	return causes
}

// SeverityFor grades a cause set. Memory corruption and assertion
// failures are critical; unhandled exceptions and network framework
// errors moderate; everything else low.
func SeverityFor(causes []Cause) Severity {
	moderate := false
	for _, c := range causes {
		switch c {
		case CauseMemoryCorruption, CauseAssertionFailure:
			return SeverityCritical
		case CauseUnhandledException, CauseNetworkFrameworkError:
			moderate = true
		}
	}
	if moderate {
		return SeverityModerate
	}
	return SeverityLow
}
