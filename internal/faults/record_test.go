package faults

import (
	"testing"
)

func TestClassifySignals(t *testing.T) {
	cases := []struct {
		signal string
		want   Cause
	}{
		{"SIGSEGV", CauseMemoryCorruption},
		{"SIGBUS", CauseMemoryCorruption},
		{"SIGILL", CauseMemoryCorruption},
		{"SIGABRT", CauseAssertionFailure},
		{"SIGFPE", CauseArithmeticError},
		{"sigsegv", CauseMemoryCorruption}, // case-insensitive
	}

	for _, tc := range cases {
		causes := Classify(KindCrash, tc.signal, "")
		if len(causes) != 1 || causes[0] != tc.want {
			t.Errorf("Classify(%q) = %v, want [%v]", tc.signal, causes, tc.want)
		}
	}
}

func TestClassifyUnknownSignal(t *testing.T) {
	causes := Classify(KindCrash, "SIGWEIRD", "")
	if len(causes) != 1 || causes[0] != CauseUnknownSignal {
		t.Errorf("Classify = %v, want [unknown_signal]", causes)
	}
}

func TestClassifyExceptionAlwaysUnhandled(t *testing.T) {
	causes := Classify(KindException, "", "")
	if len(causes) != 1 || causes[0] != CauseUnhandledException {
		t.Errorf("Classify = %v, want [unhandled_exception]", causes)
	}
}

func TestClassifyStackSubstrings(t *testing.T) {
	cases := []struct {
		stack string
		want  Cause
	}{
		{"goroutine 1: net/http.(*Client).Do", CauseNetworkFrameworkError},
		{"dial tcp 10.0.0.1:443: timeout", CauseNetworkFrameworkError},
		{"assertion failed: index in range", CauseAssertionFailure},
		{"app/internal/ui/render.go:42", CauseUIFrameworkError},
		{"reading preferences: unexpected EOF", CausePreferencesCorruption},
		{"runtime error: divide by zero", CauseArithmeticError},
	}

	for _, tc := range cases {
		causes := Classify(KindCrash, "", tc.stack)
		found := false
		for _, c := range causes {
			if c == tc.want {
				found = true
			}
		}
		if !found {
			t.Errorf("Classify(stack=%q) = %v, want to include %v", tc.stack, causes, tc.want)
		}
	}
}

func TestClassifyDeduplicates(t *testing.T) {
	causes := Classify(KindCrash, "SIGSEGV", "something something sigsegv memory")
	seen := make(map[Cause]int)
	for _, c := range causes {
		seen[c]++
		if seen[c] > 1 {
			t.Errorf("cause %v duplicated in %v", c, causes)
		}
	}
}

func TestSeverityFor(t *testing.T) {
	cases := []struct {
		causes []Cause
		want   Severity
	}{
		{[]Cause{CauseMemoryCorruption}, SeverityCritical},
		{[]Cause{CauseAssertionFailure}, SeverityCritical},
		{[]Cause{CauseUnhandledException, CauseAssertionFailure}, SeverityCritical},
		{[]Cause{CauseUnhandledException}, SeverityModerate},
		{[]Cause{CauseNetworkFrameworkError}, SeverityModerate},
		{[]Cause{CauseUIFrameworkError}, SeverityLow},
		{[]Cause{CauseUnknownSignal}, SeverityLow},
		{nil, SeverityLow},
	}

	for _, tc := range cases {
		if got := SeverityFor(tc.causes); got != tc.want {
			t.Errorf("SeverityFor(%v) = %v, want %v", tc.causes, got, tc.want)
		}
	}
}
