package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionCommand(t *testing.T) {
	SetVersion("1.2.3", "abc123", "2026-01-01")

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if !strings.Contains(out, "sentinel 1.2.3") {
		t.Errorf("output missing version: %q", out)
	}
	if !strings.Contains(out, "abc123") {
		t.Errorf("output missing commit: %q", out)
	}
}

func TestUnknownCommand(t *testing.T) {
	rootCmd.SetArgs([]string{"definitely-not-a-command"})
	if err := rootCmd.Execute(); err == nil {
		t.Error("expected error for unknown command")
	}
	rootCmd.SetArgs(nil)
}
