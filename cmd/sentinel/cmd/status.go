package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wangwenjie1314/sentinel/internal/logging"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Run one health check and print the stability report",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	// One-shot command: keep the terminal clean of log output.
	sup, err := buildSupervisor(cfg, logging.NewNop())
	if err != nil {
		return err
	}
	defer sup.close()

	sup.sampler.SampleOnce(cmd.Context())
	snapshot, err := sup.orch.CheckNow(cmd.Context())
	if err != nil {
		return err
	}
	report := sup.orch.Report()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Health:          %s (score %.0f)\n", snapshot.Status, snapshot.Score)
	fmt.Fprintf(out, "Stability score: %.0f\n", report.StabilityScore)
	fmt.Fprintf(out, "Crashes:         %d (%d exceptions)\n", report.CrashCount, report.ExceptionCount)
	fmt.Fprintf(out, "Recovery:        %s\n", report.RecoveryStatus)
	if len(snapshot.CriticalIssues) > 0 {
		fmt.Fprintln(out, "Critical issues:")
		for _, issue := range snapshot.CriticalIssues {
			fmt.Fprintf(out, "  - [%s] %s\n", issue.Type, issue.Description)
		}
	}
	if len(snapshot.Warnings) > 0 {
		fmt.Fprintln(out, "Warnings:")
		for _, issue := range snapshot.Warnings {
			fmt.Fprintf(out, "  - [%s] %s\n", issue.Type, issue.Description)
		}
	}
	return nil
}
