package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Run the full recovery sequence once",
	RunE:  runRecover,
}

func init() {
	rootCmd.AddCommand(recoverCmd)
}

func runRecover(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	sup, err := buildSupervisor(cfg, logger)
	if err != nil {
		return err
	}
	defer sup.close()

	outcome, err := sup.orch.PerformRecovery(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Recovery succeeded: %v\n", outcome.Succeeded)
	fmt.Fprintf(out, "Escalated:          %v\n", outcome.Escalated)
	fmt.Fprintf(out, "Strategies run:     %d\n", len(outcome.Strategies))
	for _, strategy := range outcome.Strategies {
		fmt.Fprintf(out, "  - %s\n", strategy)
	}
	if !outcome.Succeeded {
		return fmt.Errorf("recovery verification failed")
	}
	return nil
}
