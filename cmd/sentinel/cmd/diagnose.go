package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wangwenjie1314/sentinel/internal/logging"
)

var diagnoseQuick bool

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "Run a diagnosis and print it as JSON",
	RunE:  runDiagnose,
}

func init() {
	diagnoseCmd.Flags().BoolVar(&diagnoseQuick, "quick", false,
		"cheap diagnosis from current state, without re-running probes")
	rootCmd.AddCommand(diagnoseCmd)
}

func runDiagnose(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	sup, err := buildSupervisor(cfg, logging.NewNop())
	if err != nil {
		return err
	}
	defer sup.close()

	sup.sampler.SampleOnce(cmd.Context())

	var report interface{}
	if diagnoseQuick {
		report = sup.tool.Quick()
	} else {
		report = sup.tool.Comprehensive(cmd.Context())
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling diagnosis: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
