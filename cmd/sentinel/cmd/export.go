package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wangwenjie1314/sentinel/internal/diag"
	"github.com/wangwenjie1314/sentinel/internal/logging"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export diagnostic data with full histories",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "json",
		"export format (json, yaml)")
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "",
		"write to file instead of stdout")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
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

	data, err := sup.tool.ExportData(cmd.Context(), diag.Format(exportFormat))
	if err != nil {
		return err
	}

	if exportOut == "" {
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}
	if err := os.WriteFile(exportOut, data, 0o600); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "diagnostic data written to %s\n", exportOut)
	return nil
}
