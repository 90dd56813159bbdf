package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wangwenjie1314/sentinel/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter .sentinel.yaml to the current directory",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := ".sentinel.yaml"
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
