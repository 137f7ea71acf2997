package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check that a pipeline configuration loads and compiles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			plan, err := loadPlan(cmd.Context(), configPath)
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Pipeline: %s\n", plan.Config.Metadata.Name)
			for _, u := range plan.Config.Units {
				fmt.Fprintf(out, "  %s (%s)\n", u.ID, u.Type)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Pipeline configuration (YAML) (required)")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}
