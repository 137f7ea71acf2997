package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ahrav/go-polindex/internal/application"
	"github.com/ahrav/go-polindex/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

type rootFlags struct {
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	var flags rootFlags

	cmd := &cobra.Command{
		Use:   "polindex",
		Short: "Weighted policy position index for party manifestos",
		Long: "polindex aggregates classifier output for manifesto paragraphs into\n" +
			"weighted left/right statistics per party and policy domain.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level, err := logging.ParseLevel(flags.logLevel)
			if err != nil {
				return err
			}
			switch flags.logFormat {
			case "text", "json":
			default:
				return fmt.Errorf("unknown log format %q (want text or json)", flags.logFormat)
			}
			logging.Init(level, flags.logFormat, cmd.ErrOrStderr())
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	pf.StringVar(&flags.logFormat, "log-format", "text", "Log format: text or json")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newGenerateCmd())
	return cmd
}

// loadPlan compiles the pipeline at path, or the built-in default when path
// is empty.
func loadPlan(ctx context.Context, path string) (*application.Plan, error) {
	loader, err := application.NewConfigLoader(application.NewDefaultUnitRegistry())
	if err != nil {
		return nil, err
	}
	if path == "" {
		return loader.LoadDefault(ctx)
	}
	return loader.LoadFromFile(ctx, path)
}
