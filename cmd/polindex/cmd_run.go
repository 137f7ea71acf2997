package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ahrav/go-polindex/infrastructure/jsonio"
	"github.com/ahrav/go-polindex/infrastructure/middleware"
	"github.com/ahrav/go-polindex/internal/application"
	"github.com/ahrav/go-polindex/internal/logging"
)

type runFlags struct {
	config      string
	input       string
	output      string
	metricsFile string
}

func newRunCmd() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Compute the policy report for a classified corpus",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPipeline(cmd, flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.config, "config", "", "Pipeline configuration (YAML); built-in default when empty")
	f.StringVar(&flags.input, "input", "", "Corpus JSON; overrides the configuration's input")
	f.StringVar(&flags.output, "output", "", "Report JSON; overrides the configuration's output")
	f.StringVar(&flags.metricsFile, "metrics-file", "", "Write Prometheus metrics in text format to this file")
	return cmd
}

func runPipeline(cmd *cobra.Command, flags runFlags) error {
	ctx := cmd.Context()
	logger := logging.New("cli")

	plan, err := loadPlan(ctx, flags.config)
	if err != nil {
		logger.Error("failed to load configuration", slog.String("config", flags.config), slog.Any("error", err))
		return fmt.Errorf("load config: %w", err)
	}

	input := firstNonEmpty(flags.input, plan.Config.Input)
	output := firstNonEmpty(flags.output, plan.Config.Output)
	if input == "" || output == "" {
		return fmt.Errorf("input and output paths are required")
	}

	corpus, err := jsonio.NewFileCorpusReader().Read(ctx, input)
	if err != nil {
		logger.Error("failed to read corpus", slog.String("input", input), slog.Any("error", err))
		return fmt.Errorf("read corpus: %w", err)
	}

	metrics := middleware.NewPrometheusMetrics()
	engine, err := application.NewEngine(plan.Pipeline,
		application.WithMetrics(metrics),
		application.WithObserver(middleware.NewOTelStageObserver(metrics)),
	)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	report, runErr := engine.Run(ctx, corpus)

	// Metrics are written on failure too; they describe the failed run.
	if flags.metricsFile != "" {
		if err := metrics.WriteTextfile(flags.metricsFile); err != nil {
			logger.Warn("failed to write metrics", slog.String("path", flags.metricsFile), slog.Any("error", err))
		}
	}
	if runErr != nil {
		return fmt.Errorf("run: %w", runErr)
	}

	if err := jsonio.NewFileReportWriter().Write(ctx, output, report); err != nil {
		logger.Error("failed to write report", slog.String("output", output), slog.Any("error", err))
		return fmt.Errorf("write report: %w", err)
	}

	logger.Info("report written",
		slog.String("output", output),
		slog.Int("policies", len(report)))
	fmt.Fprintf(cmd.OutOrStdout(), "Report: %s\n", output)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
