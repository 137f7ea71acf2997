package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ahrav/go-polindex/internal/logging"
	"github.com/ahrav/go-polindex/internal/testutils"
)

type generateFlags struct {
	output string
	seed   int64
	opts   testutils.CorpusOptions
}

func newGenerateCmd() *cobra.Command {
	flags := generateFlags{opts: testutils.DefaultCorpusOptions()}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic classified corpus",
		RunE: func(cmd *cobra.Command, _ []string) error {
			corpus, err := testutils.GenerateCorpus(flags.opts, flags.seed)
			if err != nil {
				return err
			}
			if err := testutils.SaveCorpus(corpus, flags.output); err != nil {
				return fmt.Errorf("save corpus: %w", err)
			}

			st := testutils.ComputeCorpusStatistics(corpus)
			logging.New("generate").Info("corpus generated",
				slog.String("output", flags.output),
				slog.Int64("seed", flags.seed),
				slog.Int("parties", st.Parties),
				slog.Int("paragraphs", st.Paragraphs))
			fmt.Fprintf(cmd.OutOrStdout(), "Corpus: %s\n", flags.output)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.output, "output", "", "Corpus JSON path (required)")
	f.Int64Var(&flags.seed, "seed", 1, "Random seed")
	f.IntVar(&flags.opts.Parties, "parties", flags.opts.Parties, "Number of parties")
	f.IntVar(&flags.opts.Paragraphs, "paragraphs", flags.opts.Paragraphs, "Paragraphs per party")
	f.IntVar(&flags.opts.Labels, "labels", flags.opts.Labels, "Number of policy domains to use; 0 uses all")
	f.IntVar(&flags.opts.MaxLabelsPerParagraph, "max-labels", flags.opts.MaxLabelsPerParagraph, "Maximum domains per paragraph")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}
