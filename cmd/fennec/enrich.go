package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dgallion1/fennec/internal/config"
	"github.com/dgallion1/fennec/internal/enrich"
)

func newEnrichCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Classify stored chunks that have no content type yet",
		Long: `Ask the configured Anthropic model to tag each unclassified chunk with a
content type, a complexity level and up to five topic tags. Text and
embeddings are left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.Validate(config.ModeEnrich); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			log := newLogger(cmd.ErrOrStderr(), a.cfg.LogLevel)

			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			stats := enrich.NewLLMStats(24 * time.Hour)
			claude := enrich.NewClaudeClient(a.cfg.AnthropicAPIKey, a.cfg.AnthropicModel, "", stats)
			defer claude.Close()

			sum, err := enrich.NewEnricher(claude, st, log).Run(ctx, limit)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Considered: %d\n", sum.Considered)
			color.New(color.FgGreen).Fprintf(out, "Classified: %d\n", sum.Classified)
			if sum.Failed > 0 {
				color.New(color.FgRed).Fprintf(out, "Failed:     %d\n", sum.Failed)
				for _, e := range sum.Errors {
					fmt.Fprintf(out, "  - %s\n", e)
				}
			}
			snap, _ := json.Marshal(stats.Snapshot())
			fmt.Fprintf(out, "Latency:    %s\n", snap)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum chunks to classify (0 = all)")
	return cmd
}
