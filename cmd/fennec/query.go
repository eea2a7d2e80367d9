package main

import (
	"encoding/json"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/dgallion1/fennec/internal/config"
	"github.com/dgallion1/fennec/internal/retrieval"
	"github.com/dgallion1/fennec/internal/tui"
)

func newQueryCmd(a *app) *cobra.Command {
	var (
		query        string
		k            int
		jurisdiction string
		asJSON       bool
		interactive  bool
	)
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Search the manual by similarity",
		Long: `Embed a question and print the nearest manual passages.

Examples:
  fennec query -q "can a witness inherit"
  fennec query -q "usufruct" -k 10 --json
  fennec query -i                           # interactive search`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if query == "" && !interactive {
				return errors.New("--query is required unless --interactive is set")
			}
			if err := a.cfg.Validate(config.ModeQuery); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if k <= 0 {
				k = a.cfg.SearchK
			}
			ctx := cmd.Context()

			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
			searcher := retrieval.NewSearcher(a.embedder(), st, a.cfg.Jurisdiction)

			if interactive {
				n, err := st.CountChunks(ctx)
				if err != nil {
					return err
				}
				jur := jurisdiction
				if jur == "" {
					jur = a.cfg.Jurisdiction
				}
				summary := fmt.Sprintf("%d chunks in store | jurisdiction %s | top %d", n, jur, k)
				_, err = tea.NewProgram(tui.New(ctx, searcher, k, jur, summary), tea.WithAltScreen()).Run()
				return err
			}

			results, err := searcher.Search(ctx, query, k, jurisdiction)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}
			return retrieval.FormatResults(cmd.OutOrStdout(), results)
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "question to search for")
	cmd.Flags().IntVarP(&k, "top-k", "k", 0, "number of results (default from SEARCH_K)")
	cmd.Flags().StringVar(&jurisdiction, "jurisdiction", "", "jurisdiction filter (default from JURISDICTION)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "open the interactive search UI")
	return cmd
}
