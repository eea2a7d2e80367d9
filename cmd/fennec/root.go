package main

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgallion1/fennec/internal/config"
	"github.com/dgallion1/fennec/internal/embedding"
	"github.com/dgallion1/fennec/internal/store"
)

// app holds state shared by every subcommand.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "fennec",
		Short: "Fennec - drafting-of-wills manual retrieval and will intake API",
		Long: `Fennec ingests the "Drafting of Wills" chapter of the estates manual into a
vector store, answers similarity queries over it, and serves the will intake API.

Example usage:
  fennec ingest manual/chapter5.pdf       # Chunk, embed and store the chapter
  fennec query -q "who may witness a will" # Search the manual
  fennec serve                            # Start the HTTP API`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A missing .env file is fine.
			_ = godotenv.Load()

			cfg, err := config.Load(a.v, a.cfgFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "", "YAML config file (env vars override it)")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.String("store", "", "store backend: postgres or bolt")
	flags.String("bolt-path", "", "bbolt database file for the bolt backend")
	_ = a.v.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("store_backend", flags.Lookup("store"))
	_ = a.v.BindPFlag("bolt_path", flags.Lookup("bolt-path"))

	root.AddCommand(
		newServeCmd(a),
		newIngestCmd(a),
		newQueryCmd(a),
		newValidateCmd(a),
		newTokenCmd(a),
		newEnrichCmd(a),
		newConfigCmd(a),
	)
	return root
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func (a *app) openStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, store.Options{
		Backend:     a.cfg.StoreBackend,
		DatabaseURL: a.cfg.DatabaseURL,
		BoltPath:    a.cfg.BoltPath,
		Dimensions:  a.cfg.EmbeddingDimensions,
		AutoMigrate: a.cfg.AutoMigrate,
	})
}

func (a *app) embedder() *embedding.OpenAIClient {
	return embedding.NewOpenAIClient(a.cfg.OpenAIAPIKey, a.cfg.OpenAIBaseURL, a.cfg.EmbeddingModel, a.cfg.EmbeddingDimensions)
}
