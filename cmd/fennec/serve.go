package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/fennec/internal/account"
	"github.com/dgallion1/fennec/internal/api"
	"github.com/dgallion1/fennec/internal/auth"
	"github.com/dgallion1/fennec/internal/config"
	"github.com/dgallion1/fennec/internal/enrich"
	"github.com/dgallion1/fennec/internal/identity"
	"github.com/dgallion1/fennec/internal/pipeline"
	"github.com/dgallion1/fennec/internal/retrieval"
	"github.com/dgallion1/fennec/internal/will"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), a)
		},
	}
	cmd.Flags().String("port", "", "listen port (default 8000)")
	_ = a.v.BindPFlag("port", cmd.Flags().Lookup("port"))
	return cmd
}

func runServe(ctx context.Context, a *app) error {
	cfg := a.cfg
	if err := cfg.Validate(config.ModeServe); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	log := newLogger(os.Stdout, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	validator, err := will.NewValidator()
	if err != nil {
		return err
	}

	embedder := a.embedder()
	clerk := identity.NewClient(cfg.ClerkAPIBaseURL, cfg.ClerkSecretKey, cfg.IdentityTimeout)
	defer clerk.Close()

	ingester := pipeline.NewIngester(embedder, st, pipeline.IngestConfigFrom(cfg), log)
	orch := pipeline.NewOrchestrator(ingester, cfg.MaxQueueSize, cfg.JobTTL, log)

	deps := api.Deps{
		Store:        st,
		Validator:    validator,
		Wills:        account.NewService(clerk, st, log),
		Verifier:     auth.NewVerifier(cfg.SecretKey),
		Searcher:     retrieval.NewSearcher(embedder, st, cfg.Jurisdiction),
		Orchestrator: orch,
	}

	// Uploaded chapters are classified as soon as they are stored.
	if cfg.AnthropicAPIKey != "" {
		stats := enrich.NewLLMStats(time.Hour)
		claude := enrich.NewClaudeClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, "", stats)
		defer claude.Close()
		enricher := enrich.NewEnricher(claude, st, log)
		orch.SetAfterIngest(func(ctx context.Context, job *pipeline.Job) {
			sum, err := enricher.Run(ctx, 0)
			if err != nil {
				log.Error("enrichment failed", "job_id", job.ID, "error", err)
				return
			}
			log.Info("enrichment complete", "job_id", job.ID, "classified", sum.Classified, "failed", sum.Failed)
		})
		deps.LLMStats = stats
		deps.LLMModel = cfg.AnthropicModel
	}

	orch.Start(ctx)
	defer orch.Stop()

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewServer(deps, log, cfg),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting fennec", "port", cfg.Port, "store", cfg.StoreBackend, "version", cfg.AppVersion)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
