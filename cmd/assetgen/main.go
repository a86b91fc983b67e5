package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"assetgen/internal/infra"
	"assetgen/internal/manifest"
	"assetgen/internal/pipeline"
	"assetgen/internal/providers"
	"assetgen/internal/ratelimit"
	"assetgen/internal/routing"
	"assetgen/internal/storage"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath   string
		projectRoot  string
		outputReport string
	)
	cmd := &cobra.Command{
		Use:   "assetgen",
		Short: "Batch generation of game assets via remote AI providers",
		Long: "assetgen reads a JSON manifest of asset requests, routes each request to a\n" +
			"generation provider, runs the batch concurrently under per-provider rate\n" +
			"limits and persists the artifacts with metadata sidecars and a session report.",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath, projectRoot, outputReport)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "asset manifest file (required)")
	cmd.Flags().StringVar(&projectRoot, "project-root", ".", "project root for generated output")
	cmd.Flags().StringVar(&outputReport, "output-report", "", "session report path (default: <root>/assets/generated/generation_report.json)")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

// run wires the pipeline and executes one batch. Only manifest-level problems
// produce a non-zero exit; individual item failures and skips are reflected
// in the report, not the exit status.
func run(parent context.Context, configPath, projectRoot, outputReport string) error {
	cfg := infra.LoadConfig()
	logger := infra.NewLogger(cfg.AppEnv, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	requests, err := manifest.Load(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("assetgen: manifest load failed")
		return err
	}

	root, err := filepath.Abs(projectRoot)
	if err != nil {
		return fmt.Errorf("assetgen: resolve project root: %w", err)
	}

	store, err := storage.NewArtifactStore(filepath.Join(root, "assets", "generated"), &logger)
	if err != nil {
		logger.Error().Err(err).Msg("assetgen: storage setup failed")
		return err
	}

	clients, limiters, err := buildProviders(cfg, &logger)
	if err != nil {
		logger.Error().Err(err).Msg("assetgen: provider setup failed")
		return err
	}

	orch := pipeline.New(pipeline.Options{
		Table:    routing.DefaultTable(),
		Clients:  clients,
		Limiters: limiters,
		Store:    store,
		Logger:   &logger,
	})

	logger.Info().
		Str("config", configPath).
		Str("project_root", root).
		Int("requests", len(requests)).
		Msg("assetgen: starting pipeline")

	session := orch.Run(ctx, requests)

	reportPath := outputReport
	if reportPath == "" {
		reportPath = pipeline.DefaultReportPath(root)
	}
	if err := pipeline.WriteReport(session, reportPath); err != nil {
		logger.Error().Err(err).Msg("assetgen: report write failed")
		return err
	}
	logger.Info().Str("report", reportPath).Int("generated", session.Succeeded).Msg("assetgen: done")
	return nil
}

// buildProviders instantiates one client and one shared rate limiter per
// provider from the environment-driven configuration.
func buildProviders(cfg *infra.Config, logger *infra.Logger) (map[string]providers.Client, map[string]*ratelimit.Limiter, error) {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	clients := map[string]providers.Client{
		routing.ProviderNanoBanana: providers.NewNanoBanana(providers.NanoBananaOptions{
			APIKey:     cfg.NanoBanana.APIKey,
			BaseURL:    cfg.NanoBanana.BaseURL,
			HTTPClient: httpClient,
			Logger:     logger,
		}),
		routing.ProviderStability: providers.NewStability(providers.StabilityOptions{
			APIKey:     cfg.Stability.APIKey,
			BaseURL:    cfg.Stability.BaseURL,
			HTTPClient: httpClient,
			Logger:     logger,
		}),
		routing.ProviderMidjourney: providers.NewMidjourney(providers.MidjourneyOptions{
			APIKey:     cfg.Midjourney.APIKey,
			BaseURL:    cfg.Midjourney.BaseURL,
			HTTPClient: httpClient,
			Logger:     logger,
		}),
		routing.ProviderElevenLabs: providers.NewElevenLabs(),
	}

	quotas := map[string]int{
		routing.ProviderNanoBanana: cfg.NanoBanana.RateLimitPerMin,
		routing.ProviderStability:  cfg.Stability.RateLimitPerMin,
		routing.ProviderMidjourney: cfg.Midjourney.RateLimitPerMin,
		routing.ProviderElevenLabs: cfg.ElevenLabs.RateLimitPerMin,
	}
	limiters := make(map[string]*ratelimit.Limiter, len(quotas))
	for provider, quota := range quotas {
		limiter, err := ratelimit.NewLimiter(quota)
		if err != nil {
			return nil, nil, fmt.Errorf("assetgen: limiter for %s: %w", provider, err)
		}
		limiters[provider] = limiter
	}
	return clients, limiters, nil
}
