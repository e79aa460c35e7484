package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"articlegen/internal/adapter/repo"
	httpapi "articlegen/internal/http"
	"articlegen/internal/infra"
	"articlegen/internal/infra/credentials"
	"articlegen/internal/observability"
	"articlegen/internal/outline"
	"articlegen/internal/pipeline"
	"articlegen/internal/providers/genai"
	imagegen "articlegen/internal/providers/image"
	"articlegen/internal/retry"
	"articlegen/internal/stages"
	"articlegen/internal/staticcfg"
)

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)
	creds := credentials.NewStore(runner)

	textClient := buildLLMRouter(ctx, cfg, creds, logger)

	geminiKey, err := creds.Resolve(ctx, credentials.ProviderGemini, cfg.GeminiAPIKey)
	if err != nil {
		logger.Warn().Err(err).Msg("worker: failed to load gemini api key from store")
	}
	imageClient := genai.NewClient(genai.Options{
		APIKey:     geminiKey,
		BaseURL:    cfg.GeminiBaseURL,
		Model:      cfg.GeminiImageModel,
		HTTPClient: &http.Client{Timeout: 90 * time.Second},
		Logger:     logger,
	})
	if imageClient.Synthetic() {
		logger.Warn().Str("model", imageClient.Model()).Msg("worker: gemini api key missing, using synthetic images")
	}

	assets, err := buildAssetStore(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure storage")
	}

	source, err := buildConfigSource(cfg, runner)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to load static config")
	}

	imageRunner := retry.NewRunner(
		retry.Policy{MaxAttempts: cfg.ImageMaxAttempts, Delays: cfg.ImageRetryDelays},
		retry.WithAttemptHook(func(a retry.Attempt) {
			if a.Err != nil {
				logger.Debug().Err(a.Err).Int("attempt", a.Index+1).Msg("worker: image attempt failed")
			}
		}),
	)

	registry := observability.NewRegistry()
	jobs := repo.NewJobRepository(runner, cfg.JobStaleAfter)
	coordinator, err := pipeline.NewCoordinator(
		staticcfg.NewLoader(source, cfg.RecentArticleWindow),
		pipeline.Stages{
			Research: stages.NewResearch(textClient),
			Strategy: stages.NewStrategy(textClient, outline.NewChain(logger)),
			Writing:  stages.NewWriting(textClient),
			Image:    stages.NewImage(imagegen.NewGeminiGenerator(imageClient, assets), imageRunner, cfg.ImageConcurrency, logger),
			Meta:     stages.NewMeta(textClient, logger),
		},
		jobs,
		pipeline.Options{
			Observer: pipeline.Observers{
				pipeline.LogObserver{Logger: logger},
				pipeline.MetricsObserver{Registry: registry},
			},
		},
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to build pipeline")
	}

	if metrics := infra.NewMetricsServer(cfg.WorkerMetricsAddr, cfg, httpapi.NewMetricsRouter(registry.Handler())); metrics != nil {
		go func() {
			logger.Info().Str("addr", metrics.Addr()).Msg("worker: metrics listening")
			if err := metrics.Start(); err != nil {
				logger.Error().Err(err).Msg("worker: metrics server failed")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metrics.Shutdown(shutdownCtx)
		}()
	}

	worker := newJobWorker(jobs, coordinator, logger, cfg.JobPollInterval, cfg.JobTimeout)
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}
