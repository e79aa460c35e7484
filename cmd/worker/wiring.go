package main

import (
	"context"
	"net/http"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"articlegen/internal/adapter/repo"
	"articlegen/internal/infra"
	"articlegen/internal/infra/credentials"
	"articlegen/internal/providers/llm"
	"articlegen/internal/staticcfg"
	"articlegen/internal/storage"
)

// buildLLMRouter registers a client for every provider that has a key. The
// configured default provider is the fallback when it is available.
func buildLLMRouter(ctx context.Context, cfg *infra.Config, creds *credentials.Store, logger zerolog.Logger) *llm.Router {
	httpClient := &http.Client{Timeout: 120 * time.Second}
	clients := map[string]llm.Client{}

	openAIKey, err := creds.Resolve(ctx, credentials.ProviderOpenAI, cfg.OpenAIAPIKey)
	if err != nil {
		logger.Warn().Err(err).Msg("worker: failed to load openai api key from store")
	}
	if openAIKey != "" {
		client, err := llm.NewOpenAIClient(llm.OpenAIOptions{
			APIKey:       openAIKey,
			Model:        cfg.OpenAIModel,
			BaseURL:      cfg.OpenAIBaseURL,
			Organization: cfg.OpenAIOrg,
			HTTPClient:   httpClient,
			OnWarning: func(reason, detail string) {
				logger.Warn().Str("reason", reason).Str("detail", detail).Msg("worker: openai model adjusted")
			},
		})
		if err != nil {
			logger.Error().Err(err).Msg("worker: failed to configure openai client")
		} else {
			clients[llm.ProviderOpenAI] = client
		}
	}

	geminiKey, err := creds.Resolve(ctx, credentials.ProviderGemini, cfg.GeminiAPIKey)
	if err != nil {
		logger.Warn().Err(err).Msg("worker: failed to load gemini api key from store")
	}
	if geminiKey != "" {
		client, err := llm.NewGeminiClient(llm.GeminiOptions{
			APIKey:     geminiKey,
			Model:      cfg.GeminiModel,
			BaseURL:    cfg.GeminiBaseURL,
			HTTPClient: httpClient,
		})
		if err != nil {
			logger.Error().Err(err).Msg("worker: failed to configure gemini client")
		} else {
			clients[llm.ProviderGemini] = client
		}
	}

	fallback := cfg.DefaultProvider
	if _, ok := clients[fallback]; !ok {
		for _, name := range []string{llm.ProviderOpenAI, llm.ProviderGemini} {
			if _, ok := clients[name]; ok {
				fallback = name
				break
			}
		}
	}
	router := llm.NewRouter(fallback, clients)
	if len(clients) == 0 {
		logger.Warn().Msg("worker: no llm provider configured, every job will fail at research")
	} else {
		logger.Info().Strs("providers", router.Providers()).Str("fallback", fallback).Msg("worker: llm providers ready")
	}
	return router
}

func buildAssetStore(cfg *infra.Config) (storage.AssetStore, error) {
	if cfg.StorageBackend == infra.StorageMinio {
		store, err := storage.NewMinioStore(storage.MinioOptions{
			Endpoint:      cfg.MinioEndpoint,
			AccessKey:     cfg.MinioAccessKey,
			SecretKey:     cfg.MinioSecretKey,
			Bucket:        cfg.MinioBucket,
			UseSSL:        cfg.MinioUseSSL,
			PublicBaseURL: cfg.MinioPublicURL,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	path := cfg.StoragePath
	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}
	store, err := storage.NewFileStore(path, cfg.StorageBaseURL)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// buildConfigSource prefers a static YAML file over the database.
func buildConfigSource(cfg *infra.Config, sql infra.SQLExecutor) (staticcfg.Source, error) {
	if cfg.StaticConfigFile != "" {
		return staticcfg.LoadFile(cfg.StaticConfigFile)
	}
	return repo.NewSettingsRepository(sql), nil
}
