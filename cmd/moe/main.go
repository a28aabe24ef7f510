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

	"go.uber.org/zap"

	"github.com/kailas-cloud/moe/internal/config"
	"github.com/kailas-cloud/moe/internal/credential"
	"github.com/kailas-cloud/moe/internal/db"
	dbRedis "github.com/kailas-cloud/moe/internal/db/redis"
	"github.com/kailas-cloud/moe/internal/domain"
	logpkg "github.com/kailas-cloud/moe/internal/logger"
	"github.com/kailas-cloud/moe/internal/metrics"
	"github.com/kailas-cloud/moe/internal/parser"
	"github.com/kailas-cloud/moe/internal/repository/embcache"
	"github.com/kailas-cloud/moe/internal/repository/knowledge"
	anthropicTransport "github.com/kailas-cloud/moe/internal/transport/anthropic"
	chiTransport "github.com/kailas-cloud/moe/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/moe/internal/transport/openai"
	analyzeuc "github.com/kailas-cloud/moe/internal/usecase/analyze"
	assistantuc "github.com/kailas-cloud/moe/internal/usecase/assistant"
	embeddinguc "github.com/kailas-cloud/moe/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/moe/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/moe/internal/usecase/ingest"
	"github.com/kailas-cloud/moe/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting moe API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.String("completion_provider", cfg.Completion.Provider),
		zap.String("completion_model", cfg.Completion.Model),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterPipelineMetrics()

	creds := credential.NewStore(map[string]string{
		credential.OpenAI:    cfg.Credentials.OpenAIAPIKey,
		credential.Anthropic: cfg.Credentials.AnthropicAPIKey,
	})

	// Optional embedding cache
	var store db.Store
	if cfg.Cache.Enabled {
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer store.Close()

		readiness := time.Duration(cfg.Cache.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(context.Background(), readiness); err != nil {
			logger.Fatal("Cache not ready", zap.Error(err))
		}
		logger.Info("Connected to embedding cache", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	// Document and query embedders share one provider and rate limiter.
	provider := buildProvider(&cfg, creds, logger)
	docEmbedder := buildEmbedder(&cfg, provider, cfg.Embedding.DocumentInstruction, store, logger)
	queryEmbedder := buildEmbedder(&cfg, provider, cfg.Embedding.QueryInstruction, store, logger)

	completer := buildCompleter(&cfg, creds, logger)

	// One index per process: every consumer sees the same knowledge base.
	index := knowledge.NewIndex()

	ingestSvc := ingestuc.New(docEmbedder, index, logger).
		WithChunkWords(cfg.Knowledge.ChunkWords).
		WithConcurrency(cfg.Knowledge.EmbedConcurrency)
	analyzeSvc := analyzeuc.New(
		parser.New(parser.WithMaxBytes(cfg.Parser.MaxFileBytes)),
		ingestSvc, index, logger,
	)
	assistantSvc := assistantuc.New(queryEmbedder, index, completer, logger).
		WithTopK(cfg.Knowledge.TopK).
		WithSampling(*cfg.Completion.Temperature, cfg.Completion.MaxTokens)

	verifier := openaiTransport.NewVerifier(
		cfg.Embedding.BaseURL, creds, time.Duration(cfg.Embedding.TimeoutSec)*time.Second,
	)

	// Pass nil interface (not typed nil pointer!) when the cache is disabled.
	var cachePinger healthuc.CachePinger
	if store != nil {
		cachePinger = store
	}
	healthSvc := healthuc.New(cachePinger, creds, requiredProviders(&cfg)...).WithVerifier(verifier)

	server := chiTransport.NewServer(analyzeSvc, assistantSvc, index, creds, healthSvc, logger).
		WithVerifier(credential.OpenAI, verifier).
		WithMaxUploadBytes(cfg.Parser.MaxFileBytes)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      chiTransport.NewRouter(server, cfg.Auth.APIKeys, logger),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildProvider creates the rate-limited OpenAI embedding transport.
func buildProvider(cfg *config.Config, creds *credential.Store, logger *zap.Logger) domain.Embedder {
	var provider domain.Embedder = openaiTransport.NewEmbedder(&openaiTransport.Config{
		Keys:       creds,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Timeout:    time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
		Logger:     logger,
	})
	if cfg.Embedding.RateLimitRPS > 0 {
		provider = embeddinguc.NewRateLimitedEmbedder(provider, cfg.Embedding.RateLimitRPS, cfg.Embedding.RateLimitBurst)
	}
	return provider
}

// buildEmbedder assembles the decorator chain: provider -> Cached -> Instrumented -> Instruction.
// Cache hits never wait on the rate limiter.
func buildEmbedder(
	cfg *config.Config,
	provider domain.Embedder,
	instruction string,
	store db.Store,
	logger *zap.Logger,
) domain.Embedder {
	embedder := provider
	if store != nil {
		embedder = embcache.New(
			embedder, store, cfg.Embedding.Model,
			time.Duration(cfg.Cache.TTLSec)*time.Second,
			metrics.EmbeddingCacheTotal, logger,
		)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Embedding.Provider, cfg.Embedding.Model, logger)

	// Instruction prefix (outermost, so the cache key includes it)
	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction)
	}
	return embedder
}

func buildCompleter(cfg *config.Config, creds *credential.Store, logger *zap.Logger) domain.Completer {
	timeout := time.Duration(cfg.Completion.TimeoutSec) * time.Second
	switch cfg.Completion.Provider {
	case credential.Anthropic:
		return anthropicTransport.NewCompleter(&anthropicTransport.Config{
			Keys:    creds,
			BaseURL: cfg.Completion.BaseURL,
			Model:   cfg.Completion.Model,
			Timeout: timeout,
			Logger:  logger,
		})
	default:
		return openaiTransport.NewCompleter(&openaiTransport.Config{
			Keys:    creds,
			BaseURL: cfg.Completion.BaseURL,
			Model:   cfg.Completion.Model,
			Timeout: timeout,
			Logger:  logger,
		})
	}
}

func requiredProviders(cfg *config.Config) []string {
	providers := []string{cfg.Embedding.Provider}
	if cfg.Completion.Provider != cfg.Embedding.Provider {
		providers = append(providers, cfg.Completion.Provider)
	}
	return providers
}
