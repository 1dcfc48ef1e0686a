package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"product-enricher/internal/cache"
	"product-enricher/internal/common/logging"
	"product-enricher/internal/common/ratelimit"
	"product-enricher/internal/config"
	"product-enricher/internal/enricher"
	"product-enricher/internal/fields"
	"product-enricher/internal/handlers"
	"product-enricher/internal/prompt"
	"product-enricher/internal/provider"
	"product-enricher/internal/server"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logging.InitGlobalLogger(cfg.LogLevel)
	defer logging.MustSync()
	logger := logging.GetGlobalLogger()

	engine, err := prompt.NewEngine()
	if err != nil {
		log.Fatalf("Failed to compile prompt templates: %v", err)
	}

	registry := fields.NewRegistry()
	parser := provider.NewParser(registry, logger)

	var profiles map[string]fields.Profile
	if cfg.FieldProfilesPath != "" {
		profiles, err = fields.LoadProfiles(cfg.FieldProfilesPath, registry)
		if err != nil {
			log.Fatalf("Failed to load field profiles: %v", err)
		}
		logger.Info("field profiles loaded",
			logging.Field{Key: "path", Value: cfg.FieldProfilesPath},
			logging.Field{Key: "count", Value: len(profiles)},
		)
	}

	zhipu := provider.NewZhipu(provider.ZhipuConfig{
		APIKey:  cfg.ZhipuAPIKey,
		BaseURL: cfg.ZhipuBaseURL,
		Model:   cfg.ZhipuModel,
		Timeout: cfg.ZhipuTimeout,
	}, engine, parser, logger)

	cloudru := provider.NewCloudru(provider.CloudruConfig{
		APIKey:  cfg.CloudruAPIKey,
		BaseURL: cfg.CloudruBaseURL,
		Model:   cfg.CloudruModel,
		Timeout: cfg.CloudruTimeout,
	}, engine, parser, logger)

	resultCache, err := cache.New(cache.Config{
		Backend:   cache.Backend(cfg.CacheBackend),
		TTL:       cfg.CacheTTL,
		MaxSize:   cfg.CacheMaxSize,
		RedisURL:  cfg.RedisURL,
		KeyPrefix: "enrich:",
	}, logger)
	if err != nil {
		log.Fatalf("Failed to initialize cache: %v", err)
	}

	svc := enricher.New(zhipu, cloudru, resultCache, logger)

	limiter := ratelimit.NewLimiter(ratelimit.Config{
		Enabled:  cfg.RateLimitEnabled,
		Requests: cfg.RateLimitRPS,
		Window:   cfg.RateLimitWindow,
	})

	h := handlers.New(svc, registry, profiles, cfg.BatchMaxProducts, logger)
	router := server.NewRouter(h, limiter)
	srv := server.New(router, cfg.Addr())

	logger.Info("server starting",
		logging.Field{Key: "addr", Value: cfg.Addr()},
		logging.Field{Key: "cache_backend", Value: cfg.CacheBackend},
		logging.Field{Key: "cloudru_configured", Value: cloudru.IsConfigured()},
	)
	errCh := srv.Start()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		logger.Error("server failed", err)
		os.Exit(1)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", err)
	}
}
