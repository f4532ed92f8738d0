// cmd/api-server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"airtable-gateway/internal/api"
	"airtable-gateway/internal/common/airtable"
	"airtable-gateway/internal/common/config"
	"airtable-gateway/internal/common/database"
	"airtable-gateway/internal/common/logger"
	"airtable-gateway/internal/common/observability"
	"airtable-gateway/internal/repository"
	"airtable-gateway/internal/schema"
	"airtable-gateway/internal/service"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	zapLog.Info("Starting API server...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	// Switch to the configured logger now that config is available
	zapLog = logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Load Schema Registry ---
	registry, err := schema.LoadRegistry(cfg.Schemas.Dir)
	if err != nil {
		zapLog.Fatal("schema registry load failed", zap.Error(err))
	}
	zapLog.Info("Schema registry loaded",
		zap.Int("tables", registry.Len()),
		zap.Strings("tableNames", registry.Tables()),
	)

	// --- Init Redis with retry (optional record cache) ---
	var redisClient *database.RedisClient
	if cfg.Cache.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			redisClient, err = database.NewRedis(cfg.Cache.Redis)
			if err != nil {
				return err
			}
			// Test the connection with context
			return redisClient.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redisClient.Close()
		zapLog.Info("Redis connected successfully")
	} else {
		zapLog.Info("Record cache disabled")
	}

	// --- Init Airtable Client ---
	airtableClient := airtable.NewClient(cfg.Airtable)
	zapLog.Info("Airtable client initialized",
		zap.String("baseUrl", cfg.Airtable.BaseURL),
		zap.String("baseId", cfg.Airtable.BaseID),
	)

	// --- Wire Layers ---
	var cache *goredis.Client
	if redisClient != nil {
		cache = redisClient.GetClient()
	}
	repo := repository.New(airtableClient, registry, cache, config.GetDuration(cfg.Cache.TTL), log)

	policy, err := schema.ParsePrecisionPolicy(cfg.Validation.PrecisionPolicy)
	if err != nil {
		zapLog.Fatal("invalid precision policy", zap.Error(err))
	}
	validator := schema.NewValidator(policy)

	svc := service.New(repo, validator, obs, log)
	server := api.NewServer(cfg, svc, registry, redisClient, log)

	// --- HTTP Server ---
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      server,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
		IdleTimeout:  config.GetDuration(cfg.Server.IdleTimeout),
	}

	go func() {
		zapLog.Info("API server listening", zap.String("addr", addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("API server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining connections...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP server shutdown failed", zap.Error(err))
	}

	zapLog.Info("API server stopped gracefully")
}
