package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/user/catalog-crawler/internal/api"
	"github.com/user/catalog-crawler/internal/config"
	"github.com/user/catalog-crawler/internal/fetch"
	"github.com/user/catalog-crawler/internal/monitoring"
	"github.com/user/catalog-crawler/internal/pipeline"
	"github.com/user/catalog-crawler/internal/seed"
	"github.com/user/catalog-crawler/internal/storage"
)

func main() {
	// Initialize structured logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("could not load config", zap.Error(err))
	}

	// Initialize Storage Layer. Postgres is optional; without it the
	// records endpoint is disabled but jobs still run.
	var pgStore *storage.PostgresStore
	if cfg.PostgresURL != "" {
		pgStore, err = storage.NewPostgresStore(cfg.PostgresURL)
		if err != nil {
			logger.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer pgStore.Close()
	}
	redisStore := storage.NewRedisStore(cfg.RedisAddr)
	defer redisStore.Close()

	// Initialize Monitoring and the Crawl Pipeline
	metrics := monitoring.NewMetrics()
	browser := fetch.NewBrowser(cfg, logger, metrics)
	resolver := seed.NewResolver(seed.NewHTTPSearcher(cfg.SearchEndpoint), logger)
	runner := pipeline.NewRunner(resolver, browser, fetch.NewHeadChecker(), cfg, logger, metrics)

	// Initialize API Server
	server := api.NewServer(cfg, runner, pgStore, redisStore, logger)

	// Graceful Shutdown
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("could not start server", zap.Error(err))
		}
	}()

	logger.Info("server started", zap.String("port", cfg.ServerPort))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exiting")
}
