package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/esquery/internal/config"
	logpkg "github.com/kailas-cloud/esquery/internal/logger"
	"github.com/kailas-cloud/esquery/internal/metrics"
	"github.com/kailas-cloud/esquery/internal/querycache"
	"github.com/kailas-cloud/esquery/internal/resultmap"
	"github.com/kailas-cloud/esquery/internal/security"
	chiTransport "github.com/kailas-cloud/esquery/internal/transport/chi"
	"github.com/kailas-cloud/esquery/internal/translate"
	healthuc "github.com/kailas-cloud/esquery/internal/usecase/health"
	searchuc "github.com/kailas-cloud/esquery/internal/usecase/search"
	"github.com/kailas-cloud/esquery/internal/version"
)

func main() {
	// Load configuration based on ENV
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

	logger.Info("Starting esquery API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("default_index", cfg.Index.Default),
		zap.Strings("allowed_indices", cfg.Security.AllowedIndices),
	)

	metrics.RegisterHTTPMetrics()
	metrics.RegisterQueryMetrics()

	// Composition root
	gate := security.NewGate(cfg.SecurityLimits())
	cache := querycache.New(cfg.Cache.MaxEntries, cfg.Cache.MaxAge,
		querycache.WithMetrics(metrics.CacheMetrics()),
	)
	translator := translate.New(
		translate.WithCache(cache),
		translate.WithMaxDepth(gate.Config().MaxQueryDepth),
		translate.WithEvictProbability(*cfg.Cache.EvictionProbability),
		translate.WithQueryStringSanitizer(gate.SanitizeQueryString),
		translate.WithDurationObserver(metrics.TranslateDuration),
		translate.WithLogger(logger.Named("translate")),
	)
	mapper := resultmap.New(cfg.MapperOptions())

	searchSvc := searchuc.New(translator, gate, mapper, cfg.Index.Default).
		WithIDAlias(cfg.Mapping.IDAlias).
		WithPagination(cfg.Index.DefaultPageSize, cfg.Index.MaxPageSize).
		WithRejectionCounter(metrics.QueryRejectionsTotal)
	healthSvc := healthuc.New(translator, cache)

	server := chiTransport.NewServer(searchSvc, healthSvc, logger,
		chiTransport.WithDetailedErrors(gate.DetailedErrors()),
		chiTransport.WithMaxBodyBytes(cfg.HTTP.MaxBodyBytes),
	)
	r := chiTransport.NewRouter(server, cfg.Auth.APIKeys)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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

	st := cache.Stats()
	logger.Info("Server stopped gracefully",
		zap.Uint64("cache_hits", st.Hits),
		zap.Uint64("cache_misses", st.Misses),
	)
}
