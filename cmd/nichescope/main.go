package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/nichescope/internal/cache"
	cacheRedis "github.com/kailas-cloud/nichescope/internal/cache/redis"
	cacheSqlite "github.com/kailas-cloud/nichescope/internal/cache/sqlite"
	"github.com/kailas-cloud/nichescope/internal/config"
	logpkg "github.com/kailas-cloud/nichescope/internal/logger"
	"github.com/kailas-cloud/nichescope/internal/metrics"
	"github.com/kailas-cloud/nichescope/internal/retry"
	"github.com/kailas-cloud/nichescope/internal/transport/httpapi"
	openaiStrat "github.com/kailas-cloud/nichescope/internal/transport/openai"
	"github.com/kailas-cloud/nichescope/internal/transport/serpapi"
	"github.com/kailas-cloud/nichescope/internal/transport/youtube"
	analyzeuc "github.com/kailas-cloud/nichescope/internal/usecase/analyze"
	enrichuc "github.com/kailas-cloud/nichescope/internal/usecase/enrich"
	healthuc "github.com/kailas-cloud/nichescope/internal/usecase/health"
	quotauc "github.com/kailas-cloud/nichescope/internal/usecase/quota"
	searchuc "github.com/kailas-cloud/nichescope/internal/usecase/search"
	strategyuc "github.com/kailas-cloud/nichescope/internal/usecase/strategy"
	tagsuc "github.com/kailas-cloud/nichescope/internal/usecase/tags"
	"github.com/kailas-cloud/nichescope/internal/version"
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

	logger.Info("Starting nichescope API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("cache_driver", cfg.Cache.Driver),
	)

	// Create cache store based on driver
	var store cache.Store
	switch cfg.Cache.Driver {
	case "redis":
		store, err = cacheRedis.New(cacheRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		}, logger)
	case "sqlite":
		store, err = cacheSqlite.New(cacheSqlite.Config{
			Path:       cfg.Cache.Path,
			MaxRecords: cfg.Cache.MaxRecords,
		}, logger)
	default:
		logger.Fatal("Unknown cache driver", zap.String("driver", cfg.Cache.Driver))
	}
	if err != nil {
		logger.Fatal("Failed to create cache store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Ping(ctx); err != nil {
		logger.Fatal("Cache store not ready", zap.Error(err))
	}
	logger.Info("Cache store ready")

	// Register provider metrics explicitly (no init())
	metrics.RegisterProviderMetrics()

	exec := retry.New(retry.Config{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   time.Duration(cfg.Retry.BaseDelayMs) * time.Millisecond,
	})

	tracker := quotauc.NewTracker(cfg.Quota.DailyUnitLimit, quotauc.Action(cfg.Quota.Action), logger)

	ytClient := youtube.New(youtube.Config{
		APIKey:  cfg.YouTube.APIKey,
		BaseURL: cfg.YouTube.BaseURL,
		Timeout: time.Duration(cfg.YouTube.TimeoutSec) * time.Second,
		Logger:  logger,
	})

	// Pass nil interface (not typed nil pointer!) when a provider is not
	// configured. Go gotcha: (*serpapi.Client)(nil) wrapped in
	// VolumeEstimator != nil.
	var estimator tagsuc.VolumeEstimator
	if cfg.SerpAPI.APIKey != "" {
		estimator = serpapi.New(serpapi.Config{
			APIKey:  cfg.SerpAPI.APIKey,
			BaseURL: cfg.SerpAPI.BaseURL,
			Logger:  logger,
		})
		logger.Info("SerpAPI volume estimator enabled")
	} else {
		logger.Info("No SerpAPI key configured, using heuristic volume estimator")
	}

	var generator strategyuc.Generator
	if cfg.OpenAI.APIKey != "" {
		generator = openaiStrat.NewStrategist(&openaiStrat.Config{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.Model,
			Logger:  logger,
		})
		logger.Info("AI strategist enabled", zap.String("model", cfg.OpenAI.Model))
	} else {
		logger.Info("No OpenAI key configured, using rule-based strategist")
	}

	// Create use case services
	searchSvc := searchuc.New(ytClient, tracker, store, exec, searchuc.Config{
		MaxResultsCeiling: cfg.Search.MaxResultsCeiling,
		PageSize:          cfg.Search.PageSize,
	}, logger)
	enrichSvc := enrichuc.New(ytClient, tracker, store, exec, enrichuc.Config{
		ChunkSize: cfg.Search.ChunkSize,
	}, logger)
	analyzeSvc := analyzeuc.New(searchSvc, enrichSvc, store, logger)
	tagsSvc := tagsuc.New(estimator, store, exec, tagsuc.Config{
		Concurrency: cfg.Tags.Concurrency,
		MinSpacing:  time.Duration(cfg.Tags.MinSpacingMs) * time.Millisecond,
	}, logger)
	strategySvc := strategyuc.New(generator, store, exec, cfg.OpenAI.Model, logger)
	healthSvc := healthuc.New(store)

	// Create HTTP server
	server := httpapi.NewServer(analyzeSvc, tagsSvc, strategySvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(httpapi.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

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

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
