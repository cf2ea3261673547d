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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/reguwatch/internal/config"
	"github.com/kailas-cloud/reguwatch/internal/db"
	dbRedis "github.com/kailas-cloud/reguwatch/internal/db/redis"
	"github.com/kailas-cloud/reguwatch/internal/domain"
	"github.com/kailas-cloud/reguwatch/internal/embedding"
	"github.com/kailas-cloud/reguwatch/internal/index"
	logpkg "github.com/kailas-cloud/reguwatch/internal/logger"
	"github.com/kailas-cloud/reguwatch/internal/metrics"
	"github.com/kailas-cloud/reguwatch/internal/repository/alerthistory"
	"github.com/kailas-cloud/reguwatch/internal/repository/embcache"
	"github.com/kailas-cloud/reguwatch/internal/repository/seenids"
	"github.com/kailas-cloud/reguwatch/internal/source"
	chiTransport "github.com/kailas-cloud/reguwatch/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/reguwatch/internal/transport/openai"
	"github.com/kailas-cloud/reguwatch/internal/usecase/alerting"
	healthuc "github.com/kailas-cloud/reguwatch/internal/usecase/health"
	"github.com/kailas-cloud/reguwatch/internal/usecase/ingest"
	queryuc "github.com/kailas-cloud/reguwatch/internal/usecase/query"
	"github.com/kailas-cloud/reguwatch/internal/version"
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

	logger.Info("Starting reguwatch pipeline",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Int("ingest_interval_sec", cfg.Ingest.IntervalSec),
	)

	metrics.RegisterPipelineMetrics()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Optional Redis store: embedding cache + persistent dedup. The
	// pipeline runs fully in-memory without it.
	var store db.Store
	if len(cfg.Database.Addrs) > 0 {
		redisStore, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create database store", zap.Error(err))
		}
		defer redisStore.Close()

		if err := redisStore.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Database not ready", zap.Error(err))
		}
		logger.Info("Connected to database", zap.Strings("addrs", cfg.Database.Addrs))
		store = redisStore
	} else {
		logger.Info("No database configured, running in-memory")
	}

	embedder := buildEmbedder(cfg, store, logger)

	ix := index.Load(cfg.Index.DataDir, cfg.Embedding.Dimensions, logger)

	targets := domain.NewTargetSet()
	history := alerthistory.New(cfg.Alerts.Capacity)
	engine := alerting.New(targets, cfg.Alerts.TransactionThresholdETH, logger)

	var seen seenids.SeenStore
	if store != nil {
		seen = seenids.NewPersistent(store, time.Duration(cfg.Ingest.SeenTTLHours)*time.Hour, logger)
	} else {
		seen = seenids.NewMemory()
	}

	coordinator := ingest.New(
		buildSources(cfg, targets, logger),
		seen, embedder, ix, engine, history,
		ingest.Config{
			Interval:      time.Duration(cfg.Ingest.IntervalSec) * time.Second,
			ErrorBackoff:  time.Duration(cfg.Ingest.ErrorBackoffSec) * time.Second,
			MaxConcurrent: cfg.Ingest.MaxConcurrent,
			SnapshotDir:   cfg.Index.DataDir,
		},
		logger,
	)
	go coordinator.Run(ctx)

	querySvc := queryuc.New(embedder, ix, logger)

	var pinger healthuc.DBPinger
	if store != nil {
		pinger = store
	}
	healthSvc := healthuc.New(pinger, embedder)

	server := chiTransport.NewServer(targets, history, querySvc, healthSvc, coordinator, ix, coordinator, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

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

	// Stop the ingest loop, then persist the index before the server
	// goes away.
	cancel()
	if err := ix.Save(cfg.Index.DataDir); err != nil {
		logger.Error("Failed to save index snapshot", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Fallback.
// Without an API key the deterministic hash fallback serves everything.
func buildEmbedder(cfg config.Config, store db.Store, logger *zap.Logger) *embedding.FallbackEmbedder {
	var inner domain.Embedder

	if cfg.Embedding.APIKey != "" {
		base := openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Provider:   cfg.Embedding.Provider,
			Logger:     logger,
		})

		inner = base
		if store != nil {
			inner = embcache.New(base, store, metrics.EmbeddingCacheTotal, logger)
		}
		logger.Info("Embedder created",
			zap.String("provider", cfg.Embedding.Provider),
			zap.String("model", cfg.Embedding.Model),
			zap.Int("dimensions", cfg.Embedding.Dimensions),
		)
	} else {
		logger.Warn("No embedding API key, using deterministic hash embeddings")
	}

	return embedding.NewFallbackEmbedder(inner, cfg.Embedding.Dimensions, logger)
}

// buildSources assembles the configured feed adapters.
func buildSources(cfg config.Config, targets *domain.TargetSet, logger *zap.Logger) []ingest.SourceAdapter {
	client := &http.Client{Timeout: time.Duration(cfg.Ingest.FetchTimeoutSec) * time.Second}
	src := cfg.Ingest.Sources

	var adapters []ingest.SourceAdapter
	if src.SanctionsURL != "" {
		adapters = append(adapters, source.NewSanctionsAdapter(src.SanctionsURL, client, logger))
	}
	for name, url := range src.RSSFeeds {
		if url != "" {
			adapters = append(adapters, source.NewRegFeedAdapter(name, url, client, logger))
		}
	}
	if src.NewsURL != "" && src.NewsAPIKey != "" {
		adapters = append(adapters, source.NewNewsFeedAdapter(src.NewsURL, src.NewsAPIKey, client, logger))
	}
	if src.LedgerURL != "" && src.LedgerAPIKey != "" {
		adapters = append(adapters, source.NewLedgerAdapter(src.LedgerURL, src.LedgerAPIKey, targets, client, logger))
	}

	names := make([]string, len(adapters))
	for i, a := range adapters {
		names[i] = a.Name()
	}
	logger.Info("Source adapters configured", zap.Strings("sources", names))
	return adapters
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
