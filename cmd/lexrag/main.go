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
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/legalmind/lexrag/internal/config"
	dbRedis "github.com/legalmind/lexrag/internal/db/redis"
	"github.com/legalmind/lexrag/internal/domain"
	logpkg "github.com/legalmind/lexrag/internal/logger"
	"github.com/legalmind/lexrag/internal/metrics"
	"github.com/legalmind/lexrag/internal/repository/classcache"
	consultationrepo "github.com/legalmind/lexrag/internal/repository/consultation"
	"github.com/legalmind/lexrag/internal/repository/embcache"
	"github.com/legalmind/lexrag/internal/repository/provcache"
	graphret "github.com/legalmind/lexrag/internal/retrieval/graph"
	"github.com/legalmind/lexrag/internal/retrieval/lexical"
	vectorret "github.com/legalmind/lexrag/internal/retrieval/vector"
	anthropicLLM "github.com/legalmind/lexrag/internal/transport/anthropic"
	chiTransport "github.com/legalmind/lexrag/internal/transport/chi"
	openaiLLM "github.com/legalmind/lexrag/internal/transport/openai"
	"github.com/legalmind/lexrag/internal/usecase/classify"
	"github.com/legalmind/lexrag/internal/usecase/cograg"
	"github.com/legalmind/lexrag/internal/usecase/fusion"
	healthuc "github.com/legalmind/lexrag/internal/usecase/health"
	"github.com/legalmind/lexrag/internal/usecase/integrator"
	"github.com/legalmind/lexrag/internal/usecase/memory"
	"github.com/legalmind/lexrag/internal/usecase/pipeline"
	"github.com/legalmind/lexrag/internal/usecase/planner"
	"github.com/legalmind/lexrag/internal/usecase/refiner"
	"github.com/legalmind/lexrag/internal/usecase/rerank"
	"github.com/legalmind/lexrag/internal/version"
)

// chunkIndex is the RediSearch index holding legal document chunks; both
// the lexical and the vector adapter search it.
const chunkIndex = "lexrag_chunks"

func main() {
	_ = godotenv.Load()

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

	logger.Info("Starting lexrag API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.Bool("graph_enabled", cfg.Graph.Enabled),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register engine collectors explicitly (no init())
	metrics.RegisterEngineMetrics()

	// Embedder chain: OpenAI -> Cached
	var embedder domain.Embedder = openaiLLM.NewEmbedder(&openaiLLM.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})
	baseEmbedder := embedder
	embedder = embcache.New(embedder, store, logger)

	// Language model chain: primary + ordered fallback, each behind the
	// per-tenant provider cache and rate limit.
	provCache := provcache.New(
		store,
		time.Duration(cfg.Engine.ProvCacheTTLSec)*time.Second,
		time.Duration(cfg.Engine.ProvRateWindowSec)*time.Second,
		int64(cfg.Engine.ProvRateLimit),
		logger,
	)
	model := buildModelChain(cfg.LLM, provCache, logger)

	// Retrieval adapters
	adapters := []fusion.Adapter{
		lexical.New(store, chunkIndex),
		vectorret.New(store, embedder, chunkIndex),
	}

	var graphDriver *graphret.Driver
	if cfg.Graph.Enabled {
		graphDriver, err = graphret.NewDriver(ctx, cfg.Graph.URI, cfg.Graph.Username, cfg.Graph.Password)
		if err != nil {
			logger.Fatal("Failed to connect graph store", zap.Error(err))
		}
		defer func() { _ = graphDriver.Close(ctx) }()
		adapters = append(adapters, graphret.New(graphDriver))
		logger.Info("Graph enrichment enabled", zap.String("uri", cfg.Graph.URI))
	}

	// Engine stages
	classCache := classcache.New(store, time.Duration(cfg.Engine.ClassCacheTTLSec)*time.Second, logger)
	classifySvc := classify.New(model, classCache)

	fusionSvc := fusion.New(adapters,
		time.Duration(cfg.Engine.AdapterTimeoutSec)*time.Second, cfg.Engine.RRFK)

	rerankSvc := rerank.New(rerank.NewLLMProvider(model, "llm"))

	plannerSvc := planner.New(model, planner.Config{
		MaxDepth:    cfg.Engine.PlannerMaxDepth,
		MaxChildren: cfg.Engine.PlannerMaxChildren,
		MaxParallel: cfg.Engine.PlannerMaxParallel,
		Heuristic:   planner.DefaultHeuristic(),
	})

	refinerSvc := refiner.New(refiner.Config{
		ConflictWindow: cfg.Engine.ConflictWindow,
	}, refiner.DefaultVocabulary())

	integratorSvc := integrator.New(model)

	memorySvc := memory.New(
		consultationrepo.New(store, logger),
		cfg.Engine.MemoryThreshold,
	)

	pipelineSvc := pipeline.New(classifySvc, fusionSvc, rerankSvc, pipeline.Config{
		MinBest:     cfg.Engine.GateMinBest,
		MinAvgTop3:  cfg.Engine.GateMinAvgTop3,
		GraphWeight: cfg.Engine.GraphWeight,
		AllowLLM:    cfg.Engine.AllowLLMClass,
	})

	cogragSvc := cograg.New(
		classifySvc, fusionSvc, rerankSvc, plannerSvc, refinerSvc, integratorSvc,
		memorySvc, model,
		cograg.Config{
			MaxBranches:     cfg.Engine.MaxBranches,
			TopK:            cfg.Engine.TopK,
			EvidencePerNode: cfg.Engine.EvidencePerNode,
			MinBest:         cfg.Engine.GateMinBest,
			MinAvgTop3:      cfg.Engine.GateMinAvgTop3,
			GraphWeight:     cfg.Engine.GraphWeight,
			Budget:          time.Duration(cfg.Engine.BudgetSec) * time.Second,
			AllowLLM:        cfg.Engine.AllowLLMClass,
			ReuseMemory:     cfg.Engine.ReuseMemory,
			AbstainOnGap:    cfg.Engine.AbstainOnGap,
			IncludeGraph:    cfg.Graph.Enabled,
		},
	)

	var graphPinger healthuc.GraphPinger
	if graphDriver != nil {
		graphPinger = graphDriver
	}
	healthSvc := healthuc.New(store, graphPinger, newEmbeddingHealthChecker(baseEmbedder))

	server := chiTransport.NewServer(pipelineSvc, cogragSvc, memorySvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
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

// buildModelChain assembles the language model: each configured provider
// bounded by the per-provider timeout and wrapped in the provider cache,
// composed into an explicit ordered fallback chain.
func buildModelChain(cfg config.LLMConfig, cache *provcache.Cache, logger *zap.Logger) domain.LanguageModel {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	build := func(name string) domain.LanguageModel {
		p := cfg.Providers[name]
		var m domain.LanguageModel
		switch name {
		case "anthropic":
			m = anthropicLLM.New(&anthropicLLM.Config{
				APIKey:  p.APIKey,
				BaseURL: p.BaseURL,
				Model:   p.Model,
				Logger:  logger,
			})
		default:
			m = openaiLLM.NewLLM(&openaiLLM.LLMConfig{
				APIKey:   p.APIKey,
				BaseURL:  p.BaseURL,
				Model:    p.Model,
				Provider: name,
				Logger:   logger,
			})
		}
		return provcache.NewModel(domain.NewTimeoutModel(m, timeout), cache, name)
	}

	models := []domain.LanguageModel{build(cfg.Primary)}
	for _, name := range cfg.Fallback {
		models = append(models, build(name))
	}
	return domain.NewFallbackModel(models...)
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
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

			// Canonical log line, one per request
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
